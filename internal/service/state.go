package service

import (
	"fmt"
	"time"

	"github.com/mmeshcher/wakeup-challenge/internal/model"
)

// ComputeState вычисляет состояние дневного окна выплаты.
// Функция чистая: никаких побочных эффектов и обращений к часам хоста,
// границы календарного дня считаются только в переданной опорной зоне.
// Ветви проверяются в строгом порядке, срабатывает первая истинная.
func ComputeState(now time.Time, judgement time.Duration, lastConfirmation time.Time, payouts []model.PayoutRecord, loc *time.Location) (model.PaymentState, error) {
	todayStart := dayStart(now, loc)
	judgementInstant := todayStart.Add(judgement)

	winnerForToday := false
	for _, p := range payouts {
		ts, err := model.ParseTimestamp(p.Timestamp)
		if err != nil {
			return "", fmt.Errorf("%w: payout %s", ErrMalformedParameter, p.Timestamp)
		}
		if ts.After(todayStart) {
			winnerForToday = true
			break
		}
	}

	isBeforeJudgement := now.Before(judgementInstant)
	successfullySkipped := lastConfirmation.After(todayStart) && judgementInstant.After(lastConfirmation)

	switch {
	case successfullySkipped:
		return model.PaymentStateSkipped, nil
	case isBeforeJudgement:
		return model.PaymentStatePossible, nil
	case !winnerForToday:
		return model.PaymentStateAvailable, nil
	default:
		return model.PaymentStateAlreadyProcessed, nil
	}
}

// dayStart возвращает начало календарного дня момента now в опорной зоне.
func dayStart(now time.Time, loc *time.Location) time.Time {
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// sameDay сообщает, приходятся ли оба момента на один календарный день опорной зоны.
func sameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
