// Package model содержит доменные сущности сервиса wakeup-challenge.
package model

import (
	"fmt"
	"time"
)

// TimestampLayout — формат хранения всех временных меток в хранилище параметров.
// Метки всегда в UTC, поэтому лексикографический порядок строк совпадает с
// хронологическим.
const TimestampLayout = "20060102150405"

// PaymentState описывает состояние дневного окна выплаты.
type PaymentState string

const (
	// PaymentStateAlreadyProcessed — выплата за сегодня уже произведена, есть победитель.
	PaymentStateAlreadyProcessed PaymentState = "PAYOUT_ALREADY_PROCESSED_TODAY"
	// PaymentStateSkipped — подтверждение успело прийти до судного времени, выплаты сегодня не будет.
	PaymentStateSkipped PaymentState = "PAYOUT_SKIPPED_TODAY"
	// PaymentStatePossible — судное время ещё не наступило, подтверждение ещё возможно.
	PaymentStatePossible PaymentState = "PAYOUT_POSSIBLE"
	// PaymentStateAvailable — судное время прошло без подтверждения, выплата доступна.
	PaymentStateAvailable PaymentState = "PAYOUT_AVAILABLE"
)

// PayoutRecord описывает одну произведённую выплату.
// Поле Confirmed выставляется внешним процессом и сервисом никогда не меняется.
// Имена JSON-полей зафиксированы форматом хранения.
type PayoutRecord struct {
	Confirmed     bool   `json:"confirmed"`
	Timestamp     string `json:"timestamp"`
	PaypalAddress string `json:"paypalAddress,omitempty"`
	Name          string `json:"name"`
	Value         int    `json:"value"`
}

// Parameter содержит значение именованного параметра и время его последнего изменения.
type Parameter struct {
	Name         string
	Value        string
	LastModified time.Time
}

// StateSnapshot — результат расчёта состояния окна на момент запроса.
type StateSnapshot struct {
	State            PaymentState
	JudgementInstant time.Time
	LastConfirmation time.Time
	PriceToday       int
	Payouts          []PayoutRecord
}

// PaymentRequest — запрос пользователя на выплату.
type PaymentRequest struct {
	PaypalAddress string
	Name          string
}

// FormatTimestamp приводит момент времени к формату хранения (UTC).
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp разбирает временную метку из хранилища.
// Пустая строка означает "никогда" и даёт нулевой момент времени.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(TimestampLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
