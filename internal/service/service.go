// Package service реализует бизнес-логику сервиса wakeup-challenge.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/wakeup-challenge/internal/metrics"
	"github.com/mmeshcher/wakeup-challenge/internal/model"
	"github.com/mmeshcher/wakeup-challenge/internal/repository"
)

// ErrNoPaymentSlot возвращается при попытке выплаты вне состояния PAYOUT_AVAILABLE.
var (
	ErrNoPaymentSlot = errors.New("no payment slot available")
	// ErrMalformedParameter возвращается, если сохранённое значение параметра не разбирается.
	ErrMalformedParameter = errors.New("malformed stored parameter")
)

// defaultName подставляется вместо пустого имени победителя.
const defaultName = "anonymous"

// Repository описывает контракт хранилища параметров, используемый сервисом.
// Хранилище даёт last-write-wins без транзакций между ключами; сервис
// не делает повторов — любая ошибка фатальна для текущего вызова.
type Repository interface {
	Close() error
	GetParameter(ctx context.Context, name string) (model.Parameter, error)
	SetParameter(ctx context.Context, name, value string) error
	GetParametersByPrefix(ctx context.Context) (map[string]model.Parameter, error)
}

// Notifier описывает канал публичных уведомлений.
type Notifier interface {
	Post(ctx context.Context, message string) error
}

// Options задаёт параметры дневного окна выплат.
type Options struct {
	// Judgement — судное время как смещение от начала дня в опорной зоне.
	Judgement time.Duration
	// MinPrice и MaxPrice ограничивают дневной приз включительно.
	MinPrice int
	MaxPrice int
	// Location — опорная зона для границ календарного дня.
	Location *time.Location
	// DomainName подставляется в текст публичного уведомления.
	DomainName string
}

// Service содержит бизнес-логику сервиса wakeup-challenge.
type Service struct {
	repo     Repository
	notifier Notifier
	logger   *zap.Logger
	metrics  *metrics.Metrics
	opts     Options

	// now подменяется в тестах.
	now func() time.Time
}

// NewService создаёт новый сервис с указанным хранилищем и каналом уведомлений.
// Канал может быть nil, тогда уведомления отключены.
func NewService(repo Repository, notifier Notifier, logger *zap.Logger, m *metrics.Metrics, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Service{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		metrics:  m,
		opts:     opts,
		now:      time.Now,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// GetState возвращает свежий снимок состояния окна выплаты.
// Побочный эффект: если цена дня ещё не назначена, она назначается здесь.
func (s *Service) GetState(ctx context.Context) (*model.StateSnapshot, error) {
	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("state calculated",
		zap.String("state", string(snap.State)),
		zap.Time("judgementTime", snap.JudgementInstant),
		zap.Time("lastConfirmation", snap.LastConfirmation),
		zap.Int("priceToday", snap.PriceToday),
	)

	return snap, nil
}

// RequestPayment проводит выплату по запросу пользователя.
// Запрос принимается только в состоянии PAYOUT_AVAILABLE, иначе
// возвращается ErrNoPaymentSlot без изменения хранилища.
func (s *Service) RequestPayment(ctx context.Context, req model.PaymentRequest) error {
	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return err
	}

	if snap.State != model.PaymentStateAvailable {
		return fmt.Errorf("%w: state is %s", ErrNoPaymentSlot, snap.State)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = defaultName
	}

	payouts := append(snap.Payouts, model.PayoutRecord{
		Confirmed:     false,
		Timestamp:     model.FormatTimestamp(s.now()),
		PaypalAddress: req.PaypalAddress,
		Name:          name,
		Value:         snap.PriceToday,
	})

	encoded, err := json.Marshal(payouts)
	if err != nil {
		return fmt.Errorf("encode payouts: %w", err)
	}

	// Чтение и запись истории не атомарны: при одновременных заявках
	// побеждает последняя запись.
	if err := s.repo.SetParameter(ctx, repository.ParamLastPayouts, string(encoded)); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.PayoutsAccepted.Inc()
	}

	s.logger.Info("payout recorded",
		zap.String("name", name),
		zap.Int("value", snap.PriceToday),
	)

	return nil
}

// NotifyMissedWindow проверяет пропущенное окно и публикует уведомление
// не чаще одного раза в день. Отметка о публикации пишется до отправки;
// неудачная отправка логируется и в этот день не повторяется.
func (s *Service) NotifyMissedWindow(ctx context.Context) (bool, error) {
	if s.notifier == nil {
		s.logger.Info("notifier not configured, skipping missed-window check")
		return false, nil
	}

	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return false, err
	}

	lastNotification, err := s.lastNotification(ctx)
	if err != nil {
		return false, err
	}

	todayStart := dayStart(s.now(), s.opts.Location)
	alreadyNotified := !lastNotification.Before(todayStart)

	if snap.State != model.PaymentStateAvailable || alreadyNotified {
		s.logger.Info("no notification needed",
			zap.String("state", string(snap.State)),
			zap.Time("lastNotification", lastNotification),
		)
		return false, nil
	}

	if err := s.repo.SetParameter(ctx, repository.ParamLastNotification, model.FormatTimestamp(s.now())); err != nil {
		return false, err
	}

	message := fmt.Sprintf(
		"I horribly failed to get up early today because I'm super lazy 🙋‍♂️. "+
			"The first to notice this will receive %d€ via PayPal at https://%s 💸",
		snap.PriceToday, s.opts.DomainName,
	)

	if err := s.notifier.Post(ctx, message); err != nil {
		s.logger.Error("post notification error", zap.Error(err))
		return true, nil
	}

	if s.metrics != nil {
		s.metrics.NotificationsPosted.Inc()
	}

	s.logger.Info("missed-window notification posted", zap.Int("priceToday", snap.PriceToday))

	return true, nil
}

// loadSnapshot читает параметры, назначает цену дня и вычисляет состояние.
// Снимок собирается заново на каждый вызов, между вызовами ничего не кешируется.
func (s *Service) loadSnapshot(ctx context.Context) (*model.StateSnapshot, error) {
	params, err := s.repo.GetParametersByPrefix(ctx)
	if err != nil {
		return nil, err
	}

	lastConfirmation, err := model.ParseTimestamp(params[repository.ParamLastConfirmation].Value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedParameter, repository.ParamLastConfirmation)
	}

	payouts := []model.PayoutRecord{}
	if raw := params[repository.ParamLastPayouts].Value; raw != "" {
		if err := json.Unmarshal([]byte(raw), &payouts); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMalformedParameter, repository.ParamLastPayouts)
		}
	}

	price, err := s.ensureTodayPrice(ctx, params[repository.ParamPriceToday])
	if err != nil {
		return nil, err
	}

	now := s.now()
	state, err := ComputeState(now, s.opts.Judgement, lastConfirmation, payouts, s.opts.Location)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.StateChecks.WithLabelValues(string(state)).Inc()
	}

	return &model.StateSnapshot{
		State:            state,
		JudgementInstant: dayStart(now, s.opts.Location).Add(s.opts.Judgement),
		LastConfirmation: lastConfirmation,
		PriceToday:       price,
		Payouts:          payouts,
	}, nil
}

// lastNotification читает отметку последней публикации.
// Отсутствующий параметр означает, что публикаций ещё не было.
func (s *Service) lastNotification(ctx context.Context) (time.Time, error) {
	p, err := s.repo.GetParameter(ctx, repository.ParamLastNotification)
	if err != nil {
		if errors.Is(err, repository.ErrParameterNotFound) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}

	ts, err := model.ParseTimestamp(p.Value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s", ErrMalformedParameter, repository.ParamLastNotification)
	}

	return ts, nil
}

// ensureTodayPrice возвращает цену дня, назначая новую не чаще раза в день.
// Сохранённое значение переиспользуется, только если оно числовое и менялось
// сегодня по календарю опорной зоны; иначе разыгрывается новое и перезаписывается.
func (s *Service) ensureTodayPrice(ctx context.Context, stored model.Parameter) (int, error) {
	price, err := strconv.Atoi(strings.TrimSpace(stored.Value))
	if err == nil && sameDay(stored.LastModified, s.now(), s.opts.Location) {
		return price, nil
	}

	price = rand.Intn(s.opts.MaxPrice-s.opts.MinPrice+1) + s.opts.MinPrice

	if err := s.repo.SetParameter(ctx, repository.ParamPriceToday, strconv.Itoa(price)); err != nil {
		return 0, err
	}

	s.logger.Info("new price calculated", zap.Int("priceToday", price))

	return price, nil
}
