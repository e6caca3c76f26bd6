// Package metrics содержит счётчики Prometheus сервиса wakeup-challenge.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics объединяет счётчики бизнес-операций сервиса.
type Metrics struct {
	StateChecks         *prometheus.CounterVec
	PayoutsAccepted     prometheus.Counter
	NotificationsPosted prometheus.Counter
}

// New регистрирует счётчики в указанном реестре и возвращает их.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StateChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wakeup_state_checks_total",
				Help: "Number of payment state computations by resulting state.",
			},
			[]string{"state"},
		),
		PayoutsAccepted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wakeup_payouts_accepted_total",
				Help: "Number of accepted payout claims.",
			},
		),
		NotificationsPosted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wakeup_notifications_posted_total",
				Help: "Number of missed-window notifications posted.",
			},
		),
	}

	reg.MustRegister(m.StateChecks, m.PayoutsAccepted, m.NotificationsPosted)

	return m
}
