package service

import (
	"testing"
	"time"

	"github.com/mmeshcher/wakeup-challenge/internal/model"
)

func TestComputeState(t *testing.T) {
	day := time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)

	payoutAt := func(ts time.Time) []model.PayoutRecord {
		return []model.PayoutRecord{
			{Timestamp: model.FormatTimestamp(ts), Name: "winner", Value: 10},
		}
	}

	tests := []struct {
		name             string
		now              time.Time
		judgement        time.Duration
		lastConfirmation time.Time
		payouts          []model.PayoutRecord
		want             model.PaymentState
	}{
		{
			name:      "before judgement without confirmation",
			now:       day.Add(5 * time.Hour),
			judgement: 6 * time.Hour,
			want:      model.PaymentStatePossible,
		},
		{
			name:      "past judgement without confirmation or winner",
			now:       day.Add(7 * time.Hour),
			judgement: 6 * time.Hour,
			want:      model.PaymentStateAvailable,
		},
		{
			name:      "past judgement with winner today",
			now:       day.Add(8 * time.Hour),
			judgement: 6 * time.Hour,
			payouts:   payoutAt(day.Add(7*time.Hour + 30*time.Minute)),
			want:      model.PaymentStateAlreadyProcessed,
		},
		{
			name:             "confirmation before judgement wins over payout history",
			now:              day.Add(9 * time.Hour),
			judgement:        8 * time.Hour,
			lastConfirmation: day.Add(7 * time.Hour),
			payouts:          payoutAt(day.Add(8*time.Hour + 30*time.Minute)),
			want:             model.PaymentStateSkipped,
		},
		{
			name:             "confirmation after judgement does not skip",
			now:              day.Add(9*time.Hour + 30*time.Minute),
			judgement:        6 * time.Hour,
			lastConfirmation: day.Add(9 * time.Hour),
			want:             model.PaymentStateAvailable,
		},
		{
			name:             "yesterday confirmation does not skip",
			now:              day.Add(5 * time.Hour),
			judgement:        6 * time.Hour,
			lastConfirmation: day.Add(-2 * time.Hour),
			want:             model.PaymentStatePossible,
		},
		{
			name:      "yesterday winner does not count today",
			now:       day.Add(7 * time.Hour),
			judgement: 6 * time.Hour,
			payouts:   payoutAt(day.Add(-5 * time.Hour)),
			want:      model.PaymentStateAvailable,
		},
		{
			name:      "payout exactly at day start is not a winner",
			now:       day.Add(7 * time.Hour),
			judgement: 6 * time.Hour,
			payouts:   payoutAt(day),
			want:      model.PaymentStateAvailable,
		},
		{
			name:      "exactly at judgement instant is past judgement",
			now:       day.Add(6 * time.Hour),
			judgement: 6 * time.Hour,
			want:      model.PaymentStateAvailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeState(tt.now, tt.judgement, tt.lastConfirmation, tt.payouts, time.UTC)
			if err != nil {
				t.Fatalf("ComputeState error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ComputeState = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestComputeState_Deterministic(t *testing.T) {
	now := time.Date(2024, 5, 15, 7, 0, 0, 0, time.UTC)
	confirmation := time.Date(2024, 5, 15, 5, 0, 0, 0, time.UTC)
	payouts := []model.PayoutRecord{
		{Timestamp: "20240514120000", Name: "old", Value: 12},
	}

	first, err := ComputeState(now, 6*time.Hour, confirmation, payouts, time.UTC)
	if err != nil {
		t.Fatalf("ComputeState error: %v", err)
	}

	for i := 0; i < 10; i++ {
		got, err := ComputeState(now, 6*time.Hour, confirmation, payouts, time.UTC)
		if err != nil {
			t.Fatalf("ComputeState error: %v", err)
		}
		if got != first {
			t.Fatalf("ComputeState not deterministic: %s then %s", first, got)
		}
	}
}

func TestComputeState_ReferenceTimezone(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	// 23:30 UTC 14 мая — это уже 15 мая в Берлине: новый день, судное
	// время ещё впереди.
	now := time.Date(2024, 5, 14, 23, 30, 0, 0, time.UTC)

	got, err := ComputeState(now, 6*time.Hour, time.Time{}, nil, berlin)
	if err != nil {
		t.Fatalf("ComputeState error: %v", err)
	}
	if got != model.PaymentStatePossible {
		t.Fatalf("ComputeState = %s, want %s", got, model.PaymentStatePossible)
	}

	// Тот же момент с опорной зоной UTC — ещё вчерашний день, судное
	// время давно прошло.
	got, err = ComputeState(now, 6*time.Hour, time.Time{}, nil, time.UTC)
	if err != nil {
		t.Fatalf("ComputeState error: %v", err)
	}
	if got != model.PaymentStateAvailable {
		t.Fatalf("ComputeState = %s, want %s", got, model.PaymentStateAvailable)
	}
}

func TestComputeState_MalformedPayoutTimestamp(t *testing.T) {
	payouts := []model.PayoutRecord{
		{Timestamp: "not-a-timestamp"},
	}

	_, err := ComputeState(time.Now(), 6*time.Hour, time.Time{}, payouts, time.UTC)
	if err == nil {
		t.Fatalf("expected error for malformed payout timestamp")
	}
}
