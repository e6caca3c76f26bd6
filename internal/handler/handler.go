// Package handler содержит HTTP-обработчики API сервиса wakeup-challenge.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"

	"go.uber.org/zap"

	"github.com/mmeshcher/wakeup-challenge/internal/middleware"
	"github.com/mmeshcher/wakeup-challenge/internal/model"
	"github.com/mmeshcher/wakeup-challenge/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	GetState(ctx context.Context) (*model.StateSnapshot, error)
	RequestPayment(ctx context.Context, req model.PaymentRequest) error
	NotifyMissedWindow(ctx context.Context) (bool, error)
}

// Handler реализует HTTP-обработчики API сервиса wakeup-challenge.
type Handler struct {
	service      Service
	logger       *zap.Logger
	apiAuth      *middleware.SecretAuth
	internalAuth *middleware.SecretAuth
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, apiAuth, internalAuth *middleware.SecretAuth) *Handler {
	return &Handler{
		service:      s,
		logger:       logger,
		apiAuth:      apiAuth,
		internalAuth: internalAuth,
	}
}

// payoutResponse намеренно не содержит paypalAddress: адреса получателей
// наружу не отдаются.
type payoutResponse struct {
	Confirmed bool   `json:"confirmed"`
	Timestamp string `json:"timestamp"`
	Name      string `json:"name"`
	Value     int    `json:"value"`
}

type stateResponse struct {
	LastConfirmation   string           `json:"lastConfirmation"`
	PaymentState       string           `json:"paymentState"`
	JudgementTimeToday string           `json:"judgementTimeToday"`
	PriceToday         int              `json:"priceToday"`
	LastPayouts        []payoutResponse `json:"lastPayouts"`
}

// GetState возвращает текущее состояние окна выплаты.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.GetState(r.Context())
	if err != nil {
		h.logger.Error("get state error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := stateResponse{
		PaymentState:       string(snap.State),
		JudgementTimeToday: model.FormatTimestamp(snap.JudgementInstant),
		PriceToday:         snap.PriceToday,
		LastPayouts:        make([]payoutResponse, 0, len(snap.Payouts)),
	}
	if !snap.LastConfirmation.IsZero() {
		resp.LastConfirmation = model.FormatTimestamp(snap.LastConfirmation)
	}
	for _, p := range snap.Payouts {
		resp.LastPayouts = append(resp.LastPayouts, payoutResponse{
			Confirmed: p.Confirmed,
			Timestamp: p.Timestamp,
			Name:      p.Name,
			Value:     p.Value,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}

type paymentRequest struct {
	PaypalAddress string `json:"paypalAddress"`
	Name          string `json:"name"`
}

// RequestPayment принимает заявку на выплату.
func (h *Handler) RequestPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if _, err := mail.ParseAddress(req.PaypalAddress); err != nil {
		http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
		return
	}

	err := h.service.RequestPayment(r.Context(), model.PaymentRequest{
		PaypalAddress: req.PaypalAddress,
		Name:          req.Name,
	})
	if err != nil {
		if errors.Is(err, service.ErrNoPaymentSlot) {
			http.Error(w, "no payment slot available", http.StatusConflict)
			return
		}
		h.logger.Error("request payment error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

type notifyResponse struct {
	Notified bool `json:"notified"`
}

// NotifyMissed запускает проверку пропущенного окна по внутреннему триггеру.
func (h *Handler) NotifyMissed(w http.ResponseWriter, r *http.Request) {
	notified, err := h.service.NotifyMissedWindow(r.Context())
	if err != nil {
		h.logger.Error("notify missed error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(notifyResponse{Notified: notified}); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}
