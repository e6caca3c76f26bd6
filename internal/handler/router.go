package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	custommiddleware "github.com/mmeshcher/wakeup-challenge/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса wakeup-challenge.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Use(h.apiAuth.Middleware)

		r.Get("/state", h.GetState)
		r.Post("/request-payment", h.RequestPayment)
	})

	r.Route("/internal", func(r chi.Router) {
		r.Use(h.internalAuth.Middleware)

		r.Post("/notify-missed", h.NotifyMissed)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
