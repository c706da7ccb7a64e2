package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func Router(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health)

	r.Route("/webhooks", func(r chi.Router) {
		r.Get("/whatsapp", h.VerifyWebhook)
		r.Post("/whatsapp", h.ReceiveWebhook)
	})

	r.Route("/whatsapp", func(r chi.Router) {
		r.Post("/messages", h.SendMessage)
		r.Get("/messages/statuses", h.ListStatuses)
		r.Get("/messages/{id}/status", h.MessageStatus)
		r.Get("/inbound", h.ListInbound)
		r.Post("/media", h.UploadMedia)
		r.Get("/templates/{id}/status", h.TemplateStatus)
	})

	return r
}
