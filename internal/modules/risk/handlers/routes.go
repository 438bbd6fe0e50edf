package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the risk analysis routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/risk", func(r chi.Router) {
		r.Post("/analysis", h.HandleAnalyze)
		r.Get("/symbols", h.HandleGetSymbols)
	})
}
