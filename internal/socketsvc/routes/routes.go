package routes

import (
	"github.com/go-chi/chi"

	"github.com/avvvet/game-manager/internal/socketsvc/handlers"
)

func SetRoutes(r chi.Router, h *handlers.Handler) {
	r.Get("/health", h.HealthHandler)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/ws", h.HandleWebSocket)
	})
}
