package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/avvvet/game-manager/internal/gamesvc/identity"
)

type ctxKey struct{}

func (h *Handler) SetRoutes(r chi.Router) {
	// public routes here
	r.Get("/health", h.HealthHandler)

	// Secure routes
	r.Route("/api/v1/games", func(r chi.Router) {
		r.Use(h.authenticate)

		r.Post("/", h.CreateGame)
		r.Get("/", h.ListGames)
		r.Get("/{id}", h.GetGame)
		r.Patch("/{id}", h.UpdateGame)
		r.Delete("/{id}", h.DeleteGame)
	})
}

// authenticate resolves the digital user once per request.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := h.users.ResolveRequest(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, user)))
	})
}

func userFrom(r *http.Request) identity.DigitalUser {
	user, _ := r.Context().Value(ctxKey{}).(identity.DigitalUser)
	return user
}
