package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/avvvet/game-manager/internal/gamesvc/apperr"
	"github.com/avvvet/game-manager/internal/gamesvc/models"
	"github.com/avvvet/game-manager/internal/gamesvc/validation"
)

func (h *Handler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var in models.GameCreate
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	game, err := h.games.CreateGame(r.Context(), in, userFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, game)
}

func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	game, err := h.games.FindGame(r.Context(), id, userFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

func (h *Handler) ListGames(w http.ResponseWriter, r *http.Request) {
	criteria, err := parseListCriteria(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	games, err := h.games.ListGames(r.Context(), criteria, userFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, games)
}

func (h *Handler) UpdateGame(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch models.GameUpdate
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}

	game, err := h.games.UpdateGame(r.Context(), id, patch, userFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

func (h *Handler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.games.DeleteGame(r.Context(), id, userFrom(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if err := validation.ID(id); err != nil {
		return "", err
	}
	return id, nil
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.ParameterInvalid("Invalid request body: %v", err)
	}
	return validation.Struct(dst)
}
