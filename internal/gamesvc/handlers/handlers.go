package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/avvvet/game-manager/internal/gamesvc/apperr"
	"github.com/avvvet/game-manager/internal/gamesvc/identity"
	"github.com/avvvet/game-manager/internal/gamesvc/models"
)

// GameUseCases is implemented by service.GameService.
type GameUseCases interface {
	CreateGame(ctx context.Context, in models.GameCreate, user identity.DigitalUser) (*models.Game, error)
	FindGame(ctx context.Context, id string, user identity.DigitalUser) (*models.Game, error)
	ListGames(ctx context.Context, c models.ListCriteria, user identity.DigitalUser) ([]*models.Game, error)
	UpdateGame(ctx context.Context, id string, patch models.GameUpdate, user identity.DigitalUser) (*models.Game, error)
	DeleteGame(ctx context.Context, id string, user identity.DigitalUser) error
}

type UserResolver interface {
	ResolveRequest(r *http.Request) (identity.DigitalUser, error)
}

type Handler struct {
	games      GameUseCases
	users      UserResolver
	instanceID string
}

func NewHandler(games GameUseCases, users UserResolver, instanceID string) *Handler {
	return &Handler{games: games, users: users, instanceID: instanceID}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code           apperr.Code `json:"code"`
	HTTPStatusCode int         `json:"httpStatusCode"`
	Reason         string      `json:"reason"`
	Message        string      `json:"message"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	writeJSON(w, rsp.Code, rsp)
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.CreateResponse(w, Response{
		Message: "game manager is running",
		Code:    http.StatusOK,
		Data:    map[string]string{"instanceId": h.instanceID},
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Warn("unable to write response body")
	}
}

// writeError maps err onto the taxonomy; untyped errors become E-001.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperr.Wrap(err)
	status := appErr.Code.HTTPStatus()

	entry := log.WithFields(log.Fields{
		"method": r.Method,
		"uri":    r.RequestURI,
		"code":   appErr.Code,
	})
	if status >= http.StatusInternalServerError {
		entry.WithError(err).Error("request failed")
	} else {
		entry.Debug(appErr.Message)
	}

	writeJSON(w, status, ErrorResponse{
		Code:           appErr.Code,
		HTTPStatusCode: status,
		Reason:         appErr.Code.Reason(),
		Message:        appErr.Message,
	})
}
