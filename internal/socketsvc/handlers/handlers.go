package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/avvvet/game-manager/internal/gamesvc/apperr"
	"github.com/avvvet/game-manager/internal/gamesvc/identity"
	"github.com/avvvet/game-manager/internal/socketsvc/ws"
)

type UserResolver interface {
	Resolve(credential string) (identity.DigitalUser, error)
}

type Handler struct {
	upgrader websocket.Upgrader
	ws       *ws.Ws
	users    UserResolver
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
}

// NewHandler accepts upgrades from the given origins; "*" allows any.
func NewHandler(s *ws.Ws, users UserResolver, origins []string) *Handler {
	h := &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(origins),
		},
		ws:    s,
		users: users,
	}
	return h
}

func originChecker(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range origins {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// HandleWebSocket authenticates the caller and opens their catalog feed.
// Browsers cannot set headers on a websocket handshake, so the token may
// also arrive as ?token=.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	credential := jwtauth.TokenFromHeader(r)
	if credential == "" {
		credential = r.URL.Query().Get("token")
	}
	user, err := h.users.Resolve(credential)
	if err != nil {
		appErr := apperr.Wrap(err)
		h.CreateResponse(w, Response{
			Message: appErr.Code.Reason(),
			Code:    appErr.Code.HTTPStatus(),
			Error:   appErr.Message,
		})
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	socketId := uuid.New().String()
	h.ws.StoreConnection(socketId, user.ID, conn)

	log.Infof("New feed connection %s for user %s", socketId, user.ID)

	go h.handleConnection(conn, socketId)
}

// handleConnection drains the socket until the client goes away. The feed is
// one way, so client frames are ignored.
func (h *Handler) handleConnection(conn *websocket.Conn, socketId string) {
	defer func() {
		log.Infof("Closing WebSocket connection: %s", socketId)
		h.ws.RemoveConnection(socketId)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Errorf("WebSocket unexpected close error for socket %s: %v", socketId, err)
			}
			return
		}
	}
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)
	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.CreateResponse(w, Response{
		Message: "catalog feed is running",
		Code:    http.StatusOK,
	})
}
