package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"movie-quiz/internal/domain"
	"movie-quiz/internal/dto"
	"movie-quiz/internal/logger"
	"movie-quiz/internal/service"
	"movie-quiz/internal/validation"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192

	actionError = "error"
)

// ErrorMessage is sent to a single player whose event was rejected
type ErrorMessage struct {
	Action  string `json:"action"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Handler upgrades session connections and dispatches player events
type Handler struct {
	hub       *Hub
	sessions  service.SessionService
	tokens    service.TokenService
	validator *validation.Validator
	upgrader  websocket.Upgrader
}

func NewHandler(hub *Hub, sessions service.SessionService, tokens service.TokenService, validator *validation.Validator, allowedOrigins []string) *Handler {
	h := &Handler{
		hub:       hub,
		sessions:  sessions,
		tokens:    tokens,
		validator: validator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	if len(allowedOrigins) > 0 {
		h.upgrader.CheckOrigin = originChecker(allowedOrigins)
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		if _, ok := set["*"]; ok {
			return true
		}
		_, ok := set[r.Header.Get("Origin")]
		return ok
	}
}

// Router returns the relay routes
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/ws/sessions/{id}", h.ServeSession).Methods(http.MethodGet)
	return r
}

// ServeSession handles GET /ws/sessions/{id}?token=
func (h *Handler) ServeSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	ctx := context.WithoutCancel(r.Context())
	if _, err := h.sessions.Check(ctx, sessionID, claims.Username, false); err != nil {
		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == domain.CodeSessionNotFound {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		logger.Get().Error("WS: failed to check session", zap.String("session_id", sessionID), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Get().Warn("WS: upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(sessionID, claims.Username)
	h.hub.Register(client)
	go h.writePump(conn, client)

	if err := h.sessions.Join(ctx, sessionID, client.Username); err != nil {
		h.reject(client, err)
	}
	logger.Get().Info("WS: player connected", zap.String("session_id", sessionID), zap.String("username", client.Username))

	h.readPump(ctx, conn, client)
}

func (h *Handler) readPump(ctx context.Context, conn *websocket.Conn, client *Client) {
	defer func() {
		h.hub.Unregister(client)
		_ = conn.Close()
		if err := h.sessions.Leave(ctx, client.SessionID, client.Username); err != nil {
			logger.Get().Warn("WS: leave failed", zap.String("session_id", client.SessionID), zap.Error(err))
		}
		logger.Get().Info("WS: player disconnected", zap.String("session_id", client.SessionID), zap.String("username", client.Username))
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Get().Warn("WS: read failed", zap.Error(err))
			}
			return
		}

		if err := h.dispatch(ctx, client, data); err != nil {
			h.reject(client, err)
		}
	}
}

func (h *Handler) dispatch(ctx context.Context, client *Client, data []byte) error {
	var event dto.SessionEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return domain.NewInvalidInputError("invalid message")
	}
	if err := h.validator.Struct(event); err != nil {
		return err
	}

	switch event.Action {
	case service.ActionAnswer:
		if event.Correct == nil {
			return domain.ValidationErrors{domain.NewMissingFieldError("correct")}
		}
		return h.sessions.Answer(ctx, client.SessionID, client.Username, domain.Answer{
			Correct:    *event.Correct,
			AnswerTime: event.AnswerTime,
		})
	case service.ActionSettings:
		if event.QuestionSettings == nil {
			return domain.ValidationErrors{domain.NewMissingFieldError("question_settings")}
		}
		return h.sessions.UpdateSettings(ctx, client.SessionID, client.Username, event.QuestionSettings.ToDomain())
	default:
		h.sessions.Relay(client.SessionID, service.RelayMessage{
			Action:   event.Action,
			Username: client.Username,
			Text:     event.Text,
			Reaction: event.Reaction,
		})
		return nil
	}
}

func (h *Handler) reject(client *Client, err error) {
	message := ErrorMessage{Action: actionError, Code: string(domain.CodeInternal), Message: "internal error"}

	var validationErrs domain.ValidationErrors
	var domainErr *domain.DomainError
	switch {
	case errors.As(err, &validationErrs):
		message.Code = string(domain.CodeValidation)
		message.Message = validationErrs.Error()
	case errors.As(err, &domainErr):
		message.Code = string(domainErr.Code)
		message.Message = domainErr.Message
	}
	if message.Code == string(domain.CodeInternal) {
		logger.Get().Error("WS: event failed", zap.String("session_id", client.SessionID), zap.Error(err))
	}
	h.hub.Send(client, message)
}

func (h *Handler) writePump(conn *websocket.Conn, client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
