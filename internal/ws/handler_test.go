package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-quiz/internal/domain"
	"movie-quiz/internal/dto"
	"movie-quiz/internal/service"
	"movie-quiz/internal/validation"
)

type stubTokens struct{}

func (stubTokens) CreateToken(username string, ttl time.Duration) (string, error) {
	return "token-" + username, nil
}

func (stubTokens) ValidateToken(tokenString string) (*dto.AuthClaims, error) {
	username, ok := strings.CutPrefix(tokenString, "token-")
	if !ok {
		return nil, service.ErrInvalidToken
	}
	return &dto.AuthClaims{Username: username}, nil
}

// recordingSessions broadcasts every call through the hub so the test can
// observe the dispatch from the client side.
type recordingSessions struct {
	service.SessionService
	hub *Hub

	mu     sync.Mutex
	calls  []string
	leaves chan string
}

func (s *recordingSessions) record(sessionID, call string) {
	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()
	s.hub.Broadcast(sessionID, map[string]string{"action": call})
}

func (s *recordingSessions) Check(ctx context.Context, sessionID, username string, clearStatistics bool) (*domain.Session, error) {
	if sessionID != "room" {
		return nil, domain.NewSessionNotFoundError(sessionID)
	}
	return domain.NewSession(sessionID, "alice"), nil
}

func (s *recordingSessions) Join(ctx context.Context, sessionID, username string) error {
	s.record(sessionID, "join:"+username)
	return nil
}

func (s *recordingSessions) Leave(ctx context.Context, sessionID, username string) error {
	s.leaves <- username
	return nil
}

func (s *recordingSessions) Answer(ctx context.Context, sessionID, username string, answer domain.Answer) error {
	if !answer.Correct {
		return domain.NewNoAnswerableQuestionError(username)
	}
	s.record(sessionID, "answer:"+username)
	return nil
}

func (s *recordingSessions) UpdateSettings(ctx context.Context, sessionID, username string, settings *domain.QuestionSettings) error {
	s.record(sessionID, "settings:"+username)
	return nil
}

func (s *recordingSessions) Relay(sessionID string, message service.RelayMessage) {
	s.hub.Broadcast(sessionID, message)
}

func newRelay(t *testing.T) (*httptest.Server, *recordingSessions) {
	t.Helper()
	hub := startHub(t)
	sessions := &recordingSessions{hub: hub, leaves: make(chan string, 4)}
	handler := NewHandler(hub, sessions, stubTokens{}, validation.NewValidator(), nil)
	server := httptest.NewServer(handler.Router())
	t.Cleanup(server.Close)
	return server, sessions
}

func dial(t *testing.T, server *httptest.Server, path string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + path
	return websocket.DefaultDialer.Dial(url, nil)
}

func readAction(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var message map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &message))
	return message
}

func TestHandler_Rejections(t *testing.T) {
	server, _ := newRelay(t)

	tests := []struct {
		name           string
		path           string
		expectedStatus int
	}{
		{"missing token", "/ws/sessions/room", http.StatusUnauthorized},
		{"invalid token", "/ws/sessions/room?token=forged", http.StatusUnauthorized},
		{"unknown session", "/ws/sessions/hall?token=token-alice", http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, resp, err := dial(t, server, tc.path)
			require.True(t, errors.Is(err, websocket.ErrBadHandshake))
			require.NotNil(t, resp)
			assert.Equal(t, tc.expectedStatus, resp.StatusCode)
		})
	}
}

func TestHandler_Dispatch(t *testing.T) {
	server, sessions := newRelay(t)

	alice, _, err := dial(t, server, "/ws/sessions/room?token=token-alice")
	require.NoError(t, err)
	assert.Equal(t, "join:alice", readAction(t, alice)["action"])

	bob, _, err := dial(t, server, "/ws/sessions/room?token=token-bob")
	require.NoError(t, err)
	assert.Equal(t, "join:bob", readAction(t, alice)["action"])
	assert.Equal(t, "join:bob", readAction(t, bob)["action"])

	require.NoError(t, alice.WriteJSON(map[string]interface{}{"action": "answer", "correct": true}))
	assert.Equal(t, "answer:alice", readAction(t, bob)["action"])
	assert.Equal(t, "answer:alice", readAction(t, alice)["action"])

	require.NoError(t, bob.WriteJSON(map[string]interface{}{"action": "reaction", "reaction": "fire"}))
	relayed := readAction(t, alice)
	assert.Equal(t, "reaction", relayed["action"])
	assert.Equal(t, "bob", relayed["username"])
	assert.Equal(t, "fire", relayed["reaction"])
	readAction(t, bob)

	// rejected events only reach the sender
	require.NoError(t, bob.WriteJSON(map[string]interface{}{"action": "answer", "correct": false}))
	rejected := readAction(t, bob)
	assert.Equal(t, "error", rejected["action"])
	assert.Equal(t, string(domain.CodeNoAnswerableQuestion), rejected["code"])

	require.NoError(t, bob.WriteJSON(map[string]interface{}{"action": "dance"}))
	assert.Equal(t, string(domain.CodeValidation), readAction(t, bob)["code"])

	require.NoError(t, alice.WriteJSON(map[string]interface{}{"action": "settings"}))
	assert.Equal(t, string(domain.CodeValidation), readAction(t, alice)["code"])

	require.NoError(t, alice.Close())
	select {
	case username := <-sessions.leaves:
		assert.Equal(t, "alice", username)
	case <-time.After(time.Second):
		t.Fatal("leave was not called")
	}

	sessions.mu.Lock()
	defer sessions.mu.Unlock()
	assert.Equal(t, []string{"join:alice", "join:bob", "answer:alice"}, sessions.calls)
}
