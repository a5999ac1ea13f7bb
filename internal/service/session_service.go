package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"movie-quiz/internal/domain"
	"movie-quiz/internal/logger"
)

// Session actions sent to players
const (
	ActionConnect    = "connect"
	ActionDisconnect = "disconnect"
	ActionAnswer     = "answer"
	ActionQuestion   = "question"
	ActionSettings   = "settings"
	ActionRemove     = "remove"
	ActionMessage    = "message"
	ActionReaction   = "reaction"
)

// minSessionPlayers is the number of players a round needs
const minSessionPlayers = 2

// Broadcaster delivers a message to every player connected to a session
type Broadcaster interface {
	Broadcast(sessionID string, message interface{})
}

// SessionMessage is the state snapshot sent after every session change
type SessionMessage struct {
	SessionID        string                                   `json:"session_id"`
	Username         string                                   `json:"username"`
	Action           string                                   `json:"action"`
	CreatedBy        string                                   `json:"created_by,omitempty"`
	Players          []string                                 `json:"players,omitempty"`
	Answers          map[string]domain.Answer                 `json:"answers,omitempty"`
	Question         *domain.Question                         `json:"question"`
	Statistics       map[string][]domain.Answer               `json:"statistics,omitempty"`
	QuestionSettings *domain.QuestionSettings                 `json:"question_settings,omitempty"`
	Movie            *domain.Movie                            `json:"movie,omitempty"`
	Persons          map[int]domain.Person                    `json:"person_id2person,omitempty"`
	Scales           map[string]map[int]domain.KnowledgeScale `json:"movie_id2scale,omitempty"`
}

// RelayMessage is a chat message or reaction passed through unchanged
type RelayMessage struct {
	Action   string `json:"action"`
	Username string `json:"username"`
	Text     string `json:"text,omitempty"`
	Reaction string `json:"reaction,omitempty"`
}

// SessionService runs multiplayer games where all players answer the same
// question before the next one is drawn.
type SessionService interface {
	Create(ctx context.Context, sessionID, username string) (*domain.Session, error)
	// Check verifies the session exists; its creator may reset statistics
	Check(ctx context.Context, sessionID, username string, clearStatistics bool) (*domain.Session, error)
	Join(ctx context.Context, sessionID, username string) error
	Leave(ctx context.Context, sessionID, username string) error
	Answer(ctx context.Context, sessionID, username string, answer domain.Answer) error
	UpdateSettings(ctx context.Context, sessionID, username string, settings *domain.QuestionSettings) error
	Relay(sessionID string, message RelayMessage)
	// Remove deletes the session; only its creator may do so
	Remove(ctx context.Context, sessionID, username string) error
}

type sessionService struct {
	sessions    domain.SessionRepository
	movies      domain.MovieRepository
	questions   QuestionService
	broadcaster Broadcaster
	metrics     *Metrics

	locks sync.Map
}

func NewSessionService(sessions domain.SessionRepository, movies domain.MovieRepository, questions QuestionService, broadcaster Broadcaster, metrics *Metrics) SessionService {
	return &sessionService{
		sessions:    sessions,
		movies:      movies,
		questions:   questions,
		broadcaster: broadcaster,
		metrics:     metrics,
	}
}

// lock serializes changes of one session within this process
func (s *sessionService) lock(sessionID string) func() {
	value, _ := s.locks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *sessionService) load(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, domain.NewInternalError("failed to load session", err)
	}
	if session == nil {
		return nil, domain.NewSessionNotFoundError(sessionID)
	}
	return session, nil
}

func (s *sessionService) save(ctx context.Context, session *domain.Session) error {
	if err := s.sessions.Update(ctx, session); err != nil {
		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) {
			return domainErr
		}
		return domain.NewInternalError("failed to save session", err)
	}
	return nil
}

func (s *sessionService) Create(ctx context.Context, sessionID, username string) (*domain.Session, error) {
	session := domain.NewSession(sessionID, username)
	if err := s.sessions.Create(ctx, session); err != nil {
		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) {
			return nil, domainErr
		}
		return nil, domain.NewInternalError("failed to create session", err)
	}
	logger.Get().Info("SessionService: session created", zap.String("session_id", sessionID), zap.String("username", username))
	return session, nil
}

func (s *sessionService) Check(ctx context.Context, sessionID, username string, clearStatistics bool) (*domain.Session, error) {
	defer s.lock(sessionID)()

	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if clearStatistics && session.CreatedBy == username {
		session.ClearStatistics()
		if err := s.save(ctx, session); err != nil {
			return nil, err
		}
	}
	return session, nil
}

func (s *sessionService) Join(ctx context.Context, sessionID, username string) error {
	defer s.lock(sessionID)()

	session, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.AddPlayer(username) && s.metrics != nil {
		s.metrics.ActiveSessionsGauge.Inc()
	}
	if err := s.save(ctx, session); err != nil {
		return err
	}

	if len(session.Players) >= minSessionPlayers {
		if session.Question == nil {
			if err := s.nextQuestion(ctx, session, username); err != nil {
				return err
			}
		} else if err := s.closeRoundIfAnswered(ctx, session, username); err != nil {
			return err
		}
	}

	logger.Get().Info("SessionService: player connected", zap.String("session_id", sessionID), zap.String("username", username))
	s.broadcast(ctx, session, username, ActionConnect)
	return nil
}

func (s *sessionService) Leave(ctx context.Context, sessionID, username string) error {
	defer s.lock(sessionID)()

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.NewInternalError("failed to load session", err)
	}
	if session == nil {
		// removed by its creator
		s.broadcaster.Broadcast(sessionID, SessionMessage{SessionID: sessionID, Username: username, Action: ActionDisconnect})
		return nil
	}

	if session.HasPlayer(username) && s.metrics != nil {
		s.metrics.ActiveSessionsGauge.Dec()
	}
	session.RemovePlayer(username)
	if err := s.save(ctx, session); err != nil {
		return err
	}

	logger.Get().Info("SessionService: player disconnected", zap.String("session_id", sessionID), zap.String("username", username))
	s.broadcast(ctx, session, username, ActionDisconnect)
	return s.closeRoundIfAnswered(ctx, session, "")
}

func (s *sessionService) Answer(ctx context.Context, sessionID, username string, answer domain.Answer) error {
	defer s.lock(sessionID)()

	session, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Question == nil || !session.HasPlayer(username) {
		return domain.NewNoAnswerableQuestionError(username)
	}

	session.AddAnswer(username, answer)
	if err := s.save(ctx, session); err != nil {
		return err
	}
	s.broadcast(ctx, session, username, ActionAnswer)
	return s.closeRoundIfAnswered(ctx, session, username)
}

// closeRoundIfAnswered stores every player's answer, moves the question to
// the session history and draws the next one once all players answered.
func (s *sessionService) closeRoundIfAnswered(ctx context.Context, session *domain.Session, username string) error {
	if session.Question == nil || len(session.Players) < minSessionPlayers || !session.AllAnswered() {
		return nil
	}

	if err := s.questions.RecordSessionAnswers(ctx, session.Question, session.Answers); err != nil {
		return err
	}
	session.CloseRound()
	if err := s.save(ctx, session); err != nil {
		return err
	}
	return s.nextQuestion(ctx, session, username)
}

func (s *sessionService) nextQuestion(ctx context.Context, session *domain.Session, username string) error {
	q, err := s.questions.GetSessionQuestion(ctx, session.QuestionSettings, session.Questions)
	if err != nil {
		return err
	}
	if q == nil {
		logger.Get().Info("SessionService: no eligible movies for session", zap.String("session_id", session.SessionID))
	}

	session.SetQuestion(q)
	if err := s.save(ctx, session); err != nil {
		return err
	}
	s.broadcast(ctx, session, username, ActionQuestion)
	return nil
}

func (s *sessionService) UpdateSettings(ctx context.Context, sessionID, username string, settings *domain.QuestionSettings) error {
	defer s.lock(sessionID)()

	session, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}

	settings.Normalize()
	if !session.UpdateSettings(settings) {
		return nil
	}
	if err := s.save(ctx, session); err != nil {
		return err
	}
	s.broadcast(ctx, session, username, ActionSettings)
	return nil
}

func (s *sessionService) Relay(sessionID string, message RelayMessage) {
	s.broadcaster.Broadcast(sessionID, message)
}

func (s *sessionService) Remove(ctx context.Context, sessionID, username string) error {
	defer s.lock(sessionID)()

	session, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.CreatedBy != username {
		return domain.NewUnauthorizedError(fmt.Sprintf("only %s can remove the session", session.CreatedBy))
	}

	s.broadcast(ctx, session, username, ActionRemove)
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return domain.NewInternalError("failed to delete session", err)
	}
	s.locks.Delete(sessionID)
	logger.Get().Info("SessionService: session removed", zap.String("session_id", sessionID))
	return nil
}

func (s *sessionService) broadcast(ctx context.Context, session *domain.Session, username, action string) {
	s.broadcaster.Broadcast(session.SessionID, s.message(ctx, session, username, action))
}

func (s *sessionService) message(ctx context.Context, session *domain.Session, username, action string) SessionMessage {
	message := SessionMessage{
		SessionID:        session.SessionID,
		Username:         username,
		Action:           action,
		CreatedBy:        session.CreatedBy,
		Players:          session.Players,
		Answers:          session.Answers,
		Question:         session.Question,
		Statistics:       session.Statistics,
		QuestionSettings: session.QuestionSettings,
	}
	if session.Question == nil {
		return message
	}

	movie, persons, err := loadMovie(ctx, s.movies, session.Question.MovieID)
	if err != nil {
		logger.Get().Warn("SessionService: failed to load question movie", zap.String("session_id", session.SessionID), zap.Error(err))
		return message
	}
	message.Movie = movie
	message.Persons = persons

	message.Scales = make(map[string]map[int]domain.KnowledgeScale, len(session.Players))
	for _, player := range session.Players {
		scales, err := s.questions.GetMovieKnowledgeScale(ctx, player, []int{session.Question.MovieID})
		if err != nil {
			logger.Get().Warn("SessionService: failed to load knowledge scale", zap.String("username", player), zap.Error(err))
			continue
		}
		message.Scales[player] = scales
	}
	return message
}
