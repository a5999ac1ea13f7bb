package domain

import "context"

// MovieRepository reads the movie catalogue
type MovieRepository interface {
	// FindCandidates returns the sampling projection of every movie
	// matching the settings filter.
	FindCandidates(ctx context.Context, settings *QuestionSettings) ([]MovieSummary, error)
	// GetMovie returns nil, nil when the movie does not exist.
	GetMovie(ctx context.Context, movieID int) (*Movie, error)
	GetMovies(ctx context.Context, movieIDs []int) ([]*Movie, error)
	GetPersons(ctx context.Context, personIDs []int) (map[int]Person, error)
}

// QuestionRepository stores issued questions. A pending question is one
// without an answer; a user has at most one.
type QuestionRepository interface {
	FindPending(ctx context.Context, username string) (*Question, error)
	// InsertPendingIfAbsent atomically stores q unless the user already
	// has a pending question, and returns the pending question that is
	// stored afterwards together with whether q was inserted.
	InsertPendingIfAbsent(ctx context.Context, q *Question) (*Question, bool, error)
	ReplacePending(ctx context.Context, q *Question) error
	DeletePending(ctx context.Context, username string) error
	// AnswerPending returns ErrNoAnswerableQuestion when nothing is pending.
	AnswerPending(ctx context.Context, username string, answer Answer) (*Question, error)
	InsertAnswered(ctx context.Context, questions []*Question) error
	// FindRecentAnswered returns answered questions, most recent first.
	FindRecentAnswered(ctx context.Context, username string, movieIDs []int, limit int) ([]Question, error)
	FindAnsweredForMovies(ctx context.Context, username string, movieIDs []int) ([]Question, error)
}

// IdentifierRepository hands out increasing integer ids per counter
type IdentifierRepository interface {
	NextID(ctx context.Context, counter string) (int, error)
}

// TourRepository stores tours, their frozen questions and tour answers
type TourRepository interface {
	InsertTour(ctx context.Context, tour *Tour) error
	GetTour(ctx context.Context, tourID int) (*Tour, error)
	ListTours(ctx context.Context) ([]*Tour, error)
	FindToursByQuestionIDs(ctx context.Context, questionIDs []int) ([]*Tour, error)

	InsertTourQuestions(ctx context.Context, questions []TourQuestion) error
	GetTourQuestion(ctx context.Context, questionID int) (*TourQuestion, error)
	// FindRecentTourQuestions returns the newest tour questions about the
	// given movies, most recent first.
	FindRecentTourQuestions(ctx context.Context, movieIDs []int, limit int) ([]Question, error)
	FindTourQuestionIDsByMovie(ctx context.Context, movieID int) ([]int, error)
	DeleteTourQuestions(ctx context.Context, questionIDs []int) error
	PullQuestionIDs(ctx context.Context, questionIDs []int) error
	DeleteEmptyTours(ctx context.Context) (int64, error)

	InsertTourAnswer(ctx context.Context, answer *TourAnswer) error
	HasTourAnswer(ctx context.Context, questionID int, username string) (bool, error)
	// FindTourAnswers returns answers to the given questions; an empty
	// username matches every user.
	FindTourAnswers(ctx context.Context, questionIDs []int, username string) ([]TourAnswer, error)
	FindUserTourAnswers(ctx context.Context, username string) ([]TourAnswer, error)
	ListTourPlayers(ctx context.Context) ([]string, error)
}

// SessionRepository stores multiplayer sessions
type SessionRepository interface {
	// Create returns a CodeSessionExists error for a duplicate id.
	Create(ctx context.Context, session *Session) error
	// Get returns nil, nil when the session does not exist.
	Get(ctx context.Context, sessionID string) (*Session, error)
	Update(ctx context.Context, session *Session) error
	Delete(ctx context.Context, sessionID string) error
}

// UserSettings is the per-user configuration record
type UserSettings struct {
	Username            string            `bson:"username" json:"username"`
	QuestionSettings    *QuestionSettings `bson:"question_settings" json:"question_settings"`
	ShowKnowledgeStatus bool              `bson:"show_knowledge_status" json:"show_knowledge_status"`
}

func DefaultUserSettings(username string) *UserSettings {
	return &UserSettings{
		Username:            username,
		QuestionSettings:    DefaultQuestionSettings(),
		ShowKnowledgeStatus: true,
	}
}

// SettingsRepository stores user settings
type SettingsRepository interface {
	// Get creates default settings on first access.
	Get(ctx context.Context, username string) (*UserSettings, error)
	Update(ctx context.Context, settings *UserSettings) error
}

// EventPublisher emits domain events to other services
type EventPublisher interface {
	Publish(eventType string, payload interface{}) error
	Close()
}

// Event types
const (
	EventQuestionAnswered = "question.answered"
	EventTourGenerated    = "tour.generated"
	EventTourAnswered     = "tour.answered"
)
