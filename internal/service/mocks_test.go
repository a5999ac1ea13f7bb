package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/mock"

	"movie-quiz/internal/domain"
)

// --- MockCache ---
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *MockCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// memoryCache is a Cache over a map. Expirations are ignored.
type memoryCache struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string]string{}}
}

func (c *memoryCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.values[key]
	if !ok {
		return "", domain.ErrCacheMiss
	}
	return value, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.values, key)
	}
	return nil
}

func (c *memoryCache) Ping(ctx context.Context) error { return nil }

// --- MockEventPublisher ---
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(eventType string, payload interface{}) error {
	args := m.Called(eventType, payload)
	return args.Error(0)
}

func (m *MockEventPublisher) Close() {
	m.Called()
}

// --- MockQuestionService ---
type MockQuestionService struct {
	mock.Mock
}

func (m *MockQuestionService) GetQuestion(ctx context.Context, username string, settings *domain.QuestionSettings) (*domain.Question, error) {
	args := m.Called(ctx, username, settings)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Question), args.Error(1)
}

func (m *MockQuestionService) GetSessionQuestion(ctx context.Context, settings *domain.QuestionSettings, history []domain.Question) (*domain.Question, error) {
	args := m.Called(ctx, settings, history)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Question), args.Error(1)
}

func (m *MockQuestionService) AnswerQuestion(ctx context.Context, username string, answer domain.Answer) (*domain.Question, error) {
	args := m.Called(ctx, username, answer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Question), args.Error(1)
}

func (m *MockQuestionService) HaveQuestion(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockQuestionService) RecordSessionAnswers(ctx context.Context, q *domain.Question, answers map[string]domain.Answer) error {
	args := m.Called(ctx, q, answers)
	return args.Error(0)
}

func (m *MockQuestionService) GetMovieKnowledgeScale(ctx context.Context, username string, movieIDs []int) (map[int]domain.KnowledgeScale, error) {
	args := m.Called(ctx, username, movieIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int]domain.KnowledgeScale), args.Error(1)
}

func (m *MockQuestionService) GetSettings(ctx context.Context, username string) (*domain.UserSettings, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserSettings), args.Error(1)
}

func (m *MockQuestionService) UpdateSettings(ctx context.Context, settings *domain.UserSettings) (*domain.UserSettings, error) {
	args := m.Called(ctx, settings)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserSettings), args.Error(1)
}

// --- in-memory repositories ---

type fakeMovieRepository struct {
	mu      sync.Mutex
	movies  map[int]*domain.Movie
	persons map[int]domain.Person
	// eligible limits FindCandidates when set
	eligible   map[int]bool
	candidates atomic.Int32
}

func newFakeMovieRepository(movies ...*domain.Movie) *fakeMovieRepository {
	repo := &fakeMovieRepository{movies: map[int]*domain.Movie{}, persons: map[int]domain.Person{}}
	for _, movie := range movies {
		repo.movies[movie.MovieID] = movie
	}
	return repo
}

func (r *fakeMovieRepository) FindCandidates(ctx context.Context, settings *domain.QuestionSettings) ([]domain.MovieSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.candidates.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]int, 0, len(r.movies))
	for id := range r.movies {
		if r.eligible == nil || r.eligible[id] {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)

	pool := make([]domain.MovieSummary, len(ids))
	for i, id := range ids {
		pool[i] = r.movies[id].Summary()
	}
	return pool, nil
}

func (r *fakeMovieRepository) GetMovie(ctx context.Context, movieID int) (*domain.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.movies[movieID], nil
}

func (r *fakeMovieRepository) GetMovies(ctx context.Context, movieIDs []int) ([]*domain.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var movies []*domain.Movie
	for _, id := range movieIDs {
		if movie, ok := r.movies[id]; ok {
			movies = append(movies, movie)
		}
	}
	return movies, nil
}

func (r *fakeMovieRepository) GetPersons(ctx context.Context, personIDs []int) (map[int]domain.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	persons := make(map[int]domain.Person, len(personIDs))
	for _, id := range personIDs {
		if person, ok := r.persons[id]; ok {
			persons[id] = person
		}
	}
	return persons, nil
}

type fakeQuestionRepository struct {
	mu       sync.Mutex
	pending  map[string]*domain.Question
	answered []domain.Question
}

func newFakeQuestionRepository() *fakeQuestionRepository {
	return &fakeQuestionRepository{pending: map[string]*domain.Question{}}
}

func (r *fakeQuestionRepository) FindPending(ctx context.Context, username string) (*domain.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if q, ok := r.pending[username]; ok {
		return q.Clone(), nil
	}
	return nil, nil
}

func (r *fakeQuestionRepository) InsertPendingIfAbsent(ctx context.Context, q *domain.Question) (*domain.Question, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.pending[q.Username]; ok {
		return existing.Clone(), false, nil
	}
	r.pending[q.Username] = q.Clone()
	return q, true, nil
}

func (r *fakeQuestionRepository) ReplacePending(ctx context.Context, q *domain.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.pending[q.Username]
	if !ok || existing.ID != q.ID {
		return domain.ErrNoAnswerableQuestion
	}
	r.pending[q.Username] = q.Clone()
	return nil
}

func (r *fakeQuestionRepository) DeletePending(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, username)
	return nil
}

func (r *fakeQuestionRepository) AnswerPending(ctx context.Context, username string, answer domain.Answer) (*domain.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.pending[username]
	if !ok {
		return nil, domain.ErrNoAnswerableQuestion
	}
	delete(r.pending, username)
	q.SetAnswer(answer)
	r.answered = append([]domain.Question{*q}, r.answered...)
	return q.Clone(), nil
}

func (r *fakeQuestionRepository) InsertAnswered(ctx context.Context, questions []*domain.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, q := range questions {
		r.answered = append([]domain.Question{*q}, r.answered...)
	}
	return nil
}

func (r *fakeQuestionRepository) FindRecentAnswered(ctx context.Context, username string, movieIDs []int, limit int) ([]domain.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[int]struct{}, len(movieIDs))
	for _, id := range movieIDs {
		wanted[id] = struct{}{}
	}
	var result []domain.Question
	for _, q := range r.answered {
		if _, ok := wanted[q.MovieID]; ok && q.Username == username {
			result = append(result, q)
		}
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

func (r *fakeQuestionRepository) FindAnsweredForMovies(ctx context.Context, username string, movieIDs []int) ([]domain.Question, error) {
	return r.FindRecentAnswered(ctx, username, movieIDs, -1)
}

type fakeIdentifierRepository struct {
	mu       sync.Mutex
	counters map[string]int
}

func (r *fakeIdentifierRepository) NextID(ctx context.Context, counter string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counters == nil {
		r.counters = map[string]int{}
	}
	r.counters[counter]++
	return r.counters[counter], nil
}

type fakeTourRepository struct {
	mu        sync.Mutex
	tours     []*domain.Tour
	questions []domain.TourQuestion
	answers   []domain.TourAnswer
}

func (r *fakeTourRepository) InsertTour(ctx context.Context, tour *domain.Tour) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tours = append(r.tours, tour)
	return nil
}

func (r *fakeTourRepository) GetTour(ctx context.Context, tourID int) (*domain.Tour, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tour := range r.tours {
		if tour.TourID == tourID {
			return tour, nil
		}
	}
	return nil, nil
}

func (r *fakeTourRepository) ListTours(ctx context.Context) ([]*domain.Tour, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.Tour(nil), r.tours...), nil
}

func (r *fakeTourRepository) FindToursByQuestionIDs(ctx context.Context, questionIDs []int) ([]*domain.Tour, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[int]struct{}, len(questionIDs))
	for _, id := range questionIDs {
		wanted[id] = struct{}{}
	}
	var result []*domain.Tour
	for _, tour := range r.tours {
		for _, id := range tour.QuestionIDs {
			if _, ok := wanted[id]; ok {
				result = append(result, tour)
				break
			}
		}
	}
	return result, nil
}

func (r *fakeTourRepository) InsertTourQuestions(ctx context.Context, questions []domain.TourQuestion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.questions = append(r.questions, questions...)
	return nil
}

func (r *fakeTourRepository) GetTourQuestion(ctx context.Context, questionID int) (*domain.TourQuestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, q := range r.questions {
		if q.QuestionID == questionID {
			copied := q
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeTourRepository) FindRecentTourQuestions(ctx context.Context, movieIDs []int, limit int) ([]domain.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[int]struct{}, len(movieIDs))
	for _, id := range movieIDs {
		wanted[id] = struct{}{}
	}
	var result []domain.Question
	for i := len(r.questions) - 1; i >= 0 && len(result) < limit; i-- {
		if _, ok := wanted[r.questions[i].Question.MovieID]; ok {
			result = append(result, r.questions[i].Question)
		}
	}
	return result, nil
}

func (r *fakeTourRepository) FindTourQuestionIDsByMovie(ctx context.Context, movieID int) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int
	for _, q := range r.questions {
		if q.Question.MovieID == movieID {
			ids = append(ids, q.QuestionID)
		}
	}
	return ids, nil
}

func (r *fakeTourRepository) DeleteTourQuestions(ctx context.Context, questionIDs []int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.questions[:0]
	for _, q := range r.questions {
		if !containsInt(questionIDs, q.QuestionID) {
			kept = append(kept, q)
		}
	}
	r.questions = kept
	return nil
}

func (r *fakeTourRepository) PullQuestionIDs(ctx context.Context, questionIDs []int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tour := range r.tours {
		kept := make([]int, 0, len(tour.QuestionIDs))
		for _, id := range tour.QuestionIDs {
			if !containsInt(questionIDs, id) {
				kept = append(kept, id)
			}
		}
		tour.QuestionIDs = kept
	}
	return nil
}

func (r *fakeTourRepository) DeleteEmptyTours(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.tours[:0]
	var deleted int64
	for _, tour := range r.tours {
		if len(tour.QuestionIDs) == 0 {
			deleted++
			continue
		}
		kept = append(kept, tour)
	}
	r.tours = kept
	return deleted, nil
}

func (r *fakeTourRepository) InsertTourAnswer(ctx context.Context, answer *domain.TourAnswer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.answers = append(r.answers, *answer)
	return nil
}

func (r *fakeTourRepository) HasTourAnswer(ctx context.Context, questionID int, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, answer := range r.answers {
		if answer.QuestionID == questionID && answer.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTourRepository) FindTourAnswers(ctx context.Context, questionIDs []int, username string) ([]domain.TourAnswer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.TourAnswer
	for _, answer := range r.answers {
		if containsInt(questionIDs, answer.QuestionID) && (username == "" || answer.Username == username) {
			result = append(result, answer)
		}
	}
	return result, nil
}

func (r *fakeTourRepository) FindUserTourAnswers(ctx context.Context, username string) ([]domain.TourAnswer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.TourAnswer
	for _, answer := range r.answers {
		if answer.Username == username {
			result = append(result, answer)
		}
	}
	return result, nil
}

func (r *fakeTourRepository) ListTourPlayers(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]struct{}{}
	var players []string
	for _, answer := range r.answers {
		if _, ok := seen[answer.Username]; !ok {
			seen[answer.Username] = struct{}{}
			players = append(players, answer.Username)
		}
	}
	return players, nil
}

type fakeSettingsRepository struct {
	mu       sync.Mutex
	settings map[string]*domain.UserSettings
}

func (r *fakeSettingsRepository) Get(ctx context.Context, username string) (*domain.UserSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.settings == nil {
		r.settings = map[string]*domain.UserSettings{}
	}
	if settings, ok := r.settings[username]; ok {
		return settings, nil
	}
	settings := domain.DefaultUserSettings(username)
	r.settings[username] = settings
	return settings, nil
}

func (r *fakeSettingsRepository) Update(ctx context.Context, settings *domain.UserSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.settings == nil {
		r.settings = map[string]*domain.UserSettings{}
	}
	r.settings[settings.Username] = settings
	return nil
}

type fakeSessionRepository struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newFakeSessionRepository() *fakeSessionRepository {
	return &fakeSessionRepository{sessions: map[string]*domain.Session{}}
}

func (r *fakeSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[session.SessionID]; ok {
		return domain.NewError(domain.CodeSessionExists, fmt.Sprintf("session %q already exists", session.SessionID), nil)
	}
	r.sessions[session.SessionID] = session
	return nil
}

func (r *fakeSessionRepository) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[sessionID], nil
}

func (r *fakeSessionRepository) Update(ctx context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.SessionID] = session
	return nil
}

func (r *fakeSessionRepository) Delete(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
	return nil
}

// recordingBroadcaster keeps every broadcast message in order
type recordingBroadcaster struct {
	mu       sync.Mutex
	messages []interface{}
}

func (b *recordingBroadcaster) Broadcast(sessionID string, message interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, message)
}

func (b *recordingBroadcaster) actions() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	actions := make([]string, 0, len(b.messages))
	for _, message := range b.messages {
		switch m := message.(type) {
		case SessionMessage:
			actions = append(actions, m.Action)
		case RelayMessage:
			actions = append(actions, m.Action)
		}
	}
	return actions
}

// staticPool serves a fixed candidate pool
type staticPool []domain.MovieSummary

func (p staticPool) Candidates(ctx context.Context, settings *domain.QuestionSettings) ([]domain.MovieSummary, error) {
	return append([]domain.MovieSummary(nil), p...), nil
}

func containsInt(values []int, value int) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

// sloganMovie is an eligible movie that only supports by-slogan questions
func sloganMovie(id int, name string) *domain.Movie {
	return &domain.Movie{
		MovieID:    id,
		Name:       name,
		MovieType:  domain.MovieTypeMovie,
		Year:       2005,
		Slogan:     "slogan of " + name,
		Production: []domain.Production{domain.ProductionRussian},
	}
}

func summaries(movies ...*domain.Movie) []domain.MovieSummary {
	pool := make([]domain.MovieSummary, len(movies))
	for i, movie := range movies {
		pool[i] = movie.Summary()
	}
	return pool
}
