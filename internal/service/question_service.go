package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"movie-quiz/internal/domain"
	"movie-quiz/internal/logger"
	"movie-quiz/internal/question"
	"movie-quiz/internal/sampling"
	"movie-quiz/internal/util"
)

// attempts to find a movie that still has an applicable question type
const maxGenerateAttempts = 3

// QuestionService decides which question a player gets next
type QuestionService interface {
	// GetQuestion returns the player's pending question or issues a new
	// one. It returns nil, nil when no movie matches the settings.
	GetQuestion(ctx context.Context, username string, settings *domain.QuestionSettings) (*domain.Question, error)
	// GetSessionQuestion draws a question for a multiplayer session. The
	// history comes from the session and nothing is persisted.
	GetSessionQuestion(ctx context.Context, settings *domain.QuestionSettings, history []domain.Question) (*domain.Question, error)
	AnswerQuestion(ctx context.Context, username string, answer domain.Answer) (*domain.Question, error)
	HaveQuestion(ctx context.Context, username string) (bool, error)
	// RecordSessionAnswers stores one answered question per player
	RecordSessionAnswers(ctx context.Context, q *domain.Question, answers map[string]domain.Answer) error
	GetMovieKnowledgeScale(ctx context.Context, username string, movieIDs []int) (map[int]domain.KnowledgeScale, error)
	GetSettings(ctx context.Context, username string) (*domain.UserSettings, error)
	UpdateSettings(ctx context.Context, settings *domain.UserSettings) (*domain.UserSettings, error)
}

type questionService struct {
	movies    domain.MovieRepository
	questions domain.QuestionRepository
	settings  domain.SettingsRepository
	pool      CandidatePool
	sampler   *sampling.Sampler
	generator *question.Generator
	publisher domain.EventPublisher
	metrics   *Metrics
}

func NewQuestionService(
	movies domain.MovieRepository,
	questions domain.QuestionRepository,
	settings domain.SettingsRepository,
	pool CandidatePool,
	sampler *sampling.Sampler,
	publisher domain.EventPublisher,
	metrics *Metrics,
) QuestionService {
	return &questionService{
		movies:    movies,
		questions: questions,
		settings:  settings,
		pool:      pool,
		sampler:   sampler,
		generator: question.NewGenerator(sampler),
		publisher: publisher,
		metrics:   metrics,
	}
}

func (s *questionService) GetQuestion(ctx context.Context, username string, settings *domain.QuestionSettings) (*domain.Question, error) {
	var (
		pool    []domain.MovieSummary
		pending *domain.Question
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pool, err = s.pool.Candidates(gctx, settings)
		return err
	})
	g.Go(func() error {
		var err error
		pending, err = s.questions.FindPending(gctx, username)
		if err != nil {
			return domain.NewInternalError("failed to load pending question", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(pool) == 0 {
		logger.Get().Debug("QuestionService: no eligible movies", zap.String("username", username))
		return nil, nil
	}
	movieIDs := summaryIDs(pool)

	if pending != nil {
		q, err := s.refreshPending(ctx, pending, movieIDs, settings)
		if err != nil || q != nil {
			return q, err
		}
	}

	history, err := s.questions.FindRecentAnswered(ctx, username, idList(pool), s.sampler.Config().UserHistoryWindow)
	if err != nil {
		return nil, domain.NewInternalError("failed to load question history", err)
	}

	q, source, err := s.draw(ctx, pool, history, username, settings)
	if err != nil || q == nil {
		return nil, err
	}

	stored, inserted, err := s.questions.InsertPendingIfAbsent(ctx, q)
	if err != nil {
		return nil, domain.NewInternalError("failed to store question", err)
	}
	if !inserted {
		logger.Get().Info("QuestionService: concurrent request issued the pending question first",
			zap.String("username", username), zap.String("question_id", stored.ID))
		return stored, nil
	}

	s.metrics.questionIssued(source, string(q.Type))
	logger.Get().Debug("QuestionService: issued question",
		zap.String("username", username),
		zap.String("source", source),
		zap.Int("movie_id", q.MovieID),
		zap.String("question_type", string(q.Type)))
	return q, nil
}

// refreshPending returns the refreshed pending question, or nil when it can
// no longer be asked and was dropped.
func (s *questionService) refreshPending(ctx context.Context, pending *domain.Question, movieIDs map[int]struct{}, settings *domain.QuestionSettings) (*domain.Question, error) {
	if pending.IsValid(movieIDs, settings) {
		movie, persons, err := s.loadMovie(ctx, pending.MovieID)
		if err != nil {
			return nil, err
		}
		if movie != nil {
			err := s.update(pending, movie, persons, settings)
			if errors.Is(err, question.ErrTypeUnsupported) {
				return nil, s.dropPending(ctx, pending)
			}
			if err != nil {
				return nil, err
			}
			err = s.questions.ReplacePending(ctx, pending)
			if err == nil {
				s.metrics.questionIssued(sourcePending, string(pending.Type))
				return pending, nil
			}
			if !errors.Is(err, domain.ErrNoAnswerableQuestion) {
				return nil, domain.NewInternalError("failed to refresh pending question", err)
			}
			// answered in the meantime, issue a new one
			return nil, nil
		}
	}

	return nil, s.dropPending(ctx, pending)
}

func (s *questionService) dropPending(ctx context.Context, pending *domain.Question) error {
	logger.Get().Info("QuestionService: dropping stale pending question",
		zap.String("username", pending.Username), zap.String("question_id", pending.ID))
	if err := s.questions.DeletePending(ctx, pending.Username); err != nil {
		return domain.NewInternalError("failed to delete stale pending question", err)
	}
	return nil
}

func (s *questionService) GetSessionQuestion(ctx context.Context, settings *domain.QuestionSettings, history []domain.Question) (*domain.Question, error) {
	pool, err := s.pool.Candidates(ctx, settings)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, nil
	}

	q, _, err := s.draw(ctx, pool, history, "", settings)
	if err != nil || q == nil {
		return nil, err
	}
	s.metrics.questionIssued(sourceSession, string(q.Type))
	return q, nil
}

// draw resurfaces a missed question or generates a new one
func (s *questionService) draw(ctx context.Context, pool []domain.MovieSummary, history []domain.Question, username string, settings *domain.QuestionSettings) (*domain.Question, string, error) {
	config := s.sampler.Config()

	var missed []domain.Question
	for _, q := range history {
		if q.Correct != nil && !*q.Correct && settings.QuestionTypes[q.Type] > 0 {
			missed = append(missed, q)
		}
	}

	if len(missed) >= config.MinIncorrectCount && s.sampler.Float64() < settings.RepeatIncorrectProbability {
		q, err := s.resurface(ctx, missed, username, settings)
		if err != nil || q != nil {
			return q, sourceResurfaced, err
		}
	}

	for attempt := 0; attempt < maxGenerateAttempts && len(pool) > 0; attempt++ {
		summary, ok := s.sampler.SampleMovie(pool, history, settings)
		if !ok {
			return nil, "", nil
		}

		movie, persons, err := s.loadMovie(ctx, summary.MovieID)
		if err != nil {
			return nil, "", err
		}
		if movie != nil {
			q, err := s.generator.Generate(movie, persons, username, settings)
			if err == nil {
				return q, sourceNew, nil
			}
			if !errors.Is(err, question.ErrNoApplicableType) {
				logger.Get().Error("QuestionService: failed to generate question", zap.Int("movie_id", movie.MovieID), zap.Error(err))
				return nil, "", domain.NewInternalError("failed to generate question", err)
			}
		}

		logger.Get().Warn("QuestionService: sampled movie cannot be asked about", zap.Int("movie_id", summary.MovieID))
		pool = withoutMovie(pool, summary.MovieID)
	}
	return nil, "", nil
}

// resurface picks one of the missed questions, older misses being likelier
func (s *questionService) resurface(ctx context.Context, missed []domain.Question, username string, settings *domain.QuestionSettings) (*domain.Question, error) {
	index := s.sampler.Choice(sampling.ResurfaceWeights(len(missed), s.sampler.Config().Alpha))
	if index < 0 {
		return nil, nil
	}

	q := missed[index].Clone()
	movie, persons, err := s.loadMovie(ctx, q.MovieID)
	if err != nil || movie == nil {
		return nil, err
	}

	q.RemoveAnswer()
	q.ID = util.NewULID()
	q.Username = username
	err = s.update(q, movie, persons, settings)
	if errors.Is(err, question.ErrTypeUnsupported) {
		logger.Get().Info("QuestionService: missed question can no longer be asked",
			zap.Int("movie_id", q.MovieID), zap.String("question_type", string(q.Type)))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

// update refreshes q from the current movie. question.ErrTypeUnsupported
// is returned as is so callers can treat the question as stale.
func (s *questionService) update(q *domain.Question, movie *domain.Movie, persons map[int]domain.Person, settings *domain.QuestionSettings) error {
	err := s.generator.Update(q, movie, persons, settings)
	if errors.Is(err, question.ErrTypeUnsupported) {
		return err
	}
	if err != nil {
		logger.Get().Error("QuestionService: failed to update question", zap.String("question_id", q.ID), zap.Error(err))
		return domain.NewInternalError("failed to update question", err)
	}
	return nil
}

// loadMovie returns the movie with the persons its questions show; nil
// when the movie is gone.
func (s *questionService) loadMovie(ctx context.Context, movieID int) (*domain.Movie, map[int]domain.Person, error) {
	return loadMovie(ctx, s.movies, movieID)
}

func loadMovie(ctx context.Context, movies domain.MovieRepository, movieID int) (*domain.Movie, map[int]domain.Person, error) {
	movie, err := movies.GetMovie(ctx, movieID)
	if err != nil {
		return nil, nil, domain.NewInternalError(fmt.Sprintf("failed to load movie %d", movieID), err)
	}
	if movie == nil {
		return nil, nil, nil
	}

	persons := map[int]domain.Person{}
	if ids := question.PersonIDs(movie); len(ids) > 0 {
		persons, err = movies.GetPersons(ctx, ids)
		if err != nil {
			return nil, nil, domain.NewInternalError(fmt.Sprintf("failed to load persons of movie %d", movieID), err)
		}
	}
	return movie, persons, nil
}

func (s *questionService) AnswerQuestion(ctx context.Context, username string, answer domain.Answer) (*domain.Question, error) {
	q, err := s.questions.AnswerPending(ctx, username, answer)
	if err != nil {
		if errors.Is(err, domain.ErrNoAnswerableQuestion) {
			return nil, domain.NewNoAnswerableQuestionError(username)
		}
		return nil, domain.NewInternalError("failed to answer question", err)
	}

	s.metrics.answerRecorded("single", answer.Correct)
	s.publish(domain.EventQuestionAnswered, map[string]interface{}{
		"username":      username,
		"question_id":   q.ID,
		"movie_id":      q.MovieID,
		"question_type": q.Type,
		"correct":       answer.Correct,
		"answer_time":   answer.AnswerTime,
	})
	return q, nil
}

func (s *questionService) HaveQuestion(ctx context.Context, username string) (bool, error) {
	q, err := s.questions.FindPending(ctx, username)
	if err != nil {
		return false, domain.NewInternalError("failed to load pending question", err)
	}
	return q != nil, nil
}

func (s *questionService) RecordSessionAnswers(ctx context.Context, q *domain.Question, answers map[string]domain.Answer) error {
	if q == nil || len(answers) == 0 {
		return nil
	}

	answered := make([]*domain.Question, 0, len(answers))
	for username, answer := range answers {
		player := q.Clone()
		player.ID = util.NewULID()
		player.Username = username
		player.SetAnswer(answer)
		answered = append(answered, player)
		s.metrics.answerRecorded("session", answer.Correct)
	}

	if err := s.questions.InsertAnswered(ctx, answered); err != nil {
		return domain.NewInternalError("failed to store session answers", err)
	}
	return nil
}

func (s *questionService) GetMovieKnowledgeScale(ctx context.Context, username string, movieIDs []int) (map[int]domain.KnowledgeScale, error) {
	scales := make(map[int]domain.KnowledgeScale)
	if username == "" || len(movieIDs) == 0 {
		return scales, nil
	}

	settings, err := s.GetSettings(ctx, username)
	if err != nil {
		return nil, err
	}
	if !settings.ShowKnowledgeStatus {
		return scales, nil
	}

	answered, err := s.questions.FindAnsweredForMovies(ctx, username, movieIDs)
	if err != nil {
		return nil, domain.NewInternalError("failed to load answered questions", err)
	}

	for _, q := range answered {
		if q.Correct == nil {
			continue
		}
		scale := scales[q.MovieID]
		if *q.Correct {
			scale.Correct++
		} else {
			scale.Incorrect++
		}
		scale.Scale = float64(scale.Correct) / float64(scale.Correct+scale.Incorrect)
		scales[q.MovieID] = scale
	}
	return scales, nil
}

func (s *questionService) GetSettings(ctx context.Context, username string) (*domain.UserSettings, error) {
	settings, err := s.settings.Get(ctx, username)
	if err != nil {
		return nil, domain.NewInternalError("failed to load settings", err)
	}
	return settings, nil
}

func (s *questionService) UpdateSettings(ctx context.Context, settings *domain.UserSettings) (*domain.UserSettings, error) {
	settings.QuestionSettings.Normalize()
	if err := s.settings.Update(ctx, settings); err != nil {
		return nil, domain.NewInternalError("failed to update settings", err)
	}
	logger.Get().Info("QuestionService: settings updated", zap.String("username", settings.Username))
	return settings, nil
}

func (s *questionService) publish(eventType string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(eventType, payload); err != nil {
		logger.Get().Warn("QuestionService: failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}

func summaryIDs(pool []domain.MovieSummary) map[int]struct{} {
	ids := make(map[int]struct{}, len(pool))
	for _, movie := range pool {
		ids[movie.MovieID] = struct{}{}
	}
	return ids
}

func idList(pool []domain.MovieSummary) []int {
	ids := make([]int, len(pool))
	for i, movie := range pool {
		ids[i] = movie.MovieID
	}
	return ids
}

func withoutMovie(pool []domain.MovieSummary, movieID int) []domain.MovieSummary {
	result := make([]domain.MovieSummary, 0, len(pool))
	for _, movie := range pool {
		if movie.MovieID != movieID {
			result = append(result, movie)
		}
	}
	return result
}
