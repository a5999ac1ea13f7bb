package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"movie-quiz/internal/cache"
	"movie-quiz/internal/database"
	"movie-quiz/internal/domain"
	"movie-quiz/internal/logger"
	"movie-quiz/internal/question"
	"movie-quiz/internal/util"
)

const (
	// ratings decay by this factor per day of tour age
	ratingAlpha = 0.99
	// players need this many completed tours to enter the top
	ratingMinTours = 4
	// concurrent rating computations while building the top
	ratingWorkers = 8
)

// TourService generates tours and serves tour play
type TourService interface {
	// GenerateTour returns nil, nil when the pool cannot satisfy the tour
	GenerateTour(ctx context.Context, params domain.TourParams, tourType domain.TourType, settings *domain.QuestionSettings, count int) (*domain.Tour, error)
	GetTour(ctx context.Context, tourID int) (*domain.Tour, error)
	ListTours(ctx context.Context) ([]*domain.Tour, error)
	// GetTourQuestion returns the next question the user has not answered,
	// or nil once the tour is finished.
	GetTourQuestion(ctx context.Context, username string, tourID int) (*domain.TourQuestion, error)
	HaveTourQuestion(ctx context.Context, questionID int, username string) (bool, error)
	AnswerTourQuestion(ctx context.Context, username string, questionID int, answer domain.Answer) error
	GetTourStatus(ctx context.Context, username string, tourID int) (*domain.TourStatus, error)
	// GetRating returns nil when the user completed no tour
	GetRating(ctx context.Context, username string) (*domain.TourRating, error)
	TopPlayers(ctx context.Context) ([]domain.TourRating, error)
	RemoveMovieFromTours(ctx context.Context, movieID int) error
}

type tourService struct {
	tours     domain.TourRepository
	ids       domain.IdentifierRepository
	movies    domain.MovieRepository
	pool      CandidatePool
	generator *TourGenerator
	cache     domain.Cache
	ratingTTL time.Duration
	publisher domain.EventPublisher
	metrics   *Metrics
	now       func() time.Time
}

func NewTourService(
	tours domain.TourRepository,
	ids domain.IdentifierRepository,
	movies domain.MovieRepository,
	pool CandidatePool,
	generator *TourGenerator,
	c domain.Cache,
	ratingTTL time.Duration,
	publisher domain.EventPublisher,
	metrics *Metrics,
) TourService {
	return &tourService{
		tours:     tours,
		ids:       ids,
		movies:    movies,
		pool:      pool,
		generator: generator,
		cache:     c,
		ratingTTL: ratingTTL,
		publisher: publisher,
		metrics:   metrics,
		now:       time.Now,
	}
}

func (s *tourService) GenerateTour(ctx context.Context, params domain.TourParams, tourType domain.TourType, settings *domain.QuestionSettings, count int) (*domain.Tour, error) {
	if !tourType.IsValid() {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("invalid tour type %q", tourType))
	}
	if count < 1 {
		return nil, domain.NewInvalidInputError("tour must have at least one question")
	}

	start := s.now()
	tour, result, err := s.generate(ctx, params, tourType, settings, count)
	if s.metrics != nil {
		s.metrics.ToursGenerated.WithLabelValues(string(tourType), result).Inc()
		s.metrics.TourGenerationTime.WithLabelValues(string(tourType)).Observe(s.now().Sub(start).Seconds())
	}
	return tour, err
}

func (s *tourService) generate(ctx context.Context, params domain.TourParams, tourType domain.TourType, settings *domain.QuestionSettings, count int) (*domain.Tour, string, error) {
	pool, err := s.pool.Candidates(ctx, settings)
	if err != nil {
		return nil, "error", err
	}
	if len(pool) < count {
		logger.Get().Info("TourService: not enough movies for tour", zap.Int("pool", len(pool)), zap.Int("count", count))
		return nil, "insufficient_pool", nil
	}

	history, err := s.tours.FindRecentTourQuestions(ctx, idList(pool), s.generator.sampler.Config().TourHistoryWindow)
	if err != nil {
		return nil, "error", domain.NewInternalError("failed to load tour history", err)
	}

	questions, err := s.generator.Generate(ctx, tourType, pool, history, settings, count)
	if err != nil {
		return nil, "error", err
	}
	if questions == nil {
		return nil, "dead_end", nil
	}

	tourQuestions := make([]domain.TourQuestion, len(questions))
	questionIDs := make([]int, len(questions))
	for i, q := range questions {
		id, err := s.ids.NextID(ctx, database.TourQuestionCounter)
		if err != nil {
			return nil, "error", domain.NewInternalError("failed to allocate tour question id", err)
		}
		tourQuestions[i] = domain.TourQuestion{QuestionID: id, Question: *q, AnswerTime: domain.TourQuestionAnswerSeconds}
		questionIDs[i] = id
	}
	if err := s.tours.InsertTourQuestions(ctx, tourQuestions); err != nil {
		return nil, "error", domain.NewInternalError("failed to store tour questions", err)
	}

	tourID, err := s.ids.NextID(ctx, database.TourCounter)
	if err != nil {
		return nil, "error", domain.NewInternalError("failed to allocate tour id", err)
	}

	imageURL := params.ImageURL
	if imageURL == "" {
		imageURL = domain.DefaultTourImageURL
	}
	tags := params.Tags
	if tags == nil {
		tags = []string{}
	}
	tour := &domain.Tour{
		TourID:      tourID,
		Type:        tourType,
		Name:        params.Name,
		Description: params.Description,
		QuestionIDs: questionIDs,
		ImageURL:    imageURL,
		CreatedAt:   s.now(),
		CreatedBy:   domain.DefaultTourCreator,
		Tags:        tags,
	}
	if err := s.tours.InsertTour(ctx, tour); err != nil {
		return nil, "error", domain.NewInternalError("failed to store tour", err)
	}

	logger.Get().Info("TourService: tour generated",
		zap.Int("tour_id", tour.TourID),
		zap.String("tour_type", string(tourType)),
		zap.Ints("question_ids", questionIDs))
	// every rating decays against the newest tour
	s.newRatingVersion(ctx)
	s.invalidate(ctx, cache.TopPlayersKey())
	s.publish(domain.EventTourGenerated, map[string]interface{}{
		"quiz_tour_id":   tour.TourID,
		"quiz_tour_type": tour.Type,
		"questions":      len(questionIDs),
	})
	return tour, "created", nil
}

func (s *tourService) GetTour(ctx context.Context, tourID int) (*domain.Tour, error) {
	tour, err := s.tours.GetTour(ctx, tourID)
	if err != nil {
		return nil, domain.NewInternalError("failed to load tour", err)
	}
	if tour == nil {
		return nil, domain.NewTourNotFoundError(tourID)
	}
	return tour, nil
}

func (s *tourService) ListTours(ctx context.Context) ([]*domain.Tour, error) {
	tours, err := s.tours.ListTours(ctx)
	if err != nil {
		return nil, domain.NewInternalError("failed to list tours", err)
	}
	return tours, nil
}

func (s *tourService) GetTourQuestion(ctx context.Context, username string, tourID int) (*domain.TourQuestion, error) {
	tour, err := s.GetTour(ctx, tourID)
	if err != nil {
		return nil, err
	}

	answers, err := s.tours.FindTourAnswers(ctx, tour.QuestionIDs, username)
	if err != nil {
		return nil, domain.NewInternalError("failed to load tour answers", err)
	}
	answered := make(map[int]struct{}, len(answers))
	for _, answer := range answers {
		answered[answer.QuestionID] = struct{}{}
	}

	position := -1
	for i, questionID := range tour.QuestionIDs {
		if _, ok := answered[questionID]; !ok {
			position = i
			break
		}
	}
	if position < 0 {
		return nil, nil
	}

	tourQuestion, err := s.tours.GetTourQuestion(ctx, tour.QuestionIDs[position])
	if err != nil {
		return nil, domain.NewInternalError("failed to load tour question", err)
	}
	if tourQuestion == nil {
		return nil, domain.NewNotFoundError(fmt.Sprintf("tour question %d not found", tour.QuestionIDs[position]))
	}

	movie, persons, err := loadMovie(ctx, s.movies, tourQuestion.Question.MovieID)
	if err != nil {
		return nil, err
	}
	if movie != nil {
		err := s.generator.generator.Update(&tourQuestion.Question, movie, persons, domain.DefaultQuestionSettings())
		if errors.Is(err, question.ErrTypeUnsupported) {
			// tours are fixed, the stored payload is served as generated
			logger.Get().Warn("TourService: movie no longer supports the tour question type",
				zap.Int("question_id", tourQuestion.QuestionID), zap.Error(err))
		} else if err != nil {
			logger.Get().Error("TourService: failed to refresh tour question", zap.Int("question_id", tourQuestion.QuestionID), zap.Error(err))
			return nil, domain.NewInternalError("failed to refresh tour question", err)
		}
	}
	tourQuestion.Question.Title = fmt.Sprintf("Вопрос %d из %d. %s", position+1, len(tour.QuestionIDs), tourQuestion.Question.Title)
	return tourQuestion, nil
}

func (s *tourService) HaveTourQuestion(ctx context.Context, questionID int, username string) (bool, error) {
	tourQuestion, err := s.tours.GetTourQuestion(ctx, questionID)
	if err != nil {
		return false, domain.NewInternalError("failed to load tour question", err)
	}
	if tourQuestion == nil {
		return false, nil
	}

	answered, err := s.tours.HasTourAnswer(ctx, questionID, username)
	if err != nil {
		return false, domain.NewInternalError("failed to check tour answer", err)
	}
	return !answered, nil
}

func (s *tourService) AnswerTourQuestion(ctx context.Context, username string, questionID int, answer domain.Answer) error {
	available, err := s.HaveTourQuestion(ctx, questionID, username)
	if err != nil {
		return err
	}
	if !available {
		return domain.NewError(domain.CodeTourQuestionAnswered, fmt.Sprintf("tour question %d is not available", questionID), nil)
	}

	tourAnswer := &domain.TourAnswer{
		QuestionID: questionID,
		Username:   username,
		Correct:    answer.Correct,
		Timestamp:  s.now(),
	}
	if answer.AnswerTime != nil {
		tourAnswer.AnswerTime = *answer.AnswerTime
	}
	if err := s.tours.InsertTourAnswer(ctx, tourAnswer); err != nil {
		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) {
			return domainErr
		}
		return domain.NewInternalError("failed to store tour answer", err)
	}

	s.metrics.answerRecorded("tour", answer.Correct)
	keys := []string{cache.TopPlayersKey()}
	if version := s.ratingVersion(ctx); version != "" {
		keys = append([]string{cache.TourRatingKey(username, version)}, keys...)
	}
	s.invalidate(ctx, keys...)
	s.publish(domain.EventTourAnswered, map[string]interface{}{
		"username":    username,
		"question_id": questionID,
		"correct":     answer.Correct,
		"answer_time": tourAnswer.AnswerTime,
	})
	return nil
}

func (s *tourService) GetTourStatus(ctx context.Context, username string, tourID int) (*domain.TourStatus, error) {
	tour, err := s.GetTour(ctx, tourID)
	if err != nil {
		return nil, err
	}

	answers, err := s.tours.FindTourAnswers(ctx, tour.QuestionIDs, "")
	if err != nil {
		return nil, domain.NewInternalError("failed to load tour answers", err)
	}
	return tourStatus(tour, answers, username), nil
}

func tourStatus(tour *domain.Tour, answers []domain.TourAnswer, username string) *domain.TourStatus {
	total := len(tour.QuestionIDs)
	status := &domain.TourStatus{Total: total}

	perUser := make(map[string][]bool)
	for _, answer := range answers {
		perUser[answer.Username] = append(perUser[answer.Username], answer.Correct)
		if answer.Username != username {
			continue
		}
		if answer.Correct {
			status.Correct++
			status.Time.Correct += answer.AnswerTime
		} else {
			status.Incorrect++
			status.Time.Incorrect += answer.AnswerTime
		}
	}
	status.Time.Total = status.Time.Correct + status.Time.Incorrect
	status.Lost = total - status.Correct - status.Incorrect

	if total > 0 {
		status.CorrectPercents = float64(status.Correct) / float64(total) * 100
		status.IncorrectPercents = float64(status.Incorrect) / float64(total) * 100
	}

	scoreSum := 0.0
	for _, verdicts := range perUser {
		if len(verdicts) != total {
			continue
		}
		status.FinishedCount++
		scoreSum += correctShare(verdicts)
	}
	status.MeanScore = scoreSum / float64(max(status.FinishedCount, 1)) * 100
	return status
}

func correctShare(verdicts []bool) float64 {
	if len(verdicts) == 0 {
		return 0
	}
	correct := 0
	for _, verdict := range verdicts {
		if verdict {
			correct++
		}
	}
	return float64(correct) / float64(len(verdicts))
}

func (s *tourService) GetRating(ctx context.Context, username string) (*domain.TourRating, error) {
	return s.rating(ctx, username, s.ratingVersion(ctx))
}

// rating computes a user's rating, cached under version. An empty version
// skips the cache.
func (s *tourService) rating(ctx context.Context, username, version string) (*domain.TourRating, error) {
	key := cache.TourRatingKey(username, version)
	var cached domain.TourRating
	if version != "" && s.cachedJSON(ctx, key, &cached) {
		if cached.Count == 0 {
			return nil, nil
		}
		return &cached, nil
	}

	var (
		allTours []*domain.Tour
		answered []*domain.Tour
		answers  []domain.TourAnswer
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		allTours, err = s.tours.ListTours(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		answers, err = s.tours.FindUserTourAnswers(gctx, username)
		if err != nil || len(answers) == 0 {
			return err
		}
		questionIDs := make([]int, len(answers))
		for i, answer := range answers {
			questionIDs[i] = answer.QuestionID
		}
		answered, err = s.tours.FindToursByQuestionIDs(gctx, questionIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, domain.NewInternalError("failed to compute tour rating", err)
	}

	rating := computeRating(username, allTours, answered, answers, s.now())
	if version != "" {
		s.storeJSON(ctx, key, rating)
	}
	if rating.Count == 0 {
		return nil, nil
	}
	return &rating, nil
}

// computeRating averages the score of every completed tour, discounted by
// the tour age relative to the newest tour.
func computeRating(username string, allTours, answered []*domain.Tour, answers []domain.TourAnswer, now time.Time) domain.TourRating {
	newest := civilDay(now)
	if len(allTours) > 0 {
		newest = civilDay(allTours[0].CreatedAt)
		for _, tour := range allTours[1:] {
			if day := civilDay(tour.CreatedAt); day.After(newest) {
				newest = day
			}
		}
	}

	verdicts := make(map[int]bool, len(answers))
	for _, answer := range answers {
		verdicts[answer.QuestionID] = answer.Correct
	}

	scores := make([]float64, 0, len(answered))
	for _, tour := range answered {
		if len(tour.QuestionIDs) == 0 {
			continue
		}
		tourVerdicts := make([]bool, 0, len(tour.QuestionIDs))
		for _, questionID := range tour.QuestionIDs {
			if verdict, ok := verdicts[questionID]; ok {
				tourVerdicts = append(tourVerdicts, verdict)
			}
		}
		if len(tourVerdicts) != len(tour.QuestionIDs) {
			continue
		}
		days := int(newest.Sub(civilDay(tour.CreatedAt)).Hours() / 24)
		scores = append(scores, correctShare(tourVerdicts)*100*math.Pow(ratingAlpha, float64(days)))
	}

	rating := domain.TourRating{Username: username, Count: len(scores)}
	if len(scores) > 0 {
		sum := 0.0
		for _, score := range scores {
			sum += score
		}
		rating.Rating = math.Round(sum/float64(len(scores))*10) / 10
	}
	return rating
}

func civilDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *tourService) TopPlayers(ctx context.Context) ([]domain.TourRating, error) {
	key := cache.TopPlayersKey()
	var cached []domain.TourRating
	if s.cachedJSON(ctx, key, &cached) {
		return cached, nil
	}

	players, err := s.tours.ListTourPlayers(ctx)
	if err != nil {
		return nil, domain.NewInternalError("failed to list tour players", err)
	}

	version := s.ratingVersion(ctx)
	ratings := make([]*domain.TourRating, len(players))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ratingWorkers)
	for i, username := range players {
		g.Go(func() error {
			rating, err := s.rating(gctx, username, version)
			ratings[i] = rating
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	top := make([]domain.TourRating, 0, len(ratings))
	for _, rating := range ratings {
		if rating != nil && rating.Count >= ratingMinTours {
			top = append(top, *rating)
		}
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Rating != top[j].Rating {
			return top[i].Rating > top[j].Rating
		}
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Username > top[j].Username
	})

	s.storeJSON(ctx, key, top)
	return top, nil
}

func (s *tourService) RemoveMovieFromTours(ctx context.Context, movieID int) error {
	questionIDs, err := s.tours.FindTourQuestionIDsByMovie(ctx, movieID)
	if err != nil {
		return domain.NewInternalError("failed to find tour questions of movie", err)
	}
	if len(questionIDs) == 0 {
		return nil
	}

	if err := s.tours.DeleteTourQuestions(ctx, questionIDs); err != nil {
		return domain.NewInternalError("failed to delete tour questions", err)
	}
	if err := s.tours.PullQuestionIDs(ctx, questionIDs); err != nil {
		return domain.NewInternalError("failed to detach tour questions", err)
	}
	deleted, err := s.tours.DeleteEmptyTours(ctx)
	if err != nil {
		return domain.NewInternalError("failed to delete empty tours", err)
	}

	logger.Get().Info("TourService: movie removed from tours",
		zap.Int("movie_id", movieID),
		zap.Ints("question_ids", questionIDs),
		zap.Int64("deleted_tours", deleted))
	s.newRatingVersion(ctx)
	s.invalidate(ctx, cache.TopPlayersKey())
	return nil
}

func (s *tourService) cachedJSON(ctx context.Context, key string, target interface{}) bool {
	if s.cache == nil {
		return false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			logger.Get().Warn("TourService: cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal([]byte(data), target); err != nil {
		logger.Get().Warn("TourService: corrupt cache entry", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *tourService) storeJSON(ctx context.Context, key string, value interface{}) {
	if s.cache == nil || s.ratingTTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		logger.Get().Error("TourService: failed to encode cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, string(data), s.ratingTTL); err != nil {
		logger.Get().Warn("TourService: cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// ratingVersion returns the version cached ratings are stored under and
// starts one when none is stored. It returns "" when the cache is unusable.
func (s *tourService) ratingVersion(ctx context.Context) string {
	if s.cache == nil {
		return ""
	}
	version, err := s.cache.Get(ctx, cache.TourRatingVersionKey())
	if err == nil && version != "" {
		return version
	}
	if err != nil && !errors.Is(err, domain.ErrCacheMiss) {
		logger.Get().Warn("TourService: rating version read failed", zap.Error(err))
		return ""
	}
	return s.newRatingVersion(ctx)
}

// newRatingVersion retires every cached rating
func (s *tourService) newRatingVersion(ctx context.Context) string {
	if s.cache == nil {
		return ""
	}
	version := util.NewULID()
	if err := s.cache.Set(ctx, cache.TourRatingVersionKey(), version, 0); err != nil {
		logger.Get().Warn("TourService: rating version write failed", zap.Error(err))
		return ""
	}
	return version
}

func (s *tourService) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		logger.Get().Warn("TourService: cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

func (s *tourService) publish(eventType string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(eventType, payload); err != nil {
		logger.Get().Warn("TourService: failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}
