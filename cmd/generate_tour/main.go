package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"movie-quiz/internal/adapter"
	"movie-quiz/internal/cache"
	"movie-quiz/internal/config"
	"movie-quiz/internal/database"
	"movie-quiz/internal/domain"
	"movie-quiz/internal/logger"
	"movie-quiz/internal/repository"
	"movie-quiz/internal/sampling"
	"movie-quiz/internal/service"
)

func parseOptions(args []string) (options, error) {
	var o options
	flags := pflag.NewFlagSet("generate_tour", pflag.ContinueOnError)
	flags.StringVar(&o.Name, "name", "", "Name of the quiz tour")
	flags.StringVar(&o.Description, "description", "", "Description of the quiz tour")
	flags.IntVar(&o.Questions, "questions", 0, "Number of questions (at least 7)")
	flags.StringVar(&o.Image, "image", "", "Directory with tour images")
	flags.StringVar(&o.ImagesRoot, "images-root", "../web/images/quiz_tours", "Root of the tour image directories")
	flags.StringVar(&o.Years, "years", "normal", "all | normal | soviet")
	flags.StringVar(&o.MovieTypes, "movie-types", "mcs", "all | mcs | movie | series | cartoon | anime")
	flags.StringVar(&o.Production, "production", "all", "all | russian | foreign")
	flags.StringVar(&o.Mechanics, "mechanics", string(domain.TourTypeRegular), "regular | alphabet | stairs | letter | n_letters | miracles_field | chain")
	flags.IntVar(&o.Votes, "votes", 10_000, "Minimal vote count")
	flags.StringVar(&o.QuestionTypes, "question-types", "all", "all | images | images-short-description")
	flags.BoolVar(&o.Yes, "yes", false, "Skip the confirmation prompt")

	if err := flags.Parse(args); err != nil {
		return o, err
	}
	return o, o.validate()
}

func confirm() bool {
	fmt.Print("Write yes for continue >")
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(answer) == "yes"
}

func main() {
	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}
	settings, err := opts.settings()
	if err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	l := logger.Get()
	defer logger.Sync()

	imageURL, err := opts.imageURL(rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)))
	if err != nil {
		l.Fatal("Failed to pick tour image", zap.Error(err))
	}
	params := domain.TourParams{
		Name:        opts.Name,
		Description: opts.Description,
		ImageURL:    imageURL,
		Tags:        opts.tags(),
	}

	l.Info("Generation parameters",
		zap.String("name", params.Name),
		zap.String("description", params.Description),
		zap.Int("questions", opts.Questions),
		zap.String("image_url", params.ImageURL),
		zap.Strings("tags", params.Tags),
		zap.String("mechanics", opts.Mechanics),
	)
	l.Info("Generation settings",
		zap.Any("years", settings.YearWeights),
		zap.Any("movie_types", settings.MovieTypes),
		zap.Any("production", settings.Production),
		zap.Int("votes_min", settings.Votes.Min),
		zap.Any("question_types", settings.QuestionTypes),
	)

	if !opts.Yes && !confirm() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db, err := database.NewMongoDatabase(ctx, cfg.Mongo)
	if err != nil {
		l.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		_ = database.Disconnect(context.Background(), db)
	}()

	// the top players cache is invalidated when redis is configured
	var cacheAdapter domain.Cache
	if cfg.Redis.Address != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			l.Warn("Redis unavailable, top players cache is not invalidated", zap.Error(err))
		} else {
			defer redisClient.Close()
			cacheAdapter = adapter.NewRedisCacheAdapter(redisClient)
		}
	}

	var publisher domain.EventPublisher = adapter.NewLogEventPublisher()
	if cfg.AMQP.URL != "" {
		amqpPublisher, err := adapter.NewAMQPEventPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			l.Warn("AMQP unavailable, events are only logged", zap.Error(err))
		} else {
			publisher = amqpPublisher
		}
	}
	defer publisher.Close()

	movies := repository.NewMovieRepository(db)
	sampler := sampling.NewSampler(sampling.TourConfig())
	tours := service.NewTourService(
		repository.NewTourRepository(db),
		repository.NewIdentifierRepository(db),
		movies,
		service.NewCandidatePool(movies, nil, 0, nil),
		service.NewTourGenerator(movies, sampler),
		cacheAdapter,
		cfg.Cache.RatingTTL,
		publisher,
		nil,
	)

	tour, err := tours.GenerateTour(ctx, params, domain.TourType(opts.Mechanics), settings, opts.Questions)
	if err != nil {
		l.Fatal("Failed to generate tour", zap.Error(err))
	}
	if tour == nil {
		l.Fatal("Not enough movies for the tour, relax the settings")
	}
	l.Info("Tour generated", zap.Int("quiz_tour_id", tour.TourID), zap.Ints("question_ids", tour.QuestionIDs))
}
