// @title Movie Quiz API
// @version 1.0
// @description Adaptive movie trivia: personal questions, quiz tours and multiplayer sessions.
// @host localhost:8090
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	_ "movie-quiz/cmd/api/docs"
	"movie-quiz/internal/adapter"
	"movie-quiz/internal/cache"
	"movie-quiz/internal/config"
	"movie-quiz/internal/database"
	"movie-quiz/internal/domain"
	"movie-quiz/internal/handler"
	"movie-quiz/internal/logger"
	"movie-quiz/internal/middleware"
	"movie-quiz/internal/repository"
	"movie-quiz/internal/sampling"
	"movie-quiz/internal/service"
	"movie-quiz/internal/validation"
	"movie-quiz/internal/ws"
)

// requestLogger is a middleware that logs HTTP requests
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()

		err := c.Next()

		logger.Get().Info("HTTP Request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("duration", time.Since(start)),
			zap.String("ip", c.IP()),
			zap.String("user_agent", c.Get("User-Agent")),
		)

		return err
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewMongoDatabase(ctx, cfg.Mongo)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Redis is optional; without it every lookup goes to the store
	var cacheAdapter domain.Cache
	if cfg.Redis.Address != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		cacheAdapter = adapter.NewRedisCacheAdapter(redisClient)
		appLogger.Info("Successfully connected to Redis")
	} else {
		appLogger.Warn("Redis address is empty, caching disabled")
	}

	var publisher domain.EventPublisher = adapter.NewLogEventPublisher()
	if cfg.AMQP.URL != "" {
		amqpPublisher, err := adapter.NewAMQPEventPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			appLogger.Fatal("Failed to connect to AMQP broker", zap.Error(err))
		}
		publisher = amqpPublisher
	}
	defer publisher.Close()

	samplerConfig := sampling.Config{
		Alpha:               cfg.Sampler.Alpha,
		UserHistoryWindow:   cfg.Sampler.UserHistoryWindow,
		TourHistoryWindow:   cfg.Sampler.TourHistoryWindow,
		MinIncorrectCount:   cfg.Sampler.MinIncorrectCount,
		SimilarityThreshold: cfg.Sampler.SimilarityThreshold,
	}
	if err := samplerConfig.Validate(); err != nil {
		appLogger.Fatal("Invalid sampler configuration", zap.Error(err))
	}
	sampler := sampling.NewSampler(samplerConfig)
	// tours draw from the whole catalogue with a long history
	tourSamplerConfig := sampling.TourConfig()
	tourSamplerConfig.SimilarityThreshold = samplerConfig.SimilarityThreshold
	tourSampler := sampling.NewSampler(tourSamplerConfig)
	metrics := service.NewMetrics(prometheus.DefaultRegisterer)

	// Initialize repositories
	movieRepository := repository.NewMovieRepository(db)
	questionRepository := repository.NewQuestionRepository(db)
	settingsRepository := repository.NewSettingsRepository(db)
	tourRepository := repository.NewTourRepository(db)
	sessionRepository := repository.NewSessionRepository(db)
	identifierRepository := repository.NewIdentifierRepository(db)

	// Initialize services
	pool := service.NewCandidatePool(movieRepository, cacheAdapter, cfg.Cache.PoolTTL, metrics)
	questionService := service.NewQuestionService(movieRepository, questionRepository, settingsRepository, pool, sampler, publisher, metrics)
	tourService := service.NewTourService(
		tourRepository,
		identifierRepository,
		movieRepository,
		pool,
		service.NewTourGenerator(movieRepository, tourSampler),
		cacheAdapter,
		cfg.Cache.RatingTTL,
		publisher,
		metrics,
	)
	tokenService, err := service.NewTokenService(cfg.Auth.JWTSecretKey)
	if err != nil {
		appLogger.Fatal("Failed to create TokenService", zap.Error(err))
	}

	hub := ws.NewHub()
	go hub.Run(ctx)
	sessionService := service.NewSessionService(sessionRepository, movieRepository, questionService, hub, metrics)

	// Initialize handlers
	validator := validation.NewValidator()
	validationMiddleware := middleware.NewValidationMiddleware(validator)
	questionHandler := handler.NewQuestionHandler(questionService, validator)
	settingsHandler := handler.NewSettingsHandler(questionService, validator)
	tourHandler := handler.NewTourHandler(tourService, validator)
	sessionHandler := handler.NewSessionHandler(sessionService, validator)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  20 * time.Second,
		BodyLimit:    1024 * 1024,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(requestLogger())
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,PUT,DELETE,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept,Authorization", MaxAge: 300}))
	app.Use(recover.New())
	app.Use(middleware.RequestMetrics(prometheus.DefaultRegisterer))

	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	apiGroup := app.Group("/api")
	protected := middleware.Protected(tokenService)
	admin := middleware.AdminOnly(cfg.Auth.AdminUsernames)

	apiGroup.Get("/question", protected, questionHandler.GetQuestion)
	apiGroup.Post("/question/answer", protected, questionHandler.AnswerQuestion)
	apiGroup.Get("/knowledge", middleware.OptionalAuth(tokenService), validationMiddleware.ValidateMovieIDs(), questionHandler.GetKnowledge)

	apiGroup.Get("/settings", protected, settingsHandler.GetSettings)
	apiGroup.Put("/settings", protected, settingsHandler.UpdateSettings)

	tourGroup := apiGroup.Group("/tours")
	tourGroup.Get("/", tourHandler.ListTours)
	tourGroup.Post("/", protected, admin, tourHandler.GenerateTour)
	tourGroup.Get("/top", tourHandler.TopPlayers)
	tourGroup.Get("/rating", protected, tourHandler.GetRating)
	tourGroup.Post("/answer", protected, tourHandler.AnswerTourQuestion)
	tourGroup.Get("/:id", validationMiddleware.ValidateTourID(), tourHandler.GetTour)
	tourGroup.Get("/:id/question", protected, validationMiddleware.ValidateTourID(), tourHandler.GetTourQuestion)
	tourGroup.Get("/:id/status", protected, validationMiddleware.ValidateTourID(), tourHandler.GetTourStatus)

	sessionGroup := apiGroup.Group("/sessions", protected)
	sessionGroup.Post("/", sessionHandler.CreateSession)
	sessionGroup.Get("/:id", sessionHandler.CheckSession)
	sessionGroup.Delete("/:id", sessionHandler.RemoveSession)

	relay := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.WS.Port),
		Handler:           ws.NewHandler(hub, sessionService, tokenService, validator, []string{"*"}).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Logger.Env))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()
	go func() {
		appLogger.Info("Starting session relay", zap.Int("port", cfg.WS.Port))
		if err := relay.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Failed to start session relay", zap.Error(err))
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := relay.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Session relay forced to shutdown", zap.Error(err))
	}
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := database.Disconnect(shutdownCtx, db); err != nil {
		appLogger.Error("Failed to disconnect from MongoDB", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
