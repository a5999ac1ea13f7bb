package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Mongo   MongoConfig
	Server  ServerConfig
	WS      WSConfig
	Redis   RedisConfig
	Logger  LoggerConfig
	Auth    AuthConfig
	Sampler SamplerConfig
	AMQP    AMQPConfig
	Cache   CacheConfig
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// WSConfig configures the multiplayer relay listener.
type WSConfig struct {
	Port int
}

type LoggerConfig struct {
	Env   string
	Level string
}

type AuthConfig struct {
	JWTSecretKey string `yaml:"jwt_secret_key"`
	// AdminUsernames may generate tours over the API
	AdminUsernames []string `yaml:"admin_usernames"`
}

// SamplerConfig holds the tunables of the question sampler.
type SamplerConfig struct {
	Alpha               float64
	UserHistoryWindow   int
	TourHistoryWindow   int
	MinIncorrectCount   int
	SimilarityThreshold float64
}

type AMQPConfig struct {
	URL      string
	Exchange string
}

type CacheConfig struct {
	PoolTTL   time.Duration
	RatingTTL time.Duration
}

func setDefaults() {
	viper.SetDefault("mongo.uri", "mongodb://localhost:27017")
	viper.SetDefault("mongo.database", "movie_quiz")
	viper.SetDefault("server.port", 8090)
	viper.SetDefault("server.read_timeout", 20)
	viper.SetDefault("server.write_timeout", 20)
	viper.SetDefault("ws.port", 8091)
	viper.SetDefault("logger.env", "development")
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("sampler.alpha", 0.999)
	viper.SetDefault("sampler.user_history_window", 500)
	viper.SetDefault("sampler.tour_history_window", 1000)
	viper.SetDefault("sampler.min_incorrect_count", 20)
	viper.SetDefault("sampler.similarity_threshold", 80)
	viper.SetDefault("amqp.exchange", "movie_quiz.events")
	viper.SetDefault("cache.pool_ttl", 60)
	viper.SetDefault("cache.rating_ttl", 300)
}

func LoadConfig() (*Config, error) {
	// .env is optional, values already present in the environment win
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	if os.Getenv("ENV") == "test" {
		viper.AddConfigPath("../../config")
		viper.AddConfigPath("../../")
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	setDefaults()
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if configFile := viper.ConfigFileUsed(); configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Printf("Using config file: %s\n", absPath)
	}

	config := &Config{
		Mongo: MongoConfig{
			URI:      viper.GetString("mongo.uri"),
			Database: viper.GetString("mongo.database"),
		},
		Server: ServerConfig{
			Port:         viper.GetInt("server.port"),
			ReadTimeout:  viper.GetDuration("server.read_timeout") * time.Second,
			WriteTimeout: viper.GetDuration("server.write_timeout") * time.Second,
		},
		WS: WSConfig{
			Port: viper.GetInt("ws.port"),
		},
		Redis: RedisConfig{
			Address:  viper.GetString("redis.address"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		Logger: LoggerConfig{
			Env:   viper.GetString("logger.env"),
			Level: viper.GetString("logger.level"),
		},
		Auth: AuthConfig{
			JWTSecretKey:   viper.GetString("auth.jwt_secret_key"),
			AdminUsernames: viper.GetStringSlice("auth.admin_usernames"),
		},
		Sampler: SamplerConfig{
			Alpha:               viper.GetFloat64("sampler.alpha"),
			UserHistoryWindow:   viper.GetInt("sampler.user_history_window"),
			TourHistoryWindow:   viper.GetInt("sampler.tour_history_window"),
			MinIncorrectCount:   viper.GetInt("sampler.min_incorrect_count"),
			SimilarityThreshold: viper.GetFloat64("sampler.similarity_threshold"),
		},
		AMQP: AMQPConfig{
			URL:      viper.GetString("amqp.url"),
			Exchange: viper.GetString("amqp.exchange"),
		},
		Cache: CacheConfig{
			PoolTTL:   viper.GetDuration("cache.pool_ttl") * time.Second,
			RatingTTL: viper.GetDuration("cache.rating_ttl") * time.Second,
		},
	}

	// Override with environment variables if set
	if uri := os.Getenv("MONGO_URI"); uri != "" {
		config.Mongo.URI = uri
	}
	if dbName := os.Getenv("MONGO_DATABASE"); dbName != "" {
		config.Mongo.Database = dbName
	}
	if redisAddress := os.Getenv("REDIS_ADDRESS"); redisAddress != "" {
		config.Redis.Address = redisAddress
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.Redis.Password = redisPassword
	}
	if secret := os.Getenv("JWT_SECRET_KEY"); secret != "" {
		config.Auth.JWTSecretKey = secret
	}
	if admins := os.Getenv("ADMIN_USERNAMES"); admins != "" {
		config.Auth.AdminUsernames = strings.Split(admins, ",")
	}
	if amqpURL := os.Getenv("AMQP_URL"); amqpURL != "" {
		config.AMQP.URL = amqpURL
	}
	if env := os.Getenv("APP_ENV"); env != "" {
		config.Logger.Env = env
	}

	return config, nil
}
