package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"movie-quiz/internal/cache"
	"movie-quiz/internal/domain"
	"movie-quiz/internal/logger"
)

// CandidatePool loads the movies eligible for a settings value
type CandidatePool interface {
	Candidates(ctx context.Context, settings *domain.QuestionSettings) ([]domain.MovieSummary, error)
}

// poolCache coalesces concurrent loads of the same pool and keeps the
// result in the cache for a short time. Cache failures only cost a
// store query.
type poolCache struct {
	movies  domain.MovieRepository
	cache   domain.Cache
	ttl     time.Duration
	metrics *Metrics
	group   singleflight.Group
}

// NewCandidatePool returns a pool loader. With a nil cache every call
// goes to the store, still coalesced.
func NewCandidatePool(movies domain.MovieRepository, c domain.Cache, ttl time.Duration, metrics *Metrics) CandidatePool {
	if c == nil {
		logger.Get().Warn("CandidatePool initialized with nil cache. Pools will not be cached.")
	}
	return &poolCache{movies: movies, cache: c, ttl: ttl, metrics: metrics}
}

func (p *poolCache) Candidates(ctx context.Context, settings *domain.QuestionSettings) ([]domain.MovieSummary, error) {
	if settings.Empty() {
		return nil, nil
	}

	key := cache.CandidatePoolKey(settings.Fingerprint())
	// the load is shared, so one caller going away must not fail the rest
	loadCtx := context.WithoutCancel(ctx)
	result, err, shared := p.group.Do(key, func() (interface{}, error) {
		return p.load(loadCtx, key, settings)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.Get().Debug("CandidatePool: shared pool load", zap.String("key", key))
	}

	// callers may reorder the slice
	pool := result.([]domain.MovieSummary)
	return append([]domain.MovieSummary(nil), pool...), nil
}

func (p *poolCache) load(ctx context.Context, key string, settings *domain.QuestionSettings) ([]domain.MovieSummary, error) {
	if pool, ok := p.lookup(ctx, key); ok {
		return pool, nil
	}

	pool, err := p.movies.FindCandidates(ctx, settings)
	if err != nil {
		return nil, domain.NewInternalError("failed to load candidate movies", err)
	}
	if p.metrics != nil {
		p.metrics.CandidatePoolSize.Observe(float64(len(pool)))
	}
	p.store(ctx, key, pool)
	return pool, nil
}

func (p *poolCache) lookup(ctx context.Context, key string) ([]domain.MovieSummary, bool) {
	if p.cache == nil {
		return nil, false
	}

	data, err := p.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			p.metrics.poolCacheResult("miss")
		} else {
			p.metrics.poolCacheResult("error")
			logger.Get().Warn("CandidatePool: cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var pool []domain.MovieSummary
	if err := json.Unmarshal([]byte(data), &pool); err != nil {
		p.metrics.poolCacheResult("error")
		logger.Get().Warn("CandidatePool: corrupt cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	p.metrics.poolCacheResult("hit")
	return pool, true
}

func (p *poolCache) store(ctx context.Context, key string, pool []domain.MovieSummary) {
	if p.cache == nil || p.ttl <= 0 {
		return
	}
	data, err := json.Marshal(pool)
	if err != nil {
		logger.Get().Error("CandidatePool: failed to encode pool", zap.Error(err))
		return
	}
	if err := p.cache.Set(ctx, key, string(data), p.ttl); err != nil {
		logger.Get().Warn("CandidatePool: cache write failed", zap.String("key", key), zap.Error(err))
	}
}
