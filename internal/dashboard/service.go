package dashboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Stats aggregates the counters shown on the signed-in home page.
type Stats struct {
	Alunos                int64 `json:"alunos"`
	Professores           int64 `json:"professores"`
	AulasHoje             int64 `json:"aulas_hoje"`
	AtestadosPendentes    int64 `json:"atestados_pendentes"`
	PreCadastrosPendentes int64 `json:"precadastros_pendentes"`
}

// StatsRepository counts the dashboard figures.
type StatsRepository interface {
	CountStats(ctx context.Context) (Stats, error)
}

const cacheKey = "dashboard:stats"

// Service serves dashboard stats with a short Redis cache. Concurrent cache
// misses collapse into a single database round-trip.
type Service struct {
	logger *slog.Logger
	repo   StatsRepository
	cache  *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewService builds Service instance. A nil cache disables caching.
func NewService(logger *slog.Logger, repo StatsRepository, cache *redis.Client, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Service{logger: logger, repo: repo, cache: cache, ttl: ttl}
}

// Stats returns the current counters, served from cache when fresh.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, cacheKey).Bytes()
		if err == nil {
			var cached Stats
			if json.Unmarshal(raw, &cached) == nil {
				return cached, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn("dashboard cache read failed", slog.Any("error", err))
		}
	}

	v, err, _ := s.group.Do(cacheKey, func() (any, error) {
		stats, err := s.repo.CountStats(ctx)
		if err != nil {
			return Stats{}, err
		}
		if s.cache != nil {
			if raw, err := json.Marshal(stats); err == nil {
				if err := s.cache.Set(ctx, cacheKey, raw, s.ttl).Err(); err != nil {
					s.logger.Warn("dashboard cache write failed", slog.Any("error", err))
				}
			}
		}
		return stats, nil
	})
	if err != nil {
		return Stats{}, err
	}
	return v.(Stats), nil
}
