package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/escolaweb/escolaweb/internal/atestados"
)

// DefaultAtestadoMaxAge is how long an atestado may sit unreviewed before
// the sweep expires it.
const DefaultAtestadoMaxAge = 30 * 24 * time.Hour

// AtestadoExpirer runs the scheduled sweep over the review queue.
type AtestadoExpirer struct {
	service *atestados.Service
	maxAge  time.Duration
	logger  *slog.Logger
}

// NewAtestadoExpirer builds AtestadoExpirer instance.
func NewAtestadoExpirer(service *atestados.Service, maxAge time.Duration, logger *slog.Logger) *AtestadoExpirer {
	if maxAge <= 0 {
		maxAge = DefaultAtestadoMaxAge
	}
	return &AtestadoExpirer{service: service, maxAge: maxAge, logger: logger}
}

// HandleExpire processes TaskTypeExpireAtestados tasks.
func (e *AtestadoExpirer) HandleExpire(ctx context.Context, _ *asynq.Task) error {
	n, err := e.service.ExpirePendentes(ctx, e.maxAge)
	if err != nil {
		return err
	}
	if n > 0 {
		e.logger.Info("expired pending atestados", slog.Int64("count", n))
	}
	return nil
}
