package shared

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ReviewAction enumerates review log actions.
type ReviewAction string

const (
	// ReviewSubmit marks a submission entering the review queue.
	ReviewSubmit ReviewAction = "SUBMIT"
	// ReviewApprove marks an approval decision.
	ReviewApprove ReviewAction = "APPROVE"
	// ReviewReject marks a rejection decision.
	ReviewReject ReviewAction = "REJECT"
)

// ReviewLog represents a single review record. Module names the workflow
// ("atestados", "precadastro"), RefID the reviewed record, ActorCPF the
// reviewer (empty on submit).
type ReviewLog struct {
	ID       int64
	Module   string
	RefID    int64
	ActorCPF string
	Action   ReviewAction
	Note     string
	At       time.Time
}

// ReviewRecorder persists review history.
type ReviewRecorder struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewReviewRecorder constructs ReviewRecorder.
func NewReviewRecorder(pool *pgxpool.Pool, logger *slog.Logger) *ReviewRecorder {
	return &ReviewRecorder{pool: pool, logger: logger}
}

// Record writes a review entry to the database.
func (r *ReviewRecorder) Record(ctx context.Context, entry ReviewLog) error {
	if r == nil {
		return errors.New("review recorder not initialised")
	}
	if entry.Module == "" {
		return errors.New("review module required")
	}
	if entry.RefID == 0 {
		return errors.New("review ref id required")
	}
	if entry.Action == "" {
		return errors.New("review action required")
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO revisoes (module, ref_id, actor_cpf, action, note, at)
VALUES ($1, $2, $3, $4, $5, COALESCE(NULLIF($6, '0001-01-01 00:00:00+00'::timestamptz), NOW()))`,
		entry.Module, entry.RefID, entry.ActorCPF, string(entry.Action), entry.Note, entry.At)
	if err != nil {
		r.logger.Error("record review", slog.Any("error", err))
		return err
	}
	return nil
}

// List returns review entries for module/ref in chronological order.
func (r *ReviewRecorder) List(ctx context.Context, module string, ref int64) ([]ReviewLog, error) {
	if r == nil {
		return nil, errors.New("review recorder not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT id, module, ref_id, actor_cpf, action, note, at
FROM revisoes WHERE module=$1 AND ref_id=$2 ORDER BY at ASC`, module, ref)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var logs []ReviewLog
	for rows.Next() {
		var l ReviewLog
		var action string
		if err := rows.Scan(&l.ID, &l.Module, &l.RefID, &l.ActorCPF, &action, &l.Note, &l.At); err != nil {
			return nil, err
		}
		l.Action = ReviewAction(action)
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}
