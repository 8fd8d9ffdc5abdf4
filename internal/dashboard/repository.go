package dashboard

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL stats repository.
func NewRepository(pool *pgxpool.Pool) StatsRepository {
	return &repository{pool: pool}
}

func (r *repository) CountStats(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.pool.QueryRow(ctx, `SELECT
(SELECT COUNT(*) FROM alunos),
(SELECT COUNT(*) FROM professores),
(SELECT COUNT(*) FROM aulas WHERE data::date = CURRENT_DATE),
(SELECT COUNT(*) FROM atestados WHERE status = 'pendente'),
(SELECT COUNT(*) FROM precadastros WHERE status = 'pendente')`).
		Scan(&s.Alunos, &s.Professores, &s.AulasHoje, &s.AtestadosPendentes, &s.PreCadastrosPendentes)
	return s, err
}
