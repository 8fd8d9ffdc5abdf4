package atestados

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/escolaweb/escolaweb/internal/shared"
)

// Repository defines data access for medical-leave certificates.
type Repository interface {
	Create(ctx context.Context, atestado Atestado) (Atestado, error)
	Get(ctx context.Context, id int64) (Atestado, error)
	ListByAluno(ctx context.Context, alunoID int64) ([]Atestado, error)
	// OwnerByArquivoURL resolves the aluno owning the attachment stored
	// under the given public path.
	OwnerByArquivoURL(ctx context.Context, arquivoURL string) (int64, error)
	ListPendentes(ctx context.Context) ([]Atestado, error)
	UpdateStatus(ctx context.Context, id int64, status, revisorCPF, parecer string) error
	// ExpirePendentes marks as expired every pending atestado submitted
	// before the cutoff. Returns how many rows changed.
	ExpirePendentes(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const atestadoColumns = `id, aluno_id, inicio, fim, COALESCE(motivo, ''), arquivo_url, status, COALESCE(revisor_cpf, ''), COALESCE(parecer, ''), created_at, updated_at`

func (r *repository) Create(ctx context.Context, atestado Atestado) (Atestado, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO atestados (aluno_id, inicio, fim, motivo, arquivo_url, status, created_at, updated_at)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, NOW(), NOW())
RETURNING `+atestadoColumns,
		atestado.AlunoID, atestado.Inicio, atestado.Fim, atestado.Motivo, atestado.ArquivoURL, StatusPendente)
	return scanAtestado(row)
}

func (r *repository) Get(ctx context.Context, id int64) (Atestado, error) {
	return scanAtestado(r.pool.QueryRow(ctx, `SELECT `+atestadoColumns+` FROM atestados WHERE id = $1`, id))
}

func (r *repository) ListByAluno(ctx context.Context, alunoID int64) ([]Atestado, error) {
	return r.listWhere(ctx, `WHERE aluno_id = $1 ORDER BY created_at DESC`, alunoID)
}

func (r *repository) OwnerByArquivoURL(ctx context.Context, arquivoURL string) (int64, error) {
	var alunoID int64
	err := r.pool.QueryRow(ctx, `SELECT aluno_id FROM atestados WHERE arquivo_url = $1`, arquivoURL).Scan(&alunoID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, shared.ErrNotFound
	}
	return alunoID, err
}

func (r *repository) ListPendentes(ctx context.Context) ([]Atestado, error) {
	return r.listWhere(ctx, `WHERE status = $1 ORDER BY created_at ASC`, StatusPendente)
}

func (r *repository) listWhere(ctx context.Context, clause string, args ...any) ([]Atestado, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+atestadoColumns+` FROM atestados `+clause, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Atestado
	for rows.Next() {
		a, err := scanAtestado(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status, revisorCPF, parecer string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE atestados SET status = $2, revisor_cpf = NULLIF($3, ''), parecer = NULLIF($4, ''), updated_at = NOW()
WHERE id = $1`, id, status, revisorCPF, parecer)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) ExpirePendentes(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE atestados SET status = $1, updated_at = NOW()
WHERE status = $2 AND created_at < $3`, StatusExpirado, StatusPendente, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanAtestado(row pgx.Row) (Atestado, error) {
	var a Atestado
	if err := row.Scan(&a.ID, &a.AlunoID, &a.Inicio, &a.Fim, &a.Motivo, &a.ArquivoURL, &a.Status, &a.RevisorCPF, &a.Parecer, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Atestado{}, shared.ErrNotFound
		}
		return Atestado{}, err
	}
	return a, nil
}
