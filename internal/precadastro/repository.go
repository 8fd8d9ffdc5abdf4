package precadastro

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/escolaweb/escolaweb/internal/platform/db"
	"github.com/escolaweb/escolaweb/internal/roles"
	"github.com/escolaweb/escolaweb/internal/shared"
)

// Repository defines data access for pre-enrollment requests.
type Repository interface {
	Create(ctx context.Context, pc PreCadastro) (PreCadastro, error)
	Get(ctx context.Context, id int64) (PreCadastro, error)
	ListPendentes(ctx context.Context) ([]PreCadastro, error)
	UpdateStatus(ctx context.Context, id int64, status, revisorCPF, parecer string) error
	// Approve promotes a pre-enrollment in one transaction: the aluno row,
	// its login account and the status flip commit or roll back together.
	Approve(ctx context.Context, pc PreCadastro, matricula, senhaHash, revisorCPF, parecer string) (int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const preCadastroColumns = `id, nome, sobrenome, cpf, COALESCE(email, ''), COALESCE(turma, ''), status, COALESCE(revisor_cpf, ''), COALESCE(parecer, ''), created_at, updated_at`

func (r *repository) Create(ctx context.Context, pc PreCadastro) (PreCadastro, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO precadastros (nome, sobrenome, cpf, email, turma, status, created_at, updated_at)
VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, NOW(), NOW())
RETURNING `+preCadastroColumns,
		pc.Nome, pc.Sobrenome, pc.CPF, pc.Email, pc.Turma, StatusPendente)
	return scanPreCadastro(row)
}

func (r *repository) Get(ctx context.Context, id int64) (PreCadastro, error) {
	return scanPreCadastro(r.pool.QueryRow(ctx, `SELECT `+preCadastroColumns+` FROM precadastros WHERE id = $1`, id))
}

func (r *repository) ListPendentes(ctx context.Context) ([]PreCadastro, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+preCadastroColumns+` FROM precadastros WHERE status = $1 ORDER BY created_at ASC`, StatusPendente)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PreCadastro
	for rows.Next() {
		pc, err := scanPreCadastro(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, pc)
	}
	return result, rows.Err()
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status, revisorCPF, parecer string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE precadastros SET status = $2, revisor_cpf = NULLIF($3, ''), parecer = NULLIF($4, ''), updated_at = NOW()
WHERE id = $1`, id, status, revisorCPF, parecer)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Approve(ctx context.Context, pc PreCadastro, matricula, senhaHash, revisorCPF, parecer string) (int64, error) {
	var alunoID int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `INSERT INTO alunos (matricula, nome, sobrenome, cpf, email, turma, created_at, updated_at)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NOW(), NOW())
RETURNING id`,
			matricula, pc.Nome, pc.Sobrenome, pc.CPF, pc.Email, pc.Turma).Scan(&alunoID)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `INSERT INTO contas (cpf, password_hash, role, ativo, created_at, updated_at)
VALUES ($1, $2, $3, true, NOW(), NOW())`, pc.CPF, senhaHash, int(roles.Aluno)); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `UPDATE precadastros SET status = $2, revisor_cpf = $3, parecer = NULLIF($4, ''), updated_at = NOW()
WHERE id = $1 AND status = $5`, pc.ID, StatusAprovado, revisorCPF, parecer, StatusPendente)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
	return alunoID, err
}

func scanPreCadastro(row pgx.Row) (PreCadastro, error) {
	var pc PreCadastro
	if err := row.Scan(&pc.ID, &pc.Nome, &pc.Sobrenome, &pc.CPF, &pc.Email, &pc.Turma, &pc.Status, &pc.RevisorCPF, &pc.Parecer, &pc.CreatedAt, &pc.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PreCadastro{}, shared.ErrNotFound
		}
		return PreCadastro{}, err
	}
	return pc, nil
}
