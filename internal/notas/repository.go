package notas

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines data access for grades.
type Repository interface {
	ListByAluno(ctx context.Context, alunoID int64) ([]Nota, error)
	Upsert(ctx context.Context, nota Nota) (Nota, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const notaColumns = `id, aluno_id, professor_id, disciplina, bimestre, valor, created_at, updated_at`

func (r *repository) ListByAluno(ctx context.Context, alunoID int64) ([]Nota, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+notaColumns+` FROM notas WHERE aluno_id = $1 ORDER BY disciplina, bimestre`, alunoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotas(rows)
}

// Upsert inserts a grade or replaces the one already launched for the same
// aluno, disciplina and bimestre.
func (r *repository) Upsert(ctx context.Context, nota Nota) (Nota, error) {
	var n Nota
	err := r.pool.QueryRow(ctx, `INSERT INTO notas (aluno_id, professor_id, disciplina, bimestre, valor, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
ON CONFLICT (aluno_id, disciplina, bimestre)
DO UPDATE SET valor = EXCLUDED.valor, professor_id = EXCLUDED.professor_id, updated_at = NOW()
RETURNING `+notaColumns,
		nota.AlunoID, nota.ProfessorID, nota.Disciplina, nota.Bimestre, nota.Valor).
		Scan(&n.ID, &n.AlunoID, &n.ProfessorID, &n.Disciplina, &n.Bimestre, &n.Valor, &n.CreatedAt, &n.UpdatedAt)
	return n, err
}

func scanNotas(rows pgx.Rows) ([]Nota, error) {
	var result []Nota
	for rows.Next() {
		var n Nota
		if err := rows.Scan(&n.ID, &n.AlunoID, &n.ProfessorID, &n.Disciplina, &n.Bimestre, &n.Valor, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}
