package aulas

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/escolaweb/escolaweb/internal/platform/db"
	"github.com/escolaweb/escolaweb/internal/shared"
)

// Repository defines data access for class sessions and attendance.
type Repository interface {
	List(ctx context.Context, turma string, page, perPage int) ([]Aula, int, error)
	ListByProfessor(ctx context.Context, professorID int64, page, perPage int) ([]Aula, int, error)
	Get(ctx context.Context, id int64) (Aula, error)
	Create(ctx context.Context, aula Aula) (Aula, error)
	ListPresencas(ctx context.Context, aulaID int64) ([]Presenca, error)
	// RegistrarPresencas rewrites an aula's content and its full attendance
	// sheet atomically.
	RegistrarPresencas(ctx context.Context, aulaID int64, conteudo string, presencas []Presenca) error
	// ExcusarFaltas marks a student's absences inside a date range as
	// excused and reports how many rows changed.
	ExcusarFaltas(ctx context.Context, alunoID int64, inicio, fim time.Time) (int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const aulaColumns = `id, professor_id, turma, disciplina, data, COALESCE(horario, ''), COALESCE(conteudo, ''), created_at, updated_at`

func (r *repository) List(ctx context.Context, turma string, page, perPage int) ([]Aula, int, error) {
	where := ``
	args := []any{}
	if turma != "" {
		where = ` WHERE turma = $1`
		args = append(args, turma)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM aulas`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limitIdx := len(args) + 1
	offset := (page - 1) * perPage
	if offset < 0 {
		offset = 0
	}
	args = append(args, perPage, offset)

	rows, err := r.pool.Query(ctx, `SELECT `+aulaColumns+` FROM aulas`+where+
		` ORDER BY data DESC LIMIT $`+strconv.Itoa(limitIdx)+` OFFSET $`+strconv.Itoa(limitIdx+1), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result, err := scanAulas(rows)
	return result, total, err
}

func (r *repository) ListByProfessor(ctx context.Context, professorID int64, page, perPage int) ([]Aula, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM aulas WHERE professor_id = $1`, professorID).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	if offset < 0 {
		offset = 0
	}
	rows, err := r.pool.Query(ctx, `SELECT `+aulaColumns+` FROM aulas WHERE professor_id = $1 ORDER BY data DESC LIMIT $2 OFFSET $3`,
		professorID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result, err := scanAulas(rows)
	return result, total, err
}

func (r *repository) Get(ctx context.Context, id int64) (Aula, error) {
	var a Aula
	err := r.pool.QueryRow(ctx, `SELECT `+aulaColumns+` FROM aulas WHERE id = $1`, id).
		Scan(&a.ID, &a.ProfessorID, &a.Turma, &a.Disciplina, &a.Data, &a.Horario, &a.Conteudo, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Aula{}, shared.ErrNotFound
	}
	return a, err
}

func (r *repository) Create(ctx context.Context, aula Aula) (Aula, error) {
	var a Aula
	err := r.pool.QueryRow(ctx, `INSERT INTO aulas (professor_id, turma, disciplina, data, horario, conteudo, created_at, updated_at)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NOW(), NOW())
RETURNING `+aulaColumns,
		aula.ProfessorID, aula.Turma, aula.Disciplina, aula.Data, aula.Horario, aula.Conteudo).
		Scan(&a.ID, &a.ProfessorID, &a.Turma, &a.Disciplina, &a.Data, &a.Horario, &a.Conteudo, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *repository) ListPresencas(ctx context.Context, aulaID int64) ([]Presenca, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, aula_id, aluno_id, presente, abonada FROM presencas WHERE aula_id = $1 ORDER BY aluno_id`, aulaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Presenca
	for rows.Next() {
		var p Presenca
		if err := rows.Scan(&p.ID, &p.AulaID, &p.AlunoID, &p.Presente, &p.Abonada); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *repository) RegistrarPresencas(ctx context.Context, aulaID int64, conteudo string, presencas []Presenca) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE aulas SET conteudo = NULLIF($2, ''), updated_at = NOW() WHERE id = $1`, aulaID, conteudo)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM presencas WHERE aula_id = $1`, aulaID); err != nil {
			return err
		}
		for _, p := range presencas {
			if _, err := tx.Exec(ctx, `INSERT INTO presencas (aula_id, aluno_id, presente, abonada) VALUES ($1, $2, $3, $4)`, aulaID, p.AlunoID, p.Presente, p.Abonada); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repository) ExcusarFaltas(ctx context.Context, alunoID int64, inicio, fim time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE presencas SET abonada = TRUE
FROM aulas
WHERE presencas.aula_id = aulas.id
  AND presencas.aluno_id = $1
  AND presencas.presente = FALSE
  AND aulas.data BETWEEN $2 AND $3`, alunoID, inicio, fim)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanAulas(rows pgx.Rows) ([]Aula, error) {
	var result []Aula
	for rows.Next() {
		var a Aula
		if err := rows.Scan(&a.ID, &a.ProfessorID, &a.Turma, &a.Disciplina, &a.Data, &a.Horario, &a.Conteudo, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}
