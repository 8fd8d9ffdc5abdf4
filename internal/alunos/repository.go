package alunos

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/escolaweb/escolaweb/internal/shared"
)

// Repository defines data access for student records.
type Repository interface {
	List(ctx context.Context, search string, page, perPage int) ([]Aluno, int, error)
	Get(ctx context.Context, id int64) (Aluno, error)
	GetByMatricula(ctx context.Context, matricula string) (Aluno, error)
	ListByTurma(ctx context.Context, turma string) ([]Aluno, error)
	Create(ctx context.Context, aluno Aluno) (Aluno, error)
	Update(ctx context.Context, id int64, aluno Aluno) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const alunoColumns = `id, matricula, nome, sobrenome, cpf, COALESCE(email, ''), COALESCE(turma, ''), COALESCE(foto_url, ''), created_at, updated_at`

func (r *repository) List(ctx context.Context, search string, page, perPage int) ([]Aluno, int, error) {
	query := `SELECT ` + alunoColumns + ` FROM alunos WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM alunos WHERE 1=1`
	args := []any{}
	argCount := 0

	if search != "" {
		argCount++
		clause := ` AND (nome ILIKE $` + strconv.Itoa(argCount) + ` OR sobrenome ILIKE $` + strconv.Itoa(argCount) + ` OR cpf = $` + strconv.Itoa(argCount+1) + `)`
		query += clause
		countQuery += clause
		args = append(args, "%"+search+"%", search)
		argCount++
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY nome, sobrenome`
	if perPage > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, perPage)
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		offset := (page - 1) * perPage
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Aluno
	for rows.Next() {
		var a Aluno
		if err := rows.Scan(&a.ID, &a.Matricula, &a.Nome, &a.Sobrenome, &a.CPF, &a.Email, &a.Turma, &a.FotoURL, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, a)
	}
	return result, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Aluno, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `SELECT `+alunoColumns+` FROM alunos WHERE id = $1`, id))
}

func (r *repository) GetByMatricula(ctx context.Context, matricula string) (Aluno, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `SELECT `+alunoColumns+` FROM alunos WHERE matricula = $1`, matricula))
}

func (r *repository) ListByTurma(ctx context.Context, turma string) ([]Aluno, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+alunoColumns+` FROM alunos WHERE turma = $1 ORDER BY nome, sobrenome`, turma)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Aluno
	for rows.Next() {
		var a Aluno
		if err := rows.Scan(&a.ID, &a.Matricula, &a.Nome, &a.Sobrenome, &a.CPF, &a.Email, &a.Turma, &a.FotoURL, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *repository) Create(ctx context.Context, aluno Aluno) (Aluno, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO alunos (matricula, nome, sobrenome, cpf, email, turma, foto_url, created_at, updated_at)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), NOW(), NOW())
RETURNING `+alunoColumns,
		aluno.Matricula, aluno.Nome, aluno.Sobrenome, aluno.CPF, aluno.Email, aluno.Turma, aluno.FotoURL)
	return r.scanOne(row)
}

func (r *repository) Update(ctx context.Context, id int64, aluno Aluno) error {
	tag, err := r.pool.Exec(ctx, `UPDATE alunos SET nome = $2, sobrenome = $3, cpf = $4, email = NULLIF($5, ''), turma = NULLIF($6, ''), updated_at = NOW()
WHERE id = $1`, id, aluno.Nome, aluno.Sobrenome, aluno.CPF, aluno.Email, aluno.Turma)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) scanOne(row pgx.Row) (Aluno, error) {
	var a Aluno
	if err := row.Scan(&a.ID, &a.Matricula, &a.Nome, &a.Sobrenome, &a.CPF, &a.Email, &a.Turma, &a.FotoURL, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Aluno{}, shared.ErrNotFound
		}
		return Aluno{}, err
	}
	return a, nil
}
