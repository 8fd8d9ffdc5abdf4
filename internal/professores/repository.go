package professores

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/escolaweb/escolaweb/internal/shared"
)

// Repository defines data access for staff records.
type Repository interface {
	List(ctx context.Context, search string, page, perPage int) ([]Professor, int, error)
	Get(ctx context.Context, id int64) (Professor, error)
	GetByCPF(ctx context.Context, cpf string) (Professor, error)
	Create(ctx context.Context, prof Professor) (Professor, error)
	Update(ctx context.Context, id int64, prof Professor) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const professorColumns = `id, nome, sobrenome, cpf, COALESCE(email, ''), COALESCE(disciplina, ''), cargo, COALESCE(foto_url, ''), created_at, updated_at`

func (r *repository) List(ctx context.Context, search string, page, perPage int) ([]Professor, int, error) {
	query := `SELECT ` + professorColumns + ` FROM professores WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM professores WHERE 1=1`
	args := []any{}
	argCount := 0

	if search != "" {
		argCount++
		clause := ` AND (nome ILIKE $` + strconv.Itoa(argCount) + ` OR sobrenome ILIKE $` + strconv.Itoa(argCount) + ` OR disciplina ILIKE $` + strconv.Itoa(argCount) + `)`
		query += clause
		countQuery += clause
		args = append(args, "%"+search+"%")
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

	var result []Professor
	for rows.Next() {
		var p Professor
		if err := rows.Scan(&p.ID, &p.Nome, &p.Sobrenome, &p.CPF, &p.Email, &p.Disciplina, &p.Cargo, &p.FotoURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, p)
	}
	return result, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Professor, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `SELECT `+professorColumns+` FROM professores WHERE id = $1`, id))
}

func (r *repository) GetByCPF(ctx context.Context, cpf string) (Professor, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `SELECT `+professorColumns+` FROM professores WHERE cpf = $1`, cpf))
}

func (r *repository) Create(ctx context.Context, prof Professor) (Professor, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO professores (nome, sobrenome, cpf, email, disciplina, cargo, foto_url, created_at, updated_at)
VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, NULLIF($7, ''), NOW(), NOW())
RETURNING `+professorColumns,
		prof.Nome, prof.Sobrenome, prof.CPF, prof.Email, prof.Disciplina, prof.Cargo, prof.FotoURL)
	return r.scanOne(row)
}

func (r *repository) Update(ctx context.Context, id int64, prof Professor) error {
	tag, err := r.pool.Exec(ctx, `UPDATE professores SET nome = $2, sobrenome = $3, cpf = $4, email = NULLIF($5, ''), disciplina = NULLIF($6, ''), cargo = $7, updated_at = NOW()
WHERE id = $1`, id, prof.Nome, prof.Sobrenome, prof.CPF, prof.Email, prof.Disciplina, prof.Cargo)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) scanOne(row pgx.Row) (Professor, error) {
	var p Professor
	if err := row.Scan(&p.ID, &p.Nome, &p.Sobrenome, &p.CPF, &p.Email, &p.Disciplina, &p.Cargo, &p.FotoURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Professor{}, shared.ErrNotFound
		}
		return Professor{}, err
	}
	return p, nil
}
