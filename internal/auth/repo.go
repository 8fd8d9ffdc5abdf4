package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/escolaweb/escolaweb/internal/roles"
	"github.com/escolaweb/escolaweb/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindAccountByCPF(ctx context.Context, cpf string) (*Account, error)
	FindAlunoProfile(ctx context.Context, cpf string) (*Profile, error)
	FindProfessorProfile(ctx context.Context, cpf string) (*Profile, error)
	CreateSession(ctx context.Context, id, cpf string, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindAccountByCPF fetches an account by its CPF.
func (r *PGRepository) FindAccountByCPF(ctx context.Context, cpf string) (*Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT cpf, password_hash, role, ativo, created_at, updated_at
FROM contas WHERE cpf = $1`, cpf)
	var (
		account Account
		role    string
	)
	if err := row.Scan(&account.CPF, &account.PasswordHash, &role, &account.Ativo, &account.CreatedAt, &account.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	parsed, err := roles.Parse(role)
	if err != nil {
		return nil, err
	}
	account.Role = parsed
	return &account, nil
}

// FindAlunoProfile loads display fields from the student record.
func (r *PGRepository) FindAlunoProfile(ctx context.Context, cpf string) (*Profile, error) {
	return r.profileQuery(ctx, `SELECT id, nome, sobrenome, COALESCE(email, ''), COALESCE(foto_url, '')
FROM alunos WHERE cpf = $1`, cpf)
}

// FindProfessorProfile loads display fields from the staff record.
func (r *PGRepository) FindProfessorProfile(ctx context.Context, cpf string) (*Profile, error) {
	return r.profileQuery(ctx, `SELECT id, nome, sobrenome, COALESCE(email, ''), COALESCE(foto_url, '')
FROM professores WHERE cpf = $1`, cpf)
}

func (r *PGRepository) profileQuery(ctx context.Context, query, cpf string) (*Profile, error) {
	var profile Profile
	if err := r.pool.QueryRow(ctx, query, cpf).Scan(&profile.ID, &profile.Nome, &profile.Sobrenome, &profile.Email, &profile.FotoURL); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// CreateSession persists a new login session in the database for auditing.
func (r *PGRepository) CreateSession(ctx context.Context, id, cpf string, expiresAt time.Time, ip, ua string) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO sessoes (id, cpf, created_at, expires_at, ip, ua)
VALUES ($1, $2, NOW(), $3, NULLIF($4, ''), NULLIF($5, ''))`, id, cpf, expiresAt.UTC(), ip, ua)
	return err
}

// DeleteSession removes a session record from the database.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessoes WHERE id = $1`, id)
	return err
}

var _ Repository = (*PGRepository)(nil)
