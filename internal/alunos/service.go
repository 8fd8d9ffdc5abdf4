package alunos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service handles student business logic.
type Service struct {
	repo Repository
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns students matching the search filter.
func (s *Service) List(ctx context.Context, search string, page, perPage int) ([]Aluno, int, error) {
	return s.repo.List(ctx, search, page, perPage)
}

// Get returns one student by id.
func (s *Service) Get(ctx context.Context, id int64) (Aluno, error) {
	if id <= 0 {
		return Aluno{}, errors.New("invalid aluno ID")
	}
	return s.repo.Get(ctx, id)
}

// GetByMatricula returns one student by enrollment number.
func (s *Service) GetByMatricula(ctx context.Context, matricula string) (Aluno, error) {
	return s.repo.GetByMatricula(ctx, matricula)
}

// ListByTurma returns a class roster ordered by name.
func (s *Service) ListByTurma(ctx context.Context, turma string) ([]Aluno, error) {
	return s.repo.ListByTurma(ctx, turma)
}

// Create registers a new student, generating a matricula when absent.
func (s *Service) Create(ctx context.Context, aluno Aluno) (Aluno, error) {
	if aluno.Matricula == "" {
		aluno.Matricula = NewMatricula(time.Now())
	}
	return s.repo.Create(ctx, aluno)
}

// Update rewrites a student's editable fields.
func (s *Service) Update(ctx context.Context, id int64, aluno Aluno) error {
	if id <= 0 {
		return errors.New("invalid aluno ID")
	}
	return s.repo.Update(ctx, id, aluno)
}

// NewMatricula builds an enrollment number: the enrollment year followed by
// a random suffix. Uniqueness is enforced by the database constraint.
func NewMatricula(now time.Time) string {
	id := uuid.New()
	return fmt.Sprintf("%d%08X", now.Year(), id.ID())
}
