package professores

import (
	"context"
	"errors"
)

// Service handles staff business logic.
type Service struct {
	repo Repository
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns staff records matching the search filter.
func (s *Service) List(ctx context.Context, search string, page, perPage int) ([]Professor, int, error) {
	return s.repo.List(ctx, search, page, perPage)
}

// Get returns one staff record by id.
func (s *Service) Get(ctx context.Context, id int64) (Professor, error) {
	if id <= 0 {
		return Professor{}, errors.New("invalid professor ID")
	}
	return s.repo.Get(ctx, id)
}

// GetByCPF returns one staff record by CPF.
func (s *Service) GetByCPF(ctx context.Context, cpf string) (Professor, error) {
	return s.repo.GetByCPF(ctx, cpf)
}

// Create registers a new staff member. Cargo defaults to professor.
func (s *Service) Create(ctx context.Context, prof Professor) (Professor, error) {
	if prof.Cargo == "" {
		prof.Cargo = CargoProfessor
	}
	if prof.Cargo != CargoProfessor && prof.Cargo != CargoCoordenador {
		return Professor{}, errors.New("invalid cargo: " + prof.Cargo)
	}
	return s.repo.Create(ctx, prof)
}

// Update rewrites a staff member's editable fields.
func (s *Service) Update(ctx context.Context, id int64, prof Professor) error {
	if id <= 0 {
		return errors.New("invalid professor ID")
	}
	if prof.Cargo != CargoProfessor && prof.Cargo != CargoCoordenador {
		return errors.New("invalid cargo: " + prof.Cargo)
	}
	return s.repo.Update(ctx, id, prof)
}
