package aulas

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/escolaweb/escolaweb/internal/alunos"
)

// Service handles class-session business logic.
type Service struct {
	repo   Repository
	alunos AlunoLookup
}

// AlunoLookup resolves turma rosters for attendance sheets.
type AlunoLookup interface {
	ListByTurma(ctx context.Context, turma string) ([]alunos.Aluno, error)
}

// NewService builds Service instance.
func NewService(repo Repository, lookup AlunoLookup) *Service {
	return &Service{repo: repo, alunos: lookup}
}

// List returns class sessions, optionally filtered by turma.
func (s *Service) List(ctx context.Context, turma string, page, perPage int) ([]Aula, int, error) {
	return s.repo.List(ctx, turma, page, perPage)
}

// ListByProfessor returns the sessions taught by one professor.
func (s *Service) ListByProfessor(ctx context.Context, professorID int64, page, perPage int) ([]Aula, int, error) {
	return s.repo.ListByProfessor(ctx, professorID, page, perPage)
}

// Get returns one class session by id.
func (s *Service) Get(ctx context.Context, id int64) (Aula, error) {
	if id <= 0 {
		return Aula{}, errors.New("invalid aula ID")
	}
	return s.repo.Get(ctx, id)
}

// Create schedules a new class session.
func (s *Service) Create(ctx context.Context, aula Aula) (Aula, error) {
	if aula.ProfessorID <= 0 {
		return Aula{}, errors.New("aula requires a professor")
	}
	if aula.Turma == "" {
		return Aula{}, errors.New("aula requires a turma")
	}
	return s.repo.Create(ctx, aula)
}

// ChamadaEntry pairs a roster student with its recorded attendance when the
// sheet was already filled.
type ChamadaEntry struct {
	Aluno    alunos.Aluno
	Presente bool
	Abonada  bool
	Recorded bool
}

// Chamada builds the attendance sheet for an aula: the full turma roster
// merged with any presencas already recorded.
func (s *Service) Chamada(ctx context.Context, aulaID int64) (Aula, []ChamadaEntry, error) {
	aula, err := s.repo.Get(ctx, aulaID)
	if err != nil {
		return Aula{}, nil, err
	}
	roster, err := s.alunos.ListByTurma(ctx, aula.Turma)
	if err != nil {
		return Aula{}, nil, fmt.Errorf("load turma roster: %w", err)
	}
	recorded, err := s.repo.ListPresencas(ctx, aulaID)
	if err != nil {
		return Aula{}, nil, err
	}

	byAluno := make(map[int64]Presenca, len(recorded))
	for _, p := range recorded {
		byAluno[p.AlunoID] = p
	}

	entries := make([]ChamadaEntry, 0, len(roster))
	for _, a := range roster {
		entry := ChamadaEntry{Aluno: a}
		if p, ok := byAluno[a.ID]; ok {
			entry.Presente = p.Presente
			entry.Abonada = p.Abonada
			entry.Recorded = true
		}
		entries = append(entries, entry)
	}
	return aula, entries, nil
}

// RegistrarPresencas records the class content and the full attendance sheet
// in one atomic step. Every aluno in the sheet must belong to the aula's
// turma; the previous sheet, if any, is replaced.
func (s *Service) RegistrarPresencas(ctx context.Context, aulaID int64, conteudo string, presentes map[int64]bool) error {
	aula, err := s.repo.Get(ctx, aulaID)
	if err != nil {
		return err
	}
	roster, err := s.alunos.ListByTurma(ctx, aula.Turma)
	if err != nil {
		return fmt.Errorf("load turma roster: %w", err)
	}

	recorded, err := s.repo.ListPresencas(ctx, aulaID)
	if err != nil {
		return err
	}
	excused := make(map[int64]bool, len(recorded))
	for _, p := range recorded {
		if p.Abonada {
			excused[p.AlunoID] = true
		}
	}

	inTurma := make(map[int64]bool, len(roster))
	for _, a := range roster {
		inTurma[a.ID] = true
	}
	presencas := make([]Presenca, 0, len(roster))
	for alunoID := range presentes {
		if !inTurma[alunoID] {
			return fmt.Errorf("aluno %d is not in turma %s", alunoID, aula.Turma)
		}
	}
	for _, a := range roster {
		presencas = append(presencas, Presenca{
			AulaID:   aulaID,
			AlunoID:  a.ID,
			Presente: presentes[a.ID],
			// An excused absence stays excused across re-registration as
			// long as the row remains an absence.
			Abonada: excused[a.ID] && !presentes[a.ID],
		})
	}

	return s.repo.RegistrarPresencas(ctx, aulaID, conteudo, presencas)
}

// ExcusarFaltas excuses a student's absences over a date range. Used when a
// medical certificate covering the range is approved.
func (s *Service) ExcusarFaltas(ctx context.Context, alunoID int64, inicio, fim time.Time) (int64, error) {
	if alunoID <= 0 {
		return 0, errors.New("invalid aluno ID")
	}
	if fim.Before(inicio) {
		return 0, errors.New("invalid period")
	}
	return s.repo.ExcusarFaltas(ctx, alunoID, inicio, fim)
}
