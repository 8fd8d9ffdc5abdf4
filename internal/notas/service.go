package notas

import (
	"context"
	"fmt"
	"sort"
)

// Service handles grade business logic.
type Service struct {
	repo Repository
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Lancar records a grade, replacing any previous launch for the same aluno,
// disciplina and bimestre.
func (s *Service) Lancar(ctx context.Context, nota Nota) (Nota, error) {
	if nota.AlunoID <= 0 {
		return Nota{}, fmt.Errorf("nota requires an aluno")
	}
	if nota.Disciplina == "" {
		return Nota{}, fmt.Errorf("nota requires a disciplina")
	}
	if nota.Bimestre < 1 || nota.Bimestre > BimestresPorAno {
		return Nota{}, fmt.Errorf("bimestre out of range: %d", nota.Bimestre)
	}
	if nota.Valor < 0 || nota.Valor > 10 {
		return Nota{}, fmt.Errorf("valor out of range: %.2f", nota.Valor)
	}
	return s.repo.Upsert(ctx, nota)
}

// BoletimLinha aggregates a student's grades for one subject.
type BoletimLinha struct {
	Disciplina string
	// Bimestres holds the grade per term, indexed 0..3; Lancado marks
	// which terms have a launched grade.
	Bimestres [BimestresPorAno]float64
	Lancado   [BimestresPorAno]bool
	Media     float64
	Aprovado  bool
}

// Boletim assembles a student's report card: one line per subject with the
// average over launched terms.
func (s *Service) Boletim(ctx context.Context, alunoID int64) ([]BoletimLinha, error) {
	all, err := s.repo.ListByAluno(ctx, alunoID)
	if err != nil {
		return nil, err
	}

	byDisciplina := make(map[string]*BoletimLinha)
	for _, n := range all {
		linha, ok := byDisciplina[n.Disciplina]
		if !ok {
			linha = &BoletimLinha{Disciplina: n.Disciplina}
			byDisciplina[n.Disciplina] = linha
		}
		idx := n.Bimestre - 1
		linha.Bimestres[idx] = n.Valor
		linha.Lancado[idx] = true
	}

	result := make([]BoletimLinha, 0, len(byDisciplina))
	for _, linha := range byDisciplina {
		var sum float64
		var count int
		for i := 0; i < BimestresPorAno; i++ {
			if linha.Lancado[i] {
				sum += linha.Bimestres[i]
				count++
			}
		}
		if count > 0 {
			linha.Media = sum / float64(count)
		}
		linha.Aprovado = count == BimestresPorAno && linha.Media >= MediaAprovacao
		result = append(result, *linha)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Disciplina < result[j].Disciplina })
	return result, nil
}

// ListByAluno returns a student's raw grade rows.
func (s *Service) ListByAluno(ctx context.Context, alunoID int64) ([]Nota, error) {
	return s.repo.ListByAluno(ctx, alunoID)
}
