package notas

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	nextID int64
	rows   []Nota
}

func (r *memoryRepo) ListByAluno(_ context.Context, alunoID int64) ([]Nota, error) {
	var out []Nota
	for _, n := range r.rows {
		if n.AlunoID == alunoID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *memoryRepo) Upsert(_ context.Context, nota Nota) (Nota, error) {
	for i, existing := range r.rows {
		if existing.AlunoID == nota.AlunoID && existing.Disciplina == nota.Disciplina && existing.Bimestre == nota.Bimestre {
			nota.ID = existing.ID
			r.rows[i] = nota
			return nota, nil
		}
	}
	r.nextID++
	nota.ID = r.nextID
	r.rows = append(r.rows, nota)
	return nota, nil
}

func TestLancarValidatesRanges(t *testing.T) {
	svc := NewService(&memoryRepo{})

	cases := []struct {
		name string
		nota Nota
	}{
		{"missing aluno", Nota{Disciplina: "Matemática", Bimestre: 1, Valor: 7}},
		{"missing disciplina", Nota{AlunoID: 1, Bimestre: 1, Valor: 7}},
		{"bimestre zero", Nota{AlunoID: 1, Disciplina: "Matemática", Bimestre: 0, Valor: 7}},
		{"bimestre five", Nota{AlunoID: 1, Disciplina: "Matemática", Bimestre: 5, Valor: 7}},
		{"valor negative", Nota{AlunoID: 1, Disciplina: "Matemática", Bimestre: 1, Valor: -1}},
		{"valor above ten", Nota{AlunoID: 1, Disciplina: "Matemática", Bimestre: 1, Valor: 10.5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Lancar(context.Background(), tc.nota)
			assert.Error(t, err)
		})
	}
}

func TestLancarReplacesSameBimestre(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo)

	_, err := svc.Lancar(context.Background(), Nota{AlunoID: 1, ProfessorID: 9, Disciplina: "Matemática", Bimestre: 1, Valor: 5})
	require.NoError(t, err)
	_, err = svc.Lancar(context.Background(), Nota{AlunoID: 1, ProfessorID: 9, Disciplina: "Matemática", Bimestre: 1, Valor: 8})
	require.NoError(t, err)

	rows, err := svc.ListByAluno(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 8.0, rows[0].Valor)
}

func TestBoletimComputesMediaAndApproval(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo)

	launch := func(disciplina string, bimestre int, valor float64) {
		t.Helper()
		_, err := svc.Lancar(context.Background(), Nota{AlunoID: 1, ProfessorID: 9, Disciplina: disciplina, Bimestre: bimestre, Valor: valor})
		require.NoError(t, err)
	}
	for b, v := range []float64{8, 7, 6, 9} {
		launch("História", b+1, v)
	}
	for b, v := range []float64{5, 4, 6, 5} {
		launch("Matemática", b+1, v)
	}
	launch("Geografia", 1, 10)

	linhas, err := svc.Boletim(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, linhas, 3)

	assert.Equal(t, "Geografia", linhas[0].Disciplina)
	assert.Equal(t, 10.0, linhas[0].Media)
	assert.False(t, linhas[0].Aprovado, "partial year is never approved")

	assert.Equal(t, "História", linhas[1].Disciplina)
	assert.InDelta(t, 7.5, linhas[1].Media, 0.001)
	assert.True(t, linhas[1].Aprovado)

	assert.Equal(t, "Matemática", linhas[2].Disciplina)
	assert.InDelta(t, 5.0, linhas[2].Media, 0.001)
	assert.False(t, linhas[2].Aprovado)
}

func TestBoletimEmptyStudent(t *testing.T) {
	svc := NewService(&memoryRepo{})
	linhas, err := svc.Boletim(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, linhas)
}
