package alunos

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escolaweb/escolaweb/internal/shared"
)

type stubRepo struct {
	nextID int64
	byID   map[int64]Aluno
}

func newStubRepo() *stubRepo {
	return &stubRepo{nextID: 1, byID: make(map[int64]Aluno)}
}

func (r *stubRepo) List(_ context.Context, search string, page, perPage int) ([]Aluno, int, error) {
	var out []Aluno
	for _, a := range r.byID {
		if search == "" || strings.Contains(strings.ToLower(a.Nome), strings.ToLower(search)) {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func (r *stubRepo) Get(_ context.Context, id int64) (Aluno, error) {
	a, ok := r.byID[id]
	if !ok {
		return Aluno{}, shared.ErrNotFound
	}
	return a, nil
}

func (r *stubRepo) GetByMatricula(_ context.Context, matricula string) (Aluno, error) {
	for _, a := range r.byID {
		if a.Matricula == matricula {
			return a, nil
		}
	}
	return Aluno{}, shared.ErrNotFound
}

func (r *stubRepo) ListByTurma(_ context.Context, turma string) ([]Aluno, error) {
	var out []Aluno
	for _, a := range r.byID {
		if a.Turma == turma {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *stubRepo) Create(_ context.Context, aluno Aluno) (Aluno, error) {
	aluno.ID = r.nextID
	r.nextID++
	r.byID[aluno.ID] = aluno
	return aluno, nil
}

func (r *stubRepo) Update(_ context.Context, id int64, aluno Aluno) error {
	cur, ok := r.byID[id]
	if !ok {
		return shared.ErrNotFound
	}
	aluno.ID = id
	aluno.Matricula = cur.Matricula
	r.byID[id] = aluno
	return nil
}

func TestCreateGeneratesMatricula(t *testing.T) {
	svc := NewService(newStubRepo())

	created, err := svc.Create(context.Background(), Aluno{Nome: "Maria", Sobrenome: "Silva", CPF: "12345678901", Turma: "3A"})
	require.NoError(t, err)

	assert.Len(t, created.Matricula, 12)

	again, err := svc.GetByMatricula(context.Background(), created.Matricula)
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
}

func TestCreateKeepsGivenMatricula(t *testing.T) {
	svc := NewService(newStubRepo())

	created, err := svc.Create(context.Background(), Aluno{Nome: "João", CPF: "98765432100", Matricula: "2026ABCD"})
	require.NoError(t, err)
	assert.Equal(t, "2026ABCD", created.Matricula)
}

func TestGetRejectsInvalidID(t *testing.T) {
	svc := NewService(newStubRepo())

	_, err := svc.Get(context.Background(), 0)
	assert.Error(t, err)
}

func TestUpdatePreservesMatricula(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), Aluno{Nome: "Ana", CPF: "11122233344", Turma: "2B"})
	require.NoError(t, err)

	err = svc.Update(context.Background(), created.ID, Aluno{Nome: "Ana Clara", CPF: "11122233344", Turma: "2C"})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Clara", got.Nome)
	assert.Equal(t, created.Matricula, got.Matricula)
}

func TestMatriculaEncodesYear(t *testing.T) {
	m := NewMatricula(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, strings.HasPrefix(m, "2026"))
	assert.Len(t, m, 12)
}
