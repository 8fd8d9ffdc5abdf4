package atestados

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escolaweb/escolaweb/internal/shared"
)

type memoryRepo struct {
	nextID int64
	byID   map[int64]Atestado
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, byID: make(map[int64]Atestado)}
}

func (r *memoryRepo) Create(_ context.Context, atestado Atestado) (Atestado, error) {
	atestado.ID = r.nextID
	atestado.Status = StatusPendente
	atestado.CreatedAt = time.Now()
	r.nextID++
	r.byID[atestado.ID] = atestado
	return atestado, nil
}

func (r *memoryRepo) Get(_ context.Context, id int64) (Atestado, error) {
	a, ok := r.byID[id]
	if !ok {
		return Atestado{}, shared.ErrNotFound
	}
	return a, nil
}

func (r *memoryRepo) ListByAluno(_ context.Context, alunoID int64) ([]Atestado, error) {
	var out []Atestado
	for _, a := range r.byID {
		if a.AlunoID == alunoID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memoryRepo) OwnerByArquivoURL(_ context.Context, arquivoURL string) (int64, error) {
	for _, a := range r.byID {
		if a.ArquivoURL == arquivoURL {
			return a.AlunoID, nil
		}
	}
	return 0, shared.ErrNotFound
}

func (r *memoryRepo) ListPendentes(_ context.Context) ([]Atestado, error) {
	var out []Atestado
	for _, a := range r.byID {
		if a.Status == StatusPendente {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memoryRepo) UpdateStatus(_ context.Context, id int64, status, revisorCPF, parecer string) error {
	a, ok := r.byID[id]
	if !ok {
		return shared.ErrNotFound
	}
	a.Status = status
	a.RevisorCPF = revisorCPF
	a.Parecer = parecer
	r.byID[id] = a
	return nil
}

func (r *memoryRepo) ExpirePendentes(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for id, a := range r.byID {
		if a.Status == StatusPendente && a.CreatedAt.Before(cutoff) {
			a.Status = StatusExpirado
			r.byID[id] = a
			n++
		}
	}
	return n, nil
}

type reviewLogSpy struct {
	entries []shared.ReviewLog
}

func (s *reviewLogSpy) Record(_ context.Context, entry shared.ReviewLog) error {
	s.entries = append(s.entries, entry)
	return nil
}

func (s *reviewLogSpy) List(_ context.Context, module string, ref int64) ([]shared.ReviewLog, error) {
	var out []shared.ReviewLog
	for _, e := range s.entries {
		if e.Module == module && e.RefID == ref {
			out = append(out, e)
		}
	}
	return out, nil
}

type excuserSpy struct {
	alunoID     int64
	inicio, fim time.Time
	calls       int
}

func (s *excuserSpy) ExcusarFaltas(_ context.Context, alunoID int64, inicio, fim time.Time) (int64, error) {
	s.alunoID, s.inicio, s.fim = alunoID, inicio, fim
	s.calls++
	return 2, nil
}

func testService(t *testing.T) (*Service, *memoryRepo, *reviewLogSpy, *excuserSpy) {
	t.Helper()
	repo := newMemoryRepo()
	spy := &reviewLogSpy{}
	excuser := &excuserSpy{}
	return NewService(slog.Default(), repo, spy, excuser), repo, spy, excuser
}

func validAtestado() Atestado {
	return Atestado{
		AlunoID:    7,
		Inicio:     time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		Fim:        time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC),
		Motivo:     "Consulta médica",
		ArquivoURL: "/uploads/abc.pdf",
	}
}

func TestSubmitRecordsReviewTrail(t *testing.T) {
	svc, _, spy, _ := testService(t)

	created, err := svc.Submit(context.Background(), validAtestado())
	require.NoError(t, err)

	assert.Equal(t, StatusPendente, created.Status)
	require.Len(t, spy.entries, 1)
	assert.Equal(t, shared.ReviewSubmit, spy.entries[0].Action)
	assert.Equal(t, created.ID, spy.entries[0].RefID)
}

func TestSubmitRequiresAttachment(t *testing.T) {
	svc, _, _, _ := testService(t)

	a := validAtestado()
	a.ArquivoURL = ""
	_, err := svc.Submit(context.Background(), a)
	assert.Error(t, err)
}

func TestSubmitRejectsInvertedPeriod(t *testing.T) {
	svc, _, _, _ := testService(t)

	a := validAtestado()
	a.Inicio, a.Fim = a.Fim, a.Inicio
	_, err := svc.Submit(context.Background(), a)
	assert.Error(t, err)
}

func TestApproveMovesOutOfQueue(t *testing.T) {
	svc, _, spy, excuser := testService(t)

	created, err := svc.Submit(context.Background(), validAtestado())
	require.NoError(t, err)

	require.NoError(t, svc.Approve(context.Background(), created.ID, "11122233344", "Documento válido"))

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAprovado, got.Status)
	assert.Equal(t, "11122233344", got.RevisorCPF)

	queue, err := svc.ListPendentes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, queue)

	require.Len(t, spy.entries, 2)
	assert.Equal(t, shared.ReviewApprove, spy.entries[1].Action)
	assert.Equal(t, "11122233344", spy.entries[1].ActorCPF)

	require.Equal(t, 1, excuser.calls)
	assert.Equal(t, created.AlunoID, excuser.alunoID)
	assert.Equal(t, created.Inicio, excuser.inicio)
	assert.Equal(t, created.Fim, excuser.fim)
}

func TestRejectDoesNotExcuseAbsences(t *testing.T) {
	svc, _, _, excuser := testService(t)

	created, err := svc.Submit(context.Background(), validAtestado())
	require.NoError(t, err)
	require.NoError(t, svc.Reject(context.Background(), created.ID, "11122233344", "Ilegível"))

	assert.Zero(t, excuser.calls)
}

func TestHistoricoFollowsDecisions(t *testing.T) {
	svc, _, _, _ := testService(t)

	created, err := svc.Submit(context.Background(), validAtestado())
	require.NoError(t, err)
	require.NoError(t, svc.Approve(context.Background(), created.ID, "11122233344", "Documento válido"))

	trail, err := svc.Historico(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, shared.ReviewSubmit, trail[0].Action)
	assert.Equal(t, shared.ReviewApprove, trail[1].Action)
	assert.Equal(t, "Documento válido", trail[1].Note)
}

func TestDecisionIsFinal(t *testing.T) {
	svc, _, _, _ := testService(t)

	created, err := svc.Submit(context.Background(), validAtestado())
	require.NoError(t, err)
	require.NoError(t, svc.Reject(context.Background(), created.ID, "11122233344", "Ilegível"))

	err = svc.Approve(context.Background(), created.ID, "11122233344", "")
	assert.ErrorIs(t, err, ErrAlreadyReviewed)
}

func TestExpirePendentes(t *testing.T) {
	svc, repo, _, _ := testService(t)

	old, err := svc.Submit(context.Background(), validAtestado())
	require.NoError(t, err)
	stale := repo.byID[old.ID]
	stale.CreatedAt = time.Now().Add(-40 * 24 * time.Hour)
	repo.byID[old.ID] = stale

	fresh, err := svc.Submit(context.Background(), validAtestado())
	require.NoError(t, err)

	n, err := svc.ExpirePendentes(context.Background(), 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	gotOld, _ := svc.Get(context.Background(), old.ID)
	gotFresh, _ := svc.Get(context.Background(), fresh.ID)
	assert.Equal(t, StatusExpirado, gotOld.Status)
	assert.Equal(t, StatusPendente, gotFresh.Status)
}
