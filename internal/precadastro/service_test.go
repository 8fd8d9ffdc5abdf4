package precadastro

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/escolaweb/escolaweb/internal/shared"
)

type approvedAccount struct {
	matricula string
	senhaHash string
}

type memoryRepo struct {
	nextID   int64
	byID     map[int64]PreCadastro
	accounts map[int64]approvedAccount
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, byID: make(map[int64]PreCadastro), accounts: make(map[int64]approvedAccount)}
}

func (r *memoryRepo) Create(_ context.Context, pc PreCadastro) (PreCadastro, error) {
	pc.ID = r.nextID
	pc.Status = StatusPendente
	pc.CreatedAt = time.Now()
	r.nextID++
	r.byID[pc.ID] = pc
	return pc, nil
}

func (r *memoryRepo) Get(_ context.Context, id int64) (PreCadastro, error) {
	pc, ok := r.byID[id]
	if !ok {
		return PreCadastro{}, shared.ErrNotFound
	}
	return pc, nil
}

func (r *memoryRepo) ListPendentes(_ context.Context) ([]PreCadastro, error) {
	var out []PreCadastro
	for _, pc := range r.byID {
		if pc.Status == StatusPendente {
			out = append(out, pc)
		}
	}
	return out, nil
}

func (r *memoryRepo) UpdateStatus(_ context.Context, id int64, status, revisorCPF, parecer string) error {
	pc, ok := r.byID[id]
	if !ok {
		return shared.ErrNotFound
	}
	pc.Status = status
	pc.RevisorCPF = revisorCPF
	pc.Parecer = parecer
	r.byID[id] = pc
	return nil
}

func (r *memoryRepo) Approve(_ context.Context, pc PreCadastro, matricula, senhaHash, revisorCPF, parecer string) (int64, error) {
	cur, ok := r.byID[pc.ID]
	if !ok || cur.Status != StatusPendente {
		return 0, shared.ErrNotFound
	}
	cur.Status = StatusAprovado
	cur.RevisorCPF = revisorCPF
	cur.Parecer = parecer
	r.byID[pc.ID] = cur
	alunoID := pc.ID + 100
	r.accounts[alunoID] = approvedAccount{matricula: matricula, senhaHash: senhaHash}
	return alunoID, nil
}

type reviewLogSpy struct {
	entries []shared.ReviewLog
}

func (s *reviewLogSpy) Record(_ context.Context, entry shared.ReviewLog) error {
	s.entries = append(s.entries, entry)
	return nil
}

type mailSpy struct {
	email, nome, matricula, senha string
	calls                         int
	rejections                    int
	rejectionParecer              string
}

func (s *mailSpy) EnqueueWelcome(_ context.Context, email, nome, matricula, senha string) error {
	s.email, s.nome, s.matricula, s.senha = email, nome, matricula, senha
	s.calls++
	return nil
}

func (s *mailSpy) EnqueueRejeicao(_ context.Context, email, nome, parecer string) error {
	s.email, s.nome = email, nome
	s.rejectionParecer = parecer
	s.rejections++
	return nil
}

func testService(t *testing.T) (*Service, *memoryRepo, *reviewLogSpy, *mailSpy) {
	t.Helper()
	repo := newMemoryRepo()
	review := &reviewLogSpy{}
	mail := &mailSpy{}
	return NewService(slog.Default(), repo, review, mail), repo, review, mail
}

func TestApproveCreatesAccountAndMailsPassword(t *testing.T) {
	svc, repo, review, mail := testService(t)

	pc, err := svc.Submit(context.Background(), PreCadastro{Nome: "Paula", Sobrenome: "Souza", CPF: "12345678901", Email: "paula@example.com", Turma: "1B"})
	require.NoError(t, err)

	alunoID, err := svc.Approve(context.Background(), pc.ID, "99988877766", "Documentação ok")
	require.NoError(t, err)
	require.NotZero(t, alunoID)

	account := repo.accounts[alunoID]
	assert.Len(t, account.matricula, 12)
	assert.NotEmpty(t, account.senhaHash)

	require.Equal(t, 1, mail.calls)
	assert.Equal(t, "paula@example.com", mail.email)
	assert.Equal(t, account.matricula, mail.matricula)
	assert.NotEqual(t, mail.senha, account.senhaHash, "mailed password must not be the stored hash")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(account.senhaHash), []byte(mail.senha)))

	require.Len(t, review.entries, 2)
	assert.Equal(t, shared.ReviewApprove, review.entries[1].Action)
	assert.Equal(t, "99988877766", review.entries[1].ActorCPF)
}

func TestApproveWithoutEmailSkipsMail(t *testing.T) {
	svc, _, _, mail := testService(t)

	pc, err := svc.Submit(context.Background(), PreCadastro{Nome: "Rui", CPF: "12345678901"})
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), pc.ID, "99988877766", "")
	require.NoError(t, err)
	assert.Zero(t, mail.calls)
}

func TestRejectLeavesNoAccount(t *testing.T) {
	svc, repo, review, mail := testService(t)

	pc, err := svc.Submit(context.Background(), PreCadastro{Nome: "Rui", CPF: "12345678901", Email: "rui@example.com"})
	require.NoError(t, err)

	require.NoError(t, svc.Reject(context.Background(), pc.ID, "99988877766", "Dados inconsistentes"))

	got, err := svc.Get(context.Background(), pc.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejeitado, got.Status)
	assert.Empty(t, repo.accounts)
	require.Len(t, review.entries, 2)
	assert.Equal(t, shared.ReviewReject, review.entries[1].Action)

	assert.Zero(t, mail.calls)
	require.Equal(t, 1, mail.rejections)
	assert.Equal(t, "rui@example.com", mail.email)
	assert.Equal(t, "Dados inconsistentes", mail.rejectionParecer)
}

func TestDecisionIsFinal(t *testing.T) {
	svc, _, _, _ := testService(t)

	pc, err := svc.Submit(context.Background(), PreCadastro{Nome: "Rui", CPF: "12345678901"})
	require.NoError(t, err)
	require.NoError(t, svc.Reject(context.Background(), pc.ID, "99988877766", ""))

	_, err = svc.Approve(context.Background(), pc.ID, "99988877766", "")
	assert.ErrorIs(t, err, ErrAlreadyReviewed)

	err = svc.Reject(context.Background(), pc.ID, "99988877766", "")
	assert.ErrorIs(t, err, ErrAlreadyReviewed)
}

func TestSubmitRequiresNomeAndCPF(t *testing.T) {
	svc, _, _, _ := testService(t)

	_, err := svc.Submit(context.Background(), PreCadastro{Nome: "Sem CPF"})
	assert.Error(t, err)
}
