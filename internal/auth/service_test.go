package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/escolaweb/escolaweb/internal/auth"
	"github.com/escolaweb/escolaweb/internal/roles"
	"github.com/escolaweb/escolaweb/internal/shared"
)

type stubRepo struct {
	account    *auth.Account
	aluno      *auth.Profile
	professor  *auth.Profile
	sessionLog []string
}

func (s *stubRepo) FindAccountByCPF(ctx context.Context, cpf string) (*auth.Account, error) {
	if s.account == nil || s.account.CPF != cpf {
		return nil, shared.ErrNotFound
	}
	return s.account, nil
}

func (s *stubRepo) FindAlunoProfile(ctx context.Context, cpf string) (*auth.Profile, error) {
	if s.aluno == nil {
		return nil, shared.ErrNotFound
	}
	return s.aluno, nil
}

func (s *stubRepo) FindProfessorProfile(ctx context.Context, cpf string) (*auth.Profile, error) {
	if s.professor == nil {
		return nil, shared.ErrNotFound
	}
	return s.professor, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id, cpf string, expiresAt time.Time, ip, ua string) error {
	s.sessionLog = append(s.sessionLog, id)
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	return nil
}

func hash(t *testing.T, senha string) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(senha), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hashed)
}

func professorAccount(t *testing.T) *auth.Account {
	return &auth.Account{
		CPF:          "12345678901",
		PasswordHash: hash(t, "segredo1"),
		Role:         roles.Professor,
		Ativo:        true,
	}
}

func TestLoginActingAboveStoredRoleFails(t *testing.T) {
	repo := &stubRepo{
		account:   professorAccount(t),
		professor: &auth.Profile{Nome: "Marcos"},
		aluno:     &auth.Profile{Nome: "Marcos"},
	}
	svc := auth.NewService(repo, nil, auth.Profile{})

	_, err := svc.Login(context.Background(), "12345678901", "segredo1", roles.Admin)
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "12345678901", "segredo1", roles.Coordenador)
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginActingBelowStoredRoleSucceeds(t *testing.T) {
	repo := &stubRepo{
		account:   professorAccount(t),
		professor: &auth.Profile{Nome: "Marcos"},
		aluno:     &auth.Profile{Nome: "Marcos", Sobrenome: "Lima"},
	}
	svc := auth.NewService(repo, nil, auth.Profile{})

	principal, err := svc.Login(context.Background(), "12345678901", "segredo1", roles.Aluno)
	require.NoError(t, err)
	require.Equal(t, roles.Professor, principal.ActualRole)
	require.Equal(t, roles.Aluno, principal.ActingRole)
	require.Equal(t, "Lima", principal.Profile.Sobrenome)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	repo := &stubRepo{account: professorAccount(t), professor: &auth.Profile{Nome: "Marcos"}}
	svc := auth.NewService(repo, nil, auth.Profile{})
	ctx := context.Background()

	_, unknownAccount := svc.Login(ctx, "00000000000", "segredo1", roles.Professor)
	_, wrongPassword := svc.Login(ctx, "12345678901", "errada99", roles.Professor)
	_, tooHighRole := svc.Login(ctx, "12345678901", "segredo1", roles.Admin)
	_, noProfile := svc.Login(ctx, "12345678901", "segredo1", roles.Aluno)

	for _, err := range []error{unknownAccount, wrongPassword, tooHighRole, noProfile} {
		require.ErrorIs(t, err, shared.ErrInvalidCredentials)
	}
}

func TestLoginInactiveAccountFails(t *testing.T) {
	account := professorAccount(t)
	account.Ativo = false
	repo := &stubRepo{account: account, professor: &auth.Profile{Nome: "Marcos"}}
	svc := auth.NewService(repo, nil, auth.Profile{})

	_, err := svc.Login(context.Background(), "12345678901", "segredo1", roles.Professor)
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAdminProfileFallback(t *testing.T) {
	repo := &stubRepo{
		account: &auth.Account{
			CPF:          "98765432100",
			PasswordHash: hash(t, "segredo1"),
			Role:         roles.Admin,
			Ativo:        true,
		},
	}
	svc := auth.NewService(repo, nil, auth.Profile{Nome: "Administrador", Email: "admin@escola.local"})

	principal, err := svc.Login(context.Background(), "98765432100", "segredo1", roles.Admin)
	require.NoError(t, err)
	require.Equal(t, "Administrador", principal.Profile.Nome)
	require.Equal(t, "admin@escola.local", principal.Profile.Email)

	// With a staff record present the staff profile wins over the fallback.
	repo.professor = &auth.Profile{Nome: "Dona Diretora"}
	principal, err = svc.Login(context.Background(), "98765432100", "segredo1", roles.Admin)
	require.NoError(t, err)
	require.Equal(t, "Dona Diretora", principal.Profile.Nome)
}

func TestAdminActingAsCoordenador(t *testing.T) {
	repo := &stubRepo{
		account: &auth.Account{
			CPF:          "98765432100",
			PasswordHash: hash(t, "segredo1"),
			Role:         roles.Admin,
			Ativo:        true,
		},
		professor: &auth.Profile{Nome: "Dona Diretora"},
	}
	svc := auth.NewService(repo, nil, auth.Profile{})

	principal, err := svc.Login(context.Background(), "98765432100", "segredo1", roles.Coordenador)
	require.NoError(t, err)
	require.Equal(t, roles.Admin, principal.ActualRole)
	require.Equal(t, roles.Coordenador, principal.ActingRole)

	claims := auth.SessionClaims(principal)
	require.True(t, claims.Authenticated())
	require.True(t, roles.HasPermission(claims.ActingRole, roles.Professor))
	require.False(t, roles.HasPermission(claims.ActingRole, roles.Admin))
}
