package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/escolaweb/escolaweb/internal/roles"
	"github.com/escolaweb/escolaweb/internal/shared"
)

// Service wraps authentication and impersonation business rules.
type Service struct {
	repo         Repository
	logger       *slog.Logger
	adminProfile Profile
}

// NewService constructs a new Service. adminProfile is the fallback display
// profile used when an Admin acts as Admin without a staff record.
func NewService(repo Repository, logger *slog.Logger, adminProfile Profile) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, adminProfile: adminProfile}
}

// Login validates CPF/password credentials and the requested acting role,
// then resolves the display profile for that role. Every failure branch
// returns shared.ErrInvalidCredentials so callers cannot distinguish them;
// the specific reason is only logged server-side.
func (s *Service) Login(ctx context.Context, cpf, senha string, acting roles.Role) (*Principal, error) {
	account, err := s.repo.FindAccountByCPF(ctx, cpf)
	if err != nil {
		s.logger.Info("login denied", slog.String("reason", "account not found"))
		return nil, shared.ErrInvalidCredentials
	}
	if !account.Ativo {
		s.logger.Info("login denied", slog.String("reason", "account inactive"))
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(senha)); err != nil {
		s.logger.Info("login denied", slog.String("reason", "password mismatch"))
		return nil, shared.ErrInvalidCredentials
	}
	if !roles.HasPermission(account.Role, acting) {
		s.logger.Info("login denied",
			slog.String("reason", "acting role above stored role"),
			slog.String("stored", account.Role.String()),
			slog.String("requested", acting.String()))
		return nil, shared.ErrInvalidCredentials
	}

	profile, err := s.resolveProfile(ctx, cpf, acting)
	if err != nil {
		s.logger.Info("login denied",
			slog.String("reason", "no profile for acting role"),
			slog.String("acting", acting.String()))
		return nil, shared.ErrInvalidCredentials
	}

	return &Principal{
		CPF:        account.CPF,
		ActualRole: account.Role,
		ActingRole: acting,
		Profile:    *profile,
	}, nil
}

// resolveProfile picks the backing record for the acting role. Professor and
// Coordenador share the staff record; Admin falls back to the configured
// admin profile when no staff record exists for the CPF.
func (s *Service) resolveProfile(ctx context.Context, cpf string, acting roles.Role) (*Profile, error) {
	switch acting {
	case roles.Aluno:
		return s.repo.FindAlunoProfile(ctx, cpf)
	case roles.Professor, roles.Coordenador:
		return s.repo.FindProfessorProfile(ctx, cpf)
	case roles.Admin:
		profile, err := s.repo.FindProfessorProfile(ctx, cpf)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				fallback := s.adminProfile
				return &fallback, nil
			}
			return nil, err
		}
		return profile, nil
	default:
		return nil, shared.ErrNotFound
	}
}

// SessionClaims converts a Principal into the claims stored in the session.
func SessionClaims(p *Principal) shared.Claims {
	return shared.Claims{
		CPF:        p.CPF,
		ActualRole: p.ActualRole,
		ActingRole: p.ActingRole,
		ProfileID:  p.Profile.ID,
		Nome:       p.Profile.Nome,
		Sobrenome:  p.Profile.Sobrenome,
		Email:      p.Profile.Email,
		FotoURL:    p.Profile.FotoURL,
	}
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id, cpf string, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, cpf, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}
