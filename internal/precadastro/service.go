package precadastro

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/escolaweb/escolaweb/internal/alunos"
	"github.com/escolaweb/escolaweb/internal/shared"
)

// ErrAlreadyReviewed is returned when a decision targets a request that is
// no longer pending.
var ErrAlreadyReviewed = errors.New("precadastro already reviewed")

// Reviewer persists the review trail. Satisfied by shared.ReviewRecorder.
type Reviewer interface {
	Record(ctx context.Context, entry shared.ReviewLog) error
}

// DecisionMailer queues decision notifications: the welcome message with the
// first-login password on approval, the rejection notice otherwise.
// Satisfied by the jobs client; nil disables mailing.
type DecisionMailer interface {
	EnqueueWelcome(ctx context.Context, email, nome, matricula, senha string) error
	EnqueueRejeicao(ctx context.Context, email, nome, parecer string) error
}

// Service handles pre-enrollment business logic.
type Service struct {
	logger   *slog.Logger
	repo     Repository
	reviewer Reviewer
	mailer   DecisionMailer
}

// NewService builds Service instance.
func NewService(logger *slog.Logger, repo Repository, reviewer Reviewer, mailer DecisionMailer) *Service {
	return &Service{logger: logger, repo: repo, reviewer: reviewer, mailer: mailer}
}

// Submit files a public enrollment request.
func (s *Service) Submit(ctx context.Context, pc PreCadastro) (PreCadastro, error) {
	if pc.Nome == "" || pc.CPF == "" {
		return PreCadastro{}, errors.New("precadastro requires nome and cpf")
	}

	created, err := s.repo.Create(ctx, pc)
	if err != nil {
		return PreCadastro{}, err
	}
	if err := s.reviewer.Record(ctx, shared.ReviewLog{Module: ReviewModule, RefID: created.ID, Action: shared.ReviewSubmit}); err != nil {
		s.logger.Warn("record precadastro submit failed", slog.Any("error", err), slog.Int64("precadastro_id", created.ID))
	}
	return created, nil
}

// Get returns one request by id.
func (s *Service) Get(ctx context.Context, id int64) (PreCadastro, error) {
	return s.repo.Get(ctx, id)
}

// ListPendentes returns the review queue, oldest first.
func (s *Service) ListPendentes(ctx context.Context) ([]PreCadastro, error) {
	return s.repo.ListPendentes(ctx)
}

// Approve promotes a pending request into a student with a login account.
// The generated first password is mailed and never stored in clear.
func (s *Service) Approve(ctx context.Context, id int64, revisorCPF, parecer string) (int64, error) {
	pc, err := s.repo.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	if pc.Status != StatusPendente {
		return 0, fmt.Errorf("%w: %s", ErrAlreadyReviewed, pc.Status)
	}

	matricula := alunos.NewMatricula(time.Now())
	senha := firstPassword()
	hash, err := bcrypt.GenerateFromPassword([]byte(senha), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash first password: %w", err)
	}

	alunoID, err := s.repo.Approve(ctx, pc, matricula, string(hash), revisorCPF, parecer)
	if err != nil {
		return 0, err
	}

	if err := s.reviewer.Record(ctx, shared.ReviewLog{Module: ReviewModule, RefID: id, ActorCPF: revisorCPF, Action: shared.ReviewApprove, Note: parecer}); err != nil {
		s.logger.Warn("record precadastro approval failed", slog.Any("error", err), slog.Int64("precadastro_id", id))
	}
	if s.mailer != nil && pc.Email != "" {
		if err := s.mailer.EnqueueWelcome(ctx, pc.Email, pc.Nome, matricula, senha); err != nil {
			s.logger.Warn("enqueue welcome mail failed", slog.Any("error", err), slog.Int64("precadastro_id", id))
		}
	}
	return alunoID, nil
}

// Reject declines a pending request.
func (s *Service) Reject(ctx context.Context, id int64, revisorCPF, parecer string) error {
	pc, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if pc.Status != StatusPendente {
		return fmt.Errorf("%w: %s", ErrAlreadyReviewed, pc.Status)
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusRejeitado, revisorCPF, parecer); err != nil {
		return err
	}
	if err := s.reviewer.Record(ctx, shared.ReviewLog{Module: ReviewModule, RefID: id, ActorCPF: revisorCPF, Action: shared.ReviewReject, Note: parecer}); err != nil {
		s.logger.Warn("record precadastro rejection failed", slog.Any("error", err), slog.Int64("precadastro_id", id))
	}
	if s.mailer != nil && pc.Email != "" {
		if err := s.mailer.EnqueueRejeicao(ctx, pc.Email, pc.Nome, parecer); err != nil {
			s.logger.Warn("enqueue rejection mail failed", slog.Any("error", err), slog.Int64("precadastro_id", id))
		}
	}
	return nil
}

// firstPassword generates the one-time password mailed on approval.
func firstPassword() string {
	return uuid.NewString()[:8]
}
