package atestados

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/escolaweb/escolaweb/internal/shared"
)

// ErrAlreadyReviewed is returned when a decision targets an atestado that
// is no longer pending.
var ErrAlreadyReviewed = errors.New("atestado already reviewed")

// Reviewer persists and reads back the review trail. Satisfied by
// shared.ReviewRecorder.
type Reviewer interface {
	Record(ctx context.Context, entry shared.ReviewLog) error
	List(ctx context.Context, module string, ref int64) ([]shared.ReviewLog, error)
}

// AbsenceExcuser excuses a student's recorded absences over a date range.
// Satisfied by the aulas service; nil disables excusing.
type AbsenceExcuser interface {
	ExcusarFaltas(ctx context.Context, alunoID int64, inicio, fim time.Time) (int64, error)
}

// Service handles medical-leave business logic.
type Service struct {
	logger   *slog.Logger
	repo     Repository
	reviewer Reviewer
	excuser  AbsenceExcuser
}

// NewService builds Service instance.
func NewService(logger *slog.Logger, repo Repository, reviewer Reviewer, excuser AbsenceExcuser) *Service {
	return &Service{logger: logger, repo: repo, reviewer: reviewer, excuser: excuser}
}

// Submit files a new atestado for review. The attachment must already be
// stored; ArquivoURL carries its public path.
func (s *Service) Submit(ctx context.Context, atestado Atestado) (Atestado, error) {
	if atestado.AlunoID <= 0 {
		return Atestado{}, errors.New("atestado requires an aluno")
	}
	if atestado.ArquivoURL == "" {
		return Atestado{}, errors.New("atestado requires an attached file")
	}
	if atestado.Fim.Before(atestado.Inicio) {
		return Atestado{}, fmt.Errorf("fim %s before inicio %s", atestado.Fim.Format("2006-01-02"), atestado.Inicio.Format("2006-01-02"))
	}

	created, err := s.repo.Create(ctx, atestado)
	if err != nil {
		return Atestado{}, err
	}
	if err := s.reviewer.Record(ctx, shared.ReviewLog{Module: ReviewModule, RefID: created.ID, Action: shared.ReviewSubmit, Note: atestado.Motivo}); err != nil {
		s.logger.Warn("record atestado submit failed", slog.Any("error", err), slog.Int64("atestado_id", created.ID))
	}
	return created, nil
}

// Get returns one atestado by id.
func (s *Service) Get(ctx context.Context, id int64) (Atestado, error) {
	return s.repo.Get(ctx, id)
}

// ListByAluno returns a student's atestados, newest first.
func (s *Service) ListByAluno(ctx context.Context, alunoID int64) ([]Atestado, error) {
	return s.repo.ListByAluno(ctx, alunoID)
}

// ListPendentes returns the review queue, oldest first.
func (s *Service) ListPendentes(ctx context.Context) ([]Atestado, error) {
	return s.repo.ListPendentes(ctx)
}

// AttachmentOwner resolves which aluno owns the attachment served under
// publicPath. The uploads route uses it to keep attachments private.
func (s *Service) AttachmentOwner(ctx context.Context, publicPath string) (int64, error) {
	return s.repo.OwnerByArquivoURL(ctx, publicPath)
}

// Historico returns the review trail of one atestado in chronological order.
func (s *Service) Historico(ctx context.Context, id int64) ([]shared.ReviewLog, error) {
	return s.reviewer.List(ctx, ReviewModule, id)
}

// Approve accepts a pending atestado and excuses the absences its period
// covers.
func (s *Service) Approve(ctx context.Context, id int64, revisorCPF, parecer string) error {
	if err := s.decide(ctx, id, StatusAprovado, shared.ReviewApprove, revisorCPF, parecer); err != nil {
		return err
	}
	if s.excuser != nil {
		atestado, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		excused, err := s.excuser.ExcusarFaltas(ctx, atestado.AlunoID, atestado.Inicio, atestado.Fim)
		if err != nil {
			s.logger.Warn("excuse absences failed", slog.Any("error", err), slog.Int64("atestado_id", id))
		} else if excused > 0 {
			s.logger.Info("absences excused", slog.Int64("atestado_id", id), slog.Int64("count", excused))
		}
	}
	return nil
}

// Reject declines a pending atestado.
func (s *Service) Reject(ctx context.Context, id int64, revisorCPF, parecer string) error {
	return s.decide(ctx, id, StatusRejeitado, shared.ReviewReject, revisorCPF, parecer)
}

func (s *Service) decide(ctx context.Context, id int64, status string, action shared.ReviewAction, revisorCPF, parecer string) error {
	atestado, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if atestado.Status != StatusPendente {
		return fmt.Errorf("%w: %s", ErrAlreadyReviewed, atestado.Status)
	}
	if err := s.repo.UpdateStatus(ctx, id, status, revisorCPF, parecer); err != nil {
		return err
	}
	if err := s.reviewer.Record(ctx, shared.ReviewLog{Module: ReviewModule, RefID: id, ActorCPF: revisorCPF, Action: action, Note: parecer}); err != nil {
		s.logger.Warn("record atestado decision failed", slog.Any("error", err), slog.Int64("atestado_id", id))
	}
	return nil
}

// ExpirePendentes marks as expired every atestado pending for longer than
// maxAge. The expiry job invokes this on a schedule.
func (s *Service) ExpirePendentes(ctx context.Context, maxAge time.Duration) (int64, error) {
	return s.repo.ExpirePendentes(ctx, time.Now().Add(-maxAge))
}
