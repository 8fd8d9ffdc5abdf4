package atestados

import "time"

// Atestado is a medical-leave certificate submitted by a student and
// reviewed by coordination staff.
type Atestado struct {
	ID         int64
	AlunoID    int64
	Inicio     time.Time
	Fim        time.Time
	Motivo     string
	ArquivoURL string
	Status     string
	RevisorCPF string
	Parecer    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Atestado statuses.
const (
	StatusPendente  = "pendente"
	StatusAprovado  = "aprovado"
	StatusRejeitado = "rejeitado"
	StatusExpirado  = "expirado"
)

// ReviewModule is the workflow name used in the review log.
const ReviewModule = "atestados"
