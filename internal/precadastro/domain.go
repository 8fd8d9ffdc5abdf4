package precadastro

import "time"

// PreCadastro is a public enrollment request waiting for coordination
// review. Approval turns it into an aluno record plus a login account.
type PreCadastro struct {
	ID         int64
	Nome       string
	Sobrenome  string
	CPF        string
	Email      string
	Turma      string
	Status     string
	RevisorCPF string
	Parecer    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Pre-enrollment statuses.
const (
	StatusPendente  = "pendente"
	StatusAprovado  = "aprovado"
	StatusRejeitado = "rejeitado"
)

// ReviewModule is the workflow name used in the review log.
const ReviewModule = "precadastro"
