package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeExpireAtestados is the task type for the nightly sweep that
	// expires atestados left pending too long.
	TaskTypeExpireAtestados = "atestados:expire"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NewExpireAtestadosTask constructs the expiry sweep task. It carries no
// payload; the cutoff comes from worker configuration.
func NewExpireAtestadosTask() *asynq.Task {
	return asynq.NewTask(TaskTypeExpireAtestados, nil)
}

// RejectionEmail builds the message sent when a pre-enrollment is declined.
func RejectionEmail(email, nome, parecer string) SendEmailPayload {
	body := fmt.Sprintf("Olá %s,\n\nSua solicitação de matrícula não foi aprovada.", nome)
	if parecer != "" {
		body += "\n\nParecer da coordenação: " + parecer
	}
	return SendEmailPayload{
		To:      email,
		Subject: "Solicitação de matrícula não aprovada",
		Body:    body,
	}
}

// WelcomeEmail builds the message sent when a pre-enrollment is approved.
func WelcomeEmail(email, nome, matricula, senha string) SendEmailPayload {
	return SendEmailPayload{
		To:      email,
		Subject: "Matrícula aprovada",
		Body: fmt.Sprintf("Olá %s,\n\nSua matrícula foi aprovada.\n\nMatrícula: %s\nSenha de primeiro acesso: %s\n\nAltere a senha após o primeiro login.",
			nome, matricula, senha),
	}
}
