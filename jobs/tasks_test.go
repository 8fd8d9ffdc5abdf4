package jobs

import (
	"context"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWelcomeEmailCarriesCredentials(t *testing.T) {
	payload := WelcomeEmail("paula@example.com", "Paula", "2026DEADBEEF", "abc12345")

	assert.Equal(t, "paula@example.com", payload.To)
	assert.Contains(t, payload.Body, "2026DEADBEEF")
	assert.Contains(t, payload.Body, "abc12345")
}

func TestRejectionEmailIncludesParecer(t *testing.T) {
	payload := RejectionEmail("paula@example.com", "Paula", "Documentação incompleta")

	assert.Equal(t, "paula@example.com", payload.To)
	assert.Contains(t, payload.Body, "Documentação incompleta")

	semParecer := RejectionEmail("paula@example.com", "Paula", "")
	assert.NotContains(t, semParecer.Body, "Parecer")
}

func TestMailerSkipsMalformedPayload(t *testing.T) {
	mailer := NewMailer("127.0.0.1", 1025, "no-reply@escola.local", slog.Default())

	err := mailer.HandleSendEmail(context.Background(), asynq.NewTask(TaskTypeSendEmail, []byte("not json")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestMailerSkipsEmptyRecipient(t *testing.T) {
	mailer := NewMailer("127.0.0.1", 1025, "no-reply@escola.local", slog.Default())

	task, err := NewSendEmailTask(SendEmailPayload{Subject: "x", Body: "y"})
	require.NoError(t, err)
	assert.ErrorIs(t, mailer.HandleSendEmail(context.Background(), task), asynq.SkipRetry)
}
