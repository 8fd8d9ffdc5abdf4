package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/smtp"
	"strconv"

	"github.com/hibiken/asynq"
)

// Mailer delivers queued mail through a plain SMTP relay (Mailpit in
// development).
type Mailer struct {
	host   string
	port   int
	from   string
	logger *slog.Logger
}

// NewMailer builds Mailer instance.
func NewMailer(host string, port int, from string, logger *slog.Logger) *Mailer {
	return &Mailer{host: host, port: port, from: from, logger: logger}
}

// HandleSendEmail processes TaskTypeSendEmail tasks.
func (m *Mailer) HandleSendEmail(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.To == "" {
		return asynq.SkipRetry
	}

	msg := []byte("From: " + m.from + "\r\n" +
		"To: " + payload.To + "\r\n" +
		"Subject: " + payload.Subject + "\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" + payload.Body)
	addr := m.host + ":" + strconv.Itoa(m.port)
	if err := smtp.SendMail(addr, nil, m.from, []string{payload.To}, msg); err != nil {
		return fmt.Errorf("jobs: send mail to %s: %w", payload.To, err)
	}
	m.logger.Info("mail sent", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	return nil
}
