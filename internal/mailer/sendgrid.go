package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type sendgridClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridSender delivers through the SendGrid v3 mail API.
type SendGridSender struct {
	client   sendgridClient
	fromName string
	from     string
	sandbox  bool
}

// NewSendGridSender returns a sender for apiKey. With sandbox set SendGrid
// validates requests without delivering them.
func NewSendGridSender(apiKey, fromName, from string, sandbox bool) *SendGridSender {
	s := &SendGridSender{fromName: fromName, from: from, sandbox: sandbox}
	if strings.TrimSpace(apiKey) != "" {
		s.client = sendgrid.NewSendClient(apiKey)
	}
	return s
}

func (s *SendGridSender) Send(ctx context.Context, e Email) error {
	if s.client == nil || s.from == "" {
		return ErrNotConfigured
	}

	msg := mail.NewSingleEmail(
		mail.NewEmail(s.fromName, s.from),
		e.Subject,
		mail.NewEmail("", e.To),
		e.Text,
		e.HTML,
	)
	if s.sandbox {
		ms := mail.NewMailSettings()
		ms.SetSandboxMode(mail.NewSetting(true))
		msg.MailSettings = ms
	}

	resp, err := s.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
