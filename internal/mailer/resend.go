package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/resend/resend-go"
)

type resendEmails interface {
	Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendSender delivers through the Resend API.
type ResendSender struct {
	emails resendEmails
	from   string
}

func NewResendSender(apiKey, from string) *ResendSender {
	s := &ResendSender{from: from}
	if strings.TrimSpace(apiKey) != "" {
		s.emails = resend.NewClient(apiKey).Emails
	}
	return s
}

func (s *ResendSender) Send(ctx context.Context, e Email) error {
	if s.emails == nil || s.from == "" {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.emails.Send(&resend.SendEmailRequest{
		From:    s.from,
		To:      []string{e.To},
		Subject: e.Subject,
		Html:    e.HTML,
		Text:    e.Text,
	})
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}
