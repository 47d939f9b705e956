// Package mailer renders activation emails and hands them to an email
// provider.
package mailer

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by a sender missing its credentials or
// endpoint.
var ErrNotConfigured = errors.New("mailer: sender not configured")

// Email is a rendered message ready for delivery.
type Email struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers an email. A nil error means the provider accepted it.
type Sender interface {
	Send(ctx context.Context, e Email) error
}
