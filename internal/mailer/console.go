package mailer

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dmitrijs2005/gophactivate/internal/logging"
)

// ConsoleSender prints emails instead of delivering them. It never fails,
// which makes it the last link of a fallback chain in development.
type ConsoleSender struct {
	mu  sync.Mutex
	w   io.Writer
	log logging.Logger
}

func NewConsoleSender(w io.Writer, log logging.Logger) *ConsoleSender {
	return &ConsoleSender{w: w, log: log.With("module", "mailer.console")}
}

func (s *ConsoleSender) Send(ctx context.Context, e Email) error {
	rule := strings.Repeat("=", 60)

	s.mu.Lock()
	fmt.Fprintf(s.w, "\n%s\nEMAIL NOTIFICATION (console mode)\n%s\nTo: %s\nSubject: %s\n\n%s%s\n",
		rule, rule, e.To, e.Subject, e.Text, rule)
	s.mu.Unlock()

	s.log.Info(ctx, "email written to console", "to", e.To)
	return nil
}
