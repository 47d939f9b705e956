package mailer

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophactivate/internal/logging"
)

// FallbackSender tries primary and, when it fails, fallback.
type FallbackSender struct {
	primary  Sender
	fallback Sender
	log      logging.Logger
}

func NewFallbackSender(primary, fallback Sender, log logging.Logger) *FallbackSender {
	return &FallbackSender{primary: primary, fallback: fallback, log: log.With("module", "mailer")}
}

func (s *FallbackSender) Send(ctx context.Context, e Email) error {
	err := s.primary.Send(ctx, e)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return err
	}

	s.log.Warn(ctx, "primary email sender failed, using fallback", "error", err)
	if ferr := s.fallback.Send(ctx, e); ferr != nil {
		return errors.Join(err, ferr)
	}
	return nil
}
