// Package consumer drains the notification queue and delivers activation
// emails.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophactivate/internal/common"
	"github.com/dmitrijs2005/gophactivate/internal/logging"
	"github.com/dmitrijs2005/gophactivate/internal/mailer"
	"github.com/dmitrijs2005/gophactivate/internal/notification"
	"github.com/dmitrijs2005/gophactivate/internal/queue"
	"github.com/dmitrijs2005/gophactivate/internal/timex"
)

const defaultSubject = "Your Activation Code"

// clockSkew is how far the server clock that stamped a notice may run
// ahead of ours before a code counts as expired here.
const clockSkew = 5 * time.Second

// ErrSubscriptionClosed is returned by Run when the broker closes the
// delivery stream while the consumer is still meant to be running.
var ErrSubscriptionClosed = errors.New("consumer: subscription closed")

// Consumer turns queued notices into emails. A message is acked only after
// the email went out; redelivery is harmless because the code in it stays
// the same.
type Consumer struct {
	sub        queue.Subscriber
	sender     mailer.Sender
	clock      timex.Clock
	skew       time.Duration
	defaultTTL time.Duration
	log        logging.Logger
}

// New builds a Consumer. defaultTTL is quoted in emails whose notice does
// not say when it was issued.
func New(sub queue.Subscriber, sender mailer.Sender, clock timex.Clock, defaultTTL time.Duration, log logging.Logger) *Consumer {
	if defaultTTL <= 0 {
		defaultTTL = common.DefaultCodeTTL
	}
	return &Consumer{
		sub:        sub,
		sender:     sender,
		clock:      clock,
		skew:       clockSkew,
		defaultTTL: defaultTTL,
		log:        log.With("module", "consumer"),
	}
}

// Run handles deliveries one at a time until ctx is done.
func (c *Consumer) Run(ctx context.Context) error {
	deliveries, err := c.sub.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	c.log.Info(ctx, "waiting for notifications")

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return ErrSubscriptionClosed
			}
			c.Handle(ctx, d)
		}
	}
}

// Handle settles a single delivery:
//
//   - malformed payload: dropped
//   - unknown type: acked with a warning
//   - expired code (beyond the clock skew allowance): acked without sending
//   - send failure: requeued once, dropped when already redelivered
func (c *Consumer) Handle(ctx context.Context, d queue.Delivery) {
	msg, err := notification.Decode(d.Body)
	if err != nil {
		c.log.Error(ctx, "dropping malformed notification", "error", err)
		c.settle(ctx, d.Nack(false))
		return
	}

	log := c.log.With("type", msg.Type, "user_id", msg.UserID)

	if msg.Type != notification.TypeActivationCode {
		log.Warn(ctx, "unknown notification type, skipping")
		c.settle(ctx, d.Ack())
		return
	}

	now := c.clock.Now()
	if !msg.ExpiresAt.IsZero() && !msg.ExpiresAt.Add(c.skew).After(now) {
		log.Warn(ctx, "activation code already expired, not sending",
			"expires_at", msg.ExpiresAt, "now", now, "skew", c.skew)
		c.settle(ctx, d.Ack())
		return
	}

	subject := msg.Subject
	if subject == "" {
		subject = defaultSubject
	}

	email, err := mailer.RenderActivationEmail(msg.Recipient, subject, msg.ActivationCode, c.ttl(msg))
	if err != nil {
		log.Error(ctx, "render activation email", "error", err)
		c.settle(ctx, d.Nack(false))
		return
	}

	if err := c.sender.Send(ctx, email); err != nil {
		requeue := !d.Redelivered
		log.Error(ctx, "email delivery failed", "error", err, "requeue", requeue)
		c.settle(ctx, d.Nack(requeue))
		return
	}

	log.Info(ctx, "activation email sent")
	c.settle(ctx, d.Ack())
}

func (c *Consumer) ttl(msg notification.Message) time.Duration {
	if msg.IssuedAt.IsZero() || msg.ExpiresAt.IsZero() {
		return c.defaultTTL
	}
	if ttl := msg.ExpiresAt.Sub(msg.IssuedAt); ttl > 0 {
		return ttl
	}
	return c.defaultTTL
}

func (c *Consumer) settle(ctx context.Context, err error) {
	if err != nil {
		c.log.Warn(ctx, "settle delivery", "error", err)
	}
}
