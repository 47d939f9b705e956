// Package dispatcher hands activation notices to the notification queue.
package dispatcher

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophactivate/internal/logging"
	"github.com/dmitrijs2005/gophactivate/internal/notification"
	"github.com/dmitrijs2005/gophactivate/internal/queue"
	"github.com/dmitrijs2005/gophactivate/internal/timex"
)

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "Your Activation Code"

// Notice is what the recipient needs to activate.
type Notice struct {
	AccountID string
	Email     string
	Code      string
	ExpiresAt time.Time
}

// Dispatcher enqueues notices. It returns once the queue accepted the
// notice; delivery happens elsewhere.
type Dispatcher interface {
	Enqueue(ctx context.Context, n Notice) error
}

// QueueDispatcher publishes notices as notification.Message documents.
type QueueDispatcher struct {
	pub     queue.Publisher
	subject string
	clock   timex.Clock
	timeout time.Duration
	log     logging.Logger
}

// NewQueueDispatcher builds a dispatcher over pub. Each publish is bounded
// by timeout when it is positive.
func NewQueueDispatcher(pub queue.Publisher, subject string, timeout time.Duration, clock timex.Clock, log logging.Logger) *QueueDispatcher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &QueueDispatcher{
		pub:     pub,
		subject: subject,
		clock:   clock,
		timeout: timeout,
		log:     log.With("module", "dispatcher"),
	}
}

func (d *QueueDispatcher) Enqueue(ctx context.Context, n Notice) error {
	msg := notification.NewActivationMessage(n.Email, n.AccountID, n.Code, d.subject, n.ExpiresAt, d.clock.Now())
	body, err := notification.Encode(msg)
	if err != nil {
		return fmt.Errorf("encode notice: %w", err)
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	if err := d.pub.Publish(ctx, body); err != nil {
		return fmt.Errorf("publish notice: %w", err)
	}

	d.log.Info(ctx, "activation notice queued", "account_id", n.AccountID)
	return nil
}
