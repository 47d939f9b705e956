// Package queue abstracts the durable channel that carries notifications
// from the server to the email consumer. Brokers plug in behind Publisher
// and Subscriber.
package queue

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a closed publisher or subscriber.
var ErrClosed = errors.New("queue: closed")

// Publisher hands messages to the broker. A nil error means the broker
// accepted the message, not that it was delivered.
type Publisher interface {
	Publish(ctx context.Context, body []byte) error
	Close() error
}

// Subscriber streams deliveries until ctx is done or the broker goes away,
// at which point the channel is closed.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan Delivery, error)
	Close() error
}

// Delivery is one received message. Exactly one of Ack or Nack must be
// called.
type Delivery struct {
	Body []byte
	// Redelivered is set when the broker handed this message out before.
	Redelivered bool

	ack  func() error
	nack func(requeue bool) error
}

// NewDelivery wraps a received message with its settlement callbacks.
func NewDelivery(body []byte, redelivered bool, ack func() error, nack func(requeue bool) error) Delivery {
	return Delivery{Body: body, Redelivered: redelivered, ack: ack, nack: nack}
}

// Ack confirms the message was handled; the broker forgets it.
func (d Delivery) Ack() error {
	if d.ack == nil {
		return nil
	}
	return d.ack()
}

// Nack rejects the message. With requeue it will be delivered again,
// otherwise it is dropped.
func (d Delivery) Nack(requeue bool) error {
	if d.nack == nil {
		return nil
	}
	return d.nack(requeue)
}
