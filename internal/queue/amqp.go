package queue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophactivate/internal/logging"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultPrefetch bounds unacknowledged deliveries per consumer.
const DefaultPrefetch = 10

// amqpChannel is the part of *amqp.Channel used here.
type amqpChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// amqpDialer opens a channel with the queue already declared. The closer
// releases whatever the channel lives on.
type amqpDialer func() (amqpChannel, io.Closer, error)

// dialAMQP returns a dialer that connects to url and declares a durable
// queue.
func dialAMQP(url, queue string) amqpDialer {
	return func() (amqpChannel, io.Closer, error) {
		conn, err := amqp.DialConfig(url, amqp.Config{Heartbeat: 30 * time.Second})
		if err != nil {
			return nil, nil, fmt.Errorf("amqp dial: %w", err)
		}
		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("amqp channel: %w", err)
		}
		if err := declare(ch, queue); err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
		return ch, conn, nil
	}
}

func declare(ch amqpChannel, queue string) error {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("amqp declare %q: %w", queue, err)
	}
	return nil
}

// AMQPPublisher publishes persistent JSON messages to a durable RabbitMQ
// queue through the default exchange. A dropped connection is re-opened
// once per publish.
type AMQPPublisher struct {
	queue string
	dial  amqpDialer
	log   logging.Logger

	mu     sync.Mutex
	ch     amqpChannel
	closer io.Closer
	closed bool
}

// NewAMQPPublisher connects to url and declares queue.
func NewAMQPPublisher(url, queue string, log logging.Logger) (*AMQPPublisher, error) {
	return newAMQPPublisher(dialAMQP(url, queue), queue, log)
}

func newAMQPPublisher(dial amqpDialer, queue string, log logging.Logger) (*AMQPPublisher, error) {
	p := &AMQPPublisher{queue: queue, dial: dial, log: log.With("module", "queue.amqp")}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *AMQPPublisher) connect() error {
	ch, closer, err := p.dial()
	if err != nil {
		return err
	}
	p.ch, p.closer = ch, closer
	return nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	err := p.publish(ctx, body)
	if err == nil || !errors.Is(err, amqp.ErrClosed) {
		return err
	}

	p.log.Warn(ctx, "amqp channel closed, reconnecting", "queue", p.queue)
	p.release()
	if err := p.connect(); err != nil {
		return err
	}
	return p.publish(ctx, body)
}

func (p *AMQPPublisher) publish(ctx context.Context, body []byte) error {
	if p.ch == nil {
		return amqp.ErrClosed
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) release() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.closer != nil {
		_ = p.closer.Close()
	}
	p.ch, p.closer = nil, nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	p.release()
	return nil
}

// AMQPSubscriber consumes a durable RabbitMQ queue with manual acks.
type AMQPSubscriber struct {
	queue    string
	prefetch int
	ch       amqpChannel
	closer   io.Closer
	log      logging.Logger
}

// NewAMQPSubscriber connects to url and declares queue. A non-positive
// prefetch uses DefaultPrefetch.
func NewAMQPSubscriber(url, queue string, prefetch int, log logging.Logger) (*AMQPSubscriber, error) {
	ch, closer, err := dialAMQP(url, queue)()
	if err != nil {
		return nil, err
	}
	return newAMQPSubscriber(ch, closer, queue, prefetch, log), nil
}

func newAMQPSubscriber(ch amqpChannel, closer io.Closer, queue string, prefetch int, log logging.Logger) *AMQPSubscriber {
	if prefetch <= 0 {
		prefetch = DefaultPrefetch
	}
	return &AMQPSubscriber{
		queue:    queue,
		prefetch: prefetch,
		ch:       ch,
		closer:   closer,
		log:      log.With("module", "queue.amqp"),
	}
}

func (s *AMQPSubscriber) Subscribe(ctx context.Context) (<-chan Delivery, error) {
	if err := s.ch.Qos(s.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("amqp qos: %w", err)
	}
	src, err := s.ch.Consume(s.queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("amqp consume: %w", err)
	}

	out := make(chan Delivery)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-src:
				if !ok {
					s.log.Warn(ctx, "amqp delivery channel closed", "queue", s.queue)
					return
				}
				select {
				case out <- wrapAMQP(d):
				case <-ctx.Done():
					// Unsettled deliveries go back to the queue when the
					// channel closes.
					return
				}
			}
		}
	}()
	return out, nil
}

func wrapAMQP(d amqp.Delivery) Delivery {
	return NewDelivery(d.Body, d.Redelivered,
		func() error { return d.Ack(false) },
		func(requeue bool) error { return d.Nack(false, requeue) },
	)
}

func (s *AMQPSubscriber) Close() error {
	err := s.ch.Close()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
