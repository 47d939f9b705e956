package queue

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophactivate/internal/logging"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	mu         sync.Mutex
	declared   []string
	published  []amqp.Publishing
	keys       []string
	publishErr error
	qos        int
	deliveries chan amqp.Delivery
	closed     bool
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !durable || autoDelete || exclusive {
		return amqp.Queue{}, errors.New("queue must be durable")
	}
	f.declared = append(f.declared, name)
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Qos(prefetchCount, prefetchSize int, global bool) error {
	f.qos = prefetchCount
	return nil
}

func (f *fakeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	if autoAck {
		return nil, errors.New("manual ack expected")
	}
	return f.deliveries, nil
}

func (f *fakeChannel) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

type nopCloser struct{ closed bool }

func (c *nopCloser) Close() error { c.closed = true; return nil }

type fakeAcker struct {
	mu      sync.Mutex
	acked   []uint64
	nacked  []uint64
	requeue []bool
}

func (a *fakeAcker) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked = append(a.acked, tag)
	return nil
}

func (a *fakeAcker) Nack(tag uint64, multiple, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked = append(a.nacked, tag)
	a.requeue = append(a.requeue, requeue)
	return nil
}

func (a *fakeAcker) Reject(tag uint64, requeue bool) error { return a.Nack(tag, false, requeue) }

func TestAMQPPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	dial := func() (amqpChannel, io.Closer, error) {
		if err := declare(ch, "email_notifications"); err != nil {
			return nil, nil, err
		}
		return ch, &nopCloser{}, nil
	}

	p, err := newAMQPPublisher(dial, "email_notifications", logging.NewNopLogger())
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), []byte(`{"type":"activation_code"}`)))
	require.Len(t, ch.published, 1)
	assert.Equal(t, []string{"email_notifications"}, ch.declared)
	assert.Equal(t, "email_notifications", ch.keys[0])
	assert.Equal(t, amqp.Persistent, ch.published[0].DeliveryMode)
	assert.Equal(t, "application/json", ch.published[0].ContentType)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
	assert.ErrorIs(t, p.Publish(context.Background(), []byte("x")), ErrClosed)
}

func TestAMQPPublisher_ReconnectsOnClosedChannel(t *testing.T) {
	broken := &fakeChannel{publishErr: amqp.ErrClosed}
	healthy := &fakeChannel{}
	dials := 0
	dial := func() (amqpChannel, io.Closer, error) {
		dials++
		if dials == 1 {
			return broken, &nopCloser{}, nil
		}
		return healthy, &nopCloser{}, nil
	}

	p, err := newAMQPPublisher(dial, "q", logging.NewNopLogger())
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), []byte("x")))
	assert.Equal(t, 2, dials)
	assert.True(t, broken.closed)
	assert.Len(t, healthy.published, 1)
}

func TestAMQPPublisher_OtherErrorsAreReturned(t *testing.T) {
	ch := &fakeChannel{publishErr: errors.New("nope")}
	dial := func() (amqpChannel, io.Closer, error) { return ch, nil, nil }

	p, err := newAMQPPublisher(dial, "q", logging.NewNopLogger())
	require.NoError(t, err)

	err = p.Publish(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestAMQPPublisher_DialFailure(t *testing.T) {
	dial := func() (amqpChannel, io.Closer, error) { return nil, nil, errors.New("refused") }
	_, err := newAMQPPublisher(dial, "q", logging.NewNopLogger())
	assert.Error(t, err)
}

func TestAMQPSubscriber_DeliversAndSettles(t *testing.T) {
	ch := &fakeChannel{deliveries: make(chan amqp.Delivery, 2)}
	acker := &fakeAcker{}
	ch.deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 1, Body: []byte("one")}
	ch.deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 2, Body: []byte("two"), Redelivered: true}
	close(ch.deliveries)

	closer := &nopCloser{}
	s := newAMQPSubscriber(ch, closer, "q", 0, logging.NewNopLogger())

	out, err := s.Subscribe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultPrefetch, ch.qos)

	first := <-out
	assert.Equal(t, "one", string(first.Body))
	assert.False(t, first.Redelivered)
	require.NoError(t, first.Ack())

	second := <-out
	assert.True(t, second.Redelivered)
	require.NoError(t, second.Nack(false))

	_, ok := <-out
	assert.False(t, ok, "channel closes with the source")

	assert.Equal(t, []uint64{1}, acker.acked)
	assert.Equal(t, []uint64{2}, acker.nacked)
	assert.Equal(t, []bool{false}, acker.requeue)

	require.NoError(t, s.Close())
	assert.True(t, ch.closed)
	assert.True(t, closer.closed)
}

func TestAMQPSubscriber_StopsOnContext(t *testing.T) {
	ch := &fakeChannel{deliveries: make(chan amqp.Delivery)}
	s := newAMQPSubscriber(ch, nil, "q", 5, logging.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	out, err := s.Subscribe(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, ch.qos)

	cancel()
	select {
	case _, ok := <-out:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription did not stop")
	}
}
