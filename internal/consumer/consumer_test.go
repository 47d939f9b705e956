package consumer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/gophactivate/internal/consumer/config"
	"github.com/dmitrijs2005/gophactivate/internal/logging"
	"github.com/dmitrijs2005/gophactivate/internal/mailer"
	"github.com/dmitrijs2005/gophactivate/internal/notification"
	"github.com/dmitrijs2005/gophactivate/internal/queue"
	"github.com/dmitrijs2005/gophactivate/internal/timex"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type recordingSender struct {
	mu   sync.Mutex
	sent []mailer.Email
	err  error
}

func (s *recordingSender) Send(ctx context.Context, e mailer.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, e)
	return nil
}

func (s *recordingSender) Sent() []mailer.Email {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mailer.Email(nil), s.sent...)
}

type settlement struct {
	acked   bool
	nacked  bool
	requeue bool
}

func delivery(body []byte, redelivered bool) (queue.Delivery, *settlement) {
	s := &settlement{}
	d := queue.NewDelivery(body, redelivered,
		func() error { s.acked = true; return nil },
		func(requeue bool) error { s.nacked = true; s.requeue = requeue; return nil },
	)
	return d, s
}

func activationBody(t *testing.T, expiresAt time.Time) []byte {
	t.Helper()
	b, err := notification.Encode(notification.NewActivationMessage(
		"ann@example.com", "acc-1", "4821", "Your Activation Code", expiresAt, now))
	require.NoError(t, err)
	return b
}

func newTestConsumer(sender mailer.Sender) *Consumer {
	return New(nil, sender, timex.NewManualClock(now), time.Minute, logging.NewNopLogger())
}

func TestHandle_SendsAndAcks(t *testing.T) {
	sender := &recordingSender{}
	c := newTestConsumer(sender)

	d, s := delivery(activationBody(t, now.Add(2*time.Minute)), false)
	c.Handle(context.Background(), d)

	assert.True(t, s.acked)
	assert.False(t, s.nacked)
	sent := sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "ann@example.com", sent[0].To)
	assert.Equal(t, "Your Activation Code", sent[0].Subject)
	assert.Contains(t, sent[0].Text, "4821")
	assert.Contains(t, sent[0].Text, "2 minutes")
}

func TestHandle_MalformedIsDropped(t *testing.T) {
	sender := &recordingSender{}
	c := newTestConsumer(sender)

	for name, body := range map[string][]byte{
		"not json":     []byte("{oops"),
		"no recipient": []byte(`{"type":"activation_code","activation_code":"1234","user_id":"u"}`),
	} {
		t.Run(name, func(t *testing.T) {
			d, s := delivery(body, false)
			c.Handle(context.Background(), d)
			assert.True(t, s.nacked)
			assert.False(t, s.requeue)
			assert.False(t, s.acked)
		})
	}
	assert.Empty(t, sender.Sent())
}

func TestHandle_UnknownTypeIsAcked(t *testing.T) {
	sender := &recordingSender{}
	c := newTestConsumer(sender)

	d, s := delivery([]byte(`{"type":"password_reset","recipient":"a@b.c"}`), false)
	c.Handle(context.Background(), d)

	assert.True(t, s.acked)
	assert.Empty(t, sender.Sent())
}

func TestHandle_ExpiredCodeIsSkipped(t *testing.T) {
	sender := &recordingSender{}
	c := newTestConsumer(sender)

	d, s := delivery(activationBody(t, now.Add(-clockSkew)), false)
	c.Handle(context.Background(), d)

	assert.True(t, s.acked)
	assert.Empty(t, sender.Sent())
}

func TestHandle_ToleratesClockSkew(t *testing.T) {
	sender := &recordingSender{}
	c := newTestConsumer(sender)

	// Our clock runs slightly ahead of the one that stamped the notice.
	d, s := delivery(activationBody(t, now.Add(-2*time.Second)), false)
	c.Handle(context.Background(), d)

	assert.True(t, s.acked)
	require.Len(t, sender.Sent(), 1)
	assert.Contains(t, sender.Sent()[0].Text, "4821")
}

func TestHandle_SendFailureRequeuesOnce(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	c := newTestConsumer(sender)

	first, s1 := delivery(activationBody(t, now.Add(time.Minute)), false)
	c.Handle(context.Background(), first)
	assert.True(t, s1.nacked)
	assert.True(t, s1.requeue)

	again, s2 := delivery(activationBody(t, now.Add(time.Minute)), true)
	c.Handle(context.Background(), again)
	assert.True(t, s2.nacked)
	assert.False(t, s2.requeue)
}

func TestTTL(t *testing.T) {
	c := newTestConsumer(&recordingSender{})

	assert.Equal(t, 3*time.Minute, c.ttl(notification.Message{IssuedAt: now, ExpiresAt: now.Add(3 * time.Minute)}))
	assert.Equal(t, time.Minute, c.ttl(notification.Message{ExpiresAt: now.Add(3 * time.Minute)}))
	assert.Equal(t, time.Minute, c.ttl(notification.Message{IssuedAt: now, ExpiresAt: now.Add(-time.Second)}))
}

type chanSubscriber struct {
	ch  chan queue.Delivery
	err error
}

func (s *chanSubscriber) Subscribe(ctx context.Context) (<-chan queue.Delivery, error) {
	return s.ch, s.err
}

func (s *chanSubscriber) Close() error { return nil }

func TestRun_ReturnsOnContextCancel(t *testing.T) {
	sub := &chanSubscriber{ch: make(chan queue.Delivery)}
	c := New(sub, &recordingSender{}, timex.NewManualClock(now), 0, logging.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestRun_ClosedSubscription(t *testing.T) {
	sub := &chanSubscriber{ch: make(chan queue.Delivery)}
	close(sub.ch)
	c := New(sub, &recordingSender{}, timex.NewManualClock(now), 0, logging.NewNopLogger())

	err := c.Run(context.Background())
	assert.ErrorIs(t, err, ErrSubscriptionClosed)
}

func TestRun_SubscribeError(t *testing.T) {
	sub := &chanSubscriber{err: queue.ErrClosed}
	c := New(sub, &recordingSender{}, timex.NewManualClock(now), 0, logging.NewNopLogger())

	assert.ErrorIs(t, c.Run(context.Background()), queue.ErrClosed)
}

func TestRun_RedisEndToEnd(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	pub := queue.NewRedisPublisher(client, "email_notifications")
	require.NoError(t, pub.Publish(context.Background(), activationBody(t, now.Add(time.Minute))))

	sender := &recordingSender{}
	sub := queue.NewRedisSubscriber(client, "email_notifications", logging.NewNopLogger())
	c := New(sub, sender, timex.NewManualClock(now), time.Minute, logging.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.Eventually(t, func() bool { return len(sender.Sent()) == 1 }, 3*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		n, err := client.LLen(context.Background(), "email_notifications:processing").Result()
		return err == nil && n == 0
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestNewSender(t *testing.T) {
	log := logging.NewNopLogger()

	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		want    any
		wantErr bool
	}{
		{name: "http with fallback", mutate: func(c *config.Config) {}, want: &mailer.FallbackSender{}},
		{name: "http only", mutate: func(c *config.Config) { c.ConsoleFallback = false }, want: &mailer.HTTPSender{}},
		{name: "console", mutate: func(c *config.Config) { c.EmailProvider = config.ProviderConsole }, want: &mailer.ConsoleSender{}},
		{name: "sendgrid", mutate: func(c *config.Config) {
			c.EmailProvider = config.ProviderSendGrid
			c.SendGridAPIKey = "SG.x"
			c.ConsoleFallback = false
		}, want: &mailer.SendGridSender{}},
		{name: "resend", mutate: func(c *config.Config) {
			c.EmailProvider = config.ProviderResend
			c.ResendAPIKey = "re_x"
			c.ConsoleFallback = false
		}, want: &mailer.ResendSender{}},
		{name: "sendgrid without key", mutate: func(c *config.Config) { c.EmailProvider = config.ProviderSendGrid }, wantErr: true},
		{name: "unknown", mutate: func(c *config.Config) { c.EmailProvider = "pigeon" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &config.Config{}
			c.LoadDefaults()
			tt.mutate(c)

			s, err := newSender(c, log)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, s)
		})
	}
}

func TestNewSubscriber_UnknownBroker(t *testing.T) {
	c := &config.Config{}
	c.LoadDefaults()
	c.Broker = "kafka"

	_, err := newSubscriber(context.Background(), c, logging.NewNopLogger())
	require.Error(t, err)
}

func TestNewSubscriber_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	c := &config.Config{}
	c.LoadDefaults()
	c.Broker = config.BrokerRedis
	c.RedisAddr = mr.Addr()

	sub, err := newSubscriber(context.Background(), c, logging.NewNopLogger())
	require.NoError(t, err)
	assert.IsType(t, &queue.RedisSubscriber{}, sub)
	require.NoError(t, sub.Close())
}
