package consumer

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gophactivate/internal/consumer/config"
	"github.com/dmitrijs2005/gophactivate/internal/logging"
	"github.com/dmitrijs2005/gophactivate/internal/mailer"
	"github.com/dmitrijs2005/gophactivate/internal/queue"
	"github.com/dmitrijs2005/gophactivate/internal/timex"
)

// App owns the consumer's broker connection and sender chain.
type App struct {
	config   *config.Config
	logger   logging.Logger
	sub      queue.Subscriber
	consumer *Consumer
}

// NewApp connects to the configured broker and builds the sender chain.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewLogger(c.LogLevel, os.Stdout)

	sub, err := newSubscriber(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	sender, err := newSender(c, logger)
	if err != nil {
		_ = sub.Close()
		return nil, err
	}

	cons := New(sub, sender, timex.RealClock{}, c.CodeTTL, logger)
	return &App{config: c, logger: logger, sub: sub, consumer: cons}, nil
}

func newSubscriber(ctx context.Context, c *config.Config, log logging.Logger) (queue.Subscriber, error) {
	switch c.Broker {
	case config.BrokerRabbitMQ:
		sub, err := queue.NewAMQPSubscriber(c.RabbitMQURL, c.QueueName, c.Prefetch, log)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq init error: %w", err)
		}
		return sub, nil
	case config.BrokerRedis:
		client, err := queue.NewRedisClient(ctx, queue.RedisOptions{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("redis init error: %w", err)
		}
		return queue.NewRedisSubscriber(client, c.QueueName, log), nil
	default:
		return nil, fmt.Errorf("unknown broker %q", c.Broker)
	}
}

func newSender(c *config.Config, log logging.Logger) (mailer.Sender, error) {
	console := mailer.NewConsoleSender(os.Stdout, log)

	var primary mailer.Sender
	switch c.EmailProvider {
	case config.ProviderHTTP:
		primary = mailer.NewHTTPSender(c.EmailServiceURL, c.EmailTimeout)
	case config.ProviderSendGrid:
		if c.SendGridAPIKey == "" {
			return nil, fmt.Errorf("sendgrid: %w", mailer.ErrNotConfigured)
		}
		primary = mailer.NewSendGridSender(c.SendGridAPIKey, c.FromName, c.FromAddress, c.SendGridSandbox)
	case config.ProviderResend:
		if c.ResendAPIKey == "" {
			return nil, fmt.Errorf("resend: %w", mailer.ErrNotConfigured)
		}
		primary = mailer.NewResendSender(c.ResendAPIKey, c.FromAddress)
	case config.ProviderConsole:
		return console, nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", c.EmailProvider)
	}

	if c.ConsoleFallback {
		return mailer.NewFallbackSender(primary, console, log), nil
	}
	return primary, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run consumes until a termination signal arrives or the broker goes away.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	app.logger.Info(ctx, "Starting consumer...", "broker", app.config.Broker, "queue", app.config.QueueName, "provider", app.config.EmailProvider)

	err := app.consumer.Run(ctx)

	if cerr := app.sub.Close(); cerr != nil {
		app.logger.Warn(ctx, "close subscriber", "error", cerr)
	}
	app.logger.Info(ctx, "consumer stopped")
	return err
}
