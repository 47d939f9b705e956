// Package server wires the activation server: storage, the notification
// publisher, the activation core, the HTTP and gRPC endpoints and the
// scheduled code cleanup.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophactivate/internal/dbx"
	"github.com/dmitrijs2005/gophactivate/internal/logging"
	"github.com/dmitrijs2005/gophactivate/internal/queue"
	"github.com/dmitrijs2005/gophactivate/internal/server/auth"
	"github.com/dmitrijs2005/gophactivate/internal/server/codes"
	"github.com/dmitrijs2005/gophactivate/internal/server/config"
	"github.com/dmitrijs2005/gophactivate/internal/server/dispatcher"
	"github.com/dmitrijs2005/gophactivate/internal/server/httpapi"
	"github.com/dmitrijs2005/gophactivate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophactivate/internal/server/services"
	"github.com/dmitrijs2005/gophactivate/internal/timex"
	"github.com/robfig/cron/v3"

	gs "github.com/dmitrijs2005/gophactivate/internal/server/grpc"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	repos      repomanager.RepositoryManager
	publisher  queue.Publisher
	activation *services.ActivationService
	cleanup    *services.CleanupService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewLogger(c.LogLevel, os.Stdout)
	clock := timex.RealClock{}

	repos, err := newRepositoryManager(ctx, c, clock)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := repos.RunMigrations(ctx); err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	pub, err := newPublisher(ctx, c, logger)
	if err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("queue init error: %w", err)
	}

	hasher, err := auth.NewBcryptHasher(c.PasswordHashCost)
	if err != nil {
		_ = pub.Close()
		_ = repos.Close()
		return nil, err
	}

	d := dispatcher.NewQueueDispatcher(pub, c.EmailSubject, c.PublishTimeout, clock, logger)
	as := services.NewActivationService(repos, hasher, codes.NewGenerator(clock, c.ActivationCodeTTL), d, logger)
	cs := services.NewCleanupService(repos, clock, c.CodeRetention, logger)

	return &App{
		config:     c,
		logger:     logger,
		repos:      repos,
		publisher:  pub,
		activation: as,
		cleanup:    cs,
	}, nil
}

func newRepositoryManager(ctx context.Context, c *config.Config, clock timex.Clock) (repomanager.RepositoryManager, error) {
	switch c.Storage {
	case config.StoragePostgres:
		db, err := dbx.Open(ctx, "pgx", c.DatabaseDSN, dbx.Pool{
			MaxOpenConns:    c.DBMaxConns,
			MaxIdleConns:    c.DBMinConns,
			ConnMaxIdleTime: 5 * time.Minute,
		}, dbx.DefaultRetry)
		if err != nil {
			return nil, err
		}
		return repomanager.NewPostgresRepositoryManager(db, clock)
	case config.StorageMemory:
		return repomanager.NewMemoryRepositoryManager(clock), nil
	default:
		return nil, fmt.Errorf("unknown storage %q", c.Storage)
	}
}

func newPublisher(ctx context.Context, c *config.Config, log logging.Logger) (queue.Publisher, error) {
	switch c.Broker {
	case config.BrokerRabbitMQ:
		return queue.NewAMQPPublisher(c.RabbitMQURL, c.QueueName, log)
	case config.BrokerRedis:
		client, err := queue.NewRedisClient(ctx, queue.RedisOptions{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return queue.NewRedisPublisher(client, c.QueueName), nil
	case config.BrokerConsole:
		return queue.NewEchoPublisher(log), nil
	default:
		return nil, fmt.Errorf("unknown broker %q", c.Broker)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	h := httpapi.NewHandler(app.activation, app.repos, app.logger)
	router := httpapi.NewRouter(h, httpapi.RouterOptions{
		AllowedOrigins:    app.config.AllowedOrigins,
		RateLimitRPS:      app.config.RateLimitRPS,
		RateLimitBurst:    app.config.RateLimitBurst,
		TrustProxyHeaders: app.config.TrustProxyHeaders,
	}, app.logger)

	if err := httpapi.NewServer(app.config.HTTPAddr, router, app.logger).Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.GRPCAddr, app.logger, app.activation)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// startScheduler runs the code cleanup on the configured cron schedule.
// The returned scheduler must be stopped by the caller.
func (app *App) startScheduler(ctx context.Context) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.Recover(cronLogger{ctx: ctx, log: app.logger}), cron.SkipIfStillRunning(cronLogger{ctx: ctx, log: app.logger})))

	_, err := c.AddFunc(app.config.CleanupSchedule, func() {
		if _, err := app.cleanup.CleanupDaily(ctx); err != nil {
			app.logger.Error(ctx, "Scheduled activation-codes cleanup failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule cleanup job: %w", err)
	}

	c.Start()
	return c, nil
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.Storage, "broker", app.config.Broker)

	app.initSignalHandler(cancelFunc)

	scheduler, err := app.startScheduler(ctx)
	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	app.close(context.Background())
}

func (app *App) close(ctx context.Context) {
	if err := app.publisher.Close(); err != nil {
		app.logger.Warn(ctx, "close publisher", "error", err)
	}
	if err := app.repos.Close(); err != nil {
		app.logger.Warn(ctx, "close storage", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}

// cronLogger adapts logging.Logger to cron.Logger.
type cronLogger struct {
	ctx context.Context
	log logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(l.ctx, "cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(l.ctx, "cron: "+msg, append(keysAndValues, "error", err)...)
}
