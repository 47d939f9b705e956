package config

import (
	"fmt"
	"net/url"

	"github.com/dmitrijs2005/gophactivate/internal/envx"
	"github.com/dmitrijs2005/gophactivate/internal/flagx"
)

// parseEnv overlays environment variables, after loading the dotenv file
// named by -e/-env (or ./.env when present).
func parseEnv(c *Config) error {
	if err := envx.Load(flagx.EnvFileFlags()); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}

	c.HTTPAddr = envx.String("HTTP_ADDR", c.HTTPAddr)
	c.GRPCAddr = envx.String("GRPC_ADDR", c.GRPCAddr)

	c.Storage = envx.String("STORAGE", c.Storage)
	c.DatabaseDSN = databaseDSN(c.DatabaseDSN)
	c.DBMaxConns = envx.Int("DATABASE_MAX_CONNECTIONS", c.DBMaxConns)
	c.DBMinConns = envx.Int("DATABASE_MIN_CONNECTIONS", c.DBMinConns)

	c.Broker = envx.String("BROKER", c.Broker)
	c.RabbitMQURL = rabbitURL(c.RabbitMQURL)
	c.RedisAddr = envx.String("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = envx.String("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = envx.Int("REDIS_DB", c.RedisDB)
	c.QueueName = envx.String("EMAIL_QUEUE_NAME", c.QueueName)
	c.EmailSubject = envx.String("EMAIL_SUBJECT", c.EmailSubject)
	c.PublishTimeout = envx.Duration("PUBLISH_TIMEOUT", c.PublishTimeout)

	c.PasswordHashCost = envx.Int("PASSWORD_HASH_ROUNDS", c.PasswordHashCost)
	c.ActivationCodeTTL = envx.Duration("ACTIVATION_CODE_TTL", c.ActivationCodeTTL)
	c.CodeRetention = envx.Duration("CODE_RETENTION", c.CodeRetention)
	c.CleanupSchedule = envx.String("CLEANUP_SCHEDULE", c.CleanupSchedule)

	c.RateLimitRPS = envx.Float("RATE_LIMIT_RPS", c.RateLimitRPS)
	c.RateLimitBurst = envx.Int("RATE_LIMIT_BURST", c.RateLimitBurst)
	c.AllowedOrigins = envx.List("CORS_ALLOWED_ORIGINS", c.AllowedOrigins)
	c.TrustProxyHeaders = envx.Bool("TRUST_PROXY_HEADERS", c.TrustProxyHeaders)

	c.LogLevel = envx.String("LOG_LEVEL", c.LogLevel)
	return nil
}

// databaseDSN prefers DATABASE_DSN and otherwise assembles a DSN from the
// DATABASE_HOST/PORT/NAME/USER/PASSWORD parts when a host is given.
func databaseDSN(def string) string {
	if dsn := envx.String("DATABASE_DSN", ""); dsn != "" {
		return dsn
	}
	host := envx.String("DATABASE_HOST", "")
	if host == "" {
		return def
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(envx.String("DATABASE_USER", "postgres"), envx.String("DATABASE_PASSWORD", "postgres")),
		Host:     host + ":" + envx.String("DATABASE_PORT", "5432"),
		Path:     "/" + envx.String("DATABASE_NAME", "activation"),
		RawQuery: "sslmode=" + envx.String("DATABASE_SSLMODE", "disable"),
	}
	return u.String()
}

// rabbitURL prefers RABBITMQ_URL and otherwise assembles one from the
// RABBITMQ_HOST/PORT/USER/PASSWORD parts when a host is given.
func rabbitURL(def string) string {
	if u := envx.String("RABBITMQ_URL", ""); u != "" {
		return u
	}
	host := envx.String("RABBITMQ_HOST", "")
	if host == "" {
		return def
	}
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(envx.String("RABBITMQ_USER", "guest"), envx.String("RABBITMQ_PASSWORD", "guest")),
		Host:   host + ":" + envx.String("RABBITMQ_PORT", "5672"),
		Path:   "/",
	}
	return u.String()
}
