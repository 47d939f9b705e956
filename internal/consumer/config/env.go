package config

import (
	"fmt"

	"github.com/dmitrijs2005/gophactivate/internal/envx"
	"github.com/dmitrijs2005/gophactivate/internal/flagx"
)

// parseEnv overlays environment variables, after loading the dotenv file
// named by -e/-env (or ./.env when present).
func parseEnv(c *Config) error {
	if err := envx.Load(flagx.EnvFileFlags()); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}

	c.Broker = envx.String("BROKER", c.Broker)
	c.RabbitMQURL = rabbitURL(c.RabbitMQURL)
	c.RedisAddr = envx.String("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = envx.String("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = envx.Int("REDIS_DB", c.RedisDB)
	c.QueueName = envx.String("EMAIL_QUEUE_NAME", c.QueueName)
	c.Prefetch = envx.Int("CONSUMER_PREFETCH", c.Prefetch)

	c.EmailProvider = envx.String("EMAIL_PROVIDER", c.EmailProvider)
	c.EmailServiceURL = envx.String("EMAIL_SERVICE_URL", c.EmailServiceURL)
	c.EmailTimeout = envx.Duration("EMAIL_TIMEOUT", c.EmailTimeout)
	c.SendGridAPIKey = envx.String("SENDGRID_API_KEY", c.SendGridAPIKey)
	c.SendGridSandbox = envx.Bool("SENDGRID_SANDBOX", c.SendGridSandbox)
	c.ResendAPIKey = envx.String("RESEND_API_KEY", c.ResendAPIKey)
	c.FromAddress = envx.String("EMAIL_FROM", c.FromAddress)
	c.FromName = envx.String("EMAIL_FROM_NAME", c.FromName)
	c.ConsoleFallback = envx.Bool("EMAIL_CONSOLE_FALLBACK", c.ConsoleFallback)
	c.CodeTTL = envx.Duration("ACTIVATION_CODE_TTL", c.CodeTTL)

	c.LogLevel = envx.String("LOG_LEVEL", c.LogLevel)
	return nil
}

// rabbitURL prefers RABBITMQ_URL and otherwise assembles one from the
// RABBITMQ_HOST/PORT/USER/PASSWORD parts when a host is given.
func rabbitURL(def string) string {
	if url := envx.String("RABBITMQ_URL", ""); url != "" {
		return url
	}
	host := envx.String("RABBITMQ_HOST", "")
	if host == "" {
		return def
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		envx.String("RABBITMQ_USER", "guest"),
		envx.String("RABBITMQ_PASSWORD", "guest"),
		host,
		envx.String("RABBITMQ_PORT", "5672"),
	)
}
