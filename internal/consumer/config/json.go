package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophactivate/internal/flagx"
	"github.com/dmitrijs2005/gophactivate/internal/timex"
)

// JsonConfig is the on-disk shape of the consumer configuration. Only keys
// present in the file override earlier layers.
type JsonConfig struct {
	Broker          *string         `json:"broker"`
	RabbitMQURL     *string         `json:"rabbitmq_url"`
	RedisAddr       *string         `json:"redis_addr"`
	RedisPassword   *string         `json:"redis_password"`
	RedisDB         *int            `json:"redis_db"`
	QueueName       *string         `json:"queue_name"`
	Prefetch        *int            `json:"prefetch"`
	EmailProvider   *string         `json:"email_provider"`
	EmailServiceURL *string         `json:"email_service_url"`
	EmailTimeout    *timex.Duration `json:"email_timeout"`
	SendGridAPIKey  *string         `json:"sendgrid_api_key"`
	SendGridSandbox *bool           `json:"sendgrid_sandbox"`
	ResendAPIKey    *string         `json:"resend_api_key"`
	FromAddress     *string         `json:"from_address"`
	FromName        *string         `json:"from_name"`
	ConsoleFallback *bool           `json:"console_fallback"`
	CodeTTL         *timex.Duration `json:"activation_code_ttl"`
	LogLevel        *string         `json:"log_level"`
}

// parseJson loads the file passed with -c/-config, if any. An unreadable
// or invalid file panics, as a misconfigured consumer must not start.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	set(&config.Broker, c.Broker)
	set(&config.RabbitMQURL, c.RabbitMQURL)
	set(&config.RedisAddr, c.RedisAddr)
	set(&config.RedisPassword, c.RedisPassword)
	set(&config.RedisDB, c.RedisDB)
	set(&config.QueueName, c.QueueName)
	set(&config.Prefetch, c.Prefetch)
	set(&config.EmailProvider, c.EmailProvider)
	set(&config.EmailServiceURL, c.EmailServiceURL)
	set(&config.SendGridAPIKey, c.SendGridAPIKey)
	set(&config.SendGridSandbox, c.SendGridSandbox)
	set(&config.ResendAPIKey, c.ResendAPIKey)
	set(&config.FromAddress, c.FromAddress)
	set(&config.FromName, c.FromName)
	set(&config.ConsoleFallback, c.ConsoleFallback)
	set(&config.LogLevel, c.LogLevel)
	if c.EmailTimeout != nil {
		config.EmailTimeout = c.EmailTimeout.Duration
	}
	if c.CodeTTL != nil {
		config.CodeTTL = c.CodeTTL.Duration
	}
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
