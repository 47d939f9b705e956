package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/gophactivate/internal/flagx"
	"github.com/dmitrijs2005/gophactivate/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "1m" and integer nanoseconds.
//
// Fields are pointers so that only keys present in the file override the
// earlier layers.
type JsonConfig struct {
	HTTPAddr          *string         `json:"http_addr"`
	GRPCAddr          *string         `json:"grpc_addr"`
	Storage           *string         `json:"storage"`
	DatabaseDSN       *string         `json:"database_dsn"`
	DBMaxConns        *int            `json:"database_max_connections"`
	DBMinConns        *int            `json:"database_min_connections"`
	Broker            *string         `json:"broker"`
	RabbitMQURL       *string         `json:"rabbitmq_url"`
	RedisAddr         *string         `json:"redis_addr"`
	RedisPassword     *string         `json:"redis_password"`
	RedisDB           *int            `json:"redis_db"`
	QueueName         *string         `json:"queue_name"`
	EmailSubject      *string         `json:"email_subject"`
	PublishTimeout    *timex.Duration `json:"publish_timeout"`
	PasswordHashCost  *int            `json:"password_hash_rounds"`
	ActivationCodeTTL *timex.Duration `json:"activation_code_ttl"`
	CodeRetention     *timex.Duration `json:"code_retention"`
	CleanupSchedule   *string         `json:"cleanup_schedule"`
	RateLimitRPS      *float64        `json:"rate_limit_rps"`
	RateLimitBurst    *int            `json:"rate_limit_burst"`
	AllowedOrigins    []string        `json:"cors_allowed_origins"`
	TrustProxyHeaders *bool           `json:"trust_proxy_headers"`
	LogLevel          *string         `json:"log_level"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path comes from the -c or -config command-line flags. If it is
// not set, no JSON file is loaded. If the file cannot be read or contains
// invalid JSON, the function panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	set(&config.HTTPAddr, c.HTTPAddr)
	set(&config.GRPCAddr, c.GRPCAddr)
	set(&config.Storage, c.Storage)
	set(&config.DatabaseDSN, c.DatabaseDSN)
	set(&config.DBMaxConns, c.DBMaxConns)
	set(&config.DBMinConns, c.DBMinConns)
	set(&config.Broker, c.Broker)
	set(&config.RabbitMQURL, c.RabbitMQURL)
	set(&config.RedisAddr, c.RedisAddr)
	set(&config.RedisPassword, c.RedisPassword)
	set(&config.RedisDB, c.RedisDB)
	set(&config.QueueName, c.QueueName)
	set(&config.EmailSubject, c.EmailSubject)
	set(&config.PasswordHashCost, c.PasswordHashCost)
	set(&config.CleanupSchedule, c.CleanupSchedule)
	set(&config.RateLimitRPS, c.RateLimitRPS)
	set(&config.RateLimitBurst, c.RateLimitBurst)
	set(&config.TrustProxyHeaders, c.TrustProxyHeaders)
	set(&config.LogLevel, c.LogLevel)
	setDuration(&config.PublishTimeout, c.PublishTimeout)
	setDuration(&config.ActivationCodeTTL, c.ActivationCodeTTL)
	setDuration(&config.CodeRetention, c.CodeRetention)
	if c.AllowedOrigins != nil {
		config.AllowedOrigins = c.AllowedOrigins
	}
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *timex.Duration) {
	if src != nil {
		*dst = src.Duration
	}
}
