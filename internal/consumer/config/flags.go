package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/gophactivate/internal/flagx"
)

// parseFlags overlays command-line flags.
//
//	-b string   broker: rabbitmq or redis
//	-r string   RabbitMQ URL
//	-q string   queue name
//	-p string   email provider: http, sendgrid, resend or console
//	-u string   email service URL for the http provider
//	-l string   log level
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-b", "-r", "-q", "-p", "-u", "-l"})

	fs := flag.NewFlagSet("consumer", flag.ContinueOnError)

	fs.StringVar(&config.Broker, "b", config.Broker, "message broker (rabbitmq|redis)")
	fs.StringVar(&config.RabbitMQURL, "r", config.RabbitMQURL, "RabbitMQ URL")
	fs.StringVar(&config.QueueName, "q", config.QueueName, "notification queue name")
	fs.StringVar(&config.EmailProvider, "p", config.EmailProvider, "email provider (http|sendgrid|resend|console)")
	fs.StringVar(&config.EmailServiceURL, "u", config.EmailServiceURL, "email service URL")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
