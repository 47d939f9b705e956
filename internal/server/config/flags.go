package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gophactivate/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8000")
//	-g string   gRPC bind address (e.g., ":50051")
//	-s string   storage backend: postgres or memory
//	-d string   PostgreSQL DSN
//	-b string   notification broker: rabbitmq, redis or console
//	-r string   RabbitMQ URL
//	-q string   notification queue name
//	-t int      activation code lifetime, seconds
//	-l string   log level
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with the -c and -e flags read by
// other layers.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-s", "-d", "-b", "-r", "-q", "-t", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port to run server")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "gRPC address and port to run server")
	fs.StringVar(&config.Storage, "s", config.Storage, "storage backend (postgres|memory)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.Broker, "b", config.Broker, "notification broker (rabbitmq|redis|console)")
	fs.StringVar(&config.RabbitMQURL, "r", config.RabbitMQURL, "RabbitMQ URL")
	fs.StringVar(&config.QueueName, "q", config.QueueName, "notification queue name")

	codeTTL := fs.Int("t", int(config.ActivationCodeTTL.Seconds()), "activation code lifetime (in seconds)")

	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.ActivationCodeTTL = time.Duration(*codeTTL) * time.Second
}
