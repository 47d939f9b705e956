package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/gophactivate/internal/consumer"
	"github.com/dmitrijs2005/gophactivate/internal/consumer/config"
)

func main() {

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	app, err := consumer.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}

}
