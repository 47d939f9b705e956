package queue

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/gophactivate/internal/logging"
)

// EchoPublisher writes every message to the log instead of a broker. It
// is the local development mode: activation codes show up in the server
// output.
type EchoPublisher struct {
	log logging.Logger
}

func NewEchoPublisher(log logging.Logger) *EchoPublisher {
	return &EchoPublisher{log: log.With("module", "queue.echo")}
}

func (p *EchoPublisher) Publish(ctx context.Context, body []byte) error {
	if json.Valid(body) {
		p.log.Info(ctx, "notification published", "payload", json.RawMessage(body))
		return nil
	}
	p.log.Info(ctx, "notification published", "payload", string(body))
	return nil
}

func (p *EchoPublisher) Close() error { return nil }
