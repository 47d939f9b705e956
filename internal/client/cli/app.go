package cli

import (
	"bufio"
	"context"
	"os"
	"time"

	"github.com/dmitrijs2005/gophactivate/internal/client/client"
	"github.com/dmitrijs2005/gophactivate/internal/client/config"
)

// ActivationAPI is the server surface the CLI drives.
type ActivationAPI interface {
	Register(ctx context.Context, email, password string) (*client.Registration, error)
	Activate(ctx context.Context, email, password, code string) (*client.Activation, error)
	ResendActivation(ctx context.Context, email, password string) (*client.Resend, error)
	Close() error
}

type App struct {
	config *config.Config
	api    ActivationAPI
	reader *bufio.Reader
	// email of the last account touched, offered as the default on prompts.
	email string
	now   func() time.Time
}

func NewApp(c *config.Config) (*App, error) {
	apiClient, err := client.NewActivationClientService(c.ServerEndpointAddr, c.RequestTimeout)
	if err != nil {
		return nil, err
	}

	return &App{config: c, api: apiClient, reader: bufio.NewReader(os.Stdin), now: time.Now}, nil
}

func (a *App) getStatus() string {
	if a.email == "" {
		return ""
	}
	return "(" + a.email + ") "
}

func (a *App) Run(ctx context.Context) {
	defer a.api.Close()

	printlnFn("Welcome to the activation CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
}
