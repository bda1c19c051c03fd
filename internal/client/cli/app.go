// Package cli is the interactive vaultctl shell.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/vaultwatch/internal/client/client"
	"github.com/dmitrijs2005/vaultwatch/internal/client/config"
	pb "github.com/dmitrijs2005/vaultwatch/internal/proto"
)

// API is the server surface the shell drives. *client.GRPCClient implements it.
type API interface {
	Register(ctx context.Context, username, password string) (string, error)
	Login(ctx context.Context, username, password string) error
	Logout()
	LoggedIn() bool
	Ping(ctx context.Context) error
	CreateSecret(ctx context.Context, label, accountName, password string) (*pb.Secret, error)
	ListSecrets(ctx context.Context) ([]*pb.Secret, error)
	RevealSecret(ctx context.Context, id string) (string, error)
	UpdateSecret(ctx context.Context, id, label, accountName, password string) (*pb.Secret, error)
	DeleteSecret(ctx context.Context, id string) error
	CheckSecret(ctx context.Context, password string) (*pb.CheckSecretResponse, error)
	WatchAlerts(ctx context.Context, fn func(*pb.AlertEvent)) error
	Close() error
}

type App struct {
	api      API
	reader   *bufio.Reader
	userName string

	outMu sync.Mutex
	out   io.Writer

	watchMu   sync.Mutex
	stopWatch context.CancelFunc
	watchDone chan struct{}
}

func NewApp(c *config.Config) (*App, error) {
	api, err := client.NewGRPCClient(c.ServerEndpointAddr, c.RequestTimeout)
	if err != nil {
		return nil, err
	}
	return newApp(api, os.Stdin, os.Stdout), nil
}

func newApp(api API, in io.Reader, out io.Writer) *App {
	return &App{api: api, reader: bufio.NewReader(in), out: out}
}

// Run shows the prompt until EOF or "exit".
func (a *App) Run(ctx context.Context) {
	defer a.api.Close()
	defer a.stopWatching()

	a.println("Welcome to vaultctl (type 'help' for commands)")
	runREPL(ctx, a)
}

// println serializes output; the alert watcher prints concurrently.
func (a *App) println(args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) prompt() string {
	if a.userName != "" {
		return fmt.Sprintf("vault (%s)> ", a.userName)
	}
	return "vault> "
}
