package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/playerhub/internal/client/client"
	"github.com/dmitrijs2005/playerhub/internal/client/config"
	"github.com/dmitrijs2005/playerhub/internal/client/credstore"
	"github.com/dmitrijs2005/playerhub/internal/client/models"
	"github.com/dmitrijs2005/playerhub/internal/client/presence"
	"github.com/dmitrijs2005/playerhub/internal/client/session"
	"github.com/dmitrijs2005/playerhub/internal/logging"
	"github.com/prometheus/client_golang/prometheus"

	_ "modernc.org/sqlite"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// sessionManager is the part of session.Manager the CLI drives.
type sessionManager interface {
	Bootstrap(ctx context.Context) (session.Outcome, error)
	Login(ctx context.Context, creds models.LoginCredentials) (models.Identity, error)
	Register(ctx context.Context, details models.RegistrationDetails) (models.Identity, error)
	Logout(ctx context.Context) error
	RefreshIdentity(ctx context.Context) (models.Identity, error)
	Health(ctx context.Context) (bool, error)
	State() *session.State
	Phase() session.Phase
}

// tokenStore is a credential store that also knows when the token was set.
type tokenStore interface {
	credstore.Store
	SetAt(ctx context.Context) (time.Time, error)
}

type App struct {
	config   *config.Config
	session  sessionManager
	store    tokenStore
	registry *prometheus.Registry
	closers  []io.Closer

	modeMu sync.Mutex
	Mode   Mode

	reader *bufio.Reader
	out    io.Writer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewTextLogger(os.Stderr, slog.LevelWarn)

	db, err := credstore.OpenDatabase(ctx, c.StatePath)
	if err != nil {
		log.Printf("error initializing database: %s", err.Error())
		return nil, err
	}
	store := credstore.NewSQLiteStore(db)
	state := session.NewState()

	var (
		registry *prometheus.Registry
		metrics  *session.Metrics
	)
	if c.MetricsAddr != "" {
		registry = prometheus.NewRegistry()
		metrics = session.NewMetrics(registry)
	}

	auth := client.NewAuthorizer(store, nil, logger)
	guard := client.NewGuard(store, state, logger, client.WithInvalidationHook(metrics.InvalidationHook()))

	api, err := newTransport(c, auth, guard)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	opts := []session.Option{
		session.WithLogger(logger),
		session.WithMetrics(metrics),
		session.WithVerifyTimeout(c.VerifyTimeout),
		session.WithClearTokenOnVerifyTimeout(c.ClearTokenOnVerifyTimeout),
	}
	if c.PresenceURL != "" {
		opts = append(opts, session.WithCleaner(presence.New(c.PresenceURL, auth.Credential, presence.WithLogger(logger))))
	}

	return &App{
		config:   c,
		session:  session.NewManager(api, store, state, opts...),
		store:    store,
		registry: registry,
		closers:  []io.Closer{api, dbCloser{db}},
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}, nil
}

func newTransport(c *config.Config, auth *client.Authorizer, guard *client.Guard) (client.Client, error) {
	switch c.Transport {
	case config.TransportGRPC:
		gc, err := client.NewGRPCClient(c.ServerEndpointAddr,
			client.RequestIDUnaryInterceptor(),
			client.TimeoutUnaryInterceptor(c.RequestTimeout),
			auth.UnaryClientInterceptor(),
			guard.UnaryClientInterceptor(),
		)
		if err != nil {
			return nil, err
		}
		return gc, nil
	case config.TransportHTTP:
		return client.NewHTTPClient(c.ServerEndpointAddr,
			client.WithHTTPTimeout(c.RequestTimeout),
			client.WithRequestStages(client.RequestIDStage(), auth),
			client.WithResponseStages(guard),
		), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", c.Transport)
	}
}

type dbCloser struct{ db *sql.DB }

func (d dbCloser) Close() error { return d.db.Close() }

func (a *App) setMode(mode Mode) {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	if a.Mode != mode {
		a.Mode = mode
		log.Printf("Switched to %s mode\n", mode)
	}
}

func (a *App) mode() Mode {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	return a.Mode
}

// Run verifies the stored session, starts the background watchers and
// blocks in the REPL until the user exits or ctx ends.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.registry != nil {
		go serveMetrics(ctx, a.config.MetricsAddr, a.registry)
	}

	fmt.Fprintln(a.out, "Welcome to playerhub CLI (type 'help' for commands)")
	a.bootstrap(ctx)

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) bootstrap(ctx context.Context) {
	out, err := a.session.Bootstrap(ctx)
	if err != nil {
		log.Printf("Session check failed: %s", err.Error())
		return
	}
	switch out {
	case session.OutcomeVerified:
		id, _ := a.session.State().Identity()
		fmt.Fprintf(a.out, "Signed in as %s\n", id.DisplayName())
	case session.OutcomeRejected:
		fmt.Fprintln(a.out, "Your session has expired, please log in again")
	case session.OutcomeTimeout, session.OutcomeFailed:
		fmt.Fprintln(a.out, "Could not reach the server to restore your session")
	}
}

// Close releases the transport and the local database.
func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

func (a *App) isLoggedIn() bool {
	return a.session.State().Snapshot().Authenticated()
}

func (a *App) getStatus() string {
	s := ""
	if id, ok := a.session.State().Identity(); ok {
		s = id.Username + " "
	}
	if m := a.mode(); m != "" {
		s = s + string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// StartOnlineStatusWatcher probes the identity service every interval and
// switches the app between online and offline mode. It returns when ctx ends.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) probe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	ok, err := a.session.Health(ctx)
	if err != nil || !ok {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}
