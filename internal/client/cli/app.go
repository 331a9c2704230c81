package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/dkravets/questpath/internal/client/api"
	"github.com/dkravets/questpath/internal/client/cache"
	"github.com/dkravets/questpath/internal/client/config"
	"github.com/dkravets/questpath/internal/client/credstore"
	"github.com/dkravets/questpath/internal/client/nav"
	"github.com/dkravets/questpath/internal/client/session"
	"github.com/dkravets/questpath/internal/client/storage"
	"github.com/dkravets/questpath/internal/logging"
)

// App owns the wired client core and the terminal streams the commands
// render to.
type App struct {
	config  *config.Config
	db      *sql.DB
	client  *api.HTTPClient
	session *session.Manager
	cache   *cache.Manager
	router  *nav.Router
	log     logging.Logger

	in  *bufio.Reader
	out io.Writer
}

// NewApp builds the full client stack from cfg. The session manager's
// transitions are wired to the cache so a session ending for any reason
// drops all cached user data.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	db, err := storage.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init local database: %w", err)
	}

	client := api.NewHTTPClient(cfg.ServerBaseURL, cfg.RequestTimeout)
	creds := credstore.NewSQLiteStore(db)

	sm := session.NewManager(client, client, creds, log)
	cm := cache.NewManager(client, sm, log)
	cm.SetTTL(cfg.CacheTTL)
	sm.OnTransition(cm.OnSessionChange)

	return &App{
		config:  cfg,
		db:      db,
		client:  client,
		session: sm,
		cache:   cm,
		router:  nav.NewRouter(),
		log:     log,
		in:      bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}, nil
}

// Close releases the local database.
func (a *App) Close() error {
	return a.db.Close()
}

// Run restores the session from stored credentials, warms the cache when a
// session survived, and executes the requested subcommand.
func (a *App) Run(ctx context.Context, args []string) error {
	a.session.Bootstrap(ctx)
	if err := a.session.EnsureFresh(ctx); err != nil {
		a.log.Warn(ctx, "token refresh on startup failed", "error", err)
	}
	a.cache.Initialize(ctx)

	root := a.RootCmd()
	root.SetArgs(args)
	root.SetOut(a.out)
	return root.ExecuteContext(ctx)
}
