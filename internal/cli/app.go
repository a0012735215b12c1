package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/cargotrack/internal/bootstrap"
	"github.com/dmitrijs2005/cargotrack/internal/config"
	"github.com/dmitrijs2005/cargotrack/internal/logging"
	"github.com/dmitrijs2005/cargotrack/internal/models"
	"github.com/dmitrijs2005/cargotrack/internal/tracker"
)

var errAdminOnly = errors.New("permission denied: administrators only")

type App struct {
	engine *bootstrap.Engine
	svc    *tracker.Service
	logger logging.Logger
	reader *bufio.Reader
	out    io.Writer
}

// NewApp builds the engine from cfg. Logs go to stderr so they do not mix
// with command output.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	out := os.Stdout

	e, err := bootstrap.Build(ctx, cfg, logger, bootstrap.Options{
		Prompt: devicePrompt(out),
	})
	if err != nil {
		return nil, err
	}
	return newApp(e, logger, os.Stdin, out), nil
}

func newApp(e *bootstrap.Engine, logger logging.Logger, in io.Reader, out io.Writer) *App {
	return &App{
		engine: e,
		svc:    e.Tracker,
		logger: logger,
		reader: bufio.NewReader(in),
		out:    out,
	}
}

func devicePrompt(w io.Writer) func(ctx context.Context, uri, code string) error {
	return func(_ context.Context, uri, code string) error {
		_, err := fmt.Fprintf(w, "To sign in, open %s and enter the code %s\n", uri, code)
		return err
	}
}

// Run restores the previous session, syncs when a token is at hand and
// serves the REPL until the user leaves.
func (a *App) Run(ctx context.Context) {
	defer a.engine.Close()

	fmt.Fprintln(a.out, "Welcome to cargotrack (type 'help' for commands)")
	if err := a.svc.Start(ctx); err != nil {
		a.report(err)
	}
	runREPL(ctx, a, a.status, a.reader)
}

func (a *App) status() string {
	v := a.svc.View()
	s := "offline"
	if a.svc.Connected() {
		s = "online"
	}
	if v.State == tracker.Syncing {
		s = v.State.String()
	}
	if v.Session != nil {
		s = v.Session.Login + " " + s
	}
	return fmt.Sprintf("(%s)", s)
}

func (a *App) isLoggedIn() bool {
	return a.svc.View().Session != nil
}

func (a *App) isAdmin() bool {
	return a.svc.View().Session.IsAdmin()
}

// report prints err for the user and returns it.
func (a *App) report(err error) error {
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
	}
	return err
}

func (a *App) requireSession() error {
	if !a.isLoggedIn() {
		return a.report(errors.New("not logged in"))
	}
	return nil
}

func (a *App) requireAdmin() error {
	if err := a.requireSession(); err != nil {
		return err
	}
	if !a.isAdmin() {
		return a.report(errAdminOnly)
	}
	return nil
}

// siteScope returns the site an operator is bound to, or "" for admins.
func (a *App) siteScope() string {
	u := a.svc.View().Session
	if u == nil || u.IsAdmin() {
		return ""
	}
	return u.SiteID
}

func (a *App) Sync(ctx context.Context) error {
	if err := a.report(a.engine.Sync(ctx)); err != nil {
		return err
	}
	counts := a.svc.View().Counts()
	fmt.Fprintf(a.out, "Synced: %d sites, %d trucks, %d drivers, %d users, %d loads\n",
		counts[models.KindSite], counts[models.KindTruck], counts[models.KindDriver],
		counts[models.KindUser], counts[models.KindLoad])
	return nil
}

func (a *App) Export(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	key, err := a.engine.Export(ctx)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Snapshot exported to %s\n", key)
	return nil
}
