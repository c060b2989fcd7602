// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/avorty/spito-lsp/internal/config"
	"github.com/avorty/spito-lsp/internal/discovery"
	"github.com/avorty/spito-lsp/internal/issue"
	"github.com/avorty/spito-lsp/internal/workspace"

	"github.com/charmbracelet/log"
)

type (
	// App wires CLI services and shared dependencies. All command handlers
	// receive an App reference.
	App struct {
		Config config.Provider
		stdin  io.Reader
		stdout io.Writer
		stderr io.Writer

		// Bound to persistent flags.
		verbose bool
		cfgFile string
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}
)

// NewApp creates an App from deps.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config: deps.Config,
		stdin:  deps.Stdin,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.stdin == nil {
		app.stdin = os.Stdin
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

func (a *App) loadOptions() config.LoadOptions {
	return config.LoadOptions{ConfigFilePath: a.cfgFile}
}

// loadConfig loads the server configuration honoring --config.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	return a.Config.Load(ctx, a.loadOptions())
}

// newLogger builds the stderr logger for cfg. --verbose forces debug.
func (a *App) newLogger(cfg *config.Config) *log.Logger {
	level, err := log.ParseLevel(string(cfg.LogLevel))
	if err != nil {
		level = log.InfoLevel
	}
	if a.verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
		Prefix:          "spito-lsp",
	})
}

// loadWorkspace performs one refresh of root and returns the snapshot.
func (a *App) loadWorkspace(ctx context.Context, cfg *config.Config, root string) (*workspace.Snapshot, error) {
	logger := a.newLogger(cfg)
	loader, err := discovery.NewLoader(root,
		discovery.WithIgnore(cfg.Watch.Ignore...),
		discovery.WithMaxParallelReads(cfg.Discovery.MaxParallelReads),
		discovery.WithLogger(logger.WithPrefix("discovery")),
	)
	if err != nil {
		return nil, err
	}
	store := workspace.NewStore(loader, workspace.WithLogger(logger.WithPrefix("workspace")))
	return store.Refresh(ctx)
}

// renderIssue prints the markdown page for id to stderr.
func (a *App) renderIssue(id issue.Id) {
	iss := issue.Get(id)
	if iss == nil {
		return
	}
	rendered, err := iss.Render("dark")
	if err != nil {
		rendered = iss.Markdown()
	}
	fmt.Fprint(a.stderr, rendered)
}

// reportIssue prints the issue page for id followed by the styled error and
// returns an ExitError carrying err.
func (a *App) reportIssue(id issue.Id, err error) error {
	a.renderIssue(id)
	fmt.Fprintf(a.stderr, "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, a.verbose))
	return &ExitError{Code: 1, Err: err}
}

// issueFor maps an error to the issue page that explains it.
func issueFor(err error) issue.Id {
	switch {
	case errors.Is(err, discovery.ErrRootNotDir):
		return issue.WorkspaceRootNotFoundId
	default:
		return issue.SpitoConfParseFailedId
	}
}
