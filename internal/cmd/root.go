package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"

	"cob/internal/config"
	"cob/internal/identity"
	badgerkv "cob/internal/kvstore/badger"
	"cob/internal/kvstore/filesystem"
	"cob/internal/objectstore"
)

// AppProvider lazily initializes the App on first use.
type AppProvider struct {
	once sync.Once
	app  *App
	err  error

	// Config captured from flags before Execute()
	CobPath    string
	JSONOutput bool
	Verbose    bool
	Out        io.Writer
	Err        io.Writer
}

// Get returns the App, initializing it on first call.
func (p *AppProvider) Get() (*App, error) {
	p.once.Do(func() {
		if p.app == nil {
			p.app, p.err = p.init()
		}
	})
	return p.app, p.err
}

// NewTestProvider creates a provider pre-initialized with the given App.
// Used for testing commands with a test App.
func NewTestProvider(app *App) *AppProvider {
	return &AppProvider{
		app: app,
		Out: app.Out,
		Err: app.Err,
	}
}

func (p *AppProvider) init() (*App, error) {
	cobDir, err := config.FindCobDir(p.CobPath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(cobDir)
	if err != nil {
		return nil, err
	}
	id, err := identity.Load(cfg.KeysDir(cobDir))
	if err != nil {
		return nil, err
	}

	out := p.Out
	if out == nil {
		out = os.Stdout
	}
	errOut := p.Err
	if errOut == nil {
		errOut = os.Stderr
	}

	level := slog.LevelWarn
	if p.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))

	app := &App{
		CobDir:   cobDir,
		Config:   cfg,
		Identity: id,
		Auth:     authorizerFor(cfg),
		Logger:   logger,
		Out:      out,
		Err:      errOut,
		JSON:     p.JSONOutput,
	}
	if err := openStorage(app); err != nil {
		return nil, err
	}
	return app, nil
}

// authorizerFor maps the config allowlist to an Authorizer. An empty
// allowlist means the project is open.
func authorizerFor(cfg *config.Config) identity.Authorizer {
	if len(cfg.Authors.Allowed) == 0 {
		return identity.AllowAll{}
	}
	return identity.NewAllowlist(cfg.Authors.Allowed)
}

// openStorage wires the configured KV engine into the app's object store
// and issue index.
func openStorage(app *App) error {
	switch app.Config.Storage.Engine {
	case config.EngineBadger:
		db, err := badgerkv.Open(filepath.Join(app.CobDir, "db"), app.Logger)
		if err != nil {
			return err
		}
		app.closers = append(app.closers, db.Close)
		objects, err := badgerkv.New(db, "objects")
		if err != nil {
			return err
		}
		issues, err := badgerkv.New(db, "issues")
		if err != nil {
			return err
		}
		app.CAS = objectstore.NewCAS(objects)
		app.Index = objectstore.NewIndex(issues)
		return nil

	case config.EngineFilesystem:
		objects, err := filesystem.New(app.CobDir, "objects")
		if err != nil {
			return err
		}
		issues, err := filesystem.New(app.CobDir, "issues")
		if err != nil {
			return err
		}
		app.CAS = objectstore.NewCAS(objects)
		app.Index = objectstore.NewIndex(issues)
		return nil

	default:
		return fmt.Errorf("unknown storage engine %q", app.Config.Storage.Engine)
	}
}

// Execute runs the CLI.
func Execute() error {
	provider := &AppProvider{
		Out: os.Stdout,
		Err: os.Stderr,
	}
	rootCmd := newRootCmd(provider)
	defer provider.close()
	return rootCmd.Execute()
}

// close releases the app's resources if a command initialized it.
func (p *AppProvider) close() {
	if p.app != nil {
		p.app.Close()
	}
}

// newRootCmd creates the root command with all subcommands.
func newRootCmd(provider *AppProvider) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cob",
		Short: "Collaborative issues over a replicated change graph",
		Long: `cob tracks issues as signed, content-addressed change graphs.
Replicas exchange changes and deterministically fold them into the same
issue state, with no central server and no merge coordination.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags - these populate the provider config
	rootCmd.PersistentFlags().BoolVar(&provider.JSONOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&provider.CobPath, "path", "", "Path to the .cob directory (default: search from cwd)")
	rootCmd.PersistentFlags().BoolVar(&provider.Verbose, "verbose", false, "Enable debug logging")

	rootCmd.AddCommand(newInitCmd(provider))
	rootCmd.AddCommand(newCreateCmd(provider))
	rootCmd.AddCommand(newGetCmd(provider))
	rootCmd.AddCommand(newSetTitleCmd(provider))
	rootCmd.AddCommand(newCloseCmd(provider))
	rootCmd.AddCommand(newReopenCmd(provider))
	rootCmd.AddCommand(newAddCommentCmd(provider))
	rootCmd.AddCommand(newListCmd(provider))
	rootCmd.AddCommand(newChangeGraphCmd(provider))
	rootCmd.AddCommand(newExportCmd(provider))
	rootCmd.AddCommand(newImportCmd(provider))

	return rootCmd
}
