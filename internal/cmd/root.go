package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"hotticket/internal/client"
	"hotticket/internal/config"

	"github.com/spf13/cobra"
)

// AppProvider lazily initializes the App on first use.
type AppProvider struct {
	once sync.Once
	app  *App
	err  error

	// Config captured from flags before Execute()
	ConfigPath string
	DataDir    string
	ServerURL  string
	JSONOutput bool
	Out        io.Writer
	Err        io.Writer
	Getenv     func(string) string
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

func (p *AppProvider) getenv(key string) string {
	if p.Getenv == nil {
		return os.Getenv(key)
	}
	return p.Getenv(key)
}

// configPath returns --config, else hotticket.yaml inside the data dir.
func (p *AppProvider) configPath() string {
	if p.ConfigPath != "" {
		return p.ConfigPath
	}
	dir := p.DataDir
	if dir == "" {
		dir = p.getenv(config.EnvDataDir)
	}
	if dir == "" {
		dir = config.Default().Storage.Dir
	}
	return filepath.Join(dir, config.DefaultFileName)
}

// loadConfig resolves configuration: file, then environment, then flags.
func (p *AppProvider) loadConfig() (config.Config, string, error) {
	path := p.configPath()
	var cfg config.Config
	var err error
	if p.ConfigPath != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadOptional(path)
	}
	if err != nil {
		return cfg, path, fmt.Errorf("loading config %s: %w", path, err)
	}
	if err := config.ApplyEnvOverrides(&cfg, p.getenv); err != nil {
		return cfg, path, err
	}
	if p.DataDir != "" {
		cfg.Storage.Dir = p.DataDir
	}
	if p.ServerURL != "" {
		cfg.Client.URL = p.ServerURL
	}
	return cfg, path, nil
}

func (p *AppProvider) init() (*App, error) {
	cfg, path, err := p.loadConfig()
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	c, err := client.New(cfg.Client.URL, nil)
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

	return &App{
		Config:     cfg,
		ConfigPath: path,
		Client:     c,
		Out:        out,
		Err:        errOut,
		JSON:       p.JSONOutput,
		Getenv:     p.Getenv,
	}, nil
}

// Execute runs the CLI.
func Execute() error {
	provider := &AppProvider{
		Out: os.Stdout,
		Err: os.Stderr,
	}

	rootCmd := newRootCmd(provider)
	return rootCmd.Execute()
}

// newRootCmd creates the root command with all subcommands.
func newRootCmd(provider *AppProvider) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hotticket",
		Short: "A small issue tracker with a JSON REST API",
		Long: `hotticket tracks issues, comments and votes for a team of users.

"hotticket serve" runs the REST server over a directory of JSON files.
The remaining commands are clients that talk to a running server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags - these populate the provider config
	rootCmd.PersistentFlags().BoolVar(&provider.JSONOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&provider.ConfigPath, "config", "", "Path to config file, .yaml or .toml (default: <data-dir>/hotticket.yaml)")
	rootCmd.PersistentFlags().StringVar(&provider.DataDir, "data-dir", "", "Directory holding the JSON stores (default: data)")
	rootCmd.PersistentFlags().StringVar(&provider.ServerURL, "server", "", "Server URL for client commands (default: http://127.0.0.1:8080)")

	// Register all commands
	rootCmd.AddCommand(newServeCmd(provider))
	rootCmd.AddCommand(newInitCmd(provider))
	rootCmd.AddCommand(newAliveCmd(provider))
	rootCmd.AddCommand(newUserCmd(provider))
	rootCmd.AddCommand(newIssueCmd(provider))
	rootCmd.AddCommand(newCommentCmd(provider))
	rootCmd.AddCommand(newVoteCmd(provider))

	return rootCmd
}
