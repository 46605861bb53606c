package commands

import (
	"fmt"
	"net/http"

	"github.com/boddenberg/ledger-client-go/internal/buildinfo"
	"github.com/boddenberg/ledger-client-go/internal/config"
	"github.com/boddenberg/ledger-client-go/internal/infra/cache"
	"github.com/boddenberg/ledger-client-go/internal/infra/client"
	"github.com/boddenberg/ledger-client-go/internal/infra/observability"
	"github.com/boddenberg/ledger-client-go/internal/infra/resilience"
	"github.com/boddenberg/ledger-client-go/internal/infra/session"
	"github.com/boddenberg/ledger-client-go/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// globalOptions are the persistent flags shared by every subcommand.
// Flags left empty fall back to the environment.
type globalOptions struct {
	apiBase     string
	sessionFile string
	logLevel    string
}

// runtime is the wired application for one command invocation.
type runtime struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *observability.Metrics
	store   *session.FileStore
	boards  *cache.InMemory[*service.Board]
	app     *service.App
}

// Close releases background resources.
func (rt *runtime) Close() {
	rt.boards.Close()
	_ = rt.logger.Sync()
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "ledger",
		Short:   "Personal credit/debit ledger client",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.apiBase, "api-base", "", "ledger backend base URL (env LEDGER_API_BASE)")
	flags.StringVar(&opts.sessionFile, "session-file", "", "session file path (env LEDGER_SESSION_FILE)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (env LOG_LEVEL)")

	rootCmd.AddCommand(
		newSignupCommand(opts),
		newLoginCommand(opts),
		newLogoutCommand(opts),
		newWhoamiCommand(opts),
		newEntriesCommand(opts),
		newTotalsCommand(opts),
		newDashboardCommand(opts),
		newServeCommand(opts),
	)

	return rootCmd
}

// loadConfig reads .env and the environment, then applies flag overrides.
func loadConfig(opts *globalOptions) (*config.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := config.Load()
	if opts.apiBase != "" {
		cfg.APIBase = opts.apiBase
	}
	if opts.sessionFile != "" {
		cfg.SessionFile = opts.sessionFile
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if cfg.SessionFile == "" {
		path, err := session.DefaultPath()
		if err != nil {
			return nil, err
		}
		cfg.SessionFile = path
	}
	return cfg, nil
}

// newRuntime wires config, logging, metrics, the backend client and the app.
func newRuntime(opts *globalOptions) (*runtime, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger(cfg.LogLevel)
	logger.Debug("configuration loaded",
		zap.String("api_base", cfg.APIBase),
		zap.String("session_file", cfg.SessionFile),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("cache_ttl", cfg.CacheTTL),
	)

	metrics := observability.NewMetrics()

	api := client.NewClient(
		&http.Client{Timeout: cfg.HTTPTimeout},
		cfg.APIBase,
		client.NewCircuitBreaker(),
		resilience.Config{
			MaxRetries:     cfg.MaxRetries,
			InitialBackoff: cfg.InitialBackoff,
			MaxConcurrency: cfg.MaxConcurrency,
		},
		metrics,
		logger,
	)

	store := session.NewFileStore(cfg.SessionFile)
	boards := cache.New[*service.Board](cfg.CacheTTL)
	app := service.NewApp(api, store, boards, metrics, logger).
		WithLoadTimeout(cfg.LoadTimeout)

	return &runtime{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		store:   store,
		boards:  boards,
		app:     app,
	}, nil
}

// withRuntime runs fn with a wired runtime and releases it afterwards.
func withRuntime(opts *globalOptions, fn func(rt *runtime) error) error {
	rt, err := newRuntime(opts)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(rt)
}
