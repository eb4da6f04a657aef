// Command patchpanel picks a target app, selects patches and renders the
// patch-build command. Catalog data is supplemented from a web-grounded
// Gemini model when an API key is configured.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"patchpanel/cmd/patchpanel/ui"
	"patchpanel/internal/clock"
	"patchpanel/internal/config"
	"patchpanel/internal/logging"
	"patchpanel/internal/perception"
	"patchpanel/internal/registry"
	"patchpanel/internal/session"
)

var (
	// Global flags
	configPath string
	verbose    bool
	apiKey     string
	timeout    time.Duration

	// Resolved in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "patchpanel",
	Short: "patchpanel - ReVanced patch selection panel",
	Long: `patchpanel lets you pick a target application, choose patches and copy the
revanced-cli command that builds it.

The built-in catalog is supplemented with supported apps, patches and community
repositories found by a web-grounded Gemini model when GEMINI_API_KEY is set.

Run without arguments to start the interactive panel.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig()
		if err != nil {
			return err
		}

		// The panel owns the terminal; only log there when a file is configured.
		if cmd == cmd.Root() && cfg.Logging.File == "" {
			logger = zap.NewNop()
			logging.Use(logger)
			return nil
		}

		logCfg := logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, File: cfg.Logging.File}
		if verbose {
			logCfg.Level = "debug"
		}
		logger, err = logging.Initialize(logCfg)
		if err != nil {
			return err
		}
		logging.Get(logging.CategoryBoot).Debug("config resolved",
			zap.String("path", configPath),
			zap.Bool("remote", cfg.RemoteEnabled()),
			zap.String("model", cfg.LLM.Model))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		sess, err := newSession(ctx, nil)
		if err != nil {
			return err
		}
		return ui.Run(ctx, sess)
	},
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	c, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if apiKey != "" {
		c.LLM.APIKey = apiKey
	}
	if timeout > 0 {
		c.LLM.Timeout = timeout.String()
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}
	return c, nil
}

// newSession wires the remote fetcher (when an API key is present) into a
// fresh session seeded with the built-in catalog. onChange may be nil.
func newSession(ctx context.Context, onChange func(session.Event)) (*session.Session, error) {
	opts := session.Options{
		Clock:        clock.Real{},
		StepInterval: cfg.GetBuildStepInterval(),
		SetupCommand: cfg.Commands.Setup,
		OnChange:     onChange,
	}

	if cfg.RemoteEnabled() {
		client, err := perception.NewGeminiClient(ctx, perception.GeminiConfig{
			APIKey:       cfg.LLM.APIKey,
			Model:        cfg.LLM.Model,
			Timeout:      cfg.GetLLMTimeout(),
			GoogleSearch: cfg.LLM.GoogleSearch,
		})
		if err != nil {
			return nil, err
		}
		logging.Get(logging.CategoryBoot).Debug("remote catalog enabled", zap.String("model", client.Model()))
		gen := perception.WithRetry(client, clock.Real{}, perception.RetryPolicy{
			MaxRetries: cfg.GetMaxRetries(),
			BaseDelay:  cfg.GetRetryBaseDelay(),
		})
		opts.Fetcher = registry.NewFetcher(gen)
	} else {
		logging.Get(logging.CategoryBoot).Info("no API key configured; remote catalog disabled")
	}

	return session.New(opts)
}

// signalContext is cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Gemini API key (overrides GEMINI_API_KEY)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Per-request timeout for remote calls (e.g. 90s)")

	rootCmd.AddCommand(
		appsCmd,
		patchesCmd,
		reposCmd,
		commandCmd,
		launchCmd,
		syncCmd,
		verifyCmd,
		buildCmd,
		serveCmd,
		guideCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
