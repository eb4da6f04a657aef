package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"patchpanel/internal/config"
	"patchpanel/internal/logging"
	"patchpanel/internal/server"
)

var serveAddr string

// serveCmd exposes the session over HTTP
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the panel as an HTTP JSON API",
	Long: `Starts an HTTP API that drives one panel session: app selection, patch
toggles, command synthesis, sync, verification and the simulated build.

The config file is watched; logging level changes apply without a restart.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		sess, err := newSession(ctx, nil)
		if err != nil {
			return err
		}

		addr := cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}

		log := logging.Get(logging.CategoryConfig)
		watcher := config.NewWatcher(configPath, func(c *config.Config) {
			if err := logging.SetLevel(c.Logging.Level); err != nil {
				log.Warn("ignoring log level", zap.Error(err))
				return
			}
			log.Info("config reloaded", zap.String("level", logging.Level().String()))
		})
		if err := watcher.Start(ctx); err != nil {
			log.Warn("config watcher disabled", zap.Error(err))
		} else {
			defer watcher.Stop()
		}

		srv := server.New(sess, addr)
		go func() {
			if err := sess.Sync(ctx); err != nil {
				logging.Get(logging.CategorySync).Warn("initial sync", zap.Error(err))
			}
		}()
		cmd.Printf("Serving on http://%s\n", srv.Addr())
		return srv.ListenAndServe(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, then "+server.DefaultAddr+")")
}
