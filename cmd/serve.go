package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lakeshore-group/coastline-cli/internal/server"
	"github.com/lakeshore-group/coastline-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		pipe, coastline, err := initEngine()
		if err != nil {
			return err
		}

		// Run history is best-effort for the API: a broken store
		// disables recording but not scoring.
		var history store.Store
		if history, err = initStore(ctx); err != nil {
			zap.L().Warn("run history disabled", zap.Error(err))
			history = nil
		} else {
			defer history.Close() //nolint:errcheck
			if err := history.Migrate(ctx); err != nil {
				return err
			}
		}

		serverCfg := cfg.Server
		if servePort != 0 {
			serverCfg.Port = servePort
		}

		srv := server.New(pipe, history, coastline, serverCfg)
		return srv.ListenAndServe(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
