// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/pdiddy/treatment-reviews/internal/server"
	"github.com/pdiddy/treatment-reviews/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP scoring API",
	Long: `Serve exposes the evaluator over HTTP:

  GET  /health                 liveness and version
  POST /api/v1/evaluate        score one review
  POST /api/v1/evaluate/batch  score many reviews, optionally saving the run
  GET  /api/v1/runs            list saved runs
  GET  /api/v1/results         query saved results

The results database is opened unless --no-store is given. The server shuts
down gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
	}
	noStore, _ := cmd.Flags().GetBool("no-store")

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eval, closeFn, err := newEvaluator(ctx, scoringConfig(cmd, cfg.Scoring), cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	opts := []server.Option{server.WithVersion(version)}
	if !noStore {
		s, err := store.Open(cfg.Store)
		if err != nil {
			return err
		}
		defer s.Close()
		opts = append(opts, server.WithStore(s))
	}

	return server.New(eval, cfg.Server, appLog, opts...).Run(ctx)
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config: server.addr)")
	serveCmd.Flags().Bool("no-store", false, "run without the results database")
	serveCmd.Flags().Float64("threshold", 0, "reliability threshold in [0, 1] (default from config)")
	serveCmd.Flags().Bool("ai-detection", false, "blend the external AI-text detector into authenticity")

	rootCmd.AddCommand(serveCmd)
}
