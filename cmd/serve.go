package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/symbology/internal/api"
	"github.com/sells-group/symbology/internal/config"
	"github.com/sells-group/symbology/internal/source"
	"github.com/sells-group/symbology/internal/workspace"
)

var (
	servePort        int
	serveConcurrency int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the configured datasets and their styles over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var pool *pgxpool.Pool
		if needsPostGIS(cfg.Datasets) {
			p, err := postgisPool(ctx, cfg)
			if err != nil {
				return err
			}
			pool = p
			defer pool.Close()
		}

		ws, err := workspace.Load(ctx, datasetSpecs(cfg.Datasets), sourceOptions(cfg, pool), serveConcurrency)
		if err != nil {
			return eris.Wrap(err, "serve: load datasets")
		}

		styler, err := newStyler(cfg, ws)
		if err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr: fmt.Sprintf(":%d", port),
			Handler: api.NewRouter(styler, api.Options{
				CORSOrigins: cfg.Server.CORSOrigins,
				RateLimit:   cfg.Server.RateLimit,
				RateBurst:   cfg.Server.RateBurst,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx) //nolint:errcheck
		}()

		zap.L().Info("starting server",
			zap.Int("port", port),
			zap.Int("datasets", len(cfg.Datasets)),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func datasetSpecs(ds []config.DatasetConfig) []source.Spec {
	specs := make([]source.Spec, 0, len(ds))
	for _, d := range ds {
		specs = append(specs, source.Spec{
			ID:         d.ID,
			Title:      d.Title,
			Driver:     d.Driver,
			Path:       d.Path,
			Table:      d.Table,
			Layer:      d.Layer,
			GeomColumn: d.GeomColumn,
		})
	}
	return specs
}

func needsPostGIS(ds []config.DatasetConfig) bool {
	for _, d := range ds {
		if d.Driver == source.DriverPostGIS {
			return true
		}
	}
	return false
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().IntVar(&serveConcurrency, "concurrency", 4, "datasets loaded in parallel")
	rootCmd.AddCommand(serveCmd)
}
