package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/lakeshore-group/coastline-cli/internal/coast"
	"github.com/lakeshore-group/coastline-cli/internal/config"
	"github.com/lakeshore-group/coastline-cli/internal/db"
	"github.com/lakeshore-group/coastline-cli/internal/layers"
	"github.com/lakeshore-group/coastline-cli/internal/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "coastline-cli",
	Short: "Coastline scoring and segmentation engine",
	Long:  "Slices a coastline into fixed-length segments, scores them against reference geodata layers, and groups them into ranked management units.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initStore opens the configured run-history backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &db.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.Path)
	default:
		return nil, eris.Errorf("cmd: unknown store driver %q", cfg.Store.Driver)
	}
}

// initEngine loads the coastline and the layer manifest and builds the
// scoring pipeline over them.
func initEngine() (*coast.Pipeline, []geom.Coord, error) {
	coastline, err := layers.LoadCoastline(cfg.Layers.Coastline)
	if err != nil {
		return nil, nil, err
	}

	manifest, err := layers.LoadManifest(cfg.Layers.Manifest)
	if err != nil {
		return nil, nil, err
	}
	set, err := manifest.Load()
	if err != nil {
		return nil, nil, err
	}

	return coast.NewPipeline(set, cfg.Pipeline.Workers), coastline, nil
}

// parseLngLat parses a "lng,lat" flag value.
func parseLngLat(s string) (geom.Coord, error) {
	var lng, lat float64
	if _, err := fmt.Sscanf(s, "%f,%f", &lng, &lat); err != nil {
		return nil, eris.Wrapf(coast.ErrConfig, "coordinate %q is not lng,lat", s)
	}
	return geom.Coord{lng, lat}, nil
}

// parseCriteriaFlag validates a list of criterion names.
func parseCriteriaFlag(names []string) ([]coast.Criterion, error) {
	criteria := make([]coast.Criterion, 0, len(names))
	for _, n := range names {
		c, err := coast.ParseCriterion(n)
		if err != nil {
			return nil, err
		}
		criteria = append(criteria, c)
	}
	return criteria, nil
}
