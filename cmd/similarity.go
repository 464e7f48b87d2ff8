package main

import (
	"os"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lakeshore-group/coastline-cli/internal/coast"
	"github.com/lakeshore-group/coastline-cli/internal/export"
	"github.com/lakeshore-group/coastline-cli/internal/store"
)

var similarityCmd = &cobra.Command{
	Use:   "similarity",
	Short: "Rank coastline segments by similarity to a reference location",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		pipe, coastline, err := initEngine()
		if err != nil {
			return err
		}

		names, _ := cmd.Flags().GetStringSlice("criteria")
		criteria, err := parseCriteriaFlag(names)
		if err != nil {
			return err
		}

		mid, _ := cmd.Flags().GetString("midpoint")
		midpoint, err := parseLngLat(mid)
		if err != nil {
			return err
		}

		from, _ := cmd.Flags().GetFloat64("from")
		to, _ := cmd.Flags().GetFloat64("to")

		req := coast.SimilarityRequest{
			Coastline: coastline,
			Midpoint:  midpoint,
			Criteria:  criteria,
			From:      from,
			To:        to,
		}

		res, err := pipe.RankBySimilarity(ctx, req)
		if err != nil {
			return eris.Wrap(err, "similarity")
		}

		recordRun := func() error {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return err
			}
			run, err := store.NewSimilarityRun(uuid.NewString(), req, res)
			if err != nil {
				return err
			}
			return st.SaveRun(ctx, run)
		}
		if err := recordRun(); err != nil {
			zap.L().Warn("run history not recorded", zap.Error(err))
		}

		if out, _ := cmd.Flags().GetString("out"); out != "" {
			name, _ := cmd.Flags().GetString("format")
			format, err := export.ParseFormat(name)
			if err != nil {
				return err
			}
			if err := exportSimilarity(format, out, res); err != nil {
				return err
			}
			zap.L().Info("result exported",
				zap.String("path", out),
				zap.String("format", string(format)),
			)
		}

		formatSimilaritySummary(os.Stdout, res)
		return nil
	},
}

func init() {
	similarityCmd.Flags().String("midpoint", "", "reference location as lng,lat")
	similarityCmd.Flags().StringSlice("criteria", nil, "1-3 criteria in priority order")
	similarityCmd.Flags().Float64("from", 0, "lower bound of the qualifying score range")
	similarityCmd.Flags().Float64("to", 1, "upper bound of the qualifying score range")
	similarityCmd.Flags().String("out", "", "write the result to this path")
	similarityCmd.Flags().String("format", "geojson", "output format: geojson, shapefile, xlsx")
	_ = similarityCmd.MarkFlagRequired("midpoint")
	rootCmd.AddCommand(similarityCmd)
}
