package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lakeshore-group/coastline-cli/internal/coast"
	"github.com/lakeshore-group/coastline-cli/internal/export"
	"github.com/lakeshore-group/coastline-cli/internal/store"
)

var unitsCmd = &cobra.Command{
	Use:   "units",
	Short: "Score a coastline stretch and group it into management units",
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

		req := coast.UnitsRequest{
			Coastline:     coastline,
			Start:         coastline[0],
			End:           coastline[len(coastline)-1],
			Resolution:    cfg.Pipeline.DefaultResolution,
			Unit:          coast.LengthUnit(cfg.Pipeline.DefaultUnit),
			Criteria:      criteria,
			CategoryCount: cfg.Pipeline.DefaultCategories,
		}

		if s, _ := cmd.Flags().GetString("start"); s != "" {
			if req.Start, err = parseLngLat(s); err != nil {
				return err
			}
		}
		if s, _ := cmd.Flags().GetString("end"); s != "" {
			if req.End, err = parseLngLat(s); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("resolution") {
			req.Resolution, _ = cmd.Flags().GetFloat64("resolution")
		}
		if cmd.Flags().Changed("unit") {
			u, _ := cmd.Flags().GetString("unit")
			req.Unit = coast.LengthUnit(u)
		}
		if cmd.Flags().Changed("categories") {
			req.CategoryCount, _ = cmd.Flags().GetInt("categories")
		}

		res, err := pipe.GenerateUnits(ctx, req)
		if err != nil {
			return eris.Wrap(err, "units")
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
			run, err := store.NewUnitsRun(req, res)
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
			if err := exportUnits(format, out, res); err != nil {
				return err
			}
			zap.L().Info("result exported",
				zap.String("path", out),
				zap.String("format", string(format)),
			)
		}

		formatUnitsSummary(os.Stdout, res)
		return nil
	},
}

func init() {
	unitsCmd.Flags().String("start", "", "stretch start as lng,lat (default coastline start)")
	unitsCmd.Flags().String("end", "", "stretch end as lng,lat (default coastline end)")
	unitsCmd.Flags().Float64("resolution", 0, "segment length (default from config)")
	unitsCmd.Flags().String("unit", "", "resolution unit, ft or m (default from config)")
	unitsCmd.Flags().StringSlice("criteria", nil, "1-3 criteria in priority order")
	unitsCmd.Flags().Int("categories", 0, "number of ordinal categories (default from config)")
	unitsCmd.Flags().String("out", "", "write the result to this path")
	unitsCmd.Flags().String("format", "geojson", "output format: geojson, shapefile, xlsx")
	rootCmd.AddCommand(unitsCmd)
}
