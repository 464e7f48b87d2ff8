package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/lakeshore-group/coastline-cli/internal/layers"
)

var layersCmd = &cobra.Command{
	Use:   "layers",
	Short: "Inspect the reference layer manifest",
}

var layersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the layers the manifest binds",
	RunE: func(cmd *cobra.Command, _ []string) error {
		manifest, err := layers.LoadManifest(cfg.Layers.Manifest)
		if err != nil {
			return eris.Wrap(err, "layers list")
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "NAME\tKIND\tPATH")
		for _, e := range manifest.Layers {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", e.Name, e.Kind, e.Path)
		}
		_ = w.Flush()
		return nil
	},
}

var layersCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Load every layer and report feature counts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		manifest, err := layers.LoadManifest(cfg.Layers.Manifest)
		if err != nil {
			return eris.Wrap(err, "layers check")
		}
		set, err := manifest.Load()
		if err != nil {
			return eris.Wrap(err, "layers check")
		}

		names := make([]string, 0, len(set))
		for name := range set {
			names = append(names, name)
		}
		sort.Strings(names)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = printer.Fprintln(w, "NAME\tKIND\tFEATURES")
		for _, name := range names {
			l := set[name]
			_, _ = printer.Fprintf(w, "%s\t%s\t%d\n", l.Name, l.Kind, len(l.Features))
		}
		_ = w.Flush()
		fmt.Fprintln(os.Stdout, "All layers loaded.")
		return nil
	},
}

func init() {
	layersCmd.AddCommand(layersListCmd)
	layersCmd.AddCommand(layersCheckCmd)
	rootCmd.AddCommand(layersCmd)
}
