// Command render draws catalogue charts outside the server: a scene as SVG,
// PNG or JSON for static pages, or a quick terminal preview of the data.
//
// Usage:
//
//	go run ./cmd/render scene co2 --width 800 --height 400 --format svg -o co2.svg
//	go run ./cmd/render preview icesheet
package main

import (
	"fmt"
	"os"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/climate-story/internal/chart"
	"github.com/couchcryptid/climate-story/internal/dataset"
)

// globals are the flags every subcommand shares.
type globals struct {
	dataDir    string
	dataURL    string
	layoutFile string
}

func (g *globals) registry() (*chart.Registry, error) {
	reg := chart.Default()
	if err := chart.LoadLayouts(g.layoutFile, reg); err != nil {
		return nil, err
	}
	return reg, nil
}

func (g *globals) loader() dataset.Loader {
	if g.dataURL != "" {
		return dataset.NewHTTPLoader(g.dataURL, 3, 10*time.Second, sharedobs.NewLogger("warn", "text"))
	}
	return dataset.FileLoader{Dir: g.dataDir}
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	cmd := &cobra.Command{
		Use:           "render <command>",
		Short:         "Render climate charts",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVar(&g.dataDir, "data-dir", "data", "directory holding the datasets")
	cmd.PersistentFlags().StringVar(&g.dataURL, "data-url", "", "base URL to fetch datasets from instead of --data-dir")
	cmd.PersistentFlags().StringVar(&g.layoutFile, "layout", "", "YAML file of per-chart layout overrides")

	cmd.AddCommand(newSceneCmd(g))
	cmd.AddCommand(newPreviewCmd(g))
	cmd.AddCommand(newListCmd(g))
	return cmd
}

func newListCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the chart catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := g.registry()
			if err != nil {
				return err
			}
			for _, c := range reg.List() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-14s %s\n", c.ID(), c.Title())
			}
			return nil
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "render:", err)
		os.Exit(1)
	}
}
