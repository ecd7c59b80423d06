package main

import (
	"fmt"
	"io"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/climate-story/internal/dataset"
	"github.com/couchcryptid/climate-story/internal/domain"
)

var previewColors = []asciigraph.AnsiColor{asciigraph.Red, asciigraph.Blue, asciigraph.Green, asciigraph.Goldenrod}

func newPreviewCmd(g *globals) *cobra.Command {
	var width, height int
	cmd := &cobra.Command{
		Use:   "preview <chart>",
		Short: "Plot a chart's data in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := g.registry()
			if err != nil {
				return err
			}
			c, err := reg.Get(args[0])
			if err != nil {
				return err
			}
			data, err := dataset.LoadAll(cmd.Context(), g.loader(), c.Sources())
			if err != nil {
				return err
			}
			series := make([]domain.Series, 0, len(data))
			for _, src := range c.Sources() {
				series = append(series, data[src.Name])
			}
			return preview(cmd.OutOrStdout(), c.Title(), series, width, height)
		},
	}
	cmd.Flags().IntVar(&width, "width", 72, "plot width in columns")
	cmd.Flags().IntVar(&height, "height", 16, "plot height in rows")
	return cmd
}

// preview plots one line per series. Keys that repeat, such as months within
// a year or countries within a snapshot, are averaged first.
func preview(w io.Writer, title string, series []domain.Series, width, height int) error {
	var (
		lines   [][]float64
		legends []string
	)
	first, last := -1, -1
	for _, s := range series {
		groups := domain.GroupByKey(s)
		if len(groups) == 0 {
			continue
		}
		values := domain.MeanSeries(s.Name, groups).Values()
		lines = append(lines, values)
		legends = append(legends, s.Name)
		if first < 0 || groups[0].Key < first {
			first = groups[0].Key
		}
		if k := groups[len(groups)-1].Key; k > last {
			last = k
		}
	}
	if len(lines) == 0 {
		return fmt.Errorf("%s: %w", title, domain.ErrNoData)
	}

	plot := asciigraph.PlotMany(lines,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.Precision(1),
		asciigraph.SeriesColors(previewColors[:min(len(lines), len(previewColors))]...),
		asciigraph.SeriesLegends(legends...),
		asciigraph.Caption(fmt.Sprintf("%s, %d-%d", title, first, last)),
	)
	_, err := fmt.Fprintln(w, plot)
	return err
}
