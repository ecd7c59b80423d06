package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/climate-story/internal/chart"
	"github.com/couchcryptid/climate-story/internal/domain"
	"github.com/couchcryptid/climate-story/internal/render"
	"github.com/couchcryptid/climate-story/internal/scene"
)

type sceneFlags struct {
	width, height float64
	format        string
	output        string
	year          int
	elapsed       time.Duration
}

func newSceneCmd(g *globals) *cobra.Command {
	f := &sceneFlags{}
	cmd := &cobra.Command{
		Use:   "scene <chart>",
		Short: "Render one chart to SVG, PNG or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := g.registry()
			if err != nil {
				return err
			}
			dims := domain.Dimensions{Width: f.width, Height: f.height}
			plot, err := reg.Snapshot(cmd.Context(), g.loader(), args[0], dims, chart.Params{Year: f.year})
			if err != nil {
				return err
			}
			sc := plot.Scene
			if cmd.Flags().Changed("t") {
				sc = sc.At(f.elapsed)
			}

			out := cmd.OutOrStdout()
			if f.output != "" && f.output != "-" {
				file, err := os.Create(f.output)
				if err != nil {
					return err
				}
				defer file.Close()
				out = file
			}
			return writeScene(out, sc, f.format)
		},
	}
	cmd.Flags().Float64Var(&f.width, "width", 800, "container width in pixels")
	cmd.Flags().Float64Var(&f.height, "height", 400, "container height in pixels")
	cmd.Flags().StringVar(&f.format, "format", "svg", "output format: svg, png or json")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().IntVar(&f.year, "year", 0, "snapshot year for per-country charts")
	cmd.Flags().DurationVar(&f.elapsed, "t", 0, "freeze the entrance animation at this offset")
	return cmd
}

func writeScene(w io.Writer, sc scene.Scene, format string) error {
	switch format {
	case "svg":
		svg := render.NewSVG()
		if err := scene.Commit(svg, sc); err != nil {
			return err
		}
		_, err := svg.WriteTo(w)
		return err
	case "png":
		raster := render.NewRaster()
		if err := scene.Commit(raster, sc); err != nil {
			return err
		}
		return raster.EncodePNG(w)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sc)
	default:
		return fmt.Errorf("unknown format %q: want svg, png or json", format)
	}
}
