// Command validate checks the data a deployment will serve: every dataset the
// catalogue reads, an optional layout file, a render of every chart at a
// typical size, and optionally a viewport-event fixture.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -data-dir data \
//	  -layout layouts.yaml \
//	  -events data/mock/viewport_events.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/climate-story/internal/chart"
	"github.com/couchcryptid/climate-story/internal/dataset"
	"github.com/couchcryptid/climate-story/internal/domain"
)

var checkSizes = []domain.Dimensions{
	{Width: 800, Height: 400},
	{Width: 360, Height: 240},
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataDir := flag.String("data-dir", "data", "directory holding the datasets")
	layoutFile := flag.String("layout", "", "YAML file of per-chart layout overrides")
	eventsJSON := flag.String("events", "", "path to a viewport-event JSON fixture")
	flag.Parse()

	if code := run(*dataDir, *layoutFile, *eventsJSON); code != 0 {
		os.Exit(code)
	}
}

func run(dataDir, layoutFile, eventsPath string) int {
	fmt.Println("=== Climate Chart Data Validation ===")
	fmt.Println()

	reg := chart.Default()
	layouts := validateLayouts(reg, layoutFile)

	// ── Load all data sources ──
	loaded, datasets := validateDatasets(dataDir, reg.Sources())

	// ── Run validation phases ──
	phases := []*phase{datasets, layouts, validateRenders(reg, loaded)}
	if eventsPath != "" {
		phases = append(phases, validateEvents(reg, eventsPath))
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	rows := 0
	for _, s := range loaded {
		rows += s.Len()
	}
	fmt.Printf("Datasets: %d loaded, %d rows\n", len(loaded), rows)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phases ──

func validateDatasets(dir string, srcs []dataset.Source) (chart.Data, *phase) {
	p := &phase{name: "Dataset integrity"}
	loaded := make(chart.Data, len(srcs))
	for _, src := range srcs {
		f, err := os.Open(filepath.Join(dir, filepath.FromSlash(src.Path)))
		if err != nil {
			p.errorf("%s: %v", src.Name, err)
			continue
		}
		s, err := dataset.Parse(src, f)
		f.Close()
		if err != nil {
			p.errorf("%v", err)
			continue
		}
		checkSeries(p, s)
		loaded[src.Name] = s
	}
	return loaded, p
}

func checkSeries(p *phase, s domain.Series) {
	if !s.Sorted() {
		p.errorf("%s: keys not sorted", s.Name)
	}
	invalid := 0
	for _, r := range s.Records {
		if !r.Valid() {
			invalid++
		}
	}
	// A few unpublished cells are expected; a mostly empty column is a
	// header or coercion mistake.
	if invalid*2 > s.Len() {
		p.errorf("%s: %d of %d values are not numbers", s.Name, invalid, s.Len())
	}
	keys := s.Keys()
	fmt.Printf("  %-14s %5d rows  %d-%d  %d invalid\n", s.Name, s.Len(), keys[0], keys[len(keys)-1], invalid)
}

func validateLayouts(reg *chart.Registry, path string) *phase {
	p := &phase{name: "Layouts"}
	if err := chart.LoadLayouts(path, reg); err != nil {
		p.errorf("%s: %v", path, err)
		return p
	}
	for _, id := range reg.IDs() {
		l, err := reg.Layout(id)
		if err != nil {
			p.errorf("%s: %v", id, err)
			continue
		}
		if err := l.Validate(); err != nil {
			p.errorf("%s: %v", id, err)
		}
	}
	return p
}

func validateRenders(reg *chart.Registry, data chart.Data) *phase {
	p := &phase{name: "Chart renders"}
	for _, c := range reg.List() {
		layout, err := reg.Layout(c.ID())
		if err != nil {
			p.errorf("%s: %v", c.ID(), err)
			continue
		}
		for _, dims := range checkSizes {
			plot, err := c.Render(chart.Input{Data: data, Dims: dims, Layout: layout})
			if err != nil {
				p.errorf("%s at %gx%g: %v", c.ID(), dims.Width, dims.Height, err)
				continue
			}
			if plot.Scene.Empty() {
				p.errorf("%s at %gx%g: empty scene", c.ID(), dims.Width, dims.Height)
			}
			if plot.Resolver == nil {
				p.errorf("%s at %gx%g: no cursor resolver", c.ID(), dims.Width, dims.Height)
			}
		}
	}
	return p
}

func validateEvents(reg *chart.Registry, path string) *phase {
	p := &phase{name: "Viewport events"}
	raw, err := os.ReadFile(path)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	var events []domain.ViewportEvent
	if err := json.Unmarshal(raw, &events); err != nil {
		p.errorf("parse %s: %v", path, err)
		return p
	}
	for i, ev := range events {
		if err := ev.Validate(); err != nil {
			p.errorf("event %d: %v", i, err)
			continue
		}
		if _, err := reg.Get(ev.Chart); err != nil {
			p.errorf("event %d: %v", i, err)
		}
	}
	return p
}
