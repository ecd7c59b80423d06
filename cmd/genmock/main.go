// Command genmock writes deterministic sample datasets for every chart source,
// plus a viewport-event fixture for the pipeline test suites. The values are
// shaped like the published series (a warming trend, rising CO2, ice loss)
// but are synthetic.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -data-dir data \
//	  -events-out data/mock/viewport_events.json
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/climate-story/internal/chart"
	"github.com/couchcryptid/climate-story/internal/dataset"
	"github.com/couchcryptid/climate-story/internal/domain"
)

var months = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

type country struct {
	name  string
	code  string
	share float64
}

var countries = []country{
	{"United States", "USA", 0.95},
	{"China", "CHN", 0.80},
	{"Russia", "RUS", 0.45},
	{"Brazil", "BRA", 0.30},
	{"India", "IND", 0.28},
	{"Germany", "DEU", 0.22},
	{"United Kingdom", "GBR", 0.18},
	{"Indonesia", "IDN", 0.17},
	{"Japan", "JPN", 0.14},
	{"Canada", "CAN", 0.12},
	{"France", "FRA", 0.09},
	{"Australia", "AUS", 0.07},
}

// generators produce the rows of each source, header first.
var generators = map[string]func() [][]string{
	"anomalies":     anomalies,
	"co2":           co2,
	"sealevel":      seaLevel,
	"antarctica":    func() [][]string { return iceSheet("Antarctica", 100) },
	"greenland":     func() [][]string { return iceSheet("Greenland", 200) },
	"globaltemp":    globalTemp,
	"contributions": contributions,
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dataDir := flag.String("data-dir", "data", "output directory for the CSV datasets")
	eventsOut := flag.String("events-out", "", "output path for the viewport-event JSON fixture")
	flag.Parse()

	for _, c := range chart.Default().List() {
		for _, src := range c.Sources() {
			gen, ok := generators[src.Name]
			if !ok {
				return fmt.Errorf("no generator for source %q", src.Name)
			}
			path := filepath.Join(*dataDir, filepath.FromSlash(src.Path))
			if err := writeCSV(path, gen()); err != nil {
				return err
			}
			if err := check(*dataDir, src); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
		}
	}

	if *eventsOut == "" {
		return nil
	}
	data, err := json.MarshalIndent(viewportEvents(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal events: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(*eventsOut), 0o755); err != nil {
		return fmt.Errorf("create events dir: %w", err)
	}
	if err := os.WriteFile(*eventsOut, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write events: %w", err)
	}
	fmt.Printf("wrote %s\n", *eventsOut)
	return nil
}

// check reads the file back through the production parser.
func check(dir string, src dataset.Source) error {
	f, err := os.Open(filepath.Join(dir, filepath.FromSlash(src.Path)))
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := dataset.Parse(src, f); err != nil {
		return fmt.Errorf("verify %s: %w", src.Name, err)
	}
	return nil
}

func writeCSV(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func anomalies() [][]string {
	rows := [][]string{{"year", "month", "anomaly"}}
	for y := 1880; y <= 2022; y++ {
		t := float64(y-1880) / 142
		for m, name := range months {
			v := num(-0.3 + 1.2*t*t + 0.15*math.Sin(float64(y)*0.7+float64(m)*0.5))
			if y == 2022 && m == 11 {
				v = "***" // not yet published
			}
			rows = append(rows, []string{strconv.Itoa(y), name, v})
		}
	}
	return rows
}

func co2() [][]string {
	rows := [][]string{{"year", "ppm"}}
	for y := 1959; y <= 2022; y++ {
		d := float64(y - 1959)
		rows = append(rows, []string{strconv.Itoa(y), num(315 + 0.8*d + 0.012*d*d)})
	}
	return rows
}

func seaLevel() [][]string {
	rows := [][]string{{"year", "sealevel"}}
	for y := 1993; y <= 2021; y++ {
		for q := 0; q < 4; q++ {
			v := -20 + 3.3*float64(y-1993) + 4*math.Sin(float64(y)+float64(q))
			rows = append(rows, []string{strconv.Itoa(y), num(v)})
		}
	}
	return rows
}

func iceSheet(name string, rate float64) [][]string {
	rows := [][]string{{"year", "country", "change"}}
	for y := 2002; y <= 2020; y++ {
		d := float64(y - 2002)
		for half := 0; half < 2; half++ {
			v := -rate*math.Pow(d+float64(half)*0.5, 1.1) + 30*math.Sin(d+float64(half))
			rows = append(rows, []string{strconv.Itoa(y), name, num(v)})
		}
	}
	return rows
}

func globalTemp() [][]string {
	rows := [][]string{{"year", "noSmoothing"}}
	for y := 1880; y <= 2022; y++ {
		t := float64(y-1880) / 142
		rows = append(rows, []string{strconv.Itoa(y), num(-0.25 + 1.25*t*t + 0.1*math.Sin(float64(y)*1.3))})
	}
	return rows
}

func contributions() [][]string {
	rows := [][]string{{"year", "country", "code", "value"}}
	for y := 1930; y <= 2020; y += 10 {
		t := float64(y-1930) / 90
		for i, c := range countries {
			v := c.share * (0.4 + 0.6*t) * (1 + 0.05*math.Sin(float64(y+i)))
			rows = append(rows, []string{strconv.Itoa(y), c.name, c.code, num(v)})
		}
		// Aggregates carry no country code.
		rows = append(rows, []string{strconv.Itoa(y), "World", "", num(1.2 * (0.4 + 0.6*t))})
	}
	return rows
}

func viewportEvents() []domain.ViewportEvent {
	const session = "demo-page"
	var events []domain.ViewportEvent
	for _, id := range chart.Default().IDs() {
		events = append(events,
			domain.ViewportEvent{Session: session, Chart: id, Type: domain.EventMount, Width: 800, Height: 400},
			domain.ViewportEvent{Session: session, Chart: id, Type: domain.EventIntersect, Ratio: 0.1},
			domain.ViewportEvent{Session: session, Chart: id, Type: domain.EventIntersect, Ratio: 0.6},
		)
	}
	events = append(events,
		domain.ViewportEvent{Session: session, Chart: "globaltemp", Type: domain.EventPointerMove, X: 420, Y: 130},
		domain.ViewportEvent{Session: session, Chart: "globaltemp", Type: domain.EventPointerLeave},
		domain.ViewportEvent{Session: session, Chart: "contributions", Type: domain.EventParams, Year: 2000},
		domain.ViewportEvent{Session: session, Chart: "co2", Type: domain.EventResize, Width: 600, Height: 300},
		domain.ViewportEvent{Session: session, Chart: "co2", Type: domain.EventUnmount},
	)
	return events
}
