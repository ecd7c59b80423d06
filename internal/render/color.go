package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/couchcryptid/climate-story/internal/scale"
)

// paint resolves a fill or stroke. ok is false for "", "none" and anything
// scale.ParseColor rejects, which draw as nothing.
func paint(s string) (drawing.Color, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == scale.NoColor {
		return drawing.Color{}, false
	}
	c, err := scale.ParseColor(s)
	if err != nil {
		return drawing.Color{}, false
	}
	return c, true
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func fmtPoint(x, y float64) string {
	return fmt.Sprintf("%s,%s", num(x), num(y))
}
