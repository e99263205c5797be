package chart

import (
	"errors"
	"fmt"
	"io"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Default PNG size.
const (
	DefaultWidth  = 1024
	DefaultHeight = 600
)

const (
	barWidth      = 36
	barSpacing    = 12
	barLabelWidth = 18
)

// ErrUnknownType is returned for chart types the PNG renderer cannot draw.
var ErrUnknownType = errors.New("unsupported chart type")

// RenderPNG draws cfg. Placeholder charts render their message on a blank
// canvas. Treemaps are drawn as bars sized by volume and coloured by score.
func RenderPNG(w io.Writer, cfg *ChartConfig, width, height int) error {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	if cfg.Empty || len(cfg.Series) == 0 {
		msg := cfg.Message
		if msg == "" {
			msg = NoDataMessage
		}
		return renderMessage(w, msg, width, height)
	}

	switch cfg.ChartType {
	case TypeStackedBar:
		return renderStackedBar(w, cfg, width, height)
	case TypePie:
		return renderPie(w, cfg, width, height)
	case TypeBar, TypeTreemap:
		return renderBar(w, cfg, width, height)
	}
	return fmt.Errorf("%w: %s", ErrUnknownType, cfg.ChartType)
}

func color(hex string) drawing.Color {
	if hex == "" {
		hex = neutralColor
	}
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

func fill(hex string) gochart.Style {
	c := color(hex)
	return gochart.Style{FillColor: c, StrokeColor: c, StrokeWidth: 1}
}

// fitWidth widens the canvas so that n bars never overlap.
func fitWidth(width, n int) int {
	need := 120 + n*(barWidth+barSpacing)
	if need > width {
		return need
	}
	return width
}

func shortLabel(s string) string {
	r := []rune(s)
	if len(r) <= barLabelWidth {
		return s
	}
	return string(r[:barLabelWidth]) + "..."
}

func renderStackedBar(w io.Writer, cfg *ChartConfig, width, height int) error {
	bars := make([]gochart.StackedBar, 0, len(cfg.Categories))
	for i, group := range cfg.Categories {
		bar := gochart.StackedBar{Name: shortLabel(group), Width: barWidth}
		for _, s := range cfg.Series {
			if i >= len(s.Data) || s.Data[i].Value <= 0 {
				continue
			}
			bar.Values = append(bar.Values, gochart.Value{
				Label: fmt.Sprintf("%.1f%%", s.Data[i].Value),
				Value: s.Data[i].Value,
				Style: fill(s.Color),
			})
		}
		if len(bar.Values) == 0 {
			continue
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return renderMessage(w, NoDataMessage, width, height)
	}

	c := gochart.StackedBarChart{
		Title:      cfg.Title,
		Width:      fitWidth(width, len(bars)),
		Height:     height,
		BarSpacing: barSpacing,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}},
		Bars:       bars,
	}
	return c.Render(gochart.PNG, w)
}

func renderPie(w io.Writer, cfg *ChartConfig, width, height int) error {
	var values []gochart.Value
	for _, p := range cfg.Series[0].Data {
		if p.Value <= 0 {
			continue
		}
		values = append(values, gochart.Value{
			Label: fmt.Sprintf("%s %.1f%%", p.Label, p.Value),
			Value: p.Value,
			Style: fill(p.Color),
		})
	}
	if len(values) == 0 {
		return renderMessage(w, NoDataMessage, width, height)
	}

	c := gochart.PieChart{
		Title:  cfg.Title,
		Width:  width,
		Height: height,
		Values: values,
	}
	return c.Render(gochart.PNG, w)
}

func renderBar(w io.Writer, cfg *ChartConfig, width, height int) error {
	var bars []gochart.Value
	for _, p := range cfg.Series[0].Data {
		bars = append(bars, gochart.Value{
			Label: shortLabel(p.Label),
			Value: p.Value,
			Style: fill(p.Color),
		})
	}
	if len(bars) == 0 {
		return renderMessage(w, NoDataMessage, width, height)
	}

	c := gochart.BarChart{
		Title:      cfg.Title,
		Width:      fitWidth(width, len(bars)),
		Height:     height,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}},
		Bars:       bars,
	}
	if cfg.AxisMin != nil && cfg.AxisMax != nil {
		c.YAxis = gochart.YAxis{Range: &gochart.ContinuousRange{Min: *cfg.AxisMin, Max: *cfg.AxisMax}}
	}
	return c.Render(gochart.PNG, w)
}

// renderMessage draws text centred on a white canvas.
func renderMessage(w io.Writer, msg string, width, height int) error {
	r, err := gochart.PNG(width, height)
	if err != nil {
		return err
	}

	r.SetFillColor(drawing.ColorWhite)
	r.MoveTo(0, 0)
	r.LineTo(width, 0)
	r.LineTo(width, height)
	r.LineTo(0, height)
	r.Close()
	r.Fill()

	font, err := gochart.GetDefaultFont()
	if err != nil {
		return err
	}
	r.SetFont(font)
	r.SetFontColor(color(neutralColor))
	r.SetFontSize(16)

	box := r.MeasureText(msg)
	r.Text(msg, (width-box.Width())/2, height/2)
	return r.Save(w)
}
