// Package chart turns aggregation summaries into chart configurations that a
// browser can draw, and renders the same configurations as PNG images.
package chart

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"survey-dashboard/internal/aggregate"
	"survey-dashboard/internal/survey"
)

// Chart types.
const (
	TypeStackedBar = "stacked_bar"
	TypePie        = "pie"
	TypeBar        = "bar"
	TypeTreemap    = "treemap"
)

// Placeholder messages.
const (
	NoDataMessage       = "Nenhum dado para exibir"
	NoQuestionsMessage  = "Selecione pelo menos uma pergunta para visualizar"
	defaultLabelWidth   = 25
	neutralColor        = "#6C757D"
	responsesSeriesName = "Respostas"
	meanSeriesName      = "Pontuação Média"
)

// ChartPoint is one labelled value.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Count int     `json:"count,omitempty"`
	Color string  `json:"color,omitempty"`
	Score float64 `json:"score,omitempty"`
}

// ChartSeries is a named list of points.
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// Annotation attaches text to a category of the chart.
type Annotation struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// ChartConfig is a renderer-agnostic chart description.
type ChartConfig struct {
	ID          string        `json:"id"`
	ChartType   string        `json:"chart_type"`
	Title       string        `json:"title"`
	XAxis       string        `json:"x_axis,omitempty"`
	YAxis       string        `json:"y_axis,omitempty"`
	Categories  []string      `json:"categories,omitempty"`
	Series      []ChartSeries `json:"series"`
	Colors      []string      `json:"colors,omitempty"`
	AxisMin     *float64      `json:"axis_min,omitempty"`
	AxisMax     *float64      `json:"axis_max,omitempty"`
	Annotations []Annotation  `json:"annotations,omitempty"`
	ShowLegend  bool          `json:"show_legend"`
	ShowGrid    bool          `json:"show_grid"`
	Empty       bool          `json:"empty"`
	Message     string        `json:"message,omitempty"`
}

// Build produces the chart for a summary. Empty summaries yield a
// placeholder chart carrying a message.
func Build(s aggregate.Summary, c survey.Chart) *ChartConfig {
	cfg := &ChartConfig{
		ID:     c.ID,
		Title:  c.Title,
		Series: []ChartSeries{},
	}
	switch c.Kind {
	case survey.KindLikert, survey.KindPopular:
		cfg.ChartType = TypeStackedBar
	case survey.KindOverall:
		cfg.ChartType = TypePie
	case survey.KindRanking:
		cfg.ChartType = TypeBar
	case survey.KindTreemap:
		cfg.ChartType = TypeTreemap
	}

	if s.Empty() {
		cfg.Empty = true
		cfg.Message = NoDataMessage
		if c.Kind == survey.KindLikert {
			cfg.Message = NoQuestionsMessage
		}
		return cfg
	}

	switch {
	case s.Distribution != nil:
		stackedBar(cfg, s.Distribution)
	case s.Overall != nil:
		pie(cfg, s.Overall)
	case s.Ranking != nil:
		rankedBar(cfg, s.Ranking)
	case s.Volume != nil:
		treemap(cfg, s.Volume, c.LabelWidth)
	}
	return cfg
}

// stackedBar draws one bar per group with a segment per answer.
func stackedBar(cfg *ChartConfig, d *aggregate.Distribution) {
	cfg.XAxis = "Percentual"
	cfg.YAxis = d.Role
	cfg.ShowLegend = true
	cfg.ShowGrid = true

	for _, g := range d.Groups {
		cfg.Categories = append(cfg.Categories, g.Group)
		cfg.Annotations = append(cfg.Annotations, Annotation{Label: g.Group, Text: fmt.Sprintf("n=%d", g.Count)})
	}

	type cell struct {
		percent float64
		count   int
	}
	var answers []aggregate.CategoryCount
	seen := map[string]bool{}
	cells := map[string]map[string]cell{}
	for _, r := range d.Rows {
		if !seen[r.Answer] {
			seen[r.Answer] = true
			answers = append(answers, r)
		}
		if cells[r.Answer] == nil {
			cells[r.Answer] = map[string]cell{}
		}
		cells[r.Answer][r.Group] = cell{percent: r.Percent, count: r.Count}
	}
	sortAnswers(answers)

	for _, a := range answers {
		series := ChartSeries{Name: a.Answer, Color: a.Category.Color()}
		for _, g := range d.Groups {
			c := cells[a.Answer][g.Group]
			series.Data = append(series.Data, ChartPoint{Label: g.Group, Value: c.percent, Count: c.count})
		}
		cfg.Series = append(cfg.Series, series)
		cfg.Colors = append(cfg.Colors, series.Color)
	}
}

func sortAnswers(rows []aggregate.CategoryCount) {
	sort.SliceStable(rows, func(i, j int) bool {
		a := survey.Answer{Category: rows[i].Category, Raw: rows[i].Answer}
		return a.Less(survey.Answer{Category: rows[j].Category, Raw: rows[j].Answer})
	})
}

func pie(cfg *ChartConfig, o *aggregate.Overall) {
	cfg.ShowLegend = true
	series := ChartSeries{Name: responsesSeriesName}
	for _, s := range o.Shares {
		color := s.Category.Color()
		series.Data = append(series.Data, ChartPoint{Label: s.Answer, Value: s.Percent, Count: s.Count, Color: color})
		cfg.Colors = append(cfg.Colors, color)
	}
	cfg.Series = append(cfg.Series, series)
}

func rankedBar(cfg *ChartConfig, r *aggregate.Ranking) {
	cfg.Title = fmt.Sprintf("%s (Pontuação: %g-%.2f)", cfg.Title, r.AxisMin, r.Best)
	cfg.XAxis = meanSeriesName
	cfg.YAxis = r.Role
	cfg.ShowGrid = true
	lo, hi := r.AxisMin, r.AxisMax
	cfg.AxisMin, cfg.AxisMax = &lo, &hi

	series := ChartSeries{Name: meanSeriesName}
	for _, g := range r.Groups {
		series.Data = append(series.Data, ChartPoint{
			Label: g.Group,
			Value: RoundTo2(g.Mean),
			Count: g.Responses,
			Color: ScoreColor(g.Mean),
		})
	}
	cfg.Series = append(cfg.Series, series)
}

func treemap(cfg *ChartConfig, v *aggregate.Volume, width int) {
	if width <= 0 {
		width = defaultLabelWidth
	}
	groups := v.Groups
	if v.Others != nil {
		groups = append(append([]aggregate.GroupScore(nil), groups...), *v.Others)
	}

	series := ChartSeries{Name: responsesSeriesName}
	for _, g := range groups {
		color := neutralColor
		if g.Scored > 0 {
			color = ScoreColor(g.Mean)
		}
		series.Data = append(series.Data, ChartPoint{
			Label: TreemapLabel(g.Group, g.Responses, width),
			Value: float64(g.Responses),
			Count: g.Responses,
			Color: color,
			Score: RoundTo2(g.Mean),
		})
	}
	cfg.Series = append(cfg.Series, series)
}

// TreemapLabel shortens a group name to width runes and appends its volume.
func TreemapLabel(name string, responses, width int) string {
	if utf8.RuneCountInString(name) > width {
		name = strings.TrimSpace(string([]rune(name)[:width])) + "..."
	}
	return fmt.Sprintf("%s (%d resp)", name, responses)
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
