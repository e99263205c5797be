// Package aggregate turns a filtered reconciled survey table into chart-ready
// summary tables. Every operation is a pure function of its view: it never
// modifies the dataset and never fails, returning an Empty summary instead.
package aggregate

import (
	"math"

	"survey-dashboard/internal/survey"
)

// OthersMean selects how the mean score of the "Others" bucket is computed.
type OthersMean string

const (
	// OthersWeighted weights every scored response equally.
	OthersWeighted OthersMean = "weighted"
	// OthersUnweighted averages the excluded groups' means.
	OthersUnweighted OthersMean = "unweighted"
)

// DefaultOthersLabel names the residual bucket of volume rankings.
const DefaultOthersLabel = "Outros"

// Score axis of ranking charts.
const (
	ScoreMin = 1.0
	ScoreMax = 3.0
)

// Option configures an Engine.
type Option func(*Engine)

// WithOthersMean sets the Others bucket mean.
func WithOthersMean(m OthersMean) Option {
	return func(e *Engine) {
		if m == OthersWeighted || m == OthersUnweighted {
			e.othersMean = m
		}
	}
}

// WithOthersLabel renames the Others bucket.
func WithOthersLabel(label string) Option {
	return func(e *Engine) {
		if label != "" {
			e.othersLabel = label
		}
	}
}

// Engine holds aggregation settings. It has no mutable state and is safe for
// concurrent use.
type Engine struct {
	othersMean  OthersMean
	othersLabel string
}

// NewEngine returns an Engine using the weighted Others mean and the "Outros"
// label unless opts say otherwise.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{othersMean: OthersWeighted, othersLabel: DefaultOthersLabel}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Summary is the result of one chart's aggregation. Exactly one payload is
// set, matching Kind.
type Summary struct {
	ChartID      string           `json:"chart_id"`
	Kind         survey.ChartKind `json:"kind"`
	Title        string           `json:"title"`
	Distribution *Distribution    `json:"distribution,omitempty"`
	Overall      *Overall         `json:"overall,omitempty"`
	Ranking      *Ranking         `json:"ranking,omitempty"`
	Volume       *Volume          `json:"volume,omitempty"`
}

// Empty reports whether the summary has nothing to chart.
func (s Summary) Empty() bool {
	switch {
	case s.Distribution != nil:
		return s.Distribution.Empty
	case s.Overall != nil:
		return s.Overall.Empty
	case s.Ranking != nil:
		return s.Ranking.Empty
	case s.Volume != nil:
		return s.Volume.Empty
	}
	return true
}

// Summarize runs the aggregation configured for chart.
func (e *Engine) Summarize(v View, chart survey.Chart) Summary {
	s := Summary{ChartID: chart.ID, Kind: chart.Kind, Title: chart.Title}
	switch chart.Kind {
	case survey.KindLikert:
		d := e.DistributionBy(v, chart.Role)
		s.Distribution = &d
	case survey.KindPopular:
		d := e.PopularDistribution(v, chart.Role, chart.Limit)
		s.Distribution = &d
	case survey.KindOverall:
		o := e.Overall(v)
		s.Overall = &o
	case survey.KindRanking:
		r := e.TopByMean(v, chart.Role, chart.Limit)
		s.Ranking = &r
	case survey.KindTreemap:
		vol := e.TopByVolume(v, chart.Role, chart.Limit)
		s.Volume = &vol
	}
	return s
}

// Round1 rounds half away from zero at one decimal digit. All percentages go
// through it.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func percent(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return Round1(float64(count) / float64(total) * 100)
}
