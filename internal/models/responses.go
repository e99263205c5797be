package models

import (
	"time"

	"survey-dashboard/internal/analysis"
	"survey-dashboard/internal/chart"
	"survey-dashboard/internal/state"
	"survey-dashboard/internal/survey"
)

// DomainInfo describes one loaded survey tab
type DomainInfo struct {
	ID      string       `json:"id"`
	Title   string       `json:"title"`
	Rows    int          `json:"rows"`
	Columns int          `json:"columns"`
	Filters []FilterInfo `json:"filters"`
	Charts  []ChartInfo  `json:"charts"`
}

// FilterInfo is a dropdown control of a tab
type FilterInfo struct {
	Param string `json:"param"`
	Label string `json:"label"`
}

// ChartInfo is a chart of a tab
type ChartInfo struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Title string `json:"title"`
}

// DomainsResponse is returned by /api/domains
type DomainsResponse struct {
	Domains  []DomainInfo `json:"domains"`
	LoadedAt time.Time    `json:"loaded_at"`
}

// FilterOptions lists the options of one filter
type FilterOptions struct {
	Param   string          `json:"param"`
	Label   string          `json:"label"`
	Options []survey.Option `json:"options"`
}

// OptionsResponse is returned by /api/{domain}/options
type OptionsResponse struct {
	Domain  string          `json:"domain"`
	Filters []FilterOptions `json:"filters"`
}

// ChartsResponse is returned by /api/{domain}/charts
type ChartsResponse struct {
	Domain string               `json:"domain"`
	Filter map[string][]string  `json:"filter"`
	Rows   int                  `json:"rows"`
	Charts []*chart.ChartConfig `json:"charts"`
}

// ProfileResponse is returned by /api/{domain}/profile
type ProfileResponse struct {
	Domain  string                   `json:"domain"`
	Rows    int                      `json:"rows"`
	Columns int                      `json:"columns"`
	Stats   state.ReconcileStats     `json:"stats"`
	Roles   map[string]string        `json:"roles"`
	Profile []analysis.ColumnProfile `json:"profile"`
}
