package api

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"survey-dashboard/internal/aggregate"
	"survey-dashboard/internal/analysis"
	"survey-dashboard/internal/chart"
	"survey-dashboard/internal/export"
	"survey-dashboard/internal/models"
	"survey-dashboard/internal/observability"
	"survey-dashboard/internal/state"
	"survey-dashboard/internal/survey"
)

const (
	MaxImageSize = 4096
	xlsxType     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

//go:embed templates/*.html
var templates embed.FS

type Handler struct {
	Snapshot *state.Snapshot
	Catalog  *survey.Catalog
	Engine   *aggregate.Engine
	Profiler *analysis.Profiler
	Logger   *zerolog.Logger

	page *template.Template
}

func NewHandler(snap *state.Snapshot, catalog *survey.Catalog, engine *aggregate.Engine, logger *zerolog.Logger) *Handler {
	return &Handler{
		Snapshot: snap,
		Catalog:  catalog,
		Engine:   engine,
		Profiler: analysis.NewProfiler(),
		Logger:   logger,
		page:     template.Must(template.ParseFS(templates, "templates/dashboard.html")),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Dashboard)
	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Get("/domains", h.ListDomains)
		r.Route("/{domain}", func(r chi.Router) {
			r.Get("/options", h.GetOptions)
			r.Get("/charts", h.GetCharts)
			r.Get("/charts/{chart}", h.GetChart)
			r.Get("/summary/{chart}", h.GetSummary)
			r.Get("/profile", h.GetProfile)
			r.Get("/export.xlsx", h.ExportXLSX)
		})
	})
}

// ============================================================================
// Health
// ============================================================================

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

// ============================================================================
// Domains
// ============================================================================

func (h *Handler) ListDomains(w http.ResponseWriter, r *http.Request) {
	resp := models.DomainsResponse{Domains: []models.DomainInfo{}, LoadedAt: h.Snapshot.LoadedAt}
	for _, id := range h.Snapshot.Domains() {
		d, err := h.Catalog.Lookup(id)
		if err != nil {
			continue
		}
		ds, _ := h.Snapshot.Dataset(id)

		info := models.DomainInfo{
			ID:      d.ID,
			Title:   d.Title,
			Rows:    ds.Len(),
			Columns: len(ds.Frame.Headers),
			Filters: []models.FilterInfo{},
			Charts:  []models.ChartInfo{},
		}
		for _, f := range d.Filters {
			info.Filters = append(info.Filters, models.FilterInfo{Param: f.Param, Label: f.Label})
		}
		for _, c := range d.Charts {
			info.Charts = append(info.Charts, models.ChartInfo{ID: c.ID, Kind: string(c.Kind), Title: c.Title})
		}
		resp.Domains = append(resp.Domains, info)
	}

	writeJSON(w, resp)
}

func (h *Handler) GetOptions(w http.ResponseWriter, r *http.Request) {
	d, ds, ok := h.lookup(w, r)
	if !ok {
		return
	}

	options := aggregate.FilterOptions(ds, d)
	resp := models.OptionsResponse{Domain: d.ID, Filters: []models.FilterOptions{}}
	for _, f := range d.Filters {
		opts := options[f.Param]
		if opts == nil {
			opts = []survey.Option{}
		}
		resp.Filters = append(resp.Filters, models.FilterOptions{Param: f.Param, Label: f.Label, Options: opts})
	}

	writeJSON(w, resp)
}

// ============================================================================
// Charts
// ============================================================================

func (h *Handler) GetCharts(w http.ResponseWriter, r *http.Request) {
	d, ds, ok := h.lookup(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	filter := aggregate.FilterFromParams(d, query)

	resp := models.ChartsResponse{
		Domain: d.ID,
		Filter: filter,
		Rows:   filter.Apply(ds).Len(),
		Charts: make([]*chart.ChartConfig, 0, len(d.Charts)),
	}
	for _, c := range d.Charts {
		resp.Charts = append(resp.Charts, chart.Build(h.summarize(d, ds, query, c), c))
	}

	writeJSON(w, resp)
}

// GetChart serves one chart configuration, or its PNG rendering when the chart id
// ends in ".png".
func (h *Handler) GetChart(w http.ResponseWriter, r *http.Request) {
	d, ds, ok := h.lookup(w, r)
	if !ok {
		return
	}

	id, png := strings.CutSuffix(chi.URLParam(r, "chart"), ".png")
	c, err := d.Chart(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	cfg := chart.Build(h.summarize(d, ds, r.URL.Query(), c), c)
	if !png {
		writeJSON(w, cfg)
		return
	}

	width, err := getIntParam(r, "width", chart.DefaultWidth)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	height, err := getIntParam(r, "height", chart.DefaultHeight)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if err := chart.RenderPNG(&buf, cfg, width, height); err != nil {
		h.Logger.Error().Err(err).Str("domain", d.ID).Str("chart", c.ID).Msg("rendering chart")
		http.Error(w, "Failed to render chart", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(buf.Bytes())
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	d, ds, ok := h.lookup(w, r)
	if !ok {
		return
	}

	c, err := d.Chart(chi.URLParam(r, "chart"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	writeJSON(w, h.summarize(d, ds, r.URL.Query(), c))
}

// summarize aggregates chart c over the rows selected by the filters that
// reach it.
func (h *Handler) summarize(d *survey.Domain, ds *state.Dataset, query url.Values, c survey.Chart) aggregate.Summary {
	start := time.Now()
	s := h.Engine.Summarize(aggregate.ChartFilter(d, c, query).Apply(ds), c)
	observability.SummaryDuration.WithLabelValues(d.ID, string(c.Kind)).Observe(time.Since(start).Seconds())
	return s
}

// ============================================================================
// Profile & Export
// ============================================================================

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	d, ds, ok := h.lookup(w, r)
	if !ok {
		return
	}

	writeJSON(w, models.ProfileResponse{
		Domain:  d.ID,
		Rows:    ds.Len(),
		Columns: len(ds.Frame.Headers),
		Stats:   ds.Stats,
		Roles:   ds.RoleColumns(),
		Profile: h.Profiler.ProfileAllColumns(ds.Frame),
	})
}

func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	d, ds, ok := h.lookup(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	summaries := make([]aggregate.Summary, 0, len(d.Charts))
	for _, c := range d.Charts {
		summaries = append(summaries, h.summarize(d, ds, query, c))
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, summaries); err != nil {
		h.Logger.Error().Err(err).Str("domain", d.ID).Msg("exporting workbook")
		http.Error(w, "Failed to export workbook", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", xlsxType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", d.ID+".xlsx"))
	w.Write(buf.Bytes())
}

// ============================================================================
// Dashboard page
// ============================================================================

type pageTab struct {
	ID     string
	Title  string
	Active bool
}

type pageOption struct {
	Label    string
	Value    string
	Selected bool
}

type pageFilter struct {
	Param   string
	Label   string
	Options []pageOption
}

type pageChart struct {
	ID    string
	Title string
	Src   string
}

type page struct {
	Tabs      []pageTab
	Domain    string
	Title     string
	Rows      int
	Total     int
	Filters   []pageFilter
	Charts    []pageChart
	ExportURL string
	LoadedAt  time.Time
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ids := h.Snapshot.Domains()
	if len(ids) == 0 {
		http.Error(w, "No survey data loaded", http.StatusServiceUnavailable)
		return
	}

	query := r.URL.Query()
	active := query.Get("tab")
	if active == "" {
		active = ids[0]
	}
	d, err := h.Catalog.Lookup(active)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	ds, ok := h.Snapshot.Dataset(d.ID)
	if !ok {
		http.Error(w, fmt.Sprintf("Domain %s not loaded", d.ID), http.StatusNotFound)
		return
	}

	p := page{Domain: d.ID, Title: d.Title, Total: ds.Len(), LoadedAt: h.Snapshot.LoadedAt}
	for _, id := range ids {
		if td, err := h.Catalog.Lookup(id); err == nil {
			p.Tabs = append(p.Tabs, pageTab{ID: id, Title: td.Title, Active: id == d.ID})
		}
	}

	filter := aggregate.FilterFromParams(d, query)
	p.Rows = filter.Apply(ds).Len()

	// Only filter params are forwarded to chart and export URLs.
	forward := url.Values{}
	options := aggregate.FilterOptions(ds, d)
	for _, f := range d.Filters {
		selected := map[string]bool{}
		for _, v := range query[f.Param] {
			selected[v] = true
			forward.Add(f.Param, v)
		}
		pf := pageFilter{Param: f.Param, Label: f.Label}
		for _, o := range options[f.Param] {
			pf.Options = append(pf.Options, pageOption{Label: o.Label, Value: o.Value, Selected: selected[o.Value]})
		}
		p.Filters = append(p.Filters, pf)
	}

	qs := ""
	if len(forward) > 0 {
		qs = "?" + forward.Encode()
	}
	base := "/api/" + url.PathEscape(d.ID)
	for _, c := range d.Charts {
		p.Charts = append(p.Charts, pageChart{
			ID:    c.ID,
			Title: c.Title,
			Src:   base + "/charts/" + url.PathEscape(c.ID) + ".png" + qs,
		})
	}
	p.ExportURL = base + "/export.xlsx" + qs

	var buf bytes.Buffer
	if err := h.page.Execute(&buf, p); err != nil {
		h.Logger.Error().Err(err).Msg("rendering dashboard")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// ============================================================================
// Helpers
// ============================================================================

// lookup resolves the {domain} URL parameter, answering 404 when unknown.
func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*survey.Domain, *state.Dataset, bool) {
	d, err := h.Catalog.Lookup(chi.URLParam(r, "domain"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil, nil, false
	}
	ds, ok := h.Snapshot.Dataset(d.ID)
	if !ok {
		http.Error(w, fmt.Sprintf("Domain %s not loaded", d.ID), http.StatusNotFound)
		return nil, nil, false
	}
	return d, ds, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func getIntParam(r *http.Request, name string, defaultVal int) (int, error) {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 || n > MaxImageSize {
		return 0, fmt.Errorf("invalid %s: %q", name, val)
	}
	return n, nil
}
