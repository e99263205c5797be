package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RowsLoaded = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "survey_dashboard_rows_loaded",
		Help: "Rows loaded per domain and table at startup",
	}, []string{"domain", "table"})

	JoinMatchedRatio = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "survey_dashboard_join_matched_ratio",
		Help: "Share of response rows that found a match in a left join",
	}, []string{"domain", "join"})

	SummaryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "survey_dashboard_summary_duration_seconds",
		Help:    "Duration of chart summary aggregation",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"domain", "kind"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "survey_dashboard_http_requests_total",
		Help: "The total number of HTTP requests by route pattern and status",
	}, []string{"route", "status"})
)
