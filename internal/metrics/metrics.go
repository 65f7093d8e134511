package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"thronebutt-scraper/internal/crawler"
	"thronebutt-scraper/internal/models"
)

var (
	PagesFetched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thronebutt_pages_fetched_total",
			Help: "Leaderboard pages fetched, labeled by category.",
		},
		[]string{"category"},
	)
	PagesParsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thronebutt_pages_parsed_total",
			Help: "Leaderboard pages parsed, labeled by page state.",
		},
		[]string{"state"},
	)
	PlatesSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "thronebutt_plates_skipped_total",
			Help: "Score plates dropped because their markup could not be read.",
		},
	)
	Participants = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "thronebutt_participants_total",
			Help: "Participant records extracted.",
		},
	)
	FetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "thronebutt_fetch_duration_seconds",
			Help:    "Duration of leaderboard page fetches in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
	Runs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thronebutt_runs_total",
			Help: "Race fetches, labeled by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(PagesFetched)
	prometheus.MustRegister(PagesParsed)
	prometheus.MustRegister(PlatesSkipped)
	prometheus.MustRegister(Participants)
	prometheus.MustRegister(FetchDuration)
	prometheus.MustRegister(Runs)
}

func Handler() http.Handler { return promhttp.Handler() }

func ExposeMetrics(addr string) {
	slog.Info("Exposing Prometheus metrics", "address", addr)
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("Failed to start Prometheus metrics server", "error", err)
	}
}

// Observer feeds pager events into the collectors above.
type Observer struct{}

func (Observer) AddressBuilt(models.RaceQuery, string) {}

func (Observer) PageFetched(q models.RaceQuery, _ string, res crawler.Response) {
	PagesFetched.WithLabelValues(string(q.Category)).Inc()
	FetchDuration.Observe(res.Elapsed.Seconds())
}

func (Observer) PageParsed(_ models.RaceQuery, page models.Page) {
	PagesParsed.WithLabelValues(string(page.State)).Inc()
	PlatesSkipped.Add(float64(page.Skipped))
}

func (Observer) RecordExtracted(models.RaceQuery, models.Participant) {
	Participants.Inc()
}

func (Observer) RunFinished(_ models.RaceQuery, _, _ int, err error) {
	if err != nil {
		Runs.WithLabelValues("error").Inc()
		return
	}
	Runs.WithLabelValues("ok").Inc()
}
