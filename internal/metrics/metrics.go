package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	swipesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kindred_swipes_total",
			Help: "Total number of swipes recorded",
		},
		[]string{"type"},
	)

	matchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kindred_matches_total",
			Help: "Total number of matches created",
		},
	)

	unmatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kindred_unmatches_total",
			Help: "Total number of matches deactivated",
		},
	)

	messagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kindred_messages_sent_total",
			Help: "Total number of messages sent",
		},
	)

	messagesPurgedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kindred_messages_purged_total",
			Help: "Total number of messages removed by retention or purge",
		},
	)

	feedLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kindred_feed_duration_seconds",
			Help:    "Time spent assembling a ranked candidate feed",
			Buckets: prometheus.DefBuckets,
		},
	)

	compatibilityScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kindred_compatibility_scores",
			Help:    "Distribution of computed compatibility scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)
)

func RecordSwipe(typ string) {
	swipesTotal.WithLabelValues(typ).Inc()
}

func RecordMatch() {
	matchesTotal.Inc()
}

func RecordUnmatch() {
	unmatchesTotal.Inc()
}

func RecordMessage() {
	messagesTotal.Inc()
}

func AddPurgedMessages(n int64) {
	messagesPurgedTotal.Add(float64(n))
}

func ObserveFeedDuration(d time.Duration) {
	feedLatency.Observe(d.Seconds())
}

func ObserveCompatibilityScore(score int) {
	compatibilityScores.Observe(float64(score))
}

// Handler exposes the Prometheus scrape endpoint for the ops listener.
func Handler() http.Handler {
	return promhttp.Handler()
}
