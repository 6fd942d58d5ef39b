package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Domain metrics
	VotesTotal          *prometheus.CounterVec
	PostsCreatedTotal   prometheus.Counter
	CommentsCreated     prometheus.Counter
	ModerationRuns      *prometheus.CounterVec
	ModerationDuration  prometheus.Histogram
	ModerationToolCalls *prometheus.CounterVec
	ImageUploads        *prometheus.CounterVec

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all collectors on the default registry exactly once.
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "reddish_http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "route", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "reddish_http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "route"},
			),

			VotesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "reddish_votes_total",
					Help: "Vote toggles by target kind and resulting action",
				},
				[]string{"target", "action"},
			),
			PostsCreatedTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "reddish_posts_created_total",
				Help: "Posts created",
			}),
			CommentsCreated: promauto.NewCounter(prometheus.CounterOpts{
				Name: "reddish_comments_created_total",
				Help: "Comments created",
			}),
			ModerationRuns: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "reddish_moderation_runs_total",
					Help: "Moderation runs by outcome",
				},
				[]string{"outcome"},
			),
			ModerationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "reddish_moderation_duration_seconds",
				Help:    "Wall time of one moderation run",
				Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30},
			}),
			ModerationToolCalls: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "reddish_moderation_tool_calls_total",
					Help: "Tool calls requested by the moderation model",
				},
				[]string{"tool"},
			),
			ImageUploads: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "reddish_image_uploads_total",
					Help: "Image uploads by outcome",
				},
				[]string{"outcome"},
			),

			CacheHits: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "reddish_cache_hits_total",
					Help: "Cache hits by cache name",
				},
				[]string{"cache"},
			),
			CacheMisses: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "reddish_cache_misses_total",
					Help: "Cache misses by cache name",
				},
				[]string{"cache"},
			),
		}
	})
	return instance
}

// Get returns the singleton, initializing it on first use.
func Get() *Metrics {
	return Initialize()
}
