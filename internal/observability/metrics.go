package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PostsCreated counts successfully created posts.
	PostsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postboard_posts_created_total",
		Help: "Total number of posts created",
	})

	// PostsDeleted counts deleted posts.
	PostsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postboard_posts_deleted_total",
		Help: "Total number of posts deleted",
	})

	// CommentsCreated counts successfully created comments.
	CommentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postboard_comments_created_total",
		Help: "Total number of comments created",
	})

	// LikeToggles counts like toggles by resulting action ("like" or "unlike").
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postboard_like_toggles_total",
		Help: "Total number of like toggles by action",
	}, []string{"action"})

	// DomainErrors counts service failures by operation and error code.
	DomainErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postboard_domain_errors_total",
		Help: "Total number of service errors by operation and code",
	}, []string{"operation", "code"})

	// WebSocketConnections is the gauge of open realtime connections.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "postboard_websocket_connections",
		Help: "Number of active WebSocket connections",
	})

	// WebSocketDrops counts events dropped for slow websocket clients.
	WebSocketDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postboard_websocket_dropped_events_total",
		Help: "Total number of realtime events dropped due to backpressure",
	})

	// CacheResults counts cache lookups by outcome ("hit", "miss", "error").
	CacheResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postboard_cache_results_total",
		Help: "Cache lookups by outcome",
	}, []string{"outcome"})
)
