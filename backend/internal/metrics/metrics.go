// Package metrics exposes Prometheus metrics for the HTTP API and the memory
// service on a private registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "memory-graph/backend/pkg/errors"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Business metrics
	MemoriesCreated prometheus.Counter
	MemoriesUpdated prometheus.Counter
	MemoriesDeleted prometheus.Counter
	GraphNodes      prometheus.Histogram

	// Service operation metrics
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

// NewCollector creates a collector with its own registry. Process and Go
// runtime collectors are included when withRuntime is set.
func NewCollector(namespace string, withRuntime bool) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		MemoriesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memories_created_total",
			Help:      "Total number of memories created",
		}),
		MemoriesUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memories_updated_total",
			Help:      "Total number of memories updated",
		}),
		MemoriesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memories_deleted_total",
			Help:      "Total number of memories deleted",
		}),
		GraphNodes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graph_layout_nodes",
			Help:      "Number of nodes per graph layout",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 11),
		}),
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "memory_operations_total",
				Help:      "Total number of memory service operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "memory_operation_duration_seconds",
				Help:      "Memory service operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}

	c.registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.MemoriesCreated,
		c.MemoriesUpdated,
		c.MemoriesDeleted,
		c.GraphNodes,
		c.Operations,
		c.OperationDuration,
	)
	if withRuntime {
		c.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return c
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Middleware records a request count and duration per route template
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		c.HTTPRequests.WithLabelValues(ctx.Request.Method, route, strconv.Itoa(ctx.Writer.Status())).Inc()
		c.HTTPDuration.WithLabelValues(ctx.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// RecordOperation counts one service operation and its duration. The outcome
// label is "ok" or the error category.
func (c *Collector) RecordOperation(operation string, duration time.Duration, err error) {
	c.Operations.WithLabelValues(operation, Outcome(err)).Inc()
	c.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())

	if err != nil {
		return
	}
	switch operation {
	case "create":
		c.MemoriesCreated.Inc()
	case "update", "link":
		c.MemoriesUpdated.Inc()
	case "remove":
		c.MemoriesDeleted.Inc()
	}
}

// RecordGraph observes the node count of a computed layout
func (c *Collector) RecordGraph(nodes int) {
	c.GraphNodes.Observe(float64(nodes))
}

// Outcome maps an error to a low-cardinality label value
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case apperrors.IsValidation(err):
		return string(apperrors.ErrorTypeValidation)
	case apperrors.IsNotFound(err):
		return string(apperrors.ErrorTypeNotFound)
	case apperrors.IsErrorType(err, apperrors.ErrorTypeUnavailable):
		return string(apperrors.ErrorTypeUnavailable)
	case apperrors.IsErrorType(err, apperrors.ErrorTypeContext):
		return string(apperrors.ErrorTypeContext)
	default:
		return "error"
	}
}
