// Package metrics holds the bridge's prometheus collectors on a private
// registry, exposed at /metrics on the push listener or on the standalone
// metrics address for pull-only deployments.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	StreamConnectAttempts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "agentlink_stream_connect_attempts_total",
		Help: "Total number of pull-stream connection attempts",
	})
	StreamConnects = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "agentlink_stream_connects_total",
		Help: "Total number of successful pull-stream connections",
	})
	StreamConnected = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "agentlink_stream_connected",
		Help: "Whether the pull stream is currently connected (1 or 0)",
	})
	FramesDecoded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agentlink_stream_frames_total",
		Help: "Total number of decoded stream frames by event name",
	}, []string{"event"})
	FrameDecodeErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "agentlink_stream_frame_decode_errors_total",
		Help: "Total number of frames whose JSON payload failed to parse",
	})
	CursorSaves = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "agentlink_cursor_saves_total",
		Help: "Total number of checkpoint writes attempted",
	})
	CursorSaveFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "agentlink_cursor_save_failures_total",
		Help: "Total number of checkpoint writes that failed (best-effort, non-fatal)",
	})
	TriggerInvocations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agentlink_trigger_invocations_total",
		Help: "Total number of agent invocations by source (push or pull)",
	}, []string{"source"})
	TriggerFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agentlink_trigger_failures_total",
		Help: "Total number of agent invocations that failed or timed out, by source",
	}, []string{"source"})
	TriggerDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "agentlink_trigger_duration_seconds",
		Help:    "Duration of agent invocations in seconds",
		Buckets: prometheus.DefBuckets,
	})
	PushRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agentlink_push_requests_total",
		Help: "Total number of push webhook requests by response status",
	}, []string{"status"})
)

var registry = prometheus.NewRegistry()

func init() {
	registry.MustRegister(
		StreamConnectAttempts,
		StreamConnects,
		StreamConnected,
		FramesDecoded,
		FrameDecodeErrors,
		CursorSaves,
		CursorSaveFailures,
		TriggerInvocations,
		TriggerFailures,
		TriggerDuration,
		PushRequests,
	)
}

// Handler serves the registry in the prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
