package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	// Tool dispatch metrics
	ToolCalls        *prometheus.CounterVec
	ToolCallDuration *prometheus.HistogramVec

	// Session store reference for dynamic metrics
	sessions *SessionService
}

// InitMetrics registers the tool host metrics on reg. Pass
// prometheus.DefaultRegisterer to expose them next to the HTTP metrics.
func InitMetrics(reg prometheus.Registerer, sessions *SessionService) *Metrics {
	factory := promauto.With(reg)

	metrics := &Metrics{
		sessions: sessions,

		// Tool calls by outcome ("ok" or an error category)
		ToolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "toolhost_tool_calls_total",
			Help: "Total number of tool calls by tool and outcome",
		}, []string{"tool", "outcome"}),

		ToolCallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "toolhost_tool_call_duration_seconds",
			Help:    "Tool call latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"tool"}),
	}

	// Sessions are read from the store at scrape time
	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "toolhost_sessions_active",
			Help: "Current number of working-memory sessions held in memory",
		},
		func() float64 {
			if sessions != nil {
				return float64(sessions.Count())
			}
			return 0
		},
	)

	return metrics
}

// ObserveToolCall records one dispatched tool call.
func (m *Metrics) ObserveToolCall(tool, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ToolCalls.WithLabelValues(tool, outcome).Inc()
	m.ToolCallDuration.WithLabelValues(tool).Observe(duration.Seconds())
}
