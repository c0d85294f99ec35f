package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the client.
type Metrics struct {
	SocketTransitions *prometheus.CounterVec
	Reconnects        prometheus.Counter
	WSMessages        *prometheus.CounterVec
	DroppedFrames     prometheus.Counter
	SessionEvents     *prometheus.CounterVec
	AudioChunksSent   prometheus.Counter
	MicLevel          prometheus.Gauge
	APIRequests       *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		SocketTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "socket_transitions_total",
			Help:      "Transcript socket state transitions by target state.",
		}, []string{"state"}),
		Reconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "socket_reconnects_total",
			Help:      "Reconnect attempts scheduled after transport loss.",
		}),
		WSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket messages by direction and type.",
		}, []string{"direction", "type"}),
		DroppedFrames: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_frames_total",
			Help:      "Inbound frames dropped as malformed.",
		}),
		SessionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Meeting session lifecycle events by type.",
		}, []string{"event"}),
		AudioChunksSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_chunks_sent_total",
			Help:      "Raw audio chunks sent over the transcript socket.",
		}),
		MicLevel: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mic_level",
			Help:      "Most recent sampled microphone RMS level in [0,1].",
		}),
		APIRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Backend API requests by path and status class.",
		}, []string{"path", "class"}),
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
