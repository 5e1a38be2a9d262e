package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	CallsPlaced             *prometheus.CounterVec
	QuestionsDelivered      prometheus.Counter
	DeliveryPollTicks       prometheus.Counter
	AttributeReadFailures   prometheus.Counter
	DeliveryDuration        prometheus.Histogram
	TranscriptionOutcomes   *prometheus.CounterVec
	TranscriptionDuration   prometheus.Histogram
	RecordingDiscoveryPolls prometheus.Counter
	DocumentsWritten        *prometheus.CounterVec
	ActiveSessions          prometheus.Gauge
	PlatformCallDuration    *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		CallsPlaced: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "interview_calls_placed_total",
			Help: "Total number of outbound interview calls placed",
		}, []string{"outcome"}),
		QuestionsDelivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "interview_questions_delivered_total",
			Help: "Total number of questions pushed to the contact flow",
		}),
		DeliveryPollTicks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "interview_delivery_poll_ticks_total",
			Help: "Total number of acknowledgement poll ticks",
		}),
		AttributeReadFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "interview_attribute_read_failures_total",
			Help: "Total number of contact attribute reads that returned nothing",
		}),
		DeliveryDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "interview_delivery_duration_seconds",
			Help:    "Time spent in the question delivery loop",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		TranscriptionOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "interview_transcription_outcomes_total",
			Help: "Terminal outcomes of transcription jobs",
		}, []string{"outcome"}),
		TranscriptionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "interview_transcription_duration_seconds",
			Help:    "Time from recording discovery to transcript text",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		RecordingDiscoveryPolls: promauto.NewCounter(prometheus.CounterOpts{
			Name: "interview_recording_discovery_polls_total",
			Help: "Total number of S3 listings while waiting for a recording",
		}),
		DocumentsWritten: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "interview_documents_written_total",
			Help: "Knowledge documents persisted",
		}, []string{"kind"}),
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "interview_active_sessions",
			Help: "Number of live interview sessions (0 or 1)",
		}),
		PlatformCallDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "interview_platform_call_duration_seconds",
			Help:    "Time taken by telephony platform operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}
