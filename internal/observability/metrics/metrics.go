// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "voice_relay"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Relay metrics
	SubscribersActive  *prometheus.GaugeVec
	PublishesTotal     *prometheus.CounterVec
	DeliveryFailures   *prometheus.CounterVec
	AudioBytesRelayed  prometheus.Counter
	AudioChunksRelayed prometheus.Counter

	// Ingestion metrics
	SessionsStarted   prometheus.Counter
	SessionsFinalized prometheus.Counter
	SessionsAborted   prometheus.Counter
	UploadBytes       prometheus.Counter

	// Pipeline metrics
	PipelineRuns     prometheus.Counter
	PipelineDuration prometheus.Histogram
	StageErrors      *prometheus.CounterVec

	// Adapter metrics
	ASRLatency *prometheus.HistogramVec
	TTSLatency prometheus.Histogram

	// Kafka publish metrics
	KafkaPublishTotal  *prometheus.CounterVec
	KafkaPublishErrors *prometheus.CounterVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		SubscribersActive: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscribers_active",
			Help:      "Number of currently registered topic subscribers",
		}, []string{"topic"}),
		PublishesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publishes_total",
			Help:      "Total number of fan-out publish calls",
		}, []string{"topic"}),
		DeliveryFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_failures_total",
			Help:      "Total number of per-subscriber send failures (swallowed)",
		}, []string{"topic"}),
		AudioBytesRelayed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_relayed_total",
			Help:      "Total synthesized audio bytes fanned out",
		}),
		AudioChunksRelayed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_chunks_relayed_total",
			Help:      "Total synthesized audio chunks fanned out",
		}),

		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_sessions_started_total",
			Help:      "Total ingestion sessions begun",
		}),
		SessionsFinalized: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_sessions_finalized_total",
			Help:      "Total ingestion sessions finalized by a stop frame",
		}),
		SessionsAborted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_sessions_aborted_total",
			Help:      "Total ingestion sessions aborted before finalize",
		}),
		UploadBytes: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_bytes_total",
			Help:      "Total uploaded audio bytes buffered",
		}),

		PipelineRuns: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Total on-stop pipeline executions",
		}),
		PipelineDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Duration of on-stop pipeline executions in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		StageErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_stage_errors_total",
			Help:      "Total pipeline stage failures (degraded, not fatal)",
		}, []string{"stage"}),

		ASRLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "asr_latency_seconds",
			Help:      "Transcription request latency in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"provider"}),
		TTSLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tts_latency_seconds",
			Help:      "Time from synthesis request to last streamed chunk",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic"}),
	}
}

// RecordSubscribe records a subscriber joining a topic.
func (m *Metrics) RecordSubscribe(topic string) {
	m.SubscribersActive.WithLabelValues(topic).Inc()
}

// RecordUnsubscribe records a subscriber leaving a topic.
func (m *Metrics) RecordUnsubscribe(topic string) {
	m.SubscribersActive.WithLabelValues(topic).Dec()
}

// RecordPublish records one fan-out publish call.
func (m *Metrics) RecordPublish(topic string) {
	m.PublishesTotal.WithLabelValues(topic).Inc()
}

// RecordDeliveryFailure records a swallowed per-subscriber send failure.
func (m *Metrics) RecordDeliveryFailure(topic string) {
	m.DeliveryFailures.WithLabelValues(topic).Inc()
}

// RecordAudioPublished records one relayed audio chunk.
func (m *Metrics) RecordAudioPublished(bytes int) {
	m.AudioChunksRelayed.Inc()
	m.AudioBytesRelayed.Add(float64(bytes))
}

// RecordUploadBytes records buffered upload bytes.
func (m *Metrics) RecordUploadBytes(bytes int) {
	m.UploadBytes.Add(float64(bytes))
}

// RecordPipelineRun records one completed pipeline execution.
func (m *Metrics) RecordPipelineRun(durationSeconds float64) {
	m.PipelineRuns.Inc()
	m.PipelineDuration.Observe(durationSeconds)
}

// RecordStageError records a degraded pipeline stage.
func (m *Metrics) RecordStageError(stage string) {
	m.StageErrors.WithLabelValues(stage).Inc()
}

// RecordASRLatency records one transcription round trip.
func (m *Metrics) RecordASRLatency(provider string, seconds float64) {
	m.ASRLatency.WithLabelValues(provider).Observe(seconds)
}

// RecordTTSLatency records one synthesis stream duration.
func (m *Metrics) RecordTTSLatency(seconds float64) {
	m.TTSLatency.Observe(seconds)
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic string, err error) {
	m.KafkaPublishTotal.WithLabelValues(topic).Inc()
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic).Inc()
	}
}
