package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the prediction service.
type Metrics struct {
	Predictions        *prometheus.CounterVec // labels: category
	PredictionErrors   *prometheus.CounterVec // labels: kind={validation,missing_feature,artifacts,scaler,inference}
	PredictionDuration prometheus.Histogram
	PredictedRainfall  prometheus.Histogram
	ArtifactsLoaded    prometheus.Gauge
	PredictionCache    *prometheus.CounterVec // labels: result={hit,miss}

	// Kafka publishing and observation stream.
	EventsPublished      prometheus.Counter
	PublishErrors        prometheus.Counter
	ObservationsConsumed prometheus.Counter
	StreamRunning        prometheus.Gauge
	BatchSize            prometheus.Histogram
	BatchDuration        prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.Predictions,
		m.PredictionErrors,
		m.PredictionDuration,
		m.PredictedRainfall,
		m.ArtifactsLoaded,
		m.PredictionCache,
		m.EventsPublished,
		m.PublishErrors,
		m.ObservationsConsumed,
		m.StreamRunning,
		m.BatchSize,
		m.BatchDuration,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rain_hindcast",
			Name:      "predictions_total",
			Help:      "Successful predictions by rainfall category.",
		}, []string{"category"}),
		PredictionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rain_hindcast",
			Name:      "prediction_errors_total",
			Help:      "Failed predictions by error kind.",
		}, []string{"kind"}),
		PredictionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rain_hindcast",
			Name:      "prediction_duration_seconds",
			Help:      "Time spent scaling, evaluating and inverse-scaling one observation.",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
		PredictedRainfall: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rain_hindcast",
			Name:      "predicted_rainfall_mm",
			Help:      "Distribution of predicted 3-hour rainfall in millimetres.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 7.5, 10, 20, 50},
		}),
		ArtifactsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rain_hindcast",
			Name:      "artifacts_loaded",
			Help:      "1 when the model and scalers are loaded, 0 when the prediction path is disabled.",
		}),
		PredictionCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rain_hindcast",
			Name:      "prediction_cache_total",
			Help:      "Prediction cache lookups by result.",
		}, []string{"result"}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rain_hindcast",
			Name:      "events_published_total",
			Help:      "Prediction events written to Kafka.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rain_hindcast",
			Name:      "publish_errors_total",
			Help:      "Failed Kafka writes of prediction events.",
		}),
		ObservationsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rain_hindcast",
			Name:      "observations_consumed_total",
			Help:      "Observation messages read from the observation topic.",
		}),
		StreamRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rain_hindcast",
			Name:      "stream_running",
			Help:      "1 while the observation stream is active.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rain_hindcast",
			Name:      "batch_size",
			Help:      "Number of observations per batch read from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rain_hindcast",
			Name:      "batch_processing_duration_seconds",
			Help:      "Time from receiving a batch to committing its offsets.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}
