package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/rainfall-hindcast-service/internal/domain"
	"github.com/couchcryptid/rainfall-hindcast-service/internal/observability"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Publisher forwards a completed prediction, e.g. to Kafka.
type Publisher interface {
	Publish(ctx context.Context, p domain.Prediction) error
}

// Predictor runs the order → scale → predict → inverse-scale → clamp →
// categorize chain against the cached artifacts.
type Predictor struct {
	artifacts *ArtifactHolder
	cache     *lru.Cache[string, float64]
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	newID     func() string
}

// NewPredictor creates a Predictor. A cacheSize of 0 disables the prediction
// cache; a nil publisher disables publishing.
func NewPredictor(artifacts *ArtifactHolder, publisher Publisher, cacheSize int, logger *slog.Logger, metrics *observability.Metrics) (*Predictor, error) {
	p := &Predictor{
		artifacts: artifacts,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		newID:     uuid.NewString,
	}
	if cacheSize > 0 {
		cache, err := lru.New[string, float64](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create prediction cache: %w", err)
		}
		p.cache = cache
	}
	return p, nil
}

// CheckReadiness returns nil once the artifacts are loaded.
func (p *Predictor) CheckReadiness(ctx context.Context) error {
	return p.artifacts.CheckReadiness(ctx)
}

// FeatureOrder returns the scaler's feature order, or nil when the artifacts
// are unavailable.
func (p *Predictor) FeatureOrder() []string {
	arts, err := p.artifacts.Get()
	if err != nil {
		return nil
	}
	return arts.Order.Names()
}

// Predict runs the pipeline for a typed observation and publishes the result.
func (p *Predictor) Predict(ctx context.Context, obs domain.Observation) (domain.Prediction, error) {
	arts, err := p.artifacts.Get()
	if err != nil {
		return domain.Prediction{}, p.fail(err)
	}

	pred, err := p.predict(arts, arts.Order.Vector(obs), obs, "")
	if err != nil {
		return domain.Prediction{}, err
	}
	p.publish(ctx, pred)
	return pred, nil
}

// PredictFeatures runs the pipeline for named values and publishes the result.
// Every name in the scaler's feature order must be present.
func (p *Predictor) PredictFeatures(ctx context.Context, values domain.FeatureSet) (domain.Prediction, error) {
	pred, err := p.Hindcast(values, "")
	if err != nil {
		return domain.Prediction{}, err
	}
	p.publish(ctx, pred)
	return pred, nil
}

// Hindcast runs the pipeline for named values without publishing. The
// observation ID, if any, is carried into the prediction.
func (p *Predictor) Hindcast(values domain.FeatureSet, observationID string) (domain.Prediction, error) {
	arts, err := p.artifacts.Get()
	if err != nil {
		return domain.Prediction{}, p.fail(err)
	}

	vec, err := domain.OrderFeatures(values, arts.XScaler.FeatureNames)
	if err != nil {
		return domain.Prediction{}, p.fail(err)
	}
	obs, err := domain.ObservationFromFeatures(values)
	if err != nil {
		return domain.Prediction{}, p.fail(err)
	}

	return p.predict(arts, vec, obs, observationID)
}

// Evaluate turns an ordered feature vector into a clamped rainfall value in mm.
func (p *Predictor) Evaluate(vec domain.FeatureVector) (float64, error) {
	arts, err := p.artifacts.Get()
	if err != nil {
		return 0, p.fail(err)
	}
	mm, err := p.evaluate(arts, vec)
	if err != nil {
		return 0, p.fail(err)
	}
	return mm, nil
}

func (p *Predictor) predict(arts *Artifacts, vec domain.FeatureVector, obs domain.Observation, observationID string) (domain.Prediction, error) {
	start := time.Now()
	mm, err := p.evaluate(arts, vec)
	if err != nil {
		return domain.Prediction{}, p.fail(err)
	}
	p.metrics.PredictionDuration.Observe(time.Since(start).Seconds())

	pred := domain.NewPrediction(p.newID(), mm, obs)
	pred.ObservationID = observationID

	p.metrics.Predictions.WithLabelValues(string(pred.Category)).Inc()
	p.metrics.PredictedRainfall.Observe(pred.RainfallMM)
	p.logger.Debug("prediction",
		"id", pred.ID,
		"rainfall_mm", pred.RainfallMM,
		"category", pred.Category,
	)
	return pred, nil
}

func (p *Predictor) evaluate(arts *Artifacts, vec domain.FeatureVector) (float64, error) {
	var key string
	if p.cache != nil {
		key = vectorKey(vec)
		if mm, ok := p.cache.Get(key); ok {
			p.metrics.PredictionCache.WithLabelValues("hit").Inc()
			return mm, nil
		}
		p.metrics.PredictionCache.WithLabelValues("miss").Inc()
	}

	scaled, err := arts.XScaler.Transform(vec)
	if err != nil {
		return 0, &domain.ScalerError{Op: "transform", Err: err}
	}

	y, err := arts.Model.Predict(scaled)
	if err != nil {
		return 0, &domain.InferenceError{Err: err}
	}

	raw, err := arts.YScaler.InverseTransform([]float64{y})
	if err != nil {
		return 0, &domain.ScalerError{Op: "inverse_transform", Err: err}
	}
	if len(raw) != 1 || math.IsNaN(raw[0]) || math.IsInf(raw[0], 0) {
		return 0, &domain.InferenceError{Err: fmt.Errorf("invalid inverse-scaled output %v", raw)}
	}

	mm := domain.ClampRainfall(raw[0])
	if p.cache != nil {
		p.cache.Add(key, mm)
	}
	return mm, nil
}

func (p *Predictor) publish(ctx context.Context, pred domain.Prediction) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, pred); err != nil {
		p.metrics.PublishErrors.Inc()
		p.logger.Warn("publish prediction failed", "error", err, "id", pred.ID)
		return
	}
	p.metrics.EventsPublished.Inc()
}

// fail counts and returns err unchanged.
func (p *Predictor) fail(err error) error {
	p.metrics.PredictionErrors.WithLabelValues(ErrorKind(err)).Inc()
	return err
}

// ErrorKind classifies a prediction error for metrics and logging.
func ErrorKind(err error) string {
	var (
		missing   *domain.MissingFeatureError
		invalid   *domain.ValidationError
		scalerErr *domain.ScalerError
		inferErr  *domain.InferenceError
	)
	switch {
	case errors.Is(err, domain.ErrArtifactsUnavailable):
		return "artifacts"
	case errors.As(err, &missing):
		return "missing_feature"
	case errors.As(err, &invalid):
		return "validation"
	case errors.As(err, &scalerErr):
		return "scaler"
	case errors.As(err, &inferErr):
		return "inference"
	default:
		return "unknown"
	}
}

// vectorKey encodes the exact bit patterns of a vector for cache lookups.
func vectorKey(vec domain.FeatureVector) string {
	var b strings.Builder
	b.Grow(len(vec) * 17)
	for i, v := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatUint(math.Float64bits(v), 16))
	}
	return b.String()
}
