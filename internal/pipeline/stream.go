package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/rainfall-hindcast-service/internal/domain"
	"github.com/couchcryptid/rainfall-hindcast-service/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
)

// BatchExtractor reads up to batchSize raw observations from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawObservation, error)
}

// Hindcaster turns named feature values into a prediction without side effects.
type Hindcaster interface {
	Hindcast(values domain.FeatureSet, observationID string) (domain.Prediction, error)
}

// BatchLoader writes multiple predictions to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, predictions []domain.Prediction) error
}

// Stream hindcasts observations read from Kafka in batches and writes the
// predictions back out.
type Stream struct {
	extractor  BatchExtractor
	hindcaster Hindcaster
	loader     BatchLoader
	logger     *slog.Logger
	metrics    *observability.Metrics
	batchSize  int
}

// NewStream creates a Stream with the given stages and observability.
func NewStream(e BatchExtractor, h Hindcaster, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Stream {
	return &Stream{
		extractor:  e,
		hindcaster: h,
		loader:     l,
		logger:     logger,
		metrics:    metrics,
		batchSize:  batchSize,
	}
}

// Run executes the batch loop until the context is cancelled.
func (s *Stream) Run(ctx context.Context) error {
	s.logger.Info("observation stream started", "batch_size", s.batchSize)
	s.metrics.StreamRunning.Set(1)
	defer s.metrics.StreamRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("observation stream stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !s.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one extract-predict-load cycle. Returns false if the stream should stop.
func (s *Stream) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	rawBatch, err := s.extractor.ExtractBatch(ctx, s.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		s.logger.Error("extract batch failed", "error", err)
		return s.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	s.metrics.ObservationsConsumed.Add(float64(len(rawBatch)))
	s.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = 200 * time.Millisecond

	return s.predictAndLoad(ctx, rawBatch, backoff, maxBackoff)
}

// predictAndLoad hindcasts each message in the batch, loads the successes,
// and commits offsets. Messages that cannot be predicted are committed and
// skipped: the failure is deterministic, so redelivery would fail again.
func (s *Stream) predictAndLoad(ctx context.Context, rawBatch []domain.RawObservation, backoff *time.Duration, maxBackoff time.Duration) bool {
	start := time.Now()
	outBatch := make([]domain.Prediction, 0, len(rawBatch))
	successfulRaws := make([]domain.RawObservation, 0, len(rawBatch))

	for _, raw := range rawBatch {
		pred, err := s.hindcast(raw)
		if err != nil {
			s.logger.Warn("hindcast failed, skipping message",
				"error", err,
				"kind", ErrorKind(err),
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			s.commitOffset(ctx, raw)
			continue
		}
		outBatch = append(outBatch, pred)
		successfulRaws = append(successfulRaws, raw)
	}

	if len(outBatch) == 0 {
		s.metrics.BatchDuration.Observe(time.Since(start).Seconds())
		return true
	}

	if err := s.loader.LoadBatch(ctx, outBatch); err != nil {
		s.metrics.PublishErrors.Inc()
		s.logger.Error("load batch failed", "error", err, "batch_size", len(outBatch))
		return s.backoffOrStop(ctx, backoff, maxBackoff)
	}

	s.metrics.EventsPublished.Add(float64(len(outBatch)))

	for _, raw := range successfulRaws {
		s.commitOffset(ctx, raw)
	}
	s.metrics.BatchDuration.Observe(time.Since(start).Seconds())
	return true
}

func (s *Stream) hindcast(raw domain.RawObservation) (domain.Prediction, error) {
	values, err := domain.ParseRawObservation(raw)
	if err != nil {
		s.metrics.PredictionErrors.WithLabelValues("parse").Inc()
		return domain.Prediction{}, err
	}
	return s.hindcaster.Hindcast(values, string(raw.Key))
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the stream should stop.
func (s *Stream) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !retry.SleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = retry.NextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (s *Stream) commitOffset(ctx context.Context, raw domain.RawObservation) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		s.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}
