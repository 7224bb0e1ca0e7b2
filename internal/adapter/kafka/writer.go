package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/rainfall-hindcast-service/internal/config"
	"github.com/couchcryptid/rainfall-hindcast-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces prediction messages to a Kafka topic.
// It implements pipeline.Publisher and pipeline.BatchLoader.
type Writer struct {
	writer  *kafkago.Writer
	logger  *slog.Logger
	timeout time.Duration
}

// NewWriter creates a Kafka producer for the configured prediction topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaPredictionTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		WriteTimeout: cfg.KafkaWriteTimeout,
	}
	return &Writer{writer: w, logger: logger, timeout: cfg.KafkaWriteTimeout}
}

// Publish writes a single prediction. The call is bounded by the configured
// write timeout so a slow broker cannot stall an HTTP request.
func (w *Writer) Publish(ctx context.Context, p domain.Prediction) error {
	msg, err := serializeToMessage(p)
	if err != nil {
		return err
	}
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish prediction %s: %w", p.ID, err)
	}
	return nil
}

// LoadBatch serializes and publishes predictions in a single WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, predictions []domain.Prediction) error {
	if len(predictions) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(predictions))
	for i := range predictions {
		msg, err := serializeToMessage(predictions[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Prediction into a Kafka message keyed by
// prediction ID.
func serializeToMessage(p domain.Prediction) (kafkago.Message, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize prediction: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(p.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "category", Value: []byte(p.Category)},
			{Key: "predicted_at", Value: []byte(p.PredictedAt.Format(time.RFC3339))},
		},
	}, nil
}
