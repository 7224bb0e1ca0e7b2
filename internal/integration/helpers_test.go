//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/couchcryptid/rainfall-hindcast-service/internal/domain"
	"github.com/couchcryptid/rainfall-hindcast-service/internal/model"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const kafkaImage = "confluentinc/confluent-local:7.5.0"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node KRaft broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, kafkaImage, tckafka.WithClusterID("rain-hindcast-test"))
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// writeArtifacts writes identity scalers around a linear model that predicts
// one tenth of the present weather code in mm.
func writeArtifacts(t *testing.T) model.Paths {
	t.Helper()
	dir := t.TempDir()
	names := domain.FeatureNames()

	coef := make([]float64, len(names))
	for i, name := range names {
		if name == domain.FeaturePresentWeather {
			coef[i] = 0.1
		}
	}

	paths := model.Paths{
		Model:   filepath.Join(dir, "rf_me48_model.json"),
		XScaler: filepath.Join(dir, "scaler_X_me48.json"),
		YScaler: filepath.Join(dir, "scaler_y_me48.json"),
	}
	require.NoError(t, model.WriteFile(paths.Model, model.ModelFile{Kind: model.KindLinear, NFeatures: len(names), Coef: coef}))
	require.NoError(t, model.WriteFile(paths.XScaler, model.ScalerFile{Kind: model.KindIdentity, NFeatures: len(names), FeatureNames: names}))
	require.NoError(t, model.WriteFile(paths.YScaler, model.ScalerFile{Kind: model.KindIdentity, NFeatures: 1}))
	return paths
}
