package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "artifacts/rf_me48_model.json", cfg.ModelPath)
	assert.Equal(t, "artifacts/scaler_X_me48.json", cfg.ScalerXPath)
	assert.Equal(t, "artifacts/scaler_y_me48.json", cfg.ScalerYPath)
	assert.Empty(t, cfg.FeatureImportancePath)
	assert.Equal(t, 256, cfg.PredictionCacheSize)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "rainfall-predictions", cfg.KafkaPredictionTopic)
	assert.Empty(t, cfg.KafkaObservationTopic)
	assert.Equal(t, "rain-hindcast", cfg.KafkaGroupID)
	assert.Equal(t, 5*time.Second, cfg.KafkaWriteTimeout)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)
	assert.False(t, cfg.StreamEnabled())
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("MODEL_PATH", "/models/rf.yaml")
	t.Setenv("SCALER_X_PATH", "/models/x.yaml")
	t.Setenv("SCALER_Y_PATH", "/models/y.yaml")
	t.Setenv("FEATURE_IMPORTANCE_PATH", "/models/importance.png")
	t.Setenv("PREDICTION_CACHE_SIZE", "0")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_PREDICTION_TOPIC", "custom-predictions")
	t.Setenv("KAFKA_OBSERVATION_TOPIC", "me48-observations")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("KAFKA_WRITE_TIMEOUT", "2s")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "/models/rf.yaml", cfg.ModelPath)
	assert.Equal(t, "/models/x.yaml", cfg.ScalerXPath)
	assert.Equal(t, "/models/y.yaml", cfg.ScalerYPath)
	assert.Equal(t, "/models/importance.png", cfg.FeatureImportancePath)
	assert.Equal(t, 0, cfg.PredictionCacheSize)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-predictions", cfg.KafkaPredictionTopic)
	assert.Equal(t, "me48-observations", cfg.KafkaObservationTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, 2*time.Second, cfg.KafkaWriteTimeout)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, time.Second, cfg.BatchFlushInterval)
	assert.True(t, cfg.StreamEnabled())
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidKafkaWriteTimeout(t *testing.T) {
	t.Setenv("KAFKA_WRITE_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_WRITE_TIMEOUT")
}

func TestLoad_InvalidBatchSize(t *testing.T) {
	t.Setenv("BATCH_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_InvalidCacheSize(t *testing.T) {
	for _, v := range []string{"-1", "lots"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("PREDICTION_CACHE_SIZE", v)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "PREDICTION_CACHE_SIZE")
		})
	}
}

func TestLoad_ObservationTopicRequiresKafka(t *testing.T) {
	t.Setenv("KAFKA_OBSERVATION_TOPIC", "me48-observations")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_ENABLED")
}
