package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/couchcryptid/rainfall-hindcast-service/internal/domain"
	"github.com/couchcryptid/rainfall-hindcast-service/internal/model"
	"github.com/couchcryptid/rainfall-hindcast-service/internal/observability"
	"github.com/couchcryptid/rainfall-hindcast-service/internal/pipeline"
	"github.com/stretchr/testify/require"
)

// reversedOrder is a scaler feature order that differs from the form order.
var reversedOrder = func() []string {
	names := domain.FeatureNames()
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return names
}()

// stubRegressor records every vector it sees and answers with fn.
type stubRegressor struct {
	n   int
	fn  func(x []float64) (float64, error)
	mu  sync.Mutex
	got [][]float64
}

func (r *stubRegressor) NumFeatures() int { return r.n }

func (r *stubRegressor) Predict(x []float64) (float64, error) {
	r.mu.Lock()
	r.got = append(r.got, append([]float64(nil), x...))
	r.mu.Unlock()
	return r.fn(x)
}

func (r *stubRegressor) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}

// firstFeature answers with the first (scaled) feature.
func firstFeature(x []float64) (float64, error) { return x[0], nil }

func constant(v float64) func([]float64) (float64, error) {
	return func([]float64) (float64, error) { return v, nil }
}

type stubLoader struct {
	arts  *model.Artifacts
	err   error
	mu    sync.Mutex
	loads int
}

func (l *stubLoader) Load() (*model.Artifacts, error) {
	l.mu.Lock()
	l.loads++
	l.mu.Unlock()
	return l.arts, l.err
}

// identityArtifacts wires identity scalers around the given regressor.
func identityArtifacts(order []string, reg model.Regressor) *model.Artifacts {
	return &model.Artifacts{
		Model:   reg,
		XScaler: &model.FeatureScaler{Scaler: model.IdentityScaler{N: len(order)}, FeatureNames: order},
		YScaler: model.IdentityScaler{N: 1},
	}
}

type recordingPublisher struct {
	err       error
	published []domain.Prediction
}

func (p *recordingPublisher) Publish(_ context.Context, pred domain.Prediction) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, pred)
	return nil
}

var errPublish = errors.New("broker unavailable")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPredictor(t *testing.T, loader pipeline.ArtifactLoader, cacheSize int, pub pipeline.Publisher) (*pipeline.Predictor, *observability.Metrics) {
	t.Helper()
	metrics := observability.NewMetricsForTesting()
	holder := pipeline.NewArtifactHolder(loader, discardLogger(), metrics)
	p, err := pipeline.NewPredictor(holder, pub, cacheSize, discardLogger(), metrics)
	require.NoError(t, err)
	return p, metrics
}
