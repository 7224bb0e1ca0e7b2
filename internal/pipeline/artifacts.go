package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/couchcryptid/rainfall-hindcast-service/internal/domain"
	"github.com/couchcryptid/rainfall-hindcast-service/internal/model"
	"github.com/couchcryptid/rainfall-hindcast-service/internal/observability"
)

// ArtifactLoader reads the model and scalers.
type ArtifactLoader interface {
	Load() (*model.Artifacts, error)
}

// Artifacts are the loaded model artifacts plus the input feature order
// resolved against the Observation fields.
type Artifacts struct {
	*model.Artifacts
	Order domain.FeatureOrder
}

// ArtifactHolder loads artifacts once, on first use, and keeps them for the
// lifetime of the process. A load failure is kept as well: it is deterministic,
// so retrying would not help.
type ArtifactHolder struct {
	loader  ArtifactLoader
	logger  *slog.Logger
	metrics *observability.Metrics

	once sync.Once
	arts *Artifacts
	err  error
}

// NewArtifactHolder creates a holder; nothing is read until Get is called.
func NewArtifactHolder(loader ArtifactLoader, logger *slog.Logger, metrics *observability.Metrics) *ArtifactHolder {
	return &ArtifactHolder{
		loader:  loader,
		logger:  logger,
		metrics: metrics,
	}
}

// Get returns the cached artifacts, loading them on the first call. The
// returned error wraps domain.ErrArtifactsUnavailable.
func (h *ArtifactHolder) Get() (*Artifacts, error) {
	h.once.Do(h.load)
	return h.arts, h.err
}

// CheckReadiness reports whether predictions can be served.
func (h *ArtifactHolder) CheckReadiness(_ context.Context) error {
	_, err := h.Get()
	return err
}

func (h *ArtifactHolder) load() {
	arts, err := h.loader.Load()
	if err != nil {
		h.disable(err)
		return
	}

	order, err := domain.CompileFeatureOrder(arts.XScaler.FeatureNames)
	if err != nil {
		h.disable(fmt.Errorf("x scaler feature order: %w", err))
		return
	}

	h.arts = &Artifacts{Artifacts: arts, Order: order}
	h.metrics.ArtifactsLoaded.Set(1)
	h.logger.Info("model artifacts loaded",
		"features", order.Len(),
		"feature_order", order.Names(),
	)
}

func (h *ArtifactHolder) disable(err error) {
	h.err = fmt.Errorf("%w: %w", domain.ErrArtifactsUnavailable, err)
	h.metrics.ArtifactsLoaded.Set(0)
	h.logger.Error("model artifacts unavailable, prediction disabled", "error", err)
}
