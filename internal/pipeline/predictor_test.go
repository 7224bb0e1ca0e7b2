package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/couchcryptid/rainfall-hindcast-service/internal/domain"
	"github.com/couchcryptid/rainfall-hindcast-service/internal/model"
	"github.com/couchcryptid/rainfall-hindcast-service/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictor_IdentityEndToEnd(t *testing.T) {
	fixedTime := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(fixedTime))
	defer domain.SetClock(nil)

	reg := &stubRegressor{n: 14, fn: firstFeature}
	p, _ := newTestPredictor(t, &stubLoader{arts: identityArtifacts(reversedOrder, reg)}, 0, nil)

	obs := domain.DefaultObservation()
	pred, err := p.Predict(context.Background(), obs)
	require.NoError(t, err)

	// Default inputs reordered per the scaler's feature order, untouched by
	// the identity scalers.
	want := []float64{1008.6, 1009.5, 85, 4.0, 25.5, 27.0, 24.5, 10, 1, 7, 6, 7, 3, 5}
	require.Equal(t, 1, reg.calls())
	if diff := cmp.Diff(want, reg.got[0]); diff != "" {
		t.Errorf("model input mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, 1008.6, pred.RainfallMM)
	assert.Equal(t, domain.CategoryHeavyRain, pred.Category)
	assert.Equal(t, domain.ToneInverse, pred.Tone)
	assert.Equal(t, obs, pred.Observation)
	assert.Equal(t, fixedTime, pred.PredictedAt)
	assert.NotEmpty(t, pred.ID)
}

func TestPredictor_PredictFeaturesMatchesPredict(t *testing.T) {
	reg := &stubRegressor{n: 14, fn: firstFeature}
	p, _ := newTestPredictor(t, &stubLoader{arts: identityArtifacts(reversedOrder, reg)}, 0, nil)

	obs := domain.DefaultObservation()
	typed, err := p.Predict(context.Background(), obs)
	require.NoError(t, err)
	named, err := p.PredictFeatures(context.Background(), obs.Features())
	require.NoError(t, err)

	require.Equal(t, 2, reg.calls())
	assert.Equal(t, reg.got[0], reg.got[1])
	assert.Equal(t, typed.RainfallMM, named.RainfallMM)
	assert.Equal(t, typed.Category, named.Category)
	assert.Equal(t, typed.Observation, named.Observation)
}

func TestPredictor_ClampsNegative(t *testing.T) {
	reg := &stubRegressor{n: 14, fn: constant(-1.2)}
	p, _ := newTestPredictor(t, &stubLoader{arts: identityArtifacts(reversedOrder, reg)}, 0, nil)

	pred, err := p.Predict(context.Background(), domain.DefaultObservation())
	require.NoError(t, err)

	assert.Equal(t, 0.0, pred.RainfallMM)
	assert.Equal(t, domain.CategoryNoRain, pred.Category)
}

func TestPredictor_Categories(t *testing.T) {
	tests := []struct {
		raw      float64
		mm       float64
		expected domain.Category
	}{
		{-0.01, 0, domain.CategoryNoRain},
		{0.4999, 0.4999, domain.CategoryNoRain},
		{0.5, 0.5, domain.CategoryLightRain},
		{5.0, 5.0, domain.CategoryLightRain},
		{5.0001, 5.0001, domain.CategoryModerateRain},
		{10.0, 10.0, domain.CategoryModerateRain},
		{10.0001, 10.0001, domain.CategoryHeavyRain},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.raw), func(t *testing.T) {
			reg := &stubRegressor{n: 14, fn: constant(tt.raw)}
			p, _ := newTestPredictor(t, &stubLoader{arts: identityArtifacts(reversedOrder, reg)}, 0, nil)

			pred, err := p.Predict(context.Background(), domain.DefaultObservation())
			require.NoError(t, err)
			assert.Equal(t, tt.mm, pred.RainfallMM)
			assert.Equal(t, tt.expected, pred.Category)
		})
	}
}

func TestPredictor_Idempotent(t *testing.T) {
	reg := &stubRegressor{n: 14, fn: func(x []float64) (float64, error) { return x[2] / 10, nil }}
	p, _ := newTestPredictor(t, &stubLoader{arts: identityArtifacts(reversedOrder, reg)}, 0, nil)

	obs := domain.DefaultObservation()
	first, err := p.Predict(context.Background(), obs)
	require.NoError(t, err)
	second, err := p.Predict(context.Background(), obs)
	require.NoError(t, err)

	assert.Equal(t, first.RainfallMM, second.RainfallMM)
	assert.Equal(t, first.Category, second.Category)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestPredictor_MissingFeature(t *testing.T) {
	for _, name := range domain.FeatureNames() {
		t.Run(name, func(t *testing.T) {
			reg := &stubRegressor{n: 14, fn: firstFeature}
			p, metrics := newTestPredictor(t, &stubLoader{arts: identityArtifacts(reversedOrder, reg)}, 0, nil)

			values := domain.DefaultObservation().Features()
			delete(values, name)

			_, err := p.PredictFeatures(context.Background(), values)
			require.Error(t, err)

			var missing *domain.MissingFeatureError
			require.True(t, errors.As(err, &missing))
			assert.Equal(t, name, missing.Name)
			assert.Zero(t, reg.calls(), "model must not run on incomplete input")
			assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PredictionErrors.WithLabelValues("missing_feature")))
		})
	}
}

func TestPredictor_ScalerDimensionMismatch(t *testing.T) {
	reg := &stubRegressor{n: 14, fn: firstFeature}
	arts := identityArtifacts(reversedOrder, reg)
	arts.XScaler.Scaler = model.IdentityScaler{N: 13}
	p, metrics := newTestPredictor(t, &stubLoader{arts: arts}, 0, nil)

	_, err := p.Predict(context.Background(), domain.DefaultObservation())
	require.Error(t, err)

	var scalerErr *domain.ScalerError
	require.True(t, errors.As(err, &scalerErr))
	assert.Equal(t, "transform", scalerErr.Op)
	assert.ErrorIs(t, err, model.ErrDimensionMismatch)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PredictionErrors.WithLabelValues("scaler")))
}

func TestPredictor_InverseScalerError(t *testing.T) {
	reg := &stubRegressor{n: 14, fn: firstFeature}
	arts := identityArtifacts(reversedOrder, reg)
	arts.YScaler = model.IdentityScaler{N: 2}
	p, _ := newTestPredictor(t, &stubLoader{arts: arts}, 0, nil)

	_, err := p.Predict(context.Background(), domain.DefaultObservation())

	var scalerErr *domain.ScalerError
	require.True(t, errors.As(err, &scalerErr))
	assert.Equal(t, "inverse_transform", scalerErr.Op)
}

func TestPredictor_InferenceError(t *testing.T) {
	reg := &stubRegressor{n: 14, fn: func([]float64) (float64, error) { return 0, errors.New("corrupt tree") }}
	p, metrics := newTestPredictor(t, &stubLoader{arts: identityArtifacts(reversedOrder, reg)}, 0, nil)

	_, err := p.Predict(context.Background(), domain.DefaultObservation())
	require.Error(t, err)

	var inferErr *domain.InferenceError
	require.True(t, errors.As(err, &inferErr))
	assert.Contains(t, err.Error(), "corrupt tree")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PredictionErrors.WithLabelValues("inference")))
}

func TestPredictor_ArtifactsUnavailable(t *testing.T) {
	loader := &stubLoader{err: &domain.ArtifactNotFoundError{Path: "rf_me48_model.json"}}
	p, metrics := newTestPredictor(t, loader, 0, nil)

	_, err := p.Predict(context.Background(), domain.DefaultObservation())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrArtifactsUnavailable)

	var notFound *domain.ArtifactNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "rf_me48_model.json", notFound.Path)

	_, err = p.PredictFeatures(context.Background(), domain.DefaultObservation().Features())
	assert.ErrorIs(t, err, domain.ErrArtifactsUnavailable)

	assert.Error(t, p.CheckReadiness(context.Background()))
	assert.Nil(t, p.FeatureOrder())
	assert.Equal(t, 1, loader.loads, "load failure is cached")
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.ArtifactsLoaded))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.PredictionErrors.WithLabelValues("artifacts")))
}

func TestPredictor_UnknownScalerFeature(t *testing.T) {
	order := append([]string{"VISIBILITY_VV"}, reversedOrder[1:]...)
	reg := &stubRegressor{n: 14, fn: firstFeature}
	p, _ := newTestPredictor(t, &stubLoader{arts: identityArtifacts(order, reg)}, 0, nil)

	err := p.CheckReadiness(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrArtifactsUnavailable)

	var missing *domain.MissingFeatureError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "VISIBILITY_VV", missing.Name)
}

func TestPredictor_Ready(t *testing.T) {
	loader := &stubLoader{arts: identityArtifacts(reversedOrder, &stubRegressor{n: 14, fn: firstFeature})}
	p, metrics := newTestPredictor(t, loader, 0, nil)

	require.NoError(t, p.CheckReadiness(context.Background()))
	assert.Equal(t, reversedOrder, p.FeatureOrder())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ArtifactsLoaded))

	_, err := p.Predict(context.Background(), domain.DefaultObservation())
	require.NoError(t, err)
	assert.Equal(t, 1, loader.loads)
}

func TestPredictor_Cache(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		reg := &stubRegressor{n: 14, fn: constant(3)}
		p, metrics := newTestPredictor(t, &stubLoader{arts: identityArtifacts(reversedOrder, reg)}, 8, nil)

		for range 3 {
			pred, err := p.Predict(context.Background(), domain.DefaultObservation())
			require.NoError(t, err)
			assert.Equal(t, 3.0, pred.RainfallMM)
		}

		assert.Equal(t, 1, reg.calls())
		assert.Equal(t, 2.0, testutil.ToFloat64(metrics.PredictionCache.WithLabelValues("hit")))
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PredictionCache.WithLabelValues("miss")))
	})

	t.Run("distinct inputs", func(t *testing.T) {
		reg := &stubRegressor{n: 14, fn: firstFeature}
		p, _ := newTestPredictor(t, &stubLoader{arts: identityArtifacts(reversedOrder, reg)}, 8, nil)

		obs := domain.DefaultObservation()
		_, err := p.Predict(context.Background(), obs)
		require.NoError(t, err)

		obs.PressureQFE = 1010.0
		pred, err := p.Predict(context.Background(), obs)
		require.NoError(t, err)

		assert.Equal(t, 2, reg.calls())
		assert.Equal(t, 1010.0, pred.RainfallMM)
	})

	t.Run("disabled", func(t *testing.T) {
		reg := &stubRegressor{n: 14, fn: constant(3)}
		p, _ := newTestPredictor(t, &stubLoader{arts: identityArtifacts(reversedOrder, reg)}, 0, nil)

		for range 3 {
			_, err := p.Predict(context.Background(), domain.DefaultObservation())
			require.NoError(t, err)
		}
		assert.Equal(t, 3, reg.calls())
	})
}

func TestPredictor_Evaluate(t *testing.T) {
	reg := &stubRegressor{n: 3, fn: func(x []float64) (float64, error) { return x[0] + x[1] + x[2], nil }}
	arts := &model.Artifacts{
		Model:   reg,
		XScaler: &model.FeatureScaler{Scaler: model.IdentityScaler{N: 3}, FeatureNames: reversedOrder[:3]},
		YScaler: model.IdentityScaler{N: 1},
	}
	p, _ := newTestPredictor(t, &stubLoader{arts: arts}, 0, nil)

	mm, err := p.Evaluate(domain.FeatureVector{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 6.0, mm)

	mm, err = p.Evaluate(domain.FeatureVector{-1, -2, -3})
	require.NoError(t, err)
	assert.Equal(t, 0.0, mm)

	_, err = p.Evaluate(domain.FeatureVector{1, 2})
	var scalerErr *domain.ScalerError
	assert.True(t, errors.As(err, &scalerErr))
}

func TestPredictor_WithScalers(t *testing.T) {
	// Standardize on humidity only, predict the scaled value, then map back
	// through a y scaler with mean 2 and scale 4.
	order := []string{domain.FeatureRelativeHumidity}
	xs, err := model.NewStandardScaler([]float64{80}, []float64{10})
	require.NoError(t, err)
	ys, err := model.NewStandardScaler([]float64{2}, []float64{4})
	require.NoError(t, err)

	reg := &stubRegressor{n: 1, fn: firstFeature}
	arts := &model.Artifacts{
		Model:   reg,
		XScaler: &model.FeatureScaler{Scaler: xs, FeatureNames: order},
		YScaler: ys,
	}
	p, _ := newTestPredictor(t, &stubLoader{arts: arts}, 0, nil)

	pred, err := p.Predict(context.Background(), domain.DefaultObservation())
	require.NoError(t, err)

	// RH 85 -> 0.5 scaled -> 0.5*4+2 = 4 mm.
	assert.InDelta(t, 4.0, pred.RainfallMM, 1e-9)
	assert.Equal(t, domain.CategoryLightRain, pred.Category)
}

func TestPredictor_Publishing(t *testing.T) {
	t.Run("publishes predictions", func(t *testing.T) {
		pub := &recordingPublisher{}
		reg := &stubRegressor{n: 14, fn: constant(7)}
		p, metrics := newTestPredictor(t, &stubLoader{arts: identityArtifacts(reversedOrder, reg)}, 0, pub)

		pred, err := p.Predict(context.Background(), domain.DefaultObservation())
		require.NoError(t, err)

		require.Len(t, pub.published, 1)
		assert.Equal(t, pred, pub.published[0])
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EventsPublished))
	})

	t.Run("publish failure does not fail prediction", func(t *testing.T) {
		pub := &recordingPublisher{err: errPublish}
		reg := &stubRegressor{n: 14, fn: constant(7)}
		p, metrics := newTestPredictor(t, &stubLoader{arts: identityArtifacts(reversedOrder, reg)}, 0, pub)

		pred, err := p.PredictFeatures(context.Background(), domain.DefaultObservation().Features())
		require.NoError(t, err)
		assert.Equal(t, domain.CategoryModerateRain, pred.Category)
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PublishErrors))
	})

	t.Run("hindcast does not publish", func(t *testing.T) {
		pub := &recordingPublisher{}
		reg := &stubRegressor{n: 14, fn: constant(7)}
		p, _ := newTestPredictor(t, &stubLoader{arts: identityArtifacts(reversedOrder, reg)}, 0, pub)

		pred, err := p.Hindcast(domain.DefaultObservation().Features(), "obs-42")
		require.NoError(t, err)
		assert.Equal(t, "obs-42", pred.ObservationID)
		assert.Empty(t, pub.published)
	})
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{fmt.Errorf("%w: %w", domain.ErrArtifactsUnavailable, errors.New("boom")), "artifacts"},
		{&domain.ArtifactNotFoundError{Path: "x"}, "artifacts"},
		{&domain.MissingFeatureError{Name: "LAND_COND"}, "missing_feature"},
		{&domain.ValidationError{Field: "LAND_COND"}, "validation"},
		{&domain.ScalerError{Op: "transform", Err: errors.New("x")}, "scaler"},
		{fmt.Errorf("wrapped: %w", &domain.InferenceError{Err: errors.New("x")}), "inference"},
		{errors.New("other"), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, pipeline.ErrorKind(tt.err))
		})
	}
}
