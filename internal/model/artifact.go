package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/rainfall-hindcast-service/internal/domain"
	"gopkg.in/yaml.v3"
)

// Scaler kinds.
const (
	KindStandard = "standard"
	KindMinMax   = "minmax"
	KindIdentity = "identity"
)

// Model kinds.
const (
	KindRandomForest = "random_forest"
	KindLinear       = "linear"
)

// ScalerFile is the on-disk form of a fitted scaler. Field names follow the
// fitted attributes of the training library (mean_, scale_, min_).
type ScalerFile struct {
	Kind         string    `json:"kind" yaml:"kind"`
	NFeatures    int       `json:"n_features,omitempty" yaml:"n_features,omitempty"`
	FeatureNames []string  `json:"feature_names,omitempty" yaml:"feature_names,omitempty"`
	Mean         []float64 `json:"mean,omitempty" yaml:"mean,omitempty"`
	Scale        []float64 `json:"scale,omitempty" yaml:"scale,omitempty"`
	Min          []float64 `json:"min,omitempty" yaml:"min,omitempty"`
}

// Build constructs the scaler described by the file.
func (f ScalerFile) Build() (Scaler, error) {
	switch f.Kind {
	case KindStandard:
		return NewStandardScaler(f.Mean, f.Scale)
	case KindMinMax:
		return NewMinMaxScaler(f.Min, f.Scale)
	case KindIdentity:
		if f.NFeatures <= 0 {
			return nil, fmt.Errorf("identity scaler: invalid n_features %d", f.NFeatures)
		}
		return IdentityScaler{N: f.NFeatures}, nil
	default:
		return nil, fmt.Errorf("unknown scaler kind %q", f.Kind)
	}
}

// ModelFile is the on-disk form of a fitted regressor.
type ModelFile struct {
	Kind      string    `json:"kind" yaml:"kind"`
	NFeatures int       `json:"n_features" yaml:"n_features"`
	Trees     []Tree    `json:"trees,omitempty" yaml:"trees,omitempty"`
	Coef      []float64 `json:"coef,omitempty" yaml:"coef,omitempty"`
	Intercept float64   `json:"intercept,omitempty" yaml:"intercept,omitempty"`
}

// Build constructs the regressor described by the file.
func (f ModelFile) Build() (Regressor, error) {
	switch f.Kind {
	case KindRandomForest:
		return NewRandomForest(f.NFeatures, f.Trees)
	case KindLinear:
		if f.NFeatures != 0 && f.NFeatures != len(f.Coef) {
			return nil, fmt.Errorf("linear model: n_features %d but %d coefficients", f.NFeatures, len(f.Coef))
		}
		return NewLinear(f.Coef, f.Intercept)
	default:
		return nil, fmt.Errorf("unknown model kind %q", f.Kind)
	}
}

// Paths locates the three artifact files.
type Paths struct {
	Model   string
	XScaler string
	YScaler string
}

// Artifacts are the loaded, mutually consistent model and scalers.
type Artifacts struct {
	Model   Regressor
	XScaler *FeatureScaler
	YScaler Scaler
}

// Check verifies that the scalers and model agree on dimensionality.
func (a *Artifacts) Check() error {
	if a.Model == nil || a.XScaler == nil || a.YScaler == nil {
		return errors.New("incomplete artifacts")
	}
	n := a.XScaler.NumFeatures()
	if len(a.XScaler.FeatureNames) != n {
		return fmt.Errorf("x scaler has %d feature names for %d features", len(a.XScaler.FeatureNames), n)
	}
	if m := a.Model.NumFeatures(); m != n {
		return fmt.Errorf("model expects %d features, x scaler produces %d", m, n)
	}
	if a.YScaler.NumFeatures() != 1 {
		return fmt.Errorf("y scaler must have 1 feature, has %d", a.YScaler.NumFeatures())
	}
	return nil
}

// Loader reads artifacts from disk.
type Loader struct {
	paths Paths
}

// NewLoader creates a Loader for the given files.
func NewLoader(paths Paths) *Loader {
	return &Loader{paths: paths}
}

// Load reads and validates all three artifacts. A missing file yields a
// *domain.ArtifactNotFoundError.
func (l *Loader) Load() (*Artifacts, error) {
	var xf ScalerFile
	if err := ReadFile(l.paths.XScaler, &xf); err != nil {
		return nil, err
	}
	xs, err := xf.Build()
	if err != nil {
		return nil, fmt.Errorf("x scaler %s: %w", l.paths.XScaler, err)
	}
	if len(xf.FeatureNames) == 0 {
		return nil, fmt.Errorf("x scaler %s: no feature_names", l.paths.XScaler)
	}

	var yf ScalerFile
	if err := ReadFile(l.paths.YScaler, &yf); err != nil {
		return nil, err
	}
	ys, err := yf.Build()
	if err != nil {
		return nil, fmt.Errorf("y scaler %s: %w", l.paths.YScaler, err)
	}

	var mf ModelFile
	if err := ReadFile(l.paths.Model, &mf); err != nil {
		return nil, err
	}
	m, err := mf.Build()
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", l.paths.Model, err)
	}

	arts := &Artifacts{
		Model:   m,
		XScaler: &FeatureScaler{Scaler: xs, FeatureNames: xf.FeatureNames},
		YScaler: ys,
	}
	if err := arts.Check(); err != nil {
		return nil, fmt.Errorf("inconsistent artifacts: %w", err)
	}
	return arts, nil
}

// ReadFile decodes a JSON or YAML artifact, chosen by file extension.
func ReadFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &domain.ArtifactNotFoundError{Path: path}
		}
		return fmt.Errorf("read artifact %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, v)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, v)
	default:
		return fmt.Errorf("artifact %s: unsupported format %q", path, ext)
	}
	if err != nil {
		return fmt.Errorf("decode artifact %s: %w", path, err)
	}
	return nil
}

// WriteFile encodes an artifact as JSON or YAML, chosen by file extension.
func WriteFile(path string, v any) error {
	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		data, err = json.MarshalIndent(v, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(v)
	default:
		return fmt.Errorf("artifact %s: unsupported format %q", path, ext)
	}
	if err != nil {
		return fmt.Errorf("encode artifact %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644) //nolint:gosec // artifacts are not secret
}
