package domain

import (
	"errors"
	"fmt"
)

// ErrArtifactsUnavailable is returned when a prediction is requested but the
// model artifacts could not be loaded at startup.
var ErrArtifactsUnavailable = errors.New("model artifacts unavailable")

// ArtifactNotFoundError reports a model or scaler file that does not exist.
// It disables the prediction path but not the rest of the service.
type ArtifactNotFoundError struct {
	Path string
}

func (e *ArtifactNotFoundError) Error() string {
	return fmt.Sprintf("artifact not found: %s", e.Path)
}

// Is lets errors.Is(err, ErrArtifactsUnavailable) match a missing file.
func (e *ArtifactNotFoundError) Is(target error) bool {
	return target == ErrArtifactsUnavailable
}

// MissingFeatureError reports a feature name expected by the scaler that is
// absent from the supplied observation values.
type MissingFeatureError struct {
	Name string
}

func (e *MissingFeatureError) Error() string {
	return fmt.Sprintf("missing feature %q", e.Name)
}

// ScalerError reports a failed scaler transform, usually a dimension mismatch.
type ScalerError struct {
	Op  string // "transform" or "inverse_transform"
	Err error
}

func (e *ScalerError) Error() string {
	return fmt.Sprintf("scaler %s: %v", e.Op, e.Err)
}

func (e *ScalerError) Unwrap() error { return e.Err }

// InferenceError reports a failed model evaluation.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference: %v", e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// ValidationError reports an observation value outside its accepted range
// or otherwise malformed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
