package http

import (
	"errors"
	"net/http"

	"github.com/couchcryptid/rainfall-hindcast-service/internal/domain"
	"github.com/couchcryptid/rainfall-hindcast-service/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

const maxRequestBody = 64 << 10

type errorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind"`
	Feature string `json:"feature,omitempty"`
}

type featuresResponse struct {
	Loaded   bool                 `json:"loaded"`
	Features []domain.FeatureSpec `json:"features"`
}

// handlePredict accepts a flat JSON object of the 14 feature values.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	values, err := domain.DecodeFeatureSet(r.Body)
	var missing *domain.MissingFeatureError
	if errors.As(err, &missing) {
		s.writeError(w, err)
		return
	}
	if err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, errorResponse{
			Error: "request body must be a JSON object of numeric feature values",
			Kind:  "decode",
		})
		return
	}

	obs, err := domain.ObservationFromFeatures(values)
	if err == nil {
		err = obs.Validate()
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	pred, err := s.predictor.PredictFeatures(r.Context(), values)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, pred)
}

// handleFeatures lists input metadata in the model's feature order when the
// artifacts are loaded, otherwise in form order.
func (s *Server) handleFeatures(w http.ResponseWriter, _ *http.Request) {
	order := s.predictor.FeatureOrder()
	loaded := order != nil
	if !loaded {
		order = domain.FeatureNames()
	}

	specs := make([]domain.FeatureSpec, 0, len(order))
	for _, name := range order {
		if spec, ok := domain.LookupFeatureSpec(name); ok {
			specs = append(specs, spec)
		}
	}
	sharedobs.WriteJSON(w, http.StatusOK, featuresResponse{Loaded: loaded, Features: specs})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error(), Kind: pipeline.ErrorKind(err)}

	var missing *domain.MissingFeatureError
	var invalid *domain.ValidationError
	switch {
	case errors.As(err, &missing):
		resp.Feature = missing.Name
	case errors.As(err, &invalid):
		resp.Feature = invalid.Field
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("prediction failed", "error", err, "kind", resp.Kind)
	}
	sharedobs.WriteJSON(w, status, resp)
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var (
		missing *domain.MissingFeatureError
		invalid *domain.ValidationError
	)
	switch {
	case errors.Is(err, domain.ErrArtifactsUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &missing), errors.As(err, &invalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
