package http

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/couchcryptid/rainfall-hindcast-service/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

const unavailableMessage = "Model artifacts could not be loaded. Predictions are disabled until the model and scaler files are installed."

type selectOption struct {
	Value    string
	Label    string
	Selected bool
}

type formField struct {
	domain.FeatureSpec
	Value   string
	Options []selectOption
	Invalid bool
}

type formGroup struct {
	Title  string
	Fields []formField
}

type resultView struct {
	Rainfall string
	Category domain.Category
	Tone     domain.Tone
}

type pageData struct {
	Groups            []formGroup
	Unavailable       string
	Error             string
	Result            *resultView
	FeatureImportance bool
}

var groupTitles = map[string]string{
	domain.GroupCloudWeather: "Cloud & weather conditions",
	domain.GroupAtmosphere:   "Temperature, humidity, wind & pressure",
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := s.newPage(defaultFormValues(), "")
	if err := s.predictor.CheckReadiness(r.Context()); err != nil {
		data.Unavailable = unavailableMessage
	}
	s.render(w, http.StatusOK, data)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := r.ParseForm(); err != nil {
		data := s.newPage(defaultFormValues(), "")
		data.Error = "The form could not be read."
		s.render(w, http.StatusBadRequest, data)
		return
	}

	raw := make(map[string]string, len(domain.FeatureNames()))
	for _, name := range domain.FeatureNames() {
		raw[name] = strings.TrimSpace(r.PostForm.Get(name))
	}

	obs, err := parseObservation(raw)
	if err == nil {
		err = obs.Validate()
	}
	if err != nil {
		data := s.newPage(raw, invalidField(err))
		data.Error = userMessage(err)
		s.render(w, statusFor(err), data)
		return
	}

	pred, err := s.predictor.Predict(r.Context(), obs)
	if err != nil {
		data := s.newPage(raw, "")
		if errors.Is(err, domain.ErrArtifactsUnavailable) {
			data.Unavailable = unavailableMessage
		} else {
			s.logger.Error("prediction failed", "error", err)
			data.Error = userMessage(err)
		}
		s.render(w, statusFor(err), data)
		return
	}

	data := s.newPage(raw, "")
	data.Result = &resultView{
		Rainfall: fmt.Sprintf("%.2f mm", pred.RainfallMM),
		Category: pred.Category,
		Tone:     pred.Tone,
	}
	s.render(w, http.StatusOK, data)
}

// parseObservation converts submitted form values. An empty field is a
// missing feature.
func parseObservation(raw map[string]string) (domain.Observation, error) {
	values := make(domain.FeatureSet, len(raw))
	for _, name := range domain.FeatureNames() {
		s := raw[name]
		if s == "" {
			return domain.Observation{}, &domain.MissingFeatureError{Name: name}
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return domain.Observation{}, &domain.ValidationError{Field: name, Reason: fmt.Sprintf("%q is not a number", s)}
		}
		values[name] = v
	}
	return domain.ObservationFromFeatures(values)
}

func (s *Server) newPage(values map[string]string, invalid string) pageData {
	data := pageData{FeatureImportance: s.featureImportance != ""}

	byGroup := map[string]int{}
	for _, spec := range domain.FeatureSpecs() {
		f := formField{FeatureSpec: spec, Value: values[spec.Name], Invalid: spec.Name == invalid}
		if spec.Name == domain.FeatureLandCondition {
			f.Options = landOptions(f.Value)
		}

		i, ok := byGroup[spec.Group]
		if !ok {
			i = len(data.Groups)
			byGroup[spec.Group] = i
			data.Groups = append(data.Groups, formGroup{Title: groupTitles[spec.Group]})
		}
		data.Groups[i].Fields = append(data.Groups[i].Fields, f)
	}
	return data
}

func (s *Server) render(w http.ResponseWriter, status int, data pageData) {
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		s.logger.Error("render form failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func defaultFormValues() map[string]string {
	values := map[string]string{}
	for name, v := range domain.DefaultObservation().Features() {
		values[name] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return values
}

func landOptions(selected string) []selectOption {
	conds := []domain.LandCondition{domain.LandDry, domain.LandWet, domain.LandWaterlogged}
	opts := make([]selectOption, len(conds))
	for i, c := range conds {
		v := strconv.Itoa(int(c))
		opts[i] = selectOption{
			Value:    v,
			Label:    fmt.Sprintf("%d - %s", int(c), c),
			Selected: v == selected,
		}
	}
	return opts
}

func invalidField(err error) string {
	var missing *domain.MissingFeatureError
	var invalid *domain.ValidationError
	switch {
	case errors.As(err, &missing):
		return missing.Name
	case errors.As(err, &invalid):
		return invalid.Field
	}
	return ""
}

// userMessage turns a pipeline error into text for the form.
func userMessage(err error) string {
	var (
		missing   *domain.MissingFeatureError
		invalid   *domain.ValidationError
		scalerErr *domain.ScalerError
		inferErr  *domain.InferenceError
	)
	switch {
	case errors.As(err, &missing):
		return fmt.Sprintf("%s is required.", fieldLabel(missing.Name))
	case errors.As(err, &invalid):
		return fmt.Sprintf("%s: %s.", fieldLabel(invalid.Field), invalid.Reason)
	case errors.As(err, &scalerErr):
		return "The input could not be scaled for the model. The installed artifacts may not match."
	case errors.As(err, &inferErr):
		return "The model failed to produce a prediction."
	default:
		return "Prediction failed."
	}
}

func fieldLabel(name string) string {
	if spec, ok := domain.LookupFeatureSpec(name); ok {
		return spec.Label
	}
	return name
}
