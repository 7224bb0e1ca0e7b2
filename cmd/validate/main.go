// Command validate checks a set of model artifacts before deployment: the
// files load and agree with each other, the scaler's feature order covers
// every observation input exactly once, predictions stay finite and
// non-negative across the accepted input ranges, and an optional fixture of
// sample observations runs through the full pipeline.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -model artifacts/rf_me48_model.json \
//	  -scaler-x artifacts/scaler_X_me48.json \
//	  -scaler-y artifacts/scaler_y_me48.json \
//	  -observations data/mock/observations.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"
	"time"

	"github.com/couchcryptid/rainfall-hindcast-service/internal/domain"
	"github.com/couchcryptid/rainfall-hindcast-service/internal/model"
	"github.com/couchcryptid/rainfall-hindcast-service/internal/observability"
	"github.com/couchcryptid/rainfall-hindcast-service/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

// sweepSteps is the number of points evaluated across each input's range.
const sweepSteps = 10

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	modelPath := flag.String("model", "artifacts/rf_me48_model.json", "path to the model artifact")
	scalerX := flag.String("scaler-x", "artifacts/scaler_X_me48.json", "path to the feature scaler artifact")
	scalerY := flag.String("scaler-y", "artifacts/scaler_y_me48.json", "path to the target scaler artifact")
	obsPath := flag.String("observations", "", "optional JSON array of sample observations")
	flag.Parse()

	paths := model.Paths{Model: *modelPath, XScaler: *scalerX, YScaler: *scalerY}
	if code := run(os.Stdout, paths, *obsPath); code != 0 {
		os.Exit(code)
	}
}

func run(out io.Writer, paths model.Paths, obsPath string) int {
	// Fixed clock so repeated runs print identical predictions.
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, time.January, 15, 9, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	fmt.Fprintln(out, "=== Rainfall Model Artifact Validation ===")
	fmt.Fprintln(out)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()

	arts, err := model.NewLoader(paths).Load()
	if err != nil {
		fmt.Fprintf(out, "FATAL: load artifacts: %v\n", err)
		return 1
	}

	holder := pipeline.NewArtifactHolder(staticLoader{arts}, logger, metrics)
	predictor, err := pipeline.NewPredictor(holder, nil, 0, logger, metrics)
	if err != nil {
		fmt.Fprintf(out, "FATAL: create predictor: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateFeatureOrder(arts.XScaler.FeatureNames),
		validateRangeSweep(predictor),
	}
	if obsPath != "" {
		phases = append(phases, validateFixture(out, predictor, obsPath))
	}

	fmt.Fprintln(out)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Artifacts: %d features, model %T\n", arts.XScaler.NumFeatures(), arts.Model)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

// staticLoader hands already loaded artifacts to the pipeline.
type staticLoader struct {
	arts *model.Artifacts
}

func (l staticLoader) Load() (*model.Artifacts, error) { return l.arts, nil }

// ── Phases ──

func validateFeatureOrder(order []string) *phase {
	p := &phase{name: "Feature order"}

	seen := make(map[string]int, len(order))
	for i, name := range order {
		if _, ok := domain.LookupFeatureSpec(name); !ok {
			p.errorf("position %d: unknown feature %q", i, name)
			continue
		}
		if prev, dup := seen[name]; dup {
			p.errorf("position %d: %s already at position %d", i, name, prev)
			continue
		}
		seen[name] = i
	}
	for _, name := range domain.FeatureNames() {
		if _, ok := seen[name]; !ok {
			p.errorf("feature %s not in scaler order", name)
		}
	}
	return p
}

// validateRangeSweep moves one input at a time across its accepted range,
// holding the others at their defaults.
func validateRangeSweep(predictor *pipeline.Predictor) *phase {
	p := &phase{name: "Range sweep (finite, non-negative)"}
	ctx := context.Background()

	for _, spec := range domain.FeatureSpecs() {
		for step := 0; step <= sweepSteps; step++ {
			v := spec.Min + (spec.Max-spec.Min)*float64(step)/sweepSteps
			if spec.Integer {
				v = math.Round(v)
			}

			values := domain.DefaultObservation().Features()
			values[spec.Name] = v
			pred, err := predictor.PredictFeatures(ctx, values)
			if err != nil {
				p.errorf("%s=%g: %v", spec.Name, v, err)
				continue
			}
			if pred.RainfallMM < 0 || math.IsNaN(pred.RainfallMM) || math.IsInf(pred.RainfallMM, 0) {
				p.errorf("%s=%g: invalid rainfall %v", spec.Name, v, pred.RainfallMM)
			}
		}
	}
	return p
}

func validateFixture(out io.Writer, predictor *pipeline.Predictor, path string) *phase {
	p := &phase{name: "Sample observations"}

	data, err := os.ReadFile(path)
	if err != nil {
		p.errorf("read fixture: %v", err)
		return p
	}
	var samples []domain.FeatureSet
	if err := json.Unmarshal(data, &samples); err != nil {
		p.errorf("decode fixture: %v", err)
		return p
	}

	counts := map[domain.Category]int{}
	for i, values := range samples {
		obs, err := domain.ObservationFromFeatures(values)
		if err == nil {
			err = obs.Validate()
		}
		if err != nil {
			p.errorf("sample %d: %v", i, err)
			continue
		}
		pred, err := predictor.PredictFeatures(context.Background(), values)
		if err != nil {
			p.errorf("sample %d: %v", i, err)
			continue
		}
		counts[pred.Category]++
		fmt.Fprintf(out, "  sample %-3d %8.2f mm  %s\n", i, pred.RainfallMM, pred.Category)
	}

	cats := make([]string, 0, len(counts))
	for c := range counts {
		cats = append(cats, string(c))
	}
	sort.Strings(cats)
	for _, c := range cats {
		fmt.Fprintf(out, "  %-14s %d\n", c, counts[domain.Category(c)])
	}
	return p
}
