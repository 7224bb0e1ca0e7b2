// Command genartifacts writes model and scaler artifacts for local
// development and tests, plus an optional fixture of sample observations for
// the Kafka observation topic. The files are read back through the service's
// own loader to make sure they are accepted.
//
// Usage:
//
//	go run ./cmd/genartifacts -out-dir artifacts -kind demo -format json \
//	  -observations-out data/mock/observations.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/couchcryptid/rainfall-hindcast-service/internal/domain"
	"github.com/couchcryptid/rainfall-hindcast-service/internal/model"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out-dir", "artifacts", "directory to write the artifacts to")
	kind := flag.String("kind", "demo", "artifact set: demo (scaled random forest) or identity (pass-through scalers, linear model)")
	format := flag.String("format", "json", "file format: json or yaml")
	obsOut := flag.String("observations-out", "", "optional output path for a sample observation fixture")
	flag.Parse()

	var set artifactSet
	switch *kind {
	case "demo":
		set = demoArtifacts()
	case "identity":
		set = identityArtifacts()
	default:
		flag.Usage()
		return fmt.Errorf("unknown -kind %q", *kind)
	}
	if *format != "json" && *format != "yaml" {
		flag.Usage()
		return fmt.Errorf("unknown -format %q", *format)
	}

	paths, err := writeArtifacts(*outDir, *format, set)
	if err != nil {
		return err
	}

	arts, err := model.NewLoader(paths).Load()
	if err != nil {
		return fmt.Errorf("generated artifacts do not load: %w", err)
	}
	log.Printf("wrote %s artifacts to %s (%d features)", *kind, *outDir, arts.XScaler.NumFeatures())

	if *obsOut != "" {
		if err := writeObservations(*obsOut); err != nil {
			return err
		}
		log.Printf("wrote sample observations to %s", *obsOut)
	}
	return nil
}

type artifactSet struct {
	Model   model.ModelFile
	XScaler model.ScalerFile
	YScaler model.ScalerFile
}

func writeArtifacts(dir, format string, set artifactSet) (model.Paths, error) {
	paths := model.Paths{
		Model:   filepath.Join(dir, "rf_me48_model."+format),
		XScaler: filepath.Join(dir, "scaler_X_me48."+format),
		YScaler: filepath.Join(dir, "scaler_y_me48."+format),
	}
	if err := model.WriteFile(paths.Model, set.Model); err != nil {
		return paths, err
	}
	if err := model.WriteFile(paths.XScaler, set.XScaler); err != nil {
		return paths, err
	}
	if err := model.WriteFile(paths.YScaler, set.YScaler); err != nil {
		return paths, err
	}
	return paths, nil
}

// writeObservations writes a JSON array of flat observations, one per
// category, each usable as a message value on the observation topic.
func writeObservations(path string) error {
	samples := sampleObservations()
	data, err := json.MarshalIndent(samples, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal observations: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create fixture dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644) //nolint:gosec // test fixture
}

func sampleObservations() []domain.Observation {
	dry := domain.DefaultObservation()

	showers := domain.DefaultObservation()
	showers.RelativeHumidity = 92
	showers.CloudCover = 7
	showers.WindSpeed = 2.0

	storm := domain.DefaultObservation()
	storm.PresentWeather = 95
	storm.RelativeHumidity = 96
	storm.CloudCover = 8
	storm.LandCondition = domain.LandWaterlogged
	storm.WindSpeed = 6.5

	return []domain.Observation{dry, showers, storm}
}
