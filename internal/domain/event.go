package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"
)

// RawObservation is an unprocessed message from the observation topic. The
// value is a flat JSON object keyed by feature name.
type RawObservation struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// ParseRawObservation decodes the message value into named feature values.
func ParseRawObservation(raw RawObservation) (FeatureSet, error) {
	fs, err := DecodeFeatureSet(bytes.NewReader(raw.Value))
	if err != nil {
		return nil, fmt.Errorf("parse raw observation: %w", err)
	}
	return fs, nil
}

// DecodeFeatureSet reads exactly one flat JSON object of feature values. A
// null value is reported as a MissingFeatureError for that name.
func DecodeFeatureSet(r io.Reader) (FeatureSet, error) {
	dec := json.NewDecoder(r)

	var values map[string]*float64
	if err := dec.Decode(&values); err != nil {
		return nil, err
	}
	if values == nil {
		return nil, errors.New("empty payload")
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON object")
	}

	var nulls []string
	fs := make(FeatureSet, len(values))
	for name, v := range values {
		if v == nil {
			nulls = append(nulls, name)
			continue
		}
		fs[name] = *v
	}
	if len(nulls) > 0 {
		sort.Strings(nulls)
		return nil, &MissingFeatureError{Name: nulls[0]}
	}
	return fs, nil
}
