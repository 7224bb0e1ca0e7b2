package domain

// FeatureVector holds raw feature values in the order the input scaler expects.
type FeatureVector []float64

// OrderFeatures arranges named values into the given feature order. A name in
// order that has no value in the set yields a *MissingFeatureError; no value
// is ever defaulted.
func OrderFeatures(values FeatureSet, order []string) (FeatureVector, error) {
	vec := make(FeatureVector, len(order))
	for i, name := range order {
		v, ok := values[name]
		if !ok {
			return nil, &MissingFeatureError{Name: name}
		}
		vec[i] = v
	}
	return vec, nil
}

// FeatureOrder is a feature order resolved against the Observation fields,
// so vectors can be built without per-request name lookups.
type FeatureOrder struct {
	names     []string
	accessors []func(*Observation) float64
}

// CompileFeatureOrder resolves each name to an Observation field. A name the
// service does not collect yields a *MissingFeatureError.
func CompileFeatureOrder(order []string) (FeatureOrder, error) {
	fo := FeatureOrder{
		names:     make([]string, len(order)),
		accessors: make([]func(*Observation) float64, len(order)),
	}
	copy(fo.names, order)
	for i, name := range order {
		spec, ok := LookupFeatureSpec(name)
		if !ok {
			return FeatureOrder{}, &MissingFeatureError{Name: name}
		}
		fo.accessors[i] = spec.get
	}
	return fo, nil
}

// Names returns the resolved order.
func (fo FeatureOrder) Names() []string {
	out := make([]string, len(fo.names))
	copy(out, fo.names)
	return out
}

// Len is the vector length this order produces.
func (fo FeatureOrder) Len() int { return len(fo.names) }

// Vector reorders an observation into a FeatureVector.
func (fo FeatureOrder) Vector(o Observation) FeatureVector {
	vec := make(FeatureVector, len(fo.accessors))
	for i, get := range fo.accessors {
		vec[i] = get(&o)
	}
	return vec
}
