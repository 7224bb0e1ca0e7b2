package model

import (
	"errors"
	"fmt"
	"math"
)

// leaf marks a node without children, as in scikit-learn's tree arrays.
const leaf = -1

// Regressor produces a single prediction from a scaled feature vector.
type Regressor interface {
	Predict(x []float64) (float64, error)
	NumFeatures() int
}

// Tree is one fitted regression tree in parallel-array form. Node i is a
// leaf when ChildrenLeft[i] == -1; otherwise samples with
// x[Feature[i]] <= Threshold[i] go left.
type Tree struct {
	ChildrenLeft  []int     `json:"children_left" yaml:"children_left"`
	ChildrenRight []int     `json:"children_right" yaml:"children_right"`
	Feature       []int     `json:"feature" yaml:"feature"`
	Threshold     []float64 `json:"threshold" yaml:"threshold"`
	Value         []float64 `json:"value" yaml:"value"`
}

// NodeCount is the number of nodes in the tree.
func (t *Tree) NodeCount() int { return len(t.ChildrenLeft) }

func (t *Tree) validate(nFeatures int) error {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return errors.New("empty tree")
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return fmt.Errorf("node arrays differ in length: left=%d right=%d feature=%d threshold=%d value=%d",
			n, len(t.ChildrenRight), len(t.Feature), len(t.Threshold), len(t.Value))
	}
	for i := 0; i < n; i++ {
		left, right := t.ChildrenLeft[i], t.ChildrenRight[i]
		if left == leaf {
			if right != leaf {
				return fmt.Errorf("node %d: leaf with right child %d", i, right)
			}
			continue
		}
		// Children always follow their parent in depth-first layout, which
		// also rules out cycles.
		if left <= i || left >= n || right <= i || right >= n {
			return fmt.Errorf("node %d: child index out of range (left=%d right=%d)", i, left, right)
		}
		if f := t.Feature[i]; f < 0 || f >= nFeatures {
			return fmt.Errorf("node %d: feature index %d out of range [0,%d)", i, f, nFeatures)
		}
	}
	return nil
}

func (t *Tree) predict(x []float64) float64 {
	node := 0
	for t.ChildrenLeft[node] != leaf {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return t.Value[node]
}

// RandomForest averages the outputs of its trees.
type RandomForest struct {
	nFeatures int
	trees     []Tree
}

// NewRandomForest validates every tree against the feature count.
func NewRandomForest(nFeatures int, trees []Tree) (*RandomForest, error) {
	if nFeatures <= 0 {
		return nil, fmt.Errorf("random forest: invalid feature count %d", nFeatures)
	}
	if len(trees) == 0 {
		return nil, errors.New("random forest: no trees")
	}
	for i := range trees {
		if err := trees[i].validate(nFeatures); err != nil {
			return nil, fmt.Errorf("random forest: tree %d: %w", i, err)
		}
	}
	return &RandomForest{nFeatures: nFeatures, trees: trees}, nil
}

func (f *RandomForest) NumFeatures() int { return f.nFeatures }

// NumTrees is the ensemble size.
func (f *RandomForest) NumTrees() int { return len(f.trees) }

func (f *RandomForest) Predict(x []float64) (float64, error) {
	if err := checkDim(x, f.nFeatures); err != nil {
		return 0, err
	}
	var sum float64
	for i := range f.trees {
		sum += f.trees[i].predict(x)
	}
	return finite(sum / float64(len(f.trees)))
}

// Linear is an ordinary linear regression: coef · x + intercept.
type Linear struct {
	coef      []float64
	intercept float64
}

func NewLinear(coef []float64, intercept float64) (*Linear, error) {
	if len(coef) == 0 {
		return nil, errors.New("linear model: no coefficients")
	}
	return &Linear{coef: append([]float64(nil), coef...), intercept: intercept}, nil
}

func (l *Linear) NumFeatures() int { return len(l.coef) }

func (l *Linear) Predict(x []float64) (float64, error) {
	if err := checkDim(x, len(l.coef)); err != nil {
		return 0, err
	}
	y := l.intercept
	for i, c := range l.coef {
		y += c * x[i]
	}
	return finite(y)
}

func finite(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite prediction %v", v)
	}
	return v, nil
}
