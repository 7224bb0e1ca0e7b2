package main

import (
	"github.com/couchcryptid/rainfall-hindcast-service/internal/domain"
	"github.com/couchcryptid/rainfall-hindcast-service/internal/model"
)

// trainingOrder is the column order of the demo training frame. It differs
// from the form order on purpose.
var trainingOrder = []string{
	domain.FeatureDryBulb,
	domain.FeatureDewPoint,
	domain.FeatureWetBulb,
	domain.FeatureRelativeHumidity,
	domain.FeatureWindSpeed,
	domain.FeaturePressureQFF,
	domain.FeaturePressureQFE,
	domain.FeatureCloudLowType,
	domain.FeatureCloudLowMedAmount,
	domain.FeatureCloudMedType,
	domain.FeatureCloudHighType,
	domain.FeatureCloudCover,
	domain.FeaturePresentWeather,
	domain.FeatureLandCondition,
}

// Column statistics of the demo training frame, in trainingOrder.
var (
	demoMean  = []float64{27.5, 23.9, 25.0, 82, 2.5, 1009.8, 1008.9, 4.2, 3.1, 3.0, 2.6, 6.1, 8.5, 0.6}
	demoScale = []float64{2.8, 1.1, 1.2, 10, 1.8, 1.6, 1.6, 2.9, 1.9, 3.3, 3.0, 1.8, 17.0, 0.5}
)

const (
	demoRainMean  = 0.9
	demoRainScale = 3.4
)

// node is a tree written in raw units: thresholds in observation units,
// leaves in mm. build scales both the way a fitted pipeline would.
type node struct {
	feature     string
	threshold   float64
	left, right *node
	mm          float64
}

func split(feature string, threshold float64, left, right *node) *node {
	return &node{feature: feature, threshold: threshold, left: left, right: right}
}

func rain(mm float64) *node { return &node{mm: mm} }

func demoTrees() []*node {
	return []*node{
		split(domain.FeaturePresentWeather, 20,
			split(domain.FeatureRelativeHumidity, 88,
				split(domain.FeatureCloudCover, 6, rain(0), rain(0.6)),
				split(domain.FeatureLandCondition, 0.5, rain(1.8), rain(4.2))),
			split(domain.FeaturePresentWeather, 80,
				split(domain.FeatureRelativeHumidity, 90, rain(6.5), rain(12.0)),
				rain(18.0))),
		split(domain.FeatureRelativeHumidity, 85.5,
			split(domain.FeatureDryBulb, 26, rain(0.4), rain(0.05)),
			split(domain.FeatureCloudCover, 7.5,
				split(domain.FeatureWindSpeed, 3, rain(2.0), rain(3.5)),
				rain(9.0))),
		split(domain.FeatureLandCondition, 1.5,
			split(domain.FeaturePressureQFE, 1007.5,
				rain(3.0),
				split(domain.FeatureCloudLowType, 6.5, rain(0.3), rain(1.5))),
			split(domain.FeaturePresentWeather, 60, rain(8.0), rain(15.0))),
	}
}

func demoArtifacts() artifactSet {
	index := make(map[string]int, len(trainingOrder))
	for i, name := range trainingOrder {
		index[name] = i
	}

	roots := demoTrees()
	trees := make([]model.Tree, len(roots))
	for i, root := range roots {
		b := treeBuilder{index: index}
		b.add(root)
		trees[i] = b.tree
	}

	return artifactSet{
		Model: model.ModelFile{
			Kind:      model.KindRandomForest,
			NFeatures: len(trainingOrder),
			Trees:     trees,
		},
		XScaler: model.ScalerFile{
			Kind:         model.KindStandard,
			FeatureNames: trainingOrder,
			Mean:         demoMean,
			Scale:        demoScale,
		},
		YScaler: model.ScalerFile{
			Kind:  model.KindStandard,
			Mean:  []float64{demoRainMean},
			Scale: []float64{demoRainScale},
		},
	}
}

// treeBuilder flattens a node tree depth first, so children always follow
// their parent.
type treeBuilder struct {
	index map[string]int
	tree  model.Tree
}

func (b *treeBuilder) add(n *node) int {
	i := len(b.tree.ChildrenLeft)
	b.tree.ChildrenLeft = append(b.tree.ChildrenLeft, -1)
	b.tree.ChildrenRight = append(b.tree.ChildrenRight, -1)
	b.tree.Feature = append(b.tree.Feature, -2)
	b.tree.Threshold = append(b.tree.Threshold, -2)
	b.tree.Value = append(b.tree.Value, 0)

	if n.left == nil {
		b.tree.Value[i] = (n.mm - demoRainMean) / demoRainScale
		return i
	}

	f := b.index[n.feature]
	b.tree.Feature[i] = f
	b.tree.Threshold[i] = (n.threshold - demoMean[f]) / demoScale[f]
	left := b.add(n.left)
	right := b.add(n.right)
	b.tree.ChildrenLeft[i] = left
	b.tree.ChildrenRight[i] = right
	return i
}

// identityArtifacts pass inputs through unscaled into a linear model on
// present weather and humidity. Useful for checking feature wiring by hand.
func identityArtifacts() artifactSet {
	names := domain.FeatureNames()
	coef := make([]float64, len(names))
	for i, name := range names {
		switch name {
		case domain.FeaturePresentWeather:
			coef[i] = 0.1
		case domain.FeatureRelativeHumidity:
			coef[i] = 0.05
		}
	}
	return artifactSet{
		Model: model.ModelFile{
			Kind:      model.KindLinear,
			NFeatures: len(names),
			Coef:      coef,
			Intercept: -4.5,
		},
		XScaler: model.ScalerFile{
			Kind:         model.KindIdentity,
			NFeatures:    len(names),
			FeatureNames: names,
		},
		YScaler: model.ScalerFile{Kind: model.KindIdentity, NFeatures: 1},
	}
}
