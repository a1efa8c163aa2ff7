package ml

import (
	"math"
	"math/rand"
)

// RandomForest bags decision trees grown on bootstrap samples, each split
// drawing MaxFeatures candidate features. Probabilities are the mean of the
// per-tree leaf distributions.
type RandomForest struct {
	NumTrees    int             `json:"num_trees"`
	MaxDepth    int             `json:"max_depth"`
	MaxFeatures int             `json:"max_features"`
	Seed        int64           `json:"seed"`
	Trees       []*DecisionTree `json:"trees"`
}

func NewRandomForest(numTrees, maxDepth, maxFeatures int, seed int64) *RandomForest {
	return &RandomForest{NumTrees: numTrees, MaxDepth: maxDepth, MaxFeatures: maxFeatures, Seed: seed}
}

func (rf *RandomForest) Train(features [][]float64, labels []int) error {
	if err := checkTrainingSet(features, labels); err != nil {
		return err
	}
	if rf.NumTrees <= 0 {
		rf.NumTrees = 100
	}
	width := len(features[0])
	maxFeatures := rf.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Sqrt(float64(width)))
		if maxFeatures < 1 {
			maxFeatures = 1
		}
	}

	master := rand.New(rand.NewSource(rf.Seed))
	trees := make([]*DecisionTree, rf.NumTrees)
	n := len(features)
	for t := range trees {
		seed := master.Int63()
		rng := rand.New(rand.NewSource(seed))
		sample := make([]int, n)
		for i := range sample {
			sample[i] = rng.Intn(n)
		}
		tree := &DecisionTree{
			MaxDepth:        rf.MaxDepth,
			MinSamplesSplit: 2,
			MaxFeatures:     maxFeatures,
			Seed:            seed,
		}
		tree.fit(features, labels, sample, rng)
		trees[t] = tree
	}
	rf.Trees = trees
	return nil
}

func (rf *RandomForest) PredictProbabilities(features []float64) ([2]float64, error) {
	if len(rf.Trees) == 0 {
		return [2]float64{}, ErrNotTrained
	}
	var sum [2]float64
	for _, tree := range rf.Trees {
		probs, err := tree.PredictProbabilities(features)
		if err != nil {
			return [2]float64{}, err
		}
		sum[0] += probs[0]
		sum[1] += probs[1]
	}
	n := float64(len(rf.Trees))
	p1 := sum[1] / n
	return [2]float64{1 - p1, p1}, nil
}

func (rf *RandomForest) PredictLabel(features []float64) (int, error) {
	probs, err := rf.PredictProbabilities(features)
	if err != nil {
		return 0, err
	}
	return argmax(probs), nil
}

func (rf *RandomForest) FeatureImportances() []float64 {
	if len(rf.Trees) == 0 {
		return nil
	}
	var out []float64
	for _, tree := range rf.Trees {
		if out == nil {
			out = make([]float64, len(tree.Importances))
		}
		for i, v := range tree.Importances {
			if i < len(out) {
				out[i] += v
			}
		}
	}
	for i := range out {
		out[i] /= float64(len(rf.Trees))
	}
	return out
}
