package ml

import (
	"errors"
	"math/rand"
	"sort"
)

var (
	errFeatureIndex = errors.New("feature index out of range")
	errInvalidTree  = errors.New("invalid tree state")
)

// DecisionTree is a binary CART classifier using Gini impurity. Nodes are
// stored in a flat slice; child fields index into it and are -1 on leaves.
type DecisionTree struct {
	MaxDepth        int        `json:"max_depth"`
	MinSamplesSplit int        `json:"min_samples_split"`
	MaxFeatures     int        `json:"max_features"`
	Seed            int64      `json:"seed"`
	Nodes           []TreeNode `json:"nodes"`
	Importances     []float64  `json:"importances"`
}

type TreeNode struct {
	FeatureIdx  int        `json:"feature_idx"`
	Threshold   float64    `json:"threshold"`
	LeftChild   int        `json:"left_child"`
	RightChild  int        `json:"right_child"`
	Probability [2]float64 `json:"probability"`
	Samples     int        `json:"samples"`
	IsLeaf      bool       `json:"is_leaf"`
}

func NewDecisionTree(maxDepth int, seed int64) *DecisionTree {
	return &DecisionTree{MaxDepth: maxDepth, MinSamplesSplit: 2, Seed: seed}
}

func (dt *DecisionTree) Train(features [][]float64, labels []int) error {
	if err := checkTrainingSet(features, labels); err != nil {
		return err
	}
	indices := make([]int, len(features))
	for i := range indices {
		indices[i] = i
	}
	dt.fit(features, labels, indices, rand.New(rand.NewSource(dt.Seed)))
	return nil
}

// fit grows the tree on the given row indices, which may contain repeats
// (bootstrap samples). rng is only consulted when MaxFeatures limits the
// candidate features per split.
func (dt *DecisionTree) fit(features [][]float64, labels []int, indices []int, rng *rand.Rand) {
	if dt.MaxDepth <= 0 {
		dt.MaxDepth = 3
	}
	if dt.MinSamplesSplit < 2 {
		dt.MinSamplesSplit = 2
	}
	b := &treeBuilder{
		tree:        dt,
		features:    features,
		labels:      labels,
		rng:         rng,
		width:       len(features[0]),
		importances: make([]float64, len(features[0])),
	}
	dt.Nodes = nil
	b.build(indices, 0)

	total := 0.0
	for _, v := range b.importances {
		total += v
	}
	if total > 0 {
		for i := range b.importances {
			b.importances[i] /= total
		}
	}
	dt.Importances = b.importances
}

func (dt *DecisionTree) PredictProbabilities(features []float64) ([2]float64, error) {
	node, err := dt.leaf(features)
	if err != nil {
		return [2]float64{}, err
	}
	return node.Probability, nil
}

func (dt *DecisionTree) PredictLabel(features []float64) (int, error) {
	probs, err := dt.PredictProbabilities(features)
	if err != nil {
		return 0, err
	}
	return argmax(probs), nil
}

func (dt *DecisionTree) FeatureImportances() []float64 {
	return append([]float64(nil), dt.Importances...)
}

func (dt *DecisionTree) leaf(features []float64) (TreeNode, error) {
	if len(dt.Nodes) == 0 {
		return TreeNode{}, ErrNotTrained
	}
	idx := 0
	for {
		node := dt.Nodes[idx]
		if node.IsLeaf {
			return node, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return TreeNode{}, errFeatureIndex
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(dt.Nodes) {
			return TreeNode{}, errInvalidTree
		}
	}
}

type treeBuilder struct {
	tree        *DecisionTree
	features    [][]float64
	labels      []int
	rng         *rand.Rand
	width       int
	importances []float64
}

func (b *treeBuilder) build(indices []int, depth int) int {
	counts := b.classCounts(indices)
	n := float64(len(indices))
	idx := len(b.tree.Nodes)
	b.tree.Nodes = append(b.tree.Nodes, TreeNode{
		FeatureIdx:  -1,
		LeftChild:   -1,
		RightChild:  -1,
		Probability: [2]float64{counts[0] / n, counts[1] / n},
		Samples:     len(indices),
		IsLeaf:      true,
	})

	if depth >= b.tree.MaxDepth || len(indices) < b.tree.MinSamplesSplit || counts[0] == 0 || counts[1] == 0 {
		return idx
	}

	split, ok := b.bestSplit(indices)
	if !ok {
		return idx
	}

	left := make([]int, 0, split.leftSize)
	right := make([]int, 0, len(indices)-split.leftSize)
	for _, i := range indices {
		if b.features[i][split.feature] <= split.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	b.importances[split.feature] += n*gini(counts) - split.weightedImpurity*n

	leftIdx := b.build(left, depth+1)
	rightIdx := b.build(right, depth+1)

	node := &b.tree.Nodes[idx]
	node.FeatureIdx = split.feature
	node.Threshold = split.threshold
	node.LeftChild = leftIdx
	node.RightChild = rightIdx
	node.IsLeaf = false
	return idx
}

type treeSplit struct {
	feature          int
	threshold        float64
	weightedImpurity float64
	leftSize         int
}

func (b *treeBuilder) bestSplit(indices []int) (treeSplit, bool) {
	best := treeSplit{feature: -1}
	found := false
	total := b.classCounts(indices)
	n := float64(len(indices))

	sorted := make([]int, len(indices))
	order, k := b.candidateFeatures()
	for examined, feature := range order {
		// Keep drawing past MaxFeatures until some valid split exists.
		if examined >= k && found {
			break
		}
		copy(sorted, indices)
		sort.SliceStable(sorted, func(a, c int) bool {
			return b.features[sorted[a]][feature] < b.features[sorted[c]][feature]
		})

		var left [2]float64
		for pos := 0; pos < len(sorted)-1; pos++ {
			left[b.labels[sorted[pos]]]++
			current := b.features[sorted[pos]][feature]
			next := b.features[sorted[pos+1]][feature]
			if current == next {
				continue
			}
			right := [2]float64{total[0] - left[0], total[1] - left[1]}
			nLeft := float64(pos + 1)
			impurity := (nLeft*gini(left) + (n-nLeft)*gini(right)) / n
			if !found || impurity < best.weightedImpurity {
				threshold := current + (next-current)/2
				if threshold >= next {
					threshold = current
				}
				best = treeSplit{feature: feature, threshold: threshold, weightedImpurity: impurity, leftSize: pos + 1}
				found = true
			}
		}
	}
	return best, found
}

// candidateFeatures returns the feature visiting order and how many of them
// form the regular candidate set.
func (b *treeBuilder) candidateFeatures() ([]int, int) {
	k := b.tree.MaxFeatures
	if k <= 0 || k >= b.width {
		all := make([]int, b.width)
		for i := range all {
			all[i] = i
		}
		return all, b.width
	}
	return b.rng.Perm(b.width), k
}

func (b *treeBuilder) classCounts(indices []int) [2]float64 {
	var counts [2]float64
	for _, i := range indices {
		counts[b.labels[i]]++
	}
	return counts
}

func gini(counts [2]float64) float64 {
	total := counts[0] + counts[1]
	if total == 0 {
		return 0
	}
	p0 := counts[0] / total
	p1 := counts[1] / total
	return 1 - p0*p0 - p1*p1
}
