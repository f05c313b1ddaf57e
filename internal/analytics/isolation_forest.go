package analytics

import (
	"math"
	"math/rand"

	mathutil "github.com/inferloop/healthtrack/internal/utils/math"
)

// IsolationForest scores one-dimensional observations by how quickly random
// axis splits isolate them. Scores lie in (0, 1]; higher is more anomalous.
type IsolationForest struct {
	numTrees      int
	subsampleSize int
	sampleSize    int
	normalizer    float64
	trees         []*isolationTree
	rng           *rand.Rand
}

type isolationTree struct {
	splitValue float64
	left       *isolationTree
	right      *isolationTree
	size       int
	isLeaf     bool
}

// NewIsolationForest creates an unfitted forest. The same seed and input
// always produce the same trees.
func NewIsolationForest(numTrees, subsampleSize int, seed int64) *IsolationForest {
	return &IsolationForest{
		numTrees:      numTrees,
		subsampleSize: subsampleSize,
		rng:           rand.New(rand.NewSource(seed)),
	}
}

// Fit builds the trees from values
func (f *IsolationForest) Fit(values []float64) {
	f.trees = f.trees[:0]
	if len(values) == 0 {
		return
	}

	f.sampleSize = f.subsampleSize
	if f.sampleSize > len(values) {
		f.sampleSize = len(values)
	}
	f.normalizer = mathutil.AveragePathLength(f.sampleSize)

	maxHeight := int(math.Ceil(math.Log2(float64(f.sampleSize))))

	for i := 0; i < f.numTrees; i++ {
		tree := &isolationTree{}
		tree.fit(f.subsample(values), 0, maxHeight, f.rng)
		f.trees = append(f.trees, tree)
	}
}

// subsample draws sampleSize values without replacement
func (f *IsolationForest) subsample(values []float64) []float64 {
	n := len(values)
	pool := make([]float64, n)
	copy(pool, values)

	for i := 0; i < f.sampleSize; i++ {
		j := i + f.rng.Intn(n-i)
		pool[i], pool[j] = pool[j], pool[i]
	}

	return pool[:f.sampleSize]
}

// Score returns s(x) = 2^(-E[h(x)]/c(psi)) for a single value
func (f *IsolationForest) Score(value float64) float64 {
	if len(f.trees) == 0 || f.normalizer == 0 {
		return 0.5
	}

	total := 0.0
	for _, tree := range f.trees {
		total += tree.pathLength(value, 0)
	}

	avgPath := total / float64(len(f.trees))
	return math.Pow(2, -avgPath/f.normalizer)
}

// ScoreAll scores each value
func (f *IsolationForest) ScoreAll(values []float64) []float64 {
	scores := make([]float64, len(values))
	for i, v := range values {
		scores[i] = f.Score(v)
	}
	return scores
}

func (t *isolationTree) fit(data []float64, depth, maxHeight int, rng *rand.Rand) {
	t.size = len(data)

	if len(data) <= 1 || depth >= maxHeight {
		t.isLeaf = true
		return
	}

	minVal, maxVal := mathutil.MinMax(data)
	if minVal == maxVal {
		t.isLeaf = true
		return
	}

	t.splitValue = minVal + rng.Float64()*(maxVal-minVal)

	var leftData, rightData []float64
	for _, v := range data {
		if v < t.splitValue {
			leftData = append(leftData, v)
		} else {
			rightData = append(rightData, v)
		}
	}

	if len(leftData) == 0 || len(rightData) == 0 {
		t.isLeaf = true
		return
	}

	t.left = &isolationTree{}
	t.right = &isolationTree{}
	t.left.fit(leftData, depth+1, maxHeight, rng)
	t.right.fit(rightData, depth+1, maxHeight, rng)
}

func (t *isolationTree) pathLength(value float64, depth int) float64 {
	if t.isLeaf {
		return float64(depth) + mathutil.AveragePathLength(t.size)
	}

	if value < t.splitValue {
		return t.left.pathLength(value, depth+1)
	}
	return t.right.pathLength(value, depth+1)
}
