package ml

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Abishek213/Major-AI/internal/domain/risk"
)

// standardScaler normalizes each feature to zero mean and unit
// variance, fitted on the training distribution.
type standardScaler struct {
	Mean   []float64 `json:"mean"`
	Stddev []float64 `json:"stddev"`
}

func fitScaler(matrix [][]float64) *standardScaler {
	cols := len(matrix[0])
	s := &standardScaler{
		Mean:   make([]float64, cols),
		Stddev: make([]float64, cols),
	}
	n := float64(len(matrix))

	for j := 0; j < cols; j++ {
		var sum float64
		for _, row := range matrix {
			sum += row[j]
		}
		s.Mean[j] = sum / n

		var sq float64
		for _, row := range matrix {
			d := row[j] - s.Mean[j]
			sq += d * d
		}
		s.Stddev[j] = math.Sqrt(sq / n)
		if s.Stddev[j] == 0 {
			s.Stddev[j] = 1
		}
	}
	return s
}

func (s *standardScaler) transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for j := range row {
		if j < len(s.Mean) {
			out[j] = (row[j] - s.Mean[j]) / s.Stddev[j]
		}
	}
	return out
}

// isoNode is one node of an isolation tree, stored flat for JSON
// persistence.
type isoNode struct {
	Feature int     `json:"f"`
	Split   float64 `json:"s"`
	Left    int     `json:"l"`
	Right   int     `json:"r"`
	Size    int     `json:"n"` // leaf sample count, 0 for internal nodes
}

type isoTree struct {
	Nodes []isoNode `json:"nodes"`
}

// AnomalyDetector flags statistical outliers with an isolation forest
// over standardized features. It must be trained (or loaded) before
// detection.
type AnomalyDetector struct {
	mu sync.RWMutex

	scaler    *standardScaler
	trees     []isoTree
	subsample int
	threshold float64
	trainedAt time.Time

	numTrees      int
	contamination float64
	seed          int64
	log           zerolog.Logger
}

// NewAnomalyDetector creates an untrained detector. contamination is
// the expected outlier fraction used to place the decision threshold.
func NewAnomalyDetector(numTrees int, contamination float64, seed int64, log zerolog.Logger) *AnomalyDetector {
	if numTrees <= 0 {
		numTrees = 100
	}
	if contamination <= 0 || contamination >= 1 {
		contamination = 0.1
	}
	return &AnomalyDetector{
		numTrees:      numTrees,
		contamination: contamination,
		seed:          seed,
		log:           log.With().Str("component", "anomaly_detector").Logger(),
	}
}

// Trained reports whether the detector can score points.
func (d *AnomalyDetector) Trained() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.scaler != nil && len(d.trees) > 0
}

// Train fits the scaler and the forest on a feature matrix, then sets
// the decision threshold at the contamination percentile of training
// scores.
func (d *AnomalyDetector) Train(matrix [][]float64) error {
	if len(matrix) == 0 || len(matrix[0]) == 0 {
		return fmt.Errorf("training matrix is empty")
	}

	scaler := fitScaler(matrix)
	scaled := make([][]float64, len(matrix))
	for i, row := range matrix {
		scaled[i] = scaler.transform(row)
	}

	subsample := len(scaled)
	if subsample > 256 {
		subsample = 256
	}

	rng := rand.New(rand.NewSource(d.seed))
	trees := make([]isoTree, d.numTrees)
	maxDepth := int(math.Ceil(math.Log2(float64(subsample)))) + 1
	for i := range trees {
		sample := sampleRows(scaled, subsample, rng)
		trees[i] = buildIsoTree(sample, maxDepth, rng)
	}

	scores := make([]float64, len(scaled))
	for i, row := range scaled {
		scores[i] = forestScore(trees, subsample, row)
	}
	threshold := percentile(scores, d.contamination*100)

	d.mu.Lock()
	d.scaler = scaler
	d.trees = trees
	d.subsample = subsample
	d.threshold = threshold
	d.trainedAt = time.Now().UTC()
	d.mu.Unlock()

	d.log.Info().
		Int("samples", len(matrix)).
		Int("trees", d.numTrees).
		Float64("threshold", threshold).
		Msg("anomaly detector trained")
	return nil
}

// Detect scores points and flags those below the trained threshold.
// Returns the flags and the raw scores; higher scores are more normal.
func (d *AnomalyDetector) Detect(matrix [][]float64) ([]bool, []float64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.scaler == nil || len(d.trees) == 0 {
		return nil, nil, risk.ErrNotTrained
	}

	flags := make([]bool, len(matrix))
	scores := make([]float64, len(matrix))
	for i, row := range matrix {
		if len(row) != len(d.scaler.Mean) {
			return nil, nil, fmt.Errorf("row %d has %d features, detector was trained on %d", i, len(row), len(d.scaler.Mean))
		}
		s := forestScore(d.trees, d.subsample, d.scaler.transform(row))
		scores[i] = s
		flags[i] = s < d.threshold
	}
	return flags, scores, nil
}

// RiskLevel maps a raw anomaly score onto a qualitative level using
// offsets from the trained threshold.
func (d *AnomalyDetector) RiskLevel(score float64) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.scaler == nil {
		return "", risk.ErrNotTrained
	}

	switch {
	case score < d.threshold-1.0:
		return risk.AnomalyCritical, nil
	case score < d.threshold-0.5:
		return risk.AnomalyHigh, nil
	case score < d.threshold:
		return risk.AnomalyMedium, nil
	case score < d.threshold+0.5:
		return risk.AnomalyLow, nil
	default:
		return risk.AnomalyNormal, nil
	}
}

// Explain reports the features of a flagged point whose standardized
// magnitude exceeds 2 (medium) or 3 (high) standard deviations.
func (d *AnomalyDetector) Explain(row []float64, columns []string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.scaler == nil {
		return nil, risk.ErrNotTrained
	}

	var factors []string
	scaled := d.scaler.transform(row)
	for j, v := range scaled {
		name := fmt.Sprintf("feature_%d", j)
		if j < len(columns) {
			name = columns[j]
		}
		mag := math.Abs(v)
		switch {
		case mag > 3:
			factors = append(factors, fmt.Sprintf("%s is %.1f standard deviations from normal (high)", name, mag))
		case mag > 2:
			factors = append(factors, fmt.Sprintf("%s is %.1f standard deviations from normal (medium)", name, mag))
		}
	}
	return factors, nil
}

// Update does not support incremental fitting. It logs a warning and
// leaves the trained state untouched; callers must retrain on a full
// buffer instead.
func (d *AnomalyDetector) Update(matrix [][]float64) {
	d.log.Warn().
		Int("discarded_samples", len(matrix)).
		Msg("incremental update not supported, retrain on the full buffer instead")
}

// anomalyArtifact is the persisted detector state.
type anomalyArtifact struct {
	Scaler    *standardScaler `json:"scaler"`
	Trees     []isoTree       `json:"trees"`
	Subsample int             `json:"subsample"`
	Threshold float64         `json:"threshold"`
	TrainedAt time.Time       `json:"trained_at"`
}

// Save writes the trained detector state as JSON.
func (d *AnomalyDetector) Save(path string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.scaler == nil {
		return risk.ErrNotTrained
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create detector directory: %w", err)
	}
	data, err := json.Marshal(anomalyArtifact{
		Scaler:    d.scaler,
		Trees:     d.trees,
		Subsample: d.subsample,
		Threshold: d.threshold,
		TrainedAt: d.trainedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal detector: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write detector artifact: %w", err)
	}
	return nil
}

// Load restores a trained detector state from disk.
func (d *AnomalyDetector) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read detector artifact: %w", err)
	}
	var a anomalyArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("decode detector artifact: %w", err)
	}
	if a.Scaler == nil || len(a.Trees) == 0 {
		return fmt.Errorf("detector artifact missing scaler or forest")
	}

	d.mu.Lock()
	d.scaler = a.Scaler
	d.trees = a.Trees
	d.subsample = a.Subsample
	d.threshold = a.Threshold
	d.trainedAt = a.TrainedAt
	d.mu.Unlock()
	return nil
}

func sampleRows(matrix [][]float64, n int, rng *rand.Rand) [][]float64 {
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		out[i] = matrix[rng.Intn(len(matrix))]
	}
	return out
}

// buildIsoTree grows one isolation tree over the sample, splitting on
// random features at random cut points.
func buildIsoTree(sample [][]float64, maxDepth int, rng *rand.Rand) isoTree {
	t := isoTree{}
	var grow func(rows [][]float64, depth int) int
	grow = func(rows [][]float64, depth int) int {
		idx := len(t.Nodes)
		if depth >= maxDepth || len(rows) <= 1 {
			t.Nodes = append(t.Nodes, isoNode{Size: len(rows), Left: -1, Right: -1})
			return idx
		}

		feature := rng.Intn(len(rows[0]))
		lo, hi := rows[0][feature], rows[0][feature]
		for _, r := range rows {
			if r[feature] < lo {
				lo = r[feature]
			}
			if r[feature] > hi {
				hi = r[feature]
			}
		}
		if lo == hi {
			t.Nodes = append(t.Nodes, isoNode{Size: len(rows), Left: -1, Right: -1})
			return idx
		}

		split := lo + rng.Float64()*(hi-lo)
		var left, right [][]float64
		for _, r := range rows {
			if r[feature] < split {
				left = append(left, r)
			} else {
				right = append(right, r)
			}
		}

		t.Nodes = append(t.Nodes, isoNode{Feature: feature, Split: split})
		t.Nodes[idx].Left = grow(left, depth+1)
		t.Nodes[idx].Right = grow(right, depth+1)
		return idx
	}
	grow(sample, 0)
	return t
}

// pathLength walks a point down a tree, adding the average-path
// adjustment at leaves holding more than one sample.
func (t *isoTree) pathLength(row []float64) float64 {
	depth := 0.0
	idx := 0
	for {
		node := t.Nodes[idx]
		if node.Left == -1 {
			if node.Size > 1 {
				depth += avgPathLength(float64(node.Size))
			}
			return depth
		}
		if row[node.Feature] < node.Split {
			idx = node.Left
		} else {
			idx = node.Right
		}
		depth++
	}
}

// avgPathLength is the expected path length of an unsuccessful BST
// search over n points.
func avgPathLength(n float64) float64 {
	if n <= 1 {
		return 0
	}
	const euler = 0.5772156649
	return 2*(math.Log(n-1)+euler) - 2*(n-1)/n
}

// forestScore returns a score where higher means more normal. It is
// the negated isolation-forest anomaly measure, so outliers score
// lower than inliers.
func forestScore(trees []isoTree, subsample int, row []float64) float64 {
	var total float64
	for i := range trees {
		total += trees[i].pathLength(row)
	}
	mean := total / float64(len(trees))
	c := avgPathLength(float64(subsample))
	if c == 0 {
		c = 1
	}
	return -math.Pow(2, -mean/c)
}

// percentile computes the pth percentile with linear interpolation.
func percentile(values []float64, p float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
