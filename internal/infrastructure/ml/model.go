package ml

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

// TrainingConfig is the configuration a model was trained with. It is
// persisted inside the artifact so a loaded model can report how it
// was produced.
type TrainingConfig struct {
	LearningRate float64 `json:"learning_rate"`
	Epochs       int     `json:"epochs"`
	BatchSize    int     `json:"batch_size"`
	Seed         int64   `json:"seed"`
}

// DefaultTrainingConfig returns sensible training parameters.
func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{
		LearningRate: 0.01,
		Epochs:       200,
		BatchSize:    32,
		Seed:         42,
	}
}

// Model is a logistic-regression fraud classifier. The artifact
// round-trips the classifier parameters, its feature columns, the
// training timestamp, and the training configuration.
type Model struct {
	Weights   map[string]float64 `json:"weights"`
	Bias      float64            `json:"bias"`
	Columns   []string           `json:"feature_columns"`
	TrainedAt time.Time          `json:"trained_at"`
	Config    TrainingConfig     `json:"training_config"`
}

// Probability scores one feature map. Columns the model expects but the
// map lacks contribute zero; extra keys in the map are ignored.
func (m *Model) Probability(features map[string]float64) (float64, error) {
	if len(m.Weights) == 0 || len(m.Columns) == 0 {
		return 0, fmt.Errorf("model has no trained weights")
	}

	z := m.Bias
	for _, col := range m.Columns {
		w, ok := m.Weights[col]
		if !ok {
			return 0, fmt.Errorf("model weight missing for column %q", col)
		}
		z += w * features[col]
	}

	p := sigmoid(z)
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, fmt.Errorf("prediction produced non-finite probability")
	}
	return p, nil
}

// Train fits a model on labeled feature maps with mini-batch gradient
// descent. Labels are 0 or 1.
func Train(samples []map[string]float64, labels []float64, columns []string, cfg TrainingConfig) (*Model, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no training samples")
	}
	if len(samples) != len(labels) {
		return nil, fmt.Errorf("sample/label count mismatch: %d vs %d", len(samples), len(labels))
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = DefaultTrainingConfig().LearningRate
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = DefaultTrainingConfig().Epochs
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultTrainingConfig().BatchSize
	}

	m := &Model{
		Weights:   make(map[string]float64, len(columns)),
		Columns:   append([]string(nil), columns...),
		TrainedAt: time.Now().UTC(),
		Config:    cfg,
	}
	for _, c := range columns {
		m.Weights[c] = 0
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	order := make([]int, len(samples))
	for i := range order {
		order[i] = i
	}

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})

		for start := 0; start < len(order); start += cfg.BatchSize {
			end := start + cfg.BatchSize
			if end > len(order) {
				end = len(order)
			}
			batch := order[start:end]

			grad := make(map[string]float64, len(columns))
			var gradBias float64
			for _, idx := range batch {
				z := m.Bias
				for _, c := range columns {
					z += m.Weights[c] * samples[idx][c]
				}
				err := sigmoid(z) - labels[idx]
				gradBias += err
				for _, c := range columns {
					grad[c] += err * samples[idx][c]
				}
			}

			scale := cfg.LearningRate / float64(len(batch))
			m.Bias -= scale * gradBias
			for _, c := range columns {
				m.Weights[c] -= scale * grad[c]
			}
		}
	}

	return m, nil
}

// Evaluation summarizes classifier quality on a labeled set, with the
// fraud decision made at a probability threshold.
type Evaluation struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1_score"`
}

// Evaluate scores each sample and compares the thresholded decision
// against its label. Precision, recall, and F1 report zero when their
// denominators are empty.
func (m *Model) Evaluate(samples []map[string]float64, labels []float64, threshold float64) (Evaluation, error) {
	if len(samples) == 0 || len(samples) != len(labels) {
		return Evaluation{}, fmt.Errorf("evaluation set mismatch: %d samples, %d labels", len(samples), len(labels))
	}

	var tp, fp, tn, fn float64
	for i, s := range samples {
		p, err := m.Probability(s)
		if err != nil {
			return Evaluation{}, err
		}
		predicted := p >= threshold
		actual := labels[i] != 0
		switch {
		case predicted && actual:
			tp++
		case predicted && !actual:
			fp++
		case !predicted && actual:
			fn++
		default:
			tn++
		}
	}

	ev := Evaluation{Accuracy: (tp + tn) / float64(len(samples))}
	if tp+fp > 0 {
		ev.Precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		ev.Recall = tp / (tp + fn)
	}
	if ev.Precision+ev.Recall > 0 {
		ev.F1 = 2 * ev.Precision * ev.Recall / (ev.Precision + ev.Recall)
	}
	return ev, nil
}

// Save writes the model artifact as JSON, creating parent directories
// as needed.
func (m *Model) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create model directory: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write model artifact: %w", err)
	}
	return nil
}

// LoadModel reads a model artifact from disk.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	if len(m.Columns) == 0 || len(m.Weights) == 0 {
		return nil, fmt.Errorf("model artifact missing weights or columns")
	}
	return &m, nil
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
