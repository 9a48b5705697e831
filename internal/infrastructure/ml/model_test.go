package ml

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trainingSet is a small linearly separable set: fraud when the
// composite score is high.
func trainingSet() ([]map[string]float64, []float64, []string) {
	cols := []string{"composite_risk_score", "amount_log"}
	var samples []map[string]float64
	var labels []float64

	for i := 0; i < 50; i++ {
		samples = append(samples, map[string]float64{
			"composite_risk_score": float64(i % 20),
			"amount_log":           2.0,
		})
		labels = append(labels, 0)
	}
	for i := 0; i < 50; i++ {
		samples = append(samples, map[string]float64{
			"composite_risk_score": 80 + float64(i%20),
			"amount_log":           6.0,
		})
		labels = append(labels, 1)
	}
	return samples, labels, cols
}

func TestTrainSeparatesClasses(t *testing.T) {
	samples, labels, cols := trainingSet()

	m, err := Train(samples, labels, cols, DefaultTrainingConfig())
	require.NoError(t, err)

	low, err := m.Probability(map[string]float64{"composite_risk_score": 5, "amount_log": 2})
	require.NoError(t, err)
	high, err := m.Probability(map[string]float64{"composite_risk_score": 95, "amount_log": 6})
	require.NoError(t, err)

	assert.Less(t, low, 0.5)
	assert.Greater(t, high, 0.5)
}

func TestTrainValidation(t *testing.T) {
	_, err := Train(nil, nil, []string{"a"}, DefaultTrainingConfig())
	assert.Error(t, err)

	_, err = Train([]map[string]float64{{"a": 1}}, []float64{0, 1}, []string{"a"}, DefaultTrainingConfig())
	assert.Error(t, err)
}

func TestProbabilityPadding(t *testing.T) {
	samples, labels, cols := trainingSet()
	m, err := Train(samples, labels, cols, DefaultTrainingConfig())
	require.NoError(t, err)

	// Missing columns contribute zero rather than erroring
	p, err := m.Probability(map[string]float64{"composite_risk_score": 95})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, p, 0.0)
	assert.LessOrEqual(t, p, 1.0)

	// Extra keys are ignored
	q, err := m.Probability(map[string]float64{"composite_risk_score": 95, "unknown_feature": 123})
	require.NoError(t, err)
	expected, err := m.Probability(map[string]float64{"composite_risk_score": 95})
	require.NoError(t, err)
	assert.Equal(t, expected, q)
}

func TestModelRoundTrip(t *testing.T) {
	samples, labels, cols := trainingSet()
	m, err := Train(samples, labels, cols, DefaultTrainingConfig())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "models", "fraud_model.json")
	require.NoError(t, m.Save(path))

	loaded, err := LoadModel(path)
	require.NoError(t, err)

	assert.Equal(t, m.Columns, loaded.Columns)
	assert.Equal(t, m.Config, loaded.Config)
	assert.True(t, m.TrainedAt.Equal(loaded.TrainedAt))

	// Identical predictions on a fixed test set
	testPoints := []map[string]float64{
		{"composite_risk_score": 0, "amount_log": 1},
		{"composite_risk_score": 50, "amount_log": 4},
		{"composite_risk_score": 100, "amount_log": 7},
	}
	for _, pt := range testPoints {
		orig, err := m.Probability(pt)
		require.NoError(t, err)
		rt, err := loaded.Probability(pt)
		require.NoError(t, err)
		assert.Equal(t, orig, rt)
	}
}

func TestEvaluateCountsConfusionMatrix(t *testing.T) {
	// Hand-built model: x=1 predicts fraud, x=0 does not.
	m := &Model{
		Weights: map[string]float64{"x": 10},
		Bias:    -5,
		Columns: []string{"x"},
	}

	samples := []map[string]float64{
		{"x": 1}, // true positive
		{"x": 1}, // false positive
		{"x": 0}, // false negative
		{"x": 0}, // true negative
	}
	labels := []float64{1, 0, 1, 0}

	ev, err := m.Evaluate(samples, labels, 0.5)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, ev.Accuracy, 1e-9)
	assert.InDelta(t, 0.5, ev.Precision, 1e-9)
	assert.InDelta(t, 0.5, ev.Recall, 1e-9)
	assert.InDelta(t, 0.5, ev.F1, 1e-9)
}

func TestEvaluatePerfectSeparation(t *testing.T) {
	samples, labels, cols := trainingSet()
	m, err := Train(samples, labels, cols, DefaultTrainingConfig())
	require.NoError(t, err)

	ev, err := m.Evaluate(samples, labels, 0.5)
	require.NoError(t, err)

	assert.Equal(t, 1.0, ev.Accuracy)
	assert.Equal(t, 1.0, ev.Precision)
	assert.Equal(t, 1.0, ev.Recall)
	assert.Equal(t, 1.0, ev.F1)
}

func TestEvaluateValidation(t *testing.T) {
	m := &Model{
		Weights: map[string]float64{"x": 1},
		Columns: []string{"x"},
	}

	_, err := m.Evaluate(nil, nil, 0.5)
	assert.Error(t, err)

	_, err = m.Evaluate([]map[string]float64{{"x": 1}}, []float64{0, 1}, 0.5)
	assert.Error(t, err)
}

func TestLoadModelErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadModel(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})

	t.Run("empty artifact rejected", func(t *testing.T) {
		m := &Model{}
		_, err := m.Probability(map[string]float64{})
		assert.Error(t, err)
	})
}
