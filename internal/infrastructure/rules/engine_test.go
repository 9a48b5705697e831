package rules

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/Abishek213/Major-AI/internal/infrastructure/ml"
)

func testEngine() *Engine {
	return NewEngine(DefaultThresholds(), zerolog.Nop())
}

func TestScoreQuietVector(t *testing.T) {
	e := testEngine()
	f := &ml.FeatureVector{
		AmountDeviation: 1.0,
		HourlyVelocity:  1,
		SessionDuration: 300,
		FailureRate:     0.05,
	}
	score, factors := e.Score(f)
	assert.Zero(t, score)
	assert.Empty(t, factors)
}

func TestScoreNewUserNightShortSession(t *testing.T) {
	e := testEngine()
	f := &ml.FeatureVector{
		Amount:          999.99,
		AmountDeviation: 1.0,
		IsFirstTx:       1,
		IsNightHours:    1,
		IsShortSession:  1,
		SessionDuration: 45,
	}
	score, factors := e.Score(f)
	assert.InDelta(t, 70.0, score, 1e-9)
	assert.ElementsMatch(t, []string{
		"NIGHT_TRANSACTION",
		"SHORT_SESSION",
		"NEW_USER_HIGH_AMOUNT",
	}, factors)
}

func TestScoreSeverityTiers(t *testing.T) {
	e := testEngine()

	t.Run("deviation tiers", func(t *testing.T) {
		score, factors := e.Score(&ml.FeatureVector{AmountDeviation: 4})
		assert.InDelta(t, ml.WeightHighDeviation, score, 1e-9)
		assert.Equal(t, []string{"HIGH_AMOUNT_DEVIATION"}, factors)

		score, factors = e.Score(&ml.FeatureVector{AmountDeviation: 8})
		assert.InDelta(t, ml.WeightExtremeDeviation, score, 1e-9)
		assert.Equal(t, []string{"EXTREME_AMOUNT_DEVIATION"}, factors)
	})

	t.Run("velocity tiers", func(t *testing.T) {
		score, factors := e.Score(&ml.FeatureVector{AmountDeviation: 1, HourlyVelocity: 7})
		assert.InDelta(t, ml.WeightHighVelocity, score, 1e-9)
		assert.Equal(t, []string{"HIGH_TRANSACTION_VELOCITY"}, factors)

		score, factors = e.Score(&ml.FeatureVector{AmountDeviation: 1, HourlyVelocity: 15})
		assert.InDelta(t, ml.WeightExtremeVelocity, score, 1e-9)
		assert.Equal(t, []string{"EXTREME_TRANSACTION_VELOCITY"}, factors)
	})

	t.Run("only highest tier fires", func(t *testing.T) {
		_, factors := e.Score(&ml.FeatureVector{AmountDeviation: 8})
		assert.NotContains(t, factors, "HIGH_AMOUNT_DEVIATION")
	})
}

func TestScoreFailureHistory(t *testing.T) {
	e := testEngine()
	score, factors := e.Score(&ml.FeatureVector{AmountDeviation: 1, FailureRate: 0.5})
	assert.InDelta(t, ml.WeightHighFailureRate, score, 1e-9)
	assert.Equal(t, []string{"HIGH_FAILURE_HISTORY"}, factors)
}

func TestFactorsMatchScoreTags(t *testing.T) {
	e := testEngine()
	f := &ml.FeatureVector{
		Amount:          999.99,
		AmountDeviation: 4,
		IsFirstTx:       1,
		IsNightHours:    1,
	}
	_, scored := e.Score(f)
	assert.Equal(t, scored, e.Factors(f))
}

func TestFactorsUseConfiguredBoundaries(t *testing.T) {
	th := DefaultThresholds()
	th.HighDeviationRatio = 2
	th.NewUserAmount = 5000
	e := NewEngine(th, zerolog.Nop())

	f := &ml.FeatureVector{
		Amount:          999.99,
		AmountDeviation: 2.5,
		IsFirstTx:       1,
	}
	factors := e.Factors(f)
	assert.Contains(t, factors, "HIGH_AMOUNT_DEVIATION")
	assert.NotContains(t, factors, "NEW_USER_HIGH_AMOUNT")
}

func TestScoreCappedAt100(t *testing.T) {
	e := testEngine()
	f := &ml.FeatureVector{
		Amount:          5000,
		AmountDeviation: 20,
		HourlyVelocity:  50,
		IsFirstTx:       1,
		IsNightHours:    1,
		IsShortSession:  1,
		FailureRate:     1.0,
	}
	score, factors := e.Score(f)
	assert.Equal(t, 100.0, score)
	assert.Len(t, factors, 6)
}
