package rules

import (
	"github.com/rs/zerolog"

	"github.com/Abishek213/Major-AI/internal/infrastructure/ml"
)

// Thresholds are the trigger boundaries for each heuristic rule, with
// an extreme tier above the high tier where applicable.
type Thresholds struct {
	HighDeviationRatio    float64
	ExtremeDeviationRatio float64
	HighHourlyVelocity    float64
	ExtremeHourlyVelocity float64
	HighFailureRate       float64
	NewUserAmount         float64
}

// DefaultThresholds returns the standard rule boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HighDeviationRatio:    3,
		ExtremeDeviationRatio: 5,
		HighHourlyVelocity:    5,
		ExtremeHourlyVelocity: 10,
		HighFailureRate:       0.3,
		NewUserAmount:         100,
	}
}

// Engine scores feature vectors with fixed heuristic weights when no
// trained model is available. Each triggered rule contributes its
// weight and a named risk factor tag; tiered rules report only their
// highest triggered tier.
type Engine struct {
	thresholds Thresholds
	log        zerolog.Logger
}

// NewEngine creates a rule engine with the given trigger boundaries.
func NewEngine(thresholds Thresholds, log zerolog.Logger) *Engine {
	return &Engine{
		thresholds: thresholds,
		log:        log.With().Str("component", "rule_engine").Logger(),
	}
}

type ruleHit struct {
	weight float64
	tag    string
}

func (e *Engine) hits(f *ml.FeatureVector) []ruleHit {
	var hits []ruleHit

	add := func(weight float64, tag string) {
		hits = append(hits, ruleHit{weight: weight, tag: tag})
	}

	switch {
	case f.AmountDeviation > e.thresholds.ExtremeDeviationRatio:
		add(ml.WeightExtremeDeviation, "EXTREME_AMOUNT_DEVIATION")
	case f.AmountDeviation > e.thresholds.HighDeviationRatio:
		add(ml.WeightHighDeviation, "HIGH_AMOUNT_DEVIATION")
	}

	switch {
	case f.HourlyVelocity > e.thresholds.ExtremeHourlyVelocity:
		add(ml.WeightExtremeVelocity, "EXTREME_TRANSACTION_VELOCITY")
	case f.HourlyVelocity > e.thresholds.HighHourlyVelocity:
		add(ml.WeightHighVelocity, "HIGH_TRANSACTION_VELOCITY")
	}

	if f.IsNightHours == 1 {
		add(ml.WeightNightTransaction, "NIGHT_TRANSACTION")
	}
	if f.IsShortSession == 1 {
		add(ml.WeightShortSession, "SHORT_SESSION")
	}
	if f.FailureRate > e.thresholds.HighFailureRate {
		add(ml.WeightHighFailureRate, "HIGH_FAILURE_HISTORY")
	}
	if f.IsFirstTx == 1 && f.Amount > e.thresholds.NewUserAmount {
		add(ml.WeightNewUserHighAmount, "NEW_USER_HIGH_AMOUNT")
	}

	return hits
}

// Score accumulates rule weights into a 0-100 score and returns the
// triggered factor tags.
func (e *Engine) Score(f *ml.FeatureVector) (float64, []string) {
	score := 0.0
	var factors []string
	for _, h := range e.hits(f) {
		score += h.weight
		factors = append(factors, h.tag)
	}

	if score > 100 {
		score = 100
	}

	if len(factors) > 0 {
		e.log.Debug().
			Float64("score", score).
			Strs("factors", factors).
			Msg("rules triggered")
	}
	return score, factors
}

// Factors returns the triggered factor tags alone, so model-path
// predictions carry the same tags as fallback scoring for the same
// configured boundaries.
func (e *Engine) Factors(f *ml.FeatureVector) []string {
	var factors []string
	for _, h := range e.hits(f) {
		factors = append(factors, h.tag)
	}
	return factors
}
