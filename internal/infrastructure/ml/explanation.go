package ml

import (
	"fmt"
	"strings"

	"github.com/Abishek213/Major-AI/internal/domain/risk"
)

// factorWeight maps each risk factor tag to its raw contribution
// weight. Contributions are normalized across triggered tags.
var factorWeight = map[string]float64{
	"EXTREME_AMOUNT_DEVIATION":     WeightExtremeDeviation,
	"HIGH_AMOUNT_DEVIATION":        WeightHighDeviation,
	"EXTREME_TRANSACTION_VELOCITY": WeightExtremeVelocity,
	"HIGH_TRANSACTION_VELOCITY":    WeightHighVelocity,
	"NIGHT_TRANSACTION":            WeightNightTransaction,
	"SHORT_SESSION":                WeightShortSession,
	"HIGH_FAILURE_HISTORY":         WeightHighFailureRate,
	"NEW_USER_HIGH_AMOUNT":         WeightNewUserHighAmount,
}

// BuildExplanation renders triggered risk factors as human-readable
// sentences with percentage contributions summing to 100, plus a
// qualitative confidence summary.
func BuildExplanation(f *FeatureVector, factors []string, probability float64) risk.Explanation {
	e := risk.Explanation{
		Contributions: make(map[string]float64, len(factors)),
		Confidence:    confidence(probability),
	}

	var totalWeight float64
	for _, tag := range factors {
		totalWeight += factorWeight[tag]
	}

	for _, tag := range factors {
		e.RiskFactors = append(e.RiskFactors, tag)
		e.Factors = append(e.Factors, describeFactor(tag, f))
		if totalWeight > 0 {
			e.Contributions[tag] = factorWeight[tag] / totalWeight * 100
		}
	}

	e.Summary = summarize(factors, probability)
	return e
}

func describeFactor(tag string, f *FeatureVector) string {
	switch tag {
	case "EXTREME_AMOUNT_DEVIATION", "HIGH_AMOUNT_DEVIATION":
		return fmt.Sprintf("Amount is %.1fx higher than user's average", f.AmountDeviation)
	case "EXTREME_TRANSACTION_VELOCITY", "HIGH_TRANSACTION_VELOCITY":
		return fmt.Sprintf("Unusually high transaction frequency (%.0f in the last hour)", f.HourlyVelocity)
	case "NIGHT_TRANSACTION":
		return fmt.Sprintf("Transaction made during night hours (%02.0f:00)", f.HourOfDay)
	case "SHORT_SESSION":
		return fmt.Sprintf("Very short session before purchase (%.0fs)", f.SessionDuration)
	case "HIGH_FAILURE_HISTORY":
		return fmt.Sprintf("High rate of failed transactions in history (%.0f%%)", f.FailureRate*100)
	case "NEW_USER_HIGH_AMOUNT":
		return fmt.Sprintf("First transaction from this user with a high amount (%.2f)", f.Amount)
	default:
		return strings.ReplaceAll(strings.ToLower(tag), "_", " ")
	}
}

func confidence(probability float64) float64 {
	// Confidence is the distance from the maximally uncertain 0.5,
	// scaled to [0,1].
	d := probability - 0.5
	if d < 0 {
		d = -d
	}
	return d * 2
}

func summarize(factors []string, probability float64) string {
	if len(factors) == 0 {
		return "No significant risk factors detected"
	}
	qual := "low"
	switch {
	case probability >= 0.8:
		qual = "very high"
	case probability >= 0.6:
		qual = "high"
	case probability >= 0.3:
		qual = "moderate"
	}
	return fmt.Sprintf("%d risk factor(s) detected, %s fraud likelihood", len(factors), qual)
}
