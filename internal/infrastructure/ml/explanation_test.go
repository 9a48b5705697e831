package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildExplanationContributionsSumTo100(t *testing.T) {
	f := &FeatureVector{
		AmountDeviation: 4.2,
		HourlyVelocity:  7,
		IsNightHours:    1,
		HourOfDay:       2,
	}
	factors := []string{"HIGH_AMOUNT_DEVIATION", "HIGH_TRANSACTION_VELOCITY", "NIGHT_TRANSACTION"}

	e := BuildExplanation(f, factors, 0.7)

	var total float64
	for _, v := range e.Contributions {
		total += v
	}
	assert.InDelta(t, 100.0, total, 1e-9)

	// Raw weights 30/25/15 normalize proportionally
	assert.InDelta(t, 30.0/70.0*100, e.Contributions["HIGH_AMOUNT_DEVIATION"], 1e-9)
	assert.InDelta(t, 15.0/70.0*100, e.Contributions["NIGHT_TRANSACTION"], 1e-9)
}

func TestBuildExplanationSentences(t *testing.T) {
	f := &FeatureVector{
		AmountDeviation: 4.2,
		SessionDuration: 30,
		IsShortSession:  1,
	}
	e := BuildExplanation(f, []string{"HIGH_AMOUNT_DEVIATION", "SHORT_SESSION"}, 0.5)

	require.Len(t, e.Factors, 2)
	assert.Contains(t, e.Factors[0], "4.2x higher")
	assert.Contains(t, e.Factors[1], "30s")
	assert.Equal(t, []string{"HIGH_AMOUNT_DEVIATION", "SHORT_SESSION"}, e.RiskFactors)
}

func TestBuildExplanationNoFactors(t *testing.T) {
	e := BuildExplanation(&FeatureVector{}, nil, 0.05)

	assert.Empty(t, e.Factors)
	assert.Empty(t, e.Contributions)
	assert.Equal(t, "No significant risk factors detected", e.Summary)
	assert.InDelta(t, 0.9, e.Confidence, 1e-9)
}

func TestConfidenceScale(t *testing.T) {
	assert.InDelta(t, 1.0, confidence(0.0), 1e-9)
	assert.InDelta(t, 0.0, confidence(0.5), 1e-9)
	assert.InDelta(t, 1.0, confidence(1.0), 1e-9)
	assert.InDelta(t, 0.4, confidence(0.7), 1e-9)
}

func TestSummaryQualifiers(t *testing.T) {
	factors := []string{"NIGHT_TRANSACTION"}
	assert.Contains(t, summarize(factors, 0.9), "very high")
	assert.Contains(t, summarize(factors, 0.65), "high")
	assert.Contains(t, summarize(factors, 0.4), "moderate")
	assert.Contains(t, summarize(factors, 0.1), "low")
}
