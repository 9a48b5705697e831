package risk

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLevelFromScore(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		score float64
		want  Level
	}{
		{0, LevelLow},
		{29.9, LevelLow},
		{30, LevelMedium},
		{69.9, LevelMedium},
		{70, LevelHigh},
		{89.9, LevelHigh},
		{90, LevelCritical},
		{100, LevelCritical},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFromScore(tt.score, th), "score %.1f", tt.score)
	}
}

func TestScore(t *testing.T) {
	t.Run("clamped to 0-100", func(t *testing.T) {
		assert.Equal(t, 100.0, Score(1.5, decimal.NewFromInt(5000), true, false))
		assert.Equal(t, 0.0, Score(-0.2, decimal.Zero, false, false))
	})

	t.Run("high amount multiplier", func(t *testing.T) {
		base := Score(0.5, decimal.NewFromInt(100), false, false)
		over500 := Score(0.5, decimal.NewFromInt(600), false, false)
		over1000 := Score(0.5, decimal.NewFromInt(2000), false, false)
		assert.InDelta(t, 50.0, base, 1e-9)
		assert.InDelta(t, 55.0, over500, 1e-9)
		assert.InDelta(t, 60.0, over1000, 1e-9)
	})

	t.Run("first transaction multiplier", func(t *testing.T) {
		got := Score(0.5, decimal.NewFromInt(100), true, false)
		assert.InDelta(t, 65.0, got, 1e-9)
	})

	t.Run("first transaction multiplier skipped when already counted", func(t *testing.T) {
		got := Score(0.7, decimal.NewFromInt(600), true, true)
		assert.InDelta(t, 77.0, got, 1e-9)
	})

	t.Run("multipliers compound", func(t *testing.T) {
		got := Score(0.5, decimal.NewFromInt(2000), true, false)
		assert.InDelta(t, 78.0, got, 1e-9)
	})
}

func TestRecommend(t *testing.T) {
	t.Run("fraud verdict blocks at any level", func(t *testing.T) {
		for _, lvl := range []Level{LevelLow, LevelMedium, LevelHigh, LevelCritical} {
			a := Recommend(true, lvl)
			assert.Equal(t, ActionBlock, a.Type, "level %s", lvl)
		}
	})

	t.Run("non-fraud escalates with level", func(t *testing.T) {
		assert.Equal(t, ActionAllow, Recommend(false, LevelLow).Type)
		assert.Equal(t, ActionMonitor, Recommend(false, LevelMedium).Type)
		assert.Equal(t, ActionReview, Recommend(false, LevelHigh).Type)
		assert.Equal(t, ActionBlock, Recommend(false, LevelCritical).Type)
	})

	t.Run("actions carry reason and steps", func(t *testing.T) {
		a := Recommend(true, LevelCritical)
		assert.NotEmpty(t, a.Reason)
		assert.NotEmpty(t, a.Steps)
	})
}
