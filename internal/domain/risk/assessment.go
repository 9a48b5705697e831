package risk

import (
	"time"

	"github.com/shopspring/decimal"
)

// Level buckets a 0-100 risk score.
type Level string

const (
	LevelLow      Level = "LOW"
	LevelMedium   Level = "MEDIUM"
	LevelHigh     Level = "HIGH"
	LevelCritical Level = "CRITICAL"
)

// Anomaly classification levels produced by the unsupervised detector.
const (
	AnomalyNormal   = "NORMAL"
	AnomalyLow      = "LOW"
	AnomalyMedium   = "MEDIUM"
	AnomalyHigh     = "HIGH"
	AnomalyCritical = "CRITICAL"
)

// ScoringPath records which prediction path produced an assessment.
type ScoringPath string

const (
	PathModel    ScoringPath = "MODEL_LOADED"
	PathFallback ScoringPath = "RULE_FALLBACK"
)

// Thresholds are the score boundaries between risk levels.
type Thresholds struct {
	Medium   float64
	High     float64
	Critical float64
}

// DefaultThresholds matches the standard level bands.
func DefaultThresholds() Thresholds {
	return Thresholds{Medium: 30, High: 70, Critical: 90}
}

// LevelFromScore maps a 0-100 score onto a risk level.
func LevelFromScore(score float64, t Thresholds) Level {
	switch {
	case score >= t.Critical:
		return LevelCritical
	case score >= t.High:
		return LevelHigh
	case score >= t.Medium:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Score converts a fraud probability into a 0-100 risk score, amplified
// for high amounts and first-time users. newUserCounted indicates the
// new-user signal already contributed to the probability upstream, in
// which case the first-transaction multiplier is not applied again.
func Score(probability float64, amount decimal.Decimal, isFirst, newUserCounted bool) float64 {
	score := clamp01(probability) * 100

	amt := amount.InexactFloat64()
	switch {
	case amt > 1000:
		score *= 1.2
	case amt > 500:
		score *= 1.1
	}

	if isFirst && !newUserCounted {
		score *= 1.3
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Explanation is a human-readable account of why a transaction scored
// the way it did. Contributions are normalized percentages summing to
// 100 when any factor fired.
type Explanation struct {
	Summary       string             `json:"summary"`
	Factors       []string           `json:"factors"`
	RiskFactors   []string           `json:"risk_factors"`
	Contributions map[string]float64 `json:"contributions"`
	Confidence    float64            `json:"confidence"`
}

// Assessment is the full result of scoring one transaction.
type Assessment struct {
	ID                string      `json:"assessment_id"`
	TransactionID     string      `json:"transaction_id"`
	UserID            string      `json:"user_id"`
	IsFraud           bool        `json:"is_fraud"`
	Probability       float64     `json:"fraud_probability"`
	RiskScore         float64     `json:"risk_score"`
	RiskLevel         Level       `json:"risk_level"`
	Explanation       Explanation `json:"explanation"`
	RecommendedAction Action      `json:"recommended_action"`
	ScoringPath       ScoringPath `json:"scoring_path"`
	ProcessedAt       time.Time   `json:"processed_at"`
	LatencyMs         float64     `json:"latency_ms"`
}
