package ml

import (
	"crypto/md5"
	"encoding/binary"
	"math"
	"strings"
	"time"

	"github.com/Abishek213/Major-AI/internal/domain/transaction"
)

// FeatureVector is the fixed feature schema consumed by the predictor,
// the anomaly detector, and the fallback rules. Fields holding flags
// are 0 or 1 floats so the vector feeds straight into the model.
type FeatureVector struct {
	// Transaction features
	Amount       float64 `json:"amount"`
	AmountLog    float64 `json:"amount_log"`
	IsCreditCard float64 `json:"is_credit_card"`
	IsDebitCard  float64 `json:"is_debit_card"`
	IsPaypal     float64 `json:"is_paypal"`
	IsBankWire   float64 `json:"is_bank_transfer"`
	IsFirstTx    float64 `json:"is_first_transaction"`
	DailyCount   float64 `json:"daily_count"`

	// Temporal features
	HourOfDay       float64 `json:"hour_of_day"`
	DayOfWeek       float64 `json:"day_of_week"`
	IsWeekend       float64 `json:"is_weekend"`
	IsNightHours    float64 `json:"is_night_hours"`
	IsBusinessHours float64 `json:"is_business_hours"`
	Month           float64 `json:"month"`
	IsHolidaySeason float64 `json:"is_holiday_season"`

	// Technical features
	IsMobile        float64 `json:"is_mobile"`
	IsDesktop       float64 `json:"is_desktop"`
	IsTablet        float64 `json:"is_tablet"`
	IPHashBucket    float64 `json:"ip_hash_bucket"`
	SessionDuration float64 `json:"session_duration"`
	IsShortSession  float64 `json:"is_short_session"`

	// Behavioral features from user history
	HistMeanAmount   float64 `json:"hist_mean_amount"`
	HistStddevAmount float64 `json:"hist_stddev_amount"`
	AmountDeviation  float64 `json:"amount_deviation_ratio"`
	MeanInterval     float64 `json:"mean_tx_interval"`
	FailureRate      float64 `json:"failure_rate"`
	HourlyVelocity   float64 `json:"hourly_velocity"`
	DailyVelocity    float64 `json:"daily_velocity"`

	// Composite heuristic score, also fed to the model as a feature
	CompositeScore float64 `json:"composite_risk_score"`

	// Categorical passthrough, kept for explanations and grouping but
	// excluded from the numeric vector
	DeviceBrowser string `json:"device_browser"`
	DeviceOS      string `json:"device_os"`
	IPPrefix      string `json:"ip_prefix"`
}

// Rule trigger weights used for the composite score and rule fallback.
const (
	WeightHighDeviation     = 30.0
	WeightExtremeDeviation  = 40.0
	WeightHighVelocity      = 25.0
	WeightExtremeVelocity   = 35.0
	WeightNightTransaction  = 15.0
	WeightShortSession      = 20.0
	WeightHighFailureRate   = 25.0
	WeightNewUserHighAmount = 35.0
)

// ExtractorConfig controls which feature groups are computed and the
// deviation ratio assigned when a user has no usable history mean.
type ExtractorConfig struct {
	IncludeUserHistory     bool
	IncludeTemporal        bool
	IncludeDevice          bool
	DeviationSentinel      float64
	ShortSessionSeconds    float64
	HighAmountThreshold    float64
	NightHourEnd           int
	BusinessHourStart      int
	BusinessHourEnd        int
}

// DefaultExtractorConfig enables every feature group.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		IncludeUserHistory:  true,
		IncludeTemporal:     true,
		IncludeDevice:       true,
		DeviationSentinel:   10.0,
		ShortSessionSeconds: 60,
		HighAmountThreshold: 100,
		NightHourEnd:        6,
		BusinessHourStart:   9,
		BusinessHourEnd:     17,
	}
}

// FeatureExtractor derives feature vectors from transactions and user
// history. Extraction is deterministic given the same inputs and
// reference clock.
type FeatureExtractor struct {
	cfg ExtractorConfig
	now func() time.Time
}

// NewFeatureExtractor creates an extractor using the real clock.
func NewFeatureExtractor(cfg ExtractorConfig) *FeatureExtractor {
	return &FeatureExtractor{cfg: cfg, now: time.Now}
}

// WithClock replaces the reference clock, for deterministic tests.
func (e *FeatureExtractor) WithClock(now func() time.Time) *FeatureExtractor {
	e.now = now
	return e
}

// Extract builds the feature vector for one transaction. history may be
// empty; behavioral features then take neutral defaults except the
// deviation ratio, which takes the configured sentinel to flag the
// uncertainty of a user without a baseline.
func (e *FeatureExtractor) Extract(tx *transaction.Transaction, history transaction.History) *FeatureVector {
	ref := e.now()
	ts := tx.OccurredAt(ref)

	f := &FeatureVector{}

	f.Amount = tx.Amount.InexactFloat64()
	f.AmountLog = math.Log1p(f.Amount)
	switch strings.ToLower(tx.PaymentMethod) {
	case "credit_card":
		f.IsCreditCard = 1
	case "debit_card":
		f.IsDebitCard = 1
	case "paypal":
		f.IsPaypal = 1
	case "bank_transfer":
		f.IsBankWire = 1
	}
	if tx.IsFirst {
		f.IsFirstTx = 1
	}
	f.DailyCount = float64(tx.DailyCount)

	if e.cfg.IncludeTemporal {
		e.extractTemporal(f, ts)
	}
	if e.cfg.IncludeDevice {
		e.extractDevice(f, tx)
	}

	f.SessionDuration = tx.SessionDuration
	if tx.SessionDuration > 0 && tx.SessionDuration < e.cfg.ShortSessionSeconds {
		f.IsShortSession = 1
	}

	// Deviation defaults to the neutral ratio 1.0 so that a toggle-off
	// or an empty history never reads as elevated risk on its own.
	f.AmountDeviation = 1.0
	if e.cfg.IncludeUserHistory {
		e.extractBehavioral(f, tx, history, ref)
	}

	f.CompositeScore = e.compositeScore(f)

	return f
}

func (e *FeatureExtractor) extractTemporal(f *FeatureVector, ts time.Time) {
	hour := ts.Hour()
	f.HourOfDay = float64(hour)
	f.DayOfWeek = float64(ts.Weekday())
	if ts.Weekday() == time.Saturday || ts.Weekday() == time.Sunday {
		f.IsWeekend = 1
	}
	if hour < e.cfg.NightHourEnd {
		f.IsNightHours = 1
	}
	if hour >= e.cfg.BusinessHourStart && hour < e.cfg.BusinessHourEnd {
		f.IsBusinessHours = 1
	}
	f.Month = float64(ts.Month())
	if ts.Month() == time.November || ts.Month() == time.December {
		f.IsHolidaySeason = 1
	}
}

func (e *FeatureExtractor) extractDevice(f *FeatureVector, tx *transaction.Transaction) {
	switch strings.ToLower(tx.Device.Type) {
	case "mobile":
		f.IsMobile = 1
	case "desktop":
		f.IsDesktop = 1
	case "tablet":
		f.IsTablet = 1
	}
	f.DeviceBrowser = tx.Device.Browser
	f.DeviceOS = tx.Device.OS

	if tx.IPAddress != "" {
		f.IPPrefix = ipPrefix(tx.IPAddress)
		f.IPHashBucket = float64(ipHashBucket(tx.IPAddress))
	}
}

func (e *FeatureExtractor) extractBehavioral(f *FeatureVector, tx *transaction.Transaction, history transaction.History, ref time.Time) {
	stats := history.ComputeStats(ref)

	f.HistMeanAmount = stats.MeanAmount
	f.HistStddevAmount = stats.StddevAmount
	f.MeanInterval = stats.MeanInterval
	f.FailureRate = stats.FailureRate
	f.HourlyVelocity = stats.HourlyVelocity
	f.DailyVelocity = stats.DailyVelocity

	if stats.Count == 0 {
		// No baseline at all: keep the neutral ratio. First-transaction
		// risk is carried by the new-user rule, not a fake deviation.
		return
	}
	if stats.MeanAmount > 0 {
		f.AmountDeviation = f.Amount / stats.MeanAmount
	} else {
		// History exists but every prior amount was zero. The ratio is
		// undefined, so flag it with the sentinel.
		f.AmountDeviation = e.cfg.DeviationSentinel
	}
}

// compositeScore accumulates the weighted trigger flags, capped at 100.
func (e *FeatureExtractor) compositeScore(f *FeatureVector) float64 {
	score := 0.0
	if f.AmountDeviation > 3 {
		score += WeightHighDeviation
	}
	if f.HourlyVelocity > 5 {
		score += WeightHighVelocity
	}
	if f.IsNightHours == 1 {
		score += WeightNightTransaction
	}
	if f.IsShortSession == 1 {
		score += WeightShortSession
	}
	if f.FailureRate > 0.3 {
		score += WeightHighFailureRate
	}
	if f.IsFirstTx == 1 && f.Amount > e.cfg.HighAmountThreshold {
		score += WeightNewUserHighAmount
	}
	if score > 100 {
		score = 100
	}
	return score
}

// ColumnNames lists the numeric feature columns in vector order.
func ColumnNames() []string {
	return []string{
		"amount",
		"amount_log",
		"is_credit_card",
		"is_debit_card",
		"is_paypal",
		"is_bank_transfer",
		"is_first_transaction",
		"daily_count",
		"hour_of_day",
		"day_of_week",
		"is_weekend",
		"is_night_hours",
		"is_business_hours",
		"month",
		"is_holiday_season",
		"is_mobile",
		"is_desktop",
		"is_tablet",
		"ip_hash_bucket",
		"session_duration",
		"is_short_session",
		"hist_mean_amount",
		"hist_stddev_amount",
		"amount_deviation_ratio",
		"mean_tx_interval",
		"failure_rate",
		"hourly_velocity",
		"daily_velocity",
		"composite_risk_score",
	}
}

// ToVector converts the features to a float slice in ColumnNames order.
func (f *FeatureVector) ToVector() []float64 {
	return []float64{
		f.Amount,
		f.AmountLog,
		f.IsCreditCard,
		f.IsDebitCard,
		f.IsPaypal,
		f.IsBankWire,
		f.IsFirstTx,
		f.DailyCount,
		f.HourOfDay,
		f.DayOfWeek,
		f.IsWeekend,
		f.IsNightHours,
		f.IsBusinessHours,
		f.Month,
		f.IsHolidaySeason,
		f.IsMobile,
		f.IsDesktop,
		f.IsTablet,
		f.IPHashBucket,
		f.SessionDuration,
		f.IsShortSession,
		f.HistMeanAmount,
		f.HistStddevAmount,
		f.AmountDeviation,
		f.MeanInterval,
		f.FailureRate,
		f.HourlyVelocity,
		f.DailyVelocity,
		f.CompositeScore,
	}
}

// Named returns the numeric features keyed by column name, padding-safe
// for models trained on a different column set.
func (f *FeatureVector) Named() map[string]float64 {
	cols := ColumnNames()
	vec := f.ToVector()
	m := make(map[string]float64, len(cols))
	for i, c := range cols {
		m[c] = vec[i]
	}
	return m
}

// ipPrefix keeps only the first two octets of an IPv4 address so the
// raw address is never stored.
func ipPrefix(ip string) string {
	parts := strings.SplitN(ip, ".", 3)
	if len(parts) < 3 {
		return ip
	}
	return parts[0] + "." + parts[1] + ".x.x"
}

// ipHashBucket maps an address into one of 10000 stable buckets.
func ipHashBucket(ip string) int {
	sum := md5.Sum([]byte(ip))
	return int(binary.BigEndian.Uint64(sum[:8]) % 10000)
}
