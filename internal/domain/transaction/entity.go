package transaction

import (
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// DeviceInfo describes the device a transaction originated from
type DeviceInfo struct {
	Type    string `json:"type"`
	Browser string `json:"browser"`
	OS      string `json:"os"`
}

// Transaction is a single payment event submitted for risk scoring.
// It is immutable once submitted; the engine never mutates it.
type Transaction struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`

	// Timestamp is the raw value as submitted: RFC3339 or unix seconds.
	// Use OccurredAt to resolve it against a reference time.
	Timestamp string `json:"timestamp"`

	Device          DeviceInfo `json:"device_info"`
	SessionDuration float64    `json:"session_duration"` // seconds
	IPAddress       string     `json:"ip_address"`

	IsFirst    bool   `json:"is_first"`
	DailyCount int    `json:"daily_count"`
	Status     string `json:"status"` // completed, failed, pending
}

// StatusFailed marks a historical transaction that did not complete.
const StatusFailed = "failed"

// OccurredAt resolves the raw timestamp. Malformed or missing timestamps
// fail open to the reference time rather than producing an error.
func (t *Transaction) OccurredAt(ref time.Time) time.Time {
	if t.Timestamp == "" {
		return ref
	}
	if ts, err := time.Parse(time.RFC3339, t.Timestamp); err == nil {
		return ts
	}
	if secs, err := strconv.ParseFloat(t.Timestamp, 64); err == nil && secs > 0 {
		whole, frac := math.Modf(secs)
		return time.Unix(int64(whole), int64(frac*float64(time.Second)))
	}
	return ref
}

// Validate checks the fields required for scoring. Optional fields
// (device info, session, IP) are allowed to be absent; the feature
// extractor substitutes neutral defaults for them.
func (t *Transaction) Validate() error {
	if t.ID == "" {
		return ErrMissingID
	}
	if t.UserID == "" {
		return ErrMissingUserID
	}
	if t.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

// History is an ordered sequence of a user's prior transactions.
type History []Transaction

// Stats holds aggregate statistics over a user's history, used for
// behavioral deviation and velocity features.
type Stats struct {
	Count           int
	MeanAmount      float64
	StddevAmount    float64
	FailureRate     float64
	MeanInterval    float64 // seconds between consecutive transactions
	CountLastHour   int
	CountLast24h    int
	HourlyVelocity  float64 // events per hour over the trailing hour
	DailyVelocity   float64 // events per hour over the trailing 24h
}

// ComputeStats derives history statistics relative to a reference time.
// An empty history yields the zero Stats value.
func (h History) ComputeStats(ref time.Time) Stats {
	s := Stats{Count: len(h)}
	if len(h) == 0 {
		return s
	}

	var sum, sumSq float64
	failed := 0
	for _, tx := range h {
		amt := tx.Amount.InexactFloat64()
		sum += amt
		sumSq += amt * amt
		if tx.Status == StatusFailed {
			failed++
		}
	}
	n := float64(len(h))
	s.MeanAmount = sum / n
	variance := sumSq/n - s.MeanAmount*s.MeanAmount
	if variance > 0 {
		s.StddevAmount = math.Sqrt(variance)
	}
	s.FailureRate = float64(failed) / n

	// Mean inter-transaction time from consecutive timestamp diffs.
	if len(h) > 1 {
		var total float64
		intervals := 0
		prev := h[0].OccurredAt(ref)
		for _, tx := range h[1:] {
			cur := tx.OccurredAt(ref)
			total += math.Abs(cur.Sub(prev).Seconds())
			intervals++
			prev = cur
		}
		if intervals > 0 {
			s.MeanInterval = total / float64(intervals)
		}
	}

	hourAgo := ref.Add(-time.Hour)
	dayAgo := ref.Add(-24 * time.Hour)
	for _, tx := range h {
		ts := tx.OccurredAt(ref)
		if ts.After(hourAgo) {
			s.CountLastHour++
		}
		if ts.After(dayAgo) {
			s.CountLast24h++
		}
	}
	s.HourlyVelocity = float64(s.CountLastHour)
	s.DailyVelocity = float64(s.CountLast24h) / 24.0

	return s
}
