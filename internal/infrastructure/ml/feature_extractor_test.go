package ml

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abishek213/Major-AI/internal/domain/transaction"
)

var testRef = time.Date(2024, 6, 3, 14, 0, 0, 0, time.UTC) // a Monday afternoon

func testExtractor() *FeatureExtractor {
	return NewFeatureExtractor(DefaultExtractorConfig()).WithClock(func() time.Time { return testRef })
}

func makeTx(amount float64) transaction.Transaction {
	return transaction.Transaction{
		ID:              "tx-1",
		UserID:          "user-1",
		Amount:          decimal.NewFromFloat(amount),
		PaymentMethod:   "credit_card",
		Timestamp:       testRef.Format(time.RFC3339),
		SessionDuration: 300,
	}
}

func TestExtractDeterministic(t *testing.T) {
	e := testExtractor()
	tx := makeTx(120)
	history := transaction.History{
		{Amount: decimal.NewFromInt(100), Timestamp: testRef.Add(-2 * time.Hour).Format(time.RFC3339), Status: "completed"},
		{Amount: decimal.NewFromInt(140), Timestamp: testRef.Add(-1 * time.Hour).Format(time.RFC3339), Status: "completed"},
	}

	a := e.Extract(&tx, history)
	b := e.Extract(&tx, history)
	assert.Equal(t, a, b)
}

func TestExtractTransactionFeatures(t *testing.T) {
	e := testExtractor()
	tx := makeTx(99)
	tx.IsFirst = true
	tx.DailyCount = 3

	f := e.Extract(&tx, nil)
	assert.InDelta(t, 99.0, f.Amount, 1e-9)
	assert.InDelta(t, 4.605, f.AmountLog, 1e-3)
	assert.Equal(t, 1.0, f.IsCreditCard)
	assert.Equal(t, 0.0, f.IsPaypal)
	assert.Equal(t, 1.0, f.IsFirstTx)
	assert.Equal(t, 3.0, f.DailyCount)
}

func TestExtractTemporalFeatures(t *testing.T) {
	e := testExtractor()

	t.Run("weekday afternoon", func(t *testing.T) {
		tx := makeTx(50)
		f := e.Extract(&tx, nil)
		assert.Equal(t, 14.0, f.HourOfDay)
		assert.Equal(t, 0.0, f.IsWeekend)
		assert.Equal(t, 0.0, f.IsNightHours)
		assert.Equal(t, 1.0, f.IsBusinessHours)
		assert.Equal(t, 0.0, f.IsHolidaySeason)
	})

	t.Run("night hours", func(t *testing.T) {
		tx := makeTx(50)
		tx.Timestamp = time.Date(2024, 6, 3, 2, 30, 0, 0, time.UTC).Format(time.RFC3339)
		f := e.Extract(&tx, nil)
		assert.Equal(t, 1.0, f.IsNightHours)
		assert.Equal(t, 0.0, f.IsBusinessHours)
	})

	t.Run("holiday season", func(t *testing.T) {
		tx := makeTx(50)
		tx.Timestamp = time.Date(2024, 12, 10, 12, 0, 0, 0, time.UTC).Format(time.RFC3339)
		f := e.Extract(&tx, nil)
		assert.Equal(t, 1.0, f.IsHolidaySeason)
	})

	t.Run("malformed timestamp fails open to clock", func(t *testing.T) {
		tx := makeTx(50)
		tx.Timestamp = "garbage"
		f := e.Extract(&tx, nil)
		assert.Equal(t, 14.0, f.HourOfDay)
	})
}

func TestExtractDeviceFeatures(t *testing.T) {
	e := testExtractor()
	tx := makeTx(50)
	tx.Device = transaction.DeviceInfo{Type: "mobile", Browser: "safari", OS: "ios"}
	tx.IPAddress = "203.45.11.92"

	f := e.Extract(&tx, nil)
	assert.Equal(t, 1.0, f.IsMobile)
	assert.Equal(t, 0.0, f.IsDesktop)
	assert.Equal(t, "203.45.x.x", f.IPPrefix)
	assert.GreaterOrEqual(t, f.IPHashBucket, 0.0)
	assert.Less(t, f.IPHashBucket, 10000.0)

	// Same address always lands in the same bucket
	g := e.Extract(&tx, nil)
	assert.Equal(t, f.IPHashBucket, g.IPHashBucket)
}

func TestExtractBehavioralFeatures(t *testing.T) {
	e := testExtractor()

	t.Run("deviation ratio from history mean", func(t *testing.T) {
		tx := makeTx(400)
		history := transaction.History{
			{Amount: decimal.NewFromInt(90), Status: "completed"},
			{Amount: decimal.NewFromInt(110), Status: "completed"},
		}
		f := e.Extract(&tx, history)
		assert.InDelta(t, 4.0, f.AmountDeviation, 1e-9)
		assert.InDelta(t, 100.0, f.HistMeanAmount, 1e-9)
	})

	t.Run("empty history keeps neutral ratio", func(t *testing.T) {
		tx := makeTx(400)
		f := e.Extract(&tx, nil)
		assert.Equal(t, 1.0, f.AmountDeviation)
	})

	t.Run("zero-mean history takes the sentinel", func(t *testing.T) {
		tx := makeTx(400)
		history := transaction.History{{Amount: decimal.Zero, Status: "completed"}}
		f := e.Extract(&tx, history)
		assert.Equal(t, 10.0, f.AmountDeviation)
	})

	t.Run("history toggle off skips behavioral features", func(t *testing.T) {
		cfg := DefaultExtractorConfig()
		cfg.IncludeUserHistory = false
		ex := NewFeatureExtractor(cfg).WithClock(func() time.Time { return testRef })

		tx := makeTx(400)
		history := transaction.History{{Amount: decimal.NewFromInt(10), Status: "completed"}}
		f := ex.Extract(&tx, history)
		assert.Equal(t, 1.0, f.AmountDeviation)
		assert.Zero(t, f.HistMeanAmount)
	})
}

func TestCompositeScore(t *testing.T) {
	e := testExtractor()

	t.Run("quiet transaction scores zero", func(t *testing.T) {
		tx := makeTx(100)
		history := transaction.History{
			{Amount: decimal.NewFromInt(100), Timestamp: testRef.Add(-48 * time.Hour).Format(time.RFC3339), Status: "completed"},
			{Amount: decimal.NewFromInt(100), Timestamp: testRef.Add(-24 * time.Hour).Format(time.RFC3339), Status: "completed"},
		}
		f := e.Extract(&tx, history)
		assert.Zero(t, f.CompositeScore)
	})

	t.Run("new user night short session", func(t *testing.T) {
		tx := makeTx(999.99)
		tx.IsFirst = true
		tx.SessionDuration = 45
		tx.Timestamp = time.Date(2024, 6, 3, 2, 0, 0, 0, time.UTC).Format(time.RFC3339)

		f := e.Extract(&tx, nil)
		// NEW_USER_HIGH_AMOUNT + NIGHT_TRANSACTION + SHORT_SESSION
		assert.InDelta(t, 70.0, f.CompositeScore, 1e-9)
	})

	t.Run("capped at 100", func(t *testing.T) {
		tx := makeTx(5000)
		tx.IsFirst = true
		tx.SessionDuration = 10
		tx.Timestamp = time.Date(2024, 6, 3, 3, 0, 0, 0, time.UTC).Format(time.RFC3339)
		history := transaction.History{}
		for i := 0; i < 8; i++ {
			history = append(history, transaction.Transaction{
				Amount:    decimal.NewFromInt(10),
				Timestamp: testRef.Add(-time.Duration(i+1) * time.Minute).Format(time.RFC3339),
				Status:    transaction.StatusFailed,
			})
		}
		f := e.Extract(&tx, history)
		assert.Equal(t, 100.0, f.CompositeScore)
	})
}

func TestVectorMatchesColumns(t *testing.T) {
	e := testExtractor()
	tx := makeTx(50)
	f := e.Extract(&tx, nil)

	require.Equal(t, len(ColumnNames()), len(f.ToVector()))

	named := f.Named()
	assert.Equal(t, f.Amount, named["amount"])
	assert.Equal(t, f.CompositeScore, named["composite_risk_score"])
	assert.Len(t, named, len(ColumnNames()))
}
