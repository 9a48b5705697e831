package riskassess

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Abishek213/Major-AI/internal/domain/risk"
	"github.com/Abishek213/Major-AI/internal/domain/transaction"
	"github.com/Abishek213/Major-AI/internal/infrastructure/ml"
)

// DevicePayload mirrors the device_info object of the API.
type DevicePayload struct {
	Type    string `json:"type"`
	Browser string `json:"browser"`
	OS      string `json:"os"`
}

// TransactionPayload is the wire form of a transaction. Amount is a
// pointer so a missing field is distinguishable from an explicit zero.
type TransactionPayload struct {
	ID              string           `json:"id"`
	UserID          string           `json:"user_id"`
	Amount          *decimal.Decimal `json:"amount"`
	PaymentMethod   string           `json:"payment_method"`
	Timestamp       string           `json:"timestamp"`
	Device          DevicePayload    `json:"device_info"`
	SessionDuration float64          `json:"session_duration"`
	IPAddress       string           `json:"ip_address"`
	IsFirst         bool             `json:"is_first"`
	DailyCount      int              `json:"daily_count"`
	Status          string           `json:"status"`
}

// ToTransaction validates the payload and converts it to a domain
// transaction.
func (p *TransactionPayload) ToTransaction() (transaction.Transaction, error) {
	if p.Amount == nil {
		return transaction.Transaction{}, fmt.Errorf("%w: missing amount", risk.ErrInvalidInput)
	}

	tx := transaction.Transaction{
		ID:            p.ID,
		UserID:        p.UserID,
		Amount:        *p.Amount,
		PaymentMethod: p.PaymentMethod,
		Timestamp:     p.Timestamp,
		Device: transaction.DeviceInfo{
			Type:    p.Device.Type,
			Browser: p.Device.Browser,
			OS:      p.Device.OS,
		},
		SessionDuration: p.SessionDuration,
		IPAddress:       p.IPAddress,
		IsFirst:         p.IsFirst,
		DailyCount:      p.DailyCount,
		Status:          p.Status,
	}
	if err := tx.Validate(); err != nil {
		return transaction.Transaction{}, fmt.Errorf("%w: %s", risk.ErrInvalidInput, err)
	}
	return tx, nil
}

// toHistory converts payload history entries, skipping ones that fail
// validation. History enriches features; a bad entry should not fail
// the whole assessment.
func toHistory(payloads []TransactionPayload) transaction.History {
	history := make(transaction.History, 0, len(payloads))
	for _, p := range payloads {
		if p.Amount == nil {
			continue
		}
		history = append(history, transaction.Transaction{
			ID:            p.ID,
			UserID:        p.UserID,
			Amount:        *p.Amount,
			PaymentMethod: p.PaymentMethod,
			Timestamp:     p.Timestamp,
			Status:        p.Status,
		})
	}
	return history
}

// AssessRequest is the single-transaction assessment request body.
type AssessRequest struct {
	Transaction TransactionPayload   `json:"transaction"`
	UserHistory []TransactionPayload `json:"user_history,omitempty"`
}

// BatchRequest is the batch assessment request body. UserHistories
// maps user_id to that user's prior transactions.
type BatchRequest struct {
	Transactions  []TransactionPayload            `json:"transactions"`
	UserHistories map[string][]TransactionPayload `json:"user_histories,omitempty"`
}

// BatchResult is one entry of a batch response. Exactly one of
// Assessment and Error is set.
type BatchResult struct {
	TransactionID string           `json:"transaction_id"`
	Assessment    *risk.Assessment `json:"assessment,omitempty"`
	Error         string           `json:"error,omitempty"`
}

// TrainRequest carries labeled transactions for model training.
type TrainRequest struct {
	Transactions []TransactionPayload `json:"transactions"`
	Labels       []int                `json:"labels"`
}

// TrainResponse reports the outcome of a training run, including how
// the new model scores the set it was trained on.
type TrainResponse struct {
	Samples        int           `json:"samples"`
	FraudRate      float64       `json:"fraud_rate"`
	ModelPath      string        `json:"model_path"`
	AnomalyTrained bool          `json:"anomaly_detector_trained"`
	Metrics        ml.Evaluation `json:"metrics"`
}

// AnomalyRequest carries raw feature rows for anomaly detection.
type AnomalyRequest struct {
	Features [][]float64 `json:"features"`
}

// AnomalyResponse returns per-row anomaly flags, raw scores,
// qualitative levels, and contributing factors for flagged rows.
type AnomalyResponse struct {
	Flags   []bool     `json:"anomalies"`
	Scores  []float64  `json:"scores"`
	Levels  []string   `json:"risk_levels"`
	Factors [][]string `json:"factors"`
}
