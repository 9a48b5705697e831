package riskassess

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Abishek213/Major-AI/internal/domain/risk"
	"github.com/Abishek213/Major-AI/internal/domain/transaction"
	"github.com/Abishek213/Major-AI/internal/infrastructure/ml"
)

// MaxBatchSize bounds how many transactions one batch call may carry.
const MaxBatchSize = 100

// historyWindow is how far back cached history is pulled when the
// caller supplies none.
const historyWindow = 30 * 24 * time.Hour

// HistoryStore supplies and records per-user transaction history. A
// nil store disables cache enrichment.
type HistoryStore interface {
	Recent(ctx context.Context, userID string, window time.Duration) (transaction.History, error)
	Record(ctx context.Context, tx *transaction.Transaction, occurredAt time.Time) error
}

// AssessUseCase runs the full scoring pipeline for one transaction:
// feature extraction, prediction, risk scoring, explanation, and the
// recommended action.
type AssessUseCase struct {
	extractor  *ml.FeatureExtractor
	predictor  *ml.Predictor
	thresholds risk.Thresholds
	history    HistoryStore
	log        zerolog.Logger
}

// NewAssessUseCase wires the assessment pipeline. history may be nil.
func NewAssessUseCase(
	extractor *ml.FeatureExtractor,
	predictor *ml.Predictor,
	thresholds risk.Thresholds,
	history HistoryStore,
	log zerolog.Logger,
) *AssessUseCase {
	return &AssessUseCase{
		extractor:  extractor,
		predictor:  predictor,
		thresholds: thresholds,
		history:    history,
		log:        log.With().Str("component", "assess_usecase").Logger(),
	}
}

// Execute scores one transaction against its history.
func (uc *AssessUseCase) Execute(ctx context.Context, req *AssessRequest) (*risk.Assessment, error) {
	start := time.Now()

	tx, err := req.Transaction.ToTransaction()
	if err != nil {
		assessmentErrors.WithLabelValues("validation").Inc()
		return nil, err
	}

	history := toHistory(req.UserHistory)
	if len(history) == 0 && uc.history != nil {
		cached, err := uc.history.Recent(ctx, tx.UserID, historyWindow)
		if err != nil {
			uc.log.Warn().Err(err).Str("user_id", tx.UserID).Msg("history cache unavailable, scoring without it")
		} else {
			history = cached
		}
	}

	assessment := uc.score(&tx, history, start)

	uc.recordHistory(&tx, start)

	assessmentsTotal.WithLabelValues(string(assessment.ScoringPath), string(assessment.RiskLevel)).Inc()
	assessmentDuration.Observe(time.Since(start).Seconds())

	uc.log.Info().
		Str("transaction_id", tx.ID).
		Str("risk_level", string(assessment.RiskLevel)).
		Float64("risk_score", assessment.RiskScore).
		Str("path", string(assessment.ScoringPath)).
		Msg("transaction assessed")

	return assessment, nil
}

// ExecuteBatch scores transactions in input order. A failing item
// yields an error entry at its position; it never aborts the batch.
func (uc *AssessUseCase) ExecuteBatch(ctx context.Context, req *BatchRequest) ([]BatchResult, error) {
	if len(req.Transactions) > MaxBatchSize {
		return nil, risk.ErrBatchTooLarge
	}

	results := make([]BatchResult, len(req.Transactions))
	for i, payload := range req.Transactions {
		item := AssessRequest{
			Transaction: payload,
			UserHistory: req.UserHistories[payload.UserID],
		}
		assessment, err := uc.Execute(ctx, &item)
		if err != nil {
			results[i] = BatchResult{TransactionID: payload.ID, Error: err.Error()}
			continue
		}
		results[i] = BatchResult{TransactionID: payload.ID, Assessment: assessment}
	}
	return results, nil
}

// score is the pure scoring pipeline, side-effect free so repeated
// calls over the same inputs produce the same assessment.
func (uc *AssessUseCase) score(tx *transaction.Transaction, history transaction.History, start time.Time) *risk.Assessment {
	features := uc.extractor.Extract(tx, history)
	pred := uc.predictor.Predict(features)

	// The first-transaction multiplier would double-count risk that the
	// new-user rule already priced into the probability.
	newUserCounted := false
	for _, tag := range pred.RiskFactors {
		if tag == "NEW_USER_HIGH_AMOUNT" {
			newUserCounted = true
			break
		}
	}

	score := risk.Score(pred.Probability, tx.Amount, tx.IsFirst, newUserCounted)
	level := risk.LevelFromScore(score, uc.thresholds)

	return &risk.Assessment{
		ID:                uuid.New().String(),
		TransactionID:     tx.ID,
		UserID:            tx.UserID,
		IsFraud:           pred.IsFraud,
		Probability:       pred.Probability,
		RiskScore:         score,
		RiskLevel:         level,
		Explanation:       ml.BuildExplanation(features, pred.RiskFactors, pred.Probability),
		RecommendedAction: risk.Recommend(pred.IsFraud, level),
		ScoringPath:       risk.ScoringPath(pred.Mode),
		ProcessedAt:       start.UTC(),
		LatencyMs:         float64(time.Since(start).Microseconds()) / 1000.0,
	}
}

// recordHistory stores the scored transaction for future enrichment.
// Best effort, off the request path.
func (uc *AssessUseCase) recordHistory(tx *transaction.Transaction, ref time.Time) {
	if uc.history == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := uc.history.Record(ctx, tx, tx.OccurredAt(ref)); err != nil {
			uc.log.Warn().Err(err).Str("transaction_id", tx.ID).Msg("failed to record history")
		}
	}()
}

// IsValidationError reports whether an assessment error came from bad
// input rather than an engine failure.
func IsValidationError(err error) bool {
	return errors.Is(err, risk.ErrInvalidInput)
}
