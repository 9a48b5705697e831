package riskassess

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Abishek213/Major-AI/internal/domain/risk"
	"github.com/Abishek213/Major-AI/internal/domain/transaction"
	"github.com/Abishek213/Major-AI/internal/infrastructure/ml"
)

// TrainUseCase fits the fraud classifier and the anomaly detector on
// labeled transactions, persists both artifacts, and swaps the new
// model into the running predictor.
type TrainUseCase struct {
	extractor   *ml.FeatureExtractor
	predictor   *ml.Predictor
	anomaly     *ml.AnomalyDetector
	modelPath   string
	anomalyPath string
	cfg         ml.TrainingConfig
	log         zerolog.Logger
}

// NewTrainUseCase wires the training pipeline.
func NewTrainUseCase(
	extractor *ml.FeatureExtractor,
	predictor *ml.Predictor,
	anomaly *ml.AnomalyDetector,
	modelPath, anomalyPath string,
	cfg ml.TrainingConfig,
	log zerolog.Logger,
) *TrainUseCase {
	return &TrainUseCase{
		extractor:   extractor,
		predictor:   predictor,
		anomaly:     anomaly,
		modelPath:   modelPath,
		anomalyPath: anomalyPath,
		cfg:         cfg,
		log:         log.With().Str("component", "train_usecase").Logger(),
	}
}

// Execute trains on the labeled set. Each transaction's features are
// extracted against the history of that user's earlier entries in the
// same set, so behavioral features reflect what was known at the time.
func (uc *TrainUseCase) Execute(ctx context.Context, req *TrainRequest) (*TrainResponse, error) {
	if len(req.Transactions) == 0 {
		return nil, fmt.Errorf("%w: no training transactions", risk.ErrInvalidInput)
	}
	if len(req.Transactions) != len(req.Labels) {
		return nil, fmt.Errorf("%w: %d transactions but %d labels",
			risk.ErrInvalidInput, len(req.Transactions), len(req.Labels))
	}

	samples := make([]map[string]float64, 0, len(req.Transactions))
	matrix := make([][]float64, 0, len(req.Transactions))
	labels := make([]float64, 0, len(req.Transactions))
	seen := make(map[string]transaction.History)
	fraudCount := 0

	for i, payload := range req.Transactions {
		tx, err := payload.ToTransaction()
		if err != nil {
			return nil, fmt.Errorf("training transaction %d: %w", i, err)
		}

		f := uc.extractor.Extract(&tx, seen[tx.UserID])
		samples = append(samples, f.Named())
		matrix = append(matrix, f.ToVector())
		labels = append(labels, float64(req.Labels[i]))
		if req.Labels[i] != 0 {
			fraudCount++
		}

		seen[tx.UserID] = append(seen[tx.UserID], tx)
	}

	model, err := ml.Train(samples, labels, ml.ColumnNames(), uc.cfg)
	if err != nil {
		return nil, fmt.Errorf("train classifier: %w", err)
	}
	if err := model.Save(uc.modelPath); err != nil {
		return nil, err
	}
	uc.predictor.Swap(model, uc.modelPath)

	eval, err := model.Evaluate(samples, labels, uc.predictor.Threshold())
	if err != nil {
		uc.log.Warn().Err(err).Msg("training-set evaluation failed")
	}

	resp := &TrainResponse{
		Samples:   len(samples),
		FraudRate: float64(fraudCount) / float64(len(samples)),
		ModelPath: uc.modelPath,
		Metrics:   eval,
	}

	if err := uc.anomaly.Train(matrix); err != nil {
		uc.log.Warn().Err(err).Msg("anomaly detector training failed")
	} else {
		resp.AnomalyTrained = true
		if err := uc.anomaly.Save(uc.anomalyPath); err != nil {
			uc.log.Warn().Err(err).Msg("failed to persist anomaly detector")
		}
	}

	trainingRuns.Inc()
	uc.log.Info().
		Int("samples", resp.Samples).
		Float64("fraud_rate", resp.FraudRate).
		Float64("accuracy", eval.Accuracy).
		Float64("f1_score", eval.F1).
		Str("model_path", uc.modelPath).
		Msg("model trained")

	return resp, nil
}
