package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Abishek213/Major-AI/internal/application/riskassess"
	"github.com/Abishek213/Major-AI/internal/domain/risk"
	"github.com/Abishek213/Major-AI/internal/infrastructure/ml"
)

// RiskHandler handles risk assessment HTTP requests
type RiskHandler struct {
	assessUseCase *riskassess.AssessUseCase
	trainUseCase  *riskassess.TrainUseCase
	predictor     *ml.Predictor
	anomaly       *ml.AnomalyDetector
}

// NewRiskHandler creates a new risk handler
func NewRiskHandler(
	assessUseCase *riskassess.AssessUseCase,
	trainUseCase *riskassess.TrainUseCase,
	predictor *ml.Predictor,
	anomaly *ml.AnomalyDetector,
) *RiskHandler {
	return &RiskHandler{
		assessUseCase: assessUseCase,
		trainUseCase:  trainUseCase,
		predictor:     predictor,
		anomaly:       anomaly,
	}
}

// AssessTransaction handles POST /api/v1/risk/assess
func (h *RiskHandler) AssessTransaction(w http.ResponseWriter, r *http.Request) {
	var req riskassess.AssessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	assessment, err := h.assessUseCase.Execute(r.Context(), &req)
	if err != nil {
		if riskassess.IsValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Risk assessment failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, assessment)
}

// AssessBatch handles POST /api/v1/risk/assess/batch
func (h *RiskHandler) AssessBatch(w http.ResponseWriter, r *http.Request) {
	var req riskassess.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if len(req.Transactions) == 0 {
		writeError(w, http.StatusBadRequest, "No transactions provided")
		return
	}

	results, err := h.assessUseCase.ExecuteBatch(r.Context(), &req)
	if err != nil {
		if errors.Is(err, risk.ErrBatchTooLarge) {
			writeError(w, http.StatusBadRequest, "Maximum 100 transactions per batch")
			return
		}
		writeError(w, http.StatusInternalServerError, "Batch assessment failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

// TrainModel handles POST /api/v1/risk/model/train
func (h *RiskHandler) TrainModel(w http.ResponseWriter, r *http.Request) {
	var req riskassess.TrainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.trainUseCase.Execute(r.Context(), &req)
	if err != nil {
		if riskassess.IsValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Training failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ReloadModel handles POST /api/v1/risk/model/reload
func (h *RiskHandler) ReloadModel(w http.ResponseWriter, r *http.Request) {
	if err := h.predictor.Reload(); err != nil {
		writeError(w, http.StatusConflict, "Model reload failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.predictor.Info())
}

// GetModelInfo handles GET /api/v1/risk/model
func (h *RiskHandler) GetModelInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.predictor.Info())
}

// DetectAnomalies handles POST /api/v1/risk/anomaly/detect
func (h *RiskHandler) DetectAnomalies(w http.ResponseWriter, r *http.Request) {
	var req riskassess.AnomalyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if len(req.Features) == 0 {
		writeError(w, http.StatusBadRequest, "No feature rows provided")
		return
	}

	flags, scores, err := h.anomaly.Detect(req.Features)
	if err != nil {
		if errors.Is(err, risk.ErrNotTrained) {
			writeError(w, http.StatusConflict, "Anomaly detector has not been trained")
			return
		}
		writeError(w, http.StatusInternalServerError, "Anomaly detection failed: "+err.Error())
		return
	}

	levels := make([]string, len(scores))
	factors := make([][]string, len(scores))
	for i, s := range scores {
		lvl, err := h.anomaly.RiskLevel(s)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Anomaly detection failed: "+err.Error())
			return
		}
		levels[i] = lvl

		if flags[i] {
			contrib, err := h.anomaly.Explain(req.Features[i], ml.ColumnNames())
			if err == nil {
				factors[i] = contrib
			}
		}
	}

	writeJSON(w, http.StatusOK, riskassess.AnomalyResponse{
		Flags:   flags,
		Scores:  scores,
		Levels:  levels,
		Factors: factors,
	})
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
