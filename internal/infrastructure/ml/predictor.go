package ml

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Scoring path modes.
const (
	ModeModelLoaded  = "MODEL_LOADED"
	ModeRuleFallback = "RULE_FALLBACK"
)

// FallbackScorer produces a heuristic 0-100 score with named risk
// factor tags when no model is available. Factors derives the tags
// alone, so model-path predictions stay consistent with the scorer's
// configured boundaries.
type FallbackScorer interface {
	Score(f *FeatureVector) (score float64, factors []string)
	Factors(f *FeatureVector) []string
}

// Prediction is the raw output of one scoring call.
type Prediction struct {
	Probability float64
	IsFraud     bool
	Mode        string
	RiskFactors []string
}

// ModelInfo describes the currently held model, if any.
type ModelInfo struct {
	Mode       string    `json:"mode"`
	Columns    []string  `json:"feature_columns,omitempty"`
	TrainedAt  time.Time `json:"trained_at,omitempty"`
	LoadedFrom string    `json:"loaded_from,omitempty"`
}

// Predictor holds the swappable model reference and falls back to rule
// scoring when no model is loaded or inference fails. The model
// reference is guarded so in-flight predictions observe either the old
// or the new model, never a partial state.
type Predictor struct {
	mu         sync.RWMutex
	model      *Model
	loadedFrom string

	fallback  FallbackScorer
	threshold float64
	paths     []string
	log       zerolog.Logger
}

// NewPredictor attempts to load a model from the candidate paths in
// order. Load failure is not an error; the predictor starts in rule
// fallback mode and stays there until an explicit reload succeeds.
func NewPredictor(paths []string, threshold float64, fallback FallbackScorer, log zerolog.Logger) *Predictor {
	p := &Predictor{
		fallback:  fallback,
		threshold: threshold,
		paths:     paths,
		log:       log.With().Str("component", "predictor").Logger(),
	}

	if err := p.Reload(); err != nil {
		p.log.Warn().Err(err).Msg("no model artifact available, using rule fallback")
	}
	return p
}

// Mode reports the current scoring path.
func (p *Predictor) Mode() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.model != nil {
		return ModeModelLoaded
	}
	return ModeRuleFallback
}

// Info reports the held model's metadata.
func (p *Predictor) Info() ModelInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.model == nil {
		return ModelInfo{Mode: ModeRuleFallback}
	}
	return ModelInfo{
		Mode:       ModeModelLoaded,
		Columns:    p.model.Columns,
		TrainedAt:  p.model.TrainedAt,
		LoadedFrom: p.loadedFrom,
	}
}

// Predict scores a feature vector. Inference errors fall back to rule
// scoring for this call only; the loaded model is kept.
func (p *Predictor) Predict(f *FeatureVector) Prediction {
	p.mu.RLock()
	model := p.model
	p.mu.RUnlock()

	if model != nil {
		prob, err := model.Probability(f.Named())
		if err == nil {
			return Prediction{
				Probability: prob,
				IsFraud:     prob >= p.threshold,
				Mode:        ModeModelLoaded,
				RiskFactors: p.fallback.Factors(f),
			}
		}
		p.log.Warn().Err(err).Msg("model inference failed, falling back to rules for this call")
	}

	score, factors := p.fallback.Score(f)
	prob := score / 100.0
	return Prediction{
		Probability: prob,
		IsFraud:     prob >= p.threshold,
		Mode:        ModeRuleFallback,
		RiskFactors: factors,
	}
}

// Reload re-attempts loading from the candidate paths and swaps the
// model reference on success.
func (p *Predictor) Reload() error {
	var lastErr error
	for _, path := range p.paths {
		m, err := LoadModel(path)
		if err != nil {
			lastErr = err
			continue
		}
		p.Swap(m, path)
		p.log.Info().Str("path", path).Time("trained_at", m.TrainedAt).Msg("model loaded")
		return nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no candidate model paths configured")
	}
	return lastErr
}

// Swap atomically replaces the held model reference.
func (p *Predictor) Swap(m *Model, source string) {
	p.mu.Lock()
	p.model = m
	p.loadedFrom = source
	p.mu.Unlock()
}

// Threshold returns the fraud decision cutoff.
func (p *Predictor) Threshold() float64 {
	return p.threshold
}
