package router

import (
	"net/http"

	"github.com/Abishek213/Major-AI/internal/interfaces/http/handler"
)

// Router holds all HTTP handlers
type Router struct {
	mux           *http.ServeMux
	riskHandler   *handler.RiskHandler
	healthHandler *handler.HealthHandler
	metricsPath   string
}

// NewRouter creates a new router with all routes configured.
// metricsPath may be empty to disable the metrics endpoint.
func NewRouter(
	riskHandler *handler.RiskHandler,
	healthHandler *handler.HealthHandler,
	metricsPath string,
) *Router {
	r := &Router{
		mux:           http.NewServeMux(),
		riskHandler:   riskHandler,
		healthHandler: healthHandler,
		metricsPath:   metricsPath,
	}
	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	// Health endpoints
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)
	r.mux.HandleFunc("GET /ready", r.healthHandler.Ready)
	r.mux.HandleFunc("GET /live", r.healthHandler.Live)

	// Risk assessment endpoints
	r.mux.HandleFunc("POST /api/v1/risk/assess", r.riskHandler.AssessTransaction)
	r.mux.HandleFunc("POST /api/v1/risk/assess/batch", r.riskHandler.AssessBatch)

	// Model lifecycle
	r.mux.HandleFunc("GET /api/v1/risk/model", r.riskHandler.GetModelInfo)
	r.mux.HandleFunc("POST /api/v1/risk/model/train", r.riskHandler.TrainModel)
	r.mux.HandleFunc("POST /api/v1/risk/model/reload", r.riskHandler.ReloadModel)

	// Anomaly detection
	r.mux.HandleFunc("POST /api/v1/risk/anomaly/detect", r.riskHandler.DetectAnomalies)

	// Metrics
	if r.metricsPath != "" {
		r.mux.Handle("GET "+r.metricsPath, handler.MetricsHandler())
	}
}

// ServeHTTP implements http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	// Add CORS headers
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if req.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	r.mux.ServeHTTP(w, req)
}

// Handler returns the http.Handler
func (r *Router) Handler() http.Handler {
	return r
}
