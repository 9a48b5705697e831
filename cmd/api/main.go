package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Abishek213/Major-AI/internal/application/riskassess"
	"github.com/Abishek213/Major-AI/internal/domain/risk"
	"github.com/Abishek213/Major-AI/internal/infrastructure/cache/redis"
	"github.com/Abishek213/Major-AI/internal/infrastructure/http/router"
	"github.com/Abishek213/Major-AI/internal/infrastructure/ml"
	"github.com/Abishek213/Major-AI/internal/infrastructure/rules"
	"github.com/Abishek213/Major-AI/internal/interfaces/http/handler"
	"github.com/Abishek213/Major-AI/internal/pkg/config"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Warn().Err(err).Msg("could not load config file, using defaults")
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := newLogger(cfg.Log)
	logger.Info().Str("version", version).
		Str("addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)).
		Msg("starting risk scoring engine")

	// Redis history cache. The engine degrades to request-supplied
	// history only when Redis is unavailable.
	var redisClient *redis.Client
	var historyStore riskassess.HistoryStore
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("redis connection failed, history enrichment disabled")
			redisClient = nil
		} else {
			logger.Info().Str("host", cfg.Redis.Host).Int("port", cfg.Redis.Port).Msg("connected to redis")
			historyStore = redis.NewHistoryCache(redisClient)
		}
	}

	// Scoring pipeline
	extractor := ml.NewFeatureExtractor(ml.ExtractorConfig{
		IncludeUserHistory:  cfg.Risk.IncludeUserHistory,
		IncludeTemporal:     cfg.Risk.IncludeTemporalFeatures,
		IncludeDevice:       cfg.Risk.IncludeDeviceFeatures,
		DeviationSentinel:   cfg.Risk.DeviationSentinel,
		ShortSessionSeconds: 60,
		HighAmountThreshold: 100,
		NightHourEnd:        6,
		BusinessHourStart:   9,
		BusinessHourEnd:     17,
	})
	ruleEngine := rules.NewEngine(rules.DefaultThresholds(), logger)
	predictor := ml.NewPredictor(cfg.Model.LoadPaths(), cfg.Risk.Threshold, ruleEngine, logger)

	anomaly := ml.NewAnomalyDetector(cfg.Risk.AnomalyTrees, cfg.Risk.AnomalyContamination, cfg.Risk.AnomalySeed, logger)
	if err := anomaly.Load(cfg.Model.AnomalyPath); err != nil {
		logger.Warn().Err(err).Msg("no anomaly detector artifact, detection disabled until training")
	}

	thresholds := risk.Thresholds{
		Medium:   cfg.Risk.MediumScore,
		High:     cfg.Risk.HighScore,
		Critical: cfg.Risk.CriticalScore,
	}

	assessUseCase := riskassess.NewAssessUseCase(extractor, predictor, thresholds, historyStore, logger)
	trainUseCase := riskassess.NewTrainUseCase(
		extractor, predictor, anomaly,
		cfg.Model.Path, cfg.Model.AnomalyPath,
		ml.DefaultTrainingConfig(), logger,
	)

	// HTTP surface
	riskHandler := handler.NewRiskHandler(assessUseCase, trainUseCase, predictor, anomaly)

	var redisHealthChecker handler.HealthChecker
	if redisClient != nil {
		redisHealthChecker = redisClient
	}
	healthHandler := handler.NewHealthHandler(redisHealthChecker, predictor, version)

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	r := router.NewRouter(riskHandler, healthHandler, metricsPath)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}

	if redisClient != nil {
		redisClient.Close()
	}

	logger.Info().Msg("server stopped")
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}
