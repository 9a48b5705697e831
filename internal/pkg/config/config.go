package config

import "time"

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Risk    RiskConfig    `mapstructure:"risk"`
	Model   ModelConfig   `mapstructure:"model"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// RedisConfig holds Redis configuration for the history cache
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// RiskConfig holds the scoring configuration surface
type RiskConfig struct {
	// Fraud decision cutoff on the predicted probability
	Threshold float64 `mapstructure:"threshold"`

	// Risk level boundaries on the 0-100 score
	MediumScore   float64 `mapstructure:"medium_score"`
	HighScore     float64 `mapstructure:"high_score"`
	CriticalScore float64 `mapstructure:"critical_score"`

	// Feature inclusion toggles
	IncludeUserHistory      bool `mapstructure:"include_user_history"`
	IncludeTemporalFeatures bool `mapstructure:"include_temporal_features"`
	IncludeDeviceFeatures   bool `mapstructure:"include_device_features"`

	// Deviation ratio assigned when a user's history mean is unusable
	DeviationSentinel float64 `mapstructure:"deviation_sentinel"`

	// Anomaly detector settings
	AnomalyTrees         int     `mapstructure:"anomaly_trees"`
	AnomalyContamination float64 `mapstructure:"anomaly_contamination"`
	AnomalySeed          int64   `mapstructure:"anomaly_seed"`
}

// ModelConfig holds model artifact locations
type ModelConfig struct {
	// Path the train endpoint writes to, also the first load candidate
	Path string `mapstructure:"path"`

	// Additional locations tried in order at startup and reload
	CandidatePaths []string `mapstructure:"candidate_paths"`

	AnomalyPath string `mapstructure:"anomaly_path"`
}

// LoadPaths returns the model locations to try, primary path first.
func (c *ModelConfig) LoadPaths() []string {
	paths := []string{c.Path}
	for _, p := range c.CandidatePaths {
		if p != c.Path {
			paths = append(paths, p)
		}
	}
	return paths
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Redis: RedisConfig{
			Enabled:      true,
			Host:         "localhost",
			Port:         6379,
			Password:     "",
			DB:           0,
			PoolSize:     10,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Risk: RiskConfig{
			Threshold:               0.8,
			MediumScore:             30,
			HighScore:               70,
			CriticalScore:           90,
			IncludeUserHistory:      true,
			IncludeTemporalFeatures: true,
			IncludeDeviceFeatures:   true,
			DeviationSentinel:       10,
			AnomalyTrees:            100,
			AnomalyContamination:    0.1,
			AnomalySeed:             42,
		},
		Model: ModelConfig{
			Path:        "./models/fraud_model.json",
			AnomalyPath: "./models/anomaly_detector.json",
			CandidatePaths: []string{
				"./models/fraud_model.json",
				"/var/lib/risk-engine/fraud_model.json",
			},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
