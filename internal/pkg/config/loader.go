package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()

	// Set defaults from DefaultConfig
	setDefaults(v, cfg)

	// Read from config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Config file not found is ok - we use defaults and env vars
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	// Read from environment variables
	v.SetEnvPrefix("RISK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal into config struct
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	// Server defaults
	v.SetDefault("server.host", cfg.Server.Host)
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout)

	// Redis defaults
	v.SetDefault("redis.enabled", cfg.Redis.Enabled)
	v.SetDefault("redis.host", cfg.Redis.Host)
	v.SetDefault("redis.port", cfg.Redis.Port)
	v.SetDefault("redis.password", cfg.Redis.Password)
	v.SetDefault("redis.db", cfg.Redis.DB)
	v.SetDefault("redis.pool_size", cfg.Redis.PoolSize)
	v.SetDefault("redis.read_timeout", cfg.Redis.ReadTimeout)
	v.SetDefault("redis.write_timeout", cfg.Redis.WriteTimeout)

	// Risk defaults
	v.SetDefault("risk.threshold", cfg.Risk.Threshold)
	v.SetDefault("risk.medium_score", cfg.Risk.MediumScore)
	v.SetDefault("risk.high_score", cfg.Risk.HighScore)
	v.SetDefault("risk.critical_score", cfg.Risk.CriticalScore)
	v.SetDefault("risk.include_user_history", cfg.Risk.IncludeUserHistory)
	v.SetDefault("risk.include_temporal_features", cfg.Risk.IncludeTemporalFeatures)
	v.SetDefault("risk.include_device_features", cfg.Risk.IncludeDeviceFeatures)
	v.SetDefault("risk.deviation_sentinel", cfg.Risk.DeviationSentinel)
	v.SetDefault("risk.anomaly_trees", cfg.Risk.AnomalyTrees)
	v.SetDefault("risk.anomaly_contamination", cfg.Risk.AnomalyContamination)
	v.SetDefault("risk.anomaly_seed", cfg.Risk.AnomalySeed)

	// Model defaults
	v.SetDefault("model.path", cfg.Model.Path)
	v.SetDefault("model.candidate_paths", cfg.Model.CandidatePaths)
	v.SetDefault("model.anomaly_path", cfg.Model.AnomalyPath)

	// Metrics defaults
	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.path", cfg.Metrics.Path)

	// Log defaults
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
}
