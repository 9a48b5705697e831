package config

import (
	"errors"
)

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	if c.Risk.Threshold < 0 || c.Risk.Threshold > 1 {
		return errors.New("threshold must be between 0 and 1")
	}

	// Level boundaries should be in order: medium < high < critical
	if c.Risk.MediumScore >= c.Risk.HighScore {
		return errors.New("medium_score should be less than high_score")
	}
	if c.Risk.HighScore >= c.Risk.CriticalScore {
		return errors.New("high_score should be less than critical_score")
	}
	if c.Risk.CriticalScore > 100 {
		return errors.New("critical_score cannot exceed 100")
	}

	if c.Risk.AnomalyContamination <= 0 || c.Risk.AnomalyContamination >= 1 {
		return errors.New("anomaly_contamination must be strictly between 0 and 1")
	}

	if c.Risk.DeviationSentinel < 1 {
		return errors.New("deviation_sentinel must be at least 1")
	}

	if c.Model.Path == "" {
		return errors.New("model path is required")
	}

	return nil
}
