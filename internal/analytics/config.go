package analytics

import (
	"fmt"

	"github.com/inferloop/healthtrack/pkg/constants"
	"github.com/inferloop/healthtrack/pkg/errors"
)

// Config contains configuration shared by the analytics engines
type Config struct {
	MinDataPoints int `json:"min_data_points" yaml:"min_data_points" mapstructure:"min_data_points"`

	// ARIMA order
	AROrder   int `json:"ar_order" yaml:"ar_order" mapstructure:"ar_order"`
	DiffOrder int `json:"diff_order" yaml:"diff_order" mapstructure:"diff_order"`
	MAOrder   int `json:"ma_order" yaml:"ma_order" mapstructure:"ma_order"`

	// Isolation forest
	Contamination float64 `json:"contamination" yaml:"contamination" mapstructure:"contamination"`
	Trees         int     `json:"trees" yaml:"trees" mapstructure:"trees"`
	SubsampleSize int     `json:"subsample_size" yaml:"subsample_size" mapstructure:"subsample_size"`
	Seed          int64   `json:"seed" yaml:"seed" mapstructure:"seed"`

	TrendWindow int `json:"trend_window" yaml:"trend_window" mapstructure:"trend_window"`
}

// DefaultConfig returns the ARIMA(5,1,0) / 5% contamination configuration
func DefaultConfig() *Config {
	return &Config{
		MinDataPoints: constants.MinAnalysisPoints,
		AROrder:       constants.DefaultAROrder,
		DiffOrder:     constants.DefaultDiffOrder,
		MAOrder:       constants.DefaultMAOrder,
		Contamination: constants.DefaultContamination,
		Trees:         constants.DefaultForestTrees,
		SubsampleSize: constants.DefaultForestSamples,
		Seed:          constants.DefaultForestSeed,
		TrendWindow:   constants.DefaultTrendWindow,
	}
}

// Validate checks the configuration for values the engines cannot run with
func (c *Config) Validate() error {
	switch {
	case c.MinDataPoints < 2:
		return errors.NewConfigurationError(errors.CodeInvalidConfig, "min_data_points must be at least 2")
	case c.AROrder < 0 || c.DiffOrder < 0:
		return errors.NewConfigurationError(errors.CodeInvalidConfig, "ARIMA orders must be non-negative")
	case c.MAOrder != 0:
		return errors.NewConfigurationError(errors.CodeInvalidConfig, "moving-average terms are not supported")
	case c.AROrder+c.DiffOrder >= c.MinDataPoints:
		return errors.NewConfigurationError(errors.CodeInvalidConfig,
			fmt.Sprintf("min_data_points %d is too small for ARIMA(%d,%d,0)", c.MinDataPoints, c.AROrder, c.DiffOrder))
	case c.Contamination <= 0 || c.Contamination >= 0.5:
		return errors.NewConfigurationError(errors.CodeInvalidConfig, "contamination must be in (0, 0.5)")
	case c.Trees < 1 || c.SubsampleSize < 2:
		return errors.NewConfigurationError(errors.CodeInvalidConfig, "forest needs at least 1 tree and 2 samples per tree")
	case c.TrendWindow < 2:
		return errors.NewConfigurationError(errors.CodeInvalidConfig, "trend_window must be at least 2")
	}
	return nil
}

func (c *Config) orDefault() *Config {
	if c == nil {
		return DefaultConfig()
	}
	return c
}
