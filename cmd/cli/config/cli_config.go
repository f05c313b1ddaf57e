package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/inferloop/healthtrack/internal/analytics"
)

type CLIConfig struct {
	// ArtifactDir receives fitted model artifacts when set
	ArtifactDir string           `mapstructure:"artifact_dir"`
	Pretty      bool             `mapstructure:"pretty"`
	Height      float64          `mapstructure:"height"`
	Analytics   analytics.Config `mapstructure:"analytics"`
}

func LoadConfig(cfgFile string) (*CLIConfig, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".healthtrack"))
		}
		v.SetConfigName("cli")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("HEALTHTRACK_CLI")
	v.AutomaticEnv()

	defaults := analytics.DefaultConfig()
	v.SetDefault("artifact_dir", "")
	v.SetDefault("pretty", true)
	v.SetDefault("height", 0.0)
	v.SetDefault("analytics.min_data_points", defaults.MinDataPoints)
	v.SetDefault("analytics.ar_order", defaults.AROrder)
	v.SetDefault("analytics.diff_order", defaults.DiffOrder)
	v.SetDefault("analytics.ma_order", defaults.MAOrder)
	v.SetDefault("analytics.contamination", defaults.Contamination)
	v.SetDefault("analytics.trees", defaults.Trees)
	v.SetDefault("analytics.subsample_size", defaults.SubsampleSize)
	v.SetDefault("analytics.seed", defaults.Seed)
	v.SetDefault("analytics.trend_window", defaults.TrendWindow)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &CLIConfig{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Analytics.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func GetDefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".healthtrack", "cli.yaml")
}
