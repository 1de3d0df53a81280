package dff

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const DefaultEnvPrefix = "DFF"

var DefaultConfig = Config{
	Workers: 1,
}

type Config struct {
	Root        string `mapstructure:"-"`
	Verbose     bool   `mapstructure:"verbose"`
	Digest      bool   `mapstructure:"digest"`
	Workers     int    `mapstructure:"workers"`
	MinFileSize int64  `mapstructure:"min-size"`
	NoColor     bool   `mapstructure:"no-color"`
}

// LoadConfig reads defaults, then DFF_* environment variables, then any
// flag set on the command line.
func LoadConfig(flags *pflag.FlagSet) (*Config, error) {
	v := viper.NewWithOptions(
		viper.EnvKeyReplacer(strings.NewReplacer("-", "_")),
	)
	v.SetEnvPrefix(DefaultEnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("verbose", DefaultConfig.Verbose)
	v.SetDefault("digest", DefaultConfig.Digest)
	v.SetDefault("workers", DefaultConfig.Workers)
	v.SetDefault("min-size", DefaultConfig.MinFileSize)
	v.SetDefault("no-color", DefaultConfig.NoColor)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if config.Workers < 1 {
		config.Workers = 1
	}
	return config, nil
}
