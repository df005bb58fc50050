package config

import (
	"fmt"
	"log/slog"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

type Config struct {
	BindAddress string `mapstructure:"bind-address" yaml:"bind-address"`
	Port        int    `mapstructure:"port" yaml:"port"`

	LogLevel string `mapstructure:"log-level" yaml:"log-level"`
	LogFile  string `mapstructure:"log-file" yaml:"log-file"`

	// RulesFile is the JSON file the rule collection is persisted to.
	RulesFile string `mapstructure:"rules-file" yaml:"rules-file"`

	// ListenAddr is derived from BindAddress and Port, never read from
	// configuration directly.
	ListenAddr string `mapstructure:"-" yaml:"-"`
}

// BuildConfigFromViper decodes the merged viper state (defaults, config
// file, env vars, flags) into a Config.
func BuildConfigFromViper() (*Config, error) {
	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(viper.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.RulesFile == "" {
		return nil, fmt.Errorf("rules-file must not be empty")
	}
	cfg.ListenAddr = fmt.Sprintf("%s:%d", cfg.BindAddress, cfg.Port)

	return &cfg, nil
}

func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("Log Level", c.LogLevel),
		slog.String("Log File", c.LogFile),
		slog.String("Listen Address", c.ListenAddr),
		slog.String("Rules File", c.RulesFile),
	)
}
