package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// GenerateTemplateConfig produces a config populated with the defaults and
// optionally writes it to config.yaml in the working directory.
func GenerateTemplateConfig(writeToFile bool) (Config, error) {
	cfg := Config{
		BindAddress: "127.0.0.1",
		Port:        3500,

		LogLevel: "info",
		LogFile:  "/var/log/rulesd/rulesd.log",

		RulesFile: "rules.json",
	}

	if writeToFile {
		data, err := yaml.Marshal(&cfg)
		if err != nil {
			return Config{}, fmt.Errorf("failed to marshal template config to YAML: %w", err)
		}
		if err := os.WriteFile("config.yaml", data, 0644); err != nil {
			return Config{}, fmt.Errorf("failed to write template config to file: %w", err)
		}
	}
	return cfg, nil
}
