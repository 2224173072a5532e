package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/samcharles93/loprec/internal/lpt"
)

// Config is the loprec configuration file (~/.config/loprec/config.yaml).
type Config struct {
	// Params are the default transformation parameters used when no
	// preset flag is given.
	Params lpt.ParamsConfig `yaml:"params"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "loprec", "config.yaml")
}

func loadConfig() Config {
	var cfg Config
	path := configPath()
	if path == "" {
		return cfg
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}
	_ = yaml.Unmarshal(data, &cfg)
	return cfg
}

// applyConfig applies config file defaults for flags the user did not
// set explicitly.
func applyConfig(c *cli.Command, cfg Config, addr *string) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
	if cfg.Params.Preset != "" && !c.IsSet("params") {
		paramsPreset = cfg.Params.Preset
	}
	if addr != nil && cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}

// resolveParams builds run parameters from flags, falling back to the
// config file's asymmetric-quantization default when the flag is unset.
func resolveParams(c *cli.Command, cfg Config) (lpt.Params, error) {
	pc := lpt.ParamsConfig{Preset: paramsPreset}
	if c.IsSet("asymmetric") {
		v := asymmetric
		pc.SupportAsymmetricQuantization = &v
	} else if cfg.Params.SupportAsymmetricQuantization != nil {
		pc.SupportAsymmetricQuantization = cfg.Params.SupportAsymmetricQuantization
	}
	return pc.Build()
}
