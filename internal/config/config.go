// Package config loads solc's own settings: default compilation target,
// import search paths, and logging level. It mirrors pkg/config's
// viper-based loader and walletserver/config's godotenv usage from the
// teacher repo, adapted from a node's network/consensus/storage sections
// to a compiler's target/paths/logging sections.
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"solidc/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config is the unified configuration for one solc invocation. It
// mirrors the structure of solc.yaml.
type Config struct {
	Target struct {
		Name string `mapstructure:"name" json:"name"` // "substrate", "ewasm", or "solana"
	} `mapstructure:"target" json:"target"`

	Paths struct {
		ImportPaths []string `mapstructure:"import_paths" json:"import_paths"`
	} `mapstructure:"paths" json:"paths"`

	Output struct {
		EmitCFG      bool `mapstructure:"emit_cfg" json:"emit_cfg"`
		EmitLLVM     bool `mapstructure:"emit_llvm" json:"emit_llvm"`
		EmitObject   bool `mapstructure:"emit_object" json:"emit_object"`
		StandardJSON bool `mapstructure:"standard_json" json:"standard_json"`
	} `mapstructure:"output" json:"output"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads solc.yaml (searched in the working directory and /etc/solc)
// and merges SOLC_-prefixed environment variable overrides. A missing
// config file is not an error: solc runs fine off flag defaults alone.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, utils.Wrap(err, "load .env file")
		}
	}

	viper.SetConfigName("solc")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/solc")
	viper.SetEnvPrefix("SOLC")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, utils.Wrap(err, "read solc.yaml")
		}
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	if AppConfig.Target.Name == "" {
		AppConfig.Target.Name = "ewasm"
	}
	if AppConfig.Logging.Level == "" {
		AppConfig.Logging.Level = "info"
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the SOLC_ENV_FILE environment
// variable to name an optional .env file to merge first.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("SOLC_ENV_FILE", ""))
}

// ParseTargetName maps a config/flag target name to the set of names
// solc accepts, returning an error listing the valid choices otherwise.
func ParseTargetName(name string) (string, error) {
	switch name {
	case "substrate", "ewasm", "solana":
		return name, nil
	default:
		return "", fmt.Errorf("unknown target %q: must be one of substrate, ewasm, solana", name)
	}
}
