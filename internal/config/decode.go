package config

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DecodeConfig holds configuration for the decode command.
type DecodeConfig struct {
	In           string
	Out          string
	Errors       string
	ContractType string
	LogLevel     string
}

// LoadDecode merges config file, environment variables, and flags into DecodeConfig.
func LoadDecode(cfgFile string, flags *pflag.FlagSet) (DecodeConfig, error) {
	v := viper.New()
	v.SetDefault("out", "./data/token_events.jsonl")
	v.SetDefault("errors", "./data/decode_errors.jsonl")
	v.SetDefault("contract-type", "other")
	v.SetDefault("log-level", "info")

	if err := read(v, cfgFile, flags); err != nil {
		return DecodeConfig{}, err
	}

	cfg := DecodeConfig{
		In:           v.GetString("in"),
		Out:          v.GetString("out"),
		Errors:       v.GetString("errors"),
		ContractType: v.GetString("contract-type"),
		LogLevel:     v.GetString("log-level"),
	}

	return cfg, nil
}
