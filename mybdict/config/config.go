package config

import (
	"errors"
	"fmt"
	"strings"

	internal "github.com/ZanzyTHEbar/mybdict/mybdict"
	"github.com/ZanzyTHEbar/mybdict/mybdict/derive"
	"github.com/ZanzyTHEbar/mybdict/mybdict/pipeline"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. MYBDICT_CONVERT_COMPRESSION.
const EnvPrefix = "MYBDICT"

// Config stores all configuration of the application.
// The values are read by viper from a config file, environment variables or flags.
type Config struct {
	Convert ConvertConfig `mapstructure:"convert"`
	Batch   BatchConfig   `mapstructure:"batch"`
	Log     LogConfig     `mapstructure:"log"`
}

// ConvertConfig holds the defaults for every conversion job.
type ConvertConfig struct {
	CodeScheme         string `mapstructure:"codeScheme"`
	DeriveSingleChars  bool   `mapstructure:"deriveSingleChars"`
	SingleCharsPerCode int    `mapstructure:"singleCharsPerCode"`
	Compression        string `mapstructure:"compression"`
	DictVersion        string `mapstructure:"dictVersion"`
	SourceFormat       string `mapstructure:"sourceFormat"`
}

// BatchConfig controls directory conversion.
type BatchConfig struct {
	MaxWorkers int    `mapstructure:"maxWorkers"`
	IgnoreFile string `mapstructure:"ignoreFile"`
	Pattern    string `mapstructure:"pattern"`
}

// LogConfig controls the zerolog level.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// FlagKeys maps CLI flag names to the config keys they override.
var FlagKeys = map[string]string{
	"scheme":       "convert.codeScheme",
	"derive":       "convert.deriveSingleChars",
	"per-code":     "convert.singleCharsPerCode",
	"compression":  "convert.compression",
	"dict-version": "convert.dictVersion",
	"format":       "convert.sourceFormat",
	"workers":      "batch.maxWorkers",
	"ignore-file":  "batch.ignoreFile",
	"pattern":      "batch.pattern",
	"log-level":    "log.level",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("convert.codeScheme", "PINYIN_FULL")
	v.SetDefault("convert.deriveSingleChars", true)
	v.SetDefault("convert.singleCharsPerCode", derive.DefaultPerCode)
	v.SetDefault("convert.compression", "zlib")
	v.SetDefault("convert.dictVersion", pipeline.DefaultDictVersion)
	v.SetDefault("convert.sourceFormat", pipeline.DefaultFormat)
	v.SetDefault("batch.maxWorkers", 0)
	v.SetDefault("batch.ignoreFile", internal.DefaultIgnoreFile)
	v.SetDefault("batch.pattern", internal.DefaultSourcePattern)
	v.SetDefault("log.level", "info")
}

// LoadConfig reads configuration from configPath, or from config.yaml in the
// working directory, its parent and the user config directory when configPath
// is empty. Environment variables and then changed flags in fs take
// precedence. fs may be nil.
func LoadConfig(configPath string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("..")
		v.AddConfigPath(internal.DefaultConfigPath)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range FlagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if cfg.Batch.MaxWorkers < 0 {
		return nil, fmt.Errorf("batch.maxWorkers must be >= 0, got %d", cfg.Batch.MaxWorkers)
	}
	return &cfg, nil
}

// Workers resolves batch.maxWorkers, where 0 means one per CPU within 2..16.
func (c *Config) Workers() int {
	if c.Batch.MaxWorkers > 0 {
		return c.Batch.MaxWorkers
	}
	return pipeline.DefaultWorkers()
}

// JobTemplate returns a job carrying the configured conversion settings.
func (c *Config) JobTemplate() pipeline.Job {
	return pipeline.Job{
		Format:             c.Convert.SourceFormat,
		DictVersion:        c.Convert.DictVersion,
		CodeScheme:         c.Convert.CodeScheme,
		DeriveSingleChars:  c.Convert.DeriveSingleChars,
		SingleCharsPerCode: c.Convert.SingleCharsPerCode,
		Compression:        c.Convert.Compression,
	}
}

// DefaultConfigFile is where LoadConfig looks last.
func DefaultConfigFile() string {
	return internal.DefaultGlobalConfig
}
