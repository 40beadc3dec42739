// Package config loads layered configuration: built-in defaults, a YAML
// file, CHARTMERGE_* environment variables and command-line flags, in
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hurttlocker/chartmerge/internal/extract"
)

// EnvPrefix prefixes every environment variable, e.g. CHARTMERGE_LLM_PROVIDER.
const EnvPrefix = "CHARTMERGE"

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ExtractConfig struct {
	MaxTokens         int     `mapstructure:"max_tokens"`
	CharsPerToken     int     `mapstructure:"chars_per_token"`
	MinContentChars   int     `mapstructure:"min_content_chars"`
	CoverageThreshold float64 `mapstructure:"coverage_threshold"`
}

type SynthesisConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	Temperature float64       `mapstructure:"temperature"`
	Parallelism int           `mapstructure:"parallelism"`
}

type LLMConfig struct {
	Provider      string `mapstructure:"provider"` // provider/model, empty disables synthesis
	APIKey        string `mapstructure:"api_key"`
	BaseURL       string `mapstructure:"base_url"`
	RatePerMinute int    `mapstructure:"rate_per_minute"`
	MaxRetries    int    `mapstructure:"max_retries"`
}

type CacheConfig struct {
	Path string `mapstructure:"path"` // empty disables the synthesis cache
}

type InputConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// Config is the resolved configuration.
type Config struct {
	ConfigPath    string          `mapstructure:"-"`
	Mode          string          `mapstructure:"mode"`
	RegistryPath  string          `mapstructure:"registry_path"`
	TokenizerPath string          `mapstructure:"tokenizer_path"`
	Log           LogConfig       `mapstructure:"log"`
	Extract       ExtractConfig   `mapstructure:"extract"`
	Synthesis     SynthesisConfig `mapstructure:"synthesis"`
	LLM           LLMConfig       `mapstructure:"llm"`
	Cache         CacheConfig     `mapstructure:"cache"`
	Input         InputConfig     `mapstructure:"input"`
	HTTP          HTTPConfig      `mapstructure:"http"`
}

var defaults = map[string]any{
	"mode":                       "auto",
	"registry_path":              "",
	"tokenizer_path":             "",
	"log.level":                  "info",
	"log.format":                 "console",
	"extract.max_tokens":         extract.DefaultMaxTokens,
	"extract.chars_per_token":    extract.DefaultCharsPerToken,
	"extract.min_content_chars":  extract.DefaultMinContentChars,
	"extract.coverage_threshold": extract.DefaultCoverageThreshold,
	"synthesis.timeout":          "30s",
	"synthesis.temperature":      0.2,
	"synthesis.parallelism":      4,
	"llm.provider":               "",
	"llm.api_key":                "",
	"llm.base_url":               "",
	"llm.rate_per_minute":        50,
	"llm.max_retries":            2,
	"cache.path":                 "",
	"input.max_bytes":            16 << 20,
	"http.addr":                  ":8086",
}

// Keys lists every configuration key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// EnvName returns the environment variable for key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// DefaultConfigPath is ~/.chartmerge/config.yaml.
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".chartmerge", "config.yaml")
}

// NewViper returns a viper instance with defaults and environment binding.
func NewViper() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only applies to Get; Unmarshal needs explicit bindings.
	for k := range defaults {
		_ = v.BindEnv(k)
	}
	return v
}

// Load reads the config file into v and unmarshals the result. An empty
// path falls back to DefaultConfigPath, which may be absent; an explicit
// path must exist.
func Load(v *viper.Viper, path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	path = expandUserPath(path)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound), errors.Is(err, os.ErrNotExist):
			if explicit {
				return nil, fmt.Errorf("config file %s: %w", path, err)
			}
			path = ""
		default:
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ConfigPath = path
	cfg.RegistryPath = expandUserPath(cfg.RegistryPath)
	cfg.TokenizerPath = expandUserPath(cfg.TokenizerPath)
	cfg.Cache.Path = expandUserPath(cfg.Cache.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BindFlags binds flags to keys. Only flags present in fs are bound.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet, keyToFlag map[string]string) error {
	for key, name := range keyToFlag {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding --%s to %s: %w", name, key, err)
		}
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	switch c.Mode {
	case "auto", "notes", "sections":
	default:
		errs = append(errs, fmt.Errorf("mode must be auto, notes or sections, got %q", c.Mode))
	}
	switch strings.ToLower(c.Log.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not a zerolog level", c.Log.Level))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}
	if err := c.ExtractOptions().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Synthesis.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("synthesis.timeout must be positive, got %s", c.Synthesis.Timeout))
	}
	if c.Synthesis.Temperature < 0 || c.Synthesis.Temperature > 2 {
		errs = append(errs, fmt.Errorf("synthesis.temperature must be in [0, 2], got %v", c.Synthesis.Temperature))
	}
	if c.Synthesis.Parallelism < 1 {
		errs = append(errs, fmt.Errorf("synthesis.parallelism must be at least 1, got %d", c.Synthesis.Parallelism))
	}
	if c.LLM.RatePerMinute < 1 {
		errs = append(errs, fmt.Errorf("llm.rate_per_minute must be at least 1, got %d", c.LLM.RatePerMinute))
	}
	if c.LLM.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("llm.max_retries must not be negative, got %d", c.LLM.MaxRetries))
	}
	if c.Input.MaxBytes < 1 {
		errs = append(errs, fmt.Errorf("input.max_bytes must be positive, got %d", c.Input.MaxBytes))
	}
	return errors.Join(errs...)
}

// ExtractOptions converts the extract section to the agent config.
func (c *Config) ExtractOptions() extract.Config {
	return extract.Config{
		MaxTokens:         c.Extract.MaxTokens,
		CharsPerToken:     c.Extract.CharsPerToken,
		MinContentChars:   c.Extract.MinContentChars,
		CoverageThreshold: c.Extract.CoverageThreshold,
	}
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
