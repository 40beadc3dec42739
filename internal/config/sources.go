package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type ValueSource string

const (
	SourceDefault ValueSource = "default"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
)

// ResolvedValue is one key with its effective value and where it came from.
type ResolvedValue struct {
	Key    string      `json:"key"`
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

// secretKeys are masked by Explain.
var secretKeys = map[string]bool{"llm.api_key": true}

// Explain reports the effective value and origin of every key. fs and
// keyToFlag identify flags set on the command line; either may be nil.
func Explain(v *viper.Viper, cfg *Config, fs *pflag.FlagSet, keyToFlag map[string]string) []ResolvedValue {
	out := make([]ResolvedValue, 0, len(defaults))
	for _, key := range Keys() {
		rv := ResolvedValue{Key: key, Value: fmt.Sprint(v.Get(key)), Source: SourceDefault}
		env := EnvName(key)
		switch {
		case fs != nil && keyToFlag[key] != "" && fs.Changed(keyToFlag[key]):
			rv.Source, rv.From = SourceCLI, "--"+keyToFlag[key]
		case strings.TrimSpace(os.Getenv(env)) != "":
			rv.Source, rv.From = SourceEnv, env
		case v.InConfig(key):
			rv.Source, rv.From = SourceConfig, cfg.ConfigPath
		}
		if secretKeys[key] && rv.Value != "" {
			rv.Value = maskSecret(rv.Value)
		}
		out = append(out, rv)
	}
	return out
}

func maskSecret(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}
