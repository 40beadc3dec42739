package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load(NewViper(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ConfigPath != "" {
		t.Errorf("ConfigPath = %q, want empty when no file exists", cfg.ConfigPath)
	}
	if cfg.Mode != "auto" || cfg.HTTP.Addr != ":8086" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Extract.MaxTokens != 20000 || cfg.Extract.CharsPerToken != 4 || cfg.Extract.CoverageThreshold != 0.70 {
		t.Errorf("unexpected extract defaults: %+v", cfg.Extract)
	}
	if cfg.Synthesis.Timeout != 30*time.Second || cfg.Synthesis.Temperature != 0.2 {
		t.Errorf("unexpected synthesis defaults: %+v", cfg.Synthesis)
	}
	if cfg.Input.MaxBytes != 16<<20 {
		t.Errorf("input.max_bytes = %d", cfg.Input.MaxBytes)
	}
}

func TestLoadPrecedence_ConfigEnvCLI(t *testing.T) {
	path := writeConfig(t, `mode: notes
llm:
  provider: openrouter/openai/gpt-4o-mini
  rate_per_minute: 10
synthesis:
  timeout: 5s
cache:
  path: ~/.chartmerge/cache.db
`)
	t.Setenv("HOME", "/home/tester")
	t.Setenv("CHARTMERGE_LLM_PROVIDER", "google/gemini-2.5-flash")
	t.Setenv("CHARTMERGE_SYNTHESIS_PARALLELISM", "8")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("mode", "", "")
	fs.String("llm", "", "")
	flags := map[string]string{"mode": "mode", "llm.provider": "llm"}
	if err := fs.Parse([]string{"--mode=sections"}); err != nil {
		t.Fatal(err)
	}

	v := NewViper()
	if err := BindFlags(v, fs, flags); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	cfg, err := Load(v, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Mode != "sections" {
		t.Errorf("mode = %q, want cli value", cfg.Mode)
	}
	if cfg.LLM.Provider != "google/gemini-2.5-flash" {
		t.Errorf("llm.provider = %q, want env value", cfg.LLM.Provider)
	}
	if cfg.LLM.RatePerMinute != 10 || cfg.Synthesis.Timeout != 5*time.Second {
		t.Errorf("config file values not applied: %+v %+v", cfg.LLM, cfg.Synthesis)
	}
	if cfg.Synthesis.Parallelism != 8 {
		t.Errorf("parallelism = %d, want env value 8", cfg.Synthesis.Parallelism)
	}
	if cfg.Cache.Path != "/home/tester/.chartmerge/cache.db" {
		t.Errorf("cache path not expanded: %q", cfg.Cache.Path)
	}

	sources := map[string]ResolvedValue{}
	for _, rv := range Explain(v, cfg, fs, flags) {
		sources[rv.Key] = rv
	}
	checks := map[string]ValueSource{
		"mode":                  SourceCLI,
		"llm.provider":          SourceEnv,
		"llm.rate_per_minute":   SourceConfig,
		"synthesis.parallelism": SourceEnv,
		"http.addr":             SourceDefault,
	}
	for key, want := range checks {
		if got := sources[key].Source; got != want {
			t.Errorf("%s source = %s, want %s", key, got, want)
		}
	}
	if sources["llm.rate_per_minute"].From != path {
		t.Errorf("config source should name the file, got %q", sources["llm.rate_per_minute"].From)
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	if _, err := Load(NewViper(), filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for explicit missing config file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "mode: [unterminated")
	if _, err := Load(NewViper(), path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"bad mode", "mode: fast", "mode must be"},
		{"bad level", "log:\n  level: loud", "log.level"},
		{"bad format", "log:\n  format: xml", "log.format"},
		{"coverage out of range", "extract:\n  coverage_threshold: 1.5", "coverage"},
		{"zero timeout", "synthesis:\n  timeout: 0s", "synthesis.timeout"},
		{"temperature", "synthesis:\n  temperature: 3", "synthesis.temperature"},
		{"parallelism", "synthesis:\n  parallelism: 0", "synthesis.parallelism"},
		{"retries", "llm:\n  max_retries: -1", "llm.max_retries"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			_, err := Load(NewViper(), writeConfig(t, tt.yaml))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestExplainMasksAPIKey(t *testing.T) {
	t.Setenv("CHARTMERGE_LLM_API_KEY", "sk-abcdefghijklmnop")
	v := NewViper()
	cfg, err := Load(v, writeConfig(t, "mode: auto"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, rv := range Explain(v, cfg, nil, nil) {
		if rv.Key == "llm.api_key" {
			if rv.Value != "sk-a****mnop" {
				t.Errorf("api key not masked: %q", rv.Value)
			}
			if rv.Source != SourceEnv {
				t.Errorf("api key source = %s", rv.Source)
			}
		}
	}
	if cfg.LLM.APIKey != "sk-abcdefghijklmnop" {
		t.Errorf("config must keep the real key")
	}
}

func TestEnvName(t *testing.T) {
	if got := EnvName("extract.max_tokens"); got != "CHARTMERGE_EXTRACT_MAX_TOKENS" {
		t.Errorf("EnvName = %q", got)
	}
}
