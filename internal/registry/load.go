package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk registry format.
type File struct {
	Version string  `yaml:"version"`
	Entries []Entry `yaml:"entries"`
}

// Load reads a YAML registry file and builds a Registry from it.
func Load(path string) (*Registry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading registry %s: %w", path, err)
	}
	return Parse(b)
}

// Parse builds a Registry from YAML bytes.
func Parse(data []byte) (*Registry, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, &ConfigError{Reason: "parsing registry yaml", Err: err}
	}
	if f.Version == "" {
		return nil, &ConfigError{Reason: "missing version"}
	}
	return New(f.Version, f.Entries)
}

// Marshal renders the registry in the on-disk format.
func (r *Registry) Marshal() ([]byte, error) {
	return yaml.Marshal(File{Version: r.version, Entries: r.Entries()})
}

// LoadOrDefault loads path, or returns the built-in registry when path is empty.
func LoadOrDefault(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}
