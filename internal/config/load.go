package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML file and overlays it on NewDefaultConfig.
// An empty path returns the defaults.
func Load(path string) (*MainConfig, error) {
	cfg := NewDefaultConfig()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := cfg.decode(raw); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *MainConfig) decode(raw []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	// yaml merges into the default proxy map; a file that declares a rule replaces it
	var probe struct {
		Dev struct {
			Proxy map[string]string `yaml:"proxy"`
		} `yaml:"dev"`
	}
	if err := yaml.Unmarshal(raw, &probe); err != nil {
		return err
	}
	if probe.Dev.Proxy != nil {
		c.Dev.Proxy = probe.Dev.Proxy
	}
	return nil
}
