// Copyright (C) 2025 Devloop Labs (oss@devloop.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("default configuration invalid: %v", err)
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Ollama.BaseURL != "http://localhost:11434" || cfg.MaxIterations != 5 {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
ollama:
  base_url: http://ollama.internal:11434
  model: codellama
max_iterations: 10
test_count: 5
log_level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Ollama.Model != "codellama" {
		t.Errorf("model = %q", cfg.Ollama.Model)
	}
	if cfg.MaxIterations != 10 || cfg.TestCount != 5 {
		t.Errorf("loop settings = %d/%d", cfg.MaxIterations, cfg.TestCount)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
	// Untouched keys keep their defaults.
	if cfg.ActionTimeout != 5*time.Second {
		t.Errorf("action timeout = %v", cfg.ActionTimeout)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("OLLAMA_BASE_URL", "http://env-host:11434")
	t.Setenv("OLLAMA_MODEL", "env-model")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Ollama.BaseURL != "http://env-host:11434" || cfg.Ollama.Model != "env-model" {
		t.Errorf("env overrides not applied: %+v", cfg.Ollama)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero iterations", func(c *Config) { c.MaxIterations = 0 }},
		{"iteration budget too large", func(c *Config) { c.MaxIterations = 100 }},
		{"zero tests", func(c *Config) { c.TestCount = 0 }},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"bad project type", func(c *Config) { c.Project.Type = "spaceship" }},
		{"empty base url", func(c *Config) { c.Ollama.BaseURL = "" }},
		{"empty model", func(c *Config) { c.Ollama.Model = "" }},
		{"negative action timeout", func(c *Config) { c.ActionTimeout = -time.Second }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := Validate(cfg); err == nil {
				t.Errorf("invalid config accepted: %+v", cfg)
			}
		})
	}
}
