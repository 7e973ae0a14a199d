// Copyright (C) 2025 Devloop Labs (oss@devloop.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads and validates the devloop configuration.
//
// Configuration is resolved in three layers, later layers winning:
//
//  1. Built-in defaults (Default()).
//  2. An optional YAML file (Load()).
//  3. Environment variables (OLLAMA_BASE_URL, OLLAMA_MODEL).
//
// The resolved Config is immutable by convention: it is built once at
// startup and passed by value into each component constructor.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all settings for a devloop run.
//
// The struct is validated with go-playground/validator after loading;
// an invalid configuration fails fast at startup rather than mid-loop.
type Config struct {
	// Ollama configures the completion service endpoint.
	Ollama OllamaConfig `yaml:"ollama"`

	// Project configures the target project.
	Project ProjectConfig `yaml:"project"`

	// MaxIterations bounds the generate/test/review/patch loop.
	MaxIterations int `yaml:"max_iterations" validate:"gte=1,lte=50"`

	// TestCount is the number of test cases requested per cycle.
	TestCount int `yaml:"test_count" validate:"gte=1,lte=20"`

	// ActionTimeout is the per-test-action wall-clock timeout.
	ActionTimeout time.Duration `yaml:"action_timeout" validate:"gt=0"`

	// ReviewTimeout bounds each completion call used for review and
	// test generation.
	ReviewTimeout time.Duration `yaml:"review_timeout" validate:"gt=0"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`
}

// OllamaConfig describes the completion service.
type OllamaConfig struct {
	// BaseURL is the Ollama server root, e.g. http://localhost:11434.
	BaseURL string `yaml:"base_url" validate:"required,url"`

	// Model is the model name passed on every request.
	Model string `yaml:"model" validate:"required"`
}

// ProjectConfig describes the target project.
type ProjectConfig struct {
	// RootDir is the directory generated files are written under.
	RootDir string `yaml:"root_dir" validate:"required"`

	// Type is a coarse project category (cli, web, library, ...).
	Type string `yaml:"type" validate:"oneof=frontend backend fullstack cli library mobile"`

	// OS is a free-form descriptor embedded in generation prompts.
	OS string `yaml:"os"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Ollama: OllamaConfig{
			BaseURL: "http://localhost:11434",
			Model:   "llama3.2",
		},
		Project: ProjectConfig{
			RootDir: ".",
			Type:    "cli",
			OS:      "cross-platform",
		},
		MaxIterations: 5,
		TestCount:     3,
		ActionTimeout: 5 * time.Second,
		ReviewTimeout: 30 * time.Second,
		LogLevel:      "info",
	}
}

// Load reads a YAML config file over the defaults and applies
// environment overrides.
//
// Inputs:
//
//	path - YAML file path. Empty string skips the file layer.
//
// Outputs:
//
//	Config - The resolved configuration.
//	error - Non-nil on read, parse, or validation failure.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks a Config against its struct tags.
func Validate(cfg Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// applyEnvOverrides applies OLLAMA_BASE_URL and OLLAMA_MODEL when set.
func applyEnvOverrides(cfg *Config) {
	if base := os.Getenv("OLLAMA_BASE_URL"); base != "" {
		cfg.Ollama.BaseURL = base
	}
	if model := os.Getenv("OLLAMA_MODEL"); model != "" {
		cfg.Ollama.Model = model
	}
}
