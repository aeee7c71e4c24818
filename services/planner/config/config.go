// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the pgplan YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianPlan/services/planner/telemetry"
)

// EnvPath names the environment variable that overrides the config path.
const EnvPath = "PGPLAN_CONFIG"

var ErrInvalidConfig = errors.New("invalid config")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config is the full pgplan configuration.
type Config struct {
	Log       LogConfig        `yaml:"log"`
	Planner   PlannerConfig    `yaml:"planner"`
	Telemetry telemetry.Config `yaml:"telemetry"`
	Store     StoreConfig      `yaml:"store"`
	Server    ServerConfig     `yaml:"server"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `yaml:"json"`
	// File, when set, receives a copy of every record.
	File string `yaml:"file"`
}

// PlannerConfig controls estimation.
type PlannerConfig struct {
	DefaultProblem string `yaml:"default_problem" validate:"required"`
	DefaultKind    string `yaml:"default_kind" validate:"required"`
	CacheCapacity  int    `yaml:"cache_capacity" validate:"gte=1"`
	SerialPlanning bool   `yaml:"serial_planning"`
	// MaxLevels caps graph depth; 0 derives the cap from the problem size.
	MaxLevels int `yaml:"max_levels" validate:"gte=0"`
	// Workers bounds concurrent successor estimation.
	Workers int `yaml:"workers" validate:"gte=1,lte=256"`
}

// StoreConfig locates the estimate history.
type StoreConfig struct {
	Path     string `yaml:"path" validate:"required_if=InMemory false"`
	InMemory bool   `yaml:"in_memory"`
}

// ServerConfig controls `pgplan serve`.
type ServerConfig struct {
	Address string `yaml:"address" validate:"required,hostname_port"`
}

// Default returns the configuration used when no file sets a field.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return Config{
		Log: LogConfig{Level: "info"},
		Planner: PlannerConfig{
			DefaultProblem: "air_cargo_p1",
			DefaultKind:    "levelsum",
			CacheCapacity:  4096,
			SerialPlanning: true,
			Workers:        4,
		},
		Telemetry: telemetry.DefaultConfig(),
		Store:     StoreConfig{Path: filepath.Join(home, ".pgplan", "history")},
		Server:    ServerConfig{Address: "127.0.0.1:8088"},
	}
}

// DefaultPath is $HOME/.pgplan/pgplan.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, ".pgplan", "pgplan.yaml"), nil
}

// Resolve picks the config path: explicit, then $PGPLAN_CONFIG, then
// DefaultPath.
func Resolve(explicit string) (path string, isDefault bool, err error) {
	if explicit != "" {
		return explicit, false, nil
	}
	if env := os.Getenv(EnvPath); env != "" {
		return env, false, nil
	}
	path, err = DefaultPath()
	return path, true, err
}

// Load reads the configuration.
//
// Description:
//
//	Fields missing from the file keep their Default values. A missing file at
//	the default location is created with the defaults; a missing file at an
//	explicit or $PGPLAN_CONFIG path is an error.
//
// Outputs:
//   - Config: The validated configuration.
//   - string: The path that was used.
//   - error: Read, parse or ErrInvalidConfig failures.
func Load(explicit string) (Config, string, error) {
	path, isDefault, err := Resolve(explicit)
	if err != nil {
		return Config{}, "", err
	}

	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) && isDefault {
		if err := WriteDefault(path); err != nil {
			return Config{}, path, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, path, fmt.Errorf("failed to read the config file: %w", err)
	}
	cfg, err := Parse(data)
	return cfg, path, err
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse the config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// WriteDefault writes the default configuration to path.
func WriteDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
