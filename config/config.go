// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package config loads the forester configuration file.
package config

import (
	"errors"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// Config holds the settings shared by the commands.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Grammar GrammarConfig `mapstructure:"grammar"`
	Inputs  InputsConfig  `mapstructure:"inputs"`
	Report  ReportConfig  `mapstructure:"report"`
	Results ResultsConfig `mapstructure:"results"`
}

// GrammarConfig selects the grammar. An empty Dir means the builtin grammar.
type GrammarConfig struct {
	Dir   string `mapstructure:"dir"`
	Start string `mapstructure:"start"`
}

// InputsConfig selects the files the dir command classifies.
type InputsConfig struct {
	Patterns []string `mapstructure:"patterns"`
}

type ReportConfig struct {
	Width int    `mapstructure:"width"`
	Color string `mapstructure:"color"` // auto, always or never
}

// ResultsConfig names the SQLite database runs are recorded in.
// An empty Database disables recording.
type ResultsConfig struct {
	Database string `mapstructure:"database"`
}

const (
	DefaultPattern     = "**/*.rs"
	DefaultReportWidth = 80
	DefaultReportColor = ColorAuto
)

const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if len(c.Inputs.Patterns) == 0 {
		return errors.New("inputs.patterns: no patterns")
	}
	for _, pattern := range c.Inputs.Patterns {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("inputs.patterns: invalid pattern %q", pattern)
		}
	}
	if c.Report.Width < 1 {
		return fmt.Errorf("report.width: %d: must be positive", c.Report.Width)
	}
	switch c.Report.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("report.color: %q: want auto, always or never", c.Report.Color)
	}
	return nil
}
