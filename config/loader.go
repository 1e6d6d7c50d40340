// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package config

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".forester"

const configType = "yaml"

// Load reads the configuration from fs. If configPath is not empty, that
// file must exist. Otherwise the config file is searched for in each of
// searchPaths, and a missing file is not an error; defaults are used.
func Load(fs afero.Fs, configPath string, searchPaths ...string) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)
	applyDefaults(v)
	v.SetConfigType(configType)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(configName)
		for _, path := range searchPaths {
			v.AddConfigPath(path)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("grammar.dir", "")
	v.SetDefault("grammar.start", "")
	v.SetDefault("inputs.patterns", []string{DefaultPattern})
	v.SetDefault("report.width", DefaultReportWidth)
	v.SetDefault("report.color", DefaultReportColor)
	v.SetDefault("results.database", "")
}
