// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package engine

import (
	"errors"
	"log/slog"
)

type Option func(e *Engine) error

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			return errors.New("engine: nil logger")
		}
		e.logger = logger
		return nil
	}
}

// WithStart overrides the start rule named by the grammar.
func WithStart(rule string) Option {
	return func(e *Engine) error {
		e.startName = rule
		return nil
	}
}
