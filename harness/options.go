// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

type Option func(h *Harness) error

// WithFS sets the filesystem inputs are read from and graphviz dumps are
// written to.
func WithFS(fs afero.Fs) Option {
	return func(h *Harness) error {
		h.fs = fs
		return nil
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) error {
		if logger == nil {
			return errors.New("harness: nil logger")
		}
		h.logger = logger
		return nil
	}
}

// WithOutput sets the streams for compact output and the summary (stdout)
// and for full results (stderr).
func WithOutput(stdout, stderr io.Writer) Option {
	return func(h *Harness) error {
		h.stdout, h.stderr = stdout, stderr
		return nil
	}
}

// WithVerbose writes the full result of every file instead of a status
// character.
func WithVerbose(flag bool) Option {
	return func(h *Harness) error {
		h.verbose = flag
		return nil
	}
}

// WithWidth sets the number of status characters per line.
func WithWidth(width int) Option {
	return func(h *Harness) error {
		if width < 1 {
			return fmt.Errorf("harness: width %d: must be positive", width)
		}
		h.width = width
		return nil
	}
}

func WithColor(flag bool) Option {
	return func(h *Harness) error {
		h.color = flag
		return nil
	}
}

// WithPatterns replaces the glob patterns that select input files.
func WithPatterns(patterns ...string) Option {
	return func(h *Harness) error {
		if len(patterns) == 0 {
			return errors.New("harness: no input patterns")
		}
		for _, pattern := range patterns {
			if !doublestar.ValidatePattern(pattern) {
				return fmt.Errorf("harness: invalid pattern %q", pattern)
			}
		}
		h.patterns = patterns
		return nil
	}
}

// WithRecorder persists every run and file result.
func WithRecorder(recorder Recorder) Option {
	return func(h *Harness) error {
		h.recorder = recorder
		return nil
	}
}

// WithGrammarName sets the grammar name recorded with each run.
func WithGrammarName(name string) Option {
	return func(h *Harness) error {
		h.grammarName = name
		return nil
	}
}
