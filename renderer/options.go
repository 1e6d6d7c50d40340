// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package renderer

import (
	"errors"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

type Option func(r *Renderer) error

// WithBorder draws the table border and row separators.
func WithBorder(flag bool) Option {
	return func(r *Renderer) error {
		r.border = flag
		return nil
	}
}

// WithNow sets the clock used for relative times.
func WithNow(now func() time.Time) Option {
	return func(r *Renderer) error {
		if now == nil {
			return errors.New("renderer: nil clock")
		}
		r.now = now
		return nil
	}
}

func WithStyle(style table.Style) Option {
	return func(r *Renderer) error {
		r.style = style
		return nil
	}
}
