// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package harness

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// progress writes one status character per file, wrapping lines at width.
type progress struct {
	w      io.Writer
	width  int
	column int
	colors map[Category]*color.Color
}

func newProgress(w io.Writer, width int, colored bool) *progress {
	p := &progress{
		w:     w,
		width: width,
		colors: map[Category]*color.Color{
			Unambiguous: color.New(color.FgGreen),
			Ambiguous:   color.New(color.FgYellow, color.Bold),
			Partial:     color.New(color.FgCyan),
			Failed:      color.New(color.FgRed, color.Bold),
		},
	}
	for _, c := range p.colors {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *progress) put(category Category) error {
	if _, err := p.colors[category].Fprint(p.w, string(category.Status())); err != nil {
		return err
	}
	if p.column++; p.column == p.width {
		p.column = 0
		_, err := fmt.Fprintln(p.w)
		return err
	}
	return nil
}

// finish ends a partly filled line.
func (p *progress) finish() error {
	if p.column == 0 {
		return nil
	}
	p.column = 0
	_, err := fmt.Fprintln(p.w)
	return err
}

// WriteSummary writes the totals of a run.
func WriteSummary(w io.Writer, counts Counts) error {
	_, err := fmt.Fprintf(w, "Out of %d files tested:\n"+
		"* %d parsed fully and unambiguously\n"+
		"* %d parsed fully (but ambiguously)\n"+
		"* %d parsed partially (only a prefix)\n"+
		"* %d didn't parse at all\n",
		counts.Total, counts.Unambiguous, counts.Ambiguous, counts.Partial, counts.Failed)
	return err
}
