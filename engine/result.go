// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package engine

import (
	"fmt"
	"io"

	"github.com/mdhender/forester"
	"github.com/mdhender/forester/forest"
)

// Outcome is the top-level result of a parse.
type Outcome int

const (
	Success  Outcome = iota // the start rule matched every token
	TooShort                // the start rule matched only a prefix
	NoParse
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "Success"
	case TooShort:
		return "TooShort"
	case NoParse:
		return "NoParse"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Handle bundles the root of a parse with the forest it lives in.
type Handle struct {
	Root   forest.Node
	Forest *forest.Store
	Stream *forester.TokenStream
}

// Label returns the source text of the tokens a node covers.
func (h *Handle) Label(n forest.Node) string {
	return h.Stream.Source(n.Start, n.End)
}

// Result is what Parse returns. Handle is nil for NoParse.
type Result struct {
	Outcome Outcome
	Handle  *Handle
	Err     error
}

// Format writes the outcome and, when there is a forest, every
// derivation reachable from the root.
func (r Result) Format(w io.Writer) error {
	if r.Err != nil {
		_, err := fmt.Fprintf(w, "%s: %v\n", r.Outcome, r.Err)
		return err
	} else if r.Handle == nil {
		_, err := fmt.Fprintf(w, "%s\n", r.Outcome)
		return err
	}
	h := r.Handle
	if _, err := fmt.Fprintf(w, "%s: %s (%d of %d tokens)\n", r.Outcome, h.Forest.Format(h.Root), h.Root.End, h.Stream.Len()); err != nil {
		return err
	}
	if r.Outcome == TooShort {
		rest := h.Stream.Span(h.Root.End, h.Stream.Len())
		if _, err := fmt.Fprintf(w, "unparsed input at %s:%d:%d\n", h.Stream.Name, rest.Line, rest.Column); err != nil {
			return err
		}
	}
	return forest.WriteTree(w, h.Forest, h.Root, h.Label)
}
