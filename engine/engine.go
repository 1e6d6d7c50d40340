// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package engine implements a generalized parser that builds a shared
// packed parse forest from a grammar.
//
// The grammar is compiled into a table of forest kinds: a rule is an Alias
// of its body, a choice is a Choice, a sequence is a chain of binary Splits
// nested to the right, and a repetition is an Opt of a Split of the
// repeated expression and the repetition itself. The parser is a memoized
// top-down recognizer that records every alternative and every split point
// that derives a token range, so all derivations share one forest.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mdhender/forester"
	"github.com/mdhender/forester/forest"
	"github.com/mdhender/forester/grammar"
)

// Engine is a compiled grammar. It is safe for concurrent use; every
// parse builds its own forest over the shared kind table.
type Engine struct {
	grammar   *grammar.Grammar
	kinds     *forest.Kinds
	start     forest.Kind
	startName string
	rules     map[string]forest.Kind
	match     map[forest.Kind]*terminal
	choices   map[forest.Kind][]forest.Kind
	logger    *slog.Logger
}

// New compiles g. It fails if the start rule is missing or if any rule is
// left recursive.
func New(g *grammar.Grammar, options ...Option) (*Engine, error) {
	e := &Engine{
		grammar:   g,
		startName: g.Start,
		logger:    slog.Default(),
	}
	for _, option := range options {
		if err := option(e); err != nil {
			return nil, err
		}
	}

	started := time.Now()
	c := newCompiler(g)
	if err := c.compile(); err != nil {
		return nil, err
	}
	start, ok := c.rules[e.startName]
	if !ok {
		return nil, fmt.Errorf("grammar: start rule %q is not defined", e.startName)
	}
	if err := c.checkLeftRecursion(c.nullable()); err != nil {
		return nil, err
	}
	e.kinds, e.start, e.rules = c.kinds, start, c.rules
	e.match, e.choices = c.match, c.choices
	e.logger.Debug("engine: compiled", "rules", len(g.Rules), "kinds", c.kinds.Len(), "terminals", len(c.match), "start", e.startName, "elapsed", time.Since(started))
	return e, nil
}

func (e *Engine) Kinds() *forest.Kinds {
	return e.kinds
}

// Start returns the kind of the start rule.
func (e *Engine) Start() forest.Kind {
	return e.start
}

// Rule returns the kind compiled for a rule.
func (e *Engine) Rule(name string) (forest.Kind, bool) {
	k, ok := e.rules[name]
	return k, ok
}

func (e *Engine) Grammar() *grammar.Grammar {
	return e.grammar
}

// Tokenize runs the tokenizer with the engine's logger.
func (e *Engine) Tokenize(ctx context.Context, name string, input []byte) (*forester.TokenStream, error) {
	return forester.Tokenize(ctx, name, input, e.logger)
}

// Parse parses the whole token stream from the start rule.
//
// The longest match decides the outcome: a match of every token is a
// Success, a shorter match that consumes at least one token is TooShort,
// and anything else is NoParse. If ctx is canceled the outcome is NoParse
// and Err is set.
func (e *Engine) Parse(ctx context.Context, ts *forester.TokenStream) Result {
	started := time.Now()
	p := newParser(ctx, e, ts)
	ends := p.ends(e.start, 0)
	if p.err != nil {
		return Result{Outcome: NoParse, Err: p.err}
	}

	n, result := ts.Len(), Result{Outcome: NoParse}
	if len(ends) != 0 {
		longest := ends[len(ends)-1]
		handle := &Handle{
			Root:   forest.Node{Kind: e.start, Start: 0, End: longest},
			Forest: p.store,
			Stream: ts,
		}
		if longest == n {
			result = Result{Outcome: Success, Handle: handle}
		} else if longest > 0 {
			result = Result{Outcome: TooShort, Handle: handle}
		}
	}
	e.logger.Debug("engine: parse", "file", ts.Name, "tokens", n, "outcome", result.Outcome, "memo", len(p.memo), "elapsed", time.Since(started))
	return result
}
