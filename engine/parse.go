// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package engine

import (
	"context"
	"fmt"
	"slices"

	"github.com/mdhender/forester"
	"github.com/mdhender/forester/forest"
)

/*
Invariants:
 * ends(k, at) returns the sorted, distinct positions e such that k derives
   the tokens [at, e). It is computed at most once per (k, at).
 * Every node the parser records is derivable: a Choice alternative or a
   Split point is added only after the child nodes it implies were parsed.
 * An Opt node over an empty range has no child, so an empty match of the
   inner kind is never recorded under an Opt.
 * The grammar has no left recursion, so a (k, at) pair is never re-entered
   while it is being computed.
*/

type memoKey struct {
	kind forest.Kind
	at   int
}

type parser struct {
	ctx      context.Context
	e        *Engine
	ts       *forester.TokenStream
	texts    []string
	keywords []bool
	store    *forest.Store
	memo     map[memoKey][]int
	calls    int
	err      error
}

func newParser(ctx context.Context, e *Engine, ts *forester.TokenStream) *parser {
	p := &parser{
		ctx:      ctx,
		e:        e,
		ts:       ts,
		texts:    make([]string, ts.Len()),
		keywords: make([]bool, ts.Len()),
		store:    forest.NewStore(e.kinds),
		memo:     make(map[memoKey][]int),
	}
	for i := range ts.Tokens {
		p.texts[i] = ts.Text(i)
		p.keywords[i] = ts.Tokens[i].Kind == forester.IDENT && e.grammar.IsKeyword(p.texts[i])
	}
	return p
}

func (p *parser) text(i int) string {
	return p.texts[i]
}

func (p *parser) isKeyword(i int) bool {
	return p.keywords[i]
}

// checkEvery is how many calls to ends pass between checks of the context.
const checkEvery = 1 << 12

func (p *parser) ends(k forest.Kind, at int) []int {
	key := memoKey{kind: k, at: at}
	if ends, ok := p.memo[key]; ok {
		return ends
	}
	p.memo[key] = nil

	if p.calls++; p.calls%checkEvery == 0 && p.err == nil {
		p.err = p.ctx.Err()
	}
	if p.err != nil {
		return nil
	}

	var ends []int
	switch shape := p.e.kinds.Shape(k); shape.Tag {
	case forest.Opaque:
		if end := p.e.match[k].match(p, at); end >= 0 {
			ends = []int{end}
		}
	case forest.Alias:
		ends = p.ends(shape.Left, at)
	case forest.Opt:
		ends = append(ends, at)
		for _, e := range p.ends(shape.Left, at) {
			if e > at {
				ends = append(ends, e)
			}
		}
	case forest.Choice:
		for _, alt := range p.e.choices[k] {
			for _, e := range p.ends(alt, at) {
				p.store.AddChoice(forest.Node{Kind: k, Start: at, End: e}, alt)
				ends = append(ends, e)
			}
		}
	case forest.Split:
		for _, m := range p.ends(shape.Left, at) {
			for _, e := range p.ends(shape.Right, m) {
				p.store.AddSplit(forest.Node{Kind: k, Start: at, End: e}, m)
				ends = append(ends, e)
			}
		}
	default:
		panic(fmt.Sprintf("assert(shape is known): got %s", shape.Tag))
	}

	slices.Sort(ends)
	ends = slices.Compact(ends)
	p.memo[key] = ends
	return ends
}
