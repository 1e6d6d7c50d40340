// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package engine

import (
	"fmt"
	"strings"

	"github.com/mdhender/forester"
)

type matchOp int

const (
	matchEmpty matchOp = iota // [] matches no tokens
	matchClass                // a token class
	matchWord                 // an identifier or keyword with this text
	matchPunct                // one or more joint punctuation tokens
	matchDelim                // a delimiter token
	matchAlone                // a punctuation token that isn't part of a longer operator
)

// classes maps a grammar token class to the token kind it matches.
// IDENT and KEYWORD both match IDENT tokens and are told apart by the
// keyword list.
var classes = map[string]forester.Kind{
	"IDENT":    forester.IDENT,
	"KEYWORD":  forester.IDENT,
	"LIFETIME": forester.LIFETIME,
	"INTEGER":  forester.INTEGER,
	"FLOAT":    forester.FLOAT,
	"STRING":   forester.STRING,
	"CHAR":     forester.CHAR,
	"PUNCT":    forester.PUNCT,
}

type terminal struct {
	op    matchOp
	text  string
	class forester.Kind
}

func (t *terminal) String() string {
	switch t.op {
	case matchEmpty:
		return "[]"
	case matchClass:
		return t.text
	case matchAlone:
		return fmt.Sprintf("alone %q", t.text)
	}
	return fmt.Sprintf("%q", t.text)
}

// match returns the end of the terminal when it starts at token at,
// or -1 if it doesn't match there.
func (t *terminal) match(p *parser, at int) int {
	if t.op == matchEmpty {
		return at
	}
	toks := p.ts.Tokens
	if at >= len(toks) {
		return -1
	}
	tok := toks[at]
	switch t.op {
	case matchClass:
		if tok.Kind != t.class {
			return -1
		}
		if t.class == forester.IDENT && (t.text == "KEYWORD") != p.isKeyword(at) {
			return -1
		}
		return at + 1
	case matchWord:
		if tok.Kind == forester.IDENT && p.text(at) == t.text {
			return at + 1
		}
	case matchDelim:
		if tok.IsOneOf(forester.OPEN, forester.CLOSE) && p.text(at) == t.text {
			return at + 1
		}
	case matchAlone:
		if tok.Kind != forester.PUNCT || p.text(at) != t.text {
			return -1
		}
		if tok.Joint && at+1 < len(toks) && startsOperator(t.text+p.text(at+1)) {
			return -1
		}
		return at + 1
	case matchPunct:
		return t.matchPunct(p, at)
	}
	return -1
}

// matchPunct matches a run of punctuation tokens spelling the literal.
// A single character matches whether or not it is joint, so that the
// ">>" closing two generic argument lists can be read as two ">".
// A longer literal must be joint up to its last character, and may not
// be followed by a character that would make a longer operator: ".."
// doesn't match the start of "..=".
func (t *terminal) matchPunct(p *parser, at int) int {
	toks := p.ts.Tokens
	end := at + len(t.text)
	if end > len(toks) {
		return -1
	}
	for i := at; i < end; i++ {
		if toks[i].Kind != forester.PUNCT || p.text(i) != t.text[i-at:i-at+1] {
			return -1
		} else if i < end-1 && !toks[i].Joint {
			return -1
		}
	}
	if len(t.text) > 1 && toks[end-1].Joint && end < len(toks) && startsOperator(t.text+p.text(end)) {
		return -1
	}
	return end
}

// startsOperator reports whether text is an operator or the start of one.
func startsOperator(text string) bool {
	for _, op := range forester.Operators {
		if strings.HasPrefix(op, text) {
			return true
		}
	}
	return false
}
