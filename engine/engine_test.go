// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package engine_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/mdhender/forester/ambiguity"
	"github.com/mdhender/forester/engine"
	"github.com/mdhender/forester/forest"
	"github.com/mdhender/forester/grammar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statements = `
start: File
keywords: [let]
rules:
  File: {rep: Stmt}
  Stmt: [let, IDENT, "=", Expr, ";"]
  Expr: [Term, {rep: ["+", Term]}]
  Term: {any: [INTEGER, IDENT]}
`

// Word is either one identifier or two, so "a b" has two derivations.
const ambiguous = `
start: File
rules:
  File: {rep1: Word}
  Word: {any: [IDENT, [IDENT, IDENT]]}
`

func compile(t *testing.T, src string, options ...engine.Option) *engine.Engine {
	t.Helper()
	g, err := grammar.Parse("test.yaml", []byte(src))
	require.NoError(t, err)
	require.NoError(t, g.Check())
	e, err := engine.New(g, options...)
	require.NoError(t, err)
	return e
}

func parse(t *testing.T, e *engine.Engine, input string) engine.Result {
	t.Helper()
	ctx := context.Background()
	ts, err := e.Tokenize(ctx, "test.rs", []byte(input))
	require.NoError(t, err)
	result := e.Parse(ctx, ts)
	require.NoError(t, result.Err)
	return result
}

func TestParse_Success(t *testing.T) {
	e := compile(t, statements)
	result := parse(t, e, "let x = 1 + y; let z = x;")
	require.Equal(t, engine.Success, result.Outcome)
	require.NotNil(t, result.Handle)
	assert.Equal(t, forest.Node{Kind: e.Start(), Start: 0, End: 12}, result.Handle.Root)
	assert.NoError(t, ambiguity.Check(result.Handle.Forest, result.Handle.Root))
}

func TestParse_Ambiguous(t *testing.T) {
	e := compile(t, ambiguous)
	result := parse(t, e, "a b")
	require.Equal(t, engine.Success, result.Outcome)
	err := ambiguity.Check(result.Handle.Forest, result.Handle.Root)
	require.ErrorIs(t, err, forest.ErrMoreThanOne)

	var ambiguous *ambiguity.Error
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, forest.Split, ambiguous.Tag)
	assert.Len(t, result.Handle.Forest.Splits(ambiguous.Node), 2)
}

func TestParse_TooShort(t *testing.T) {
	e := compile(t, statements)
	result := parse(t, e, "let x = 1; let")
	require.Equal(t, engine.TooShort, result.Outcome)
	require.NotNil(t, result.Handle)
	assert.Equal(t, 5, result.Handle.Root.End)
	assert.Equal(t, 6, result.Handle.Stream.Len())
}

func TestParse_NoParse(t *testing.T) {
	e := compile(t, statements)

	// File matches the empty prefix, which doesn't count
	result := parse(t, e, "1 + 2")
	assert.Equal(t, engine.NoParse, result.Outcome)
	assert.Nil(t, result.Handle)

	e = compile(t, ambiguous)
	result = parse(t, e, "1")
	assert.Equal(t, engine.NoParse, result.Outcome)
}

func TestParse_EmptyInput(t *testing.T) {
	e := compile(t, statements)
	result := parse(t, e, "  // nothing here\n")
	require.Equal(t, engine.Success, result.Outcome)
	assert.Equal(t, forest.Node{Kind: e.Start(), Start: 0, End: 0}, result.Handle.Root)
	assert.NoError(t, ambiguity.Check(result.Handle.Forest, result.Handle.Root))

	e = compile(t, ambiguous)
	assert.Equal(t, engine.NoParse, parse(t, e, "").Outcome)
}

func TestParse_Canceled(t *testing.T) {
	e := compile(t, statements)
	ts, err := e.Tokenize(context.Background(), "test.rs", bytes.Repeat([]byte("let x = 1 + 2 + 3;\n"), 2000))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := e.Parse(ctx, ts)
	assert.Equal(t, engine.NoParse, result.Outcome)
	assert.ErrorIs(t, result.Err, context.Canceled)
}

func TestParse_Punctuation(t *testing.T) {
	for _, tc := range []struct {
		name    string
		grammar string
		input   string
		want    engine.Outcome
	}{
		{
			name:    "range does not match the start of inclusive range",
			grammar: "start: R\nrules:\n  R: [IDENT, {any: [\"..\", \"..=\"]}, IDENT]\n",
			input:   "a..=b",
			want:    engine.Success,
		},
		{
			name:    "multi-character literal must be joint",
			grammar: "start: R\nrules:\n  R: [IDENT, \"..\", IDENT]\n",
			input:   "a. .b",
			want:    engine.NoParse,
		},
		{
			name:    "single character ignores joint",
			grammar: "start: T\nrules:\n  T: [IDENT, {opt: [\"<\", T, \">\"]}]\n",
			input:   "A<B<C>>",
			want:    engine.Success,
		},
		{
			name:    "alone refuses the start of an operator",
			grammar: "start: E\nrules:\n  E: [IDENT, {alone: \"&\"}, IDENT]\n",
			input:   "a && b",
			want:    engine.NoParse,
		},
		{
			name:    "alone accepts a character that starts no operator",
			grammar: "start: E\nrules:\n  E: [IDENT, {alone: \"=\"}, \"-\", INTEGER]\n",
			input:   "a =-1",
			want:    engine.Success,
		},
		{
			name:    "delimiters",
			grammar: "start: P\nrules:\n  P: [\"(\", {opt: P}, \")\"]\n",
			input:   "((()))",
			want:    engine.Success,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			e := compile(t, tc.grammar)
			result := parse(t, e, tc.input)
			require.Equal(t, tc.want, result.Outcome)
			if result.Handle != nil {
				assert.NoError(t, ambiguity.Check(result.Handle.Forest, result.Handle.Root))
			}
		})
	}
}

func TestParse_AloneDisambiguates(t *testing.T) {
	const src = `
start: E
rules:
  E: [IDENT, {any: [[%s, "&", IDENT], ["&&", IDENT]]}]
`
	// "&" followed by "&" is read both as "&&" and as "&" "&"
	e := compile(t, fmt.Sprintf(src, `"&"`))
	result := parse(t, e, "a && b")
	require.Equal(t, engine.Success, result.Outcome)
	assert.ErrorIs(t, ambiguity.Check(result.Handle.Forest, result.Handle.Root), forest.ErrMoreThanOne)

	e = compile(t, fmt.Sprintf(src, `{alone: "&"}`))
	result = parse(t, e, "a && b")
	require.Equal(t, engine.Success, result.Outcome)
	assert.NoError(t, ambiguity.Check(result.Handle.Forest, result.Handle.Root))
}

func TestParse_Keywords(t *testing.T) {
	e := compile(t, "start: F\nkeywords: [fn]\nrules:\n  F: [fn, IDENT]\n")
	assert.Equal(t, engine.NoParse, parse(t, e, "fn fn").Outcome)
	assert.Equal(t, engine.Success, parse(t, e, "fn r#fn").Outcome)
	assert.Equal(t, engine.Success, parse(t, e, "fn main").Outcome)

	e = compile(t, "start: F\nkeywords: [fn]\nrules:\n  F: {rep: KEYWORD}\n")
	assert.Equal(t, engine.Success, parse(t, e, "fn fn").Outcome)
	assert.Equal(t, engine.NoParse, parse(t, e, "main").Outcome)
}

func TestNew_LeftRecursion(t *testing.T) {
	for _, tc := range []struct {
		name    string
		grammar string
		want    string
	}{
		{
			name:    "direct",
			grammar: "start: E\nrules:\n  E: {any: [[E, \"+\", INTEGER], INTEGER]}\n",
			want:    "left recursion through E",
		},
		{
			name:    "through a nullable prefix",
			grammar: "start: A\nrules:\n  A: [{opt: \"-\"}, B]\n  B: {any: [[A, \"+\"], INTEGER]}\n",
			want:    "left recursion through A",
		},
		{
			name:    "repetition of something that matches nothing",
			grammar: "start: L\nrules:\n  L: {rep: {opt: IDENT}}\n",
			want:    "rule L: line 3: repeated expression can match nothing",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			g, err := grammar.Parse("test.yaml", []byte(tc.grammar))
			require.NoError(t, err)
			_, err = engine.New(g)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestNew_WithStart(t *testing.T) {
	e := compile(t, statements, engine.WithStart("Expr"))
	assert.Equal(t, engine.Success, parse(t, e, "1 + x + 2").Outcome)

	g, err := grammar.Parse("test.yaml", []byte(statements))
	require.NoError(t, err)
	_, err = engine.New(g, engine.WithStart("Missing"))
	assert.ErrorContains(t, err, `start rule "Missing" is not defined`)
}

func TestResult_Format(t *testing.T) {
	e := compile(t, statements)

	var buf bytes.Buffer
	require.NoError(t, parse(t, e, "let x = 1;").Format(&buf))
	out := buf.String()
	assert.Contains(t, out, "Success: File @ 0..5 (5 of 5 tokens)\n")
	assert.Contains(t, out, `IDENT @ 1..2 "x"`)

	buf.Reset()
	require.NoError(t, parse(t, e, "let x = 1; let").Format(&buf))
	assert.Contains(t, buf.String(), "TooShort: File @ 0..5 (5 of 6 tokens)\nunparsed input at test.rs:1:12\n")

	buf.Reset()
	require.NoError(t, parse(t, e, "x").Format(&buf))
	assert.Equal(t, "NoParse\n", buf.String())
}
