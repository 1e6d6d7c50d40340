// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package forester

import (
	"context"
	"fmt"
	"log/slog"
)

/*
Invariants:
 * Only the tokenizer's scan() calls the lexer. Everything else uses peek() and advance().
 * currToken is the lookahead. After newTokenizer it is never nil, and once
   EOF has been produced peek() and advance() keep returning the same EOF token.
 * SPACE and COMMENT tokens are never returned from peek() or advance().
   They are collected, in order, into the LeadingTrivia of the next
   non-trivia token. EOF is a real token and may carry trivia too.
 * LeadingTrivia is a flat slice; no token in it has trivia of its own.
*/

// TokenStream is the result of tokenizing one input.
// Tokens never contains trivia or the end of input token.
type TokenStream struct {
	Name   string
	Input  []byte
	Tokens []*Token
	EOF    *Token
}

func (ts *TokenStream) Len() int {
	return len(ts.Tokens)
}

// Text returns the source text of token i.
func (ts *TokenStream) Text(i int) string {
	return string(ts.Tokens[i].Lexeme(ts.Input))
}

// Source returns the source text covered by tokens [start, end),
// without the leading trivia of the first token.
func (ts *TokenStream) Source(start, end int) string {
	if start >= end || start >= len(ts.Tokens) {
		return ""
	}
	return string(spanFromTokenSlice(ts.Tokens[start:end]).Text(ts.Input))
}

// Span returns the span of the tokens [start, end). An empty range is
// reported as a zero-width span at the start of token start.
func (ts *TokenStream) Span(start, end int) Span {
	if start >= len(ts.Tokens) {
		return spanFromToken(ts.EOF)
	}
	if start >= end {
		span := spanFromToken(ts.Tokens[start])
		span.End = span.Start
		return span
	}
	return spanFromTokenSlice(ts.Tokens[start:end])
}

// Tokenize scans the input into a token stream. It fails with a
// *TokenizeError if the input contains characters that are not part of
// any token, unterminated literals or comments, or unbalanced delimiters.
func Tokenize(ctx context.Context, name string, input []byte, logger *slog.Logger) (*TokenStream, error) {
	if logger == nil {
		logger = slog.Default()
	}
	t := newTokenizer(ctx, NewLexer(ctx, name, input, logger), logger)
	ts := &TokenStream{Name: name, Input: input}

	var diagnostics []Diagnostic
	var open []*Token
	for !t.isAtEnd() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tok := t.advance()
		switch tok.Kind {
		case OPEN:
			open = append(open, tok)
		case CLOSE:
			closer := tok.Lexeme(input)[0]
			if len(open) == 0 {
				diagnostics = append(diagnostics, Diagnostic{
					Severity: slog.LevelError,
					Message:  fmt.Sprintf("unexpected closing delimiter %q", closer),
					Span:     spanFromToken(tok),
				})
				break
			}
			opener := open[len(open)-1]
			open = open[:len(open)-1]
			if want := closing(opener.Lexeme(input)[0]); closer != want {
				diagnostics = append(diagnostics, Diagnostic{
					Severity: slog.LevelError,
					Message:  fmt.Sprintf("mismatched closing delimiter: expected %q, found %q", want, closer),
					Span:     spanFromToken(tok),
					Notes:    []string{fmt.Sprintf("unclosed delimiter opened at %d:%d", opener.Line, opener.Column)},
				})
			}
		}
		ts.Tokens = append(ts.Tokens, tok)
	}
	ts.EOF = t.peek()
	for _, opener := range open {
		diagnostics = append(diagnostics, Diagnostic{
			Severity: slog.LevelError,
			Message:  fmt.Sprintf("unclosed delimiter %q", opener.Lexeme(input)[0]),
			Span:     spanFromToken(opener),
		})
	}

	// lexical problems come before structural ones
	diagnostics = append(t.lexer.Diagnostics(), diagnostics...)
	if len(diagnostics) != 0 {
		return nil, &TokenizeError{Name: name, Input: input, Diagnostics: diagnostics}
	}
	logger.Debug("tokenize", "file", name, "tokens", len(ts.Tokens))
	return ts, nil
}

func closing(opener byte) byte {
	switch opener {
	case '(':
		return ')'
	case '[':
		return ']'
	}
	return '}'
}

type tokenizer struct {
	ctx       context.Context
	logger    *slog.Logger
	lexer     *Lexer
	currToken *Token // current lookahead
	eofToken  *Token // canonical EOF token
}

func newTokenizer(ctx context.Context, lexer *Lexer, logger *slog.Logger) *tokenizer {
	t := &tokenizer{
		ctx:    ctx,
		logger: logger,
		lexer:  lexer,
	}
	// Prime the cursor with the first token.
	t.currToken = t.scan()
	return t
}

// scan returns the next non-trivia token with the trivia before it folded
// into its LeadingTrivia.
//
// NB: this should be the only tokenizer function that communicates with the lexer!
func (t *tokenizer) scan() *Token {
	if t.eofToken != nil {
		return t.eofToken
	}
	var trivia []*Token
	for {
		tok := t.lexer.Scan()
		if tok == nil {
			panic("assert(scan.token != nil)")
		}
		if tok.Kind.IsTrivia() {
			trivia = append(trivia, tok)
			continue
		}
		tok.LeadingTrivia = append(tok.LeadingTrivia, trivia...)
		if tok.Kind == EndOfInput {
			t.eofToken = tok
		}
		return tok
	}
}

// peek returns the current lookahead token without consuming it.
func (t *tokenizer) peek() *Token {
	return t.currToken
}

// advance consumes and returns the current token, then updates the lookahead.
// EOF is returned repeatedly but the cursor doesn't move past it.
func (t *tokenizer) advance() *Token {
	if t.currToken == nil {
		panic("assert(tokenizer.currToken != nil)")
	}
	tok := t.currToken
	if tok.Kind == EndOfInput {
		return tok
	}
	t.currToken = t.scan()
	return tok
}

func (t *tokenizer) isAtEnd() bool {
	return t.currToken != nil && t.currToken.Kind == EndOfInput
}
