// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package forester

import (
	"context"
	"fmt"
	"log/slog"
	"unicode"
	"unicode/utf8"
)

// Lexer invariants and coordinate system
//
// The lexer treats input as an immutable UTF-8 byte slice.
//
// Fields:
//   input       - the original []byte
//   length      - len(input)
//
//   r           - the current rune, or EOF when we have read past the end.
//                 Line endings are normalized so that:
//                   * "\n"   (LF) stays "\n"
//                   * "\r\n" (CRLF) is seen as a single "\n" rune
//                   * stray "\r" is treated as a space-like rune by callers
//
//   posCurrRune - index into input of the first byte of r,
//                 or length when r == EOF.
//   posNextRune - index into input of the first byte of the *next* rune,
//                 or length when r == EOF.
//   anchorPos   - index into input where the current token starts.
//
// Invariants (must always hold):
//   0 <= posCurrRune <= posNextRune <= length
//
//   r == EOF  <=> posCurrRune == posNextRune == length
//
//   r != EOF  => posCurrRune < length && posNextRune > posCurrRune
//                and input[posCurrRune:posNextRune] encodes exactly r.
//
// Scanners that produce a token:
//   1. Check that the current rune is a valid start for that token.
//   2. Call setAnchor().
//   3. Repeatedly call advance() while r belongs to the token.
//      When the loop stops, r is the first rune after the token (or EOF).
//   4. Build the token with l.token(kind), which spans anchorPos..posCurrRune.
//
// Scan returns trivia (SPACE and COMMENT) as ordinary tokens. Folding
// trivia into the next token is the job of the token stream.
//
// Malformed input never stops the lexer. It records a diagnostic, returns
// the best token it can, and carries on from the next rune.

type Lexer struct {
	name        string // name of the input source
	r           rune   // current rune
	line        int    // line number of current rune
	column      int    // column number of current rune
	posCurrRune int    // position of current rune
	posNextRune int    // position of next rune
	length      int    // length of input buffer
	input       []byte

	anchorPos    int
	anchorLine   int
	anchorColumn int

	// canonical end of input token
	endToken *Token

	diagnostics []Diagnostic

	// logging
	ctx        context.Context
	logger     *slog.Logger
	tokenCount int
}

func NewLexer(ctx context.Context, path string, input []byte, logger *slog.Logger) *Lexer {
	l := &Lexer{
		name:   path,
		input:  input,
		length: len(input),
		line:   1,
		column: 0,
		ctx:    ctx,
		logger: logger,
	}
	// read the first character to initialize the lexer.
	l.advance()
	return l
}

// Diagnostics returns the problems found so far.
func (l *Lexer) Diagnostics() []Diagnostic {
	return l.diagnostics
}

// Scan returns the next token from the input buffer.
//
// Once we reach end of input, we always return the same EOF token.
func (l *Lexer) Scan() *Token {
	if l.iseof() {
		l.seteof()
		return l.endToken
	}
	l.tokenCount++
	l.setAnchor()

	ch, next := l.peekChar(), l.peekCharN(1)
	switch {
	case unicode.IsSpace(ch):
		for unicode.IsSpace(l.peekChar()) {
			l.advance()
		}
		return l.token(SPACE)
	case ch == '/' && next == '/':
		for !l.iseof() && l.peekChar() != LF {
			l.advance()
		}
		return l.token(COMMENT)
	case ch == '/' && next == '*':
		return l.scanBlockComment()
	case ch == 'r' && next == '#' && isIdentStart(l.peekCharN(2)):
		// raw identifier
		l.advance()
		l.advance()
		return l.scanIdent()
	case ch == 'r' && (next == '"' || next == '#'):
		return l.scanRawString()
	case ch == 'b' && next == 'r' && (l.peekCharN(2) == '"' || l.peekCharN(2) == '#'):
		l.advance()
		return l.scanRawString()
	case ch == 'b' && next == '"':
		l.advance()
		return l.scanQuoted('"', STRING, true)
	case ch == 'b' && next == '\'':
		l.advance()
		return l.scanQuoted('\'', CHAR, false)
	case isIdentStart(ch):
		return l.scanIdent()
	case isDigit(ch, 10):
		return l.scanNumber()
	case ch == '"':
		return l.scanQuoted('"', STRING, true)
	case ch == '\'':
		return l.scanQuote()
	case ch == '(' || ch == '[' || ch == '{':
		l.advance()
		return l.token(OPEN)
	case ch == ')' || ch == ']' || ch == '}':
		l.advance()
		return l.token(CLOSE)
	case IsPunct(ch):
		l.advance()
		tok := l.token(PUNCT)
		tok.Joint = IsPunct(l.peekChar())
		return tok
	}

	// accept the next character as an unknown token.
	l.advance()
	l.errorf("unexpected character %q", ch)
	return l.token(UNKNOWN)
}

func (l *Lexer) scanIdent() *Token {
	for isIdentContinue(l.peekChar()) {
		l.advance()
	}
	return l.token(IDENT)
}

// scanBlockComment accepts a block comment. Block comments nest.
func (l *Lexer) scanBlockComment() *Token {
	depth := 0
	for !l.iseof() {
		if l.peekChar() == '/' && l.peekCharN(1) == '*' {
			l.advance()
			l.advance()
			depth++
		} else if l.peekChar() == '*' && l.peekCharN(1) == '/' {
			l.advance()
			l.advance()
			depth--
			if depth == 0 {
				return l.token(COMMENT)
			}
		} else {
			l.advance()
		}
	}
	l.errorf("unterminated block comment")
	return l.token(COMMENT)
}

// scanQuoted accepts a quoted literal with backslash escapes. The current
// rune must be the opening quote.
func (l *Lexer) scanQuoted(quote rune, kind Kind, multiline bool) *Token {
	l.advance()
	for {
		switch l.peekChar() {
		case EOF:
			l.errorf("unterminated %s literal", literalName(kind))
			return l.token(kind)
		case LF:
			if !multiline {
				l.errorf("unterminated %s literal", literalName(kind))
				return l.token(kind)
			}
		case '\\':
			l.advance()
		case quote:
			l.advance()
			return l.token(kind)
		}
		l.advance()
	}
}

// scanRawString accepts r"..." and r#"..."# with any number of hashes.
// The current rune must be the 'r'.
func (l *Lexer) scanRawString() *Token {
	l.advance()
	hashes := 0
	for l.peekChar() == '#' {
		hashes++
		l.advance()
	}
	if l.peekChar() != '"' {
		l.errorf("expected '\"' in raw string literal")
		return l.token(STRING)
	}
	l.advance()
	for !l.iseof() {
		if l.peekChar() != '"' {
			l.advance()
			continue
		}
		l.advance()
		n := 0
		for n < hashes && l.peekChar() == '#' {
			n++
			l.advance()
		}
		if n == hashes {
			return l.token(STRING)
		}
	}
	l.errorf("unterminated raw string literal")
	return l.token(STRING)
}

// scanQuote accepts a character literal or a lifetime.
func (l *Lexer) scanQuote() *Token {
	next := l.peekCharN(1)
	if next == '\\' || (next != EOF && next != LF && l.peekCharN(2) == '\'') {
		return l.scanQuoted('\'', CHAR, false)
	}
	if isIdentStart(next) {
		l.advance()
		for isIdentContinue(l.peekChar()) {
			l.advance()
		}
		return l.token(LIFETIME)
	}
	return l.scanQuoted('\'', CHAR, false)
}

// scanNumber accepts an integer or float literal with an optional suffix.
// "1..2" is an integer followed by a range operator, and "1.foo()" is a
// method call on an integer.
func (l *Lexer) scanNumber() *Token {
	base := 10
	if l.peekChar() == '0' {
		switch l.peekCharN(1) {
		case 'x':
			base = 16
		case 'o':
			base = 8
		case 'b':
			base = 2
		}
		if base != 10 {
			l.advance()
			l.advance()
		}
	}
	for isDigit(l.peekChar(), base) || l.peekChar() == '_' {
		l.advance()
	}

	kind := INTEGER
	if base == 10 {
		if next := l.peekCharN(1); l.peekChar() == '.' && next != '.' && !isIdentStart(next) {
			kind = FLOAT
			l.advance()
			for isDigit(l.peekChar(), 10) || l.peekChar() == '_' {
				l.advance()
			}
		}
		if ch := l.peekChar(); ch == 'e' || ch == 'E' {
			next, after := l.peekCharN(1), l.peekCharN(2)
			if isDigit(next, 10) || ((next == '+' || next == '-') && isDigit(after, 10)) {
				kind = FLOAT
				l.advance()
				l.advance()
				for isDigit(l.peekChar(), 10) || l.peekChar() == '_' {
					l.advance()
				}
			}
		}
	}

	if isIdentStart(l.peekChar()) {
		start := l.posCurrRune
		for isIdentContinue(l.peekChar()) {
			l.advance()
		}
		if suffix := string(l.input[start:l.posCurrRune]); base == 10 && (suffix == "f32" || suffix == "f64") {
			kind = FLOAT
		}
	}
	return l.token(kind)
}

// token returns a token of the given kind spanning the anchor to the
// current rune.
func (l *Lexer) token(kind Kind) *Token {
	return &Token{
		Position: Position{
			Line:   l.anchorLine,
			Column: l.anchorColumn,
			Start:  l.anchorPos,
		},
		End:  l.posCurrRune,
		Kind: kind,
	}
}

// peekChar returns the current character without advancing the input.
func (l *Lexer) peekChar() rune {
	return l.r
}

// peekCharN returns the nth character without advancing the input.
// peekCharN(0) is the same as peekChar().
func (l *Lexer) peekCharN(numberOfChars int) rune {
	if numberOfChars < 0 {
		panic("assert(numberOfChars >= 0)")
	}
	ch := l.r

	posPeekRune := l.posNextRune
	for numberOfChars > 0 && posPeekRune < l.length {
		r, w := rune(l.input[posPeekRune]), 1
		if r == CR && posPeekRune+1 < l.length && rune(l.input[posPeekRune+1]) == LF {
			ch, w = LF, 2
		} else if r >= utf8.RuneSelf {
			// The current rune is not actually ASCII, so we have to decode it properly.
			ch, w = utf8.DecodeRune(l.input[posPeekRune:])
		} else {
			ch = r
		}
		posPeekRune += w
		numberOfChars--
	}

	if numberOfChars > 0 {
		// we reached end of input before peeking the requested number of characters
		ch = EOF
	}

	return ch
}

// setAnchor marks the start of the current token.
func (l *Lexer) setAnchor() {
	l.anchorPos = l.posCurrRune
	l.anchorLine = l.line
	l.anchorColumn = l.column
}

// advance moves to the next rune and updates line/col.
// It normalizes "\r\n" into a single LF rune.
// On end of input, it sets r == EOF and both positions to length and returns.
func (l *Lexer) advance() {
	// update line/col wrt the *current* rune before stepping
	if l.r == LF {
		l.line++
		l.column = 1
	} else if l.r != EOF {
		l.column++
	}

	// already at or past the end?
	if l.posNextRune >= l.length {
		l.posCurrRune, l.posNextRune = l.length, l.length
		l.r = EOF
		return
	}

	l.posCurrRune = l.posNextRune

	// read the next rune, optimizing for ASCII input.
	r, w := rune(l.input[l.posCurrRune]), 1
	if r == CR && l.posCurrRune+1 < l.length && rune(l.input[l.posCurrRune+1]) == LF {
		// merge CR+LF into a single LF rune, but consume both bytes
		r, w = LF, 2
	} else if r >= utf8.RuneSelf {
		// the current rune must be decoded
		r, w = utf8.DecodeRune(l.input[l.posCurrRune:])
	}
	l.posNextRune = l.posCurrRune + w
	l.r = r
}

func (l *Lexer) iseof() bool {
	return l.r == EOF
}

// errorf records a diagnostic for the text from the anchor to the
// current rune.
func (l *Lexer) errorf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.diagnostics = append(l.diagnostics, Diagnostic{
		Severity: slog.LevelError,
		Message:  msg,
		Span: Span{
			Start:  l.anchorPos,
			End:    l.posCurrRune,
			Line:   l.anchorLine,
			Column: l.anchorColumn,
		},
	})
	l.debug("%s", msg)
}

func (l *Lexer) debug(format string, args ...any) {
	if l.logger == nil {
		return
	}
	l.logger.Debug(fmt.Sprintf("%s:%d:%d %s", l.name, l.anchorLine, l.anchorColumn, fmt.Sprintf(format, args...)))
}

// seteof updates the Lexer state to enforce the end of input invariants:
// * r is EOF
// * posCurrRune = posNextRune = length
// * endToken is set to the canonical EOF token
func (l *Lexer) seteof() {
	l.r = EOF
	l.posCurrRune = l.length
	l.posNextRune = l.length
	if l.endToken == nil {
		l.endToken = &Token{
			Position: Position{
				Line:   l.line,
				Column: l.column,
				Start:  l.length,
			},
			End:  l.length,
			Kind: EndOfInput,
		}
	}
}

func literalName(kind Kind) string {
	if kind == CHAR {
		return "character"
	}
	return "string"
}
