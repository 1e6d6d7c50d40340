// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package forester

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// Diagnostic represents a tokenizer error or warning
// with a span in the original source.
type Diagnostic struct {
	Severity slog.Level // Error, Warning, Info
	Message  string     // "unterminated string literal"
	Span     Span       // where in the file it occurred
	Notes    []string   // optional additional help messages
}

// TokenizeError is returned when an input can't be tokenized.
type TokenizeError struct {
	Name        string
	Input       []byte
	Diagnostics []Diagnostic
}

func (e *TokenizeError) Error() string {
	if len(e.Diagnostics) == 0 {
		return fmt.Sprintf("%s: tokenize failed", e.Name)
	}
	d := e.Diagnostics[0]
	msg := fmt.Sprintf("%s:%d:%d: %s", e.Name, d.Span.Line, d.Span.Column, d.Message)
	if n := len(e.Diagnostics) - 1; n > 0 {
		msg += fmt.Sprintf(" (and %d more)", n)
	}
	return msg
}

// Print writes every diagnostic with its source line.
func (e *TokenizeError) Print(w io.Writer) {
	for _, diag := range e.Diagnostics {
		PrintDiagnostic(w, diag, e.Name, e.Input)
	}
}

// PrintDiagnostic writes the diagnostic header, the source line containing
// the start of the span and a caret under the start. Multi-line spans are
// shown by their first line only.
func PrintDiagnostic(w io.Writer, diag Diagnostic, filename string, src []byte) {
	// Header: file:line:column: error: message
	span := diag.Span
	_, _ = fmt.Fprintf(w, "%s:%d:%d: %s: %s\n",
		filename, span.Line, span.Column,
		strings.ToLower(diag.Severity.String()), diag.Message)

	line := findLine(src, span.Start)
	_, _ = fmt.Fprintf(w, "    %s\n", line)

	// caret underline
	_, _ = fmt.Fprintf(w, "    %s^\n", caretIndent(span.Column, line))

	// Notes
	for _, note := range diag.Notes {
		_, _ = fmt.Fprintf(w, "    note: %s\n", note)
	}
}

// findLine returns the line containing the start byte.
// It searches backwards from start to find the start of the line,
// then forward until it finds a new-line or the end of input.
// The returned line does not include the new-line or a trailing
// carriage return. If there is no line, returns an empty slice.
func findLine(src []byte, start int) []byte {
	if start > len(src) {
		return []byte{}
	}

	lineStart := 0
	for i := start - 1; i >= 0; i-- {
		if src[i] == '\n' {
			lineStart = i + 1
			break
		}
	}

	lineEnd := len(src)
	for i := lineStart; i < len(src); i++ {
		if src[i] == '\n' {
			lineEnd = i
			break
		}
	}
	if lineEnd > lineStart && src[lineEnd-1] == '\r' {
		lineEnd--
	}
	return src[lineStart:lineEnd]
}

// caretIndent returns the text that moves a caret to the 1-based column
// of the line. Tabs in the line are copied so the caret lines up.
func caretIndent(column int, b []byte) string {
	var sb strings.Builder
	for column > 1 && len(b) != 0 {
		// b is not empty, so DecodeRune will always return a width of 1 or more
		r, w := utf8.DecodeRune(b)
		if r == '\t' {
			sb.WriteByte('\t')
		} else {
			sb.WriteByte(' ')
		}
		b = b[w:]
		column--
	}
	return sb.String()
}
