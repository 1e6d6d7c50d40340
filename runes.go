// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package forester

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// CR and LF are control characters, respectively coded 0x0D (13 decimal) and 0x0A (10 decimal).
	// Windows uses CR + LF, Unix/Mac uses LF, Classic Mac uses CR.
	// This package doesn't support Classic Mac, so stray CR characters are treated as spaces.

	// CR is 0x0D or '\r'
	CR rune = rune(13)

	// LF is 0x0A or '\n'
	LF rune = rune(10)

	// EOF is a sentinel for end of input
	EOF rune = rune(-1)
)

func init() {
	for _, ch := range []byte("=<>!~+-*/%^&|@.,;:#$?") {
		punctuation[ch] = true
	}
}

var (
	punctuation = [256]bool{}

	// Operators lists the multi-character operators that may be spelled by
	// a run of joint punctuation tokens.
	Operators = []string{
		"<<=", ">>=", "...", "..=",
		"::", "->", "=>", "==", "!=", "<=", ">=", "&&", "||",
		"+=", "-=", "*=", "/=", "%=", "^=", "&=", "|=",
		"<<", ">>", "..",
	}
)

// IsPunct reports whether ch is a single-character punctuation token.
func IsPunct(ch rune) bool {
	if 0 <= ch && ch < utf8.RuneSelf {
		return punctuation[byte(ch)]
	}
	return false
}

func isIdentStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isIdentContinue(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch) || unicode.IsDigit(ch)
}

func isDigit(ch rune, base int) bool {
	switch base {
	case 2:
		return ch == '0' || ch == '1'
	case 8:
		return '0' <= ch && ch <= '7'
	case 16:
		return ('0' <= ch && ch <= '9') || ('a' <= ch && ch <= 'f') || ('A' <= ch && ch <= 'F')
	}
	return '0' <= ch && ch <= '9'
}

// JoinsOperator reports whether text is a proper prefix of some operator,
// meaning another joint punctuation character could extend it.
func JoinsOperator(text string) bool {
	for _, op := range Operators {
		if len(op) > len(text) && strings.HasPrefix(op, text) {
			return true
		}
	}
	return false
}
