// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package forester

import "fmt"

// Kind implements enums for tokens
type Kind int

const (
	UNKNOWN Kind = iota

	SPACE   // run of whitespace, including end of line
	COMMENT // line or block comment

	IDENT    // identifier or keyword, including raw identifiers
	LIFETIME // 'a
	INTEGER  // 1, 0xff, 7u8
	FLOAT    // 1.5, 2e10, 1f32
	STRING   // "..", b"..", r#".."#
	CHAR     // 'c', b'c'
	PUNCT    // one punctuation character
	OPEN     // ( [ {
	CLOSE    // ) ] }

	EndOfInput // end of input
)

func (k Kind) String() string {
	switch k {
	case UNKNOWN:
		return "UNKNOWN"
	case SPACE:
		return "SPACE"
	case COMMENT:
		return "COMMENT"
	case IDENT:
		return "IDENT"
	case LIFETIME:
		return "LIFETIME"
	case INTEGER:
		return "INTEGER"
	case FLOAT:
		return "FLOAT"
	case STRING:
		return "STRING"
	case CHAR:
		return "CHAR"
	case PUNCT:
		return "PUNCT"
	case OPEN:
		return "OPEN"
	case CLOSE:
		return "CLOSE"
	case EndOfInput:
		return "EndOfInput"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsTrivia reports whether tokens of this kind are folded into the
// leading trivia of the next token.
func (k Kind) IsTrivia() bool {
	return k == SPACE || k == COMMENT
}
