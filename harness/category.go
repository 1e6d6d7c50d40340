// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package harness

import (
	"fmt"

	"github.com/mdhender/forester/model"
)

// Category is the outcome of classifying one file.
type Category int

const (
	Unambiguous Category = iota // parsed fully, exactly one derivation
	Ambiguous                   // parsed fully, more than one derivation
	Partial                     // only a prefix parsed
	Failed                      // didn't tokenize or didn't parse at all
)

// Status is the character printed for the category in compact mode.
func (c Category) Status() byte {
	switch c {
	case Unambiguous:
		return '~'
	case Ambiguous:
		return '!'
	case Partial:
		return '.'
	}
	return 'X'
}

func (c Category) String() string {
	switch c {
	case Unambiguous:
		return model.CategoryUnambiguous
	case Ambiguous:
		return model.CategoryAmbiguous
	case Partial:
		return model.CategoryPartial
	case Failed:
		return model.CategoryFailed
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// Counts tallies categories. Every classified file increments exactly
// one category and the total.
type Counts struct {
	Total       int
	Unambiguous int
	Ambiguous   int
	Partial     int
	Failed      int
}

func (c *Counts) Add(category Category) {
	switch category {
	case Unambiguous:
		c.Unambiguous++
	case Ambiguous:
		c.Ambiguous++
	case Partial:
		c.Partial++
	default:
		c.Failed++
	}
	c.Total++
}
