// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package forest implements a shared packed parse forest.
//
// A node is identified by its kind and the token range it covers, so two
// derivation paths that reach the same (kind, range) reach the same node.
// The forest is a DAG, not a tree.
//
// Only choices and splits are stored. The children of every other shape are
// derived from the node itself:
//
//	Opaque          no children
//	Alias(k)        {k, Start, End}
//	Opt(k)          {k, Start, End} when Start < End, otherwise absent
//	Choice          {a, Start, End} for each recorded alternative kind a
//	Split(l, r)     {l, Start, m} and {r, m, End} for each recorded split m
package forest

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrMoreThanOne is returned when a node has more than one alternative
	// or more than one split.
	ErrMoreThanOne = errors.New("more than one")

	// ErrNoDerivation is returned when a choice or split node has nothing
	// recorded for it. The engine never builds such a node.
	ErrNoDerivation = errors.New("no derivation")
)

// Kind identifies a grammar symbol in a Kinds table.
type Kind int

// Tag is the discriminant of a Shape.
type Tag uint8

const (
	Opaque Tag = iota
	Alias
	Opt
	Choice
	Split
)

func (t Tag) String() string {
	switch t {
	case Opaque:
		return "Opaque"
	case Alias:
		return "Alias"
	case Opt:
		return "Opt"
	case Choice:
		return "Choice"
	case Split:
		return "Split"
	}
	return fmt.Sprintf("Tag(%d)", int(t))
}

// Shape describes how the children of a node are interpreted.
// Alias and Opt use Left for the inner kind.
type Shape struct {
	Tag         Tag
	Left, Right Kind
}

func AliasOf(k Kind) Shape { return Shape{Tag: Alias, Left: k} }

func OptOf(k Kind) Shape { return Shape{Tag: Opt, Left: k} }

func ChoiceShape() Shape { return Shape{Tag: Choice} }

func SplitOf(left, right Kind) Shape { return Shape{Tag: Split, Left: left, Right: right} }

// Node is a location in the forest: a kind over the half-open token range
// [Start, End). Nodes are values and may be used as map keys.
type Node struct {
	Kind       Kind
	Start, End int
}

func (n Node) String() string {
	return fmt.Sprintf("#%d @ %d..%d", n.Kind, n.Start, n.End)
}

// Reader is the query surface needed to walk a forest.
type Reader interface {
	// ShapeOf returns the shape of the node's kind.
	ShapeOf(n Node) Shape
	// UniqueAlternative returns the only alternative of a Choice node.
	UniqueAlternative(n Node) (Node, error)
	// UniqueSplit returns the only (left, right) pair of a Split node.
	UniqueSplit(n Node) (left, right Node, err error)
	// UnpackAlias returns the child of an Alias node.
	UnpackAlias(n Node) Node
	// UnpackOpt returns the child of an Opt node, if present.
	UnpackOpt(n Node) (Node, bool)
}

// Forest is a Reader that can also enumerate every derivation and
// describe itself.
type Forest interface {
	Reader
	Format(n Node) string
	Alternatives(n Node) []Node
	Splits(n Node) []Pair
	DumpGraphviz(w io.Writer) error
}

// Pair is one (left, right) split of a Split node.
type Pair struct {
	Left, Right Node
}
