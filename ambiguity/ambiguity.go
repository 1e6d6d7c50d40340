// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package ambiguity decides whether a parse forest holds exactly one
// derivation.
//
// The check walks every node reachable from the root once, breadth first.
// Ambiguity is a local property of a node, so a node shared by many
// parents only needs to be inspected the first time it is reached.
package ambiguity

import (
	"errors"
	"fmt"

	"github.com/mdhender/forester/forest"
)

// Error reports the first ambiguous node found.
// It unwraps to forest.ErrMoreThanOne.
type Error struct {
	Node forest.Node
	Tag  forest.Tag
}

func (e *Error) Error() string {
	return fmt.Sprintf("ambiguous %s at %s", e.Tag, e.Node)
}

func (e *Error) Unwrap() error {
	return forest.ErrMoreThanOne
}

// Check returns nil if the forest reachable from root is unambiguous.
// It returns an *Error for the first ambiguous node in breadth-first
// order. Any other error means the forest is malformed.
func Check(f forest.Reader, root forest.Node) error {
	_, err := Visit(f, root)
	return err
}

// Visit is Check, also returning the number of distinct nodes inspected.
func Visit(f forest.Reader, root forest.Node) (int, error) {
	queue := []forest.Node{root}
	seen := map[forest.Node]bool{root: true}
	push := func(n forest.Node) {
		if !seen[n] {
			seen[n] = true
			queue = append(queue, n)
		}
	}

	visited := 0
	for len(queue) != 0 {
		source := queue[0]
		queue = queue[1:]
		visited++

		switch shape := f.ShapeOf(source); shape.Tag {
		case forest.Opaque:
		case forest.Alias:
			push(f.UnpackAlias(source))
		case forest.Opt:
			if child, ok := f.UnpackOpt(source); ok {
				push(child)
			}
		case forest.Choice:
			child, err := f.UniqueAlternative(source)
			if err != nil {
				return visited, wrap(source, shape.Tag, err)
			}
			push(child)
		case forest.Split:
			left, right, err := f.UniqueSplit(source)
			if err != nil {
				return visited, wrap(source, shape.Tag, err)
			}
			push(left)
			push(right)
		default:
			return visited, fmt.Errorf("%s: unknown shape %s", source, shape.Tag)
		}
	}
	return visited, nil
}

func wrap(n forest.Node, tag forest.Tag, err error) error {
	if errors.Is(err, forest.ErrMoreThanOne) {
		return &Error{Node: n, Tag: tag}
	}
	return fmt.Errorf("%s: %w", n, err)
}
