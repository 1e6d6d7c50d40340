// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package forest

import (
	"fmt"
	"sort"
)

// Store is the storage for one parse's forest.
// It records the alternatives of Choice nodes and the split points of
// Split nodes; the children of every other shape are implied.
type Store struct {
	kinds   *Kinds
	choices map[Node][]Kind
	splits  map[Node][]int
}

func NewStore(kinds *Kinds) *Store {
	return &Store{
		kinds:   kinds,
		choices: make(map[Node][]Kind),
		splits:  make(map[Node][]int),
	}
}

func (s *Store) Kinds() *Kinds {
	return s.kinds
}

// AddChoice records alt as an alternative of the Choice node n.
// It reports whether the alternative was new.
func (s *Store) AddChoice(n Node, alt Kind) bool {
	s.mustBe(n, Choice)
	for _, k := range s.choices[n] {
		if k == alt {
			return false
		}
	}
	s.choices[n] = append(s.choices[n], alt)
	return true
}

// AddSplit records at as a split point of the Split node n.
// It reports whether the split was new.
func (s *Store) AddSplit(n Node, at int) bool {
	s.mustBe(n, Split)
	if at < n.Start || at > n.End {
		panic(fmt.Sprintf("assert(%d <= split <= %d): got %d", n.Start, n.End, at))
	}
	for _, m := range s.splits[n] {
		if m == at {
			return false
		}
	}
	s.splits[n] = append(s.splits[n], at)
	return true
}

func (s *Store) ShapeOf(n Node) Shape {
	return s.kinds.Shape(n.Kind)
}

func (s *Store) UniqueAlternative(n Node) (Node, error) {
	s.mustBe(n, Choice)
	switch alts := s.choices[n]; len(alts) {
	case 0:
		return Node{}, fmt.Errorf("%s: %w", s.Format(n), ErrNoDerivation)
	case 1:
		return Node{Kind: alts[0], Start: n.Start, End: n.End}, nil
	}
	return Node{}, ErrMoreThanOne
}

func (s *Store) UniqueSplit(n Node) (Node, Node, error) {
	shape := s.mustBe(n, Split)
	switch at := s.splits[n]; len(at) {
	case 0:
		return Node{}, Node{}, fmt.Errorf("%s: %w", s.Format(n), ErrNoDerivation)
	case 1:
		return Node{Kind: shape.Left, Start: n.Start, End: at[0]},
			Node{Kind: shape.Right, Start: at[0], End: n.End}, nil
	}
	return Node{}, Node{}, ErrMoreThanOne
}

func (s *Store) UnpackAlias(n Node) Node {
	shape := s.mustBe(n, Alias)
	return Node{Kind: shape.Left, Start: n.Start, End: n.End}
}

func (s *Store) UnpackOpt(n Node) (Node, bool) {
	shape := s.mustBe(n, Opt)
	if n.Start == n.End {
		return Node{}, false
	}
	return Node{Kind: shape.Left, Start: n.Start, End: n.End}, true
}

// Alternatives returns every alternative of a Choice node in the order
// they were recorded.
func (s *Store) Alternatives(n Node) []Node {
	s.mustBe(n, Choice)
	var list []Node
	for _, k := range s.choices[n] {
		list = append(list, Node{Kind: k, Start: n.Start, End: n.End})
	}
	return list
}

// Splits returns every (left, right) pair of a Split node, ordered by
// split point.
func (s *Store) Splits(n Node) []Pair {
	shape := s.mustBe(n, Split)
	at := append([]int(nil), s.splits[n]...)
	sort.Ints(at)
	var list []Pair
	for _, m := range at {
		list = append(list, Pair{
			Left:  Node{Kind: shape.Left, Start: n.Start, End: m},
			Right: Node{Kind: shape.Right, Start: m, End: n.End},
		})
	}
	return list
}

func (s *Store) Format(n Node) string {
	return s.kinds.Format(n)
}

// mustBe panics if n does not have the given shape. Asking a node for
// children of another shape is a bug in the caller, not bad input.
func (s *Store) mustBe(n Node, tag Tag) Shape {
	shape := s.kinds.Shape(n.Kind)
	if shape.Tag != tag {
		panic(fmt.Sprintf("assert(%s is %s): got %s", s.Format(n), tag, shape.Tag))
	}
	return shape
}
