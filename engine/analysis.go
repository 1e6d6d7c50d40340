// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package engine

import (
	"fmt"

	"github.com/mdhender/forester/forest"
)

// nullable computes, for every kind, whether it can match no tokens.
func (c *compiler) nullable() []bool {
	n := c.kinds.Len()
	null := make([]bool, n)
	for changed := true; changed; {
		changed = false
		for k := 0; k < n; k++ {
			if null[k] {
				continue
			}
			var v bool
			switch shape := c.kinds.Shape(forest.Kind(k)); shape.Tag {
			case forest.Opaque:
				t := c.match[forest.Kind(k)]
				v = t != nil && t.op == matchEmpty
			case forest.Alias:
				v = null[shape.Left]
			case forest.Opt:
				v = true
			case forest.Choice:
				for _, alt := range c.choices[forest.Kind(k)] {
					v = v || null[alt]
				}
			case forest.Split:
				v = null[shape.Left] && null[shape.Right]
			}
			if v {
				null[k], changed = true, true
			}
		}
	}
	return null
}

// leftCorners returns the kinds that k may call without consuming a token.
func (c *compiler) leftCorners(k forest.Kind, null []bool) []forest.Kind {
	switch shape := c.kinds.Shape(k); shape.Tag {
	case forest.Alias, forest.Opt:
		return []forest.Kind{shape.Left}
	case forest.Choice:
		return c.choices[k]
	case forest.Split:
		if null[shape.Left] {
			return []forest.Kind{shape.Left, shape.Right}
		}
		return []forest.Kind{shape.Left}
	}
	return nil
}

// checkLeftRecursion rejects grammars the parser can't run. A top-down
// parser would loop forever on a left recursive rule, and a repetition of
// something that matches nothing is left recursive through the repetition.
func (c *compiler) checkLeftRecursion(null []bool) error {
	for _, rep := range c.reps {
		if null[rep.inner] {
			return fmt.Errorf("grammar: rule %s: line %d: repeated expression can match nothing", rep.owner, rep.line)
		}
	}

	const (
		unvisited = iota
		active
		done
	)
	state := make([]int, c.kinds.Len())
	var path []forest.Kind
	var visit func(k forest.Kind) error
	visit = func(k forest.Kind) error {
		switch state[k] {
		case active:
			return fmt.Errorf("grammar: left recursion through %s", c.cycleName(path, k))
		case done:
			return nil
		}
		state[k] = active
		path = append(path, k)
		for _, next := range c.leftCorners(k, null) {
			if err := visit(next); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[k] = done
		return nil
	}
	for k := 0; k < c.kinds.Len(); k++ {
		if err := visit(forest.Kind(k)); err != nil {
			return err
		}
	}
	return nil
}

// cycleName names the first rule on the cycle that starts at k.
func (c *compiler) cycleName(path []forest.Kind, k forest.Kind) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == k {
			for _, kind := range path[i:] {
				if name := c.kinds.Name(kind); c.owners[kind] == name {
					return name
				}
			}
			return c.owners[k]
		}
	}
	return c.kinds.Name(k)
}
