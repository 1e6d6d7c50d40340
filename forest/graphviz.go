// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package forest

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// DumpGraphviz writes the recorded choices and splits as a DOT digraph.
// Choice nodes are boxes with an edge per alternative. Each split point is
// drawn as a small point node with edges to its left and right halves.
func (s *Store) DumpGraphviz(w io.Writer) error {
	bw := bufio.NewWriter(w)
	ids := map[Node]int{}
	id := func(n Node) int {
		if v, ok := ids[n]; ok {
			return v
		}
		ids[n] = len(ids)
		return ids[n]
	}

	choices := sortedNodes(s.choices)
	splits := sortedNodes(s.splits)

	var edges strings.Builder
	for _, n := range choices {
		for _, alt := range s.Alternatives(n) {
			fmt.Fprintf(&edges, "  n%d -> n%d;\n", id(n), id(alt))
		}
	}
	points := 0
	for _, n := range splits {
		for _, p := range s.Splits(n) {
			fmt.Fprintf(&edges, "  n%d -> p%d;\n", id(n), points)
			fmt.Fprintf(&edges, "  p%d -> n%d;\n", points, id(p.Left))
			fmt.Fprintf(&edges, "  p%d -> n%d;\n", points, id(p.Right))
			points++
		}
	}

	nodes := make([]Node, len(ids))
	for n, v := range ids {
		nodes[v] = n
	}

	fmt.Fprintln(bw, "digraph forest {")
	for v, n := range nodes {
		shape := "ellipse"
		if s.ShapeOf(n).Tag == Choice {
			shape = "box"
		}
		fmt.Fprintf(bw, "  n%d [shape=%s, label=%q];\n", v, shape, s.Format(n))
	}
	for p := 0; p < points; p++ {
		fmt.Fprintf(bw, "  p%d [shape=point];\n", p)
	}
	bw.WriteString(edges.String())
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

func sortedNodes[V any](m map[Node]V) []Node {
	list := make([]Node, 0, len(m))
	for n := range m {
		list = append(list, n)
	}
	sort.Slice(list, func(i, j int) bool {
		return lessNode(list[i], list[j])
	})
	return list
}

func lessNode(a, b Node) bool {
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	if a.End != b.End {
		return a.End > b.End
	}
	return a.Kind < b.Kind
}
