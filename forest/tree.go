// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package forest

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Labeler returns extra text for an Opaque node, typically the source
// text of the tokens it covers. An empty result adds nothing.
type Labeler func(n Node) string

// WriteTree writes an indented dump of the forest reachable from root.
// A node reached a second time is printed with a trailing "..." and its
// children are not repeated. Every alternative and every split is shown.
func WriteTree(w io.Writer, f Forest, root Node, label Labeler) error {
	bw := bufio.NewWriter(w)
	seen := map[Node]bool{}

	var walk func(n Node, depth int)
	walk = func(n Node, depth int) {
		indent := strings.Repeat("  ", depth)
		line := f.Format(n)
		shape := f.ShapeOf(n)
		if shape.Tag == Opaque && label != nil {
			if text := label(n); text != "" {
				line = fmt.Sprintf("%s %q", line, text)
			}
		}
		if seen[n] && shape.Tag != Opaque {
			fmt.Fprintf(bw, "%s%s ...\n", indent, line)
			return
		}
		seen[n] = true
		fmt.Fprintf(bw, "%s%s\n", indent, line)

		switch shape.Tag {
		case Alias:
			walk(f.UnpackAlias(n), depth+1)
		case Opt:
			if child, ok := f.UnpackOpt(n); ok {
				walk(child, depth+1)
			}
		case Choice:
			alts := f.Alternatives(n)
			for i, alt := range alts {
				if len(alts) > 1 {
					fmt.Fprintf(bw, "%s  | alternative %d of %d\n", indent, i+1, len(alts))
				}
				walk(alt, depth+1)
			}
		case Split:
			pairs := f.Splits(n)
			for i, p := range pairs {
				if len(pairs) > 1 {
					fmt.Fprintf(bw, "%s  | split %d of %d at %d\n", indent, i+1, len(pairs), p.Left.End)
				}
				walk(p.Left, depth+1)
				walk(p.Right, depth+1)
			}
		}
	}
	walk(root, 0)
	return bw.Flush()
}
