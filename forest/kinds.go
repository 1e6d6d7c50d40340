// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package forest

import "fmt"

// Kinds is the table of kinds a forest is built from.
// A new kind is Opaque until SetShape is called; this allows recursive
// shapes to be declared before they are defined.
type Kinds struct {
	names  []string
	shapes []Shape
}

func NewKinds() *Kinds {
	return &Kinds{}
}

// Add declares a new Opaque kind and returns it.
func (ks *Kinds) Add(name string) Kind {
	ks.names = append(ks.names, name)
	ks.shapes = append(ks.shapes, Shape{Tag: Opaque})
	return Kind(len(ks.names) - 1)
}

// AddShape declares a new kind with the given shape.
func (ks *Kinds) AddShape(name string, shape Shape) Kind {
	k := ks.Add(name)
	ks.shapes[k] = shape
	return k
}

func (ks *Kinds) SetShape(k Kind, shape Shape) {
	ks.shapes[k] = shape
}

func (ks *Kinds) Shape(k Kind) Shape {
	return ks.shapes[k]
}

func (ks *Kinds) Name(k Kind) string {
	if k < 0 || int(k) >= len(ks.names) {
		return fmt.Sprintf("#%d", int(k))
	}
	return ks.names[k]
}

func (ks *Kinds) Len() int {
	return len(ks.names)
}

// Format returns "Name @ start..end".
func (ks *Kinds) Format(n Node) string {
	return fmt.Sprintf("%s @ %d..%d", ks.Name(n.Kind), n.Start, n.End)
}
