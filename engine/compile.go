// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package engine

import (
	"fmt"

	"github.com/mdhender/forester/forest"
	"github.com/mdhender/forester/grammar"
)

// compiler lowers grammar expressions into forest kinds.
//
// Every rule gets a kind named after it, an Alias of its body. Everything
// else gets an anonymous kind named "Rule.N" after the rule that owns it.
// Terminals are shared between rules.
type compiler struct {
	g       *grammar.Grammar
	kinds   *forest.Kinds
	rules   map[string]forest.Kind
	terms   map[string]forest.Kind
	match   map[forest.Kind]*terminal
	choices map[forest.Kind][]forest.Kind
	owners  []string // rule that owns each kind, "" for terminals
	reps    []repetition
	owner   string
	counter int
}

// repetition is remembered so that a repeated expression that can match
// nothing is reported against the rule that wrote it.
type repetition struct {
	owner string
	line  int
	inner forest.Kind
}

func newCompiler(g *grammar.Grammar) *compiler {
	return &compiler{
		g:       g,
		kinds:   forest.NewKinds(),
		rules:   make(map[string]forest.Kind),
		terms:   make(map[string]forest.Kind),
		match:   make(map[forest.Kind]*terminal),
		choices: make(map[forest.Kind][]forest.Kind),
	}
}

func (c *compiler) compile() error {
	// declare first so that rules may refer to rules defined later
	for _, rule := range c.g.Rules {
		c.rules[rule.Name] = c.add(rule.Name, forest.Shape{Tag: forest.Opaque}, rule.Name)
	}
	for _, rule := range c.g.Rules {
		c.owner, c.counter = rule.Name, 0
		body, err := c.expr(rule.Body)
		if err != nil {
			return fmt.Errorf("%s: rule %s: %w", rule.Source, rule.Name, err)
		}
		c.kinds.SetShape(c.rules[rule.Name], forest.AliasOf(body))
	}
	return nil
}

func (c *compiler) add(name string, shape forest.Shape, owner string) forest.Kind {
	k := c.kinds.AddShape(name, shape)
	c.owners = append(c.owners, owner)
	return k
}

func (c *compiler) anon(shape forest.Shape) forest.Kind {
	c.counter++
	return c.add(fmt.Sprintf("%s.%d", c.owner, c.counter), shape, c.owner)
}

func (c *compiler) expr(e grammar.Expr) (forest.Kind, error) {
	switch e.Op {
	case grammar.Sym:
		if k, ok := c.rules[e.Text]; ok {
			return k, nil
		} else if grammar.Classes[e.Text] {
			return c.terminal(&terminal{op: matchClass, text: e.Text}), nil
		}
		return c.literal(e.Text)
	case grammar.Lit:
		return c.literal(e.Text)
	case grammar.Alone:
		return c.terminal(&terminal{op: matchAlone, text: e.Text}), nil
	case grammar.Seq:
		return c.seq(e.Args)
	case grammar.Any:
		k := c.anon(forest.ChoiceShape())
		for _, arg := range e.Args {
			alt, err := c.expr(arg)
			if err != nil {
				return 0, err
			}
			c.choices[k] = append(c.choices[k], alt)
		}
		return k, nil
	case grammar.Opt:
		inner, err := c.expr(e.Args[0])
		if err != nil {
			return 0, err
		}
		return c.anon(forest.OptOf(inner)), nil
	case grammar.Rep, grammar.Rep1:
		// rep = Opt(plus), plus = Split(inner, rep)
		plus := c.anon(forest.Shape{Tag: forest.Opaque})
		rep := c.anon(forest.OptOf(plus))
		inner, err := c.expr(e.Args[0])
		if err != nil {
			return 0, err
		}
		c.kinds.SetShape(plus, forest.SplitOf(inner, rep))
		c.reps = append(c.reps, repetition{owner: c.owner, line: e.Line, inner: inner})
		if e.Op == grammar.Rep1 {
			return plus, nil
		}
		return rep, nil
	}
	return 0, fmt.Errorf("line %d: unknown operator %s", e.Line, e.Op)
}

// seq nests to the right: [a, b, c] is Split(a, Split(b, c)).
func (c *compiler) seq(args []grammar.Expr) (forest.Kind, error) {
	switch len(args) {
	case 0:
		return c.terminal(&terminal{op: matchEmpty}), nil
	case 1:
		return c.expr(args[0])
	}
	left, err := c.expr(args[0])
	if err != nil {
		return 0, err
	}
	right, err := c.seq(args[1:])
	if err != nil {
		return 0, err
	}
	return c.anon(forest.SplitOf(left, right)), nil
}

func (c *compiler) literal(text string) (forest.Kind, error) {
	kind, err := grammar.ClassifyLiteral(text)
	if err != nil {
		return 0, err
	}
	switch kind {
	case grammar.WordLiteral:
		return c.terminal(&terminal{op: matchWord, text: text}), nil
	case grammar.DelimLiteral:
		return c.terminal(&terminal{op: matchDelim, text: text}), nil
	}
	return c.terminal(&terminal{op: matchPunct, text: text}), nil
}

// terminal returns the kind for t, creating it the first time.
func (c *compiler) terminal(t *terminal) forest.Kind {
	name := t.String()
	if k, ok := c.terms[name]; ok {
		return k
	}
	if t.op == matchClass {
		t.class = classes[t.text]
	}
	k := c.add(name, forest.Shape{Tag: forest.Opaque}, "")
	c.terms[name] = k
	c.match[k] = t
	return k
}
