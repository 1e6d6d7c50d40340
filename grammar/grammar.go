// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package grammar loads grammar fragments.
//
// A fragment is a YAML document:
//
//	start: ModuleContents
//	keywords: [fn, let, "true", "false"]
//	rules:
//	  ModuleContents: {rep: Item}
//	  Item: {any: [Fn, Use]}
//	  Use: [use, Path, ";"]
//
// The rules mapping is ordered. A rule body is an expression:
//
//	Name           a rule reference, a token class or a literal
//	[a, b, c]      a sequence (same as {seq: [a, b, c]}); [] matches nothing
//	{any: [a, b]}  a choice between alternatives
//	{opt: a}       zero or one a
//	{rep: a}       zero or more a
//	{rep1: a}      one or more a
//	{lit: Self}    a literal, even if it looks like a rule name
//	{alone: "<"}   a punctuation character that does not start a longer operator
//
// A scalar is a rule reference if some fragment defines the rule, a token
// class if it is one of the Classes, and a literal otherwise. A scalar that
// starts with an upper case letter must be a rule or a class.
package grammar

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mdhender/forester"
	"gopkg.in/yaml.v3"
)

// Op is the operator of an expression.
type Op int

const (
	Sym Op = iota
	Seq
	Any
	Opt
	Rep
	Rep1
	Lit
	Alone
)

func (op Op) String() string {
	switch op {
	case Sym:
		return "sym"
	case Seq:
		return "seq"
	case Any:
		return "any"
	case Opt:
		return "opt"
	case Rep:
		return "rep"
	case Rep1:
		return "rep1"
	case Lit:
		return "lit"
	case Alone:
		return "alone"
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

// Classes are the token classes a scalar may name.
var Classes = map[string]bool{
	"IDENT":    true, // identifier that is not a keyword
	"KEYWORD":  true,
	"LIFETIME": true,
	"INTEGER":  true,
	"FLOAT":    true,
	"STRING":   true,
	"CHAR":     true,
	"PUNCT":    true, // any single punctuation character
}

// Expr is a rule body or a part of one.
type Expr struct {
	Op   Op
	Text string // Sym, Lit and Alone
	Args []Expr // Seq and Any; Opt, Rep and Rep1 have exactly one
	Line int    // line in the fragment, for error messages
}

func (e *Expr) UnmarshalYAML(node *yaml.Node) error {
	e.Line = node.Line
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Value == "" {
			return fmt.Errorf("line %d: empty symbol", node.Line)
		}
		e.Op, e.Text = Sym, node.Value
		return nil
	case yaml.SequenceNode:
		e.Op = Seq
		return node.Decode(&e.Args)
	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("line %d: expression must have exactly one operator", node.Line)
		}
		key, value := node.Content[0], node.Content[1]
		switch key.Value {
		case "seq", "any":
			if value.Kind != yaml.SequenceNode {
				return fmt.Errorf("line %d: %s needs a list", key.Line, key.Value)
			}
			e.Op = Seq
			if key.Value == "any" {
				e.Op = Any
			}
			if err := value.Decode(&e.Args); err != nil {
				return err
			}
			if e.Op == Any && len(e.Args) == 0 {
				return fmt.Errorf("line %d: any needs at least one alternative", key.Line)
			}
			return nil
		case "opt", "rep", "rep1":
			var arg Expr
			if err := value.Decode(&arg); err != nil {
				return err
			}
			e.Op, e.Args = map[string]Op{"opt": Opt, "rep": Rep, "rep1": Rep1}[key.Value], []Expr{arg}
			return nil
		case "lit", "alone":
			if value.Kind != yaml.ScalarNode || value.Value == "" {
				return fmt.Errorf("line %d: %s needs a non-empty string", key.Line, key.Value)
			}
			e.Op, e.Text = Lit, value.Value
			if key.Value == "alone" {
				e.Op = Alone
			}
			return nil
		}
		return fmt.Errorf("line %d: unknown operator %q", key.Line, key.Value)
	}
	return fmt.Errorf("line %d: unexpected %s", node.Line, nodeKind(node.Kind))
}

func (e Expr) String() string {
	switch e.Op {
	case Sym:
		if kind, err := ClassifyLiteral(e.Text); err == nil && kind != WordLiteral {
			return fmt.Sprintf("%q", e.Text)
		}
		return e.Text
	case Lit, Alone:
		return fmt.Sprintf("{%s: %q}", e.Op, e.Text)
	case Seq:
		return "[" + joinExprs(e.Args) + "]"
	case Any:
		return "{any: [" + joinExprs(e.Args) + "]}"
	}
	return fmt.Sprintf("{%s: %s}", e.Op, e.Args[0])
}

func joinExprs(list []Expr) string {
	var parts []string
	for _, e := range list {
		parts = append(parts, e.String())
	}
	return strings.Join(parts, ", ")
}

// Rule is a named expression.
type Rule struct {
	Name   string
	Body   Expr
	Source string // name of the fragment that defined it
}

// Grammar is one fragment, or the merge of several.
type Grammar struct {
	Start    string
	Rules    []*Rule
	keywords map[string]bool
	rules    map[string]*Rule
	starts   string // fragment that set Start
}

func New() *Grammar {
	return &Grammar{
		keywords: map[string]bool{},
		rules:    map[string]*Rule{},
	}
}

type fragment struct {
	Start    string    `yaml:"start"`
	Keywords []string  `yaml:"keywords"`
	Rules    yaml.Node `yaml:"rules"`
}

// Parse decodes a single fragment. The name is used in error messages.
func Parse(name string, data []byte) (*Grammar, error) {
	var f fragment
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	g := New()
	g.Start, g.starts = f.Start, name
	for _, kw := range f.Keywords {
		g.keywords[kw] = true
	}
	if f.Rules.Kind == 0 {
		return g, nil
	} else if f.Rules.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s: line %d: rules must be a mapping", name, f.Rules.Line)
	}
	for i := 0; i+1 < len(f.Rules.Content); i += 2 {
		key, value := f.Rules.Content[i], f.Rules.Content[i+1]
		rule := &Rule{Name: key.Value, Source: name}
		if err := value.Decode(&rule.Body); err != nil {
			return nil, fmt.Errorf("%s: rule %s: %w", name, rule.Name, err)
		}
		if err := g.add(rule); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (g *Grammar) add(rule *Rule) error {
	if !isRuleName(rule.Name) {
		return fmt.Errorf("%s: rule %q: name must start with an upper case letter", rule.Source, rule.Name)
	} else if Classes[rule.Name] {
		return fmt.Errorf("%s: rule %q: name is a token class", rule.Source, rule.Name)
	}
	if prev, ok := g.rules[rule.Name]; ok {
		return fmt.Errorf("rule %s: defined in %s and %s", rule.Name, prev.Source, rule.Source)
	}
	g.rules[rule.Name] = rule
	g.Rules = append(g.Rules, rule)
	return nil
}

// Extend merges another fragment into g. Keywords are combined. It is an
// error for both to define the same rule or to name different start rules.
func (g *Grammar) Extend(other *Grammar) error {
	if other.Start != "" {
		if g.Start != "" && g.Start != other.Start {
			return fmt.Errorf("start rule: %s in %s and %s in %s", g.Start, g.starts, other.Start, other.starts)
		}
		g.Start, g.starts = other.Start, other.starts
	}
	for kw := range other.keywords {
		g.keywords[kw] = true
	}
	for _, rule := range other.Rules {
		if err := g.add(rule); err != nil {
			return err
		}
	}
	return nil
}

// Rule returns the named rule.
func (g *Grammar) Rule(name string) (*Rule, bool) {
	rule, ok := g.rules[name]
	return rule, ok
}

func (g *Grammar) IsKeyword(text string) bool {
	return g.keywords[text]
}

// Keywords returns the keywords in sorted order.
func (g *Grammar) Keywords() []string {
	var list []string
	for kw := range g.keywords {
		list = append(list, kw)
	}
	sort.Strings(list)
	return list
}

// Check reports every undefined reference and malformed literal, and
// whether the start rule is defined.
func (g *Grammar) Check() error {
	var errs []error
	if g.Start == "" {
		errs = append(errs, errors.New("no start rule"))
	} else if _, ok := g.rules[g.Start]; !ok {
		errs = append(errs, fmt.Errorf("start rule %s is not defined", g.Start))
	}
	for _, rule := range g.Rules {
		var walk func(e Expr)
		walk = func(e Expr) {
			switch e.Op {
			case Sym:
				if _, ok := g.rules[e.Text]; ok || Classes[e.Text] {
					return
				}
				if isRuleName(e.Text) {
					errs = append(errs, fmt.Errorf("%s: line %d: rule %s: undefined rule %s", rule.Source, e.Line, rule.Name, e.Text))
				} else if err := CheckLiteral(e.Text); err != nil {
					errs = append(errs, fmt.Errorf("%s: line %d: rule %s: %w", rule.Source, e.Line, rule.Name, err))
				}
			case Lit:
				if err := CheckLiteral(e.Text); err != nil {
					errs = append(errs, fmt.Errorf("%s: line %d: rule %s: %w", rule.Source, e.Line, rule.Name, err))
				}
			case Alone:
				if r, w := utf8.DecodeRuneInString(e.Text); w != len(e.Text) || !forester.IsPunct(r) {
					errs = append(errs, fmt.Errorf("%s: line %d: rule %s: alone %q: not a punctuation character", rule.Source, e.Line, rule.Name, e.Text))
				}
			}
			for _, arg := range e.Args {
				walk(arg)
			}
		}
		walk(rule.Body)
	}
	return errors.Join(errs...)
}

// LiteralKind classifies the text of a literal.
type LiteralKind int

const (
	WordLiteral  LiteralKind = iota // an identifier or keyword
	PunctLiteral                    // one or more joint punctuation characters
	DelimLiteral                    // a single delimiter
)

// ClassifyLiteral returns the kind of token a literal matches.
func ClassifyLiteral(text string) (LiteralKind, error) {
	if text == "" {
		return 0, errors.New("empty literal")
	}
	if len(text) == 1 && strings.ContainsAny(text, "()[]{}") {
		return DelimLiteral, nil
	}
	first, _ := utf8.DecodeRuneInString(text)
	if first == '_' || unicode.IsLetter(first) {
		for _, r := range text {
			if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				return 0, fmt.Errorf("literal %q: not a word", text)
			}
		}
		return WordLiteral, nil
	}
	for _, r := range text {
		if !forester.IsPunct(r) {
			return 0, fmt.Errorf("literal %q: not a token", text)
		}
	}
	return PunctLiteral, nil
}

// CheckLiteral returns an error if text can't be matched by any token.
func CheckLiteral(text string) error {
	_, err := ClassifyLiteral(text)
	return err
}

func isRuleName(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

func nodeKind(kind yaml.Kind) string {
	switch kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	}
	return fmt.Sprintf("node kind %d", kind)
}
