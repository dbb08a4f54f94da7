// Package design parses model formulas over categorical factors into a
// deterministic, ordered list of terms. Supported operators, tightest first:
// ":" (pure interaction), "*" (crossing: main effects plus interaction),
// "/" (nesting: A/B expands to A + A:B), "+" (sum), with parentheses.
package design

import (
	"fmt"
	"sort"
	"strings"

	"github.com/JacobKing99/Tomkovich-Vendor-mSphere-2020/domain/core"
)

// Term is one effect in the expanded design: an ordered set of factor columns.
// Its Name joins the factors with ":" in first-appearance order.
type Term struct {
	Name    string
	Factors []string
}

// Order returns the interaction order (number of factors).
func (t Term) Order() int { return len(t.Factors) }

// Formula is a parsed design formula.
type Formula struct {
	source string
	root   node
}

// String returns the formula as written.
func (f *Formula) String() string { return f.source }

// Parse builds a Formula from its textual form, e.g.
// "source/(cage*experiment*run)*day".
func Parse(text string) (*Formula, error) {
	p := &parser{input: text}
	root, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.input) {
		return nil, core.NewDesignError(text, fmt.Sprintf("unexpected %q at offset %d", p.input[p.pos], p.pos))
	}
	return &Formula{source: strings.TrimSpace(text), root: root}, nil
}

// MustParse is Parse for formulas fixed at compile time.
func MustParse(text string) *Formula {
	f, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return f
}

// Terms expands the formula into its ordered term list: ascending interaction
// order, stable appearance order within the same order. This matches the
// decomposition order the analyzer reports term-by-term.
func (f *Formula) Terms() []Term {
	raw := f.root.expand()
	seen := make(map[string]struct{}, len(raw))
	terms := make([]Term, 0, len(raw))
	for _, factors := range raw {
		t := Term{Name: strings.Join(factors, ":"), Factors: factors}
		if _, dup := seen[t.Name]; dup {
			continue
		}
		seen[t.Name] = struct{}{}
		terms = append(terms, t)
	}
	sort.SliceStable(terms, func(i, j int) bool {
		return terms[i].Order() < terms[j].Order()
	})
	return terms
}

// Factors returns every distinct factor column the formula references, in
// first-appearance order.
func (f *Formula) Factors() []string {
	var out []string
	seen := make(map[string]struct{})
	for _, t := range f.Terms() {
		for _, c := range t.Factors {
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				out = append(out, c)
			}
		}
	}
	return out
}

// expression tree

type node interface {
	// expand yields the raw term list as ordered factor sets.
	expand() [][]string
}

type leaf struct{ name string }

func (l leaf) expand() [][]string { return [][]string{{l.name}} }

type sum struct{ left, right node }

func (s sum) expand() [][]string {
	return append(s.left.expand(), s.right.expand()...)
}

type interact struct{ left, right node }

func (x interact) expand() [][]string {
	var out [][]string
	for _, a := range x.left.expand() {
		for _, b := range x.right.expand() {
			out = append(out, mergeFactors(a, b))
		}
	}
	return out
}

type cross struct{ left, right node }

func (c cross) expand() [][]string {
	l, r := c.left.expand(), c.right.expand()
	out := make([][]string, 0, len(l)+len(r)+len(l)*len(r))
	out = append(out, l...)
	out = append(out, r...)
	for _, a := range l {
		for _, b := range r {
			out = append(out, mergeFactors(a, b))
		}
	}
	return out
}

type nest struct{ left, right node }

func (n nest) expand() [][]string {
	l := n.left.expand()
	out := append([][]string{}, l...)
	// every factor on the left scopes every term on the right
	var scope []string
	for _, a := range l {
		scope = mergeFactors(scope, a)
	}
	for _, b := range n.right.expand() {
		out = append(out, mergeFactors(scope, b))
	}
	return out
}

func mergeFactors(a, b []string) []string {
	out := append([]string{}, a...)
	for _, f := range b {
		dup := false
		for _, g := range out {
			if g == f {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, f)
		}
	}
	return out
}

// recursive-descent parser

type parser struct {
	input string
	pos   int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) parseSum() (node, error) {
	left, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	for p.peek() == '+' {
		p.pos++
		right, err := p.parseProduct()
		if err != nil {
			return nil, err
		}
		left = sum{left, right}
	}
	return left, nil
}

func (p *parser) parseProduct() (node, error) {
	left, err := p.parseInteraction()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek() {
		case '*':
			p.pos++
			right, err := p.parseInteraction()
			if err != nil {
				return nil, err
			}
			left = cross{left, right}
		case '/':
			p.pos++
			right, err := p.parseInteraction()
			if err != nil {
				return nil, err
			}
			left = nest{left, right}
		default:
			return left, nil
		}
	}
}

func (p *parser) parseInteraction() (node, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.peek() == ':' {
		p.pos++
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		left = interact{left, right}
	}
	return left, nil
}

func (p *parser) parsePrimary() (node, error) {
	switch c := p.peek(); {
	case c == '(':
		p.pos++
		inner, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		if p.peek() != ')' {
			return nil, core.NewDesignError(p.input, "missing closing parenthesis")
		}
		p.pos++
		return inner, nil
	case isIdentByte(c):
		start := p.pos
		for p.pos < len(p.input) && isIdentByte(p.input[p.pos]) {
			p.pos++
		}
		return leaf{name: p.input[start:p.pos]}, nil
	case c == 0:
		return nil, core.NewDesignError(p.input, "unexpected end of formula")
	default:
		return nil, core.NewDesignError(p.input, fmt.Sprintf("unexpected %q at offset %d", c, p.pos))
	}
}

func isIdentByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '.'
}
