package parser

import (
	"strconv"
	"strings"
)

// Op is the kind of an expression node.
type Op int

const (
	OpTerm Op = iota
	OpAnd
	OpOr
	OpNot
)

func (o Op) String() string {
	switch o {
	case OpAnd:
		return "AND"
	case OpOr:
		return "OR"
	case OpNot:
		return "NOT"
	default:
		return "TERM"
	}
}

// Node is a boolean expression. Term nodes carry the normalised term (empty
// when the word normalises to nothing, e.g. a stop-word) and the word as
// typed. NOT nodes use Left only.
type Node struct {
	Op    Op
	Term  string
	Word  string
	Left  *Node
	Right *Node
}

// Term returns a term node.
func Term(term, word string) *Node { return &Node{Op: OpTerm, Term: term, Word: word} }

// And returns left AND right.
func And(left, right *Node) *Node { return &Node{Op: OpAnd, Left: left, Right: right} }

// Or returns left OR right.
func Or(left, right *Node) *Node { return &Node{Op: OpOr, Left: left, Right: right} }

// Not returns NOT operand.
func Not(operand *Node) *Node { return &Node{Op: OpNot, Left: operand} }

// String renders the canonical form: binary operations fully
// parenthesised, operators upper-case, terms in normalised form. A term
// that normalises to nothing is shown as the quoted lower-case word.
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	switch n.Op {
	case OpTerm:
		if n.Term != "" {
			b.WriteString(n.Term)
		} else {
			b.WriteString(strconv.Quote(strings.ToLower(n.Word)))
		}
	case OpNot:
		b.WriteString("NOT ")
		n.Left.write(b)
	default:
		b.WriteByte('(')
		n.Left.write(b)
		b.WriteByte(' ')
		b.WriteString(n.Op.String())
		b.WriteByte(' ')
		n.Right.write(b)
		b.WriteByte(')')
	}
}

// Terms lists the distinct normalised terms of the expression in order of
// first appearance. Terms that normalise to nothing are left out.
func (n *Node) Terms() []string {
	seen := make(map[string]struct{})
	var terms []string
	n.Walk(func(node *Node) {
		if node.Op != OpTerm || node.Term == "" {
			return
		}
		if _, ok := seen[node.Term]; ok {
			return
		}
		seen[node.Term] = struct{}{}
		terms = append(terms, node.Term)
	})
	return terms
}

// HasNot reports whether the expression contains a negation.
func (n *Node) HasNot() bool {
	found := false
	n.Walk(func(node *Node) {
		if node.Op == OpNot {
			found = true
		}
	})
	return found
}

// Walk visits the tree depth-first, left to right, parents first.
func (n *Node) Walk(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	n.Left.Walk(fn)
	n.Right.Walk(fn)
}

// Eval evaluates the expression for a single document given membership of
// each normalised term. It is the per-document counterpart of set
// evaluation.
func (n *Node) Eval(has func(term string) bool) bool {
	switch n.Op {
	case OpTerm:
		return n.Term != "" && has(n.Term)
	case OpNot:
		return !n.Left.Eval(has)
	case OpAnd:
		return n.Left.Eval(has) && n.Right.Eval(has)
	default:
		return n.Left.Eval(has) || n.Right.Eval(has)
	}
}
