package verifier

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval/internal/searcher/parser"
)

// Explain describes how q was evaluated: its canonical form, the posting
// size of each term and what the operators require of a document.
func Explain(q *parser.Query, termStats map[string]int, totalHits int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Canonical form: %s\n", q.Canonical())

	b.WriteString("Terms:\n")
	seen := make(map[string]bool)
	q.Root.Walk(func(n *parser.Node) {
		if n.Op != parser.OpTerm {
			return
		}
		if n.Term == "" {
			word := strconv.Quote(strings.ToLower(n.Word))
			if !seen[word] {
				seen[word] = true
				fmt.Fprintf(&b, "  %s normalises to nothing (stop-word or punctuation) and matches no document\n", word)
			}
			return
		}
		if seen[n.Term] {
			return
		}
		seen[n.Term] = true
		fmt.Fprintf(&b, "  %s (from %q) appears in %s\n", n.Term, n.Word, plural(termStats[n.Term], "document"))
	})

	fmt.Fprintf(&b, "Query requires %s.\n", describe(q.Root))
	if totalHits == 0 {
		b.WriteString("No documents match the query.")
	} else {
		fmt.Fprintf(&b, "%s match the query.", plural(totalHits, "document"))
	}
	return b.String()
}

// describe renders an expression in words. Chains of one operator are
// flattened, so a AND b AND c reads "ALL of [a, b, c]".
func describe(n *parser.Node) string {
	switch n.Op {
	case parser.OpTerm:
		if n.Term == "" {
			return strconv.Quote(strings.ToLower(n.Word))
		}
		return "'" + n.Term + "'"
	case parser.OpNot:
		return "NOT " + describe(n.Left)
	default:
		operands := flatten(n, n.Op, nil)
		parts := make([]string, len(operands))
		for i, op := range operands {
			parts[i] = describe(op)
		}
		quantifier := "ALL of"
		if n.Op == parser.OpOr {
			quantifier = "ANY of"
		}
		return quantifier + " [" + strings.Join(parts, ", ") + "]"
	}
}

func flatten(n *parser.Node, op parser.Op, out []*parser.Node) []*parser.Node {
	if n.Op != op {
		return append(out, n)
	}
	out = flatten(n.Left, op, out)
	return flatten(n.Right, op, out)
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
