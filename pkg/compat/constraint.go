package compat

import (
	"fmt"
	"strings"

	"github.com/cperrin88/agdaup/pkg/errutils"
	"github.com/cperrin88/agdaup/pkg/version"
)

// Constraint is a parsed version range.
//
// Grammar:
//
//	constraint  = alternative { "||" alternative }
//	alternative = term { ("," | " " | "&&") term }
//	term        = [ op ] range
//	op          = "=" | "==" | "!=" | ">" | ">=" | "<" | "<=" | "^" | "^>=" | "~"
//	range       = "*" | version [ ".x" | ".*" ]
//
// A range without an operator (or with "=", "==") accepts every version that
// starts with its segments, so "9.4" accepts 9.4.1 and 9.4.8. The ordering
// operators compare plainly: >9.4 accepts 9.4.8 and <=9.4 rejects it. "^" and "^>="
// follow the PVP: ^>=9.4.2 means >=9.4.2 && <9.5. "~" pins all but the last
// written segment: ~9.4.2 means >=9.4.2 && <9.5, ~9 means >=9 && <10.
type Constraint struct {
	raw  string
	alts [][]term
}

type term struct {
	op  string
	any bool
	v   version.Version
}

var operators = []string{"^>=", ">=", "<=", "==", "!=", ">", "<", "=", "^", "~"}

// ParseConstraint parses s. An empty expression is invalid.
func ParseConstraint(s string) (Constraint, error) {
	c := Constraint{raw: strings.TrimSpace(s)}
	if c.raw == "" {
		return Constraint{}, fmt.Errorf("%w: empty expression", errutils.ErrInvalidConstraint)
	}
	for _, alt := range strings.Split(c.raw, "||") {
		terms, err := parseAlternative(alt)
		if err != nil {
			return Constraint{}, fmt.Errorf("%w: %q: %w", errutils.ErrInvalidConstraint, s, err)
		}
		c.alts = append(c.alts, terms)
	}
	return c, nil
}

func parseAlternative(alt string) ([]term, error) {
	fields := strings.Fields(strings.NewReplacer("&&", " ", ",", " ").Replace(alt))
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty alternative")
	}
	var terms []term
	for i := 0; i < len(fields); i++ {
		tok := fields[i]
		// an operator written apart from its version: ">= 9.2"
		if isOperator(tok) {
			if i+1 == len(fields) {
				return nil, fmt.Errorf("operator %s without version", tok)
			}
			i++
			tok += fields[i]
		}
		t, err := parseTerm(tok)
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	return terms, nil
}

func isOperator(tok string) bool {
	for _, op := range operators {
		if tok == op {
			return true
		}
	}
	return false
}

func parseTerm(tok string) (term, error) {
	var t term
	for _, op := range operators {
		if strings.HasPrefix(tok, op) {
			t.op = op
			tok = tok[len(op):]
			break
		}
	}
	if t.op == "==" {
		t.op = "="
	}
	if tok == "*" || tok == "x" {
		if t.op != "" && t.op != "=" {
			return term{}, fmt.Errorf("wildcard cannot follow %s", t.op)
		}
		t.any = true
		return t, nil
	}
	tok = strings.TrimSuffix(strings.TrimSuffix(tok, ".x"), ".*")
	v, err := version.Parse(tok)
	if err != nil {
		return term{}, err
	}
	t.v = v
	return t, nil
}

// Check reports whether v satisfies c.
func (c Constraint) Check(v version.Version) bool {
	for _, alt := range c.alts {
		if allMatch(alt, v) {
			return true
		}
	}
	return false
}

func allMatch(terms []term, v version.Version) bool {
	for _, t := range terms {
		if !t.match(v) {
			return false
		}
	}
	return true
}

func (t term) match(v version.Version) bool {
	if t.any {
		return true
	}
	cmp := v.Compare(t.v)
	switch t.op {
	case "", "=":
		return v.HasPrefix(t.v)
	case "!=":
		return !v.HasPrefix(t.v)
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case "^", "^>=":
		return cmp >= 0 && v.Compare(t.v.Bump(2)) < 0
	case "~":
		n := t.v.Len() - 1
		if n < 1 {
			n = 1
		}
		return cmp >= 0 && v.Compare(t.v.Bump(n)) < 0
	}
	return false
}

// String returns the expression as written.
func (c Constraint) String() string { return c.raw }
