package rules

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/JaimeStill/dossier/internal/documents"
)

// Sort orders rules by priority descending, scope-specific before global at
// equal priority, keeping the input order otherwise.
func Sort(rules []Rule) {
	slices.SortStableFunc(rules, func(a, b Rule) int {
		if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
			return c
		}
		return cmp.Compare(scopeRank(a), scopeRank(b))
	})
}

func scopeRank(r Rule) int {
	if r.ScopeID != nil {
		return 0
	}
	return 1
}

// Set is an ordered, compiled rule list ready for classification.
type Set struct {
	rules []compiled
}

// NewSet sorts and compiles the active rules. Rules with an invalid
// expression are logged and left out.
func NewSet(rules []Rule, logger *slog.Logger) *Set {
	ordered := slices.Clone(rules)
	Sort(ordered)

	s := &Set{rules: make([]compiled, 0, len(ordered))}
	for _, r := range ordered {
		if !r.Active {
			continue
		}
		c, err := compile(r)
		if err != nil {
			if logger != nil {
				logger.Warn("skipping rule with invalid pattern",
					"rule", r.Name, "pattern", r.Pattern, "error", err)
			}
			continue
		}
		s.rules = append(s.rules, c)
	}
	return s
}

// Len returns the number of usable rules.
func (s *Set) Len() int {
	return len(s.rules)
}

// Classify returns the assignment of the first rule matching doc, or nil.
func (s *Set) Classify(doc *documents.Document) *Assignment {
	text := MatchText(doc)
	for _, c := range s.rules {
		if c.ScopeID != nil && *c.ScopeID != doc.ScopeID {
			continue
		}
		if c.matches(text) {
			return assignment(c.Rule)
		}
	}
	return nil
}

// Classify evaluates rules against doc; the first match wins.
func Classify(doc *documents.Document, rules []Rule) *Assignment {
	return NewSet(rules, nil).Classify(doc)
}
