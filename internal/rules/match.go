package rules

import (
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/JaimeStill/dossier/internal/documents"
)

// FuzzyMinLength is the shortest pattern token FUZZY considers.
const FuzzyMinLength = 4

type matchFunc func(pattern, text string) bool

var matchers = map[Algorithm]matchFunc{
	AlgorithmExact: matchExact,
	AlgorithmAny:   matchAny,
	AlgorithmAll:   matchAll,
	AlgorithmFuzzy: matchFuzzy,
}

func matchExact(pattern, text string) bool {
	return strings.Contains(text, pattern)
}

func matchAny(pattern, text string) bool {
	return slices.ContainsFunc(strings.Fields(pattern), func(w string) bool {
		return strings.Contains(text, w)
	})
}

func matchAll(pattern, text string) bool {
	words := strings.Fields(pattern)
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if !strings.Contains(text, w) {
			return false
		}
	}
	return true
}

// matchFuzzy slides each token of at least FuzzyMinLength runes across
// text and accepts a window whose rune positions agree for at least 80%
// of the token.
func matchFuzzy(pattern, text string) bool {
	t := []rune(text)
	for _, word := range strings.Fields(pattern) {
		w := []rune(word)
		if len(w) < FuzzyMinLength {
			continue
		}
		for i := 0; i+len(w) <= len(t); i++ {
			agree := 0
			for j := range w {
				if w[j] == t[i+j] {
					agree++
				}
			}
			if agree*5 >= len(w)*4 {
				return true
			}
		}
	}
	return false
}

// MatchText returns the text rules are evaluated against.
func MatchText(doc *documents.Document) string {
	return norm.NFC.String(doc.Filename + " " + doc.Title)
}

type compiled struct {
	Rule
	pattern string
	re      *regexp.Regexp
}

func compile(r Rule) (compiled, error) {
	c := compiled{Rule: r, pattern: norm.NFC.String(r.Pattern)}

	if r.Algorithm == AlgorithmRegex {
		expr := c.pattern
		if !r.CaseSensitive {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return c, err
		}
		c.re = re
		return c, nil
	}

	if !r.CaseSensitive {
		c.pattern = strings.ToLower(c.pattern)
	}
	return c, nil
}

func (c compiled) matches(text string) bool {
	if c.re != nil {
		return c.re.MatchString(text)
	}
	if !c.CaseSensitive {
		text = strings.ToLower(text)
	}
	fn, ok := matchers[c.Algorithm]
	if !ok {
		return false
	}
	return fn(c.pattern, text)
}

// Matches reports whether r matches text. An invalid expression never matches.
func (r Rule) Matches(text string) bool {
	c, err := compile(r)
	if err != nil {
		return false
	}
	return c.matches(norm.NFC.String(text))
}
