package memory

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Comparer defines the identity policy for slugs, ids, branch names, categories and tags.
type Comparer struct{}

// IgnoreCase is the comparer used for every identity lookup in working memory.
var IgnoreCase = Comparer{}

// Key returns the canonical form of s. Two strings are equal under the
// comparer exactly when their keys are equal.
func (c Comparer) Key(s string) string {
	// Casers keep state between calls, so each key gets its own.
	return cases.Fold().String(s)
}

// Equal reports whether a and b identify the same thing.
func (c Comparer) Equal(a, b string) bool {
	return c.Key(a) == c.Key(b)
}

// Compare orders a and b case-insensitively. Ties on the folded form fall
// back to ordinal order so sorting stays deterministic.
func (c Comparer) Compare(a, b string) int {
	if r := strings.Compare(c.Key(a), c.Key(b)); r != 0 {
		return r
	}
	return strings.Compare(a, b)
}

// Contains reports whether values holds an entry equal to s.
func (c Comparer) Contains(values []string, s string) bool {
	for _, v := range values {
		if c.Equal(v, s) {
			return true
		}
	}
	return false
}

// Distinct trims values, drops blanks, removes case-insensitive duplicates
// (first seen wins) and returns the survivors sorted ascending.
func (c Comparer) Distinct(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := c.Key(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return c.Compare(out[i], out[j]) < 0
	})
	return out
}
