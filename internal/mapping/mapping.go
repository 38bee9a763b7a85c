// Package mapping matches destination-table columns against source-sheet
// headers. Matching is heuristic and best-effort: the result seeds a mapping
// that a caller can override before syncing.
package mapping

import (
	"sort"
	"strings"

	"sheetsync/internal/model"
)

// MaxSuggestions caps the number of candidates returned per destination
// column.
const MaxSuggestions = 5

// Match tiers, in descending confidence. Lower is better.
const (
	tierExact      = 1
	tierSubstring  = 2
	tierUnderscore = 3
	tierSynonym    = 4
)

type scoredMatch struct {
	source string
	tier   int
}

// stripUnderscores lowercases and removes underscores and spaces, so
// customer_name compares equal to customername and "customer name".
func stripUnderscores(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", "")
	return strings.ReplaceAll(s, " ", "")
}

// suggestScored returns matches for destCol across all tiers, de-duplicated
// with first-seen order, without the MaxSuggestions cap applied.
func suggestScored(destCol string, sourceCols []string) []scoredMatch {
	destLower := strings.ToLower(destCol)
	destStripped := stripUnderscores(destCol)

	var matches []scoredMatch
	seen := make(map[string]bool)

	add := func(source string, tier int) {
		if seen[source] {
			return
		}
		seen[source] = true
		matches = append(matches, scoredMatch{source: source, tier: tier})
	}

	// Tier 1: case-insensitive exact equality.
	for _, src := range sourceCols {
		if strings.ToLower(src) == destLower {
			add(src, tierExact)
		}
	}

	// Tier 2: substring containment in either direction.
	for _, src := range sourceCols {
		srcLower := strings.ToLower(src)
		if strings.Contains(srcLower, destLower) || strings.Contains(destLower, srcLower) {
			add(src, tierSubstring)
		}
	}

	// Tier 3: underscore-insensitive equality.
	for _, src := range sourceCols {
		if stripUnderscores(src) == destStripped {
			add(src, tierUnderscore)
		}
	}

	// Tier 4: curated bilingual synonyms keyed by destination column.
	for _, syn := range columnSynonyms[destLower] {
		synLower := strings.ToLower(syn)
		for _, src := range sourceCols {
			if strings.Contains(strings.ToLower(src), synLower) {
				add(src, tierSynonym)
			}
		}
	}

	return matches
}

// Suggest returns candidate source columns for destCol, most confident
// first, capped at MaxSuggestions. An exact (case-insensitive) match is
// always first when one exists.
func Suggest(destCol string, sourceCols []string) []string {
	matches := suggestScored(destCol, sourceCols)
	if len(matches) > MaxSuggestions {
		matches = matches[:MaxSuggestions]
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.source
	}
	return out
}

// AutoMap greedily assigns each destination column its top suggestion.
// The pass is order-dependent: a later destination column can take over a
// source column an earlier one claimed, so the at-most-once invariant is
// NOT guaranteed here. Callers that need it use ResolveUnique, or mutate
// the result only through Assign.
func AutoMap(destCols, sourceCols []string) model.ColumnMapping {
	m := make(model.ColumnMapping)
	for _, dest := range destCols {
		suggestions := Suggest(dest, sourceCols)
		if len(suggestions) > 0 {
			m[suggestions[0]] = dest
		}
	}
	return m
}

// Assign maps src to dest, first clearing any other entry that points at
// dest. This is the invariant holder: after any sequence of Assign calls a
// destination column appears as a value at most once.
func Assign(m model.ColumnMapping, src, dest string) {
	for k, v := range m {
		if v == dest && k != src {
			delete(m, k)
		}
	}
	m[src] = dest
}

// ResolveUnique builds a conflict-free mapping in a single global pass:
// destination columns are processed in descending best-match confidence,
// and each takes its best still-unclaimed suggestion. Ties at equal
// confidence are won by the earlier destination column.
func ResolveUnique(destCols, sourceCols []string) model.ColumnMapping {
	type ranked struct {
		dest    string
		order   int
		matches []scoredMatch
	}

	var candidates []ranked
	for i, dest := range destCols {
		matches := suggestScored(dest, sourceCols)
		if len(matches) == 0 {
			continue
		}
		candidates = append(candidates, ranked{dest: dest, order: i, matches: matches})
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		ta, tb := candidates[a].matches[0].tier, candidates[b].matches[0].tier
		if ta != tb {
			return ta < tb
		}
		return candidates[a].order < candidates[b].order
	})

	m := make(model.ColumnMapping)
	claimed := make(map[string]bool)
	for _, c := range candidates {
		for _, match := range c.matches {
			if !claimed[match.source] {
				claimed[match.source] = true
				m[match.source] = c.dest
				break
			}
		}
	}
	return m
}
