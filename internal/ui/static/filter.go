package static

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/raphi011/shelf/internal/resolve"
	"github.com/raphi011/shelf/internal/ui/styles"
)

// Match is one filtered result with its highlighted name.
type Match struct {
	Result      resolve.Result
	Highlighted string
}

// nameSource implements fuzzy.Source over display names.
type nameSource []resolve.Result

func (s nameSource) String(i int) string { return s[i].DisplayName }
func (s nameSource) Len() int            { return len(s) }

// keySource implements fuzzy.Source over cache keys.
type keySource []resolve.Result

func (s keySource) String(i int) string { return s[i].Key }
func (s keySource) Len() int            { return len(s) }

// Filter fuzzy-matches query against display names, best match first.
// Items whose key matches but whose name doesn't are appended after.
// An empty query returns every result in input order.
func Filter(query string, results []resolve.Result) []Match {
	query = strings.TrimSpace(query)
	if query == "" {
		all := make([]Match, len(results))
		for i, r := range results {
			all[i] = Match{Result: r, Highlighted: r.DisplayName}
		}
		return all
	}

	var matches []Match
	seen := make(map[int]bool)
	for _, m := range fuzzy.FindFrom(query, nameSource(results)) {
		seen[m.Index] = true
		matches = append(matches, Match{
			Result:      results[m.Index],
			Highlighted: Highlight(m.Str, m.MatchedIndexes),
		})
	}
	for _, m := range fuzzy.FindFrom(query, keySource(results)) {
		if seen[m.Index] {
			continue
		}
		seen[m.Index] = true
		r := results[m.Index]
		matches = append(matches, Match{Result: r, Highlighted: r.DisplayName})
	}
	return matches
}

// Highlight styles the characters at the matched byte offsets.
func Highlight(label string, matchedIndexes []int) string {
	if len(matchedIndexes) == 0 {
		return label
	}
	matchSet := make(map[int]bool, len(matchedIndexes))
	for _, idx := range matchedIndexes {
		matchSet[idx] = true
	}

	var result strings.Builder
	for i, r := range label {
		if matchSet[i] {
			result.WriteString(styles.HighlightStyle.Render(string(r)))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}
