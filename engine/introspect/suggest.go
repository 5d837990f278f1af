// Package introspect provides developer-facing diagnostics for the
// scheduler: human-readable resource snapshots and fuzzy tag-name
// suggestions for typo'd Push/NewVariable calls.
package introspect

import (
	"sort"

	"github.com/agnivade/levenshtein"
)

// SuggestTag returns the up to n known names closest to want by Levenshtein
// distance, ascending. Useful for turning an ErrUnknownTag into an
// actionable error message ("did you mean \"weights\"?").
func SuggestTag(want string, known []string, n int) []string {
	if len(known) == 0 || n <= 0 {
		return nil
	}

	type scored struct {
		name string
		dist int
	}
	candidates := make([]scored, 0, len(known))
	for _, name := range known {
		candidates = append(candidates, scored{name: name, dist: levenshtein.ComputeDistance(want, name)})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return candidates[i].name < candidates[j].name
	})

	if n > len(candidates) {
		n = len(candidates)
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = candidates[i].name
	}
	return out
}
