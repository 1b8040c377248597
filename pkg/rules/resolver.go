package rules

import "sort"

// defaultConflictResolver implements §4.6's default ordering: drop entries
// already in the refraction set, then sort by salience descending, matching
// recency descending, and signature ascending as a final, deterministic
// tie-break.
func (e *Engine) defaultConflictResolver(agenda []AgendaEntry) []AgendaEntry {
	out := make([]AgendaEntry, 0, len(agenda))
	for _, entry := range agenda {
		if _, fired := e.firedHistory[entry.Signature]; fired {
			continue
		}
		out = append(out, entry)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Salience != b.Salience {
			return a.Salience > b.Salience
		}
		if a.MatchRecency != b.MatchRecency {
			return a.MatchRecency > b.MatchRecency
		}
		return a.Signature < b.Signature
	})

	return out
}
