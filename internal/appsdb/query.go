package appsdb

import (
	"slices"

	"github.com/sahilm/fuzzy"

	"hopper/internal/apps"
	"hopper/internal/frecency"
)

// fuzzyScale converts a fuzzy match score into the frecency scale.
const fuzzyScale = 100

// names adapts the record list to fuzzy.Source.
type names []apps.App

func (n names) String(i int) string { return n[i].Name }

func (n names) Len() int { return len(n) }

// RankedQuery returns copies of the records ranked for display. An empty
// search returns every record by descending stored score. Otherwise only
// records whose name fuzzy-matches search with a positive score are
// returned, scored as their current frecency plus the match score divided by
// 100, best first. Equal scores keep registry order. limit <= 0 means no
// limit.
func (r *Registry) RankedQuery(search string, limit int) []apps.App {
	var out []apps.App
	if search == "" {
		out = r.Apps()
	} else {
		matches := fuzzy.FindFrom(search, names(r.apps))
		slices.SortFunc(matches, func(a, b fuzzy.Match) int { return a.Index - b.Index })

		elapsed := r.elapsed()
		out = make([]apps.App, 0, len(matches))
		for _, match := range matches {
			if match.Score <= 0 {
				continue
			}
			app := r.apps[match.Index].Clone()
			app.Score = frecency.Frecency(app.Score, elapsed, r.halfLife) + float64(match.Score)/fuzzyScale
			out = append(out, app)
		}
	}

	slices.SortStableFunc(out, func(a, b apps.App) int {
		return frecency.Descending(a.Score, b.Score)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
