package appsdb

import "hopper/internal/apps"

// Merge reconciles existing with incoming by structural identity. Records of
// existing that also appear in incoming are kept with their ID and score and
// take the Terminal flag of the incoming record. Records missing from
// incoming are dropped. Incoming records with no kept counterpart are
// appended once each, with zero score and a fresh ID when theirs is empty,
// already taken, or held by any record of existing, dropped ones included.
// Neither input is modified.
func Merge(existing, incoming []apps.App) []apps.App {
	incomingByKey := make(map[string]int, len(incoming))
	for i, app := range incoming {
		if _, seen := incomingByKey[app.Key()]; !seen {
			incomingByKey[app.Key()] = i
		}
	}

	merged := make([]apps.App, 0, len(incoming))
	keys := make(map[string]struct{}, len(incoming))
	ids := make(map[string]struct{}, len(existing)+len(incoming))
	for _, app := range existing {
		ids[app.ID] = struct{}{}
	}
	for _, app := range existing {
		key := app.Key()
		idx, ok := incomingByKey[key]
		if !ok {
			continue
		}
		if _, dup := keys[key]; dup {
			continue
		}
		kept := app.Clone()
		kept.Terminal = incoming[idx].Terminal
		keys[key] = struct{}{}
		merged = append(merged, kept)
	}

	for _, app := range incoming {
		key := app.Key()
		if _, ok := keys[key]; ok {
			continue
		}
		added := app.Clone()
		added.Score = 0
		if _, taken := ids[added.ID]; added.ID == "" || taken {
			added.ID = apps.NewID()
		}
		keys[key] = struct{}{}
		ids[added.ID] = struct{}{}
		merged = append(merged, added)
	}
	return merged
}
