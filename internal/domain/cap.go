package domain

// MaxPerCategory is the number of incidents kept per category so a map
// display is not flooded by one crime type.
const MaxPerCategory = 2

// CapPerCategory groups incidents by trimmed category and keeps the first
// MaxPerCategory of each group. Groups are emitted in the order their
// category was first seen, and incidents keep their upstream order within a
// group. A nil or empty input yields an empty, non-nil slice.
func CapPerCategory(incidents []Incident) []Incident {
	order := make([]string, 0)
	groups := make(map[string][]Incident)

	for _, inc := range incidents {
		key := inc.GroupKey()
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		if len(groups[key]) < MaxPerCategory {
			groups[key] = append(groups[key], inc)
		}
	}

	out := make([]Incident, 0, len(order)*MaxPerCategory)
	for _, key := range order {
		out = append(out, groups[key]...)
	}
	return out
}

// CategoryCounts returns how many incidents each trimmed category holds.
func CategoryCounts(incidents []Incident) map[string]int {
	counts := make(map[string]int)
	for _, inc := range incidents {
		counts[inc.GroupKey()]++
	}
	return counts
}

// DedupeByID merges incident lists, keeping the first occurrence of each id.
// Incidents without an id are always kept.
func DedupeByID(lists ...[]Incident) []Incident {
	seen := make(map[FlexString]struct{})
	out := make([]Incident, 0)
	for _, list := range lists {
		for _, inc := range list {
			if inc.ID != "" {
				if _, dup := seen[inc.ID]; dup {
					continue
				}
				seen[inc.ID] = struct{}{}
			}
			out = append(out, inc)
		}
	}
	return out
}
