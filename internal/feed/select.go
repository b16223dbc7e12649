package feed

import "sort"

// Chronological returns a copy of episodes sorted by publication time,
// oldest first. The sort is stable so entries sharing a timestamp keep the
// feed's relative order.
func Chronological(episodes []Episode) []Episode {
	sorted := make([]Episode, len(episodes))
	copy(sorted, episodes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Published.Before(sorted[j].Published)
	})
	return sorted
}

// Select sorts episodes chronologically and applies the half-open index range
// [start, end). end < 0 means "all remaining". Out-of-range bounds clamp to
// the list instead of erroring, so a start past the end yields an empty slice.
func Select(episodes []Episode, start, end int) []Episode {
	sorted := Chronological(episodes)

	n := len(sorted)
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	if end < 0 || end > n {
		end = n
	}
	if end < start {
		end = start
	}
	return sorted[start:end]
}
