package release

import "sort"

// Rank derives the operator candidate list from a catalog.
//
// Entries are visited newest first by (major, minor, patch); ties across
// channels fall back to the version string so the order never depends on
// map iteration. Every visit counts against its channel, and an entry is
// included only while its channel has a configured limit that the running
// count has not reached. Channels absent from limits are skipped.
//
// The returned list always ends with the exit sentinel, so it is never
// empty.
func Rank(catalog Catalog, limits map[Channel]int) CandidateList {
	entries := make([]VersionEntry, 0, len(catalog))
	for _, entry := range catalog {
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Less(b) {
			return false
		}
		if b.Less(a) {
			return true
		}
		return a.DisplayName < b.DisplayName
	})

	seen := make(map[Channel]int, len(limits))
	list := make(CandidateList, 0, sumLimits(limits)+1)

	for i := range entries {
		entry := entries[i]
		limit, ok := limits[entry.Channel]
		if ok && seen[entry.Channel] < limit {
			list = append(list, Candidate{Index: len(list) + 1, Entry: &entry})
		}
		seen[entry.Channel]++
	}

	return append(list, Candidate{Index: len(list) + 1})
}

func sumLimits(limits map[Channel]int) int {
	total := 0
	for _, n := range limits {
		if n > 0 {
			total += n
		}
	}
	return total
}
