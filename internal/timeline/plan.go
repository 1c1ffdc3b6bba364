package timeline

// BranchPlanEntry is one proposed narrative branch: a named group of events
// that diverge from the main line and, usually, merge back.
type BranchPlanEntry struct {
	Name           string `json:"name"`
	OpensAtEvent   int    `json:"opens_at_event"`
	Merges         bool   `json:"merges"`
	MergeMessage   string `json:"merge_message,omitempty"`
	EventsOnBranch []int  `json:"events_on_branch"`
}

// ValidatePlan sanitizes a proposed branch plan into a valid partition over
// eventCount events. Candidates are processed in the order given; the first
// candidate to claim an index keeps it. A candidate is dropped entirely if it
// has fewer than two events, references an index outside [0, eventCount), or
// collides with an earlier-accepted candidate. Dropped candidates collapse to
// "no branch": their events stay on the main line.
//
// ValidatePlan never fails; an empty result is a valid plan.
func ValidatePlan(candidates []BranchPlanEntry, eventCount int) []BranchPlanEntry {
	claimed := make(map[int]bool, eventCount)
	accepted := make([]BranchPlanEntry, 0, len(candidates))

	for _, candidate := range candidates {
		if len(candidate.EventsOnBranch) < 2 {
			continue
		}
		ok := true
		for _, idx := range candidate.EventsOnBranch {
			if idx < 0 || idx >= eventCount || claimed[idx] {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		for _, idx := range candidate.EventsOnBranch {
			claimed[idx] = true
		}
		accepted = append(accepted, candidate)
	}
	return accepted
}

// PlanLookup maps each claimed original index to its validated plan entry.
// Entries are shared: all indices of one branch point at the same value.
func PlanLookup(plan []BranchPlanEntry) map[int]*BranchPlanEntry {
	lookup := make(map[int]*BranchPlanEntry)
	for i := range plan {
		for _, idx := range plan[i].EventsOnBranch {
			lookup[idx] = &plan[i]
		}
	}
	return lookup
}
