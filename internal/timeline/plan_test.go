package timeline

import "testing"

func TestValidatePlanFirstSeenClaims(t *testing.T) {
	candidates := []BranchPlanEntry{
		{Name: "study", Merges: true, EventsOnBranch: []int{0, 2}},
		{Name: "late", Merges: true, EventsOnBranch: []int{2, 3}},
	}

	valid := ValidatePlan(candidates, 5)
	if len(valid) != 1 {
		t.Fatalf("expected 1 accepted entry, got %d", len(valid))
	}
	if valid[0].Name != "study" {
		t.Fatalf("expected first-seen candidate to win, got %q", valid[0].Name)
	}
}

func TestValidatePlanRejectsSingletons(t *testing.T) {
	candidates := []BranchPlanEntry{
		{Name: "lonely", Merges: true, EventsOnBranch: []int{1}},
		{Name: "empty", Merges: true, EventsOnBranch: nil},
	}
	if valid := ValidatePlan(candidates, 3); len(valid) != 0 {
		t.Fatalf("expected no accepted entries, got %d", len(valid))
	}
}

func TestValidatePlanRejectsOutOfRange(t *testing.T) {
	candidates := []BranchPlanEntry{
		{Name: "oob-high", EventsOnBranch: []int{1, 7}},
		{Name: "oob-low", EventsOnBranch: []int{-1, 0}},
		{Name: "fine", EventsOnBranch: []int{0, 1}},
	}
	valid := ValidatePlan(candidates, 3)
	if len(valid) != 1 || valid[0].Name != "fine" {
		t.Fatalf("expected only the in-range candidate, got %+v", valid)
	}
}

func TestValidatePlanDisjointAndIdempotent(t *testing.T) {
	candidates := []BranchPlanEntry{
		{Name: "a", EventsOnBranch: []int{0, 1}},
		{Name: "b", EventsOnBranch: []int{1, 2}},
		{Name: "c", EventsOnBranch: []int{3, 4}},
	}

	first := ValidatePlan(candidates, 5)
	seen := make(map[int]string)
	for _, entry := range first {
		for _, idx := range entry.EventsOnBranch {
			if owner, dup := seen[idx]; dup {
				t.Fatalf("index %d claimed by both %q and %q", idx, owner, entry.Name)
			}
			seen[idx] = entry.Name
		}
	}

	second := ValidatePlan(first, 5)
	if len(second) != len(first) {
		t.Fatalf("validation not idempotent: %d entries became %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Name != second[i].Name {
			t.Fatalf("validation not idempotent: entry %d changed from %q to %q", i, first[i].Name, second[i].Name)
		}
	}
}

func TestPlanLookupSharesEntries(t *testing.T) {
	plan := ValidatePlan([]BranchPlanEntry{
		{Name: "study", Merges: true, EventsOnBranch: []int{0, 2}},
	}, 4)

	lookup := PlanLookup(plan)
	if lookup[0] == nil || lookup[2] == nil {
		t.Fatal("expected both claimed indices in lookup")
	}
	if lookup[0] != lookup[2] {
		t.Fatal("expected claimed indices to share one entry")
	}
	if lookup[1] != nil {
		t.Fatal("unclaimed index must not resolve to a branch")
	}
}
