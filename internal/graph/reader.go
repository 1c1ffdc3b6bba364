package graph

import (
	"sort"
	"time"

	"commitlife/api/internal/gitrepo"
)

// Commit is one display-ready entry of the reconstructed graph.
type Commit struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Keyword   string    `json:"keyword,omitempty"`
	Branch    string    `json:"branch"`
	IsMerge   bool      `json:"is_merge"`
	ParentIDs []string  `json:"parent_ids"`
	Timestamp time.Time `json:"timestamp"`
}

// Graph is the read operation's result: strictly ordered commits plus the
// branch labels in creation order, integration line first.
type Graph struct {
	Commits     []Commit `json:"commits"`
	BranchOrder []string `json:"branch_order"`
	CommitCount int      `json:"commit_count"`
	BranchCount int      `json:"branch_count"`
}

// Source is the read-side slice of the engine. Satisfied by *gitrepo.Repo.
type Source interface {
	ListAllCommits() ([]gitrepo.CommitRecord, error)
	Branches() ([]string, error)
	ReachableFrom(branch string) (map[string]bool, error)
}

// Read reconstructs the commit graph. With metadata present branch and
// merge labels are exact; with meta nil it degrades to the reachability
// heuristic of inferBranches, which can misclassify commits on
// diamond-shaped histories and exists only for robustness.
func Read(src Source, meta *Metadata) (*Graph, error) {
	records, err := src.ListAllCommits()
	if err != nil {
		return nil, err
	}

	var branchOf map[string]string
	var branchOrder []string
	if meta != nil {
		branchOf = make(map[string]string, len(records))
		for _, record := range records {
			branch, ok := meta.BranchMap[record.ID]
			if !ok {
				branch = gitrepo.MainBranch
			}
			branchOf[record.ID] = branch
		}
		branchOrder = meta.BranchOrder
	} else {
		branchOf, branchOrder, err = inferBranches(src, records)
		if err != nil {
			return nil, err
		}
	}

	ordered := chronologize(records, branchOf, branchOrder)

	commits := make([]Commit, 0, len(ordered))
	for _, record := range ordered {
		commit := Commit{
			ID:        record.ID,
			Message:   record.Message,
			Branch:    branchOf[record.ID],
			IsMerge:   record.IsMerge(),
			ParentIDs: record.ParentIDs,
			Timestamp: record.When,
		}
		if meta != nil {
			commit.Keyword = meta.KeywordMap[record.ID]
		}
		commits = append(commits, commit)
	}

	return &Graph{
		Commits:     commits,
		BranchOrder: branchOrder,
		CommitCount: len(commits),
		BranchCount: len(branchOrder),
	}, nil
}

// chronologize orders commits ascending by timestamp without ever placing a
// commit before one of its parents. Among commits whose parents are already
// emitted, the earliest timestamp wins; equal timestamps fall back to
// branch creation order, then commit id, so the result is deterministic.
func chronologize(records []gitrepo.CommitRecord, branchOf map[string]string, branchOrder []string) []gitrepo.CommitRecord {
	branchRank := make(map[string]int, len(branchOrder))
	for i, name := range branchOrder {
		branchRank[name] = i
	}

	present := make(map[string]bool, len(records))
	for _, record := range records {
		present[record.ID] = true
	}
	pendingParents := make(map[string]int, len(records))
	children := make(map[string][]int)
	for i, record := range records {
		for _, parent := range record.ParentIDs {
			if present[parent] {
				pendingParents[record.ID]++
				children[parent] = append(children[parent], i)
			}
		}
	}

	var ready []int
	for i, record := range records {
		if pendingParents[record.ID] == 0 {
			ready = append(ready, i)
		}
	}

	less := func(a, b int) bool {
		ra, rb := records[a], records[b]
		if !ra.When.Equal(rb.When) {
			return ra.When.Before(rb.When)
		}
		if ka, kb := branchRank[branchOf[ra.ID]], branchRank[branchOf[rb.ID]]; ka != kb {
			return ka < kb
		}
		return ra.ID < rb.ID
	}

	ordered := make([]gitrepo.CommitRecord, 0, len(records))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return less(ready[i], ready[j]) })
		next := ready[0]
		ready = ready[1:]
		ordered = append(ordered, records[next])
		for _, child := range children[records[next].ID] {
			pendingParents[records[child].ID]--
			if pendingParents[records[child].ID] == 0 {
				ready = append(ready, child)
			}
		}
	}
	return ordered
}

// inferBranches assigns each commit to the branch with the smallest
// reachable set containing it. Main's reachable set is a superset of every
// merged branch's, so the smallest containing set is the most specific
// line. This is a lossy approximation; the metadata path is the primary
// design.
func inferBranches(src Source, records []gitrepo.CommitRecord) (map[string]string, []string, error) {
	branches, err := src.Branches()
	if err != nil {
		return nil, nil, err
	}
	reachable := make(map[string]map[string]bool, len(branches))
	for _, branch := range branches {
		set, err := src.ReachableFrom(branch)
		if err != nil {
			return nil, nil, err
		}
		reachable[branch] = set
	}

	branchOf := make(map[string]string, len(records))
	for _, record := range records {
		best := gitrepo.MainBranch
		bestSize := -1
		for _, branch := range branches {
			set := reachable[branch]
			if !set[record.ID] {
				continue
			}
			if bestSize == -1 || len(set) < bestSize {
				best = branch
				bestSize = len(set)
			}
		}
		branchOf[record.ID] = best
	}

	branchOrder := []string{gitrepo.MainBranch}
	seen := map[string]bool{gitrepo.MainBranch: true}
	for _, record := range chronologize(records, branchOf, branchOrder) {
		branch := branchOf[record.ID]
		if !seen[branch] {
			seen[branch] = true
			branchOrder = append(branchOrder, branch)
		}
	}
	return branchOf, branchOrder, nil
}
