package graph

import (
	"os"
	"path/filepath"
	"testing"

	"commitlife/api/internal/timeline"
)

func TestReadRoundTripMatchesBuilder(t *testing.T) {
	repo := newEngine(t)
	events := []timeline.Event{
		{CommitMessage: "Start teaching", Date: "2017-09-01"},
		{CommitMessage: "Meet Sam", Date: "2018-03-01"},
		{CommitMessage: "Move in together", Date: "2019-05-01"},
		{CommitMessage: "Leave teaching", Date: "2020-08-01"},
	}
	plan := []timeline.BranchPlanEntry{
		{Name: "sam", Merges: true, MergeMessage: "Marry Sam", EventsOnBranch: []int{1, 2}},
	}

	built, err := Build(repo, events, plan)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	// Reload the snapshot from disk: the persisted form must agree with the
	// builder's in-memory record.
	loaded, err := LoadMetadata(repo.Path())
	if err != nil {
		t.Fatalf("LoadMetadata() error = %v", err)
	}
	if loaded == nil {
		t.Fatal("expected persisted snapshot")
	}

	g, err := Read(repo, loaded)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	for _, commit := range g.Commits {
		if commit.Branch != built.BranchMap[commit.ID] {
			t.Fatalf("commit %s: branch %q disagrees with builder's %q",
				commit.ID, commit.Branch, built.BranchMap[commit.ID])
		}
	}
	wantOrder := []string{"Initialize life story", "Start teaching", "Meet Sam", "Move in together", "Marry Sam", "Leave teaching"}
	if len(g.Commits) != len(wantOrder) {
		t.Fatalf("expected %d commits, got %d", len(wantOrder), len(g.Commits))
	}
	for i, want := range wantOrder {
		if g.Commits[i].Message != want {
			t.Fatalf("position %d: got %q, want %q", i, g.Commits[i].Message, want)
		}
	}
	for i := 1; i < len(g.Commits); i++ {
		if g.Commits[i].Timestamp.Before(g.Commits[i-1].Timestamp) {
			t.Fatalf("timestamps regress at position %d", i)
		}
	}
}

func TestReadFallbackInfersBranches(t *testing.T) {
	repo := newEngine(t)
	events := []timeline.Event{
		{CommitMessage: "Start university", Date: "2020-01-01"},
		{CommitMessage: "Pass exams", Date: "2020-06-01"},
		{CommitMessage: "Move to Berlin", Date: "2021-01-01"},
	}
	plan := []timeline.BranchPlanEntry{
		{Name: "study", Merges: true, MergeMessage: "Graduate", EventsOnBranch: []int{0, 1}},
	}
	if _, err := Build(repo, events, plan); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	// Simulate a repository built without a snapshot.
	if err := os.Remove(filepath.Join(repo.Path(), MetaFile)); err != nil {
		t.Fatalf("remove snapshot: %v", err)
	}
	meta, err := LoadMetadata(repo.Path())
	if err != nil {
		t.Fatalf("LoadMetadata() error = %v", err)
	}
	if meta != nil {
		t.Fatal("expected absent metadata")
	}

	g, err := Read(repo, nil)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	byMessage := make(map[string]Commit)
	for _, commit := range g.Commits {
		byMessage[commit.Message] = commit
	}
	// Branch-only commits sit in the smallest reachable set and are
	// classified exactly; post-merge main commits belong to main. The init
	// commit predates the fork and is a known casualty of the heuristic,
	// so it is deliberately not asserted.
	if byMessage["Pass exams"].Branch != "study" {
		t.Fatalf("expected branch commit classified as study, got %q", byMessage["Pass exams"].Branch)
	}
	if byMessage["Move to Berlin"].Branch != "main" {
		t.Fatalf("expected trailing main commit on main, got %q", byMessage["Move to Berlin"].Branch)
	}
	if !byMessage["Graduate"].IsMerge {
		t.Fatal("merge commit must still be detected structurally")
	}
	if g.CommitCount != 5 {
		t.Fatalf("expected 5 commits, got %d", g.CommitCount)
	}
}
