package graph

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMetadataRoundTrip(t *testing.T) {
	dir := t.TempDir()
	meta := newMetadata()
	meta.BranchMap["abc"] = "main"
	meta.BranchMap["def"] = "study"
	meta.BranchOrder = []string{"main", "study"}
	meta.MergeCommits["ghi"] = "study"
	meta.KeywordMap["def"] = "new ground"

	if err := meta.Save(dir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := LoadMetadata(dir)
	if err != nil {
		t.Fatalf("LoadMetadata() error = %v", err)
	}
	if loaded == nil {
		t.Fatal("expected snapshot to load")
	}
	if loaded.BranchMap["def"] != "study" || loaded.MergeCommits["ghi"] != "study" {
		t.Fatalf("snapshot mismatch: %+v", loaded)
	}
	if len(loaded.BranchOrder) != 2 || loaded.BranchOrder[0] != "main" {
		t.Fatalf("branch order mismatch: %v", loaded.BranchOrder)
	}
}

func TestLoadMetadataAbsentIsNil(t *testing.T) {
	meta, err := LoadMetadata(t.TempDir())
	if err != nil {
		t.Fatalf("LoadMetadata() error = %v", err)
	}
	if meta != nil {
		t.Fatal("expected nil metadata for missing snapshot")
	}
}

func TestLoadMetadataCorruptIsTreatedAsAbsent(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, MetaFile), []byte("{truncated"), 0o644); err != nil {
		t.Fatalf("write corrupt snapshot: %v", err)
	}
	meta, err := LoadMetadata(dir)
	if err != nil {
		t.Fatalf("LoadMetadata() error = %v", err)
	}
	if meta != nil {
		t.Fatal("corrupt snapshot must degrade to absent")
	}
}
