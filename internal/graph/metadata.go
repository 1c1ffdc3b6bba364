// Package graph turns a sequenced timeline and a validated branch plan into
// a life repository: branch topology synthesis, commit construction, the
// out-of-band branch metadata, and the reader that reconstructs a
// display-ready graph.
package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// MetaFile is the metadata snapshot written next to the repository. The
// engine cannot answer "which branch owns this commit" once branches
// diverge and converge, so ownership is recorded out-of-band at build time.
const MetaFile = ".branch_meta.json"

// Metadata maps commits to branches, merge commits to the branch they fold
// in, commits to keywords, and records branch creation order (main first).
type Metadata struct {
	BranchMap    map[string]string `json:"branch_map"`
	BranchOrder  []string          `json:"branch_order"`
	MergeCommits map[string]string `json:"merge_commits"`
	KeywordMap   map[string]string `json:"keyword_map"`
}

func newMetadata() *Metadata {
	return &Metadata{
		BranchMap:    make(map[string]string),
		BranchOrder:  []string{},
		MergeCommits: make(map[string]string),
		KeywordMap:   make(map[string]string),
	}
}

// Save persists the snapshot atomically: a reader either sees the complete
// file or no file, never a torn write.
func (m *Metadata) Save(repoPath string) error {
	payload, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	tmp, err := os.CreateTemp(repoPath, ".branch_meta-*")
	if err != nil {
		return fmt.Errorf("create metadata temp file: %w", err)
	}
	if _, err := tmp.Write(append(payload, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close metadata temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(repoPath, MetaFile)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("install metadata snapshot: %w", err)
	}
	return nil
}

// LoadMetadata reads the snapshot for a built repository. A missing or
// unreadable snapshot returns (nil, nil): consumers treat that as "absent"
// and fall back to the reachability heuristic.
func LoadMetadata(repoPath string) (*Metadata, error) {
	payload, err := os.ReadFile(filepath.Join(repoPath, MetaFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read metadata snapshot: %w", err)
	}
	var meta Metadata
	if err := json.Unmarshal(payload, &meta); err != nil {
		return nil, nil
	}
	return &meta, nil
}
