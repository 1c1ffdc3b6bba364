package store

import "time"

// BuildRecord is one completed repository build.
type BuildRecord struct {
	ID          string    `json:"id"`
	RepoName    string    `json:"repoName"`
	Author      string    `json:"author"`
	EventCount  int       `json:"eventCount"`
	BranchCount int       `json:"branchCount"`
	CommitCount int       `json:"commitCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// BuildEvent is one life event as persisted with its build, the substrate
// for full-text commit search when Meilisearch is unavailable.
type BuildEvent struct {
	BuildID       string `json:"buildId"`
	OriginalIndex int    `json:"originalIndex"`
	EventDate     string `json:"eventDate"`
	CommitMessage string `json:"commitMessage"`
	Keyword       string `json:"keyword,omitempty"`
	Description   string `json:"description"`
}
