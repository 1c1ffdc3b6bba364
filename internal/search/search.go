package search

// CommitRecord is the data indexed per life-event commit.
type CommitRecord struct {
	ID            string `json:"id"`
	RepoName      string `json:"repoName"`
	CommitMessage string `json:"commitMessage"`
	Description   string `json:"description"`
	Keyword       string `json:"keyword"`
	EventDate     string `json:"eventDate"`
}

// Query describes a commit search request, always scoped to one repo.
type Query struct {
	Text     string
	RepoName string
	Limit    int
}

// Result is a single commit search hit.
type Result struct {
	CommitMessage string `json:"commitMessage"`
	Description   string `json:"description,omitempty"`
	Keyword       string `json:"keyword,omitempty"`
	EventDate     string `json:"eventDate"`
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Matches []Result `json:"matches"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}
