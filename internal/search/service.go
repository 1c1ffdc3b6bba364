package search

import "log"

// Service is the facade that tries Meilisearch first and falls back to PG FTS.
type Service struct {
	meili *Meili
	pgfts *PgFTS
}

// NewService creates a search service. meili may be nil if Meilisearch is not configured.
func NewService(meili *Meili, pgfts *PgFTS) *Service {
	return &Service{meili: meili, pgfts: pgfts}
}

// Search tries Meilisearch if healthy, otherwise falls back to PG FTS.
func (s *Service) Search(q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Matches: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to pgfts: %v", err)
	}

	results, total, err := s.pgfts.Search(q)
	if err != nil {
		log.Printf("search: pgfts error: %v", err)
		return Response{Matches: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Matches: nonNil(results), Total: total, Query: q.Text}
}

// IndexBuild indexes the commits of one build (fire-and-forget to Meilisearch).
// Postgres already holds the events, so a failed push only degrades ranking.
func (s *Service) IndexBuild(repoName string, commits []CommitRecord) {
	if s.meili == nil || !s.meili.Healthy() || len(commits) == 0 {
		return
	}
	go func() {
		if err := s.meili.IndexCommits(commits); err != nil {
			log.Printf("search: index build %s: %v", repoName, err)
		}
	}()
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
