package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements commit search using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true — if Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// matchExpr mirrors the GIN index expression in db/migrations/0001_init.up.sql.
const matchExpr = `to_tsvector('english', e.commit_message || ' ' || e.description || ' ' || e.keyword) @@ plainto_tsquery('english', $1)`

// Search runs a ranked full-text query over the build events of one repository.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	ctx := context.Background()

	countSQL := `
		SELECT count(*)
		FROM build_events e
		JOIN builds b ON b.id = e.build_id
		WHERE b.repo_name = $2 AND ` + matchExpr

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, q.Text, q.RepoName).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	dataSQL := fmt.Sprintf(`
		SELECT e.commit_message, e.description, e.keyword, e.event_date
		FROM build_events e
		JOIN builds b ON b.id = e.build_id
		WHERE b.repo_name = $2 AND %s
		ORDER BY ts_rank(to_tsvector('english', e.commit_message || ' ' || e.description || ' ' || e.keyword), plainto_tsquery('english', $1)) DESC,
			e.original_index
		LIMIT %d`, matchExpr, limit)

	rows, err := p.db.QueryContext(ctx, dataSQL, q.Text, q.RepoName)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.CommitMessage, &r.Description, &r.Keyword, &r.EventDate); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		results = append(results, r)
	}

	return results, total, rows.Err()
}
