package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrBuildNotFound is returned when no build record matches a repo name.
var ErrBuildNotFound = errors.New("build not found")

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveBuild records a completed build and its events in one transaction.
func (s *PostgresStore) SaveBuild(ctx context.Context, build BuildRecord, events []BuildEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save build tx: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO builds (id, repo_name, author, event_count, branch_count, commit_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, build.ID, build.RepoName, build.Author, build.EventCount, build.BranchCount, build.CommitCount, build.CreatedAt)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert build: %w", err)
	}

	for _, event := range events {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO build_events (build_id, original_index, event_date, commit_message, keyword, description)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, build.ID, event.OriginalIndex, event.EventDate, event.CommitMessage, event.Keyword, event.Description)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert build event %d: %w", event.OriginalIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save build tx: %w", err)
	}
	return nil
}

// GetBuildByRepoName resolves a build record from its repository name.
func (s *PostgresStore) GetBuildByRepoName(ctx context.Context, repoName string) (BuildRecord, error) {
	var build BuildRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT id, repo_name, author, event_count, branch_count, commit_count, created_at
		FROM builds WHERE repo_name = $1
	`, repoName).Scan(&build.ID, &build.RepoName, &build.Author, &build.EventCount,
		&build.BranchCount, &build.CommitCount, &build.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return BuildRecord{}, ErrBuildNotFound
	}
	if err != nil {
		return BuildRecord{}, fmt.Errorf("get build %s: %w", repoName, err)
	}
	return build, nil
}

// ListBuilds returns the most recent builds, newest first.
func (s *PostgresStore) ListBuilds(ctx context.Context, limit int) ([]BuildRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, repo_name, author, event_count, branch_count, commit_count, created_at
		FROM builds ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list builds: %w", err)
	}
	defer rows.Close()

	builds := make([]BuildRecord, 0, limit)
	for rows.Next() {
		var build BuildRecord
		if err := rows.Scan(&build.ID, &build.RepoName, &build.Author, &build.EventCount,
			&build.BranchCount, &build.CommitCount, &build.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		builds = append(builds, build)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate builds: %w", err)
	}
	return builds, nil
}
