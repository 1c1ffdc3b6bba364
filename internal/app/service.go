// Package app wires the journal-to-repository pipeline behind the HTTP API:
// synthesize events, build the repository, read the graph back, persist and
// index the build, and package the artifact.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"commitlife/api/internal/cache"
	"commitlife/api/internal/gitrepo"
	"commitlife/api/internal/graph"
	"commitlife/api/internal/search"
	"commitlife/api/internal/store"
	"commitlife/api/internal/timeline"
	"commitlife/api/internal/util"
)

type eventSynthesizer interface {
	Synthesize(ctx context.Context, journalText, userName string) ([]timeline.Event, []timeline.BranchPlanEntry, error)
}

type buildStore interface {
	Ping(ctx context.Context) error
	SaveBuild(ctx context.Context, build store.BuildRecord, events []store.BuildEvent) error
	GetBuildByRepoName(ctx context.Context, repoName string) (store.BuildRecord, error)
	ListBuilds(ctx context.Context, limit int) ([]store.BuildRecord, error)
}

type commitSearcher interface {
	Search(q search.Query) search.Response
	IndexBuild(repoName string, commits []search.CommitRecord)
}

type responseCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

type artifactArchiver interface {
	Package(ctx context.Context, repoPath, repoName string) (string, error)
	Open(ctx context.Context, repoName string) (io.ReadCloser, error)
}

// Service orchestrates repository builds and read-side queries.
type Service struct {
	reposDir string
	synth    eventSynthesizer
	store    buildStore
	search   commitSearcher
	cache    responseCache // nil disables response caching
	archive  artifactArchiver
	now      func() time.Time
}

func NewService(reposDir string, synth eventSynthesizer, st buildStore, searcher commitSearcher, respCache responseCache, archiver artifactArchiver) *Service {
	return &Service{
		reposDir: reposDir,
		synth:    synth,
		store:    st,
		search:   searcher,
		cache:    respCache,
		archive:  archiver,
		now:      time.Now,
	}
}

// ProcessResult is the payload returned for a processed journal.
type ProcessResult struct {
	RepoName    string       `json:"repoName"`
	Author      string       `json:"author"`
	Graph       *graph.Graph `json:"graph"`
	DownloadURL string       `json:"downloadUrl"`
	Cached      bool         `json:"cached"`
}

// Process turns journal text into a life repository and returns its graph.
// Identical (user, journal) submissions within the cache TTL are answered
// from Redis without rebuilding.
func (s *Service) Process(ctx context.Context, journalText, userName string) (*ProcessResult, error) {
	journalText = strings.TrimSpace(journalText)
	if journalText == "" {
		return nil, validationError("journalText is required")
	}
	if strings.TrimSpace(userName) == "" {
		userName = "user"
	}

	cacheKey := cache.Key(userName, journalText)
	if s.cache != nil {
		var cached ProcessResult
		hit, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			log.Printf("process: cache lookup: %v", err)
		} else if hit {
			cached.Cached = true
			return &cached, nil
		}
	}

	events, plan, err := s.synth.Synthesize(ctx, journalText, userName)
	if err != nil {
		return nil, domainError(http.StatusBadGateway, "SYNTHESIZER_ERROR", "Event synthesis failed", nil)
	}
	if len(events) == 0 {
		return nil, validationError("no events could be extracted from the journal")
	}

	builtAt := s.now().UTC()
	repoName := util.RepoName(userName, builtAt)
	repoPath := filepath.Join(s.reposDir, repoName)

	engine, err := gitrepo.Init(repoPath, userName)
	if err != nil {
		return nil, fmt.Errorf("init repository: %w", err)
	}

	meta, err := graph.Build(engine, events, plan)
	if err != nil {
		if errors.Is(err, graph.ErrNoEvents) {
			return nil, validationError("no events could be extracted from the journal")
		}
		if errors.Is(err, timeline.ErrInvalidTimeline) {
			return nil, validationError(err.Error())
		}
		return nil, domainError(http.StatusInternalServerError, "BUILD_FAILED", err.Error(), nil)
	}

	g, err := graph.Read(engine, meta)
	if err != nil {
		return nil, fmt.Errorf("read graph: %w", err)
	}

	s.persistBuild(ctx, repoName, userName, builtAt, events, g)

	if s.archive != nil {
		if _, err := s.archive.Package(ctx, repoPath, repoName); err != nil {
			log.Printf("process: package %s: %v", repoName, err)
		}
	}

	result := &ProcessResult{
		RepoName:    repoName,
		Author:      userName,
		Graph:       g,
		DownloadURL: "/api/download/" + repoName,
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, result); err != nil {
			log.Printf("process: cache save: %v", err)
		}
	}
	return result, nil
}

// persistBuild records the build in Postgres and pushes its commits to the
// search index. Both are supplemental to the repository on disk, so failures
// degrade rather than abort.
func (s *Service) persistBuild(ctx context.Context, repoName, author string, builtAt time.Time, events []timeline.Event, g *graph.Graph) {
	build := store.BuildRecord{
		ID:          util.NewID("build"),
		RepoName:    repoName,
		Author:      author,
		EventCount:  len(events),
		BranchCount: g.BranchCount,
		CommitCount: g.CommitCount,
		CreatedAt:   builtAt,
	}

	buildEvents := make([]store.BuildEvent, 0, len(events))
	searchRecords := make([]search.CommitRecord, 0, len(events))
	for i, ev := range events {
		buildEvents = append(buildEvents, store.BuildEvent{
			BuildID:       build.ID,
			OriginalIndex: i,
			EventDate:     ev.Date,
			CommitMessage: ev.CommitMessage,
			Keyword:       ev.Keyword,
			Description:   ev.Description,
		})
		searchRecords = append(searchRecords, search.CommitRecord{
			ID:            fmt.Sprintf("%s_%d", build.ID, i),
			RepoName:      repoName,
			CommitMessage: ev.CommitMessage,
			Description:   ev.Description,
			Keyword:       ev.Keyword,
			EventDate:     ev.Date,
		})
	}

	if err := s.store.SaveBuild(ctx, build, buildEvents); err != nil {
		log.Printf("process: save build %s: %v", repoName, err)
		return
	}
	if s.search != nil {
		s.search.IndexBuild(repoName, searchRecords)
	}
}

// GetGraph reloads a previously built repository and reconstructs its graph.
func (s *Service) GetGraph(ctx context.Context, repoName string) (*graph.Graph, error) {
	repoPath, err := s.repoPath(repoName)
	if err != nil {
		return nil, err
	}

	repo, err := gitrepo.Open(repoPath)
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", repoName, err)
	}
	meta, err := graph.LoadMetadata(repoPath)
	if err != nil {
		return nil, fmt.Errorf("load metadata %s: %w", repoName, err)
	}
	return graph.Read(repo, meta)
}

// Download returns a zip artifact stream for repoName, packaging on demand
// when no archive exists yet.
func (s *Service) Download(ctx context.Context, repoName string) (io.ReadCloser, error) {
	repoPath, pathErr := s.repoPath(repoName)

	if s.archive != nil {
		if rc, err := s.archive.Open(ctx, repoName); err == nil {
			return rc, nil
		}
	}
	if pathErr != nil {
		return nil, pathErr
	}
	if s.archive == nil {
		return nil, notFoundError("Repository archive not found")
	}
	if _, err := s.archive.Package(ctx, repoPath, repoName); err != nil {
		return nil, fmt.Errorf("package %s: %w", repoName, err)
	}
	return s.archive.Open(ctx, repoName)
}

// SearchCommits searches the commits of one repository.
func (s *Service) SearchCommits(ctx context.Context, query, repoName string, limit int) (search.Response, error) {
	if strings.TrimSpace(query) == "" {
		return search.Response{}, validationError("q is required")
	}
	if _, err := s.repoPath(repoName); err != nil {
		return search.Response{}, err
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.search.Search(search.Query{Text: query, RepoName: repoName, Limit: limit}), nil
}

// ListBuilds returns the most recent builds.
func (s *Service) ListBuilds(ctx context.Context, limit int) ([]store.BuildRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.store.ListBuilds(ctx, limit)
}

// GetBuild resolves one build record from its repository name.
func (s *Service) GetBuild(ctx context.Context, repoName string) (store.BuildRecord, error) {
	if repoName == "" || !validRepoName(repoName) {
		return store.BuildRecord{}, notFoundError("Build not found")
	}
	return s.store.GetBuildByRepoName(ctx, repoName)
}

// Ping checks database connectivity.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// repoPath validates repoName and resolves it under the repos directory.
// Names are generated by util.RepoName, so anything outside [a-z0-9_] is
// rejected before it can escape the directory.
func (s *Service) repoPath(repoName string) (string, error) {
	if repoName == "" || !validRepoName(repoName) {
		return "", notFoundError("Repository not found")
	}
	repoPath := filepath.Join(s.reposDir, repoName)
	if info, err := os.Stat(repoPath); err != nil || !info.IsDir() {
		return "", notFoundError("Repository not found")
	}
	return repoPath, nil
}

func validRepoName(name string) bool {
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return true
}
