// Package gitrepo wraps go-git behind the narrow operation set the graph
// builder is allowed to use: init, branch creation, checkout, stage, commit
// with explicit timestamps, two-parent merge, and whole-graph listing.
// Branch membership of a commit is deliberately not exposed here; that is
// the graph metadata's job.
package gitrepo

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// MainBranch is the integration line every build starts on and returns to.
const MainBranch = "main"

// CommitRecord is the engine-side view of one commit: identity, message,
// timestamp, and parent chain. Branch labels live out-of-band.
type CommitRecord struct {
	ID        string
	Message   string
	When      time.Time
	ParentIDs []string
}

// IsMerge reports whether the commit has two parents.
func (c CommitRecord) IsMerge() bool {
	return len(c.ParentIDs) > 1
}

// Repo is a handle on one life repository. It is not safe for concurrent
// mutation; the builder owns it exclusively for the duration of a build.
type Repo struct {
	path   string
	repo   *git.Repository
	author string
	email  string
}

// Init creates a new repository at path with HEAD pointing at main. No
// commit is made; the builder's initializing commit comes first.
func Init(path, author string) (*Repo, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create repo dir: %w", err)
	}
	repo, err := git.PlainInit(path, false)
	if err != nil {
		return nil, fmt.Errorf("init repo: %w", err)
	}
	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(MainBranch))
	if err := repo.Storer.SetReference(head); err != nil {
		return nil, fmt.Errorf("set HEAD to %s: %w", MainBranch, err)
	}
	return &Repo{path: path, repo: repo, author: author, email: authorEmail(author)}, nil
}

// Open opens an existing repository for reading.
func Open(path string) (*Repo, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}
	return &Repo{path: path, repo: repo, author: "reader", email: authorEmail("reader")}, nil
}

func (r *Repo) Path() string {
	return r.path
}

// CreateBranch creates branch name at the tip of from and checks it out.
// Creating a branch that already exists is an error; the builder never
// opens the same narrative thread twice.
func (r *Repo) CreateBranch(name, from string) error {
	branchRef := plumbing.NewBranchReferenceName(name)
	if _, err := r.repo.Reference(branchRef, true); err == nil {
		return fmt.Errorf("branch %s already exists", name)
	}
	fromRef, err := r.repo.Reference(plumbing.NewBranchReferenceName(from), true)
	if err != nil {
		return fmt.Errorf("resolve source branch %s: %w", from, err)
	}
	if err := r.repo.Storer.SetReference(plumbing.NewHashReference(branchRef, fromRef.Hash())); err != nil {
		return fmt.Errorf("create branch ref %s: %w", name, err)
	}
	return r.Checkout(name)
}

// Checkout switches the worktree to an existing branch.
func (r *Repo) Checkout(branch string) error {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}
	branchRef := plumbing.NewBranchReferenceName(branch)
	if err := worktree.Checkout(&git.CheckoutOptions{Branch: branchRef, Force: true}); err != nil {
		return fmt.Errorf("checkout branch %s: %w", branch, err)
	}
	return nil
}

// StageFile writes contents into the worktree and stages it.
func (r *Repo) StageFile(name string, contents []byte) error {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}
	if err := os.WriteFile(filepath.Join(r.path, name), contents, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if _, err := worktree.Add(name); err != nil {
		return fmt.Errorf("git add %s: %w", name, err)
	}
	return nil
}

// Commit records the staged state on the current branch. Author and
// committer timestamps are both forced to when, so graph ordering by
// timestamp matches narrative chronology.
func (r *Repo) Commit(message string, when time.Time) (string, error) {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("open worktree: %w", err)
	}
	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author:    r.signature(when),
		Committer: r.signature(when),
	})
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return hash.String(), nil
}

// Merge folds source into the currently checked-out target branch with a
// two-parent commit at the given timestamp. Event files never collide, so
// the merged tree is the plain union of both tips: any file present at the
// source tip but absent from the worktree is copied over and staged.
func (r *Repo) Merge(target, source, message string, when time.Time) (string, error) {
	targetRef, err := r.repo.Reference(plumbing.NewBranchReferenceName(target), true)
	if err != nil {
		return "", fmt.Errorf("resolve target branch %s: %w", target, err)
	}
	sourceRef, err := r.repo.Reference(plumbing.NewBranchReferenceName(source), true)
	if err != nil {
		return "", fmt.Errorf("resolve source branch %s: %w", source, err)
	}
	sourceTip, err := r.repo.CommitObject(sourceRef.Hash())
	if err != nil {
		return "", fmt.Errorf("load source tip: %w", err)
	}

	worktree, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("open worktree: %w", err)
	}
	files, err := sourceTip.Files()
	if err != nil {
		return "", fmt.Errorf("list source tip files: %w", err)
	}
	err = files.ForEach(func(f *object.File) error {
		dest := filepath.Join(r.path, f.Name)
		if _, statErr := os.Stat(dest); statErr == nil {
			return nil
		} else if !errors.Is(statErr, os.ErrNotExist) {
			return fmt.Errorf("stat %s: %w", f.Name, statErr)
		}
		reader, err := f.Reader()
		if err != nil {
			return fmt.Errorf("open %s from source tip: %w", f.Name, err)
		}
		defer reader.Close()
		contents, err := io.ReadAll(reader)
		if err != nil {
			return fmt.Errorf("read %s from source tip: %w", f.Name, err)
		}
		if err := os.WriteFile(dest, contents, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f.Name, err)
		}
		if _, err := worktree.Add(f.Name); err != nil {
			return fmt.Errorf("git add %s: %w", f.Name, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author:            r.signature(when),
		Committer:         r.signature(when),
		Parents:           []plumbing.Hash{targetRef.Hash(), sourceRef.Hash()},
		AllowEmptyCommits: true,
	})
	if err != nil {
		return "", fmt.Errorf("merge commit: %w", err)
	}
	return hash.String(), nil
}

// Branches lists local branch names, main first when present.
func (r *Repo) Branches() ([]string, error) {
	iter, err := r.repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	defer iter.Close()

	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate branches: %w", err)
	}
	for i, name := range names {
		if name == MainBranch && i != 0 {
			names[0], names[i] = names[i], names[0]
			break
		}
	}
	return names, nil
}

// BranchTip returns the commit id at the tip of a branch.
func (r *Repo) BranchTip(branch string) (string, error) {
	ref, err := r.repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		return "", fmt.Errorf("resolve branch %s: %w", branch, err)
	}
	return ref.Hash().String(), nil
}

// ListAllCommits returns every commit reachable from any local branch ref,
// in no particular order. Callers impose their own ordering; the engine's
// native walk interleaves multiple tips non-deterministically.
func (r *Repo) ListAllCommits() ([]CommitRecord, error) {
	branches, err := r.Branches()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var records []CommitRecord
	for _, branch := range branches {
		_, err := r.walkBranch(branch, func(c *object.Commit) {
			id := c.Hash.String()
			if seen[id] {
				return
			}
			seen[id] = true
			records = append(records, toRecord(c))
		})
		if err != nil {
			return nil, err
		}
	}
	return records, nil
}

// ReachableFrom returns the set of commit ids reachable from a branch tip.
// Used only by the reader's degraded heuristic path.
func (r *Repo) ReachableFrom(branch string) (map[string]bool, error) {
	return r.walkBranch(branch, nil)
}

func (r *Repo) walkBranch(branch string, visit func(*object.Commit)) (map[string]bool, error) {
	tip, err := r.repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		return nil, fmt.Errorf("resolve branch %s: %w", branch, err)
	}
	iter, err := r.repo.Log(&git.LogOptions{From: tip.Hash()})
	if err != nil {
		return nil, fmt.Errorf("log %s: %w", branch, err)
	}
	defer iter.Close()

	reachable := make(map[string]bool)
	err = iter.ForEach(func(c *object.Commit) error {
		reachable[c.Hash.String()] = true
		if visit != nil {
			visit(c)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate log %s: %w", branch, err)
	}
	return reachable, nil
}

func (r *Repo) signature(when time.Time) *object.Signature {
	return &object.Signature{Name: r.author, Email: r.email, When: when}
}

func toRecord(c *object.Commit) CommitRecord {
	parents := make([]string, 0, c.NumParents())
	for _, p := range c.ParentHashes {
		parents = append(parents, p.String())
	}
	return CommitRecord{
		ID:        c.Hash.String(),
		Message:   strings.TrimSpace(c.Message),
		When:      c.Author.When.UTC(),
		ParentIDs: parents,
	}
}

func authorEmail(author string) string {
	cleaned := make([]rune, 0, len(author))
	for _, r := range author {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			cleaned = append(cleaned, r)
		case r == ' ' || r == '-' || r == '_':
			cleaned = append(cleaned, '.')
		}
	}
	if len(cleaned) == 0 {
		return "author@commits.local"
	}
	return strings.ToLower(string(cleaned)) + "@commits.local"
}
