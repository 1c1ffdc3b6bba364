package graph

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"commitlife/api/internal/gitrepo"
	"commitlife/api/internal/timeline"
)

// ErrNoEvents is returned when a build is attempted with an empty event
// list; a repository cannot be created with no content.
var ErrNoEvents = errors.New("no events to build repository from")

// Engine is the capability surface the builder is allowed to touch. It is
// satisfied by *gitrepo.Repo; tests may substitute their own.
type Engine interface {
	Path() string
	CreateBranch(name, from string) error
	Checkout(branch string) error
	StageFile(name string, contents []byte) error
	Commit(message string, when time.Time) (string, error)
	Merge(target, source, message string, when time.Time) (string, error)
}

// builder is the state machine of one build: which ref is checked out,
// which branches exist, and which events each branch is still owed.
type builder struct {
	engine      Engine
	currentRef  string
	created     map[string]bool
	remaining   map[string]map[int]bool
	lookup      map[int]*timeline.BranchPlanEntry
	meta        *Metadata
	fileCounter int
}

// Build walks the sequenced timeline and constructs the commit graph:
// every event becomes exactly one commit, branches open at their
// chronologically first claimed event, and a branch merges back the moment
// its last event lands (unless the plan says it never does). The candidate
// plan is validated first, so overlapping or malformed entries degrade to
// main-line commits rather than failing the build.
//
// On any engine failure the partially-built repository directory is removed
// before the error propagates; a half-built branch graph is not worth
// salvaging. A metadata persist failure alone does not fail the build.
func Build(engine Engine, events []timeline.Event, candidates []timeline.BranchPlanEntry) (*Metadata, error) {
	if len(events) == 0 {
		return nil, discard(engine, ErrNoEvents)
	}

	sequenced, err := timeline.Sequence(events)
	if err != nil {
		return nil, discard(engine, err)
	}
	plan := timeline.ValidatePlan(candidates, len(events))

	b := &builder{
		engine:     engine,
		currentRef: gitrepo.MainBranch,
		created:    make(map[string]bool),
		remaining:  make(map[string]map[int]bool),
		lookup:     timeline.PlanLookup(plan),
		meta:       newMetadata(),
	}
	for _, entry := range plan {
		owed := make(map[int]bool, len(entry.EventsOnBranch))
		for _, idx := range entry.EventsOnBranch {
			owed[idx] = true
		}
		b.remaining[entry.Name] = owed
	}
	b.meta.BranchOrder = append(b.meta.BranchOrder, gitrepo.MainBranch)

	if err := b.run(sequenced); err != nil {
		return nil, discard(engine, err)
	}

	if err := b.meta.Save(engine.Path()); err != nil {
		// Degraded but available: commits exist, readers fall back to the
		// reachability heuristic.
		log.Printf("graph: metadata snapshot for %s not persisted: %v", engine.Path(), err)
	}
	return b.meta, nil
}

func (b *builder) run(sequenced []timeline.SequencedEvent) error {
	// The first commit anchors the integration line at the earliest
	// event's date so every later timestamp is non-decreasing.
	if err := b.engine.StageFile("README.md", []byte("# Life Story\n\nA git repository of life events.\n")); err != nil {
		return fmt.Errorf("stage baseline: %w", err)
	}
	initID, err := b.engine.Commit("Initialize life story", sequenced[0].When)
	if err != nil {
		return fmt.Errorf("initialize repository: %w", err)
	}
	b.meta.BranchMap[initID] = gitrepo.MainBranch

	for _, event := range sequenced {
		if err := b.place(event); err != nil {
			return err
		}
	}

	// Always hand the repository back parked on the integration line.
	if err := b.checkout(gitrepo.MainBranch); err != nil {
		return err
	}
	return nil
}

// place commits one sequenced event on its assigned line, opening or
// closing branches as required.
func (b *builder) place(event timeline.SequencedEvent) error {
	entry := b.lookup[event.OriginalIndex]
	if entry == nil {
		// Integration-line event. The explicit switch guarantees the
		// commit's parent is the previous integration-line commit, never
		// a dangling branch tip.
		if err := b.checkout(gitrepo.MainBranch); err != nil {
			return err
		}
		return b.commitEvent(event, gitrepo.MainBranch)
	}

	if !b.created[entry.Name] {
		if err := b.checkout(gitrepo.MainBranch); err != nil {
			return err
		}
		if err := b.engine.CreateBranch(entry.Name, gitrepo.MainBranch); err != nil {
			return fmt.Errorf("open branch %s: %w", entry.Name, err)
		}
		b.created[entry.Name] = true
		b.currentRef = entry.Name
		b.meta.BranchOrder = append(b.meta.BranchOrder, entry.Name)
	} else if err := b.checkout(entry.Name); err != nil {
		return err
	}

	if err := b.commitEvent(event, entry.Name); err != nil {
		return err
	}
	delete(b.remaining[entry.Name], event.OriginalIndex)

	if len(b.remaining[entry.Name]) == 0 && entry.Merges {
		return b.mergeBranch(entry, event.When)
	}
	return nil
}

func (b *builder) commitEvent(event timeline.SequencedEvent, branch string) error {
	b.fileCounter++
	name := fmt.Sprintf("event_%03d.md", b.fileCounter)
	contents := fmt.Sprintf("# %s\n\nDate: %s\n\n%s\n", event.CommitMessage, event.Date, event.Description)
	if err := b.engine.StageFile(name, []byte(contents)); err != nil {
		return fmt.Errorf("stage event %d: %w", event.OriginalIndex, err)
	}
	id, err := b.engine.Commit(event.CommitMessage, event.When)
	if err != nil {
		return fmt.Errorf("commit event %d: %w", event.OriginalIndex, err)
	}
	b.meta.BranchMap[id] = branch
	if event.Keyword != "" {
		b.meta.KeywordMap[id] = event.Keyword
	}
	return nil
}

// mergeBranch folds a completed branch back into main. The merge carries
// the timestamp of the branch's last event, so narratively the closure
// happens the moment the thread ends.
func (b *builder) mergeBranch(entry *timeline.BranchPlanEntry, when time.Time) error {
	if err := b.checkout(gitrepo.MainBranch); err != nil {
		return err
	}
	message := entry.MergeMessage
	if message == "" {
		message = fmt.Sprintf("Merge branch '%s'", entry.Name)
	}
	id, err := b.engine.Merge(gitrepo.MainBranch, entry.Name, message, when)
	if err != nil {
		return fmt.Errorf("merge branch %s: %w", entry.Name, err)
	}
	b.meta.BranchMap[id] = gitrepo.MainBranch
	b.meta.MergeCommits[id] = entry.Name
	return nil
}

// discard removes the repository directory after a failed build; nothing
// partial survives an InputError or an engine failure.
func discard(engine Engine, err error) error {
	if rmErr := os.RemoveAll(engine.Path()); rmErr != nil {
		log.Printf("graph: cleanup of %s after failed build: %v", engine.Path(), rmErr)
	}
	return err
}

func (b *builder) checkout(ref string) error {
	if b.currentRef == ref {
		return nil
	}
	if err := b.engine.Checkout(ref); err != nil {
		return fmt.Errorf("switch to %s: %w", ref, err)
	}
	b.currentRef = ref
	return nil
}
