// Package timeline holds the pure input side of a life-repo build: the
// event model, branch-plan validation, and chronological sequencing.
package timeline

import (
	"fmt"
	"time"
)

// Event is one narrative moment extracted from journal text. Events are
// immutable once they enter a build; OriginalIndex is the stable identity
// used to cross-reference events against a branch plan.
type Event struct {
	Description   string `json:"description"`
	Date          string `json:"date"`
	CommitMessage string `json:"commit_message"`
	Keyword       string `json:"keyword,omitempty"`
	OriginalIndex int    `json:"-"`
}

// ParseDate resolves the event's calendar date. Dates carry no time of day;
// they are anchored at midnight UTC so commit timestamps sort by day.
func (e Event) ParseDate() (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, e.Date, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("event %d: unparseable date %q: %w", e.OriginalIndex, e.Date, err)
	}
	return t, nil
}
