package timeline

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrInvalidTimeline marks input that cannot form a timeline at all: an
// empty event list, or an event whose date does not parse.
var ErrInvalidTimeline = errors.New("invalid timeline input")

// SequencedEvent is an event placed on the sorted timeline, its date already
// resolved.
type SequencedEvent struct {
	Event
	When time.Time
}

// Sequence orders events ascending by date while keeping each event's
// OriginalIndex intact. The sort is stable: events sharing a date keep their
// original relative order, so downstream branch opening and merging see one
// deterministic sequence.
//
// An unparseable date fails the whole sequence; date normalization belongs to
// the synthesizer, not here.
func Sequence(events []Event) ([]SequencedEvent, error) {
	if len(events) == 0 {
		return nil, fmt.Errorf("%w: no events to sequence", ErrInvalidTimeline)
	}

	sequenced := make([]SequencedEvent, 0, len(events))
	for i, event := range events {
		event.OriginalIndex = i
		when, err := event.ParseDate()
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidTimeline, err)
		}
		sequenced = append(sequenced, SequencedEvent{Event: event, When: when})
	}

	sort.SliceStable(sequenced, func(i, j int) bool {
		return sequenced[i].When.Before(sequenced[j].When)
	})
	return sequenced, nil
}
