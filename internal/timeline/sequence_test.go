package timeline

import (
	"errors"
	"testing"
)

func TestSequenceSortsByDateKeepingIdentity(t *testing.T) {
	events := []Event{
		{CommitMessage: "Move to Berlin", Date: "2021-03-01"},
		{CommitMessage: "Start university", Date: "2019-09-01"},
		{CommitMessage: "Graduate", Date: "2023-06-15"},
	}

	sequenced, err := Sequence(events)
	if err != nil {
		t.Fatalf("Sequence() error = %v", err)
	}

	wantOrder := []int{1, 0, 2}
	for i, want := range wantOrder {
		if sequenced[i].OriginalIndex != want {
			t.Fatalf("position %d: expected original index %d, got %d", i, want, sequenced[i].OriginalIndex)
		}
	}
}

func TestSequenceStableOnEqualDates(t *testing.T) {
	events := []Event{
		{CommitMessage: "Morning", Date: "2020-01-01"},
		{CommitMessage: "Also that day", Date: "2020-01-01"},
		{CommitMessage: "Earlier year", Date: "2019-01-01"},
	}

	sequenced, err := Sequence(events)
	if err != nil {
		t.Fatalf("Sequence() error = %v", err)
	}
	if sequenced[0].OriginalIndex != 2 {
		t.Fatalf("expected earliest event first, got index %d", sequenced[0].OriginalIndex)
	}
	if sequenced[1].OriginalIndex != 0 || sequenced[2].OriginalIndex != 1 {
		t.Fatalf("equal dates must preserve input order, got %d then %d",
			sequenced[1].OriginalIndex, sequenced[2].OriginalIndex)
	}
}

func TestSequenceRejectsBadDates(t *testing.T) {
	events := []Event{
		{CommitMessage: "Fine", Date: "2020-01-01"},
		{CommitMessage: "Vague", Date: "sometime in spring"},
	}
	_, err := Sequence(events)
	if err == nil {
		t.Fatal("expected error for unparseable date")
	}
	if !errors.Is(err, ErrInvalidTimeline) {
		t.Errorf("expected ErrInvalidTimeline, got %v", err)
	}
}

func TestSequenceRejectsEmptyInput(t *testing.T) {
	_, err := Sequence(nil)
	if err == nil {
		t.Fatal("expected error for empty event list")
	}
	if !errors.Is(err, ErrInvalidTimeline) {
		t.Errorf("expected ErrInvalidTimeline, got %v", err)
	}
}
