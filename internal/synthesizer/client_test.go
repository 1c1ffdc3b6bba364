package synthesizer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSynthesizeDecodesEventsAndPlan(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/synthesize" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"events": [
				{"description": "Moved to the coast.", "date": "2019-04-01", "commit_message": "Move to the coast", "keyword": "salt air"}
			],
			"branches": [
				{"name": "coast", "merges": true, "merge_message": "Settle down", "events_on_branch": [0, 1]}
			]
		}`))
	}))
	defer server.Close()

	client := New(server.URL, 5*time.Second)
	events, plan, err := client.Synthesize(context.Background(), "journal", "Avery")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if len(events) != 1 || events[0].CommitMessage != "Move to the coast" {
		t.Fatalf("unexpected events: %+v", events)
	}
	if len(plan) != 1 || plan[0].Name != "coast" || !plan[0].Merges {
		t.Fatalf("unexpected plan: %+v", plan)
	}
}

func TestSynthesizeMalformedPlanDegradesToEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"events": [{"description": "x", "date": "2020-01-01", "commit_message": "X"}],
			"branches": {"not": "a list"}
		}`))
	}))
	defer server.Close()

	client := New(server.URL, 5*time.Second)
	events, plan, err := client.Synthesize(context.Background(), "journal", "Avery")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events lost with malformed plan: %+v", events)
	}
	if len(plan) != 0 {
		t.Fatalf("expected empty plan, got %+v", plan)
	}
}

func TestSynthesizeUpstreamErrorPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(server.URL, 5*time.Second)
	if _, _, err := client.Synthesize(context.Background(), "journal", "Avery"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
