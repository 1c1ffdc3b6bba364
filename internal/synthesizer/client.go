// Package synthesizer is the client side of the external event synthesizer:
// the collaborator that turns free journal text into dated life events and
// a proposed branch plan. Everything language-model-shaped lives on the
// other side of this boundary.
package synthesizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"commitlife/api/internal/timeline"
)

// Client calls the synthesizer service over HTTP with a JSON contract.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type synthesizeRequest struct {
	JournalText string `json:"journal_text"`
	UserName    string `json:"user_name"`
}

// The branch plan is decoded leniently: a malformed or missing branches
// payload degrades to an empty plan (everything lands on the integration
// line) rather than failing the pipeline.
type synthesizeResponse struct {
	Events   []timeline.Event `json:"events"`
	Branches json.RawMessage  `json:"branches"`
}

// Synthesize submits journal text and returns the extracted events plus the
// proposed (not yet validated) branch plan.
func (c *Client) Synthesize(ctx context.Context, journalText, userName string) ([]timeline.Event, []timeline.BranchPlanEntry, error) {
	payload, err := json.Marshal(synthesizeRequest{JournalText: journalText, UserName: userName})
	if err != nil {
		return nil, nil, fmt.Errorf("marshal synthesize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/synthesize", bytes.NewReader(payload))
	if err != nil {
		return nil, nil, fmt.Errorf("build synthesize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("call synthesizer: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, nil, fmt.Errorf("read synthesizer response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("synthesizer returned %d", resp.StatusCode)
	}

	var decoded synthesizeResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, nil, fmt.Errorf("decode synthesizer response: %w", err)
	}

	return decoded.Events, decodeBranches(decoded.Branches), nil
}

func decodeBranches(raw json.RawMessage) []timeline.BranchPlanEntry {
	if len(raw) == 0 {
		return nil
	}
	var branches []timeline.BranchPlanEntry
	if err := json.Unmarshal(raw, &branches); err != nil {
		log.Printf("synthesizer: malformed branch plan, using empty plan: %v", err)
		return nil
	}
	return branches
}
