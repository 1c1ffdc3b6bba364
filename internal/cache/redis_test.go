package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

type cachedPayload struct {
	RepoName    string `json:"repo_name"`
	CommitCount int    `json:"commit_count"`
}

func setupTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	c, err := New("redis://"+s.Addr(), time.Hour)
	if err != nil {
		t.Fatalf("failed to create redis cache: %v", err)
	}
	return c, s
}

func TestNewCachePings(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()

	c, err := New("redis://"+s.Addr(), time.Hour)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestSetAndGetRoundTrip(t *testing.T) {
	c, s := setupTestCache(t)
	defer c.Close()
	defer s.Close()

	ctx := context.Background()
	key := Key("alex", "I learned to ride a bike.")

	want := cachedPayload{RepoName: "alex_life_20240101_120000", CommitCount: 4}
	if err := c.Set(ctx, key, want); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var got cachedPayload
	hit, err := c.Get(ctx, key, &got)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !hit {
		t.Fatal("expected cache hit, got miss")
	}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestGetMiss(t *testing.T) {
	c, s := setupTestCache(t)
	defer c.Close()
	defer s.Close()

	var got cachedPayload
	hit, err := c.Get(context.Background(), "no-such-key", &got)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if hit {
		t.Error("expected miss for absent key, got hit")
	}
}

func TestEntryExpires(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()

	c, err := New("redis://"+s.Addr(), time.Millisecond)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	key := Key("alex", "journal")
	if err := c.Set(ctx, key, cachedPayload{RepoName: "r"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	s.FastForward(2 * time.Millisecond)

	var got cachedPayload
	hit, err := c.Get(ctx, key, &got)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if hit {
		t.Error("expected expired entry to miss")
	}
}

func TestKeyIsDeterministicAndScoped(t *testing.T) {
	a := Key("alex", "same text")
	b := Key("alex", "same text")
	if a != b {
		t.Errorf("same input produced different keys: %s vs %s", a, b)
	}
	if len(a) != 16 {
		t.Errorf("expected 16-char key, got %d chars", len(a))
	}

	if Key("alex", "same text") == Key("sam", "same text") {
		t.Error("different users should produce different keys")
	}
	if Key("alex", "text one") == Key("alex", "text two") {
		t.Error("different journals should produce different keys")
	}
}
