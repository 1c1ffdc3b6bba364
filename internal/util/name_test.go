package util

import (
	"testing"
	"time"
)

func TestSafeName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Alex Smith", "alex_smith"},
		{"  alex  ", "alex"},
		{"Ada-Lovelace!", "ada_lovelace"},
		{"user42", "user42"},
		{"---", "user"},
		{"", "user"},
	}
	for _, c := range cases {
		if got := SafeName(c.in); got != c.want {
			t.Errorf("SafeName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRepoName(t *testing.T) {
	at := time.Date(2024, 1, 1, 15, 30, 0, 0, time.UTC)
	if got := RepoName("Alex Smith", at); got != "alex_smith_life_20240101_153000" {
		t.Errorf("RepoName = %q", got)
	}
}

func TestNewIDPrefix(t *testing.T) {
	id := NewID("build")
	if len(id) != len("build_")+32 {
		t.Errorf("unexpected id length: %q", id)
	}
	if NewID("build") == id {
		t.Error("ids should be unique")
	}
}
