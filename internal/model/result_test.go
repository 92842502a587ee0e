package model

import (
	"net/url"
	"testing"
	"time"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse %q: %v", raw, err)
	}
	return u
}

// TestNewResult tests tag deduplication and ordering.
func TestNewResult(t *testing.T) {
	t.Parallel()

	t.Run("removes duplicate tags", func(t *testing.T) {
		t.Parallel()

		page := mustParse(t, "https://neovim.io/doc/user/intro.html")
		tags := []*url.URL{
			mustParse(t, "https://neovim.io/doc/user/intro.html#intro"),
			mustParse(t, "https://neovim.io/doc/user/intro.html#intro"),
			mustParse(t, "https://neovim.io/doc/user/intro.html#nvim"),
		}

		result := NewResult(page, tags)

		if len(result.Tags) != 2 {
			t.Fatalf("expected 2 tags, got %d: %v", len(result.Tags), result.TagStrings())
		}
	})

	t.Run("sorts tags by string form", func(t *testing.T) {
		t.Parallel()

		page := mustParse(t, "https://neovim.io/doc/user/intro.html")
		tags := []*url.URL{
			mustParse(t, "https://neovim.io/doc/user/intro.html#zzz"),
			mustParse(t, "https://neovim.io/doc/user/intro.html#aaa"),
		}

		got := NewResult(page, tags).TagStrings()

		want := []string{
			"https://neovim.io/doc/user/intro.html#aaa",
			"https://neovim.io/doc/user/intro.html#zzz",
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("tag %d: got %q, want %q", i, got[i], want[i])
			}
		}
	})

	t.Run("empty tag set is allowed", func(t *testing.T) {
		t.Parallel()

		result := NewResult(mustParse(t, "https://neovim.io/"), nil)
		if result.Tags == nil || len(result.Tags) != 0 {
			t.Errorf("expected empty non-nil tags, got %v", result.Tags)
		}
	})
}

// TestTagString tests the line form of tag URLs.
func TestTagString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tag  string
		want string
	}{
		{"plain fragment", "https://neovim.io/doc/user/intro.html#intro", "https://neovim.io/doc/user/intro.html#intro"},
		{"encoded fragment", "https://neovim.io/doc/user/options.html#%27ts%27", "https://neovim.io/doc/user/options.html#%27ts%27"},
		{"empty fragment", "https://neovim.io/doc/user/intro.html#", "https://neovim.io/doc/user/intro.html#"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TagString(mustParse(t, tt.tag)); got != tt.want {
				t.Errorf("TagString() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestSummaryDuration tests the run duration helper.
func TestSummaryDuration(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &Summary{StartedAt: start, FinishedAt: start.Add(90 * time.Second)}
	if s.Duration() != 90*time.Second {
		t.Errorf("expected 90s, got %s", s.Duration())
	}

	if (&Summary{}).Duration() != 0 {
		t.Error("expected zero duration for unfinished summary")
	}
}
