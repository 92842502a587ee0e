package main

import (
	"context"
	"encoding/json"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/docsearch/internal/database"
	"github.com/nao1215/docsearch/internal/model"
)

const optionsPage = "https://neovim.io/doc/user/options.html"

// storeRun records a finished run whose tags are fragments of optionsPage.
func storeRun(t *testing.T, dbDir string, started time.Time, fragments ...string) int64 {
	t.Helper()

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	id, err := db.BeginRun(ctx, "https://neovim.io/doc/user", []string{"neovim.io"}, started)
	if err != nil {
		t.Fatalf("failed to begin run: %v", err)
	}

	page, err := url.Parse(optionsPage)
	if err != nil {
		t.Fatal(err)
	}
	tags := make([]*url.URL, 0, len(fragments))
	for _, f := range fragments {
		u, err := url.Parse(optionsPage + "#" + f)
		if err != nil {
			t.Fatal(err)
		}
		tags = append(tags, u)
	}
	if err := db.SaveResult(ctx, id, model.NewResult(page, tags)); err != nil {
		t.Fatalf("failed to save result: %v", err)
	}

	summary := &model.Summary{
		StartedAt:    started,
		FinishedAt:   started.Add(time.Second),
		PagesScraped: 1,
		URLsVisited:  1,
		TagsEmitted:  len(tags),
	}
	if err := db.FinishRun(ctx, id, summary); err != nil {
		t.Fatalf("failed to finish run: %v", err)
	}
	return id
}

// setupHistory stores three runs and returns the database directory and
// their IDs, oldest first.
func setupHistory(t *testing.T) (string, []int64) {
	t.Helper()

	dir := t.TempDir()
	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	ids := []int64{
		storeRun(t, dir, base, "%27tabstop%27", "%27ts%27"),
		storeRun(t, dir, base.Add(time.Hour), "%27tabstop%27", "%27ts%27", "%27expandtab%27"),
		storeRun(t, dir, base.Add(2*time.Hour), "%27tabstop%27", "%27expandtab%27", "%27shiftwidth%27"),
	}
	return dir, ids
}

func TestNewHistoryCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()
	if cmd.Use != "history" {
		t.Errorf("expected use 'history', got %q", cmd.Use)
	}

	flags := map[string]string{
		"list":        "l",
		"limit":       "n",
		"with-run-id": "i",
		"search":      "s",
		"run-id":      "",
		"json":        "j",
		"db-dir":      "",
	}
	for name, shorthand := range flags {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			t.Errorf("expected %s flag", name)
			continue
		}
		if flag.Shorthand != shorthand {
			t.Errorf("flag %s: expected shorthand %q, got %q", name, shorthand, flag.Shorthand)
		}
	}
}

func TestHistoryCompareLatest(t *testing.T) {
	t.Parallel()

	dir, ids := setupHistory(t)

	stdout, _, err := executeRoot(t, "history", "--db-dir", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"Run Comparison: #" + strconv.FormatInt(ids[1], 10) + " -> #" + strconv.FormatInt(ids[2], 10),
		"Added:     1",
		"Removed:   1",
		"Unchanged: 2",
		"+ " + optionsPage + "#%27shiftwidth%27",
		"- " + optionsPage + "#%27ts%27",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected output to contain %q\n%s", want, stdout)
		}
	}
}

func TestHistoryCompareWithRunID(t *testing.T) {
	t.Parallel()

	dir, ids := setupHistory(t)

	stdout, _, err := executeRoot(t, "history", "--db-dir", dir, "--json",
		"--with-run-id", strconv.FormatInt(ids[0], 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var result ComparisonResult
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout)
	}
	if result.PreviousRun.ID != ids[0] || result.CurrentRun.ID != ids[2] {
		t.Errorf("compared #%d -> #%d, want #%d -> #%d",
			result.PreviousRun.ID, result.CurrentRun.ID, ids[0], ids[2])
	}
	wantAdded := []string{optionsPage + "#%27expandtab%27", optionsPage + "#%27shiftwidth%27"}
	if !slices.Equal(result.Added, wantAdded) {
		t.Errorf("Added = %v, want %v", result.Added, wantAdded)
	}
	if !slices.Equal(result.Removed, []string{optionsPage + "#%27ts%27"}) {
		t.Errorf("Removed = %v", result.Removed)
	}
	if result.UnchangedCount != 1 {
		t.Errorf("UnchangedCount = %d, want 1", result.UnchangedCount)
	}
}

func TestHistoryList(t *testing.T) {
	t.Parallel()

	dir, ids := setupHistory(t)

	t.Run("text", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := executeRoot(t, "history", "--db-dir", dir, "--list")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "Stored runs (3)") {
			t.Errorf("expected run count in output\n%s", stdout)
		}
		if !strings.Contains(stdout, "complete") {
			t.Errorf("expected run status in output\n%s", stdout)
		}
	})

	t.Run("json with limit", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := executeRoot(t, "history", "--db-dir", dir, "-l", "-n", "2", "-j")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var runs []runSnapshot
		if err := json.Unmarshal([]byte(stdout), &runs); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, stdout)
		}
		if len(runs) != 2 {
			t.Fatalf("expected 2 runs, got %d", len(runs))
		}
		if runs[0].ID != ids[2] || runs[1].ID != ids[1] {
			t.Errorf("expected newest first, got #%d, #%d", runs[0].ID, runs[1].ID)
		}
	})
}

func TestHistorySearch(t *testing.T) {
	t.Parallel()

	dir, ids := setupHistory(t)

	t.Run("latest run", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := executeRoot(t, "history", "--db-dir", dir, "--search", "width")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.TrimSpace(stdout) != optionsPage+"#%27shiftwidth%27" {
			t.Errorf("unexpected search output %q", stdout)
		}
	})

	t.Run("specific run", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := executeRoot(t, "history", "--db-dir", dir, "-s", "ts",
			"--run-id", strconv.FormatInt(ids[0], 10), "-j")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var urls []string
		if err := json.Unmarshal([]byte(stdout), &urls); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, stdout)
		}
		if !slices.Equal(urls, []string{optionsPage + "#%27ts%27"}) {
			t.Errorf("unexpected search result %v", urls)
		}
	})

	t.Run("no match", func(t *testing.T) {
		t.Parallel()

		_, _, err := executeRoot(t, "history", "--db-dir", dir, "--search", "nomatch")
		if err == nil || !strings.Contains(err.Error(), "no tags matching") {
			t.Errorf("expected no match error, got %v", err)
		}
	})
}

func TestHistoryErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		runs    int
		args    []string
		wantMsg string
	}{
		{
			name:    "empty database",
			args:    []string{"history"},
			wantMsg: "no runs found",
		},
		{
			name:    "single run",
			runs:    1,
			args:    []string{"history"},
			wantMsg: "at least 2 runs are required",
		},
		{
			name:    "unknown run id",
			runs:    1,
			args:    []string{"history", "--with-run-id", "99"},
			wantMsg: "run not found",
		},
		{
			name:    "compare latest with itself",
			runs:    1,
			args:    []string{"history", "--with-run-id", "1"},
			wantMsg: "is the latest run",
		},
		{
			name:    "list and search",
			args:    []string{"history", "--list", "--search", "x"},
			wantMsg: "cannot be used together",
		},
		{
			name:    "empty search term",
			args:    []string{"history", "--search", " "},
			wantMsg: "non-empty term",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			for i := range tt.runs {
				storeRun(t, dir, time.Now().Add(time.Duration(i)*time.Minute), "%27ts%27")
			}

			_, _, err := executeRoot(t, append(tt.args, "--db-dir", dir)...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected error containing %q, got %v", tt.wantMsg, err)
			}
		})
	}
}
