package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/docsearch/internal/config"
	"github.com/nao1215/docsearch/internal/database"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is the number of runs printed by --list.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
// It reads the runs stored by 'docsearch crawl --db'.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Compare and search stored crawl runs",
		Long: `History reads the runs stored by 'docsearch crawl --db'.

Without flags it compares the latest two runs and shows which tags were
added or removed. The comparison requires at least two stored runs.

Examples:
  # Compare the latest two runs
  docsearch history

  # List stored runs
  docsearch history --list

  # Compare the latest run with a specific run by ID
  docsearch history --with-run-id 3

  # Search the tags of the latest run
  docsearch history --search nowrap

  # Output the comparison in JSON format
  docsearch history --json`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list", "l", false,
		"List stored runs, newest first")
	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Maximum number of runs listed (0 for all)")

	cmd.Flags().Int64P("with-run-id", "i", 0,
		"Compare the latest run with this run (use --list to see available IDs)")

	cmd.Flags().StringP("search", "s", "",
		"Print the tag URLs whose tag contains this text")
	cmd.Flags().Int64("run-id", 0,
		"Run searched by --search (default: the latest run)")

	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().String("db-dir", "",
		"Database directory (default: XDG data directory)")

	return cmd
}

// historyOptions holds the parsed history flags.
type historyOptions struct {
	list       bool
	limit      int
	withRunID  int64
	search     string
	searchSet  bool
	runID      int64
	jsonOutput bool
	dbDir      string
}

func parseHistoryOptions(cmd *cobra.Command) (*historyOptions, error) {
	flags := cmd.Flags()
	opts := &historyOptions{}

	var err error
	if opts.list, err = flags.GetBool("list"); err != nil {
		return nil, err
	}
	if opts.limit, err = flags.GetInt("limit"); err != nil {
		return nil, err
	}
	if opts.withRunID, err = flags.GetInt64("with-run-id"); err != nil {
		return nil, err
	}
	if opts.search, err = flags.GetString("search"); err != nil {
		return nil, err
	}
	opts.searchSet = flags.Changed("search")
	if opts.runID, err = flags.GetInt64("run-id"); err != nil {
		return nil, err
	}
	if opts.jsonOutput, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if opts.dbDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	if opts.dbDir == "" {
		opts.dbDir = config.XDGDataDir()
	}

	if opts.list && opts.searchSet {
		return nil, errors.New("--list and --search cannot be used together")
	}
	if opts.searchSet && strings.TrimSpace(opts.search) == "" {
		return nil, errors.New("--search requires a non-empty term")
	}
	return opts, nil
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	// Validate flags before opening the database.
	opts, err := parseHistoryOptions(cmd)
	if err != nil {
		return err
	}

	db, err := database.Open(opts.dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case opts.list:
		return listRuns(ctx, out, db, opts)
	case opts.searchSet:
		return searchTags(ctx, out, db, opts)
	default:
		return compareRuns(ctx, out, db, opts)
	}
}

// listRuns prints stored runs, newest first.
func listRuns(ctx context.Context, out io.Writer, db *database.TagDB, opts *historyOptions) error {
	runs, err := db.ListRuns(ctx, opts.limit)
	if err != nil {
		return err
	}

	if opts.jsonOutput {
		return writeJSON(out, runsToJSON(runs))
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs found in the database.")
		fmt.Fprintln(out, "\nUse 'docsearch crawl --db' to store a run.")
		return nil
	}

	fmt.Fprintf(out, "Stored runs (%d):\n\n", len(runs))
	fmt.Fprintf(out, "  %-6s  %-20s  %-8s  %-8s  %s\n", "ID", "Date", "Pages", "Tags", "Status")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 60))
	for _, run := range runs {
		fmt.Fprintf(out, "  %-6d  %-20s  %-8d  %-8d  %s\n",
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.PagesScraped,
			run.TagsEmitted,
			runStatus(&run),
		)
	}

	fmt.Fprintln(out, "\nUse 'docsearch history' to compare the latest two runs.")
	fmt.Fprintln(out, "Use 'docsearch history --with-run-id <id>' to compare with a specific run.")
	return nil
}

// searchTags prints the tag URLs of one run that match the search term.
func searchTags(ctx context.Context, out io.Writer, db *database.TagDB, opts *historyOptions) error {
	runID := opts.runID
	if runID == 0 {
		latest, err := latestRuns(ctx, db, 1)
		if err != nil {
			return err
		}
		runID = latest[0].ID
	}

	urls, err := db.SearchTags(ctx, runID, opts.search)
	if err != nil {
		return err
	}

	if opts.jsonOutput {
		if urls == nil {
			urls = []string{}
		}
		return writeJSON(out, urls)
	}
	if len(urls) == 0 {
		return fmt.Errorf("no tags matching %q in run %d", opts.search, runID)
	}
	for _, u := range urls {
		fmt.Fprintln(out, u)
	}
	return nil
}

// runSnapshot is the JSON form of a stored run.
type runSnapshot struct {
	ID           int64     `json:"id"`
	Seed         string    `json:"seed"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at,omitzero"`
	PagesScraped int       `json:"pages_scraped"`
	PagesFailed  int       `json:"pages_failed"`
	TagsEmitted  int       `json:"tags_emitted"`
	Cancelled    bool      `json:"cancelled"`
}

func newRunSnapshot(run *database.Run) runSnapshot {
	return runSnapshot{
		ID:           run.ID,
		Seed:         run.Seed,
		StartedAt:    run.StartedAt,
		FinishedAt:   run.FinishedAt,
		PagesScraped: run.PagesScraped,
		PagesFailed:  run.PagesFailed,
		TagsEmitted:  run.TagsEmitted,
		Cancelled:    run.Cancelled,
	}
}

func runsToJSON(runs []database.Run) []runSnapshot {
	snapshots := make([]runSnapshot, 0, len(runs))
	for i := range runs {
		snapshots = append(snapshots, newRunSnapshot(&runs[i]))
	}
	return snapshots
}

// ComparisonResult holds the difference between two stored runs.
type ComparisonResult struct {
	// PreviousRun is the older side of the comparison.
	PreviousRun runSnapshot `json:"previous_run"`

	// CurrentRun is the newer side of the comparison.
	CurrentRun runSnapshot `json:"current_run"`

	// Added lists tag URLs present only in the current run.
	Added []string `json:"added"`

	// Removed lists tag URLs present only in the previous run.
	Removed []string `json:"removed"`

	// UnchangedCount is the number of tag URLs found in both runs.
	UnchangedCount int `json:"unchanged_count"`
}

// compareRuns compares the latest run with the previous one, or with
// --with-run-id when given.
func compareRuns(ctx context.Context, out io.Writer, db *database.TagDB, opts *historyOptions) error {
	var current, previous *database.Run

	if opts.withRunID > 0 {
		latest, err := latestRuns(ctx, db, 1)
		if err != nil {
			return err
		}
		current = &latest[0]

		previous, err = db.GetRun(ctx, opts.withRunID)
		if err != nil {
			return fmt.Errorf("failed to get run with ID %d: %w", opts.withRunID, err)
		}
		if previous.ID == current.ID {
			return fmt.Errorf("run %d is the latest run; choose an older run to compare with", previous.ID)
		}
	} else {
		latest, err := latestRuns(ctx, db, 2)
		if err != nil {
			return err
		}
		if len(latest) < 2 {
			return fmt.Errorf("at least 2 runs are required for comparison (found %d)", len(latest))
		}
		current, previous = &latest[0], &latest[1]
	}

	diff, err := db.CompareRuns(ctx, previous.ID, current.ID)
	if err != nil {
		return err
	}

	result := &ComparisonResult{
		PreviousRun:    newRunSnapshot(previous),
		CurrentRun:     newRunSnapshot(current),
		Added:          nonNil(diff.Added),
		Removed:        nonNil(diff.Removed),
		UnchangedCount: diff.Unchanged,
	}

	if opts.jsonOutput {
		return writeJSON(out, result)
	}
	writeComparisonText(out, result)
	return nil
}

// latestRuns returns up to n newest runs, or an error if there are none.
func latestRuns(ctx context.Context, db *database.TagDB, n int) ([]database.Run, error) {
	runs, err := db.ListRuns(ctx, n)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, errors.New("no runs found in the database (use 'docsearch crawl --db' to store one)")
	}
	return runs, nil
}

// writeComparisonText outputs the comparison in human-readable text format.
func writeComparisonText(out io.Writer, result *ComparisonResult) {
	fmt.Fprintf(out, "Run Comparison: #%d -> #%d\n", result.PreviousRun.ID, result.CurrentRun.ID)
	fmt.Fprintln(out, strings.Repeat("=", 60))

	fmt.Fprintf(out, "\nPrevious run: %s  (%d tags)\n",
		result.PreviousRun.StartedAt.Local().Format("2006-01-02 15:04:05"), result.PreviousRun.TagsEmitted)
	fmt.Fprintf(out, "Current run:  %s  (%d tags)\n",
		result.CurrentRun.StartedAt.Local().Format("2006-01-02 15:04:05"), result.CurrentRun.TagsEmitted)

	fmt.Fprintf(out, "\n  Added:     %d\n", len(result.Added))
	fmt.Fprintf(out, "  Removed:   %d\n", len(result.Removed))
	fmt.Fprintf(out, "  Unchanged: %d\n", result.UnchangedCount)

	if len(result.Added) > 0 {
		fmt.Fprintln(out, "\nAdded tags:")
		for _, u := range result.Added {
			fmt.Fprintf(out, "  + %s\n", u)
		}
	}
	if len(result.Removed) > 0 {
		fmt.Fprintln(out, "\nRemoved tags:")
		for _, u := range result.Removed {
			fmt.Fprintf(out, "  - %s\n", u)
		}
	}
	if len(result.Added) == 0 && len(result.Removed) == 0 {
		fmt.Fprintln(out, "\nNo changes.")
	}
}

func runStatus(run *database.Run) string {
	switch {
	case !run.Finished():
		return "incomplete"
	case run.Cancelled:
		return "cancelled"
	default:
		return "complete"
	}
}

func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
