package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nao1215/docsearch/internal/config"
	"github.com/nao1215/docsearch/internal/crawler"
	"github.com/nao1215/docsearch/internal/database"
	"github.com/nao1215/docsearch/internal/log"
	"github.com/nao1215/docsearch/internal/metrics"
	"github.com/nao1215/docsearch/internal/model"
	"github.com/nao1215/docsearch/internal/report"
	"github.com/spf13/cobra"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [seed-url]",
		Short: "Crawl the documentation and write every help tag URL",
		Long: `Crawl fetches the seed page, follows every link that stays on the allowed
domains and writes each help tag as a fragment URL, one per line.

Each page is fetched at most once. Tags are written as soon as their page
has been scraped, so the output grows while the crawl runs. Press Ctrl+C to
stop early; the lines written so far are kept.

Examples:
  # Crawl the Neovim user manual into ./out.txt
  docsearch crawl

  # Crawl another seed and print the tags to stdout
  docsearch crawl -o - https://neovim.io/doc/user/options.html

  # Store the run for 'docsearch history' and write a Markdown summary
  docsearch crawl --db --summary summary.md

  # Expose Prometheus metrics while crawling
  docsearch crawl --metrics-addr 127.0.0.1:9090`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCrawlCmd,
	}

	// Crawl scope flags
	cmd.Flags().StringArrayP("domain", "d", nil,
		"Allowed domain (repeatable, default: the seed's host)")
	cmd.Flags().StringArray("ignore", nil,
		"URL path pattern that is never followed (repeatable, e.g. \"*.pdf\")")

	// Crawl behavior flags
	cmd.Flags().IntP("concurrency", "c", config.DefaultConcurrency,
		"Maximum number of pages fetched at once")
	cmd.Flags().Int("buffer", config.DefaultBufferSize,
		"Number of scraped pages buffered ahead of the writer")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum number of body bytes parsed per page")
	cmd.Flags().String("proxy", "",
		"Route requests through a SOCKS5 proxy (host:port)")

	// Scrape flags
	cmd.Flags().String("selector", config.DefaultTagSelector,
		"CSS selector of tag elements")
	cmd.Flags().Bool("tag-text", false,
		"Use the element text instead of its inner HTML as the tag")

	// Output flags
	cmd.Flags().StringP("output", "o", config.DefaultOutputPath,
		"Tag list path (\"-\" for stdout)")
	cmd.Flags().String("summary", "",
		"Write a crawl summary to this path (Markdown, or JSON for .json)")
	cmd.Flags().Bool("db", false,
		"Store the run in the SQLite database")
	cmd.Flags().String("db-dir", "",
		"Database directory (default: XDG data directory)")
	cmd.Flags().String("metrics-addr", "",
		"Serve Prometheus metrics on this address while crawling")
	cmd.Flags().Bool("json-log", false,
		"Write logs as JSON")

	// Configuration file
	cmd.Flags().String("config", "",
		"Configuration file path (default: .docsearch in current or home directory)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(cmd.ErrOrStderr(), cfg.Verbose, cfg.JSONLog)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := runCrawl(ctx, cfg, logger)
	if summary != nil {
		writer := report.NewSimpleWriter(cmd.ErrOrStderr(), report.WithVerbose(cfg.Verbose))
		if _, werr := writer.WriteSummary(summary); werr != nil && err == nil {
			err = werr
		}
	}
	return err
}

// buildConfig layers defaults, the configuration file and the flags the
// user actually set, in that order.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicit --config must exist; otherwise a missing file is fine.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if len(args) > 0 {
		cfg.SeedURL = args[0]
	}

	if flags.Changed("domain") {
		if cfg.AllowedDomains, err = flags.GetStringArray("domain"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("ignore") {
		if cfg.IgnorePatterns, err = flags.GetStringArray("ignore"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("concurrency") {
		if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("buffer") {
		if cfg.BufferSize, err = flags.GetInt("buffer"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("user-agent") {
		if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-body-size") {
		if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("proxy") {
		if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("selector") {
		if cfg.TagSelector, err = flags.GetString("selector"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("tag-text") {
		if cfg.TagText, err = flags.GetBool("tag-text"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("output") {
		if cfg.OutputPath, err = flags.GetString("output"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("summary") {
		if cfg.SummaryFile, err = flags.GetString("summary"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("db") {
		if cfg.SaveToDB, err = flags.GetBool("db"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("db-dir") {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("metrics-addr") {
		if cfg.MetricsAddr, err = flags.GetString("metrics-addr"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("json-log") {
		if cfg.JSONLog, err = flags.GetBool("json-log"); err != nil {
			return nil, err
		}
	}

	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// newEngine wires the fetcher, scraper and domain filter described by cfg.
func newEngine(cfg *config.Config, logger *slog.Logger, recorder crawler.Recorder) (*crawler.Engine, error) {
	filter := crawler.NewDomainFilter(cfg.Domains()...).WithIgnorePatterns(cfg.IgnorePatterns)

	fetcherOpts := []crawler.FetcherOption{
		crawler.WithTimeout(cfg.Timeout),
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
		crawler.WithHeaders(cfg.Headers),
		crawler.WithRedirectFilter(filter),
	}
	if cfg.ProxyAddress != "" {
		fetcherOpts = append(fetcherOpts, crawler.WithSOCKS5Proxy(cfg.ProxyAddress))
	}
	fetcher, err := crawler.NewHTTPFetcher(fetcherOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}

	scraper, err := crawler.NewScraper(
		crawler.WithTagSelector(cfg.TagSelector),
		crawler.WithTagText(cfg.TagText),
		crawler.WithScraperLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scraper: %w", err)
	}

	engine := crawler.NewEngine(fetcher, scraper,
		crawler.WithDomainFilter(filter),
		crawler.WithConcurrency(cfg.Concurrency),
		crawler.WithBufferSize(cfg.BufferSize),
		crawler.WithLogger(logger),
		crawler.WithRecorder(recorder),
	)
	if err := engine.Visit(cfg.SeedURL); err != nil {
		return nil, err
	}
	return engine, nil
}

// runCrawl runs one crawl and returns its summary. The summary is non-nil
// whenever the crawl started, including when it was cancelled or a sink
// failed.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*model.Summary, error) {
	collector := metrics.NewCollector()

	engine, err := newEngine(cfg, logger, collector)
	if err != nil {
		return nil, err
	}
	collector.WatchEngine(engine.Stats)

	if cfg.MetricsAddr != "" {
		stopMetrics, err := startMetricsServer(ctx, cfg.MetricsAddr, collector, logger)
		if err != nil {
			return nil, err
		}
		defer stopMetrics()
	}

	lines, err := report.CreateLineWriter(cfg.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output: %w", err)
	}
	pages := report.NewCollector(report.DefaultTopPages)
	sinks := []report.Writer{lines, pages}

	summary := &model.Summary{
		Seed:           cfg.SeedURL,
		AllowedDomains: cfg.Domains(),
		StartedAt:      time.Now(),
		Output:         cfg.OutputPath,
	}

	// Stored results must survive a Ctrl+C so the partial run is usable.
	dbCtx := context.WithoutCancel(ctx)
	var (
		db    *database.TagDB
		runID int64
	)
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			_ = lines.Close() //nolint:errcheck // open error takes precedence
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		runID, err = db.BeginRun(dbCtx, summary.Seed, summary.AllowedDomains, summary.StartedAt)
		if err != nil {
			_ = lines.Close() //nolint:errcheck // insert error takes precedence
			return nil, fmt.Errorf("failed to start run: %w", err)
		}
		sinks = append(sinks, database.NewRunWriter(dbCtx, db, runID))
		logger.Debug("storing run", "runID", runID, "path", db.Path())
	}

	sink := report.NewMultiWriter(sinks...)
	writeErr := consume(ctx, engine, sink)
	closeErr := sink.Close()

	stats := engine.Stats()
	summary.FinishedAt = time.Now()
	summary.PagesScraped = stats.Scraped
	summary.PagesFailed = stats.Failed
	summary.PagesRedirected = stats.Redirected
	summary.URLsVisited = stats.Visited
	summary.Cancelled = ctx.Err() != nil || writeErr != nil
	pages.Fill(summary)

	var errs []error
	if writeErr != nil {
		errs = append(errs, fmt.Errorf("failed to write results: %w", writeErr))
	}
	if closeErr != nil {
		errs = append(errs, fmt.Errorf("failed to close output: %w", closeErr))
	}

	if db != nil {
		if err := db.FinishRun(dbCtx, runID, summary); err != nil {
			errs = append(errs, fmt.Errorf("failed to finish run: %w", err))
		}
	}

	if cfg.SummaryFile != "" {
		if err := report.WriteSummaryFile(cfg.SummaryFile, summary); err != nil {
			errs = append(errs, err)
		}
	}

	if ctx.Err() != nil && len(errs) == 0 {
		logger.Warn("crawl interrupted, output is partial", "tags", summary.TagsEmitted)
	}

	return summary, errors.Join(errs...)
}

// consume writes every result to sink in arrival order. The first write
// error cancels the crawl; the stream is still drained so that no worker
// is left blocked.
func consume(ctx context.Context, engine *crawler.Engine, sink report.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var writeErr error
	for result := range engine.Run(ctx) {
		if writeErr != nil {
			continue
		}
		if err := sink.Write(result); err != nil {
			writeErr = err
			cancel()
		}
	}
	return writeErr
}

// startMetricsServer serves collector on addr until the returned function
// is called.
func startMetricsServer(ctx context.Context, addr string, collector *metrics.Collector, logger *slog.Logger) (func(), error) {
	server, err := metrics.Listen(addr, collector)
	if err != nil {
		return nil, err
	}
	logger.Info("serving metrics", "addr", server.Addr())

	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := server.Serve(ctx); err != nil {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	return func() {
		cancel()
		<-done
	}, nil
}
