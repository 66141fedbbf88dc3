package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"courtscrape/internal/backscrape"
	"courtscrape/internal/browser"
	"courtscrape/internal/config"
	"courtscrape/internal/fetcher"
	"courtscrape/internal/formatter"
	"courtscrape/internal/output"
	"courtscrape/internal/scraper"
	"courtscrape/internal/site"
	"courtscrape/internal/telemetry"
	_ "courtscrape/internal/sites/cadc"
	_ "courtscrape/internal/sites/fladistctapp1"
)

var version = "dev"

var (
	cfg *config.Config
	tel telemetry.Telemetry
)

var (
	outputFormat string
	outputFile   string
	allSites     bool
	listSites    bool
	backScrape   bool
	fromPeriod   string
	toPeriod     string
	fixturePath  string
	showUI       bool
	proxyURL     string
)

var rootCmd = &cobra.Command{
	Use:     "courtscrape [SITE...]",
	Short:   "Scrape court opinion and oral argument listings",
	Version: version,
	Long: `courtscrape downloads the listing pages of registered court sites and
turns them into case records: name, date, docket number, status and the
URL of the opinion or recording.`,
	Example: `  # Scrape this month's D.C. Circuit recordings
  courtscrape cadc

  # Scrape every registered site and save the records as CSV
  courtscrape --all -o records.csv

  # Walk the archive month by month
  courtscrape cadc --backscrape --from 201501 --to 201512 -f json

  # Parse a saved page instead of the live site
  courtscrape fladistctapp1 --fixture page.html`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		tel, err = telemetry.Setup(cmd.Context(), cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("init telemetry: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		flush()
	},
	RunE:         run,
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format (html, text, markdown, json, csv)")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (format inferred from extension if -f not specified)")
	rootCmd.Flags().BoolVar(&allSites, "all", false, "Scrape every registered site")
	rootCmd.Flags().BoolVar(&listSites, "list", false, "List registered sites and exit")
	rootCmd.Flags().BoolVar(&backScrape, "backscrape", false, "Scrape every historical period instead of the current one")
	rootCmd.Flags().StringVar(&fromPeriod, "from", "", "First period (YYYYMM) of a back-scrape")
	rootCmd.Flags().StringVar(&toPeriod, "to", "", "Last period (YYYYMM) of a back-scrape")
	rootCmd.Flags().StringVar(&fixturePath, "fixture", "", "Parse a saved page instead of fetching the site")
	rootCmd.Flags().BoolVar(&showUI, "showui", false, "Show browser UI (disable headless mode)")
	rootCmd.Flags().StringVarP(&proxyURL, "proxy", "p", "", "Proxy URL for headless sessions (overrides browser.proxy_url)")

	rootCmd.AddCommand(validateCmd)
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		// PersistentPostRun is skipped when a command fails.
		flush()
		os.Exit(1)
	}
}

// flush exports pending spans and syncs the logger. Calling it again is a
// no-op for telemetry.
func flush() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tel.Shutdown(ctx); err != nil {
		zap.L().Warn("telemetry shutdown failed", zap.Error(err))
	}
	tel = telemetry.Telemetry{}
	_ = zap.L().Sync()
}

func run(cmd *cobra.Command, args []string) error {
	if listSites {
		for _, name := range scraper.Names() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	}

	// If output file is specified but format is not, infer format from file extension
	if outputFile != "" && !cmd.Flags().Changed("format") {
		if inferred := formatter.FromExtension(outputFile); inferred != "" {
			outputFormat = inferred
		}
	}
	if err := validateFlags(args); err != nil {
		return err
	}

	defs, err := selectSites(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	dl, err := newDispatcher(cfg)
	if err != nil {
		return err
	}

	outcomes, failed := scrapeAll(ctx, defs, dl)

	content, err := formatter.Format(output.NewReport(outcomes), outputFormat)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed to write to file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Output written to: %s\n", outputFile)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), content)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d sites failed", failed, len(defs))
	}
	return nil
}

func validateFlags(args []string) error {
	if !slices.Contains(formatter.Formats, outputFormat) {
		return fmt.Errorf("invalid output format: %s", outputFormat)
	}
	if allSites && len(args) > 0 {
		return fmt.Errorf("--all cannot be combined with site names")
	}
	if !allSites && len(args) == 0 {
		return fmt.Errorf("name at least one site, or use --all (see --list)")
	}
	if fixturePath != "" && (backScrape || allSites || len(args) != 1) {
		return fmt.Errorf("--fixture needs exactly one site and no --backscrape")
	}
	if !backScrape && (fromPeriod != "" || toPeriod != "") {
		return fmt.Errorf("--from and --to are only valid with --backscrape")
	}
	for _, p := range []string{fromPeriod, toPeriod} {
		if p == "" {
			continue
		}
		if _, err := backscrape.ParsePeriod(p); err != nil {
			return err
		}
	}
	return nil
}

func selectSites(args []string) ([]scraper.Definition, error) {
	names := args
	if allSites {
		names = scraper.Names()
	}
	defs := make([]scraper.Definition, 0, len(names))
	for _, name := range names {
		d, ok := scraper.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown site: %s (registered: %s)", name, strings.Join(scraper.Names(), ", "))
		}
		defs = append(defs, d)
	}
	return defs, nil
}

func newDispatcher(cfg *config.Config) (*fetcher.Dispatcher, error) {
	direct, err := fetcher.NewHTTPFetcher(cfg.HTTP)
	if err != nil {
		return nil, err
	}

	proxy := cfg.Browser.ProxyURL
	if proxyURL != "" {
		proxy = proxyURL
	}
	headless := fetcher.NewBrowserFetcher(browser.Config{
		Headless:     cfg.Browser.Headless && !showUI,
		ProxyURL:     proxy,
		Bin:          cfg.Browser.Bin,
		ImplicitWait: cfg.Browser.ImplicitWait,
	}, nil)

	return &fetcher.Dispatcher{
		Direct:   direct,
		Headless: headless,
		Local:    fetcher.NewLocalFetcher(nil),
	}, nil
}

// scrapeAll runs each site concurrently. A failing site is logged and counted
// without stopping the others; outcomes keep the order of defs.
func scrapeAll(ctx context.Context, defs []scraper.Definition, dl fetcher.Downloader) ([]site.Outcome, int) {
	results := make([][]site.Outcome, len(defs))
	errs := make([]error, len(defs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Run.Concurrency, 1))

	for i, d := range defs {
		g.Go(func() error {
			results[i], errs[i] = scrapeSite(gctx, d, dl)
			if errs[i] != nil {
				zap.L().Error("site failed", zap.String("court_id", d.Name()), zap.Error(errs[i]))
			}
			return nil // don't abort other sites on individual failure
		})
	}
	_ = g.Wait()

	var outcomes []site.Outcome
	failed := 0
	for i := range defs {
		outcomes = append(outcomes, results[i]...)
		if errs[i] != nil {
			failed++
		}
	}
	return outcomes, failed
}

func scrapeSite(ctx context.Context, d scraper.Definition, dl fetcher.Downloader) ([]site.Outcome, error) {
	s, err := site.New(d.Config, dl)
	if err != nil {
		return nil, err
	}

	switch {
	case fixturePath != "":
		out, err := s.RunFixture(ctx, fixturePath)
		return []site.Outcome{out}, err
	case backScrape:
		cursor := s.BackScrapeCursor()
		if cursor.IsZero() {
			return nil, eris.Errorf("site %s has no back-scrape range", d.Name())
		}
		return s.BackScrape(ctx, clampCursor(cursor).Keys())
	default:
		out, err := s.Run(ctx)
		return []site.Outcome{out}, err
	}
}

// clampCursor applies --from and --to, which validateFlags has checked.
func clampCursor(c backscrape.Cursor) backscrape.Cursor {
	from, to := c.Start(), c.End()
	if fromPeriod != "" {
		from, _ = backscrape.ParsePeriod(fromPeriod)
	}
	if toPeriod != "" {
		to, _ = backscrape.ParsePeriod(toPeriod)
	}
	return c.Clamp(from, to)
}
