package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"courtscrape/internal/fetcher"
	"courtscrape/internal/harness"
	"courtscrape/internal/scraper"
	"courtscrape/internal/site"
)

var validateCmd = &cobra.Command{
	Use:   "validate [SITE...]",
	Short: "Run sites against their saved example pages",
	Long: `validate parses every saved example page of the named sites (all sites
when none are named) and times each run. Runs over the warn threshold are
flagged; runs over the max threshold fail unless a debugger is attached or
the lenient CI variable is set.`,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	names := args
	if len(names) == 0 {
		names = scraper.Names()
	}

	env := harness.DetectEnvironment(cfg.Harness.LenientEnv)
	guard := harness.NewGuard(cfg.Harness.WarnThreshold, cfg.Harness.MaxThreshold, env)
	zap.L().Debug("validation environment", zap.Bool("debugger", env.Debugger), zap.Bool("lenient_ci", env.LenientCI))

	var passed, failed int
	for _, name := range names {
		d, ok := scraper.Get(name)
		if !ok {
			return fmt.Errorf("unknown site: %s", name)
		}
		if d.Examples == nil {
			zap.L().Warn("site has no examples", zap.String("court_id", d.Name()))
			continue
		}

		files, err := harness.Examples(d.Examples)
		if err != nil {
			return err
		}
		s, err := site.New(d.Config, &fetcher.Dispatcher{Local: fetcher.NewLocalFetcher(d.Examples)})
		if err != nil {
			return err
		}

		for _, f := range files {
			rep, err := guard.Validate(cmd.Context(), s, f)
			if err != nil {
				failed++
				fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", rep.Line(), err)
				continue
			}
			passed++
			fmt.Fprintf(cmd.OutOrStdout(), "ok   %s (%d records, %.2fs)\n", rep.Line(), len(rep.Outcome.Records), rep.Verdict.Duration.Seconds())
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d passed, %d failed\n", passed, failed)
	if failed > 0 {
		return fmt.Errorf("%d examples failed", failed)
	}
	return nil
}
