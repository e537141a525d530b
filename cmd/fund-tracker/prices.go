package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/STTM-NSU/fund-tracker/internal/feed"
	"github.com/STTM-NSU/fund-tracker/internal/nav"
	"github.com/STTM-NSU/fund-tracker/internal/report"
	"github.com/google/subcommands"
)

type syncCmd struct {
	skipEnrich bool
}

func (*syncCmd) Name() string     { return "sync" }
func (*syncCmd) Synopsis() string { return "ingest the daily price feed and repair history gaps" }
func (*syncCmd) Usage() string {
	return `fund-tracker sync [-skip-enrich]

  Downloads the bulk price feed, stores every record, backfills gaps in the
  history of tracked instruments and refreshes their category and fund house.
`
}

func (c *syncCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.skipEnrich, "skip-enrich", false, "Skip the metadata enrichment step")
}

func (c *syncCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if a == nil {
		return subcommands.ExitUsageError
	}
	if c.skipEnrich {
		a.cfg.Sync.SkipEnrich = true
	}

	prices := feed.NewClient(a.cfg.Feed, a.logger.With("component", "feed"))
	defer prices.Close()
	history := a.historyClient()
	defer history.Close()

	res, err := a.syncer(prices, history).Run(ctx)
	if err != nil {
		a.logger.Errorf("%s: sync failed", err)
		return subcommands.ExitFailure
	}
	if err := report.WriteSyncReport(os.Stdout, res); err != nil {
		a.logger.Errorf("%s: can't print report", err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}

type backfillCmd struct {
	codes string
}

func (*backfillCmd) Name() string     { return "backfill" }
func (*backfillCmd) Synopsis() string { return "repair price history gaps of tracked instruments" }
func (*backfillCmd) Usage() string {
	return `fund-tracker backfill [-codes <code,code>]

  Checks the stored history of tracked instruments (or only the given codes)
  and fetches the full history where it has gaps.
`
}

func (c *backfillCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.codes, "codes", "", "Comma separated instrument codes. Defaults to every tracked instrument.")
}

func (c *backfillCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if a == nil {
		return subcommands.ExitUsageError
	}

	codes, err := targetCodes(ctx, a, c.codes)
	if err != nil {
		a.logger.Errorf("%s: can't resolve instruments", err)
		return subcommands.ExitFailure
	}

	history := a.historyClient()
	defer history.Close()

	res := a.backfiller(history).Run(ctx, codes)
	fmt.Printf("backfilled %d instruments, %d rows inserted, %d failures\n", res.Backfilled, res.Inserted, len(res.Failures))
	for _, f := range res.Failures {
		fmt.Printf("  %s: %s\n", f.Code, f.Error)
	}

	return subcommands.ExitSuccess
}

type enrichCmd struct {
	codes string
}

func (*enrichCmd) Name() string     { return "enrich" }
func (*enrichCmd) Synopsis() string { return "refresh category and fund house of tracked instruments" }
func (*enrichCmd) Usage() string {
	return `fund-tracker enrich [-codes <code,code>]
`
}

func (c *enrichCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.codes, "codes", "", "Comma separated instrument codes. Defaults to every tracked instrument.")
}

func (c *enrichCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if a == nil {
		return subcommands.ExitUsageError
	}

	codes, err := targetCodes(ctx, a, c.codes)
	if err != nil {
		a.logger.Errorf("%s: can't resolve instruments", err)
		return subcommands.ExitFailure
	}

	history := a.historyClient()
	defer history.Close()

	res := a.enricher(history).Run(ctx, codes)
	fmt.Printf("enriched %d instruments, %d failures\n", res.Enriched, len(res.Failures))

	return subcommands.ExitSuccess
}

func targetCodes(ctx context.Context, a *app, list string) ([]string, error) {
	if list == "" {
		return nav.NewStore(a.db).TrackedCodes(ctx)
	}

	var codes []string
	for code := range strings.SplitSeq(list, ",") {
		if code = strings.TrimSpace(code); code != "" {
			codes = append(codes, code)
		}
	}
	return codes, nil
}
