package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/STTM-NSU/fund-tracker/internal/report"
	"github.com/STTM-NSU/fund-tracker/internal/valuation"
	"github.com/bytedance/sonic"
	"github.com/google/subcommands"
)

type portfolioCmd struct {
	account string
	kind    string
	json    bool
}

func (*portfolioCmd) Name() string     { return "portfolio" }
func (*portfolioCmd) Synopsis() string { return "print the valuation of open and closed holdings" }
func (*portfolioCmd) Usage() string {
	return `fund-tracker portfolio [-account <name>] [-kind SIP|LUMPSUM] [-json]

  Values every holding at the latest stored price: returns, XIRR, realized
  gains, tax status and the trailing 52-week range.
`
}

func (c *portfolioCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Restrict to one account. Defaults to all accounts.")
	f.StringVar(&c.kind, "kind", "", "Restrict to SIP or LUMPSUM purchases. Redemptions always apply.")
	f.BoolVar(&c.json, "json", false, "Print the summary as JSON")
}

func (c *portfolioCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if a == nil {
		return subcommands.ExitUsageError
	}

	kinds, err := valuation.ParseKindFilter(c.kind)
	if err != nil {
		a.logger.Errorf("%s", err)
		return subcommands.ExitUsageError
	}

	summary, err := a.valuation().Summary(ctx, c.account, kinds...)
	if err != nil {
		a.logger.Errorf("%s: can't value portfolio", err)
		return subcommands.ExitFailure
	}

	if c.json {
		out, err := sonic.ConfigDefault.MarshalIndent(summary, "", "  ")
		if err != nil {
			a.logger.Errorf("%s: can't encode summary", err)
			return subcommands.ExitFailure
		}
		fmt.Println(string(out))
		return subcommands.ExitSuccess
	}

	if err := report.WriteSummary(os.Stdout, summary); err != nil {
		a.logger.Errorf("%s: can't print summary", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type realizedCmd struct {
	account string
	kind    string
}

func (*realizedCmd) Name() string     { return "realized" }
func (*realizedCmd) Synopsis() string { return "print realized gains per financial year" }
func (*realizedCmd) Usage() string {
	return `fund-tracker realized [-account <name>] [-kind SIP|LUMPSUM]

  Splits realized gains into short and long term per Indian financial year
  (April to March).
`
}

func (c *realizedCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Restrict to one account. Defaults to all accounts.")
	f.StringVar(&c.kind, "kind", "", "Restrict to SIP or LUMPSUM purchases. Redemptions always apply.")
}

func (c *realizedCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if a == nil {
		return subcommands.ExitUsageError
	}

	kinds, err := valuation.ParseKindFilter(c.kind)
	if err != nil {
		a.logger.Errorf("%s", err)
		return subcommands.ExitUsageError
	}

	years, err := a.valuation().Realized(ctx, c.account, kinds...)
	if err != nil {
		a.logger.Errorf("%s: can't compute realized gains", err)
		return subcommands.ExitFailure
	}
	if err := report.WriteRealized(os.Stdout, years); err != nil {
		a.logger.Errorf("%s: can't print realized gains", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
