package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/STTM-NSU/fund-tracker/internal/model"
	"github.com/STTM-NSU/fund-tracker/internal/portfolio"
	"github.com/STTM-NSU/fund-tracker/internal/report"
	"github.com/google/subcommands"
)

// dateFlag parses YYYY-MM-DD and defaults to today.
type dateFlag struct {
	t time.Time
}

func (d *dateFlag) String() string {
	if d.t.IsZero() {
		return ""
	}
	return d.t.Format(time.DateOnly)
}

func (d *dateFlag) Set(s string) error {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return fmt.Errorf("%w: expected YYYY-MM-DD", err)
	}
	d.t = t
	return nil
}

func (d *dateFlag) value() time.Time {
	if d.t.IsZero() {
		return time.Now().UTC()
	}
	return d.t
}

// holdingPeriod returns nil for non-positive periods.
func holdingPeriod(years float64) *float64 {
	if years <= 0 {
		return nil
	}
	return &years
}

func parseKind(s string) (model.LotKind, error) {
	switch k := model.LotKind(strings.ToUpper(strings.TrimSpace(s))); k {
	case "", model.SIP, model.Lumpsum, model.Redemption:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown kind %q", portfolio.ErrInvalidLot, s)
	}
}

func printLot(lot model.InvestmentLot) {
	fmt.Printf("lot %d: %s %s (%s) %s units %.4f at %.4f on %s\n",
		lot.ID, lot.Kind, lot.Code, lot.Account, report.INR(lot.Amount), lot.Units, lot.Price, lot.Date.Format(time.DateOnly))
}

type investCmd struct {
	code, account, kind string
	amount, price       float64
	period              float64
	date                dateFlag
}

func (*investCmd) Name() string     { return "invest" }
func (*investCmd) Synopsis() string { return "record a purchase" }
func (*investCmd) Usage() string {
	return `fund-tracker invest -code <code> -amount <money> -price <price> [-date YYYY-MM-DD] [-kind SIP|LUMPSUM] [-account <name>] [-holding-period <years>]
`
}

func (c *investCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.code, "code", "", "Instrument code")
	f.StringVar(&c.account, "account", model.DefaultAccount, "Account name")
	f.StringVar(&c.kind, "kind", string(model.Lumpsum), "SIP or LUMPSUM")
	f.Float64Var(&c.amount, "amount", 0, "Money invested")
	f.Float64Var(&c.price, "price", 0, "Price per unit")
	f.Float64Var(&c.period, "holding-period", 0, "Planned holding period in years")
	f.Var(&c.date, "date", "Purchase date, defaults to today")
}

func (c *investCmd) request() (portfolio.InvestRequest, error) {
	kind, err := parseKind(c.kind)
	if err != nil {
		return portfolio.InvestRequest{}, err
	}
	return portfolio.InvestRequest{
		Code:          c.code,
		Account:       c.account,
		Kind:          kind,
		Amount:        c.amount,
		Price:         c.price,
		Date:          c.date.value(),
		HoldingPeriod: holdingPeriod(c.period),
	}, nil
}

func (c *investCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if a == nil {
		return subcommands.ExitUsageError
	}

	req, err := c.request()
	if err != nil {
		a.logger.Errorf("%s", err)
		return subcommands.ExitUsageError
	}
	lot, err := a.ledger().Invest(ctx, req)
	if err != nil {
		a.logger.Errorf("%s: can't record purchase", err)
		return subcommands.ExitFailure
	}
	printLot(lot)
	return subcommands.ExitSuccess
}

type redeemCmd struct {
	code, account string
	units, price  float64
	date          dateFlag
}

func (*redeemCmd) Name() string     { return "redeem" }
func (*redeemCmd) Synopsis() string { return "record a redemption" }
func (*redeemCmd) Usage() string {
	return `fund-tracker redeem -code <code> -units <units> -price <price> [-date YYYY-MM-DD] [-account <name>]
`
}

func (c *redeemCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.code, "code", "", "Instrument code")
	f.StringVar(&c.account, "account", model.DefaultAccount, "Account name")
	f.Float64Var(&c.units, "units", 0, "Units sold")
	f.Float64Var(&c.price, "price", 0, "Price per unit")
	f.Var(&c.date, "date", "Redemption date, defaults to today")
}

func (c *redeemCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if a == nil {
		return subcommands.ExitUsageError
	}

	lot, err := a.ledger().Redeem(ctx, portfolio.RedeemRequest{
		Code:    c.code,
		Account: c.account,
		Units:   c.units,
		Price:   c.price,
		Date:    c.date.value(),
	})
	if err != nil {
		a.logger.Errorf("%s: can't record redemption", err)
		return subcommands.ExitFailure
	}
	printLot(lot)
	return subcommands.ExitSuccess
}

type correctCmd struct {
	id                  int64
	code, account, kind string
	amount, price       float64
	period              float64
	date                dateFlag
}

func (*correctCmd) Name() string     { return "correct" }
func (*correctCmd) Synopsis() string { return "replace the values of a recorded lot" }
func (*correctCmd) Usage() string {
	return `fund-tracker correct -id <lot> -amount <money> -price <price> -date YYYY-MM-DD [-kind <kind>] [-code <code>] [-account <name>] [-holding-period <years>]

  Amount is signed: negative for purchases, positive for redemptions.
`
}

func (c *correctCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.id, "id", 0, "Lot id")
	f.StringVar(&c.code, "code", "", "Instrument code, unchanged when empty")
	f.StringVar(&c.account, "account", "", "Account name, unchanged when empty")
	f.StringVar(&c.kind, "kind", "", "SIP, LUMPSUM or REDEMPTION, unchanged when empty")
	f.Float64Var(&c.amount, "amount", 0, "Signed cash flow")
	f.Float64Var(&c.price, "price", 0, "Price per unit")
	f.Float64Var(&c.period, "holding-period", 0, "Planned holding period in years")
	f.Var(&c.date, "date", "Lot date")
}

func (c *correctCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if a == nil {
		return subcommands.ExitUsageError
	}

	kind, err := parseKind(c.kind)
	if err != nil || c.id <= 0 || c.date.t.IsZero() {
		a.logger.Errorf("a lot id, a date and a valid kind are required")
		return subcommands.ExitUsageError
	}

	lot, err := a.ledger().CorrectLot(ctx, c.id, portfolio.CorrectRequest{
		Code:          c.code,
		Account:       c.account,
		Kind:          kind,
		Amount:        c.amount,
		Price:         c.price,
		Date:          c.date.t,
		HoldingPeriod: holdingPeriod(c.period),
	})
	if err != nil {
		a.logger.Errorf("%s: can't correct lot %d", err, c.id)
		return subcommands.ExitFailure
	}
	printLot(lot)
	return subcommands.ExitSuccess
}

type deleteCmd struct {
	id int64
}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "delete a recorded lot" }
func (*deleteCmd) Usage() string {
	return `fund-tracker delete -id <lot>
`
}

func (c *deleteCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.id, "id", 0, "Lot id")
}

func (c *deleteCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if a == nil {
		return subcommands.ExitUsageError
	}
	if c.id <= 0 {
		return subcommands.ExitUsageError
	}

	if err := a.ledger().DeleteLot(ctx, c.id); err != nil {
		a.logger.Errorf("%s: can't delete lot %d", err, c.id)
		return subcommands.ExitFailure
	}
	fmt.Printf("lot %d deleted\n", c.id)
	return subcommands.ExitSuccess
}

type recomputeCmd struct {
	code, account string
}

func (*recomputeCmd) Name() string     { return "recompute" }
func (*recomputeCmd) Synopsis() string { return "rebuild a holding from its lots" }
func (*recomputeCmd) Usage() string {
	return `fund-tracker recompute -code <code> [-account <name>]
`
}

func (c *recomputeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.code, "code", "", "Instrument code")
	f.StringVar(&c.account, "account", model.DefaultAccount, "Account name")
}

func (c *recomputeCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	if a == nil {
		return subcommands.ExitUsageError
	}
	if c.code == "" {
		return subcommands.ExitUsageError
	}

	h, err := a.ledger().Recompute(ctx, c.code, c.account)
	if err != nil {
		a.logger.Errorf("%s: can't recompute %s", err, c.code)
		return subcommands.ExitFailure
	}
	fmt.Printf("%s (%s): %.4f units, average cost %.4f, invested %s\n", h.Code, h.Account, h.Units, h.AvgCost, report.INR(h.Invested))
	return subcommands.ExitSuccess
}
