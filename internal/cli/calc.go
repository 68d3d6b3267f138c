package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/trogers1052/stock-calculator/internal/calculator"
)

type calcCmd struct {
	app    *App
	ticker string
	price  decimalFlag
	shares int
	fee    decimalFlag
}

func (*calcCmd) Name() string     { return "calc" }
func (*calcCmd) Synopsis() string { return "compute break-even metrics, optionally saving the position" }
func (*calcCmd) Usage() string {
	return `calc -p <price> -n <shares> [-f <fee>] [-t <ticker>]

  Prints total invested, break-even price and the percent increase needed
  to break even. With -t the position is also opened in the ledger.
`
}

func (c *calcCmd) SetFlags(f *flag.FlagSet) {
	f.Var(&c.price, "p", "Price per share")
	f.IntVar(&c.shares, "n", 0, "Number of shares")
	f.Var(&c.fee, "f", "Transaction fee charged on buy and on sell")
	f.StringVar(&c.ticker, "t", "", "Ticker; when set the position is saved")
}

func (c *calcCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.price.set {
		f.Usage()
		return subcommands.ExitUsageError
	}

	metrics, id, err := c.app.Ledger.CalculateAndSave(ctx, c.ticker, c.price.value, c.shares, c.fee.value)
	if err != nil {
		return c.app.fail("%v", err)
	}

	c.app.printMetrics(metrics)
	if id != 0 {
		fmt.Fprintf(c.app.out(), "\nSaved position #%d (%s)\n", id, strings.ToUpper(strings.TrimSpace(c.ticker)))
	}
	return subcommands.ExitSuccess
}

type scenarioCmd struct {
	app      *App
	price    decimalFlag
	shares   int
	fee      decimalFlag
	percents decimalListFlag
}

func (*scenarioCmd) Name() string     { return "scenario" }
func (*scenarioCmd) Synopsis() string { return "project profit/loss for hypothetical price changes" }
func (*scenarioCmd) Usage() string {
	return `scenario -p <price> -n <shares> [-f <fee>] -c <pct>[,<pct>...]

  Projects the target price and profit/loss for each percent change.
  Changes beyond +/-100% are accepted.

Usage Examples:
$ stockcalc scenario -p 150 -n 10 -f 5 -c=-10,0,10,25
`
}

func (c *scenarioCmd) SetFlags(f *flag.FlagSet) {
	f.Var(&c.price, "p", "Price per share")
	f.IntVar(&c.shares, "n", 0, "Number of shares")
	f.Var(&c.fee, "f", "Transaction fee charged on buy and on sell")
	f.Var(&c.percents, "c", "Comma separated percent changes")
}

func (c *scenarioCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.price.set || len(c.percents) == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	calc, err := calculator.New(c.price.value, c.shares, c.fee.value)
	if err != nil {
		return c.app.fail("%v", err)
	}

	c.app.printMetrics(calc.Metrics())
	fmt.Fprintln(c.app.out())

	w := tabwriter.NewWriter(c.app.out(), 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Change\tTarget price\tProfit/Loss\t")
	for _, pct := range c.percents {
		s := calc.Scenario(pct)
		fmt.Fprintf(w, "%s\t%s\t%s\t\n", percent(s.PercentChange), c.app.money(s.TargetPrice), c.app.money(s.ProfitLoss))
	}
	w.Flush()

	return subcommands.ExitSuccess
}

func (a *App) printMetrics(m calculator.BaseMetrics) {
	w := tabwriter.NewWriter(a.out(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Total invested:\t%s\n", a.money(m.TotalInvested))
	fmt.Fprintf(w, "Break-even price:\t%s\n", a.money(m.BreakEvenPrice))
	fmt.Fprintf(w, "Increase to break even:\t%s\n", percent(m.PercentIncreaseToBreakEven))
	w.Flush()
}
