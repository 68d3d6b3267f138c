package cli

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"
)

type historyCmd struct {
	app *App
}

func (*historyCmd) Name() string             { return "history" }
func (*historyCmd) Synopsis() string         { return "list recorded sales, most recent first" }
func (*historyCmd) Usage() string            { return "history\n\n  Lists every recorded sale.\n" }
func (*historyCmd) SetFlags(_ *flag.FlagSet) {}

func (c *historyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	history, err := c.app.Ledger.ListHistory(ctx)
	if err != nil {
		return c.app.fail("%v", err)
	}
	if len(history) == 0 {
		fmt.Fprintln(c.app.out(), "No sales recorded.")
		return subcommands.ExitSuccess
	}

	w := tabwriter.NewWriter(c.app.out(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDate\tTicker\tShares\tBuy price\tBreak-even\tSell price\tProfit/Loss")
	for _, h := range history {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			h.ID, h.DateSold.Format(time.DateTime), h.Ticker, h.SharesSold,
			c.app.money(h.BuyPrice), c.app.money(h.BreakEvenPrice),
			c.app.money(h.SellPrice), c.app.money(h.ProfitLoss))
	}
	w.Flush()

	return subcommands.ExitSuccess
}

type summaryCmd struct {
	app *App
}

func (*summaryCmd) Name() string             { return "summary" }
func (*summaryCmd) Synopsis() string         { return "display realized profit/loss statistics" }
func (*summaryCmd) Usage() string            { return "summary\n\n  Summarizes realized profit/loss over all sales.\n" }
func (*summaryCmd) SetFlags(_ *flag.FlagSet) {}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := c.app.Ledger.Summary(ctx)
	if err != nil {
		return c.app.fail("%v", err)
	}

	w := tabwriter.NewWriter(c.app.out(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Sales:\t%d (%d winning, %d losing)\n", s.TotalSales, s.WinningSales, s.LosingSales)
	fmt.Fprintf(w, "Win rate:\t%s\n", percent(s.WinRate))
	fmt.Fprintf(w, "Total profit/loss:\t%s\n", c.app.money(s.TotalProfitLoss))
	fmt.Fprintf(w, "Average win:\t%s\n", c.app.money(s.AvgWin))
	fmt.Fprintf(w, "Average loss:\t%s\n", c.app.money(s.AvgLoss))
	w.Flush()

	return subcommands.ExitSuccess
}
