package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"
)

type serveCmd struct {
	app *App
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the HTTP API and the Kafka command consumer" }
func (*serveCmd) Usage() string {
	return `serve

  Serves the HTTP API on SERVER_HOST:SERVER_PORT. When KAFKA_BROKERS is set,
  ledger commands are consumed and ledger events published. Stops on SIGINT
  or SIGTERM.
`
}
func (*serveCmd) SetFlags(_ *flag.FlagSet) {}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.app.Serve == nil {
		return c.app.fail("serve is not available")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := c.app.Serve(ctx); err != nil {
		return c.app.fail("%v", err)
	}
	return subcommands.ExitSuccess
}

type infoCmd struct {
	app *App
}

func (*infoCmd) Name() string             { return "info" }
func (*infoCmd) Synopsis() string         { return "show where the ledger is stored" }
func (*infoCmd) Usage() string            { return "info\n\n  Prints the storage location of the ledger.\n" }
func (*infoCmd) SetFlags(_ *flag.FlagSet) {}

func (c *infoCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fmt.Fprintf(c.app.out(), "Storage: %s\n", c.app.Ledger.StorageLocation())
	fmt.Fprintf(c.app.out(), "Currency: %s\n", c.app.Currency)
	return subcommands.ExitSuccess
}
