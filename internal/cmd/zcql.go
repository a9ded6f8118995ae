package cmd

import (
	"flag"
	"fmt"
	"strings"

	"github.com/mitchellh/cli"

	"github.com/zcatalyst/catalyst-go-sdk/zcql"
)

type ZCQLCommand struct {
	*Command

	flagTable string
}

func (c *ZCQLCommand) Synopsis() string {
	return "Run a ZCQL query"
}

func (c *ZCQLCommand) Help() string {
	return `Usage: catalyst zcql [options] QUERY

  Runs QUERY and prints the returned rows. Remaining arguments are joined
  with spaces, so the query need not be quoted.` +
		flagHelp(c.Flags())
}

func (c *ZCQLCommand) Flags() *flag.FlagSet {
	f := newFlagSet("zcql")
	f.StringVar(&c.flagTable, "table", "", "Print only the columns of this table.")
	return f
}

func (c *ZCQLCommand) Run(args []string) int {
	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return cli.RunResultHelp
	}
	if flags.NArg() == 0 {
		c.UI.Error("expected a query")
		return cli.RunResultHelp
	}

	app, done, err := c.app()
	if err != nil {
		return c.fail(err)
	}
	defer done()

	rows, err := app.ZCQL().ExecuteQuery(c.ctx(), strings.Join(flags.Args(), " "))
	if err != nil {
		return c.fail(err)
	}
	if c.flagTable == "" {
		return c.output(rows)
	}

	var columns []map[string]any
	if err := zcql.DecodeRows(rows, c.flagTable, &columns); err != nil {
		return c.fail(err)
	}
	return c.output(columns)
}
