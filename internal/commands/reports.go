package commands

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"gastos/internal/core"
)

// --- List Command ---

type lsCmd struct {
	env    *Env
	store  storeFlags
	filter string
	sort   string
	plain  bool
}

func (*lsCmd) Name() string     { return "ls" }
func (*lsCmd) Synopsis() string { return "list expenses with their total" }
func (*lsCmd) Usage() string {
	return `ls [-filter <category|all>] [-sort <date-desc|date-asc|amount-desc|amount-asc>] [-plain]

  Lists the expenses of one category, or all, in the given order.
`
}

func (c *lsCmd) SetFlags(f *flag.FlagSet) {
	c.store.register(f, c.env.Config)
	f.StringVar(&c.filter, "filter", core.FilterAll, "Category to show, or all")
	f.StringVar(&c.sort, "sort", string(core.DateDesc), "Sort order")
	f.BoolVar(&c.plain, "plain", false, "Print raw markdown")
}

func (c *lsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	criteria, err := core.ParseCriteria(c.filter, c.sort)
	if err != nil {
		c.env.errorf("Error: %v", err)
		return subcommands.ExitUsageError
	}

	sess, err := c.store.open(ctx, c.env)
	if err != nil {
		c.env.errorf("Error opening store: %v", err)
		return subcommands.ExitFailure
	}
	defer sess.Close()

	sess.Store.SetCriteria(criteria)
	md := expensesMarkdown(sess.Store.View(), criteria, c.env.Config.Currency)
	if err := printMarkdown(c.env.Out, md, c.plain); err != nil {
		c.env.errorf("Error: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// --- Chart Command ---

type chartCmd struct {
	env   *Env
	store storeFlags
	plain bool
}

func (*chartCmd) Name() string     { return "chart" }
func (*chartCmd) Synopsis() string { return "show each category's share of all spending" }
func (*chartCmd) Usage() string {
	return `chart [-plain]

  Shows totals per category over every expense, ignoring any filter.
`
}

func (c *chartCmd) SetFlags(f *flag.FlagSet) {
	c.store.register(f, c.env.Config)
	f.BoolVar(&c.plain, "plain", false, "Print raw markdown")
}

func (c *chartCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sess, err := c.store.open(ctx, c.env)
	if err != nil {
		c.env.errorf("Error opening store: %v", err)
		return subcommands.ExitFailure
	}
	defer sess.Close()

	md := chartMarkdown(sess.Store.Segments(), c.env.Config.Currency)
	if err := printMarkdown(c.env.Out, md, c.plain); err != nil {
		c.env.errorf("Error: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
