package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"time"

	"github.com/google/subcommands"

	"gastos/internal/core"
	"gastos/internal/store"
)

// --- Add Command ---

type addCmd struct {
	env   *Env
	store storeFlags
	draft store.Draft
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "record a new expense" }
func (*addCmd) Usage() string {
	return `add -desc <text> -amount <decimal> -person <name> [-cat <category>] [-date <YYYY-MM-DD>]

  Records an expense. Category defaults to Food and date to today.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	c.store.register(f, c.env.Config)
	f.StringVar(&c.draft.Description, "desc", "", "What the money was spent on")
	f.StringVar(&c.draft.Amount, "amount", "", "Amount, e.g. 12.50")
	f.StringVar(&c.draft.Category, "cat", core.Categories()[0].String(), "Category")
	f.StringVar(&c.draft.Date, "date", core.Today(time.Now()).String(), "Date (YYYY-MM-DD)")
	f.StringVar(&c.draft.Person, "person", "", "Who paid")
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sess, err := c.store.open(ctx, c.env)
	if err != nil {
		c.env.errorf("Error opening store: %v", err)
		return subcommands.ExitFailure
	}
	defer sess.Close()

	id, err := sess.Store.Submit(ctx, c.draft)
	if status, done := c.env.submitFailed(err); done {
		return status
	}
	fmt.Fprintf(c.env.Out, "Added expense %d\n", id)
	return subcommands.ExitSuccess
}

// --- Edit Command ---

type editCmd struct {
	env   *Env
	store storeFlags
	id    int64
	draft store.Draft
}

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "change fields of an existing expense" }
func (*editCmd) Usage() string {
	return `edit -id <id> [-desc <text>] [-amount <decimal>] [-cat <category>] [-date <YYYY-MM-DD>] [-person <name>]

  Updates an expense in place. Fields not given keep their current value.
`
}

func (c *editCmd) SetFlags(f *flag.FlagSet) {
	c.store.register(f, c.env.Config)
	f.Int64Var(&c.id, "id", 0, "Id of the expense to edit")
	f.StringVar(&c.draft.Description, "desc", "", "New description")
	f.StringVar(&c.draft.Amount, "amount", "", "New amount")
	f.StringVar(&c.draft.Category, "cat", "", "New category")
	f.StringVar(&c.draft.Date, "date", "", "New date (YYYY-MM-DD)")
	f.StringVar(&c.draft.Person, "person", "", "New payer")
}

func (c *editCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id <= 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	sess, err := c.store.open(ctx, c.env)
	if err != nil {
		c.env.errorf("Error opening store: %v", err)
		return subcommands.ExitFailure
	}
	defer sess.Close()

	if _, err := sess.Store.BeginEdit(ctx, core.ID(c.id)); err != nil {
		c.env.errorf("Error: %v", err)
		return subcommands.ExitFailure
	}

	draft := sess.Store.Form()
	f.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "desc":
			draft.Description = c.draft.Description
		case "amount":
			draft.Amount = c.draft.Amount
		case "cat":
			draft.Category = c.draft.Category
		case "date":
			draft.Date = c.draft.Date
		case "person":
			draft.Person = c.draft.Person
		}
	})

	id, err := sess.Store.Submit(ctx, draft)
	if status, done := c.env.submitFailed(err); done {
		return status
	}
	fmt.Fprintf(c.env.Out, "Updated expense %d\n", id)
	return subcommands.ExitSuccess
}

// --- Remove Command ---

type rmCmd struct {
	env   *Env
	store storeFlags
}

func (*rmCmd) Name() string     { return "rm" }
func (*rmCmd) Synopsis() string { return "delete expenses by id" }
func (*rmCmd) Usage() string {
	return `rm <id> [<id>...]

  Deletes the given expenses. Unknown ids are ignored.
`
}

func (c *rmCmd) SetFlags(f *flag.FlagSet) {
	c.store.register(f, c.env.Config)
}

func (c *rmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	ids := make([]core.ID, 0, f.NArg())
	for _, arg := range f.Args() {
		n, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || n <= 0 {
			c.env.errorf("Error: invalid id %q", arg)
			return subcommands.ExitUsageError
		}
		ids = append(ids, core.ID(n))
	}

	sess, err := c.store.open(ctx, c.env)
	if err != nil {
		c.env.errorf("Error opening store: %v", err)
		return subcommands.ExitFailure
	}
	defer sess.Close()

	removed := 0
	for _, id := range ids {
		_, existed := sess.Store.Get(id)
		if err := sess.Store.Delete(ctx, id); err != nil {
			c.env.errorf("Error deleting %d: %v", id, err)
			return subcommands.ExitFailure
		}
		if existed {
			removed++
		}
	}
	fmt.Fprintf(c.env.Out, "Deleted %d of %d\n", removed, len(ids))
	return subcommands.ExitSuccess
}

// submitFailed reports a Submit error. done is false when the caller should
// carry on printing its success line.
func (e *Env) submitFailed(err error) (subcommands.ExitStatus, bool) {
	switch {
	case err == nil:
		return subcommands.ExitSuccess, false
	case errors.Is(err, core.ErrValidation):
		e.errorf("Invalid expense:\n%s", describeProblems(err))
		return subcommands.ExitUsageError, true
	default:
		e.errorf("Error: %v", err)
		return subcommands.ExitFailure, true
	}
}
