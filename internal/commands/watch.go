package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"gastos/internal/amqp"
)

// --- Watch Command ---

type watchCmd struct {
	env      *Env
	url      string
	exchange string
	queue    string
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "print expense changes published by the server" }
func (*watchCmd) Usage() string {
	return `watch [-amqp <url>] [-exchange <name>] [-queue <name>]

  Follows the change events the server publishes to AMQP until interrupted.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.url, "amqp", c.env.Config.AMQPURL, "AMQP broker URL")
	f.StringVar(&c.exchange, "exchange", c.env.Config.AMQPExchange, "Exchange name")
	f.StringVar(&c.queue, "queue", c.env.Config.AMQPQueue, "Queue name")
}

func (c *watchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.url == "" {
		c.env.errorf("Error: no AMQP URL configured")
		return subcommands.ExitUsageError
	}

	client, err := amqp.NewClient(c.url, c.exchange, c.queue)
	if err != nil {
		c.env.errorf("Error connecting to AMQP: %v", err)
		return subcommands.ExitFailure
	}
	defer client.Close()

	err = client.ConsumeChanges(ctx, func(msg *amqp.ChangeMessage) error {
		_, err := fmt.Fprintln(c.env.Out, formatChange(msg, c.env.Config.Currency))
		return err
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		c.env.errorf("Error: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func formatChange(msg *amqp.ChangeMessage, currency string) string {
	line := fmt.Sprintf("%s #%d %s (rev %d)", msg.Timestamp.Format("2006-01-02 15:04:05"), msg.ID, msg.Op, msg.Revision)
	if e := msg.Expense; e != nil {
		line += fmt.Sprintf(": %s %s %s by %s on %s", e.Description, e.Amount.Display(currency), e.Category, e.Person, e.Date)
	}
	return line
}
