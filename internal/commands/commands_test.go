package commands

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gastos/internal/amqp"
	"gastos/internal/config"
	"gastos/internal/core"
	"gastos/internal/log"
)

type harness struct {
	t   *testing.T
	cfg config.Config
	out bytes.Buffer
	err bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	cfg := config.Defaults()
	cfg.DataBackend = "file"
	cfg.DataDir = t.TempDir()
	return &harness{t: t, cfg: cfg}
}

func (h *harness) run(args ...string) subcommands.ExitStatus {
	h.t.Helper()
	h.out.Reset()
	h.err.Reset()
	env := &Env{
		Config: &h.cfg,
		Out:    &h.out,
		Err:    &h.err,
		Logger: log.NewText(io.Discard, slog.LevelError, log.ComponentCLI),
	}
	fs := flag.NewFlagSet("gastosctl", flag.ContinueOnError)
	cdr := subcommands.NewCommander(fs, "gastosctl")
	Register(cdr, env)
	require.NoError(h.t, fs.Parse(args))
	return cdr.Execute(context.Background())
}

func (h *harness) add(args ...string) core.ID {
	h.t.Helper()
	require.Equal(h.t, subcommands.ExitSuccess, h.run(append([]string{"add"}, args...)...), h.err.String())
	var id int64
	_, err := fmt.Sscanf(h.out.String(), "Added expense %d", &id)
	require.NoError(h.t, err)
	return core.ID(id)
}

func TestAddAndList(t *testing.T) {
	h := newHarness(t)
	h.add("-desc", "Coffee", "-amount", "3.50", "-cat", "food", "-date", "2024-01-01", "-person", "Alex")
	h.add("-desc", "Bus", "-amount", "2", "-cat", "Transport", "-date", "2024-01-02", "-person", "Sam")

	require.Equal(t, subcommands.ExitSuccess, h.run("ls", "-plain"))
	out := h.out.String()
	assert.Contains(t, out, "# Expenses (all, date-desc)")
	assert.Contains(t, out, "| Coffee | Food | Alex | $3.50 |")
	assert.Contains(t, out, "**Total: $5.50** (2 expenses)")
	assert.Less(t, bytes.Index(h.out.Bytes(), []byte("Bus")), bytes.Index(h.out.Bytes(), []byte("Coffee")))

	require.Equal(t, subcommands.ExitSuccess, h.run("ls", "-plain", "-filter", "Transport", "-sort", "amount-asc"))
	assert.NotContains(t, h.out.String(), "Coffee")
	assert.Contains(t, h.out.String(), "**Total: $2.00** (1 expenses)")
}

func TestAddRejectsInvalidExpense(t *testing.T) {
	h := newHarness(t)

	status := h.run("add", "-desc", "Coffee", "-amount", "lots", "-person", "")
	assert.Equal(t, subcommands.ExitUsageError, status)
	assert.Contains(t, h.err.String(), "invalid amount")
	assert.Contains(t, h.err.String(), "empty person")

	require.Equal(t, subcommands.ExitSuccess, h.run("ls", "-plain"))
	assert.Contains(t, h.out.String(), "Nothing to show.")
}

func TestEditKeepsUnsetFields(t *testing.T) {
	h := newHarness(t)
	id := h.add("-desc", "Coffee", "-amount", "3.50", "-date", "2024-01-01", "-person", "Alex")

	status := h.run("edit", "-id", strconv.FormatInt(int64(id), 10), "-amount", "5")
	require.Equal(t, subcommands.ExitSuccess, status, h.err.String())
	assert.Equal(t, fmt.Sprintf("Updated expense %d\n", id), h.out.String())

	require.Equal(t, subcommands.ExitSuccess, h.run("ls", "-plain"))
	assert.Contains(t, h.out.String(), fmt.Sprintf("| %d | 2024-01-01 | Coffee | Food | Alex | $5.00 |", id))
}

func TestEditErrors(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, subcommands.ExitUsageError, h.run("edit", "-amount", "5"))

	assert.Equal(t, subcommands.ExitFailure, h.run("edit", "-id", "42", "-amount", "5"))
	assert.Contains(t, h.err.String(), "expense not found")

	id := h.add("-desc", "Coffee", "-amount", "3.50", "-person", "Alex")
	assert.Equal(t, subcommands.ExitUsageError, h.run("edit", "-id", strconv.FormatInt(int64(id), 10), "-desc", " "))
	assert.Contains(t, h.err.String(), "empty description")
}

func TestRemove(t *testing.T) {
	h := newHarness(t)
	id := h.add("-desc", "Coffee", "-amount", "3.50", "-person", "Alex")

	require.Equal(t, subcommands.ExitSuccess, h.run("rm", strconv.FormatInt(int64(id), 10), "999"))
	assert.Equal(t, "Deleted 1 of 2\n", h.out.String())

	require.Equal(t, subcommands.ExitSuccess, h.run("ls", "-plain"))
	assert.Contains(t, h.out.String(), "Nothing to show.")

	assert.Equal(t, subcommands.ExitUsageError, h.run("rm"))
	assert.Equal(t, subcommands.ExitUsageError, h.run("rm", "abc"))
}

func TestChart(t *testing.T) {
	h := newHarness(t)
	h.add("-desc", "Lunch", "-amount", "3", "-cat", "Food", "-person", "Alex")
	h.add("-desc", "Pills", "-amount", "1", "-cat", "Health", "-person", "Alex")

	require.Equal(t, subcommands.ExitSuccess, h.run("chart", "-plain"))
	out := h.out.String()
	assert.Contains(t, out, "| Food | 75.00% | $3.00 | ███████████████ |")
	assert.Contains(t, out, "| Health | 25.00% | $1.00 | █████ |")
}

func TestListRejectsUnknownCriteria(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, subcommands.ExitUsageError, h.run("ls", "-filter", "Pets"))
	assert.Equal(t, subcommands.ExitUsageError, h.run("ls", "-sort", "name"))
}

func TestWatchNeedsURL(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, subcommands.ExitUsageError, h.run("watch"))
	assert.Contains(t, h.err.String(), "no AMQP URL")
}

func TestSessionBackendFlag(t *testing.T) {
	h := newHarness(t)
	h.add("-desc", "Coffee", "-amount", "3.50", "-person", "Alex")

	// A memory slot starts empty every time.
	require.Equal(t, subcommands.ExitSuccess, h.run("ls", "-plain", "-backend", "memory"))
	assert.Contains(t, h.out.String(), "Nothing to show.")

	assert.Equal(t, subcommands.ExitFailure, h.run("ls", "-backend", "cloud"))
}

func TestExpensesMarkdownEscapesCells(t *testing.T) {
	view := []core.Expense{{ID: 1, Fields: core.Fields{
		Description: "a|b",
		Amount:      core.MustParseMoney("1.00"),
		Category:    core.Other,
		Date:        core.NewDate(2024, 2, 29),
		Person:      "x\ny",
	}}}
	md := expensesMarkdown(view, core.DefaultCriteria(), "EUR")
	assert.Contains(t, md, `| 1 | 2024-02-29 | a\|b | Other | x y | €1.00 |`)
}

func TestPrintMarkdownRendered(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printMarkdown(&buf, "# Title\n\nhello world\n", false))
	assert.Contains(t, buf.String(), "hello world")
}

func TestFormatChange(t *testing.T) {
	e := core.Expense{ID: 7, Fields: core.Fields{
		Description: "Taxi",
		Amount:      core.MustParseMoney("12.00"),
		Category:    core.Transport,
		Date:        core.NewDate(2024, 5, 1),
		Person:      "Sam",
	}}
	msg := &amqp.ChangeMessage{
		Op:        "created",
		ID:        7,
		Revision:  3,
		Timestamp: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Expense:   &e,
	}
	assert.Equal(t, "2024-05-01 10:00:00 #7 created (rev 3): Taxi $12.00 Transport by Sam on 2024-05-01",
		formatChange(msg, "USD"))
}
