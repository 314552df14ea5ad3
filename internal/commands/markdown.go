package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"gastos/internal/core"
)

const barWidth = 20

// escapeCell keeps user text from breaking the table layout.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// expensesMarkdown renders a view as a markdown table followed by its total.
func expensesMarkdown(view []core.Expense, c core.ViewCriteria, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Expenses (%s, %s)\n\n", c.Filter(), c.Sort)
	if len(view) == 0 {
		b.WriteString("Nothing to show.\n")
		return b.String()
	}
	b.WriteString("| ID | Date | Description | Category | Person | Amount |\n")
	b.WriteString("|---:|------|-------------|----------|--------|-------:|\n")
	for _, e := range view {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s |\n",
			e.ID, e.Date, escapeCell(e.Description), e.Category, escapeCell(e.Person), e.Amount.Display(currency))
	}
	fmt.Fprintf(&b, "\n**Total: %s** (%d expenses)\n", core.DeriveTotal(view).Display(currency), len(view))
	return b.String()
}

// chartMarkdown renders category shares with a text bar per category.
func chartMarkdown(segments []core.Segment, currency string) string {
	var b strings.Builder
	b.WriteString("# Spending by category\n\n")
	if len(segments) == 0 {
		b.WriteString("No expenses yet.\n")
		return b.String()
	}
	b.WriteString("| Category | Share | Amount | |\n")
	b.WriteString("|----------|------:|-------:|-|\n")
	for _, s := range segments {
		n := int(s.Percent*barWidth/100 + 0.5)
		fmt.Fprintf(&b, "| %s | %.2f%% | %s | %s |\n",
			s.Category, s.Percent, s.Amount.Display(currency), strings.Repeat("█", n))
	}
	return b.String()
}

// printMarkdown writes md to w, rendered for the terminal unless plain.
func printMarkdown(w io.Writer, md string, plain bool) error {
	if plain {
		_, err := io.WriteString(w, md)
		return err
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return fmt.Errorf("terminal renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}
