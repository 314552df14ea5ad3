package core

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
)

// FilterAll is the filter value that keeps every category.
const FilterAll = "all"

const (
	DateAsc    SortOrder = "date-asc"
	DateDesc   SortOrder = "date-desc"
	AmountAsc  SortOrder = "amount-asc"
	AmountDesc SortOrder = "amount-desc"
)

type SortOrder string

// ViewCriteria selects and orders the records shown in the table.
// An empty Category means no filter.
type ViewCriteria struct {
	Category Category  `json:"category,omitempty"`
	Sort     SortOrder `json:"sort"`
}

var ErrInvalidSort = errors.New("invalid sort order")

var sortOrders = []SortOrder{DateDesc, DateAsc, AmountDesc, AmountAsc}

// SortOrders lists the supported orders, default first.
func SortOrders() []SortOrder {
	return append([]SortOrder(nil), sortOrders...)
}

func DefaultCriteria() ViewCriteria {
	return ViewCriteria{Sort: DateDesc}
}

// ParseCriteria reads the filter and sort controls. Empty values fall back
// to the defaults.
func ParseCriteria(filter, sort string) (ViewCriteria, error) {
	c := DefaultCriteria()
	filter = strings.TrimSpace(filter)
	if filter != "" && !strings.EqualFold(filter, FilterAll) {
		cat, err := ParseCategory(filter)
		if err != nil {
			return ViewCriteria{}, err
		}
		c.Category = cat
	}
	if sort = strings.TrimSpace(sort); sort != "" {
		o := SortOrder(strings.ToLower(sort))
		if !o.Valid() {
			return ViewCriteria{}, fmt.Errorf("%w: %q", ErrInvalidSort, sort)
		}
		c.Sort = o
	}
	return c, nil
}

func (o SortOrder) Valid() bool {
	return slices.Contains(sortOrders, o)
}

// Filter returns the filter control value: a category name or "all".
func (c ViewCriteria) Filter() string {
	if c.Category == "" {
		return FilterAll
	}
	return string(c.Category)
}

// Key is a compact text form usable as a cache key.
func (c ViewCriteria) Key() string {
	return c.Filter() + "|" + string(c.Sort)
}

// DeriveCategoryTotals sums amounts per category over the full collection,
// in enumeration order, leaving out categories whose sum is zero.
func DeriveCategoryTotals(records []Expense) []CategoryTotal {
	sums := make(map[Category]int64, len(categories))
	for _, e := range records {
		sums[e.Category] += e.Amount.Cents
	}
	var out []CategoryTotal
	for _, c := range categories {
		if sums[c] > 0 {
			out = append(out, CategoryTotal{Category: c, Amount: Money{Cents: sums[c]}})
		}
	}
	return out
}

// ChartSegments turns category totals into chart slices with their share of
// the grand total.
func ChartSegments(totals []CategoryTotal) []Segment {
	var grand int64
	for _, t := range totals {
		grand += t.Amount.Cents
	}
	out := make([]Segment, 0, len(totals))
	for _, t := range totals {
		s := Segment{Category: t.Category, Amount: t.Amount}
		if grand > 0 {
			s.Percent = math.Round(float64(t.Amount.Cents)*10000/float64(grand)) / 100
		}
		out = append(out, s)
	}
	return out
}

// DeriveView filters records by category and sorts them stably. The input
// slice is not modified.
func DeriveView(records []Expense, c ViewCriteria) []Expense {
	view := make([]Expense, 0, len(records))
	for _, e := range records {
		if c.Category == "" || e.Category == c.Category {
			view = append(view, e)
		}
	}
	if cmp := comparator(c.Sort); cmp != nil {
		slices.SortStableFunc(view, cmp)
	}
	return view
}

func comparator(o SortOrder) func(a, b Expense) int {
	switch o {
	case DateAsc:
		return func(a, b Expense) int { return a.Date.Compare(b.Date) }
	case DateDesc:
		return func(a, b Expense) int { return b.Date.Compare(a.Date) }
	case AmountAsc:
		return func(a, b Expense) int { return compareCents(a.Amount, b.Amount) }
	case AmountDesc:
		return func(a, b Expense) int { return compareCents(b.Amount, a.Amount) }
	default:
		return nil
	}
}

func compareCents(a, b Money) int {
	switch {
	case a.Cents < b.Cents:
		return -1
	case a.Cents > b.Cents:
		return 1
	default:
		return 0
	}
}

// DeriveTotal sums the amounts of the given view.
func DeriveTotal(view []Expense) Money {
	var total Money
	for _, e := range view {
		total = total.Add(e.Amount)
	}
	return total
}
