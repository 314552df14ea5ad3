package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expense(id ID, desc, amount string, cat Category, date string) Expense {
	d, err := ParseDate(date)
	if err != nil {
		panic(err)
	}
	return Expense{ID: id, Fields: Fields{
		Description: desc,
		Amount:      MustParseMoney(amount),
		Category:    cat,
		Date:        d,
		Person:      "Alex",
	}}
}

func ids(view []Expense) []ID {
	out := make([]ID, len(view))
	for i, e := range view {
		out[i] = e.ID
	}
	return out
}

func sampleRecords() []Expense {
	return []Expense{
		expense(1, "Bus", "2.00", Transport, "2024-01-03"),
		expense(2, "Lunch", "12.50", Food, "2024-01-01"),
		expense(3, "Cinema", "9.00", Leisure, "2024-01-02"),
		expense(4, "Dinner", "30.00", Food, "2024-01-03"),
		expense(5, "Snack", "2.00", Food, "2024-01-01"),
	}
}

func TestParseCriteria(t *testing.T) {
	c, err := ParseCriteria("", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultCriteria(), c)
	assert.Equal(t, "all", c.Filter())

	c, err = ParseCriteria("All", "amount-asc")
	require.NoError(t, err)
	assert.Equal(t, ViewCriteria{Sort: AmountAsc}, c)

	c, err = ParseCriteria("food", "DATE-ASC")
	require.NoError(t, err)
	assert.Equal(t, ViewCriteria{Category: Food, Sort: DateAsc}, c)

	_, err = ParseCriteria("Groceries", "")
	assert.ErrorIs(t, err, ErrInvalidCategory)

	_, err = ParseCriteria("", "name-asc")
	assert.ErrorIs(t, err, ErrInvalidSort)
}

func TestDeriveViewFilter(t *testing.T) {
	records := sampleRecords()
	for _, cat := range Categories() {
		view := DeriveView(records, ViewCriteria{Category: cat, Sort: DateDesc})
		want := 0
		for _, e := range records {
			if e.Category == cat {
				want++
			}
		}
		assert.Len(t, view, want, "category %s", cat)
		for _, e := range view {
			assert.Equal(t, cat, e.Category)
		}
	}

	assert.Len(t, DeriveView(records, DefaultCriteria()), len(records))
}

func TestDeriveViewSort(t *testing.T) {
	records := sampleRecords()

	tests := []struct {
		sort SortOrder
		want []ID
	}{
		{DateAsc, []ID{2, 5, 3, 1, 4}},
		{DateDesc, []ID{1, 4, 3, 2, 5}},
		{AmountAsc, []ID{1, 5, 3, 2, 4}},
		{AmountDesc, []ID{4, 2, 3, 1, 5}},
	}
	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			view := DeriveView(records, ViewCriteria{Sort: tt.sort})
			assert.Equal(t, tt.want, ids(view))
		})
	}
}

func TestDeriveViewIsStableAndDoesNotMutate(t *testing.T) {
	records := []Expense{
		expense(10, "a", "1.00", Food, "2024-05-05"),
		expense(11, "b", "1.00", Food, "2024-05-05"),
		expense(12, "c", "1.00", Food, "2024-05-05"),
	}
	before := append([]Expense(nil), records...)

	for _, o := range SortOrders() {
		view := DeriveView(records, ViewCriteria{Sort: o})
		assert.Equal(t, []ID{10, 11, 12}, ids(view), "order %s", o)
	}
	assert.Equal(t, before, records)
}

func TestDeriveViewFilteredAmountAsc(t *testing.T) {
	records := []Expense{
		expense(1, "big", "10.00", Food, "2024-01-01"),
		expense(2, "small", "5.00", Food, "2024-01-02"),
	}
	view := DeriveView(records, ViewCriteria{Category: Food, Sort: AmountAsc})
	require.Len(t, view, 2)
	assert.Equal(t, "5.00", view[0].Amount.String())
	assert.Equal(t, "10.00", view[1].Amount.String())
	assert.Equal(t, "15.00", DeriveTotal(view).String())
}

func TestDeriveTotal(t *testing.T) {
	records := sampleRecords()
	view := DeriveView(records, ViewCriteria{Category: Food, Sort: DateDesc})
	assert.Equal(t, "44.50", DeriveTotal(view).String())
	assert.Equal(t, "55.50", DeriveTotal(records).String())
	assert.Equal(t, "0.00", DeriveTotal(nil).String())
}

func TestDeriveCategoryTotals(t *testing.T) {
	totals := DeriveCategoryTotals(sampleRecords())
	assert.Equal(t, []CategoryTotal{
		{Category: Food, Amount: Money{Cents: 4450}},
		{Category: Transport, Amount: Money{Cents: 200}},
		{Category: Leisure, Amount: Money{Cents: 900}},
	}, totals)

	assert.Empty(t, DeriveCategoryTotals(nil))
}

func TestChartSegments(t *testing.T) {
	segs := ChartSegments([]CategoryTotal{
		{Category: Food, Amount: Money{Cents: 300}},
		{Category: Health, Amount: Money{Cents: 100}},
	})
	require.Len(t, segs, 2)
	assert.Equal(t, 75.0, segs[0].Percent)
	assert.Equal(t, 25.0, segs[1].Percent)
	assert.Empty(t, ChartSegments(nil))
}
