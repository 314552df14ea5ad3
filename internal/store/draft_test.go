package store

import (
	"errors"
	"testing"

	"gastos/internal/core"
)

func TestNewDraftDefaults(t *testing.T) {
	d := NewDraft(core.NewDate(2024, 3, 9))
	if d.Category != "Food" {
		t.Errorf("Category = %q, want first category", d.Category)
	}
	if d.Date != "2024-03-09" {
		t.Errorf("Date = %q", d.Date)
	}
	if d.Description != "" || d.Amount != "" || d.Person != "" {
		t.Errorf("unexpected prefilled values: %+v", d)
	}
}

func TestDraftParse(t *testing.T) {
	tests := []struct {
		name  string
		draft Draft
		want  []error
	}{
		{"valid", Draft{"Rent", "800", "household", "2024-02-01", "Kim"}, nil},
		{"zero amount", Draft{"Rent", "0.00", "Household", "2024-02-01", "Kim"}, []error{core.ErrInvalidAmount}},
		{"sub-cent amount", Draft{"Rent", "0.004", "Household", "2024-02-01", "Kim"}, []error{core.ErrInvalidAmount}},
		{"bad category", Draft{"Rent", "800", "Groceries", "2024-02-01", "Kim"}, []error{core.ErrInvalidCategory}},
		{"bad date", Draft{"Rent", "800", "Household", "01/02/2024", "Kim"}, []error{core.ErrInvalidDate}},
		{"everything empty", Draft{}, []error{
			core.ErrEmptyDescription, core.ErrInvalidAmount, core.ErrInvalidCategory, core.ErrInvalidDate, core.ErrEmptyPerson,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := tt.draft.Parse()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Parse() error = %v", err)
				}
				if f.Amount.Cents != 80000 || f.Category != core.Household {
					t.Errorf("Parse() = %+v", f)
				}
				return
			}
			var ve *core.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Parse() error = %v, want *core.ValidationError", err)
			}
			if len(ve.Problems) != len(tt.want) {
				t.Fatalf("problems = %v, want %d", ve.Problems, len(tt.want))
			}
			for i, w := range tt.want {
				if !errors.Is(ve.Problems[i], w) {
					t.Errorf("problem %d = %v, want %v", i, ve.Problems[i], w)
				}
			}
		})
	}
}

func TestDraftFromRoundTrip(t *testing.T) {
	f := coffee()
	got, err := DraftFrom(f).Parse()
	if err != nil {
		t.Fatal(err)
	}
	if got != f {
		t.Errorf("round trip = %+v, want %+v", got, f)
	}
}
