package store

import (
	"errors"
	"fmt"
	"strings"

	"gastos/internal/core"
)

// Draft is the form as typed by the user, before any parsing.
type Draft struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	Person      string `json:"person"`
}

// NewDraft returns an empty form with the first category and today's date
// preselected.
func NewDraft(today core.Date) Draft {
	return Draft{
		Category: core.Categories()[0].String(),
		Date:     today.String(),
	}
}

// DraftFrom pre-populates the form with the values of an existing record.
func DraftFrom(f core.Fields) Draft {
	return Draft{
		Description: f.Description,
		Amount:      f.Amount.String(),
		Category:    f.Category.String(),
		Date:        f.Date.String(),
		Person:      f.Person,
	}
}

// Parse converts the draft into validated fields. On failure the returned
// error is a *core.ValidationError listing every problem.
func (d Draft) Parse() (core.Fields, error) {
	f := core.Fields{
		Description: strings.TrimSpace(d.Description),
		Person:      strings.TrimSpace(d.Person),
	}
	detail := make(map[error]error, 3)

	if cents, err := core.ParseDecimalToCents(d.Amount); err != nil {
		detail[core.ErrInvalidAmount] = fmt.Errorf("%w: %q", core.ErrInvalidAmount, d.Amount)
	} else {
		f.Amount = core.Money{Cents: cents}
	}
	if cat, err := core.ParseCategory(d.Category); err != nil {
		detail[core.ErrInvalidCategory] = err
	} else {
		f.Category = cat
	}
	if date, err := core.ParseDate(d.Date); err != nil {
		detail[core.ErrInvalidDate] = err
	} else {
		f.Date = date
	}

	err := f.Validate()
	if err == nil {
		return f, nil
	}
	var ve *core.ValidationError
	if !errors.As(err, &ve) {
		return core.Fields{}, err
	}
	for i, p := range ve.Problems {
		for sentinel, e := range detail {
			if errors.Is(p, sentinel) {
				ve.Problems[i] = e
			}
		}
	}
	return core.Fields{}, ve
}
