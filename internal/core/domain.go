package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateFormat is the ISO 8601 calendar date layout used everywhere a date is
// written as text.
const DateFormat = "2006-01-02"

const (
	Food      Category = "Food"
	Transport Category = "Transport"
	Leisure   Category = "Leisure"
	Household Category = "Household"
	Health    Category = "Health"
	Other     Category = "Other"
)

type (
	// ID identifies an expense. Issued from the creation clock in milliseconds.
	ID int64

	Category string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Fields are the user-editable parts of an expense.
	Fields struct {
		Description string   `json:"description"`
		Amount      Money    `json:"amount"`
		Category    Category `json:"category"`
		Date        Date     `json:"date"`
		Person      string   `json:"person"`
	}

	Expense struct {
		ID ID `json:"id"`
		Fields
	}
)

var categories = []Category{Food, Transport, Leisure, Household, Health, Other}

var (
	ErrValidation       = errors.New("validation failed")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyPerson      = errors.New("empty person")
)

// ValidationError lists every problem found in a set of fields.
type ValidationError struct {
	Problems []error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Is reports ErrValidation and any of the collected problems.
func (e *ValidationError) Is(target error) bool {
	if target == ErrValidation {
		return true
	}
	for _, p := range e.Problems {
		if errors.Is(p, target) {
			return true
		}
	}
	return false
}

// Categories returns the fixed category enumeration in display order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// ParseCategory matches s case-insensitively against the enumeration.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range categories {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

func (c Category) Valid() bool {
	for _, k := range categories {
		if c == k {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar date in local time, stored as UTC midnight.
func Today(now time.Time) Date {
	y, m, d := now.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateFormat)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Compare returns -1, 0 or +1 comparing calendar days.
func (d Date) Compare(o Date) int {
	return d.Time.Compare(o.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, data)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks every field and reports all problems at once.
func (f Fields) Validate() error {
	var problems []error
	if strings.TrimSpace(f.Description) == "" {
		problems = append(problems, ErrEmptyDescription)
	}
	if err := f.Amount.Validate(); err != nil {
		problems = append(problems, err)
	}
	if !f.Category.Valid() {
		problems = append(problems, fmt.Errorf("%w: %q", ErrInvalidCategory, f.Category))
	}
	if err := f.Date.Validate(); err != nil {
		problems = append(problems, err)
	}
	if strings.TrimSpace(f.Person) == "" {
		problems = append(problems, ErrEmptyPerson)
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func (e Expense) Validate() error {
	if e.ID <= 0 {
		return &ValidationError{Problems: []error{errors.New("missing id")}}
	}
	return e.Fields.Validate()
}
