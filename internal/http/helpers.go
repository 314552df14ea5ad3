package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"gastos/internal/core"
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

var errInvalidID = errors.New("invalid expense id")

// parseID reads the {id} route parameter.
func parseID(r *http.Request) (core.ID, error) {
	raw := chi.URLParam(r, "id")
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n <= 0 {
		return 0, errInvalidID
	}
	return core.ID(n), nil
}

// problemFields maps validation sentinels to the form field they belong to.
var problemFields = []struct {
	sentinel error
	field    string
}{
	{core.ErrEmptyDescription, "description"},
	{core.ErrInvalidAmount, "amount"},
	{core.ErrInvalidCategory, "category"},
	{core.ErrInvalidDate, "date"},
	{core.ErrEmptyPerson, "person"},
}

var fieldMessages = map[string]string{
	"description": "Enter a description",
	"amount":      "Enter an amount greater than zero",
	"category":    "Pick one of the listed categories",
	"date":        "Enter a date as YYYY-MM-DD",
	"person":      "Enter who paid",
}

// fieldProblems turns a validation error into per-field messages for the form.
func fieldProblems(err error) map[string]string {
	var ve *core.ValidationError
	if !errors.As(err, &ve) {
		return nil
	}
	out := make(map[string]string, len(ve.Problems))
	for _, p := range ve.Problems {
		for _, pf := range problemFields {
			if !errors.Is(p, pf.sentinel) {
				continue
			}
			if _, seen := out[pf.field]; seen {
				break
			}
			out[pf.field] = fieldMessages[pf.field]
			break
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
