package http

import (
	"net/http"
	"net/url"

	"gastos/internal/core"
	"gastos/internal/store"
)

// parseDraft copies the form fields verbatim; parsing happens in the store.
func parseDraft(form url.Values) store.Draft {
	return store.Draft{
		Description: sanitizeInput(form.Get("description")),
		Amount:      sanitizeInput(form.Get("amount")),
		Category:    sanitizeInput(form.Get("category")),
		Date:        sanitizeInput(form.Get("date")),
		Person:      sanitizeInput(form.Get("person")),
	}
}

// parseCriteria reads filter and sort from values, falling back to fallback
// when neither is present.
func parseCriteria(values url.Values, fallback core.ViewCriteria) (core.ViewCriteria, error) {
	filter, sort := values.Get("filter"), values.Get("sort")
	if filter == "" && sort == "" {
		return fallback, nil
	}
	if filter == "" {
		filter = fallback.Filter()
	}
	if sort == "" {
		sort = string(fallback.Sort)
	}
	return core.ParseCriteria(sanitizeInput(filter), sanitizeInput(sort))
}

// parseFormOrFail parses the request form and returns an error response on failure.
func parseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid request format")
	}
	return nil
}
