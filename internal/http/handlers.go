package http

import (
	"net/http"
	"time"

	"gastos/internal/core"
	"gastos/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}

// handleReady reports whether templates are loaded and the store is wired.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.store == nil {
		checks["store"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = map[string]any{
			"records":  len(s.store.Records()),
			"revision": s.store.Revision(),
		}
	}
	checks["security"] = s.metrics.snapshot()

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	notice := ""
	if r.URL.Query().Get("warn") == "storage" {
		notice = storageWarning
	}
	s.store.Refresh(r.Context())
	s.writePage(w, r, http.StatusOK, s.pageData(nil, notice))
}

// writePage renders the full page, or just its content block for HTMX.
func (s *Server) writePage(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	s.writeContent(w, r, NewHTMXResponse().Status(status), data)
}

func (s *Server) writeContent(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, data pageData) {
	name := "index.html"
	if isHTMX(r) {
		name = "content"
	}
	body, err := s.render(name, data)
	if err != nil {
		s.logError(r, "Template render failed", err, log.OpRender)
		InternalServerError("Could not render page").Write(w)
		return
	}
	b.BodyHTML(string(body)).Write(w)
}

type expensesResponse struct {
	Filter   string         `json:"filter"`
	Sort     core.SortOrder `json:"sort"`
	Count    int            `json:"count"`
	Total    core.Money     `json:"total"`
	Expenses []core.Expense `json:"expenses"`
}

// handleAPIExpenses returns the view for the query's filter and sort, or for
// the stored criteria when the query has neither.
func (s *Server) handleAPIExpenses(w http.ResponseWriter, r *http.Request) {
	c, err := parseCriteria(r.URL.Query(), s.store.Criteria())
	if err != nil {
		log.FromContext(r.Context()).Warn("Rejected view criteria", log.FieldError, err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.store.Refresh(r.Context())
	view := s.store.ViewWith(c)
	writeJSON(w, http.StatusOK, expensesResponse{
		Filter:   c.Filter(),
		Sort:     c.Sort,
		Count:    len(view),
		Total:    core.DeriveTotal(view),
		Expenses: view,
	})
}

type chartResponse struct {
	Total    core.Money     `json:"total"`
	Segments []core.Segment `json:"segments"`
}

func (s *Server) handleAPIChart(w http.ResponseWriter, r *http.Request) {
	s.store.Refresh(r.Context())
	segments := s.store.Segments()
	var total core.Money
	for _, seg := range segments {
		total = total.Add(seg.Amount)
	}
	writeJSON(w, http.StatusOK, chartResponse{Total: total, Segments: segments})
}
