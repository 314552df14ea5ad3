package http

import (
	"errors"
	"fmt"
	"net/http"

	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/store"
)

// finish answers a successful state change: plain form posts are redirected
// back to the page, HTMX requests get the refreshed content block and b's
// triggers. persistErr adds the storage warning.
func (s *Server) finish(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, persistErr error) {
	warn := errors.Is(persistErr, store.ErrPersist)
	if warn {
		log.FromContext(r.Context()).WithComponent(log.ComponentStorage).
			WarnContext(r.Context(), "Change kept in memory only", log.FieldError, persistErr)
	}

	if !isHTMX(r) {
		target := "/"
		if warn {
			target = "/?warn=storage"
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}

	notice := ""
	if warn {
		notice = storageWarning
		b.TriggerWarningNotification(storageWarning)
	}
	s.writeContent(w, r, b, s.pageData(nil, notice))
}

// fail answers a refused request without a state change.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, message string, problems map[string]string) {
	if isHTMX(r) {
		// HTMX does not swap 4xx bodies, so the corrected content goes out as 200.
		s.writeContent(w, r, NewHTMXResponse().TriggerErrorNotification(message), s.pageData(problems, message))
		return
	}
	s.writePage(w, r, status, s.pageData(problems, message))
}

// handleSubmit commits the form as a create, or as an update while an edit
// session is active.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if resp := parseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	_, wasEditing := s.store.Editing()
	id, err := s.store.Submit(r.Context(), parseDraft(r.PostForm))
	switch {
	case errors.Is(err, core.ErrValidation):
		log.FromContext(r.Context()).DebugContext(r.Context(), "Form rejected",
			log.FieldOperation, log.OpValidate, log.FieldError, err)
		s.fail(w, r, http.StatusUnprocessableEntity, "Please correct the highlighted fields", fieldProblems(err))
		return
	case errors.Is(err, store.ErrNotFound):
		s.fail(w, r, http.StatusNotFound, "The expense being edited no longer exists", nil)
		return
	case err != nil && !errors.Is(err, store.ErrPersist):
		s.logError(r, "Failed to save expense", err, log.OpCreate)
		InternalServerError("Error saving expense").Write(w)
		return
	}

	op := log.OpCreate
	b := NewHTMXResponse().TriggerFormReset()
	if wasEditing {
		op = log.OpUpdate
		b.TriggerExpenseUpdated(id).TriggerSuccessNotification("Expense updated")
	} else {
		b.TriggerExpenseCreated(id).TriggerSuccessNotification("Expense added")
	}
	if e, ok := s.store.Get(id); ok {
		log.NewStructuredLogger(log.FromContext(r.Context())).LogExpenseChanged(r.Context(), op,
			int64(e.ID), e.Description, e.Amount.Cents, e.Category.String(), e.Person)
	}
	s.finish(w, r, b, err)
}

func (s *Server) handleBeginEdit(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if _, err := s.store.BeginEdit(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.fail(w, r, http.StatusNotFound, fmt.Sprintf("Expense %d not found", id), nil)
			return
		}
		s.logError(r, "Failed to start edit", err, log.OpEdit)
		InternalServerError("Could not edit expense").Write(w)
		return
	}
	s.finish(w, r, NewHTMXResponse().TriggerEditStarted(id), nil)
}

func (s *Server) handleCancelEdit(w http.ResponseWriter, r *http.Request) {
	s.store.CancelEdit()
	s.finish(w, r, NewHTMXResponse().TriggerFormReset(), nil)
}

// handleDelete removes a record. Deleting an unknown id succeeds.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	e, existed := s.store.Get(id)
	err = s.store.Delete(r.Context(), id)
	if err != nil && !errors.Is(err, store.ErrPersist) {
		s.logError(r, "Failed to delete expense", err, log.OpDelete)
		InternalServerError("Error deleting expense").Write(w)
		return
	}

	b := NewHTMXResponse().TriggerExpenseDeleted(id)
	if existed {
		log.NewStructuredLogger(log.FromContext(r.Context())).LogExpenseChanged(r.Context(), log.OpDelete,
			int64(e.ID), e.Description, e.Amount.Cents, e.Category.String(), e.Person)
		b.TriggerSuccessNotification("Expense deleted")
	}
	s.finish(w, r, b, err)
}

// handleSetView stores new filter and sort criteria.
func (s *Server) handleSetView(w http.ResponseWriter, r *http.Request) {
	if resp := parseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	c, err := core.ParseCriteria(sanitizeInput(r.PostForm.Get("filter")), sanitizeInput(r.PostForm.Get("sort")))
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, "Unknown filter or sort order", nil)
		return
	}
	s.store.SetCriteria(c)
	log.FromContext(r.Context()).DebugContext(r.Context(), "View criteria changed",
		log.FieldOperation, log.OpView, log.FieldFilter, c.Filter(), log.FieldSort, string(c.Sort))
	s.finish(w, r, NewHTMXResponse().TriggerViewChanged(c), nil)
}
