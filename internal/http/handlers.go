package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/presenter"
)

// errStaleSelection means the posted row no longer shows the expense the
// user picked.
var errStaleSelection = errors.New("selected row no longer matches its expense")

// formView is the add form as rendered.
type formView struct {
	Date        string
	Category    string
	Amount      string
	Description string
}

func formViewOf(f presenter.Form) formView {
	return formView{
		Date:        f.Date.String(),
		Category:    f.Category.String(),
		Amount:      f.Amount,
		Description: f.Description,
	}
}

// pageData feeds templates/index.html.
type pageData struct {
	Columns    []string
	Categories []core.Category
	Form       formView
	Rows       []presenter.Row
	Selected   int

	MonthLabel string
	MonthTotal string

	// Submitted overrides Form when the input never reached the presenter.
	Submitted *formView

	// Confirm is set while a delete waits for the user's answer.
	Confirm      *presenter.Row
	ConfirmIndex int

	Warning string
	Notice  string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := http.StatusOK
	var data pageData
	if err := s.presenter.Reload(r.Context()); err != nil {
		status, data.Warning = warningFor(err)
	}
	s.render(w, r, status, data)
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Parse form error", log.FieldError, err)
		s.renderLocked(w, r, http.StatusBadRequest, pageData{Warning: "The form could not be read."})
		return
	}

	amount := sanitizeInput(r.Form.Get("amount"))
	description := sanitizeInput(r.Form.Get("description"))
	submitted := &formView{
		Date:        sanitizeInput(r.Form.Get("date")),
		Category:    sanitizeInput(r.Form.Get("category")),
		Amount:      amount,
		Description: description,
	}

	date, err := core.ParseDate(submitted.Date)
	if err != nil {
		s.renderLocked(w, r, http.StatusUnprocessableEntity, pageData{Warning: "Please pick a valid date.", Submitted: submitted})
		return
	}
	category, err := core.ParseCategory(submitted.Category)
	if err != nil {
		s.renderLocked(w, r, http.StatusUnprocessableEntity, pageData{Warning: "Please pick one of the listed categories.", Submitted: submitted})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.presenter.OnAdd(r.Context(), date, category, amount, description); err != nil {
		status, warning := warningFor(err)
		s.render(w, r, status, pageData{Warning: warning})
		return
	}
	s.render(w, r, http.StatusOK, pageData{Notice: "Expense added."})
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Parse form error", log.FieldError, err)
		s.renderLocked(w, r, http.StatusBadRequest, pageData{Warning: "The form could not be read."})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.selectRow(r.Context(), r.Form.Get("row")); err != nil {
		status, warning := warningFor(err)
		if reloadErr := s.presenter.Reload(r.Context()); reloadErr != nil {
			status, warning = warningFor(reloadErr)
		}
		s.render(w, r, status, pageData{Warning: warning})
		return
	}

	confirmed := r.Form.Get("confirm") == "yes"
	var pending *presenter.Row
	err := s.presenter.OnDelete(r.Context(), func(row presenter.Row) bool {
		if !confirmed {
			pending = &row
		}
		return confirmed
	})
	if err != nil {
		status, warning := warningFor(err)
		s.render(w, r, status, pageData{Warning: warning})
		return
	}

	if pending != nil {
		s.render(w, r, http.StatusOK, pageData{Confirm: pending, ConfirmIndex: s.presenter.Selected()})
		return
	}
	s.render(w, r, http.StatusOK, pageData{Notice: "Expense deleted."})
}

// selectRow maps the submitted "index:id" value onto the presenter's
// selection. An empty value clears it. The expense id must still be shown at
// that index, otherwise errStaleSelection is returned and nothing is selected.
func (s *Server) selectRow(ctx context.Context, value string) error {
	s.presenter.ClearSelection()
	if value == "" {
		return nil
	}

	indexText, id, _ := strings.Cut(value, ":")
	index, err := strconv.Atoi(indexText)
	rows := s.presenter.Rows()
	if err != nil || index < 0 || index >= len(rows) || id == "" || rows[index].ID != id {
		log.FromContext(ctx).WarnContext(ctx, "Stale row selection", log.FieldRowIndex, indexText, log.FieldExpenseID, id)
		return errStaleSelection
	}

	s.presenter.Select(index)
	log.FromContext(ctx).DebugContext(ctx, "Row selected", log.FieldRowIndex, index, log.FieldExpenseID, id)
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if s.counter != nil {
		if _, err := s.counter.Count(r.Context()); err != nil {
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Readiness check failed", log.FieldError, err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("store unavailable"))
			return
		}
	}
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) renderLocked(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.render(w, r, status, data)
}

// render fills data from the presenter state and writes the page. Callers
// hold s.mu.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	data.Columns = presenter.Columns
	data.Categories = core.Categories()
	data.Form = formViewOf(s.presenter.Form())
	if data.Submitted != nil {
		data.Form = *data.Submitted
	}
	data.Rows = s.presenter.Rows()
	data.Selected = s.presenter.Selected()
	month := s.presenter.MonthTotal()
	data.MonthLabel = month.Start.Format("January 2006")
	data.MonthTotal = core.FormatAmount(month.Amount)

	if s.templates == nil {
		http.Error(w, "templates unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution error",
			log.FieldError, err,
			log.FieldOperation, log.OpRender)
	}
}

// warningFor maps an action error to the status code and the single warning
// line shown to the user.
func warningFor(err error) (int, string) {
	switch {
	case errors.Is(err, presenter.ErrNoSelection):
		return http.StatusUnprocessableEntity, "Please select an expense to delete."
	case errors.Is(err, errStaleSelection):
		return http.StatusConflict, "The expense list changed since it was shown. Please select the expense again."
	case errors.Is(err, core.ErrInvalidAmount):
		return http.StatusUnprocessableEntity, "Amount must be a number, for example 12.50."
	case errors.Is(err, core.ErrInvalidDate):
		return http.StatusUnprocessableEntity, "Please pick a valid date."
	case errors.Is(err, core.ErrUnknownCategory):
		return http.StatusUnprocessableEntity, "Please pick one of the listed categories."
	default:
		return http.StatusInternalServerError, "The expense list could not be updated. Please try again."
	}
}
