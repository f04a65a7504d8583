// Package presenter holds the expense tracker's UI state and turns user
// actions into store calls.
//
// A Presenter is not safe for concurrent use; the UI layer is expected to
// deliver events one at a time.
package presenter

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/jinzhu/now"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/log"
)

// ErrNoSelection is returned by OnDelete when no row is selected.
var ErrNoSelection = errors.New("no expense selected")

// Store is the persistence the presenter drives.
type Store interface {
	Insert(ctx context.Context, e core.Expense) (int64, error)
	Delete(ctx context.Context, id int64) error
	ListAll(ctx context.Context) ([]core.Expense, error)
}

// EventPublisher receives lifecycle events after a mutation succeeded.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, ev amqp.ExpenseEvent) error
}

// ConfirmFunc asks the user whether row should really be deleted.
type ConfirmFunc func(row Row) bool

// Form is the current content of the input fields.
type Form struct {
	Date        core.Date
	Category    core.Category
	Amount      string
	Description string
}

// Row is one rendered table line, in column order
// [ID, Date, Category, Amount, Description].
type Row struct {
	ID          string
	Date        string
	Category    string
	Amount      string
	Description string

	id int64
}

// Cells returns the row's columns in display order.
func (r Row) Cells() []string {
	return []string{r.ID, r.Date, r.Category, r.Amount, r.Description}
}

// Columns are the table headers.
var Columns = []string{"ID", "Date", "Category", "Amount", "Description"}

type Presenter struct {
	store     Store
	publisher EventPublisher
	logger    *log.Logger
	clock     func() time.Time

	form       Form
	rows       []Row
	selected   int
	monthTotal MonthTotal
}

// MonthTotal sums the amounts dated in the current calendar month.
type MonthTotal struct {
	Start  time.Time
	End    time.Time
	Amount float64
}

// Contains reports whether d falls inside the month.
func (m MonthTotal) Contains(d core.Date) bool {
	return !d.Before(m.Start) && !d.After(m.End)
}

type Option func(*Presenter)

// WithPublisher sends lifecycle events to p. A nil publisher disables events.
func WithPublisher(p EventPublisher) Option {
	return func(pr *Presenter) { pr.publisher = p }
}

func WithLogger(l *log.Logger) Option {
	return func(pr *Presenter) {
		if l != nil {
			pr.logger = l.WithComponent(log.ComponentPresenter)
		}
	}
}

// WithClock overrides the source of "today" for the form defaults.
func WithClock(clock func() time.Time) Option {
	return func(pr *Presenter) {
		if clock != nil {
			pr.clock = clock
		}
	}
}

func New(store Store, opts ...Option) *Presenter {
	p := &Presenter{
		store:    store,
		logger:   log.ForComponent(log.ComponentPresenter),
		clock:    time.Now,
		selected: -1,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.form = p.defaultForm()
	p.monthTotal = p.currentMonth()
	return p
}

func (p *Presenter) defaultForm() Form {
	return Form{
		Date:     core.DateOf(p.clock()),
		Category: core.Food,
	}
}

// Form returns the current input field values.
func (p *Presenter) Form() Form {
	return p.form
}

// Rows returns the rows rendered by the last reload.
func (p *Presenter) Rows() []Row {
	return append([]Row(nil), p.rows...)
}

// Selected returns the selected row index, or -1.
func (p *Presenter) Selected() int {
	return p.selected
}

// Select marks row index as selected. An index outside the table clears the
// selection.
func (p *Presenter) Select(index int) {
	if index < 0 || index >= len(p.rows) {
		p.selected = -1
		return
	}
	p.selected = index
}

func (p *Presenter) ClearSelection() {
	p.selected = -1
}

// MonthTotal returns the spending of the month containing today, as of the
// last reload.
func (p *Presenter) MonthTotal() MonthTotal {
	return p.monthTotal
}

func (p *Presenter) currentMonth() MonthTotal {
	today := now.With(core.DateOf(p.clock()).Time)
	return MonthTotal{Start: today.BeginningOfMonth(), End: today.EndOfMonth()}
}

// OnAdd stores a new expense built from the form fields. On success the form
// is reset and the table reloaded; on failure the submitted values stay in
// the form.
func (p *Presenter) OnAdd(ctx context.Context, date core.Date, category core.Category, amountText, description string) (err error) {
	start := time.Now()
	defer func() { observeOperation(log.OpAdd, start, err) }()

	p.form = Form{Date: date, Category: category, Amount: amountText, Description: description}

	amount, err := core.ParseAmount(amountText)
	if err != nil {
		return err
	}
	e := core.Expense{
		Date:        date,
		Category:    category,
		Amount:      amount,
		Description: description,
	}
	if err := e.Validate(); err != nil {
		return err
	}

	id, err := p.store.Insert(ctx, e)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to add expense",
			log.FieldError, err,
			log.FieldDate, e.Date.String(),
			log.FieldCategory, e.Category,
			log.FieldAmount, e.Amount)
		return fmt.Errorf("add expense: %w", err)
	}
	e.ID = id

	p.logger.InfoContext(ctx, "Expense added",
		log.FieldExpenseID, id,
		log.FieldDate, e.Date.String(),
		log.FieldCategory, e.Category,
		log.FieldAmount, e.Amount,
		log.FieldDescription, e.Description)

	p.publish(ctx, amqp.NewCreatedEvent(e))
	p.form = p.defaultForm()
	return p.Reload(ctx)
}

// OnDelete deletes the selected expense after confirm approves it. A nil
// confirm counts as a refusal.
func (p *Presenter) OnDelete(ctx context.Context, confirm ConfirmFunc) (err error) {
	start := time.Now()
	defer func() { observeOperation(log.OpDelete, start, err) }()

	if p.selected < 0 || p.selected >= len(p.rows) {
		return ErrNoSelection
	}
	row := p.rows[p.selected]

	if confirm == nil || !confirm(row) {
		p.logger.DebugContext(ctx, "Delete not confirmed", log.FieldExpenseID, row.id)
		return nil
	}

	if err := p.store.Delete(ctx, row.id); err != nil {
		p.logger.ErrorContext(ctx, "Failed to delete expense",
			log.FieldError, err,
			log.FieldExpenseID, row.id)
		return fmt.Errorf("delete expense %d: %w", row.id, err)
	}

	p.logger.InfoContext(ctx, "Expense deleted", log.FieldExpenseID, row.id)

	p.publish(ctx, amqp.NewDeletedEvent(row.id))
	return p.Reload(ctx)
}

// Reload replaces the table with the store's current content, most recent
// date first. The selection is cleared.
func (p *Presenter) Reload(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { observeOperation(log.OpReload, start, err) }()

	p.rows = nil
	p.selected = -1
	p.monthTotal = p.currentMonth()

	expenses, err := p.store.ListAll(ctx)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to load expenses", log.FieldError, err)
		return fmt.Errorf("reload expenses: %w", err)
	}

	sort.SliceStable(expenses, func(i, j int) bool {
		a, b := expenses[i], expenses[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.After(b.Date.Time)
		}
		return a.ID > b.ID
	})

	rows := make([]Row, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, renderRow(e))
		if p.monthTotal.Contains(e.Date) {
			p.monthTotal.Amount += e.Amount
		}
	}
	p.rows = rows
	rowsDisplayed.Set(float64(len(rows)))

	p.logger.DebugContext(ctx, "Expenses reloaded", log.FieldRowCount, len(rows))
	return nil
}

func renderRow(e core.Expense) Row {
	return Row{
		ID:          strconv.FormatInt(e.ID, 10),
		Date:        e.Date.String(),
		Category:    string(e.Category),
		Amount:      core.FormatAmount(e.Amount),
		Description: e.Description,
		id:          e.ID,
	}
}

func (p *Presenter) publish(ctx context.Context, ev amqp.ExpenseEvent) {
	if p.publisher == nil {
		return
	}
	// The mutation is already stored; a lost event is only logged.
	if err := p.publisher.PublishExpenseEvent(ctx, ev); err != nil {
		p.logger.WarnContext(ctx, "Failed to publish expense event",
			log.FieldError, err,
			log.FieldExpenseID, ev.ID,
			"event_type", ev.Type)
	}
}
