package presenter

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

type fakeStore struct {
	nextID    int64
	items     []core.Expense
	insertErr error
	deleteErr error
	listErr   error
	deletes   []int64
}

func (f *fakeStore) Insert(_ context.Context, e core.Expense) (int64, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.nextID++
	e.ID = f.nextID
	f.items = append(f.items, e)
	return e.ID, nil
}

func (f *fakeStore) Delete(_ context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletes = append(f.deletes, id)
	kept := f.items[:0]
	for _, e := range f.items {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	f.items = kept
	return nil
}

func (f *fakeStore) ListAll(_ context.Context) ([]core.Expense, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]core.Expense(nil), f.items...), nil
}

type fakePublisher struct {
	events []amqp.ExpenseEvent
	err    error
}

func (f *fakePublisher) PublishExpenseEvent(_ context.Context, ev amqp.ExpenseEvent) error {
	f.events = append(f.events, ev)
	return f.err
}

func fixedClock() time.Time {
	return time.Date(2024, 2, 10, 15, 30, 0, 0, time.UTC)
}

func yes(Row) bool { return true }
func no(Row) bool { return false }

func TestNewPresenterDefaults(t *testing.T) {
	p := New(&fakeStore{}, WithClock(fixedClock))

	f := p.Form()
	assert.Equal(t, "2024-02-10", f.Date.String())
	assert.Equal(t, core.Food, f.Category)
	assert.Empty(t, f.Amount)
	assert.Empty(t, f.Description)
	assert.Equal(t, -1, p.Selected())
	assert.Empty(t, p.Rows())
}

func TestOnAddInsertsClearsFormAndReloads(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	pub := &fakePublisher{}
	p := New(store, WithClock(fixedClock), WithPublisher(pub))

	err := p.OnAdd(ctx, core.NewDate(2024, 1, 15), core.Food, "12.50", "lunch")
	require.NoError(t, err)

	rows := p.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"1", "2024-01-15", "Food", "12.50", "lunch"}, rows[0].Cells())

	assert.Equal(t, p.defaultForm(), p.Form())

	require.Len(t, pub.events, 1)
	assert.Equal(t, amqp.EventExpenseCreated, pub.events[0].Type)
	assert.Equal(t, int64(1), pub.events[0].ID)
}

func TestOnAddRejectsInvalidAmountWithoutStoreCall(t *testing.T) {
	store := &fakeStore{}
	p := New(store, WithClock(fixedClock))

	err := p.OnAdd(context.Background(), core.NewDate(2024, 1, 15), core.Food, "twelve", "lunch")
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
	assert.Empty(t, store.items)

	// Submitted values stay in the form for correction.
	assert.Equal(t, "twelve", p.Form().Amount)
	assert.Equal(t, "lunch", p.Form().Description)
}

func TestOnAddRejectsUnknownCategory(t *testing.T) {
	store := &fakeStore{}
	p := New(store)

	err := p.OnAdd(context.Background(), core.NewDate(2024, 1, 15), "Travel", "1", "")
	assert.ErrorIs(t, err, core.ErrUnknownCategory)
	assert.Empty(t, store.items)
}

func TestOnAddSurfacesPersistenceError(t *testing.T) {
	store := &fakeStore{insertErr: storage.ErrPersistence}
	pub := &fakePublisher{}
	p := New(store, WithPublisher(pub))

	err := p.OnAdd(context.Background(), core.NewDate(2024, 1, 15), core.Bills, "80", "power")
	assert.ErrorIs(t, err, storage.ErrPersistence)
	assert.Equal(t, "80", p.Form().Amount)
	assert.Empty(t, pub.events)
}

func TestOnAddIgnoresPublishFailure(t *testing.T) {
	store := &fakeStore{}
	p := New(store, WithPublisher(&fakePublisher{err: errors.New("broker down")}))

	require.NoError(t, p.OnAdd(context.Background(), core.NewDate(2024, 1, 15), core.Food, "1", ""))
	assert.Len(t, p.Rows(), 1)
}

func TestOnDeleteWithoutSelection(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	p := New(store)
	require.NoError(t, p.OnAdd(ctx, core.NewDate(2024, 1, 15), core.Food, "1", ""))

	called := false
	err := p.OnDelete(ctx, func(Row) bool { called = true; return true })

	assert.ErrorIs(t, err, ErrNoSelection)
	assert.False(t, called, "confirmation must not be requested")
	assert.Empty(t, store.deletes)
	assert.Len(t, store.items, 1)
}

func TestOnDeleteDeclinedIsNoop(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	p := New(store)
	require.NoError(t, p.OnAdd(ctx, core.NewDate(2024, 1, 15), core.Food, "1", ""))

	p.Select(0)
	require.NoError(t, p.OnDelete(ctx, no))
	require.NoError(t, p.OnDelete(ctx, nil))

	assert.Empty(t, store.deletes)
	assert.Equal(t, 0, p.Selected())
}

func TestOnDeleteConfirmedRemovesSelectedRow(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	pub := &fakePublisher{}
	p := New(store, WithPublisher(pub))

	require.NoError(t, p.OnAdd(ctx, core.NewDate(2024, 1, 15), core.Food, "12.50", "lunch"))
	require.NoError(t, p.OnAdd(ctx, core.NewDate(2024, 1, 20), core.Rent, "700", "jan"))

	// Most recent first: row 0 is id 2, row 1 is id 1.
	rows := p.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "2", rows[0].ID)
	assert.Equal(t, "1", rows[1].ID)

	var confirmed Row
	p.Select(1)
	require.NoError(t, p.OnDelete(ctx, func(r Row) bool { confirmed = r; return true }))

	assert.Equal(t, "1", confirmed.ID)
	assert.Equal(t, []int64{1}, store.deletes)
	require.Len(t, p.Rows(), 1)
	assert.Equal(t, "2", p.Rows()[0].ID)
	assert.Equal(t, -1, p.Selected())

	require.Len(t, pub.events, 3)
	assert.Equal(t, amqp.EventExpenseDeleted, pub.events[2].Type)
	assert.Equal(t, int64(1), pub.events[2].ID)
}

func TestOnDeleteSurfacesPersistenceError(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	p := New(store)
	require.NoError(t, p.OnAdd(ctx, core.NewDate(2024, 1, 15), core.Food, "1", ""))

	store.deleteErr = storage.ErrPersistence
	p.Select(0)
	err := p.OnDelete(ctx, yes)

	assert.ErrorIs(t, err, storage.ErrPersistence)
	assert.Len(t, p.Rows(), 1)
}

func TestSelectOutOfRangeClears(t *testing.T) {
	ctx := context.Background()
	p := New(&fakeStore{})
	require.NoError(t, p.OnAdd(ctx, core.NewDate(2024, 1, 15), core.Food, "1", ""))

	p.Select(0)
	assert.Equal(t, 0, p.Selected())
	p.Select(5)
	assert.Equal(t, -1, p.Selected())
	p.Select(0)
	p.ClearSelection()
	assert.Equal(t, -1, p.Selected())
}

func TestReloadSortsByDateDescending(t *testing.T) {
	store := &fakeStore{items: []core.Expense{
		{ID: 1, Date: core.NewDate(2024, 1, 2), Category: core.Food},
		{ID: 2, Date: core.NewDate(2024, 3, 1), Category: core.Food},
		{ID: 3, Date: core.NewDate(2024, 1, 2), Category: core.Food},
		{ID: 4, Date: core.NewDate(2023, 12, 31), Category: core.Food},
	}}
	p := New(store)

	require.NoError(t, p.Reload(context.Background()))

	var ids []string
	for _, r := range p.Rows() {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"2", "3", "1", "4"}, ids)
}

func TestReloadFailureClearsTable(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	p := New(store)
	require.NoError(t, p.OnAdd(ctx, core.NewDate(2024, 1, 15), core.Food, "1", ""))
	p.Select(0)

	store.listErr = storage.ErrPersistence
	err := p.Reload(ctx)

	assert.ErrorIs(t, err, storage.ErrPersistence)
	assert.Empty(t, p.Rows())
	assert.Equal(t, -1, p.Selected())
}

func TestPresenterAgainstSQLite(t *testing.T) {
	ctx := context.Background()
	repo, err := storage.NewSQLiteRepository(ctx, filepath.Join(t.TempDir(), "expenses.db"))
	require.NoError(t, err)
	defer repo.Close()

	p := New(repo, WithClock(fixedClock))
	require.NoError(t, p.Reload(ctx))
	assert.Empty(t, p.Rows())

	require.NoError(t, p.OnAdd(ctx, core.NewDate(2024, 1, 15), core.Food, "12.50", "lunch"))
	require.NoError(t, p.OnAdd(ctx, core.NewDate(2024, 1, 15), core.Transportation, "3,20", "bus"))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, count, len(p.Rows()))

	// Same date: higher id first.
	rows := p.Rows()
	assert.Equal(t, []string{"2", "2024-01-15", "Transportation", "3.20", "bus"}, rows[0].Cells())
	assert.Equal(t, []string{"1", "2024-01-15", "Food", "12.50", "lunch"}, rows[1].Cells())

	p.Select(1)
	require.NoError(t, p.OnDelete(ctx, yes))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, int64(2), all[0].ID)
	assert.Len(t, p.Rows(), 1)
}

func TestDefaultDateIsCalendarDayOfClock(t *testing.T) {
	late := func() time.Time {
		return time.Date(2024, 2, 10, 23, 59, 0, 0, time.FixedZone("UTC-11", -11*3600))
	}
	p := New(&fakeStore{}, WithClock(late))
	assert.Equal(t, "2024-02-10", p.Form().Date.String())
}

func TestReloadSumsCurrentMonth(t *testing.T) {
	store := &fakeStore{}
	p := New(store, WithClock(fixedClock))
	ctx := context.Background()

	require.NoError(t, p.OnAdd(ctx, core.NewDate(2024, 1, 31), core.Rent, "100", ""))
	require.NoError(t, p.OnAdd(ctx, core.NewDate(2024, 2, 1), core.Food, "10", ""))
	require.NoError(t, p.OnAdd(ctx, core.NewDate(2024, 2, 29), core.Bills, "5,25", ""))
	require.NoError(t, p.OnAdd(ctx, core.NewDate(2024, 3, 1), core.Other, "7", ""))

	total := p.MonthTotal()
	assert.Equal(t, "2024-02-01", core.DateOf(total.Start).String())
	assert.Equal(t, "2024-02-29", core.DateOf(total.End).String())
	assert.InDelta(t, 15.25, total.Amount, 1e-9)

	store.listErr = errors.New("disk gone")
	require.Error(t, p.Reload(ctx))
	assert.Zero(t, p.MonthTotal().Amount)
}
