package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"

	"expensetracker/internal/core"

	_ "modernc.org/sqlite"
)

const expensesTable = "expenses"

var (
	// ErrStoreUnavailable reports that the database could not be opened or
	// initialized.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrPersistence reports a failed read or write against an open store.
	ErrPersistence = errors.New("persistence error")
)

var expenseColumns = []string{"id", "date", "category", "amount", "description"}

type SQLiteRepository struct {
	db   *sql.DB
	path string
}

// NewSQLiteRepository opens the database file at dbPath, creating it and its
// directory when missing, and ensures the schema exists.
func NewSQLiteRepository(ctx context.Context, dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("%w: create db directory: %w", ErrStoreUnavailable, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite database: %w", ErrStoreUnavailable, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping database: %w", ErrStoreUnavailable, err)
	}

	repo := &SQLiteRepository{
		db:   db,
		path: dbPath,
	}

	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

// EnsureSchema creates the expenses table when it does not exist yet. It is
// safe to call on every startup.
func (r *SQLiteRepository) EnsureSchema(ctx context.Context) error {
	if err := RunMigrations(r.path); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	slog.DebugContext(ctx, "Expense schema ready", "path", r.path)
	return nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ListAll returns every stored expense ordered by id. Callers needing a
// different order sort the result themselves.
func (r *SQLiteRepository) ListAll(ctx context.Context) ([]core.Expense, error) {
	rows, err := sq.Select(expenseColumns...).
		From(expensesTable).
		OrderBy("id").
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list expenses: %w", ErrPersistence, err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan expense: %w", ErrPersistence, err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate expenses: %w", ErrPersistence, err)
	}

	return expenses, nil
}

// Insert persists e and returns the id assigned to it. e.ID is ignored.
func (r *SQLiteRepository) Insert(ctx context.Context, e core.Expense) (int64, error) {
	res, err := sq.Insert(expensesTable).
		Columns("date", "category", "amount", "description").
		Values(e.Date.String(), string(e.Category), e.Amount, e.Description).
		RunWith(r.db).
		ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: insert expense: %w", ErrPersistence, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: read inserted id: %w", ErrPersistence, err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", id,
		"date", e.Date.String(),
		"category", e.Category,
		"amount", e.Amount)

	return id, nil
}

// Delete removes the expense with the given id. Deleting an id that is not
// stored is not an error.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := sq.Delete(expensesTable).
		Where(sq.Eq{"id": id}).
		RunWith(r.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: delete expense %d: %w", ErrPersistence, id, err)
	}

	affected, _ := res.RowsAffected()
	slog.InfoContext(ctx, "Expense deleted from SQLite", "id", id, "rows_affected", affected)
	return nil
}

// Count returns the number of stored expenses.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := sq.Select("COUNT(*)").
		From(expensesTable).
		RunWith(r.db).
		QueryRowContext(ctx).
		Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: count expenses: %w", ErrPersistence, err)
	}
	return n, nil
}

func scanExpense(rows *sql.Rows) (core.Expense, error) {
	var (
		e           core.Expense
		date        sql.NullString
		category    sql.NullString
		amount      sql.NullFloat64
		description sql.NullString
	)
	if err := rows.Scan(&e.ID, &date, &category, &amount, &description); err != nil {
		return core.Expense{}, err
	}

	// Rows written by other tools may carry dates we cannot parse; keep them
	// listable with a zero date instead of failing the whole reload.
	if d, err := core.ParseDate(date.String); err == nil {
		e.Date = d
	}
	e.Category = core.Category(category.String)
	e.Amount = amount.Float64
	e.Description = description.String
	return e, nil
}
