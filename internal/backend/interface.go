package backend

import (
	"context"

	"expensetracker/internal/core"
)

// Store is the full expense store contract: the operations the presenter
// drives plus the ones used for readiness and shutdown.
type Store interface {
	Insert(ctx context.Context, e core.Expense) (int64, error)
	Delete(ctx context.Context, id int64) error
	ListAll(ctx context.Context) ([]core.Expense, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// Config holds configuration for backend creation
type Config struct {
	Type         BackendType
	SQLiteDBPath string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	return []string{SQLiteBackend.String(), MemoryBackend.String()}
}
