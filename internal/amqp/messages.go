package amqp

import (
	"encoding/json"
	"time"

	"expensetracker/internal/core"
)

type EventType string

const (
	EventExpenseCreated EventType = "expense.created"
	EventExpenseDeleted EventType = "expense.deleted"
)

// ExpenseEvent describes one change to the expense table. Deleted events
// carry only the id.
type ExpenseEvent struct {
	Type        EventType `json:"type"`
	ID          int64     `json:"id"`
	Date        string    `json:"date,omitempty"`
	Category    string    `json:"category,omitempty"`
	Amount      float64   `json:"amount,omitempty"`
	Description string    `json:"description,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewCreatedEvent builds the event for a freshly inserted expense.
func NewCreatedEvent(e core.Expense) ExpenseEvent {
	return ExpenseEvent{
		Type:        EventExpenseCreated,
		ID:          e.ID,
		Date:        e.Date.String(),
		Category:    string(e.Category),
		Amount:      e.Amount,
		Description: e.Description,
		Timestamp:   time.Now(),
	}
}

// NewDeletedEvent builds the event for a removed expense.
func NewDeletedEvent(id int64) ExpenseEvent {
	return ExpenseEvent{
		Type:      EventExpenseDeleted,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (m ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventFromJSON decodes an event produced by ToJSON.
func ExpenseEventFromJSON(data []byte) (ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return ExpenseEvent{}, err
	}
	return msg, nil
}
