package amqp

import (
	"encoding/json"
	"time"

	"gastos/internal/core"
	"gastos/internal/store"
)

// ChangeMessage announces one committed mutation of the expense collection.
// Expense carries the record after the change, or the removed record for
// deletions.
type ChangeMessage struct {
	Op        string        `json:"op"`
	ID        int64         `json:"id"`
	Revision  uint64        `json:"revision"`
	Timestamp time.Time     `json:"timestamp"`
	Expense   *core.Expense `json:"expense,omitempty"`
}

// NewChangeMessage converts a store change into its wire form.
func NewChangeMessage(c store.Change) *ChangeMessage {
	e := c.Expense
	return &ChangeMessage{
		Op:        string(c.Op),
		ID:        int64(c.ID),
		Revision:  c.Revision,
		Timestamp: c.At.UTC(),
		Expense:   &e,
	}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON creates a message from JSON bytes
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
