package amqp

import (
	"strings"
	"testing"
	"time"

	"gastos/internal/core"
	"gastos/internal/store"
)

func TestNewChangeMessage(t *testing.T) {
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	msg := NewChangeMessage(store.Change{
		Op:       store.OpUpdated,
		ID:       12345,
		Revision: 7,
		At:       at,
		Expense:  core.Expense{ID: 12345, Fields: coffee()},
	})

	if msg.Op != "updated" || msg.ID != 12345 || msg.Revision != 7 {
		t.Errorf("NewChangeMessage() = %+v", msg)
	}
	if msg.Timestamp.Location() != time.UTC || !msg.Timestamp.Equal(at) {
		t.Errorf("Timestamp = %v, want %v in UTC", msg.Timestamp, at)
	}
	if msg.Expense == nil || msg.Expense.Description != "Coffee" {
		t.Errorf("Expense = %+v", msg.Expense)
	}
}

func TestChangeMessage_JSON(t *testing.T) {
	msg := NewChangeMessage(store.Change{
		Op:       store.OpCreated,
		ID:       1704067200000,
		Revision: 1,
		At:       time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		Expense:  core.Expense{ID: 1704067200000, Fields: coffee()},
	})

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	if !strings.Contains(string(jsonBytes), `"amount":3.50`) {
		t.Errorf("expected amount as a two-decimal number in %s", jsonBytes)
	}

	parsed, err := ChangeMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("ChangeMessageFromJSON() error = %v", err)
	}
	if parsed.ID != msg.ID || parsed.Op != msg.Op || parsed.Revision != msg.Revision {
		t.Errorf("Parsed = %+v, want %+v", parsed, msg)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
	if parsed.Expense.Fields != msg.Expense.Fields {
		t.Errorf("Parsed Expense = %+v, want %+v", parsed.Expense, msg.Expense)
	}
}

func TestChangeMessage_InvalidJSON(t *testing.T) {
	invalidJSON := []byte(`{"id": "not_a_number", "op": "created"}`)

	_, err := ChangeMessageFromJSON(invalidJSON)
	if err == nil {
		t.Error("ChangeMessageFromJSON() should fail with invalid JSON")
	}
}
