package store

import (
	"time"

	"gastos/internal/core"
)

type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

// Change describes one committed mutation of the collection. Expense holds
// the record after the change; for deletions it is the removed record.
type Change struct {
	Op       Op           `json:"op"`
	ID       core.ID      `json:"id"`
	Revision uint64       `json:"revision"`
	At       time.Time    `json:"at"`
	Expense  core.Expense `json:"expense"`
}

type subscriber struct {
	id uint64
	fn func(Change)
}
