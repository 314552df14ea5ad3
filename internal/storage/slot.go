// Package storage holds the durable storage slot that mirrors the expense
// collection: one named key whose value is the whole collection as JSON.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DefaultKey names the slot the collection lives in.
const DefaultKey = "expenses"

var (
	// ErrSlotEmpty is returned by Load when nothing has been saved under the key.
	ErrSlotEmpty  = errors.New("storage slot is empty")
	ErrInvalidKey = errors.New("invalid storage key")
)

// CheckKey accepts plain names only, since file slots use the key as a file
// name inside the data directory.
func CheckKey(key string) error {
	if strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") || strings.ContainsRune(key, 0) {
		return fmt.Errorf("%w %q: must be a plain name", ErrInvalidKey, key)
	}
	return nil
}

// Slot is a single key-value entry. Save overwrites the previous value.
type Slot interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}
