package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"gastos/internal/core"
)

// Hydrate reads the collection from the slot and returns it with the raw
// value it was decoded from. A missing key, a read failure or a value that is
// not a JSON array all yield an empty collection; records that fail to decode
// or validate are skipped.
func Hydrate(ctx context.Context, slot Slot, logger *slog.Logger) ([]core.Expense, []byte) {
	if logger == nil {
		logger = slog.Default()
	}
	data, err := slot.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrSlotEmpty) {
			logger.WarnContext(ctx, "Storage slot unreadable, starting empty", "error", err)
		}
		return nil, nil
	}
	return Decode(ctx, data, logger), data
}

// Decode parses a slot value. Empty or malformed data yields no records.
func Decode(ctx context.Context, data []byte, logger *slog.Logger) []core.Expense {
	if len(data) == 0 {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.WarnContext(ctx, "Storage slot holds invalid data, starting empty", "error", err, "bytes", len(data))
		return nil
	}

	records := make([]core.Expense, 0, len(raw))
	seen := make(map[core.ID]struct{}, len(raw))
	for i, r := range raw {
		var e core.Expense
		if err := json.Unmarshal(r, &e); err != nil {
			logger.WarnContext(ctx, "Skipping undecodable record", "index", i, "error", err)
			continue
		}
		if err := e.Validate(); err != nil {
			logger.WarnContext(ctx, "Skipping invalid record", "index", i, "id", e.ID, "error", err)
			continue
		}
		if _, dup := seen[e.ID]; dup {
			logger.WarnContext(ctx, "Skipping record with duplicate id", "index", i, "id", e.ID)
			continue
		}
		seen[e.ID] = struct{}{}
		records = append(records, e)
	}
	return records
}

// Persist overwrites the slot with the full collection and returns the bytes
// written.
func Persist(ctx context.Context, slot Slot, records []core.Expense) ([]byte, error) {
	if records == nil {
		records = []core.Expense{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode expenses: %w", err)
	}
	if err := slot.Save(ctx, data); err != nil {
		return nil, fmt.Errorf("save expenses: %w", err)
	}
	return data, nil
}
