// Package store owns the expense collection for one application session:
// the canonical records, the edit session, the form state and the view
// criteria. Every mutation is written back to the storage slot before the
// call returns and then announced to subscribers. A slot rewritten by another
// process is reloaded before the next mutation, so the newer collection is
// the one that gets extended.
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"

	"gastos/internal/cache"
	"gastos/internal/core"
	"gastos/internal/storage"
)

var (
	ErrNotFound = errors.New("expense not found")
	// ErrPersist marks a mutation that was applied in memory but could not be
	// written to the storage slot.
	ErrPersist = errors.New("persist expenses")
)

type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(c Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithViewCache memoises derived views per revision and criteria.
func WithViewCache(c cache.Cache[string, []core.Expense]) Option {
	return func(s *Store) {
		s.views = c
	}
}

type Store struct {
	mu     sync.Mutex
	slot   storage.Slot
	logger *slog.Logger
	clock  Clock
	views  cache.Cache[string, []core.Expense]

	records  []core.Expense
	lastID   core.ID
	revision uint64
	synced   []byte
	editing  core.ID
	form     Draft
	criteria core.ViewCriteria

	subMu   sync.Mutex
	subs    []subscriber
	nextSub uint64
}

// New hydrates a store from slot. An absent or unreadable slot yields an
// empty collection.
func New(ctx context.Context, slot storage.Slot, opts ...Option) *Store {
	if slot == nil {
		slot = storage.NewMemorySlot()
	}
	s := &Store{
		slot:     slot,
		logger:   slog.Default(),
		clock:    SystemClock{},
		criteria: core.DefaultCriteria(),
	}
	for _, opt := range opts {
		opt(s)
	}

	records, raw := storage.Hydrate(ctx, slot, s.logger)
	s.adopt(records, raw)
	s.form = NewDraft(s.today())
	s.logger.InfoContext(ctx, "Expense store ready", "records", len(s.records))
	return s
}

// adopt replaces the collection with one read from the slot. Ids never go
// backwards, even when the slot lost records. Callers hold s.mu.
func (s *Store) adopt(records []core.Expense, raw []byte) {
	s.records = records
	s.synced = raw
	for _, e := range s.records {
		s.lastID = max(s.lastID, e.ID)
	}
}

// refresh reloads the collection when the slot no longer holds what this
// store last read or wrote. A slot that cannot be read leaves memory as is.
// Callers hold s.mu.
func (s *Store) refresh(ctx context.Context) {
	data, err := s.slot.Load(ctx)
	if errors.Is(err, storage.ErrSlotEmpty) {
		data = nil
	} else if err != nil {
		s.logger.WarnContext(ctx, "Storage slot unreadable, keeping expenses in memory", "error", err)
		return
	}
	if bytes.Equal(data, s.synced) {
		return
	}
	s.adopt(storage.Decode(ctx, data, s.logger), data)
	s.revision++
	s.logger.InfoContext(ctx, "Expenses changed in storage, reloaded",
		"records", len(s.records), "revision", s.revision)
}

// Refresh picks up changes another process wrote to the slot.
func (s *Store) Refresh(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh(ctx)
}

func (s *Store) today() core.Date {
	return core.Today(s.clock.Now())
}

// nextID issues a creation-time id that is strictly greater than any id
// issued or hydrated before.
func (s *Store) nextID() core.ID {
	id := core.ID(s.clock.Now().UnixMilli())
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

func (s *Store) indexOf(id core.ID) int {
	return slices.IndexFunc(s.records, func(e core.Expense) bool { return e.ID == id })
}

// Create appends a new record and returns its id. Invalid fields leave the
// store untouched.
func (s *Store) Create(ctx context.Context, f core.Fields) (core.ID, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	change, err := s.create(ctx, f)
	s.mu.Unlock()

	s.notify(change)
	return change.ID, err
}

func (s *Store) create(ctx context.Context, f core.Fields) (Change, error) {
	s.refresh(ctx)
	e := core.Expense{ID: s.nextID(), Fields: f}
	s.records = append(s.records, e)
	s.resetForm()
	return s.commit(ctx, OpCreated, e)
}

// Update replaces the fields of an existing record in place. A missing id
// returns ErrNotFound and creates nothing.
func (s *Store) Update(ctx context.Context, id core.ID, f core.Fields) error {
	if err := f.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	change, err := s.update(ctx, id, f)
	s.mu.Unlock()

	if change.Op != "" {
		s.notify(change)
	}
	return err
}

func (s *Store) update(ctx context.Context, id core.ID, f core.Fields) (Change, error) {
	s.refresh(ctx)
	i := s.indexOf(id)
	if i < 0 {
		return Change{}, fmt.Errorf("update %d: %w", id, ErrNotFound)
	}
	s.records[i].Fields = f
	s.resetForm()
	return s.commit(ctx, OpUpdated, s.records[i])
}

// Delete removes the record with id. Deleting an absent id is a no-op.
// When the record is the one being edited the edit session is cancelled.
func (s *Store) Delete(ctx context.Context, id core.ID) error {
	s.mu.Lock()
	s.refresh(ctx)
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return nil
	}
	removed := s.records[i]
	s.records = slices.Delete(s.records, i, i+1)
	if s.editing == id {
		s.resetForm()
	}
	change, err := s.commit(ctx, OpDeleted, removed)
	s.mu.Unlock()

	s.notify(change)
	return err
}

// BeginEdit starts an edit session on id and loads its values into the form.
func (s *Store) BeginEdit(ctx context.Context, id core.ID) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refresh(ctx)
	i := s.indexOf(id)
	if i < 0 {
		return core.Expense{}, fmt.Errorf("edit %d: %w", id, ErrNotFound)
	}
	e := s.records[i]
	s.editing = id
	s.form = DraftFrom(e.Fields)
	return e, nil
}

// CancelEdit ends the edit session, if any, and clears the form.
func (s *Store) CancelEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetForm()
}

// Editing reports the id under edit.
func (s *Store) Editing() (core.ID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editing, s.editing != 0
}

// Form returns the current form values.
func (s *Store) Form() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// Submit commits the form: an update while an edit session is active, a
// create otherwise. When the draft does not parse nothing is mutated and the
// draft is kept as the form so the user can correct it.
func (s *Store) Submit(ctx context.Context, d Draft) (core.ID, error) {
	f, err := d.Parse()

	s.mu.Lock()
	if err != nil {
		s.form = d
		s.mu.Unlock()
		return 0, err
	}

	var change Change
	if s.editing != 0 {
		change, err = s.update(ctx, s.editing, f)
		if errors.Is(err, ErrNotFound) {
			s.form = d
		}
	} else {
		change, err = s.create(ctx, f)
	}
	s.mu.Unlock()

	if change.Op == "" {
		return 0, err
	}
	s.notify(change)
	return change.ID, err
}

func (s *Store) resetForm() {
	s.editing = 0
	s.form = NewDraft(s.today())
}

// commit bumps the revision and writes the collection to the slot. The
// returned change is valid even when persisting fails. Callers hold s.mu.
func (s *Store) commit(ctx context.Context, op Op, e core.Expense) (Change, error) {
	s.revision++
	change := Change{Op: op, ID: e.ID, Revision: s.revision, At: s.clock.Now(), Expense: e}

	data, err := storage.Persist(ctx, s.slot, s.records)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to persist expenses",
			"operation", string(op), "id", int64(e.ID), "error", err)
		return change, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	s.synced = data
	s.logger.DebugContext(ctx, "Expenses persisted",
		"operation", string(op), "id", int64(e.ID), "revision", s.revision, "records", len(s.records))
	return change, nil
}

func (s *Store) SetCriteria(c core.ViewCriteria) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria = c
}

func (s *Store) Criteria() core.ViewCriteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.criteria
}

// Revision increases by one with every committed mutation.
func (s *Store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Records returns a copy of the full collection in insertion order.
func (s *Store) Records() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.records)
}

// Get returns the record with id.
func (s *Store) Get(id core.ID) (core.Expense, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.records[i], true
	}
	return core.Expense{}, false
}

// View returns the records selected by the current criteria.
func (s *Store) View() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.view(s.criteria))
}

// ViewWith derives a view for criteria without changing the stored ones.
func (s *Store) ViewWith(c core.ViewCriteria) []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.view(c))
}

func (s *Store) view(c core.ViewCriteria) []core.Expense {
	if s.views == nil {
		return core.DeriveView(s.records, c)
	}
	key := strconv.FormatUint(s.revision, 10) + "|" + c.Key()
	if v, ok := s.views.Get(key); ok {
		return v
	}
	v := core.DeriveView(s.records, c)
	s.views.Set(key, v)
	return v
}

// Total sums the current view.
func (s *Store) Total() core.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.DeriveTotal(s.view(s.criteria))
}

// CategoryTotals always covers the full collection, ignoring the criteria.
func (s *Store) CategoryTotals() []core.CategoryTotal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.DeriveCategoryTotals(s.records)
}

func (s *Store) Segments() []core.Segment {
	return core.ChartSegments(s.CategoryTotals())
}

// Subscribe registers fn to be called after every committed mutation, in
// registration order, outside the store lock.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.subMu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		s.subs = slices.DeleteFunc(s.subs, func(sub subscriber) bool { return sub.id == id })
	}
}

func (s *Store) notify(c Change) {
	s.subMu.Lock()
	subs := slices.Clone(s.subs)
	s.subMu.Unlock()

	for _, sub := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("Store subscriber panicked", "subscriber", sub.id, "op", string(c.Op), "panic", r)
				}
			}()
			sub.fn(c)
		}()
	}
}
