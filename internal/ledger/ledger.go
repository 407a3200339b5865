// Package ledger holds the in-memory expense ledger shared by two people.
//
// A Ledger is an ordered sequence of records with a single undo slot. Every
// mutator copies the current sequence into the slot before changing it, so
// Undo always restores the state right before the most recent mutation.
package ledger

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"splitledger/internal/core"
)

var (
	ErrNotFound             = errors.New("record not found")
	ErrNoSnapshot           = errors.New("nothing to undo")
	ErrImportSchemaMismatch = errors.New("import schema mismatch")
)

// NewRecord is the input to Add. A zero BudgetDate takes the default for
// the priority; a nil Split means an equal split.
type NewRecord struct {
	Item       string
	Category   core.Category
	Total      float64
	Split      core.Split
	Priority   core.Priority
	BudgetDate core.Date
	Recurring  bool
	CreatedBy  core.Person
}

// Update carries the fields to change in Edit; nil fields are left alone.
type Update struct {
	Item       *string
	Category   *core.Category
	Total      *float64
	ShareA     *float64
	Priority   *core.Priority
	BudgetDate *core.Date
	Recurring  *bool
	CreatedBy  *core.Person
}

// IsEmpty reports whether the update changes nothing.
func (u Update) IsEmpty() bool {
	return u.Item == nil && u.Category == nil && u.Total == nil && u.ShareA == nil &&
		u.Priority == nil && u.BudgetDate == nil && u.Recurring == nil && u.CreatedBy == nil
}

// Table is an already-parsed import: the column names found in the source
// plus the typed records.
type Table struct {
	Columns []string
	Records []core.Record
}

type Option func(*Ledger)

// WithClock replaces time.Now, used for default budget dates.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(newID func() string) Option {
	return func(l *Ledger) { l.newID = newID }
}

// WithRecords preloads records. Missing or duplicate ids are replaced and
// no undo snapshot is taken.
func WithRecords(records []core.Record) Option {
	return func(l *Ledger) { l.seed = records }
}

type Ledger struct {
	mu          sync.Mutex
	records     []core.Record
	snapshot    []core.Record
	hasSnapshot bool
	version     uint64

	now   func() time.Time
	newID func() string
	seed  []core.Record
}

func New(opts ...Option) *Ledger {
	l := &Ledger{
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(l)
	}
	if len(l.seed) > 0 {
		l.records = l.withFreshIDs(nil, l.seed)
		l.seed = nil
	}
	return l
}

// Add appends a new active record and returns its id.
func (l *Ledger) Add(in NewRecord) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	split := in.Split
	if split == nil {
		split = core.EqualSplit{}
	}
	shareA, shareB := split.Shares(in.Total)

	date := in.BudgetDate
	if date.IsZero() {
		date = core.DefaultBudgetDate(in.Priority, l.now())
	}

	rec := core.Record{
		ID:         l.uniqueID(l.records),
		Item:       in.Item,
		Category:   in.Category,
		Total:      in.Total,
		ShareA:     shareA,
		ShareB:     shareB,
		Priority:   in.Priority,
		BudgetDate: date,
		Recurring:  in.Recurring,
		CreatedBy:  in.CreatedBy,
	}

	l.takeSnapshot()
	l.records = append(l.records, rec)
	l.version++
	return rec.ID
}

// Edit applies u to the record with the given id. ShareB is recomputed
// from the resulting total whenever Total or ShareA is part of u.
func (l *Ledger) Edit(id string, u Update) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	l.takeSnapshot()
	rec := &l.records[idx]
	if u.Item != nil {
		rec.Item = *u.Item
	}
	if u.Category != nil {
		rec.Category = *u.Category
	}
	if u.Total != nil {
		rec.Total = *u.Total
	}
	if u.ShareA != nil {
		rec.ShareA = *u.ShareA
	}
	if u.Total != nil || u.ShareA != nil {
		rec.ShareB = rec.Total - rec.ShareA
	}
	if u.Priority != nil {
		rec.Priority = *u.Priority
	}
	if u.BudgetDate != nil {
		rec.BudgetDate = *u.BudgetDate
	}
	if u.Recurring != nil {
		rec.Recurring = *u.Recurring
	}
	if u.CreatedBy != nil {
		rec.CreatedBy = *u.CreatedBy
	}
	l.version++
	return nil
}

// Archive flags the given records as deleted and returns how many went
// from active to archived. Unknown ids are ignored.
func (l *Ledger) Archive(ids ...string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	l.takeSnapshot()
	n := 0
	for i := range l.records {
		if _, ok := want[l.records[i].ID]; ok && !l.records[i].Deleted {
			l.records[i].Deleted = true
			n++
		}
	}
	l.version++
	return n
}

// Undo restores the ledger to its state before the last mutation and
// empties the undo slot.
func (l *Ledger) Undo() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.hasSnapshot {
		return ErrNoSnapshot
	}
	l.records = l.snapshot
	l.snapshot = nil
	l.hasSnapshot = false
	l.version++
	return nil
}

// Import appends every record of t and returns the ids they were stored
// under. The table must carry all required columns; otherwise nothing
// changes.
func (l *Ledger) Import(t Table) ([]string, error) {
	if missing := MissingColumns(t.Columns); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", ErrImportSchemaMismatch, strings.Join(missing, ", "))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.takeSnapshot()
	base := len(l.records)
	l.records = l.withFreshIDs(l.records, t.Records)
	l.version++

	ids := make([]string, 0, len(t.Records))
	for _, r := range l.records[base:] {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// Filter returns copies of the records matching c, in ledger order.
func (l *Ledger) Filter(c Criteria) []core.Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]core.Record, 0, len(l.records))
	for _, r := range l.records {
		if c.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Records returns a copy of every record, archived ones included.
func (l *Ledger) Records() []core.Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.Record(nil), l.records...)
}

// Get returns the record with the given id.
func (l *Ledger) Get(id string) (core.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.indexOf(id)
	if idx < 0 {
		return core.Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return l.records[idx], nil
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Version increases on every successful mutation, undo included.
func (l *Ledger) Version() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.version
}

func (l *Ledger) HasSnapshot() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hasSnapshot
}

// takeSnapshot must be called with mu held.
func (l *Ledger) takeSnapshot() {
	l.snapshot = append([]core.Record(nil), l.records...)
	l.hasSnapshot = true
}

func (l *Ledger) indexOf(id string) int {
	for i := range l.records {
		if l.records[i].ID == id {
			return i
		}
	}
	return -1
}

// withFreshIDs appends incoming to base, giving a new id to every record
// whose id is empty or already taken.
func (l *Ledger) withFreshIDs(base, incoming []core.Record) []core.Record {
	out := append(make([]core.Record, 0, len(base)+len(incoming)), base...)
	seen := make(map[string]struct{}, len(out)+len(incoming))
	for _, r := range out {
		seen[r.ID] = struct{}{}
	}
	for _, r := range incoming {
		if _, taken := seen[r.ID]; r.ID == "" || taken {
			r.ID = l.uniqueIDIn(seen)
		}
		r.Deleted = false
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

func (l *Ledger) uniqueID(records []core.Record) string {
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		seen[r.ID] = struct{}{}
	}
	return l.uniqueIDIn(seen)
}

func (l *Ledger) uniqueIDIn(seen map[string]struct{}) string {
	for {
		id := l.newID()
		if _, taken := seen[id]; !taken && id != "" {
			return id
		}
	}
}
