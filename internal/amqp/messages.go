package amqp

import (
	"encoding/json"
	"time"

	"splitledger/internal/core"
)

// Ledger operations carried by LedgerEvent.Op.
const (
	OpAdd     = "add"
	OpEdit    = "edit"
	OpArchive = "archive"
	OpUndo    = "undo"
	OpImport  = "import"
)

// EventRecord is the wire form of a ledger record.
type EventRecord struct {
	ID         string  `json:"id"`
	Item       string  `json:"item"`
	Category   string  `json:"category"`
	Total      float64 `json:"total"`
	ShareA     float64 `json:"share_a"`
	ShareB     float64 `json:"share_b"`
	Priority   string  `json:"priority"`
	BudgetDate string  `json:"budget_date"`
	Month      string  `json:"month"`
	Recurring  bool    `json:"recurring"`
	CreatedBy  string  `json:"created_by"`
	Deleted    bool    `json:"deleted"`
}

// LedgerEvent describes one applied ledger mutation. Records holds the
// touched records as they are after the mutation; undo carries none.
type LedgerEvent struct {
	Op         string        `json:"op"`
	RecordIDs  []string      `json:"record_ids"`
	Records    []EventRecord `json:"records,omitempty"`
	Affected   int           `json:"affected"`
	LedgerSize int           `json:"ledger_size"`
	Version    uint64        `json:"version"`
	Timestamp  time.Time     `json:"timestamp"`
}

func NewEventRecord(r core.Record) EventRecord {
	return EventRecord{
		ID:         r.ID,
		Item:       r.Item,
		Category:   string(r.Category),
		Total:      r.Total,
		ShareA:     r.ShareA,
		ShareB:     r.ShareB,
		Priority:   string(r.Priority),
		BudgetDate: r.BudgetDate.String(),
		Month:      r.Month(),
		Recurring:  r.Recurring,
		CreatedBy:  string(r.CreatedBy),
		Deleted:    r.Deleted,
	}
}

// NewLedgerEvent stamps an event with the current time.
func NewLedgerEvent(op string, records []core.Record, affected, ledgerSize int, version uint64) *LedgerEvent {
	ev := &LedgerEvent{
		Op:         op,
		RecordIDs:  make([]string, 0, len(records)),
		Affected:   affected,
		LedgerSize: ledgerSize,
		Version:    version,
		Timestamp:  time.Now(),
	}
	for _, r := range records {
		ev.RecordIDs = append(ev.RecordIDs, r.ID)
		ev.Records = append(ev.Records, NewEventRecord(r))
	}
	return ev
}

// ToJSON converts the event to JSON bytes
func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes an event from JSON bytes
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
