package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"splitledger/internal/amqp"
	"splitledger/internal/core"
	"splitledger/internal/sheets"
)

// EventColumns is the header of the events sheet.
var EventColumns = []string{
	"Timestamp", "Op", "Version", "Ledger Size", "Affected",
	"Record ID", "Item", "Category", "Total", "Share A", "Share B",
	"Priority", "Budget Date", "Recurring", "Created By", "Deleted",
}

// EventMirror appends consumed ledger events to the events sheet, one row
// per touched record. Events without records (undo) produce a single row.
type EventMirror struct {
	sheet sheets.EventAppender
	names map[core.Person]string
}

func NewEventMirror(sheet sheets.EventAppender, names map[core.Person]string) *EventMirror {
	return &EventMirror{sheet: sheet, names: names}
}

// HandleLedgerEvent matches the amqp consumer handler signature.
func (m *EventMirror) HandleLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"op", ev.Op,
		"version", ev.Version,
		"records", len(ev.Records))

	rows := m.Rows(ev)
	if err := m.sheet.AppendEvents(ctx, rows); err != nil {
		slog.ErrorContext(ctx, "Failed to mirror ledger event",
			"op", ev.Op,
			"version", ev.Version,
			"error", err)
		return fmt.Errorf("append events: %w", err)
	}

	slog.InfoContext(ctx, "Ledger event mirrored",
		"op", ev.Op,
		"version", ev.Version,
		"rows", len(rows))
	return nil
}

// Rows renders ev as events sheet rows.
func (m *EventMirror) Rows(ev *amqp.LedgerEvent) [][]string {
	head := []string{
		ev.Timestamp.UTC().Format(time.RFC3339),
		ev.Op,
		strconv.FormatUint(ev.Version, 10),
		strconv.Itoa(ev.LedgerSize),
		strconv.Itoa(ev.Affected),
	}

	if len(ev.Records) == 0 {
		row := append([]string(nil), head...)
		for range EventColumns[len(head):] {
			row = append(row, "")
		}
		return [][]string{row}
	}

	rows := make([][]string, 0, len(ev.Records))
	for _, r := range ev.Records {
		row := append([]string(nil), head...)
		row = append(row,
			r.ID,
			r.Item,
			r.Category,
			formatAmount(r.Total),
			formatAmount(r.ShareA),
			formatAmount(r.ShareB),
			r.Priority,
			r.BudgetDate,
			strconv.FormatBool(r.Recurring),
			m.displayName(r.CreatedBy),
			strconv.FormatBool(r.Deleted),
		)
		rows = append(rows, row)
	}
	return rows
}

func (m *EventMirror) displayName(p string) string {
	if name, ok := m.names[core.Person(p)]; ok && name != "" {
		return name
	}
	return p
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
