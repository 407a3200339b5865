package sheets

import "context"

// Ports for spreadsheet adapters. Rows are plain cell text; the first row
// of a ledger table is its header.
type (
	// RowWriter replaces the ledger sheet with rows.
	RowWriter interface {
		ReplaceRows(ctx context.Context, rows [][]string) error
	}

	// RowReader returns every row of the ledger sheet.
	RowReader interface {
		ReadRows(ctx context.Context) ([][]string, error)
	}

	// EventAppender appends rows to the activity sheet.
	EventAppender interface {
		AppendEvents(ctx context.Context, rows [][]string) error
	}

	Store interface {
		RowWriter
		RowReader
		EventAppender
	}
)
