package google

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{SpreadsheetID: "  "})
	if err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := New(context.Background(), Options{SpreadsheetID: "sheet-id"})
	if err == nil {
		t.Fatal("expected error without credentials")
	}
	if !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.json")

	_, err := New(context.Background(), Options{SpreadsheetID: "sheet-id", CredentialsFile: missing})
	if err == nil {
		t.Fatal("expected error for unreadable credentials file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestNewClientDefaultSheetNames(t *testing.T) {
	c := newClient(nil, "id", Options{})
	if c.ledgerSheet != DefaultSheetName {
		t.Errorf("ledgerSheet = %q, want %q", c.ledgerSheet, DefaultSheetName)
	}
	if c.eventsSheet != DefaultEventsSheetName {
		t.Errorf("eventsSheet = %q, want %q", c.eventsSheet, DefaultEventsSheetName)
	}

	c = newClient(nil, "id", Options{SheetName: " Household ", EventsSheetName: "Log"})
	if c.ledgerSheet != "Household" || c.eventsSheet != "Log" {
		t.Errorf("custom names not applied: %q, %q", c.ledgerSheet, c.eventsSheet)
	}
}

func TestClientWithoutService(t *testing.T) {
	c := newClient(nil, "id", Options{})
	ctx := context.Background()

	if err := c.ReplaceRows(ctx, [][]string{{"ID"}}); !errors.Is(err, errNoService) {
		t.Errorf("ReplaceRows: expected errNoService, got %v", err)
	}
	if _, err := c.ReadRows(ctx); !errors.Is(err, errNoService) {
		t.Errorf("ReadRows: expected errNoService, got %v", err)
	}
	if err := c.AppendEvents(ctx, [][]string{{"add"}}); !errors.Is(err, errNoService) {
		t.Errorf("AppendEvents: expected errNoService, got %v", err)
	}
}

func TestSheetRange(t *testing.T) {
	tests := []struct {
		sheet string
		want  string
	}{
		{"Ledger", "Ledger!A:Z"},
		{"Ledger Events", "'Ledger Events'!A:Z"},
		{"Chix's", "'Chix''s'!A:Z"},
	}
	for _, tt := range tests {
		if got := sheetRange(tt.sheet, "A:Z"); got != tt.want {
			t.Errorf("sheetRange(%q) = %q, want %q", tt.sheet, got, tt.want)
		}
	}
}

func TestTrimEmptyRows(t *testing.T) {
	values := [][]interface{}{
		{"ID", "Item"},
		{"1", " Couch "},
		{},
		{"2", 5743.0},
		{"", ""},
		{},
	}

	rows := trimEmptyRows(values)
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4: %v", len(rows), rows)
	}
	if rows[1][1] != "Couch" {
		t.Errorf("cells must be trimmed, got %q", rows[1][1])
	}
	if rows[3][1] != "5743" {
		t.Errorf("numbers must be stringified, got %q", rows[3][1])
	}
}

func TestToValues(t *testing.T) {
	vals := toValues([][]string{{"a", "b"}, {"c"}})
	if len(vals) != 2 || len(vals[0]) != 2 || vals[1][0] != "c" {
		t.Fatalf("unexpected values: %v", vals)
	}
}
