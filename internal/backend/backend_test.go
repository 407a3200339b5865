package backend

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"splitledger/internal/config"
	"splitledger/internal/journal"
	applog "splitledger/internal/log"
	"splitledger/internal/sheets/memory"
)

func quiet() *applog.Logger {
	return applog.New(applog.Config{Output: io.Discard})
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	require.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "postgres"})
	require.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:           config.BackendSheets,
		JournalDBPath:         "./data/j.db",
		GoogleSpreadsheetID:   "sheet-1",
		GoogleEventsSheetName: "Events",
	})
	require.NoError(t, err)
	assert.Equal(t, SheetsBackend, cfg.Type)
	assert.Equal(t, "sheet-1", cfg.Sheets.SpreadsheetID)
	assert.Equal(t, "Events", cfg.Sheets.EventsSheetName)
	assert.Equal(t, "./data/j.db", cfg.JournalDBPath)
}

func TestCreateMemoryWithJournal(t *testing.T) {
	ctx := context.Background()
	res, err := NewFactory(quiet()).Create(ctx, Config{
		Type:          MemoryBackend,
		JournalDBPath: filepath.Join(t.TempDir(), "journal.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Cleanup() })

	assert.IsType(t, &memory.Store{}, res.Sheets)
	assert.Nil(t, res.Publisher)
	require.NotNil(t, res.Journal)

	_, err = res.Journal.Append(ctx, journal.Entry{Op: "add", RecordIDs: []string{"x"}, Affected: 1, LedgerSize: 1})
	require.NoError(t, err)
}

func TestCreateMemoryOnly(t *testing.T) {
	res, err := NewFactory(quiet()).Create(context.Background(), Config{Type: MemoryBackend})
	require.NoError(t, err)
	assert.Nil(t, res.Journal)
	assert.NoError(t, res.Cleanup())
}

func TestCreateSheetsRequiresSpreadsheet(t *testing.T) {
	_, err := NewFactory(quiet()).Create(context.Background(), Config{Type: SheetsBackend})
	assert.ErrorContains(t, err, "GOOGLE_SPREADSHEET_ID")
}

func TestCreateUnknownType(t *testing.T) {
	_, err := NewFactory(quiet()).Create(context.Background(), Config{Type: "ftp"})
	assert.Error(t, err)
}
