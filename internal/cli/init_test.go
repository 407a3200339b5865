package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("SPLITLEDGER_TEST_NAME=Chix\nSPLITLEDGER_TEST_KEEP=file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SPLITLEDGER_TEST_KEEP", "env")
	t.Cleanup(func() { os.Unsetenv("SPLITLEDGER_TEST_NAME") })

	LoadEnvFile(path)

	if got := os.Getenv("SPLITLEDGER_TEST_NAME"); got != "Chix" {
		t.Errorf("SPLITLEDGER_TEST_NAME = %q, want Chix", got)
	}
	if got := os.Getenv("SPLITLEDGER_TEST_KEEP"); got != "env" {
		t.Errorf("existing variable overwritten: %q", got)
	}

	// missing files are ignored
	LoadEnvFile(filepath.Join(t.TempDir(), "nope.env"))
}

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger("debug")
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug level should be enabled")
	}

	logger = SetupLogger("loud")
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("unknown level should fall back to info")
	}
}
