// Package backend builds the optional infrastructure around the ledger
// from configuration: the sheets store, the activity journal and the
// AMQP client.
package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"splitledger/internal/amqp"
	"splitledger/internal/config"
	"splitledger/internal/journal"
	applog "splitledger/internal/log"
	"splitledger/internal/sheets"
	gsheet "splitledger/internal/sheets/google"
	"splitledger/internal/sheets/memory"
)

type BackendType string

const (
	MemoryBackend BackendType = config.BackendMemory
	SheetsBackend BackendType = config.BackendSheets
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SheetsBackend:
		return true
	}
	return false
}

// Config is the subset of application configuration the factory needs.
type Config struct {
	Type BackendType

	JournalDBPath string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	Sheets gsheet.Options
}

func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:          backendType,
		JournalDBPath: appConfig.JournalDBPath,
		AMQPURL:       appConfig.AMQPURL,
		AMQPExchange:  appConfig.AMQPExchange,
		AMQPQueue:     appConfig.AMQPQueue,
		Sheets: gsheet.Options{
			SpreadsheetID:   appConfig.GoogleSpreadsheetID,
			SheetName:       appConfig.GoogleSheetName,
			EventsSheetName: appConfig.GoogleEventsSheetName,
			CredentialsJSON: appConfig.GoogleServiceAccountJSON,
			CredentialsFile: appConfig.GoogleServiceAccountFile,
		},
	}, nil
}

// Result holds what the factory built. Journal and Publisher are nil
// when not configured. Cleanup releases everything and is never nil.
type Result struct {
	Sheets    sheets.Store
	Journal   *journal.SQLiteJournal
	Publisher *amqp.Client
	Cleanup   func() error
}

type Factory struct {
	logger *applog.Logger
}

func NewFactory(logger *applog.Logger) *Factory {
	return &Factory{logger: logger.WithComponent(applog.ComponentBackend)}
}

// Create builds the sheets store, then the journal, then the AMQP
// client. A journal failure is fatal; an AMQP failure only disables
// event publishing.
func (f *Factory) Create(ctx context.Context, cfg Config) (*Result, error) {
	store, err := f.createSheets(ctx, cfg)
	if err != nil {
		return nil, err
	}

	res := &Result{Sheets: store}
	var closers []func() error

	if strings.TrimSpace(cfg.JournalDBPath) != "" {
		j, err := journal.Open(cfg.JournalDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open activity journal: %w", err)
		}
		res.Journal = j
		closers = append(closers, j.Close)
		f.logger.InfoContext(ctx, "Initialized activity journal", "db_path", cfg.JournalDBPath)
	}

	if strings.TrimSpace(cfg.AMQPURL) != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", applog.FieldError, err.Error())
		} else {
			res.Publisher = client
			closers = append(closers, client.Close)
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	res.Cleanup = func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	f.logger.InfoContext(ctx, "Backend ready",
		"type", cfg.Type,
		"journal_enabled", res.Journal != nil,
		"amqp_enabled", res.Publisher != nil)
	return res, nil
}

func (f *Factory) createSheets(ctx context.Context, cfg Config) (sheets.Store, error) {
	switch cfg.Type {
	case MemoryBackend:
		return memory.New(), nil
	case SheetsBackend:
		cli, err := gsheet.New(ctx, cfg.Sheets)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		return cli, nil
	}
	return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
}
