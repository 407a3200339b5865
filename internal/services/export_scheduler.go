package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	applog "splitledger/internal/log"
)

// SheetsExporter pushes the ledger to the spreadsheet.
type SheetsExporter interface {
	ExportToSheets(ctx context.Context) (int, error)
}

// ExportScheduler runs a sheets export on a cron schedule.
type ExportScheduler struct {
	exporter SheetsExporter
	schedule string
	logger   *applog.Logger

	mu      sync.Mutex
	running bool
	cron    *cron.Cron
}

func NewExportScheduler(exporter SheetsExporter, schedule string, logger *applog.Logger) *ExportScheduler {
	return &ExportScheduler{
		exporter: exporter,
		schedule: schedule,
		logger:   logger.WithComponent(applog.ComponentScheduler),
	}
}

// Start registers the export job. Returns an error if already running or
// if the schedule does not parse.
func (p *ExportScheduler) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return fmt.Errorf("export scheduler is already running")
	}

	c := cron.New()
	if _, err := c.AddFunc(p.schedule, func() { p.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("add export job %q: %w", p.schedule, err)
	}
	c.Start()

	p.cron = c
	p.running = true
	p.logger.InfoContext(ctx, "Sheets export scheduled", "schedule", p.schedule)
	return nil
}

// RunOnce performs one export and logs the outcome.
func (p *ExportScheduler) RunOnce(ctx context.Context) {
	n, err := p.exporter.ExportToSheets(ctx)
	switch {
	case errors.Is(err, ErrSheetsDisabled):
		p.logger.WarnContext(ctx, "Scheduled export skipped, sheets not configured")
	case err != nil:
		p.logger.ErrorContext(ctx, "Scheduled sheets export failed", applog.FieldError, err)
	default:
		p.logger.InfoContext(ctx, "Scheduled sheets export done", "records", n)
	}
}

// Stop waits for a running export to finish or ctx to expire.
func (p *ExportScheduler) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	c := p.cron
	p.running = false
	p.cron = nil
	p.mu.Unlock()

	select {
	case <-c.Stop().Done():
		p.logger.InfoContext(ctx, "Export scheduler stopped")
		return nil
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Export scheduler stop timed out")
		return ctx.Err()
	}
}

func (p *ExportScheduler) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}
