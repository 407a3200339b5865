package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"splitledger/internal/amqp"
	"splitledger/internal/cache"
	"splitledger/internal/core"
	"splitledger/internal/csvio"
	"splitledger/internal/currency"
	"splitledger/internal/journal"
	"splitledger/internal/ledger"
	applog "splitledger/internal/log"
	"splitledger/internal/sheets"
)

var (
	ErrSheetsDisabled  = errors.New("sheets sync is not configured")
	ErrJournalDisabled = errors.New("activity journal is not configured")
)

// Journal records applied mutations.
type Journal interface {
	Append(ctx context.Context, e journal.Entry) (int64, error)
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
}

// EventPublisher announces applied mutations to other processes.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error
}

// Options wires a LedgerService. Ledger, Currencies and Logger are
// required; the rest may be nil.
type Options struct {
	Ledger             *ledger.Ledger
	Currencies         *currency.Table
	Codec              csvio.Codec
	HighlightThreshold float64
	Logger             *applog.Logger

	Journal   Journal
	Publisher EventPublisher
	Sheets    sheets.Store
	ViewCache cache.Cache[View]
}

// ViewQuery selects, searches and presents ledger records.
type ViewQuery struct {
	ledger.Criteria
	Search     string
	Currency   string
	GroupBy    ledger.GroupBy
	MonthOrder ledger.MonthOrder
}

// View is everything a client needs to render the ledger.
type View struct {
	Currency    string
	Rate        float64
	Version     uint64
	CanUndo     bool
	Records     []core.Record
	Highlighted []string
	Summary     ledger.Summary
	Monthly     []ledger.MonthlyAmount
}

// LedgerService owns the ledger for the process. Side channels (journal,
// events, cache) never fail a ledger operation; their errors are logged.
type LedgerService struct {
	ledger     *ledger.Ledger
	currencies *currency.Table
	codec      csvio.Codec
	threshold  float64
	logger     *applog.Logger
	structured *applog.StructuredLogger

	journal   Journal
	publisher EventPublisher
	sheets    sheets.Store
	views     cache.Cache[View]
}

func NewLedgerService(opts Options) *LedgerService {
	logger := opts.Logger.WithComponent(applog.ComponentLedger)
	return &LedgerService{
		ledger:     opts.Ledger,
		currencies: opts.Currencies,
		codec:      opts.Codec,
		threshold:  opts.HighlightThreshold,
		logger:     logger,
		structured: applog.NewStructuredLogger(logger),
		journal:    opts.Journal,
		publisher:  opts.Publisher,
		sheets:     opts.Sheets,
		views:      opts.ViewCache,
	}
}

func (s *LedgerService) Add(ctx context.Context, in ledger.NewRecord) string {
	id := s.ledger.Add(in)
	s.afterMutation(ctx, amqp.OpAdd, s.lookup([]string{id}), 1)
	return id
}

func (s *LedgerService) Edit(ctx context.Context, id string, u ledger.Update) error {
	if err := s.ledger.Edit(id, u); err != nil {
		return err
	}
	s.afterMutation(ctx, amqp.OpEdit, s.lookup([]string{id}), 1)
	return nil
}

func (s *LedgerService) Archive(ctx context.Context, ids []string) int {
	n := s.ledger.Archive(ids...)
	s.afterMutation(ctx, amqp.OpArchive, s.lookup(ids), n)
	return n
}

func (s *LedgerService) Undo(ctx context.Context) error {
	if err := s.ledger.Undo(); err != nil {
		return err
	}
	s.afterMutation(ctx, amqp.OpUndo, nil, 0)
	return nil
}

// Import appends an already-parsed table.
func (s *LedgerService) Import(ctx context.Context, t ledger.Table) (int, error) {
	ids, err := s.ledger.Import(t)
	if err != nil {
		return 0, err
	}
	s.afterMutation(ctx, amqp.OpImport, s.lookup(ids), len(ids))
	return len(ids), nil
}

// ImportCSV parses CSV text and imports it.
func (s *LedgerService) ImportCSV(ctx context.Context, r io.Reader) (int, error) {
	t, err := s.codec.Read(r)
	if err != nil {
		return 0, err
	}
	return s.Import(ctx, t)
}

// ExportCSV writes the records selected by q, converted to q.Currency.
func (s *LedgerService) ExportCSV(ctx context.Context, w io.Writer, q ViewQuery) error {
	records, _, err := s.selectRecords(q)
	if err != nil {
		return err
	}
	if err := s.codec.Write(w, records); err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "CSV exported", applog.FieldOperation, applog.OpExport, "records", len(records))
	return nil
}

// View computes (or serves from cache) the presentation of q.
func (s *LedgerService) View(ctx context.Context, q ViewQuery) (View, error) {
	version := s.ledger.Version()
	key := fmt.Sprintf("%d|%s", version, q.cacheKey())
	if s.views != nil {
		if v, ok := s.views.Get(key); ok {
			return v, nil
		}
	}

	records, rate, err := s.selectRecords(q)
	if err != nil {
		return View{}, err
	}

	v := View{
		Currency:    s.currencyCode(q.Currency),
		Rate:        rate,
		Version:     version,
		CanUndo:     s.ledger.HasSnapshot(),
		Records:     records,
		Highlighted: ledger.Highlighted(records, s.threshold*rate),
		Summary:     ledger.Summarize(records, q.GroupBy),
		Monthly:     ledger.MonthlyBreakdown(records, q.MonthOrder),
	}
	if s.views != nil {
		s.views.Set(key, v)
	}
	s.logger.DebugContext(ctx, "View computed", applog.FieldOperation, applog.OpView, applog.FieldVersion, version, "records", len(records))
	return v, nil
}

func (s *LedgerService) Currencies() []currency.Rate {
	return s.currencies.Rates()
}

// PersonNames returns the configured display names of both people.
func (s *LedgerService) PersonNames() map[core.Person]string {
	return s.codec.Names
}

func (s *LedgerService) Activity(ctx context.Context, limit int) ([]journal.Entry, error) {
	if s.journal == nil {
		return nil, ErrJournalDisabled
	}
	return s.journal.Recent(ctx, limit)
}

// ExportToSheets replaces the ledger sheet with every active record in the
// base currency.
func (s *LedgerService) ExportToSheets(ctx context.Context) (int, error) {
	if s.sheets == nil {
		return 0, ErrSheetsDisabled
	}
	records := s.ledger.Filter(ledger.Criteria{})
	if err := s.sheets.ReplaceRows(ctx, s.codec.Encode(records)); err != nil {
		return 0, fmt.Errorf("export to sheets: %w", err)
	}
	s.logger.InfoContext(ctx, "Ledger exported to sheets", applog.FieldOperation, applog.OpExport, "records", len(records))
	return len(records), nil
}

// ImportFromSheets imports the ledger sheet like a CSV upload.
func (s *LedgerService) ImportFromSheets(ctx context.Context) (int, error) {
	if s.sheets == nil {
		return 0, ErrSheetsDisabled
	}
	rows, err := s.sheets.ReadRows(ctx)
	if err != nil {
		return 0, fmt.Errorf("read sheets: %w", err)
	}
	t, err := s.codec.Decode(rows)
	if err != nil {
		return 0, err
	}
	return s.Import(ctx, t)
}

func (s *LedgerService) selectRecords(q ViewQuery) ([]core.Record, float64, error) {
	rate, err := s.currencies.Rate(q.Currency)
	if err != nil {
		return nil, 0, err
	}
	records := ledger.Search(s.ledger.Filter(q.Criteria), q.Search)
	return ledger.Convert(records, rate), rate, nil
}

func (s *LedgerService) currencyCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return s.currencies.Base()
	}
	return code
}

func (s *LedgerService) lookup(ids []string) []core.Record {
	out := make([]core.Record, 0, len(ids))
	for _, id := range ids {
		if r, err := s.ledger.Get(id); err == nil {
			out = append(out, r)
		}
	}
	return out
}

func (s *LedgerService) afterMutation(ctx context.Context, op string, touched []core.Record, affected int) {
	version := s.ledger.Version()
	size := s.ledger.Len()
	ids := make([]string, len(touched))
	for i, r := range touched {
		ids[i] = r.ID
	}

	s.structured.LogMutation(ctx, op, ids, affected, size, version)

	if s.views != nil {
		s.views.Purge()
	}

	if s.journal != nil {
		entry := journal.Entry{Op: op, RecordIDs: ids, Affected: affected, LedgerSize: size}
		if _, err := s.journal.Append(ctx, entry); err != nil {
			s.structured.LogError(ctx, "Failed to journal ledger mutation", err, op, nil)
		}
	}

	if s.publisher != nil {
		ev := amqp.NewLedgerEvent(op, touched, affected, size, version)
		if err := s.publisher.PublishLedgerEvent(ctx, ev); err != nil {
			s.structured.LogError(ctx, "Failed to publish ledger event", err, op, nil)
		}
	}
}

// cacheKey is stable for equivalent queries.
func (q ViewQuery) cacheKey() string {
	months := make([]string, len(q.Months))
	for i, m := range q.Months {
		months[i] = strings.ToLower(strings.TrimSpace(m))
	}
	sort.Strings(months)

	prios := make([]string, len(q.Priorities))
	for i, p := range q.Priorities {
		prios[i] = string(p)
	}
	sort.Strings(prios)

	return strings.Join([]string{
		strings.Join(months, ","),
		strings.Join(prios, ","),
		fmt.Sprint(q.OnlyRecurring, q.IncludeArchived),
		strings.ToLower(strings.TrimSpace(q.Search)),
		strings.ToUpper(strings.TrimSpace(q.Currency)),
		string(q.GroupBy),
		string(q.MonthOrder),
	}, "|")
}
