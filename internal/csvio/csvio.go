// Package csvio converts between ledger records and their CSV form.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"splitledger/internal/core"
	"splitledger/internal/ledger"
)

var ErrInvalidRow = errors.New("invalid row")

// Codec carries the display names written to and accepted from the
// "Created By" column.
type Codec struct {
	Names map[core.Person]string
}

func NewCodec(nameA, nameB string) Codec {
	return Codec{Names: map[core.Person]string{core.PersonA: nameA, core.PersonB: nameB}}
}

// Encode renders records as a header row followed by one row per record.
func (c Codec) Encode(records []core.Record) [][]string {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, append([]string(nil), ledger.Columns...))
	for _, r := range records {
		rows = append(rows, []string{
			r.ID,
			r.Item,
			string(r.Category),
			formatAmount(r.Total),
			formatAmount(r.ShareA),
			formatAmount(r.ShareB),
			string(r.Priority),
			r.BudgetDate.String(),
			r.Month(),
			strconv.FormatBool(r.Recurring),
			c.personName(r.CreatedBy),
		})
	}
	return rows
}

// Decode parses a header row plus data rows into a ledger.Table. When the
// header lacks required columns the table carries only the columns, so the
// ledger rejects it as a schema mismatch.
func (c Codec) Decode(rows [][]string) (ledger.Table, error) {
	if len(rows) == 0 {
		return ledger.Table{}, nil
	}
	header := rows[0]
	table := ledger.Table{Columns: append([]string(nil), header...)}
	if len(ledger.MissingColumns(header)) > 0 {
		return table, nil
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		if name := ledger.CanonicalColumn(h); name != "" {
			if _, dup := index[name]; !dup {
				index[name] = i
			}
		}
	}

	for n, row := range rows[1:] {
		rec, err := c.decodeRow(row, index)
		if err != nil {
			return ledger.Table{}, fmt.Errorf("%w %d: %v", ErrInvalidRow, n+2, err)
		}
		table.Records = append(table.Records, rec)
	}
	return table, nil
}

func (c Codec) decodeRow(row []string, index map[string]int) (core.Record, error) {
	cell := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var (
		rec core.Record
		err error
	)
	rec.ID = cell(ledger.ColumnID)
	rec.Item = cell(ledger.ColumnItem)
	if rec.Category, err = core.ParseCategory(cell(ledger.ColumnCategory)); err != nil {
		return rec, err
	}
	if rec.Total, err = parseAmount(ledger.ColumnTotal, cell(ledger.ColumnTotal)); err != nil {
		return rec, err
	}
	if rec.ShareA, err = parseAmount(ledger.ColumnShareA, cell(ledger.ColumnShareA)); err != nil {
		return rec, err
	}
	if rec.ShareB, err = parseAmount(ledger.ColumnShareB, cell(ledger.ColumnShareB)); err != nil {
		return rec, err
	}
	if rec.Priority, err = core.ParsePriority(cell(ledger.ColumnPriority)); err != nil {
		return rec, err
	}
	if rec.BudgetDate, err = core.ParseDate(cell(ledger.ColumnBudgetDate)); err != nil {
		return rec, err
	}
	if rec.Recurring, err = parseBool(cell(ledger.ColumnRecurring)); err != nil {
		return rec, err
	}
	if rec.CreatedBy, err = core.ParsePerson(cell(ledger.ColumnCreatedBy), c.Names); err != nil {
		return rec, err
	}
	if err := rec.Validate(); err != nil {
		return rec, err
	}
	return rec, nil
}

// Write encodes records as CSV onto w.
func (c Codec) Write(w io.Writer, records []core.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(c.Encode(records)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// Read parses CSV text from r into a ledger.Table.
func (c Codec) Read(r io.Reader) (ledger.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return ledger.Table{}, fmt.Errorf("%w: %v", ErrInvalidRow, err)
	}
	return c.Decode(rows)
}

func (c Codec) personName(p core.Person) string {
	if name := c.Names[p]; name != "" {
		return name
	}
	return string(p)
}

func formatAmount(v float64) string {
	return decimal.NewFromFloat(v).String()
}

func parseAmount(col, s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", col, s)
	}
	return d.InexactFloat64(), nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "", "false", "no", "0":
		return false, nil
	case "true", "yes", "1":
		return true, nil
	}
	return false, fmt.Errorf("%s: %q is not a boolean", ledger.ColumnRecurring, s)
}
