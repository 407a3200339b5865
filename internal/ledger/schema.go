package ledger

import (
	"strings"

	"splitledger/internal/core"
)

// Canonical column names of the tabular form of a ledger.
const (
	ColumnID         = "ID"
	ColumnItem       = "Item"
	ColumnCategory   = "Category"
	ColumnTotal      = "Total"
	ColumnShareA     = "Share A"
	ColumnShareB     = "Share B"
	ColumnPriority   = "Priority"
	ColumnBudgetDate = "Budget Date"
	ColumnMonth      = "Month"
	ColumnRecurring  = "Recurring"
	ColumnCreatedBy  = "Created By"
)

// Columns is the canonical column order used for export.
var Columns = []string{
	ColumnID, ColumnItem, ColumnCategory, ColumnTotal, ColumnShareA, ColumnShareB,
	ColumnPriority, ColumnBudgetDate, ColumnMonth, ColumnRecurring, ColumnCreatedBy,
}

// RequiredColumns must all be present in an import. ID is reassigned when
// absent and Month is always derived from the budget date.
var RequiredColumns = []string{
	ColumnItem, ColumnCategory, ColumnTotal, ColumnShareA, ColumnShareB,
	ColumnPriority, ColumnBudgetDate, ColumnRecurring, ColumnCreatedBy,
}

// MissingColumns returns the required columns absent from have, compared
// case-insensitively and ignoring surrounding spaces.
func MissingColumns(have []string) []string {
	present := make(map[string]struct{}, len(have))
	for _, c := range have {
		present[normalizeColumn(c)] = struct{}{}
	}
	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := present[normalizeColumn(c)]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

func normalizeColumn(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}

// CanonicalColumn maps a header cell to its canonical name, or "" if the
// column is not part of the schema.
func CanonicalColumn(c string) string {
	n := normalizeColumn(c)
	for _, known := range Columns {
		if normalizeColumn(known) == n {
			return known
		}
	}
	return ""
}

// Criteria selects records in Filter. Empty sets do not restrict.
type Criteria struct {
	Months          []string
	Priorities      []core.Priority
	OnlyRecurring   bool
	IncludeArchived bool
}

// Match reports whether r satisfies every criterion.
func (c Criteria) Match(r core.Record) bool {
	if r.Deleted && !c.IncludeArchived {
		return false
	}
	if c.OnlyRecurring && !r.Recurring {
		return false
	}
	if len(c.Months) > 0 && !containsFold(c.Months, r.Month()) {
		return false
	}
	if len(c.Priorities) > 0 {
		found := false
		for _, p := range c.Priorities {
			if p == r.Priority {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsFold(set []string, s string) bool {
	for _, v := range set {
		if strings.EqualFold(strings.TrimSpace(v), s) {
			return true
		}
	}
	return false
}
