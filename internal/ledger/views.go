package ledger

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"splitledger/internal/core"
)

// SearchThreshold is the minimum similarity a record needs to match a query.
const SearchThreshold = 0.3

type GroupBy string

const (
	GroupByPriority GroupBy = "priority"
	GroupByCategory GroupBy = "category"
)

// ParseGroupBy defaults to grouping by priority for an empty string.
func ParseGroupBy(s string) (GroupBy, error) {
	switch GroupBy(strings.ToLower(strings.TrimSpace(s))) {
	case "", GroupByPriority:
		return GroupByPriority, nil
	case GroupByCategory:
		return GroupByCategory, nil
	}
	return "", fmt.Errorf("invalid group by %q: must be %q or %q", s, GroupByPriority, GroupByCategory)
}

func (g GroupBy) key(r core.Record) string {
	if g == GroupByCategory {
		return string(r.Category)
	}
	return string(r.Priority)
}

type MonthOrder string

const (
	MonthOrderCalendar  MonthOrder = "calendar"
	MonthOrderFirstSeen MonthOrder = "first-seen"
)

// ParseMonthOrder defaults to calendar order for an empty string.
func ParseMonthOrder(s string) (MonthOrder, error) {
	switch MonthOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", MonthOrderCalendar:
		return MonthOrderCalendar, nil
	case MonthOrderFirstSeen:
		return MonthOrderFirstSeen, nil
	}
	return "", fmt.Errorf("invalid month order %q: must be %q or %q", s, MonthOrderCalendar, MonthOrderFirstSeen)
}

type PersonTotals struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

type GroupAmount struct {
	Key    string  `json:"key"`
	Amount float64 `json:"amount"`
}

type Summary struct {
	Total      float64       `json:"total"`
	ByPerson   PersonTotals  `json:"by_person"`
	ByGroup    []GroupAmount `json:"by_group"`
	NetBalance float64       `json:"net_balance"`
}

type MonthlyAmount struct {
	Month  string      `json:"month"`
	Person core.Person `json:"person"`
	Amount float64     `json:"amount"`
}

// Convert returns copies of records with every amount multiplied by rate.
func Convert(records []core.Record, rate float64) []core.Record {
	out := make([]core.Record, len(records))
	for i, r := range records {
		r.Total *= rate
		r.ShareA *= rate
		r.ShareB *= rate
		out[i] = r
	}
	return out
}

// Summarize totals records per person and per group. Groups appear in the
// order they are first met; NetBalance is A minus B.
func Summarize(records []core.Record, by GroupBy) Summary {
	s := Summary{ByGroup: []GroupAmount{}}
	index := make(map[string]int)
	for _, r := range records {
		s.Total += r.Total
		s.ByPerson.A += r.ShareA
		s.ByPerson.B += r.ShareB

		k := by.key(r)
		i, ok := index[k]
		if !ok {
			i = len(s.ByGroup)
			index[k] = i
			s.ByGroup = append(s.ByGroup, GroupAmount{Key: k})
		}
		s.ByGroup[i].Amount += r.Total
	}
	s.NetBalance = s.ByPerson.A - s.ByPerson.B
	return s
}

// Search keeps records whose concatenated field text shares enough
// character bigrams with query, measured against the shorter of the two.
// An empty query keeps everything.
func Search(records []core.Record, query string) []core.Record {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return records
	}
	metric := metrics.NewOverlapCoefficient()
	out := make([]core.Record, 0, len(records))
	for _, r := range records {
		if strutil.Similarity(q, searchText(r), metric) > SearchThreshold {
			out = append(out, r)
		}
	}
	return out
}

func searchText(r core.Record) string {
	fields := []string{
		r.Item,
		string(r.Category),
		strconv.FormatFloat(r.Total, 'f', -1, 64),
		strconv.FormatFloat(r.ShareA, 'f', -1, 64),
		strconv.FormatFloat(r.ShareB, 'f', -1, 64),
		string(r.Priority),
		r.BudgetDate.String(),
		r.Month(),
		strconv.FormatBool(r.Recurring),
		string(r.CreatedBy),
	}
	return strings.ToLower(strings.Join(fields, " "))
}

// MonthlyBreakdown returns one row per month and person with the summed
// share: every month for A first, then every month for B.
func MonthlyBreakdown(records []core.Record, order MonthOrder) []MonthlyAmount {
	var months []string
	sums := make(map[string]*PersonTotals)
	for _, r := range records {
		m := r.Month()
		t, ok := sums[m]
		if !ok {
			t = &PersonTotals{}
			sums[m] = t
			months = append(months, m)
		}
		t.A += r.ShareA
		t.B += r.ShareB
	}

	if order != MonthOrderFirstSeen {
		sort.SliceStable(months, func(i, j int) bool {
			return monthNumber(months[i]) < monthNumber(months[j])
		})
	}

	out := make([]MonthlyAmount, 0, len(months)*2)
	for _, m := range months {
		out = append(out, MonthlyAmount{Month: m, Person: core.PersonA, Amount: sums[m].A})
	}
	for _, m := range months {
		out = append(out, MonthlyAmount{Month: m, Person: core.PersonB, Amount: sums[m].B})
	}
	return out
}

func monthNumber(name string) int {
	for m := time.January; m <= time.December; m++ {
		if m.String() == name {
			return int(m)
		}
	}
	return 13
}

// ExceedsThreshold reports whether r's total is above threshold; callers
// scale the threshold by the display currency rate.
func ExceedsThreshold(r core.Record, threshold float64) bool {
	return r.Total > threshold
}

// Highlighted returns the ids of records above threshold.
func Highlighted(records []core.Record, threshold float64) []string {
	ids := []string{}
	for _, r := range records {
		if ExceedsThreshold(r, threshold) {
			ids = append(ids, r.ID)
		}
	}
	return ids
}
