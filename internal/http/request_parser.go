// Package http exposes the ledger as a JSON API.
//
// This file turns query strings and JSON bodies into service inputs. Any
// problem with the request shape is reported as errBadRequest (400) and
// any problem with field values as errInvalidInput (422).
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"splitledger/internal/core"
	"splitledger/internal/ledger"
	"splitledger/internal/services"
)

const (
	maxJSONBody = 1 << 20
	maxCSVBody  = 5 << 20
)

var (
	errBadRequest   = errors.New("bad request")
	errInvalidInput = errors.New("invalid input")
)

// Split types accepted in create requests.
const (
	SplitEqual   = "equal"
	SplitAmount  = "amount"
	SplitPercent = "percent"
)

// ParseViewQuery reads the view and export query parameters. month and
// priority may repeat or hold comma-separated lists.
func ParseViewQuery(query url.Values) (services.ViewQuery, error) {
	var q services.ViewQuery

	q.Months = listParam(query, "month")

	for _, raw := range listParam(query, "priority") {
		p, err := core.ParsePriority(raw)
		if err != nil {
			return q, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		q.Priorities = append(q.Priorities, p)
	}

	var err error
	if q.OnlyRecurring, err = boolParam(query, "recurring"); err != nil {
		return q, err
	}
	if q.IncludeArchived, err = boolParam(query, "archived"); err != nil {
		return q, err
	}
	if q.GroupBy, err = ledger.ParseGroupBy(query.Get("group")); err != nil {
		return q, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if q.MonthOrder, err = ledger.ParseMonthOrder(query.Get("order")); err != nil {
		return q, fmt.Errorf("%w: %v", errBadRequest, err)
	}

	q.Search = sanitizeInput(query.Get("q"))
	q.Currency = strings.TrimSpace(query.Get("currency"))
	return q, nil
}

func listParam(query url.Values, key string) []string {
	var out []string
	for _, v := range query[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func boolParam(query url.Values, key string) (bool, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be true or false", errBadRequest, key)
	}
	return b, nil
}

// ParseLimit reads a positive limit, falling back to def and capping at max.
func ParseLimit(query url.Values, def, max int) (int, error) {
	v := strings.TrimSpace(query.Get("limit"))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: limit must be a positive integer", errBadRequest)
	}
	if n > max {
		n = max
	}
	return n, nil
}

// SplitRequest selects how a new record's total is divided.
type SplitRequest struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

// CreateRequest is the body of POST /api/expenses.
type CreateRequest struct {
	Item       string        `json:"item"`
	Category   string        `json:"category"`
	Total      float64       `json:"total"`
	Split      *SplitRequest `json:"split,omitempty"`
	Priority   string        `json:"priority"`
	BudgetDate string        `json:"budget_date,omitempty"`
	Recurring  bool          `json:"recurring"`
	CreatedBy  string        `json:"created_by"`
}

// UpdateRequest is the body of PATCH /api/expenses/{id}; absent fields are
// left unchanged.
type UpdateRequest struct {
	Item       *string  `json:"item,omitempty"`
	Category   *string  `json:"category,omitempty"`
	Total      *float64 `json:"total,omitempty"`
	ShareA     *float64 `json:"share_a,omitempty"`
	Priority   *string  `json:"priority,omitempty"`
	BudgetDate *string  `json:"budget_date,omitempty"`
	Recurring  *bool    `json:"recurring,omitempty"`
	CreatedBy  *string  `json:"created_by,omitempty"`
}

type ArchiveRequest struct {
	IDs []string `json:"ids"`
}

// ToNewRecord validates the request. Person may be given as A/B or a
// display name.
func (req CreateRequest) ToNewRecord(names map[core.Person]string) (ledger.NewRecord, error) {
	var in ledger.NewRecord

	in.Item = sanitizeInput(req.Item)
	if in.Item == "" {
		return in, invalid(core.ErrEmptyItem)
	}
	if req.Total < 0 {
		return in, invalid(core.ErrNegativeTotal)
	}
	in.Total = req.Total

	var err error
	if in.Category, err = core.ParseCategory(req.Category); err != nil {
		return in, invalid(err)
	}
	if in.Priority, err = core.ParsePriority(req.Priority); err != nil {
		return in, invalid(err)
	}
	if in.CreatedBy, err = core.ParsePerson(req.CreatedBy, names); err != nil {
		return in, invalid(err)
	}
	if strings.TrimSpace(req.BudgetDate) != "" {
		if in.BudgetDate, err = core.ParseDate(req.BudgetDate); err != nil {
			return in, invalid(err)
		}
	}
	if in.Split, err = req.Split.toSplit(); err != nil {
		return in, err
	}
	in.Recurring = req.Recurring
	return in, nil
}

func (s *SplitRequest) toSplit() (core.Split, error) {
	if s == nil {
		return core.EqualSplit{}, nil
	}
	switch strings.ToLower(strings.TrimSpace(s.Type)) {
	case "", SplitEqual:
		return core.EqualSplit{}, nil
	case SplitAmount:
		if s.Value < 0 {
			return nil, fmt.Errorf("%w: split amount cannot be negative", errInvalidInput)
		}
		return core.AmountSplit{ShareA: s.Value}, nil
	case SplitPercent:
		if s.Value < 0 || s.Value > 100 {
			return nil, fmt.Errorf("%w: split percent must be between 0 and 100", errInvalidInput)
		}
		return core.PercentSplit{PercentA: s.Value}, nil
	}
	return nil, fmt.Errorf("%w: unknown split type %q", errInvalidInput, s.Type)
}

// ToUpdate validates the request and rejects an update that changes nothing.
func (req UpdateRequest) ToUpdate(names map[core.Person]string) (ledger.Update, error) {
	var u ledger.Update

	if req.Item != nil {
		item := sanitizeInput(*req.Item)
		if item == "" {
			return u, invalid(core.ErrEmptyItem)
		}
		u.Item = &item
	}
	if req.Total != nil {
		if *req.Total < 0 {
			return u, invalid(core.ErrNegativeTotal)
		}
		u.Total = req.Total
	}
	u.ShareA = req.ShareA
	u.Recurring = req.Recurring

	if req.Category != nil {
		c, err := core.ParseCategory(*req.Category)
		if err != nil {
			return u, invalid(err)
		}
		u.Category = &c
	}
	if req.Priority != nil {
		p, err := core.ParsePriority(*req.Priority)
		if err != nil {
			return u, invalid(err)
		}
		u.Priority = &p
	}
	if req.BudgetDate != nil {
		d, err := core.ParseDate(*req.BudgetDate)
		if err != nil {
			return u, invalid(err)
		}
		u.BudgetDate = &d
	}
	if req.CreatedBy != nil {
		p, err := core.ParsePerson(*req.CreatedBy, names)
		if err != nil {
			return u, invalid(err)
		}
		u.CreatedBy = &p
	}

	if u.IsEmpty() {
		return u, fmt.Errorf("%w: no fields to update", errInvalidInput)
	}
	return u, nil
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", errInvalidInput, err)
}

// decodeJSON reads a single JSON object, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		return fmt.Errorf("%w: malformed JSON body: %v", errBadRequest, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("%w: body must contain a single JSON object", errBadRequest)
	}
	return nil
}

// sanitizeInput trims and drops control characters other than tab and
// newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
