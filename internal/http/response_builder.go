package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"splitledger/internal/core"
	"splitledger/internal/csvio"
	"splitledger/internal/currency"
	"splitledger/internal/ledger"
	applog "splitledger/internal/log"
	"splitledger/internal/services"
)

// RecordResponse is the wire form of a ledger record.
type RecordResponse struct {
	ID            string  `json:"id"`
	Item          string  `json:"item"`
	Category      string  `json:"category"`
	Total         float64 `json:"total"`
	ShareA        float64 `json:"share_a"`
	ShareB        float64 `json:"share_b"`
	Priority      string  `json:"priority"`
	BudgetDate    string  `json:"budget_date"`
	Month         string  `json:"month"`
	Recurring     bool    `json:"recurring"`
	CreatedBy     string  `json:"created_by"`
	CreatedByName string  `json:"created_by_name"`
	Archived      bool    `json:"archived"`
	Highlighted   bool    `json:"highlighted"`
}

type MonthlyResponse struct {
	Month      string  `json:"month"`
	Person     string  `json:"person"`
	PersonName string  `json:"person_name"`
	Amount     float64 `json:"amount"`
}

type ViewResponse struct {
	Currency    string            `json:"currency"`
	Rate        float64           `json:"rate"`
	Version     uint64            `json:"version"`
	CanUndo     bool              `json:"can_undo"`
	Records     []RecordResponse  `json:"records"`
	Highlighted []string          `json:"highlighted"`
	Summary     ledger.Summary    `json:"summary"`
	Monthly     []MonthlyResponse `json:"monthly"`
	People      map[string]string `json:"people"`
}

type CurrencyResponse struct {
	Code string  `json:"code"`
	Rate float64 `json:"rate"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// NewViewResponse maps a service view to its wire form.
func NewViewResponse(v services.View, names map[core.Person]string) ViewResponse {
	highlighted := make(map[string]bool, len(v.Highlighted))
	for _, id := range v.Highlighted {
		highlighted[id] = true
	}

	resp := ViewResponse{
		Currency:    v.Currency,
		Rate:        v.Rate,
		Version:     v.Version,
		CanUndo:     v.CanUndo,
		Records:     make([]RecordResponse, 0, len(v.Records)),
		Highlighted: v.Highlighted,
		Summary:     v.Summary,
		Monthly:     make([]MonthlyResponse, 0, len(v.Monthly)),
		People:      map[string]string{},
	}
	for _, r := range v.Records {
		rr := NewRecordResponse(r, names)
		rr.Highlighted = highlighted[r.ID]
		resp.Records = append(resp.Records, rr)
	}
	for _, m := range v.Monthly {
		resp.Monthly = append(resp.Monthly, MonthlyResponse{
			Month:      m.Month,
			Person:     string(m.Person),
			PersonName: displayName(m.Person, names),
			Amount:     m.Amount,
		})
	}
	for _, p := range []core.Person{core.PersonA, core.PersonB} {
		resp.People[string(p)] = displayName(p, names)
	}
	return resp
}

func NewRecordResponse(r core.Record, names map[core.Person]string) RecordResponse {
	return RecordResponse{
		ID:            r.ID,
		Item:          r.Item,
		Category:      string(r.Category),
		Total:         r.Total,
		ShareA:        r.ShareA,
		ShareB:        r.ShareB,
		Priority:      string(r.Priority),
		BudgetDate:    r.BudgetDate.String(),
		Month:         r.Month(),
		Recurring:     r.Recurring,
		CreatedBy:     string(r.CreatedBy),
		CreatedByName: displayName(r.CreatedBy, names),
		Archived:      r.Deleted,
	}
}

func displayName(p core.Person, names map[core.Person]string) string {
	if name := names[p]; name != "" {
		return name
	}
	return string(p)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// StatusFor maps a service or request error to its HTTP status.
func StatusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest), errors.Is(err, currency.ErrUnknownCurrency):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrNoSnapshot):
		return http.StatusConflict
	case errors.Is(err, errInvalidInput),
		errors.Is(err, ledger.ErrImportSchemaMismatch),
		errors.Is(err, csvio.ErrInvalidRow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrSheetsDisabled), errors.Is(err, services.ErrJournalDisabled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError writes err with its mapped status. Internal errors are
// logged and their text is not sent to the client.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			applog.FieldError, err.Error(),
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}
