package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"splitledger/internal/cache"
	"splitledger/internal/csvio"
	"splitledger/internal/currency"
	"splitledger/internal/ledger"
	applog "splitledger/internal/log"
	"splitledger/internal/services"
	"splitledger/internal/sheets/memory"
)

func newTestServer(t *testing.T, withSheets bool) *Server {
	t.Helper()
	table, err := currency.Parse(currency.DefaultTable, "SEK")
	require.NoError(t, err)

	logger := applog.New(applog.Config{Output: io.Discard})
	opts := services.Options{
		Ledger:             ledger.New(ledger.WithRecords(ledger.DemoRecords())),
		Currencies:         table,
		Codec:              csvio.NewCodec("Chix", "Matilda"),
		HighlightThreshold: 3000,
		Logger:             logger,
		ViewCache:          cache.NewLRUCache[services.View](8, time.Minute),
	}
	if withSheets {
		opts.Sheets = memory.New()
	}

	srv := NewServer(Options{
		Addr:               ":0",
		Service:            services.NewLedgerService(opts),
		Logger:             logger,
		RateLimitPerMinute: 1000,
	})
	t.Cleanup(srv.limiter.Stop)
	return srv
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(method, target, r))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, false)

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/readyz", "").Code)

	srv.draining.Store(true)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, srv, http.MethodGet, "/readyz", "").Code)
}

func TestViewEndpoint(t *testing.T) {
	srv := newTestServer(t, false)

	rec := do(t, srv, http.MethodGet, "/api/expenses?month=August&priority=medium&currency=EUR&group=category", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	v := decode[ViewResponse](t, rec)
	assert.Equal(t, "EUR", v.Currency)
	require.Len(t, v.Records, 2)
	assert.Equal(t, "2025-08-25", v.Records[0].BudgetDate)
	assert.Equal(t, "August", v.Records[0].Month)
	assert.Equal(t, "Chix", v.Records[0].CreatedByName)
	assert.InDelta(t, 200*0.088, v.Records[0].Total, 1e-9)
	assert.Equal(t, "Matilda", v.People["B"])
	assert.Empty(t, v.Highlighted)
	assert.Len(t, v.Monthly, 2)
}

func TestViewEndpointBadQuery(t *testing.T) {
	srv := newTestServer(t, false)

	for _, target := range []string{
		"/api/expenses?currency=USD",
		"/api/expenses?priority=urgent",
		"/api/expenses?group=person",
		"/api/expenses?recurring=maybe",
	} {
		rec := do(t, srv, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.NotEmpty(t, decode[ErrorResponse](t, rec).Error)
	}
}

func TestMutationFlow(t *testing.T) {
	srv := newTestServer(t, false)

	rec := do(t, srv, http.MethodPost, "/api/expenses",
		`{"item":"Desk","category":"furniture","total":1000,"split":{"type":"percent","value":70},"priority":"high","budget_date":"2025-09-03","created_by":"Matilda"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode[map[string]string](t, rec)["id"]
	require.NotEmpty(t, id)

	v := decode[ViewResponse](t, do(t, srv, http.MethodGet, "/api/expenses?month=September", ""))
	require.Len(t, v.Records, 1)
	assert.Equal(t, 700.0, v.Records[0].ShareA)
	assert.Equal(t, 300.0, v.Records[0].ShareB)
	assert.Equal(t, "B", v.Records[0].CreatedBy)
	assert.True(t, v.CanUndo)

	rec = do(t, srv, http.MethodPatch, "/api/expenses/"+id, `{"total":1200}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	v = decode[ViewResponse](t, do(t, srv, http.MethodGet, "/api/expenses?month=September", ""))
	assert.Equal(t, 500.0, v.Records[0].ShareB)

	rec = do(t, srv, http.MethodPost, "/api/expenses/archive", `{"ids":["`+id+`","nope"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[map[string]int](t, rec)["archived"])
	v = decode[ViewResponse](t, do(t, srv, http.MethodGet, "/api/expenses?month=September", ""))
	assert.Empty(t, v.Records)
	v = decode[ViewResponse](t, do(t, srv, http.MethodGet, "/api/expenses?month=September&archived=true", ""))
	require.Len(t, v.Records, 1)
	assert.True(t, v.Records[0].Archived)

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/api/undo", "").Code)
	assert.Equal(t, http.StatusConflict, do(t, srv, http.MethodPost, "/api/undo", "").Code)

	v = decode[ViewResponse](t, do(t, srv, http.MethodGet, "/api/expenses?month=September", ""))
	require.Len(t, v.Records, 1)
	assert.False(t, v.CanUndo)
}

func TestMutationErrors(t *testing.T) {
	srv := newTestServer(t, false)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
	}{
		{"malformed json", http.MethodPost, "/api/expenses", `{"item":`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/expenses", `{"item":"x","colour":"red"}`, http.StatusBadRequest},
		{"empty item", http.MethodPost, "/api/expenses", `{"item":" ","category":"Other","priority":"low","created_by":"A"}`, http.StatusUnprocessableEntity},
		{"negative total", http.MethodPost, "/api/expenses", `{"item":"x","total":-1,"category":"Other","priority":"low","created_by":"A"}`, http.StatusUnprocessableEntity},
		{"bad split", http.MethodPost, "/api/expenses", `{"item":"x","category":"Other","priority":"low","created_by":"A","split":{"type":"percent","value":120}}`, http.StatusUnprocessableEntity},
		{"bad person", http.MethodPost, "/api/expenses", `{"item":"x","category":"Other","priority":"low","created_by":"C"}`, http.StatusUnprocessableEntity},
		{"edit unknown id", http.MethodPatch, "/api/expenses/missing", `{"item":"x"}`, http.StatusNotFound},
		{"empty edit", http.MethodPatch, "/api/expenses/missing", `{}`, http.StatusUnprocessableEntity},
		{"wrong method", http.MethodDelete, "/api/expenses", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestCSVEndpoints(t *testing.T) {
	srv := newTestServer(t, false)

	rec := do(t, srv, http.MethodGet, "/api/export.csv?recurring=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "ledger.csv")
	exported := rec.Body.String()
	assert.True(t, strings.HasPrefix(exported, "ID,Item,Category,Total"))

	rec = do(t, srv, http.MethodPost, "/api/import", exported)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, decode[map[string]int](t, rec)["imported"])

	rec = do(t, srv, http.MethodPost, "/api/import", "Item,Total\nDesk,10\n")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Error, "schema mismatch")
}

func TestSheetsEndpoints(t *testing.T) {
	disabled := newTestServer(t, false)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, disabled, http.MethodPost, "/api/sheets/export", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, disabled, http.MethodGet, "/api/activity", "").Code)

	srv := newTestServer(t, true)
	rec := do(t, srv, http.MethodPost, "/api/sheets/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	n := decode[map[string]int](t, rec)["exported"]
	assert.Equal(t, len(ledger.DemoRecords()), n)

	rec = do(t, srv, http.MethodPost, "/api/sheets/import", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, n, decode[map[string]int](t, rec)["imported"])
}

func TestCurrenciesEndpoint(t *testing.T) {
	srv := newTestServer(t, false)

	rec := do(t, srv, http.MethodGet, "/api/currencies", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []CurrencyResponse{{"SEK", 1}, {"EUR", 0.088}, {"ZAR", 1.8}}, decode[[]CurrencyResponse](t, rec))
}

func TestRateLimitAppliesToMutations(t *testing.T) {
	srv := newTestServer(t, false)

	limited := NewServer(Options{
		Service:            srv.svc,
		Logger:             applog.New(applog.Config{Output: io.Discard}),
		RateLimitPerMinute: 1,
	})
	t.Cleanup(limited.limiter.Stop)

	assert.Equal(t, http.StatusConflict, do(t, limited, http.MethodPost, "/api/undo", "").Code)
	rec := do(t, limited, http.MethodPost, "/api/undo", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusOK, do(t, limited, http.MethodGet, "/api/currencies", "").Code)
}
