package http

import (
	"bytes"
	"net/http"
	"strings"

	"splitledger/internal/journal"
	applog "splitledger/internal/log"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 500
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports 503 once shutdown has begun.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.draining.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("shutting down"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	q, err := ParseViewQuery(r.URL.Query())
	if err != nil {
		respondError(w, r, err)
		return
	}
	v, err := s.svc.View(r.Context(), q)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewViewResponse(v, s.svc.PersonNames()))
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	in, err := req.ToNewRecord(s.svc.PersonNames())
	if err != nil {
		respondError(w, r, err)
		return
	}

	id := s.svc.Add(r.Context(), in)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))

	var req UpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	u, err := req.ToUpdate(s.svc.PersonNames())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.svc.Edit(r.Context(), id, u); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	var req ArchiveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	n := s.svc.Archive(r.Context(), req.IDs)
	writeJSON(w, http.StatusOK, map[string]int{"archived": n})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Undo(r.Context()); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"undone": true})
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	q, err := ParseViewQuery(r.URL.Query())
	if err != nil {
		respondError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := s.svc.ExportCSV(r.Context(), &buf, q); err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="ledger.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.ImportCSV(r.Context(), http.MaxBytesReader(w, r.Body, maxCSVBody))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": n})
}

func (s *Server) handleSheetsExport(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.ExportToSheets(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"exported": n})
}

func (s *Server) handleSheetsImport(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.ImportFromSheets(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": n})
}

func (s *Server) handleCurrencies(w http.ResponseWriter, r *http.Request) {
	rates := s.svc.Currencies()
	out := make([]CurrencyResponse, 0, len(rates))
	for _, rate := range rates {
		out = append(out, CurrencyResponse{Code: rate.Code, Rate: rate.Rate.InexactFloat64()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	limit, err := ParseLimit(r.URL.Query(), defaultActivityLimit, maxActivityLimit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	entries, err := s.svc.Activity(r.Context(), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	applog.FromContext(r.Context()).DebugContext(r.Context(), "Activity listed", "entries", len(entries))
	writeJSON(w, http.StatusOK, entries)
}
