package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/evansmunsha/expense-guard/internal/core"
	"github.com/evansmunsha/expense-guard/internal/services"
)

// maxImportBytes bounds backup payloads. Years of records fit in a couple
// of megabytes, so this is generous.
const maxImportBytes = 10 << 20

// query returns a trimmed query parameter.
func query(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// monthParam validates the optional ?month= parameter. Empty means the
// caller wants the default month; anything else must be a YYYY-MM key.
func monthParam(r *http.Request) (string, bool) {
	month := query(r, "month")
	if month == "" || core.ValidMonthKey(month) {
		return month, true
	}
	return "", false
}

// handleRecords dispatches the record collection verbs. The record id rides
// in the ?id= query parameter for update and delete.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		month, ok := monthParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid month parameter, want YYYY-MM")
			return
		}
		writeJSON(w, http.StatusOK, s.tracker.Records(month, query(r, "category")))

	case http.MethodPost:
		var in services.RecordInput
		if err := decodeJSON(w, r, &in); err != nil {
			s.fail(w, r, err)
			return
		}
		rec, err := s.tracker.AddRecord(r.Context(), in)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, rec)

	case http.MethodPut:
		id := query(r, "id")
		if id == "" {
			writeError(w, http.StatusBadRequest, "missing id parameter")
			return
		}
		var in services.RecordInput
		if err := decodeJSON(w, r, &in); err != nil {
			s.fail(w, r, err)
			return
		}
		rec, err := s.tracker.UpdateRecord(r.Context(), id, in)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)

	case http.MethodDelete:
		id := query(r, "id")
		if id == "" {
			writeError(w, http.StatusBadRequest, "missing id parameter")
			return
		}
		if err := s.tracker.DeleteRecord(r.Context(), id); err != nil {
			s.fail(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, "GET, POST, PUT, DELETE")
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	month, ok := monthParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid month parameter, want YYYY-MM")
		return
	}
	writeJSON(w, http.StatusOK, s.tracker.Stats(r.Context(), month))
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	month, ok := monthParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid month parameter, want YYYY-MM")
		return
	}
	breakdown := s.tracker.Breakdown(month)
	if breakdown == nil {
		breakdown = []services.CategoryTotal{}
	}
	writeJSON(w, http.StatusOK, breakdown)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	month, ok := monthParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid month parameter, want YYYY-MM")
		return
	}
	insights := s.tracker.Insights(month)
	if insights == nil {
		insights = []services.Insight{}
	}
	writeJSON(w, http.StatusOK, insights)
}

func (s *Server) handleSubscriptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	view := s.tracker.Subscriptions(r.Context())
	if view.Renewals == nil {
		view.Renewals = []services.Renewal{}
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.tracker.Settings())

	case http.MethodPut:
		var in services.SettingsInput
		if err := decodeJSON(w, r, &in); err != nil {
			s.fail(w, r, err)
			return
		}
		settings, err := s.tracker.UpdateSettings(r.Context(), in)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, settings)

	default:
		methodNotAllowed(w, "GET, PUT")
	}
}

// importFailure reports an import that stopped partway. Applied steps are
// not rolled back, so the client sees exactly how far it got.
type importFailure struct {
	Error     string   `json:"error"`
	Imported  int      `json:"imported"`
	Skipped   int      `json:"skipped"`
	Completed []string `json:"completed"`
}

// handleImport restores a backup payload. Because importing replaces the
// whole collection, the request must carry ?confirm=true.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	confirm := query(r, "confirm") == "true"

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "backup exceeds size limit")
			return
		}
		writeError(w, http.StatusBadRequest, "could not read backup payload")
		return
	}

	summary, err := s.tracker.Import(r.Context(), data, confirm)
	if err != nil {
		var partial *services.PartialImportError
		if errors.As(err, &partial) {
			writeJSON(w, http.StatusInternalServerError, importFailure{
				Error:     partial.Error(),
				Imported:  summary.Imported,
				Skipped:   summary.Skipped,
				Completed: partial.Completed,
			})
			return
		}
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	month, ok := monthParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid month parameter, want YYYY-MM")
		return
	}
	data, err := s.tracker.ExportCSV(month)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	name := "expense-guard.csv"
	if month != "" {
		name = "expense-guard-" + month + ".csv"
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleExportBackup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	data, err := s.tracker.ExportBackup()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="expense-guard-backup.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type purchaseResult struct {
	State     string `json:"state"`
	IsPremium bool   `json:"isPremium"`
}

type restoreResult struct {
	Restored  int  `json:"restored"`
	IsPremium bool `json:"isPremium"`
}

func (s *Server) handleBillingPurchase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	ent, state, err := s.tracker.PurchasePremium(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, purchaseResult{State: state, IsPremium: ent.IsPremium})
}

func (s *Server) handleBillingRestore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	ent, restored, err := s.tracker.RestorePurchases(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, restoreResult{Restored: restored, IsPremium: ent.IsPremium})
}
