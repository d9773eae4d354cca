package httpapi

import (
	"database/sql"
	"net"
	"net/http"
	"strconv"
	"time"

	"easyapply-engine/internal/store"
)

type OutcomesHandler struct {
	DB *sql.DB
}

func (h OutcomesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	rows, err := store.ListOutcomes(r.Context(), h.DB, store.ListOutcomesOpts{
		RunID:   q.Get("run_id"),
		Outcome: q.Get("outcome"),
		Window:  q.Get("window"),
		Limit:   limit,
	})
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	writeJSON(w, rows)
}

func (h OutcomesHandler) Counts(w http.ResponseWriter, r *http.Request) {
	counts, err := store.CountOutcomes(r.Context(), h.DB, r.URL.Query().Get("run_id"))
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	writeJSON(w, counts)
}

// Cleanup deletes outcome rows older than keep_days (default 90). Loopback callers only.
func (h OutcomesHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	if !fromLoopback(r) {
		WriteError(w, r, http.StatusForbidden, "forbidden", "forbidden")
		return
	}
	days := 90
	if v := r.URL.Query().Get("keep_days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			WriteError(w, r, http.StatusBadRequest, "invalid_keep_days", "keep_days must be a positive integer")
			return
		}
		days = n
	}
	deleted, err := store.CleanupOldOutcomes(h.DB, time.Duration(days)*24*time.Hour)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	writeJSON(w, map[string]any{"ok": true, "deleted": deleted})
}

func fromLoopback(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	ip := net.ParseIP(host)
	return host == "localhost" || (ip != nil && ip.IsLoopback())
}
