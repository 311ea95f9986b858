package api

import (
	"net/http"
	"time"

	"adwords-report/auth"
	"adwords-report/worker"
)

// lookup returns the result of id if c may see it. Complete results older
// than MaxAge are reported as expired.
func (s *Server) lookup(id string, c auth.Claims) (*worker.ReportResult, bool) {
	rr, ok := s.Pool.Status(id)
	if !ok || (!c.Admin && rr.Owner != c.Subject) {
		return nil, false
	}
	if rr.Status == worker.StatusComplete && s.MaxAge > 0 && time.Since(rr.FinishedAt) > s.MaxAge {
		rr.Status = worker.StatusExpired
	}
	return rr, true
}

func (s *Server) ReportStatusHandler(w http.ResponseWriter, r *http.Request, c auth.Claims) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Missing id", http.StatusBadRequest)
		return
	}
	rr, ok := s.lookup(id, c)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"status": "unknown"})
		return
	}
	out := map[string]any{
		"status": rr.Status,
		"format": rr.Format,
	}
	switch rr.Status {
	case worker.StatusComplete:
		out["rows"] = rr.Rows
		out["bytes"] = rr.Bytes
	case worker.StatusError:
		out["error"] = rr.ErrorMsg
	}
	writeJSON(w, http.StatusOK, out)
}
