package api

import (
	"net/http"
	"strconv"

	"adwords-report/auth"
)

// RunsHandler lists archived runs, most recent first. Admins see every run,
// other clients their own.
func (s *Server) RunsHandler(w http.ResponseWriter, r *http.Request, c auth.Claims) {
	if s.Runs == nil {
		http.Error(w, "Run archive disabled", http.StatusNotImplemented)
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "Bad limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	owner := c.Subject
	if c.Admin {
		owner = r.URL.Query().Get("owner")
	}
	runs, err := s.Runs.List(r.Context(), owner, limit)
	if err != nil {
		s.Access.Write("[RUNS_FAIL]", "user", c.Subject, "error", err)
		http.Error(w, "Archive error", http.StatusInternalServerError)
		return
	}
	out := make([]map[string]any, 0, len(runs))
	for _, run := range runs {
		item := map[string]any{
			"id":         run.ID,
			"variant":    run.Variant,
			"report_id":  run.ReportID,
			"format":     run.Format,
			"status":     run.Status,
			"owner":      run.Owner,
			"created_at": run.CreatedAt.UTC(),
		}
		if run.Error != "" {
			item["error"] = run.Error
		}
		if !run.FinishedAt.IsZero() {
			item["finished_at"] = run.FinishedAt.UTC()
		}
		out = append(out, item)
	}
	writeJSON(w, http.StatusOK, out)
}
