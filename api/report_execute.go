package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"adwords-report/auth"
	"adwords-report/worker"
)

type executeRequest struct {
	JobID        string `json:"job_id"`
	DefinitionID string `json:"definition_id"`
	Format       string `json:"format"`
}

// ReportExecuteHandler queues a report download. Exactly one of job_id and
// definition_id must be given.
func (s *Server) ReportExecuteHandler(w http.ResponseWriter, r *http.Request, c auth.Claims) {
	var body executeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Bad JSON", http.StatusBadRequest)
		s.Access.Write("[EXECUTE_FAIL]", "user", c.Subject, "reason", "bad_json")
		return
	}
	body.JobID = strings.TrimSpace(body.JobID)
	body.DefinitionID = strings.TrimSpace(body.DefinitionID)
	if (body.JobID == "") == (body.DefinitionID == "") {
		http.Error(w, "Exactly one of job_id and definition_id is required", http.StatusBadRequest)
		s.Access.Write("[EXECUTE_FAIL]", "user", c.Subject, "reason", "report_id")
		return
	}
	format, err := worker.ParseFormat(body.Format)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		s.Access.Write("[EXECUTE_FAIL]", "user", c.Subject, "reason", "format")
		return
	}

	id := s.Pool.Submit(&worker.ReportRequest{
		Owner:        c.Subject,
		Admin:        c.Admin,
		JobID:        body.JobID,
		DefinitionID: body.DefinitionID,
		Format:       format,
		CreatedAt:    time.Now(),
	})
	writeJSON(w, http.StatusAccepted, map[string]string{"id": id})
	s.Access.Write("[EXECUTE_OK]", "user", c.Subject, "id", id)
}
