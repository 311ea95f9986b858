package api

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"adwords-report/auth"
	"adwords-report/worker"
)

// DownloadReportHandler serves the stored file of a complete request.
// GET parameters: id (required), type=csv|xml|xlsx (optional, must match the
// requested format).
func (s *Server) DownloadReportHandler(w http.ResponseWriter, r *http.Request, c auth.Claims) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Missing id", http.StatusBadRequest)
		return
	}
	rr, ok := s.lookup(id, c)
	if !ok {
		http.Error(w, "Unknown report", http.StatusNotFound)
		return
	}
	switch rr.Status {
	case worker.StatusComplete:
	case worker.StatusExpired:
		http.Error(w, "Report file expired", http.StatusGone)
		return
	case worker.StatusError:
		http.Error(w, "Report failed: "+rr.ErrorMsg, http.StatusConflict)
		return
	default:
		http.Error(w, "Report not ready", http.StatusConflict)
		return
	}

	if t := r.URL.Query().Get("type"); t != "" {
		want, err := worker.ParseFormat(t)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if want != rr.Format {
			http.Error(w, fmt.Sprintf("Report was stored as %s", rr.Format), http.StatusBadRequest)
			return
		}
	}
	if _, err := os.Stat(rr.Path); err != nil {
		http.Error(w, "File not found for this report", http.StatusNotFound)
		return
	}

	s.Access.Write("[DOWNLOAD]", "user", c.Subject, "id", id, "type", rr.Format)
	fileName := fmt.Sprintf("report_%s.%s", strings.ReplaceAll(id, "\"", ""), rr.Format)
	w.Header().Set("Content-Type", rr.Format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", fileName))
	http.ServeFile(w, r, rr.Path)
}
