package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"adwords-report/archive"
	"adwords-report/auth"
	"adwords-report/logging"
	"adwords-report/worker"
)

// RunLister lists archived runs. *archive.Store implements it.
type RunLister interface {
	List(ctx context.Context, owner string, limit int) ([]archive.Run, error)
}

// Server is the report gateway: clients queue report downloads, poll their
// status and fetch the stored file.
type Server struct {
	Secret  string
	Pool    *worker.Pool
	Runs    RunLister    // optional
	Metrics http.Handler // optional, served on /metrics
	Access  *logging.Logger
	MaxAge  time.Duration // 0 keeps files forever
}

// Handler returns the gateway routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/reports/execute", s.authenticated(s.ReportExecuteHandler))
	mux.HandleFunc("GET /api/reports/status", s.authenticated(s.ReportStatusHandler))
	mux.HandleFunc("GET /api/reports/download", s.authenticated(s.DownloadReportHandler))
	mux.HandleFunc("GET /api/reports/runs", s.authenticated(s.RunsHandler))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "queued": s.Pool.QueueLength()})
	})
	if s.Metrics != nil {
		mux.Handle("GET /metrics", s.Metrics)
	}
	return mux
}

// StartServer serves h on listenAddr until ctx is done.
func StartServer(ctx context.Context, listenAddr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	}
}

type handlerWithClaims func(w http.ResponseWriter, r *http.Request, c auth.Claims)

func (s *Server) authenticated(h handlerWithClaims) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := auth.ClaimsFromRequest(r, s.Secret)
		if err != nil {
			s.Access.Write("[UNAUTHORIZED]", "path", r.URL.Path, "error", err)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		h(w, r, claims)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
