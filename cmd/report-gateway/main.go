package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"adwords-report/api"
	"adwords-report/archive"
	"adwords-report/config"
	"adwords-report/logging"
	"adwords-report/metrics"
	"adwords-report/report"
	"adwords-report/session"
	"adwords-report/utils"
	"adwords-report/worker"
)

// Archived runs are kept this long; report files only MaxFileAgeHours.
const runRetention = 30 * 24 * time.Hour

const expireEvery = 10 * time.Minute

// gateway holds what SIGHUP replaces: the report client used by the
// workers and the HTTP handler carrying secret and file age.
type gateway struct {
	client  atomic.Pointer[report.Client]
	handler atomic.Pointer[http.Handler]
	maxAge  atomic.Int64
}

func (g *gateway) Fetch(ctx context.Context, d report.Descriptor) ([]byte, error) {
	return g.client.Load().Fetch(ctx, d)
}

func (g *gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	(*g.handler.Load()).ServeHTTP(w, r)
}

func main() {
	cfgFile := flag.String("config", config.DefaultFile, "configuration file")
	flag.Parse()

	logFile, err := utils.LogToFile("report-gateway.log")
	if err != nil {
		log.Fatalf("Failed log file: %v", err)
	}
	defer logFile.Close()

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		log.Fatalf("Failed config: %v", err)
	}
	if cfg.Gateway.JWTSecret == "" {
		log.Fatalf("gateway.jwt_secret is required")
	}
	logging.Init(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format, logFile)
	logger := logging.New("gateway")

	accessLog := logging.NewLoggerOrDie(cfg.LogDir(), accessLogName(cfg))
	defer accessLog.Close()
	runLog := logging.NewLoggerOrDie(cfg.LogDir(), "report.log")
	defer runLog.Close()

	m := metrics.New("adwords")
	g := &gateway{}
	if err := g.load(cfg, m); err != nil {
		log.Fatalf("Failed session: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []worker.Option{
		worker.WithObserver(m),
		worker.WithRunTimeout(cfg.Service.PollTimeout),
	}
	var store *archive.Store
	if cfg.Archive.Driver != "" {
		store, err = archive.Open(ctx, cfg.Archive.Driver, cfg.Archive.DSN)
		if err != nil {
			log.Fatalf("Failed archive: %v", err)
		}
		defer store.Close()
		opts = append(opts, worker.WithArchive(store))
	}
	pool := worker.NewPool(g, cfg.ReportDir(), runLog, opts...)
	pool.Start(ctx, cfg.Gateway.Workers)

	mount := func(cfg *config.Config) {
		srv := &api.Server{
			Secret:  cfg.Gateway.JWTSecret,
			Pool:    pool,
			Metrics: m.Handler(),
			Access:  accessLog,
			MaxAge:  time.Duration(cfg.Gateway.MaxFileAgeHours) * time.Hour,
		}
		if store != nil {
			srv.Runs = store
		}
		h := srv.Handler()
		g.handler.Store(&h)
		g.maxAge.Store(int64(srv.MaxAge))
	}
	mount(cfg)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		reloadOnHangup(ctx, *cfgFile, g, m, mount, logger)
	}()
	go func() {
		defer wg.Done()
		expire(ctx, pool, store, &g.maxAge, logger)
	}()

	logger.Info("server started", "listen", cfg.Gateway.Listen, "workers", cfg.Gateway.Workers, "version", cfg.Service.Version)
	if err := api.StartServer(ctx, cfg.Gateway.Listen, g); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "error", err)
		stop()
	}
	pool.Wait()
	wg.Wait()
	logger.Info("server stopped")
}

func accessLogName(cfg *config.Config) string {
	if cfg.Gateway.AccessLog != "" {
		return cfg.Gateway.AccessLog
	}
	return "access.log"
}

func (g *gateway) load(cfg *config.Config, m *metrics.Metrics) error {
	s, err := session.New(cfg, session.WithLogger(logging.New("session")), session.WithMetrics(m))
	if err != nil {
		return err
	}
	g.client.Store(s.Client)
	return nil
}

// reloadOnHangup rereads the configuration on SIGHUP. Listen address,
// workers and archive keep their startup values.
func reloadOnHangup(ctx context.Context, file string, g *gateway, m *metrics.Metrics, mount func(*config.Config), logger *slog.Logger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGHUP)
	defer signal.Stop(sigs)
	for {
		select {
		case <-ctx.Done():
			return
		case <-sigs:
		}
		logger.Info("reloading configuration", "file", file)
		cfg, err := config.Load(file)
		if err == nil && cfg.Gateway.JWTSecret == "" {
			err = errors.New("gateway.jwt_secret is required")
		}
		if err == nil {
			err = g.load(cfg, m)
		}
		if err != nil {
			logger.Error("reload failed, keeping previous configuration", "error", err)
			continue
		}
		mount(cfg)
	}
}

func expire(ctx context.Context, pool *worker.Pool, store *archive.Store, maxAge *atomic.Int64, logger *slog.Logger) {
	t := time.NewTicker(expireEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		if age := time.Duration(maxAge.Load()); age > 0 {
			pool.Expire(age)
		}
		if store == nil {
			continue
		}
		n, err := store.DeleteBefore(ctx, time.Now().Add(-runRetention))
		if err != nil {
			logger.Warn("archive cleanup failed", "error", err)
		} else if n > 0 {
			logger.Info("archive cleanup", "deleted", n)
		}
	}
}
