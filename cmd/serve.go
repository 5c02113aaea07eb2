package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/radar/internal/ingest"
	"github.com/sells-group/radar/internal/monitoring"
	"github.com/sells-group/radar/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the operator HTTP server",
	Long:  "Serves health, metrics, keyword listings and briefs, and accepts ingestion triggers. One ingestion run may be in flight at a time.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "serve", cfg.Ingest.Expand)
		if err != nil {
			return err
		}
		defer env.Close()

		if cfg.Monitoring.Enabled {
			checker := monitoring.NewChecker(
				monitoring.NewCollector(env.Store),
				monitoring.NewAlerter(cfg.Monitoring),
				cfg.Monitoring,
			)
			go checker.Run(ctx)
		}

		srv := &server{
			store:          env.Store,
			orchestrator:   env.Orchestrator,
			registry:       env.Registry,
			seedFile:       cfg.Ingest.SeedFile,
			allowedOrigins: cfg.Server.AllowedOrigins,
		}
		router := srv.routes(ctx)

		err = startServer(ctx, router, resolvePort(servePort, cfg.Server.Port))
		srv.wait()
		return err
	},
}

// server holds the dependencies of the HTTP handlers.
type server struct {
	store          store.KeywordStore
	orchestrator   *ingest.Orchestrator
	registry       *prometheus.Registry
	seedFile       string
	allowedOrigins []string

	running atomic.Bool
	runs    sync.WaitGroup
}

// routes builds the router. Background ingestion runs are bound to ctx.
func (s *server) routes(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	if s.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	r.Post("/ingest", func(w http.ResponseWriter, r *http.Request) {
		s.handleIngest(ctx, w, r)
	})
	r.Get("/runs", s.handleRuns)
	r.Get("/keywords", s.handleKeywords)
	r.Get("/keywords/{keyword}/brief", s.handleBrief)
	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		zap.L().Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleIngest starts a background run. The body may carry seeds; an empty
// body falls back to the configured seed file.
func (s *server) handleIngest(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	var req struct {
		Seeds []ingest.Seed `json:"seeds"`
	}
	// Chunked requests report ContentLength -1; an empty one decodes to io.EOF.
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !eris.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	seeds := req.Seeds
	if len(seeds) == 0 {
		loaded, err := ingest.LoadSeeds(s.seedFile)
		if err != nil {
			zap.L().Error("load seeds", zap.String("path", s.seedFile), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "could not load seed file")
			return
		}
		seeds = loaded
	}
	if len(seeds) == 0 {
		writeError(w, http.StatusBadRequest, "no seeds")
		return
	}

	if !s.running.CompareAndSwap(false, true) {
		writeError(w, http.StatusConflict, "an ingestion run is already in progress")
		return
	}

	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		defer s.running.Store(false)

		sum, err := s.orchestrator.Run(ctx, seeds)
		if err != nil {
			zap.L().Error("triggered ingest failed", zap.Error(err))
			return
		}
		zap.L().Info("triggered ingest complete",
			zap.String("run_id", sum.RunID),
			zap.Int("new", sum.New),
			zap.Int("refreshed", sum.Refreshed),
		)
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status": "accepted",
		"seeds":  len(seeds),
	})
}

func (s *server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		zap.L().Error("list runs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list runs")
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *server) handleKeywords(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ks, err := s.store.List(r.Context(), filter)
	if err != nil {
		zap.L().Error("list keywords", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list keywords")
		return
	}
	writeJSON(w, http.StatusOK, ks)
}

func (s *server) handleBrief(w http.ResponseWriter, r *http.Request) {
	b, err := briefFor(r.Context(), s.store, chi.URLParam(r, "keyword"), false)
	if err != nil {
		zap.L().Error("brief", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not draft brief")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// wait blocks until background runs have finished.
func (s *server) wait() {
	s.runs.Wait()
}

// listFilterFromQuery reads listing filters from URL query parameters.
func listFilterFromQuery(r *http.Request) (store.ListFilter, error) {
	q := r.URL.Query()
	f := store.ListFilter{
		Bucket:  q.Get("bucket"),
		Prefix:  q.Get("prefix"),
		GapOnly: q.Get("gaps") == "true",
	}

	var err error
	if f.MinScore, err = queryInt(q.Get("min_score"), "min_score"); err != nil {
		return f, err
	}
	if f.MaxScore, err = queryInt(q.Get("max_score"), "max_score"); err != nil {
		return f, err
	}
	if f.Limit, err = queryInt(q.Get("limit"), "limit"); err != nil {
		return f, err
	}
	if f.Offset, err = queryInt(q.Get("offset"), "offset"); err != nil {
		return f, err
	}
	return validateListFilter(f, q.Get("intent"), q.Get("sort"))
}

func queryInt(v, name string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, eris.Errorf("invalid %s %q", name, v)
	}
	return n, nil
}

// resolvePort prefers the flag value and falls back to config.
func resolvePort(flagPort, cfgPort int) int {
	if flagPort != 0 {
		return flagPort
	}
	return cfgPort
}

// startServer serves handler on port until ctx is canceled, then shuts down
// gracefully.
func startServer(ctx context.Context, handler http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return eris.Wrap(err, "server listen")
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server shutdown")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
