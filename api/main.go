package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/DeafMist/signal-radar/internal/config"
	"github.com/DeafMist/signal-radar/internal/dataset"
	"github.com/DeafMist/signal-radar/internal/logger"
	"github.com/DeafMist/signal-radar/internal/signals"
	"github.com/DeafMist/signal-radar/web"
)

func main() {
	log := logger.New("api")
	cfg, err := config.LoadAPI()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	defaults, err := dataset.LoadFillPolicy(cfg.DefaultsFile)
	if err != nil {
		log.Error("load defaults", slog.Any("err", err))
		os.Exit(1)
	}

	loader := dataset.NewLoader(dataset.Options{
		Path:      cfg.DataFile,
		Delimiter: cfg.Delimiter,
		Defaults:  defaults,
		Logger:    log,
	})

	srv := &server{log: log, cfg: cfg, signals: signals.NewService(loader)}

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	go func() {
		log.Info("api server starting",
			slog.String("addr", cfg.BindAddr),
			slog.String("data_file", cfg.DataFile),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.Any("err", err))
	}
}

type server struct {
	log     *slog.Logger
	cfg     *config.API
	signals *signals.Service
}

type errorResponse struct {
	Error string `json:"error"`
}

type highImpactResponse struct {
	HighImpactCount int `json:"high_impact_count"`
}

// emptyObject encodes as {} for queries over an empty dataset.
var emptyObject = struct{}{}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/", web.Index)
	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/data", s.handleData)
		r.Get("/stats", s.handleStats)
		r.Get("/clusters", s.handleClusters)
		r.Get("/high-impact", s.handleHighImpact)
	})
	return r
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	f, err := os.Open(s.cfg.DataFile)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}
	_ = f.Close()

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.signals.Records(r.Context()))
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.signals.Stats(r.Context())
	if stats == nil {
		writeJSON(w, http.StatusOK, emptyObject)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *server) handleClusters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.signals.Clusters(r.Context()))
}

func (s *server) handleHighImpact(w http.ResponseWriter, r *http.Request) {
	count, ok := s.signals.HighImpactCount(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, emptyObject)
		return
	}
	writeJSON(w, http.StatusOK, highImpactResponse{HighImpactCount: count})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// headers are already sent
	}
}
