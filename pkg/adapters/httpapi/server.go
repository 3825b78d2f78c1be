package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/stencil/pkg/ports"
)

// Server serves the progress surface for one running batch.
type Server struct {
	journal ports.RunJournal
	metrics *Metrics
	logger  *slog.Logger
}

// NewServer wires the progress endpoints over the given journal and metrics.
// journal may be nil; /progress then reports an empty summary.
func NewServer(journal ports.RunJournal, metrics *Metrics, logger *slog.Logger) *Server {
	return &Server{journal: journal, metrics: metrics, logger: logger}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})

	r.Get("/progress", func(w http.ResponseWriter, req *http.Request) {
		summary := map[string]bool{}
		if s.journal != nil {
			var err error
			summary, err = s.journal.Summary(req.Context())
			if err != nil {
				http.Error(w, "journal unavailable", http.StatusInternalServerError)
				s.logger.Warn("progress summary failed", "err", err)
				return
			}
		}
		succeeded := 0
		for _, ok := range summary {
			if ok {
				succeeded++
			}
		}
		writeJSON(w, map[string]any{
			"total":     len(summary),
			"succeeded": succeeded,
			"failed":    len(summary) - succeeded,
			"results":   summary,
		})
	})

	if s.metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	}

	return r
}

// Serve runs the server until ctx ends, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("progress server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
