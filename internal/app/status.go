package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vk/forecastgrid/internal/ctxlog"
	"github.com/vk/forecastgrid/internal/notify"
)

// statusBoard keeps the latest event of every job seen during the process
// lifetime. It is a Notifier, so the runner feeds it directly.
type statusBoard struct {
	mu     sync.Mutex
	order  []string
	latest map[string]notify.Event
}

func newStatusBoard() *statusBoard {
	return &statusBoard{latest: map[string]notify.Event{}}
}

// Notify implements notify.Notifier.
func (b *statusBoard) Notify(_ context.Context, e notify.Event) {
	key := e.RunID + "/" + e.Pipeline + "/" + e.Job
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.latest[key]; !ok {
		b.order = append(b.order, key)
	}
	b.latest[key] = e
}

// Snapshot returns the latest event of every job in first-seen order.
func (b *statusBoard) Snapshot() []notify.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]notify.Event, 0, len(b.order))
	for _, key := range b.order {
		out = append(out, b.latest[key])
	}
	return out
}

// routes builds the health check router.
func (b *statusBoard) routes(ctx context.Context) http.Handler {
	logger := ctxlog.FromContext(ctx)
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	})
	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]any{"jobs": b.Snapshot()}); err != nil {
			logger.Error("Failed to encode status.", "error", err)
		}
	})
	return r
}

// startHealthcheckServer serves /health and /status on the given port until
// the returned stop function is called.
func (a *App) startHealthcheckServer(ctx context.Context, port int, board *statusBoard) func() {
	logger := ctxlog.FromContext(ctx)
	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{
		Addr:              addr,
		Handler:           board.routes(ctx),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("🩺 Health check server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Health check server failed unexpectedly", "error", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		logger.Info("🩺 Shutting down health check server...")
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Health check server shutdown failed", "error", err)
		}
	}
}
