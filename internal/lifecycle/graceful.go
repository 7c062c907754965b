// Package lifecycle provides a small registry of shutdown hooks, run
// concurrently on shutdown with a bounded timeout.
package lifecycle

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/inos-labs/appmanager/internal/obslog"
)

// ErrShutdownTimeout is returned when not every registered shutdown
// function completes within the configured timeout.
var ErrShutdownTimeout = errors.New("lifecycle: shutdown timed out")

// GracefulShutdown runs registered shutdown functions concurrently,
// bounded by a timeout. They are started most-recently-registered
// first; the order in which they finish is not defined.
type GracefulShutdown struct {
	mu      sync.Mutex
	fns     []func() error
	timeout time.Duration
	log     *obslog.Logger
}

// NewGracefulShutdown creates a GracefulShutdown with the given
// timeout. log may be nil.
func NewGracefulShutdown(timeout time.Duration, log *obslog.Logger) *GracefulShutdown {
	if log == nil {
		log = obslog.Default("shutdown")
	}
	return &GracefulShutdown{timeout: timeout, log: log}
}

// Register adds fn to the set of functions run on Shutdown.
func (g *GracefulShutdown) Register(fn func() error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fns = append(g.fns, fn)
}

// Shutdown runs every registered function, most-recently-registered
// first, concurrently, and waits up to the configured timeout for all
// of them to finish.
func (g *GracefulShutdown) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	fns := make([]func() error, len(g.fns))
	copy(fns, g.fns)
	g.mu.Unlock()

	g.log.Info("starting graceful shutdown", obslog.Int("components", len(fns)))

	shutdownCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var wg sync.WaitGroup
	for i := len(fns) - 1; i >= 0; i-- {
		wg.Add(1)
		fn := fns[i]
		idx := i
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				g.log.Error("shutdown function failed", obslog.Int("index", idx), obslog.Err(err))
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		g.log.Info("graceful shutdown complete")
		return nil
	case <-shutdownCtx.Done():
		g.log.Warn("graceful shutdown timed out")
		return ErrShutdownTimeout
	}
}
