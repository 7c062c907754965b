package appmanager

import (
	"context"
	"sync"
	"time"

	"github.com/inos-labs/appmanager/internal/ident"
	"github.com/inos-labs/appmanager/internal/obslog"
)

// startRequest is what crosses the thread queue: a name to resolve and
// the correlation id minted for this particular start attempt.
type startRequest struct {
	name string
	cid  string
}

// runningApp is the supervisor's record of the application currently
// occupying the arena.
type runningApp struct {
	app    *Application
	router *Router
	cancel context.CancelFunc
	done   chan struct{}
}

// Supervisor is the application task state machine: Idle
// or Running(app), advanced by Start requests arriving on a
// capacity-one thread queue. It owns the single Loader and the single
// Arena reused across every application's lifetime.
type Supervisor struct {
	manifest    *Manifest
	loader      *Loader
	symbols     *SymbolTable
	ui          UIHooks
	threadQueue chan startRequest
	log         *obslog.Logger

	mu      sync.Mutex
	running *runningApp
}

// NewSupervisor creates a Supervisor. The thread queue has capacity
// one: at most a single start request can be outstanding.
func NewSupervisor(manifest *Manifest, loader *Loader, symbols *SymbolTable, ui UIHooks, log *obslog.Logger) *Supervisor {
	if log == nil {
		log = obslog.Default("supervisor")
	}
	return &Supervisor{
		manifest:    manifest,
		loader:      loader,
		symbols:     symbols,
		ui:          ui,
		threadQueue: make(chan startRequest, 1),
		log:         log,
	}
}

// RequestStart enqueues a start-by-name request. It blocks up to
// StartBlockTimeout before giving up with ErrQueueFull, which happens
// only when the queue stays full because the supervisor is wedged
// mid-transition.
func (s *Supervisor) RequestStart(name string) error {
	req := startRequest{name: name, cid: ident.NewCorrelationID()}
	select {
	case s.threadQueue <- req:
		return nil
	case <-time.After(StartBlockTimeout):
		return ErrQueueFull
	}
}

// Running returns the currently running application, or nil if the
// supervisor is Idle.
func (s *Supervisor) Running() *Application {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running == nil {
		return nil
	}
	return s.running.app
}

// RunningRouter returns the current application's Router, or nil if
// the supervisor is Idle. The control surface uses this to post the
// Quit a Start(name) call implies.
func (s *Supervisor) RunningRouter() *Router {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running == nil {
		return nil
	}
	return s.running.router
}

// Run is the supervisor's goroutine body: block on the thread queue
// and handle one start request at a time until ctx is cancelled.
func (s *Supervisor) Run(ctx context.Context) {
	s.log.Info("supervisor started")
	for {
		select {
		case <-ctx.Done():
			s.log.Info("supervisor stopping")
			return
		case req := <-s.threadQueue:
			s.handleStart(ctx, req)
		}
	}
}

// handleStart resolves req.name, forcibly terminates whatever
// application is currently running, loads the new one, and spawns its
// task. A lookup miss or load failure is logged, not retried; the
// supervisor just goes back to waiting on the queue.
func (s *Supervisor) handleStart(parent context.Context, req startRequest) {
	if s.manifest.Len() == 0 {
		s.log.Error("start requested against an empty manifest", obslog.String("name", req.name))
		panic(ErrEmptyManifest)
	}

	app, err := s.manifest.LookupExact(req.name)
	if err != nil {
		s.log.Error("start: app not found", obslog.String("name", req.name), obslog.Err(err))
		return
	}

	s.mu.Lock()
	prev := s.running
	s.mu.Unlock()

	if prev != nil {
		// Unconditional: the outgoing app may already have unwound
		// cooperatively after its own Quit message, or it may not
		// have. Cancelling an already-finished context is a no-op,
		// so this is safe either way.
		prev.cancel()

		// The arena is reused across application lifetimes, so the
		// outgoing goroutine must be out of it before the loader
		// resets it. An app that ignores cancellation forfeits the
		// arena after TaskExitGrace; its non-arena resources leak
		// until restart, same as a force-deleted RTOS task.
		select {
		case <-prev.done:
		case <-time.After(TaskExitGrace):
			s.log.Warn("outgoing app did not exit in time, reclaiming arena",
				obslog.String("name", prev.app.Name))
		}

		s.mu.Lock()
		if s.running == prev {
			s.running = nil
		}
		s.mu.Unlock()
	}

	app.CorrelationID = req.cid
	result, err := s.loader.Load(app)
	if err != nil {
		// Load abandoned; the supervisor is back to Idle.
		s.log.Error("start: load failed", obslog.String("name", app.Name), obslog.Err(err))
		return
	}

	router := NewRouter(s.ui, s, s.log)
	runCtx, cancel := context.WithCancel(parent)
	appCtx := &AppContext{App: app, Symbols: s.symbols, Router: router}
	done := make(chan struct{})

	s.mu.Lock()
	current := &runningApp{app: app, router: router, cancel: cancel, done: done}
	s.running = current
	s.mu.Unlock()

	go func() {
		defer func() {
			close(done)
			// App task exited: back to Idle, unless a newer start
			// already replaced this entry.
			s.mu.Lock()
			if s.running == current {
				s.running = nil
			}
			s.mu.Unlock()
		}()
		result.Entry(runCtx, appCtx)
	}()

	s.log.Info("app started",
		obslog.String("name", app.Name),
		obslog.Int("slot", app.SlotID),
		obslog.String("cid", req.cid),
	)
}
