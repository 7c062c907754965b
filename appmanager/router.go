package appmanager

import (
	"context"
	"time"

	"github.com/inos-labs/appmanager/internal/obslog"
)

// Starter lets the router trigger a system-app takeover (the
// select-button escape hatch every non-system app gets for free)
// without importing the control surface.
type Starter interface {
	RequestStart(name string) error
}

// Router is an application's event queue and event loop.
// Each application gets its own Router for the duration of its run;
// starting a new application simply builds a new one, which is why
// there is no separate "reset the event queue" step anywhere in this
// package -- the old queue is garbage once its owning Router is
// dropped.
type Router struct {
	events  chan Message
	ui      UIHooks
	starter Starter
	log     *obslog.Logger
}

// NewRouter creates a Router with a fresh, empty event queue.
func NewRouter(ui UIHooks, starter Starter, log *obslog.Logger) *Router {
	if log == nil {
		log = obslog.Default("router")
	}
	return &Router{
		events:  make(chan Message, EventQueueCapacity),
		ui:      ui,
		starter: starter,
		log:     log,
	}
}

// PostButton enqueues a button click. It blocks up to PosterTimeout
// before reporting ErrQueueFull.
func (r *Router) PostButton(msg ButtonMessage) error {
	select {
	case r.events <- Message{Kind: MsgButton, Button: &msg}:
		return nil
	case <-time.After(PosterTimeout):
		return ErrQueueFull
	}
}

// PostTick enqueues a time-service tick without blocking, reporting
// whether the send succeeded. It never waits: a full event queue just
// drops the tick.
func (r *Router) PostTick(msg TickMessage) bool {
	select {
	case r.events <- Message{Kind: MsgTick, Tick: &msg}:
		return true
	default:
		return false
	}
}

// PostTickFromISR is PostTick's ISR-context variant. Go has no
// interrupt context and no real priority scheduler to wake, so the
// "higher priority task woken" flag an RTOS reports from ISR context is
// simulated here as "the send succeeded and a receiver may now be
// runnable" -- callers should not depend on it for anything beyond
// logging/metrics.
func (r *Router) PostTickFromISR(msg TickMessage) (sent bool, higherPriorityWoken bool) {
	sent = r.PostTick(msg)
	return sent, sent
}

// Quit enqueues a Quit message, asking the running application's event
// loop to unwind cooperatively. It blocks up to PosterTimeout.
func (r *Router) Quit() error {
	select {
	case r.events <- Message{Kind: MsgQuit}:
		return nil
	case <-time.After(PosterTimeout):
		return ErrQueueFull
	}
}

// RunEventLoop is the application task's main loop. It installs the
// default click config, gives non-system applications a select-button
// escape hatch back to the system app, and then pumps the event queue
// until a Quit message arrives or ctx is cancelled (forced
// termination from the supervisor).
func (r *Router) RunEventLoop(ctx context.Context, appCtx *AppContext) {
	r.ui.InstallDefaultClickConfig()

	if appCtx.App.Type != AppTypeSystem {
		r.ui.SubscribeSelectClick(func() {
			if err := r.starter.RequestStart("System"); err != nil {
				r.log.Warn("select click: request start failed", obslog.Err(err))
			}
		})
	}

	switch appCtx.App.Type {
	case AppTypeSystem:
		// Long-pressing back from the system menu jumps to the default
		// watch face.
		r.ui.SubscribeBackLongClick(func() {
			if err := r.starter.RequestStart("Simple"); err != nil {
				r.log.Warn("back long click: request start failed", obslog.Err(err))
			}
		})
	case AppTypeWatchFace:
		// TODO: long-press back on a face should toggle quiet time once
		// a quiet-time service exists.
		r.ui.SubscribeBackLongClick(func() {
			r.log.Debug("back long click ignored on watch face")
		})
	}

	r.ui.MarkDirty()

	for {
		select {
		case <-ctx.Done():
			return

		case msg := <-r.events:
			switch msg.Kind {
			case MsgButton:
				msg.Button.Callback(msg.Button.Recognizer, msg.Button.Context)
			case MsgTick:
				msg.Tick.Callback(msg.Tick.Time, msg.Tick.Units)
			case MsgQuit:
				r.ui.UnsubscribeAllButtons()
				r.ui.UnsubscribeTickService()
				return
			}

		case <-time.After(EventLoopPollInterval):
			// No periodic housekeeping is needed on timeout; the
			// loop simply waits again.
		}
	}
}
