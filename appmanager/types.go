package appmanager

import "context"

// AppType controls button-routing policy for a running application.
type AppType int

const (
	AppTypeSystem AppType = iota
	AppTypeWatchFace
	AppTypeUser
)

func (t AppType) String() string {
	switch t {
	case AppTypeSystem:
		return "system"
	case AppTypeWatchFace:
		return "watch_face"
	case AppTypeUser:
		return "user"
	default:
		return "unknown"
	}
}

// InternalAppSlotID is the resource-namespace slot id used by internal
// (compiled-in) applications, which hold no real flash slot. It shares
// the value 0 with the first real flash slot, so resource lookups for an
// internal app can collide with an external app installed in slot 0 — a
// known hazard, kept for compatibility with existing resource layouts.
const InternalAppSlotID = 0

// EntryFunc is an application's entry point. It is invoked on its own
// goroutine, the Go analogue of a spawned preemptive task. Internal apps
// register a Go function directly; non-internal apps get a synthesized
// EntryFunc that calls into a WASM instance (see internal/apphost).
type EntryFunc func(ctx context.Context, appCtx *AppContext)

// AppContext is the context handed to an application's entry point: an
// explicit value threaded through the call, so handlers and resource
// proxies never have to read a process-global running-app pointer.
type AppContext struct {
	App     *Application
	Symbols *SymbolTable
	Router  *Router
}

// Application is one record in the manifest: a known, installable
// application. Records are created during discovery/initialization and
// live for the lifetime of the process.
type Application struct {
	Name       string
	Type       AppType
	IsInternal bool
	EntryPoint EntryFunc // only set for internal apps
	SlotID     int       // flash slot index for non-internal apps

	// Header is an optional cached copy of the on-flash header; absent
	// until the application has been loaded at least once.
	Header *Header

	// CorrelationID is the UUID of the most recent load, for log
	// correlation only -- never part of the application's identity.
	CorrelationID string
}
