package appmanager

import (
	"context"

	"github.com/inos-labs/appmanager/internal/flashmedia"
	"github.com/inos-labs/appmanager/internal/obslog"
)

// Manager wires every component together: manifest, scanner, loader,
// supervisor, and the public control surface, expressed as a constructed
// value instead of a pile of file-scope statics.
type Manager struct {
	Manifest   *Manifest
	Symbols    *SymbolTable
	Loader     *Loader
	Supervisor *Supervisor
	Control    *Control

	scanner *Scanner
	log     *obslog.Logger
}

// BuiltinApp is a compiled-in application registered before the flash
// scan runs (System, Simple, and NiVZ in the stock build).
type BuiltinApp struct {
	Name  string
	Type  AppType
	Entry EntryFunc
}

// NewManager constructs a Manager. device is the flash-backed
// application store the scanner reads from; backend executes loaded,
// non-internal application images (internal/apphost.WasmHost in
// production, a stub in tests) -- injected rather than constructed here
// so that this package never needs to import the package that, in
// turn, needs to import this one for EntryFunc/SymbolTable/AppContext.
// ui is the window-stack collaborator the router drives; log may be
// nil.
func NewManager(device flashmedia.Device, backend ExecBackend, ui UIHooks, log *obslog.Logger) *Manager {
	if log == nil {
		log = obslog.Default("appmanager")
	}

	manifest := NewManifest(MaxSlots)
	symbols := NewSymbolTable()
	loader := NewLoader(device, backend, symbols, log.With("loader"))
	supervisor := NewSupervisor(manifest, loader, symbols, ui, log.With("supervisor"))
	control := NewControl(manifest, supervisor)
	scanner := NewScanner(device, log.With("scanner"))

	return &Manager{
		Manifest:   manifest,
		Symbols:    symbols,
		Loader:     loader,
		Supervisor: supervisor,
		Control:    control,
		scanner:    scanner,
		log:        log,
	}
}

// Init registers the builtin applications, scans flash for installed
// ones, starts the supervisor loop in a goroutine, and requests the
// System app.
//
// Init panics (via the supervisor, on the first start request) if both
// builtins and the flash scan leave the manifest empty -- that is a
// programming error, not a runtime condition to recover from.
func (m *Manager) Init(ctx context.Context, builtins []BuiltinApp) error {
	for i, b := range builtins {
		app := &Application{
			Name:       b.Name,
			Type:       b.Type,
			IsInternal: true,
			EntryPoint: b.Entry,
			SlotID:     InternalAppSlotID,
		}
		if err := m.Manifest.Insert(app); err != nil {
			return err
		}
		m.log.Debug("builtin app registered", obslog.String("name", b.Name), obslog.Int("index", i))
	}

	m.scanner.Discover(m.Manifest)

	go m.Supervisor.Run(ctx)

	return m.Control.Start("System")
}
