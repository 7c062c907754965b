// Package apphost executes a loaded application's entry point.
//
// A real CPU jumps directly into a position-independent code image
// relocated in place; Go has no architecture-portable way to do that,
// so this package renders "dynamically load and execute a PIC image" as
// "instantiate and call a WASM module" -- load code into an isolated
// linear memory, resolve host-provided imports, call an exported entry
// function.
package apphost

import (
	"context"
	"fmt"

	"github.com/wasmerio/wasmer-go/wasmer"

	"github.com/inos-labs/appmanager/appmanager"
	"github.com/inos-labs/appmanager/internal/obslog"
)

// WasmHost is the appmanager.ExecBackend for non-internal (flash-loaded)
// applications.
type WasmHost struct {
	log *obslog.Logger
}

// NewWasmHost creates a WasmHost.
func NewWasmHost(log *obslog.Logger) *WasmHost {
	if log == nil {
		log = obslog.Default("apphost")
	}
	return &WasmHost{log: log}
}

// Instantiate compiles moduleBytes as a WASM module, wires symbols as a
// single imported host-call function, and returns an EntryFunc that
// invokes the module's entry export.
//
// The host symbol table is exposed to the guest as one imported function,
// "env.host_call(id i32, arg i64) -> i64", rather than as a pointer
// poked into the image: WASM's own import table *is* a "look up a
// function by integer id and call it" bridge, so no manual dispatch
// table is needed on the Go side.
//
// The entry export is resolved by convention from entryOffset (WASM has
// no notion of a byte-offset entry point): "entry_<offset>" if present,
// falling back to "main".
func (h *WasmHost) Instantiate(moduleBytes []byte, entryOffset uint32, symbols *appmanager.SymbolTable) (appmanager.EntryFunc, error) {
	engine := wasmer.NewEngine()
	store := wasmer.NewStore(engine)

	module, err := wasmer.NewModule(store, moduleBytes)
	if err != nil {
		return nil, fmt.Errorf("apphost: compile module: %w", err)
	}

	importObject := wasmer.NewImportObject()
	if symbols != nil {
		hostCall := wasmer.NewFunction(
			store,
			wasmer.NewFunctionType(wasmer.NewValueTypes(wasmer.I32, wasmer.I64), wasmer.NewValueTypes(wasmer.I64)),
			func(args []wasmer.Value) ([]wasmer.Value, error) {
				id := int(args[0].I32())
				ret, err := symbols.Call(id, []uint64{uint64(args[1].I64())})
				if err != nil {
					return nil, err
				}
				return []wasmer.Value{wasmer.NewI64(int64(ret))}, nil
			},
		)
		importObject.Register("env", map[string]wasmer.IntoExtern{
			"host_call": hostCall,
		})
	}

	instance, err := wasmer.NewInstance(module, importObject)
	if err != nil {
		return nil, fmt.Errorf("apphost: instantiate module: %w", err)
	}

	entryName := fmt.Sprintf("entry_%d", entryOffset)
	entryFn, err := instance.Exports.GetFunction(entryName)
	if err != nil {
		entryFn, err = instance.Exports.GetFunction("main")
		if err != nil {
			return nil, fmt.Errorf("apphost: no entry export (%s or main): %w", entryName, err)
		}
	}

	log := h.log
	return func(ctx context.Context, appCtx *appmanager.AppContext) {
		if _, err := entryFn(); err != nil {
			log.Error("app entry returned error", obslog.String("name", appCtx.App.Name), obslog.Err(err))
			return
		}
		// The app is now expected to call into appCtx.Router.RunEventLoop
		// itself, the same handshake internal apps follow.
	}, nil
}
