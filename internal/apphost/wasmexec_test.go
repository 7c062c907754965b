package apphost

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inos-labs/appmanager/appmanager"
)

// minimalWasmModule is the smallest valid WASM binary exporting a
// single, no-argument, no-result function named "main": magic, version,
// a one-entry type section (() -> ()), a one-entry function section
// referencing that type, an export section naming it "main", and a
// code section with an empty body.
var minimalWasmModule = []byte{
	0x00, 0x61, 0x73, 0x6d, // magic "\0asm"
	0x01, 0x00, 0x00, 0x00, // version 1
	0x01, 0x04, 0x01, 0x60, 0x00, 0x00, // type section: () -> ()
	0x03, 0x02, 0x01, 0x00, // function section: func 0 uses type 0
	0x07, 0x08, 0x01, 0x04, 'm', 'a', 'i', 'n', 0x00, 0x00, // export "main" func 0
	0x0a, 0x04, 0x01, 0x02, 0x00, 0x0b, // code section: empty body
}

func TestWasmHostInstantiateAndRunMain(t *testing.T) {
	host := NewWasmHost(nil)

	entry, err := host.Instantiate(minimalWasmModule, 0, appmanager.NewSymbolTable())
	require.NoError(t, err)
	require.NotNil(t, entry)

	app := &appmanager.Application{Name: "demo"}
	assert.NotPanics(t, func() {
		entry(context.Background(), &appmanager.AppContext{App: app})
	})
}

func TestWasmHostInstantiateRejectsGarbage(t *testing.T) {
	host := NewWasmHost(nil)
	_, err := host.Instantiate([]byte("not wasm"), 0, appmanager.NewSymbolTable())
	assert.Error(t, err)
}
