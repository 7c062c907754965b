package appmanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inos-labs/appmanager/internal/flashmedia"
)

func testBuiltins(block EntryFunc) []BuiltinApp {
	return []BuiltinApp{
		{Name: "System", Type: AppTypeSystem, Entry: block},
		{Name: "Simple", Type: AppTypeWatchFace, Entry: block},
		{Name: "NiVZ", Type: AppTypeWatchFace, Entry: block},
	}
}

// Cold boot against empty flash: every slot probe fails, so the
// manifest holds exactly the builtins, in registration order.
func TestManagerInitColdBootBuiltinsOnly(t *testing.T) {
	device := flashmedia.NewMemoryDevice(MaxSlots)
	ui := &recordingUI{}
	mgr := NewManager(device, &stubBackend{}, ui, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	block := func(ctx context.Context, appCtx *AppContext) { <-ctx.Done() }
	require.NoError(t, mgr.Init(ctx, testBuiltins(block)))

	records := mgr.Manifest.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "System", records[0].Name)
	assert.Equal(t, "Simple", records[1].Name)
	assert.Equal(t, "NiVZ", records[2].Name)
	assert.Equal(t, "System", mgr.Control.Head().Name)
}

// Init's implied Start("System") must leave the System builtin running,
// reporting the internal-app slot id.
func TestManagerInitStartsSystemApp(t *testing.T) {
	device := flashmedia.NewMemoryDevice(MaxSlots)
	ui := &recordingUI{}
	mgr := NewManager(device, &stubBackend{}, ui, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	block := func(ctx context.Context, appCtx *AppContext) { <-ctx.Done() }
	require.NoError(t, mgr.Init(ctx, testBuiltins(block)))

	require.Eventually(t, func() bool {
		app := mgr.Supervisor.Running()
		return app != nil && app.Name == "System"
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, InternalAppSlotID, mgr.Control.CurrentSlotID())
}

// Flash-installed apps are discovered during Init and launchable by
// name afterward, end to end through the control surface.
func TestManagerStartFlashApp(t *testing.T) {
	device := flashmedia.NewMemoryDevice(MaxSlots)

	const appSize = 4096
	header := &Header{
		AppSize:           appSize,
		Offset:            8,
		Name:              "TestApp",
		Company:           "Pebble",
		SymTableAddr:      100,
		RelocEntriesCount: 2,
		VirtualSize:       5120,
	}
	image := EncodeHeader(header)
	image = append(image, make([]byte, appSize)...)
	// Two reloc entries naming GOT slots at code offsets 16 and 20.
	reloc := make([]byte, 8)
	reloc[0] = 16
	reloc[4] = 20
	image = append(image, reloc...)
	require.NoError(t, device.Program(7, image))

	backend := &blockingBackend{instantiated: make(chan struct{})}
	mgr := NewManager(device, backend, &recordingUI{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	block := func(ctx context.Context, appCtx *AppContext) { <-ctx.Done() }
	require.NoError(t, mgr.Init(ctx, testBuiltins(block)))
	require.NoError(t, mgr.Control.Start("TestApp"))

	select {
	case <-backend.instantiated:
	case <-time.After(time.Second):
		t.Fatal("TestApp was never instantiated")
	}

	require.Eventually(t, func() bool {
		app := mgr.Supervisor.Running()
		return app != nil && app.Name == "TestApp"
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 7, mgr.Control.CurrentSlotID())
	assert.Equal(t, uint32(8), backend.entryOffset)
	assert.Equal(t, appSize, backend.moduleSize)
}

// blockingBackend records what Instantiate was handed and returns an
// entry point that stays alive until cancelled, so Running() remains
// observable.
type blockingBackend struct {
	instantiated chan struct{}
	entryOffset  uint32
	moduleSize   int
}

func (b *blockingBackend) Instantiate(moduleBytes []byte, entryOffset uint32, symbols *SymbolTable) (EntryFunc, error) {
	b.entryOffset = entryOffset
	b.moduleSize = len(moduleBytes)
	close(b.instantiated)
	return func(ctx context.Context, appCtx *AppContext) { <-ctx.Done() }, nil
}
