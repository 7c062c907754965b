package appmanager

import (
	"fmt"

	"github.com/inos-labs/appmanager/internal/flashmedia"
	"github.com/inos-labs/appmanager/internal/ident"
	"github.com/inos-labs/appmanager/internal/obslog"
)

// ExecBackend turns a prepared application image into a runnable entry
// point. Non-internal applications are executed as WebAssembly modules
// (internal/apphost.WasmHost); tests can substitute a stub.
type ExecBackend interface {
	// Instantiate prepares moduleBytes (the application's code, captured
	// immediately after it is copied into the arena but before
	// relocation/bss rewrite it further) for execution, with entryOffset
	// naming the byte offset of its entry function and symbols the host
	// functions it may call. It returns an EntryFunc ready to hand to the
	// supervisor.
	Instantiate(moduleBytes []byte, entryOffset uint32, symbols *SymbolTable) (EntryFunc, error)
}

// LoadResult is everything the supervisor needs to spawn a loaded
// application's task.
type LoadResult struct {
	Arena     *Arena
	Partition Partition
	Entry     EntryFunc
}

// Loader is the dynamic loader: it parses the on-flash
// header, copies the image into the arena, performs GOT relocation,
// zeroes bss, installs the host symbol-table pointer, and computes the
// arena partition.
type Loader struct {
	device  flashmedia.Device
	backend ExecBackend
	symbols *SymbolTable
	arena   *Arena
	log     *obslog.Logger
}

// NewLoader creates a Loader. backend must be non-nil; it is the only
// thing that actually knows how to execute a prepared image. The
// Loader owns the one Arena reused across every application's
// lifetime.
func NewLoader(device flashmedia.Device, backend ExecBackend, symbols *SymbolTable, log *obslog.Logger) *Loader {
	if log == nil {
		log = obslog.Default("loader")
	}
	return &Loader{device: device, backend: backend, symbols: symbols, arena: NewArena(), log: log}
}

// Load prepares app for execution and returns everything the supervisor
// needs to spawn its task. Preconditions: the arena is unused (the
// prior application's task must have stopped; Load resets the arena
// itself before touching it), and, for non-internal apps, the slot
// holds a valid image.
//
// It fails with ErrBadMagic, ErrIOError, ErrSizeOverflow (virtual_size +
// stack*4 > ArenaSize), or ErrNoHeap (heap_size <= 0). Internal apps skip
// header parsing, copy, relocation, bss-zero, and symbol-table install
// entirely: their entry point is a compiled-in Go function and the arena
// is used only as heap+stack.
func (l *Loader) Load(app *Application) (*LoadResult, error) {
	arena := l.arena
	arena.Reset()

	correlationID := app.CorrelationID
	if correlationID == "" {
		correlationID = ident.NewCorrelationID()
		app.CorrelationID = correlationID
	}

	if app.IsInternal {
		return l.loadInternal(app, arena, correlationID)
	}
	return l.loadFromFlash(app, arena, correlationID)
}

func (l *Loader) loadInternal(app *Application, arena *Arena, correlationID string) (*LoadResult, error) {
	partition, err := PartitionArena(0, MaxAppStackWords, arena.Size())
	if err != nil {
		return nil, err
	}

	l.log.Info("internal app staged", obslog.String("name", app.Name), obslog.String("cid", correlationID))

	return &LoadResult{
		Arena:     arena,
		Partition: partition,
		Entry:     app.EntryPoint,
	}, nil
}

func (l *Loader) loadFromFlash(app *Application, arena *Arena, correlationID string) (*LoadResult, error) {
	rawHeader, err := l.device.ReadHeader(app.SlotID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIOError, err)
	}

	header, err := ParseHeader(rawHeader)
	if err != nil {
		return nil, err
	}
	app.Header = header

	total := uint32(header.AppSize) + header.RelocTableSize()
	image, err := l.device.ReadImage(app.SlotID, int(total))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIOError, err)
	}

	// Step 2: copy image (code, followed by the packed reloc table) into
	// the arena starting at offset 0.
	copy(arena.Bytes()[:total], image)

	// Snapshot the code region before relocation/bss rewrite it further.
	// A real CPU executes the relocated-in-place bytes directly; Go has
	// no equivalent, so the execution backend gets an independent,
	// pre-relocation copy of the same code (see ExecBackend doc).
	moduleBytes := make([]byte, header.AppSize)
	copy(moduleBytes, arena.Bytes()[:header.AppSize])

	// Step 3: relocate the GOT.
	relocBase := header.RelocTableOffset()
	for i := uint16(0); i < header.RelocEntriesCount; i++ {
		entryOffset := relocBase + uint32(i)*4
		r := arena.Word(entryOffset)
		existing := arena.Word(r)
		arena.SetWord(r, arena.Base+existing)
	}

	// Step 4: zero bss.
	arena.ZeroRange(uint32(header.AppSize), header.VirtualSize)

	// Step 5: install the symbol-table pointer.
	arena.SetWord(header.SymTableAddr, SymbolTableBase)

	l.log.Debug("app signature",
		obslog.String("name", header.Name),
		obslog.String("company", header.Company),
		obslog.Uint32("app_size", uint32(header.AppSize)),
		obslog.Uint32("offset", header.Offset),
		obslog.Uint32("virtual_size", header.VirtualSize),
		obslog.Uint32("reloc_count", uint32(header.RelocEntriesCount)),
		obslog.String("cid", correlationID),
	)

	// Step 6: compute the arena partition.
	partition, err := PartitionArena(header.VirtualSize, MaxAppStackWords, arena.Size())
	if err != nil {
		return nil, err
	}

	// Step 7: prepare the entry point.
	entry, err := l.backend.Instantiate(moduleBytes, header.Offset, l.symbols)
	if err != nil {
		return nil, fmt.Errorf("appmanager: instantiate %s: %w", app.Name, err)
	}

	l.log.Info("app loaded", obslog.String("name", app.Name), obslog.Int("slot", app.SlotID), obslog.String("cid", correlationID))

	return &LoadResult{
		Arena:     arena,
		Partition: partition,
		Entry:     entry,
	}, nil
}
