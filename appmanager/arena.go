package appmanager

import (
	"encoding/binary"
	"sync"
)

// Compile-time sizing constants for the application arena and flash layout.
const (
	// ArenaSize is the total size, in bytes, of the single shared
	// application arena reused across application lifetimes.
	ArenaSize = 64 * 1024

	// MaxAppStackWords is the fixed application stack size, in 32-bit
	// words, carved out of the top of the arena.
	MaxAppStackWords = 512

	// MaxSlots is the number of flash slots the scanner probes.
	MaxSlots = 32

	wordSize = 4
)

// ArenaBase is the conceptual base address of the arena. Real firmware
// arenas sit at a fixed SRAM address; a Go process has no equivalent
// fixed address for a []byte, so this is a documented stand-in used only
// so that relocated GOT entries and the symbol-table pointer hold a
// plausible, testable "address" rather than a bare zero-based offset.
const ArenaBase = 0x20000000

// Arena is the single statically-sized RAM buffer reused across
// application lifetimes. It exposes disjoint byte and word-aligned views
// over the same backing storage.
type Arena struct {
	mu   sync.Mutex
	buf  []byte
	Base uint32
}

// NewArena allocates a zeroed arena of ArenaSize bytes at ArenaBase.
func NewArena() *Arena {
	return &Arena{buf: make([]byte, ArenaSize), Base: ArenaBase}
}

// Bytes returns the byte view of the arena. Callers must not retain
// slices across a Reset.
func (a *Arena) Bytes() []byte {
	return a.buf
}

// Size returns the arena's total capacity in bytes.
func (a *Arena) Size() uint32 {
	return uint32(len(a.buf))
}

// Word reads the 32-bit little-endian word at the given byte offset.
// offset must be a multiple of 4.
func (a *Arena) Word(offset uint32) uint32 {
	return binary.LittleEndian.Uint32(a.buf[offset : offset+wordSize])
}

// SetWord writes a 32-bit little-endian word at the given byte offset.
// offset must be a multiple of 4.
func (a *Arena) SetWord(offset uint32, v uint32) {
	binary.LittleEndian.PutUint32(a.buf[offset:offset+wordSize], v)
}

// ZeroRange zeroes the byte range [from, to) of the arena.
func (a *Arena) ZeroRange(from, to uint32) {
	clear(a.buf[from:to])
}

// Reset zeroes the entire arena, releasing it for the next load. The
// loader calls this at the top of every Load, after the supervisor has
// stopped (or given up waiting on) the outgoing application's task.
func (a *Arena) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(a.buf)
}

// Partition is the result of carving an arena into regions for a given
// application: [ code+data | bss | heap (grows up) ... stack (grows
// down) ], low to high addresses.
type Partition struct {
	BSSEnd    uint32 // header.VirtualSize: code+bss combined
	HeapBase  uint32
	HeapSize  uint32
	StackBase uint32
	StackSize uint32 // bytes, MaxAppStackWords*4
}

// PartitionArena computes the arena partition for an application whose
// combined code+bss occupies virtualSize bytes, given a fixed stack size
// in words and the total arena capacity in bytes. It is a pure function
// of its inputs.
//
// It fails with ErrSizeOverflow if virtualSize+stackWords*4 > arenaSize,
// and with ErrNoHeap if the remaining heap region would be empty.
func PartitionArena(virtualSize uint32, stackWords uint32, arenaSize uint32) (Partition, error) {
	stackBytes := stackWords * wordSize

	if uint64(virtualSize)+uint64(stackBytes) > uint64(arenaSize) {
		return Partition{}, ErrSizeOverflow
	}

	heapSize := arenaSize - virtualSize - stackBytes
	if heapSize == 0 {
		return Partition{}, ErrNoHeap
	}

	return Partition{
		BSSEnd:    virtualSize,
		HeapBase:  virtualSize,
		HeapSize:  heapSize,
		StackBase: arenaSize - stackBytes,
		StackSize: stackBytes,
	}, nil
}
