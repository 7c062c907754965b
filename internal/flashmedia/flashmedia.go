// Package flashmedia is the non-volatile storage collaborator the
// application manager's flash scanner and dynamic loader read from:
// fixed-size slots, each optionally holding a magic-prefixed application
// image.
package flashmedia

import (
	"errors"
	"fmt"
	"os"
)

// ErrSlotOutOfRange is returned when a caller programs a MemoryDevice
// slot index outside the device's [0, maxSlot) range.
var ErrSlotOutOfRange = errors.New("flashmedia: slot out of range")

// Device is the block-read interface the scanner and loader consume:
// a load-header/load-image pair addressed by slot index.
type Device interface {
	// ReadHeader returns the raw HeaderSize-byte header stored at slot,
	// or an error if the slot cannot be read.
	ReadHeader(slot int) ([]byte, error)

	// ReadImage returns the first n bytes of the application image
	// stored at slot (code, followed by the packed reloc table).
	ReadImage(slot int, n int) ([]byte, error)
}

// MemoryDevice is an in-memory Device, used by tests and anywhere a real
// flash chip is unavailable.
type MemoryDevice struct {
	slots   map[int][]byte
	maxSlot int
}

// NewMemoryDevice creates an empty in-memory flash device supporting
// slot indices [0, maxSlot).
func NewMemoryDevice(maxSlot int) *MemoryDevice {
	return &MemoryDevice{slots: make(map[int][]byte), maxSlot: maxSlot}
}

// Program writes a full image (header + code + reloc table) into slot.
func (d *MemoryDevice) Program(slot int, image []byte) error {
	if slot < 0 || slot >= d.maxSlot {
		return ErrSlotOutOfRange
	}
	d.slots[slot] = image
	return nil
}

func (d *MemoryDevice) ReadHeader(slot int) ([]byte, error) {
	img, ok := d.slots[slot]
	if !ok {
		return nil, fmt.Errorf("flashmedia: slot %d empty", slot)
	}
	if len(img) < headerSize {
		return nil, fmt.Errorf("flashmedia: slot %d too short for header", slot)
	}
	return img[:headerSize], nil
}

// ReadImage returns n bytes of code+reloc-table immediately following
// the header at slot: the header and the image are two views onto the
// same contiguous on-flash blob, not two independent reads.
func (d *MemoryDevice) ReadImage(slot int, n int) ([]byte, error) {
	img, ok := d.slots[slot]
	if !ok {
		return nil, fmt.Errorf("flashmedia: slot %d empty", slot)
	}
	if len(img) < headerSize+n {
		return nil, fmt.Errorf("flashmedia: slot %d has %d bytes, want %d", slot, len(img), headerSize+n)
	}
	return img[headerSize : headerSize+n], nil
}

// headerSize mirrors appmanager.HeaderSize without importing the
// appmanager package (which itself depends on flashmedia's Device
// interface only, not on this concrete type) -- avoids an import cycle.
const headerSize = 104

// FileDevice is a file-backed Device: one fixed-size slot per flash
// region, laid out back to back, the way a real SPI/QSPI flash chip is
// addressed. Because the slots live in a file, a restart can observe
// previously "flashed" applications.
type FileDevice struct {
	f        *os.File
	slotSize int64
}

// OpenFileDevice opens (creating if absent) a flash image file with the
// given per-slot size.
func OpenFileDevice(path string, slotSize int64) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("flashmedia: open %s: %w", path, err)
	}
	return &FileDevice{f: f, slotSize: slotSize}, nil
}

// Close releases the underlying file handle.
func (d *FileDevice) Close() error {
	return d.f.Close()
}

// Program writes image at the start of slot's region.
func (d *FileDevice) Program(slot int, image []byte) error {
	if _, err := d.f.WriteAt(image, int64(slot)*d.slotSize); err != nil {
		return fmt.Errorf("flashmedia: program slot %d: %w", slot, err)
	}
	return nil
}

func (d *FileDevice) ReadHeader(slot int) ([]byte, error) {
	return d.readAt(slot, 0, headerSize)
}

// ReadImage returns n bytes of code+reloc-table immediately following
// the header at slot.
func (d *FileDevice) ReadImage(slot int, n int) ([]byte, error) {
	return d.readAt(slot, int64(headerSize), n)
}

func (d *FileDevice) readAt(slot int, skip int64, n int) ([]byte, error) {
	if skip+int64(n) > d.slotSize {
		return nil, fmt.Errorf("flashmedia: requested %d bytes exceeds slot size %d", skip+int64(n), d.slotSize)
	}
	buf := make([]byte, n)
	if _, err := d.f.ReadAt(buf, int64(slot)*d.slotSize+skip); err != nil {
		return nil, fmt.Errorf("flashmedia: read slot %d: %w", slot, err)
	}
	return buf, nil
}
