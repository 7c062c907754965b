package appmanager

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// HeaderSize is the fixed length, in bytes, of an on-flash application
// header. The layout matches the wire format of existing PBLAPP images.
const HeaderSize = 104

const nameFieldLen = 32

var magicPrefix = []byte("PBLAPP")

// Header is the decoded on-flash application header.
type Header struct {
	SDKVersionMajor   uint8
	SDKVersionMinor   uint8
	AppVersionMajor   uint8
	AppVersionMinor   uint8
	AppSize           uint16
	Offset            uint32
	CRC               uint32
	Name              string
	Company           string
	IconResourceID    uint32
	SymTableAddr      uint32
	Flags             uint8
	RelocEntriesCount uint16
	VirtualSize       uint32
}

// BSSSize is the number of bss bytes following the code, i.e.
// virtual_size - app_size.
func (h *Header) BSSSize() uint32 {
	return h.VirtualSize - uint32(h.AppSize)
}

// RelocTableOffset is the byte offset, within the arena, at which the
// packed reloc-entry table begins (immediately after the code).
func (h *Header) RelocTableOffset() uint32 {
	return uint32(h.AppSize)
}

// RelocTableSize is the size, in bytes, of the packed reloc-entry table.
func (h *Header) RelocTableSize() uint32 {
	return uint32(h.RelocEntriesCount) * 4
}

// ParseHeader decodes a raw on-flash header. It returns ErrIOError if buf
// is shorter than HeaderSize, and ErrBadMagic if the first six bytes are
// not the literal ASCII "PBLAPP".
func ParseHeader(buf []byte) (*Header, error) {
	if len(buf) < HeaderSize {
		return nil, fmt.Errorf("header: %w: got %d bytes, want %d", ErrIOError, len(buf), HeaderSize)
	}
	if !bytes.Equal(buf[0:6], magicPrefix) {
		return nil, ErrBadMagic
	}

	h := &Header{
		SDKVersionMajor: buf[8],
		SDKVersionMinor: buf[9],
		AppVersionMajor: buf[10],
		AppVersionMinor: buf[11],
		AppSize:         binary.LittleEndian.Uint16(buf[12:14]),
		Offset:          binary.LittleEndian.Uint32(buf[14:18]),
		CRC:             binary.LittleEndian.Uint32(buf[18:22]),
		Name:            trimPadded(buf[22:54]),
		Company:         trimPadded(buf[54:86]),
		IconResourceID:  binary.LittleEndian.Uint32(buf[86:90]),
		SymTableAddr:    binary.LittleEndian.Uint32(buf[90:94]),
		Flags:           buf[94],
		// byte 95 is reserved padding ahead of the u16 reloc count
		RelocEntriesCount: binary.LittleEndian.Uint16(buf[96:98]),
		// bytes 98:100 are reserved padding ahead of virtual_size
		VirtualSize: binary.LittleEndian.Uint32(buf[100:104]),
	}
	return h, nil
}

// EncodeHeader is the inverse of ParseHeader, used by test fixtures to
// synthesize valid images.
func EncodeHeader(h *Header) []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:8], magicPrefix)
	buf[8] = h.SDKVersionMajor
	buf[9] = h.SDKVersionMinor
	buf[10] = h.AppVersionMajor
	buf[11] = h.AppVersionMinor
	binary.LittleEndian.PutUint16(buf[12:14], h.AppSize)
	binary.LittleEndian.PutUint32(buf[14:18], h.Offset)
	binary.LittleEndian.PutUint32(buf[18:22], h.CRC)
	copy(buf[22:54], padName(h.Name, nameFieldLen))
	copy(buf[54:86], padName(h.Company, nameFieldLen))
	binary.LittleEndian.PutUint32(buf[86:90], h.IconResourceID)
	binary.LittleEndian.PutUint32(buf[90:94], h.SymTableAddr)
	buf[94] = h.Flags
	binary.LittleEndian.PutUint16(buf[96:98], h.RelocEntriesCount)
	binary.LittleEndian.PutUint32(buf[100:104], h.VirtualSize)
	return buf
}

func trimPadded(b []byte) string {
	n := bytes.IndexByte(b, 0)
	if n < 0 {
		n = len(b)
	}
	return string(b[:n])
}

func padName(s string, n int) []byte {
	b := make([]byte, n)
	copy(b, s)
	return b
}
