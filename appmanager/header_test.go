package appmanager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleHeader() *Header {
	return &Header{
		SDKVersionMajor:   4,
		SDKVersionMinor:   3,
		AppVersionMajor:   1,
		AppVersionMinor:   0,
		AppSize:           256,
		Offset:            16,
		CRC:               0xdeadbeef,
		Name:              "Simple",
		Company:           "Pebble",
		IconResourceID:    7,
		SymTableAddr:      512,
		Flags:             0,
		RelocEntriesCount: 3,
		VirtualSize:       320,
	}
}

func TestEncodeParseHeaderRoundTrip(t *testing.T) {
	want := sampleHeader()
	buf := EncodeHeader(want)
	assert.Len(t, buf, HeaderSize)

	got, err := ParseHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestParseHeaderRejectsShortBuffer(t *testing.T) {
	_, err := ParseHeader(make([]byte, HeaderSize-1))
	assert.ErrorIs(t, err, ErrIOError)
}

func TestParseHeaderRejectsBadMagic(t *testing.T) {
	buf := EncodeHeader(sampleHeader())
	buf[0] = 'X'
	_, err := ParseHeader(buf)
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestHeaderDerivedFields(t *testing.T) {
	h := sampleHeader()
	assert.Equal(t, uint32(64), h.BSSSize())
	assert.Equal(t, uint32(256), h.RelocTableOffset())
	assert.Equal(t, uint32(12), h.RelocTableSize())
}
