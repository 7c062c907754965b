package appmanager

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inos-labs/appmanager/internal/flashmedia"
)

func programApp(t *testing.T, device *flashmedia.MemoryDevice, slot int, name string, appSize uint16) {
	t.Helper()
	header := &Header{
		AppSize:     appSize,
		Offset:      0,
		Name:        name,
		Company:     "Pebble",
		VirtualSize: uint32(appSize),
	}
	image := append(EncodeHeader(header), make([]byte, appSize)...)
	require.NoError(t, device.Program(slot, image))
}

func TestScannerDiscoverFindsValidSlots(t *testing.T) {
	device := flashmedia.NewMemoryDevice(MaxSlots)
	programApp(t, device, 0, "Weather", 64)
	programApp(t, device, 3, "Compass", 32)

	manifest := NewManifest(MaxSlots)
	scanner := NewScanner(device, nil)
	scanner.Discover(manifest)

	assert.Equal(t, 2, manifest.Len())

	got, err := manifest.LookupExact("Weather")
	require.NoError(t, err)
	assert.Equal(t, 0, got.SlotID)
	assert.False(t, got.IsInternal)

	got, err = manifest.LookupExact("Compass")
	require.NoError(t, err)
	assert.Equal(t, 3, got.SlotID)
}

func TestScannerDiscoverSkipsEmptySlots(t *testing.T) {
	device := flashmedia.NewMemoryDevice(MaxSlots)
	programApp(t, device, 5, "Tides", 16)

	manifest := NewManifest(MaxSlots)
	scanner := NewScanner(device, nil)
	scanner.Discover(manifest)

	assert.Equal(t, 1, manifest.Len())
}

func TestScannerDiscoverIsIdempotentOnEmptyManifest(t *testing.T) {
	device := flashmedia.NewMemoryDevice(MaxSlots)
	programApp(t, device, 0, "Weather", 64)

	manifest := NewManifest(MaxSlots)
	scanner := NewScanner(device, nil)
	scanner.Discover(manifest)
	scanner.Discover(manifest)
	assert.Equal(t, 1, manifest.Len())
}

// probeRecordingDevice counts which slots the scanner asks about.
type probeRecordingDevice struct {
	probed []int
}

func (d *probeRecordingDevice) ReadHeader(slot int) ([]byte, error) {
	d.probed = append(d.probed, slot)
	return nil, errors.New("empty")
}

func (d *probeRecordingDevice) ReadImage(slot int, n int) ([]byte, error) {
	return nil, errors.New("empty")
}

// Slot 31 must be probed; slot 32 must not.
func TestScannerProbesExactlyMaxSlots(t *testing.T) {
	device := &probeRecordingDevice{}
	scanner := NewScanner(device, nil)
	scanner.Discover(NewManifest(MaxSlots))

	require.Len(t, device.probed, MaxSlots)
	assert.Equal(t, 0, device.probed[0])
	assert.Equal(t, MaxSlots-1, device.probed[len(device.probed)-1])
}
