package appmanager

import (
	"errors"

	"github.com/inos-labs/appmanager/internal/flashmedia"
	"github.com/inos-labs/appmanager/internal/obslog"
)

// Scanner discovers applications by probing flash slots.
type Scanner struct {
	device flashmedia.Device
	log    *obslog.Logger
}

// NewScanner creates a scanner that reads from device.
func NewScanner(device flashmedia.Device, log *obslog.Logger) *Scanner {
	if log == nil {
		log = obslog.Default("scanner")
	}
	return &Scanner{device: device, log: log}
}

// Discover iterates slot indices [0, MaxSlots), probing each for a valid
// PBLAPP header, and inserts a new record into manifest for every slot
// that holds one. Entry point is left nil -- it is resolved at load time
// from the header's offset field. CRC verification is a hook point only;
// headers are currently trusted once the magic matches.
//
// Running Discover twice against unchanged flash contents on an
// initially-empty manifest yields exactly one record per valid slot: a
// slot that already has a flash-loaded record in manifest is skipped.
func (s *Scanner) Discover(manifest *Manifest) {
	known := make(map[int]bool)
	for _, r := range manifest.Records() {
		if !r.IsInternal {
			known[r.SlotID] = true
		}
	}

	for slot := 0; slot < MaxSlots; slot++ {
		raw, err := s.device.ReadHeader(slot)
		if err != nil {
			// io_error: logged and the slot is skipped, same treatment
			// as a slot that simply holds no valid image.
			s.log.Debug("slot unreadable", obslog.Int("slot", slot), obslog.Err(err))
			continue
		}

		header, err := ParseHeader(raw)
		if err != nil {
			if errors.Is(err, ErrBadMagic) {
				continue
			}
			s.log.Debug("slot header invalid", obslog.Int("slot", slot), obslog.Err(err))
			continue
		}

		if known[slot] {
			continue
		}

		s.log.Info("valid app found", obslog.String("name", header.Name), obslog.Int("slot", slot))

		app := &Application{
			Name:       header.Name,
			Type:       AppTypeWatchFace,
			IsInternal: false,
			SlotID:     slot,
			Header:     header,
		}
		if err := manifest.Insert(app); err != nil {
			s.log.Error("failed to register discovered app", obslog.String("name", header.Name), obslog.Err(err))
		}
	}
}
