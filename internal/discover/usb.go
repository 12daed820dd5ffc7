package discover

import (
	"fmt"

	"github.com/karalabe/usb"
)

// Apple's USB vendor id and the product ids the internal keyboard shows
// up under when the firmware routes it over USB instead of SPI.
const appleVID = 0x05AC

var usbKeyboardPIDs = map[uint16]string{
	0x0272: "internal keyboard (ANSI)",
	0x0273: "internal keyboard (ISO)",
	0x0274: "internal keyboard (JIS)",
}

// USBKeyboard reports whether the internal keyboard is currently attached
// over USB. When it is, a session must not bind the SPI side.
func USBKeyboard() (string, bool, error) {
	infos, err := usb.Enumerate(appleVID, 0)
	if err != nil {
		return "", false, fmt.Errorf("usb enumerate: %w", err)
	}
	for _, info := range infos {
		if name, ok := isInternalKeyboard(info.VendorID, info.ProductID); ok {
			return name, true, nil
		}
	}
	return "", false, nil
}

// isInternalKeyboard matches one enumerated vid/pid pair against the
// known internal keyboard attachments.
func isInternalKeyboard(vid, pid uint16) (string, bool) {
	if vid != appleVID {
		return "", false
	}
	name, ok := usbKeyboardPIDs[pid]
	return name, ok
}
