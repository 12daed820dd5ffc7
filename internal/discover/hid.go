package discover

import (
	usbhid "rafaelmartins.com/p/usbhid"
)

// HIDInfo describes one HID device the operating system exposes. The
// controller itself never appears here while it is on SPI; the listing
// backs the -detect diagnostics next to the USB guard.
type HIDInfo struct {
	Path         string
	VendorID     uint16
	ProductID    uint16
	Product      string
	Manufacturer string
}

// HIDDevices lists every HID device on the host.
func HIDDevices() ([]HIDInfo, error) {
	devs, err := usbhid.Enumerate(nil)
	if err != nil {
		return nil, err
	}
	out := make([]HIDInfo, 0, len(devs))
	for _, d := range devs {
		out = append(out, HIDInfo{
			Path:         d.Path(),
			VendorID:     d.VendorId(),
			ProductID:    d.ProductId(),
			Product:      d.Product(),
			Manufacturer: d.Manufacturer(),
		})
	}
	return out, nil
}
