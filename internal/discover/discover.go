// Package discover locates the keyboard controller on the host: the
// spidev node it answers on, and the competing USB attachment that, when
// present, means the SPI interface is dead and must be left alone.
package discover

import (
	"fmt"
	"strings"

	"github.com/jochenvg/go-udev"
)

// ACPIID is how the controller enumerates on every supported machine.
const ACPIID = "APP000D"

// SPINode walks the spidev class and returns the /dev node whose lineage
// carries the controller's ACPI id.
func SPINode() (string, error) {
	u := &udev.Udev{}
	e := u.NewEnumerate()
	if err := e.AddMatchSubsystem("spidev"); err != nil {
		return "", fmt.Errorf("udev match: %w", err)
	}
	if err := e.AddMatchIsInitialized(); err != nil {
		return "", fmt.Errorf("udev match: %w", err)
	}
	devices, err := e.Devices()
	if err != nil {
		return "", fmt.Errorf("udev enumerate: %w", err)
	}

	for i := range devices {
		d := devices[i]
		if d.Devnode() == "" {
			continue
		}
		if matchesController(d.Syspath(), d.PropertyValue("MODALIAS")) {
			return d.Devnode(), nil
		}
		if p := d.Parent(); p != nil && matchesController(p.Syspath(), p.SysattrValue("modalias")) {
			return d.Devnode(), nil
		}
	}
	return "", fmt.Errorf("no spidev node for %s; is the spidev module bound to the controller?", ACPIID)
}

// matchesController reports whether a device's identity strings carry the
// controller's ACPI id. Sysfs paths keep the id uppercase; modalias
// strings may not.
func matchesController(syspath, modalias string) bool {
	if strings.Contains(syspath, ACPIID) {
		return true
	}
	return strings.Contains(strings.ToUpper(modalias), ACPIID)
}
