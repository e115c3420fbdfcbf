package hardware

/*------------------------------------------------------------------
 *
 * Purpose:	Enumerate SDR/soundcard capture devices via udev
 *		(jochenvg/go-udev), backing the `devices` CLI subcommand.
 *		Linux-only, matching go-udev's own scope.
 *
 *----------------------------------------------------------------*/

import (
	"fmt"

	"github.com/jochenvg/go-udev"
)

// CaptureDevice describes one enumerated capture-capable device node.
type CaptureDevice struct {
	DevNode string
	Vendor  string
	Product string
	Serial  string
}

// ListCaptureDevices enumerates USB sound and SDR-adjacent devices
// exposing a sound subsystem device node.
func ListCaptureDevices() ([]CaptureDevice, error) {
	u := udev.Udev{}
	e := u.NewEnumerate()

	if err := e.AddMatchSubsystem("sound"); err != nil {
		return nil, fmt.Errorf("hardware: udev match subsystem: %w", err)
	}

	devs, err := e.Devices()
	if err != nil {
		return nil, fmt.Errorf("hardware: udev enumerate devices: %w", err)
	}

	out := make([]CaptureDevice, 0, len(devs))
	for _, d := range devs {
		node := d.Devnode()
		if node == "" {
			continue
		}
		out = append(out, CaptureDevice{
			DevNode: node,
			Vendor:  d.PropertyValue("ID_VENDOR"),
			Product: d.PropertyValue("ID_MODEL"),
			Serial:  d.PropertyValue("ID_SERIAL_SHORT"),
		})
	}
	return out, nil
}
