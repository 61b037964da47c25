//go:build windows

package printer

import (
	"fmt"
	"strings"

	"golang.org/x/sys/windows/registry"
)

const serialCommKey = `HARDWARE\DEVICEMAP\SERIALCOMM`

// comLink is a paired SPP device. Windows creates the COM port itself, so
// there is nothing to set up or tear down.
type comLink struct {
	path string
}

func (l *comLink) DevicePath() string { return l.path }

// Ready always reports true; a COM port can only be probed by opening it
func (l *comLink) Ready() bool { return l.path != "" }

func (l *comLink) Close() error { return nil }

// dialRFCOMM treats address as the COM port of a paired SPP device
func dialRFCOMM(address string, channel int, status func(string)) (Link, error) {
	if !strings.HasPrefix(strings.ToUpper(address), "COM") {
		return nil, fmt.Errorf("%w: %q is not a COM port", ErrInvalidAddress, address)
	}
	if status != nil {
		status(fmt.Sprintf("Using port %s...", address))
	}

	// serial.Open adds the device namespace prefix itself
	return &comLink{path: address}, nil
}

// LinkedPorts returns COM ports whose registry name looks Bluetooth-backed
func LinkedPorts() ([]string, error) {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, serialCommKey, registry.READ)
	if err != nil {
		return nil, err
	}
	defer key.Close()

	names, err := key.ReadValueNames(-1)
	if err != nil {
		return nil, err
	}

	var ports []string
	for _, name := range names {
		lower := strings.ToLower(name)
		if !strings.Contains(lower, "bth") && !strings.Contains(lower, "bluetooth") {
			continue
		}
		if val, _, err := key.GetStringValue(name); err == nil {
			ports = append(ports, val)
		}
	}
	return ports, nil
}
