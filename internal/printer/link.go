package printer

import (
	"errors"
	"time"

	"go.bug.st/serial"
)

// Common errors
var (
	ErrServiceClosed      = errors.New("print service is shut down")
	ErrInvalidAddress     = errors.New("invalid bluetooth address")
	ErrRFCOMMFailed       = errors.New("failed to establish RFCOMM connection")
	ErrPrivilegeRequired  = errors.New("root privileges required for RFCOMM")
	ErrConnectionCanceled = errors.New("connection canceled")
	ErrNotSupported       = errors.New("operation not supported on this platform")
)

const (
	DefaultChannel     = 1
	DefaultBaudRate    = 115200
	DefaultReadTimeout = 3 * time.Second
	linkWait           = 15 * time.Second
)

// Link is an established Bluetooth serial link
type Link interface {
	// DevicePath is the serial device backing the link (/dev/rfcommN, COMn)
	DevicePath() string
	// Ready reports whether the link is still usable
	Ready() bool
	Close() error
}

// Dialer establishes a Bluetooth serial link to address on channel.
// status receives progress messages and may be nil.
type Dialer func(address string, channel int, status func(string)) (Link, error)

// Opener opens a serial port
type Opener func(name string, mode *serial.Mode) (serial.Port, error)

// DefaultDialer returns the platform's RFCOMM dialer
func DefaultDialer() Dialer {
	return dialRFCOMM
}

// ListPorts returns serial ports, Bluetooth-backed ones first
func ListPorts() ([]string, error) {
	linked, _ := LinkedPorts()
	ports, err := serial.GetPortsList()
	if err != nil {
		return linked, err
	}

	seen := make(map[string]bool, len(linked))
	for _, p := range linked {
		seen[p] = true
	}
	for _, p := range ports {
		if !seen[p] {
			linked = append(linked, p)
			seen[p] = true
		}
	}
	return linked, nil
}
