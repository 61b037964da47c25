package session

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Precondition and transport errors reported by the Manager
var (
	ErrNoDescriptor      = errors.New("no printer descriptor given")
	ErrTransportDisabled = errors.New("bluetooth is not enabled")
	ErrNotBound          = errors.New("print service not bound")
	ErrConnectFailed     = errors.New("connect failed")
)

// Transport identifies how the print service reaches a printer.
// Values follow the vendor port numbering.
type Transport int

const (
	TransportSerial Transport = iota
	TransportParallel
	TransportUSB
	TransportEthernet
	TransportBluetooth
)

func (t Transport) String() string {
	switch t {
	case TransportSerial:
		return "serial"
	case TransportParallel:
		return "parallel"
	case TransportUSB:
		return "usb"
	case TransportEthernet:
		return "ethernet"
	case TransportBluetooth:
		return "bluetooth"
	}
	return fmt.Sprintf("transport(%d)", int(t))
}

// ParseTransport maps a config string to a Transport
func ParseTransport(s string) (Transport, error) {
	for t := TransportSerial; t <= TransportBluetooth; t++ {
		if strings.EqualFold(s, t.String()) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown transport %q", s)
}

// Descriptor identifies a target printer
type Descriptor struct {
	Name      string
	Address   string // MAC for Bluetooth, port name for serial
	ID        int    // logical printer slot on the service
	Transport Transport
}

// NewBluetoothDescriptor returns a descriptor for a Bluetooth printer on slot id
func NewBluetoothDescriptor(name, address string, id int) *Descriptor {
	return &Descriptor{Name: name, Address: address, ID: id, Transport: TransportBluetooth}
}

func (d *Descriptor) String() string {
	if d.Name == "" {
		return d.Address
	}
	return fmt.Sprintf("%s (%s)", d.Name, d.Address)
}

// State is the connection state reported by the print service
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// EventKind selects one of the asynchronous event streams
type EventKind uint

const (
	EventDeviceStatus EventKind = iota + 1
	EventCommandResponse
)

func (k EventKind) String() string {
	switch k {
	case EventDeviceStatus:
		return "device-status"
	case EventCommandResponse:
		return "command-response"
	}
	return fmt.Sprintf("event(%d)", uint(k))
}

// StatusFlags is the real-time printer status. Zero means ready.
type StatusFlags uint16

const (
	StatusCoverOpen StatusFlags = 1 << iota
	StatusPaperJam
	StatusPaperOut
	StatusRibbonOut
	StatusPaused
	StatusPrinting
	StatusError
	StatusTimedOut
	StatusOffline
)

var statusNames = []struct {
	flag StatusFlags
	name string
}{
	{StatusCoverOpen, "cover open"},
	{StatusPaperJam, "paper jam"},
	{StatusPaperOut, "out of paper"},
	{StatusRibbonOut, "out of ribbon"},
	{StatusPaused, "paused"},
	{StatusPrinting, "printing"},
	{StatusError, "error"},
	{StatusTimedOut, "timed out"},
	{StatusOffline, "offline"},
}

// Ready reports whether the printer can accept a job
func (f StatusFlags) Ready() bool {
	return f&^StatusPrinting == 0
}

func (f StatusFlags) String() string {
	if f == 0 {
		return "ready"
	}
	var parts []string
	for _, n := range statusNames {
		if f&n.flag != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, ", ")
}

// Event is an asynchronous notification from the print service
type Event struct {
	Kind      EventKind
	PrinterID int
	Tag       int
	Status    StatusFlags
	Result    ResultCode
}

// Endpoint is the print service as seen by the Manager.
// A non-nil error means the call itself could not complete.
type Endpoint interface {
	OpenPort(id int, transport Transport, address string, flags int) (ResultCode, error)
	ClosePort(id int) error
	ConnectionStatus(id int) (State, error)
	QueryStatus(id int, timeout time.Duration, tag int) error
	SendCommand(id int, payload []byte) (ResultCode, error)
}

// Binder hands out and releases the Endpoint handle
type Binder interface {
	Bind() (Endpoint, error)
	Unbind(Endpoint) error
}

// EventSource delivers events of the requested kinds until cancel is called
type EventSource interface {
	Subscribe(kinds ...EventKind) (events <-chan Event, cancel func())
}

// Radio reports whether the Bluetooth transport is usable
type Radio interface {
	Enabled() bool
}

// Notifier shows short-lived messages to the user
type Notifier interface {
	Notify(msg string)
}

// Listener receives status and command-response events
type Listener interface {
	OnEvent(Event)
}

// ListenerFunc adapts a function to Listener
type ListenerFunc func(Event)

func (f ListenerFunc) OnEvent(ev Event) { f(ev) }
