// Package session owns the connection lifecycle between an application and
// a print service.
//
// A Manager is not safe for overlapping calls: every remote call is a
// blocking round trip and callers must serialize their use of one instance.
// Only listener registration and event delivery may race with other calls.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/atomic"
)

const (
	DefaultStatusTimeout = 500 * time.Millisecond
	DefaultStatusTag     = 0xfe
)

// Options configures a Manager. Zero values select defaults.
type Options struct {
	Radio         Radio // nil means the transport is always enabled
	Notifier      Notifier
	Logger        *slog.Logger
	PrinterID     int
	StatusTimeout time.Duration
	StatusTag     int
}

type listenerSlot struct {
	l Listener
}

type subscription struct {
	cancel func()
	done   chan struct{}
}

// Manager is a single logical session with one printer
type Manager struct {
	binder   Binder
	events   EventSource
	radio    Radio
	notifier Notifier
	log      *slog.Logger

	printerID     int
	statusTimeout time.Duration
	statusTag     int

	endpoint Endpoint
	sub      *subscription
	listener atomic.Pointer[listenerSlot]
}

// New returns an unbound Manager
func New(binder Binder, events EventSource, opts Options) *Manager {
	m := &Manager{
		binder:        binder,
		events:        events,
		radio:         opts.Radio,
		notifier:      opts.Notifier,
		log:           opts.Logger,
		printerID:     opts.PrinterID,
		statusTimeout: opts.StatusTimeout,
		statusTag:     opts.StatusTag,
	}
	if m.log == nil {
		m.log = slog.New(slog.DiscardHandler)
	}
	if m.statusTimeout <= 0 {
		m.statusTimeout = DefaultStatusTimeout
	}
	if m.statusTag == 0 {
		m.statusTag = DefaultStatusTag
	}
	return m
}

// Bind obtains the print service and starts receiving events.
// Binding again only renews the event subscription.
func (m *Manager) Bind() error {
	if m.endpoint == nil {
		ep, err := m.binder.Bind()
		if err != nil {
			return fmt.Errorf("bind print service: %w", err)
		}
		m.endpoint = ep
		m.log.Debug("print service bound")
	}

	m.unsubscribe()
	m.subscribe()
	return nil
}

// Unbind stops event delivery and releases the print service
func (m *Manager) Unbind() {
	m.unsubscribe()

	if m.endpoint == nil {
		return
	}
	ep := m.endpoint
	m.endpoint = nil
	if err := m.binder.Unbind(ep); err != nil {
		m.log.Warn("unbind print service", "err", err)
		return
	}
	m.log.Debug("print service unbound")
}

// Bound reports whether Bind has succeeded without a later Unbind
func (m *Manager) Bound() bool {
	return m.endpoint != nil
}

// State queries the print service for the session's connection state.
// Failures read as Disconnected.
func (m *Manager) State() State {
	if m.endpoint == nil {
		return Disconnected
	}
	st, err := m.endpoint.ConnectionStatus(m.printerID)
	if err != nil {
		m.log.Debug("connection status query failed", "printer", m.printerID, "err", err)
		return Disconnected
	}
	return st
}

// IsConnected reports whether the print service has the printer connected
func (m *Manager) IsConnected() bool {
	return m.State() == Connected
}

// Connect asks the print service to open a port to d and makes d's slot the
// session's printer. It opens nothing when that slot is already connected.
func (m *Manager) Connect(d *Descriptor) error {
	if d == nil {
		m.notify("invalid printer data")
		return ErrNoDescriptor
	}
	if d.Transport == TransportBluetooth && m.radio != nil && !m.radio.Enabled() {
		m.notify("please enable bluetooth first")
		return ErrTransportDisabled
	}
	if m.endpoint == nil {
		m.notify("connect failed")
		return fmt.Errorf("%w: %w", ErrConnectFailed, ErrNotBound)
	}

	st, err := m.endpoint.ConnectionStatus(d.ID)
	if err != nil {
		m.notify("connect failed")
		return fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}
	if st == Connected {
		m.printerID = d.ID
		return nil
	}

	code, err := m.endpoint.OpenPort(d.ID, d.Transport, d.Address, 0)
	if err != nil {
		m.notify("connect failed")
		return fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}
	if !code.OK() {
		m.notify(code.Text())
		return &ResultError{Op: "open " + d.String(), Code: code}
	}

	m.printerID = d.ID
	m.log.Info("printer connected", "printer", d.String(), "id", d.ID, "transport", d.Transport)
	return nil
}

// Disconnect closes the printer port if it is open. Errors are logged only.
func (m *Manager) Disconnect() {
	if !m.IsConnected() {
		return
	}
	if err := m.endpoint.ClosePort(m.printerID); err != nil {
		m.log.Warn("close printer port", "printer", m.printerID, "err", err)
		return
	}
	m.log.Info("printer disconnected", "printer", m.printerID)
}

// QueryStatus requests a real-time status report. The answer arrives as an
// EventDeviceStatus event tagged with the configured status tag.
func (m *Manager) QueryStatus() {
	if m.endpoint == nil {
		m.log.Warn("status query skipped", "err", ErrNotBound)
		return
	}
	if err := m.endpoint.QueryStatus(m.printerID, m.statusTimeout, m.statusTag); err != nil {
		m.log.Warn("status query failed", "printer", m.printerID, "err", err)
	}
}

// Print sends a pre-formatted command payload. It returns false only when
// the call to the print service could not be completed; a rejected payload
// is reported through the Notifier and still returns true.
func (m *Manager) Print(payload []byte) bool {
	if m.endpoint == nil {
		m.log.Warn("print skipped", "err", ErrNotBound)
		return false
	}
	code, err := m.endpoint.SendCommand(m.printerID, payload)
	if err != nil {
		m.log.Error("send command", "printer", m.printerID, "err", err)
		return false
	}
	if code.OK() {
		m.notify("print sent")
	} else {
		m.log.Warn("print rejected", "printer", m.printerID, "code", int(code), "reason", code.Text())
		m.notify(code.Text())
	}
	return true
}

// SetResultListener replaces the registered listener. nil disables delivery.
func (m *Manager) SetResultListener(l Listener) {
	if l == nil {
		m.listener.Store(nil)
		return
	}
	m.listener.Store(&listenerSlot{l: l})
}

func (m *Manager) subscribe() {
	if m.events == nil {
		return
	}
	ch, cancel := m.events.Subscribe(EventDeviceStatus, EventCommandResponse)
	sub := &subscription{cancel: cancel, done: make(chan struct{})}
	m.sub = sub
	go m.dispatch(ch, sub.done)
}

func (m *Manager) unsubscribe() {
	if m.sub == nil {
		return
	}
	close(m.sub.done)
	m.sub.cancel()
	m.sub = nil
}

func (m *Manager) dispatch(ch <-chan Event, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			// drop anything that raced with unsubscribe
			select {
			case <-done:
				return
			default:
			}
			if slot := m.listener.Load(); slot != nil {
				slot.l.OnEvent(ev)
			}
		}
	}
}

func (m *Manager) notify(msg string) {
	if m.notifier == nil || msg == "" {
		return
	}
	m.notifier.Notify(msg)
}

// IsResultCode reports whether err carries the given non-success code
func IsResultCode(err error, code ResultCode) bool {
	var re *ResultError
	return errors.As(err, &re) && re.Code == code
}
