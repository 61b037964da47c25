// Package printer implements the print service that owns printer ports.
// Ports are serial devices, either local or backed by a Bluetooth RFCOMM
// link, and every operation answers with a session.ResultCode.
package printer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/atomic"

	"receipt-print/internal/session"
	"receipt-print/internal/tspl"
)

// MaxPrinters is the number of printer slots a Service manages
const MaxPrinters = 20

// Publisher receives events produced by the service
type Publisher interface {
	Publish(session.Event)
}

// Config configures a Service. Zero values select defaults.
type Config struct {
	Opener           Opener
	Dialer           Dialer
	Publisher        Publisher
	Logger           *slog.Logger
	Channel          int // RFCOMM channel
	BaudRate         int
	ReadTimeout      time.Duration
	ResumeBeforeSend bool // send TSPL resume ahead of every payload
}

func (c Config) withDefaults() Config {
	if c.Opener == nil {
		c.Opener = serial.Open
	}
	if c.Dialer == nil {
		c.Dialer = DefaultDialer()
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.Channel <= 0 {
		c.Channel = DefaultChannel
	}
	if c.BaudRate <= 0 {
		c.BaudRate = DefaultBaudRate
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	return c
}

// port is one open printer slot
type port struct {
	mu        sync.Mutex // serializes I/O
	conn      serial.Port
	link      Link
	name      string
	transport session.Transport
}

func (p *port) close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.conn.Close()
	if p.link != nil {
		err = errors.Join(err, p.link.Close())
	}
	return err
}

// Service implements session.Endpoint
type Service struct {
	cfg    Config
	log    *slog.Logger
	closed atomic.Bool

	mu    sync.Mutex
	ports map[int]*port
}

// NewService returns a service with no open ports
func NewService(cfg Config) *Service {
	cfg = cfg.withDefaults()
	return &Service{
		cfg:   cfg,
		log:   cfg.Logger,
		ports: make(map[int]*port),
	}
}

var _ session.Endpoint = (*Service)(nil)

// OpenPort opens printer slot id on the given transport. flags is reserved.
func (s *Service) OpenPort(id int, transport session.Transport, address string, flags int) (session.ResultCode, error) {
	if s.closed.Load() {
		return session.ResultFailed, ErrServiceClosed
	}
	if id < 0 || id >= MaxPrinters {
		return session.ResultInvalidDeviceParameters, nil
	}
	if s.lookup(id) != nil {
		return session.ResultDeviceAlreadyOpen, nil
	}

	var (
		p    *port
		code session.ResultCode
	)
	switch transport {
	case session.TransportBluetooth:
		p, code = s.openBluetooth(address)
	case session.TransportSerial:
		p, code = s.openSerial(address)
	default:
		return session.ResultInvalidDeviceParameters, nil
	}
	if !code.OK() {
		return code, nil
	}

	s.mu.Lock()
	if _, ok := s.ports[id]; ok {
		s.mu.Unlock()
		if err := p.close(); err != nil {
			s.log.Debug("close duplicate port", "printer", id, "err", err)
		}
		return session.ResultDeviceAlreadyOpen, nil
	}
	s.ports[id] = p
	s.mu.Unlock()

	s.log.Info("port opened", "printer", id, "transport", transport, "port", p.name)
	return session.ResultSuccess, nil
}

func (s *Service) openBluetooth(address string) (*port, session.ResultCode) {
	link, err := s.cfg.Dialer(address, s.cfg.Channel, func(msg string) {
		s.log.Debug("rfcomm", "address", address, "msg", msg)
	})
	switch {
	case errors.Is(err, ErrInvalidAddress):
		return nil, session.ResultInvalidBluetoothAddress
	case errors.Is(err, ErrNotSupported):
		return nil, session.ResultBluetoothNotSupported
	case err != nil:
		s.log.Warn("bluetooth link failed", "address", address, "err", err)
		return nil, session.ResultFailed
	}

	conn, err := s.open(link.DevicePath())
	if err != nil {
		s.log.Warn("open linked port", "port", link.DevicePath(), "err", err)
		link.Close()
		return nil, session.ResultFailed
	}
	return &port{conn: conn, link: link, name: link.DevicePath(), transport: session.TransportBluetooth}, session.ResultSuccess
}

func (s *Service) openSerial(name string) (*port, session.ResultCode) {
	if name == "" {
		return nil, session.ResultInvalidPortNumber
	}
	conn, err := s.open(name)
	if err != nil {
		s.log.Warn("open serial port", "port", name, "err", err)
		var perr *serial.PortError
		if errors.As(err, &perr) && perr.Code() == serial.PortNotFound {
			return nil, session.ResultInvalidPortNumber
		}
		return nil, session.ResultFailed
	}
	return &port{conn: conn, name: name, transport: session.TransportSerial}, session.ResultSuccess
}

func (s *Service) open(name string) (serial.Port, error) {
	mode := &serial.Mode{
		BaudRate: s.cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	conn, err := s.cfg.Opener(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	if err := conn.SetReadTimeout(s.cfg.ReadTimeout); err != nil {
		s.log.Debug("set read timeout", "port", name, "err", err)
	}
	return conn, nil
}

// ClosePort closes slot id. Closing a slot that is not open does nothing.
func (s *Service) ClosePort(id int) error {
	if s.closed.Load() {
		return ErrServiceClosed
	}
	p := s.remove(id)
	if p == nil {
		return nil
	}
	if err := p.close(); err != nil {
		return fmt.Errorf("close printer %d: %w", id, err)
	}
	s.log.Info("port closed", "printer", id, "port", p.name)
	return nil
}

// ConnectionStatus reports Connected while the slot's port and link are up
func (s *Service) ConnectionStatus(id int) (session.State, error) {
	if s.closed.Load() {
		return session.Disconnected, ErrServiceClosed
	}
	p := s.lookup(id)
	if p == nil {
		return session.Disconnected, nil
	}
	if p.link != nil && !p.link.Ready() {
		s.log.Warn("link lost", "printer", id, "port", p.name)
		s.drop(id, p)
		return session.Disconnected, nil
	}
	return session.Connected, nil
}

// QueryStatus polls the printer in the background and publishes an
// EventDeviceStatus event carrying tag.
func (s *Service) QueryStatus(id int, timeout time.Duration, tag int) error {
	if s.closed.Load() {
		return ErrServiceClosed
	}
	p := s.lookup(id)
	if p == nil {
		s.publish(session.Event{Kind: session.EventDeviceStatus, PrinterID: id, Tag: tag, Status: session.StatusOffline})
		return nil
	}
	go s.pollStatus(id, p, timeout, tag)
	return nil
}

func (s *Service) pollStatus(id int, p *port, timeout time.Duration, tag int) {
	ev := session.Event{Kind: session.EventDeviceStatus, PrinterID: id, Tag: tag}
	ev.Status = s.readStatus(p, timeout)
	if ev.Status&session.StatusOffline != 0 {
		s.drop(id, p)
	}
	s.log.Debug("status", "printer", id, "tag", tag, "status", ev.Status)
	s.publish(ev)
}

func (s *Service) readStatus(p *port, timeout time.Duration) session.StatusFlags {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.conn.SetReadTimeout(timeout); err == nil {
		defer p.conn.SetReadTimeout(s.cfg.ReadTimeout)
	}
	if _, err := p.conn.Write([]byte(tspl.StatusQuery)); err != nil {
		return session.StatusOffline
	}

	buf := make([]byte, 1)
	n, err := p.conn.Read(buf)
	switch {
	case err != nil:
		return session.StatusOffline
	case n == 0:
		return session.StatusTimedOut
	}
	return decodeStatus(buf[0])
}

// SendCommand writes payload to slot id and publishes an
// EventCommandResponse event with the outcome.
func (s *Service) SendCommand(id int, payload []byte) (session.ResultCode, error) {
	if s.closed.Load() {
		return session.ResultFailed, ErrServiceClosed
	}
	code := s.send(id, payload)
	s.publish(session.Event{Kind: session.EventCommandResponse, PrinterID: id, Result: code})
	return code, nil
}

func (s *Service) send(id int, payload []byte) session.ResultCode {
	p := s.lookup(id)
	if p == nil {
		return session.ResultPortNotOpen
	}

	if err := s.write(p, payload); err != nil {
		s.log.Warn("write failed", "printer", id, "port", p.name, "err", err)
		s.drop(id, p)
		return session.ResultPortDisconnected
	}
	s.log.Debug("payload sent", "printer", id, "bytes", len(payload))
	return session.ResultSuccess
}

func (s *Service) write(p *port, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s.cfg.ResumeBeforeSend {
		if _, err := p.conn.Write([]byte(tspl.Resume)); err != nil {
			return err
		}
		time.Sleep(100 * time.Millisecond)
	}
	_, err := p.conn.Write(payload)
	return err
}

// Shutdown closes every port. Later calls fail with ErrServiceClosed.
func (s *Service) Shutdown() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.mu.Lock()
	ports := s.ports
	s.ports = make(map[int]*port)
	s.mu.Unlock()

	var errs []error
	for id, p := range ports {
		if err := p.close(); err != nil {
			errs = append(errs, fmt.Errorf("close printer %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Service) lookup(id int) *port {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ports[id]
}

func (s *Service) remove(id int) *port {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.ports[id]
	delete(s.ports, id)
	return p
}

// drop forgets p if it still occupies slot id and closes it
func (s *Service) drop(id int, p *port) {
	s.mu.Lock()
	if s.ports[id] == p {
		delete(s.ports, id)
	}
	s.mu.Unlock()

	if err := p.close(); err != nil {
		s.log.Debug("close dropped port", "printer", id, "err", err)
	}
}

func (s *Service) publish(ev session.Event) {
	if s.cfg.Publisher != nil {
		s.cfg.Publisher.Publish(ev)
	}
}
