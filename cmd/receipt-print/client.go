package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/urfave/cli/v2"

	"receipt-print/internal/bluez"
	"receipt-print/internal/config"
	"receipt-print/internal/events"
	"receipt-print/internal/printer"
	"receipt-print/internal/session"
)

var errNoAddress = errors.New("no printer address configured, set --address or 'address' in the config file")

// client holds what the commands share: the loaded settings and, once
// open, a session with the printer
type client struct {
	cfg *config.Config
	log *slog.Logger
	out io.Writer

	bus   *events.Bus
	radio *bluez.Radio
	mgr   *session.Manager
}

func newClient(cfg *config.Config, log *slog.Logger, out io.Writer) *client {
	return &client{cfg: cfg, log: log, out: out}
}

func clientFrom(cliCtx *cli.Context) *client {
	return cliCtx.App.Metadata[appKey].(*client)
}

// open binds the print service and connects to the configured printer
func (c *client) open() error {
	v := c.cfg.Values
	d := v.Descriptor()
	if d == nil {
		return errNoAddress
	}

	var radio session.Radio
	if d.Transport == session.TransportBluetooth && runtime.GOOS == "linux" {
		r, err := bluez.Open(v.Adapter)
		if err != nil {
			c.log.Warn("bluetooth radio state unavailable", "err", err)
		} else {
			c.radio, radio = r, r
		}
	}

	c.bus = events.NewBus(0)
	host := printer.NewHost(printer.Config{
		Publisher:        c.bus,
		Logger:           c.log.With("component", "service"),
		Channel:          v.Channel,
		BaudRate:         v.BaudRate,
		ResumeBeforeSend: v.Resume,
	})
	c.mgr = session.New(host, c.bus, session.Options{
		Radio:         radio,
		Notifier:      terminalNotifier{w: c.out},
		Logger:        c.log.With("component", "session"),
		PrinterID:     d.ID,
		StatusTimeout: v.StatusTimeout(),
	})

	if err := c.mgr.Bind(); err != nil {
		c.close()
		return err
	}
	if err := c.mgr.Connect(d); err != nil {
		c.close()
		return err
	}
	return nil
}

// close disconnects and releases everything open opened
func (c *client) close() {
	if c.mgr != nil {
		c.mgr.Disconnect()
		c.mgr.Unbind()
		c.mgr = nil
	}
	if c.bus != nil {
		c.bus.Close()
		c.bus = nil
	}
	if c.radio != nil {
		c.radio.Close()
		c.radio = nil
	}
}

// await installs a listener for kind, runs fn and waits up to timeout for
// the first matching event
func (c *client) await(kind session.EventKind, timeout time.Duration, fn func() error) (session.Event, error) {
	got := make(chan session.Event, 1)
	c.mgr.SetResultListener(session.ListenerFunc(func(ev session.Event) {
		if ev.Kind != kind {
			return
		}
		select {
		case got <- ev:
		default:
		}
	}))
	defer c.mgr.SetResultListener(nil)

	if err := fn(); err != nil {
		return session.Event{}, err
	}

	select {
	case ev := <-got:
		return ev, nil
	case <-time.After(timeout):
		return session.Event{}, fmt.Errorf("no answer from printer after %s", timeout)
	}
}
