package printer

import (
	"fmt"

	"receipt-print/internal/session"
)

// Host binds sessions to a print service. Every Bind starts a fresh
// Service and Unbind shuts it down with all of its ports.
type Host struct {
	cfg Config
}

// NewHost returns a Host whose services use cfg
func NewHost(cfg Config) *Host {
	return &Host{cfg: cfg}
}

var _ session.Binder = (*Host)(nil)

// Bind implements session.Binder
func (h *Host) Bind() (session.Endpoint, error) {
	return NewService(h.cfg), nil
}

// Unbind implements session.Binder
func (h *Host) Unbind(ep session.Endpoint) error {
	svc, ok := ep.(*Service)
	if !ok {
		return fmt.Errorf("unbind: endpoint %T was not bound by this host", ep)
	}
	return svc.Shutdown()
}
