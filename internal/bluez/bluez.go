// Package bluez talks to the BlueZ daemon over the system D-Bus to check
// the Bluetooth radio and list paired printers.
package bluez

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/godbus/dbus/v5"
)

const (
	busName       = "org.bluez"
	adapterIface  = "org.bluez.Adapter1"
	deviceIface   = "org.bluez.Device1"
	propsIface    = "org.freedesktop.DBus.Properties"
	objectManager = "org.freedesktop.DBus.ObjectManager.GetManagedObjects"

	DefaultAdapter = "hci0"
)

var ErrNoBlueZ = errors.New("org.bluez not found on system bus - is bluetooth.service running?")

// Device is a paired Bluetooth device
type Device struct {
	Name    string
	Address string
	Class   uint32
}

// IsPrinter reports whether the Class of Device marks an imaging printer
func (d Device) IsPrinter() bool {
	const (
		majorImaging = 0x06
		minorPrinter = 0x80
	)
	return (d.Class>>8)&0x1f == majorImaging && d.Class&minorPrinter != 0
}

// Radio is a BlueZ adapter
type Radio struct {
	conn    *dbus.Conn
	adapter dbus.ObjectPath
}

// Open connects to the system bus and checks that BlueZ is present.
// An empty adapter selects DefaultAdapter.
func Open(adapter string) (*Radio, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect to system bus: %w", err)
	}

	var names []string
	if err := conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		conn.Close()
		return nil, fmt.Errorf("list bus names: %w", err)
	}
	if !slices.Contains(names, busName) {
		conn.Close()
		return nil, ErrNoBlueZ
	}
	return &Radio{conn: conn, adapter: adapterPath(adapter)}, nil
}

// Close releases the bus connection
func (r *Radio) Close() error {
	return r.conn.Close()
}

// Enabled reports whether the adapter is powered. Errors read as disabled.
func (r *Radio) Enabled() bool {
	powered, err := r.getBool(r.adapter, adapterIface, "Powered")
	return err == nil && powered
}

// PairedDevices lists paired devices on the adapter, sorted by name
func (r *Radio) PairedDevices() ([]Device, error) {
	var objects map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	if err := r.conn.Object(busName, "/").Call(objectManager, 0).Store(&objects); err != nil {
		return nil, fmt.Errorf("get managed objects: %w", err)
	}
	return pairedDevices(r.adapter, objects), nil
}

func (r *Radio) getBool(path dbus.ObjectPath, iface, prop string) (bool, error) {
	var v dbus.Variant
	if err := r.conn.Object(busName, path).Call(propsIface+".Get", 0, iface, prop).Store(&v); err != nil {
		return false, err
	}
	val, ok := v.Value().(bool)
	if !ok {
		return false, fmt.Errorf("property %s is not bool", prop)
	}
	return val, nil
}

func adapterPath(adapter string) dbus.ObjectPath {
	if adapter == "" {
		adapter = DefaultAdapter
	}
	return dbus.ObjectPath("/org/bluez/" + adapter)
}

// addressFromPath turns "/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF" into
// "AA:BB:CC:DD:EE:FF" when the device belongs to adapter
func addressFromPath(adapter, path dbus.ObjectPath) string {
	prefix := string(adapter) + "/dev_"
	s, ok := strings.CutPrefix(string(path), prefix)
	if !ok || strings.Contains(s, "/") {
		return ""
	}
	return strings.ReplaceAll(s, "_", ":")
}

func pairedDevices(adapter dbus.ObjectPath, objects map[dbus.ObjectPath]map[string]map[string]dbus.Variant) []Device {
	var devices []Device
	for path, ifaces := range objects {
		props, ok := ifaces[deviceIface]
		if !ok {
			continue
		}
		addr := addressFromPath(adapter, path)
		if addr == "" {
			continue
		}
		if paired, _ := props["Paired"].Value().(bool); !paired {
			continue
		}

		d := Device{Address: addr}
		if v, ok := props["Address"].Value().(string); ok {
			d.Address = v
		}
		d.Name, _ = props["Alias"].Value().(string)
		if d.Name == "" {
			d.Name, _ = props["Name"].Value().(string)
		}
		d.Class, _ = props["Class"].Value().(uint32)
		devices = append(devices, d)
	}

	slices.SortFunc(devices, func(a, b Device) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Address, b.Address)
	})
	return devices
}
