//go:build !linux && !windows

package printer

func dialRFCOMM(string, int, func(string)) (Link, error) {
	return nil, ErrNotSupported
}

// LinkedPorts has nothing to report on this platform
func LinkedPorts() ([]string, error) {
	return nil, nil
}
