//go:build linux

package printer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const maxRFCOMMDevices = 10

// rfcommLink is a running `rfcomm connect` process and its device node
type rfcommLink struct {
	devicePath string
	mac        string
	cmd        *exec.Cmd
	cancel     context.CancelFunc
	mu         sync.Mutex
}

func (l *rfcommLink) DevicePath() string { return l.devicePath }

// Ready checks that the device node still exists
func (l *rfcommLink) Ready() bool {
	if l.devicePath == "" {
		return false
	}
	_, err := os.Stat(l.devicePath)
	return err == nil
}

// Close stops the rfcomm process and releases the device node
func (l *rfcommLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}

	if l.devicePath != "" {
		if cmd := privileged("rfcomm", "release", l.devicePath); cmd != nil {
			cmd.Run()
		}
	}

	if l.cmd != nil && l.cmd.Process != nil {
		l.cmd.Process.Kill()
		l.cmd.Wait()
		l.cmd = nil
	}
	return nil
}

func validMAC(addr string) bool {
	hw, err := net.ParseMAC(addr)
	return err == nil && len(hw) == 6 && strings.Count(addr, ":") == 5
}

// freeRFCOMMDevice finds an unbound /dev/rfcommN slot
func freeRFCOMMDevice() (string, int, error) {
	for i := 0; i < maxRFCOMMDevices; i++ {
		devPath := fmt.Sprintf("/dev/rfcomm%d", i)
		out, _ := exec.Command("rfcomm", "show", devPath).Output()
		if len(out) == 0 || strings.Contains(string(out), "No such device") {
			return devPath, i, nil
		}
	}
	return "", -1, fmt.Errorf("no available RFCOMM device slots")
}

// privilegeHelper picks pkexec when a PolicyKit agent can prompt, else sudo
func privilegeHelper() string {
	if _, err := exec.LookPath("pkexec"); err == nil {
		return "pkexec"
	}
	if _, err := exec.LookPath("sudo"); err == nil {
		return "sudo"
	}
	return ""
}

func privileged(name string, args ...string) *exec.Cmd {
	return privilegedContext(context.Background(), name, args...)
}

func privilegedContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	switch privilegeHelper() {
	case "pkexec":
		return exec.CommandContext(ctx, "pkexec", append([]string{name}, args...)...)
	case "sudo":
		return exec.CommandContext(ctx, "sudo", append([]string{"-n", name}, args...)...)
	}
	return nil
}

// dialRFCOMM runs `rfcomm connect` in the background and returns once the
// device node appears
func dialRFCOMM(mac string, channel int, status func(string)) (Link, error) {
	if !validMAC(mac) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, mac)
	}
	if _, err := exec.LookPath("rfcomm"); err != nil {
		return nil, fmt.Errorf("%w: rfcomm not found - install bluez", ErrRFCOMMFailed)
	}
	if status == nil {
		status = func(string) {}
	}

	devPath, devNum, err := freeRFCOMMDevice()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRFCOMMFailed, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := privilegedContext(ctx, "rfcomm", "connect", devPath, mac, strconv.Itoa(channel))
	if cmd == nil {
		cancel()
		return nil, ErrPrivilegeRequired
	}

	link := &rfcommLink{
		devicePath: devPath,
		mac:        mac,
		cmd:        cmd,
		cancel:     cancel,
	}

	stderr, _ := cmd.StderrPipe()
	stdout, _ := cmd.StdoutPipe()

	status(fmt.Sprintf("Connecting to %s on rfcomm%d...", mac, devNum))
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("%w: start rfcomm: %w", ErrRFCOMMFailed, err)
	}

	for _, r := range []io.Reader{stdout, stderr} {
		if r == nil {
			continue
		}
		go func(r io.Reader) {
			scanner := bufio.NewScanner(r)
			for scanner.Scan() {
				status(scanner.Text())
			}
		}(r)
	}

	deadline := time.Now().Add(linkWait)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return nil, ErrConnectionCanceled
		default:
		}

		if link.Ready() {
			// the node shows up before the channel is usable
			time.Sleep(500 * time.Millisecond)
			status(fmt.Sprintf("Connected: %s", devPath))
			return link, nil
		}
		time.Sleep(500 * time.Millisecond)
	}

	link.Close()
	return nil, fmt.Errorf("%w: timeout waiting for %s", ErrRFCOMMFailed, devPath)
}

// LinkedPorts returns the RFCOMM device nodes currently present
func LinkedPorts() ([]string, error) {
	out, err := exec.Command("rfcomm", "-a").Output()
	if err != nil {
		var devices []string
		for i := 0; i < maxRFCOMMDevices; i++ {
			devPath := fmt.Sprintf("/dev/rfcomm%d", i)
			if _, err := os.Stat(devPath); err == nil {
				devices = append(devices, devPath)
			}
		}
		return devices, nil
	}

	return parseRFCOMMList(string(out)), nil
}

// parseRFCOMMList turns `rfcomm -a` output into device paths
func parseRFCOMMList(out string) []string {
	var devices []string
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, "rfcomm") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) > 0 {
			devices = append(devices, filepath.Join("/dev", strings.TrimSuffix(fields[0], ":")))
		}
	}
	return devices
}
