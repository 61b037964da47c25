// Package config loads receipt-print settings from a config file, the
// environment and command-line flags, later sources overriding earlier ones.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/hjson"
	"github.com/knadh/koanf/providers/cliflagv2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v2"

	"receipt-print/internal/session"
	"receipt-print/internal/tspl"
)

const (
	appName    = "receipt-print"
	configFile = appName + ".conf"
)

// Values holds every setting. Keys match the global flag names.
type Values struct {
	Address         string `koanf:"address"`
	Name            string `koanf:"name"`
	Transport       string `koanf:"transport"`
	PrinterID       int    `koanf:"printer-id"`
	Adapter         string `koanf:"adapter"`
	Channel         int    `koanf:"channel"`
	BaudRate        int    `koanf:"baud-rate"`
	Label           string `koanf:"label"`
	Density         int    `koanf:"density"`
	StatusTimeoutMs int    `koanf:"status-timeout-ms"`
	Resume          bool   `koanf:"resume"`
	LogLevel        string `koanf:"log-level"`
}

// Defaults returns the built-in settings
func Defaults() Values {
	return Values{
		Transport:       "bluetooth",
		Adapter:         "hci0",
		Channel:         1,
		BaudRate:        115200,
		Label:           tspl.Label58x40.Name,
		Density:         8,
		StatusTimeoutMs: int(session.DefaultStatusTimeout / time.Millisecond),
		LogLevel:        "warn",
	}
}

// Config describes the configuration for the app
type Config struct {
	path string

	Values Values
}

// NewConfig returns a configuration holding the defaults
func NewConfig() *Config {
	return &Config{Values: Defaults()}
}

// DefaultPath returns $XDG_CONFIG_HOME/receipt-print/receipt-print.conf,
// falling back to ~/.config
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, appName, configFile)
}

// Path is the file Load read, empty when none was found
func (c *Config) Path() string {
	return c.path
}

// Load merges the defaults, the config file at path (when it exists) and the
// flags set on cliCtx. cliCtx may be nil. An empty path selects DefaultPath.
func (c *Config) Load(k *koanf.Koanf, path string, cliCtx *cli.Context) error {
	if path == "" {
		path = DefaultPath()
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			parser, err := parserFor(path)
			if err != nil {
				return err
			}
			if err := k.Load(file.Provider(path), parser); err != nil {
				return fmt.Errorf("load %s: %w", path, err)
			}
			c.path = path
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat %s: %w", path, err)
		}
	}

	if cliCtx != nil {
		if err := k.Load(cliflagv2.Provider(cliCtx, "."), nil); err != nil {
			return fmt.Errorf("load flags: %w", err)
		}
	}

	return k.UnmarshalWithConf("", &c.Values, koanf.UnmarshalConf{Tag: "koanf"})
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".conf", ".hjson", ".json", "":
		return hjson.Parser(), nil
	case ".yaml", ".yml":
		return yamlParser{}, nil
	}
	return nil, fmt.Errorf("config %s: unsupported file type", path)
}

// Validate checks the loaded values
func (c *Config) Validate() error {
	return c.Values.validate()
}

func (v Values) validate() error {
	var errs []error

	if _, err := session.ParseTransport(v.Transport); err != nil {
		errs = append(errs, err)
	}
	if v.PrinterID < 0 {
		errs = append(errs, fmt.Errorf("printer-id %d: must not be negative", v.PrinterID))
	}
	if v.Channel < 1 || v.Channel > 30 {
		errs = append(errs, fmt.Errorf("channel %d: RFCOMM channels are 1-30", v.Channel))
	}
	if v.BaudRate <= 0 {
		errs = append(errs, fmt.Errorf("baud-rate %d: must be positive", v.BaudRate))
	}
	if _, err := tspl.ParseLabelSize(v.Label); err != nil {
		errs = append(errs, err)
	}
	if v.Density < 0 || v.Density > 15 {
		errs = append(errs, fmt.Errorf("density %d: must be 0-15", v.Density))
	}
	if v.StatusTimeoutMs <= 0 {
		errs = append(errs, fmt.Errorf("status-timeout-ms %d: must be positive", v.StatusTimeoutMs))
	}
	if _, err := parseLevel(v.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Descriptor builds the target printer from the values, or nil when no
// address is configured
func (v Values) Descriptor() *session.Descriptor {
	if v.Address == "" {
		return nil
	}
	t, err := session.ParseTransport(v.Transport)
	if err != nil {
		t = session.TransportBluetooth
	}
	return &session.Descriptor{Name: v.Name, Address: v.Address, ID: v.PrinterID, Transport: t}
}

// LabelSize returns the parsed label size, defaulting on error
func (v Values) LabelSize() tspl.LabelSize {
	s, err := tspl.ParseLabelSize(v.Label)
	if err != nil {
		return tspl.Label58x40
	}
	return s
}

// StatusTimeout returns the status query budget
func (v Values) StatusTimeout() time.Duration {
	return time.Duration(v.StatusTimeoutMs) * time.Millisecond
}

// Level returns the slog level for LogLevel
func (v Values) Level() slog.Level {
	l, _ := parseLevel(v.LogLevel)
	return l
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelWarn, fmt.Errorf("log-level %q: want debug, info, warn or error", s)
	}
	return l, nil
}
