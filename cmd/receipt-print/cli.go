package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v2"

	"receipt-print/internal/config"
)

// These values are set at compile-time.
var (
	Version  = ""
	Revision = ""
)

const appKey = "app"

// newApp returns a new commandline application.
func newApp() *cli.App {
	cli.VersionPrinter = func(cCtx *cli.Context) {
		fmt.Fprintf(cCtx.App.Writer, "%s (%s)\n", Version, Revision)
	}

	return &cli.App{
		Name:                   "receipt-print",
		Usage:                  "Receipt and label printer client.",
		Version:                Version + " (" + Revision + ")",
		Description:            "Connects to a TSPL receipt printer over Bluetooth or serial and prints text, images or raw jobs.",
		Compiled:               time.Now(),
		EnableBashCompletion:   true,
		UseShortOptionHandling: true,
		Suggest:                true,
		Flags:                  globalFlags(),
		Before:                 setup,
		Commands: []*cli.Command{
			devicesCommand(),
			statusCommand(),
			printCommand(),
		},
		ExitErrHandler: func(_ *cli.Context, err error) {
			if err == nil {
				return
			}

			printError(err)
		},
	}
}

// globalFlags lists the flags that map onto config keys. None carry a
// default so that unset flags leave the config file values alone.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			EnvVars: []string{"RECEIPT_PRINT_CONFIG"},
			Usage:   "Read settings from `FILE` (.conf, .hjson, .json or .yaml).",
		},
		&cli.StringFlag{
			Name:    "address",
			Aliases: []string{"a"},
			EnvVars: []string{"RECEIPT_PRINT_ADDRESS"},
			Usage:   "Printer address: a Bluetooth MAC, a COM port or a serial device path.",
		},
		&cli.StringFlag{
			Name:    "name",
			EnvVars: []string{"RECEIPT_PRINT_NAME"},
			Usage:   "Display name for the printer.",
		},
		&cli.StringFlag{
			Name:    "transport",
			Aliases: []string{"t"},
			EnvVars: []string{"RECEIPT_PRINT_TRANSPORT"},
			Usage:   "Transport to the printer: bluetooth or serial.",
		},
		&cli.IntFlag{
			Name:    "printer-id",
			EnvVars: []string{"RECEIPT_PRINT_PRINTER_ID"},
			Usage:   "Printer slot to use.",
		},
		&cli.StringFlag{
			Name:    "adapter",
			EnvVars: []string{"RECEIPT_PRINT_ADAPTER"},
			Usage:   "Bluetooth adapter to check. (For example, hci0)",
		},
		&cli.IntFlag{
			Name:    "channel",
			EnvVars: []string{"RECEIPT_PRINT_CHANNEL"},
			Usage:   "RFCOMM channel of the printer.",
		},
		&cli.IntFlag{
			Name:    "baud-rate",
			EnvVars: []string{"RECEIPT_PRINT_BAUD_RATE"},
			Usage:   "Serial baud rate.",
		},
		&cli.StringFlag{
			Name:    "label",
			Aliases: []string{"l"},
			EnvVars: []string{"RECEIPT_PRINT_LABEL"},
			Usage:   "Label size, WxH in millimetres. (For example, 58x40)",
		},
		&cli.IntFlag{
			Name:    "density",
			Aliases: []string{"d"},
			EnvVars: []string{"RECEIPT_PRINT_DENSITY"},
			Usage:   "Print density, 0-15.",
		},
		&cli.IntFlag{
			Name:    "status-timeout-ms",
			EnvVars: []string{"RECEIPT_PRINT_STATUS_TIMEOUT_MS"},
			Usage:   "How long the printer may take to answer a status query.",
		},
		&cli.BoolFlag{
			Name:    "resume",
			EnvVars: []string{"RECEIPT_PRINT_RESUME"},
			Usage:   "Send a resume command ahead of every job.",
		},
		&cli.StringFlag{
			Name:    "log-level",
			EnvVars: []string{"RECEIPT_PRINT_LOG_LEVEL"},
			Usage:   "Log level: debug, info, warn or error.",
		},
	}
}

// setup loads the configuration and stores the app state for the commands.
func setup(cliCtx *cli.Context) error {
	// required for koanf to merge all global flags under the root namespace.
	name := cliCtx.Command.Name
	cliCtx.Command.Name = "global"

	k, cfg := koanf.New("."), config.NewConfig()
	err := cfg.Load(k, cliCtx.String("config"), cliCtx)
	cliCtx.Command.Name = name
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Values.Level()}))
	if cfg.Path() != "" {
		log.Debug("loaded config", "path", cfg.Path())
	}

	if cliCtx.App.Metadata == nil {
		cliCtx.App.Metadata = map[string]interface{}{}
	}
	cliCtx.App.Metadata[appKey] = newClient(cfg, log, cliCtx.App.Writer)
	return nil
}
