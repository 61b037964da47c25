package main

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"receipt-print/internal/bluez"
	"receipt-print/internal/config"
	"receipt-print/internal/imaging"
	"receipt-print/internal/printer"
	"receipt-print/internal/session"
	"receipt-print/internal/tspl"
)

// grace is added to the status timeout before giving up on an answer
const grace = 2 * time.Second

func devicesCommand() *cli.Command {
	return &cli.Command{
		Name:  "devices",
		Usage: "List paired Bluetooth printers and serial ports.",
		Action: func(cliCtx *cli.Context) error {
			c := clientFrom(cliCtx)

			radio, err := bluez.Open(c.cfg.Values.Adapter)
			if err != nil {
				printWarn(err.Error())
			} else {
				defer radio.Close()
				if !radio.Enabled() {
					printWarn("bluetooth adapter " + c.cfg.Values.Adapter + " is powered off")
				}
				devices, err := radio.PairedDevices()
				if err != nil {
					printWarn(err.Error())
				}
				fmt.Fprintln(c.out, "Paired devices:")
				for _, d := range devices {
					mark := " "
					if d.IsPrinter() {
						mark = "*"
					}
					fmt.Fprintf(c.out, "%s %s  %s\n", mark, d.Address, d.Name)
				}
			}

			ports, err := printer.ListPorts()
			if err != nil {
				printWarn(err.Error())
			}
			fmt.Fprintln(c.out, "Serial ports:")
			for _, p := range ports {
				fmt.Fprintln(c.out, "- "+p)
			}
			return nil
		},
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Connect to the printer and show its state.",
		Action: func(cliCtx *cli.Context) error {
			c := clientFrom(cliCtx)
			if err := c.open(); err != nil {
				return err
			}
			defer c.close()

			ev, err := c.await(session.EventDeviceStatus, c.cfg.Values.StatusTimeout()+grace, func() error {
				c.mgr.QueryStatus()
				return nil
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(c.out, "%s: %s\n", c.cfg.Values.Descriptor(), ev.Status)
			if !ev.Status.Ready() {
				return errors.New("printer not ready")
			}
			return nil
		},
	}
}

func printCommand() *cli.Command {
	return &cli.Command{
		Name:  "print",
		Usage: "Send a job to the printer.",
		Subcommands: []*cli.Command{
			{
				Name:      "text",
				Usage:     "Print text, rendered to fit the label.",
				ArgsUsage: "TEXT...",
				Flags: []cli.Flag{
					copiesFlag(), invertFlag(),
					&cli.Float64Flag{Name: "font-size", Aliases: []string{"s"}, Usage: "Font size in points, 0 fits the default."},
					&cli.BoolFlag{Name: "vertical", Usage: "Run the text along the label."},
					&cli.BoolFlag{Name: "word-wrap", Aliases: []string{"w"}, Usage: "Break lines at spaces only."},
					&cli.BoolFlag{Name: "builtin-font", Usage: "Use the printer's font instead of rendering a bitmap."},
				},
				Action: func(cliCtx *cli.Context) error {
					text := strings.Join(cliCtx.Args().Slice(), " ")
					if text == "" {
						return errors.New("nothing to print")
					}
					v := clientFrom(cliCtx).cfg.Values

					if cliCtx.Bool("builtin-font") {
						return send(cliCtx, tspl.BuildTextJob(v.LabelSize(), v.Density, strings.Split(text, "\n"), cliCtx.Int("copies")))
					}

					orientation := imaging.Horizontal
					if cliCtx.Bool("vertical") {
						orientation = imaging.Vertical
					}
					job, err := textJob(v, text, imaging.TextOptions{
						FontSize:      cliCtx.Float64("font-size"),
						Orientation:   orientation,
						Invert:        cliCtx.Bool("invert"),
						WordBreakOnly: cliCtx.Bool("word-wrap"),
						Margin:        8,
					}, cliCtx.Int("copies"))
					if err != nil {
						return err
					}
					return send(cliCtx, job)
				},
			},
			{
				Name:      "image",
				Usage:     "Print an image scaled to fit the label.",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					copiesFlag(), invertFlag(),
					&cli.UintFlag{Name: "threshold", Value: uint(imaging.DefaultThreshold), Usage: "Gray level below which a pixel prints, 0-255."},
				},
				Action: func(cliCtx *cli.Context) error {
					if cliCtx.NArg() != 1 {
						return errors.New("want exactly one image file")
					}
					if cliCtx.Uint("threshold") > 255 {
						return fmt.Errorf("threshold %d: must be 0-255", cliCtx.Uint("threshold"))
					}
					img, err := imaging.LoadImage(cliCtx.Args().First())
					if err != nil {
						return err
					}
					v := clientFrom(cliCtx).cfg.Values
					job := imageJob(v, img, uint8(cliCtx.Uint("threshold")), cliCtx.Bool("invert"), cliCtx.Int("copies"))
					return send(cliCtx, job)
				},
			},
			{
				Name:      "raw",
				Usage:     "Send a file, or standard input, to the printer unchanged.",
				ArgsUsage: "[FILE]",
				Action: func(cliCtx *cli.Context) error {
					var r io.Reader = os.Stdin
					if path := cliCtx.Args().First(); path != "" && path != "-" {
						f, err := os.Open(path)
						if err != nil {
							return err
						}
						defer f.Close()
						r = f
					}
					payload, err := io.ReadAll(r)
					if err != nil {
						return fmt.Errorf("read job: %w", err)
					}
					if len(payload) == 0 {
						return errors.New("nothing to print")
					}
					return send(cliCtx, payload)
				},
			},
		},
	}
}

func copiesFlag() cli.Flag {
	return &cli.IntFlag{
		Name:    "copies",
		Aliases: []string{"n"},
		Value:   1,
		Usage:   "Number of labels to print.",
	}
}

func invertFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "invert",
		Usage: "Print white on black.",
	}
}

// imageJob builds a bitmap job for img. TSPL bitmaps mark ink with 0 bits.
func imageJob(v config.Values, img image.Image, threshold uint8, invert bool, copies int) []byte {
	size := v.LabelSize()
	bm := imaging.ToMonochrome(img, size.PixelW, size.PixelH, threshold, !invert)
	return tspl.BuildPrintJob(size, v.Density, bm.Data, copies)
}

func textJob(v config.Values, text string, opts imaging.TextOptions, copies int) ([]byte, error) {
	size := v.LabelSize()
	img, err := imaging.RenderText(text, size.PixelW, size.PixelH, opts)
	if err != nil {
		return nil, err
	}
	return imageJob(v, img, imaging.DefaultThreshold, false, copies), nil
}

// send prints payload and waits for the printer's answer
func send(cliCtx *cli.Context, payload []byte) error {
	c := clientFrom(cliCtx)
	if err := c.open(); err != nil {
		return err
	}
	defer c.close()

	ev, err := c.await(session.EventCommandResponse, grace, func() error {
		if !c.mgr.Print(payload) {
			return errors.New("print failed: printer unreachable")
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !ev.Result.OK() {
		return &session.ResultError{Op: "print", Code: ev.Result}
	}
	c.log.Info("job sent", "bytes", len(payload))
	return nil
}
