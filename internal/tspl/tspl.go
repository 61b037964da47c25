package tspl

import (
	"fmt"
	"strconv"
	"strings"
)

// Immediate commands. The printer answers StatusQuery with one status byte.
const (
	StatusQuery = "\x1b!?"
	Resume      = "\x1b!o"
)

// Status byte bits returned for StatusQuery
const (
	StatusHeadOpen  byte = 0x01
	StatusPaperJam  byte = 0x02
	StatusPaperOut  byte = 0x04
	StatusRibbonOut byte = 0x08
	StatusPaused    byte = 0x10
	StatusPrinting  byte = 0x20
	StatusOther     byte = 0x80
)

// DPI is the resolution of the supported 203 dpi print heads
const DPI = 203

// LabelSize represents a label dimension
type LabelSize struct {
	Name   string
	Width  float64 // mm
	Height float64 // mm
	PixelW int     // dots, multiple of 8
	PixelH int     // dots
}

// Common label sizes
var (
	Label40x30 = NewLabelSize(40, 30)
	Label50x30 = NewLabelSize(50, 30)
	Label58x40 = NewLabelSize(58, 40)
	Label80x50 = NewLabelSize(80, 50)
)

var AllSizes = []LabelSize{Label40x30, Label50x30, Label58x40, Label80x50}

// NewLabelSize converts millimetres to dots at DPI, rounding the width down
// to a whole byte
func NewLabelSize(width, height float64) LabelSize {
	w := int(width*DPI/25.4) &^ 7
	h := int(height * DPI / 25.4)
	return LabelSize{
		Name:   fmt.Sprintf("%gx%gmm", width, height),
		Width:  width,
		Height: height,
		PixelW: w,
		PixelH: h,
	}
}

// ParseLabelSize accepts "WxH" or "WxHmm" in millimetres
func ParseLabelSize(s string) (LabelSize, error) {
	dims := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "mm")
	ws, hs, ok := strings.Cut(dims, "x")
	if !ok {
		return LabelSize{}, fmt.Errorf("label size %q: want WxH", s)
	}
	w, err := strconv.ParseFloat(ws, 64)
	if err != nil || w <= 0 {
		return LabelSize{}, fmt.Errorf("label size %q: bad width", s)
	}
	h, err := strconv.ParseFloat(hs, 64)
	if err != nil || h <= 0 {
		return LabelSize{}, fmt.Errorf("label size %q: bad height", s)
	}
	return NewLabelSize(w, h), nil
}

// Command builds TSPL2 commands
type Command struct {
	buf strings.Builder
}

func New() *Command {
	return &Command{}
}

// Size sets label dimensions
func (c *Command) Size(width, height float64) *Command {
	fmt.Fprintf(&c.buf, "SIZE %.1f mm,%.1f mm\r\n", width, height)
	return c
}

// Gap sets gap between labels
func (c *Command) Gap(gap, offset float64) *Command {
	fmt.Fprintf(&c.buf, "GAP %.1f mm,%.1f mm\r\n", gap, offset)
	return c
}

// Direction sets print direction (0 or 1)
func (c *Command) Direction(dir, mirror int) *Command {
	fmt.Fprintf(&c.buf, "DIRECTION %d,%d\r\n", dir, mirror)
	return c
}

// Density sets print darkness, clamped to 0-15
func (c *Command) Density(level int) *Command {
	level = min(max(level, 0), 15)
	fmt.Fprintf(&c.buf, "DENSITY %d\r\n", level)
	return c
}

// CLS clears the image buffer
func (c *Command) CLS() *Command {
	c.buf.WriteString("CLS\r\n")
	return c
}

// Text places a line using one of the printer's built-in fonts.
// Double quotes in s are replaced with the TSPL escape \["].
func (c *Command) Text(x, y int, font string, rotation, xmul, ymul int, s string) *Command {
	s = strings.ReplaceAll(s, `"`, `\["]`)
	fmt.Fprintf(&c.buf, "TEXT %d,%d,\"%s\",%d,%d,%d,\"%s\"\r\n", x, y, font, rotation, xmul, ymul, s)
	return c
}

// Bitmap adds a 1-bit image at (x, y) in dots.
// widthBytes is the row stride; data is MSB-first.
func (c *Command) Bitmap(x, y, widthBytes, height int, data []byte) *Command {
	fmt.Fprintf(&c.buf, "BITMAP %d,%d,%d,%d,1,", x, y, widthBytes, height)
	c.buf.Write(data)
	c.buf.WriteString("\r\n")
	return c
}

// Print prints n copies
func (c *Command) Print(copies int) *Command {
	fmt.Fprintf(&c.buf, "PRINT %d\r\n", max(copies, 1))
	return c
}

// Bytes returns the raw command bytes to send to printer
func (c *Command) Bytes() []byte {
	return []byte(c.buf.String())
}

// String returns the command as a string (for debugging)
func (c *Command) String() string {
	return c.buf.String()
}

func (c *Command) setup(size LabelSize, density int) *Command {
	return c.Size(size.Width, size.Height).
		Gap(2.0, 0).
		Direction(0, 0).
		Density(density).
		CLS()
}

// BuildPrintJob creates a complete bitmap job for one label size
func BuildPrintJob(size LabelSize, density int, bitmap []byte, copies int) []byte {
	return New().setup(size, density).
		Bitmap(0, 0, size.PixelW/8, size.PixelH, bitmap).
		Print(copies).
		Bytes()
}

// BuildTextJob prints lines with the built-in font, one line per row
func BuildTextJob(size LabelSize, density int, lines []string, copies int) []byte {
	const lineHeight = 32
	cmd := New().setup(size, density)
	for i, line := range lines {
		cmd.Text(8, 8+i*lineHeight, "3", 0, 1, 1, line)
	}
	return cmd.Print(copies).Bytes()
}
