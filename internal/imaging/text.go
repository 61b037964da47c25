package imaging

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// DPI matches the print head so point sizes come out true to size
const DPI = 203

type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

// TextOptions configures text rendering
type TextOptions struct {
	FontSize      float64 // points; 0 means 10
	Orientation   Orientation
	Invert        bool // white text on black
	WordBreakOnly bool // break lines at spaces only, unless a word cannot fit
	Margin        int  // dots kept clear on the left and right
}

// RenderText draws text centred on a width x height canvas, wrapping lines
// to fit. Vertical text is laid out on the rotated canvas and turned
// clockwise.
func RenderText(text string, width, height int, opts TextOptions) (image.Image, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	if opts.FontSize <= 0 {
		opts.FontSize = 10
	}
	if opts.Margin <= 0 {
		opts.Margin = 5
	}

	renderW, renderH := width, height
	if opts.Orientation == Vertical {
		renderW, renderH = height, width
	}

	bg, fg := color.Color(color.White), color.Color(color.Black)
	if opts.Invert {
		bg, fg = fg, bg
	}

	img := image.NewRGBA(image.Rect(0, 0, renderW, renderH))
	draw.Draw(img, img.Bounds(), &image.Uniform{bg}, image.Point{}, draw.Src)

	c := freetype.NewContext()
	c.SetDPI(DPI)
	c.SetFont(f)
	c.SetFontSize(opts.FontSize)
	c.SetClip(img.Bounds())
	c.SetDst(img)
	c.SetSrc(&image.Uniform{fg})
	c.SetHinting(font.HintingFull)

	face := truetype.NewFace(f, &truetype.Options{Size: opts.FontSize, DPI: DPI})
	defer face.Close()
	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil()

	maxWidth := renderW - 2*opts.Margin
	var lines []string
	if opts.WordBreakOnly {
		lines = wrapWords(text, face, maxWidth)
	} else {
		lines = wrapRunes(text, face, maxWidth)
	}

	y := (renderH-len(lines)*lineHeight)/2 + metrics.Ascent.Ceil()
	for _, line := range lines {
		x := (renderW - measure(face, line)) / 2
		if _, err := c.DrawString(line, freetype.Pt(x, y)); err != nil {
			return nil, err
		}
		y += lineHeight
	}

	if opts.Orientation == Vertical {
		return rotate90CW(img), nil
	}
	return img, nil
}

// wrapRunes breaks anywhere a line would overflow
func wrapRunes(text string, face font.Face, maxWidth int) []string {
	var lines []string
	var line string

	for _, r := range text {
		if r == '\n' {
			lines = append(lines, line)
			line = ""
			continue
		}
		next := line + string(r)
		if measure(face, next) > maxWidth && line != "" {
			lines = append(lines, line)
			line = string(r)
		} else {
			line = next
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// wrapWords breaks at spaces and only splits words wider than a line
func wrapWords(text string, face font.Face, maxWidth int) []string {
	var lines []string

	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}

		var line string
		for _, word := range words {
			next := word
			if line != "" {
				next = line + " " + word
			}
			if measure(face, next) <= maxWidth {
				line = next
				continue
			}
			if line != "" {
				lines = append(lines, line)
			}
			line = word
			if measure(face, word) > maxWidth {
				parts := wrapRunes(word, face, maxWidth)
				lines = append(lines, parts[:len(parts)-1]...)
				line = parts[len(parts)-1]
			}
		}
		lines = append(lines, line)
	}
	return lines
}

// measure returns the advance width of s in pixels
func measure(face font.Face, s string) int {
	var width fixed.Int26_6
	for _, r := range s {
		if adv, ok := face.GlyphAdvance(r); ok {
			width += adv
		}
	}
	return width.Ceil()
}

func rotate90CW(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	dst := image.NewRGBA(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.Set(h-1-y, x, src.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}
