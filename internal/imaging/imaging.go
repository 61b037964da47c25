// Package imaging turns images and text into 1-bit bitmaps for label
// printers.
package imaging

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// DefaultThreshold separates dark from light pixels
const DefaultThreshold = 128

// Bitmap is a packed 1-bit image, MSB first, one bit set per dark dot
type Bitmap struct {
	Width  int // dots, multiple of 8
	Height int
	Data   []byte
}

// Stride is the number of bytes per row
func (b Bitmap) Stride() int {
	return b.Width / 8
}

// At reports whether the dot at (x, y) is set
func (b Bitmap) At(x, y int) bool {
	idx := y*b.Stride() + x/8
	return b.Data[idx]>>(7-uint(x%8))&1 == 1
}

// LoadImage loads an image from file
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads any registered image format
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// ToMonochrome fits img into width x height and thresholds it.
// Pixels darker than threshold become set bits; invert flips every bit.
// width must be a multiple of 8.
func ToMonochrome(img image.Image, width, height int, threshold uint8, invert bool) Bitmap {
	resized := resizeToFit(img, width, height)
	rb := resized.Bounds()

	bm := Bitmap{Width: width, Height: height, Data: make([]byte, width/8*height)}
	stride := bm.Stride()

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gray := uint8(255) // outside the fitted image is paper
			if x < rb.Dx() && y < rb.Dy() {
				gray = rgbToGray(resized.At(rb.Min.X+x, rb.Min.Y+y))
			}

			dark := gray < threshold
			if dark != invert {
				bm.Data[y*stride+x/8] |= 1 << (7 - uint(x%8))
			}
		}
	}
	return bm
}

// rgbToGray applies the Rec. 601 luma weights
func rgbToGray(c color.Color) uint8 {
	r, g, b, _ := c.RGBA()
	gray := (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 256
	return uint8(gray)
}

// resizeToFit scales img to fit within maxW x maxH keeping its aspect ratio.
// Nearest-neighbour is enough for thermal heads.
func resizeToFit(img image.Image, maxW, maxH int) image.Image {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}

	scale := min(float64(maxW)/float64(srcW), float64(maxH)/float64(srcH))
	newW := max(int(float64(srcW)*scale), 1)
	newH := max(int(float64(srcH)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	for y := 0; y < newH; y++ {
		for x := 0; x < newW; x++ {
			srcX := min(int(float64(x)/scale), srcW-1)
			srcY := min(int(float64(y)/scale), srcH-1)
			dst.Set(x, y, img.At(bounds.Min.X+srcX, bounds.Min.Y+srcY))
		}
	}
	return dst
}
