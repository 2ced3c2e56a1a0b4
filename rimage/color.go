package rimage

import (
	"fmt"
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is an 8-bit RGB triple. Alpha is never carried.
type Color struct {
	R, G, B uint8
}

// NewColor returns a Color from red, green and blue components.
func NewColor(r, g, b uint8) Color {
	return Color{r, g, b}
}

// NewColorFromColor converts any color.Color, un-premultiplying when alpha is set.
func NewColorFromColor(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{n.R, n.G, n.B}
}

func (c Color) String() string {
	return fmt.Sprintf("%s (%d,%d,%d)", c.Hex(), c.R, c.G, c.B)
}

// Hex returns the "#rrggbb" form of the color.
func (c Color) Hex() string {
	return c.toColorful().Hex()
}

// RGBA implements color.Color as an opaque color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.RGBA{c.R, c.G, c.B, 255}.RGBA()
}

// Luminance returns the 8-bit gray value using the same weights as color.GrayModel.
func (c Color) Luminance() uint8 {
	r, g, b := uint32(c.R)*0x101, uint32(c.G)*0x101, uint32(c.B)*0x101
	y := (19595*r + 38470*g + 7471*b + 1<<15) >> 24
	return uint8(y)
}

func (c Color) toColorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

// SampleColor reads the color at p straight from the image buffer. Frames coming off a sensor
// often carry a zero alpha channel, so RGBA and NRGBA pixels are read without any alpha
// handling. Other image types go through their color model.
func SampleColor(img image.Image, p image.Point) Color {
	switch src := img.(type) {
	case *image.RGBA:
		i := src.PixOffset(p.X, p.Y)
		return Color{src.Pix[i], src.Pix[i+1], src.Pix[i+2]}
	case *image.NRGBA:
		i := src.PixOffset(p.X, p.Y)
		return Color{src.Pix[i], src.Pix[i+1], src.Pix[i+2]}
	default:
		return NewColorFromColor(img.At(p.X, p.Y))
	}
}
