package rimage

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
)

// DrawFilledCircle paints a solid circle centered on p into the context.
func DrawFilledCircle(dc *gg.Context, p image.Point, radius float64, c color.Color) {
	dc.SetColor(c)
	dc.DrawCircle(float64(p.X), float64(p.Y), radius)
	dc.Fill()
}

// DrawRectangleEmpty draws the given rectangle into the context. The positions of the
// rectangle are used to place it within the context.
func DrawRectangleEmpty(dc *gg.Context, r image.Rectangle, c color.Color, width float64) {
	dc.SetColor(c)
	dc.SetLineWidth(width)
	dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
	dc.Stroke()
}

// Overlay returns a copy of img with draw applied to it.
func Overlay(img image.Image, draw func(dc *gg.Context)) image.Image {
	dc := gg.NewContextForImage(img)
	draw(dc)
	return dc.Image()
}
