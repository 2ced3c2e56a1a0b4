package main

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"

	"go.viam.com/blockpointing/rimage"
	"go.viam.com/blockpointing/vision"
)

const markerRadius = 8

// annotate outlines every block center with a square and a dot in the inverse of its color.
func annotate(img image.Image, blocks []*vision.Block) image.Image {
	return rimage.Overlay(img, func(dc *gg.Context) {
		for _, b := range blocks {
			inverse := color.RGBA{255 - b.Color.R, 255 - b.Color.G, 255 - b.Color.B, 255}
			box := image.Rect(
				b.PixelCenter.X-markerRadius, b.PixelCenter.Y-markerRadius,
				b.PixelCenter.X+markerRadius, b.PixelCenter.Y+markerRadius,
			)
			rimage.DrawRectangleEmpty(dc, box, inverse, 2)
			rimage.DrawFilledCircle(dc, b.PixelCenter, 2, inverse)
		}
	})
}
