package rimage

import (
	"image"
	"image/draw"
)

// SameImgSize compares images to see if they're the same size.
func SameImgSize(g1, g2 image.Image) bool {
	if (g1.Bounds().Dx() != g2.Bounds().Dx()) || (g1.Bounds().Dy() != g2.Bounds().Dy()) {
		return false
	}
	return true
}

// MakeGray converts any image to an 8-bit grayscale image anchored at the origin. Alpha is
// ignored for the common RGBA/NRGBA frame formats.
func MakeGray(pic image.Image) *image.Gray {
	bounds := pic.Bounds()
	result := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	switch src := pic.(type) {
	case *image.Gray:
		draw.Draw(result, result.Bounds(), src, bounds.Min, draw.Src)
	case *image.RGBA, *image.NRGBA:
		for y := 0; y < bounds.Dy(); y++ {
			for x := 0; x < bounds.Dx(); x++ {
				c := SampleColor(pic, image.Point{bounds.Min.X + x, bounds.Min.Y + y})
				result.Pix[result.PixOffset(x, y)] = c.Luminance()
			}
		}
	default:
		draw.Draw(result, result.Bounds(), pic, bounds.Min, draw.Src)
	}
	return result
}
