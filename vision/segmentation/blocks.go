package segmentation

import (
	"image"

	"github.com/samber/lo"

	"go.viam.com/blockpointing/rimage"
	"go.viam.com/blockpointing/vision"
)

// DefaultMinBlockArea is the contour area at or below which a region is treated as noise.
const DefaultMinBlockArea = 100.0

// BlockConfig tunes ExtractBlocks.
type BlockConfig struct {
	MinArea float64 `json:"min_block_area"`
}

func (cfg BlockConfig) minArea() float64 {
	if cfg.MinArea <= 0 {
		return DefaultMinBlockArea
	}
	return cfg.MinArea
}

// FilterSmallAreaContours keeps the contours whose area is strictly above minArea, in order.
func FilterSmallAreaContours(contours []rimage.Contour, minArea float64) []rimage.Contour {
	return lo.Filter(contours, func(c rimage.Contour, _ int) bool {
		return c.Area() > minArea
	})
}

// ExtractBlocks turns every large enough region of the candidate mask into a block, sampling its
// color from img at the region's centroid. Ids follow contour discovery order starting at 1.
// No surviving region is a valid, empty result.
func ExtractBlocks(candidates *rimage.Mask, img image.Image, cfg BlockConfig) []*vision.Block {
	contours := FilterSmallAreaContours(rimage.FindExternalContours(candidates), cfg.minArea())
	bounds := img.Bounds()
	raster := image.Rect(0, 0, bounds.Dx(), bounds.Dy())

	blocks := make([]*vision.Block, 0, len(contours))
	for i, c := range contours {
		center := clampToRaster(c.Moments().Centroid(), raster)
		color := rimage.SampleColor(img, center.Add(bounds.Min))
		blocks = append(blocks, vision.NewBlock(i+1, center, color))
	}
	return blocks
}

func clampToRaster(p image.Point, r image.Rectangle) image.Point {
	if r.Empty() {
		return image.Point{}
	}
	return image.Point{
		X: lo.Clamp(p.X, r.Min.X, r.Max.X-1),
		Y: lo.Clamp(p.Y, r.Min.Y, r.Max.Y-1),
	}
}
