package segmentation

import (
	"image"

	"github.com/pkg/errors"

	"go.viam.com/blockpointing/rimage"
)

// DefaultErosionSize is the side of the square used to pull the working surface boundary inward.
const DefaultErosionSize = 10

// SurfaceConfig tunes SegmentSurface.
type SurfaceConfig struct {
	ErosionSize int `json:"erosion_size"`
}

func (cfg SurfaceConfig) erosionSize() int {
	if cfg.ErosionSize <= 0 {
		return DefaultErosionSize
	}
	return cfg.ErosionSize
}

// SurfaceResult holds every intermediate mask of a surface segmentation.
type SurfaceResult struct {
	Gray      *image.Gray
	Threshold uint8
	// Background is the set of pixels brighter than the threshold.
	Background *rimage.Mask
	// Filled is Background with interior holes sealed.
	Filled *rimage.Mask
	// Surface is the largest filled region, solid and eroded. Empty when there is no region.
	Surface *rimage.Mask
	// Candidates are foreground pixels strictly inside Surface.
	Candidates *rimage.Mask
}

// SegmentSurface separates the foreground from the working surface of a color frame and returns
// the mask of foreground pixels lying inside the surface.
func SegmentSurface(img image.Image, cfg SurfaceConfig) (*SurfaceResult, error) {
	if img == nil {
		return nil, errors.New("input image is nil")
	}
	gray := rimage.MakeGray(img)
	background, thresh := rimage.OtsuMask(gray)
	filled := rimage.FillHoles(background)

	surface := rimage.NewMask(filled.Width(), filled.Height())
	if largest, ok := LargestContour(rimage.FindExternalContours(filled)); ok {
		var err error
		surface, err = rimage.ErodeSquare(largest.Fill(filled.Width(), filled.Height()), cfg.erosionSize())
		if err != nil {
			return nil, err
		}
	}

	candidates, err := background.Not().And(surface)
	if err != nil {
		return nil, err
	}
	return &SurfaceResult{
		Gray:       gray,
		Threshold:  thresh,
		Background: background,
		Filled:     filled,
		Surface:    surface,
		Candidates: candidates,
	}, nil
}

// LargestContour returns the contour enclosing the most area. The first of several equal
// contours wins.
func LargestContour(contours []rimage.Contour) (rimage.Contour, bool) {
	if len(contours) == 0 {
		return rimage.Contour{}, false
	}
	best := 0
	bestArea := contours[0].Area()
	for i := 1; i < len(contours); i++ {
		if area := contours[i].Area(); area > bestArea {
			best, bestArea = i, area
		}
	}
	return contours[best], true
}
