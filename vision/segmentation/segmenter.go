package segmentation

import (
	"context"
	"image"

	"go.opencensus.io/trace"

	"go.viam.com/blockpointing/vision"
)

// A Segmenter finds the blocks resting on the working surface of a color frame.
type Segmenter struct {
	Surface SurfaceConfig `json:"surface"`
	Blocks  BlockConfig   `json:"blocks"`
}

// Segment runs surface segmentation followed by block extraction. The intermediate masks are
// returned alongside the blocks for debugging.
func (s Segmenter) Segment(ctx context.Context, img image.Image) ([]*vision.Block, *SurfaceResult, error) {
	_, span := trace.StartSpan(ctx, "segmentation::Segment")
	defer span.End()

	surface, err := SegmentSurface(img, s.Surface)
	if err != nil {
		return nil, nil, err
	}
	return ExtractBlocks(surface.Candidates, img, s.Blocks), surface, nil
}
