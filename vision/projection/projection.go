// Package projection attaches physical positions to blocks found in a color frame.
package projection

import (
	"context"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"

	"go.viam.com/blockpointing/logging"
	"go.viam.com/blockpointing/vision"
)

// DefaultWindowRadius is the half width of the square searched around each block center.
const DefaultWindowRadius = 10

// A PointMap holds one mapped value per color pixel. Entries without a mapping have at least one
// non-finite axis.
type PointMap interface {
	Width() int
	Height() int
	At(x, y int) r3.Vector
}

// Projector finds, for every block, the first valid mapped point near its pixel center.
type Projector struct {
	// WindowRadius is the half width N of the (2N+1)x(2N+1) search window.
	WindowRadius int
	// Space selects whether the map holds camera space points or depth space values.
	Space  vision.Space
	Logger logging.Logger
}

// NewProjector returns a projector with the given window and output space.
func NewProjector(windowRadius int, space vision.Space, logger logging.Logger) (*Projector, error) {
	if windowRadius < 0 {
		return nil, errors.Errorf("window radius must not be negative, got %d", windowRadius)
	}
	if space != vision.CameraSpace && space != vision.DepthSpace {
		return nil, errors.Errorf("unknown projection space %v", space)
	}
	return &Projector{WindowRadius: windowRadius, Space: space, Logger: logger}, nil
}

// Project sets the Position of every block. A block whose window holds no valid entry gets an
// all zero position; that is not an error and does not affect the other blocks.
func (p *Projector) Project(ctx context.Context, blocks []*vision.Block, pm PointMap) {
	_, span := trace.StartSpan(ctx, "projection::Project")
	defer span.End()

	for _, b := range blocks {
		pt, found := FindValidPoint(pm, b.PixelCenter.X, b.PixelCenter.Y, p.WindowRadius)
		if !found && p.Logger != nil {
			p.Logger.Debugw("no valid mapping near block, using zero position",
				"id", b.ID, "center", b.PixelCenter, "window_radius", p.WindowRadius)
		}
		pos := vision.Position{Space: p.Space, Point: pt}
		if p.Space == vision.DepthSpace {
			pos.Point = r3.Vector{Z: pt.Z}
		}
		b.Position = &pos
	}
}

// FindValidPoint scans the square of half width radius around (cx, cy) row by row, left to
// right, and returns the first entry whose axes are all finite. Entries outside the map are
// never read. When nothing valid is found the zero vector is returned with false.
func FindValidPoint(pm PointMap, cx, cy, radius int) (r3.Vector, bool) {
	width, height := pm.Width(), pm.Height()
	for y := cy - radius; y <= cy+radius; y++ {
		if y < 0 || y >= height {
			continue
		}
		for x := cx - radius; x <= cx+radius; x++ {
			if x < 0 || x >= width {
				continue
			}
			if v := pm.At(x, y); isFinite(v) {
				return v, true
			}
		}
	}
	return r3.Vector{}, false
}

func isFinite(v r3.Vector) bool {
	for _, f := range []float64{v.X, v.Y, v.Z} {
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return false
		}
	}
	return true
}
