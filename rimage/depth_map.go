package rimage

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// Depth is the distance reported by a depth sensor for one pixel, in millimeters.
// A zero depth means the sensor produced no reading.
type Depth uint16

// MaxDepth is the largest representable depth.
const MaxDepth = Depth(65535)

// DepthMap is a raster of depths at the depth sensor's native resolution.
type DepthMap struct {
	width  int
	height int

	data []Depth
}

// NewEmptyDepthMap returns a depth map with no readings.
func NewEmptyDepthMap(width, height int) *DepthMap {
	return &DepthMap{
		width:  width,
		height: height,
		data:   make([]Depth, width*height),
	}
}

// NewDepthMapFromSlice wraps raw row-major depths. The slice must hold exactly width*height values.
func NewDepthMapFromSlice(width, height int, data []Depth) (*DepthMap, error) {
	if width < 0 || height < 0 || len(data) != width*height {
		return nil, errors.Errorf("depth data has %d values, expected %dx%d", len(data), width, height)
	}
	return &DepthMap{width: width, height: height, data: data}, nil
}

func (dm *DepthMap) kxy(x, y int) int {
	return (y * dm.width) + x
}

// Width returns the horizontal size of the depth map.
func (dm *DepthMap) Width() int {
	return dm.width
}

// Height returns the vertical size of the depth map.
func (dm *DepthMap) Height() int {
	return dm.height
}

// Bounds returns the raster rectangle of the depth map.
func (dm *DepthMap) Bounds() image.Rectangle {
	return image.Rect(0, 0, dm.width, dm.height)
}

// Contains reports whether (x, y) is inside the raster.
func (dm *DepthMap) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < dm.width && y < dm.height
}

// Get returns the depth at p.
func (dm *DepthMap) Get(p image.Point) Depth {
	return dm.GetDepth(p.X, p.Y)
}

// GetDepth returns the depth at (x, y), or zero outside the raster.
func (dm *DepthMap) GetDepth(x, y int) Depth {
	if !dm.Contains(x, y) {
		return 0
	}
	return dm.data[dm.kxy(x, y)]
}

// Set stores a depth. Out of raster writes are ignored.
func (dm *DepthMap) Set(x, y int, val Depth) {
	if !dm.Contains(x, y) {
		return
	}
	dm.data[dm.kxy(x, y)] = val
}

// Data returns the row-major backing slice.
func (dm *DepthMap) Data() []Depth {
	return dm.data
}

// MinMax returns the smallest and largest non-zero depths. A map without readings returns (0, 0).
func (dm *DepthMap) MinMax() (Depth, Depth) {
	min, max := MaxDepth, Depth(0)
	for _, d := range dm.data {
		if d == 0 {
			continue
		}
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}
	if max == 0 {
		return 0, 0
	}
	return min, max
}

// ConvertImageToDepthMap reads a 16-bit grayscale image as millimeter depths.
func ConvertImageToDepthMap(img image.Image) (*DepthMap, error) {
	switch ii := img.(type) {
	case *DepthMap:
		return ii, nil
	case *image.Gray16:
		bounds := ii.Bounds()
		dm := NewEmptyDepthMap(bounds.Dx(), bounds.Dy())
		for y := 0; y < dm.height; y++ {
			for x := 0; x < dm.width; x++ {
				dm.data[dm.kxy(x, y)] = Depth(ii.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y)
			}
		}
		return dm, nil
	default:
		return nil, errors.Errorf("don't know how to make DepthMap from %T", img)
	}
}

// ColorModel lets a DepthMap be handled as an image.Image.
func (dm *DepthMap) ColorModel() color.Model {
	return color.Gray16Model
}

// At returns the depth as a 16-bit gray color.
func (dm *DepthMap) At(x, y int) color.Color {
	return color.Gray16{uint16(dm.GetDepth(x, y))}
}

// ToGray16Picture converts the depth map into a 16-bit gray image that can be stored as PNG.
func (dm *DepthMap) ToGray16Picture() image.Image {
	img := image.NewGray16(dm.Bounds())
	for y := 0; y < dm.height; y++ {
		for x := 0; x < dm.width; x++ {
			img.SetGray16(x, y, color.Gray16{uint16(dm.data[dm.kxy(x, y)])})
		}
	}
	return img
}
