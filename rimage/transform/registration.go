package transform

import (
	"encoding/json"
	"image"
	"math"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/blockpointing/rimage"
)

// InvalidPoint marks a color pixel with no corresponding depth reading.
var InvalidPoint = r3.Vector{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}

// IsValidPoint reports whether every axis of p is finite.
func IsValidPoint(p r3.Vector) bool {
	return !math.IsInf(p.X, 0) && !math.IsNaN(p.X) &&
		!math.IsInf(p.Y, 0) && !math.IsNaN(p.Y) &&
		!math.IsInf(p.Z, 0) && !math.IsNaN(p.Z)
}

// PointMap holds one 3D value per color pixel. Entries without a mapping hold InvalidPoint.
type PointMap struct {
	width, height int
	points        []r3.Vector
}

// NewPointMap returns a map of the given size with every entry invalid.
func NewPointMap(width, height int) *PointMap {
	pm := &PointMap{width: width, height: height, points: make([]r3.Vector, width*height)}
	for i := range pm.points {
		pm.points[i] = InvalidPoint
	}
	return pm
}

// Width returns the horizontal size of the map.
func (pm *PointMap) Width() int {
	return pm.width
}

// Height returns the vertical size of the map.
func (pm *PointMap) Height() int {
	return pm.height
}

// At returns the entry at (x, y). Callers must stay inside the map.
func (pm *PointMap) At(x, y int) r3.Vector {
	return pm.points[y*pm.width+x]
}

// Set stores an entry. Out of range writes are ignored.
func (pm *PointMap) Set(x, y int, p r3.Vector) {
	if x < 0 || y < 0 || x >= pm.width || y >= pm.height {
		return
	}
	pm.points[y*pm.width+x] = p
}

// ValidCount returns how many entries carry a mapping.
func (pm *PointMap) ValidCount() int {
	n := 0
	for _, p := range pm.points {
		if IsValidPoint(p) {
			n++
		}
	}
	return n
}

// DepthColorRegistration relates a depth sensor to a color sensor of a different resolution.
// Extrinsics take a point from the depth sensor's frame to the color sensor's frame.
type DepthColorRegistration struct {
	ColorCamera PinholeCameraIntrinsics `json:"color_intrinsic_parameters"`
	DepthCamera PinholeCameraIntrinsics `json:"depth_intrinsic_parameters"`
	Extrinsics  *Extrinsics             `json:"extrinsic_parameters"`
}

// NewDepthColorRegistrationFromJSONFile reads the registration parameters from a JSON file.
func NewDepthColorRegistrationFromJSONFile(jsonPath string) (*DepthColorRegistration, error) {
	//nolint:gosec
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, errors.Wrap(err, "error opening JSON file")
	}
	reg := &DepthColorRegistration{}
	if err := json.Unmarshal(data, reg); err != nil {
		return nil, errors.Wrap(err, "error parsing JSON string")
	}
	return reg, reg.CheckValid()
}

// CheckValid checks both cameras and the transform between them.
func (r *DepthColorRegistration) CheckValid() error {
	if r == nil {
		return NewNoIntrinsicsError("registration does not exist")
	}
	if err := r.ColorCamera.CheckValid(); err != nil {
		return errors.Wrap(err, "color camera")
	}
	if err := r.DepthCamera.CheckValid(); err != nil {
		return errors.Wrap(err, "depth camera")
	}
	if r.Extrinsics == nil {
		return nil
	}
	return r.Extrinsics.CheckValid()
}

func (r *DepthColorRegistration) extrinsics() *Extrinsics {
	if r.Extrinsics == nil {
		return IdentityExtrinsics()
	}
	return r.Extrinsics
}

// forEachRegisteredPixel walks every depth reading and calls fn with the depth pixel, the point in
// the depth sensor's frame, and the color pixel the point lands on. A color pixel already mapped
// is reported again only for a nearer reading, so the nearest reading is always reported last.
func (r *DepthColorRegistration) forEachRegisteredPixel(
	dm *rimage.DepthMap,
	fn func(depthPx image.Point, d rimage.Depth, p r3.Vector, colorPx image.Point),
) error {
	if err := r.CheckValid(); err != nil {
		return err
	}
	if dm.Width() != r.DepthCamera.Width || dm.Height() != r.DepthCamera.Height {
		return errors.Errorf("depth map and intrinsics don't match DepthMap(%d,%d) != Intrinsics(%d,%d)",
			dm.Width(), dm.Height(), r.DepthCamera.Width, r.DepthCamera.Height)
	}
	ext := r.extrinsics()
	nearest := make([]float64, r.ColorCamera.Width*r.ColorCamera.Height)
	for y := 0; y < dm.Height(); y++ {
		for x := 0; x < dm.Width(); x++ {
			d := dm.GetDepth(x, y)
			if d == 0 {
				continue
			}
			px, py, pz := r.DepthCamera.PixelToPoint(float64(x), float64(y), float64(d)/1000)
			inColor := ext.TransformPointToPoint(px, py, pz)
			if inColor.Z <= 0 {
				continue
			}
			cx, cy := r.ColorCamera.PointToPixel(inColor.X, inColor.Y, inColor.Z)
			// floor so points left of or above the raster never wrap onto row or column 0
			colorPx := image.Point{int(math.Floor(cx)), int(math.Floor(cy))}
			if !colorPx.In(r.ColorCamera.Bounds()) {
				continue
			}
			k := colorPx.Y*r.ColorCamera.Width + colorPx.X
			if nearest[k] != 0 && nearest[k] <= inColor.Z {
				continue
			}
			nearest[k] = inColor.Z
			fn(image.Point{x, y}, d, r3.Vector{X: px, Y: py, Z: pz}, colorPx)
		}
	}
	return nil
}

// MapColorFrameToCameraSpace returns, for every color pixel, the 3D point in the depth sensor's
// frame (meters) that projects onto it. Color pixels no depth reading lands on hold InvalidPoint.
func (r *DepthColorRegistration) MapColorFrameToCameraSpace(dm *rimage.DepthMap) (*PointMap, error) {
	pm := NewPointMap(r.ColorCamera.Width, r.ColorCamera.Height)
	err := r.forEachRegisteredPixel(dm, func(_ image.Point, _ rimage.Depth, p r3.Vector, colorPx image.Point) {
		pm.Set(colorPx.X, colorPx.Y, p)
	})
	if err != nil {
		return nil, err
	}
	return pm, nil
}

// MapColorFrameToDepthSpace returns, for every color pixel, the depth pixel that projects onto it
// as (x, y) with the raw depth in millimeters as z. Unmapped color pixels hold InvalidPoint.
func (r *DepthColorRegistration) MapColorFrameToDepthSpace(dm *rimage.DepthMap) (*PointMap, error) {
	pm := NewPointMap(r.ColorCamera.Width, r.ColorCamera.Height)
	err := r.forEachRegisteredPixel(dm, func(depthPx image.Point, d rimage.Depth, _ r3.Vector, colorPx image.Point) {
		pm.Set(colorPx.X, colorPx.Y, r3.Vector{X: float64(depthPx.X), Y: float64(depthPx.Y), Z: float64(d)})
	})
	if err != nil {
		return nil, err
	}
	return pm, nil
}

// MapCameraPointToColorSpace projects a point in the depth sensor's frame onto the color raster.
func (r *DepthColorRegistration) MapCameraPointToColorSpace(p r3.Vector) (float64, float64) {
	inColor := r.extrinsics().TransformPointToPoint(p.X, p.Y, p.Z)
	return r.ColorCamera.PointToPixel(inColor.X, inColor.Y, inColor.Z)
}
