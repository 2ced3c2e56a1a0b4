package vision

import (
	"fmt"
	"image"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/blockpointing/rimage"
)

// Space names the coordinate system a Position is expressed in.
type Space int

const (
	// CameraSpace positions are 3D points in meters, anchored at the depth sensor.
	CameraSpace Space = iota + 1
	// DepthSpace positions carry only a scalar depth in millimeters.
	DepthSpace
)

func (s Space) String() string {
	switch s {
	case CameraSpace:
		return "camera_space"
	case DepthSpace:
		return "depth_space"
	default:
		return fmt.Sprintf("Space(%d)", int(s))
	}
}

// Position is the physical location attached to a block by projection.
type Position struct {
	Space Space
	// Point is the camera-space location. In DepthSpace only Z is used.
	Point r3.Vector
}

// Depth returns the distance component of the position.
func (p Position) Depth() float64 {
	return p.Point.Z
}

// Block is one object found resting on the working surface during a single detection pass.
type Block struct {
	// ID is unique within the pass it was found in, starting at 1.
	ID          int
	PixelCenter image.Point
	Color       rimage.Color
	// Position is nil until the block is projected.
	Position *Position
}

// NewBlock returns a block with no position yet.
func NewBlock(id int, center image.Point, c rimage.Color) *Block {
	return &Block{ID: id, PixelCenter: center, Color: c}
}

func (b *Block) String() string {
	if b.Position == nil {
		return fmt.Sprintf("block %d at %v %s", b.ID, b.PixelCenter, b.Color.Hex())
	}
	return fmt.Sprintf("block %d at %v %s %s%v", b.ID, b.PixelCenter, b.Color.Hex(), b.Position.Space, b.Position.Point)
}

// BlockRecord is the wire form of a detected block. Every field is a number, ids included.
type BlockRecord struct {
	ID                 float64 `json:"id"`
	CenterX            float64 `json:"center_X"`
	CenterY            float64 `json:"center_Y"`
	CameraSpaceCenterX float64 `json:"camera_space_center_X"`
	CameraSpaceCenterY float64 `json:"camera_space_center_Y"`
	CameraSpaceDepth   float64 `json:"camera_space_depth"`
	RHue               float64 `json:"r_hue"`
	GHue               float64 `json:"g_hue"`
	BHue               float64 `json:"b_hue"`
}

// Record converts the block to its wire form. An unprojected block reports zero for every
// position field.
func (b *Block) Record() BlockRecord {
	rec := BlockRecord{
		ID:      float64(b.ID),
		CenterX: float64(b.PixelCenter.X),
		CenterY: float64(b.PixelCenter.Y),
		RHue:    float64(b.Color.R),
		GHue:    float64(b.Color.G),
		BHue:    float64(b.Color.B),
	}
	if b.Position != nil {
		if b.Position.Space == CameraSpace {
			rec.CameraSpaceCenterX = b.Position.Point.X
			rec.CameraSpaceCenterY = b.Position.Point.Y
		}
		rec.CameraSpaceDepth = b.Position.Depth()
	}
	return rec
}

// BlockID returns the id as an integer.
func (r BlockRecord) BlockID() int {
	return roundToInt(r.ID)
}

// Block rebuilds a block from its wire form. The position is read as camera space.
func (r BlockRecord) Block() *Block {
	return r.BlockIn(CameraSpace)
}

// BlockIn rebuilds a block whose position was projected into space. A DepthSpace record
// keeps only its depth.
func (r BlockRecord) BlockIn(space Space) *Block {
	pos := &Position{Space: space, Point: r3.Vector{Z: r.CameraSpaceDepth}}
	if space == CameraSpace {
		pos.Point.X = r.CameraSpaceCenterX
		pos.Point.Y = r.CameraSpaceCenterY
	}
	return &Block{
		ID:          roundToInt(r.ID),
		PixelCenter: image.Point{roundToInt(r.CenterX), roundToInt(r.CenterY)},
		Color:       rimage.NewColor(clampToByte(r.RHue), clampToByte(r.GHue), clampToByte(r.BHue)),
		Position:    pos,
	}
}

// Validate reports whether the id and pixel center can be read back as integers.
func (r BlockRecord) Validate() error {
	if err := checkWholeNumber("id", r.ID); err != nil {
		return err
	}
	if err := checkWholeNumber("center_X", r.CenterX); err != nil {
		return err
	}
	return checkWholeNumber("center_Y", r.CenterY)
}

// ConfidenceRecord is the wire form of one pointing confidence.
type ConfidenceRecord struct {
	ID         float64 `json:"id"`
	Confidence float64 `json:"confidence"`
}

// BlockID returns the id as an integer.
func (r ConfidenceRecord) BlockID() int {
	return roundToInt(r.ID)
}

// Validate reports whether the id can be read back as an integer.
func (r ConfidenceRecord) Validate() error {
	return checkWholeNumber("id", r.ID)
}

// SelectionRecord is the wire form of the final selection for one block.
type SelectionRecord struct {
	ID              float64 `json:"id"`
	IsSelectedBlock float64 `json:"isSelectedBlock"`
}

func checkWholeNumber(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > math.MaxInt32 {
		return errors.Errorf("%s %v is out of range", field, v)
	}
	return nil
}

func roundToInt(v float64) int {
	return int(math.Round(v))
}

func clampToByte(v float64) uint8 {
	switch {
	case v <= 0 || math.IsNaN(v):
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(math.Round(v))
	}
}
