package vision

import (
	"encoding/json"
	"image"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/blockpointing/rimage"
)

func TestBlockRecordFields(t *testing.T) {
	b := NewBlock(3, image.Point{25, 40}, rimage.NewColor(255, 7, 77))
	b.Position = &Position{Space: CameraSpace, Point: r3.Vector{X: 0.123, Y: -0.531, Z: 1.5}}

	data, err := json.Marshal(b.Record())
	test.That(t, err, test.ShouldBeNil)

	var fields map[string]float64
	test.That(t, json.Unmarshal(data, &fields), test.ShouldBeNil)
	test.That(t, fields, test.ShouldResemble, map[string]float64{
		"id":                    3,
		"center_X":              25,
		"center_Y":              40,
		"camera_space_center_X": 0.123,
		"camera_space_center_Y": -0.531,
		"camera_space_depth":    1.5,
		"r_hue":                 255,
		"g_hue":                 7,
		"b_hue":                 77,
	})
}

func TestBlockRecordUnprojected(t *testing.T) {
	rec := NewBlock(1, image.Point{1, 2}, rimage.Color{}).Record()
	test.That(t, rec.CameraSpaceCenterX, test.ShouldEqual, 0)
	test.That(t, rec.CameraSpaceCenterY, test.ShouldEqual, 0)
	test.That(t, rec.CameraSpaceDepth, test.ShouldEqual, 0)
}

func TestBlockRecordDepthOnly(t *testing.T) {
	b := NewBlock(1, image.Point{1, 2}, rimage.Color{})
	b.Position = &Position{Space: DepthSpace, Point: r3.Vector{Z: 1234}}
	rec := b.Record()
	test.That(t, rec.CameraSpaceCenterX, test.ShouldEqual, 0)
	test.That(t, rec.CameraSpaceDepth, test.ShouldEqual, 1234)
	test.That(t, b.Position.Depth(), test.ShouldEqual, 1234)
	test.That(t, b.String(), test.ShouldContainSubstring, "depth_space")
}

func TestBlockFromRecord(t *testing.T) {
	// ids arrive as doubles from the rest of the pipeline
	var rec BlockRecord
	err := json.Unmarshal([]byte(`{"id": 2.0, "center_X": 10.0, "center_Y": 11.0,
		"camera_space_center_X": 0.5, "camera_space_center_Y": 0.25, "camera_space_depth": 1.0,
		"r_hue": 300, "g_hue": 12.4, "b_hue": -3}`), &rec)
	test.That(t, err, test.ShouldBeNil)

	b := rec.Block()
	test.That(t, b.ID, test.ShouldEqual, 2)
	test.That(t, b.PixelCenter, test.ShouldResemble, image.Point{10, 11})
	test.That(t, b.Color, test.ShouldResemble, rimage.Color{R: 255, G: 12, B: 0})
	test.That(t, b.Position.Space, test.ShouldEqual, CameraSpace)
	test.That(t, b.Position.Point, test.ShouldResemble, r3.Vector{X: 0.5, Y: 0.25, Z: 1})

	test.That(t, ConfidenceRecord{ID: 4.0, Confidence: 0.9}.BlockID(), test.ShouldEqual, 4)
	test.That(t, Space(9).String(), test.ShouldEqual, "Space(9)")
}

func TestBlockInDepthSpace(t *testing.T) {
	rec := BlockRecord{ID: 1, CenterX: 3, CenterY: 4, CameraSpaceCenterX: 0.7, CameraSpaceDepth: 1000}
	b := rec.BlockIn(DepthSpace)
	test.That(t, b.Position.Space, test.ShouldEqual, DepthSpace)
	test.That(t, b.Position.Point, test.ShouldResemble, r3.Vector{Z: 1000})

	b = rec.BlockIn(CameraSpace)
	test.That(t, b.Position.Point, test.ShouldResemble, r3.Vector{X: 0.7, Z: 1000})
	test.That(t, rec.Block().Position, test.ShouldResemble, b.Position)
}

func TestRecordValidate(t *testing.T) {
	test.That(t, BlockRecord{ID: 2, CenterX: 10, CenterY: 20}.Validate(), test.ShouldBeNil)
	test.That(t, ConfidenceRecord{ID: 2, Confidence: -1}.Validate(), test.ShouldBeNil)

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), 1e300, -1e10} {
		test.That(t, BlockRecord{ID: bad}.Validate(), test.ShouldNotBeNil)
		test.That(t, BlockRecord{ID: 1, CenterY: bad}.Validate(), test.ShouldNotBeNil)
		test.That(t, ConfidenceRecord{ID: bad}.Validate(), test.ShouldNotBeNil)
	}
	err := ConfidenceRecord{ID: math.NaN()}.Validate()
	test.That(t, err.Error(), test.ShouldContainSubstring, "id NaN")
}
