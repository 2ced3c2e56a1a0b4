package transform

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/blockpointing/rimage"
)

func TestPixelToPointRoundTrip(t *testing.T) {
	params := &PinholeCameraIntrinsics{Width: 512, Height: 424, Fx: 365.5, Fy: 365.5, Ppx: 256, Ppy: 212}
	test.That(t, params.CheckValid(), test.ShouldBeNil)

	x, y, z := params.PixelToPoint(300, 100, 2)
	test.That(t, x, test.ShouldAlmostEqual, (300-256)/365.5*2)
	test.That(t, y, test.ShouldAlmostEqual, (100-212)/365.5*2)
	test.That(t, z, test.ShouldEqual, 2)

	px, py := params.PointToPixel(x, y, z)
	test.That(t, px, test.ShouldEqual, 300)
	test.That(t, py, test.ShouldEqual, 100)

	px, py = params.PointToPixel(1, 1, 0)
	test.That(t, px, test.ShouldEqual, -1)
	test.That(t, py, test.ShouldEqual, -1)

	pt, err := params.ImagePointTo3DPoint(image.Point{256, 212}, rimage.Depth(1500))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pt, test.ShouldResemble, r3.Vector{X: 0, Y: 0, Z: 1.5})

	var nilParams *PinholeCameraIntrinsics
	x, y, z = nilParams.PixelToPoint(1, 2, 3)
	test.That(t, x+y+z, test.ShouldEqual, 0)
}

func TestIntrinsicsCheckValid(t *testing.T) {
	var nilParams *PinholeCameraIntrinsics
	test.That(t, errors.Is(nilParams.CheckValid(), ErrNoIntrinsics), test.ShouldBeTrue)

	bad := []PinholeCameraIntrinsics{
		{Width: 0, Height: 1, Fx: 1, Fy: 1},
		{Width: 1, Height: 1, Fx: 0, Fy: 1},
		{Width: 1, Height: 1, Fx: 1, Fy: -1},
		{Width: 1, Height: 1, Fx: 1, Fy: 1, Ppx: -1},
		{Width: 1, Height: 1, Fx: 1, Fy: 1, Ppy: -1},
	}
	for _, params := range bad {
		err := params.CheckValid()
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, errors.Is(err, ErrNoIntrinsics), test.ShouldBeTrue)
	}

	_, err := (&PinholeCameraIntrinsics{}).ImagePointTo3DPoint(image.Point{}, 1)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestIntrinsicsFromJSONFile(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "intrinsics.json")
	err := os.WriteFile(fn, []byte(`{"width_px": 640, "height_px": 480, "fx": 600, "fy": 601, "ppx": 320, "ppy": 240}`), 0o600)
	test.That(t, err, test.ShouldBeNil)

	params, err := NewPinholeCameraIntrinsicsFromJSONFile(fn)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, *params, test.ShouldResemble, PinholeCameraIntrinsics{640, 480, 600, 601, 320, 240})
	test.That(t, params.GetCameraMatrix().At(1, 1), test.ShouldEqual, 601)

	_, err = NewPinholeCameraIntrinsicsFromJSONFile(filepath.Join(t.TempDir(), "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestTransformPointToPoint(t *testing.T) {
	extrinsics := Extrinsics{
		RotationMatrix:    []float64{1, 0, 0, 0, 1, 0, 0, 0, 1},
		TranslationVector: []float64{0, 0, 1},
	}
	test.That(t, extrinsics.CheckValid(), test.ShouldBeNil)
	test.That(t, extrinsics.TransformPointToPoint(0, 0, 1), test.ShouldResemble, r3.Vector{X: 0, Y: 0, Z: 2})

	// 90 degrees about z
	rotated := Extrinsics{
		RotationMatrix:    []float64{0, -1, 0, 1, 0, 0, 0, 0, 1},
		TranslationVector: []float64{0, 0, 0},
	}
	test.That(t, rotated.TransformPointToPoint(1, 0, 0), test.ShouldResemble, r3.Vector{X: 0, Y: 1, Z: 0})

	test.That(t, (&Extrinsics{RotationMatrix: []float64{1}}).CheckValid(), test.ShouldNotBeNil)
	test.That(t, (&Extrinsics{RotationMatrix: make([]float64, 9)}).CheckValid(), test.ShouldNotBeNil)
}
