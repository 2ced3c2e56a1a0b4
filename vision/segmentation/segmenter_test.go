package segmentation

import (
	"context"
	"image"
	"image/color"
	"math"
	"testing"

	"go.viam.com/test"

	"go.viam.com/blockpointing/rimage"
)

// tableScene draws a bright table on a black floor with the given dark blocks on it.
func tableScene(width, height int, table image.Rectangle, blocks map[image.Rectangle]color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := image.Point{x, y}
			c := color.RGBA{0, 0, 0, 255}
			if p.In(table) {
				c = color.RGBA{200, 200, 200, 255}
			}
			for r, bc := range blocks {
				if p.In(r) {
					c = bc
				}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestSegmentSingleRectangle(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			c := color.RGBA{200, 200, 200, 255}
			if x >= 30 && x < 50 && y >= 40 && y < 60 {
				c = color.RGBA{20, 20, 20, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}

	blocks, surface, err := Segmenter{}.Segment(context.Background(), img)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, surface.Candidates.Count(), test.ShouldEqual, 400)
	test.That(t, len(blocks), test.ShouldEqual, 1)
	test.That(t, blocks[0].ID, test.ShouldEqual, 1)
	test.That(t, math.Abs(float64(blocks[0].PixelCenter.X)-39.5), test.ShouldBeLessThanOrEqualTo, 1)
	test.That(t, math.Abs(float64(blocks[0].PixelCenter.Y)-49.5), test.ShouldBeLessThanOrEqualTo, 1)
	test.That(t, blocks[0].Color, test.ShouldResemble, rimage.NewColor(20, 20, 20))
	test.That(t, blocks[0].Position, test.ShouldBeNil)
}

func TestSegmentTableScene(t *testing.T) {
	red := color.RGBA{150, 10, 10, 255}
	blue := color.RGBA{10, 10, 150, 255}
	img := tableScene(100, 100, image.Rect(10, 10, 90, 90), map[image.Rectangle]color.RGBA{
		image.Rect(40, 20, 60, 40): red,
		image.Rect(25, 60, 45, 80): blue,
	})

	surface, err := SegmentSurface(img, SurfaceConfig{})
	test.That(t, err, test.ShouldBeNil)
	// the floor is dark too but lies outside the surface
	test.That(t, surface.Background.Get(5, 5), test.ShouldBeFalse)
	test.That(t, surface.Candidates.Get(5, 5), test.ShouldBeFalse)
	test.That(t, surface.Filled.Get(50, 30), test.ShouldBeTrue)
	test.That(t, surface.Surface.Get(14, 50), test.ShouldBeFalse)
	test.That(t, surface.Surface.Get(15, 50), test.ShouldBeTrue)
	test.That(t, surface.Surface.Get(85, 50), test.ShouldBeTrue)
	test.That(t, surface.Surface.Get(86, 50), test.ShouldBeFalse)
	test.That(t, surface.Candidates.Count(), test.ShouldEqual, 800)

	blocks := ExtractBlocks(surface.Candidates, img, BlockConfig{})
	test.That(t, len(blocks), test.ShouldEqual, 2)
	// ids follow raster discovery order
	test.That(t, blocks[0].ID, test.ShouldEqual, 1)
	test.That(t, blocks[0].PixelCenter, test.ShouldResemble, image.Point{50, 30})
	test.That(t, blocks[0].Color, test.ShouldResemble, rimage.NewColor(150, 10, 10))
	test.That(t, blocks[1].ID, test.ShouldEqual, 2)
	test.That(t, blocks[1].PixelCenter, test.ShouldResemble, image.Point{35, 70})
	test.That(t, blocks[1].Color, test.ShouldResemble, rimage.NewColor(10, 10, 150))
}

func TestSegmentDropsBlocksAtSurfaceEdge(t *testing.T) {
	img := tableScene(100, 100, image.Rect(10, 10, 90, 90), map[image.Rectangle]color.RGBA{
		// only columns 15..20 survive the erosion, too little area to be a block
		image.Rect(11, 40, 21, 60): {20, 20, 20, 255},
	})
	blocks, surface, err := Segmenter{}.Segment(context.Background(), img)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, surface.Candidates.Count(), test.ShouldEqual, 120)
	test.That(t, len(blocks), test.ShouldEqual, 0)
}

func TestSegmentUniformImage(t *testing.T) {
	for _, v := range []uint8{0, 128, 255} {
		img := image.NewRGBA(image.Rect(0, 0, 30, 20))
		for i := range img.Pix {
			img.Pix[i] = v
		}
		blocks, surface, err := Segmenter{}.Segment(context.Background(), img)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, surface.Filled.Equal(surface.Background), test.ShouldBeTrue)
		test.That(t, surface.Candidates.Count(), test.ShouldEqual, 0)
		test.That(t, len(blocks), test.ShouldEqual, 0)
	}

	_, err := SegmentSurface(nil, SurfaceConfig{})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestLargestContourTieBreak(t *testing.T) {
	a := rimage.NewContour([]image.Point{{0, 0}, {2, 0}, {2, 2}, {0, 2}})
	b := rimage.NewContour([]image.Point{{5, 5}, {7, 5}, {7, 7}, {5, 7}})
	small := rimage.NewContour([]image.Point{{0, 0}, {1, 0}, {1, 1}})

	largest, ok := LargestContour([]rimage.Contour{small, a, b})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, largest.Points[0], test.ShouldResemble, image.Point{0, 0})
	test.That(t, largest.Area(), test.ShouldEqual, 4)

	_, ok = LargestContour(nil)
	test.That(t, ok, test.ShouldBeFalse)
}

func rectContour(x, y, w, h int) rimage.Contour {
	return rimage.NewContour([]image.Point{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}})
}

func TestFilterSmallAreaContours(t *testing.T) {
	atMin := rectContour(0, 0, 10, 10)
	justAbove := rectContour(20, 0, 101, 1)
	large := rectContour(0, 20, 30, 30)
	point := rimage.NewContour([]image.Point{{5, 5}})
	test.That(t, atMin.Area(), test.ShouldEqual, DefaultMinBlockArea)
	test.That(t, justAbove.Area(), test.ShouldEqual, DefaultMinBlockArea+1)
	test.That(t, point.Area(), test.ShouldEqual, 0)

	kept := FilterSmallAreaContours([]rimage.Contour{large, atMin, point, justAbove}, DefaultMinBlockArea)
	test.That(t, kept, test.ShouldResemble, []rimage.Contour{large, justAbove})

	test.That(t, len(FilterSmallAreaContours([]rimage.Contour{point}, 0)), test.ShouldEqual, 0)
	test.That(t, len(FilterSmallAreaContours(nil, DefaultMinBlockArea)), test.ShouldEqual, 0)
}
