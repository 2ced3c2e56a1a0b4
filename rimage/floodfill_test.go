package rimage

import (
	"image"
	"math/rand"
	"testing"

	"go.viam.com/test"
)

func TestFillHolesHollowSquare(t *testing.T) {
	m := maskFromRows(
		"###",
		"#.#",
		"###",
	)
	filled := FillHoles(m)
	test.That(t, filled.Count(), test.ShouldEqual, 9)
	// input untouched
	test.That(t, m.Get(1, 1), test.ShouldBeFalse)
}

func TestFillHolesLeavesOpenRegions(t *testing.T) {
	empty := NewMask(3, 3)
	test.That(t, FillHoles(empty).Equal(empty), test.ShouldBeTrue)

	ell := maskFromRows(
		"#..",
		"#..",
		"###",
	)
	test.That(t, FillHoles(ell).Equal(ell), test.ShouldBeTrue)

	ring := maskFromRows(
		"......",
		".####.",
		".#..#.",
		".#..#.",
		".####.",
		"......",
	)
	expected := maskFromRows(
		"......",
		".####.",
		".####.",
		".####.",
		".####.",
		"......",
	)
	test.That(t, FillHoles(ring).Equal(expected), test.ShouldBeTrue)

	// a gap in the ring connects the inside to the border
	broken := maskFromRows(
		"......",
		".##.#.",
		".#..#.",
		".####.",
		"......",
	)
	test.That(t, FillHoles(broken).Equal(broken), test.ShouldBeTrue)
}

func TestFillHolesDiagonalGapStaysClosed(t *testing.T) {
	// background only leaks through 4-connected gaps
	m := maskFromRows(
		".#.",
		"#.#",
		".#.",
	)
	filled := FillHoles(m)
	test.That(t, filled.Get(1, 1), test.ShouldBeTrue)
	test.That(t, filled.Get(0, 0), test.ShouldBeFalse)
}

func TestFillHolesIdempotent(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		w, h := 1+r.Intn(20), 1+r.Intn(20)
		m := NewMask(w, h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				m.Set(x, y, r.Intn(3) > 0)
			}
		}
		once := FillHoles(m)
		test.That(t, FillHoles(once).Equal(once), test.ShouldBeTrue)
	}
}

func TestFloodFill(t *testing.T) {
	m := maskFromRows(
		"##.",
		"..#",
		"#.#",
	)
	region := FloodFill(m, image.Point{2, 1})
	test.That(t, region.Count(), test.ShouldEqual, 2)
	test.That(t, region.Get(2, 2), test.ShouldBeTrue)

	background := FloodFill(m, image.Point{0, 1})
	test.That(t, background.Count(), test.ShouldEqual, 3)
	test.That(t, background.Get(2, 0), test.ShouldBeFalse)

	test.That(t, FloodFill(m, image.Point{5, 5}).Count(), test.ShouldEqual, 0)
}
