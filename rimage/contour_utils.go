package rimage

import (
	"image"
	"math"
)

// clockwise neighbor offsets in image coordinates (y grows downward), starting east.
var borderDirections = [8]image.Point{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

const westDirection = 4

// Contour is the ordered outer boundary of one 8-connected region of set pixels.
type Contour struct {
	Points []image.Point
	// region holds every pixel of the traced component; nil for contours built by hand.
	region *Mask
}

// NewContour wraps a hand-built boundary.
func NewContour(pts []image.Point) Contour {
	return Contour{Points: pts}
}

// Moments are the spatial moments of a contour polygon up to first order.
type Moments struct {
	M00, M10, M01 float64
}

// Centroid returns the rounded center of mass. A zero-area polygon yields (0, 0).
func (m Moments) Centroid() image.Point {
	if m.M00 == 0 {
		return image.Point{}
	}
	return image.Point{
		X: int(math.Round(m.M10 / m.M00)),
		Y: int(math.Round(m.M01 / m.M00)),
	}
}

// Area is the absolute area enclosed by the polygon through the contour points
// (shoelace formula). Fewer than three points enclose nothing.
func (c Contour) Area() float64 {
	n := len(c.Points)
	if n < 3 {
		return 0
	}
	var sum float64
	prev := c.Points[n-1]
	for _, p := range c.Points {
		sum += float64(prev.X*p.Y - p.X*prev.Y)
		prev = p
	}
	return math.Abs(sum) / 2
}

// Moments computes the polygon moments with Green's theorem over the contour edges.
// The result is oriented so that M00 is never negative.
func (c Contour) Moments() Moments {
	n := len(c.Points)
	if n == 0 {
		return Moments{}
	}
	var a00, a10, a01 float64
	prev := c.Points[n-1]
	for _, p := range c.Points {
		xp, yp := float64(prev.X), float64(prev.Y)
		x, y := float64(p.X), float64(p.Y)
		a := xp*y - x*yp
		a00 += a
		a10 += a * (xp + x)
		a01 += a * (yp + y)
		prev = p
	}
	m := Moments{M00: a00 * 0.5, M10: a10 / 6, M01: a01 / 6}
	if m.M00 < 0 {
		m = Moments{M00: -m.M00, M10: -m.M10, M01: -m.M01}
	}
	return m
}

// Region returns the set pixels of the component the contour was traced from.
func (c Contour) Region() *Mask {
	return c.region
}

// Fill returns the solid area bounded by the contour: its component with every interior
// hole sealed. width and height size the output when the contour was built by hand, in which
// case only the boundary points themselves are marked.
func (c Contour) Fill(width, height int) *Mask {
	if c.region != nil {
		return FillHoles(c.region)
	}
	m := NewMask(width, height)
	for _, p := range c.Points {
		m.Set(p.X, p.Y, true)
	}
	return m
}

// FindExternalContours returns the outer boundary of every 8-connected region of set pixels
// that is not nested inside a hole of another region. Pixels beyond the raster count as
// unset background. Contours appear in the order their first pixel is met in a raster scan.
func FindExternalContours(m *Mask) []Contour {
	outside := ReachableFromBorder(m, false)
	labels := make([]int, len(m.data))
	var contours []Contour
	next := 0
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			k := m.kxy(x, y)
			if !m.data[k] || labels[k] != 0 {
				continue
			}
			next++
			region := labelComponent(m, labels, image.Point{x, y}, next)
			// (x, y) is the raster-first pixel of its region, so the pixel above it is
			// background belonging to the region's surroundings.
			if y > 0 && !outside.Get(x, y-1) {
				continue
			}
			contours = append(contours, Contour{
				Points: traceBorder(m, image.Point{x, y}),
				region: region,
			})
		}
	}
	return contours
}

func labelComponent(m *Mask, labels []int, seed image.Point, label int) *Mask {
	region := NewMask(m.width, m.height)
	labels[m.kxy(seed.X, seed.Y)] = label
	region.Set(seed.X, seed.Y, true)
	stack := []image.Point{seed}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, d := range borderDirections {
			n := p.Add(d)
			if !m.In(n.X, n.Y) {
				continue
			}
			k := m.kxy(n.X, n.Y)
			if !m.data[k] || labels[k] != 0 {
				continue
			}
			labels[k] = label
			region.data[k] = true
			stack = append(stack, n)
		}
	}
	return region
}

func directionIndex(from, to image.Point) int {
	d := to.Sub(from)
	for i, dir := range borderDirections {
		if dir == d {
			return i
		}
	}
	return -1
}

// traceBorder follows the outer border of the region containing start using Suzuki-Abe border
// following, beginning from the background pixel west of start.
func traceBorder(m *Mask, start image.Point) []image.Point {
	first := image.Point{-1, -1}
	found := false
	for i := 0; i < 8; i++ {
		n := start.Add(borderDirections[(westDirection+i)%8])
		if m.GetPoint(n) {
			first = n
			found = true
			break
		}
	}
	if !found {
		return []image.Point{start}
	}

	pts := []image.Point{}
	prev, cur := first, start
	for {
		pts = append(pts, cur)
		d := directionIndex(cur, prev)
		var nextPt image.Point
		for i := 1; i <= 8; i++ {
			n := cur.Add(borderDirections[(d-i+16)%8])
			if m.GetPoint(n) {
				nextPt = n
				break
			}
		}
		if nextPt == start && cur == first {
			break
		}
		prev, cur = cur, nextPt
	}
	return pts
}
