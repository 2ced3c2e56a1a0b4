package rimage

import "image"

var fourNeighbors = [4]image.Point{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}

// FloodFill returns the region of pixels 4-connected to seed that share the seed's value.
// A seed outside the raster yields an empty region.
func FloodFill(m *Mask, seed image.Point) *Mask {
	region := NewMask(m.width, m.height)
	if !m.In(seed.X, seed.Y) {
		return region
	}
	floodFrom(m, region, []image.Point{seed}, m.GetPoint(seed))
	return region
}

// ReachableFromBorder returns every pixel with the given value that is 4-connected to a border
// pixel with that value.
func ReachableFromBorder(m *Mask, value bool) *Mask {
	region := NewMask(m.width, m.height)
	seeds := make([]image.Point, 0, 2*(m.width+m.height))
	for x := 0; x < m.width; x++ {
		seeds = append(seeds, image.Point{x, 0}, image.Point{x, m.height - 1})
	}
	for y := 0; y < m.height; y++ {
		seeds = append(seeds, image.Point{0, y}, image.Point{m.width - 1, y})
	}
	floodFrom(m, region, seeds, value)
	return region
}

// floodFrom grows region from every seed holding value. It uses an explicit stack so large
// regions never recurse.
func floodFrom(m, region *Mask, seeds []image.Point, value bool) {
	stack := make([]image.Point, 0, len(seeds))
	for _, s := range seeds {
		if m.In(s.X, s.Y) && m.GetPoint(s) == value && !region.GetPoint(s) {
			region.Set(s.X, s.Y, true)
			stack = append(stack, s)
		}
	}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, d := range fourNeighbors {
			n := p.Add(d)
			if !m.In(n.X, n.Y) || region.GetPoint(n) || m.GetPoint(n) != value {
				continue
			}
			region.Set(n.X, n.Y, true)
			stack = append(stack, n)
		}
	}
}

// FillHoles seals every unset region that cannot be reached from the image border, e.g. the
// inside of a ring. Unset pixels connected to an unset border pixel are left alone. Applying it
// to its own output changes nothing.
func FillHoles(m *Mask) *Mask {
	outside := ReachableFromBorder(m, false)
	filled := m.Clone()
	for i, reached := range outside.data {
		if !reached {
			filled.data[i] = true
		}
	}
	return filled
}
