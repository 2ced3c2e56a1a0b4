package rimage

import "github.com/pkg/errors"

// ErodeSquare erodes a mask with a size x size square structuring element anchored at its
// center (size/2). A pixel stays set only if every pixel under the element is set; pixels
// outside the raster count as set, so a region touching the border is not eaten from that side.
// The square is separable, so the work is done as a horizontal pass followed by a vertical pass.
func ErodeSquare(m *Mask, size int) (*Mask, error) {
	if size < 1 {
		return nil, errors.Errorf("structuring element size must be positive, got %d", size)
	}
	if size == 1 {
		return m.Clone(), nil
	}
	lo := -(size / 2)
	hi := size - 1 + lo

	horizontal := NewMask(m.width, m.height)
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			horizontal.data[horizontal.kxy(x, y)] = allSetAlong(m, x, y, lo, hi, true)
		}
	}
	out := NewMask(m.width, m.height)
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			out.data[out.kxy(x, y)] = allSetAlong(horizontal, x, y, lo, hi, false)
		}
	}
	return out, nil
}

func allSetAlong(m *Mask, x, y, lo, hi int, horizontal bool) bool {
	for d := lo; d <= hi; d++ {
		xx, yy := x, y
		if horizontal {
			xx += d
		} else {
			yy += d
		}
		if m.In(xx, yy) && !m.data[m.kxy(xx, yy)] {
			return false
		}
	}
	return true
}
