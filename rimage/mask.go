package rimage

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// Mask is a binary raster. A pixel is either set or unset; set pixels render as 255 when the
// mask is converted to a gray image.
type Mask struct {
	width, height int
	data          []bool
}

// NewMask returns an empty (all unset) mask of the given size.
func NewMask(width, height int) *Mask {
	return &Mask{
		width:  width,
		height: height,
		data:   make([]bool, width*height),
	}
}

// NewMaskFromGray returns a mask where every non-zero gray pixel is set.
func NewMaskFromGray(gray *image.Gray) *Mask {
	bounds := gray.Bounds()
	m := NewMask(bounds.Dx(), bounds.Dy())
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			m.data[m.kxy(x, y)] = gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y != 0
		}
	}
	return m
}

func (m *Mask) kxy(x, y int) int {
	return (y * m.width) + x
}

// Width returns the horizontal size of the mask.
func (m *Mask) Width() int {
	return m.width
}

// Height returns the vertical size of the mask.
func (m *Mask) Height() int {
	return m.height
}

// Bounds returns the raster rectangle of the mask.
func (m *Mask) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.width, m.height)
}

// In reports whether (x, y) is inside the raster.
func (m *Mask) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.width && y < m.height
}

// Get returns whether the pixel is set. Pixels outside the raster are unset.
func (m *Mask) Get(x, y int) bool {
	if !m.In(x, y) {
		return false
	}
	return m.data[m.kxy(x, y)]
}

// GetPoint is Get for an image.Point.
func (m *Mask) GetPoint(p image.Point) bool {
	return m.Get(p.X, p.Y)
}

// Set sets or clears a pixel. Out of raster writes are ignored.
func (m *Mask) Set(x, y int, val bool) {
	if !m.In(x, y) {
		return
	}
	m.data[m.kxy(x, y)] = val
}

// Clone returns a deep copy.
func (m *Mask) Clone() *Mask {
	out := NewMask(m.width, m.height)
	copy(out.data, m.data)
	return out
}

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.data {
		if v {
			n++
		}
	}
	return n
}

// Equal reports whether both masks have the same size and the same set pixels.
func (m *Mask) Equal(other *Mask) bool {
	if other == nil || m.width != other.width || m.height != other.height {
		return false
	}
	for i, v := range m.data {
		if other.data[i] != v {
			return false
		}
	}
	return true
}

// Not returns the logical complement of the mask.
func (m *Mask) Not() *Mask {
	out := NewMask(m.width, m.height)
	for i, v := range m.data {
		out.data[i] = !v
	}
	return out
}

// And returns the pixel-wise conjunction of two masks of the same size.
func (m *Mask) And(other *Mask) (*Mask, error) {
	if err := m.checkSameSize(other); err != nil {
		return nil, err
	}
	out := NewMask(m.width, m.height)
	for i, v := range m.data {
		out.data[i] = v && other.data[i]
	}
	return out, nil
}

// Or returns the pixel-wise disjunction of two masks of the same size.
func (m *Mask) Or(other *Mask) (*Mask, error) {
	if err := m.checkSameSize(other); err != nil {
		return nil, err
	}
	out := NewMask(m.width, m.height)
	for i, v := range m.data {
		out.data[i] = v || other.data[i]
	}
	return out, nil
}

func (m *Mask) checkSameSize(other *Mask) error {
	if other == nil {
		return errors.New("mask is nil")
	}
	if m.width != other.width || m.height != other.height {
		return errors.Errorf("these masks aren't the same size (%d %d) != (%d %d)",
			m.width, m.height, other.width, other.height)
	}
	return nil
}

// ToGray renders set pixels as 255 and unset pixels as 0.
func (m *Mask) ToGray() *image.Gray {
	out := image.NewGray(m.Bounds())
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			if m.data[m.kxy(x, y)] {
				out.SetGray(x, y, color.Gray{255})
			}
		}
	}
	return out
}
