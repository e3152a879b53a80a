package types

import (
	"encoding/binary"
	"fmt"
)

// maskHeaderLen is the size of the big-endian height and width prefix.
const maskHeaderLen = 8

// Mask is a binary segmentation mask local to a cell's bounding box. Bits is
// row-major with len(Bits) == Height*Width.
type Mask struct {
	Height int
	Width  int
	Bits   []bool
}

// NewMask returns an all-false mask of the given size.
func NewMask(height, width int) Mask {
	return Mask{Height: height, Width: width, Bits: make([]bool, height*width)}
}

// At reports whether the pixel at (r, c) is set.
func (m Mask) At(r, c int) bool {
	return m.Bits[r*m.Width+c]
}

// Set assigns the pixel at (r, c).
func (m Mask) Set(r, c int, v bool) {
	m.Bits[r*m.Width+c] = v
}

// Area returns the number of set pixels.
func (m Mask) Area() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the mask.
func (m Mask) Clone() Mask {
	bits := make([]bool, len(m.Bits))
	copy(bits, m.Bits)
	return Mask{Height: m.Height, Width: m.Width, Bits: bits}
}

// MarshalBinary encodes the mask as two big-endian uint32 dimensions followed
// by the bits packed MSB first.
func (m Mask) MarshalBinary() ([]byte, error) {
	if m.Height < 0 || m.Width < 0 || len(m.Bits) != m.Height*m.Width {
		return nil, fmt.Errorf("mask %dx%d with %d bits: %w", m.Height, m.Width, len(m.Bits), ErrInvalidArgument)
	}
	buf := make([]byte, maskHeaderLen+(len(m.Bits)+7)/8)
	binary.BigEndian.PutUint32(buf[0:4], uint32(m.Height))
	binary.BigEndian.PutUint32(buf[4:8], uint32(m.Width))
	for i, b := range m.Bits {
		if b {
			buf[maskHeaderLen+i/8] |= 0x80 >> (i % 8)
		}
	}
	return buf, nil
}

// UnmarshalBinary decodes the format written by MarshalBinary.
func (m *Mask) UnmarshalBinary(data []byte) error {
	if len(data) < maskHeaderLen {
		return fmt.Errorf("mask header truncated: %w", ErrInvalidArgument)
	}
	h := int(binary.BigEndian.Uint32(data[0:4]))
	w := int(binary.BigEndian.Uint32(data[4:8]))
	n := h * w
	if len(data)-maskHeaderLen != (n+7)/8 {
		return fmt.Errorf("mask %dx%d needs %d bytes, got %d: %w", h, w, (n+7)/8, len(data)-maskHeaderLen, ErrInvalidArgument)
	}
	bits := make([]bool, n)
	for i := range bits {
		bits[i] = data[maskHeaderLen+i/8]&(0x80>>(i%8)) != 0
	}
	*m = Mask{Height: h, Width: w, Bits: bits}
	return nil
}
