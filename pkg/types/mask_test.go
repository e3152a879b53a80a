package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskBinary(t *testing.T) {
	m := NewMask(3, 5)
	m.Set(0, 0, true)
	m.Set(1, 2, true)
	m.Set(2, 4, true)

	data, err := m.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, data, maskHeaderLen+2)

	var back Mask
	require.NoError(t, back.UnmarshalBinary(data))
	assert.Equal(t, m, back)
	assert.Equal(t, 3, back.Area())
	assert.True(t, back.At(1, 2))
	assert.False(t, back.At(1, 3))
}

func TestMaskBinaryErrors(t *testing.T) {
	_, err := Mask{Height: 2, Width: 2, Bits: []bool{true}}.MarshalBinary()
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	var m Mask
	assert.True(t, errors.Is(m.UnmarshalBinary([]byte{0, 0, 1}), ErrInvalidArgument))
	assert.True(t, errors.Is(m.UnmarshalBinary([]byte{0, 0, 0, 2, 0, 0, 0, 8}), ErrInvalidArgument))
}

func TestMaskEmpty(t *testing.T) {
	data, err := NewMask(0, 0).MarshalBinary()
	require.NoError(t, err)
	var m Mask
	require.NoError(t, m.UnmarshalBinary(data))
	assert.Equal(t, 0, m.Area())
}
