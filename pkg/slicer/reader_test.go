package slicer_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/slicecap/slicecap/pkg/slicer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader(t *testing.T) {
	file := bytes.NewReader([]byte("0123456789"))
	r := slicer.NewReader(file, []slicer.Slice{
		{Offset: 2, Length: 3},
		{Offset: 7, Length: 2},
	})
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "23478", string(b))
}

func TestReaderEmpty(t *testing.T) {
	file := bytes.NewReader([]byte("0123456789"))
	r := slicer.NewReader(file, nil)
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, b)
}

func TestSliceOverlaps(t *testing.T) {
	s := slicer.Slice{Offset: 10, Length: 5}
	assert.True(t, s.Overlaps(slicer.Slice{Offset: 12, Length: 100}))
	assert.False(t, s.Overlaps(slicer.Slice{Offset: 15, Length: 1}))
	assert.Equal(t, int64(15), s.End())
}
