// Package slicer provides positioned-read access to subsets of a file.
package slicer

import "io"

// Slice describes a contiguous byte range of an underlying file.
type Slice struct {
	Offset int64 `json:"offset"`
	Length int64 `json:"length"`
}

// End returns the offset of the first byte after the slice.
func (s Slice) End() int64 {
	return s.Offset + s.Length
}

func (s Slice) Overlaps(x Slice) bool {
	return x.Offset >= s.Offset && x.Offset < s.End()
}

// NewReader returns a reader for the slice's bytes.  Each read is an
// independent positioned read so concurrent readers of the same file
// never share a file position.
func (s Slice) NewReader(r io.ReaderAt) *io.SectionReader {
	return io.NewSectionReader(r, s.Offset, s.Length)
}
