package slicer

import (
	"io"
)

// Reader implements io.Reader over a sequence of slices of an underlying
// file, concatenating the regions without modifying or copying the file.
// The underlying file is accessed only with positioned reads.
type Reader struct {
	slices []Slice
	file   io.ReaderAt
	cur    *io.SectionReader
}

func NewReader(file io.ReaderAt, slices []Slice) *Reader {
	r := &Reader{
		slices: slices,
		file:   file,
	}
	r.next()
	return r
}

func (r *Reader) next() {
	if len(r.slices) == 0 {
		r.cur = nil
		return
	}
	r.cur = r.slices[0].NewReader(r.file)
	r.slices = r.slices[1:]
}

func (r *Reader) Read(b []byte) (int, error) {
	for r.cur != nil {
		n, err := r.cur.Read(b)
		if n != 0 {
			if err == io.EOF {
				err = nil
			}
			return n, err
		}
		if err != io.EOF {
			return 0, err
		}
		r.next()
	}
	return 0, io.EOF
}
