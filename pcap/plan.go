package pcap

import (
	"io"
	"time"

	"github.com/slicecap/slicecap/pcap/pcapio"
	"github.com/slicecap/slicecap/pkg/slicer"
	"go.uber.org/zap"
)

// Part is one planned slice of a pcap file's record region.  IDs are
// assigned at plan time so downstream consumers can recover order no
// matter when each part finishes processing.
type Part struct {
	ID int `json:"slice_id"`
	slicer.Slice
}

// Plan converts ordered cut points into parts covering [start, end)
// exactly once, with no gaps or overlaps.
func Plan(cuts []int64, start, end int64) []Part {
	bounds := make([]int64, 0, len(cuts)+2)
	bounds = append(bounds, start)
	bounds = append(bounds, cuts...)
	bounds = append(bounds, end)
	parts := make([]Part, len(bounds)-1)
	for i := range parts {
		parts[i] = Part{
			ID:    i,
			Slice: slicer.Slice{Offset: bounds[i], Length: bounds[i+1] - bounds[i]},
		}
	}
	return parts
}

// PlanFile parses the file header of a pcap file of the given size,
// locates cut points for n slices, and returns the header along with the
// resulting plan.
func PlanFile(file io.ReaderAt, size int64, n int, maxGap time.Duration, logger *zap.Logger) (pcapio.FileHeader, []Part, error) {
	var b [pcapio.FileHeaderLen]byte
	if _, err := file.ReadAt(b[:], 0); err != nil {
		if err == io.EOF {
			err = pcapio.ErrTruncated
		}
		return pcapio.FileHeader{}, nil, err
	}
	hdr, err := pcapio.ParseFileHeader(b[:])
	if err != nil {
		return pcapio.FileHeader{}, nil, err
	}
	cuts, err := NewLocator(file, hdr, size, maxGap, logger).LocateCuts(n)
	if err != nil {
		return pcapio.FileHeader{}, nil, err
	}
	return hdr, Plan(cuts, pcapio.FileHeaderLen, size), nil
}
