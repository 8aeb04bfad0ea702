// Package pcap locates record boundaries in classic pcap files and plans
// contiguous, independently valid slices of the record region.
package pcap

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/slicecap/slicecap/pcap/pcapio"
	"github.com/slicecap/slicecap/pkg/nano"
	"go.uber.org/zap"
)

// resyncMargin pads the resynchronization window beyond the largest
// possible record so at least one whole record header starts inside it.
const resyncMargin = 1000

// gapScanMaxRecords bounds the number of records examined by the
// idle-gap search at each boundary target.
const gapScanMaxRecords = 4096

var ErrBoundaryNotFound = errors.New("no record boundary found")

// Locator finds record-aligned cut offsets near evenly spaced byte
// targets within a pcap file's record region.  The file is accessed only
// with positioned reads.
type Locator struct {
	file   io.ReaderAt
	hdr    pcapio.FileHeader
	start  int64
	end    int64
	maxGap time.Duration
	logger *zap.Logger
}

// NewLocator returns a Locator for a pcap file of the given total size
// whose file header has already been parsed.  The record region runs from
// the end of the file header to the end of the file.
func NewLocator(file io.ReaderAt, hdr pcapio.FileHeader, size int64, maxGap time.Duration, logger *zap.Logger) *Locator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Locator{
		file:   file,
		hdr:    hdr,
		start:  pcapio.FileHeaderLen,
		end:    size,
		maxGap: maxGap,
		logger: logger,
	}
}

// LocateCuts returns up to n-1 strictly increasing record-aligned offsets
// that divide the record region into n slices.  Each cut prefers the start
// of an idle period (an inter-packet gap of at least maxGap) near its
// ideal byte target, falling back to the nearest structurally valid record
// boundary.  Cuts that collapse onto each other are dropped, reducing the
// effective slice count; that condition is logged, not fatal.
func (l *Locator) LocateCuts(n int) ([]int64, error) {
	if n < 1 {
		return nil, fmt.Errorf("slice count must be at least 1")
	}
	span := l.end - l.start
	cuts := make([]int64, 0, n-1)
	lastGood := l.start
	for i := 1; i < n; i++ {
		target := l.start + span*int64(i)/int64(n)
		off, err := l.resync(target)
		if err != nil {
			// A window that ran into the end of the region can fail
			// simply because the target lies inside the final records.
			// If the region parses cleanly through to the end, drop
			// this cut and let the slice count collapse; otherwise the
			// file really is corrupt or truncated.
			if errors.Is(err, ErrBoundaryNotFound) && l.windowClipped(target) && l.wellFormedToEnd(lastGood) {
				continue
			}
			return nil, fmt.Errorf("target offset %d: %w", target, err)
		}
		lastGood = off
		limit := target + span/int64(n)/2
		if limit > l.end {
			limit = l.end
		}
		if cut, ok := l.gapCut(off, limit); ok {
			off = cut
		}
		cuts = append(cuts, off)
	}
	sort.Slice(cuts, func(i, j int) bool { return cuts[i] < cuts[j] })
	out := cuts[:0]
	last := l.start
	for _, c := range cuts {
		if c <= last || c >= l.end {
			continue
		}
		out = append(out, c)
		last = c
	}
	if len(out) < n-1 {
		l.logger.Warn("cut points collapsed; slice count reduced",
			zap.Int("requested", n),
			zap.Int("effective", len(out)+1))
	}
	return out, nil
}

// windowClipped reports whether the resync window at target was cut
// short by the end of the record region.
func (l *Locator) windowClipped(target int64) bool {
	return target+int64(l.hdr.MaxCaplen())+pcapio.PacketHeaderLen+resyncMargin > l.end
}

// wellFormedToEnd reports whether the records starting at the known
// boundary from parse cleanly through to the exact end of the region.
func (l *Locator) wellFormedToEnd(from int64) bool {
	cur := from
	for cur != l.end {
		if cur+pcapio.PacketHeaderLen > l.end {
			return false
		}
		var b [pcapio.PacketHeaderLen]byte
		if _, err := l.file.ReadAt(b[:], cur); err != nil {
			return false
		}
		hdr, err := l.hdr.ParsePacketHeader(b[:])
		if err != nil || !hdr.Valid(l.hdr) {
			return false
		}
		next := cur + pcapio.PacketHeaderLen + int64(hdr.Caplen)
		if next > l.end {
			return false
		}
		cur = next
	}
	return true
}

// resync scans forward from target one byte at a time looking for a valid
// record header.  A candidate is accepted only if its caplen places the
// next record header at a consistent position within the region.
func (l *Locator) resync(target int64) (int64, error) {
	window := int64(l.hdr.MaxCaplen()) + pcapio.PacketHeaderLen + resyncMargin
	if target+window > l.end {
		window = l.end - target
	}
	if window < pcapio.PacketHeaderLen {
		return 0, ErrBoundaryNotFound
	}
	buf := make([]byte, window)
	n, err := l.file.ReadAt(buf, target)
	if err != nil && err != io.EOF {
		return 0, err
	}
	buf = buf[:n]
	for shift := 0; shift+pcapio.PacketHeaderLen <= len(buf); shift++ {
		hdr, err := l.hdr.ParsePacketHeader(buf[shift:])
		if err != nil || !hdr.Valid(l.hdr) {
			continue
		}
		off := target + int64(shift)
		if l.lookaheadConsistent(off, hdr) {
			return off, nil
		}
	}
	return 0, ErrBoundaryNotFound
}

func (l *Locator) lookaheadConsistent(off int64, hdr pcapio.PacketHeader) bool {
	next := off + pcapio.PacketHeaderLen + int64(hdr.Caplen)
	if next == l.end {
		return true
	}
	if next+pcapio.PacketHeaderLen > l.end {
		return false
	}
	var b [pcapio.PacketHeaderLen]byte
	if _, err := l.file.ReadAt(b[:], next); err != nil {
		return false
	}
	nh, err := l.hdr.ParsePacketHeader(b[:])
	return err == nil && nh.Valid(l.hdr)
}

// gapCut walks records forward from off up to limit looking for the
// largest inter-packet timestamp gap.  If that gap reaches the maxGap
// threshold, the offset of the record after the gap is returned so the
// cut lands at the start of the idle period rather than mid-burst.
func (l *Locator) gapCut(off, limit int64) (int64, bool) {
	var (
		prev     nano.Ts
		havePrev bool
		bestGap  time.Duration
		bestOff  int64
		warned   bool
	)
	cur := off
	for i := 0; i < gapScanMaxRecords && cur+pcapio.PacketHeaderLen <= limit; i++ {
		var b [pcapio.PacketHeaderLen]byte
		if _, err := l.file.ReadAt(b[:], cur); err != nil {
			break
		}
		hdr, err := l.hdr.ParsePacketHeader(b[:])
		if err != nil || !hdr.Valid(l.hdr) {
			break
		}
		ts := hdr.Ts(l.hdr.Nanosecond)
		if havePrev {
			delta := time.Duration(ts - prev)
			if delta < 0 && !warned {
				l.logger.Warn("non-monotonic timestamps in gap search",
					zap.Int64("offset", cur),
					zap.String("ts", ts.StringFloat()),
					zap.String("prev", prev.StringFloat()))
				warned = true
			}
			if delta > bestGap {
				bestGap = delta
				bestOff = cur
			}
		}
		prev, havePrev = ts, true
		cur += pcapio.PacketHeaderLen + int64(hdr.Caplen)
	}
	if bestOff != 0 && bestGap >= l.maxGap {
		return bestOff, true
	}
	return 0, false
}
