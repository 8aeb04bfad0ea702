// Package pcapio parses the classic pcap file format: the fixed 24-byte
// file header and the 16-byte record header preceding each captured
// packet.  It deliberately operates on raw bytes so that callers can
// probe candidate header positions at arbitrary file offsets.  The
// pcap-ng format is not supported.
package pcapio

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/gopacket/layers"
	"github.com/slicecap/slicecap/pkg/nano"
)

const (
	FileHeaderLen   = 24
	PacketHeaderLen = 16
)

// Recognized magic numbers, as they appear when read in big-endian order.
// The swapped variants indicate a little-endian file.
const (
	MagicMicro        = 0xa1b2c3d4
	MagicMicroSwapped = 0xd4c3b2a1
	MagicNano         = 0xa1b23c4d
	MagicNanoSwapped  = 0x4d3cb2a1
)

// fallbackSnaplen bounds caplen validation when the file header carries a
// zero snaplen, which would otherwise reject every record.
const fallbackSnaplen = 9000

var (
	ErrInvalidMagic = errors.New("invalid pcap magic number")
	ErrTruncated    = errors.New("truncated pcap data")
	ErrVersion      = errors.New("unsupported pcap version")
)

// FileHeader is the parsed form of a pcap file header.  The raw bytes are
// retained so they can be copied verbatim into derived pcap streams.
type FileHeader struct {
	Magic        uint32
	VersionMajor uint16
	VersionMinor uint16
	Thiszone     int32
	Sigfigs      uint32
	Snaplen      uint32
	Network      uint32

	// ByteOrder and Nanosecond are derived from Magic and govern every
	// subsequent record header read.
	ByteOrder  binary.ByteOrder
	Nanosecond bool

	raw [FileHeaderLen]byte
}

// ParseFileHeader parses and validates a pcap file header.  The magic
// number determines the file's byte order and whether record timestamps
// carry microsecond or nanosecond fractions.
func ParseFileHeader(b []byte) (FileHeader, error) {
	if len(b) < FileHeaderLen {
		return FileHeader{}, fmt.Errorf("pcap file header: %w", ErrTruncated)
	}
	var h FileHeader
	switch binary.BigEndian.Uint32(b) {
	case MagicMicro:
		h.ByteOrder = binary.BigEndian
	case MagicMicroSwapped:
		h.ByteOrder = binary.LittleEndian
	case MagicNano:
		h.ByteOrder = binary.BigEndian
		h.Nanosecond = true
	case MagicNanoSwapped:
		h.ByteOrder = binary.LittleEndian
		h.Nanosecond = true
	default:
		return FileHeader{}, fmt.Errorf("0x%08x: %w", binary.BigEndian.Uint32(b), ErrInvalidMagic)
	}
	h.Magic = h.ByteOrder.Uint32(b)
	h.VersionMajor = h.ByteOrder.Uint16(b[4:])
	h.VersionMinor = h.ByteOrder.Uint16(b[6:])
	h.Thiszone = int32(h.ByteOrder.Uint32(b[8:]))
	h.Sigfigs = h.ByteOrder.Uint32(b[12:])
	h.Snaplen = h.ByteOrder.Uint32(b[16:])
	h.Network = h.ByteOrder.Uint32(b[20:])
	if h.VersionMajor != 2 || h.VersionMinor != 4 {
		return FileHeader{}, fmt.Errorf("pcap version %d.%d: %w", h.VersionMajor, h.VersionMinor, ErrVersion)
	}
	copy(h.raw[:], b)
	return h, nil
}

// Bytes returns the header's original 24 bytes unmodified.
func (h FileHeader) Bytes() []byte {
	return h.raw[:]
}

func (h FileHeader) LinkType() layers.LinkType {
	return layers.LinkType(h.Network)
}

func (h FileHeader) Version() string {
	return fmt.Sprintf("%d.%d", h.VersionMajor, h.VersionMinor)
}

// MaxCaplen is the bound used to validate record caplen fields.
func (h FileHeader) MaxCaplen() uint32 {
	if h.Snaplen == 0 {
		return fallbackSnaplen
	}
	return h.Snaplen
}

// PacketHeader is the parsed form of the record header preceding each
// captured packet.  Frac is in microseconds or nanoseconds according to
// the file header's magic.
type PacketHeader struct {
	Sec    uint32
	Frac   uint32
	Caplen uint32
	Len    uint32
}

// ParsePacketHeader decodes a record header using the file's byte order.
// It performs no length validation; the caller decides whether a bad
// header means "no record here" or "corrupt file".
func (h FileHeader) ParsePacketHeader(b []byte) (PacketHeader, error) {
	if len(b) < PacketHeaderLen {
		return PacketHeader{}, fmt.Errorf("pcap record header: %w", ErrTruncated)
	}
	return PacketHeader{
		Sec:    h.ByteOrder.Uint32(b),
		Frac:   h.ByteOrder.Uint32(b[4:]),
		Caplen: h.ByteOrder.Uint32(b[8:]),
		Len:    h.ByteOrder.Uint32(b[12:]),
	}, nil
}

// Valid reports whether the header's length fields satisfy the record
// invariants for a file described by h.  A header failing this at some
// file position is a misaligned read, not a record.
func (p PacketHeader) Valid(h FileHeader) bool {
	return p.Caplen > 0 && p.Caplen <= h.MaxCaplen() && p.Caplen <= p.Len
}

// Ts returns the record timestamp at nanosecond resolution.
func (p PacketHeader) Ts(nanosecond bool) nano.Ts {
	ts := nano.Ts(p.Sec) * 1_000_000_000
	if nanosecond {
		return ts + nano.Ts(p.Frac)
	}
	return ts + nano.Ts(p.Frac)*1000
}
