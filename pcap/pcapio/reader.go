package pcapio

import (
	"fmt"
	"io"
)

// Reader reads a classic pcap stream sequentially, returning each record
// header and payload in turn.
type Reader struct {
	r   io.Reader
	hdr FileHeader
	off int64
}

// NewReader parses the stream's file header and returns a Reader
// positioned at the first record.
func NewReader(r io.Reader) (*Reader, error) {
	var b [FileHeaderLen]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("pcap file header: %w", ErrTruncated)
		}
		return nil, err
	}
	hdr, err := ParseFileHeader(b[:])
	if err != nil {
		return nil, err
	}
	return &Reader{r: r, hdr: hdr, off: FileHeaderLen}, nil
}

func (r *Reader) FileHeader() FileHeader {
	return r.hdr
}

// Offset returns the file offset of the next record header.
func (r *Reader) Offset() int64 {
	return r.off
}

// Next returns the next record's header and payload.  It returns io.EOF
// at a clean end of stream and ErrTruncated if the stream ends inside a
// record.
func (r *Reader) Next() (PacketHeader, []byte, error) {
	var hb [PacketHeaderLen]byte
	if _, err := io.ReadFull(r.r, hb[:]); err != nil {
		if err == io.EOF {
			return PacketHeader{}, nil, io.EOF
		}
		if err == io.ErrUnexpectedEOF {
			return PacketHeader{}, nil, fmt.Errorf("offset %d: %w", r.off, ErrTruncated)
		}
		return PacketHeader{}, nil, err
	}
	hdr, err := r.hdr.ParsePacketHeader(hb[:])
	if err != nil {
		return PacketHeader{}, nil, err
	}
	if !hdr.Valid(r.hdr) {
		return PacketHeader{}, nil, fmt.Errorf("offset %d: invalid record header (caplen %d, len %d)", r.off, hdr.Caplen, hdr.Len)
	}
	payload := make([]byte, hdr.Caplen)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return PacketHeader{}, nil, fmt.Errorf("offset %d: %w", r.off, ErrTruncated)
		}
		return PacketHeader{}, nil, err
	}
	r.off += PacketHeaderLen + int64(hdr.Caplen)
	return hdr, payload, nil
}
