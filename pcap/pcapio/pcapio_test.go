package pcapio_test

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/slicecap/slicecap/pcap/pcapio"
	"github.com/slicecap/slicecap/pkg/nano"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileHeader(order binary.ByteOrder, magic, snaplen uint32) []byte {
	b := make([]byte, pcapio.FileHeaderLen)
	order.PutUint32(b, magic)
	order.PutUint16(b[4:], 2)
	order.PutUint16(b[6:], 4)
	order.PutUint32(b[16:], snaplen)
	order.PutUint32(b[20:], uint32(layers.LinkTypeEthernet))
	return b
}

func TestParseFileHeader(t *testing.T) {
	cases := []struct {
		name       string
		order      binary.ByteOrder
		magic      uint32
		nanosecond bool
	}{
		{"big-micro", binary.BigEndian, pcapio.MagicMicro, false},
		{"little-micro", binary.LittleEndian, pcapio.MagicMicro, false},
		{"big-nano", binary.BigEndian, pcapio.MagicNano, true},
		{"little-nano", binary.LittleEndian, pcapio.MagicNano, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b := fileHeader(c.order, c.magic, 65535)
			h, err := pcapio.ParseFileHeader(b)
			require.NoError(t, err)
			assert.Equal(t, c.order, h.ByteOrder)
			assert.Equal(t, c.nanosecond, h.Nanosecond)
			assert.Equal(t, c.magic, h.Magic)
			assert.Equal(t, uint32(65535), h.Snaplen)
			assert.Equal(t, layers.LinkTypeEthernet, h.LinkType())
			assert.Equal(t, "2.4", h.Version())
			assert.Equal(t, b, h.Bytes())
		})
	}
}

func TestParseFileHeaderErrors(t *testing.T) {
	b := fileHeader(binary.BigEndian, 0xdeadbeef, 65535)
	_, err := pcapio.ParseFileHeader(b)
	assert.ErrorIs(t, err, pcapio.ErrInvalidMagic)

	_, err = pcapio.ParseFileHeader(b[:10])
	assert.ErrorIs(t, err, pcapio.ErrTruncated)

	b = fileHeader(binary.BigEndian, pcapio.MagicMicro, 65535)
	binary.BigEndian.PutUint16(b[4:], 3)
	_, err = pcapio.ParseFileHeader(b)
	assert.ErrorIs(t, err, pcapio.ErrVersion)
}

func TestMaxCaplenFallback(t *testing.T) {
	h, err := pcapio.ParseFileHeader(fileHeader(binary.BigEndian, pcapio.MagicMicro, 0))
	require.NoError(t, err)
	assert.Equal(t, uint32(9000), h.MaxCaplen())
	h, err = pcapio.ParseFileHeader(fileHeader(binary.BigEndian, pcapio.MagicMicro, 1500))
	require.NoError(t, err)
	assert.Equal(t, uint32(1500), h.MaxCaplen())
}

func TestParsePacketHeader(t *testing.T) {
	h, err := pcapio.ParseFileHeader(fileHeader(binary.LittleEndian, pcapio.MagicMicro, 65535))
	require.NoError(t, err)
	b := make([]byte, pcapio.PacketHeaderLen)
	binary.LittleEndian.PutUint32(b, 100)
	binary.LittleEndian.PutUint32(b[4:], 500)
	binary.LittleEndian.PutUint32(b[8:], 60)
	binary.LittleEndian.PutUint32(b[12:], 90)
	p, err := h.ParsePacketHeader(b)
	require.NoError(t, err)
	assert.Equal(t, pcapio.PacketHeader{Sec: 100, Frac: 500, Caplen: 60, Len: 90}, p)
	assert.Equal(t, nano.Ts(100_000_000_500_000), p.Ts(false))
	assert.Equal(t, nano.Ts(100_000_000_000_500), p.Ts(true))
	assert.True(t, p.Valid(h))

	_, err = h.ParsePacketHeader(b[:8])
	assert.ErrorIs(t, err, pcapio.ErrTruncated)
}

func TestPacketHeaderValid(t *testing.T) {
	h, err := pcapio.ParseFileHeader(fileHeader(binary.BigEndian, pcapio.MagicMicro, 1500))
	require.NoError(t, err)
	assert.False(t, pcapio.PacketHeader{Caplen: 0, Len: 0}.Valid(h))
	assert.False(t, pcapio.PacketHeader{Caplen: 2000, Len: 2000}.Valid(h))
	assert.False(t, pcapio.PacketHeader{Caplen: 100, Len: 60}.Valid(h))
	assert.True(t, pcapio.PacketHeader{Caplen: 100, Len: 100}.Valid(h))
}

func writePcap(t *testing.T, times []time.Time, payloadLen int) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := pcapgo.NewWriter(&buf)
	require.NoError(t, w.WriteFileHeader(65535, layers.LinkTypeEthernet))
	payload := bytes.Repeat([]byte{0xcc}, payloadLen)
	for _, ts := range times {
		ci := gopacket.CaptureInfo{Timestamp: ts, CaptureLength: payloadLen, Length: payloadLen}
		require.NoError(t, w.WritePacket(ci, payload))
	}
	return buf.Bytes()
}

func TestReader(t *testing.T) {
	base := time.Unix(1400000000, 0)
	var times []time.Time
	for i := 0; i < 10; i++ {
		times = append(times, base.Add(time.Duration(i)*time.Millisecond))
	}
	data := writePcap(t, times, 64)
	r, err := pcapio.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, uint32(65535), r.FileHeader().Snaplen)
	assert.Equal(t, int64(pcapio.FileHeaderLen), r.Offset())
	var n int
	for {
		hdr, payload, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		assert.Len(t, payload, 64)
		expected := times[n].Truncate(time.Microsecond).UnixNano()
		assert.Equal(t, nano.Ts(expected), hdr.Ts(r.FileHeader().Nanosecond))
		n++
		assert.Equal(t, int64(pcapio.FileHeaderLen+n*(pcapio.PacketHeaderLen+64)), r.Offset())
	}
	assert.Equal(t, len(times), n)
}

func TestReaderTruncated(t *testing.T) {
	data := writePcap(t, []time.Time{time.Unix(1400000000, 0)}, 64)

	// Stream ends inside the last record's payload.
	r, err := pcapio.NewReader(bytes.NewReader(data[:len(data)-10]))
	require.NoError(t, err)
	_, _, err = r.Next()
	assert.ErrorIs(t, err, pcapio.ErrTruncated)

	// Stream ends inside a record header.
	r, err = pcapio.NewReader(bytes.NewReader(data[:pcapio.FileHeaderLen+8]))
	require.NoError(t, err)
	_, _, err = r.Next()
	assert.ErrorIs(t, err, pcapio.ErrTruncated)

	// Stream ends inside the file header.
	_, err = pcapio.NewReader(bytes.NewReader(data[:12]))
	assert.ErrorIs(t, err, pcapio.ErrTruncated)
}
