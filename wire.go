package layerdocx

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

const (
	headerByteOrder        uint16 = 0xFFFE
	headerSectorShift      uint16 = 0x0009
	headerMiniStreamCutoff uint32 = 0x1000
	headerDirectoryStart   uint32 = 0xFFFFFFFE
	headerSentinel         uint32 = 0xFFFFFFFF
	headerAlignment        uint32 = 0x1000

	sectorsPerLayer = 4096
)

// LayerHeader is the decoded form of the 72-byte layer header.
type LayerHeader struct {
	Signature        [8]byte
	Identifier       [16]byte
	MinorVersion     uint16
	MajorVersion     uint16
	ByteOrder        uint16
	SectorShift      uint16
	TotalSectors     uint32
	DirectorySectors uint32
	TransactionSig   uint32
	MiniStreamCutoff uint32
	DirectoryStart   uint32
	Sentinel         uint32
	Alignment        uint32
	HalfLifeSectors  uint32
	LayerIndex       uint32
	AlphaMicros      uint32
}

// newLayerHeader fills every field of the header for layer i.
func newLayerHeader(i int, alpha float64) (LayerHeader, error) {
	if math.IsNaN(alpha) || math.IsInf(alpha, 0) || alpha <= 0 {
		return LayerHeader{}, fmt.Errorf("%w: header alpha must be finite and > 0, got %v", ErrSynthesis, alpha)
	}
	if i < 0 || uint64(i) > math.MaxUint32 {
		return LayerHeader{}, fmt.Errorf("%w: layer index %d does not fit the header", ErrSynthesis, i)
	}
	inv := math.Floor(1 / alpha)
	sectors := math.Floor(sectorsPerLayer * math.Exp(-alpha*float64(i)))
	micros := math.Floor(alpha * 1e6)
	if math.IsInf(inv, 0) || math.IsInf(micros, 0) {
		return LayerHeader{}, fmt.Errorf("%w: non-finite header field for alpha %v", ErrSynthesis, alpha)
	}
	total := clampUint32(sectors)
	return LayerHeader{
		Signature:        Signature,
		Identifier:       Identifier,
		MinorVersion:     clampUint16(inv),
		MajorVersion:     clampUint16(math.Floor(inv / 10)),
		ByteOrder:        headerByteOrder,
		SectorShift:      headerSectorShift,
		TotalSectors:     total,
		DirectorySectors: 0,
		TransactionSig:   0,
		MiniStreamCutoff: headerMiniStreamCutoff,
		DirectoryStart:   headerDirectoryStart,
		Sentinel:         headerSentinel,
		Alignment:        headerAlignment,
		HalfLifeSectors:  total / 2,
		LayerIndex:       uint32(i),
		AlphaMicros:      clampUint32(micros),
	}, nil
}

// EncodeHeader packs the header of layer i. All integer fields are little
// endian.
func EncodeHeader(i int, alpha float64) ([HeaderSize]byte, error) {
	h, err := newLayerHeader(i, alpha)
	if err != nil {
		return [HeaderSize]byte{}, err
	}
	var buf bytes.Buffer
	buf.Grow(HeaderSize)
	if err := writeLayerHeader(&buf, h); err != nil {
		return [HeaderSize]byte{}, err
	}
	var out [HeaderSize]byte
	copy(out[:], buf.Bytes())
	return out, nil
}

// ParseHeader decodes b and checks the signature and identifier.
func ParseHeader(b []byte) (LayerHeader, error) {
	if len(b) < HeaderSize {
		return LayerHeader{}, fmt.Errorf("%w: need %d bytes, got %d", ErrInvalidHeader, HeaderSize, len(b))
	}
	h, err := readLayerHeader(bytes.NewReader(b[:HeaderSize]))
	if err != nil {
		return LayerHeader{}, err
	}
	if h.Signature != Signature {
		return LayerHeader{}, fmt.Errorf("%w: bad signature", ErrInvalidHeader)
	}
	if h.Identifier != Identifier {
		return LayerHeader{}, fmt.Errorf("%w: bad identifier", ErrInvalidHeader)
	}
	if h.ByteOrder != headerByteOrder {
		return LayerHeader{}, fmt.Errorf("%w: byte order marker %#04x", ErrInvalidHeader, h.ByteOrder)
	}
	return h, nil
}

func readLayerHeader(r io.Reader) (LayerHeader, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return LayerHeader{}, err
	}
	var h LayerHeader
	copy(h.Signature[:], buf[0:8])
	copy(h.Identifier[:], buf[8:24])
	h.MinorVersion = binary.LittleEndian.Uint16(buf[24:26])
	h.MajorVersion = binary.LittleEndian.Uint16(buf[26:28])
	h.ByteOrder = binary.LittleEndian.Uint16(buf[28:30])
	h.SectorShift = binary.LittleEndian.Uint16(buf[30:32])
	h.TotalSectors = binary.LittleEndian.Uint32(buf[32:36])
	h.DirectorySectors = binary.LittleEndian.Uint32(buf[36:40])
	h.TransactionSig = binary.LittleEndian.Uint32(buf[40:44])
	h.MiniStreamCutoff = binary.LittleEndian.Uint32(buf[44:48])
	h.DirectoryStart = binary.LittleEndian.Uint32(buf[48:52])
	h.Sentinel = binary.LittleEndian.Uint32(buf[52:56])
	h.Alignment = binary.LittleEndian.Uint32(buf[56:60])
	h.HalfLifeSectors = binary.LittleEndian.Uint32(buf[60:64])
	h.LayerIndex = binary.LittleEndian.Uint32(buf[64:68])
	h.AlphaMicros = binary.LittleEndian.Uint32(buf[68:72])
	return h, nil
}

func writeLayerHeader(w io.Writer, h LayerHeader) error {
	var buf [HeaderSize]byte
	copy(buf[0:8], h.Signature[:])
	copy(buf[8:24], h.Identifier[:])
	binary.LittleEndian.PutUint16(buf[24:26], h.MinorVersion)
	binary.LittleEndian.PutUint16(buf[26:28], h.MajorVersion)
	binary.LittleEndian.PutUint16(buf[28:30], h.ByteOrder)
	binary.LittleEndian.PutUint16(buf[30:32], h.SectorShift)
	binary.LittleEndian.PutUint32(buf[32:36], h.TotalSectors)
	binary.LittleEndian.PutUint32(buf[36:40], h.DirectorySectors)
	binary.LittleEndian.PutUint32(buf[40:44], h.TransactionSig)
	binary.LittleEndian.PutUint32(buf[44:48], h.MiniStreamCutoff)
	binary.LittleEndian.PutUint32(buf[48:52], h.DirectoryStart)
	binary.LittleEndian.PutUint32(buf[52:56], h.Sentinel)
	binary.LittleEndian.PutUint32(buf[56:60], h.Alignment)
	binary.LittleEndian.PutUint32(buf[60:64], h.HalfLifeSectors)
	binary.LittleEndian.PutUint32(buf[64:68], h.LayerIndex)
	binary.LittleEndian.PutUint32(buf[68:72], h.AlphaMicros)
	_, err := w.Write(buf[:])
	return err
}

func clampUint16(v float64) uint16 {
	switch {
	case !(v > 0):
		return 0
	case v >= math.MaxUint16:
		return math.MaxUint16
	}
	return uint16(v)
}

func clampUint32(v float64) uint32 {
	switch {
	case !(v > 0):
		return 0
	case v >= math.MaxUint32:
		return math.MaxUint32
	}
	return uint32(v)
}
