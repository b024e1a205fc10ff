package las

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/google/uuid"
)

const (
	compressedFormatBit = 0x80
	formatIDMask        = 0x3F
)

// ReadHeader parses the public header block and the VLRs that follow it.
// On return r is positioned right after the last VLR.
func ReadHeader(r io.Reader) (*Header, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, fmt.Errorf("las: reading header: %w", err)
	}
	h, err := decodeFixedHeader(buf[:])
	if err != nil {
		return nil, err
	}

	if extra := int64(h.headerSize) - HeaderSize; extra > 0 {
		if _, err := io.CopyN(io.Discard, r, extra); err != nil {
			return nil, fmt.Errorf("las: skipping %d extra header bytes: %w", extra, err)
		}
	}

	for i := uint32(0); i < h.recordsCount; i++ {
		v, err := readVLR(r)
		if err != nil {
			return nil, err
		}
		h.vlrs = append(h.vlrs, v)
	}

	floor := uint32(h.headerSize) + h.VLRBlockSize()
	if h.dataOffset < floor {
		return nil, &ErrOutOfRange{Field: "data offset", Value: int64(h.dataOffset), Min: int64(floor), Max: 1<<32 - 1}
	}
	h.headerPadding = h.dataOffset - floor
	return h, nil
}

func decodeFixedHeader(b []byte) (*Header, error) {
	le := binary.LittleEndian

	if string(b[0:4]) != FileSignature {
		return nil, ErrInvalidSignature
	}

	h := &Header{signature: FileSignature}
	h.fileSourceID = le.Uint16(b[4:])
	h.reserved = le.Uint16(b[6:])
	h.projectID = decodeGUID(b[8:24])
	h.versionMajor = b[24]
	h.versionMinor = b[25]
	if h.versionMajor != 1 || h.versionMinor > 2 {
		return nil, fmt.Errorf("%w: %d.%d", ErrUnsupportedVersion, h.versionMajor, h.versionMinor)
	}
	h.systemID = fixedString(b[26:58])
	h.softwareID = fixedString(b[58:90])
	h.creationDOY = le.Uint16(b[90:])
	h.creationYear = le.Uint16(b[92:])
	h.headerSize = le.Uint16(b[94:])
	if h.headerSize < HeaderSize {
		return nil, &ErrOutOfRange{Field: "header size", Value: int64(h.headerSize), Min: HeaderSize, Max: 65535}
	}
	h.dataOffset = le.Uint32(b[96:])
	h.recordsCount = le.Uint32(b[100:])

	formatID := b[104]
	h.compressed = formatID&compressedFormatBit != 0
	format, err := ParsePointFormat(formatID & formatIDMask)
	if err != nil {
		return nil, err
	}
	if h.schema, err = NewSchema(format); err != nil {
		return nil, err
	}
	recordLength := le.Uint16(b[105:])
	if err := h.fitRecordLength(recordLength); err != nil {
		return nil, err
	}

	h.pointCount = le.Uint32(b[107:])
	for i := 0; i < returnBuckets; i++ {
		h.pointsByRet[i] = le.Uint32(b[111+4*i:])
	}

	f := func(off int) float64 { return math.Float64frombits(le.Uint64(b[off:])) }
	h.scale = Vector3{f(131), f(139), f(147)}
	h.offset = Vector3{f(155), f(163), f(171)}
	h.extent.Max.X, h.extent.Min.X = f(179), f(187)
	h.extent.Max.Y, h.extent.Min.Y = f(195), f(203)
	h.extent.Max.Z, h.extent.Min.Z = f(211), f(219)
	return h, nil
}

// fitRecordLength extends the schema with opaque trailing dimensions when
// records are longer than the point format requires
func (h *Header) fitRecordLength(length uint16) error {
	size, err := h.schema.ByteSize()
	if err != nil {
		return err
	}
	if uint32(length) < size {
		return fmt.Errorf("%w: header declares %d bytes, %s needs %d", ErrShortRecord, length, h.schema.Format(), size)
	}
	extra := uint32(length) - size
	for i := 0; extra > 0; i++ {
		n := extra
		if n > 8 {
			n = 8
		}
		d := NewDimension(fmt.Sprintf("Extra%d", i), n*8, "Opaque trailing record bytes")
		if err := h.schema.AddDimension(d); err != nil {
			return err
		}
		extra -= n
	}
	return nil
}

// encodeFixedHeader produces the 227 byte public header block
func (h *Header) encodeFixedHeader() []byte {
	le := binary.LittleEndian
	b := make([]byte, HeaderSize)

	copy(b[0:4], FileSignature)
	le.PutUint16(b[4:], h.fileSourceID)
	le.PutUint16(b[6:], h.reserved)
	encodeGUID(b[8:24], h.projectID)
	b[24] = h.versionMajor
	b[25] = h.versionMinor
	putFixedString(b[26:58], h.systemID)
	putFixedString(b[58:90], h.softwareID)
	le.PutUint16(b[90:], h.creationDOY)
	le.PutUint16(b[92:], h.creationYear)
	le.PutUint16(b[94:], h.headerSize)
	le.PutUint32(b[96:], h.dataOffset)
	le.PutUint32(b[100:], h.recordsCount)

	formatID := uint8(h.schema.Format())
	if h.compressed {
		formatID |= compressedFormatBit
	}
	b[104] = formatID
	le.PutUint16(b[105:], h.DataRecordLength())
	le.PutUint32(b[107:], h.pointCount)
	for i := 0; i < returnBuckets; i++ {
		le.PutUint32(b[111+4*i:], h.pointsByRet[i])
	}

	f := func(off int, v float64) { le.PutUint64(b[off:], math.Float64bits(v)) }
	f(131, h.scale.X)
	f(139, h.scale.Y)
	f(147, h.scale.Z)
	f(155, h.offset.X)
	f(163, h.offset.Y)
	f(171, h.offset.Z)
	f(179, h.extent.Max.X)
	f(187, h.extent.Min.X)
	f(195, h.extent.Max.Y)
	f(203, h.extent.Min.Y)
	f(211, h.extent.Max.Z)
	f(219, h.extent.Min.Z)
	return b
}

// WriteTo writes the header block, the VLRs and the padding up to the data offset
func (h *Header) WriteTo(w io.Writer) (int64, error) {
	if err := h.Validate(); err != nil {
		return 0, err
	}

	var total int64
	n, err := w.Write(h.encodeFixedHeader())
	total += int64(n)
	if err != nil {
		return total, err
	}

	if extra := int(h.headerSize) - HeaderSize; extra > 0 {
		n, err = w.Write(make([]byte, extra))
		total += int64(n)
		if err != nil {
			return total, err
		}
	}

	for _, v := range h.vlrs {
		m, err := v.WriteTo(w)
		total += m
		if err != nil {
			return total, err
		}
	}

	if h.headerPadding > 0 {
		pad := make([]byte, h.headerPadding)
		if h.versionMinor == 0 && h.headerPadding >= 2 {
			binary.LittleEndian.PutUint16(pad[len(pad)-2:], pointDataStartSignature)
		}
		n, err = w.Write(pad)
		total += int64(n)
	}
	return total, err
}

// MarshalBinary encodes everything up to the first point record
func (h *Header) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := h.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a header produced by MarshalBinary or read from a file
func (h *Header) UnmarshalBinary(data []byte) error {
	parsed, err := ReadHeader(bytes.NewReader(data))
	if err != nil {
		return err
	}
	*h = *parsed
	return nil
}

// The project GUID is stored as u32, u16, u16 little endian then 8 raw bytes
func decodeGUID(b []byte) uuid.UUID {
	var id uuid.UUID
	binary.BigEndian.PutUint32(id[0:], binary.LittleEndian.Uint32(b[0:]))
	binary.BigEndian.PutUint16(id[4:], binary.LittleEndian.Uint16(b[4:]))
	binary.BigEndian.PutUint16(id[6:], binary.LittleEndian.Uint16(b[6:]))
	copy(id[8:], b[8:16])
	return id
}

func encodeGUID(b []byte, id uuid.UUID) {
	binary.LittleEndian.PutUint32(b[0:], binary.BigEndian.Uint32(id[0:]))
	binary.LittleEndian.PutUint16(b[4:], binary.BigEndian.Uint16(id[4:]))
	binary.LittleEndian.PutUint16(b[6:], binary.BigEndian.Uint16(id[6:]))
	copy(b[8:16], id[8:])
}
