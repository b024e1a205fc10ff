package las

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// VLRHeaderSize is the fixed on-disk size of a VLR header
	VLRHeaderSize = 54

	vlrUserIDLength      = 16
	vlrDescriptionLength = 32
	maxVLRPayload        = 65535
)

// VLR is a variable length record following the public header block
type VLR struct {
	Reserved    uint16
	UserID      string
	RecordID    uint16
	Description string
	Data        []byte
}

// NewVLR validates the fixed-width strings and builds a record
func NewVLR(userID string, recordID uint16, description string, data []byte) (VLR, error) {
	if len(userID) > vlrUserIDLength {
		return VLR{}, &ErrStringTooLong{Field: "vlr user id", Length: len(userID), Max: vlrUserIDLength}
	}
	if len(description) > vlrDescriptionLength {
		return VLR{}, &ErrStringTooLong{Field: "vlr description", Length: len(description), Max: vlrDescriptionLength}
	}
	if len(data) > maxVLRPayload {
		return VLR{}, &ErrOutOfRange{Field: "vlr payload length", Value: int64(len(data)), Min: 0, Max: maxVLRPayload}
	}
	return VLR{
		UserID:      userID,
		RecordID:    recordID,
		Description: description,
		Data:        append([]byte(nil), data...),
	}, nil
}

// RecordLength is the payload length following the 54 byte header
func (v VLR) RecordLength() uint16 {
	return uint16(len(v.Data))
}

// TotalSize is the on-disk size, header plus payload
func (v VLR) TotalSize() uint32 {
	return VLRHeaderSize + uint32(len(v.Data))
}

func (v VLR) Clone() VLR {
	c := v
	c.Data = append([]byte(nil), v.Data...)
	return c
}

func (v VLR) String() string {
	return fmt.Sprintf("%s/%d (%s) %d bytes", v.UserID, v.RecordID, v.Description, len(v.Data))
}

// WriteTo encodes the VLR header and payload
func (v VLR) WriteTo(w io.Writer) (int64, error) {
	var hdr [VLRHeaderSize]byte
	binary.LittleEndian.PutUint16(hdr[0:], v.Reserved)
	putFixedString(hdr[2:18], v.UserID)
	binary.LittleEndian.PutUint16(hdr[18:], v.RecordID)
	binary.LittleEndian.PutUint16(hdr[20:], v.RecordLength())
	putFixedString(hdr[22:54], v.Description)

	n, err := w.Write(hdr[:])
	if err != nil {
		return int64(n), err
	}
	m, err := w.Write(v.Data)
	return int64(n + m), err
}

func readVLR(r io.Reader) (VLR, error) {
	var hdr [VLRHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return VLR{}, fmt.Errorf("las: reading vlr header: %w", err)
	}
	v := VLR{
		Reserved:    binary.LittleEndian.Uint16(hdr[0:]),
		UserID:      fixedString(hdr[2:18]),
		RecordID:    binary.LittleEndian.Uint16(hdr[18:]),
		Description: fixedString(hdr[22:54]),
	}
	length := binary.LittleEndian.Uint16(hdr[20:])
	v.Data = make([]byte, length)
	if _, err := io.ReadFull(r, v.Data); err != nil {
		return VLR{}, fmt.Errorf("las: reading vlr %s/%d payload: %w", v.UserID, v.RecordID, err)
	}
	return v, nil
}

// putFixedString copies s into a NUL padded field
func putFixedString(dst []byte, s string) {
	n := copy(dst, s)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

// fixedString reads a NUL padded field
func fixedString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
