package las

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
)

const (
	FileSignature = "LASF"

	// HeaderSize is the size of the public header block of LAS 1.0 - 1.2
	HeaderSize = 227

	// DefaultScale replaces zero scale factors
	DefaultScale = 0.01

	systemIDLength   = 32
	softwareIDLength = 32
	returnBuckets    = 5

	// LAS 1.0 point data start signature, counted as header padding
	pointDataStartSignature = 0xCCDD

	defaultSystemID   = "ecopia-map las_codec"
	defaultSoftwareID = "las_codec 1.0"
)

// Vector3 is a triple of doubles used for scale, offset and extents
type Vector3 struct {
	X float64
	Y float64
	Z float64
}

// Bounds is an axis aligned 3D extent
type Bounds struct {
	Min Vector3
	Max Vector3
}

// Contains reports whether the point lies within the extent, borders included
func (b Bounds) Contains(x, y, z float64) bool {
	return x >= b.Min.X && x <= b.Max.X &&
		y >= b.Min.Y && y <= b.Max.Y &&
		z >= b.Min.Z && z <= b.Max.Z
}

// Header is the public header block of a LAS file plus its VLR catalogue
type Header struct {
	signature     string
	fileSourceID  uint16
	reserved      uint16
	projectID     uuid.UUID
	versionMajor  uint8
	versionMinor  uint8
	systemID      string
	softwareID    string
	creationDOY   uint16
	creationYear  uint16
	headerSize    uint16
	dataOffset    uint32
	recordsCount  uint32
	pointCount    uint32
	pointsByRet   [returnBuckets]uint32
	scale         Vector3
	offset        Vector3
	extent        Bounds
	schema        *Schema
	vlrs          []VLR
	compressed    bool
	headerPadding uint32

	// opaque spatial reference definition (proj4 string), not interpreted here
	spatialReference string
}

// NewHeader returns a LAS 1.2, point format 0 header with scale 0.01 and
// offset 0, created today.
func NewHeader() *Header {
	schema, _ := NewSchema(PointFormat0)
	now := time.Now()
	h := &Header{
		signature:    FileSignature,
		versionMajor: 1,
		versionMinor: 2,
		systemID:     defaultSystemID,
		softwareID:   defaultSoftwareID,
		creationDOY:  uint16(now.YearDay()),
		creationYear: uint16(now.Year()),
		headerSize:   HeaderSize,
		scale:        Vector3{DefaultScale, DefaultScale, DefaultScale},
		schema:       schema,
	}
	h.updateDataOffset()
	return h
}

var (
	defaultHeaderOnce sync.Once
	defaultHeader     *Header
)

// DefaultHeader is the shared header points fall back to when built without
// one. It must be treated as read-only.
func DefaultHeader() *Header {
	defaultHeaderOnce.Do(func() {
		defaultHeader = NewHeader()
	})
	return defaultHeader
}

// Clone returns a deep copy. The schema is shared since headers never mutate
// a schema in place.
func (h *Header) Clone() *Header {
	c := *h
	c.vlrs = make([]VLR, len(h.vlrs))
	for i, v := range h.vlrs {
		c.vlrs[i] = v.Clone()
	}
	return &c
}

func (h *Header) FileSignature() string {
	return h.signature
}

func (h *Header) FileSourceID() uint16 {
	return h.fileSourceID
}

func (h *Header) SetFileSourceID(id uint16) {
	h.fileSourceID = id
}

func (h *Header) Reserved() uint16 {
	return h.reserved
}

func (h *Header) SetReserved(v uint16) {
	h.reserved = v
}

func (h *Header) ProjectID() uuid.UUID {
	return h.projectID
}

func (h *Header) SetProjectID(id uuid.UUID) {
	h.projectID = id
}

func (h *Header) VersionMajor() uint8 {
	return h.versionMajor
}

// SetVersionMajor only accepts 1
func (h *Header) SetVersionMajor(v uint8) error {
	if v != 1 {
		return fmt.Errorf("%w: major version %d", ErrUnsupportedVersion, v)
	}
	h.versionMajor = v
	return nil
}

func (h *Header) VersionMinor() uint8 {
	return h.versionMinor
}

// SetVersionMinor accepts 0, 1 and 2. Switching to 1.0 reserves room for the
// two byte point data start signature.
func (h *Header) SetVersionMinor(v uint8) error {
	if v > 2 {
		return fmt.Errorf("%w: minor version %d", ErrUnsupportedVersion, v)
	}
	if v == 0 && h.versionMinor != 0 && h.headerPadding < 2 {
		h.headerPadding = 2
	}
	h.versionMinor = v
	h.updateDataOffset()
	return nil
}

func (h *Header) SystemID() string {
	return h.systemID
}

func (h *Header) SetSystemID(id string) error {
	if len(id) > systemIDLength {
		return &ErrStringTooLong{Field: "system id", Length: len(id), Max: systemIDLength}
	}
	h.systemID = id
	return nil
}

func (h *Header) SoftwareID() string {
	return h.softwareID
}

func (h *Header) SetSoftwareID(id string) error {
	if len(id) > softwareIDLength {
		return &ErrStringTooLong{Field: "software id", Length: len(id), Max: softwareIDLength}
	}
	h.softwareID = id
	return nil
}

func (h *Header) CreationDOY() uint16 {
	return h.creationDOY
}

func (h *Header) SetCreationDOY(v uint16) error {
	if v > 366 {
		return &ErrOutOfRange{Field: "creation day of year", Value: int64(v), Min: 0, Max: 366}
	}
	h.creationDOY = v
	return nil
}

func (h *Header) CreationYear() uint16 {
	return h.creationYear
}

func (h *Header) SetCreationYear(v uint16) {
	h.creationYear = v
}

func (h *Header) HeaderSize() uint16 {
	return h.headerSize
}

// SetHeaderSize accepts sizes of at least HeaderSize; extra bytes are opaque
func (h *Header) SetHeaderSize(v uint16) error {
	if v < HeaderSize {
		return &ErrOutOfRange{Field: "header size", Value: int64(v), Min: HeaderSize, Max: 65535}
	}
	h.headerSize = v
	h.updateDataOffset()
	return nil
}

func (h *Header) DataOffset() uint32 {
	return h.dataOffset
}

// SetDataOffset moves the start of the point data. Any space between the
// VLRs and the points becomes header padding.
func (h *Header) SetDataOffset(v uint32) error {
	floor := uint32(h.headerSize) + h.VLRBlockSize()
	if v < floor {
		return &ErrOutOfRange{Field: "data offset", Value: int64(v), Min: int64(floor), Max: 1<<32 - 1}
	}
	h.headerPadding = v - floor
	h.dataOffset = v
	return nil
}

func (h *Header) HeaderPadding() uint32 {
	return h.headerPadding
}

func (h *Header) SetHeaderPadding(v uint32) {
	h.headerPadding = v
	h.updateDataOffset()
}

func (h *Header) RecordsCount() uint32 {
	return h.recordsCount
}

// DataFormatID is the point format of the records
func (h *Header) DataFormatID() PointFormatName {
	return h.schema.Format()
}

// SetDataFormatID switches point format. The header gets a new schema so
// that points bound to the previous one keep a consistent layout until they
// are rebound with Point.SetHeader.
func (h *Header) SetDataFormatID(f PointFormatName) error {
	s := h.schema.Clone()
	if err := s.SetDataFormatID(f); err != nil {
		return err
	}
	h.schema = s
	return nil
}

// Schema returns a copy of the record layout; use SetSchema to change it
func (h *Header) Schema() *Schema {
	return h.schema.Clone()
}

// SetSchema replaces the record layout, typically to add custom dimensions
func (h *Header) SetSchema(s *Schema) error {
	if _, err := s.ByteSize(); err != nil {
		return err
	}
	h.schema = s.Clone()
	return nil
}

// DataRecordLength is the record length derived from the schema
func (h *Header) DataRecordLength() uint16 {
	size, err := h.schema.ByteSize()
	if err != nil {
		return 0
	}
	return uint16(size)
}

func (h *Header) PointRecordsCount() uint32 {
	return h.pointCount
}

func (h *Header) SetPointRecordsCount(v uint32) {
	h.pointCount = v
}

// PointRecordsByReturnCount returns the five per-return counters
func (h *Header) PointRecordsByReturnCount() [returnBuckets]uint32 {
	return h.pointsByRet
}

func (h *Header) SetPointRecordsByReturnCount(index int, value uint32) error {
	if index < 0 || index >= returnBuckets {
		return &ErrOutOfRange{Field: "return count index", Value: int64(index), Min: 0, Max: returnBuckets - 1}
	}
	h.pointsByRet[index] = value
	return nil
}

func (h *Header) Scale() Vector3 {
	return h.scale
}

// SetScale sets the scale factors. A zero component becomes DefaultScale,
// keeping later descaling away from a division by zero.
func (h *Header) SetScale(x, y, z float64) {
	fix := func(axis string, v float64) float64 {
		if v == 0 {
			glog.Warningf("las: zero %s scale replaced with %v", axis, DefaultScale)
			return DefaultScale
		}
		return v
	}
	h.scale = Vector3{fix("x", x), fix("y", y), fix("z", z)}
}

func (h *Header) Offset() Vector3 {
	return h.offset
}

func (h *Header) SetOffset(x, y, z float64) {
	h.offset = Vector3{x, y, z}
}

func (h *Header) Extent() Bounds {
	return h.extent
}

func (h *Header) Min() Vector3 {
	return h.extent.Min
}

func (h *Header) Max() Vector3 {
	return h.extent.Max
}

func (h *Header) SetMin(x, y, z float64) {
	h.extent.Min = Vector3{x, y, z}
}

func (h *Header) SetMax(x, y, z float64) {
	h.extent.Max = Vector3{x, y, z}
}

func (h *Header) SetExtent(b Bounds) {
	h.extent = b
}

func (h *Header) Compressed() bool {
	return h.compressed
}

func (h *Header) SetCompressed(v bool) {
	h.compressed = v
}

func (h *Header) SpatialReference() string {
	return h.spatialReference
}

func (h *Header) SetSpatialReference(def string) {
	h.spatialReference = def
}

// VLRs returns the variable length records
func (h *Header) VLRs() []VLR {
	return h.vlrs
}

func (h *Header) VLR(index int) (VLR, error) {
	if index < 0 || index >= len(h.vlrs) {
		return VLR{}, &ErrOutOfRange{Field: "vlr index", Value: int64(index), Min: 0, Max: int64(len(h.vlrs)) - 1}
	}
	return h.vlrs[index], nil
}

// AddVLR appends a record and keeps RecordsCount and the data offset in step
func (h *Header) AddVLR(v VLR) error {
	if len(v.Data) > maxVLRPayload {
		return &ErrOutOfRange{Field: "vlr payload length", Value: int64(len(v.Data)), Min: 0, Max: maxVLRPayload}
	}
	h.vlrs = append(h.vlrs, v.Clone())
	h.recordsCount = uint32(len(h.vlrs))
	h.updateDataOffset()
	return nil
}

func (h *Header) DeleteVLR(index int) error {
	if index < 0 || index >= len(h.vlrs) {
		return &ErrOutOfRange{Field: "vlr index", Value: int64(index), Min: 0, Max: int64(len(h.vlrs)) - 1}
	}
	h.vlrs = append(h.vlrs[:index], h.vlrs[index+1:]...)
	h.recordsCount = uint32(len(h.vlrs))
	h.updateDataOffset()
	return nil
}

// VLRBlockSize is the on-disk size of all VLRs, headers included
func (h *Header) VLRBlockSize() uint32 {
	var total uint32
	for _, v := range h.vlrs {
		total += v.TotalSize()
	}
	return total
}

func (h *Header) updateDataOffset() {
	h.dataOffset = uint32(h.headerSize) + h.VLRBlockSize() + h.headerPadding
}

// Validate checks the invariants a header must satisfy before it is written
func (h *Header) Validate() error {
	if h.signature != FileSignature {
		return ErrInvalidSignature
	}
	if h.versionMajor != 1 || h.versionMinor > 2 {
		return fmt.Errorf("%w: %d.%d", ErrUnsupportedVersion, h.versionMajor, h.versionMinor)
	}
	if !h.schema.Format().Valid() {
		return ErrUnsupportedPointFormat
	}
	if _, err := h.schema.ByteSize(); err != nil {
		return err
	}
	if h.headerSize < HeaderSize {
		return &ErrOutOfRange{Field: "header size", Value: int64(h.headerSize), Min: HeaderSize, Max: 65535}
	}
	floor := uint32(h.headerSize) + h.VLRBlockSize()
	if h.dataOffset < floor {
		return &ErrOutOfRange{Field: "data offset", Value: int64(h.dataOffset), Min: int64(floor), Max: 1<<32 - 1}
	}
	if h.recordsCount != uint32(len(h.vlrs)) {
		return &ErrOutOfRange{Field: "vlr count", Value: int64(h.recordsCount), Min: int64(len(h.vlrs)), Max: int64(len(h.vlrs))}
	}
	return nil
}

// sameTransform reports whether two headers map raw integers identically
func (h *Header) sameTransform(o *Header) bool {
	return h.scale == o.scale && h.offset == o.offset
}
