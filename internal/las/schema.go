// Package las reads, writes and interprets LAS 1.0-1.2 point cloud files:
// the schema driven point record layout, the public header block with its
// variable length records, and streaming readers and writers on top.
package las

import "fmt"

// PointFormatName enumerates the point record layouts of LAS 1.2
type PointFormatName uint8

const (
	PointFormat0 PointFormatName = iota // base record
	PointFormat1                        // base + GPS time
	PointFormat2                        // base + RGB
	PointFormat3                        // base + GPS time + RGB
)

// Record lengths in bytes of the canonical layouts
const (
	PointFormat0Size = 20
	PointFormat1Size = 28
	PointFormat2Size = 26
	PointFormat3Size = 34
)

// ParsePointFormat converts the on-disk format id into a PointFormatName
func ParsePointFormat(id uint8) (PointFormatName, error) {
	f := PointFormatName(id)
	if !f.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedPointFormat, id)
	}
	return f, nil
}

func (f PointFormatName) Valid() bool {
	return f <= PointFormat3
}

func (f PointFormatName) HasTime() bool {
	return f == PointFormat1 || f == PointFormat3
}

func (f PointFormatName) HasColor() bool {
	return f == PointFormat2 || f == PointFormat3
}

func (f PointFormatName) String() string {
	if !f.Valid() {
		return fmt.Sprintf("PointFormat(%d)", uint8(f))
	}
	return fmt.Sprintf("Format%d", uint8(f))
}

// well known dimensions resolved once per schema so the point accessors
// avoid a map lookup per field
type knownDim int

const (
	kX knownDim = iota
	kY
	kZ
	kIntensity
	kReturnNumber
	kNumberOfReturns
	kScanDirection
	kFlightLineEdge
	kClassification
	kScanAngleRank
	kUserData
	kPointSourceID
	kTime
	kRed
	kGreen
	kBlue
	numKnown
)

var knownNames = [numKnown]string{
	DimX, DimY, DimZ, DimIntensity,
	DimReturnNumber, DimNumberOfReturns, DimScanDirection, DimFlightLineEdge,
	DimClassification, DimScanAngleRank, DimUserData, DimPointSourceID,
	DimTime, DimRed, DimGreen, DimBlue,
}

type fieldPos struct {
	present bool
	off     uint32
	size    uint32
}

// Schema is the ordered list of dimensions composing a point record
type Schema struct {
	format     PointFormatName
	dimensions []Dimension
	index      map[string]int
	known      [numKnown]fieldPos
}

// NewSchema builds the canonical dimension list of a point format
func NewSchema(format PointFormatName) (*Schema, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedPointFormat, uint8(format))
	}
	s := &Schema{format: format}
	s.dimensions = canonicalDimensions(format)
	s.update()
	return s, nil
}

func canonicalDimensions(format PointFormatName) []Dimension {
	dims := []Dimension{
		requiredDimension(DimX, 32, "x coordinate as a long integer. You must use the scale and offset information of the header to determine the double value."),
		requiredDimension(DimY, 32, "y coordinate as a long integer. You must use the scale and offset information of the header to determine the double value."),
		requiredDimension(DimZ, 32, "z coordinate as a long integer. You must use the scale and offset information of the header to determine the double value."),
		requiredDimension(DimIntensity, 16, "The intensity value is the integer representation of the pulse return magnitude."),
		requiredDimension(DimReturnNumber, 3, "Pulse return number for a given output pulse."),
		requiredDimension(DimNumberOfReturns, 3, "Total number of returns for a given pulse."),
		requiredDimension(DimScanDirection, 1, "Direction at which the scanner mirror was traveling at the time of the output pulse."),
		requiredDimension(DimFlightLineEdge, 1, "Set when the point is at the end of a scan, the last point on a given scan line before it changes direction."),
		requiredDimension(DimClassification, 8, "ASPRS class in the low five bits, synthetic, key-point and withheld flags in the high three."),
		requiredDimension(DimScanAngleRank, 8, "Angle, rounded to the nearest integer, at which the laser pulse was output including the roll of the aircraft."),
		requiredDimension(DimUserData, 8, "Free for use by the data producer."),
		requiredDimension(DimPointSourceID, 16, "File source ID from which this point originated."),
	}
	if format.HasTime() {
		dims = append(dims, requiredDimension(DimTime, 64, "GPS time at which the point was acquired, as a double."))
	}
	if format.HasColor() {
		dims = append(dims,
			requiredDimension(DimRed, 16, "Red image channel value associated with this point."),
			requiredDimension(DimGreen, 16, "Green image channel value associated with this point."),
			requiredDimension(DimBlue, 16, "Blue image channel value associated with this point."),
		)
	}
	return dims
}

// update recomputes offsets, the name index and the known field table
func (s *Schema) update() {
	s.index = make(map[string]int, len(s.dimensions))
	s.known = [numKnown]fieldPos{}

	var off uint32
	for i := range s.dimensions {
		s.dimensions[i].bitOffset = off
		off += s.dimensions[i].BitSize
		s.index[s.dimensions[i].Name] = i
	}
	for k, name := range knownNames {
		if i, ok := s.index[name]; ok {
			d := s.dimensions[i]
			s.known[k] = fieldPos{present: true, off: d.bitOffset, size: d.BitSize}
		}
	}
}

func (s *Schema) Format() PointFormatName {
	return s.format
}

// BitSize sums the bit sizes of all dimensions
func (s *Schema) BitSize() uint32 {
	var total uint32
	for _, d := range s.dimensions {
		total += d.BitSize
	}
	return total
}

// ByteSize is the record length in bytes. It fails when the dimensions do
// not fill a whole number of bytes.
func (s *Schema) ByteSize() (uint32, error) {
	bits := s.BitSize()
	if bits%8 != 0 {
		return 0, &ErrSizeAlignment{BitSize: bits}
	}
	return bits / 8, nil
}

// BaseByteSize is the byte size of the required dimensions only
func (s *Schema) BaseByteSize() uint32 {
	var bits uint32
	for _, d := range s.dimensions {
		if d.IsRequired {
			bits += d.BitSize
		}
	}
	return bits / 8
}

// Dimension looks a dimension up by name
func (s *Schema) Dimension(name string) (Dimension, bool) {
	i, ok := s.index[name]
	if !ok {
		return Dimension{}, false
	}
	return s.dimensions[i], true
}

// Dimensions returns the dimensions in record order
func (s *Schema) Dimensions() []Dimension {
	out := make([]Dimension, len(s.dimensions))
	copy(out, s.dimensions)
	return out
}

// AddDimension appends a dimension at the end of the record
func (s *Schema) AddDimension(d Dimension) error {
	if _, ok := s.index[d.Name]; ok {
		return &ErrDuplicateDimension{Name: d.Name}
	}
	if d.BitSize == 0 || d.BitSize > 64 {
		return &ErrOutOfRange{Field: "dimension bit size", Value: int64(d.BitSize), Min: 1, Max: 64}
	}
	s.dimensions = append(s.dimensions, d)
	s.update()
	return nil
}

// RemoveDimension drops a non-required dimension. Required ones stay.
func (s *Schema) RemoveDimension(name string) bool {
	i, ok := s.index[name]
	if !ok || s.dimensions[i].IsRequired {
		return false
	}
	s.dimensions = append(s.dimensions[:i], s.dimensions[i+1:]...)
	s.update()
	return true
}

// SetDataFormatID re-derives the required dimensions for a new format and
// keeps the user-added ones after them, in their original order.
func (s *Schema) SetDataFormatID(format PointFormatName) error {
	if !format.Valid() {
		return fmt.Errorf("%w: %d", ErrUnsupportedPointFormat, uint8(format))
	}
	dims := canonicalDimensions(format)
	for _, d := range s.dimensions {
		if !d.IsRequired {
			dims = append(dims, d)
		}
	}
	s.format = format
	s.dimensions = dims
	s.update()
	return nil
}

func (s *Schema) HasTime() bool {
	return s.known[kTime].present
}

func (s *Schema) HasColor() bool {
	return s.known[kRed].present && s.known[kGreen].present && s.known[kBlue].present
}

// Clone returns an independent copy
func (s *Schema) Clone() *Schema {
	c := &Schema{format: s.format}
	c.dimensions = s.Dimensions()
	c.update()
	return c
}

// sameLayout reports whether two schemas place the same dimensions at the same offsets
func (s *Schema) sameLayout(o *Schema) bool {
	if s == o {
		return true
	}
	if len(s.dimensions) != len(o.dimensions) {
		return false
	}
	for i := range s.dimensions {
		a, b := s.dimensions[i], o.dimensions[i]
		if a.Name != b.Name || a.BitSize != b.BitSize || a.bitOffset != b.bitOffset {
			return false
		}
	}
	return true
}
