package las

import (
	"fmt"
	"math"
)

// Point is one fixed-length point record bound to the header that gives its
// raw integer coordinates their scale and offset. A Point never owns its
// header and is not safe for concurrent mutation.
type Point struct {
	header *Header
	schema *Schema
	data   []byte
}

// NewPoint returns a zeroed record laid out by the header's schema. A nil
// header binds the point to DefaultHeader.
func NewPoint(h *Header) *Point {
	if h == nil {
		h = DefaultHeader()
	}
	p := &Point{header: h, schema: h.schema}
	p.data = make([]byte, p.recordSize())
	return p
}

func (p *Point) recordSize() int {
	size, err := p.schema.ByteSize()
	if err != nil {
		// a header only ever holds aligned schemas
		panic(err)
	}
	return int(size)
}

func (p *Point) Header() *Header {
	return p.header
}

// Schema returns a copy of the layout the point is bound to
func (p *Point) Schema() *Schema {
	return p.schema.Clone()
}

func (p *Point) HasTime() bool {
	return p.schema.HasTime()
}

func (p *Point) HasColor() bool {
	return p.schema.HasColor()
}

// Data exposes the raw record bytes
func (p *Point) Data() []byte {
	return p.data
}

// SetData copies a raw record into the point
func (p *Point) SetData(b []byte) error {
	if len(b) != len(p.data) {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrShortRecord, len(b), len(p.data))
	}
	copy(p.data, b)
	return nil
}

// Clone returns an independent copy bound to the same header
func (p *Point) Clone() *Point {
	return &Point{
		header: p.header,
		schema: p.schema,
		data:   append([]byte(nil), p.data...),
	}
}

// bind attaches h without touching the record bytes. Used when a buffer is
// refilled with records laid out by h.
func (p *Point) bind(h *Header) {
	if p.header == h {
		return
	}
	p.header = h
	p.schema = h.schema
	if size := p.recordSize(); size != len(p.data) {
		p.data = make([]byte, size)
	}
}

func (p *Point) get(k knownDim) uint64 {
	f := p.schema.known[k]
	if !f.present {
		return 0
	}
	return readBits(p.data, f.off, f.size)
}

func (p *Point) set(k knownDim, v uint64) bool {
	f := p.schema.known[k]
	if !f.present {
		return false
	}
	writeBits(p.data, f.off, f.size, v)
	return true
}

func (p *Point) RawX() int32 { return int32(p.get(kX)) }
func (p *Point) RawY() int32 { return int32(p.get(kY)) }
func (p *Point) RawZ() int32 { return int32(p.get(kZ)) }

func (p *Point) SetRawX(v int32) { p.set(kX, uint64(uint32(v))) }
func (p *Point) SetRawY(v int32) { p.set(kY, uint64(uint32(v))) }
func (p *Point) SetRawZ(v int32) { p.set(kZ, uint64(uint32(v))) }

// X is the descaled coordinate raw*scale+offset
func (p *Point) X() float64 {
	return descale(p.RawX(), p.header.scale.X, p.header.offset.X)
}

func (p *Point) Y() float64 {
	return descale(p.RawY(), p.header.scale.Y, p.header.offset.Y)
}

func (p *Point) Z() float64 {
	return descale(p.RawZ(), p.header.scale.Z, p.header.offset.Z)
}

// SetX stores round((v-offset)/scale), rounding half away from zero
func (p *Point) SetX(v float64) {
	p.SetRawX(rawFromReal(v, p.header.scale.X, p.header.offset.X))
}

func (p *Point) SetY(v float64) {
	p.SetRawY(rawFromReal(v, p.header.scale.Y, p.header.offset.Y))
}

func (p *Point) SetZ(v float64) {
	p.SetRawZ(rawFromReal(v, p.header.scale.Z, p.header.offset.Z))
}

// SetCoordinates sets X, Y and Z at once
func (p *Point) SetCoordinates(x, y, z float64) {
	p.SetX(x)
	p.SetY(y)
	p.SetZ(z)
}

func descale(raw int32, scale, offset float64) float64 {
	return float64(raw)*scale + offset
}

// rawFromReal converts a real coordinate to its raw integer, saturating at
// the int32 limits
func rawFromReal(v, scale, offset float64) int32 {
	r := math.Round((v - offset) / scale)
	switch {
	case r >= math.MaxInt32:
		return math.MaxInt32
	case r <= math.MinInt32:
		return math.MinInt32
	case math.IsNaN(r):
		return 0
	}
	return int32(r)
}

func (p *Point) Intensity() uint16 {
	return uint16(p.get(kIntensity))
}

func (p *Point) SetIntensity(v uint16) {
	p.set(kIntensity, uint64(v))
}

// ReturnNumber occupies bits 0-2 of the scan flags byte
func (p *Point) ReturnNumber() uint8 {
	return uint8(p.get(kReturnNumber))
}

// SetReturnNumber keeps only the low three bits of v
func (p *Point) SetReturnNumber(v uint8) {
	p.set(kReturnNumber, uint64(v))
}

// NumberOfReturns occupies bits 3-5 of the scan flags byte
func (p *Point) NumberOfReturns() uint8 {
	return uint8(p.get(kNumberOfReturns))
}

func (p *Point) SetNumberOfReturns(v uint8) {
	p.set(kNumberOfReturns, uint64(v))
}

// ScanDirection occupies bit 6 of the scan flags byte
func (p *Point) ScanDirection() uint8 {
	return uint8(p.get(kScanDirection))
}

func (p *Point) SetScanDirection(v uint8) {
	p.set(kScanDirection, uint64(v))
}

// FlightLineEdge occupies bit 7 of the scan flags byte
func (p *Point) FlightLineEdge() uint8 {
	return uint8(p.get(kFlightLineEdge))
}

func (p *Point) SetFlightLineEdge(v uint8) {
	p.set(kFlightLineEdge, uint64(v))
}

// ScanFlags returns the whole byte holding the four packed return fields
func (p *Point) ScanFlags() uint8 {
	f := p.schema.known[kReturnNumber]
	if !f.present {
		return 0
	}
	return p.data[f.off/8]
}

func (p *Point) Classification() Classification {
	return Classification(p.get(kClassification))
}

func (p *Point) SetClassification(c Classification) {
	p.set(kClassification, uint64(c))
}

func (p *Point) ScanAngleRank() int8 {
	return int8(p.get(kScanAngleRank))
}

func (p *Point) SetScanAngleRank(v int8) {
	p.set(kScanAngleRank, uint64(uint8(v)))
}

func (p *Point) UserData() uint8 {
	return uint8(p.get(kUserData))
}

func (p *Point) SetUserData(v uint8) {
	p.set(kUserData, uint64(v))
}

func (p *Point) PointSourceID() uint16 {
	return uint16(p.get(kPointSourceID))
}

func (p *Point) SetPointSourceID(v uint16) {
	p.set(kPointSourceID, uint64(v))
}

// Time is the GPS time, 0 when the format has none
func (p *Point) Time() float64 {
	return math.Float64frombits(p.get(kTime))
}

func (p *Point) SetTime(t float64) error {
	if !p.set(kTime, math.Float64bits(t)) {
		return &ErrUnsupportedOperation{Operation: "SetTime", Format: p.schema.Format()}
	}
	return nil
}

// Color is the RGB triple, zero when the format has none
func (p *Point) Color() Color {
	return Color{
		Red:   uint16(p.get(kRed)),
		Green: uint16(p.get(kGreen)),
		Blue:  uint16(p.get(kBlue)),
	}
}

func (p *Point) SetColor(c Color) error {
	if !p.schema.HasColor() {
		return &ErrUnsupportedOperation{Operation: "SetColor", Format: p.schema.Format()}
	}
	p.set(kRed, uint64(c.Red))
	p.set(kGreen, uint64(c.Green))
	p.set(kBlue, uint64(c.Blue))
	return nil
}

// Value reads any dimension of the schema as an unsigned integer
func (p *Point) Value(name string) (uint64, bool) {
	d, ok := p.schema.Dimension(name)
	if !ok {
		return 0, false
	}
	return readBits(p.data, d.bitOffset, d.BitSize), true
}

// SetValue writes any dimension of the schema
func (p *Point) SetValue(name string, v uint64) bool {
	d, ok := p.schema.Dimension(name)
	if !ok {
		return false
	}
	writeBits(p.data, d.bitOffset, d.BitSize, v)
	return true
}

// RawBytes returns a copy of the bytes of a byte aligned dimension
func (p *Point) RawBytes(name string) ([]byte, bool) {
	d, ok := p.schema.Dimension(name)
	if !ok || d.bitOffset%8 != 0 || d.BitSize%8 != 0 {
		return nil, false
	}
	start := d.ByteOffset()
	return append([]byte(nil), p.data[start:start+d.ByteSize()]...), true
}

// SetHeader rebinds the point. When scale or offset change, the coordinates
// are rescaled so the real-world position is kept. When the record layout
// changes, every dimension present in both layouts is copied into a new
// zeroed buffer.
func (p *Point) SetHeader(h *Header) error {
	if h == nil {
		h = DefaultHeader()
	}
	newSchema := h.schema
	if _, err := newSchema.ByteSize(); err != nil {
		return err
	}

	rescale := !p.header.sameTransform(h)
	var x, y, z float64
	if rescale {
		x, y, z = p.X(), p.Y(), p.Z()
	}

	if !p.schema.sameLayout(newSchema) {
		p.data = relayout(p.data, p.schema, newSchema)
	}
	p.header = h
	p.schema = newSchema

	if rescale {
		p.SetCoordinates(x, y, z)
	}
	return nil
}

func relayout(data []byte, from, to *Schema) []byte {
	size, _ := to.ByteSize()
	out := make([]byte, size)
	for _, nd := range to.dimensions {
		od, ok := from.Dimension(nd.Name)
		if !ok || od.BitSize != nd.BitSize {
			continue
		}
		writeBits(out, nd.bitOffset, nd.BitSize, readBits(data, od.bitOffset, od.BitSize))
	}
	return out
}

// IsValid checks the range of the packed return fields and the scan angle
func (p *Point) IsValid() bool {
	return p.invalidFields() == 0
}

// Validate reports the fields out of range as an *ErrInvalidPointData
func (p *Point) Validate() error {
	if f := p.invalidFields(); f != 0 {
		return &ErrInvalidPointData{Fields: f}
	}
	return nil
}

func (p *Point) invalidFields() InvalidField {
	var f InvalidField
	if p.ReturnNumber() > 7 {
		f |= InvalidReturnNumber
	}
	if p.NumberOfReturns() > 7 {
		f |= InvalidNumberOfReturns
	}
	if p.ScanDirection() > 1 {
		f |= InvalidScanDirection
	}
	if p.FlightLineEdge() > 1 {
		f |= InvalidFlightLineEdge
	}
	if a := p.ScanAngleRank(); a < -90 || a > 90 {
		f |= InvalidScanAngleRank
	}
	return f
}

// Equal compares the record bytes and the coordinate transform
func (p *Point) Equal(o *Point) bool {
	if len(p.data) != len(o.data) || !p.header.sameTransform(o.header) {
		return false
	}
	for i := range p.data {
		if p.data[i] != o.data[i] {
			return false
		}
	}
	return true
}

func (p *Point) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f) i=%d r=%d/%d c=%d",
		p.X(), p.Y(), p.Z(), p.Intensity(), p.ReturnNumber(), p.NumberOfReturns(), p.Classification().Class())
}
