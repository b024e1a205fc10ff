// Package export writes point rows as delimited text, MonetDB binary columns
// or PostgreSQL binary COPY streams.
package export

import (
	"fmt"
	"strings"

	"github.com/ecopia-map/las_codec/internal/las"
)

// Field is a single character field code as given to --parse
type Field byte

const (
	FieldTime            Field = 't'
	FieldX               Field = 'x'
	FieldY               Field = 'y'
	FieldZ               Field = 'z'
	FieldRawX            Field = 'X'
	FieldRawY            Field = 'Y'
	FieldRawZ            Field = 'Z'
	FieldScanAngle       Field = 'a'
	FieldIntensity       Field = 'i'
	FieldNumberOfReturns Field = 'n'
	FieldReturnNumber    Field = 'r'
	FieldClassification  Field = 'c'
	FieldClassName       Field = 'C'
	FieldUserData        Field = 'u'
	FieldPointSourceID   Field = 'p'
	FieldFlightLineEdge  Field = 'e'
	FieldScanDirection   Field = 'd'
	FieldRed             Field = 'R'
	FieldGreen           Field = 'G'
	FieldBlue            Field = 'B'
	FieldRowIndex        Field = 'M'
	FieldMortonKey       Field = 'k'
)

// Kind is the element type of a field in binary output
type Kind int

const (
	KindFloat64 Kind = iota
	KindInt32
	KindInt8
	KindUint16
	KindUint8
	KindUint64
	KindString
)

// Size is the width in bytes of one column element, 0 for strings
func (k Kind) Size() int {
	switch k {
	case KindFloat64, KindUint64:
		return 8
	case KindInt32:
		return 4
	case KindUint16:
		return 2
	case KindInt8, KindUint8:
		return 1
	}
	return 0
}

type fieldInfo struct {
	name string
	kind Kind
}

var fields = map[Field]fieldInfo{
	FieldTime:            {"gpstime", KindFloat64},
	FieldX:               {"x", KindFloat64},
	FieldY:               {"y", KindFloat64},
	FieldZ:               {"z", KindFloat64},
	FieldRawX:            {"raw_x", KindInt32},
	FieldRawY:            {"raw_y", KindInt32},
	FieldRawZ:            {"raw_z", KindInt32},
	FieldScanAngle:       {"scan_angle", KindInt8},
	FieldIntensity:       {"intensity", KindUint16},
	FieldNumberOfReturns: {"number_of_returns", KindUint8},
	FieldReturnNumber:    {"return_number", KindUint8},
	FieldClassification:  {"classification", KindUint8},
	FieldClassName:       {"classification_name", KindString},
	FieldUserData:        {"user_data", KindUint8},
	FieldPointSourceID:   {"point_source_id", KindUint16},
	FieldFlightLineEdge:  {"flightline_edge", KindUint8},
	FieldScanDirection:   {"scan_direction", KindUint8},
	FieldRed:             {"red", KindUint16},
	FieldGreen:           {"green", KindUint16},
	FieldBlue:            {"blue", KindUint16},
	FieldRowIndex:        {"row", KindUint64},
	FieldMortonKey:       {"morton", KindUint64},
}

type ErrUnknownField struct {
	Code rune
}

func (e *ErrUnknownField) Error() string {
	return fmt.Sprintf("unknown field code %q", e.Code)
}

// ErrUnsupportedField is returned for a field an output format cannot hold
type ErrUnsupportedField struct {
	Field  Field
	Format string
}

func (e *ErrUnsupportedField) Error() string {
	return fmt.Sprintf("field %q (%s) cannot be written as %s", rune(e.Field), e.Field.Name(), e.Format)
}

// ParseFields reads a --parse string such as "txyzicr"
func ParseFields(s string) ([]Field, error) {
	if s == "" {
		return nil, fmt.Errorf("no fields to export")
	}
	out := make([]Field, 0, len(s))
	for _, c := range s {
		if c > 0x7F {
			return nil, &ErrUnknownField{Code: c}
		}
		f := Field(c)
		if _, ok := fields[f]; !ok {
			return nil, &ErrUnknownField{Code: c}
		}
		out = append(out, f)
	}
	return out, nil
}

// FieldsString is the inverse of ParseFields
func FieldsString(fs []Field) string {
	var sb strings.Builder
	for _, f := range fs {
		sb.WriteByte(byte(f))
	}
	return sb.String()
}

func (f Field) Name() string {
	return fields[f].name
}

func (f Field) Kind() Kind {
	return fields[f].kind
}

// HasField reports whether f is one of fs
func HasField(fs []Field, f Field) bool {
	for _, c := range fs {
		if c == f {
			return true
		}
	}
	return false
}

// Row is one point on its way to the outputs. Index and Key are assigned by
// the pipeline.
type Row struct {
	Point *las.Point
	Index uint64
	Key   uint64
}

// Float returns the value of a KindFloat64 field
func (f Field) Float(r *Row) float64 {
	p := r.Point
	switch f {
	case FieldTime:
		return p.Time()
	case FieldX:
		return p.X()
	case FieldY:
		return p.Y()
	case FieldZ:
		return p.Z()
	}
	return float64(f.Integer(r))
}

// Integer returns the value of any integer field. Row index and Morton key
// values are only exact through Unsigned.
func (f Field) Integer(r *Row) int64 {
	p := r.Point
	switch f {
	case FieldRawX:
		return int64(p.RawX())
	case FieldRawY:
		return int64(p.RawY())
	case FieldRawZ:
		return int64(p.RawZ())
	case FieldScanAngle:
		return int64(p.ScanAngleRank())
	case FieldIntensity:
		return int64(p.Intensity())
	case FieldNumberOfReturns:
		return int64(p.NumberOfReturns())
	case FieldReturnNumber:
		return int64(p.ReturnNumber())
	case FieldClassification:
		return int64(p.Classification().Class())
	case FieldUserData:
		return int64(p.UserData())
	case FieldPointSourceID:
		return int64(p.PointSourceID())
	case FieldFlightLineEdge:
		return int64(p.FlightLineEdge())
	case FieldScanDirection:
		return int64(p.ScanDirection())
	case FieldRed:
		return int64(p.Color().Red)
	case FieldGreen:
		return int64(p.Color().Green)
	case FieldBlue:
		return int64(p.Color().Blue)
	case FieldRowIndex, FieldMortonKey:
		return int64(f.Unsigned(r))
	}
	return 0
}

// Unsigned returns the row index or Morton key
func (f Field) Unsigned(r *Row) uint64 {
	switch f {
	case FieldRowIndex:
		return r.Index
	case FieldMortonKey:
		return r.Key
	}
	return uint64(f.Integer(r))
}

// Text returns the class name for FieldClassName
func (f Field) Text(r *Row) string {
	if f == FieldClassName {
		return r.Point.Classification().Name()
	}
	return ""
}
