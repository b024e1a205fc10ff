package las

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidSignature indicates the file does not start with "LASF"
	ErrInvalidSignature = errors.New("las: file signature is not LASF")

	// ErrUnsupportedVersion indicates a LAS version other than 1.0, 1.1 or 1.2
	ErrUnsupportedVersion = errors.New("las: unsupported LAS version")

	// ErrUnsupportedPointFormat indicates a point data format id outside 0..3
	ErrUnsupportedPointFormat = errors.New("las: unsupported point data format")

	// ErrCompressed is returned when point data is LASzip compressed
	ErrCompressed = errors.New("las: compressed point data is not supported")

	// ErrShortRecord indicates a point buffer whose length does not match the schema
	ErrShortRecord = errors.New("las: point record length does not match schema")
)

// ErrSizeAlignment indicates a schema whose dimensions do not add up to whole bytes
type ErrSizeAlignment struct {
	BitSize uint32
}

func (e *ErrSizeAlignment) Error() string {
	return fmt.Sprintf("las: schema bit size %d is not a multiple of 8", e.BitSize)
}

// ErrDuplicateDimension indicates a dimension name already present in a schema
type ErrDuplicateDimension struct {
	Name string
}

func (e *ErrDuplicateDimension) Error() string {
	return fmt.Sprintf("las: dimension %q already exists in schema", e.Name)
}

// ErrOutOfRange indicates an index or value outside its allowed range
type ErrOutOfRange struct {
	Field string
	Value int64
	Min   int64
	Max   int64
}

func (e *ErrOutOfRange) Error() string {
	return fmt.Sprintf("las: %s value %d out of range [%d, %d]", e.Field, e.Value, e.Min, e.Max)
}

// ErrStringTooLong indicates a fixed-width header string that would be truncated
type ErrStringTooLong struct {
	Field  string
	Length int
	Max    int
}

func (e *ErrStringTooLong) Error() string {
	return fmt.Sprintf("las: %s is %d bytes, at most %d allowed", e.Field, e.Length, e.Max)
}

// ErrUnsupportedOperation indicates a setter on a dimension the point format lacks
type ErrUnsupportedOperation struct {
	Operation string
	Format    PointFormatName
}

func (e *ErrUnsupportedOperation) Error() string {
	return fmt.Sprintf("las: %s is not supported by %s", e.Operation, e.Format)
}

// InvalidField identifies a point field that failed validation
type InvalidField uint8

const (
	InvalidReturnNumber InvalidField = 1 << iota
	InvalidNumberOfReturns
	InvalidScanDirection
	InvalidFlightLineEdge
	InvalidScanAngleRank
)

var invalidFieldNames = []struct {
	flag InvalidField
	name string
}{
	{InvalidReturnNumber, DimReturnNumber},
	{InvalidNumberOfReturns, DimNumberOfReturns},
	{InvalidScanDirection, DimScanDirection},
	{InvalidFlightLineEdge, DimFlightLineEdge},
	{InvalidScanAngleRank, DimScanAngleRank},
}

func (f InvalidField) String() string {
	var names []string
	for _, n := range invalidFieldNames {
		if f&n.flag != 0 {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}

// ErrInvalidPointData carries the set of fields of a point that violate their range
type ErrInvalidPointData struct {
	Fields InvalidField
}

func (e *ErrInvalidPointData) Error() string {
	return fmt.Sprintf("las: invalid point data in %s", e.Fields)
}

// Has reports whether the given field is among the violations
func (e *ErrInvalidPointData) Has(f InvalidField) bool {
	return e.Fields&f != 0
}
