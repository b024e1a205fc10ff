package summary

import (
	"fmt"
	"math"

	"github.com/ecopia-map/las_codec/internal/las"
)

// FieldReport is one side (minimum or maximum) of the report
type FieldReport struct {
	X               float64    `json:"x"`
	Y               float64    `json:"y"`
	Z               float64    `json:"z"`
	RawX            int32      `json:"raw_x"`
	RawY            int32      `json:"raw_y"`
	RawZ            int32      `json:"raw_z"`
	Intensity       uint16     `json:"intensity"`
	Time            *float64   `json:"time,omitempty"`
	ReturnNumber    uint8      `json:"return_number"`
	NumberOfReturns uint8      `json:"number_of_returns"`
	ScanDirection   uint8      `json:"scan_direction"`
	FlightLineEdge  uint8      `json:"flightline_edge"`
	ScanAngleRank   int8       `json:"scan_angle_rank"`
	UserData        uint8      `json:"user_data"`
	PointSourceID   uint16     `json:"point_source_id"`
	Classification  uint8      `json:"classification"`
	Color           *las.Color `json:"color,omitempty"`
}

type ClassReport struct {
	Class uint8  `json:"class"`
	Name  string `json:"name"`
	Count uint64 `json:"count"`
}

// Report is the serializable view of a Summary
type Report struct {
	Count               uint64        `json:"count"`
	Minimum             FieldReport   `json:"minimum"`
	Maximum             FieldReport   `json:"maximum"`
	Classification      []ClassReport `json:"classification"`
	Synthetic           uint64        `json:"synthetic"`
	KeyPoint            uint64        `json:"keypoint"`
	Withheld            uint64        `json:"withheld"`
	PointsByReturn      []uint64      `json:"points_by_return"`
	ReturnsOfGivenPulse []uint64      `json:"returns_of_given_pulse"`
}

func (s *Summary) Report() Report {
	r := Report{
		Count:               s.count,
		Synthetic:           s.synthetic,
		KeyPoint:            s.keyPoint,
		Withheld:            s.withheld,
		PointsByReturn:      append([]uint64(nil), s.pointsByReturn[:]...),
		ReturnsOfGivenPulse: append([]uint64(nil), s.returnsOfPulse[:]...),
		Classification:      []ClassReport{},
	}
	if s.count == 0 {
		return r
	}

	b := s.Bounds()
	r.Minimum = s.fieldReport(s.min, b.Min)
	r.Maximum = s.fieldReport(s.max, b.Max)
	for class, n := range s.classes {
		if n == 0 {
			continue
		}
		r.Classification = append(r.Classification, ClassReport{
			Class: uint8(class),
			Name:  las.ClassName(uint8(class)),
			Count: n,
		})
	}
	return r
}

func (s *Summary) fieldReport(e Extremes, coords las.Vector3) FieldReport {
	f := FieldReport{
		X:               coords.X,
		Y:               coords.Y,
		Z:               coords.Z,
		RawX:            e.X,
		RawY:            e.Y,
		RawZ:            e.Z,
		Intensity:       e.Intensity,
		ReturnNumber:    e.ReturnNumber,
		NumberOfReturns: e.NumberOfReturns,
		ScanDirection:   e.ScanDirection,
		FlightLineEdge:  e.FlightLineEdge,
		ScanAngleRank:   e.ScanAngleRank,
		UserData:        e.UserData,
		PointSourceID:   e.PointSourceID,
		Classification:  e.Classification,
	}
	if s.hasTime {
		t := e.Time
		f.Time = &t
	}
	if s.hasColor {
		c := e.Color
		f.Color = &c
	}
	return f
}

// RepairHeader writes the point count, the return buckets 1 to 5 and the
// descaled extent into h
func (s *Summary) RepairHeader(h *las.Header) error {
	if s.count > math.MaxUint32 {
		return &las.ErrOutOfRange{Field: "point count", Value: int64(s.count), Min: 0, Max: math.MaxUint32}
	}
	h.SetPointRecordsCount(uint32(s.count))
	for i := 0; i < 5; i++ {
		if err := h.SetPointRecordsByReturnCount(i, uint32(s.pointsByReturn[i+1])); err != nil {
			return err
		}
	}
	if s.count > 0 {
		h.SetExtent(s.Bounds())
	}
	return nil
}

// Mismatch is a header field that disagrees with the points behind it
type Mismatch struct {
	Field  string
	Header string
	Data   string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: header has %s, points give %s", m.Field, m.Header, m.Data)
}

// CheckHeader compares h with the accumulated statistics. Extents are
// compared within half a scale step.
func (s *Summary) CheckHeader(h *las.Header) []Mismatch {
	out := s.CheckCounts(h)
	if s.count == 0 {
		return out
	}

	tol := s.scaleTolerance()
	data, ext := s.Bounds(), h.Extent()
	check := func(field string, hv, dv float64) {
		if math.Abs(hv-dv) > tol {
			out = append(out, Mismatch{Field: field, Header: fmt.Sprint(hv), Data: fmt.Sprint(dv)})
		}
	}
	check("min x", ext.Min.X, data.Min.X)
	check("min y", ext.Min.Y, data.Min.Y)
	check("min z", ext.Min.Z, data.Min.Z)
	check("max x", ext.Max.X, data.Max.X)
	check("max y", ext.Max.Y, data.Max.Y)
	check("max z", ext.Max.Z, data.Max.Z)
	return out
}

// CheckCounts compares the point count and the points by return of h with
// the accumulated statistics
func (s *Summary) CheckCounts(h *las.Header) []Mismatch {
	var out []Mismatch

	if uint64(h.PointRecordsCount()) != s.count {
		out = append(out, Mismatch{
			Field:  "point count",
			Header: fmt.Sprint(h.PointRecordsCount()),
			Data:   fmt.Sprint(s.count),
		})
	}
	byReturn := h.PointRecordsByReturnCount()
	for i := 0; i < 5; i++ {
		if uint64(byReturn[i]) != s.pointsByReturn[i+1] {
			out = append(out, Mismatch{
				Field:  fmt.Sprintf("points by return %d", i+1),
				Header: fmt.Sprint(byReturn[i]),
				Data:   fmt.Sprint(s.pointsByReturn[i+1]),
			})
		}
	}
	return out
}
