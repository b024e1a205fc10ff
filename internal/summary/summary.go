// Package summary accumulates per-field statistics over a stream of points.
package summary

import (
	"math"

	"github.com/ecopia-map/las_codec/internal/las"
)

// returnSlots covers every value a 3 bit return field can hold
const returnSlots = 8

// Extremes holds one running extreme per field. Each field is updated on its
// own, so the minimum X and the minimum Intensity usually come from two
// different points.
type Extremes struct {
	X, Y, Z         int32
	Intensity       uint16
	Time            float64
	ReturnNumber    uint8
	NumberOfReturns uint8
	ScanDirection   uint8
	FlightLineEdge  uint8
	ScanAngleRank   int8
	UserData        uint8
	PointSourceID   uint16
	Classification  uint8
	Color           las.Color
}

// Summary never rejects a point: invalid records are counted as they are.
// It is not safe for concurrent use.
type Summary struct {
	count    uint64
	min, max Extremes
	hasTime  bool
	hasColor bool
	scale    las.Vector3
	offset   las.Vector3

	classes        [las.ClassCount]uint64
	synthetic      uint64
	keyPoint       uint64
	withheld       uint64
	pointsByReturn [returnSlots]uint64
	returnsOfPulse [returnSlots]uint64
}

func NewSummary() *Summary {
	return &Summary{}
}

// AddPoint folds p into the running statistics. The first point decides
// whether time and color are tracked and gives the summary the scale and
// offset used to descale coordinate extremes.
func (s *Summary) AddPoint(p *las.Point) {
	e := snapshot(p)
	if s.count == 0 {
		s.min, s.max = e, e
		s.hasTime = p.HasTime()
		s.hasColor = p.HasColor()
		s.scale, s.offset = p.Header().Scale(), p.Header().Offset()
	}
	s.update(e)

	c := p.Classification()
	s.classes[c.Class()]++
	if c.IsSynthetic() {
		s.synthetic++
	}
	if c.IsKeyPoint() {
		s.keyPoint++
	}
	if c.IsWithheld() {
		s.withheld++
	}
	s.pointsByReturn[p.ReturnNumber()]++
	s.returnsOfPulse[p.NumberOfReturns()]++
	s.count++
}

func snapshot(p *las.Point) Extremes {
	return Extremes{
		X:               p.RawX(),
		Y:               p.RawY(),
		Z:               p.RawZ(),
		Intensity:       p.Intensity(),
		Time:            p.Time(),
		ReturnNumber:    p.ReturnNumber(),
		NumberOfReturns: p.NumberOfReturns(),
		ScanDirection:   p.ScanDirection(),
		FlightLineEdge:  p.FlightLineEdge(),
		ScanAngleRank:   p.ScanAngleRank(),
		UserData:        p.UserData(),
		PointSourceID:   p.PointSourceID(),
		Classification:  p.Classification().Class(),
		Color:           p.Color(),
	}
}

type ordered interface {
	~int8 | ~uint8 | ~uint16 | ~int32 | ~float64
}

func lower[T ordered](cur *T, v T) {
	if v < *cur {
		*cur = v
	}
}

func raise[T ordered](cur *T, v T) {
	if v > *cur {
		*cur = v
	}
}

func (s *Summary) update(e Extremes) {
	lower(&s.min.X, e.X)
	lower(&s.min.Y, e.Y)
	lower(&s.min.Z, e.Z)
	lower(&s.min.Intensity, e.Intensity)
	lower(&s.min.ReturnNumber, e.ReturnNumber)
	lower(&s.min.NumberOfReturns, e.NumberOfReturns)
	lower(&s.min.ScanDirection, e.ScanDirection)
	lower(&s.min.FlightLineEdge, e.FlightLineEdge)
	lower(&s.min.ScanAngleRank, e.ScanAngleRank)
	lower(&s.min.UserData, e.UserData)
	lower(&s.min.PointSourceID, e.PointSourceID)
	lower(&s.min.Classification, e.Classification)

	raise(&s.max.X, e.X)
	raise(&s.max.Y, e.Y)
	raise(&s.max.Z, e.Z)
	raise(&s.max.Intensity, e.Intensity)
	raise(&s.max.ReturnNumber, e.ReturnNumber)
	raise(&s.max.NumberOfReturns, e.NumberOfReturns)
	raise(&s.max.ScanDirection, e.ScanDirection)
	raise(&s.max.FlightLineEdge, e.FlightLineEdge)
	raise(&s.max.ScanAngleRank, e.ScanAngleRank)
	raise(&s.max.UserData, e.UserData)
	raise(&s.max.PointSourceID, e.PointSourceID)
	raise(&s.max.Classification, e.Classification)

	if s.hasTime {
		lower(&s.min.Time, e.Time)
		raise(&s.max.Time, e.Time)
	}
	if s.hasColor {
		lower(&s.min.Color.Red, e.Color.Red)
		lower(&s.min.Color.Green, e.Color.Green)
		lower(&s.min.Color.Blue, e.Color.Blue)
		raise(&s.max.Color.Red, e.Color.Red)
		raise(&s.max.Color.Green, e.Color.Green)
		raise(&s.max.Color.Blue, e.Color.Blue)
	}
}

func (s *Summary) Count() uint64 {
	return s.count
}

func (s *Summary) Min() Extremes {
	return s.min
}

func (s *Summary) Max() Extremes {
	return s.max
}

func (s *Summary) HasTime() bool {
	return s.hasTime
}

func (s *Summary) HasColor() bool {
	return s.hasColor
}

// ClassCount is the number of points whose class index is class
func (s *Summary) ClassCount(class uint8) uint64 {
	if int(class) >= len(s.classes) {
		return 0
	}
	return s.classes[class]
}

func (s *Summary) SyntheticCount() uint64 {
	return s.synthetic
}

func (s *Summary) KeyPointCount() uint64 {
	return s.keyPoint
}

func (s *Summary) WithheldCount() uint64 {
	return s.withheld
}

// PointsByReturn is indexed by return number, slot 0 included
func (s *Summary) PointsByReturn() [returnSlots]uint64 {
	return s.pointsByReturn
}

// ReturnsOfGivenPulse is indexed by number of returns, slot 0 included
func (s *Summary) ReturnsOfGivenPulse() [returnSlots]uint64 {
	return s.returnsOfPulse
}

// Bounds descales the coordinate extremes with the scale and offset taken
// from the first point. It is empty before any point is added.
func (s *Summary) Bounds() las.Bounds {
	if s.count == 0 {
		return las.Bounds{}
	}
	sc, off := s.scale, s.offset
	descale := func(raw int32, scale, offset float64) float64 {
		return float64(raw)*scale + offset
	}
	return las.Bounds{
		Min: las.Vector3{
			X: descale(s.min.X, sc.X, off.X),
			Y: descale(s.min.Y, sc.Y, off.Y),
			Z: descale(s.min.Z, sc.Z, off.Z),
		},
		Max: las.Vector3{
			X: descale(s.max.X, sc.X, off.X),
			Y: descale(s.max.Y, sc.Y, off.Y),
			Z: descale(s.max.Z, sc.Z, off.Z),
		},
	}
}

// scaleTolerance is half the coarsest scale of the first point
func (s *Summary) scaleTolerance() float64 {
	sc := s.scale
	return math.Max(sc.X, math.Max(sc.Y, sc.Z)) / 2
}
