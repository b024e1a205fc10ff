package summary

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecopia-map/las_codec/internal/las"
)

func colorHeader(t *testing.T) *las.Header {
	t.Helper()
	h := las.NewHeader()
	require.NoError(t, h.SetDataFormatID(las.PointFormat3))
	h.SetOffset(500000, 4000000, 0)
	return h
}

func TestSummaryIndependentExtremes(t *testing.T) {
	h := colorHeader(t)
	s := NewSummary()

	a := las.NewPoint(h)
	a.SetRawX(100)
	a.SetIntensity(5)
	require.NoError(t, a.SetColor(las.Color{Red: 10, Green: 900, Blue: 3}))
	a.SetReturnNumber(1)
	a.SetNumberOfReturns(2)
	s.AddPoint(a)

	b := las.NewPoint(h)
	b.SetRawX(50)
	b.SetIntensity(500)
	require.NoError(t, b.SetTime(12.5))
	require.NoError(t, b.SetColor(las.Color{Red: 700, Green: 4, Blue: 3}))
	b.SetReturnNumber(2)
	b.SetNumberOfReturns(2)
	b.SetClassification(las.NewClassification(2, true, false, true))
	s.AddPoint(b)

	assert.Equal(t, uint64(2), s.Count())
	assert.True(t, s.HasTime())
	assert.True(t, s.HasColor())

	// min X comes from b, min intensity from a
	assert.Equal(t, int32(50), s.Min().X)
	assert.Equal(t, int32(100), s.Max().X)
	assert.Equal(t, uint16(5), s.Min().Intensity)
	assert.Equal(t, uint16(500), s.Max().Intensity)
	assert.Equal(t, 0.0, s.Min().Time)
	assert.Equal(t, 12.5, s.Max().Time)
	assert.Equal(t, las.Color{Red: 10, Green: 4, Blue: 3}, s.Min().Color)
	assert.Equal(t, las.Color{Red: 700, Green: 900, Blue: 3}, s.Max().Color)

	assert.Equal(t, uint64(1), s.ClassCount(0))
	assert.Equal(t, uint64(1), s.ClassCount(2))
	assert.Equal(t, uint64(0), s.ClassCount(200))
	assert.Equal(t, uint64(1), s.SyntheticCount())
	assert.Equal(t, uint64(0), s.KeyPointCount())
	assert.Equal(t, uint64(1), s.WithheldCount())
	assert.Equal(t, [8]uint64{0, 1, 1}, s.PointsByReturn())
	assert.Equal(t, [8]uint64{0, 0, 2}, s.ReturnsOfGivenPulse())

	bounds := s.Bounds()
	assert.InDelta(t, 500000.5, bounds.Min.X, 1e-6)
	assert.InDelta(t, 500001.0, bounds.Max.X, 1e-6)
}

func TestSummaryMonotonicity(t *testing.T) {
	h := las.NewHeader()
	require.NoError(t, h.SetDataFormatID(las.PointFormat1))
	s := NewSummary()
	rng := rand.New(rand.NewSource(7))

	var points []*las.Point
	for i := 0; i < 500; i++ {
		p := las.NewPoint(h)
		p.SetRawX(rng.Int31() - rng.Int31())
		p.SetRawY(rng.Int31n(1000))
		p.SetRawZ(-rng.Int31n(1000))
		p.SetIntensity(uint16(rng.Intn(65536)))
		p.SetScanAngleRank(int8(rng.Intn(256) - 128))
		p.SetPointSourceID(uint16(rng.Intn(65536)))
		require.NoError(t, p.SetTime(rng.Float64()*1e6))
		s.AddPoint(p)
		points = append(points, p)
	}

	assert.Equal(t, uint64(len(points)), s.Count())
	lo, hi := s.Min(), s.Max()
	for _, p := range points {
		assert.True(t, lo.X <= p.RawX() && p.RawX() <= hi.X)
		assert.True(t, lo.Y <= p.RawY() && p.RawY() <= hi.Y)
		assert.True(t, lo.Z <= p.RawZ() && p.RawZ() <= hi.Z)
		assert.True(t, lo.Intensity <= p.Intensity() && p.Intensity() <= hi.Intensity)
		assert.True(t, lo.ScanAngleRank <= p.ScanAngleRank() && p.ScanAngleRank() <= hi.ScanAngleRank)
		assert.True(t, lo.PointSourceID <= p.PointSourceID() && p.PointSourceID() <= hi.PointSourceID)
		assert.True(t, lo.Time <= p.Time() && p.Time() <= hi.Time)
	}
}

func TestSummaryKeepsInvalidPoints(t *testing.T) {
	h := las.NewHeader()
	s := NewSummary()

	ok := las.NewPoint(h)
	ok.SetScanAngleRank(10)
	ok.SetClassification(las.NewClassification(2, false, false, false))
	ok.SetReturnNumber(1)
	ok.SetNumberOfReturns(1)
	require.True(t, ok.IsValid())

	bad := las.NewPoint(h)
	bad.SetScanAngleRank(120)
	bad.SetClassification(las.NewClassification(6, false, false, true))
	bad.SetReturnNumber(7)
	bad.SetNumberOfReturns(6)
	require.False(t, bad.IsValid())
	var invalid *las.ErrInvalidPointData
	require.ErrorAs(t, bad.Validate(), &invalid)

	s.AddPoint(ok)
	s.AddPoint(bad)

	assert.Equal(t, uint64(2), s.Count())
	assert.Equal(t, uint64(1), s.ClassCount(2))
	assert.Equal(t, uint64(1), s.ClassCount(6))
	assert.Equal(t, uint64(1), s.WithheldCount())
	assert.Equal(t, uint64(1), s.PointsByReturn()[1])
	assert.Equal(t, uint64(1), s.PointsByReturn()[7])
	assert.Equal(t, uint64(1), s.ReturnsOfGivenPulse()[6])
	assert.Equal(t, int8(10), s.Min().ScanAngleRank)
	assert.Equal(t, int8(120), s.Max().ScanAngleRank)
	assert.False(t, s.HasTime())
	assert.False(t, s.HasColor())
}

func TestSummaryKeepsStoredZeroScale(t *testing.T) {
	h := las.NewHeader()
	h.SetOffset(1000, 2000, 0)
	data, err := h.MarshalBinary()
	require.NoError(t, err)
	// x scale lives at bytes 131..138
	for i := 131; i < 139; i++ {
		data[i] = 0
	}
	read, err := las.ReadHeader(bytes.NewReader(data))
	require.NoError(t, err)
	require.Zero(t, read.Scale().X)

	s := NewSummary()
	for i := int32(0); i < 3; i++ {
		p := las.NewPoint(read)
		p.SetRawX(100 * (i + 1))
		p.SetRawY(10 * i)
		assert.Equal(t, 1000.0, p.X())
		s.AddPoint(p)
	}

	b := s.Bounds()
	assert.Equal(t, 1000.0, b.Min.X)
	assert.Equal(t, 1000.0, b.Max.X)
	assert.InDelta(t, 2000.0, b.Min.Y, 1e-9)
	assert.InDelta(t, 2000.2, b.Max.Y, 1e-9)

	read.SetExtent(b)
	read.SetPointRecordsCount(3)
	assert.Empty(t, s.CheckHeader(read))
}

func TestSummaryReport(t *testing.T) {
	h := las.NewHeader()
	s := NewSummary()

	empty := s.Report()
	assert.Zero(t, empty.Count)
	assert.Empty(t, empty.Classification)

	for i := 0; i < 4; i++ {
		p := las.NewPoint(h)
		p.SetCoordinates(float64(i), float64(2*i), 1)
		p.SetClassification(las.NewClassification(uint8(2+i%2), false, false, false))
		p.SetReturnNumber(1)
		p.SetNumberOfReturns(1)
		s.AddPoint(p)
	}

	r := s.Report()
	assert.Equal(t, uint64(4), r.Count)
	assert.Nil(t, r.Minimum.Time)
	assert.Nil(t, r.Minimum.Color)
	assert.InDelta(t, 3.0, r.Maximum.X, 1e-9)
	assert.InDelta(t, 6.0, r.Maximum.Y, 1e-9)
	assert.Equal(t, int32(300), r.Maximum.RawX)
	assert.Equal(t, []ClassReport{
		{Class: 2, Name: "Ground", Count: 2},
		{Class: 3, Name: "Low Vegetation", Count: 2},
	}, r.Classification)
	assert.Equal(t, uint64(4), r.PointsByReturn[1])

	data, err := json.Marshal(r)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "returns_of_given_pulse")
	assert.Contains(t, decoded["minimum"], "raw_x")
	assert.NotContains(t, decoded["minimum"], "time")
}

func TestSummaryRepairAndCheckHeader(t *testing.T) {
	h := las.NewHeader()
	s := NewSummary()
	for i := 0; i < 3; i++ {
		p := las.NewPoint(h)
		p.SetCoordinates(10+float64(i), 20, 30-float64(i))
		p.SetReturnNumber(uint8(i + 1))
		p.SetNumberOfReturns(3)
		s.AddPoint(p)
	}

	stale := las.NewHeader()
	stale.SetPointRecordsCount(10)
	mismatches := s.CheckHeader(stale)
	require.NotEmpty(t, mismatches)
	assert.Equal(t, "point count", mismatches[0].Field)
	assert.Equal(t, "point count: header has 10, points give 3", mismatches[0].String())

	require.NoError(t, s.RepairHeader(stale))
	assert.Equal(t, uint32(3), stale.PointRecordsCount())
	assert.Equal(t, [5]uint32{1, 1, 1, 0, 0}, stale.PointRecordsByReturnCount())
	assert.InDelta(t, 10.0, stale.Min().X, 1e-9)
	assert.InDelta(t, 12.0, stale.Max().X, 1e-9)
	assert.InDelta(t, 28.0, stale.Min().Z, 1e-9)
	assert.Empty(t, s.CheckHeader(stale))
}

func TestSummaryCheckCountsIgnoresExtent(t *testing.T) {
	h := las.NewHeader()
	s := NewSummary()
	p := las.NewPoint(h)
	p.SetReturnNumber(1)
	p.SetCoordinates(10, 20, 30)
	s.AddPoint(p)

	h.SetPointRecordsCount(1)
	require.NoError(t, h.SetPointRecordsByReturnCount(0, 1))
	assert.Empty(t, s.CheckCounts(h))

	mismatches := s.CheckHeader(h)
	require.NotEmpty(t, mismatches)
	assert.Equal(t, "min x", mismatches[0].Field)
}
