package las

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderDefaults(t *testing.T) {
	h := NewHeader()

	assert.Equal(t, FileSignature, h.FileSignature())
	assert.Equal(t, uint8(1), h.VersionMajor())
	assert.Equal(t, uint8(2), h.VersionMinor())
	assert.Equal(t, PointFormat0, h.DataFormatID())
	assert.Equal(t, uint16(PointFormat0Size), h.DataRecordLength())
	assert.Equal(t, Vector3{0.01, 0.01, 0.01}, h.Scale())
	assert.Equal(t, Vector3{}, h.Offset())
	assert.Equal(t, uint16(HeaderSize), h.HeaderSize())
	assert.Equal(t, uint32(HeaderSize), h.DataOffset())
	assert.Zero(t, h.RecordsCount())
	assert.NoError(t, h.Validate())
}

func TestHeaderVersion(t *testing.T) {
	h := NewHeader()

	assert.True(t, errors.Is(h.SetVersionMinor(3), ErrUnsupportedVersion))
	assert.Equal(t, uint8(2), h.VersionMinor())
	assert.True(t, errors.Is(h.SetVersionMajor(2), ErrUnsupportedVersion))

	require.NoError(t, h.SetVersionMinor(1))
	assert.Equal(t, uint32(HeaderSize), h.DataOffset())

	require.NoError(t, h.SetVersionMinor(0))
	assert.Equal(t, uint32(2), h.HeaderPadding())
	assert.Equal(t, uint32(HeaderSize+2), h.DataOffset())
}

func TestHeaderZeroScaleIsReplaced(t *testing.T) {
	h := NewHeader()
	h.SetScale(0, 0.001, 0)

	assert.Equal(t, Vector3{DefaultScale, 0.001, DefaultScale}, h.Scale())

	// the substitution keeps descaling finite
	p := NewPoint(h)
	p.SetX(1.23)
	assert.Equal(t, int32(123), p.RawX())
}

func TestHeaderIdentifiers(t *testing.T) {
	h := NewHeader()

	require.NoError(t, h.SetSystemID(strings.Repeat("s", 32)))
	require.NoError(t, h.SetSoftwareID("libLAS 1.2"))

	var tooLong *ErrStringTooLong
	assert.True(t, errors.As(h.SetSystemID(strings.Repeat("s", 33)), &tooLong))
	assert.Equal(t, 33, tooLong.Length)
	assert.True(t, errors.As(h.SetSoftwareID(strings.Repeat("x", 40)), &tooLong))
	assert.Equal(t, "libLAS 1.2", h.SoftwareID())
}

func TestHeaderVLRCatalogue(t *testing.T) {
	h := NewHeader()

	a, err := NewVLR("LASF_Projection", 34735, "GeoKeyDirectoryTag", make([]byte, 40))
	require.NoError(t, err)
	b, err := NewVLR("custom", 1, "", []byte("hello"))
	require.NoError(t, err)

	require.NoError(t, h.AddVLR(a))
	require.NoError(t, h.AddVLR(b))
	assert.Equal(t, uint32(2), h.RecordsCount())
	assert.Equal(t, uint32(54+40+54+5), h.VLRBlockSize())
	assert.Equal(t, uint32(HeaderSize+54+40+54+5), h.DataOffset())

	var rng *ErrOutOfRange
	assert.True(t, errors.As(h.DeleteVLR(2), &rng))
	assert.True(t, errors.As(h.DeleteVLR(-1), &rng))

	require.NoError(t, h.DeleteVLR(0))
	assert.Equal(t, uint32(1), h.RecordsCount())
	v, err := h.VLR(0)
	require.NoError(t, err)
	assert.Equal(t, "custom", v.UserID)
	assert.Equal(t, uint32(HeaderSize+54+5), h.DataOffset())
	assert.NoError(t, h.Validate())
}

func TestNewVLRLimits(t *testing.T) {
	var tooLong *ErrStringTooLong
	_, err := NewVLR(strings.Repeat("u", 17), 1, "", nil)
	assert.True(t, errors.As(err, &tooLong))

	_, err = NewVLR("u", 1, strings.Repeat("d", 33), nil)
	assert.True(t, errors.As(err, &tooLong))

	var rng *ErrOutOfRange
	_, err = NewVLR("u", 1, "", make([]byte, 70000))
	assert.True(t, errors.As(err, &rng))
}

func TestHeaderReturnCounts(t *testing.T) {
	h := NewHeader()

	for i := 0; i < 5; i++ {
		require.NoError(t, h.SetPointRecordsByReturnCount(i, uint32(10*i)))
	}
	assert.Equal(t, [5]uint32{0, 10, 20, 30, 40}, h.PointRecordsByReturnCount())

	var rng *ErrOutOfRange
	assert.True(t, errors.As(h.SetPointRecordsByReturnCount(5, 1), &rng))
	assert.True(t, errors.As(h.SetPointRecordsByReturnCount(-1, 1), &rng))
}

func TestHeaderDataFormatChange(t *testing.T) {
	h := NewHeader()
	before := h.Schema()

	require.NoError(t, h.SetDataFormatID(PointFormat3))
	assert.Equal(t, uint16(PointFormat3Size), h.DataRecordLength())
	assert.NotSame(t, before, h.Schema())
	assert.Equal(t, PointFormat0, before.Format())

	assert.True(t, errors.Is(h.SetDataFormatID(PointFormatName(7)), ErrUnsupportedPointFormat))
	assert.Equal(t, PointFormat3, h.DataFormatID())
}

func TestHeaderDataOffset(t *testing.T) {
	h := NewHeader()

	var rng *ErrOutOfRange
	assert.True(t, errors.As(h.SetDataOffset(100), &rng))

	require.NoError(t, h.SetDataOffset(HeaderSize+10))
	assert.Equal(t, uint32(10), h.HeaderPadding())
	assert.True(t, errors.As(h.SetHeaderSize(100), &rng))
}

func TestHeaderClone(t *testing.T) {
	h := NewHeader()
	v, err := NewVLR("a", 1, "", []byte{1, 2, 3})
	require.NoError(t, err)
	require.NoError(t, h.AddVLR(v))

	c := h.Clone()
	c.VLRs()[0].Data[0] = 9
	c.SetOffset(1, 2, 3)

	assert.Equal(t, byte(1), h.VLRs()[0].Data[0])
	assert.Equal(t, Vector3{}, h.Offset())
}

func TestBoundsContains(t *testing.T) {
	b := Bounds{Min: Vector3{0, 0, 0}, Max: Vector3{10, 10, 10}}
	assert.True(t, b.Contains(0, 10, 5))
	assert.False(t, b.Contains(-0.1, 5, 5))
	assert.False(t, b.Contains(5, 5, 10.1))
}

func TestHeaderSchemaIsACopy(t *testing.T) {
	h := NewHeader()
	bound := NewPoint(h)

	s := h.Schema()
	require.NoError(t, s.AddDimension(NewDimension("Extra", 13, "odd sized")))
	require.NoError(t, bound.Schema().AddDimension(NewDimension("Other", 8, "")))

	_, ok := h.Schema().Dimension("Extra")
	assert.False(t, ok)
	assert.Equal(t, uint16(PointFormat0Size), h.DataRecordLength())

	p := NewPoint(h)
	assert.Len(t, p.Data(), PointFormat0Size)
	_, ok = bound.Value("Other")
	assert.False(t, ok)
	assert.Len(t, bound.Data(), PointFormat0Size)
}
