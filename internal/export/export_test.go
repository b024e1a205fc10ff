package export

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecopia-map/las_codec/internal/las"
)

func sampleRows(t *testing.T) []*Row {
	t.Helper()
	h := las.NewHeader()
	require.NoError(t, h.SetDataFormatID(las.PointFormat3))
	h.SetScale(0.01, 0.01, 0.001)
	h.SetOffset(500000, 4000000, 0)

	var rows []*Row
	for i := 0; i < 3; i++ {
		p := las.NewPoint(h)
		p.SetRawX(int32(100 + i))
		p.SetRawY(int32(-200 - i))
		p.SetRawZ(int32(1500 * i))
		p.SetIntensity(uint16(300 + i))
		p.SetReturnNumber(1)
		p.SetNumberOfReturns(uint8(i + 1))
		p.SetScanAngleRank(int8(-5 + i))
		p.SetClassification(las.NewClassification(2, false, false, false))
		require.NoError(t, p.SetTime(1234.5+float64(i)))
		require.NoError(t, p.SetColor(las.Color{Red: 1, Green: 2, Blue: uint16(65535 - i)}))
		rows = append(rows, &Row{Point: p, Index: uint64(i), Key: uint64(1) << 40})
	}
	return rows
}

func TestParseFields(t *testing.T) {
	fs, err := ParseFields("txyzXYZainrcCupeRGBMk")
	require.NoError(t, err)
	assert.Len(t, fs, 21)
	assert.Equal(t, "txyzXYZainrcCupeRGBMk", FieldsString(fs))
	assert.True(t, HasField(fs, FieldMortonKey))
	assert.False(t, HasField(fs[:3], FieldMortonKey))

	var unknown *ErrUnknownField
	_, err = ParseFields("xyq")
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, 'q', unknown.Code)

	_, err = ParseFields("xé")
	assert.True(t, errors.As(err, &unknown))

	_, err = ParseFields("")
	assert.Error(t, err)
}

func TestFieldKinds(t *testing.T) {
	tests := []struct {
		codes string
		kind  Kind
		size  int
	}{
		{"txyz", KindFloat64, 8},
		{"XYZ", KindInt32, 4},
		{"a", KindInt8, 1},
		{"ipRGB", KindUint16, 2},
		{"nrcued", KindUint8, 1},
		{"Mk", KindUint64, 8},
		{"C", KindString, 0},
	}
	for _, tt := range tests {
		fs, err := ParseFields(tt.codes)
		require.NoError(t, err)
		for _, f := range fs {
			assert.Equal(t, tt.kind, f.Kind(), string(rune(f)))
			assert.Equal(t, tt.size, f.Kind().Size(), string(rune(f)))
		}
	}
}

func TestScalePrecision(t *testing.T) {
	assert.Equal(t, int32(2), ScalePrecision(0.01))
	assert.Equal(t, int32(3), ScalePrecision(0.001))
	assert.Equal(t, int32(1), ScalePrecision(0.5))
	assert.Equal(t, int32(4), ScalePrecision(0.0025))
	assert.Equal(t, int32(0), ScalePrecision(1))
	assert.Equal(t, int32(0), ScalePrecision(10))
	assert.Equal(t, int32(0), ScalePrecision(0))
}

func TestTextWriter(t *testing.T) {
	fs, err := ParseFields("xyztiCaM")
	require.NoError(t, err)

	var buf bytes.Buffer
	w := NewTextWriter(&buf, fs, ",", true)
	for _, r := range sampleRows(t)[:2] {
		require.NoError(t, w.WriteRow(r))
	}
	require.NoError(t, w.Close())

	assert.Equal(t,
		"x,y,z,gpstime,intensity,classification_name,scan_angle,row\n"+
			"500001.00,3999998.00,0.000,1234.500000,300,Ground,-5,0\n"+
			"500001.01,3999997.99,1.500,1235.500000,301,Ground,-4,1\n",
		buf.String())
}

func TestTextWriterDelimiterNoLabels(t *testing.T) {
	fs, err := ParseFields("XYk")
	require.NoError(t, err)

	var buf bytes.Buffer
	w := NewTextWriter(&buf, fs, "\t", false)
	require.NoError(t, w.WriteRow(sampleRows(t)[0]))
	require.NoError(t, w.Close())
	assert.Equal(t, "100\t-200\t1099511627776\n", buf.String())
}

func TestColumnWriter(t *testing.T) {
	for _, compress := range []bool{false, true} {
		prefix := filepath.Join(t.TempDir(), "tile")
		rows := sampleRows(t)

		fs, err := ParseFields("xXaiB")
		require.NoError(t, err)
		var writers []*ColumnWriter
		for _, f := range fs {
			w, err := NewColumnWriter(prefix, f, compress)
			require.NoError(t, err)
			writers = append(writers, w)
		}
		for _, r := range rows {
			for _, w := range writers {
				require.NoError(t, w.WriteRow(r))
			}
		}
		for _, w := range writers {
			assert.Equal(t, uint64(3), w.Count())
			require.NoError(t, w.Close())
		}

		ne := binary.NativeEndian
		data, err := ReadColumn(ColumnPath(prefix, FieldX, compress))
		require.NoError(t, err)
		require.Len(t, data, 24)
		assert.InDelta(t, 500001.02, math.Float64frombits(ne.Uint64(data[16:])), 1e-6)

		data, err = ReadColumn(ColumnPath(prefix, FieldRawX, compress))
		require.NoError(t, err)
		require.Len(t, data, 12)
		assert.Equal(t, uint32(101), ne.Uint32(data[4:]))

		data, err = ReadColumn(ColumnPath(prefix, FieldScanAngle, compress))
		require.NoError(t, err)
		assert.Equal(t, []byte{0xFB, 0xFC, 0xFD}, data)

		data, err = ReadColumn(ColumnPath(prefix, FieldIntensity, compress))
		require.NoError(t, err)
		require.Len(t, data, 6)
		assert.Equal(t, uint16(302), ne.Uint16(data[4:]))

		data, err = ReadColumn(ColumnPath(prefix, FieldBlue, compress))
		require.NoError(t, err)
		assert.Equal(t, uint16(65533), ne.Uint16(data[4:]))
	}
}

func TestColumnPath(t *testing.T) {
	assert.Equal(t, "out/pc_col_x.dat", ColumnPath("out/pc", FieldX, false))
	assert.Equal(t, "out/pc_col_k.dat.zst", ColumnPath("out/pc", FieldMortonKey, true))

	_, err := NewColumnWriter(filepath.Join(t.TempDir(), "p"), FieldClassName, false)
	var unsupported *ErrUnsupportedField
	assert.True(t, errors.As(err, &unsupported))
}

func TestPgWriter(t *testing.T) {
	fs, err := ParseFields("xik")
	require.NoError(t, err)

	var buf bytes.Buffer
	w, err := NewPgWriter(&buf, fs)
	require.NoError(t, err)
	require.NoError(t, w.WriteRow(sampleRows(t)[0]))
	require.NoError(t, w.Close())

	want := []byte("PGCOPY\n\xff\r\n\x00")
	want = append(want, 0, 0, 0, 0, 0, 0, 0, 0)
	want = append(want, 0, 3)
	want = append(want, 0, 0, 0, 8)
	want = binary.BigEndian.AppendUint64(want, math.Float64bits(sampleRows(t)[0].Point.X()))
	want = append(want, 0, 0, 0, 4, 0, 0, 0x01, 0x2C)
	want = append(want, 0, 0, 0, 8, 0, 0, 0x01, 0, 0, 0, 0, 0)
	want = append(want, 0xFF, 0xFF)
	assert.Equal(t, want, buf.Bytes())
	assert.Len(t, want, 11+8+2+12+8+12+2)
}

func TestPgWriterRejectsClassName(t *testing.T) {
	fs, err := ParseFields("xC")
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = NewPgWriter(&buf, fs)
	var unsupported *ErrUnsupportedField
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, FieldClassName, unsupported.Field)
	assert.Zero(t, buf.Len())
}
