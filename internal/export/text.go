package export

import (
	"bufio"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/ecopia-map/las_codec/internal/las"
)

// Sink receives rows in output order
type Sink interface {
	WriteRow(r *Row) error
	Close() error
}

const defaultTimePrecision = 6

// ScalePrecision is the number of decimals needed to print a value stored
// with the given scale, e.g. 2 for 0.01
func ScalePrecision(scale float64) int32 {
	if scale <= 0 {
		return 0
	}
	if exp := decimal.NewFromFloat(scale).Exponent(); exp < 0 {
		return -exp
	}
	return 0
}

// TextWriter writes one delimited line per row. Coordinates are printed with
// as many decimals as the scale of their header carries.
type TextWriter struct {
	bw        *bufio.Writer
	closer    io.Closer
	fields    []Field
	delimiter string
	labels    bool
	wroteHead bool

	// TimePrecision is the number of decimals printed for GPS time
	TimePrecision int32

	header    *las.Header
	precision [3]int32
	line      []byte
}

// NewTextWriter writes to w. If w is an io.Closer it is closed by Close.
func NewTextWriter(w io.Writer, fields []Field, delimiter string, labels bool) *TextWriter {
	t := &TextWriter{
		bw:            bufio.NewWriterSize(w, 256*1024),
		fields:        fields,
		delimiter:     delimiter,
		labels:        labels,
		TimePrecision: defaultTimePrecision,
	}
	if c, ok := w.(io.Closer); ok {
		t.closer = c
	}
	return t
}

func (t *TextWriter) writeLabels() error {
	t.line = t.line[:0]
	for i, f := range t.fields {
		if i > 0 {
			t.line = append(t.line, t.delimiter...)
		}
		t.line = append(t.line, f.Name()...)
	}
	t.line = append(t.line, '\n')
	_, err := t.bw.Write(t.line)
	return err
}

func (t *TextWriter) bindHeader(h *las.Header) {
	if t.header == h {
		return
	}
	t.header = h
	sc := h.Scale()
	t.precision = [3]int32{ScalePrecision(sc.X), ScalePrecision(sc.Y), ScalePrecision(sc.Z)}
}

func (t *TextWriter) WriteRow(r *Row) error {
	if t.labels && !t.wroteHead {
		t.wroteHead = true
		if err := t.writeLabels(); err != nil {
			return err
		}
	}
	t.bindHeader(r.Point.Header())

	t.line = t.line[:0]
	for i, f := range t.fields {
		if i > 0 {
			t.line = append(t.line, t.delimiter...)
		}
		t.line = t.appendField(t.line, f, r)
	}
	t.line = append(t.line, '\n')
	_, err := t.bw.Write(t.line)
	return err
}

func (t *TextWriter) appendField(b []byte, f Field, r *Row) []byte {
	switch f {
	case FieldX:
		return append(b, decimal.NewFromFloat(f.Float(r)).StringFixed(t.precision[0])...)
	case FieldY:
		return append(b, decimal.NewFromFloat(f.Float(r)).StringFixed(t.precision[1])...)
	case FieldZ:
		return append(b, decimal.NewFromFloat(f.Float(r)).StringFixed(t.precision[2])...)
	case FieldTime:
		return append(b, decimal.NewFromFloat(f.Float(r)).StringFixed(t.TimePrecision)...)
	case FieldClassName:
		return append(b, f.Text(r)...)
	case FieldRowIndex, FieldMortonKey:
		return strconv.AppendUint(b, f.Unsigned(r), 10)
	}
	return strconv.AppendInt(b, f.Integer(r), 10)
}

func (t *TextWriter) Close() error {
	err := t.bw.Flush()
	if t.closer != nil {
		if cerr := t.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
