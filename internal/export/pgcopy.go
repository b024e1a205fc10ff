package export

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
)

// pgCopySignature opens every PostgreSQL binary COPY stream
var pgCopySignature = []byte("PGCOPY\n\xff\r\n\x00")

// PgWriter writes rows in the PostgreSQL binary COPY format. Floating point
// fields are sent as float8, the row index and Morton key as int8 and every
// other field as int4.
type PgWriter struct {
	bw     *bufio.Writer
	closer io.Closer
	fields []Field
	buf    []byte
}

// NewPgWriter validates the fields and writes the stream header to w. If w
// is an io.Closer it is closed by Close.
func NewPgWriter(w io.Writer, fields []Field) (*PgWriter, error) {
	for _, f := range fields {
		if f.Kind() == KindString {
			return nil, &ErrUnsupportedField{Field: f, Format: "PostgreSQL COPY"}
		}
	}
	pw := &PgWriter{
		bw:     bufio.NewWriterSize(w, 256*1024),
		fields: fields,
	}
	if c, ok := w.(io.Closer); ok {
		pw.closer = c
	}

	head := make([]byte, 0, len(pgCopySignature)+8)
	head = append(head, pgCopySignature...)
	head = binary.BigEndian.AppendUint32(head, 0) // flags
	head = binary.BigEndian.AppendUint32(head, 0) // header extension length
	if _, err := pw.bw.Write(head); err != nil {
		return nil, err
	}
	return pw, nil
}

func pgWidth(f Field) uint32 {
	switch f.Kind() {
	case KindFloat64, KindUint64:
		return 8
	}
	return 4
}

func (pw *PgWriter) WriteRow(r *Row) error {
	be := binary.BigEndian
	b := pw.buf[:0]
	b = be.AppendUint16(b, uint16(len(pw.fields)))
	for _, f := range pw.fields {
		b = be.AppendUint32(b, pgWidth(f))
		switch f.Kind() {
		case KindFloat64:
			b = be.AppendUint64(b, math.Float64bits(f.Float(r)))
		case KindUint64:
			b = be.AppendUint64(b, f.Unsigned(r))
		default:
			b = be.AppendUint32(b, uint32(int32(f.Integer(r))))
		}
	}
	pw.buf = b
	_, err := pw.bw.Write(b)
	return err
}

// Close writes the -1 trailer
func (pw *PgWriter) Close() error {
	var trailer [2]byte
	binary.BigEndian.PutUint16(trailer[:], 0xFFFF)
	_, err := pw.bw.Write(trailer[:])
	if ferr := pw.bw.Flush(); err == nil {
		err = ferr
	}
	if pw.closer != nil {
		if cerr := pw.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
