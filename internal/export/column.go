package export

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// ColumnPath is the MonetDB column file name for a field
func ColumnPath(prefix string, f Field, compress bool) string {
	p := fmt.Sprintf("%s_col_%c.dat", prefix, rune(f))
	if compress {
		p += ".zst"
	}
	return p
}

// ColumnWriter writes one field as a raw native-endian array, optionally
// zstd compressed
type ColumnWriter struct {
	field Field
	path  string
	file  *os.File
	zw    *zstd.Encoder
	bw    *bufio.Writer
	buf   [8]byte
	count uint64
}

func NewColumnWriter(prefix string, f Field, compress bool) (*ColumnWriter, error) {
	if f.Kind() == KindString {
		return nil, &ErrUnsupportedField{Field: f, Format: "a binary column"}
	}
	c := &ColumnWriter{field: f, path: ColumnPath(prefix, f, compress)}
	file, err := os.Create(c.path)
	if err != nil {
		return nil, err
	}
	c.file = file

	var w io.Writer = file
	if compress {
		if c.zw, err = zstd.NewWriter(file); err != nil {
			file.Close()
			return nil, err
		}
		w = c.zw
	}
	c.bw = bufio.NewWriterSize(w, 256*1024)
	return c, nil
}

func (c *ColumnWriter) Path() string {
	return c.path
}

func (c *ColumnWriter) Count() uint64 {
	return c.count
}

func (c *ColumnWriter) WriteRow(r *Row) error {
	b := c.buf[:c.field.Kind().Size()]
	putColumnValue(b, c.field, r)
	if _, err := c.bw.Write(b); err != nil {
		return err
	}
	c.count++
	return nil
}

func putColumnValue(b []byte, f Field, r *Row) {
	ne := binary.NativeEndian
	switch f.Kind() {
	case KindFloat64:
		ne.PutUint64(b, math.Float64bits(f.Float(r)))
	case KindUint64:
		ne.PutUint64(b, f.Unsigned(r))
	case KindInt32:
		ne.PutUint32(b, uint32(int32(f.Integer(r))))
	case KindUint16:
		ne.PutUint16(b, uint16(f.Integer(r)))
	case KindInt8, KindUint8:
		b[0] = byte(f.Integer(r))
	}
}

func (c *ColumnWriter) Close() error {
	err := c.bw.Flush()
	if c.zw != nil {
		if zerr := c.zw.Close(); err == nil {
			err = zerr
		}
	}
	if ferr := c.file.Close(); err == nil {
		err = ferr
	}
	return err
}

// ReadColumn loads a column file written by ColumnWriter, decompressing it
// when the name ends in .zst
func ReadColumn(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".zst") {
		return data, nil
	}
	zr, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return zr.DecodeAll(data, nil)
}
