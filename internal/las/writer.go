package las

import (
	"bufio"
	"errors"
	"io"
	"math"
)

// Writer streams point records after a header. On Close the header is
// rewritten in place with the point count, per-return counts and extent of
// the points actually written.
type Writer struct {
	dst    io.WriteSeeker
	bw     *bufio.Writer
	header *Header

	count    uint32
	byReturn [returnBuckets]uint32
	extent   Bounds
	closed   bool
}

// NewWriter writes the header, its VLRs and padding. The header is copied;
// later changes to h do not affect the file.
func NewWriter(dst io.WriteSeeker, h *Header) (*Writer, error) {
	w := &Writer{
		dst:    dst,
		header: h.Clone(),
		extent: emptyBounds(),
	}
	if _, err := dst.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	w.bw = bufio.NewWriterSize(dst, 64*1024)
	if _, err := w.header.WriteTo(w.bw); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Writer) Header() *Header {
	return w.header
}

// Count is the number of points written so far
func (w *Writer) Count() uint32 {
	return w.count
}

// WritePoint appends a record. Points bound to another header are rebound on
// a copy first so their real-world coordinates are preserved.
func (w *Writer) WritePoint(p *Point) error {
	if w.closed {
		return errors.New("las: write on closed writer")
	}
	src := p
	if p.header != w.header && (!p.header.sameTransform(w.header) || !p.schema.sameLayout(w.header.schema)) {
		src = p.Clone()
		if err := src.SetHeader(w.header); err != nil {
			return err
		}
	}
	if _, err := w.bw.Write(src.data); err != nil {
		return err
	}

	w.count++
	if rn := src.ReturnNumber(); rn >= 1 && rn <= returnBuckets {
		w.byReturn[rn-1]++
	}
	x, y, z := src.X(), src.Y(), src.Z()
	w.extent.Min = Vector3{math.Min(w.extent.Min.X, x), math.Min(w.extent.Min.Y, y), math.Min(w.extent.Min.Z, z)}
	w.extent.Max = Vector3{math.Max(w.extent.Max.X, x), math.Max(w.extent.Max.Y, y), math.Max(w.extent.Max.Z, z)}
	return nil
}

// Close flushes the records and rewrites the header block
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.bw.Flush(); err != nil {
		return err
	}

	w.header.SetPointRecordsCount(w.count)
	w.header.pointsByRet = w.byReturn
	if w.count > 0 {
		w.header.SetExtent(w.extent)
	}

	if _, err := w.dst.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := w.dst.Write(w.header.encodeFixedHeader()); err != nil {
		return err
	}
	_, err := w.dst.Seek(0, io.SeekEnd)
	return err
}

func emptyBounds() Bounds {
	return Bounds{
		Min: Vector3{math.Inf(1), math.Inf(1), math.Inf(1)},
		Max: Vector3{math.Inf(-1), math.Inf(-1), math.Inf(-1)},
	}
}
