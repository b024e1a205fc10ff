package las

import (
	"bufio"
	"fmt"
	"io"
)

// Filter decides whether a point read from a file is kept
type Filter interface {
	Filter(p *Point) bool
}

// Transform modifies a point read from a file in place
type Transform interface {
	Transform(p *Point) error
}

// Reader streams the point records of a LAS file
type Reader struct {
	src    io.ReadSeeker
	br     *bufio.Reader
	header *Header
	point  *Point
	index  uint32

	filters    []Filter
	transforms []Transform
}

// NewReader parses the header and positions the reader on the first point
func NewReader(src io.ReadSeeker) (*Reader, error) {
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	h, err := ReadHeader(bufio.NewReader(src))
	if err != nil {
		return nil, err
	}
	if h.Compressed() {
		return nil, ErrCompressed
	}
	r := &Reader{
		src:    src,
		header: h,
		point:  NewPoint(h),
	}
	if err := r.Reset(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reader) Header() *Header {
	return r.header
}

// Index is the number of records consumed so far, filtered ones included
func (r *Reader) Index() uint32 {
	return r.index
}

func (r *Reader) SetFilters(filters ...Filter) {
	r.filters = filters
}

func (r *Reader) SetTransforms(transforms ...Transform) {
	r.transforms = transforms
}

// Reset goes back to the first point record
func (r *Reader) Reset() error {
	return r.Seek(0)
}

// Seek positions the reader on record i
func (r *Reader) Seek(i uint32) error {
	if i > r.header.PointRecordsCount() {
		return &ErrOutOfRange{Field: "point index", Value: int64(i), Min: 0, Max: int64(r.header.PointRecordsCount())}
	}
	off := int64(r.header.DataOffset()) + int64(i)*int64(len(r.point.data))
	if _, err := r.src.Seek(off, io.SeekStart); err != nil {
		return err
	}
	if r.br == nil {
		r.br = bufio.NewReaderSize(r.src, 64*1024)
	} else {
		r.br.Reset(r.src)
	}
	r.index = i
	return nil
}

// Next returns the next point accepted by every filter, with the transforms
// applied. The returned point is reused by the following call; Clone it to
// keep it. io.EOF marks the end of the records.
func (r *Reader) Next() (*Point, error) {
	for {
		if r.index >= r.header.PointRecordsCount() {
			return nil, io.EOF
		}
		// a transform may have rebound the point to an output header
		r.point.bind(r.header)
		if _, err := io.ReadFull(r.br, r.point.data); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, fmt.Errorf("las: truncated point data at record %d: %w", r.index, io.ErrUnexpectedEOF)
			}
			return nil, err
		}
		r.index++

		if !r.accept(r.point) {
			continue
		}
		for _, t := range r.transforms {
			if err := t.Transform(r.point); err != nil {
				return nil, err
			}
		}
		return r.point, nil
	}
}

func (r *Reader) accept(p *Point) bool {
	for _, f := range r.filters {
		if !f.Filter(p) {
			return false
		}
	}
	return true
}

// ReadPointAt reads record i without filters or transforms and leaves the
// reader positioned after it
func (r *Reader) ReadPointAt(i uint32) (*Point, error) {
	if i >= r.header.PointRecordsCount() {
		return nil, &ErrOutOfRange{Field: "point index", Value: int64(i), Min: 0, Max: int64(r.header.PointRecordsCount()) - 1}
	}
	if err := r.Seek(i); err != nil {
		return nil, err
	}
	p := NewPoint(r.header)
	if _, err := io.ReadFull(r.br, p.data); err != nil {
		return nil, fmt.Errorf("las: reading record %d: %w", i, err)
	}
	r.index = i + 1
	return p, nil
}
