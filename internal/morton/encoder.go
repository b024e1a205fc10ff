package morton

import (
	"fmt"
	"math"

	"github.com/ecopia-map/las_codec/internal/las"
)

const (
	// ScaleTolerance bounds the difference between a claimed scale and the
	// scale stored in a file header
	ScaleTolerance = 1e-7

	rangeEpsilon = 1e-7
	unsignedSpan = 1 << 31
)

// Context is the global frame every file is shifted into before
// interleaving: raw coordinates are expressed in units of Scale relative to
// GlobalOffset.
type Context struct {
	ScaleX, ScaleY               float64
	GlobalOffsetX, GlobalOffsetY int64
}

// Encoder computes keys for the points of one file
type Encoder struct {
	ctx              Context
	factorX, factorY int64
}

// NewEncoder derives the per-file bias from the header offset expressed in
// scale units, less the global offset
func NewEncoder(ctx Context, h *las.Header) *Encoder {
	sc, off := h.Scale(), h.Offset()
	return &Encoder{
		ctx:     ctx,
		factorX: int64(math.Floor(off.X/sc.X)) - ctx.GlobalOffsetX,
		factorY: int64(math.Floor(off.Y/sc.Y)) - ctx.GlobalOffsetY,
	}
}

// Bias returns the values added to raw X and Y
func (e *Encoder) Bias() (int64, int64) {
	return e.factorX, e.factorY
}

// Biased shifts raw coordinates into the global unsigned frame
func (e *Encoder) Biased(rawX, rawY int32) (uint32, uint32) {
	return uint32(int64(rawX) + e.factorX), uint32(int64(rawY) + e.factorY)
}

// Key returns the Morton key of p. p must belong to the header the encoder
// was built from.
func (e *Encoder) Key(p *las.Point) uint64 {
	return Encode(e.Biased(p.RawX(), p.RawY()))
}

// ErrScaleMismatch is returned when a file does not use the claimed scale
type ErrScaleMismatch struct {
	Axis    string
	Claimed float64
	Header  float64
}

func (e *ErrScaleMismatch) Error() string {
	return fmt.Sprintf("morton: %s scale %g does not match header scale %g", e.Axis, e.Claimed, e.Header)
}

// ErrOffsetRange is returned when the global offset would push the biased
// coordinates of a file out of the unsigned 32 bit range
type ErrOffsetRange struct {
	Axis  string
	Bound string
	Value float64
	Limit float64
}

func (e *ErrOffsetRange) Error() string {
	return fmt.Sprintf("morton: %s %s %f is out of range for the global offset (limit %f)", e.Axis, e.Bound, e.Value, e.Limit)
}

// Check verifies that a file fits the global frame before any key is built
func Check(h *las.Header, ctx Context) error {
	sc := h.Scale()
	ext := h.Extent()
	axes := []struct {
		name     string
		claimed  float64
		header   float64
		global   int64
		min, max float64
	}{
		{"x", ctx.ScaleX, sc.X, ctx.GlobalOffsetX, ext.Min.X, ext.Max.X},
		{"y", ctx.ScaleY, sc.Y, ctx.GlobalOffsetY, ext.Min.Y, ext.Max.Y},
	}
	for _, a := range axes {
		if math.Abs(a.claimed-a.header) > ScaleTolerance {
			return &ErrScaleMismatch{Axis: a.name, Claimed: a.claimed, Header: a.header}
		}
		shift := float64(a.global) * a.claimed
		if 1+a.min-shift <= rangeEpsilon {
			return &ErrOffsetRange{Axis: a.name, Bound: "min", Value: a.min, Limit: shift - 1 + rangeEpsilon}
		}
		if a.max-shift > unsignedSpan*a.claimed {
			return &ErrOffsetRange{Axis: a.name, Bound: "max", Value: a.max, Limit: shift + unsignedSpan*a.claimed}
		}
	}
	return nil
}
