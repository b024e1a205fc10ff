// Package filter holds the point filters a las.Reader can apply while
// streaming. Every filter keeps the points it matches in Include mode and
// drops them in Exclude mode.
package filter

import (
	"fmt"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/ecopia-map/las_codec/internal/las"
)

type Mode int

const (
	Include Mode = iota
	Exclude
)

func (m Mode) String() string {
	if m == Exclude {
		return "exclude"
	}
	return "include"
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "include", "keep":
		return Include, nil
	case "exclude", "drop":
		return Exclude, nil
	}
	return Include, fmt.Errorf("unknown filter mode %q", s)
}

func (m Mode) keep(matched bool) bool {
	return matched == (m == Include)
}

// BoundsFilter matches points inside a box. Z is ignored unless Use3D is set.
type BoundsFilter struct {
	Bounds las.Bounds
	Use3D  bool
	Mode   Mode
}

func NewBoundsFilter(b las.Bounds, use3D bool) *BoundsFilter {
	return &BoundsFilter{Bounds: b, Use3D: use3D}
}

func (f *BoundsFilter) Filter(p *las.Point) bool {
	x, y := p.X(), p.Y()
	b := f.Bounds
	in := x >= b.Min.X && x <= b.Max.X && y >= b.Min.Y && y <= b.Max.Y
	if in && f.Use3D {
		z := p.Z()
		in = z >= b.Min.Z && z <= b.Max.Z
	}
	return f.Mode.keep(in)
}

// ParseBounds reads "minx,miny,maxx,maxy" or "minx,miny,minz,maxx,maxy,maxz".
// The second return value reports whether Z bounds were given.
func ParseBounds(s string) (las.Bounds, bool, error) {
	v, err := parseFloats(s)
	if err != nil {
		return las.Bounds{}, false, err
	}
	switch len(v) {
	case 4:
		return las.Bounds{
			Min: las.Vector3{X: v[0], Y: v[1]},
			Max: las.Vector3{X: v[2], Y: v[3]},
		}, false, nil
	case 6:
		return las.Bounds{
			Min: las.Vector3{X: v[0], Y: v[1], Z: v[2]},
			Max: las.Vector3{X: v[3], Y: v[4], Z: v[5]},
		}, true, nil
	}
	return las.Bounds{}, false, fmt.Errorf("bounds %q need 4 or 6 values, got %d", s, len(v))
}

// ClassificationFilter matches points by class index, ignoring the
// synthetic, key-point and withheld flags
type ClassificationFilter struct {
	Classes mapset.Set[uint8]
	Mode    Mode
}

func NewClassificationFilter(classes ...uint8) *ClassificationFilter {
	return &ClassificationFilter{Classes: mapset.NewThreadUnsafeSet(classes...)}
}

func (f *ClassificationFilter) Filter(p *las.Point) bool {
	return f.Mode.keep(f.Classes.Contains(p.Classification().Class()))
}

// ReturnFilter matches points by return number. Last also matches any point
// whose return number equals its number of returns.
type ReturnFilter struct {
	Returns mapset.Set[uint8]
	Last    bool
	Mode    Mode
}

func NewReturnFilter(returns ...uint8) *ReturnFilter {
	return &ReturnFilter{Returns: mapset.NewThreadUnsafeSet(returns...)}
}

func (f *ReturnFilter) Filter(p *las.Point) bool {
	rn := p.ReturnNumber()
	matched := f.Returns.Contains(rn) || (f.Last && rn == p.NumberOfReturns())
	return f.Mode.keep(matched)
}

// ParseReturns reads a comma separated list of return numbers where "last"
// selects last returns
func ParseReturns(s string) (*ReturnFilter, error) {
	f := NewReturnFilter()
	for _, tok := range splitList(s) {
		if strings.EqualFold(tok, "last") {
			f.Last = true
			continue
		}
		n, err := strconv.ParseUint(tok, 10, 8)
		if err != nil || n > 7 {
			return nil, fmt.Errorf("invalid return number %q", tok)
		}
		f.Returns.Add(uint8(n))
	}
	return f, nil
}

// ParseClasses reads a comma separated list of class indices
func ParseClasses(s string) ([]uint8, error) {
	var out []uint8
	for _, tok := range splitList(s) {
		n, err := strconv.ParseUint(tok, 10, 8)
		if err != nil || n >= las.ClassCount {
			return nil, fmt.Errorf("invalid class %q", tok)
		}
		out = append(out, uint8(n))
	}
	return out, nil
}

// ColorFilter matches points whose channels all lie within [Low, High]
type ColorFilter struct {
	Low  las.Color
	High las.Color
	Mode Mode
}

func NewColorFilter(low, high las.Color) *ColorFilter {
	return &ColorFilter{Low: low, High: high}
}

func (f *ColorFilter) Filter(p *las.Point) bool {
	c := p.Color()
	in := c.Red >= f.Low.Red && c.Red <= f.High.Red &&
		c.Green >= f.Low.Green && c.Green <= f.High.Green &&
		c.Blue >= f.Low.Blue && c.Blue <= f.High.Blue
	return f.Mode.keep(in)
}

// ParseColorRange reads "r,g,b,r,g,b" as the low and high corners of a
// ColorFilter
func ParseColorRange(s string) (*ColorFilter, error) {
	var v [6]uint16
	toks := splitList(s)
	if len(toks) != len(v) {
		return nil, fmt.Errorf("color range needs 6 values, got %d", len(toks))
	}
	for i, tok := range toks {
		n, err := strconv.ParseUint(tok, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid color channel %q", tok)
		}
		v[i] = uint16(n)
	}
	return NewColorFilter(las.Color{Red: v[0], Green: v[1], Blue: v[2]}, las.Color{Red: v[3], Green: v[4], Blue: v[5]}), nil
}

func splitList(s string) []string {
	var out []string
	for _, tok := range strings.Split(s, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

func parseFloats(s string) ([]float64, error) {
	var out []float64
	for _, tok := range splitList(s) {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", tok, err)
		}
		out = append(out, v)
	}
	return out, nil
}
