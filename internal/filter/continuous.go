package filter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ecopia-map/las_codec/internal/las"
)

type Op int

const (
	Less Op = iota
	LessEqual
	Greater
	GreaterEqual
	Equal
)

var opTokens = []struct {
	token string
	op    Op
}{
	// two character operators first so "<=" is not read as "<"
	{"<=", LessEqual},
	{">=", GreaterEqual},
	{"==", Equal},
	{"<", Less},
	{">", Greater},
}

func (o Op) String() string {
	for _, t := range opTokens {
		if t.op == o {
			return t.token
		}
	}
	return "?"
}

func (o Op) apply(v, ref float64) bool {
	switch o {
	case Less:
		return v < ref
	case LessEqual:
		return v <= ref
	case Greater:
		return v > ref
	case GreaterEqual:
		return v >= ref
	default:
		return v == ref
	}
}

// ContinuousFilter compares one numeric dimension with a constant, as in
// "Intensity>500" or "ScanAngleRank<=10". Points whose schema lacks the
// dimension never match.
type ContinuousFilter struct {
	Dimension string
	Op        Op
	Value     float64
	Mode      Mode
}

// ParseContinuous reads an expression of the form <dimension><op><value>
func ParseContinuous(expr string) (*ContinuousFilter, error) {
	expr = strings.TrimSpace(expr)
	for _, t := range opTokens {
		i := strings.Index(expr, t.token)
		if i <= 0 {
			continue
		}
		name := strings.TrimSpace(expr[:i])
		v, err := strconv.ParseFloat(strings.TrimSpace(expr[i+len(t.token):]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value in filter %q: %w", expr, err)
		}
		return &ContinuousFilter{Dimension: name, Op: t.op, Value: v}, nil
	}
	return nil, fmt.Errorf("filter %q has no comparison operator", expr)
}

func (f *ContinuousFilter) Filter(p *las.Point) bool {
	v, ok := DimensionValue(p, f.Dimension)
	return f.Mode.keep(ok && f.Op.apply(v, f.Value))
}

func (f *ContinuousFilter) String() string {
	return fmt.Sprintf("%s%s%g", f.Dimension, f.Op, f.Value)
}

// DimensionValue reads a dimension as a number. Coordinates are descaled,
// Classification is the class index and ScanAngleRank is signed; any other
// schema dimension is read as an unsigned integer.
func DimensionValue(p *las.Point, name string) (float64, bool) {
	switch name {
	case las.DimX:
		return p.X(), true
	case las.DimY:
		return p.Y(), true
	case las.DimZ:
		return p.Z(), true
	case las.DimClassification:
		return float64(p.Classification().Class()), true
	case las.DimScanAngleRank:
		return float64(p.ScanAngleRank()), true
	case las.DimTime:
		return p.Time(), p.HasTime()
	}
	v, ok := p.Value(name)
	return float64(v), ok
}
