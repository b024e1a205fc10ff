// Package transform holds the point transforms a las.Reader applies after
// filtering.
package transform

import (
	"github.com/ecopia-map/las_codec/internal/converters"
	"github.com/ecopia-map/las_codec/internal/las"
)

// Reprojection converts coordinates from Source to Target through a
// CoordinateConverter. When Output is set the point is rebound to it before
// the converted coordinates are stored, so the target frame can use its own
// scale and offset.
type Reprojection struct {
	Converter converters.CoordinateConverter
	Source    string
	Target    string
	Output    *las.Header
}

func NewReprojection(cc converters.CoordinateConverter, source, target string, output *las.Header) *Reprojection {
	return &Reprojection{Converter: cc, Source: source, Target: target, Output: output}
}

func (r *Reprojection) Transform(p *las.Point) error {
	out, err := r.Converter.ConvertCoordinate(r.Source, r.Target, converters.Coordinate{X: p.X(), Y: p.Y(), Z: p.Z()})
	if err != nil {
		return err
	}
	if r.Output != nil && p.Header() != r.Output {
		if err := p.SetHeader(r.Output); err != nil {
			return err
		}
	}
	p.SetCoordinates(out.X, out.Y, out.Z)
	return nil
}

// ZOffset corrects elevations with an ElevationCorrector
type ZOffset struct {
	Corrector converters.ElevationCorrector
}

func NewZOffset(c converters.ElevationCorrector) *ZOffset {
	return &ZOffset{Corrector: c}
}

func (z *ZOffset) Transform(p *las.Point) error {
	p.SetZ(z.Corrector.CorrectElevation(p.X(), p.Y(), p.Z()))
	return nil
}

// EightBitColor widens 8 bit color channels to the 16 bit range LAS expects
// by repeating the byte (0xAB becomes 0xABAB). Channels already above 255
// are left untouched.
type EightBitColor struct{}

func (EightBitColor) Transform(p *las.Point) error {
	if !p.HasColor() {
		return nil
	}
	c := p.Color()
	if c.Red > 0xFF || c.Green > 0xFF || c.Blue > 0xFF {
		return nil
	}
	return p.SetColor(las.Color{
		Red:   c.Red<<8 | c.Red,
		Green: c.Green<<8 | c.Green,
		Blue:  c.Blue<<8 | c.Blue,
	})
}
