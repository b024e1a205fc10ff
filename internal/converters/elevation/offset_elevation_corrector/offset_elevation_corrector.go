package offset_elevation_corrector

import "github.com/ecopia-map/las_codec/internal/converters"

// OffsetElevationCorrector shifts every elevation by a constant, e.g. to move
// ellipsoidal heights onto a local vertical datum
type OffsetElevationCorrector struct {
	Offset float64
}

func NewOffsetElevationCorrector(offset float64) converters.ElevationCorrector {
	return &OffsetElevationCorrector{
		Offset: offset,
	}
}

func (c *OffsetElevationCorrector) CorrectElevation(_, _, z float64) float64 {
	return z + c.Offset
}
