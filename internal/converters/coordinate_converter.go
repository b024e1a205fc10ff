package converters

type Coordinate struct {
	X float64
	Y float64
	Z float64
}

// CoordinateConverter transforms coordinates between spatial reference
// systems given as proj4 definitions. Geographic coordinates are in degrees.
type CoordinateConverter interface {
	ConvertCoordinate(source string, target string, coord Coordinate) (Coordinate, error)
	ConvertCoordinates(source string, target string, coords []Coordinate) error
	Cleanup()
}

type ElevationCorrector interface {
	CorrectElevation(lon, lat, z float64) float64
}
