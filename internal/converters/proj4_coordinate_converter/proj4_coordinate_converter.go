package proj4_coordinate_converter

import (
	"fmt"
	"strings"
	"sync"

	"github.com/golang/glog"
	proj4 "github.com/xeonx/proj4"

	"github.com/ecopia-map/las_codec/internal/converters"
)

// epsgDefinitions resolves the EPSG codes accepted in place of a proj4 string
var epsgDefinitions = map[string]string{
	"EPSG:4326": "+proj=longlat +datum=WGS84 +no_defs",
	"EPSG:4978": "+proj=geocent +datum=WGS84 +units=m +no_defs",
	"EPSG:3857": "+proj=merc +a=6378137 +b=6378137 +lat_ts=0 +lon_0=0 +x_0=0 +y_0=0 +k=1 +units=m +nadgrids=@null +no_defs",
	"EPSG:4269": "+proj=longlat +datum=NAD83 +no_defs",
}

type proj4CoordinateConverter struct {
	sync.Mutex
	projections map[string]*proj4.Proj
}

func NewProj4CoordinateConverter() converters.CoordinateConverter {
	return &proj4CoordinateConverter{
		projections: make(map[string]*proj4.Proj),
	}
}

// ResolveDefinition turns "EPSG:<code>" into a proj4 string. UTM zones on
// WGS84 (EPSG:326xx and EPSG:327xx) are derived, other definitions are
// returned unchanged.
func ResolveDefinition(def string) (string, error) {
	def = strings.TrimSpace(def)
	upper := strings.ToUpper(def)
	if !strings.HasPrefix(upper, "EPSG:") {
		return def, nil
	}
	if known, ok := epsgDefinitions[upper]; ok {
		return known, nil
	}
	var code int
	if _, err := fmt.Sscanf(upper, "EPSG:%d", &code); err != nil {
		return "", fmt.Errorf("invalid EPSG code %q: %w", def, err)
	}
	switch {
	case code > 32600 && code <= 32660:
		return fmt.Sprintf("+proj=utm +zone=%d +datum=WGS84 +units=m +no_defs", code-32600), nil
	case code > 32700 && code <= 32760:
		return fmt.Sprintf("+proj=utm +zone=%d +south +datum=WGS84 +units=m +no_defs", code-32700), nil
	}
	return "", fmt.Errorf("unknown EPSG code %d, pass a proj4 definition instead", code)
}

func (cc *proj4CoordinateConverter) ConvertCoordinate(source string, target string, coord converters.Coordinate) (converters.Coordinate, error) {
	coords := []converters.Coordinate{coord}
	if err := cc.ConvertCoordinates(source, target, coords); err != nil {
		return coord, err
	}
	return coords[0], nil
}

// ConvertCoordinates converts coords in place
func (cc *proj4CoordinateConverter) ConvertCoordinates(source string, target string, coords []converters.Coordinate) error {
	if source == target || len(coords) == 0 {
		return nil
	}

	cc.Lock()
	defer cc.Unlock()

	src, err := cc.getProjection(source)
	if err != nil {
		return err
	}
	dst, err := cc.getProjection(target)
	if err != nil {
		return err
	}

	x := make([]float64, len(coords))
	y := make([]float64, len(coords))
	z := make([]float64, len(coords))
	for i, c := range coords {
		x[i], y[i], z[i] = c.X, c.Y, c.Z
		if src.IsLatLong() {
			x[i], y[i] = proj4.DegToRad(c.X), proj4.DegToRad(c.Y)
		}
	}

	if err := proj4.Transform3(src, dst, x, y, z); err != nil {
		return fmt.Errorf("converting from %q to %q: %w", source, target, err)
	}

	for i := range coords {
		if dst.IsLatLong() {
			x[i], y[i] = proj4.RadToDeg(x[i]), proj4.RadToDeg(y[i])
		}
		coords[i] = converters.Coordinate{X: x[i], Y: y[i], Z: z[i]}
	}
	return nil
}

func (cc *proj4CoordinateConverter) getProjection(def string) (*proj4.Proj, error) {
	if p, ok := cc.projections[def]; ok {
		return p, nil
	}
	resolved, err := ResolveDefinition(def)
	if err != nil {
		return nil, err
	}
	p, err := proj4.InitPlus(resolved)
	if err != nil {
		return nil, fmt.Errorf("initializing projection %q: %w", def, err)
	}
	glog.Infof("loaded projection %s", resolved)
	cc.projections[def] = p
	return p, nil
}

// Cleanup releases every cached projection
func (cc *proj4CoordinateConverter) Cleanup() {
	cc.Lock()
	defer cc.Unlock()
	for def, p := range cc.projections {
		p.Close()
		delete(cc.projections, def)
	}
}
