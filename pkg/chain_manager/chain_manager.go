package chain_manager

import (
	"github.com/ecopia-map/las_codec/internal/converters"
	"github.com/ecopia-map/las_codec/internal/io"
	"github.com/ecopia-map/las_codec/internal/las"
)

// ChainManager owns the filters and transforms every reader applies
type ChainManager interface {
	GetFilters() []las.Filter
	GetCoordinateConverterAlgorithm() converters.CoordinateConverter
	GetElevationCorrectionAlgorithm() converters.ElevationCorrector
	GetReaderSetup() io.ReaderSetup

	// GetOutputHeader is the header points of a file are bound to once
	// transformed
	GetOutputHeader(h *las.Header) (*las.Header, error)

	// TransformsCoordinates is true when readers move points away from the
	// extent their file header declares
	TransformsCoordinates() bool
}
