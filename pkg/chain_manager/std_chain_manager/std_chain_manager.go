package std_chain_manager

import (
	"fmt"
	"math"

	"github.com/golang/glog"

	"github.com/ecopia-map/las_codec/internal/converters"
	"github.com/ecopia-map/las_codec/internal/converters/elevation/offset_elevation_corrector"
	"github.com/ecopia-map/las_codec/internal/converters/proj4_coordinate_converter"
	"github.com/ecopia-map/las_codec/internal/filter"
	"github.com/ecopia-map/las_codec/internal/io"
	"github.com/ecopia-map/las_codec/internal/las"
	"github.com/ecopia-map/las_codec/internal/options"
	"github.com/ecopia-map/las_codec/internal/transform"
	"github.com/ecopia-map/las_codec/pkg/chain_manager"
)

type StandardChainManager struct {
	options             *options.ExportOptions
	filters             []las.Filter
	coordinateConverter converters.CoordinateConverter
	elevationCorrector  converters.ElevationCorrector
}

// NewChainManager parses the filter options. The proj4 converter is only
// created when a reprojection target is set.
func NewChainManager(opts *options.ExportOptions) (chain_manager.ChainManager, error) {
	var cc converters.CoordinateConverter
	if opts.TransformOptions.TargetSrs != "" {
		cc = proj4_coordinate_converter.NewProj4CoordinateConverter()
	}
	return NewChainManagerWithConverter(opts, cc)
}

func NewChainManagerWithConverter(opts *options.ExportOptions, cc converters.CoordinateConverter) (chain_manager.ChainManager, error) {
	filters, err := buildFilters(&opts.FilterOptions)
	if err != nil {
		return nil, err
	}
	if opts.TransformOptions.TargetSrs != "" && cc == nil {
		return nil, fmt.Errorf("reprojection to %s needs a coordinate converter", opts.TransformOptions.TargetSrs)
	}

	return &StandardChainManager{
		options:             opts,
		filters:             filters,
		coordinateConverter: cc,
		elevationCorrector:  offset_elevation_corrector.NewOffsetElevationCorrector(opts.TransformOptions.ZOffset),
	}, nil
}

func buildFilters(opts *options.FilterOptions) ([]las.Filter, error) {
	mode, err := filter.ParseMode(opts.Mode)
	if err != nil {
		return nil, err
	}

	var filters []las.Filter
	if opts.Bounds != "" {
		b, use3D, err := filter.ParseBounds(opts.Bounds)
		if err != nil {
			return nil, err
		}
		f := filter.NewBoundsFilter(b, use3D)
		f.Mode = mode
		filters = append(filters, f)
	}
	if opts.Classes != "" {
		classes, err := filter.ParseClasses(opts.Classes)
		if err != nil {
			return nil, err
		}
		f := filter.NewClassificationFilter(classes...)
		f.Mode = mode
		filters = append(filters, f)
	}
	if opts.Returns != "" {
		f, err := filter.ParseReturns(opts.Returns)
		if err != nil {
			return nil, err
		}
		f.Mode = mode
		filters = append(filters, f)
	}
	if opts.Color != "" {
		f, err := filter.ParseColorRange(opts.Color)
		if err != nil {
			return nil, err
		}
		f.Mode = mode
		filters = append(filters, f)
	}
	for _, expr := range opts.Continuous {
		f, err := filter.ParseContinuous(expr)
		if err != nil {
			return nil, err
		}
		f.Mode = mode
		filters = append(filters, f)
	}
	return filters, nil
}

func (cm *StandardChainManager) GetFilters() []las.Filter {
	return cm.filters
}

func (cm *StandardChainManager) GetCoordinateConverterAlgorithm() converters.CoordinateConverter {
	return cm.coordinateConverter
}

func (cm *StandardChainManager) GetElevationCorrectionAlgorithm() converters.ElevationCorrector {
	return cm.elevationCorrector
}

// GetReaderSetup installs the filters and, in order, 8 bit color expansion,
// reprojection and the elevation offset on every reader
func (cm *StandardChainManager) GetReaderSetup() io.ReaderSetup {
	return func(r *las.Reader) error {
		r.SetFilters(cm.filters...)

		topts := cm.options.TransformOptions
		var transforms []las.Transform
		if topts.EightBitColors {
			transforms = append(transforms, transform.EightBitColor{})
		}
		if topts.TargetSrs != "" {
			output, err := cm.outputHeader(r.Header())
			if err != nil {
				return err
			}
			transforms = append(transforms, transform.NewReprojection(cm.coordinateConverter, topts.SourceSrs, topts.TargetSrs, output))
		}
		if topts.ZOffset != 0 {
			transforms = append(transforms, transform.NewZOffset(cm.elevationCorrector))
		}
		r.SetTransforms(transforms...)
		return nil
	}
}

func (cm *StandardChainManager) GetOutputHeader(h *las.Header) (*las.Header, error) {
	if cm.options.TransformOptions.TargetSrs == "" {
		return h, nil
	}
	return cm.outputHeader(h)
}

func (cm *StandardChainManager) TransformsCoordinates() bool {
	topts := cm.options.TransformOptions
	return topts.TargetSrs != "" || topts.ZOffset != 0
}

// outputHeader derives the header reprojected points are bound to: the file
// header with the requested scale and an offset at the floor of the
// reprojected minimum corner
func (cm *StandardChainManager) outputHeader(h *las.Header) (*las.Header, error) {
	topts := cm.options.TransformOptions
	lower := h.Min()
	corner, err := cm.coordinateConverter.ConvertCoordinate(topts.SourceSrs, topts.TargetSrs, converters.Coordinate{X: lower.X, Y: lower.Y, Z: lower.Z})
	if err != nil {
		return nil, err
	}

	out := h.Clone()
	if topts.OutputScale > 0 {
		out.SetScale(topts.OutputScale, topts.OutputScale, h.Scale().Z)
	}
	out.SetOffset(math.Floor(corner.X), math.Floor(corner.Y), h.Offset().Z)
	out.SetSpatialReference(topts.TargetSrs)
	glog.Infof("reprojecting to %s with scale %v and offset %v", topts.TargetSrs, out.Scale(), out.Offset())
	return out, nil
}
