package pkg

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/golang/glog"

	"github.com/ecopia-map/las_codec/internal/export"
	"github.com/ecopia-map/las_codec/internal/io"
	"github.com/ecopia-map/las_codec/internal/las"
	"github.com/ecopia-map/las_codec/internal/morton"
	"github.com/ecopia-map/las_codec/internal/options"
	"github.com/ecopia-map/las_codec/pkg/chain_manager"
	"github.com/ecopia-map/las_codec/tools"
)

// exporter holds what the text, column and COPY exporters share: input
// discovery, the Morton pre-flight and the read pipeline
type exporter struct {
	fileFinder   tools.FileFinder
	chainManager chain_manager.ChainManager
}

type exportPlan struct {
	files     []string
	fields    []export.Field
	mortonCtx *morton.Context
}

// prepare resolves files and fields and runs the --check pre-flight. Nothing
// is written before it succeeds.
func (e *exporter) prepare(opts *options.ExportOptions) (*exportPlan, error) {
	fields, err := export.ParseFields(opts.Fields())
	if err != nil {
		return nil, err
	}
	lasFiles, err := listFiles(e.fileFinder, opts)
	if err != nil {
		return nil, err
	}

	plan := &exportPlan{files: lasFiles, fields: fields}
	mortonOpts := opts.Morton()
	if mortonOpts == nil {
		mortonOpts = &options.MortonOptions{ScaleX: las.DefaultScale, ScaleY: las.DefaultScale}
	}
	mctx := morton.Context{
		ScaleX:        mortonOpts.ScaleX,
		ScaleY:        mortonOpts.ScaleY,
		GlobalOffsetX: mortonOpts.GlobalOffsetX,
		GlobalOffsetY: mortonOpts.GlobalOffsetY,
	}
	if export.HasField(fields, export.FieldMortonKey) {
		plan.mortonCtx = &mctx
	}

	if mortonOpts.Check {
		tools.LogOutput("> checking inputs against the Morton frame...")
		for _, filePath := range lasFiles {
			if err := e.checkFile(filePath, mctx); err != nil {
				return nil, fmt.Errorf("%s: %w", filePath, err)
			}
		}
	}
	return plan, nil
}

func (e *exporter) checkFile(filePath string, mctx morton.Context) error {
	f, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	h, err := las.ReadHeader(f)
	if err != nil {
		return err
	}
	out, err := e.chainManager.GetOutputHeader(h)
	if err != nil {
		return err
	}
	return morton.Check(out, mctx)
}

// run streams every point of the plan to the sinks and closes them
func (e *exporter) run(ctx context.Context, opts *options.ExportOptions, plan *exportPlan, sinks []export.Sink) (uint64, error) {
	setup := e.chainManager.GetReaderSetup()
	pipeline := io.NewPipeline(func() io.Producer {
		return io.NewStandardProducer(opts.BatchSize, setup, plan.mortonCtx)
	})
	if opts.Producers > 0 {
		pipeline.Producers = opts.Producers
	}

	tools.LogOutput("> exporting data...")
	rows, err := pipeline.Run(ctx, plan.files, sinks)
	if cerr := closeSinks(sinks); err == nil {
		err = cerr
	}
	if err != nil {
		return rows, err
	}
	glog.Infof("exported %d rows with fields %s", rows, export.FieldsString(plan.fields))
	return rows, nil
}

func closeSinks(sinks []export.Sink) error {
	var errs []error
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
