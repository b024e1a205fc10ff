package pkg

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/golang/glog"

	"github.com/ecopia-map/las_codec/internal/export"
	"github.com/ecopia-map/las_codec/internal/options"
	"github.com/ecopia-map/las_codec/pkg/chain_manager"
	"github.com/ecopia-map/las_codec/tools"
)

// ColumnExporter writes one MonetDB binary column file per field
type ColumnExporter struct {
	exporter
}

func NewColumnExporter(fileFinder tools.FileFinder, chainManager chain_manager.ChainManager) Runner {
	return &ColumnExporter{
		exporter: exporter{fileFinder: fileFinder, chainManager: chainManager},
	}
}

func (ce *ColumnExporter) Run(ctx context.Context, opts *options.ExportOptions) error {
	defer cleanup(ce.chainManager)
	colOpts := opts.ColumnOptions
	if colOpts == nil {
		return fmt.Errorf("missing column options")
	}

	plan, err := ce.prepare(opts)
	if err != nil {
		return err
	}

	// without a prefix the columns are named after the first input
	prefix := colOpts.Prefix
	if prefix == "" {
		prefix = filepath.Join(filepath.Dir(plan.files[0]), getFilenameWithoutExtension(plan.files[0]))
	}
	if err := tools.CreateDirectoryIfDoesNotExist(filepath.Dir(prefix)); err != nil {
		return err
	}

	writers := make([]*export.ColumnWriter, 0, len(plan.fields))
	sinks := make([]export.Sink, 0, len(plan.fields))
	for _, f := range plan.fields {
		cw, err := export.NewColumnWriter(prefix, f, colOpts.Compress)
		if err != nil {
			closeSinks(sinks)
			return err
		}
		writers = append(writers, cw)
		sinks = append(sinks, cw)
	}

	rows, err := ce.run(ctx, opts, plan, sinks)
	if err != nil {
		return err
	}
	for _, cw := range writers {
		glog.Infof("column %s: %d values", cw.Path(), cw.Count())
	}
	tools.LogOutput(fmt.Sprintf("> wrote %d points to %d columns", rows, len(writers)))
	return nil
}
