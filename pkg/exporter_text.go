package pkg

import (
	"context"
	"fmt"
	"io"

	"github.com/ecopia-map/las_codec/internal/export"
	"github.com/ecopia-map/las_codec/internal/options"
	"github.com/ecopia-map/las_codec/pkg/chain_manager"
	"github.com/ecopia-map/las_codec/tools"
)

// TextExporter writes the points as delimited text
type TextExporter struct {
	exporter
	stdout io.Writer
}

func NewTextExporter(fileFinder tools.FileFinder, chainManager chain_manager.ChainManager, stdout io.Writer) Runner {
	return &TextExporter{
		exporter: exporter{fileFinder: fileFinder, chainManager: chainManager},
		stdout:   stdout,
	}
}

func (te *TextExporter) Run(ctx context.Context, opts *options.ExportOptions) error {
	defer cleanup(te.chainManager)
	if opts.TextOptions == nil {
		return fmt.Errorf("missing text options")
	}

	plan, err := te.prepare(opts)
	if err != nil {
		return err
	}

	w, err := createOutput(opts.TextOptions.Output, te.stdout)
	if err != nil {
		return err
	}
	delimiter := opts.TextOptions.Delimiter
	if delimiter == "" {
		delimiter = ","
	}
	sink := export.NewTextWriter(w, plan.fields, delimiter, opts.TextOptions.Labels)

	rows, err := te.run(ctx, opts, plan, []export.Sink{sink})
	if err != nil {
		return err
	}
	tools.LogOutput(fmt.Sprintf("> wrote %d points", rows))
	return nil
}
