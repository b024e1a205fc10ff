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

// PgExporter writes a PostgreSQL binary COPY stream
type PgExporter struct {
	exporter
	stdout io.Writer
}

func NewPgExporter(fileFinder tools.FileFinder, chainManager chain_manager.ChainManager, stdout io.Writer) Runner {
	return &PgExporter{
		exporter: exporter{fileFinder: fileFinder, chainManager: chainManager},
		stdout:   stdout,
	}
}

func (pe *PgExporter) Run(ctx context.Context, opts *options.ExportOptions) error {
	defer cleanup(pe.chainManager)
	if opts.PgOptions == nil {
		return fmt.Errorf("missing pg options")
	}

	plan, err := pe.prepare(opts)
	if err != nil {
		return err
	}

	w, err := createOutput(opts.PgOptions.Output, pe.stdout)
	if err != nil {
		return err
	}
	sink, err := export.NewPgWriter(w, plan.fields)
	if err != nil {
		if c, ok := w.(io.Closer); ok {
			c.Close()
		}
		return err
	}

	rows, err := pe.run(ctx, opts, plan, []export.Sink{sink})
	if err != nil {
		return err
	}
	tools.LogOutput(fmt.Sprintf("> wrote %d rows", rows))
	return nil
}
