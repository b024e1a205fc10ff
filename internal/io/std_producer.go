package io

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"

	"github.com/ecopia-map/las_codec/internal/las"
	"github.com/ecopia-map/las_codec/internal/morton"
)

const DefaultBatchSize = 4096

// ReaderSetup installs filters and transforms on a freshly opened reader
type ReaderSetup func(r *las.Reader) error

type StandardProducer struct {
	batchSize int
	setup     ReaderSetup
	mortonCtx *morton.Context
}

// NewStandardProducer builds a producer. setup may be nil; keys are only
// computed when mortonCtx is not nil.
func NewStandardProducer(batchSize int, setup ReaderSetup, mortonCtx *morton.Context) *StandardProducer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &StandardProducer{
		batchSize: batchSize,
		setup:     setup,
		mortonCtx: mortonCtx,
	}
}

// Reads every file received from jobs and submits its points as WorkUnits to
// the Out channel of the job. Returns when jobs is closed, the context is
// cancelled or a file fails.
func (p *StandardProducer) Produce(ctx context.Context, jobs <-chan FileJob) error {
	for job := range jobs {
		if err := p.produceFile(ctx, job); err != nil {
			return err
		}
	}
	return nil
}

func (p *StandardProducer) produceFile(ctx context.Context, job FileJob) error {
	f, err := os.Open(job.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := las.NewReader(f)
	if err != nil {
		return fmt.Errorf("%s: %w", job.Path, err)
	}
	if p.setup != nil {
		if err := p.setup(r); err != nil {
			return fmt.Errorf("%s: %w", job.Path, err)
		}
	}
	glog.Infof("reading %s (%d points)", job.Path, r.Header().PointRecordsCount())

	var encoder *morton.Encoder
	var encoderHeader *las.Header

	unit := p.newUnit(job, 0)
	for {
		pt, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%s: %w", job.Path, err)
		}

		// a transform may bind points to an output header with its own offset
		if p.mortonCtx != nil && pt.Header() != encoderHeader {
			encoderHeader = pt.Header()
			encoder = morton.NewEncoder(*p.mortonCtx, encoderHeader)
		}
		unit.Points = append(unit.Points, pt.Clone())
		if encoder != nil {
			unit.Keys = append(unit.Keys, encoder.Key(pt))
		}

		if len(unit.Points) == p.batchSize {
			if err := submit(ctx, job.Out, unit); err != nil {
				return err
			}
			unit = p.newUnit(job, unit.Batch+1)
		}
	}

	unit.Last = true
	return submit(ctx, job.Out, unit)
}

func (p *StandardProducer) newUnit(job FileJob, batch int) *WorkUnit {
	u := &WorkUnit{
		FileIndex: job.Index,
		Path:      job.Path,
		Batch:     batch,
		Points:    make([]*las.Point, 0, p.batchSize),
	}
	if p.mortonCtx != nil {
		u.Keys = make([]uint64, 0, p.batchSize)
	}
	return u
}

func submit(ctx context.Context, work chan<- *WorkUnit, unit *WorkUnit) error {
	select {
	case work <- unit:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
