package io

import (
	"context"
	"fmt"
)

type unitKey struct {
	file  int
	batch int
}

// Sequencer restores the global order of WorkUnits produced concurrently:
// files in index order, batches in file order. It only reads the channel of
// the file next in line, so producers of later files block once their own
// channel is full.
type Sequencer struct {
	rows uint64
}

func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// Rows is the number of points emitted so far
func (s *Sequencer) Rows() uint64 {
	return s.rows
}

// Run takes files in output order and hands every unit of each to all
// outputs. It returns once files is closed and closes every output.
func (s *Sequencer) Run(ctx context.Context, files <-chan FileJob, outs []chan *WorkUnit) error {
	defer func() {
		for _, out := range outs {
			close(out)
		}
	}()

	for {
		var job FileJob
		var ok bool
		select {
		case job, ok = <-files:
		case <-ctx.Done():
			return ctx.Err()
		}
		if !ok {
			return nil
		}
		if err := s.drain(ctx, job, outs); err != nil {
			return err
		}
	}
}

// drain emits the units of one file until its last batch
func (s *Sequencer) drain(ctx context.Context, job FileJob, outs []chan *WorkUnit) error {
	next := unitKey{file: job.Index}
	for {
		var unit *WorkUnit
		var ok bool
		select {
		case unit, ok = <-job.Out:
		case <-ctx.Done():
			return ctx.Err()
		}
		if !ok {
			return fmt.Errorf("io: %s closed before its last batch", job.Path)
		}
		if got := (unitKey{unit.FileIndex, unit.Batch}); got != next {
			return fmt.Errorf("io: got batch %d of file %d, want batch %d of file %d", got.batch, got.file, next.batch, next.file)
		}
		if err := s.emit(ctx, unit, outs); err != nil {
			return err
		}
		if unit.Last {
			return nil
		}
		next.batch++
	}
}

func (s *Sequencer) emit(ctx context.Context, unit *WorkUnit, outs []chan *WorkUnit) error {
	unit.FirstRow = s.rows
	s.rows += uint64(len(unit.Points))
	for _, out := range outs {
		select {
		case out <- unit:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
