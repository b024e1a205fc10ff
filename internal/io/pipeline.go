package io

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ecopia-map/las_codec/internal/export"
)

// Pipeline moves the points of a list of files to a set of sinks: Producers
// read disjoint files, one Sequencer restores file order and one consumer
// per sink writes. Every file in flight buffers at most ChannelFactor units
// and at most Producers files are queued ahead of the one being written.
type Pipeline struct {
	Producers     int
	ChannelFactor int
	NewProducer   func() Producer
}

const defaultChannelFactor = 5

func NewPipeline(newProducer func() Producer) *Pipeline {
	return &Pipeline{
		Producers:     runtime.NumCPU(),
		ChannelFactor: defaultChannelFactor,
		NewProducer:   newProducer,
	}
}

// Run blocks until every point reached every sink or the first error. It
// returns the number of rows written to each sink. Sinks are left open.
func (pl *Pipeline) Run(ctx context.Context, files []string, sinks []export.Sink) (uint64, error) {
	numProducers := pl.Producers
	if numProducers <= 0 {
		numProducers = 1
	}
	if numProducers > len(files) && len(files) > 0 {
		numProducers = len(files)
	}
	factor := pl.ChannelFactor
	if factor <= 0 {
		factor = defaultChannelFactor
	}
	bufferSize := numProducers * factor

	g, gctx := errgroup.WithContext(ctx)

	// files are handed out in output order, each with its own bounded
	// channel; the sequencer learns the same order through queued
	queued := make(chan FileJob, numProducers)
	jobs := make(chan FileJob)
	g.Go(func() error {
		defer close(queued)
		defer close(jobs)
		for i, path := range files {
			job := FileJob{Index: i, Path: path, Out: make(chan *WorkUnit, factor)}
			select {
			case queued <- job:
			case <-gctx.Done():
				return gctx.Err()
			}
			select {
			case jobs <- job:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < numProducers; i++ {
		producer := pl.NewProducer()
		g.Go(func() error {
			return producer.Produce(gctx, jobs)
		})
	}

	outs := make([]chan *WorkUnit, len(sinks))
	for i := range outs {
		outs[i] = make(chan *WorkUnit, bufferSize)
	}
	sequencer := NewSequencer()
	g.Go(func() error {
		return sequencer.Run(gctx, queued, outs)
	})

	for i, sink := range sinks {
		consumer := NewStandardConsumer(sink)
		in := outs[i]
		g.Go(func() error {
			return consumer.Consume(gctx, in)
		})
	}

	err := g.Wait()
	return sequencer.Rows(), err
}
