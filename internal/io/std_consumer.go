package io

import (
	"context"

	"github.com/ecopia-map/las_codec/internal/export"
)

// StandardConsumer writes every point of the WorkUnits it receives to one
// sink. The sink is not closed by the consumer.
type StandardConsumer struct {
	sink export.Sink
}

func NewStandardConsumer(sink export.Sink) *StandardConsumer {
	return &StandardConsumer{sink: sink}
}

// Continually consumes WorkUnits until the channel is closed, the context is
// cancelled or the sink fails
func (c *StandardConsumer) Consume(ctx context.Context, work <-chan *WorkUnit) error {
	for {
		var unit *WorkUnit
		var ok bool
		select {
		case unit, ok = <-work:
		case <-ctx.Done():
			return ctx.Err()
		}
		if !ok {
			// channel was closed by the sequencer
			return nil
		}
		if err := c.doWork(unit); err != nil {
			return err
		}
	}
}

func (c *StandardConsumer) doWork(unit *WorkUnit) error {
	row := export.Row{}
	for i, p := range unit.Points {
		row.Point = p
		row.Index = unit.FirstRow + uint64(i)
		row.Key = 0
		if unit.Keys != nil {
			row.Key = unit.Keys[i]
		}
		if err := c.sink.WriteRow(&row); err != nil {
			return err
		}
	}
	return nil
}
