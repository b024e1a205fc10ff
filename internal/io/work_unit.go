package io

import "github.com/ecopia-map/las_codec/internal/las"

// FileJob assigns one input file to a producer. Index is the position of the
// file in the output order. The producer sends the WorkUnits of the file, in
// batch order, to Out; the Sequencer drains Out once every earlier file is
// done, so a full Out blocks the producer.
type FileJob struct {
	Index int
	Path  string
	Out   chan *WorkUnit
}

// Contains a batch of consecutive points of one input file. Batches of a
// file are numbered from 0 and the final one has Last set, even when it
// holds no points.
type WorkUnit struct {
	FileIndex int
	Path      string
	Batch     int
	Last      bool
	Points    []*las.Point
	// Morton keys, parallel to Points, nil when no key is requested
	Keys []uint64
	// row index of Points[0] in the whole output, set by the Sequencer
	FirstRow uint64
}
