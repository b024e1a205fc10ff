package io

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecopia-map/las_codec/internal/export"
	"github.com/ecopia-map/las_codec/internal/las"
	"github.com/ecopia-map/las_codec/internal/morton"
)

// recordingSink keeps the intensity, index and key of every row
type recordingSink struct {
	sync.Mutex
	intensities []uint16
	indices     []uint64
	keys        []uint64
	failAfter   int
	closed      bool
}

func (s *recordingSink) WriteRow(r *export.Row) error {
	s.Lock()
	defer s.Unlock()
	if s.failAfter > 0 && len(s.indices) == s.failAfter {
		return errors.New("disk full")
	}
	s.intensities = append(s.intensities, r.Point.Intensity())
	s.indices = append(s.indices, r.Index)
	s.keys = append(s.keys, r.Key)
	return nil
}

func (s *recordingSink) Close() error {
	s.closed = true
	return nil
}

// writeFiles creates count files holding perFile points each. Intensities
// number the points across all files.
func writeFiles(t *testing.T, count, perFile int) []string {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for i := 0; i < count; i++ {
		path := filepath.Join(dir, fmt.Sprintf("part%02d.las", i))
		f, err := os.Create(path)
		require.NoError(t, err)

		h := las.NewHeader()
		w, err := las.NewWriter(f, h)
		require.NoError(t, err)
		p := las.NewPoint(h)
		for j := 0; j < perFile; j++ {
			p.SetIntensity(uint16(i*perFile + j))
			p.SetRawX(int32(j))
			p.SetRawY(int32(i))
			p.SetClassification(las.NewClassification(uint8(j%2+1), false, false, false))
			require.NoError(t, w.WritePoint(p))
		}
		require.NoError(t, w.Close())
		require.NoError(t, f.Close())
		paths = append(paths, path)
	}
	return paths
}

func TestPipelineKeepsFileOrder(t *testing.T) {
	files := writeFiles(t, 5, 7)
	a, b := &recordingSink{}, &recordingSink{}

	pl := NewPipeline(func() Producer { return NewStandardProducer(3, nil, nil) })
	pl.Producers = 3
	rows, err := pl.Run(context.Background(), files, []export.Sink{a, b})
	require.NoError(t, err)
	assert.Equal(t, uint64(35), rows)

	for _, s := range []*recordingSink{a, b} {
		require.Len(t, s.intensities, 35)
		for i := range s.intensities {
			assert.Equal(t, uint16(i), s.intensities[i])
			assert.Equal(t, uint64(i), s.indices[i])
		}
		assert.False(t, s.closed)
	}
}

type classOnly uint8

func (c classOnly) Filter(p *las.Point) bool {
	return p.Classification().Class() == uint8(c)
}

func TestPipelineReaderSetupAndKeys(t *testing.T) {
	files := writeFiles(t, 2, 4)
	sink := &recordingSink{}

	setup := func(r *las.Reader) error {
		r.SetFilters(classOnly(1))
		return nil
	}
	ctx := &morton.Context{ScaleX: 0.01, ScaleY: 0.01}
	pl := NewPipeline(func() Producer { return NewStandardProducer(0, setup, ctx) })
	rows, err := pl.Run(context.Background(), files, []export.Sink{sink})
	require.NoError(t, err)

	assert.Equal(t, uint64(4), rows)
	assert.Equal(t, []uint16{0, 2, 4, 6}, sink.intensities)
	assert.Equal(t, []uint64{0, 1, 2, 3}, sink.indices)
	assert.Equal(t, []uint64{
		morton.Encode(0, 0),
		morton.Encode(2, 0),
		morton.Encode(0, 1),
		morton.Encode(2, 1),
	}, sink.keys)
}

func TestPipelineEmptyFile(t *testing.T) {
	files := writeFiles(t, 3, 2)
	empty := writeFiles(t, 1, 0)
	files = append(files[:1], append(empty, files[1:]...)...)
	sink := &recordingSink{}

	pl := NewPipeline(func() Producer { return NewStandardProducer(1, nil, nil) })
	rows, err := pl.Run(context.Background(), files, []export.Sink{sink})
	require.NoError(t, err)
	assert.Equal(t, uint64(6), rows)
	assert.Equal(t, []uint16{0, 1, 2, 3, 4, 5}, sink.intensities)
}

func TestPipelineSinkError(t *testing.T) {
	files := writeFiles(t, 4, 50)
	ok, failing := &recordingSink{}, &recordingSink{failAfter: 10}

	pl := NewPipeline(func() Producer { return NewStandardProducer(5, nil, nil) })
	_, err := pl.Run(context.Background(), files, []export.Sink{ok, failing})
	require.Error(t, err)
	assert.Equal(t, "disk full", err.Error())
	assert.Len(t, failing.indices, 10)
}

func TestPipelineMissingFile(t *testing.T) {
	files := writeFiles(t, 1, 3)
	files = append(files, filepath.Join(t.TempDir(), "missing.las"))

	pl := NewPipeline(func() Producer { return NewStandardProducer(0, nil, nil) })
	_, err := pl.Run(context.Background(), files, []export.Sink{&recordingSink{}})
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestSequencerOrdersUnits(t *testing.T) {
	pt := las.NewPoint(nil)
	first := FileJob{Index: 0, Out: make(chan *WorkUnit, 2)}
	second := FileJob{Index: 1, Out: make(chan *WorkUnit, 2)}

	// the second file is ready before the first one
	second.Out <- &WorkUnit{FileIndex: 1, Batch: 0, Last: true, Points: []*las.Point{pt}}
	first.Out <- &WorkUnit{FileIndex: 0, Batch: 0, Points: []*las.Point{pt}}
	first.Out <- &WorkUnit{FileIndex: 0, Batch: 1, Last: true, Points: []*las.Point{pt, pt}}

	files := make(chan FileJob, 2)
	files <- first
	files <- second
	close(files)

	out := make(chan *WorkUnit, 8)
	s := NewSequencer()
	require.NoError(t, s.Run(context.Background(), files, []chan *WorkUnit{out}))
	assert.Equal(t, uint64(4), s.Rows())

	var got []unitKey
	var firstRows []uint64
	for u := range out {
		got = append(got, unitKey{u.FileIndex, u.Batch})
		firstRows = append(firstRows, u.FirstRow)
	}
	assert.Equal(t, []unitKey{{0, 0}, {0, 1}, {1, 0}}, got)
	assert.Equal(t, []uint64{0, 1, 3}, firstRows)
}

func TestSequencerBlocksLaterFiles(t *testing.T) {
	pt := las.NewPoint(nil)
	first := FileJob{Index: 0, Out: make(chan *WorkUnit)}
	second := FileJob{Index: 1, Out: make(chan *WorkUnit, 2)}
	files := make(chan FileJob, 2)
	files <- first
	files <- second
	close(files)

	out := make(chan *WorkUnit, 1)
	s := NewSequencer()
	done := make(chan error, 1)
	go func() {
		done <- s.Run(context.Background(), files, []chan *WorkUnit{out})
	}()

	// nothing of the second file is taken while the first one is pending
	accepted := 0
	for batch := 0; batch < 10; batch++ {
		select {
		case second.Out <- &WorkUnit{FileIndex: 1, Batch: batch, Points: []*las.Point{pt}}:
			accepted++
			continue
		case <-time.After(50 * time.Millisecond):
		}
		break
	}
	assert.Equal(t, 2, accepted)
	assert.Empty(t, out)

	go func() {
		first.Out <- &WorkUnit{FileIndex: 0, Batch: 0, Last: true, Points: []*las.Point{pt}}
		second.Out <- &WorkUnit{FileIndex: 1, Batch: 2, Last: true}
	}()

	var got []unitKey
	for u := range out {
		got = append(got, unitKey{u.FileIndex, u.Batch})
	}
	require.NoError(t, <-done)
	assert.Equal(t, []unitKey{{0, 0}, {1, 0}, {1, 1}, {1, 2}}, got)
	assert.Equal(t, uint64(3), s.Rows())
}

func TestSequencerRejectsBatchOutOfOrder(t *testing.T) {
	job := FileJob{Index: 0, Path: "a.las", Out: make(chan *WorkUnit, 1)}
	job.Out <- &WorkUnit{FileIndex: 0, Batch: 1, Last: true}
	files := make(chan FileJob, 1)
	files <- job
	close(files)

	out := make(chan *WorkUnit, 1)
	err := NewSequencer().Run(context.Background(), files, []chan *WorkUnit{out})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got batch 1 of file 0")
	_, open := <-out
	assert.False(t, open)
}
