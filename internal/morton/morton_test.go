package morton

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecopia-map/las_codec/internal/las"
)

func TestEncodeKnownValues(t *testing.T) {
	assert.Equal(t, uint64(0), Encode(0, 0))
	assert.Equal(t, uint64(2), Encode(1, 0))
	assert.Equal(t, uint64(1), Encode(0, 1))
	assert.Equal(t, uint64(3), Encode(1, 1))
	assert.Equal(t, uint64(0xAAAAAAAAAAAAAAAA), Encode(0xFFFFFFFF, 0))
	assert.Equal(t, uint64(0x5555555555555555), Encode(0, 0xFFFFFFFF))
	assert.Equal(t, uint64(0xAAAAAAAA), Encode(0xFFFFFFFF, 0)&0xFFFFFFFF)
	assert.Equal(t, ^uint64(0), Encode(0xFFFFFFFF, 0xFFFFFFFF))
}

func TestExpand(t *testing.T) {
	assert.Equal(t, uint64(0), Expand(0))
	assert.Equal(t, uint64(1), Expand(1))
	assert.Equal(t, uint64(0x4), Expand(2))
	assert.Equal(t, uint64(0x15), Expand(7))
	assert.Equal(t, uint64(0x4000000000000000), Expand(0x80000000))
}

func TestDecodeInvertsEncode(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		x, y := rng.Uint32(), rng.Uint32()
		key := Encode(x, y)
		assert.Equal(t, key, Encode(x, y))

		gx, gy := Decode(key)
		require.Equal(t, x, gx)
		require.Equal(t, y, gy)
	}
}

func TestEncoderBias(t *testing.T) {
	h := las.NewHeader()
	h.SetOffset(500000, 4000000, 0)
	ctx := Context{ScaleX: 0.01, ScaleY: 0.01, GlobalOffsetX: 49000000, GlobalOffsetY: 399000000}

	e := NewEncoder(ctx, h)
	fx, fy := e.Bias()
	assert.Equal(t, int64(50000000-49000000), fx)
	assert.Equal(t, int64(400000000-399000000), fy)

	p := las.NewPoint(h)
	p.SetRawX(100)
	p.SetRawY(200)
	bx, by := e.Biased(p.RawX(), p.RawY())
	assert.Equal(t, uint32(1000100), bx)
	assert.Equal(t, uint32(1000200), by)
	assert.Equal(t, Encode(1000100, 1000200), e.Key(p))
}

func TestCheck(t *testing.T) {
	h := las.NewHeader()
	h.SetMin(100, 200, 0)
	h.SetMax(1000, 2000, 10)
	ctx := Context{ScaleX: 0.01, ScaleY: 0.01}

	require.NoError(t, Check(h, ctx))

	var scale *ErrScaleMismatch
	bad := ctx
	bad.ScaleY = 0.001
	require.True(t, errors.As(Check(h, bad), &scale))
	assert.Equal(t, "y", scale.Axis)

	// a global offset beyond the minimum would make biased x negative
	var rng *ErrOffsetRange
	bad = ctx
	bad.GlobalOffsetX = 20000
	require.True(t, errors.As(Check(h, bad), &rng))
	assert.Equal(t, "x", rng.Axis)
	assert.Equal(t, "min", rng.Bound)

	// the span from the global offset to the maximum must fit in 31 bits
	bad = ctx
	bad.GlobalOffsetY = -3000000000
	require.True(t, errors.As(Check(h, bad), &rng))
	assert.Equal(t, "y", rng.Axis)
	assert.Equal(t, "max", rng.Bound)
}
