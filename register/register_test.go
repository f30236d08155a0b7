package register

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkingIsPassThrough(t *testing.T) {
	values := []float64{0, -0, 1.5, -1.5, math.NaN(), math.Inf(1), math.Inf(-1), math.SmallestNonzeroFloat64}
	for _, v := range values {
		r := New(v)
		got, err := r.Read(nil)
		require.NoError(t, err)
		if math.IsNaN(v) {
			assert.True(t, math.IsNaN(got))
			continue
		}
		assert.Equal(t, math.Float64bits(v), math.Float64bits(got))
	}
}

func TestStuckAt0ClearsOnlyTargetBit(t *testing.T) {
	r := New(20.0)
	r.ApplyDamage(StuckAt0(63)) // sign bit
	got, err := r.Read(nil)
	require.NoError(t, err)

	raw := math.Float64bits(20.0)
	want := math.Float64frombits(raw &^ (uint64(1) << 63))
	assert.Equal(t, want, got)

	// every other bit is untouched
	gotBits := math.Float64bits(got)
	for b := 0; b < 63; b++ {
		rawBit := (raw >> uint(b)) & 1
		gotBit := (gotBits >> uint(b)) & 1
		assert.Equal(t, rawBit, gotBit, "bit %d should be unaffected", b)
	}
}

func TestStuckAt1SetsOnlyTargetBit(t *testing.T) {
	r := New(-55.0) // negative number, sign bit already 1
	r.ApplyDamage(StuckAt1(0))
	got, err := r.Read(nil)
	require.NoError(t, err)

	raw := math.Float64bits(-55.0)
	want := math.Float64frombits(raw | 1)
	assert.Equal(t, want, got)
}

func TestStuckAt0SignBitFlipsNegativeThreshold(t *testing.T) {
	// StuckAt1 on bit 63 of -55.0 would be a no-op: the sign bit is already
	// 1. Only StuckAt0 can clear an already-set sign bit and turn a negative
	// value positive.
	r := New(-55.0)
	r.ApplyDamage(StuckAt0(63))
	got, err := r.Read(nil)
	require.NoError(t, err)
	assert.Equal(t, 55.0, got)
}

func TestTransientBitFlipOnlyAtItsStep(t *testing.T) {
	r := New(4.0)
	r.ApplyDamage(TransientBitFlip(0, 3))

	raw := math.Float64bits(4.0)
	flipped := math.Float64frombits(raw ^ 1)

	for step := uint64(0); step < 6; step++ {
		got, err := r.Read(&step)
		require.NoError(t, err)
		if step == 3 {
			assert.Equal(t, flipped, got)
		} else {
			assert.Equal(t, 4.0, got)
		}
	}
}

func TestTransientBitFlipRequiresStep(t *testing.T) {
	r := New(4.0)
	r.ApplyDamage(TransientBitFlip(0, 3))
	_, err := r.Read(nil)
	assert.ErrorIs(t, err, ErrMissingTimeStep)
}

func TestWriteIsUnaffectedByFault(t *testing.T) {
	r := New(1.0)
	r.ApplyDamage(StuckAt1(0))
	r.Write(2.0)
	// Write stores raw, regardless of the attached fault; StuckAt1 still
	// applies on the next read.
	got, err := r.Read(nil)
	require.NoError(t, err)
	assert.Equal(t, math.Float64frombits(math.Float64bits(2.0)|1), got)
}

func TestRoutedArithmetic(t *testing.T) {
	a := New(3.0)
	b := New(4.0)
	dst := New(0.0)

	require.NoError(t, Add(a, b, dst, 0))
	got, err := dst.Read(stepPtr(0))
	require.NoError(t, err)
	assert.Equal(t, 7.0, got)

	require.NoError(t, Sub(a, b, dst, 0))
	got, err = dst.Read(stepPtr(0))
	require.NoError(t, err)
	assert.Equal(t, -1.0, got)

	require.NoError(t, Mul(a, b, dst, 0))
	got, err = dst.Read(stepPtr(0))
	require.NoError(t, err)
	assert.Equal(t, 12.0, got)

	require.NoError(t, Div(b, a, dst, 0))
	got, err = dst.Read(stepPtr(0))
	require.NoError(t, err)
	assert.InDelta(t, 4.0/3.0, got, 1e-12)

	require.NoError(t, Cmp(a, b, dst, 0))
	got, err = dst.Read(stepPtr(0))
	require.NoError(t, err)
	assert.Equal(t, -1.0, got)
}

func TestDamagedResultRegisterCorruptsArithmetic(t *testing.T) {
	a := New(1.0)
	b := New(1.0)
	dst := New(0.0)
	// bit 62 is already 1 in 2.0's exponent field, so StuckAt1 would be a
	// no-op here; StuckAt0 actually clears it and corrupts the result.
	dst.ApplyDamage(StuckAt0(62))

	require.NoError(t, Add(a, b, dst, 0))
	got, err := dst.Read(stepPtr(0))
	require.NoError(t, err)
	assert.NotEqual(t, 2.0, got, "a damaged result register must not expose the undamaged sum")
}

func TestCopyRoutesThroughDestinationFault(t *testing.T) {
	src := New(-70.0)
	dst := New(0.0)
	dst.ApplyDamage(StuckAt0(63))

	require.NoError(t, Copy(src, dst, 0))
	got, err := dst.Read(stepPtr(0))
	require.NoError(t, err)
	assert.Equal(t, 70.0, got, "sign bit forced to 0 turns -70 into +70")
}

func TestCloneIsIndependent(t *testing.T) {
	r := New(5.0)
	c := r.Clone()
	c.Write(10.0)
	c.ApplyDamage(StuckAt1(0))

	got, err := r.Read(nil)
	require.NoError(t, err)
	assert.Equal(t, 5.0, got, "cloning must not let mutations leak back to the original")
}
