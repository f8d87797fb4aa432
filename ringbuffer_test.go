package audiofx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestRingBufferShiftLeftAdvancesWindow(t *testing.T) {
	var r RingBuffer
	r.SetLength(3)

	r.ShiftLeft(1)
	r.ShiftLeft(2)
	r.ShiftLeft(3)

	assert.Equal(t, Sample(1), r.At(0))
	assert.Equal(t, Sample(2), r.At(1))
	assert.Equal(t, Sample(3), r.At(2))

	r.ShiftLeft(4)
	assert.Equal(t, Sample(2), r.At(0))
	assert.Equal(t, Sample(3), r.At(1))
	assert.Equal(t, Sample(4), r.At(2))
}

func TestRingBufferShiftRightRetractsWindow(t *testing.T) {
	var r RingBuffer
	r.SetLength(3)

	r.ShiftRight(1)
	assert.Equal(t, Sample(1), r.At(0))

	r.ShiftRight(2)
	assert.Equal(t, Sample(2), r.At(0))
	assert.Equal(t, Sample(1), r.At(1))
}

func TestRingBufferSetAtIsSymmetricWithAt(t *testing.T) {
	var r RingBuffer
	r.SetLength(5)
	r.ShiftLeft(1)
	r.ShiftLeft(2)

	r.SetAt(1, 42)
	assert.Equal(t, Sample(42), r.At(1))
}

func TestRingBufferSetToZeroClearsContent(t *testing.T) {
	var r RingBuffer
	r.SetLength(4)
	r.ShiftLeft(1)
	r.ShiftLeft(2)

	r.SetToZero()
	for i := 0; i < 4; i++ {
		assert.Equal(t, Sample(0), r.At(i))
	}
}

func TestRingVectorIndexesByChannelAndTap(t *testing.T) {
	v := NewRingVector(2, 3)
	v.SetLength(4)

	v.At(0, 0).ShiftLeft(1)
	v.At(1, 2).ShiftLeft(9)

	assert.Equal(t, Sample(1), v.At(0, 0).At(3))
	assert.Equal(t, Sample(9), v.At(1, 2).At(3))
	assert.Equal(t, Sample(0), v.At(0, 1).At(0))
}

func TestRingVectorOutOfRangeAccessPanics(t *testing.T) {
	v := NewRingVector(1, 1)
	assert.Panics(t, func() { v.At(0, 1) })
	assert.Panics(t, func() { v.At(-1, 0) })
}

// A ring buffer used purely as a delay line (read then ShiftLeft the
// same amount of new input) never loses or duplicates samples: reading
// at offset 0 just before each shift always reproduces what was shifted
// in length steps ago.
func TestRingBufferDelayLineRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		length := rapid.IntRange(1, 16).Draw(t, "length")
		samples := rapid.SliceOfN(rapid.Float64Range(-1, 1), length, length*3).Draw(t, "samples")

		var r RingBuffer
		r.SetLength(length)

		for i, s := range samples {
			delayed := r.At(0)
			r.ShiftLeft(s)
			if i >= length {
				expected := samples[i-length]
				assert.InDeltaf(t, expected, delayed, 1e-12, "sample %d", i)
			}
		}
	})
}
