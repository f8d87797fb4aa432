package audiofx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestWaveformLFOSineStaysWithinRange(t *testing.T) {
	var l WaveformLFO
	l.Set(100, WaveformSine, -2, 5, 0, false)

	for i := 0; i < 100; i++ {
		v := l.Current()
		assert.GreaterOrEqual(t, v, -2.0)
		assert.LessOrEqual(t, v, 5.0)
		l.Advance()
	}
}

func TestWaveformLFOTriangleHitsBothExtremes(t *testing.T) {
	var l WaveformLFO
	l.Set(1000, WaveformTriangle, 0, 1, 0, false)

	minV, maxV := math.Inf(1), math.Inf(-1)
	for i := 0; i < 1000; i++ {
		v := l.Current()
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
		l.Advance()
	}

	assert.InDelta(t, 0, minV, 0.01)
	assert.InDelta(t, 1, maxV, 0.01)
}

func TestWaveformLFOIntegerValuesRoundsTable(t *testing.T) {
	var l WaveformLFO
	l.Set(50, WaveformSine, 0, 10, 0, true)

	for i := 0; i < 50; i++ {
		v := l.Current()
		assert.Equal(t, math.Round(v), v)
		l.Advance()
	}
}

func TestWaveformLFOAdvanceWrapsAtTableLength(t *testing.T) {
	var l WaveformLFO
	l.Set(4, WaveformSine, 0, 1, 0, false)

	for i := 0; i < 4; i++ {
		l.Advance()
	}
	assert.Equal(t, 0, l.State())
}

func TestWaveformLFOSetStateRestoresSnapshot(t *testing.T) {
	var l WaveformLFO
	l.Set(10, WaveformTriangle, 0, 1, 0, false)

	l.Advance()
	l.Advance()
	snapshot := l.State()
	v := l.Current()

	l.Advance()
	l.Advance()
	l.SetState(snapshot)

	assert.Equal(t, v, l.Current())
}

func TestTimeLockedPhaseIsAlwaysReducedModTwoPi(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		defaultPhase := rapid.Float64Range(-10, 10).Draw(t, "defaultPhase")
		freq := rapid.Float64Range(0.01, 20).Draw(t, "freq")
		t0 := rapid.Float64Range(-100, 100).Draw(t, "t0")
		now := rapid.Float64Range(-100, 100).Draw(t, "now")

		phase := timeLockedPhase(defaultPhase, freq, t0, now)

		assert.GreaterOrEqual(t, phase, 0.0)
		assert.Less(t, phase, 2*math.Pi)
	})
}

func TestLFOTableLengthIsSampleRateOverFrequencyCeiling(t *testing.T) {
	assert.Equal(t, 48, lfoTableLength(48000, 1000))
	assert.Equal(t, 1, lfoTableLength(48000, 0))
	assert.Equal(t, 1, lfoTableLength(0, 5))
}
