package audiofx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReverbImpulseProducesCrosstalkTailOnOppositeChannel(t *testing.T) {
	e := NewReverbEffect()
	e.SetValue(paramReverberance, "50.0", false)
	e.SetValue(paramHFDamping, "50.0", false)
	e.SetValue(paramRoomScale, "100.0", false)
	e.SetValue(paramStereoDepth, "100.0", false)
	e.SetValue(paramPreDelay, "0.0000", false)
	e.SetValue(paramWetGain, "0.00", false)
	e.Prepare(44100)

	const smallestCombLength = 1116
	buf := NewMultiChannelBuffer(2, smallestCombLength+200)
	buf[0][0] = 1.0
	e.ProcessBlock(0, buf)

	for i := 0; i < smallestCombLength; i++ {
		assert.InDeltaf(t, 0, buf[1][i], 1e-12, "channel 1 sample %d should still be silent", i)
	}

	firstNonZero := -1
	for i := smallestCombLength; i < len(buf[1]); i++ {
		if buf[1][i] != 0 {
			firstNonZero = i
			break
		}
	}
	assert.NotEqual(t, -1, firstNonZero, "expected a non-zero tail on channel 1")
	assert.InDelta(t, smallestCombLength, firstNonZero, 30)

	assert.NotEqual(t, 0.0, buf[0][smallestCombLength], "channel 0's own tail should also have started")
}

func TestReverbWetOnlyAtMinusInfinityDBIsSilent(t *testing.T) {
	e := NewReverbEffect()
	e.SetValue(paramWetGain, "-96.00", false)
	e.SetValue(paramWetOnly, "Yes", false)
	e.Prepare(44100)

	buf := NewMultiChannelBuffer(2, 64)
	buf[0][0] = 1.0
	buf[1][0] = 0.5
	e.ProcessBlock(0, buf)

	wetGain := dBToLinear(-96, 20)
	for i := range buf[0] {
		assert.InDelta(t, 0, buf[0][i], wetGain+1e-9)
		assert.InDelta(t, 0, buf[1][i], wetGain+1e-9)
	}
}

func TestReverbDryPassthroughWhenNotWetOnlyAndWetMuted(t *testing.T) {
	e := NewReverbEffect()
	e.SetValue(paramWetGain, "-96.00", false)
	e.SetValue(paramWetOnly, "No", false)
	e.Prepare(44100)

	buf := NewMultiChannelBuffer(2, 64)
	for i := range buf[0] {
		buf[0][i] = Sample(i) * 0.01
		buf[1][i] = -Sample(i) * 0.01
	}
	want0 := append([]Sample{}, buf[0]...)
	want1 := append([]Sample{}, buf[1]...)

	e.ProcessBlock(0, buf)

	wetGain := dBToLinear(-96, 20)
	for i := range want0 {
		assert.InDelta(t, want0[i], buf[0][i], wetGain+1e-6)
		assert.InDelta(t, want1[i], buf[1][i], wetGain+1e-6)
	}
}

func TestReverbRoomFeedbackMatchesReverberanceFormula(t *testing.T) {
	e := NewReverbEffect()
	e.SetValue(paramReverberance, "0.0", false)
	assert.InDelta(t, 0.7, e.room(), 1e-9)

	e.SetValue(paramReverberance, "100.0", false)
	assert.InDelta(t, 0.98, e.room(), 1e-9)
}

func TestReverbScaleFactorCombinesRoomScaleAndSampleRate(t *testing.T) {
	e := NewReverbEffect()
	e.Prepare(44100)
	assert.InDelta(t, 1.0, e.scaleFactor(), 1e-9)

	e.SetValue(paramRoomScale, "0.0", false)
	e.Prepare(44100)
	assert.InDelta(t, 0.1, e.scaleFactor(), 1e-9)
}

func TestReverbStaysFiniteAcrossParameterRange(t *testing.T) {
	e := NewReverbEffect()
	e.SetValue(paramReverberance, "100.0", false)
	e.SetValue(paramHFDamping, "100.0", false)
	e.SetValue(paramRoomScale, "100.0", false)
	e.Prepare(48000)

	buf := NewMultiChannelBuffer(2, 4096)
	for i := range buf[0] {
		buf[0][i] = math.Sin(float64(i) * 0.03)
		buf[1][i] = math.Cos(float64(i) * 0.03)
	}
	e.ProcessBlock(0, buf)

	for c := 0; c < 2; c++ {
		for _, v := range buf[c] {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		}
	}
}
