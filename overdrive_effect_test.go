package audiofx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestOverdriveUnityGainNoColourFirstSampleMatchesClosedForm(t *testing.T) {
	e := NewOverdriveEffect()
	e.SetValue(paramOverdriveGain, "0.00", false)
	e.SetValue(paramOverdriveColour, "0.00", false)
	e.Prepare(48000)

	buf := NewMultiChannelBuffer(1, 50)
	buf[0][0] = 1.0
	e.ProcessBlock(0, buf)

	v0 := 1.0 - 1.0*1.0*1.0/3.0
	y0 := v0
	out0 := 0.5 + y0*0.75
	assert.InDelta(t, out0, buf[0][0], 1e-12)

	y1 := -v0 + 0.995*y0
	out1 := y1 * 0.75
	assert.InDelta(t, out1, buf[0][1], 1e-12)

	for n := 2; n < 50; n++ {
		want := 0.75 * y1 * math.Pow(0.995, float64(n-1))
		assert.InDeltaf(t, want, buf[0][n], 1e-12, "sample %d", n)
	}
}

func TestOverdriveSilentInputWithoutColourStaysSilent(t *testing.T) {
	e := NewOverdriveEffect()
	e.SetValue(paramOverdriveGain, "0.00", false)
	e.SetValue(paramOverdriveColour, "0.00", false)
	e.Prepare(48000)

	buf := NewMultiChannelBuffer(1, 5)
	copy(buf[0], []Sample{0, 0, 0, 0, 0})
	e.ProcessBlock(0, buf)

	for _, v := range buf[0] {
		assert.InDelta(t, 0, v, 1e-12)
	}
}

func TestClampBoundsValueToRange(t *testing.T) {
	assert.Equal(t, -1.0, clamp(-5, -1, 1))
	assert.Equal(t, 1.0, clamp(5, -1, 1))
	assert.Equal(t, 0.3, clamp(0.3, -1, 1))
}

func TestOverdriveStaysBoundedForValidParameterRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		dBGain := rapid.Float64Range(0, 60).Draw(t, "dBGain")
		colour := rapid.Float64Range(0, 100).Draw(t, "colour")

		e := NewOverdriveEffect()
		e.SetValue(paramOverdriveGain, formatReal(dBGain, 0.01), false)
		e.SetValue(paramOverdriveColour, formatReal(colour, 0.01), false)
		e.Prepare(48000)

		buf := NewMultiChannelBuffer(1, 128)
		for i := range buf[0] {
			buf[0][i] = math.Sin(float64(i) * 0.2)
		}
		e.ProcessBlock(0, buf)

		for _, v := range buf[0] {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		}
	})
}
