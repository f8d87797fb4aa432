// overdrive_effect.go - tanh-family waveshaper distortion with a
// one-pole colour offset and per-channel feedback registers

package audiofx

import (
	"strconv"
)

const (
	paramOverdriveGain   = "Gain [dB]"
	paramOverdriveColour = "Colour [%]"
)

// overdriveChannelState holds the one-sample history a channel needs
// between calls to OverdriveEffect.processSample.
type overdriveChannelState struct {
	prevIn  Sample
	prevOut Sample
}

// OverdriveEffect is a soft-clipping waveshaper distortion in the style
// of SoX's overdrive effect: a cubic waveshaper followed by a one-pole
// shaping filter that feeds back 99.5% of the previous output sample.
type OverdriveEffect struct {
	EffectBase

	dBGain  float64
	colour  float64 // percent
	gain    float64 // linear, derived from dBGain
	offset  float64 // derived from colour

	channels []overdriveChannelState
}

// NewOverdriveEffect constructs an overdrive with 20dB gain and 20%
// colour, matching the reference plugin's defaults.
func NewOverdriveEffect() *OverdriveEffect {
	e := &OverdriveEffect{
		EffectBase: NewEffectBase("SoX Overdrive"),
		dBGain:     20,
		colour:     20,
	}
	e.recalculateDerived()
	e.initializeParameters()
	e.channels = make([]overdriveChannelState, e.ChannelCount())
	return e
}

func (e *OverdriveEffect) initializeParameters() {
	e.params.Clear()
	e.params.SetKindReal(paramOverdriveGain, 0, 60, 0.01)
	e.params.SetValue(paramOverdriveGain, formatReal(e.dBGain, 0.01))
	e.params.SetKindReal(paramOverdriveColour, 0, 100, 0.01)
	e.params.SetValue(paramOverdriveColour, formatReal(e.colour, 0.01))
}

// recalculateDerived computes gain = 10^(dBGain/20) and offset =
// colour * 0.005.
func (e *OverdriveEffect) recalculateDerived() {
	e.gain = dBToLinear(e.dBGain, 20)
	e.offset = e.colour * 0.005
}

// Prepare allocates per-channel feedback registers.
func (e *OverdriveEffect) Prepare(sampleRate float64) {
	e.prepareBase(sampleRate)
	e.channels = make([]overdriveChannelState, e.ChannelCount())
}

// Release frees the effect's DSP state.
func (e *OverdriveEffect) Release() {
	e.releaseBase()
}

// TailLength is zero: overdrive has no reverberant or echo tail.
func (e *OverdriveEffect) TailLength() float64 { return 0 }

// HasValidParameters is always true.
func (e *OverdriveEffect) HasValidParameters() bool { return true }

// SetDefaultValues resets the effect to its constructor defaults.
func (e *OverdriveEffect) SetDefaultValues() {
	e.dBGain = 20
	e.colour = 20
	e.recalculateDerived()
	e.initializeParameters()
}

// SetValue validates and applies name=value.
func (e *OverdriveEffect) SetValue(name, value string, forceRecalc bool) ChangeKind {
	if !e.params.SetValue(name, value) {
		e.logWarnf("rejected %s = %s", name, value)
		return NoChange
	}
	switch name {
	case paramOverdriveGain:
		e.dBGain, _ = strconv.ParseFloat(value, 64)
	case paramOverdriveColour:
		e.colour, _ = strconv.ParseFloat(value, 64)
	default:
		return NoChange
	}
	e.recalculateDerived()
	return ParameterChange
}

// processSample runs the five-step overdrive waveshaper algorithm for
// one channel.
func (e *OverdriveEffect) processSample(st *overdriveChannelState, x Sample) Sample {
	v := x*e.gain + e.offset
	v = clamp(v, -1, 1)
	v = v - v*v*v/3
	y := v - st.prevIn + 0.995*st.prevOut
	out := x/2 + y*0.75
	st.prevIn = v
	st.prevOut = y
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ProcessBlock filters buf in place.
func (e *OverdriveEffect) ProcessBlock(timePosition float64, buf MultiChannelBuffer) {
	if e.adoptChannelCount(buf) {
		e.channels = make([]overdriveChannelState, e.ChannelCount())
	}
	for c := 0; c < buf.ChannelCount(); c++ {
		channel := buf[c]
		st := &e.channels[c]
		for i, x := range channel {
			channel[i] = e.processSample(st, x)
		}
	}
}
