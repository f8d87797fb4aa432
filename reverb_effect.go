// reverb_effect.go - Freeverb-style stereo reverb: eight low-pass-feedback
// combs summed per rail, cascaded through four Schroeder allpasses

package audiofx

import (
	"math"
	"strconv"
)

// reverbReferenceSampleRate is the sample rate the tuning constants below
// were measured at; actual delay lengths scale by Fs/referenceSampleRate.
const reverbReferenceSampleRate = 44100.0

// combDelaysL and allpassDelaysL are the canonical Freeverb tuning
// constants (samples at the reference sample rate) for the left rail;
// the right rail adds a fixed stereo-spread offset to each.
var combDelaysL = [8]int{1116, 1188, 1277, 1356, 1422, 1491, 1557, 1617}
var allpassDelaysL = [4]int{225, 556, 441, 341}

const reverbStereoSpread = 23

const (
	paramReverberance = "Reverberance [%]"
	paramHFDamping    = "HF Damping [%]"
	paramRoomScale    = "Room Scale [%]"
	paramStereoDepth  = "Stereo Depth [%]"
	paramPreDelay     = "Pre Delay [s]"
	paramWetGain      = "Wet Gain [dB]"
	paramWetOnly      = "Wet Only?"
)

// combFilter is one low-pass-feedback comb: a delay line with a one-pole
// low-pass inside the feedback path.
type combFilter struct {
	line       RingBuffer
	feedback   float64
	damp       float64
	filterStore float64
}

func (c *combFilter) process(x Sample) Sample {
	bufout := c.line.At(0)
	c.filterStore = (1-c.damp)*bufout + c.damp*c.filterStore
	c.line.ShiftLeft(x + c.filterStore*c.feedback)
	return bufout
}

// allpassFilter is a Schroeder allpass with fixed internal gain 0.5.
type allpassFilter struct {
	line RingBuffer
	gain float64
}

func (a *allpassFilter) process(x Sample) Sample {
	bufout := a.line.At(0)
	out := -x + bufout
	a.line.ShiftLeft(x + bufout*a.gain)
	return out
}

// reverbRail is one channel's signal path: 8 parallel combs summed, then
// 4 allpasses in series.
type reverbRail struct {
	combs     [8]combFilter
	allpasses [4]allpassFilter
}

func (r *reverbRail) process(x Sample) Sample {
	var y Sample
	for i := range r.combs {
		y += r.combs[i].process(x)
	}
	for i := range r.allpasses {
		y = r.allpasses[i].process(y)
	}
	return y
}

// ReverbEffect is a Freeverb-style stereo reverb: input is split across
// a left and right rail, each with its own comb bank and allpass chain,
// preceded by a shared pre-delay line.
type ReverbEffect struct {
	EffectBase

	reverberance float64
	hfDamping    float64
	roomScale    float64
	stereoDepth  float64
	preDelay     float64
	wetGainDB    float64
	wetOnly      bool

	rails        [2]reverbRail
	preDelayLine RingBuffer
}

// NewReverbEffect constructs a reverb with 50% reverberance, 50% HF
// damping, 100% room scale, 100% stereo depth, no pre-delay, and unity
// wet gain mixed with the dry input.
func NewReverbEffect() *ReverbEffect {
	e := &ReverbEffect{
		EffectBase:   NewEffectBase("SoX Reverb"),
		reverberance: 50,
		hfDamping:    50,
		roomScale:    100,
		stereoDepth:  100,
		wetGainDB:    0,
	}
	e.initializeParameters()
	return e
}

func (e *ReverbEffect) initializeParameters() {
	e.params.Clear()
	e.params.SetKindReal(paramReverberance, 0, 100, 0.1)
	e.params.SetValue(paramReverberance, formatReal(e.reverberance, 0.1))
	e.params.SetKindReal(paramHFDamping, 0, 100, 0.1)
	e.params.SetValue(paramHFDamping, formatReal(e.hfDamping, 0.1))
	e.params.SetKindReal(paramRoomScale, 0, 100, 0.1)
	e.params.SetValue(paramRoomScale, formatReal(e.roomScale, 0.1))
	e.params.SetKindReal(paramStereoDepth, 0, 100, 0.1)
	e.params.SetValue(paramStereoDepth, formatReal(e.stereoDepth, 0.1))
	e.params.SetKindReal(paramPreDelay, 0, 0.5, 1e-4)
	e.params.SetValue(paramPreDelay, formatReal(e.preDelay, 1e-4))
	e.params.SetKindReal(paramWetGain, -96, 24, 0.01)
	e.params.SetValue(paramWetGain, formatReal(e.wetGainDB, 0.01))
	e.params.SetKindEnum(paramWetOnly, yesNoValues)
	e.params.SetValue(paramWetOnly, "No")
}

// scaleFactor is the combined room-scale/sample-rate scaling applied to
// every tuning constant.
func (e *ReverbEffect) scaleFactor() float64 {
	if e.sampleRate <= 0 {
		return 0
	}
	return (e.roomScale/100*0.9 + 0.1) * (e.sampleRate / reverbReferenceSampleRate)
}

// room is the comb feedback coefficient derived from reverberance.
func (e *ReverbEffect) room() float64 {
	return 0.28*e.reverberance/100 + 0.7
}

// Prepare (re)allocates the comb/allpass delay lines and pre-delay
// buffer for the given sample rate and the two stereo rails.
func (e *ReverbEffect) Prepare(sampleRate float64) {
	e.prepareBase(sampleRate)
	e.resizeGraph()
}

// Release frees the effect's DSP state.
func (e *ReverbEffect) Release() {
	e.releaseBase()
}

func (e *ReverbEffect) resizeGraph() {
	scale := e.scaleFactor()
	if scale <= 0 {
		return
	}
	room := e.room()
	damp := e.hfDamping / 100
	spreadOffset := reverbStereoSpread * (e.stereoDepth / 100)

	for rail := 0; rail < 2; rail++ {
		r := &e.rails[rail]
		for i, base := range combDelaysL {
			length := float64(base)
			if rail == 1 {
				length += spreadOffset
			}
			n := int(math.Round(length * scale))
			if n < 1 {
				n = 1
			}
			r.combs[i].line.SetLength(n)
			r.combs[i].feedback = room
			r.combs[i].damp = damp
			r.combs[i].filterStore = 0
		}
		for i, base := range allpassDelaysL {
			length := float64(base)
			if rail == 1 {
				length += spreadOffset
			}
			n := int(math.Round(length * scale))
			if n < 1 {
				n = 1
			}
			r.allpasses[i].line.SetLength(n)
			r.allpasses[i].gain = 0.5
		}
	}

	preDelayLen := int(math.Round(e.preDelay * e.sampleRate))
	e.preDelayLine.SetLength(preDelayLen)
}

// TailLength approximates RT60 as the largest scaled comb length divided
// by (1-room).
func (e *ReverbEffect) TailLength() float64 {
	scale := e.scaleFactor()
	if scale <= 0 {
		return 0
	}
	largest := combDelaysL[len(combDelaysL)-1]
	room := e.room()
	if room >= 1 {
		room = 0.999
	}
	lengthSeconds := float64(largest) * scale / e.sampleRate
	return lengthSeconds / (1 - room)
}

// HasValidParameters is always true.
func (e *ReverbEffect) HasValidParameters() bool { return true }

// SetDefaultValues resets the effect to its constructor defaults.
func (e *ReverbEffect) SetDefaultValues() {
	e.reverberance = 50
	e.hfDamping = 50
	e.roomScale = 100
	e.stereoDepth = 100
	e.preDelay = 0
	e.wetGainDB = 0
	e.wetOnly = false
	e.initializeParameters()
	e.resizeGraph()
}

// SetValue validates and applies name=value, rebuilding the comb/allpass
// graph whenever a parameter that feeds its geometry or feedback changes.
func (e *ReverbEffect) SetValue(name, value string, forceRecalc bool) ChangeKind {
	if !e.params.SetValue(name, value) {
		e.logWarnf("rejected %s = %s", name, value)
		return NoChange
	}
	switch name {
	case paramReverberance:
		e.reverberance, _ = strconv.ParseFloat(value, 64)
	case paramHFDamping:
		e.hfDamping, _ = strconv.ParseFloat(value, 64)
	case paramRoomScale:
		e.roomScale, _ = strconv.ParseFloat(value, 64)
	case paramStereoDepth:
		e.stereoDepth, _ = strconv.ParseFloat(value, 64)
	case paramPreDelay:
		e.preDelay, _ = strconv.ParseFloat(value, 64)
	case paramWetGain:
		e.wetGainDB, _ = strconv.ParseFloat(value, 64)
		return ParameterChange
	case paramWetOnly:
		e.wetOnly = value == "Yes"
		return ParameterChange
	default:
		return NoChange
	}
	e.resizeGraph()
	return GlobalChange
}

// ProcessBlock runs buf through the shared pre-delay and then each
// rail's comb bank and allpass chain. Both rails are
// driven from the same mono-mixed input (classic Freeverb topology), so
// a mono source still produces a spread stereo tail; channels beyond
// the second are left untouched.
func (e *ReverbEffect) ProcessBlock(timePosition float64, buf MultiChannelBuffer) {
	wetGain := dBToLinear(e.wetGainDB, 20)
	channelCount := buf.ChannelCount()
	if channelCount == 0 {
		return
	}
	railCount := 2
	if channelCount < 2 {
		railCount = 1
	}

	for i := 0; i < buf.SampleCount(); i++ {
		var monoIn Sample
		for c := 0; c < railCount; c++ {
			monoIn += buf[c][i]
		}
		monoIn /= Sample(railCount)

		pd := &e.preDelayLine
		x := monoIn
		if pd.Length() > 0 {
			delayed := pd.At(0)
			pd.ShiftLeft(monoIn)
			x = delayed
		}

		for rail := 0; rail < railCount; rail++ {
			wet := e.rails[rail].process(x)
			if e.wetOnly {
				buf[rail][i] = wet * wetGain
			} else {
				buf[rail][i] = buf[rail][i] + wet*wetGain
			}
		}
	}
}
