// modulation_effect.go - combined flanger/phaser/tremolo: one modulated
// delay/gain engine sharing a single LFO snapshot across channels

package audiofx

import (
	"math"
	"strconv"
)

// ModulationKind selects which of the three related modulation effects
// a ModulationEffect computes.
type ModulationKind string

const (
	ModulationFlanger ModulationKind = "Flanger"
	ModulationPhaser  ModulationKind = "Phaser"
	ModulationTremolo ModulationKind = "Tremolo"
)

const (
	paramModKind      = "Kind"
	paramModDelay     = "Delay [s]"
	paramModDecay     = "Decay"
	paramModDepth     = "Depth [%]"
	paramModFrequency = "Frequency [Hz]"
	paramModInGain    = "In Gain"
	paramModOutGain   = "Out Gain"
	paramModWaveform  = "Waveform"
)

// ModulationEffect implements the flanger, phaser and tremolo responses
// from one shared delay-line-plus-LFO core; tremolo is the degenerate
// case with a zero-length delay line and a pure-gain LFO.
type ModulationEffect struct {
	EffectBase

	kind      ModulationKind
	delay     float64
	decay     float64
	depth     float64 // percent, 0..100
	frequency float64
	inGain    float64
	outGain   float64
	waveform  WaveformKind

	lfo          WaveformLFO
	snapshot     int
	delayLine    *RingVector
	writeIndex   []int
}

// NewModulationEffect constructs a phaser defaulted to a 2ms delay, 70%
// decay, 0.5Hz sine modulation at 70% depth.
func NewModulationEffect() *ModulationEffect {
	e := &ModulationEffect{
		EffectBase: NewEffectBase("SoX Flanger/Phaser/Tremolo"),
		kind:       ModulationPhaser,
		delay:      0.002,
		decay:      0.7,
		depth:      70,
		frequency:  0.5,
		inGain:     1,
		outGain:    1,
		waveform:   WaveformSine,
	}
	e.initializeParameters()
	e.delayLine = NewRingVector(e.ChannelCount(), 1)
	e.writeIndex = make([]int, e.ChannelCount())
	return e
}

func (e *ModulationEffect) initializeParameters() {
	e.params.Clear()
	e.params.SetKindEnum(paramModKind, []string{
		string(ModulationFlanger), string(ModulationPhaser), string(ModulationTremolo),
	})
	e.params.SetValue(paramModKind, string(e.kind))

	e.params.SetKindReal(paramModFrequency, 0.01, 20, 0.01)
	e.params.SetValue(paramModFrequency, formatReal(e.frequency, 0.01))
	e.params.SetKindReal(paramModDepth, 0, 100, 0.1)
	e.params.SetValue(paramModDepth, formatReal(e.depth, 0.1))

	if e.kind != ModulationTremolo {
		e.params.SetKindReal(paramModDelay, 0, 0.1, 1e-4)
		e.params.SetValue(paramModDelay, formatReal(e.delay, 1e-4))
		e.params.SetKindReal(paramModDecay, 0, 1, 0.001)
		e.params.SetValue(paramModDecay, formatReal(e.decay, 0.001))
		e.params.SetKindReal(paramModInGain, 0, 1, 0.001)
		e.params.SetValue(paramModInGain, formatReal(e.inGain, 0.001))
		e.params.SetKindReal(paramModOutGain, 0, 1, 0.001)
		e.params.SetValue(paramModOutGain, formatReal(e.outGain, 0.001))
		e.params.SetKindEnum(paramModWaveform, waveformKindValues)
	}
}

// effectiveParameters returns the parameters actually driving the DSP,
// applying tremolo's forced values.
func (e *ModulationEffect) effectiveParameters() (delay, inGain, outGain float64, waveform WaveformKind) {
	if e.kind == ModulationTremolo {
		return 0, 1, 1, WaveformSine
	}
	return e.delay, e.inGain, e.outGain, e.waveform
}

// Prepare resizes the delay line and rebuilds the LFO table.
func (e *ModulationEffect) Prepare(sampleRate float64) {
	e.prepareBase(sampleRate)
	e.delayLine.Resize(e.ChannelCount(), 1)
	e.writeIndex = make([]int, e.ChannelCount())
	e.resizeDelayLine()
	e.relockWaveform(0)
}

// Release frees the effect's DSP state.
func (e *ModulationEffect) Release() {
	e.releaseBase()
}

func (e *ModulationEffect) resizeDelayLine() {
	if e.sampleRate <= 0 {
		return
	}
	delay, _, _, _ := e.effectiveParameters()
	length := int(math.Ceil(delay * e.sampleRate))
	if length < 1 {
		length = 1
	}
	for c := 0; c < e.ChannelCount(); c++ {
		e.delayLine.At(c, 0).SetLength(length)
	}
}

// relockWaveform rebuilds the LFO table: tremolo ranges over
// [1-depth/100, 1] with a default phase of pi/2; flanger/phaser range
// over [0, floor(depth/100 * delayLength)], integer-quantised, with a
// default phase of 0.
func (e *ModulationEffect) relockWaveform(timePosition float64) {
	if e.sampleRate <= 0 {
		return
	}
	_, _, _, waveform := e.effectiveParameters()
	tableLength := lfoTableLength(e.sampleRate, e.frequency)
	phase := timeLockedPhase(0, e.frequency, 0, timePosition)

	if e.kind == ModulationTremolo {
		lo := 1 - e.depth/100
		phase = timeLockedPhase(math.Pi/2, e.frequency, 0, timePosition)
		e.lfo.Set(tableLength, WaveformSine, lo, 1, phase, false)
		return
	}

	delayLen := 0
	if e.delayLine != nil && e.ChannelCount() > 0 {
		delayLen = e.delayLine.At(0, 0).Length()
	}
	hi := math.Floor(e.depth / 100 * float64(delayLen))
	e.lfo.Set(tableLength, waveform, 0, hi, phase, true)
}

// TailLength is the configured delay: once input stops, the delay line
// keeps producing decayed echoes for one delay period.
func (e *ModulationEffect) TailLength() float64 {
	if e.kind == ModulationTremolo {
		return 0
	}
	return e.delay
}

// HasValidParameters is always true.
func (e *ModulationEffect) HasValidParameters() bool { return true }

// SetDefaultValues resets the effect to its constructor defaults.
func (e *ModulationEffect) SetDefaultValues() {
	e.kind = ModulationPhaser
	e.delay = 0.002
	e.decay = 0.7
	e.depth = 70
	e.frequency = 0.5
	e.inGain = 1
	e.outGain = 1
	e.waveform = WaveformSine
	e.initializeParameters()
	e.resizeDelayLine()
	e.relockWaveform(e.lastTimePosition)
}

// SetValue validates and applies name=value, resizing the delay line or
// relocking the LFO whenever a parameter that feeds them changes.
func (e *ModulationEffect) SetValue(name, value string, forceRecalc bool) ChangeKind {
	if !e.params.SetValue(name, value) {
		e.logWarnf("rejected %s = %s", name, value)
		return NoChange
	}

	switch name {
	case paramModKind:
		e.kind = ModulationKind(value)
		e.initializeParameters()
		e.resizeDelayLine()
		e.relockWaveform(e.lastTimePosition)
		return GlobalChange
	case paramModDelay:
		e.delay, _ = strconv.ParseFloat(value, 64)
		e.resizeDelayLine()
		e.relockWaveform(e.lastTimePosition)
	case paramModDecay:
		e.decay, _ = strconv.ParseFloat(value, 64)
	case paramModDepth:
		e.depth, _ = strconv.ParseFloat(value, 64)
		e.relockWaveform(e.lastTimePosition)
	case paramModFrequency:
		e.frequency, _ = strconv.ParseFloat(value, 64)
		e.relockWaveform(e.lastTimePosition)
	case paramModInGain:
		e.inGain, _ = strconv.ParseFloat(value, 64)
	case paramModOutGain:
		e.outGain, _ = strconv.ParseFloat(value, 64)
	case paramModWaveform:
		if value == "Triangle" {
			e.waveform = WaveformTriangle
		} else {
			e.waveform = WaveformSine
		}
		e.relockWaveform(e.lastTimePosition)
	default:
		return NoChange
	}
	return ParameterChange
}

// ProcessBlock runs the per-sample tremolo or phaser/flanger algorithm
// over buf in place, sharing one LFO trajectory across
// channels by snapshotting its state at the start of the block.
func (e *ModulationEffect) ProcessBlock(timePosition float64, buf MultiChannelBuffer) {
	if e.adoptChannelCount(buf) {
		e.delayLine.Resize(e.ChannelCount(), 1)
		e.writeIndex = make([]int, e.ChannelCount())
		e.resizeDelayLine()
	}

	blockSeconds := 0.0
	if e.sampleRate > 0 {
		blockSeconds = float64(buf.SampleCount()) / e.sampleRate
	}
	if e.timePositionMoved(timePosition, blockSeconds) {
		e.relockWaveform(timePosition)
	}

	_, inGain, outGain, _ := e.effectiveParameters()
	channelCount := buf.ChannelCount()
	sampleCount := buf.SampleCount()

	for i := 0; i < sampleCount; i++ {
		e.snapshot = e.lfo.State()

		for c := 0; c < channelCount; c++ {
			e.lfo.SetState(e.snapshot)
			x := buf[c][i]

			var out Sample
			if e.kind == ModulationTremolo {
				out = x * e.lfo.Current()
			} else {
				d := e.delayLine.At(c, 0)
				length := d.Length()
				idx := e.writeIndex[c]
				offset := idx
				if length > 0 {
					offset = (idx + int(math.Floor(e.lfo.Current()))) % length
					if offset < 0 {
						offset += length
					}
				}
				delayed := d.At(offset)
				out = x*inGain + delayed*e.decay
				if length > 0 {
					idx = (idx + 1) % length
				}
				d.SetAt(idx, out)
				e.writeIndex[c] = idx
				out *= outGain
			}

			buf[c][i] = out
		}

		e.lfo.SetState(e.snapshot)
		e.lfo.Advance()
	}
}
