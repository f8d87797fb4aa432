// chorusecho_effect.go - combined chorus/parallel-echo/serial-echo delay
// engine with up to ten stages, each owning an independent LFO

package audiofx

import (
	"math"
	"strconv"
)

// ChorusEchoTopology selects how a ChorusEchoEffect's stages combine.
type ChorusEchoTopology string

const (
	// TopologyChorus modulates each stage's delay with its own LFO and
	// feeds the same input to every stage (parallel taps).
	TopologyChorus ChorusEchoTopology = "Chorus"
	// TopologyTappedDelay feeds the same input to every stage, each at
	// a fixed (unmodulated) delay (parallel taps).
	TopologyTappedDelay ChorusEchoTopology = "TappedDelay"
	// TopologyDelaySequence chains stages, each fed the previous
	// stage's output plus the input (serial taps).
	TopologyDelaySequence ChorusEchoTopology = "DelaySequence"
)

// MaxChorusEchoStages is the largest number of delay stages a
// ChorusEchoEffect supports.
const MaxChorusEchoStages = 10

const (
	paramTopology  = "Kind"
	paramStageCount = "Stage Count"
	paramInGain    = "In Gain"
	paramOutGain   = "Out Gain"

	stageParamDelay     = "Delay [s]"
	stageParamDecay     = "Decay"
	stageParamFrequency = "Frequency [Hz]"
	stageParamDepth     = "Depth [s]"
	stageParamWaveform  = "Waveform"
)

var waveformKindValues = []string{"Sine", "Triangle"}

// chorusEchoStage is one delay stage's parameters and runtime state.
type chorusEchoStage struct {
	delay     float64
	decay     float64
	frequency float64
	depth     float64
	waveform  WaveformKind

	lfo WaveformLFO
}

// ChorusEchoEffect is the combined chorus/echo delay engine: a topology
// selector over up to MaxChorusEchoStages independent delay stages, each
// with its own decay and (for chorus) modulation LFO.
type ChorusEchoEffect struct {
	EffectBase

	topology   ChorusEchoTopology
	stageCount int
	inGain     float64
	outGain    float64
	stages     [MaxChorusEchoStages]chorusEchoStage

	delayLines *RingVector
}

// NewChorusEchoEffect constructs a single-stage tapped delay with unity
// gain and a silent (zero-delay, zero-decay) stage, matching an identity
// pass-through until parameters are set.
func NewChorusEchoEffect() *ChorusEchoEffect {
	e := &ChorusEchoEffect{
		EffectBase: NewEffectBase("SoX Chorus/Echo"),
		topology:   TopologyTappedDelay,
		stageCount: 1,
		inGain:     1,
		outGain:    1,
	}
	for i := range e.stages {
		e.stages[i].decay = 0
		e.stages[i].frequency = 1
		e.stages[i].waveform = WaveformSine
	}
	e.initializeParameters()
	e.delayLines = NewRingVector(e.ChannelCount(), MaxChorusEchoStages)
	return e
}

func (e *ChorusEchoEffect) initializeParameters() {
	e.params.Clear()
	e.params.SetKindEnum(paramTopology, []string{
		string(TopologyChorus), string(TopologyTappedDelay), string(TopologyDelaySequence),
	})
	e.params.SetValue(paramTopology, string(e.topology))

	e.params.SetKindInt(paramStageCount, 1, MaxChorusEchoStages, 1)
	e.params.SetValue(paramStageCount, strconv.Itoa(e.stageCount))

	e.params.SetKindReal(paramInGain, 0, 1, 0.001)
	e.params.SetValue(paramInGain, formatReal(e.inGain, 0.001))
	e.params.SetKindReal(paramOutGain, 0, 1, 0.001)
	e.params.SetValue(paramOutGain, formatReal(e.outGain, 0.001))

	for s := 0; s < MaxChorusEchoStages; s++ {
		st := &e.stages[s]
		e.params.SetKindReal(PagedParameterName(stageParamDelay, s), 0, 5, 1e-4)
		e.params.SetValue(PagedParameterName(stageParamDelay, s), formatReal(st.delay, 1e-4))
		e.params.SetKindReal(PagedParameterName(stageParamDecay, s), 0, 1, 0.001)
		e.params.SetValue(PagedParameterName(stageParamDecay, s), formatReal(st.decay, 0.001))

		if e.topology == TopologyChorus {
			e.params.SetKindReal(PagedParameterName(stageParamFrequency, s), 0.01, 20, 0.01)
			e.params.SetValue(PagedParameterName(stageParamFrequency, s), formatReal(st.frequency, 0.01))
			e.params.SetKindReal(PagedParameterName(stageParamDepth, s), 0, 0.1, 1e-4)
			e.params.SetValue(PagedParameterName(stageParamDepth, s), formatReal(st.depth, 1e-4))
			e.params.SetKindEnum(PagedParameterName(stageParamWaveform, s), waveformKindValues)
		}
	}

	e.params.ChangeActivenessByPage(e.stageCount - 1)
}

// Prepare resizes delay lines and rebuilds stage LFO tables for the new
// sample rate.
func (e *ChorusEchoEffect) Prepare(sampleRate float64) {
	e.prepareBase(sampleRate)
	e.delayLines.Resize(e.ChannelCount(), MaxChorusEchoStages)
	e.resizeDelayLines()
	e.relockWaveforms(0)
}

// Release frees the effect's DSP state.
func (e *ChorusEchoEffect) Release() {
	e.releaseBase()
}

// resizeDelayLines reallocates every stage's delay line to
// ceil((delay + (chorus ? depth : 0)) * Fs) samples, per spec.
func (e *ChorusEchoEffect) resizeDelayLines() {
	if e.sampleRate <= 0 {
		return
	}
	for s := 0; s < MaxChorusEchoStages; s++ {
		st := &e.stages[s]
		extent := st.delay
		if e.topology == TopologyChorus {
			extent += st.depth
		}
		length := int(math.Ceil(extent * e.sampleRate))
		for c := 0; c < e.ChannelCount(); c++ {
			e.delayLines.At(c, s).SetLength(length)
		}
	}
}

// relockWaveforms rebuilds every chorus stage's LFO table sized
// [0, floor(depth*Fs)], waveform length Fs/frequency, time-locked to
// timePosition.
func (e *ChorusEchoEffect) relockWaveforms(timePosition float64) {
	if e.sampleRate <= 0 {
		return
	}
	for s := 0; s < MaxChorusEchoStages; s++ {
		st := &e.stages[s]
		if e.topology != TopologyChorus {
			continue
		}
		tableLength := lfoTableLength(e.sampleRate, st.frequency)
		hi := math.Floor(st.depth * e.sampleRate)
		phase := timeLockedPhase(0, st.frequency, 0, timePosition)
		st.lfo.Set(tableLength, st.waveform, 0, hi, phase, true)
	}
}

// TailLength is max(delay+depth) across stages for chorus/tappedDelay
// topologies, or their sum for delaySequence.
func (e *ChorusEchoEffect) TailLength() float64 {
	if e.topology == TopologyDelaySequence {
		var sum float64
		for s := 0; s < e.stageCount; s++ {
			st := e.stages[s]
			sum += st.delay
		}
		return sum
	}
	var max float64
	for s := 0; s < e.stageCount; s++ {
		st := e.stages[s]
		extent := st.delay
		if e.topology == TopologyChorus {
			extent += st.depth
		}
		if extent > max {
			max = extent
		}
	}
	return max
}

// HasValidParameters is always true: every stage has a valid default.
func (e *ChorusEchoEffect) HasValidParameters() bool { return true }

// SetDefaultValues resets the effect to its constructor defaults.
func (e *ChorusEchoEffect) SetDefaultValues() {
	e.topology = TopologyTappedDelay
	e.stageCount = 1
	e.inGain = 1
	e.outGain = 1
	for i := range e.stages {
		e.stages[i] = chorusEchoStage{frequency: 1, waveform: WaveformSine}
	}
	e.initializeParameters()
	e.resizeDelayLines()
	e.relockWaveforms(0)
}

// SetValue validates and applies name=value, resizing delay lines or
// relocking LFOs whenever a parameter that feeds them changes.
func (e *ChorusEchoEffect) SetValue(name, value string, forceRecalc bool) ChangeKind {
	if !e.params.SetValue(name, value) {
		e.logWarnf("rejected %s = %s", name, value)
		return NoChange
	}

	switch name {
	case paramTopology:
		e.topology = ChorusEchoTopology(value)
		e.initializeParameters()
		e.resizeDelayLines()
		e.relockWaveforms(e.lastTimePosition)
		return GlobalChange
	case paramStageCount:
		n, _ := strconv.Atoi(value)
		e.stageCount = n
		e.params.ChangeActivenessByPage(e.stageCount - 1)
		return PageCountChange
	case paramInGain:
		e.inGain, _ = strconv.ParseFloat(value, 64)
		return ParameterChange
	case paramOutGain:
		e.outGain, _ = strconv.ParseFloat(value, 64)
		return ParameterChange
	}

	base, page, _ := SplitParameterName(name)
	if page < 0 || page >= MaxChorusEchoStages {
		return NoChange
	}
	st := &e.stages[page]
	switch base {
	case stageParamDelay:
		st.delay, _ = strconv.ParseFloat(value, 64)
		e.resizeDelayLines()
	case stageParamDecay:
		st.decay, _ = strconv.ParseFloat(value, 64)
		return ParameterChange
	case stageParamFrequency:
		st.frequency, _ = strconv.ParseFloat(value, 64)
		e.relockWaveforms(e.lastTimePosition)
	case stageParamDepth:
		st.depth, _ = strconv.ParseFloat(value, 64)
		e.resizeDelayLines()
		e.relockWaveforms(e.lastTimePosition)
	case stageParamWaveform:
		if value == "Triangle" {
			st.waveform = WaveformTriangle
		} else {
			st.waveform = WaveformSine
		}
		e.relockWaveforms(e.lastTimePosition)
	default:
		return NoChange
	}
	return ParameterChange
}

// ProcessBlock runs the per-sample chorus/echo algorithm over buf in
// place.
func (e *ChorusEchoEffect) ProcessBlock(timePosition float64, buf MultiChannelBuffer) {
	if e.adoptChannelCount(buf) {
		e.delayLines.Resize(e.ChannelCount(), MaxChorusEchoStages)
		e.resizeDelayLines()
	}

	blockSeconds := 0.0
	if e.sampleRate > 0 {
		blockSeconds = float64(buf.SampleCount()) / e.sampleRate
	}
	if e.timePositionMoved(timePosition, blockSeconds) {
		e.relockWaveforms(timePosition)
	}

	channelCount := buf.ChannelCount()
	sampleCount := buf.SampleCount()

	for i := 0; i < sampleCount; i++ {
		for c := 0; c < channelCount; c++ {
			x := buf[c][i]
			out := x * e.inGain
			prev := 0.0

			for s := 0; s < e.stageCount; s++ {
				st := &e.stages[s]
				d := e.delayLines.At(c, s)

				off := 0
				if e.topology == TopologyChorus {
					off = int(math.Floor(st.lfo.Current()))
					if c == channelCount-1 {
						st.lfo.Advance()
					}
				}

				var stageSample Sample
				if d.Length() == 0 {
					stageSample = x
				} else {
					stageSample = d.At(off)
				}

				var stageInput Sample
				if e.topology == TopologyDelaySequence {
					stageInput = prev + x
				} else {
					stageInput = x
				}
				d.ShiftLeft(stageInput)

				out += stageSample * st.decay
				prev = stageSample
			}

			buf[c][i] = out * e.outGain
		}
	}
}
