// lfo.go - precomputed, phase-locked waveform LFO

package audiofx

import "math"

// WaveformKind selects the shape of a WaveformLFO's table.
type WaveformKind int

const (
	WaveformSine WaveformKind = iota
	WaveformTriangle
)

// WaveformLFO is a finite precomputed table of real values with a
// monotonically advancing state (index mod table length).
type WaveformLFO struct {
	table []Sample
	state int
}

// Set rebuilds the table for length samples of the given kind, scaled into
// [lo, hi], starting at phase radians. When integerValues is true every
// table entry is rounded to the nearest integer.
func (l *WaveformLFO) Set(length int, kind WaveformKind, lo, hi, phase float64, integerValues bool) {
	if length < 1 {
		length = 1
	}
	l.table = make([]Sample, length)
	for k := 0; k < length; k++ {
		theta := math.Mod(phase+2*math.Pi*float64(k)/float64(length), 2*math.Pi)
		if theta < 0 {
			theta += 2 * math.Pi
		}

		var raw float64
		switch kind {
		case WaveformTriangle:
			raw = triangleWave(theta)
		default:
			raw = math.Sin(theta)
		}

		v := lo + (raw+1)/2*(hi-lo)
		if integerValues {
			v = math.Round(v)
		}
		l.table[k] = v
	}
	if l.state >= length {
		l.state = 0
	}
}

// triangleWave returns a triangle wave over [-1,1] with period 2*pi: rising
// -1 to +1 over [0, pi), falling +1 to -1 over [pi, 2*pi).
func triangleWave(theta float64) float64 {
	if theta < math.Pi {
		return -1 + 2*(theta/math.Pi)
	}
	return 1 - 2*((theta-math.Pi)/math.Pi)
}

// Current returns the table value at the current state.
func (l *WaveformLFO) Current() Sample {
	if len(l.table) == 0 {
		return 0
	}
	return l.table[l.state]
}

// Advance moves the state forward by one step, wrapping at the table length.
func (l *WaveformLFO) Advance() {
	if len(l.table) == 0 {
		return
	}
	l.state = (l.state + 1) % len(l.table)
}

// State returns the current table index, letting parallel channels snapshot
// the same waveform around a per-channel loop.
func (l *WaveformLFO) State() int {
	return l.state
}

// SetState restores a previously captured table index.
func (l *WaveformLFO) SetState(s int) {
	if len(l.table) == 0 {
		l.state = 0
		return
	}
	n := len(l.table)
	l.state = ((s % n) + n) % n
}

// TableLength returns the number of samples in the LFO's waveform table.
func (l *WaveformLFO) TableLength() int {
	return len(l.table)
}

// phaseByTime returns 2*pi*frequency*(currentTime-timeOffset) in radians,
// not reduced mod 2*pi; callers add a default phase and reduce on construction.
func phaseByTime(frequency, timeOffset, currentTime float64) float64 {
	return 2 * math.Pi * frequency * (currentTime - timeOffset)
}

// timeLockedPhase is the "time-locked" construction: given
// host time t, an LFO's frequency f and a default phase, the initial phase
// is defaultPhase + 2*pi*f*(t-t0), reduced mod 2*pi.
func timeLockedPhase(defaultPhase, frequency, timeOffset, currentTime float64) float64 {
	phase := defaultPhase + phaseByTime(frequency, timeOffset, currentTime)
	phase = math.Mod(phase, 2*math.Pi)
	if phase < 0 {
		phase += 2 * math.Pi
	}
	return phase
}

// lfoTableLength is the integer ceiling of sampleRate/frequency used
// throughout the effects for waveform table sizing.
func lfoTableLength(sampleRate, frequency float64) int {
	if frequency <= 0 || sampleRate <= 0 {
		return 1
	}
	return int(math.Ceil(sampleRate / frequency))
}
