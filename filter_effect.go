// filter_effect.go - universal biquad IIR filter: ten related filter kinds
// sharing one direct-form-I core, coefficients derived per the RBJ Audio
// EQ Cookbook

package audiofx

import (
	"math"
	"strconv"
)

// FilterKind selects which of the ten related IIR filter responses a
// FilterEffect computes.
type FilterKind string

const (
	FilterAllpass    FilterKind = "Allpass"
	FilterBand       FilterKind = "Band"
	FilterBandPass   FilterKind = "BandPass"
	FilterBandReject FilterKind = "BandReject"
	FilterBass       FilterKind = "Bass"
	FilterBiquad     FilterKind = "Biquad"
	FilterEqualizer  FilterKind = "Equalizer"
	FilterHighPass   FilterKind = "HighPass"
	FilterLowPass    FilterKind = "LowPass"
	FilterTreble     FilterKind = "Treble"
)

// BandwidthUnit is the unit a FilterEffect's bandwidth parameter is
// measured in.
type BandwidthUnit string

const (
	BandwidthQuality     BandwidthUnit = "Quality"
	BandwidthOctaves     BandwidthUnit = "Octave(s)"
	BandwidthButterworth BandwidthUnit = "Butterworth"
	BandwidthFrequency   BandwidthUnit = "Frequency"
	BandwidthSlope       BandwidthUnit = "Slope"
)

// filterBiquadOrder is the direct-form-I order used for every filter
// kind; single-pole high/lowpass responses simply leave b2 and a2 zero.
const filterBiquadOrder = 3

// Parameter names, matching the host-facing widget labels.
const (
	paramFilterKind      = "Filter Kind"
	paramFrequency       = "Frequency [Hz]"
	paramBandwidth       = "Bandwidth"
	paramBandwidthUnit   = "Bandwidth Unit"
	paramDBGain          = "Gain [dB]"
	paramEqGain          = "Eq. Gain [dB]"
	paramPoleCount       = "Number of Poles"
	paramUnpitchedMode   = "Unpitched Mode?"
	paramConstSkirtGain  = "Cst. Skirt Gain?"
)

var yesNoValues = []string{"Yes", "No"}

var filterKindValues = []string{
	string(FilterAllpass), string(FilterBand), string(FilterBandPass),
	string(FilterBandReject), string(FilterBass), string(FilterBiquad),
	string(FilterEqualizer), string(FilterHighPass), string(FilterLowPass),
	string(FilterTreble),
}

// filterKindUnits lists the bandwidth units each kind accepts; Bass and
// Treble additionally accept Slope.
func filterKindUnits(kind FilterKind) []string {
	base := []string{string(BandwidthFrequency), string(BandwidthOctaves),
		string(BandwidthQuality), string(BandwidthButterworth)}
	if kind == FilterBass || kind == FilterTreble {
		return append(base, string(BandwidthSlope))
	}
	return base
}

// FilterEffect is the universal biquad/filter effect implementing
// Allpass, Band, BandPass, BandReject, Bass, Biquad, Equalizer, HighPass,
// LowPass and Treble responses from one shared IIR core.
type FilterEffect struct {
	EffectBase

	kind                  FilterKind
	frequency             float64
	bandwidth             float64
	bandwidthUnit         BandwidthUnit
	dBGain                float64
	equGain               float64
	usesUnpitchedAudioMode bool
	usesConstantSkirtGain bool
	isSinglePole          bool

	// raw coefficients, only meaningful (and settable) for FilterBiquad
	rawB [3]float64
	rawA [3]float64

	filter *IIRFilter
}

// NewFilterEffect constructs a FilterEffect defaulted to a single-pole
// biquad at 1kHz with a slope bandwidth of 1.5, matching the reference
// plugin's defaults.
func NewFilterEffect() *FilterEffect {
	e := &FilterEffect{
		EffectBase:    NewEffectBase("SoX Filter"),
		kind:          FilterBiquad,
		frequency:     1000.0,
		bandwidth:     1.5,
		bandwidthUnit: BandwidthSlope,
		isSinglePole:  true,
	}
	e.initializeParameters()
	e.filter = NewIIRFilter(filterBiquadOrder, e.ChannelCount())
	return e
}

// initializeParameters rebuilds the parameter map for the effect's
// current kind, keeping only the widgets that kind actually uses.
func (e *FilterEffect) initializeParameters() {
	e.params.Clear()
	e.params.SetKindEnum(paramFilterKind, filterKindValues)
	e.params.SetValue(paramFilterKind, string(e.kind))

	switch e.kind {
	case FilterBiquad:
		for _, name := range []string{"b0", "b1", "b2", "a0", "a1", "a2"} {
			e.params.SetKindReal(name, -10, 10, 1e-6)
		}
		return
	case FilterBand:
		e.params.SetKindEnum(paramUnpitchedMode, yesNoValues)
	case FilterBandPass, FilterBandReject:
		e.params.SetKindEnum(paramConstSkirtGain, yesNoValues)
	case FilterBass, FilterTreble:
		e.params.SetKindReal(paramDBGain, -25, 25, 0.01)
	case FilterHighPass, FilterLowPass:
		e.params.SetKindReal(paramPoleCount, 1, 2, 1)
	case FilterEqualizer:
		e.params.SetKindReal(paramEqGain, -25, 25, 0.01)
	}

	e.params.SetKindReal(paramFrequency, 10, 20000, 0.01)
	e.params.SetValue(paramFrequency, strconv.FormatFloat(e.frequency, 'f', 2, 64))

	e.params.SetKindReal(paramBandwidth, 0.001, 20000, 0.001)
	e.params.SetKindEnum(paramBandwidthUnit, filterKindUnits(e.kind))
	e.params.SetValue(paramBandwidthUnit, string(BandwidthQuality))
	e.bandwidthUnit = BandwidthQuality
}

// Prepare resizes the IIR history queues for the given sample rate.
func (e *FilterEffect) Prepare(sampleRate float64) {
	e.prepareBase(sampleRate)
	e.filter.Resize(e.ChannelCount())
	e.recalculateCoefficients()
}

// Release frees the effect's DSP state.
func (e *FilterEffect) Release() {
	e.releaseBase()
}

// TailLength is zero: an IIR filter has no decay tail beyond its
// transient response.
func (e *FilterEffect) TailLength() float64 { return 0 }

// HasValidParameters reports whether the effect is ready to process
// audio; a FilterEffect is always fully specified once constructed.
func (e *FilterEffect) HasValidParameters() bool { return true }

// SetDefaultValues resets the effect to its constructor defaults.
func (e *FilterEffect) SetDefaultValues() {
	e.kind = FilterBiquad
	e.frequency = 1000.0
	e.bandwidth = 1.5
	e.bandwidthUnit = BandwidthSlope
	e.dBGain = 0
	e.equGain = 0
	e.usesUnpitchedAudioMode = false
	e.usesConstantSkirtGain = false
	e.isSinglePole = true
	e.initializeParameters()
	e.recalculateCoefficients()
}

// SetValue validates and applies name=value, recalculating filter
// coefficients whenever a parameter that feeds them changes.
func (e *FilterEffect) SetValue(name, value string, forceRecalc bool) ChangeKind {
	if !e.params.ValueIsDifferent(name, value) && !forceRecalc {
		if e.params.IsAllowedValue(name, value) {
			return NoChange
		}
	}
	if !e.params.SetValue(name, value) {
		e.logWarnf("rejected %s = %s", name, value)
		return NoChange
	}

	switch name {
	case paramFilterKind:
		e.kind = FilterKind(value)
		e.initializeParameters()
		e.recalculateCoefficients()
		return GlobalChange
	case paramFrequency:
		e.frequency, _ = strconv.ParseFloat(value, 64)
	case paramBandwidth:
		e.bandwidth, _ = strconv.ParseFloat(value, 64)
	case paramBandwidthUnit:
		e.bandwidthUnit = BandwidthUnit(value)
	case paramDBGain:
		e.dBGain, _ = strconv.ParseFloat(value, 64)
	case paramEqGain:
		e.equGain, _ = strconv.ParseFloat(value, 64)
	case paramPoleCount:
		poles, _ := strconv.ParseFloat(value, 64)
		e.isSinglePole = poles <= 1
	case paramUnpitchedMode:
		e.usesUnpitchedAudioMode = value == "Yes"
	case paramConstSkirtGain:
		e.usesConstantSkirtGain = value == "Yes"
	case "b0", "b1", "b2", "a0", "a1", "a2":
		v, _ := strconv.ParseFloat(value, 64)
		setRawCoefficient(&e.rawB, &e.rawA, name, v)
	default:
		return NoChange
	}

	e.recalculateCoefficients()
	return ParameterChange
}

func setRawCoefficient(b, a *[3]float64, name string, v float64) {
	idx := int(name[1] - '0')
	if name[0] == 'b' {
		b[idx] = v
	} else {
		a[idx] = v
	}
}

// dBToLinear converts a decibel value to a linear factor using quotient
// as the logarithm's divisor (20 for amplitude, 40 for power-style gains
// as SoX's filter coefficient formulas use).
func dBToLinear(dBValue, quotient float64) float64 {
	return math.Pow(10, dBValue/quotient)
}

// alphaForBandwidth computes the RBJ cookbook alpha term for the given
// bandwidth specification.
func alphaForBandwidth(sampleRate, bandwidth float64, unit BandwidthUnit, frequency, dBGain float64) float64 {
	w0 := 2 * math.Pi * frequency / sampleRate
	sinW0 := math.Sin(w0)

	switch unit {
	case BandwidthQuality:
		return sinW0 / (2 * bandwidth)
	case BandwidthOctaves:
		return sinW0 * math.Sinh(math.Log(2)/2*(bandwidth*w0/sinW0))
	case BandwidthButterworth:
		return sinW0 / (2 * math.Sqrt(0.5))
	case BandwidthFrequency:
		return sinW0 / (2 * frequency / bandwidth)
	case BandwidthSlope:
		a := dBToLinear(dBGain, 40)
		return (sinW0 / 2) * math.Sqrt((a+1/a)*(1/bandwidth-1)+2)
	}
	return 0
}

// recalculateCoefficients derives this filter kind's direct-form-I
// coefficients and installs them into the underlying IIR core.
func (e *FilterEffect) recalculateCoefficients() {
	if e.sampleRate <= 0 {
		return
	}

	var b0, b1, b2, a0, a1, a2 float64

	if e.kind == FilterBiquad {
		b0, b1, b2 = e.rawB[0], e.rawB[1], e.rawB[2]
		a0, a1, a2 = e.rawA[0], e.rawA[1], e.rawA[2]
	} else {
		sampleRate := e.sampleRate
		w0 := 2 * math.Pi * e.frequency / sampleRate
		cw0 := math.Cos(w0)
		sw0 := math.Sin(w0)
		alpha := alphaForBandwidth(sampleRate, e.bandwidth, e.bandwidthUnit, e.frequency, e.dBGain)
		a := dBToLinear(e.dBGain, 40)

		switch e.kind {
		case FilterAllpass:
			b0 = 1 - alpha
			b1 = -2 * cw0
			b2 = 1 + alpha
			a0 = b2
			a1 = b1
			a2 = b0

		case FilterBand:
			var bandwidthAsFrequency float64
			switch e.bandwidthUnit {
			case BandwidthQuality:
				bandwidthAsFrequency = e.frequency / e.bandwidth
			case BandwidthOctaves:
				bandwidthAsFrequency = e.frequency * math.Pow(2, e.bandwidth-1) * math.Pow(2, -e.bandwidth/2)
			default:
				bandwidthAsFrequency = e.bandwidth
			}
			a2 = math.Exp(-2 * math.Pi * bandwidthAsFrequency / sampleRate)
			a1 = -4 * a2 / (1 + a2) * cw0
			a0 = 1
			b2 = 0
			b1 = 0
			b0 = math.Sqrt(1-a1*a1/(4*a2)) * (1 - a2)

			if e.usesUnpitchedAudioMode {
				factor := math.Sqrt((sqr(1+a2)-a1*a1)*(1-a2)/(1+a2)) / b0
				b0 *= factor
			}

		case FilterBandPass, FilterBandReject:
			if e.kind == FilterBandReject {
				b0 = 1
				b1 = -cw0 * 2
				b2 = 1
			} else {
				if e.usesConstantSkirtGain {
					b0 = sw0 / 2
				} else {
					b0 = alpha
				}
				b1 = 0
				b2 = -b0
			}
			a0 = alpha + 1
			a1 = -cw0 * 2
			a2 = -alpha + 1

		case FilterBass, FilterTreble:
			f := 1.0
			if e.kind == FilterTreble {
				f = -1.0
			}
			sqrtAlphaA := 2 * math.Sqrt(a) * alpha
			b0 = a * ((a + 1) - f*(a-1)*cw0 + sqrtAlphaA)
			b1 = f * 2 * a * ((a - 1) - f*(a+1)*cw0)
			b2 = a * ((a + 1) - f*(a-1)*cw0 - sqrtAlphaA)
			a0 = (a + 1) + f*(a-1)*cw0 + sqrtAlphaA
			a1 = -f * 2 * ((a - 1) + f*(a+1)*cw0)
			a2 = (a + 1) + f*(a-1)*cw0 - sqrtAlphaA

		case FilterEqualizer:
			filterGain := math.Pow(10, e.equGain/40)
			b0 = 1 + alpha*filterGain
			b1 = -2 * cw0
			b2 = 1 - alpha*filterGain
			a0 = 1 + alpha/filterGain
			a1 = b1
			a2 = 1 - alpha/filterGain

		case FilterHighPass, FilterLowPass:
			if e.isSinglePole {
				var factorA, factorB, factorC float64
				if e.kind == FilterHighPass {
					factorA, factorB, factorC = -1, 0.5, -1
				} else {
					factorA, factorB, factorC = 1, 1, 0
				}
				a0 = 1
				a1 = -math.Exp(-w0)
				a2 = 0
				b0 = (1 + factorA*a1) * factorB
				b1 = factorC * b0
				b2 = 0
			} else {
				var factorA, factorB float64
				if e.kind == FilterHighPass {
					factorA, factorB = 1+cw0, -1
				} else {
					factorA, factorB = 1-cw0, 1
				}
				b0 = factorA / 2
				b1 = factorB * factorA
				b2 = b0
				a0 = 1 + alpha
				a1 = -2 * cw0
				a2 = 1 - alpha
			}
		}
	}

	e.filter.SetCoefficients(Coefficients{
		B: [MaxFilterOrder]float64{b0, b1, b2},
		A: [MaxFilterOrder]float64{a0, a1, a2},
	})
}

func sqr(v float64) float64 { return v * v }

// ProcessBlock filters buf in place through the current coefficients.
func (e *FilterEffect) ProcessBlock(timePosition float64, buf MultiChannelBuffer) {
	if e.adoptChannelCount(buf) {
		e.filter.Resize(e.ChannelCount())
	}
	for c := 0; c < buf.ChannelCount(); c++ {
		channel := buf[c]
		for i, x := range channel {
			channel[i] = e.filter.ProcessSample(c, x)
		}
	}
}
