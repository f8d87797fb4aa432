// biquad.go - direct-form-I IIR filter with per-channel history queues

package audiofx

// MaxFilterOrder is the largest order (number of taps) a Coefficients set
// can hold; the effects in this package need only 3 (biquad) or 5.
const MaxFilterOrder = 5

// Coefficients holds up to order-5 direct-form-I IIR coefficients.
// output y[n] = (b0*x[n] + b1*x[n-1] + ... - a1*y[n-1] - ...) / a0
type Coefficients struct {
	B [MaxFilterOrder]float64
	A [MaxFilterOrder]float64
}

// IIRFilter applies Coefficients sample-by-sample per channel, keeping an
// input and output history queue (order samples deep) per channel.
type IIRFilter struct {
	order   int
	coeffs  Coefficients
	inputQ  *RingVector // tap 0: per channel
	outputQ *RingVector
}

// NewIIRFilter creates a filter of the given order (1, 3 or 5) for
// channelCount channels.
func NewIIRFilter(order, channelCount int) *IIRFilter {
	f := &IIRFilter{order: order}
	f.Resize(channelCount)
	return f
}

// Order returns the filter's configured order.
func (f *IIRFilter) Order() int {
	return f.order
}

// SetCoefficients installs new filter coefficients, taking effect on the
// next sample processed; history queues are left untouched so the filter
// transitions smoothly.
func (f *IIRFilter) SetCoefficients(c Coefficients) {
	f.coeffs = c
}

// Coefficients returns the filter's current coefficients.
func (f *IIRFilter) Coefficients() Coefficients {
	return f.coeffs
}

// Resize reallocates per-channel history queues for channelCount channels,
// sized to the filter's order, zeroed.
func (f *IIRFilter) Resize(channelCount int) {
	f.inputQ = NewRingVector(channelCount, 1)
	f.outputQ = NewRingVector(channelCount, 1)
	f.inputQ.SetLength(f.order)
	f.outputQ.SetLength(f.order)
}

// ProcessSample filters one input sample for the given channel and returns
// the output sample: shiftRight the input queue with the new input,
// shiftRight the output queue with zero, compute y from the first order
// slots of both queues, write y into the output queue's first slot, and
// return that slot as the output.
func (f *IIRFilter) ProcessSample(channel int, x Sample) Sample {
	in := f.inputQ.At(channel, 0)
	out := f.outputQ.At(channel, 0)

	in.ShiftRight(x)
	out.ShiftRight(0)

	a0 := f.coeffs.A[0]
	if a0 == 0 {
		a0 = 1
	}

	var acc float64
	for i := 0; i < f.order; i++ {
		acc += f.coeffs.B[i] * in.At(i)
	}
	for i := 1; i < f.order; i++ {
		acc -= f.coeffs.A[i] * out.At(i)
	}
	y := acc / a0

	// overwrite the slot ShiftRight just zeroed, which is the first slot
	out.SetAt(0, y)
	return y
}
