// ringbuffer.go - fixed-capacity sample ring and multichannel ring vector

package audiofx

// RingBuffer is a fixed-length ordered sequence of samples with a movable
// logical origin. Index operations never reallocate once a length is set.
type RingBuffer struct {
	data   []Sample
	origin int
}

// Length returns the number of samples the ring holds.
func (r *RingBuffer) Length() int {
	return len(r.data)
}

// At reads the sample i positions after the origin; i wraps by construction.
func (r *RingBuffer) At(i int) Sample {
	n := len(r.data)
	if n == 0 {
		return 0
	}
	idx := (r.origin + i) % n
	if idx < 0 {
		idx += n
	}
	return r.data[idx]
}

// SetAt writes s to the sample i positions after the origin; symmetric
// with At.
func (r *RingBuffer) SetAt(i int, s Sample) {
	n := len(r.data)
	if n == 0 {
		return
	}
	idx := (r.origin + i) % n
	if idx < 0 {
		idx += n
	}
	r.data[idx] = s
}

// ShiftLeft advances the origin by one and stores s at the new tail; the
// sample previously at offset 0 is logically discarded.
func (r *RingBuffer) ShiftLeft(s Sample) {
	n := len(r.data)
	if n == 0 {
		return
	}
	r.data[r.origin] = s
	r.origin = (r.origin + 1) % n
}

// ShiftRight retracts the origin by one and stores s at the new head; the
// sample previously at offset length-1 is logically discarded.
func (r *RingBuffer) ShiftRight(s Sample) {
	n := len(r.data)
	if n == 0 {
		return
	}
	r.origin = (r.origin - 1 + n) % n
	r.data[r.origin] = s
}

// SetLength allocates or truncates the ring to n samples, zeroing its content.
func (r *RingBuffer) SetLength(n int) {
	r.data = make([]Sample, n)
	r.origin = 0
}

// SetToZero zeros all samples without changing the ring's length.
func (r *RingBuffer) SetToZero() {
	for i := range r.data {
		r.data[i] = 0
	}
	r.origin = 0
}

// RingVector is a flat list of ring buffers indexed by (channel, tap),
// used as the IIR history store (input/output queues per channel) and as
// the chorus/echo per-stage delay-line bank (channel x stage layout).
type RingVector struct {
	rings      []RingBuffer
	tapsPerRow int
}

// NewRingVector allocates channelCount*tapsPerRow zero-length rings.
func NewRingVector(channelCount, tapsPerRow int) *RingVector {
	if tapsPerRow < 1 {
		tapsPerRow = 1
	}
	return &RingVector{
		rings:      make([]RingBuffer, channelCount*tapsPerRow),
		tapsPerRow: tapsPerRow,
	}
}

// index locates the ring for (channel, tap); out-of-range access is a
// programmer error.
func (v *RingVector) index(channel, tap int) int {
	idx := channel*v.tapsPerRow + tap
	if idx < 0 || idx >= len(v.rings) {
		panic("audiofx: ring vector channel/tap out of range")
	}
	return idx
}

// At returns the ring buffer for (channel, tap).
func (v *RingVector) At(channel, tap int) *RingBuffer {
	return &v.rings[v.index(channel, tap)]
}

// SetLength resizes every ring in the vector to n samples.
func (v *RingVector) SetLength(n int) {
	for i := range v.rings {
		v.rings[i].SetLength(n)
	}
}

// Resize changes the channel count and taps-per-row, reallocating the
// backing ring list; any per-ring length must be re-established by the
// caller afterwards.
func (v *RingVector) Resize(channelCount, tapsPerRow int) {
	if tapsPerRow < 1 {
		tapsPerRow = 1
	}
	v.tapsPerRow = tapsPerRow
	v.rings = make([]RingBuffer, channelCount*tapsPerRow)
}
