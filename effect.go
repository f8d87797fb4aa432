// effect.go - shared effect lifecycle and the host-facing Effect contract

package audiofx

// ChangeKind classifies the consequence of a SetValue call, telling the
// host how much of an effect's derived state was invalidated.
type ChangeKind int

const (
	// NoChange means the value was rejected or identical to the stored one.
	NoChange ChangeKind = iota
	// ParameterChange means a single parameter's value changed; the
	// effect recalculated only the DSP state that parameter feeds.
	ParameterChange
	// PageChange means the active parameter page changed.
	PageChange
	// PageCountChange means the number of active pages (e.g. chorus/echo
	// stage count) changed, which in turn changes parameter activeness.
	PageCountChange
	// GlobalChange means a structural change occurred that invalidates
	// all derived DSP state: the effect kind (or chorus/echo topology)
	// changed and the parameter map was rebuilt, or a reverb parameter
	// changed and its delay-line graph was rebuilt. The host should
	// re-read the whole parameter map.
	GlobalChange
)

// Effect is the host-facing contract every effect in this package
// implements: parameter discovery and mutation, block processing, and
// lifecycle management. A typed per-effect implementation backs this
// interface, not a generic opaque descriptor handle.
type Effect interface {
	// Name returns the effect's stable identifying name.
	Name() string

	// Prepare (re)initialises the effect for the given sample rate,
	// allocating any sample-rate-dependent DSP state.
	Prepare(sampleRate float64)

	// Release frees any resources Prepare allocated. Safe to call more
	// than once.
	Release()

	// ProcessBlock filters buf in place. timePosition is the host
	// transport time in seconds of buf's first sample, used to
	// re-lock time-dependent LFOs after a transport seek.
	ProcessBlock(timePosition float64, buf MultiChannelBuffer)

	// SetValue validates and stores value for name, recalculating any
	// dependent DSP state, and reports what changed. When forceRecalc
	// is true, dependent state is recalculated even if the stored
	// value did not change.
	SetValue(name, value string, forceRecalc bool) ChangeKind

	// SetDefaultValues resets every parameter to its default.
	SetDefaultValues()

	// HasValidParameters reports whether every required parameter has
	// a valid stored value, i.e. whether ProcessBlock is safe to call.
	HasValidParameters() bool

	// ParameterMap returns the effect's parameter map.
	ParameterMap() *ParameterMap

	// TailLength returns, in seconds, how long the effect continues to
	// produce audible output after its input falls silent (e.g. reverb
	// or echo decay); zero for effects with no tail.
	TailLength() float64
}

// EffectBase holds the state and behaviour common to every effect:
// sample rate tracking, channel count, the parameter map, an optional
// diagnostic logger, and time-position-moved detection for time-locked
// LFOs. Concrete effects embed EffectBase and add their own DSP state.
type EffectBase struct {
	name         string
	sampleRate   float64
	channelCount int
	params       *ParameterMap
	logger       Logger

	prepared                 bool
	haveTimePosition         bool
	lastTimePosition         float64
	expectedNextTimePosition float64
}

// NewEffectBase constructs an EffectBase with an empty parameter map and
// no logger; use SetLogger to attach one.
func NewEffectBase(name string) EffectBase {
	return EffectBase{name: name, params: NewParameterMap(), channelCount: 2}
}

// Name returns the effect's name.
func (b *EffectBase) Name() string { return b.name }

// ParameterMap returns the effect's parameter map.
func (b *EffectBase) ParameterMap() *ParameterMap { return b.params }

// SetLogger attaches a diagnostic sink; nil disables logging.
func (b *EffectBase) SetLogger(l Logger) { b.logger = l }

// logDebugf logs at debug level if a logger is attached.
func (b *EffectBase) logDebugf(format string, args ...any) {
	if b.logger != nil {
		b.logger.Debugf(format, args...)
	}
}

// logWarnf logs at warn level if a logger is attached.
func (b *EffectBase) logWarnf(format string, args ...any) {
	if b.logger != nil {
		b.logger.Warnf(format, args...)
	}
}

// SampleRate returns the sample rate passed to the most recent Prepare
// call, or zero if Prepare has not been called.
func (b *EffectBase) SampleRate() float64 { return b.sampleRate }

// ChannelCount returns the channel count the effect's DSP state is sized
// for; effects adopt the channel count of the first buffer they see.
func (b *EffectBase) ChannelCount() int { return b.channelCount }

// prepareBase records the sample rate and resets time-position tracking;
// concrete effects call this from their own Prepare before (re)allocating
// sample-rate-dependent state.
func (b *EffectBase) prepareBase(sampleRate float64) {
	b.sampleRate = sampleRate
	b.prepared = true
	b.haveTimePosition = false
	b.expectedNextTimePosition = 0
}

// releaseBase marks the effect unprepared; concrete effects call this
// from their own Release after freeing their DSP state.
func (b *EffectBase) releaseBase() {
	b.prepared = false
	b.haveTimePosition = false
}

// adoptChannelCount resizes the base's notion of channel count to match
// buf, returning true if the count actually changed (a GlobalChange the
// caller must propagate into its own per-channel DSP state).
func (b *EffectBase) adoptChannelCount(buf MultiChannelBuffer) bool {
	n := buf.ChannelCount()
	if n == 0 || n == b.channelCount {
		return false
	}
	b.channelCount = n
	return true
}

// timePositionMoved reports whether timePosition is discontinuous with
// where the previously processed block predicted playback would be next
// (a transport seek rather than continuous playback), and records both
// timePosition and the next call's predicted position. The first call
// after Prepare always reports true so effects re-lock their LFOs
// against the host's initial position.
//
// The prediction carried from one call to the next is timePosition +
// blockSeconds of the block that was actually just processed, not
// recomputed from the incoming call's own blockSeconds: block size may
// shrink on a host's final block of a file, and comparing against a
// prediction rebuilt from that shorter block would misreport a seek.
func (b *EffectBase) timePositionMoved(timePosition float64, blockSeconds float64) bool {
	moved := true
	if b.haveTimePosition {
		const epsilon = 1e-3
		diff := timePosition - b.expectedNextTimePosition
		if diff < 0 {
			diff = -diff
		}
		moved = diff > epsilon
	}
	b.lastTimePosition = timePosition
	b.expectedNextTimePosition = timePosition + blockSeconds
	b.haveTimePosition = true
	return moved
}
