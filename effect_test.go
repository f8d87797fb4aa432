package audiofx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEffectBaseFirstBlockAfterPrepareAlwaysMoved(t *testing.T) {
	b := NewEffectBase("test")
	b.prepareBase(48000)

	assert.True(t, b.timePositionMoved(0, 0.1))
}

func TestEffectBaseContinuousPlaybackIsNotMoved(t *testing.T) {
	b := NewEffectBase("test")
	b.prepareBase(48000)

	b.timePositionMoved(0, 0.1)
	assert.False(t, b.timePositionMoved(0.1, 0.1))
	assert.False(t, b.timePositionMoved(0.2, 0.1))
}

func TestEffectBaseTransportSeekIsMoved(t *testing.T) {
	b := NewEffectBase("test")
	b.prepareBase(48000)

	b.timePositionMoved(0, 0.1)
	assert.True(t, b.timePositionMoved(5.0, 0.1))
}

func TestEffectBaseShrinkingFinalBlockIsNotMoved(t *testing.T) {
	b := NewEffectBase("test")
	b.prepareBase(48000)

	// Two full 0.1s blocks followed by a shorter 0.04s final block, as a
	// host produces on the last iteration when a file's length isn't an
	// exact multiple of its block size.
	b.timePositionMoved(0, 0.1)
	assert.False(t, b.timePositionMoved(0.1, 0.1))
	assert.False(t, b.timePositionMoved(0.2, 0.04))
}

func TestEffectBaseAdoptChannelCountReportsChange(t *testing.T) {
	b := NewEffectBase("test")
	assert.Equal(t, 2, b.ChannelCount())

	mono := NewMultiChannelBuffer(1, 16)
	assert.True(t, b.adoptChannelCount(mono))
	assert.Equal(t, 1, b.ChannelCount())

	assert.False(t, b.adoptChannelCount(mono))
}
