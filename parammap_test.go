package audiofx

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParameterMapIntRangeAndStep(t *testing.T) {
	m := NewParameterMap()
	m.SetKindInt("Poles", 1, 5, 2)

	assert.True(t, m.IsAllowedValue("Poles", "1"))
	assert.True(t, m.IsAllowedValue("Poles", "3"))
	assert.True(t, m.IsAllowedValue("Poles", "5"))
	assert.False(t, m.IsAllowedValue("Poles", "2"))
	assert.False(t, m.IsAllowedValue("Poles", "6"))
	assert.False(t, m.IsAllowedValue("Poles", "not-a-number"))
}

func TestParameterMapRealValueIsQuantisedAndFormatted(t *testing.T) {
	m := NewParameterMap()
	m.SetKindReal("Frequency", 10, 20000, 0.01)

	require.True(t, m.SetValue("Frequency", "1000.004"))
	assert.Equal(t, "1000.00", m.Value("Frequency"))
}

func TestParameterMapEnumOnlyAcceptsListedValues(t *testing.T) {
	m := NewParameterMap()
	m.SetKindEnum("Kind", []string{"Allpass", "Band", "Bass"})

	assert.True(t, m.IsAllowedValue("Kind", "Band"))
	assert.False(t, m.IsAllowedValue("Kind", "Treble"))

	assert.False(t, m.SetValue("Kind", "Treble"))
	assert.Equal(t, "Allpass", m.Value("Kind"))
}

func TestParameterMapUnknownNameReturnsSentinel(t *testing.T) {
	m := NewParameterMap()
	assert.Equal(t, UnknownValue, m.Value("does-not-exist"))
	assert.False(t, m.Contains("does-not-exist"))
}

func TestParameterMapPagedNameRoundTrip(t *testing.T) {
	name := PagedParameterName("Delay [s]", 3)
	assert.Equal(t, "3#Delay [s]", name)

	base, page, nominal := SplitParameterName(name)
	assert.Equal(t, "Delay [s]", base)
	assert.Equal(t, 3, page)
	assert.Equal(t, 3, nominal)
}

func TestParameterMapUnpagedNameDefaultsToPageZero(t *testing.T) {
	base, page, nominal := SplitParameterName("Gain")
	assert.Equal(t, "Gain", base)
	assert.Equal(t, 0, page)
	assert.Equal(t, 0, nominal)
}

func TestParameterMapSentinelPagesAreDetected(t *testing.T) {
	assert.True(t, IsPageSelector(PagedParameterName("Kind", -1)))
	assert.True(t, IsPageCounter(PagedParameterName("Stage Count", -2)))
	assert.False(t, IsPageSelector(PagedParameterName("Delay", 2)))
}

func TestParameterMapChangeActivenessByPageTogglesStages(t *testing.T) {
	m := NewParameterMap()
	for page := 0; page < 4; page++ {
		m.SetKindReal(PagedParameterName("Delay", page), 0, 1, 0.001)
	}

	m.ChangeActivenessByPage(1)

	assert.True(t, m.IsActive(PagedParameterName("Delay", 0)))
	assert.True(t, m.IsActive(PagedParameterName("Delay", 1)))
	assert.False(t, m.IsActive(PagedParameterName("Delay", 2)))
	assert.False(t, m.IsActive(PagedParameterName("Delay", 3)))
}

func TestParameterMapValueIsDifferentUsesRealStep(t *testing.T) {
	m := NewParameterMap()
	m.SetKindReal("Gain", -25, 25, 0.01)
	m.SetValue("Gain", "1.00")

	assert.False(t, m.ValueIsDifferent("Gain", "1.004"))
	assert.True(t, m.ValueIsDifferent("Gain", "1.02"))
}

// Every Int value accepted by SetValue round-trips through Value
// unchanged, and every value rejected by IsAllowedValue leaves the
// stored value untouched.
func TestParameterMapIntSetValuePreservesOrRejects(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		lo := rapid.IntRange(-100, 0).Draw(t, "lo")
		hi := rapid.IntRange(1, 100).Draw(t, "hi")
		step := rapid.IntRange(1, 10).Draw(t, "step")

		m := NewParameterMap()
		m.SetKindInt("p", lo, hi, step)
		before := m.Value("p")

		v := rapid.IntRange(-200, 200).Draw(t, "v")
		value := strconv.Itoa(v)
		allowed := m.IsAllowedValue("p", value)
		ok := m.SetValue("p", value)

		assert.Equal(t, allowed, ok)
		if ok {
			assert.Equal(t, value, m.Value("p"))
		} else {
			assert.Equal(t, before, m.Value("p"))
		}
	})
}
