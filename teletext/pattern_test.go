package teletext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_HammingSet_And_ParitySet_DictionarySizes(t *testing.T) {
	assert.Len(t, HammingSet(), 16)
	assert.Len(t, ParitySet(), 128)
}

func Test_Match_ExactHammingCodewordRoundTrips(t *testing.T) {
	matcher := NewPatternMatcher(&BT8x8PAL)

	for _, v := range HammingSet() {
		window := expandBitWaveform(v)
		value, distance, err := matcher.Match(DictHamming, window)
		require.NoError(t, err)
		assert.Equal(t, v, value)
		assert.InDelta(t, 0, distance, 1e-9)
	}
}

func Test_Match_ExactParityCodewordRoundTrips(t *testing.T) {
	matcher := NewPatternMatcher(&BT8x8PAL)

	for _, v := range ParitySet() {
		window := expandBitWaveform(v)
		value, distance, err := matcher.Match(DictParity, window)
		require.NoError(t, err)
		assert.Equal(t, v, value)
		assert.InDelta(t, 0, distance, 1e-9)
	}
}

func Test_Match_FreeDictionaryCoversAllByteValues(t *testing.T) {
	matcher := NewPatternMatcher(&BT8x8PAL)

	for v := 0; v < 256; v++ {
		window := expandBitWaveform(byte(v))
		value, distance, err := matcher.Match(DictFree, window)
		require.NoError(t, err)
		assert.Equal(t, byte(v), value)
		assert.InDelta(t, 0, distance, 1e-9)
	}
}

func Test_Match_NoisyWindowStillResolvesToNearestCodeword(t *testing.T) {
	matcher := NewPatternMatcher(&BT8x8PAL)

	want := HammingSet()[3]
	window := expandBitWaveform(want)
	// Nudge every sample a little without crossing halfway to another level.
	for i := range window {
		if window[i] == 0 {
			window[i] = 40
		} else {
			window[i] = 210
		}
	}

	value, _, err := matcher.Match(DictHamming, window)
	require.NoError(t, err)
	assert.Equal(t, want, value)
}

func Test_Match_InsufficientMargin(t *testing.T) {
	matcher := NewPatternMatcher(&BT8x8PAL)

	_, _, err := matcher.Match(DictHamming, make([]float64, 4))
	require.Error(t, err)

	var terr *Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, InsufficientMargin, terr.Kind)
}
