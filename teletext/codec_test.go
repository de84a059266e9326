package teletext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func Test_Hamming8_RoundTrip(t *testing.T) {
	for n := 0; n < 16; n++ {
		encoded := Hamming8Encode(byte(n))
		result := Hamming8Decode(encoded)
		assert.Equal(t, byte(n), result.Nibble)
		assert.Equal(t, 0, result.Errors)
	}
}

func Test_Hamming8_CorrectsSingleBitFlip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := byte(rapid.IntRange(0, 15).Draw(t, "n"))
		bit := uint(rapid.IntRange(0, 7).Draw(t, "bit"))

		encoded := Hamming8Encode(n)
		flipped := encoded ^ (1 << bit)

		result := Hamming8Decode(flipped)
		assert.Equal(t, n, result.Nibble)
		assert.Equal(t, 1, result.Errors)
	})
}

func Test_HammingSet_AllDistinct(t *testing.T) {
	seen := map[byte]bool{}
	for _, b := range HammingSet() {
		assert.False(t, seen[b], "duplicate codeword %02x", b)
		seen[b] = true
	}
	assert.Len(t, seen, 16)
}

func Test_Hamming24_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d := uint32(rapid.IntRange(0, (1<<18)-1).Draw(t, "d"))

		encoded := Hamming24Encode(d)
		decoded, errs := Hamming24Decode(encoded)

		assert.Equal(t, d, decoded)
		assert.Equal(t, 0, errs)
	})
}

func Test_Hamming24_CorrectsSingleBitFlip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d := uint32(rapid.IntRange(0, (1<<18)-1).Draw(t, "d"))
		bit := uint(rapid.IntRange(0, 23).Draw(t, "bit"))

		encoded := Hamming24Encode(d)
		flipped := encoded ^ (1 << bit)

		decoded, errs := Hamming24Decode(flipped)
		assert.Equal(t, d, decoded)
		assert.Equal(t, 1, errs)
	})
}

func Test_Hamming24_TwoBitFlip_IsUncorrected(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d := uint32(rapid.IntRange(0, (1<<18)-1).Draw(t, "d"))
		i := rapid.IntRange(0, 17).Draw(t, "i")
		j := rapid.IntRange(0, 16).Draw(t, "j")
		if j >= i {
			j++ // keep i != j while drawing from a contiguous range
		}

		encoded := Hamming24Encode(d)
		flipped := encoded ^ (1 << dataBitPositions[i]) ^ (1 << dataBitPositions[j])

		decoded, errs := Hamming24Decode(flipped)
		assert.Equal(t, 2, errs)
		assert.NotEqual(t, d, decoded, "two flipped data bits must not be silently corrected")
	})
}

func Test_Parity_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d := byte(rapid.IntRange(0, 127).Draw(t, "d"))

		encoded := ParityEncode(d)
		assert.Equal(t, byte(1), ParityCheck(encoded))
		assert.Equal(t, d, ParityDecode(encoded))
	})
}

func Test_ParitySet_AllOddParity(t *testing.T) {
	set := ParitySet()
	assert.Len(t, set, 128)
	for _, b := range set {
		assert.Equal(t, byte(1), ParityCheck(b))
	}
}
