package teletext

/*------------------------------------------------------------------
 *
 * Purpose:	Hamming 8/4, Hamming 24/18 and odd-parity codec tables
 *		(spec.md §4.1). Tables are derived from the standard's bit
 *		equations at init time rather than transcribed as opaque
 *		lookup constants, so the derivation can be checked against
 *		the standard instead of trusted blindly (spec.md §9 Open
 *		Questions).
 *
 *------------------------------------------------------------------*/

import "math/bits"

// HammingResult is the outcome of decoding one Hamming 8/4 byte.
type HammingResult struct {
	Nibble byte
	Errors int // 0 clean, 1 corrected, 2 uncorrectable
}

var hamming8EncodeTable [16]byte
var hamming8DecodeTable [256]HammingResult

func init() {
	for n := 0; n < 16; n++ {
		hamming8EncodeTable[n] = hamming8EncodeBits(byte(n))
	}
	for b := 0; b < 256; b++ {
		hamming8DecodeTable[b] = computeHamming8Decode(byte(b))
	}
}

func hamming8EncodeBits(d byte) byte {
	d1 := d & 1
	d2 := (d >> 1) & 1
	d3 := (d >> 2) & 1
	d4 := (d >> 3) & 1

	p1 := (1 + d1 + d3 + d4) & 1
	p2 := (1 + d1 + d2 + d4) & 1
	p3 := (1 + d1 + d2 + d3) & 1
	p4 := (1 + p1 + d1 + p2 + d2 + p3 + d3 + d4) & 1

	return p1 | (d1 << 1) | (p2 << 2) | (d2 << 3) | (p3 << 4) | (d3 << 5) | (p4 << 6) | (d4 << 7)
}

// computeHamming8Decode finds the codeword at minimum Hamming distance from
// b, by brute force over the 16 valid codewords. Distance 0 is clean,
// distance 1 is corrected, anything else is flagged uncorrectable (errors=2)
// rather than guessed at, since two flipped bits can alias another codeword.
func computeHamming8Decode(b byte) HammingResult {
	bestNibble := byte(0)
	bestDist := 9
	tie := false

	for n := 0; n < 16; n++ {
		d := bits.OnesCount8(b ^ hamming8EncodeTable[n])
		switch {
		case d < bestDist:
			bestDist = d
			bestNibble = byte(n)
			tie = false
		case d == bestDist:
			tie = true
		}
	}

	switch {
	case bestDist == 0:
		return HammingResult{Nibble: bestNibble, Errors: 0}
	case bestDist == 1 && !tie:
		return HammingResult{Nibble: bestNibble, Errors: 1}
	default:
		return HammingResult{Nibble: bestNibble, Errors: 2}
	}
}

// Hamming8Encode places 4 parity bits interleaved with 4 data bits as
// P1 D1 P2 D2 P3 D3 P4 D4, per spec.md §4.1.
func Hamming8Encode(n byte) byte {
	return hamming8EncodeTable[n&0xF]
}

// Hamming8Decode returns the decoded nibble and an error count (0, 1 or 2).
func Hamming8Decode(b byte) HammingResult {
	return hamming8DecodeTable[b]
}

// Hamming16Decode decodes two independent Hamming 8/4 bytes and combines
// their nibbles little-endian (b0's nibble is the low nibble), summing
// error counts.
func Hamming16Decode(b0, b1 byte) (value byte, errors int) {
	a := Hamming8Decode(b0)
	c := Hamming8Decode(b1)
	return a.Nibble | (c.Nibble << 4), a.Errors + c.Errors
}

// HammingSet enumerates the 16 valid Hamming 8/4 codewords, used by
// pattern-dictionary construction (§4.4, dictionary H).
func HammingSet() []byte {
	out := make([]byte, 16)
	copy(out, hamming8EncodeTable[:])
	return out
}

// --- Hamming 24/18 -------------------------------------------------------

// Hamming24Encode packs 18 data bits (d, bits 0..17) into a 24-bit codeword
// carrying five Hamming parity bits (p1..p5) plus one overall parity bit
// (p6), per the ETS 300 706 enhancement-packet triplet coding.
func Hamming24Encode(d uint32) uint32 {
	bit := func(n uint) uint32 { return (d >> n) & 1 }

	d1, d2, d3, d4 := bit(0), bit(1), bit(2), bit(3)
	d5, d6, d7, d8 := bit(4), bit(5), bit(6), bit(7)
	d9, d10, d11, d12 := bit(8), bit(9), bit(10), bit(11)
	d13, d14, d15, d16 := bit(12), bit(13), bit(14), bit(15)
	d17, d18 := bit(16), bit(17)

	p1 := (1 + d1 + d2 + d4 + d5 + d7 + d9 + d11 + d12 + d14 + d16 + d18) & 1
	p2 := (1 + d1 + d3 + d4 + d6 + d7 + d10 + d11 + d13 + d14 + d17 + d18) & 1
	p3 := (1 + d2 + d3 + d4 + d8 + d9 + d10 + d11 + d15 + d16 + d17 + d18) & 1
	p4 := (1 + d5 + d6 + d7 + d8 + d9 + d10 + d11) & 1
	p5 := (1 + d12 + d13 + d14 + d15 + d16 + d17 + d18) & 1
	p6 := (1 + p1 + p2 + d1 + p3 + d2 + d3 + d4 + p4 + d5 + d6 + d7 + d8 + d9 + d10 + d11 + p5 +
		d12 + d13 + d14 + d15 + d16 + d17 + d18) & 1

	return p1 | (p2 << 1) | (d1 << 2) | (p3 << 3) | (d2 << 4) | (d3 << 5) | (d4 << 6) | (p4 << 7) |
		(d5 << 8) | (d6 << 9) | (d7 << 10) | (d8 << 11) | (d9 << 12) | (d10 << 13) | (d11 << 14) |
		(p5 << 15) | (d12 << 16) | (d13 << 17) | (d14 << 18) | (d15 << 19) | (d16 << 20) |
		(d17 << 21) | (d18 << 22) | (p6 << 23)
}

// dataBitPositions is the codeword bit index (LSB=0) of each data bit
// d1..d18, in order, matching Hamming24Encode's layout above.
var dataBitPositions = [18]uint{2, 4, 5, 6, 8, 9, 10, 11, 12, 13, 14, 16, 17, 18, 19, 20, 21, 22}

// Hamming24Decode decodes a 24-bit Hamming/overall-parity codeword.
//
// spec.md §9 flags that the original source's decode dropped bit 21 (d17)
// from the recovered data word. That omission is not reproduced here: all
// 18 data bits at their documented positions (dataBitPositions) are
// extracted after any single-bit correction, per the standard rather than
// the original's transcription.
func Hamming24Decode(d uint32) (data uint32, errors int) {
	p := (1 ^ parityOf8(byte(d)) ^ parityOf8(byte(d>>8)) ^ parityOf8(byte(d>>16))) & 1

	bit := func(n uint) uint32 { return (d >> n) & 1 }

	c0 := bit(0) ^ bit(2) ^ bit(4) ^ bit(6) ^ bit(8) ^ bit(10) ^ bit(12) ^ bit(14) ^ bit(16) ^ bit(18) ^ bit(20) ^ bit(22)
	c1 := bit(1) ^ bit(2) ^ bit(5) ^ bit(6) ^ bit(9) ^ bit(10) ^ bit(13) ^ bit(14) ^ bit(17) ^ bit(18) ^ bit(21) ^ bit(22)
	c2 := bit(3) ^ bit(4) ^ bit(5) ^ bit(6) ^ bit(11) ^ bit(12) ^ bit(13) ^ bit(14) ^ bit(19) ^ bit(20) ^ bit(21) ^ bit(22)
	c3 := bit(7) ^ bit(8) ^ bit(9) ^ bit(10) ^ bit(11) ^ bit(12) ^ bit(13) ^ bit(14)
	c4 := bit(15) ^ bit(16) ^ bit(17) ^ bit(18) ^ bit(19) ^ bit(20) ^ bit(21) ^ bit(22)

	corrected := d

	if p == 0 {
		if c0 == 1 && c1 == 1 && c2 == 1 && c3 == 1 && c4 == 1 {
			errors = 0
		} else {
			errors = 2
		}
	} else {
		errors = 1
		var errorBit uint32
		if c0 == 0 {
			errorBit |= 1
		}
		if c1 == 0 {
			errorBit |= 2
		}
		if c2 == 0 {
			errorBit |= 4
		}
		if c3 == 0 {
			errorBit |= 8
		}
		if c4 == 0 {
			errorBit |= 16
		}
		if errorBit > 0 {
			corrected = d ^ (1 << (errorBit - 1))
		}
	}

	for i, pos := range dataBitPositions {
		data |= ((corrected >> pos) & 1) << uint(i)
	}

	return data, errors
}

// Hamming24Set enumerates all 2^18 valid Hamming 24/18 codewords.
func Hamming24Set() []uint32 {
	out := make([]uint32, 1<<18)
	for n := uint32(0); n < 1<<18; n++ {
		out[n] = Hamming24Encode(n)
	}
	return out
}

// --- Odd parity ------------------------------------------------------------

func parityOf8(b byte) uint32 {
	return uint32(bits.OnesCount8(b) & 1)
}

// ParityEncode sets bit 7 of d (0..127) so the resulting byte has odd parity.
func ParityEncode(d byte) byte {
	d &= 0x7F
	if bits.OnesCount8(d)%2 == 0 {
		return d | 0x80
	}
	return d
}

// ParityDecode strips the parity bit, returning the 7-bit payload.
func ParityDecode(b byte) byte {
	return b & 0x7F
}

// ParityCheck returns 1 if b has odd parity (valid), 0 otherwise.
func ParityCheck(b byte) byte {
	if bits.OnesCount8(b)%2 == 1 {
		return 1
	}
	return 0
}

// ParitySet enumerates the 128 valid odd-parity bytes, used by
// pattern-dictionary construction (§4.4, dictionary P).
func ParitySet() []byte {
	out := make([]byte, 0, 128)
	for n := 0; n < 128; n++ {
		out = append(out, ParityEncode(byte(n)))
	}
	return out
}
