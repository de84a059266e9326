package teletext

/*------------------------------------------------------------------
 *
 * Purpose:	Per-line packet recovery: combine bit-grid location (C3),
 *		pattern matching (C4), MRAG/codec decode (C1) and the packet
 *		model (C2) into one decoded Packet (spec.md §4.5). Recovered
 *		from teletext/vbi/deconvolve.py's Deconvolve() entry point.
 *
 *------------------------------------------------------------------*/

import "fmt"

// IntSet is a small membership set used to filter packets by magazine or
// row number. An empty IntSet matches everything, so callers that don't
// want filtering can pass a zero value rather than special-casing "all".
type IntSet map[int]struct{}

// NewIntSet builds an IntSet from the given values.
func NewIntSet(values ...int) IntSet {
	s := make(IntSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Contains reports whether v is in the set; an empty set contains everything.
func (s IntSet) Contains(v int) bool {
	if len(s) == 0 {
		return true
	}
	_, ok := s[v]
	return ok
}

// Deconvolve recovers one Packet from an analysed line using pattern
// matching. state must already have passed Teletext detection; extraRoll is
// an operator-supplied fine adjustment applied before any bytes are read.
// mags and rows filter by magazine/row before the (comparatively expensive)
// byte-by-byte matching of the packet body runs.
func Deconvolve(matcher PatternMatcher, state *LineState, extraRoll int, mags, rows IntSet) (Packet, error) {
	if !state.IsTeletext() {
		return nil, &Error{Kind: SignalRejected, Msg: state.Reason()}
	}
	state.ApplyExtraRoll(extraRoll)

	b0, _, err := matcher.Match(DictHamming, state.Chop(packetStartBit, packetStartBit+8))
	if err != nil {
		return nil, err
	}
	b1, _, err := matcher.Match(DictHamming, state.Chop(packetStartBit+8, packetStartBit+16))
	if err != nil {
		return nil, err
	}

	mrag, mragErrs := DecodeMRAG(b0, b1)

	if !mags.Contains(mrag.Magazine) || !rows.Contains(mrag.Row) {
		return nil, &Error{Kind: Filtered,
			Msg: fmt.Sprintf("magazine %d row %d filtered", mrag.Magazine, mrag.Row)}
	}

	var data [42]byte
	data[0], data[1] = b0, b1

	if mragErrs >= 2 {
		// MRAG itself is uncorrectable: there is no reliable row class to
		// plan dictionaries from, so the body is read raw and left for
		// NewPacketFromBytes to turn into a RawPacket.
		for pos := 2; pos < 42; pos++ {
			v, _, err := matcher.Match(DictFree, state.Chop(packetStartBit+pos*8, packetStartBit+pos*8+8))
			if err != nil {
				return nil, err
			}
			data[pos] = v
		}
		return NewPacketFromBytes(data)
	}

	// Rows 26-31 dispatch on the designation code (DC, byte 2) in addition
	// to the row class, so it has to be matched and decoded ahead of the
	// rest of the body (spec.md §4.5 step 3: "bytes[0:3] = H.match(...)").
	var dc byte
	start := 2
	if mrag.Row >= 26 {
		b2, _, err := matcher.Match(DictHamming, state.Chop(packetStartBit+16, packetStartBit+24))
		if err != nil {
			return nil, err
		}
		data[2] = b2
		dc = Hamming8Decode(b2).Nibble
		start = 3
	}

	kinds := dictPlan(mrag, dc)
	for pos := start; pos < 42; pos++ {
		v, _, err := matcher.Match(kinds[pos-2], state.Chop(packetStartBit+pos*8, packetStartBit+pos*8+8))
		if err != nil {
			return nil, err
		}
		data[pos] = v
	}

	return NewPacketFromBytes(data)
}

// dictPlan returns the pattern dictionary each of bytes 2..41 should be
// matched against, mirroring NewPacketFromBytes' row-class dispatch
// (spec.md §4.2, §4.5) so the two never disagree about how a packet is
// coded. dc is only consulted for rows 27 and 30, which branch on it.
func dictPlan(mrag MRAG, dc byte) [40]DictKind {
	var out [40]DictKind

	switch {
	case mrag.Row == 0:
		// Header: page/subpage/control nibbles (bytes 2-9) are Hamming 8/4,
		// the rest is parity-coded displayable text.
		for i := 0; i < 8; i++ {
			out[i] = DictHamming
		}
		for i := 8; i < 40; i++ {
			out[i] = DictParity
		}
	case mrag.Row >= 1 && mrag.Row <= 25:
		for i := range out {
			out[i] = DictParity
		}
	case mrag.Row == 26:
		// Enhancement: DC plus 13 Hamming 24/18 triplets, read as free
		// bytes here and decoded by EnhancementPacket.ToTriplets.
		out[0] = DictHamming
		for i := 1; i < 40; i++ {
			out[i] = DictFree
		}
	case mrag.Row == 27 && dc < 4:
		// Fastext: DC, six Hamming-coded link bytes per entry, a Hamming
		// control nibble, then a two-byte checksum that isn't dictionary
		// coded at all.
		out[0] = DictHamming
		for i := 1; i <= 37; i++ {
			out[i] = DictHamming
		}
		out[38] = DictFree
		out[39] = DictFree
	case mrag.Row == 27 || mrag.Row == 28 || mrag.Row == 29:
		out[0] = DictHamming
		for i := 1; i < 40; i++ {
			out[i] = DictFree
		}
	case mrag.Row == 30 && mrag.Magazine == 8:
		// Broadcast Service Data: DC, a Hamming-coded initial page link,
		// a body that's Hamming-coded only for certain DC values, and a
		// parity-coded status display.
		out[0] = DictHamming
		for i := 1; i <= 6; i++ {
			out[i] = DictHamming
		}
		body := DictFree
		if dc == 2 || dc == 3 {
			body = DictHamming
		}
		for i := 7; i <= 19; i++ {
			out[i] = body
		}
		for i := 20; i < 40; i++ {
			out[i] = DictParity
		}
	case mrag.Row == 30:
		// Independent Data Line: DC, then IAL (always Hamming), then a
		// body whose format (and a leading Hamming continuity-index byte
		// in format B) is chosen by DC bit 0 - except magazine 4, which is
		// always treated as format A regardless of DC.
		out[0] = DictHamming
		out[1] = DictHamming
		if mrag.Magazine == 4 || dc&1 == 0 {
			for i := 2; i < 40; i++ {
				out[i] = DictFree
			}
		} else {
			out[2] = DictHamming
			for i := 3; i < 40; i++ {
				out[i] = DictFree
			}
		}
	default:
		for i := range out {
			out[i] = DictFree
		}
	}

	return out
}

// sliceBits is the number of bits SliceDecode resamples: the whole 42-byte
// packet (MRAG, DC/IAL and body alike), one bit per output bit.
const sliceBits = 42 * 8

// packetStartBit is the grid bit where packet byte 0 (the first MRAG byte)
// begins: grid bits 0..23 carry the clock run-in and framing code (CRIFC).
const packetStartBit = 24

// SliceDecode recovers a packet from a no-pattern, threshold + differential
// reading of the payload bits, the fallback path ported from line.py's
// Line.slice for when pattern matching isn't available or wanted (spec.md
// §4.5). Each bit is pulled toward whichever of its own level or the
// transition into it looks most confident, rather than compared against a
// single fixed threshold.
func SliceDecode(state *LineState, extraRoll int, mags, rows IntSet) (Packet, error) {
	if !state.IsTeletext() {
		return nil, &Error{Kind: SignalRejected, Msg: state.Reason()}
	}
	state.ApplyExtraRoll(extraRoll)

	raw := state.Chop(packetStartBit, packetStartBit+sliceBits)
	if maxOf(raw)-minOf(raw) < 16 {
		return nil, &Error{Kind: SliceBelowNoise, Msg: "insufficient amplitude to slice"}
	}

	samples := Normalise(raw)
	fwd := firstDifference(samples)

	var data [42]byte
	for i := 0; i < sliceBits; i++ {
		var diff float64
		if i > 0 {
			diff = fwd[i-1]
		}
		bit := (samples[i] > 127 || diff > 48) && diff > -48
		if bit {
			data[i/8] |= 1 << uint(i%8)
		}
	}

	mrag, _ := DecodeMRAG(data[0], data[1])
	if !mags.Contains(mrag.Magazine) || !rows.Contains(mrag.Row) {
		return nil, &Error{Kind: Filtered,
			Msg: fmt.Sprintf("magazine %d row %d filtered", mrag.Magazine, mrag.Row)}
	}

	return NewPacketFromBytes(data)
}

func minOf(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	m := x[0]
	for _, v := range x {
		if v < m {
			m = v
		}
	}
	return m
}
