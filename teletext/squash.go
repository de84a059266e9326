package teletext

/*------------------------------------------------------------------
 *
 * Purpose:	Row and subpage squashing (spec.md §4.8): when a page is
 *		transmitted repeatedly, independent decodes of "the same" row
 *		can disagree byte for byte because of noise or dropouts.
 *		Squashing keeps the most commonly agreed byte at each
 *		position. Row squash groups the raw stream by fixed chunk
 *		size; subpage squash merges, row by row, the Subpage
 *		sightings its caller passes in. It does not itself sort
 *		packets by (magazine, page, subpage). Recovered from
 *		teletext/t42/subpage.py's squash().
 *
 *------------------------------------------------------------------*/

import "sort"

// SquashBytes merges several decodes of the same 42-byte packet body,
// choosing the most frequent value at each byte position and breaking ties
// by the lowest byte value, so the result is deterministic regardless of
// map/slice iteration order.
func SquashBytes(copies [][42]byte) [42]byte {
	var out [42]byte
	switch len(copies) {
	case 0:
		return out
	case 1:
		return copies[0]
	}

	for pos := 0; pos < 42; pos++ {
		counts := map[byte]int{}
		for _, c := range copies {
			counts[c[pos]]++
		}

		values := make([]byte, 0, len(counts))
		for v := range counts {
			values = append(values, v)
		}
		sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

		best := values[0]
		bestCount := counts[best]
		for _, v := range values[1:] {
			if counts[v] > bestCount {
				bestCount = counts[v]
				best = v
			}
		}
		out[pos] = best
	}

	return out
}

// SquashGroup is one Row-squashed chunk: the byte-wise mode of n consecutive
// packets, tagged with the ordinal of the chunk's first member.
type SquashGroup struct {
	Ordinal uint64
	Bytes   [42]byte
}

// RowSquash implements "Row squash" (spec.md §4.8): consecutive packets are
// chunked into groups of n (the final group may be shorter), and each
// group's bytes are merged with SquashBytes. Unlike SubpageSquash this is a
// purely positional, MRAG-blind operation - it never inspects magazine,
// page or row, just the packet stream's own order.
func RowSquash(packets []Packet, n int) []SquashGroup {
	if n < 1 {
		n = 1
	}

	var out []SquashGroup
	for i := 0; i < len(packets); i += n {
		end := i + n
		if end > len(packets) {
			end = len(packets)
		}

		copies := make([][42]byte, end-i)
		for j, p := range packets[i:end] {
			copies[j] = p.ToBytes()
		}

		out = append(out, SquashGroup{Ordinal: uint64(i), Bytes: SquashBytes(copies)})
	}
	return out
}

// Subpage is one page's decoded rows, keyed by row number (spec.md §3).
type Subpage map[int]Packet

// SubpageSquash merges every Subpage sighting of what should be the same
// subpage into one, requiring at least minDups independent sightings of a
// row before trusting it. Rows seen fewer times than that are dropped
// rather than guessed at, matching subpage.py's minimum_dups behaviour.
// Every Subpage passed in is treated as a sighting of the same subpage; no
// grouping by magazine, page or subpage is done here. Every row, enhancement
// rows included, is merged byte by byte with SquashBytes: Hamming 24/18
// triplets are not decoded, so uncorrectable triplets are not skipped.
func SubpageSquash(subpages []Subpage, minDups int) Subpage {
	if minDups < 1 {
		minDups = 1
	}

	rowCopies := map[int][][42]byte{}
	for _, sp := range subpages {
		for row, pkt := range sp {
			rowCopies[row] = append(rowCopies[row], pkt.ToBytes())
		}
	}

	out := Subpage{}
	for row, copies := range rowCopies {
		if len(copies) < minDups {
			continue
		}
		merged := SquashBytes(copies)
		pkt, err := NewPacketFromBytes(merged)
		if err != nil {
			continue
		}
		out[row] = pkt
	}
	return out
}
