package teletext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_SquashBytes_MajorityWins(t *testing.T) {
	var a, b, c [42]byte
	a[0], b[0], c[0] = 'X', 'X', 'Y'

	out := SquashBytes([][42]byte{a, b, c})
	assert.Equal(t, byte('X'), out[0])
}

func Test_SquashBytes_TiesBreakToLowestValue(t *testing.T) {
	var a, b [42]byte
	a[0], b[0] = 'Z', 'A'

	out := SquashBytes([][42]byte{a, b})
	assert.Equal(t, byte('A'), out[0])
}

func Test_SquashBytes_SingleCopyReturnsItself(t *testing.T) {
	var a [42]byte
	a[3] = 42

	out := SquashBytes([][42]byte{a})
	assert.Equal(t, a, out)
}

func Test_SquashBytes_EmptyReturnsZeroValue(t *testing.T) {
	out := SquashBytes(nil)
	assert.Equal(t, [42]byte{}, out)
}

// Five copies of one packet, squashed in groups of 3, yield two groups
// (sizes 3 and 2) that both agree with the canonical encoding, tagged with
// the ordinal of each group's first member.
func Test_RowSquash_GroupsOfThree_FiveCopies(t *testing.T) {
	canonical := displayBytes(1, 5, "AAAA")
	noisy := displayBytes(1, 5, "AAAB") // one byte disagrees

	bodies := [5][42]byte{canonical, canonical, noisy, canonical, canonical}
	packets := make([]Packet, len(bodies))
	for i, body := range bodies {
		pkt, err := NewPacketFromBytes(body)
		require.NoError(t, err)
		packets[i] = pkt
	}

	groups := RowSquash(packets, 3)
	require.Len(t, groups, 2)

	assert.Equal(t, uint64(0), groups[0].Ordinal)
	assert.Equal(t, canonical, groups[0].Bytes)

	assert.Equal(t, uint64(3), groups[1].Ordinal)
	assert.Equal(t, canonical, groups[1].Bytes)
}

func Test_RowSquash_SingleGroupWhenNSpansWholeStream(t *testing.T) {
	d := displayBytes(3, 1, "Z")
	pkt, err := NewPacketFromBytes(d)
	require.NoError(t, err)

	groups := RowSquash([]Packet{pkt, pkt}, 10)
	require.Len(t, groups, 1)
	assert.Equal(t, uint64(0), groups[0].Ordinal)
	assert.Equal(t, d, groups[0].Bytes)
}

func Test_SubpageSquash_DropsRowsBelowMinDups(t *testing.T) {
	d := displayBytes(2, 7, "HELLO")
	pkt, err := NewPacketFromBytes(d)
	require.NoError(t, err)

	subpages := []Subpage{
		{7: pkt},
	}

	out := SubpageSquash(subpages, 2)
	assert.Empty(t, out)
}

func Test_SubpageSquash_KeepsRowsMeetingMinDups(t *testing.T) {
	d := displayBytes(2, 7, "HELLO")
	pkt, err := NewPacketFromBytes(d)
	require.NoError(t, err)

	subpages := []Subpage{
		{7: pkt},
		{7: pkt},
	}

	out := SubpageSquash(subpages, 2)
	require.Contains(t, out, 7)
	assert.Equal(t, d, out[7].ToBytes())
}
