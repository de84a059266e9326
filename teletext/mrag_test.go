package teletext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func Test_MRAG_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		mag := rapid.IntRange(1, 8).Draw(t, "magazine")
		row := rapid.IntRange(0, 31).Draw(t, "row")

		b0, b1 := EncodeMRAG(MRAG{Magazine: mag, Row: row})
		decoded, errs := DecodeMRAG(b0, b1)

		assert.Equal(t, 0, errs)
		assert.Equal(t, mag, decoded.Magazine)
		assert.Equal(t, row, decoded.Row)
	})
}

func Test_MRAG_MagazineZeroEncodesAndDecodesAsEight(t *testing.T) {
	b0, b1 := EncodeMRAG(MRAG{Magazine: 8, Row: 3})
	decoded, errs := DecodeMRAG(b0, b1)

	assert.Equal(t, 0, errs)
	assert.Equal(t, 8, decoded.Magazine)
}

func Test_PageLink_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		link := PageLink{
			Page:    rapid.IntRange(0, 255).Draw(t, "page"),
			Subpage: rapid.IntRange(0, 4095).Draw(t, "subpage"),
			Delta:   rapid.IntRange(0, 7).Draw(t, "delta"),
		}

		decoded := PageLinkFromBytes(link.ToBytes())
		assert.Equal(t, link, decoded)
	})
}

func Test_PageLink_MagazineIsXORedWithOwnMagazine(t *testing.T) {
	link := PageLink{Delta: 7}
	assert.Equal(t, 6, link.Magazine(1)) // 1 XOR 7 = 6
	assert.Equal(t, 5, link.Magazine(2)) // 2 XOR 7 = 5
}
