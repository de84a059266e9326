package teletext

/*------------------------------------------------------------------
 *
 * Purpose:	Pagination (spec.md §4.8): turn an ordered stream of decoded
 *		packets into whole pages, each one starting at its Header row
 *		and running until the next Header row for the same magazine.
 *		Recovered from teletext/t42/pipeline.py's paginate() generator.
 *
 *------------------------------------------------------------------*/

// Page is one accumulated page: its header plus every row seen for it
// before the next header closed it out, keyed by row number.
type Page struct {
	Magazine int
	Header   *HeaderPacket
	Rows     map[int]Packet
}

// Paginate groups a capture-ordered stream of packets into complete pages.
// A page starts when a Header row for a magazine arrives and is considered
// complete as soon as the next Header row for that same magazine arrives,
// or the input is exhausted. Rows that arrive for a magazine with no
// current page (capture started mid-page) are dropped, since there is
// nowhere to attach them.
func Paginate(packets []Packet) []*Page {
	current := map[int]*Page{}
	var pages []*Page

	flush := func(mag int) {
		if p, ok := current[mag]; ok {
			pages = append(pages, p)
			delete(current, mag)
		}
	}

	for _, pkt := range packets {
		mrag := pkt.MRAG()

		if hp, ok := pkt.(HeaderPacket); ok {
			flush(mrag.Magazine)
			current[mrag.Magazine] = &Page{
				Magazine: mrag.Magazine,
				Header:   &hp,
				Rows:     map[int]Packet{0: hp},
			}
			continue
		}

		p, ok := current[mrag.Magazine]
		if !ok {
			continue
		}
		p.Rows[mrag.Row] = pkt
	}

	for mag := range current {
		flush(mag)
	}

	return pages
}
