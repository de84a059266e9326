package teletext

/*------------------------------------------------------------------
 *
 * Purpose:	Teletext packet model (spec.md §3, §4.2): a tagged union of
 *		row-class variants over a common 42-byte buffer, with
 *		byte<->field conversion. Recovered in meaning from
 *		teletext/t42/packet.py, reshaped from a class hierarchy with
 *		dynamic dispatch into a closed set of Go structs behind one
 *		interface (spec.md §9 "Dynamic dispatch on row class").
 *
 *------------------------------------------------------------------*/

import "fmt"

const PacketSize = 42

// Packet is implemented by every row-class variant. Accessors common to all
// rows live here; variant-specific fields are reached via a type switch or
// assertion, matching the "no deep hierarchy, no virtual methods beyond
// rendering" guidance of spec.md §9.
type Packet interface {
	MRAG() MRAG
	ToBytes() [PacketSize]byte
	ToANSI(colour bool) string
	// Original returns the raw bytes the packet was built from, for
	// diagnostics.
	Original() [PacketSize]byte
}

type base struct {
	mrag     MRAG
	original [PacketSize]byte
}

func (b base) MRAG() MRAG                      { return b.mrag }
func (b base) Original() [PacketSize]byte      { return b.original }

// RawPacket is the fallback variant: rows with no further structure defined
// (spec.md §4.2 "else packet = Packet(mrag)"), and the representation used
// for MalformedPacket so downstream code can still count it (spec.md §7).
type RawPacket struct {
	base
	Payload [PacketSize - 2]byte
}

func (p RawPacket) ToBytes() [PacketSize]byte {
	var out [PacketSize]byte
	out[0], out[1] = EncodeMRAG(p.mrag)
	copy(out[2:], p.Payload[:])
	return out
}

func (p RawPacket) ToANSI(colour bool) string {
	return fmt.Sprintf("%d %2d", p.mrag.Magazine, p.mrag.Row)
}

// NewPacketFromBytes is the packet factory of spec.md §4.2: it inspects the
// decoded MRAG row and returns the appropriate variant.
func NewPacketFromBytes(data [PacketSize]byte) (Packet, error) {
	mrag, mragErrs := DecodeMRAG(data[0], data[1])
	b := base{mrag: mrag, original: data}

	if mragErrs >= 2 {
		// Uncorrectable MRAG: still emit a packet so callers can count it,
		// per spec.md §7 MalformedPacket.
		var payload [PacketSize - 2]byte
		copy(payload[:], data[2:])
		return RawPacket{base: b, Payload: payload}, &Error{Kind: MalformedPacket, Msg: "uncorrectable MRAG"}
	}

	switch {
	case mrag.Row == 0:
		return newHeaderPacket(b, data), nil
	case mrag.Row >= 1 && mrag.Row <= 25:
		return newDisplayPacket(b, data), nil
	case mrag.Row == 26:
		return newEnhancementPacket(b, data), nil
	case mrag.Row == 27:
		dc := Hamming8Decode(data[2]).Nibble
		if dc < 4 {
			return newFastextPacket(b, data), nil
		}
		return newEnhancementPacket(b, data), nil
	case mrag.Row == 28 || mrag.Row == 29:
		return newEnhancementPacket(b, data), nil
	case mrag.Row == 30 && mrag.Magazine == 8:
		return newBroadcastPacket(b, data), nil
	case mrag.Row == 30:
		return newIndependentDataPacket(b, data), nil
	default:
		var payload [PacketSize - 2]byte
		copy(payload[:], data[2:])
		return RawPacket{base: b, Payload: payload}, nil
	}
}

// --- Display ---------------------------------------------------------------

// DisplayPacket is a row 1..25 displayable line: 40 odd-parity bytes.
type DisplayPacket struct {
	base
	Displayable [40]byte // 7-bit payload, parity bit already stripped
}

func newDisplayPacket(b base, data [PacketSize]byte) DisplayPacket {
	var d DisplayPacket
	d.base = b
	for i := 0; i < 40; i++ {
		d.Displayable[i] = ParityDecode(data[2+i])
	}
	return d
}

func (p DisplayPacket) ToBytes() [PacketSize]byte {
	var out [PacketSize]byte
	out[0], out[1] = EncodeMRAG(p.mrag)
	for i, c := range p.Displayable {
		out[2+i] = ParityEncode(c)
	}
	return out
}

func (p DisplayPacket) ToANSI(colour bool) string {
	return renderDisplayable(p.Displayable[:])
}

// --- Header ------------------------------------------------------------

// PageHeader is the decoded content of a row-0 header's bytes 2..9.
type PageHeader struct {
	Page    int // 0..255 ("page number", 2 Hamming 8/4 nibbles)
	Subpage int // 0..65535 (2 bytes of subpage, low then high)
	Control int // 0..255 (control bits, high then low nibble)
}

// HeaderPacket is a row-0 packet: page header plus 32 displayable bytes.
type HeaderPacket struct {
	base
	Header      PageHeader
	Displayable [32]byte
}

func newHeaderPacket(b base, data [PacketSize]byte) HeaderPacket {
	page := int(Hamming8Decode(data[2]).Nibble) | int(Hamming8Decode(data[3]).Nibble)<<4
	subLow := int(Hamming8Decode(data[4]).Nibble) | int(Hamming8Decode(data[5]).Nibble)<<4
	subHigh := int(Hamming8Decode(data[6]).Nibble) | int(Hamming8Decode(data[7]).Nibble)<<4
	ctrlHigh := int(Hamming8Decode(data[8]).Nibble)
	ctrlLow := int(Hamming8Decode(data[9]).Nibble)

	h := HeaderPacket{
		base: b,
		Header: PageHeader{
			Page:    page,
			Subpage: subLow | subHigh<<8,
			Control: ctrlLow | ctrlHigh<<4,
		},
	}
	for i := 0; i < 32; i++ {
		h.Displayable[i] = ParityDecode(data[10+i])
	}
	return h
}

func (p HeaderPacket) ToBytes() [PacketSize]byte {
	var out [PacketSize]byte
	out[0], out[1] = EncodeMRAG(p.mrag)
	out[2] = Hamming8Encode(byte(p.Header.Page & 0xF))
	out[3] = Hamming8Encode(byte((p.Header.Page >> 4) & 0xF))
	out[4] = Hamming8Encode(byte(p.Header.Subpage & 0xF))
	out[5] = Hamming8Encode(byte((p.Header.Subpage >> 4) & 0xF))
	out[6] = Hamming8Encode(byte((p.Header.Subpage >> 8) & 0xF))
	out[7] = Hamming8Encode(byte((p.Header.Subpage >> 12) & 0xF))
	out[8] = Hamming8Encode(byte((p.Header.Control >> 4) & 0xF))
	out[9] = Hamming8Encode(byte(p.Header.Control & 0xF))
	for i, c := range p.Displayable {
		out[10+i] = ParityEncode(c)
	}
	return out
}

// PageStr renders the page address as magazine+hex page, e.g. "100".
func (p HeaderPacket) PageStr() string {
	return fmt.Sprintf("%1x%02x", p.mrag.Magazine, p.Header.Page)
}

// SubpageStr renders the subpage as 4 hex digits.
func (p HeaderPacket) SubpageStr() string {
	return fmt.Sprintf("%04x", p.Header.Subpage)
}

func (p HeaderPacket) ToANSI(colour bool) string {
	return "   P" + p.PageStr() + " " + renderDisplayable(p.Displayable[:])
}

// --- Enhancement -------------------------------------------------------

// EnhancementPacket is a row 26/28/29 packet, or row 27 with DC>=4: a
// designation code plus 13 Hamming-24/18-coded triplets.
type EnhancementPacket struct {
	base
	DC       byte
	Triplets [13]uint32 // raw 24-bit codewords, undecoded
}

func newEnhancementPacket(b base, data [PacketSize]byte) EnhancementPacket {
	e := EnhancementPacket{base: b, DC: Hamming8Decode(data[2]).Nibble}
	for i := 0; i < 13; i++ {
		off := 3 + i*3
		e.Triplets[i] = uint32(data[off]) | uint32(data[off+1])<<8 | uint32(data[off+2])<<16
	}
	return e
}

func (p EnhancementPacket) ToBytes() [PacketSize]byte {
	var out [PacketSize]byte
	out[0], out[1] = EncodeMRAG(p.mrag)
	out[2] = Hamming8Encode(p.DC)
	for i, t := range p.Triplets {
		off := 3 + i*3
		out[off] = byte(t)
		out[off+1] = byte(t >> 8)
		out[off+2] = byte(t >> 16)
	}
	return out
}

func (p EnhancementPacket) ToANSI(colour bool) string {
	return fmt.Sprintf("Row=%d DC=%d", p.mrag.Row, p.DC)
}

// Hamming24Triplet is one decoded enhancement-packet triplet.
type Hamming24Triplet struct {
	Data   uint32
	Errors int
}

// ToTriplets Hamming-24/18-decodes every triplet, recovered in meaning from
// packet.py's to_triplets(). SubpageSquash does not call it.
func (p EnhancementPacket) ToTriplets() [13]Hamming24Triplet {
	var out [13]Hamming24Triplet
	for i, t := range p.Triplets {
		data, errs := Hamming24Decode(t)
		out[i] = Hamming24Triplet{Data: data, Errors: errs}
	}
	return out
}

// --- Fastext -------------------------------------------------------------

// FastextPacket is a row-27 packet with DC<4: six navigation links.
type FastextPacket struct {
	base
	DC       byte
	Links    [6]PageLink
	LinkCtrl byte
	Checksum uint16
}

func newFastextPacket(b base, data [PacketSize]byte) FastextPacket {
	f := FastextPacket{base: b, DC: Hamming8Decode(data[2]).Nibble}
	for i := 0; i < 6; i++ {
		var linkBytes [6]byte
		copy(linkBytes[:], data[3+i*6:3+i*6+6])
		f.Links[i] = PageLinkFromBytes(linkBytes)
	}
	f.LinkCtrl = Hamming8Decode(data[39]).Nibble
	f.Checksum = uint16(data[40])<<8 | uint16(data[41])
	return f
}

func (p FastextPacket) ToBytes() [PacketSize]byte {
	var out [PacketSize]byte
	out[0], out[1] = EncodeMRAG(p.mrag)
	out[2] = Hamming8Encode(p.DC)
	for i, l := range p.Links {
		lb := l.ToBytes()
		copy(out[3+i*6:3+i*6+6], lb[:])
	}
	out[39] = Hamming8Encode(p.LinkCtrl)
	out[40] = byte(p.Checksum >> 8)
	out[41] = byte(p.Checksum)
	return out
}

func (p FastextPacket) ToANSI(colour bool) string {
	s := ""
	for i, l := range p.Links {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%d%02x", l.Magazine(p.mrag.Magazine), l.Page)
	}
	return s
}

// --- Broadcast Service Data (row 30, magazine 8) ------------------------

// BroadcastPacket is row 30, magazine 8 (BDSP).
type BroadcastPacket struct {
	base
	DC            byte
	InitialPage   PageLink
	Data          [13]byte // Hamming or full-byte coded depending on DC, see spec.md §4.5
	StatusDisplay [20]byte
}

func newBroadcastPacket(b base, data [PacketSize]byte) BroadcastPacket {
	var linkBytes [6]byte
	copy(linkBytes[:], data[3:9])

	p := BroadcastPacket{
		base:        b,
		DC:          Hamming8Decode(data[2]).Nibble,
		InitialPage: PageLinkFromBytes(linkBytes),
	}
	copy(p.Data[:], data[9:22])
	for i := 0; i < 20; i++ {
		p.StatusDisplay[i] = ParityDecode(data[22+i])
	}
	return p
}

func (p BroadcastPacket) ToBytes() [PacketSize]byte {
	var out [PacketSize]byte
	out[0], out[1] = EncodeMRAG(p.mrag)
	out[2] = Hamming8Encode(p.DC)
	lb := p.InitialPage.ToBytes()
	copy(out[3:9], lb[:])
	copy(out[9:22], p.Data[:])
	for i, c := range p.StatusDisplay {
		out[22+i] = ParityEncode(c)
	}
	return out
}

func (p BroadcastPacket) ToANSI(colour bool) string {
	return fmt.Sprintf("DC=%d %s", p.DC, renderDisplayable(p.StatusDisplay[:]))
}

// --- Independent Data Line (row 30, other magazines) --------------------

// IndependentDataPacket is row 30 for magazines other than 8. Format A/B
// selection and the magazine-4 special case both key off the designation
// code (DC, byte 2), not the IAL (byte 3): IAL is a continuity/address
// field that is always Hamming-coded regardless of format.
type IndependentDataPacket struct {
	base
	DC              byte
	IAL             byte
	FormatB         bool
	ContinuityIndex byte // valid only when FormatB
	Data            []byte
}

func newIndependentDataPacket(b base, data [PacketSize]byte) IndependentDataPacket {
	p := IndependentDataPacket{
		base: b,
		DC:   Hamming8Decode(data[2]).Nibble,
		IAL:  Hamming8Decode(data[3]).Nibble,
	}

	switch {
	case b.mrag.Magazine == 4:
		p.Data = append([]byte(nil), data[4:42]...)
	case p.DC&1 == 0: // format A
		p.Data = append([]byte(nil), data[4:42]...)
	default: // format B
		p.FormatB = true
		p.ContinuityIndex = Hamming8Decode(data[4]).Nibble
		p.Data = append([]byte(nil), data[5:42]...)
	}
	return p
}

func (p IndependentDataPacket) ToBytes() [PacketSize]byte {
	var out [PacketSize]byte
	out[0], out[1] = EncodeMRAG(p.mrag)
	out[2] = Hamming8Encode(p.DC)
	out[3] = Hamming8Encode(p.IAL)
	if p.FormatB {
		out[4] = Hamming8Encode(p.ContinuityIndex)
		copy(out[5:42], p.Data)
	} else {
		copy(out[4:42], p.Data)
	}
	return out
}

func (p IndependentDataPacket) ToANSI(colour bool) string {
	return fmt.Sprintf("IDL DC=%d IAL=%d", p.DC, p.IAL)
}
