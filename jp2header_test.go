// SPDX-License-Identifier: MIT

package jp2

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestDecodeJp2HeaderPlaceholderColr(t *testing.T) {
	c := qt.New(t)

	ihdrBody := encodeIhdr(&jp2Header{Width: 640, Height: 480, NumComps: 3, BPC: 7, Compression: 7, UnkC: 1})
	payload := encodeBox(typeIHDR, ihdrBody)
	payload = append(payload, encodeBox(typeCOLR, unknownColourspacePlaceholder)...)

	hdr, err := decodeJp2Header(payload)
	c.Assert(err, qt.IsNil)
	c.Assert(hdr.Width, qt.Equals, uint32(640))
	c.Assert(hdr.Height, qt.Equals, uint32(480))
	c.Assert(hdr.NumComps, qt.Equals, uint16(3))
	c.Assert(hdr.ICC, qt.IsNil)
}

func TestDecodeJp2HeaderWithICC(t *testing.T) {
	c := qt.New(t)

	icc := []byte("fake-icc-profile-bytes")
	colrBody := []byte{0x02, 0x00, 0x00}
	colrBody = putU32be(colrBody, uint32(len(icc)))
	colrBody = append(colrBody, icc...)

	ihdrBody := encodeIhdr(&jp2Header{Width: 1, Height: 1, NumComps: 1, BPC: 7, Compression: 7, UnkC: 1})
	payload := encodeBox(typeIHDR, ihdrBody)
	payload = append(payload, encodeBox(typeCOLR, colrBody)...)

	hdr, err := decodeJp2Header(payload)
	c.Assert(err, qt.IsNil)
	c.Assert(hdr.ICC, qt.DeepEquals, icc)
}

func TestDecodeColrRejectsOversizedLength(t *testing.T) {
	c := qt.New(t)

	body := []byte{0x02, 0x00, 0x00}
	body = putU32be(body, 9999)
	body = append(body, []byte("short")...)

	hdr := &jp2Header{}
	err := decodeColr(hdr, body)
	c.Assert(err, qt.Not(qt.IsNil))
	c.Assert(IsKind(err, CorruptedMetadata), qt.IsTrue)
}

func TestEncodeJp2HeaderRoundTripsICC(t *testing.T) {
	c := qt.New(t)

	icc := []byte("another-fake-icc-profile")
	hdr := &jp2Header{
		Width: 10, Height: 20, NumComps: 3, BPC: 7, Compression: 7, UnkC: 1,
		ICC: icc,
		subBoxes: []rawBox{
			{Type: typeIHDR},
			{Type: typeCOLR, Payload: unknownColourspacePlaceholder},
		},
	}

	box := encodeJp2Header(hdr)

	// Strip the outer jp2h box header to decode the rebuilt payload.
	boxHdr, ok, err := newBoxWalker(NewMemStream(box), int64(len(box)), 0).next()
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)
	c.Assert(boxHdr.Type, qt.Equals, typeJP2H)

	payload := box[boxHdr.PayloadOff:boxHdr.End()]
	decoded, err := decodeJp2Header(payload)
	c.Assert(err, qt.IsNil)
	c.Assert(decoded.Width, qt.Equals, uint32(10))
	c.Assert(decoded.Height, qt.Equals, uint32(20))
	c.Assert(decoded.ICC, qt.DeepEquals, icc)
}

func TestEncodeJp2HeaderDropsBoxesAfterFirstColr(t *testing.T) {
	c := qt.New(t)

	hdr := &jp2Header{
		Width: 1, Height: 1, NumComps: 1, BPC: 7, Compression: 7, UnkC: 1,
		subBoxes: []rawBox{
			{Type: typeIHDR},
			{Type: typeCOLR, Payload: unknownColourspacePlaceholder},
			{Type: typeRES, Payload: []byte("should be dropped")},
		},
	}

	box := encodeJp2Header(hdr)
	boxHdr, ok, err := newBoxWalker(NewMemStream(box), int64(len(box)), 0).next()
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)
	payload := box[boxHdr.PayloadOff:boxHdr.End()]

	var types []string
	sw := newBoxWalker(NewMemStream(payload), int64(len(payload)), 0)
	for {
		b, ok, err := sw.next()
		c.Assert(err, qt.IsNil)
		if !ok {
			break
		}
		types = append(types, b.Type)
		c.Assert(sw.skip(b), qt.IsNil)
	}
	c.Assert(types, qt.DeepEquals, []string{typeIHDR, typeCOLR})
}
