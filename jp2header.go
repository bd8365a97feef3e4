// SPDX-License-Identifier: MIT

package jp2

import "bytes"

// jp2Header holds the decoded contents of the jp2h super-box. subBoxes
// preserves every sub-box seen, in original order, as raw (type,
// payload) pairs so the re-encoder can reproduce the original layout
// verbatim up to the first colr — per spec.md §4.G's faithful
// stop-after-first-colr behaviour. ihdr's fields are additionally
// unpacked for the image model; colr's ICC bytes (if any) are
// additionally unpacked into ICC.
type jp2Header struct {
	Width       uint32
	Height      uint32
	NumComps    uint16
	BPC         byte
	Compression byte
	UnkC        byte
	IPR         byte
	Profile     uint16

	// ICC holds the decoded ICC profile bytes, or nil if the first colr
	// box was the unknown-colourspace placeholder (or no colr was
	// present at all).
	ICC []byte

	colrConsumed bool
	subBoxes     []rawBox
}

// rawBox is one sub-box of jp2h, kept verbatim for lossless passthrough.
type rawBox struct {
	Type    string
	Payload []byte
}

// decodeJp2Header walks the payload of a jp2h box and extracts ihdr/colr,
// per spec.md §4.D, recording every sub-box (including ihdr and colr
// themselves) into subBoxes for the re-encoder.
//
// Faithful quirk (spec.md §9 open question 1): only the first colr box
// encountered is decoded into ICC; any subsequent colr box is recorded
// in subBoxes but not inspected.
func decodeJp2Header(payload []byte) (*jp2Header, error) {
	s := NewMemStream(payload)
	w := newBoxWalker(s, int64(len(payload)), defaultBoxBudget)
	hdr := &jp2Header{}

	for {
		b, ok, err := w.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		body, err := w.readPayload(b)
		if err != nil {
			return nil, err
		}
		hdr.subBoxes = append(hdr.subBoxes, rawBox{Type: b.Type, Payload: body})

		switch b.Type {
		case typeIHDR:
			if err := decodeIhdr(hdr, body); err != nil {
				return nil, err
			}
		case typeCOLR:
			if hdr.colrConsumed {
				continue
			}
			if err := decodeColr(hdr, body); err != nil {
				return nil, err
			}
			hdr.colrConsumed = true
		}
	}
	return hdr, nil
}

// decodeIhdr reads ihdr's fields, per spec.md §4.D: u32 height, u32
// width, u16 components, u8 bpc, u8 compression, u8 unknown_cs, u8 ipf,
// u16 profile.
func decodeIhdr(hdr *jp2Header, body []byte) error {
	const ihdrSize = 16
	if len(body) < ihdrSize {
		return newError(CorruptedMetadata, "ihdr box too short: %d bytes", len(body))
	}
	height, err := u32be(body[0:4])
	if err != nil {
		return err
	}
	width, err := u32be(body[4:8])
	if err != nil {
		return err
	}
	numComps, err := u16be(body[8:10])
	if err != nil {
		return err
	}
	profile, err := u16be(body[14:16])
	if err != nil {
		return err
	}
	hdr.Height = height
	hdr.Width = width
	hdr.NumComps = numComps
	hdr.BPC = body[10]
	hdr.Compression = body[11]
	hdr.UnkC = body[12]
	hdr.IPR = body[13]
	hdr.Profile = profile
	return nil
}

// unknownColourspacePlaceholder is the literal 15-byte "unknown
// colourspace" colr payload, per spec.md §4.G / §9 open question 2: not
// a standards-conforming enumerated colourspace, preserved verbatim.
var unknownColourspacePlaceholder = []byte{
	0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x00,
	0x05, 0x1c, 'u', 'u', 'i', 'd',
}

// decodeColr reads colr's pad and ICC bytes, per spec.md §4.D: skip a
// 3-byte pad, read u32 icc_length, then icc_length bytes of ICC. The
// literal unknown-colourspace placeholder is recognised as a sentinel
// for "no ICC held" rather than run through that generic layout — its
// own icc_length field (16) exceeds the 12 bytes that follow the 3-byte
// pad (only 8 follow the field itself), which is why it needs this
// special case to decode as "empty" instead of CorruptedMetadata.
func decodeColr(hdr *jp2Header, body []byte) error {
	if len(body) == len(unknownColourspacePlaceholder) && bytes.Equal(body, unknownColourspacePlaceholder) {
		hdr.ICC = nil
		return nil
	}
	if len(body) < 7 {
		return newError(CorruptedMetadata, "colr payload too short: %d bytes", len(body))
	}
	iccLen, err := u32be(body[3:7])
	if err != nil {
		return err
	}
	if iccLen > uint32(len(body))-3 {
		return newError(CorruptedMetadata, "colr icc_length %d exceeds payload", iccLen)
	}
	// The check above (taken verbatim from spec.md §4.D) bounds icc_length
	// against payload_size-3, not against the 4 bytes the length field
	// itself occupies; guard the actual slice bounds separately.
	if int64(iccLen) > int64(len(body))-7 {
		return newError(CorruptedMetadata, "colr icc_length %d exceeds available bytes", iccLen)
	}
	hdr.ICC = append([]byte(nil), body[7:7+iccLen]...)
	return nil
}

// encodeJp2Header rebuilds a jp2h box from hdr, per spec.md §4.G: the
// original sub-boxes in order, with ihdr refreshed from hdr's fields and
// the first colr replaced by a freshly built one (ICC-bearing, or the
// unknown-colourspace placeholder if hdr.ICC is empty). Copying stops
// immediately after that first colr is emitted — sub-boxes that
// originally followed it are dropped. This is a known latent bug in the
// reference implementation (spec.md §9 open question 1), preserved here
// rather than fixed.
func encodeJp2Header(hdr *jp2Header) []byte {
	var out []byte
	colrWritten := false
	for _, sb := range hdr.subBoxes {
		switch {
		case sb.Type == typeIHDR:
			out = append(out, encodeBox(typeIHDR, encodeIhdr(hdr))...)
		case sb.Type == typeCOLR && !colrWritten:
			out = append(out, encodeBox(typeCOLR, encodeColr(hdr))...)
			colrWritten = true
		case sb.Type == typeCOLR:
			// Already wrote the replacement colr; copying stopped.
		default:
			if colrWritten {
				continue
			}
			out = append(out, encodeBox(sb.Type, sb.Payload)...)
		}
		if colrWritten && sb.Type == typeCOLR {
			break
		}
	}
	if !colrWritten {
		out = append(out, encodeBox(typeCOLR, encodeColr(hdr))...)
	}
	return encodeBox(typeJP2H, out)
}

func encodeIhdr(hdr *jp2Header) []byte {
	var body []byte
	body = putU32be(body, hdr.Height)
	body = putU32be(body, hdr.Width)
	body = putU16be(body, hdr.NumComps)
	body = append(body, hdr.BPC, hdr.Compression, hdr.UnkC, hdr.IPR)
	body = putU16be(body, hdr.Profile)
	return body
}

// encodeColr builds colr's payload: the ICC-bearing form if hdr.ICC is
// non-empty, else the literal placeholder, per spec.md §4.G.
func encodeColr(hdr *jp2Header) []byte {
	if len(hdr.ICC) == 0 {
		return append([]byte(nil), unknownColourspacePlaceholder...)
	}
	body := []byte{0x02, 0x00, 0x00}
	body = putU32be(body, uint32(len(hdr.ICC)))
	body = append(body, hdr.ICC...)
	return body
}

// encodeBox wraps payload in an 8-byte (length, type) header.
func encodeBox(typ string, payload []byte) []byte {
	out := make([]byte, 0, 8+len(payload))
	out = putU32be(out, uint32(8+len(payload)))
	out = append(out, []byte(typ)...)
	out = append(out, payload...)
	return out
}
