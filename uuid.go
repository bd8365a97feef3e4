// SPDX-License-Identifier: MIT

package jp2

import "bytes"

// UUID identifiers recognised by the dispatcher (component E). The Exif
// identifier is the ASCII string "JpgTiffExif->JP2"; IPTC uses a fixed
// binary UUID; XMP uses the well-known Adobe XMP UUID.
var (
	uuidExif = [16]byte{
		0x4a, 0x70, 0x67, 0x54, 0x69, 0x66, 0x66, 0x45,
		0x78, 0x69, 0x66, 0x2d, 0x3e, 0x4a, 0x50, 0x32,
	}
	uuidIPTC = [16]byte{
		0x33, 0xc7, 0xa4, 0xd2, 0xb8, 0x1d, 0x47, 0x23,
		0xa0, 0xba, 0xf1, 0xa3, 0xe0, 0x97, 0xad, 0x38,
	}
	uuidXMP = [16]byte{
		0xbe, 0x7a, 0xcf, 0xcb, 0x97, 0xa9, 0x42, 0xe8,
		0x9c, 0x71, 0x99, 0x94, 0x91, 0xe3, 0xaf, 0xac,
	}
)

// exifStrayMarker is the classic "Exif\0\0" six-byte marker some writers
// prepend to the UUID box payload, left over from embedding the same
// buffer they'd have written into a JPEG APP1 segment. The teacher's
// metadecoder_exif.go strips this marker when present; this dispatcher
// mirrors that special case.
var exifStrayMarker = []byte("Exif\x00\x00")

// uuidKind classifies a decoded UUID box.
type uuidKind int

const (
	uuidUnknown uuidKind = iota
	uuidKindExif
	uuidKindIPTC
	uuidKindXMP
)

// classifyUUID inspects the first 16 bytes of a uuid box's payload.
func classifyUUID(payload []byte) (uuidKind, []byte, bool) {
	if len(payload) < 16 {
		return uuidUnknown, nil, false
	}
	var id [16]byte
	copy(id[:], payload[:16])
	body := payload[16:]
	switch id {
	case uuidExif:
		return uuidKindExif, body, true
	case uuidIPTC:
		return uuidKindIPTC, body, true
	case uuidXMP:
		return uuidKindXMP, body, true
	default:
		return uuidUnknown, body, false
	}
}

// stripExifStrayMarker removes a leading "Exif\0\0" marker from body, if
// present, per spec.md §4.E's Exif special case.
func stripExifStrayMarker(body []byte) []byte {
	if bytes.HasPrefix(body, exifStrayMarker) {
		return body[len(exifStrayMarker):]
	}
	return body
}

// stripXMPLeadingGarbage trims bytes before the first '<' in an XMP
// packet body, per spec.md §4.E's XMP special case: some writers prepend
// a BOM or stray whitespace ahead of the packet's opening tag.
func stripXMPLeadingGarbage(body []byte) []byte {
	i := bytes.IndexByte(body, '<')
	if i <= 0 {
		return body
	}
	return body[i:]
}

// makeUUIDBox wraps payload in a uuid box with the given 16-byte id.
func makeUUIDBox(id [16]byte, payload []byte) []byte {
	body := make([]byte, 0, 16+len(payload))
	body = append(body, id[:]...)
	body = append(body, payload...)
	return encodeBox(typeUUID, body)
}
