// SPDX-License-Identifier: MIT

package jp2

// blankTemplate is the minimal 219-byte JP2 byte sequence used to back a
// newly constructed in-memory image that has no source bytes, per
// spec.md §3's "Blank template": signature, a minimal ftyp (brand "jp2 ",
// minor version 0, one compatible brand "jp2 "), a minimal
// jp2h (1x1 ihdr plus the unknown-colourspace placeholder colr), and a
// minimal jp2c. Built once at init from the same box-encoding helpers
// the rest of this package uses, rather than typed out as a flat byte
// literal, so its structure stays obviously consistent with box.go and
// jp2header.go.
var blankTemplate = buildBlankTemplate()

func buildBlankTemplate() []byte {
	var out []byte
	out = append(out, jp2Signature...)

	ftypPayload := append([]byte("jp2 "), 0, 0, 0, 0)
	ftypPayload = append(ftypPayload, []byte("jp2 ")...)
	out = append(out, encodeBox(typeFTYP, ftypPayload)...)

	hdr := &jp2Header{
		Width: 1, Height: 1, NumComps: 1,
		BPC: 7, Compression: 7, UnkC: 1, IPR: 0,
		subBoxes: []rawBox{
			{Type: typeIHDR},
			{Type: typeCOLR, Payload: append([]byte(nil), unknownColourspacePlaceholder...)},
		},
	}
	out = append(out, encodeJp2Header(hdr)...)

	jp2cPayload := make([]byte, 124)
	out = append(out, encodeBox(typeJP2C, jp2cPayload)...)

	return out
}

// NewBlank returns a new in-memory Image backed by the blank template.
func NewBlank(opts Options) (*Image, error) {
	return OpenMem(blankTemplate, opts)
}
