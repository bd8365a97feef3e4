// SPDX-License-Identifier: MIT

// Package iptcmeta decodes and encodes IPTC IIM records (the
// record:dataset framing used inside a JP2 uuid box, the same framing
// the teacher decodes out of a Photoshop "8BIM" resource block). It
// honours the CodedCharacterSet (record 1, dataset 90) escape sequence
// the way metadecoder_iptc.go does, transcoding ISO-8859-1 text through
// golang.org/x/text/encoding/charmap when no UTF-8 escape is present.
package iptcmeta

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

// Datum is one decoded IIM record:dataset pair. Value is always the raw
// dataset bytes (already transcoded to UTF-8 when the charset called
// for it) — this package carries no tag-name table beyond what's needed
// to detect the character-set escape, per spec.md's non-goal of deep
// IPTC tag semantics.
type Datum struct {
	Record  uint8
	Dataset uint8
	Value   []byte
}

const (
	recordEnvelope    = 1
	datasetCodedCharSet = 90
	marker              = 0x1c
)

// Decode parses a sequence of 0x1C-delimited IIM records from payload,
// per spec.md §4.F. A leading CodedCharacterSet escape selecting
// ISO-8859-1 applies to every subsequent string dataset; any other (or
// absent) escape is treated as UTF-8 already, matching the teacher's
// resolveCodedCharacterSet default. The escape dataset itself only sets
// the charset state and is not returned as a Datum.
func Decode(payload []byte) ([]Datum, error) {
	var out []Datum
	iso := charmap.ISO8859_1.NewDecoder()
	useISO := false

	pos := 0
	for pos < len(payload) {
		if payload[pos] != marker {
			// Stray bytes between records are tolerated and skipped,
			// matching the teacher's block-decoder lenience.
			pos++
			continue
		}
		if pos+5 > len(payload) {
			return out, fmt.Errorf("iptc: truncated record header at %d", pos)
		}
		record := payload[pos+1]
		dataset := payload[pos+2]
		size := int(payload[pos+3])<<8 | int(payload[pos+4])
		pos += 5
		if pos+size > len(payload) {
			return out, fmt.Errorf("iptc: record %d:%d size %d overruns payload", record, dataset, size)
		}
		raw := payload[pos : pos+size]
		pos += size

		if record == recordEnvelope && dataset == datasetCodedCharSet {
			useISO = resolveCodedCharacterSet(raw) == charsetISO88591
			continue
		}

		val := append([]byte(nil), raw...)
		if useISO && looksLikeText(dataset) {
			if decoded, err := iso.Bytes(raw); err == nil {
				val = decoded
			}
		}
		out = append(out, Datum{Record: record, Dataset: dataset, Value: val})
	}
	return out, nil
}

// looksLikeText excludes the handful of numeric datasets the teacher's
// field table marks as byte/short/uint32 rather than string, so charset
// transcoding is never applied to binary fields.
func looksLikeText(dataset uint8) bool {
	switch dataset {
	case 0, 10, 75, 76, 78, 85 /* record 2 numeric-ish fields */ :
		return false
	default:
		return true
	}
}

const (
	charsetUTF8     = "UTF-8"
	charsetISO88591 = "ISO-8859-1"
)

// resolveCodedCharacterSet mirrors metadecoder_iptc.go's escape-sequence
// table.
func resolveCodedCharacterSet(b []byte) string {
	const (
		esc           = 0x1B
		percent       = 0x25
		latinCapitalG = 0x47
		dot           = 0x2E
		latinCapitalA = 0x41
		minus         = 0x2D
	)
	if len(b) > 2 && b[0] == esc && b[1] == percent && b[2] == latinCapitalG {
		return charsetUTF8
	}
	if len(b) > 2 && b[0] == esc && b[1] == dot && b[2] == latinCapitalA {
		return charsetISO88591
	}
	if len(b) > 4 && b[0] == esc && (b[1] == dot || b[2] == dot || b[3] == dot) && b[4] == latinCapitalA {
		return charsetISO88591
	}
	if len(b) > 2 && b[0] == esc && b[1] == minus && b[2] == latinCapitalA {
		return charsetISO88591
	}
	return ""
}

// Encode rebuilds an IIM byte stream from datums in their given order,
// prefixing the UTF-8 CodedCharacterSet escape so any reader (including
// our own Decode) treats every subsequent string dataset as UTF-8.
func Encode(datums []Datum) []byte {
	var out bytes.Buffer
	writeDataset(&out, recordEnvelope, datasetCodedCharSet, []byte{0x1B, 0x25, 'G'})
	for _, d := range datums {
		if d.Record == recordEnvelope && d.Dataset == datasetCodedCharSet {
			continue
		}
		writeDataset(&out, d.Record, d.Dataset, d.Value)
	}
	return out.Bytes()
}

func writeDataset(buf *bytes.Buffer, record, dataset uint8, value []byte) {
	buf.WriteByte(marker)
	buf.WriteByte(record)
	buf.WriteByte(dataset)
	size := len(value)
	buf.WriteByte(byte(size >> 8))
	buf.WriteByte(byte(size))
	buf.Write(value)
}
