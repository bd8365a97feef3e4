// SPDX-License-Identifier: MIT

package iptcmeta_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/jp2meta/jp2/internal/iptcmeta"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := qt.New(t)

	datums := []iptcmeta.Datum{
		{Record: 2, Dataset: 5, Value: []byte("Sunrise in Spain")},
		{Record: 2, Dataset: 80, Value: []byte("Bjørn Erik Pedersen")},
		{Record: 2, Dataset: 116, Value: []byte("(c) Acme")},
	}

	encoded := iptcmeta.Encode(datums)
	decoded, err := iptcmeta.Decode(encoded)
	c.Assert(err, qt.IsNil)

	// The encoder prepends a UTF-8 CodedCharacterSet escape; Decode
	// consumes it into the charset state machine rather than yielding it
	// back as a datum, so the decoded set should match the input exactly.
	c.Assert(len(decoded), qt.Equals, len(datums))
	for i, d := range decoded {
		c.Assert(d.Record, qt.Equals, datums[i].Record)
		c.Assert(d.Dataset, qt.Equals, datums[i].Dataset)
		c.Assert(string(d.Value), qt.Equals, string(datums[i].Value))
	}
}

func TestDecodeISO88591Escape(t *testing.T) {
	c := qt.New(t)

	// Record 1:90 selects ISO-8859-1, followed by a record 2:5 string
	// holding raw Latin-1 bytes (0xE9 = "é"), built by hand since
	// Encode always normalises to the UTF-8 escape.
	var raw []byte
	raw = append(raw, 0x1C, 1, 90, 0, 3, 0x1B, '.', 'A')
	raw = append(raw, 0x1C, 2, 5, 0, 4, 'c', 0xE9, 'd', 0xE9)

	decoded, err := iptcmeta.Decode(raw)
	c.Assert(err, qt.IsNil)
	c.Assert(len(decoded), qt.Equals, 1)
	c.Assert(decoded[0].Record, qt.Equals, uint8(2))
	c.Assert(string(decoded[0].Value), qt.Equals, "cédé")
}
