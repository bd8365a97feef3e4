// SPDX-License-Identifier: MIT

package exifmeta_test

import (
	"bytes"
	"fmt"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/go-cmp/cmp"
	goexif "github.com/rwcarlsen/goexif/exif"

	"github.com/jp2meta/jp2/internal/exifmeta"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := qt.New(t)

	datums := []exifmeta.Datum{
		{IFD: "IFD0", Tag: 0x010f, Type: exifmeta.TypeASCII, Count: 5, Value: "Acme"},
		{IFD: "IFD0", Tag: 0x0112, Type: exifmeta.TypeShort, Count: 1, Value: []uint16{1}},
		{IFD: "ExifIFD", Tag: 0x829a, Type: exifmeta.TypeRational, Count: 1, Value: []exifmeta.Rational{{Num: 1, Den: 200}}},
		{IFD: "ExifIFD", Tag: 0x9003, Type: exifmeta.TypeASCII, Count: 20, Value: "2024:01:02 03:04:05"},
		{IFD: "GPSInfoIFD", Tag: 0x0001, Type: exifmeta.TypeASCII, Count: 2, Value: "N"},
	}

	raw, err := exifmeta.Encode(datums)
	c.Assert(err, qt.IsNil)

	decoded, err := exifmeta.Decode(raw)
	c.Assert(err, qt.IsNil)
	c.Assert(len(decoded), qt.Equals, len(datums))

	byKey := func(ds []exifmeta.Datum) map[string]exifmeta.Datum {
		m := make(map[string]exifmeta.Datum, len(ds))
		for _, d := range ds {
			m[fmt.Sprintf("%s/%#x", d.IFD, d.Tag)] = d
		}
		return m
	}
	want, got := byKey(datums), byKey(decoded)
	if diff := cmp.Diff(want, got); diff != "" {
		c.Fatalf("datum mismatch (-want +got):\n%s", diff)
	}
}

// TestCrossCheckWithGoexif verifies our encoder produces a blob that an
// independent decoder (goexif) also parses successfully, mirroring the
// teacher's own cross-check pattern against the same library.
func TestCrossCheckWithGoexif(t *testing.T) {
	c := qt.New(t)

	datums := []exifmeta.Datum{
		{IFD: "IFD0", Tag: 0x010f, Type: exifmeta.TypeASCII, Count: 5, Value: "Acme"},
		{IFD: "IFD0", Tag: 0x0132, Type: exifmeta.TypeASCII, Count: 20, Value: "2024:01:02 03:04:05"},
	}
	raw, err := exifmeta.Encode(datums)
	c.Assert(err, qt.IsNil)

	// goexif.Decode scans for a JPEG APP1 marker (0xFF 0xE1) carrying an
	// "Exif\0\0"-prefixed TIFF stream; wrap our encoded blob the same
	// way a JPEG APP1 segment would, mirroring the teacher's own
	// cross-check test harness against this same library.
	payload := append([]byte("Exif\x00\x00"), raw...)
	segLen := len(payload) + 2
	var jpeg bytes.Buffer
	jpeg.WriteByte(0xFF)
	jpeg.WriteByte(0xE1)
	jpeg.WriteByte(byte(segLen >> 8))
	jpeg.WriteByte(byte(segLen))
	jpeg.Write(payload)

	x, err := goexif.Decode(&jpeg)
	c.Assert(err, qt.IsNil)
	tag, err := x.Get(goexif.FieldName("Make"))
	c.Assert(err, qt.IsNil)
	s, err := tag.StringVal()
	c.Assert(err, qt.IsNil)
	c.Assert(s, qt.Equals, "Acme")
}
