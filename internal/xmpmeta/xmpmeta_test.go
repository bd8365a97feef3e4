// SPDX-License-Identifier: MIT

package xmpmeta_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/jp2meta/jp2/internal/xmpmeta"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := qt.New(t)

	datums := []xmpmeta.Datum{
		{Namespace: "dc", Name: "title", Value: "Sunrise in Spain"},
		{Namespace: "photoshop", Name: "Credit", Value: "Acme"},
	}

	packet := xmpmeta.Encode(datums)
	decoded, err := xmpmeta.Decode(packet)
	c.Assert(err, qt.IsNil)
	c.Assert(len(decoded), qt.Equals, len(datums))

	byName := func(ds []xmpmeta.Datum) map[string]string {
		m := make(map[string]string, len(ds))
		for _, d := range ds {
			m[d.Namespace+":"+d.Name] = d.Value
		}
		return m
	}
	got := byName(decoded)
	c.Assert(got["dc:title"], qt.Equals, "Sunrise in Spain")
	c.Assert(got["photoshop:Credit"], qt.Equals, "Acme")
}

func TestDecodeBareRDF(t *testing.T) {
	c := qt.New(t)

	packet := []byte(`<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns:dc="http://purl.org/dc/elements/1.1/">` +
		`<rdf:Description rdf:about="" dc:format="image/jp2"/></rdf:RDF>`)
	decoded, err := xmpmeta.Decode(packet)
	c.Assert(err, qt.IsNil)
	c.Assert(len(decoded), qt.Equals, 1)
	c.Assert(decoded[0].Name, qt.Equals, "format")
	c.Assert(decoded[0].Value, qt.Equals, "image/jp2")
}
