// SPDX-License-Identifier: MIT

// Package xmpmeta decodes an XMP packet's rdf:Description into a flat
// set of namespace-qualified datums, and encodes datums back into a
// minimal packet. The core also supports writing a caller-supplied raw
// packet string directly, bypassing this package entirely, per spec.md
// §4.F's writeXmpFromPacket escape hatch — that path lives in the core,
// not here.
package xmpmeta

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// Datum is one XMP property: its namespace prefix (e.g. "dc"; Decode
// returns the full URI for a namespace it does not recognise), local
// name, and string value. Sequence/bag/alt list properties are flattened to repeated
// Datums with the same Name, matching the teacher's seqList/bagList/
// altList handling in metadecoder_xmp.go.
type Datum struct {
	Namespace string
	Name      string
	Value     string
}

type rdf struct {
	XMLName      xml.Name         `xml:"RDF"`
	Descriptions []rdfDescription `xml:"Description"`
}

type rdfDescription struct {
	Attrs     []xml.Attr `xml:",any,attr"`
	Creator   seqList    `xml:"creator"`
	Publisher bagList    `xml:"publisher"`
	Subject   bagList    `xml:"subject"`
	Rights    altList    `xml:"rights"`

	GPSLatitude    string `xml:"GPSLatitude"`
	GPSLongitude   string `xml:"GPSLongitude"`
	GPSAltitude    string `xml:"GPSAltitude"`
	GPSAltitudeRef string `xml:"GPSAltitudeRef"`
}

type altList struct {
	Alt struct {
		Items []string `xml:"li"`
	} `xml:"Alt"`
}

type seqList struct {
	Seq struct {
		Items []string `xml:"li"`
	} `xml:"Seq"`
}

type bagList struct {
	Bag struct {
		Items []string `xml:"li"`
	} `xml:"Bag"`
}

type xmpmetaEnvelope struct {
	XMLName xml.Name `xml:"xmpmeta"`
	RDF     rdf      `xml:"RDF"`
}

// wellKnownNamespaces maps the real-world XMP namespace URIs a reader is
// likely to encounter back to their conventional short prefix, so callers
// get "dc"/"photoshop"/"exif" out of Decode rather than a raw URI. Encode's
// own "jp2meta:ns:<prefix>/" URIs are recovered structurally instead, by
// shortenNamespace.
var wellKnownNamespaces = map[string]string{
	"http://purl.org/dc/elements/1.1/":            "dc",
	"http://ns.adobe.com/photoshop/1.0/":          "photoshop",
	"http://ns.adobe.com/exif/1.0/":               "exif",
	"http://ns.adobe.com/tiff/1.0/":               "tiff",
	"http://ns.adobe.com/xap/1.0/":                "xmp",
	"http://ns.adobe.com/xap/1.0/rights/":         "xmpRights",
	"http://www.w3.org/1999/02/22-rdf-syntax-ns#": "rdf",
}

func shortenNamespace(space string) string {
	const prefix, suffix = "jp2meta:ns:", "/"
	if len(space) > len(prefix)+len(suffix) && space[:len(prefix)] == prefix && space[len(space)-1:] == suffix {
		return space[len(prefix) : len(space)-len(suffix)]
	}
	if short, ok := wellKnownNamespaces[space]; ok {
		return short
	}
	return space
}

// Decode parses a raw XMP packet (the bytes between <?xpacket begin...?>
// and <?xpacket end...?>, or the bare RDF if no xpacket wrapper is
// present) into a flat datum list, per the shape of
// metadecoder_xmp.go's rdfDescription struct.
func Decode(packet []byte) ([]Datum, error) {
	var env xmpmetaEnvelope
	if err := xml.Unmarshal(packet, &env); err != nil {
		// Some writers emit a bare <rdf:RDF> without the xmpmeta wrapper.
		var bareRDF rdf
		if err2 := xml.Unmarshal(packet, &bareRDF); err2 != nil {
			return nil, fmt.Errorf("xmp: %w", err)
		}
		env.RDF = bareRDF
	}

	var out []Datum
	for _, desc := range env.RDF.Descriptions {
		for _, a := range desc.Attrs {
			if a.Name.Space == "xmlns" || a.Name.Local == "about" {
				continue
			}
			out = append(out, Datum{Namespace: shortenNamespace(a.Name.Space), Name: a.Name.Local, Value: a.Value})
		}
		for _, v := range desc.Creator.Seq.Items {
			out = append(out, Datum{Namespace: "dc", Name: "creator", Value: v})
		}
		for _, v := range desc.Publisher.Bag.Items {
			out = append(out, Datum{Namespace: "dc", Name: "publisher", Value: v})
		}
		for _, v := range desc.Subject.Bag.Items {
			out = append(out, Datum{Namespace: "dc", Name: "subject", Value: v})
		}
		for _, v := range desc.Rights.Alt.Items {
			out = append(out, Datum{Namespace: "dc", Name: "rights", Value: v})
		}
		if desc.GPSLatitude != "" {
			out = append(out, Datum{Namespace: "exif", Name: "GPSLatitude", Value: desc.GPSLatitude})
		}
		if desc.GPSLongitude != "" {
			out = append(out, Datum{Namespace: "exif", Name: "GPSLongitude", Value: desc.GPSLongitude})
		}
		if desc.GPSAltitude != "" {
			out = append(out, Datum{Namespace: "exif", Name: "GPSAltitude", Value: desc.GPSAltitude})
		}
		if desc.GPSAltitudeRef != "" {
			out = append(out, Datum{Namespace: "exif", Name: "GPSAltitudeRef", Value: desc.GPSAltitudeRef})
		}
	}
	return out, nil
}

// Encode builds a minimal XMP packet wrapping datums as rdf:Description
// attributes, sufficient to round-trip what Decode extracts. Every
// namespace prefix used by a datum is declared on rdf:Description so
// Go's encoding/xml (and any other RDF reader) resolves it rather than
// leaving it as an unbound prefix.
func Encode(datums []Datum) []byte {
	seen := map[string]bool{}
	var order []string
	for _, d := range datums {
		ns := d.Namespace
		if ns == "" {
			ns = "dc"
		}
		if !seen[ns] {
			seen[ns] = true
			order = append(order, ns)
		}
	}

	var buf bytes.Buffer
	buf.WriteString("<?xpacket begin=\"\xef\xbb\xbf\" id=\"W5M0MpCehiHzreSzNTczkc9d\"?>")
	buf.WriteString(`<x:xmpmeta xmlns:x="adobe:ns:meta/"><rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">`)
	buf.WriteString(`<rdf:Description rdf:about=""`)
	for _, ns := range order {
		fmt.Fprintf(&buf, ` xmlns:%s="jp2meta:ns:%s/"`, ns, ns)
	}
	for _, d := range datums {
		ns := d.Namespace
		if ns == "" {
			ns = "dc"
		}
		fmt.Fprintf(&buf, ` %s:%s="%s"`, ns, xmlEscapeAttr(d.Name), xmlEscapeAttr(d.Value))
	}
	buf.WriteString(`/></rdf:RDF></x:xmpmeta>`)
	buf.WriteString(`<?xpacket end="w"?>`)
	return buf.Bytes()
}

func xmlEscapeAttr(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
