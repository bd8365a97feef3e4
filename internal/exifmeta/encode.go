// SPDX-License-Identifier: MIT

package exifmeta

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// Encode rebuilds a TIFF/Exif blob from datums, little-endian, laid out
// as IFD0's entry table, then (if any ExifIFD/GPSInfoIFD/InteropIFD
// datums are present) their sub-IFD tables, then IFD1 and its data area
// if present. Grounded on jrm-1535-exif/serialize.go's two-pass
// "serialize entries, then serialize data area" shape: each IFD's entry
// table is built first with its own data area appended directly after it
// (value offsets already absolute, since the IFD's position in the stream
// is known before it is encoded), then the caller places that whole blob
// at that offset and patches any pointer tags (ExifIFD/GPSInfoIFD/
// InteropIFD) that had to be left blank until the sub-IFD's final
// position was known.
func Encode(datums []Datum) ([]byte, error) {
	byIFD := map[string][]Datum{}
	for _, d := range datums {
		byIFD[d.IFD] = append(byIFD[d.IFD], d)
	}

	order := binary.LittleEndian
	out := make([]byte, 8)
	copy(out[0:2], "II")
	order.PutUint16(out[2:4], 0x002a)
	order.PutUint32(out[4:8], 8)

	subOrder := []string{"ExifIFD", "GPSInfoIFD", "InteropIFD"}

	ifd0 := append([]Datum(nil), byIFD["IFD0"]...)
	for _, name := range subOrder {
		if len(byIFD[name]) > 0 {
			ifd0 = append(ifd0, Datum{IFD: "IFD0", Tag: pointerTagByIFD[name], Type: TypeLong, Count: 1})
		}
	}

	ifd0Off := uint32(len(out))
	ifd0Blob, ifd0Fixups, err := encodeIFD(ifd0, ifd0Off, order)
	if err != nil {
		return nil, err
	}
	out = append(out, ifd0Blob...)

	for _, name := range subOrder {
		sub := byIFD[name]
		if len(sub) == 0 {
			continue
		}
		subOff := uint32(len(out))
		subBlob, _, err := encodeIFD(sub, subOff, order)
		if err != nil {
			return nil, err
		}
		out = append(out, subBlob...)
		applyFixup(out, ifd0Off, ifd0Fixups, pointerTagByIFD[name], subOff, order)
	}

	if ifd1 := byIFD["IFD1"]; len(ifd1) > 0 {
		ifd1Off := uint32(len(out))
		patchNextIFDOffset(out, ifd0Off, ifd1Off, order)
		ifd1Blob, _, err := encodeIFD(ifd1, ifd1Off, order)
		if err != nil {
			return nil, err
		}
		out = append(out, ifd1Blob...)
	}

	return out, nil
}

// fixup records the offset, relative to the start of the IFD blob that
// contains it, of a sub-IFD pointer tag's 4-byte value slot.
type fixup struct {
	tag        uint16
	slotInBlob uint32
}

// encodeIFD serializes one IFD's entry table followed by its data area.
// base is the absolute offset at which the caller will place the blob;
// data-area value offsets are written relative to the TIFF stream start.
// A datum whose tag names a sub-IFD pointer (ExifIFD/GPSInfoIFD/
// InteropIFD) is written with a placeholder value and reported back via
// the returned fixups for the caller to patch once the sub-IFD's
// absolute offset is known.
func encodeIFD(datums []Datum, base uint32, order binary.ByteOrder) ([]byte, []fixup, error) {
	sorted := append([]Datum(nil), datums...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Tag < sorted[j].Tag })

	const entrySize = 12
	tableSize := 2 + entrySize*len(sorted) + 4
	entries := make([]byte, tableSize)
	order.PutUint16(entries[0:2], uint16(len(sorted)))

	var dataArea []byte
	var fixups []fixup

	for i, d := range sorted {
		entryOff := 2 + i*entrySize
		order.PutUint16(entries[entryOff:entryOff+2], d.Tag)
		order.PutUint16(entries[entryOff+2:entryOff+4], uint16(d.Type))
		order.PutUint32(entries[entryOff+4:entryOff+8], d.Count)

		valSlot := entryOff + 8
		if _, isPointer := ifdPointerTags[d.Tag]; isPointer {
			fixups = append(fixups, fixup{tag: d.Tag, slotInBlob: uint32(valSlot)})
			continue
		}

		raw, err := encodeValue(d, order)
		if err != nil {
			return nil, nil, fmt.Errorf("exif: tag %#x: %w", d.Tag, err)
		}
		if len(raw) <= 4 {
			copy(entries[valSlot:valSlot+4], raw)
		} else {
			order.PutUint32(entries[valSlot:valSlot+4], base+uint32(tableSize+len(dataArea)))
			dataArea = append(dataArea, raw...)
			if len(raw)%2 == 1 {
				dataArea = append(dataArea, 0) // word-align, teacher convention
			}
		}
	}

	return append(entries, dataArea...), fixups, nil
}

// applyFixup patches the value slot of the fixup matching tag, found
// within the IFD blob placed at absolute offset ifdBase in buf, to target.
func applyFixup(buf []byte, ifdBase uint32, fixups []fixup, tag uint16, target uint32, order binary.ByteOrder) {
	for _, f := range fixups {
		if f.tag != tag {
			continue
		}
		abs := ifdBase + f.slotInBlob
		order.PutUint32(buf[abs:abs+4], target)
	}
}

func patchNextIFDOffset(buf []byte, ifd0Off, ifd1Off uint32, order binary.ByteOrder) {
	numEntries := int(order.Uint16(buf[ifd0Off : ifd0Off+2]))
	nextOff := ifd0Off + 2 + uint32(numEntries*12)
	order.PutUint32(buf[nextOff:nextOff+4], ifd1Off)
}

func encodeValue(d Datum, order binary.ByteOrder) ([]byte, error) {
	switch d.Type {
	case TypeASCII:
		s, _ := d.Value.(string)
		b := append([]byte(s), 0)
		return b, nil
	case TypeByte, TypeUndefined, TypeSByte:
		b, _ := d.Value.([]byte)
		return b, nil
	case TypeShort:
		vals, _ := d.Value.([]uint16)
		out := make([]byte, len(vals)*2)
		for i, v := range vals {
			order.PutUint16(out[i*2:], v)
		}
		return out, nil
	case TypeLong:
		vals, _ := d.Value.([]uint32)
		out := make([]byte, len(vals)*4)
		for i, v := range vals {
			order.PutUint32(out[i*4:], v)
		}
		return out, nil
	case TypeRational:
		vals, _ := d.Value.([]Rational)
		out := make([]byte, len(vals)*8)
		for i, v := range vals {
			order.PutUint32(out[i*8:], v.Num)
			order.PutUint32(out[i*8+4:], v.Den)
		}
		return out, nil
	case TypeSShort:
		vals, _ := d.Value.([]int16)
		out := make([]byte, len(vals)*2)
		for i, v := range vals {
			order.PutUint16(out[i*2:], uint16(v))
		}
		return out, nil
	case TypeSLong:
		vals, _ := d.Value.([]int32)
		out := make([]byte, len(vals)*4)
		for i, v := range vals {
			order.PutUint32(out[i*4:], uint32(v))
		}
		return out, nil
	case TypeSRational:
		vals, _ := d.Value.([]SRational)
		out := make([]byte, len(vals)*8)
		for i, v := range vals {
			order.PutUint32(out[i*8:], uint32(v.Num))
			order.PutUint32(out[i*8+4:], uint32(v.Den))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported type %d", d.Type)
	}
}
