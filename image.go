// SPDX-License-Identifier: MIT

package jp2

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jp2meta/jp2/internal/exifmeta"
	"github.com/jp2meta/jp2/internal/iptcmeta"
	"github.com/jp2meta/jp2/internal/xmpmeta"
)

// Options tunes the reader/writer, mirroring the teacher's
// imagemeta.Options shape (a struct of tunables passed at construction,
// no global state, no config file).
type Options struct {
	// BoxBudget bounds how many boxes a top-level walk (the reader's, the
	// writer's, or PrintStructure's) will visit. Zero means
	// defaultBoxBudget. Shared symmetrically between read and write per
	// spec.md §9.4. Walks of a jp2h box's sub-boxes always use
	// defaultBoxBudget.
	BoxBudget int
	// Warnf receives non-fatal anomalies (a stray Exif marker, XMP
	// leading garbage) instead of aborting the read. Defaults to a no-op.
	Warnf func(format string, args ...any)
	// Timeout bounds how long Open/WriteToFile may run; zero means no
	// timeout. Only checked between top-level box visits, not mid-box.
	Timeout time.Duration
}

func (o Options) warnf(format string, args ...any) {
	if o.Warnf != nil {
		o.Warnf(format, args...)
	}
}

func (o Options) boxBudget() int {
	if o.BoxBudget <= 0 {
		return defaultBoxBudget
	}
	return o.BoxBudget
}

// Image is the in-memory representation of one JP2 file's metadata: its
// jp2h contents (width/height/bit-depth/colour spec) and the raw Exif/
// IPTC/XMP payloads found in uuid boxes. The codestream (jp2c) is never
// loaded into memory; it is only ever copied byte-for-byte between
// streams by the rewriter, per spec.md §3.
type Image struct {
	path   string
	stream Stream
	opts   Options

	header *jp2Header

	exifRaw []byte
	iptcRaw []byte
	xmpRaw  []byte
}

// Open reads the JP2 structure at path without loading the codestream,
// per spec.md §3's "Lifetime". The returned Image owns an open file
// handle; call Close when done.
func Open(path string, opts Options) (*Image, error) {
	s, err := OpenFileStream(path)
	if err != nil {
		return nil, err
	}
	img := &Image{path: path, stream: s, opts: opts}
	if err := img.readMetadata(); err != nil {
		s.Close()
		return nil, err
	}
	return img, nil
}

// OpenMem reads the JP2 structure from an in-memory buffer, for callers
// without a backing file (spec.md §3's blank in-memory image use case).
func OpenMem(data []byte, opts Options) (*Image, error) {
	s := NewMemStream(data)
	img := &Image{stream: s, opts: opts}
	if err := img.readMetadata(); err != nil {
		return nil, err
	}
	return img, nil
}

// Close releases the underlying stream.
func (img *Image) Close() error {
	return img.stream.Close()
}

// readMetadata walks the top-level box sequence once, recognising jp2h
// and uuid, passing every other box. Grounded on imagemeta.go's single
// top-level Decode loop.
func (img *Image) readMetadata() error {
	if err := verifySignature(img.stream); err != nil {
		return err
	}
	size, err := img.stream.Size()
	if err != nil {
		return wrapError(InputDataReadFailed, err)
	}

	w := newBoxWalker(img.stream, size, img.opts.boxBudget()).withDeadline(img.opts.Timeout)
	for {
		b, ok, err := w.next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		switch b.Type {
		case typeJP2H:
			payload, err := w.readPayload(b)
			if err != nil {
				return err
			}
			hdr, err := decodeJp2Header(payload)
			if err != nil {
				return err
			}
			img.header = hdr
		case typeUUID:
			payload, err := w.readPayload(b)
			if err != nil {
				return err
			}
			img.dispatchUUID(payload)
		default:
			if err := w.skip(b); err != nil {
				return err
			}
		}
	}
	if img.header == nil {
		return newError(CorruptedMetadata, "no jp2h box found")
	}
	return nil
}

func (img *Image) dispatchUUID(payload []byte) {
	kind, body, known := classifyUUID(payload)
	if !known {
		return
	}
	switch kind {
	case uuidKindExif:
		stripped := stripExifStrayMarker(body)
		if len(stripped) != len(body) {
			img.opts.warnf("exif: discarded stray Exif marker ahead of the TIFF stream")
		}
		img.exifRaw = stripped
	case uuidKindIPTC:
		img.iptcRaw = body
	case uuidKindXMP:
		stripped := stripXMPLeadingGarbage(body)
		if len(stripped) != len(body) {
			img.opts.warnf("xmp: discarded %d leading garbage bytes", len(body)-len(stripped))
		}
		img.xmpRaw = stripped
	}
}

// WriteToFile rewrites the image's current metadata state back to its
// backing file, atomically (spec.md §4.H): a sibling temp file is
// written in full, then swapped into place.
func (img *Image) WriteToFile() error {
	if img.path == "" {
		return newError(ImageWriteFailed, "image has no backing file")
	}
	tmpPath := filepath.Join(filepath.Dir(img.path), "."+filepath.Base(img.path)+".tmp"+strconv.FormatInt(int64(os.Getpid()), 10))
	tmp, err := CreateFileStream(tmpPath)
	if err != nil {
		return err
	}

	if err := rewriteJP2(img, img.stream, tmp, img.opts.boxBudget(), img.opts.Timeout); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}

	if err := img.stream.Transfer(tmp); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// WriteTo rewrites the image's current metadata state to dst, for
// in-memory-backed images or callers supplying their own destination.
func (img *Image) WriteTo(dst Stream) error {
	return rewriteJP2(img, img.stream, dst, img.opts.boxBudget(), img.opts.Timeout)
}

// Width and Height report the dimensions recorded in ihdr.
func (img *Image) Width() uint32  { return img.header.Width }
func (img *Image) Height() uint32 { return img.header.Height }

// ExifDatums decodes the current raw Exif payload, per spec.md §4.F.
func (img *Image) ExifDatums() ([]exifmeta.Datum, error) {
	if len(img.exifRaw) == 0 {
		return nil, nil
	}
	return exifmeta.Decode(img.exifRaw)
}

// SetExifDatums encodes datums and replaces the Exif payload.
func (img *Image) SetExifDatums(datums []exifmeta.Datum) error {
	raw, err := exifmeta.Encode(datums)
	if err != nil {
		return wrapError(InvalidSettingForImage, err)
	}
	img.exifRaw = raw
	return nil
}

// ClearExif drops the Exif payload entirely.
func (img *Image) ClearExif() { img.exifRaw = nil }

// IPTCDatums decodes the current raw IPTC payload.
func (img *Image) IPTCDatums() ([]iptcmeta.Datum, error) {
	if len(img.iptcRaw) == 0 {
		return nil, nil
	}
	return iptcmeta.Decode(img.iptcRaw)
}

// SetIPTCDatums encodes datums and replaces the IPTC payload.
func (img *Image) SetIPTCDatums(datums []iptcmeta.Datum) {
	img.iptcRaw = iptcmeta.Encode(datums)
}

// ClearIPTC drops the IPTC payload entirely.
func (img *Image) ClearIPTC() { img.iptcRaw = nil }

// XMPDatums decodes the current raw XMP packet.
func (img *Image) XMPDatums() ([]xmpmeta.Datum, error) {
	if len(img.xmpRaw) == 0 {
		return nil, nil
	}
	return xmpmeta.Decode(img.xmpRaw)
}

// SetXMPDatums encodes datums into a fresh packet and replaces XMP.
func (img *Image) SetXMPDatums(datums []xmpmeta.Datum) {
	img.xmpRaw = xmpmeta.Encode(datums)
}

// XMPPacket returns the current raw XMP packet bytes, verbatim.
func (img *Image) XMPPacket() []byte { return img.xmpRaw }

// SetXMPPacket installs a caller-supplied raw packet verbatim, bypassing
// xmpmeta.Encode entirely, per spec.md §4.F's writeXmpFromPacket.
func (img *Image) SetXMPPacket(packet []byte) {
	img.xmpRaw = append([]byte(nil), packet...)
}

// ClearXMP drops the XMP payload entirely.
func (img *Image) ClearXMP() { img.xmpRaw = nil }

// ICCProfile returns the current ICC profile bytes, or nil if none is
// held (colr will be re-encoded as the unknown-colourspace placeholder).
func (img *Image) ICCProfile() []byte {
	return img.header.ICC
}

// SetICCProfile installs an ICC profile to be written into colr.
func (img *Image) SetICCProfile(icc []byte) {
	img.header.ICC = append([]byte(nil), icc...)
}

// ClearICC drops the ICC profile; colr will be re-encoded as the
// unknown-colourspace placeholder, per spec.md §4.G.
func (img *Image) ClearICC() {
	img.header.ICC = nil
}

// PrintMode selects what print_structure reports, per spec.md §6.
type PrintMode int

const (
	// PrintBasic lists top-level boxes only.
	PrintBasic PrintMode = iota
	// PrintRecursive also expands jp2h's sub-boxes.
	PrintRecursive
	// PrintICCProfile writes the raw ICC profile bytes instead of a tree.
	PrintICCProfile
	// PrintXMP writes the raw XMP packet bytes instead of a tree.
	PrintXMP
	// PrintIPTCErase prints the box tree as it would read after
	// write_metadata had stripped the IPTC UUID, without mutating img: a
	// read-only preview of the stripping invariant (spec.md §8 invariant 5).
	PrintIPTCErase
)

// PrintStructure writes a human-readable report to w per mode, per
// spec.md §6. For PrintRecursive/PrintIPTCErase, depth bounds the depth
// of the printed tree, counting top-level boxes as level 1: depth 1
// lists top-level boxes only, any other value also lists jp2h's
// sub-boxes; 0 means unbounded.
func (img *Image) PrintStructure(w io.Writer, mode PrintMode, depth int) error {
	switch mode {
	case PrintICCProfile:
		_, err := w.Write(img.ICCProfile())
		return err
	case PrintXMP:
		_, err := w.Write(img.xmpRaw)
		return err
	}

	size, err := img.stream.Size()
	if err != nil {
		return wrapError(InputDataReadFailed, err)
	}
	if _, err := img.stream.Seek(0, SeekBegin); err != nil {
		return wrapError(InputDataReadFailed, err)
	}
	walker := newBoxWalker(img.stream, size, img.opts.boxBudget())
	for {
		b, ok, err := walker.next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if mode == PrintIPTCErase && b.Type == typeUUID {
			payload, err := walker.readPayload(b)
			if err != nil {
				return err
			}
			if kind, _, known := classifyUUID(payload); known && kind == uuidKindIPTC {
				continue // omitted, as write_metadata would drop it
			}
			fmt.Fprintf(w, "%s\n", b.String())
			continue
		}
		fmt.Fprintf(w, "%s\n", b.String())
		if b.Type == typeJP2H && (mode == PrintRecursive || mode == PrintIPTCErase) {
			payload, err := walker.readPayload(b)
			if err != nil {
				return err
			}
			printSubBoxes(w, payload, depth)
			continue
		}
		if err := walker.skip(b); err != nil {
			return err
		}
	}
	return nil
}

func printSubBoxes(w io.Writer, payload []byte, depth int) {
	if depth == 1 {
		return
	}
	if depth > 1 {
		depth--
	}
	s := NewMemStream(payload)
	sw := newBoxWalker(s, int64(len(payload)), defaultBoxBudget)
	for {
		b, ok, err := sw.next()
		if err != nil || !ok {
			return
		}
		fmt.Fprintf(w, "  %s\n", b.String())
		sw.skip(b)
	}
}

// SetComment is unsupported by JP2: there is no box the reference
// implementation maps a free-text comment onto, per spec.md §6.
func (img *Image) SetComment(string) error {
	return newError(InvalidSettingForImage, "JP2 has no comment box")
}
