// SPDX-License-Identifier: MIT

package jp2

import (
	"io"
	"time"
)

// rewriteJP2 walks src (already signature-verified) top to bottom,
// copying every box verbatim except jp2h (rebuilt from the Image's
// current header state) and uuid boxes (dropped and replaced per the
// Image's current Exif/IPTC/XMP state), and writes the result to dst.
// Single forward pass, no backtracking, mirroring the teacher's
// streaming-decode architecture applied in reverse — grounded on
// imagemeta.go's single-pass Decode loop.
func rewriteJP2(img *Image, src, dst Stream, budget int, timeout time.Duration) error {
	if err := verifySignature(src); err != nil {
		return err
	}
	if _, err := dst.Write(jp2Signature); err != nil {
		return wrapError(ImageWriteFailed, err)
	}

	size, err := src.Size()
	if err != nil {
		return wrapError(InputDataReadFailed, err)
	}

	w := newBoxWalker(src, size, budget).withDeadline(timeout)
	wroteHeader := false

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
			if err := writeBoxRaw(dst, encodeJp2Header(img.header)); err != nil {
				return err
			}
			if err := writeMetadataUUIDs(img, dst); err != nil {
				return err
			}
			wroteHeader = true
			if err := w.skip(b); err != nil {
				return err
			}
		case typeUUID:
			// Original uuid box is dropped; the fresh set is emitted
			// immediately after jp2h, above.
			if err := w.skip(b); err != nil {
				return err
			}
		default:
			// Streamed through without buffering the payload; a length-0
			// box is written with its explicit length.
			if err := writeBoxRaw(dst, append(putU32be(nil, b.Length), b.Type...)); err != nil {
				return err
			}
			if _, err := io.CopyN(dst, src, b.PayloadLen); err == io.EOF {
				return wrapError(InputDataReadFailed, err)
			} else if err != nil {
				return wrapError(ImageWriteFailed, err)
			}
		}
	}

	if !wroteHeader {
		return newError(CorruptedMetadata, "input has no jp2h box")
	}
	return nil
}

// writeMetadataUUIDs emits the Exif/IPTC/XMP uuid boxes currently set on
// img, in that fixed order, skipping any that are empty. Clearing a
// field (spec.md §8 invariant 5, "stripping") simply omits its box.
func writeMetadataUUIDs(img *Image, dst Stream) error {
	if len(img.exifRaw) > 0 {
		if err := writeBoxRaw(dst, makeUUIDBox(uuidExif, img.exifRaw)); err != nil {
			return err
		}
	}
	if len(img.iptcRaw) > 0 {
		if err := writeBoxRaw(dst, makeUUIDBox(uuidIPTC, img.iptcRaw)); err != nil {
			return err
		}
	}
	if len(img.xmpRaw) > 0 {
		if err := writeBoxRaw(dst, makeUUIDBox(uuidXMP, img.xmpRaw)); err != nil {
			return err
		}
	}
	return nil
}

func writeBoxRaw(dst Stream, b []byte) error {
	if _, err := dst.Write(b); err != nil {
		return wrapError(ImageWriteFailed, err)
	}
	return nil
}
