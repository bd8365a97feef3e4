// SPDX-License-Identifier: MIT

package jp2

import (
	"fmt"
	"time"
)

// Box type FourCCs. The core assigns special handling only to jp2h and
// uuid; every other recognised type here is still walked (for
// print_structure and budget accounting) and otherwise passed through
// verbatim by the rewriter. Vocabulary enriched from
// mrjoshuak/go-jpeg2000's internal/box FourCC catalogue.
const (
	typeJP   = "jP  "
	typeFTYP = "ftyp"
	typeJP2H = "jp2h"
	typeIHDR = "ihdr"
	typeBPCC = "bpcc"
	typeCOLR = "colr"
	typePCLR = "pclr"
	typeCMAP = "cmap"
	typeCDEF = "cdef"
	typeRES  = "res "
	typeRESC = "resc"
	typeRESD = "resd"
	typeJP2C = "jp2c"
	typeJP2I = "jp2i"
	typeXML  = "xml "
	typeUUID = "uuid"
	typeUINF = "uinf"
	typeULST = "ulst"
	typeURL  = "url "
	typeJPCH = "jpch"
	typeJPTH = "jpth"
)

// jp2Signature is the fixed 12-byte box that must open every JP2 file.
var jp2Signature = []byte{0x00, 0x00, 0x00, 0x0c, 'j', 'P', ' ', ' ', 0x0d, 0x0a, 0x87, 0x0a}

// defaultBoxBudget bounds the number of boxes a single walk will visit,
// shared symmetrically between reader and writer per spec.md §9.4.
const defaultBoxBudget = 1000

// boxHeader is the 8-byte (length, type) pair every box begins with, plus
// the stream offsets a walker needs to read the payload or skip past it.
type boxHeader struct {
	Type       string
	Length     uint32 // includes the 8-byte header itself
	HeaderSize int64  // 8, always, since extended length (length==1) is rejected
	PayloadOff int64  // stream offset of the first payload byte
	PayloadLen int64  // Length - HeaderSize
}

// End returns the stream offset one past this box's last byte.
func (h boxHeader) End() int64 {
	return h.PayloadOff + h.PayloadLen
}

// boxWalker sequentially reads boxes from a Stream starting at its current
// position, validating each header against the remaining bytes in bound
// and enforcing the box-count budget. Modelled on the teacher's
// imagedecoder_heif.go readBox closure, generalized from a single
// trusted decode pass to a validating walk.
type boxWalker struct {
	s       Stream
	bound   int64 // stream offset one past the last byte this walker may touch
	budget  int
	visited int
	// deadline is the wall-clock time next() must stop working by, checked
	// between box visits (never mid-box); zero means no deadline. Set from
	// Options.Timeout so a read or write can't be kept busy indefinitely by
	// adversarial input, per the box-count budget's sibling invariant.
	deadline time.Time
}

// newBoxWalker creates a walker over s, starting at the stream's current
// position and permitted to read up to (but not past) bound.
func newBoxWalker(s Stream, bound int64, budget int) *boxWalker {
	if budget <= 0 {
		budget = defaultBoxBudget
	}
	return &boxWalker{s: s, bound: bound, budget: budget}
}

// withDeadline sets the walker's wall-clock deadline; a zero d leaves the
// walker unbounded in time.
func (w *boxWalker) withDeadline(d time.Duration) *boxWalker {
	if d > 0 {
		w.deadline = time.Now().Add(d)
	}
	return w
}

// next reads the next box header, or returns (false, nil) at the bound.
func (w *boxWalker) next() (boxHeader, bool, error) {
	pos, err := w.s.Tell()
	if err != nil {
		return boxHeader{}, false, wrapError(InputDataReadFailed, err)
	}
	if pos >= w.bound {
		return boxHeader{}, false, nil
	}
	if w.visited >= w.budget {
		return boxHeader{}, false, newError(CorruptedMetadata, "box budget of %d exceeded", w.budget)
	}
	if !w.deadline.IsZero() && time.Now().After(w.deadline) {
		return boxHeader{}, false, newError(CorruptedMetadata, "box walk exceeded its time budget")
	}
	if pos+8 > w.bound {
		return boxHeader{}, false, newError(CorruptedMetadata, "truncated box header at offset %d", pos)
	}

	var hdr [8]byte
	if _, err := readFull(w.s, hdr[:]); err != nil {
		return boxHeader{}, false, err
	}
	length, err := u32be(hdr[0:4])
	if err != nil {
		return boxHeader{}, false, err
	}
	typ := string(hdr[4:8])

	switch length {
	case 0:
		// Box extends to the end of the enclosing container (only valid
		// for the outermost walk's last box, since sub-walks are always
		// bounded). Treat it as "fill the remaining bound".
		payloadLen := w.bound - (pos + 8)
		if payloadLen < 0 {
			return boxHeader{}, false, newError(CorruptedMetadata, "box %q at %d overruns its container", typ, pos)
		}
		w.visited++
		return boxHeader{Type: typ, Length: uint32(8 + payloadLen), HeaderSize: 8, PayloadOff: pos + 8, PayloadLen: payloadLen}, true, nil
	case 1:
		// Extended (64-bit) length. spec.md §9.3: rejected outright, no
		// 64-bit extension implemented — but the field itself is still
		// consumed so the walker's position and error report reflect the
		// box's true on-disk shape rather than stopping mid-header.
		if pos+16 > w.bound {
			return boxHeader{}, false, newError(CorruptedMetadata, "box %q at %d has truncated extended length field", typ, pos)
		}
		var ext [8]byte
		if _, err := readFull(w.s, ext[:]); err != nil {
			return boxHeader{}, false, err
		}
		extLength, err := u64be(ext[:])
		if err != nil {
			return boxHeader{}, false, err
		}
		return boxHeader{}, false, newError(CorruptedMetadata, "box %q at %d uses unsupported extended length %d", typ, pos, extLength)
	}
	if length < 8 {
		return boxHeader{}, false, newError(CorruptedMetadata, "box %q at %d has implausible length %d", typ, pos, length)
	}
	payloadLen := int64(length) - 8
	if pos+int64(length) > w.bound {
		return boxHeader{}, false, newError(CorruptedMetadata, "box %q at %d (length %d) overruns its container", typ, pos, length)
	}
	w.visited++
	return boxHeader{Type: typ, Length: length, HeaderSize: 8, PayloadOff: pos + 8, PayloadLen: payloadLen}, true, nil
}

// skip seeks past h's payload without reading it.
func (w *boxWalker) skip(h boxHeader) error {
	if _, err := w.s.Seek(h.End(), SeekBegin); err != nil {
		return wrapError(InputDataReadFailed, err)
	}
	return nil
}

// readPayload reads h's entire payload into memory. Used only for boxes
// the core inspects (jp2h, uuid); the rewriter streams every passthrough
// box from source to destination instead, so it never needs to buffer
// codestream data.
func (w *boxWalker) readPayload(h boxHeader) ([]byte, error) {
	if _, err := w.s.Seek(h.PayloadOff, SeekBegin); err != nil {
		return nil, wrapError(InputDataReadFailed, err)
	}
	buf := make([]byte, h.PayloadLen)
	if _, err := readFull(w.s, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (h boxHeader) String() string {
	return fmt.Sprintf("%s @%d len=%d", h.Type, h.PayloadOff-h.HeaderSize, h.Length)
}

// verifySignature checks that s begins with the fixed JP2 signature box,
// per spec.md §4.C, returning NotAnImage if it does not.
func verifySignature(s Stream) error {
	if _, err := s.Seek(0, SeekBegin); err != nil {
		return wrapError(InputDataReadFailed, err)
	}
	buf := make([]byte, len(jp2Signature))
	if _, err := readFull(s, buf); err != nil {
		return wrapError(NotAnImage, err)
	}
	for i, b := range jp2Signature {
		if buf[i] != b {
			return newError(NotAnImage, "missing JP2 signature box")
		}
	}
	return nil
}
