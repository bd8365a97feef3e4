// SPDX-License-Identifier: MIT

package jp2

import "encoding/binary"

// u16be decodes a big-endian uint16 from the first two bytes of b.
func u16be(b []byte) (uint16, error) {
	if len(b) < 2 {
		return 0, newError(CorruptedMetadata, "short read: need 2 bytes, have %d", len(b))
	}
	return binary.BigEndian.Uint16(b), nil
}

// u32be decodes a big-endian uint32 from the first four bytes of b.
func u32be(b []byte) (uint32, error) {
	if len(b) < 4 {
		return 0, newError(CorruptedMetadata, "short read: need 4 bytes, have %d", len(b))
	}
	return binary.BigEndian.Uint32(b), nil
}

// u64be decodes a big-endian uint64 from the first eight bytes of b, used
// to read the extended-length box header field so the walker can report
// its true value before rejecting it (spec.md §9.3: length==1 is rejected
// outright, no 64-bit extension implemented).
func u64be(b []byte) (uint64, error) {
	if len(b) < 8 {
		return 0, newError(CorruptedMetadata, "short read: need 8 bytes, have %d", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

// putU16be appends the big-endian encoding of v to dst.
func putU16be(dst []byte, v uint16) []byte {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	return append(dst, buf[:]...)
}

// putU32be appends the big-endian encoding of v to dst.
func putU32be(dst []byte, v uint32) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	return append(dst, buf[:]...)
}

// readFull reads exactly len(p) bytes from s, wrapping short reads as
// InputDataReadFailed the way the teacher's streamReader.read1/2/4/8r do
// via stop(), but returning the error instead of panicking.
func readFull(s Stream, p []byte) (int, error) {
	total := 0
	for total < len(p) {
		n, err := s.Read(p[total:])
		total += n
		if err != nil {
			return total, wrapError(InputDataReadFailed, err)
		}
	}
	return total, nil
}
