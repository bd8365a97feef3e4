// SPDX-License-Identifier: MIT

package jp2

import (
	"fmt"
	"io"
	"os"
)

// Stream is the byte-stream I/O adapter (component A): random-access
// read/write/seek/size/tell over a file or an in-memory buffer, modelled
// on the teacher's streamReader (io.go) generalized from decode-only to
// read+write, with an EOF/error flag pair instead of panic/recover, since
// this adapter is also used directly by the rewriter outside any
// recover boundary.
type Stream interface {
	io.Reader
	io.Writer
	io.Seeker
	io.Closer

	// IsOpen reports whether the stream has not yet been closed.
	IsOpen() bool
	// EOF reports whether the last Read hit end of stream.
	EOF() bool
	// Err returns the last non-EOF error encountered, if any.
	Err() error
	// Tell returns the current position.
	Tell() (int64, error)
	// Size returns the total size of the backing store.
	Size() (int64, error)
	// Transfer atomically replaces this stream's backing store with the
	// full contents of other. Either the new bytes are fully in place
	// afterward, or this stream's original content is untouched.
	Transfer(other Stream) error
}

// Seek origins, re-exported so callers don't need to import "io" just to
// call Stream.Seek.
const (
	SeekBegin   = io.SeekStart
	SeekCurrent = io.SeekCurrent
	SeekEnd     = io.SeekEnd
)

// fileStream is a Stream backed by an *os.File.
type fileStream struct {
	f       *os.File
	path    string
	isOpen  bool
	isEOF   bool
	lastErr error
}

// OpenFileStream opens path for reading and writing.
func OpenFileStream(path string) (Stream, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, wrapError(DataSourceOpenFailed, err)
	}
	return &fileStream{f: f, path: path, isOpen: true}, nil
}

// CreateFileStream creates (truncating if needed) path for writing, used
// by the rewriter for its temporary output file.
func CreateFileStream(path string) (Stream, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, wrapError(DataSourceOpenFailed, err)
	}
	return &fileStream{f: f, path: path, isOpen: true}, nil
}

func (s *fileStream) Read(p []byte) (int, error) {
	n, err := s.f.Read(p)
	if err == io.EOF {
		s.isEOF = true
	} else if err != nil {
		s.lastErr = err
	}
	return n, err
}

func (s *fileStream) Write(p []byte) (int, error) {
	n, err := s.f.Write(p)
	if err != nil {
		s.lastErr = err
	}
	return n, err
}

func (s *fileStream) Seek(offset int64, whence int) (int64, error) {
	n, err := s.f.Seek(offset, whence)
	if err != nil {
		s.lastErr = err
		return n, err
	}
	s.isEOF = false
	return n, nil
}

func (s *fileStream) Close() error {
	if !s.isOpen {
		return nil
	}
	s.isOpen = false
	return s.f.Close()
}

func (s *fileStream) IsOpen() bool { return s.isOpen }
func (s *fileStream) EOF() bool    { return s.isEOF }
func (s *fileStream) Err() error   { return s.lastErr }

func (s *fileStream) Tell() (int64, error) {
	return s.f.Seek(0, io.SeekCurrent)
}

func (s *fileStream) Size() (int64, error) {
	fi, err := s.f.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

// Transfer renames other's backing file over this stream's path after an
// fsync, per spec.md §4.A: "implemented by rename-into-place after fsync".
func (s *fileStream) Transfer(other Stream) error {
	o, ok := other.(*fileStream)
	if !ok {
		return newError(ImageWriteFailed, "transfer: incompatible stream kinds")
	}
	if err := o.f.Sync(); err != nil {
		return wrapError(ImageWriteFailed, err)
	}
	if err := o.f.Close(); err != nil {
		return wrapError(ImageWriteFailed, err)
	}
	o.isOpen = false
	if err := s.f.Close(); err != nil {
		return wrapError(ImageWriteFailed, err)
	}
	if err := os.Rename(o.path, s.path); err != nil {
		return wrapError(ImageWriteFailed, err)
	}
	f, err := os.OpenFile(s.path, os.O_RDWR, 0o644)
	if err != nil {
		return wrapError(DataSourceOpenFailed, err)
	}
	s.f = f
	s.isOpen = true
	s.isEOF = false
	s.lastErr = nil
	return nil
}

// memStream is a Stream backed by a growable in-memory buffer, used to
// back an Image constructed without a file (spec.md §3 "Lifetime").
type memStream struct {
	data    []byte
	pos     int64
	isOpen  bool
	isEOF   bool
	lastErr error
}

// NewMemStream returns a Stream over data (copied). A nil or empty data
// yields an empty, writable in-memory stream.
func NewMemStream(data []byte) Stream {
	buf := make([]byte, len(data))
	copy(buf, data)
	return &memStream{data: buf, isOpen: true}
}

func (s *memStream) Read(p []byte) (int, error) {
	if s.pos >= int64(len(s.data)) {
		s.isEOF = true
		return 0, io.EOF
	}
	n := copy(p, s.data[s.pos:])
	s.pos += int64(n)
	return n, nil
}

func (s *memStream) Write(p []byte) (int, error) {
	end := s.pos + int64(len(p))
	if end > int64(len(s.data)) {
		grown := make([]byte, end)
		copy(grown, s.data)
		s.data = grown
	}
	n := copy(s.data[s.pos:end], p)
	s.pos += int64(n)
	s.isEOF = false
	return n, nil
}

func (s *memStream) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = s.pos + offset
	case io.SeekEnd:
		newPos = int64(len(s.data)) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if newPos < 0 {
		err := fmt.Errorf("negative seek position %d", newPos)
		s.lastErr = err
		return s.pos, err
	}
	s.pos = newPos
	s.isEOF = false
	return newPos, nil
}

func (s *memStream) Close() error {
	s.isOpen = false
	return nil
}

func (s *memStream) IsOpen() bool { return s.isOpen }
func (s *memStream) EOF() bool    { return s.isEOF }
func (s *memStream) Err() error   { return s.lastErr }

func (s *memStream) Tell() (int64, error) { return s.pos, nil }
func (s *memStream) Size() (int64, error) { return int64(len(s.data)), nil }

func (s *memStream) Transfer(other Stream) error {
	o, ok := other.(*memStream)
	if !ok {
		return newError(ImageWriteFailed, "transfer: incompatible stream kinds")
	}
	replacement := make([]byte, len(o.data))
	copy(replacement, o.data)
	s.data = replacement
	s.pos = 0
	s.isEOF = false
	s.lastErr = nil
	return nil
}
