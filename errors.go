// SPDX-License-Identifier: MIT

package jp2

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the errors the core can return, per the error
// handling design: container-level parse errors are fatal for the current
// call, parser-level Exif/IPTC/XMP failures are local and never surface
// as one of these.
type ErrorKind int

const (
	// DataSourceOpenFailed means the adapter could not open the input.
	DataSourceOpenFailed ErrorKind = iota + 1
	// NotAnImage means the signature did not match.
	NotAnImage
	// CorruptedMetadata means a box-grammar violation was found.
	CorruptedMetadata
	// FailedToReadImageData means an I/O error or short read occurred
	// where bytes were required.
	FailedToReadImageData
	// InputDataReadFailed is a short read or I/O error on the input stream.
	InputDataReadFailed
	// ImageWriteFailed means a short write occurred during rewrite.
	ImageWriteFailed
	// NoImageInInputData means a write was attempted against an input
	// that does not carry a valid signature.
	NoImageInInputData
	// InvalidSettingForImage means a write-only operation unsupported by
	// JP2 was requested (e.g. comment).
	InvalidSettingForImage
)

func (k ErrorKind) String() string {
	switch k {
	case DataSourceOpenFailed:
		return "DataSourceOpenFailed"
	case NotAnImage:
		return "NotAnImage"
	case CorruptedMetadata:
		return "CorruptedMetadata"
	case FailedToReadImageData:
		return "FailedToReadImageData"
	case InputDataReadFailed:
		return "InputDataReadFailed"
	case ImageWriteFailed:
		return "ImageWriteFailed"
	case NoImageInInputData:
		return "NoImageInInputData"
	case InvalidSettingForImage:
		return "InvalidSettingForImage"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is the error type returned by every core operation that fails.
// It wraps an ErrorKind and an underlying cause so that errors.Is and
// errors.As compose the usual way.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same Kind. This mirrors
// the teacher's InvalidFormatError.Is, which matches on error shape
// instead of on a fixed sentinel value so that errors.Is(err,
// &Error{Kind: CorruptedMetadata}) works regardless of the wrapped cause.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

func newError(kind ErrorKind, format string, args ...any) error {
	var err error
	if format != "" {
		err = fmt.Errorf(format, args...)
	}
	return &Error{Kind: kind, Err: err}
}

func wrapError(kind ErrorKind, err error) error {
	return &Error{Kind: kind, Err: err}
}

// IsKind reports whether err is (or wraps) an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return errors.Is(err, &Error{Kind: kind})
}
