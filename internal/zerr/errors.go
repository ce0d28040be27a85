// Package zerr collects the structured error types shared by the cd, dostime, and root zipcore packages.
//
// Each type mirrors a single error kind from the archive format: a short-read of a fixed or variable-length
// record section, a signature mismatch, or an integrity failure at the end of decompression. Every type
// implements error and, where it wraps an underlying cause, Unwrap() error, so callers can use errors.Is/As
// the same way the rest of this module's dependency graph does.
package zerr

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
)

// RecordKind names which of the three packed ZIP records an error occurred in.
type RecordKind string

const (
	KindEOCD RecordKind = "EOCD"
	KindCDFH RecordKind = "CDFH"
	KindLFH  RecordKind = "LFH"
)

// ErrTruncatedSource is returned when the source is shorter than the minimum possible EOCD record (22 bytes).
var ErrTruncatedSource = errors.New("source shorter than minimum EOCD size")

// ErrEOCDNotFound is returned when no EOCD signature verifies within the trailing search window.
var ErrEOCDNotFound = errors.New("end of central directory record not found; source is likely not a ZIP archive")

// ErrMultiVolumeUnsupported is returned when the EOCD's disk fields indicate a spanned archive.
var ErrMultiVolumeUnsupported = errors.New("multi-volume (spanned) archives are not supported")

// ErrDuplicateName is returned by the entry index when two central directory file headers declare the same name.
var ErrDuplicateName = errors.New("duplicate member name in central directory")

// ErrBadLFHSignature is returned when the 4 bytes at entry.LFHOffset do not match the local file header signature.
var ErrBadLFHSignature = errors.New("bad local file header signature")

// TruncatedHeaderError is returned when a fixed-size record prefix could not be read in full.
type TruncatedHeaderError struct {
	Kind RecordKind
	Want int
	Got  int
}

func (e *TruncatedHeaderError) Error() string {
	return fmt.Sprintf("truncated %s fixed header: need %d bytes, read %d", e.Kind, e.Want, e.Got)
}

// TruncatedTailError is returned when a variable-length tail (name, extra, or comment) could not be read in full.
type TruncatedTailError struct {
	Kind RecordKind
	Tail string
	Want int
	Got  int
}

func (e *TruncatedTailError) Error() string {
	return fmt.Sprintf("truncated %s %s: need %d bytes, read %d", e.Kind, e.Tail, e.Want, e.Got)
}

// BadSignatureError is returned when a record's leading 4-byte signature does not match what was expected.
type BadSignatureError struct {
	Kind  RecordKind
	Index int
	Got   uint32
	Want  uint32
}

func (e *BadSignatureError) Error() string {
	if e.Kind == KindCDFH {
		return fmt.Sprintf("bad %s signature at record #%d: got 0x%08x, want 0x%08x", e.Kind, e.Index, e.Got, e.Want)
	}
	return fmt.Sprintf("bad %s signature: got 0x%08x, want 0x%08x", e.Kind, e.Got, e.Want)
}

// UnsupportedMethodError is returned when a CDFH's compression method is neither Stored (0) nor Deflate (8), or
// when general-purpose bit 3 (data descriptor) is set alongside zero-valued CDFH sizes.
type UnsupportedMethodError struct {
	Method uint16
}

func (e *UnsupportedMethodError) Error() string {
	return fmt.Sprintf("unsupported compression method: %d", e.Method)
}

// DateTimeRangeError is returned when a DOS date/time field decodes to a value outside the accepted window.
type DateTimeRangeError struct {
	Reason string
}

func (e *DateTimeRangeError) Error() string {
	return fmt.Sprintf("DOS date/time out of range: %s", e.Reason)
}

// SizeMismatchError is returned when the number of bytes written to the sink does not match the CDFH's declared
// uncompressed size.
type SizeMismatchError struct {
	Expected uint64
	Got      uint64
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("uncompressed size mismatch: expected %s, got %s",
		humanize.Bytes(e.Expected), humanize.Bytes(e.Got))
}

// CrcMismatchError is returned when the computed CRC-32 of the decompressed stream does not match the CDFH's
// declared CRC-32.
type CrcMismatchError struct {
	Expected uint32
	Got      uint32
}

func (e *CrcMismatchError) Error() string {
	return fmt.Sprintf("CRC-32 mismatch: expected 0x%08x, got 0x%08x", e.Expected, e.Got)
}

// SourceError wraps an I/O error surfaced unchanged from the underlying byte source.
type SourceError struct {
	Err error
}

func (e *SourceError) Error() string { return fmt.Sprintf("source error: %v", e.Err) }
func (e *SourceError) Unwrap() error { return e.Err }

// SinkError wraps an I/O error surfaced unchanged from the caller-supplied sink.
type SinkError struct {
	Err error
}

func (e *SinkError) Error() string { return fmt.Sprintf("sink error: %v", e.Err) }
func (e *SinkError) Unwrap() error { return e.Err }

// OutOfMemoryError describes a failed allocation of a declared-length buffer. No decoder in this module
// returns it: every declared tail length is a 16-bit field, and the tail buffers are allocated with make,
// without any recovery from an allocation failure.
type OutOfMemoryError struct {
	Requested int
	Cause     any
}

func (e *OutOfMemoryError) Error() string {
	return fmt.Sprintf("out of memory allocating %s: %v", humanize.Bytes(uint64(e.Requested)), e.Cause)
}
