package zipcore

import (
	"github.com/kairos-oss/zipcore/internal/cd"
	"github.com/kairos-oss/zipcore/internal/dostime"
	"github.com/kairos-oss/zipcore/internal/zerr"
)

// Method identifies a member's compression method.
type Method uint16

const (
	Stored  Method = 0
	Deflate Method = 8
)

// detectMethod maps a CDFH's raw compression field to a Method, rejecting anything this core does not
// implement a decoder for.
func detectMethod(raw uint16) (Method, error) {
	switch raw {
	case uint16(Stored):
		return Stored, nil
	case uint16(Deflate):
		return Deflate, nil
	default:
		return 0, &zerr.UnsupportedMethodError{Method: raw}
	}
}

// OS identifies the platform that produced a member, decoded from the high byte of a CDFH's made-by-version
// field.
type OS int

const (
	OSUnknown OS = iota
	OSDOS
	OSUnix
)

func detectOS(hi uint8) OS {
	switch hi {
	case 0:
		return OSDOS
	case 3:
		return OSUnix
	default:
		return OSUnknown
	}
}

// dataDescriptorBit is general-purpose flag bit 3: sizes/CRC are in a trailing data descriptor rather than
// the local/central headers. This core does not support streamed archives written this way.
const dataDescriptorBit = 1 << 3

// dirAttrBit is bit 4 of the low byte of a CDFH's external attributes: the conventional "is a directory"
// marker used by Unix-style ZIP writers.
const dirAttrBit = 0x10

// Entry is an immutable member descriptor built once from a CDFH during Open/OpenFromReaderAt.
//
// Entry holds no reference back to the Archive or to the underlying source; callers pass both explicitly to
// (*Archive).Decompress.
type Entry struct {
	// Name is the member's path within the archive, exactly as stored in its CDFH (including any trailing
	// "/" for a directory entry). It is the Archive index's key.
	Name string

	// Comment is the member's CDFH comment, or empty if none was set.
	Comment string

	// Extra is the member's CDFH extra field.
	Extra []byte

	// CompressedSize and UncompressedSize are the authoritative payload sizes, taken from the CDFH.
	CompressedSize   uint64
	UncompressedSize uint64

	// CRC32 is the CDFH's declared CRC-32 of the uncompressed payload, verified by Decompress.
	CRC32 uint32

	// Method is the member's compression method.
	Method Method

	// Modified is the member's modification date/time, decoded from the CDFH's packed DOS fields.
	Modified dostime.DateTime

	// OS is the platform tag from the high byte of the CDFH's made-by-version field.
	OS OS

	// CreatorVersionLow is the low byte of the CDFH's made-by-version field (the ZIP spec version the
	// writer claims to target).
	CreatorVersionLow uint8

	// ExternalAttrs is the raw 32-bit external attributes field from the CDFH.
	ExternalAttrs uint32

	// IsDir reports whether bit 4 of the low byte of ExternalAttrs is set.
	IsDir bool

	// LFHOffset is the archive-relative byte offset of this member's Local File Header signature.
	LFHOffset int64

	// CDOffset is the archive-relative byte offset of this member's Central Directory File Header
	// signature, as emitted by the Central Directory walker.
	CDOffset int64
}

// newEntry builds an Entry from a decoded CDFH and the absolute offset of that CDFH's signature.
func newEntry(fh cd.CDFileHeader, cdOffset int64) (Entry, error) {
	method, err := detectMethod(fh.Method)
	if err != nil {
		return Entry{}, err
	}
	if fh.Flags&dataDescriptorBit != 0 && fh.CompressedSize == 0 && fh.UncompressedSize == 0 {
		return Entry{}, &zerr.UnsupportedMethodError{Method: fh.Method}
	}

	modified, err := dostime.FromDOS(fh.ModDate, fh.ModTime)
	if err != nil {
		return Entry{}, err
	}

	return Entry{
		Name:              fh.Name,
		Comment:           fh.Comment,
		Extra:             fh.Extra,
		CompressedSize:    uint64(fh.CompressedSize),
		UncompressedSize:  uint64(fh.UncompressedSize),
		CRC32:             fh.CRC32,
		Method:            method,
		Modified:          modified,
		OS:                detectOS(uint8(fh.MadeByVer >> 8)),
		CreatorVersionLow: uint8(fh.MadeByVer),
		ExternalAttrs:     fh.ExternalAttrs,
		IsDir:             fh.ExternalAttrs&dirAttrBit != 0,
		LFHOffset:         int64(fh.LFHOffset),
		CDOffset:          cdOffset,
	}, nil
}
