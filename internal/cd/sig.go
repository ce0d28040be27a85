// Package cd decodes the three packed binary records of the ZIP format (EOCD, CDFH, LFH), walks the
// Central Directory, and locates the End of Central Directory Record.
//
// The EOCD locator and the Central Directory walkers also report the absolute byte offset of each record
// they find, and the package returns the structured error types from internal/zerr rather than ad-hoc
// formatted strings, so callers can match on a specific failure kind.
package cd

import "encoding/binary"

const (
	SigLFH  uint32 = 0x04034b50
	SigCDFH uint32 = 0x02014b50
	SigEOCD uint32 = 0x06054b50
)

// EOCDFixedSize is the length, in bytes, of the EOCD record after its 4-byte signature.
const EOCDFixedSize = 18

// CDFHFixedSize is the length, in bytes, of the CDFH record after its 4-byte signature.
const CDFHFixedSize = 42

// LFHFixedSize is the length, in bytes, of the LFH record after its 4-byte signature.
const LFHFixedSize = 26

func putSig(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

var (
	lfhSigBytes  = putSig(SigLFH)
	cdfhSigBytes = putSig(SigCDFH)
	eocdSigBytes = putSig(SigEOCD)
)
