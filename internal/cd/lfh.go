package cd

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/kairos-oss/zipcore/internal/zerr"
)

// LocalFileHeader is a Local File Header as decoded from the wire.
//
// Only NameLen and ExtraLen matter to the decompression pipeline, which advances past the name/extra tail
// using the LFH's own declared lengths rather than the CDFH's (the two may legitimately disagree). The
// name/extra bytes themselves are discarded rather than materialized into strings: the pipeline never needs
// them.
type LocalFileHeader struct {
	ExtractVer       uint16
	Flags            uint16
	Method           uint16
	ModTime          uint16
	ModDate          uint16
	CRC32            uint32
	CompressedSize   uint32
	UncompressedSize uint32
	NameLen          uint16
	ExtraLen         uint16
}

type lfhFixed struct {
	ExtractVer       uint16
	Flags            uint16
	Method           uint16
	ModTime          uint16
	ModDate          uint16
	CRC32            uint32
	CompressedSize   uint32
	UncompressedSize uint32
	NameLen          uint16
	ExtraLen         uint16
}

// DecodeLFH decodes the 26-byte fixed tail of an LFH record (the 4-byte signature has already been
// consumed by the caller) and then skips (without retaining) its name/extra tails using skip.
//
// skip is invoked once with the combined name+extra length, and not at all when that length is zero; it is
// the caller's job to advance past those bytes in the underlying source.
func DecodeLFH(b [LFHFixedSize]byte, skip func(n int) error) (LocalFileHeader, error) {
	data := &lfhFixed{}
	if err := binary.Read(bytes.NewReader(b[:]), binary.LittleEndian, data); err != nil {
		return LocalFileHeader{}, fmt.Errorf("decode LFH fixed header: %w", err)
	}

	fh := LocalFileHeader{
		ExtractVer:       data.ExtractVer,
		Flags:            data.Flags,
		Method:           data.Method,
		ModTime:          data.ModTime,
		ModDate:          data.ModDate,
		CRC32:            data.CRC32,
		CompressedSize:   data.CompressedSize,
		UncompressedSize: data.UncompressedSize,
		NameLen:          data.NameLen,
		ExtraLen:         data.ExtraLen,
	}

	nm := int(data.NameLen) + int(data.ExtraLen)
	if nm == 0 {
		return fh, nil
	}
	if err := skip(nm); err != nil {
		return fh, &zerr.TruncatedTailError{Kind: zerr.KindLFH, Tail: "name/extra", Want: nm, Got: 0}
	}
	return fh, nil
}
