package cd

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/kairos-oss/zipcore/internal/zerr"
)

// CDFileHeader is a Central Directory File Header as decoded from the wire, before translation into an
// Entry (OS/compression detection and DOS date/time decoding happen one layer up, in the root package).
type CDFileHeader struct {
	MadeByVer      uint16
	ExtractVer     uint16
	Flags          uint16
	Method         uint16
	ModTime        uint16
	ModDate        uint16
	CRC32          uint32
	CompressedSize uint32
	UncompressedSize uint32
	StartDisk      uint16
	InternalAttrs  uint16
	ExternalAttrs  uint32
	LFHOffset      uint32
	Name           string
	Extra          []byte
	Comment        string
}

// cdfhFixed is the fixed-size 42-byte tail that follows the CDFH signature, laid out for binary.Read.
type cdfhFixed struct {
	MadeByVer         uint16
	ExtractVer        uint16
	Flags             uint16
	Method            uint16
	ModTime           uint16
	ModDate           uint16
	CRC32             uint32
	CompressedSize    uint32
	UncompressedSize  uint32
	FileNameLength    uint16
	ExtraFieldLength  uint16
	FileCommentLength uint16
	StartDisk         uint16
	InternalAttrs     uint16
	ExternalAttrs     uint32
	LFHOffset         uint32
}

// DecodeCDFH decodes the 42-byte fixed tail of a CDFH record (the 4-byte signature has already been
// consumed by the caller) and then reads its name/extra/comment tails, in that order, using read.
//
// read is invoked exactly once with a buffer sized to the sum of the three declared lengths; it is the
// caller's job to source those bytes.
func DecodeCDFH(b [CDFHFixedSize]byte, read func([]byte) (int, error)) (CDFileHeader, error) {
	data := &cdfhFixed{}
	if err := binary.Read(bytes.NewReader(b[:]), binary.LittleEndian, data); err != nil {
		return CDFileHeader{}, fmt.Errorf("decode CDFH fixed header: %w", err)
	}

	fh := CDFileHeader{
		MadeByVer:        data.MadeByVer,
		ExtractVer:       data.ExtractVer,
		Flags:            data.Flags,
		Method:           data.Method,
		ModTime:          data.ModTime,
		ModDate:          data.ModDate,
		CRC32:            data.CRC32,
		CompressedSize:   data.CompressedSize,
		UncompressedSize: data.UncompressedSize,
		StartDisk:        data.StartDisk,
		InternalAttrs:    data.InternalAttrs,
		ExternalAttrs:    data.ExternalAttrs,
		LFHOffset:        data.LFHOffset,
	}

	n, m, k := int(data.FileNameLength), int(data.ExtraFieldLength), int(data.FileCommentLength)
	nmk := make([]byte, n+m+k)
	readN, err := read(nmk)
	if err != nil {
		return fh, &zerr.TruncatedTailError{Kind: zerr.KindCDFH, Tail: "name/extra/comment", Want: n + m + k, Got: readN}
	}
	if readN < n+m+k {
		return fh, &zerr.TruncatedTailError{Kind: zerr.KindCDFH, Tail: "name/extra/comment", Want: n + m + k, Got: readN}
	}

	fh.Name = string(nmk[:n])
	fh.Extra = nmk[n : n+m]
	fh.Comment = string(nmk[n+m : n+m+k])
	return fh, nil
}

// RecordSize returns the total byte length of this CDFH record, signature included, as it appears on the
// wire: used by the Central Directory walker to advance to the next record.
func (fh CDFileHeader) RecordSize() int64 {
	return 4 + CDFHFixedSize + int64(len(fh.Name)) + int64(len(fh.Extra)) + int64(len(fh.Comment))
}
