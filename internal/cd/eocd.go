package cd

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/kairos-oss/zipcore/internal/zerr"
)

// EOCDRecord models the end of central directory record of a ZIP file.
//
// See https://en.wikipedia.org/wiki/ZIP_(file_format)#End_of_central_directory_record_(EOCD).
type EOCDRecord struct {
	DiskNumber    uint16
	CDDiskOffset  uint16
	CDCountOnDisk uint16
	CDCount       uint16
	CDSize        uint32
	CDOffset      uint32
	Comment       []byte
}

// eocdFixed is the fixed-size 18-byte tail that follows the EOCD signature, laid out for binary.Read.
type eocdFixed struct {
	DiskNumber    uint16
	CDDiskOffset  uint16
	CDCountOnDisk uint16
	CDCount       uint16
	CDSize        uint32
	CDOffset      uint32
	CommentLength uint16
}

// DecodeEOCD decodes the 18-byte fixed tail of an EOCD record (the 4-byte signature has already been
// consumed by the caller) and then reads its comment using read.
//
// read is invoked exactly once with a buffer sized to the record's declared comment length; it is the
// caller's job to source those bytes (from a io.Reader, a io.ReaderAt, or an in-memory slice).
func DecodeEOCD(b [EOCDFixedSize]byte, read func([]byte) (int, error)) (EOCDRecord, error) {
	data := &eocdFixed{}
	if err := binary.Read(bytes.NewReader(b[:]), binary.LittleEndian, data); err != nil {
		return EOCDRecord{}, fmt.Errorf("decode EOCD fixed header: %w", err)
	}

	r := EOCDRecord{
		DiskNumber:    data.DiskNumber,
		CDDiskOffset:  data.CDDiskOffset,
		CDCountOnDisk: data.CDCountOnDisk,
		CDCount:       data.CDCount,
		CDSize:        data.CDSize,
		CDOffset:      data.CDOffset,
	}

	comment := make([]byte, data.CommentLength)
	n, err := read(comment)
	if err != nil {
		return r, &zerr.TruncatedTailError{Kind: zerr.KindEOCD, Tail: "comment", Want: int(data.CommentLength), Got: n}
	}
	if n < int(data.CommentLength) {
		return r, &zerr.TruncatedTailError{Kind: zerr.KindEOCD, Tail: "comment", Want: int(data.CommentLength), Got: n}
	}
	r.Comment = comment
	return r, nil
}
