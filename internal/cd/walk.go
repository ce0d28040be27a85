package cd

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/kairos-oss/zipcore/internal/zerr"
	"github.com/valyala/bytebufferpool"
)

// WalkEntry pairs a decoded CDFileHeader with the absolute byte offset of its signature, which the root
// package threads through into Entry.CDOffset.
type WalkEntry struct {
	Header CDFileHeader
	Offset int64
}

// Walk seeks to cdOffset and decodes total CDFH records in order from a sequential io.ReadSeeker.
//
// Reads are buffered, one CDFH at a time, with the running position tracked explicitly rather than trusted
// to the buffered reader's own offset.
func Walk(src io.ReadSeeker, cdOffset int64, total uint16) iter.Seq2[WalkEntry, error] {
	return func(yield func(WalkEntry, error) bool) {
		pos, err := src.Seek(cdOffset, io.SeekStart)
		if err != nil {
			yield(WalkEntry{}, fmt.Errorf("walk central directory: seek error: %w", err))
			return
		}

		br := bufio.NewReaderSize(src, 16*1024)
		var sig [4]byte

		for i := 0; i < int(total); i++ {
			if _, err = io.ReadFull(br, sig[:]); err != nil {
				yield(WalkEntry{}, fmt.Errorf("walk central directory: read signature: %w",
					&zerr.TruncatedHeaderError{Kind: zerr.KindCDFH, Want: 4, Got: 0}))
				return
			}
			if got := binary.LittleEndian.Uint32(sig[:]); got != SigCDFH {
				yield(WalkEntry{}, &zerr.BadSignatureError{Kind: zerr.KindCDFH, Index: i, Got: got, Want: SigCDFH})
				return
			}

			var fixed [CDFHFixedSize]byte
			n, rerr := io.ReadFull(br, fixed[:])
			if rerr != nil {
				yield(WalkEntry{}, &zerr.TruncatedHeaderError{Kind: zerr.KindCDFH, Want: CDFHFixedSize, Got: n})
				return
			}

			fh, derr := DecodeCDFH(fixed, func(c []byte) (int, error) {
				return io.ReadFull(br, c)
			})
			if derr != nil {
				yield(WalkEntry{}, fmt.Errorf("walk central directory: record #%d: %w", i, derr))
				return
			}

			we := WalkEntry{Header: fh, Offset: pos}
			pos += fh.RecordSize()

			if !yield(we, nil) {
				return
			}

			if pos, err = src.Seek(pos, io.SeekStart); err != nil {
				yield(WalkEntry{}, fmt.Errorf("walk central directory: seek error: %w", err))
				return
			}
			br.Reset(src)
		}
	}
}

// WalkReaderAt decodes total CDFH records starting at cdOffset from an io.ReaderAt, without requiring
// exclusive use of a seek cursor -- safe to run concurrently with member decompression against the same
// source, unlike Walk.
//
// Its accumulation buffer is pooled with bytebufferpool; the 16 KiB read buffer is allocated per call.
func WalkReaderAt(src io.ReaderAt, cdOffset int64, total uint16) iter.Seq2[WalkEntry, error] {
	return func(yield func(WalkEntry, error) bool) {
		bb := bytebufferpool.Get()
		defer bytebufferpool.Put(bb)

		buf := make([]byte, 16*1024)
		offset := cdOffset

		refill := func(want int) error {
			for bb.Len() < want {
				n, err := src.ReadAt(buf, offset)
				if n == 0 && err != nil {
					return err
				}
				bb.Write(buf[:n])
				offset += int64(n)
				if err != nil && errors.Is(err, io.EOF) {
					if bb.Len() < want {
						return io.ErrUnexpectedEOF
					}
					break
				}
			}
			return nil
		}

		for i := 0; i < int(total); i++ {
			pos := offset - int64(bb.Len())

			if err := refill(4); err != nil {
				yield(WalkEntry{}, &zerr.TruncatedHeaderError{Kind: zerr.KindCDFH, Want: 4, Got: bb.Len()})
				return
			}
			sig := binary.LittleEndian.Uint32(bb.B[:4])
			if sig != SigCDFH {
				yield(WalkEntry{}, &zerr.BadSignatureError{Kind: zerr.KindCDFH, Index: i, Got: sig, Want: SigCDFH})
				return
			}
			bb.B = bb.B[4:]

			if err := refill(CDFHFixedSize); err != nil {
				yield(WalkEntry{}, &zerr.TruncatedHeaderError{Kind: zerr.KindCDFH, Want: CDFHFixedSize, Got: bb.Len()})
				return
			}
			fixed := ([CDFHFixedSize]byte)(bb.B[:CDFHFixedSize])
			bb.B = bb.B[CDFHFixedSize:]

			fh, derr := DecodeCDFH(fixed, func(c []byte) (int, error) {
				if err := refill(len(c)); err != nil {
					return 0, err
				}
				n := copy(c, bb.B[:len(c)])
				bb.B = bb.B[n:]
				return n, nil
			})
			if derr != nil {
				yield(WalkEntry{}, fmt.Errorf("walk central directory: record #%d: %w", i, derr))
				return
			}

			we := WalkEntry{Header: fh, Offset: pos}
			if !yield(we, nil) {
				return
			}
		}
	}
}
