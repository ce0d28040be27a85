package cd

import (
	"bytes"
	"fmt"
	"io"
	"log"

	"github.com/kairos-oss/zipcore/internal/zerr"
	"github.com/valyala/bytebufferpool"
)

// maxEOCDWindow is the widest possible EOCD record: signature + fixed tail + the largest legal comment.
const maxEOCDWindow = 4 + EOCDFixedSize + 65535

const locateChunkSize = 4 * 1024

// Locate scans backward from the end of src for a verified EOCD record, retrying every signature occurrence
// within the search window -- not just the first one found -- since a malicious or merely unlucky comment
// can legally contain the 4-byte EOCD signature without being the real trailer.
//
// logger, if non-nil, receives one diagnostic line per rejected signature match; this is purely informational
// and never affects the result.
func Locate(src io.ReadSeeker, size int64, logger *log.Logger) (EOCDRecord, int64, error) {
	if size < 22 {
		return EOCDRecord{}, 0, zerr.ErrTruncatedSource
	}

	window := min(size, maxEOCDWindow)

	bb := bytebufferpool.Get()
	defer bytebufferpool.Put(bb)

	chunk := make([]byte, locateChunkSize)
	offset := size
	var read int64

	for read < window {
		n := min(int64(locateChunkSize), offset)
		offset -= n

		if _, err := src.Seek(offset, io.SeekStart); err != nil {
			return EOCDRecord{}, 0, fmt.Errorf("locate EOCD: seek error: %w", err)
		}
		if _, err := io.ReadFull(src, chunk[:n]); err != nil {
			return EOCDRecord{}, 0, fmt.Errorf("locate EOCD: read error: %w", err)
		}

		// bb.B always holds the bytes [offset, size) of src seen so far; prepend the newly-read chunk.
		next := make([]byte, 0, int64(len(bb.B))+n)
		next = append(next, chunk[:n]...)
		next = append(next, bb.B...)
		bb.B = next
		read += n

		for searchLimit := len(bb.B); ; {
			i := bytes.LastIndex(bb.B[:searchLimit], eocdSigBytes)
			if i == -1 {
				break
			}

			if rec, absOffset, ok := verifyEOCDCandidate(src, offset, i, size); ok {
				return rec, absOffset, nil
			}
			if logger != nil {
				logger.Printf("locate EOCD: rejected signature match at offset %d: declared comment length does not reach end of source", offset+int64(i))
			}
			searchLimit = i
		}

		if offset == 0 {
			break
		}
	}

	return EOCDRecord{}, 0, zerr.ErrEOCDNotFound
}

// verifyEOCDCandidate re-reads the fixed tail and comment directly from src (rather than trusting the
// backward-scan buffer, which may not span the whole comment yet) starting at absolute offset base+i, and
// accepts the candidate only if the declared comment length causes the record to end exactly at size.
func verifyEOCDCandidate(src io.ReadSeeker, base int64, i int, size int64) (EOCDRecord, int64, bool) {
	absOffset := base + int64(i)
	if _, err := src.Seek(absOffset+4, io.SeekStart); err != nil {
		return EOCDRecord{}, 0, false
	}

	var fixed [EOCDFixedSize]byte
	if _, err := io.ReadFull(src, fixed[:]); err != nil {
		return EOCDRecord{}, 0, false
	}

	rec, err := DecodeEOCD(fixed, func(c []byte) (int, error) {
		return io.ReadFull(src, c)
	})
	if err != nil {
		return EOCDRecord{}, 0, false
	}

	if absOffset+4+EOCDFixedSize+int64(len(rec.Comment)) != size {
		return EOCDRecord{}, 0, false
	}

	return rec, absOffset, true
}
