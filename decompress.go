package zipcore

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/flate"

	"github.com/kairos-oss/zipcore/internal/cd"
	"github.com/kairos-oss/zipcore/internal/zerr"
)

// Decompress runs the decompression pipeline for entry: it resolves the Local File Header at
// entry.LFHOffset, skips past its variable-length tail using the LFH's own name/extra lengths (which may
// legitimately disagree with the CDFH's), then streams entry.CompressedSize bytes from the source through
// either a pass-through or DEFLATE decoder to sink, verifying both the uncompressed byte count and the
// CRC-32 at the end. It returns the computed CRC-32 on success.
//
// When the Archive was opened with Open, Decompress shares the source's seek cursor: only one call may be
// in flight at a time. When opened with OpenFromReaderAt, each call derives its own io.SectionReader and
// calls may run concurrently, including against the same entry.
func (a *Archive) Decompress(ctx context.Context, entry *Entry, sink io.Writer, optFns ...func(*DecompressOptions)) (uint32, error) {
	opts := &DecompressOptions{BufferSize: DefaultBufferSize}
	for _, fn := range optFns {
		fn(opts)
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}

	src, err := a.memberReader(entry.LFHOffset)
	if err != nil {
		return 0, fmt.Errorf("decompress %q: %w", entry.Name, err)
	}

	if err = validateLFHSignature(src); err != nil {
		return 0, fmt.Errorf("decompress %q: %w", entry.Name, err)
	}

	var fixed [cd.LFHFixedSize]byte
	if n, rerr := io.ReadFull(src, fixed[:]); rerr != nil {
		return 0, fmt.Errorf("decompress %q: %w", entry.Name,
			&zerr.TruncatedHeaderError{Kind: zerr.KindLFH, Want: cd.LFHFixedSize, Got: n})
	}

	if _, err = cd.DecodeLFH(fixed, func(n int) error {
		_, serr := io.CopyN(io.Discard, src, int64(n))
		return serr
	}); err != nil {
		return 0, fmt.Errorf("decompress %q: %w", entry.Name, err)
	}

	bounded := io.LimitReader(src, int64(entry.CompressedSize))

	var payload io.Reader
	switch entry.Method {
	case Stored:
		payload = bounded
	case Deflate:
		fr := flate.NewReader(bounded)
		defer fr.Close()
		payload = fr
	default:
		return 0, fmt.Errorf("decompress %q: %w", entry.Name, &zerr.UnsupportedMethodError{Method: uint16(entry.Method)})
	}

	crc := crc32.NewIEEE()
	buf := make([]byte, opts.BufferSize)
	var written int64

	for {
		if err = checkContext(ctx); err != nil {
			return 0, fmt.Errorf("decompress %q: %w", entry.Name, err)
		}

		n, rerr := payload.Read(buf)
		if n > 0 {
			if _, werr := sink.Write(buf[:n]); werr != nil {
				return 0, fmt.Errorf("decompress %q: %w", entry.Name, &zerr.SinkError{Err: werr})
			}
			crc.Write(buf[:n])
			written += int64(n)

			if opts.ProgressReporter != nil {
				opts.ProgressReporter(entry.Name, written, false)
			}
		}

		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return 0, fmt.Errorf("decompress %q: %w", entry.Name, &zerr.SourceError{Err: rerr})
		}
	}

	if opts.ProgressReporter != nil {
		opts.ProgressReporter(entry.Name, written, true)
	}

	if uint64(written) != entry.UncompressedSize {
		return 0, fmt.Errorf("decompress %q: %w", entry.Name,
			&zerr.SizeMismatchError{Expected: entry.UncompressedSize, Got: uint64(written)})
	}

	got := crc.Sum32()
	if got != entry.CRC32 {
		return 0, fmt.Errorf("decompress %q: %w", entry.Name, &zerr.CrcMismatchError{Expected: entry.CRC32, Got: got})
	}

	return got, nil
}

// memberReader returns a reader positioned at absolute offset off: a sequential seek on a.rs, or an
// independent io.SectionReader on a.ra.
func (a *Archive) memberReader(off int64) (io.Reader, error) {
	if a.ra != nil {
		return io.NewSectionReader(a.ra, off, a.size-off), nil
	}

	if _, err := a.rs.Seek(off, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to local file header: %w", err)
	}
	return a.rs, nil
}

func validateLFHSignature(src io.Reader) error {
	var sig [4]byte
	n, err := io.ReadFull(src, sig[:])
	if err != nil {
		return &zerr.TruncatedHeaderError{Kind: zerr.KindLFH, Want: 4, Got: n}
	}
	if got := binary.LittleEndian.Uint32(sig[:]); got != cd.SigLFH {
		return fmt.Errorf("%w: %w", zerr.ErrBadLFHSignature, &zerr.BadSignatureError{Kind: zerr.KindLFH, Got: got, Want: cd.SigLFH})
	}
	return nil
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
