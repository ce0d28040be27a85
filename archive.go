// Package zipcore reads ZIP archives from a seekable byte source: it locates the End of Central Directory
// Record, parses the Central Directory into a keyed member index, and streams each member's bytes (Stored
// or DEFLATE) to a caller-supplied sink while verifying CRC-32 and size.
//
// It does not write archives, and supports only the Stored and DEFLATE compression methods -- no ZIP64, no
// encryption, no multi-volume (spanned) archives.
package zipcore

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/kairos-oss/zipcore/internal/cd"
	"github.com/kairos-oss/zipcore/internal/logctx"
	"github.com/kairos-oss/zipcore/internal/zerr"
)

// Archive is a keyed, insertion-ordered mapping from member name to Entry, built once by Open or
// OpenFromReaderAt and immutable for the rest of its lifetime.
//
// An Archive opened with Open exclusively borrows its source's seek cursor: only one Decompress call may be
// in flight at a time. An Archive opened with OpenFromReaderAt derives an independent io.SectionReader per
// Decompress call and supports any number of concurrent calls, including against the same member.
type Archive struct {
	rs   io.ReadSeeker
	ra   io.ReaderAt
	size int64

	comment    []byte
	cdOffset   int64
	eocdOffset int64

	entries []*Entry
	byName  map[string]int
}

// Open locates the EOCD and walks the Central Directory of a sequential io.ReadSeeker, building the member
// index.
func Open(ctx context.Context, source io.ReadSeeker, optFns ...func(*OpenOptions)) (*Archive, error) {
	opts := &OpenOptions{}
	for _, fn := range optFns {
		fn(opts)
	}

	size, err := source.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("open archive: determine size: %w", err)
	}

	eocd, eocdOffset, err := cd.Locate(source, size, logger(ctx, opts))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	if err = checkMultiVolume(eocd); err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	a := &Archive{
		rs:         source,
		size:       size,
		comment:    eocd.Comment,
		cdOffset:   int64(eocd.CDOffset),
		eocdOffset: eocdOffset,
	}

	if err = a.buildIndex(ctx, cd.Walk(source, a.cdOffset, eocd.CDCount), int(eocd.CDCount)); err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	return a, nil
}

// OpenFromReaderAt is the io.ReaderAt-based counterpart to Open, additionally supporting safe concurrent
// Decompress calls across members once the index is built.
func OpenFromReaderAt(ctx context.Context, source io.ReaderAt, size int64, optFns ...func(*OpenOptions)) (*Archive, error) {
	opts := &OpenOptions{}
	for _, fn := range optFns {
		fn(opts)
	}

	eocd, eocdOffset, err := cd.Locate(io.NewSectionReader(source, 0, size), size, logger(ctx, opts))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	if err = checkMultiVolume(eocd); err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	a := &Archive{
		ra:         source,
		size:       size,
		comment:    eocd.Comment,
		cdOffset:   int64(eocd.CDOffset),
		eocdOffset: eocdOffset,
	}

	if err = a.buildIndex(ctx, cd.WalkReaderAt(source, a.cdOffset, eocd.CDCount), int(eocd.CDCount)); err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	return a, nil
}

// logger resolves the diagnostic logger for a call: an explicit OpenOptions.Logger wins, falling back to
// one attached to ctx via logctx.WithLogger.
func logger(ctx context.Context, opts *OpenOptions) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return logctx.FromContext(ctx)
}

// checkMultiVolume rejects any EOCD that indicates a spanned (multi-disk) archive.
func checkMultiVolume(eocd cd.EOCDRecord) error {
	if eocd.DiskNumber != 0 || eocd.CDDiskOffset != 0 || eocd.CDCountOnDisk != eocd.CDCount {
		return zerr.ErrMultiVolumeUnsupported
	}
	return nil
}

// buildIndex drains a Central Directory walk iterator into a.entries/a.byName.
//
// Open is atomic: on any error, a is discarded by the caller without being returned, so partial index
// state here is never observed.
func (a *Archive) buildIndex(ctx context.Context, walk func(func(cd.WalkEntry, error) bool), total int) error {
	a.entries = make([]*Entry, 0, total)
	a.byName = make(map[string]int, total)

	i := 0
	var outerErr error
	walk(func(we cd.WalkEntry, err error) bool {
		if err != nil {
			outerErr = err
			return false
		}

		select {
		case <-ctx.Done():
			outerErr = ctx.Err()
			return false
		default:
		}

		entry, buildErr := newEntry(we.Header, we.Offset)
		if buildErr != nil {
			outerErr = fmt.Errorf("record #%d (%q): %w", i, we.Header.Name, buildErr)
			return false
		}

		if _, dup := a.byName[entry.Name]; dup {
			outerErr = fmt.Errorf("record #%d: %w", i, zerr.ErrDuplicateName)
			return false
		}

		a.byName[entry.Name] = len(a.entries)
		a.entries = append(a.entries, &entry)
		i++
		return true
	})

	if outerErr != nil {
		return outerErr
	}
	if len(a.entries) != total {
		return fmt.Errorf("walk central directory: expected %d records, got %d", total, len(a.entries))
	}
	return nil
}

// ByName returns the member with the given name, following the first-wins duplicate-name policy.
func (a *Archive) ByName(name string) (*Entry, bool) {
	i, ok := a.byName[name]
	if !ok {
		return nil, false
	}
	return a.entries[i], true
}

// ByIndex returns the member at insertion-order (= Central Directory order) position i.
func (a *Archive) ByIndex(i int) (*Entry, bool) {
	if i < 0 || i >= len(a.entries) {
		return nil, false
	}
	return a.entries[i], true
}

// IndexOf returns the insertion-order position of the member with the given name.
func (a *Archive) IndexOf(name string) (int, bool) {
	i, ok := a.byName[name]
	return i, ok
}

// Count returns the number of members in the archive.
func (a *Archive) Count() int {
	return len(a.entries)
}

// Comment returns the archive-level comment from the EOCD record.
func (a *Archive) Comment() []byte {
	return a.comment
}

// Close releases the index and severs the Archive's reference to its source. It does not close the source
// itself -- the caller owns that and is responsible for closing it.
func (a *Archive) Close() error {
	a.entries = nil
	a.byName = nil
	a.comment = nil
	a.rs = nil
	a.ra = nil
	return nil
}
