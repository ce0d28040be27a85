package zipcore

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/kairos-oss/zipcore/internal/zerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildZip assembles fixture bytes with the standard library's archive/zip.Writer, following this module's
// test convention of building known-good archives rather than hand-rolling wire bytes for anything beyond
// the codec unit tests in internal/cd. Modified must be set on each member: archive/zip writes a zeroed
// DOS date otherwise, which this module's date validation rejects (day 0 does not exist).
func buildZip(t *testing.T, comment string, members map[string]struct {
	contents []byte
	method   uint16
}) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for name, m := range members {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   m.method,
			Modified: time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		_, err = w.Write(m.contents)
		require.NoError(t, err)
	}
	if comment != "" {
		require.NoError(t, zw.SetComment(comment))
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestOpen_EmptyArchive(t *testing.T) {
	data := buildZip(t, "", nil)
	a, err := Open(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 0, a.Count())
}

func TestOpen_SingleStoredMember(t *testing.T) {
	data := buildZip(t, "", map[string]struct {
		contents []byte
		method   uint16
	}{"a.txt": {[]byte("hi"), zip.Store}})

	a, err := Open(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 1, a.Count())

	entry, ok := a.ByName("a.txt")
	require.True(t, ok)
	assert.Equal(t, Stored, entry.Method)
	assert.EqualValues(t, 0xd8932aac, entry.CRC32)

	var out bytes.Buffer
	crc, err := a.Decompress(context.Background(), entry, &out)
	require.NoError(t, err)
	assert.Equal(t, "hi", out.String())
	assert.EqualValues(t, 0xd8932aac, crc)
}

func TestOpen_SingleDeflateMember(t *testing.T) {
	data := buildZip(t, "", map[string]struct {
		contents []byte
		method   uint16
	}{"hello.txt": {[]byte("hello\n"), zip.Deflate}})

	a, err := Open(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)

	entry, ok := a.ByName("hello.txt")
	require.True(t, ok)
	assert.Equal(t, Deflate, entry.Method)

	var out bytes.Buffer
	crc, err := a.Decompress(context.Background(), entry, &out)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out.String())
	assert.EqualValues(t, 0x363a3020, crc)
}

func TestOpen_TrailingCommentWithEmbeddedFakeSignature(t *testing.T) {
	comment := make([]byte, 40000)
	for i := range comment {
		comment[i] = 'z'
	}
	copy(comment[100:], []byte{0x50, 0x4b, 0x05, 0x06})

	data := buildZip(t, string(comment), map[string]struct {
		contents []byte
		method   uint16
	}{"a.txt": {[]byte("hi"), zip.Store}})

	a, err := Open(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, comment, a.Comment())
	assert.Equal(t, 1, a.Count())
}

func TestDecompress_CrcMismatch(t *testing.T) {
	data := buildZip(t, "", map[string]struct {
		contents []byte
		method   uint16
	}{"a.txt": {[]byte("hi"), zip.Store}})

	a, err := Open(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)

	entry, ok := a.ByName("a.txt")
	require.True(t, ok)
	entry.CRC32 ^= 0xffffffff // corrupt the declared CRC-32 to force a mismatch.

	var out bytes.Buffer
	_, err = a.Decompress(context.Background(), entry, &out)
	assert.Error(t, err)
}

func TestOpen_MultiVolumeRejected(t *testing.T) {
	data := buildZip(t, "", map[string]struct {
		contents []byte
		method   uint16
	}{"a.txt": {[]byte("hi"), zip.Store}})

	eocdOffset := bytes.LastIndex(data, eocdSigBytesForTest())
	require.GreaterOrEqual(t, eocdOffset, 0)
	// Set the EOCD's disk-number field (first uint16 after the signature) to a non-zero value to simulate a
	// spanned archive.
	data[eocdOffset+4] = 1

	_, err := Open(context.Background(), bytes.NewReader(data))
	assert.ErrorIs(t, err, zerr.ErrMultiVolumeUnsupported)
}

func eocdSigBytesForTest() []byte {
	return []byte{0x50, 0x4b, 0x05, 0x06}
}

func TestArchive_ByIndexAndIndexOf(t *testing.T) {
	data := buildZip(t, "", map[string]struct {
		contents []byte
		method   uint16
	}{"a.txt": {[]byte("hi"), zip.Store}})

	a, err := Open(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)

	entry, ok := a.ByIndex(0)
	require.True(t, ok)
	assert.Equal(t, "a.txt", entry.Name)

	i, ok := a.IndexOf("a.txt")
	require.True(t, ok)
	assert.Equal(t, 0, i)

	_, ok = a.ByIndex(5)
	assert.False(t, ok)
}

func TestOpen_MinimalLiteralEOCD(t *testing.T) {
	// The smallest possible archive: a bare 22-byte EOCD with zero members and no comment.
	data := []byte{
		0x50, 0x4b, 0x05, 0x06,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00,
	}

	a, err := Open(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 0, a.Count())
	assert.Empty(t, a.Comment())
}

func TestOpen_TruncatedSource(t *testing.T) {
	_, err := Open(context.Background(), bytes.NewReader([]byte("PK")))
	assert.ErrorIs(t, err, zerr.ErrTruncatedSource)
}

func TestDecompress_CorruptedPayload(t *testing.T) {
	data := buildZip(t, "", map[string]struct {
		contents []byte
		method   uint16
	}{"a.txt": {[]byte("hi"), zip.Store}})

	// Flip a bit of the stored payload itself; sizes still agree, so the failure must be the CRC check.
	i := bytes.Index(data, []byte("hi"))
	require.GreaterOrEqual(t, i, 0)
	data[i] ^= 0x01

	a, err := Open(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)

	entry, ok := a.ByName("a.txt")
	require.True(t, ok)

	var out bytes.Buffer
	_, err = a.Decompress(context.Background(), entry, &out)
	var crcErr *zerr.CrcMismatchError
	assert.ErrorAs(t, err, &crcErr)
}

func TestOpenFromReaderAt_ConcurrentDecompress(t *testing.T) {
	data := buildZip(t, "", map[string]struct {
		contents []byte
		method   uint16
	}{
		"a.txt": {[]byte("hi"), zip.Store},
		"b.txt": {[]byte("hello\n"), zip.Deflate},
	})

	a, err := OpenFromReaderAt(context.Background(), bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Equal(t, 2, a.Count())

	done := make(chan error, 2)
	for _, name := range []string{"a.txt", "b.txt"} {
		name := name
		go func() {
			entry, ok := a.ByName(name)
			if !ok {
				done <- assert.AnError
				return
			}
			var out bytes.Buffer
			_, err := a.Decompress(context.Background(), entry, &out)
			done <- err
		}()
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, <-done)
	}
}
