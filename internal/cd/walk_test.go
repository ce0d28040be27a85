package cd

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTwoMemberFixture(t *testing.T) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)

	w, err := zw.Create("a.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("hi"))
	require.NoError(t, err)

	fh := &zip.FileHeader{Name: "b.txt", Method: zip.Deflate}
	w, err = zw.CreateHeader(fh)
	require.NoError(t, err)
	_, err = w.Write([]byte("hello\n"))
	require.NoError(t, err)

	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestWalk(t *testing.T) {
	data := buildTwoMemberFixture(t)
	rec, cdOffset, err := Locate(bytes.NewReader(data), int64(len(data)), nil)
	require.NoError(t, err)

	var names []string
	var offsets []int64
	for we, werr := range Walk(bytes.NewReader(data), int64(rec.CDOffset), rec.CDCount) {
		require.NoError(t, werr)
		names = append(names, we.Header.Name)
		offsets = append(offsets, we.Offset)
	}

	assert.Equal(t, []string{"a.txt", "b.txt"}, names)
	assert.Less(t, offsets[0], offsets[1])
	_ = cdOffset
}

func TestWalkReaderAt(t *testing.T) {
	data := buildTwoMemberFixture(t)
	rec, _, err := Locate(bytes.NewReader(data), int64(len(data)), nil)
	require.NoError(t, err)

	r := bytes.NewReader(data)
	var names []string
	for we, werr := range WalkReaderAt(r, int64(rec.CDOffset), rec.CDCount) {
		require.NoError(t, werr)
		names = append(names, we.Header.Name)
	}

	assert.Equal(t, []string{"a.txt", "b.txt"}, names)
}

func TestWalk_StopsEarlyOnYieldFalse(t *testing.T) {
	data := buildTwoMemberFixture(t)
	rec, _, err := Locate(bytes.NewReader(data), int64(len(data)), nil)
	require.NoError(t, err)

	count := 0
	for range Walk(bytes.NewReader(data), int64(rec.CDOffset), rec.CDCount) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestWalk_BadSignature(t *testing.T) {
	data := buildTwoMemberFixture(t)
	rec, _, err := Locate(bytes.NewReader(data), int64(len(data)), nil)
	require.NoError(t, err)

	var gotErr error
	for _, werr := range Walk(bytes.NewReader(data), int64(rec.CDOffset)+1, rec.CDCount) {
		gotErr = werr
		break
	}
	assert.Error(t, gotErr)
}
