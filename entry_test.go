package zipcore

import (
	"testing"

	"github.com/kairos-oss/zipcore/internal/cd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntry(t *testing.T) {
	fh := cd.CDFileHeader{
		MadeByVer:        3<<8 | 20,
		Method:           uint16(Deflate),
		ModDate:          1<<5 | 1,
		CRC32:            0x363a3020,
		CompressedSize:   10,
		UncompressedSize: 6,
		ExternalAttrs:    dirAttrBit,
		LFHOffset:        42,
		Name:             "dir/",
	}

	entry, err := newEntry(fh, 1000)
	require.NoError(t, err)
	assert.Equal(t, "dir/", entry.Name)
	assert.Equal(t, Deflate, entry.Method)
	assert.Equal(t, OSUnix, entry.OS)
	assert.EqualValues(t, 20, entry.CreatorVersionLow)
	assert.True(t, entry.IsDir)
	assert.EqualValues(t, 42, entry.LFHOffset)
	assert.EqualValues(t, 1000, entry.CDOffset)
}

func TestNewEntry_UnsupportedMethod(t *testing.T) {
	fh := cd.CDFileHeader{Method: 99, Name: "a.txt"}
	_, err := newEntry(fh, 0)
	assert.Error(t, err)
}

func TestNewEntry_StreamedDataDescriptorRejected(t *testing.T) {
	fh := cd.CDFileHeader{
		Method: uint16(Deflate),
		Flags:  dataDescriptorBit,
		Name:   "stream.bin",
	}
	_, err := newEntry(fh, 0)
	assert.Error(t, err)
}

func TestNewEntry_BadModDate(t *testing.T) {
	fh := cd.CDFileHeader{
		Method:  uint16(Stored),
		ModDate: 0, // day=0 is invalid.
		Name:    "a.txt",
	}
	_, err := newEntry(fh, 0)
	assert.Error(t, err)
}

func TestDetectOS(t *testing.T) {
	assert.Equal(t, OSDOS, detectOS(0))
	assert.Equal(t, OSUnix, detectOS(3))
	assert.Equal(t, OSUnknown, detectOS(19))
}
