package s3source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	data []byte
}

func (f *fakeClient) HeadObject(context.Context, *s3.HeadObjectInput, ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(f.data)))}, nil
}

func (f *fakeClient) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	var start, end int64
	if _, err := fmt.Sscanf(aws.ToString(in.Range), "bytes=%d-%d", &start, &end); err != nil {
		return nil, err
	}
	if end >= int64(len(f.data)) {
		end = int64(len(f.data)) - 1
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(f.data[start : end+1]))}, nil
}

func TestSource_ReadAt(t *testing.T) {
	client := &fakeClient{data: []byte("the quick brown fox")}
	src, err := New(context.Background(), client, "bucket", "key")
	require.NoError(t, err)
	assert.EqualValues(t, len(client.data), src.Size())

	p := make([]byte, 5)
	n, err := src.ReadAt(p, 4)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "quick", string(p))
}

func TestSource_ReadAt_PastEnd(t *testing.T) {
	client := &fakeClient{data: []byte("short")}
	src, err := New(context.Background(), client, "bucket", "key")
	require.NoError(t, err)

	p := make([]byte, 10)
	n, err := src.ReadAt(p, 0)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 5, n)
}

func TestSource_ReadAt_OffsetAtEnd(t *testing.T) {
	client := &fakeClient{data: []byte("short")}
	src, err := New(context.Background(), client, "bucket", "key")
	require.NoError(t, err)

	p := make([]byte, 1)
	_, err = src.ReadAt(p, 5)
	assert.ErrorIs(t, err, io.EOF)
}
