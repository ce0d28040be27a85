package zipcore

import "log"

// DefaultBufferSize is the buffer size used for both pass-through copying and DEFLATE output chunking.
const DefaultBufferSize = 32 * 1024

// OpenOptions customises Open and OpenFromReaderAt.
type OpenOptions struct {
	// Logger receives diagnostic lines from the EOCD locator about rejected false-positive signature
	// matches. If nil, a logger attached to Open/OpenFromReaderAt's ctx via logctx.WithLogger is used
	// instead; if neither is set, the diagnostic is disabled entirely. It never affects the result.
	Logger *log.Logger
}

// DecompressOptions customises (*Archive).Decompress.
type DecompressOptions struct {
	// ProgressReporter, if set, is invoked after every buffer flush to the sink.
	ProgressReporter ProgressReporter

	// BufferSize is the chunk size used for pass-through copying and DEFLATE output buffering.
	//
	// Defaults to DefaultBufferSize.
	BufferSize int
}
