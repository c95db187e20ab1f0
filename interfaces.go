package archiver

import (
	"context"
	"io"
)

// Format represents either an archive or compression format.
type Format interface {
	// Name returns the name of the format, which is also its
	// conventional file extension (e.g. ".zip", ".gz").
	Name() string

	// Match returns true if the given name/stream is recognized.
	// One of the arguments is optional: filename might be empty
	// if working with an unnamed stream, or stream might be
	// empty if only working with a filename. Match reads only
	// as many bytes as needed to determine a match; callers that
	// need the stream afterwards should seek back (Identify does).
	Match(filename string, stream io.Reader) (MatchResult, error)
}

// Compression is a compression format with both compress and decompress methods.
type Compression interface {
	Format
	Compressor
	Decompressor
}

// Archival is an archival format with both archive and extract methods.
type Archival interface {
	Format
	Archiver
	Extractor
}

// Compressor can compress data by wrapping a writer.
type Compressor interface {
	// OpenWriter wraps w with a new writer that compresses what is written.
	// The writer must be closed when writing is finished.
	OpenWriter(w io.Writer) (io.WriteCloser, error)
}

// Decompressor can decompress data by wrapping a reader. Besides
// unwrapping whole streams, a Decompressor is the capability a Zip
// uses to decode a single compressed entry.
type Decompressor interface {
	// OpenReader wraps r with a new reader that decompresses what is read.
	// The reader must be closed when reading is finished.
	OpenReader(r io.Reader) (io.ReadCloser, error)
}

// Archiver can create a new archive.
type Archiver interface {
	// Archive writes an archive to output containing the entries,
	// in the order given.
	//
	// Context cancellation must be honored.
	Archive(ctx context.Context, output io.Writer, entries []WriteEntry) error
}

// Extractor can pull a single named member out of an archive.
type Extractor interface {
	// Extract reads sourceArchive and returns the decoded contents of
	// the entry whose name equals nameInArchive byte-for-byte. Either
	// the complete entry is returned or an error; never a partial result.
	Extract(ctx context.Context, sourceArchive io.Reader, nameInArchive string) ([]byte, error)
}
