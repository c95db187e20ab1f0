package archiver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"runtime"

	"go.uber.org/zap"
)

func init() {
	RegisterFormat(Zip{})
}

// ZipMethod is the compression method recorded for a zip entry.
type ZipMethod uint16

// Compression methods.
// see https://pkware.cachefly.net/webdocs/casestudies/APPNOTE.TXT.
// Zip.Create only ever writes MethodStore; the others can be read
// when a decoder for them is installed.
const (
	MethodStore   ZipMethod = 0
	MethodDeflate ZipMethod = 8
	MethodBzip2   ZipMethod = 12
	MethodZstd    ZipMethod = 93
	MethodXz      ZipMethod = 95
)

func (m ZipMethod) String() string {
	switch m {
	case MethodStore:
		return "store"
	case MethodDeflate:
		return "deflate"
	case MethodBzip2:
		return "bzip2"
	case MethodZstd:
		return "zstd"
	case MethodXz:
		return "xz"
	}
	return fmt.Sprintf("method(%d)", uint16(m))
}

// Zip reads and writes zip archives held in memory. The writer only
// stores entries uncompressed; the reader extracts one named entry at a
// time, decoding it with the Decompressor registered for its method.
//
// The zero value is ready to use: it reads stored and deflated entries,
// does not verify checksums, and encodes entries on GOMAXPROCS workers.
type Zip struct {
	// Decompressors maps entry compression methods to decoders. Stored
	// entries never need one. If nil, DefaultDecompressors is used.
	Decompressors map[ZipMethod]Decompressor

	// If true, the CRC-32 of each extracted entry is recomputed and
	// compared with the central directory. Zip archives carry the
	// checksum, but it is not checked unless this is set.
	VerifyChecksum bool

	// Maximum number of entries encoded in parallel by Create.
	// If 0, GOMAXPROCS is used.
	Concurrency int

	// Logger receives diagnostics; nil discards them.
	Logger *zap.Logger
}

// DefaultDecompressors returns the decoders used by a Zip with no
// Decompressors set: raw deflate only.
func DefaultDecompressors() map[ZipMethod]Decompressor {
	return map[ZipMethod]Decompressor{
		MethodDeflate: Flate{},
	}
}

// ExtendedDecompressors returns DefaultDecompressors plus decoders for
// bzip2, zstd and xz entries, as written by 7-Zip, WinZip and others.
func ExtendedDecompressors() map[ZipMethod]Decompressor {
	m := DefaultDecompressors()
	m[MethodBzip2] = Bz2{}
	m[MethodZstd] = Zstd{}
	m[MethodXz] = Xz{}
	return m
}

func (Zip) Name() string { return ".zip" }

func (z Zip) Match(filename string, stream io.Reader) (MatchResult, error) {
	var mr MatchResult

	// match filename: "bundle.zip", or "bundle.zip.gz" under a compressor
	exts := extensions(filename)
	for i := 0; i < len(exts) && i < 2; i++ {
		if exts[i] == z.Name() {
			mr.ByName = true
		}
	}

	// match file header; an empty archive is just the end record
	buf, err := readAtMost(stream, len(zipHeader))
	if err != nil {
		return mr, err
	}
	mr.ByStream = bytes.Equal(buf, zipHeader) || bytes.Equal(buf, emptyZipHeader)

	return mr, nil
}

// Archive writes a zip archive containing entries to output.
func (z Zip) Archive(ctx context.Context, output io.Writer, entries []WriteEntry) error {
	archive, err := z.Create(ctx, entries)
	if err != nil {
		return err
	}
	_, err = output.Write(archive)
	return err
}

// Extract reads all of sourceArchive into memory and returns the decoded
// contents of the entry named nameInArchive. The central directory sits at
// the end of a zip archive, so the whole stream is needed before any
// entry can be located.
func (z Zip) Extract(ctx context.Context, sourceArchive io.Reader, nameInArchive string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	archive, err := io.ReadAll(sourceArchive)
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}
	return z.ExtractEntry(archive, nameInArchive)
}

func (z Zip) logger() *zap.Logger {
	if z.Logger == nil {
		return zap.NewNop()
	}
	return z.Logger
}

func (z Zip) decompressors() map[ZipMethod]Decompressor {
	if z.Decompressors == nil {
		return DefaultDecompressors()
	}
	return z.Decompressors
}

func (z Zip) concurrency() int {
	if z.Concurrency > 0 {
		return z.Concurrency
	}
	return runtime.GOMAXPROCS(0)
}

// CreateZip returns a stored (uncompressed) zip archive of entries
// using a default Zip.
func CreateZip(entries []WriteEntry) ([]byte, error) {
	return Zip{}.Create(context.Background(), entries)
}

// ExtractZipEntry returns the decoded contents of the entry called name
// using a default Zip.
func ExtractZipEntry(archive []byte, name string) ([]byte, error) {
	return Zip{}.ExtractEntry(archive, name)
}

var (
	// magic number at the beginning of a zip file with at least one entry
	zipHeader = []byte("PK\x03\x04")
	// an empty zip file starts with its end of central directory record
	emptyZipHeader = []byte("PK\x05\x06")
)

// Interface guards
var (
	_ Archival = (*Zip)(nil)
)
