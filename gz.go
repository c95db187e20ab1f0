package archiver

import (
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/pgzip"
)

func init() {
	RegisterFormat(Gz{})
}

// Gz is the outer layer of bundle.zip.gz uploads and of run packs
// written with a .zip.gz name, the most common compressed form of both.
type Gz struct {
	// Gzip compression level. See https://pkg.go.dev/compress/flate#pkg-constants
	// for some predefined constants. If 0, DefaultCompression is assumed rather
	// than no compression.
	CompressionLevel int

	// DisableMultistream controls whether the reader supports multistream files.
	// See https://pkg.go.dev/compress/gzip#example-Reader.Multistream
	DisableMultistream bool

	// Compress and decompress with pgzip. Pays off for bundles of
	// about 1 MB or more.
	Multithreaded bool
}

func (Gz) Name() string { return ".gz" }

func (gz Gz) Match(filename string, stream io.Reader) (MatchResult, error) {
	return matchMagic(filename, gz.Name(), stream, gzHeader)
}

func (gz Gz) OpenWriter(w io.Writer) (io.WriteCloser, error) {
	level := gz.CompressionLevel
	if level == 0 {
		level = gzip.DefaultCompression
	}
	if gz.Multithreaded {
		return pgzip.NewWriterLevel(w, level)
	}
	return gzip.NewWriterLevel(w, level)
}

func (gz Gz) OpenReader(r io.Reader) (io.ReadCloser, error) {
	if gz.Multithreaded {
		gzR, err := pgzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		gzR.Multistream(!gz.DisableMultistream)
		return gzR, nil
	}

	gzR, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	gzR.Multistream(!gz.DisableMultistream)
	return gzR, nil
}

// magic number at the beginning of gzip files
var gzHeader = []byte{0x1f, 0x8b}
