package archiver

import (
	"io"

	"github.com/dsnet/compress/bzip2"
)

func init() {
	RegisterFormat(Bz2{})
}

// Bz2 serves two places: the outer layer of .zip.bz2 bundles, and
// the decoder for zip entries stored with MethodBzip2 (see
// ExtendedDecompressors), whose payload is a complete bzip2 stream.
type Bz2 struct {
	// Level between 1 and 9; 0 means the library default.
	CompressionLevel int
}

func (Bz2) Name() string { return ".bz2" }

func (bz Bz2) Match(filename string, stream io.Reader) (MatchResult, error) {
	return matchMagic(filename, bz.Name(), stream, bzip2Header)
}

func (bz Bz2) OpenWriter(w io.Writer) (io.WriteCloser, error) {
	return bzip2.NewWriter(w, &bzip2.WriterConfig{
		Level: bz.CompressionLevel,
	})
}

func (Bz2) OpenReader(r io.Reader) (io.ReadCloser, error) {
	return bzip2.NewReader(r, nil)
}

var bzip2Header = []byte("BZh")
