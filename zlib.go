package archiver

import (
	"io"

	"github.com/klauspost/compress/zlib"
)

func init() {
	RegisterFormat(Zlib{})
}

// Zlib reads and writes bundles wrapped in a zlib stream (.zip.zz),
// the container some HTTP clients upload with Content-Encoding: deflate.
type Zlib struct {
	CompressionLevel int
}

func (Zlib) Name() string { return ".zz" }

func (zz Zlib) Match(filename string, stream io.Reader) (MatchResult, error) {
	return matchMagic(filename, zz.Name(), stream, zlibHeader)
}

func (zz Zlib) OpenWriter(w io.Writer) (io.WriteCloser, error) {
	level := zz.CompressionLevel
	if level == 0 {
		level = zlib.DefaultCompression
	}
	return zlib.NewWriterLevel(w, level)
}

func (Zlib) OpenReader(r io.Reader) (io.ReadCloser, error) {
	return zlib.NewReader(r)
}

// CMF byte of a zlib stream with a 32K window, which every writer emits
var zlibHeader = []byte{0x78}
