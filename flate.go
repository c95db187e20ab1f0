package archiver

import (
	"io"

	"github.com/klauspost/compress/flate"
)

// Flate is raw DEFLATE (RFC 1951), without zlib or gzip framing: the
// encoding of zip entries stored with MethodDeflate. It has no magic
// number and no conventional extension, so it is not registered for
// Identify.
type Flate struct {
	// Compression level used by OpenWriter. If 0, DefaultCompression
	// is assumed rather than no compression.
	CompressionLevel int
}

func (fl Flate) OpenWriter(w io.Writer) (io.WriteCloser, error) {
	level := fl.CompressionLevel
	if level == 0 {
		level = flate.DefaultCompression
	}
	return flate.NewWriter(w, level)
}

func (Flate) OpenReader(r io.Reader) (io.ReadCloser, error) {
	return flate.NewReader(r), nil
}

// Interface guards
var (
	_ Compressor   = (*Flate)(nil)
	_ Decompressor = (*Flate)(nil)
)
