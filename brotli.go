package archiver

import (
	"io"

	"github.com/andybalholm/brotli"
)

func init() {
	RegisterFormat(Brotli{})
}

// Brotli is the outer layer of bundles exported as .zip.br, which
// browsers and CDNs produce when a bundle is served precompressed.
type Brotli struct {
	// Quality between 0 (fastest) and 11 (smallest).
	Quality int
}

func (Brotli) Name() string { return ".br" }

// Match only matches by name, since brotli streams have no magic
// number. Identify falls back to a plain zip when the stream under a
// .br name is not brotli.
func (br Brotli) Match(filename string, stream io.Reader) (MatchResult, error) {
	return matchMagic(filename, br.Name(), stream, nil)
}

func (br Brotli) OpenWriter(w io.Writer) (io.WriteCloser, error) {
	return brotli.NewWriterLevel(w, br.Quality), nil
}

func (Brotli) OpenReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(brotli.NewReader(r)), nil
}
