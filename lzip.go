package archiver

import (
	"io"

	"github.com/sorairolake/lzip-go"
)

func init() {
	RegisterFormat(Lzip{})
}

// Lzip handles run packs and bundles archived as .zip.lz for long-term
// storage. Its name is matched exactly so ".lz4" names are left to Lz4.
type Lzip struct{}

func (Lzip) Name() string { return ".lz" }

func (lz Lzip) Match(filename string, stream io.Reader) (MatchResult, error) {
	return matchMagic(filename, lz.Name(), stream, lzipHeader)
}

func (Lzip) OpenWriter(w io.Writer) (io.WriteCloser, error) {
	return lzip.NewWriter(w), nil
}

func (Lzip) OpenReader(r io.Reader) (io.ReadCloser, error) {
	lzr, err := lzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(lzr), nil
}

// magic number at the beginning of lzip files
// https://datatracker.ietf.org/doc/html/draft-diaz-lzip-09#section-2
var lzipHeader = []byte("LZIP")
