package archiver

import (
	"io"

	"github.com/ulikunitz/xz"
)

func init() {
	RegisterFormat(Xz{})
}

// Xz facilitates xz compression. It also decodes zip entries stored
// with MethodXz, which carry a complete xz stream.
type Xz struct{}

func (Xz) Name() string { return ".xz" }

func (x Xz) Match(filename string, stream io.Reader) (MatchResult, error) {
	return matchMagic(filename, x.Name(), stream, xzHeader)
}

func (Xz) OpenWriter(w io.Writer) (io.WriteCloser, error) {
	return xz.NewWriter(w)
}

func (Xz) OpenReader(r io.Reader) (io.ReadCloser, error) {
	xr, err := xz.NewReader(r)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(xr), nil
}

// magic number at the beginning of xz files; see
// https://tukaani.org/xz/xz-file-format-1.0.4.txt, section 2.1.1.1
var xzHeader = []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}
