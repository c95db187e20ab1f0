package archiver

import (
	"io"

	"github.com/klauspost/compress/zstd"
)

func init() {
	RegisterFormat(Zstd{})
}

// Zstd facilitates Zstandard compression. It also decodes zip
// entries stored with MethodZstd.
type Zstd struct {
	EncoderOptions []zstd.EOption
	DecoderOptions []zstd.DOption
}

func (Zstd) Name() string { return ".zst" }

func (zs Zstd) Match(filename string, stream io.Reader) (MatchResult, error) {
	return matchMagic(filename, zs.Name(), stream, zstdHeader)
}

func (zs Zstd) OpenWriter(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w, zs.EncoderOptions...)
}

func (zs Zstd) OpenReader(r io.Reader) (io.ReadCloser, error) {
	zr, err := zstd.NewReader(r, zs.DecoderOptions...)
	if err != nil {
		return nil, err
	}
	return zstdReadCloser{zr}, nil
}

// zstdReadCloser adapts Decoder.Close, which returns nothing, to io.Closer.
type zstdReadCloser struct {
	*zstd.Decoder
}

func (rc zstdReadCloser) Close() error {
	rc.Decoder.Close()
	return nil
}

// magic number at the beginning of Zstandard frames
// https://github.com/facebook/zstd/blob/6211bfee5ec24dc825c11751c33aa31d618b5f10/doc/zstd_compression_format.md
var zstdHeader = []byte{0x28, 0xb5, 0x2f, 0xfd}
