package archiver

import (
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

func init() {
	RegisterFormat(Lz4{})
}

// Lz4 facilitates LZ4 frame compression.
type Lz4 struct {
	// 0 is the fast compressor; 1 through 9 select
	// increasingly thorough (and slower) compression.
	CompressionLevel int
}

func (Lz4) Name() string { return ".lz4" }

func (lz Lz4) Match(filename string, stream io.Reader) (MatchResult, error) {
	return matchMagic(filename, lz.Name(), stream, lz4Header)
}

func (lz Lz4) OpenWriter(w io.Writer) (io.WriteCloser, error) {
	if lz.CompressionLevel < 0 || lz.CompressionLevel >= len(lz4Levels) {
		return nil, fmt.Errorf("lz4: compression level %d out of range 0-%d",
			lz.CompressionLevel, len(lz4Levels)-1)
	}
	lzw := lz4.NewWriter(w)
	if err := lzw.Apply(lz4.CompressionLevelOption(lz4Levels[lz.CompressionLevel])); err != nil {
		return nil, err
	}
	return lzw, nil
}

func (Lz4) OpenReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(r)), nil
}

var lz4Levels = []lz4.CompressionLevel{
	lz4.Fast,
	lz4.Level1, lz4.Level2, lz4.Level3,
	lz4.Level4, lz4.Level5, lz4.Level6,
	lz4.Level7, lz4.Level8, lz4.Level9,
}

// magic number of an LZ4 frame, little-endian 0x184D2204
var lz4Header = []byte{0x04, 0x22, 0x4d, 0x18}
