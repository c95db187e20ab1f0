package archiver

import (
	"io"

	"github.com/klauspost/compress/s2"
)

func init() {
	RegisterFormat(Sz{})
}

// Sz facilitates Snappy compression. It uses S2 for reading and
// writing, but by default writes Snappy-compatible streams.
type Sz struct {
	// Concurrency of the S2 writer. If 0, GOMAXPROCS is used.
	Concurrency int

	// If true, write S2 streams that Snappy decoders cannot read,
	// for better compression.
	SnappyIncompatible bool
}

func (Sz) Name() string { return ".sz" }

// Match also accepts the ".s2" extension.
func (sz Sz) Match(filename string, stream io.Reader) (MatchResult, error) {
	mr, err := matchMagic(filename, sz.Name(), stream, snappyHeader)
	if hasOuterExt(filename, ".s2") {
		mr.ByName = true
	}
	return mr, err
}

func (sz Sz) OpenWriter(w io.Writer) (io.WriteCloser, error) {
	var opts []s2.WriterOption
	if sz.Concurrency != 0 {
		opts = append(opts, s2.WriterConcurrency(sz.Concurrency))
	}
	if !sz.SnappyIncompatible {
		opts = append(opts, s2.WriterSnappyCompat())
	}
	return s2.NewWriter(w, opts...), nil
}

func (Sz) OpenReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(s2.NewReader(r)), nil
}

// https://github.com/google/snappy/blob/master/framing_format.txt - contains "sNaPpY"
var snappyHeader = []byte{0xff, 0x06, 0x00, 0x00, 0x73, 0x4e, 0x61, 0x50, 0x70, 0x59}
