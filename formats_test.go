package archiver

import (
	"bytes"
	"context"
	"io"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkErr(t *testing.T, err error, msgFmt string, args ...interface{}) {
	t.Helper()
	if err == nil {
		return
	}
	args = append(args, err)
	t.Fatalf(msgFmt+": %s", args...)
}

func TestCompression(t *testing.T) {
	seed := time.Now().UnixNano()
	t.Logf("seed: %d", seed)
	r := rand.New(rand.NewSource(seed))

	contents := make([]byte, 1024)
	r.Read(contents)

	testOK := func(t *testing.T, comp Compression, testFilename string) {
		// compress into buffer
		compressed := new(bytes.Buffer)
		wc, err := comp.OpenWriter(compressed)
		checkErr(t, err, "opening writer")
		_, err = wc.Write(contents)
		checkErr(t, err, "writing contents")
		checkErr(t, wc.Close(), "closing writer")

		// make sure Identify correctly chooses this compression method
		stream := bytes.NewReader(compressed.Bytes())
		format, err := Identify(testFilename, stream)
		checkErr(t, err, "identifying")
		if format.Name() != comp.Name() {
			t.Fatalf("expected format %s but got %s", comp.Name(), format.Name())
		}

		// read the contents back out and compare
		decompReader, err := format.(Decompressor).OpenReader(stream)
		checkErr(t, err, "opening with decompressor '%s'", format.Name())
		data, err := io.ReadAll(decompReader)
		checkErr(t, err, "reading decompressed data")
		checkErr(t, decompReader.Close(), "closing decompressor")
		if !bytes.Equal(data, contents) {
			t.Fatalf("not equal to original")
		}
	}

	var cannotIdentifyFromStream = map[string]bool{Brotli{}.Name(): true}

	for _, f := range formats {
		// only test compressors
		comp, ok := f.(Compression)
		if !ok {
			continue
		}

		t.Run(f.Name()+"_with_extension", func(t *testing.T) {
			testOK(t, comp, "file"+f.Name())
		})
		if !cannotIdentifyFromStream[f.Name()] {
			t.Run(f.Name()+"_without_extension", func(t *testing.T) {
				testOK(t, comp, "")
			})
		}
	}
}

func TestIdentifyZip(t *testing.T) {
	archive, err := CreateZip([]WriteEntry{{Name: "evidence/variances.jsonl", Data: []byte("{}\n")}})
	require.NoError(t, err)
	empty, err := CreateZip(nil)
	require.NoError(t, err)

	for _, tc := range []struct {
		name     string
		filename string
		data     []byte
	}{
		{name: "by name and stream", filename: "bundle.zip", data: archive},
		{name: "by stream", filename: "upload", data: archive},
		{name: "empty archive", filename: "", data: empty},
		{name: "by name", filename: "BUNDLE.ZIP", data: []byte("garbage")},
	} {
		t.Run(tc.name, func(t *testing.T) {
			format, err := Identify(tc.filename, bytes.NewReader(tc.data))
			require.NoError(t, err)
			assert.Equal(t, ".zip", format.Name())
			_, ok := format.(Zip)
			assert.True(t, ok, "got %T", format)
		})
	}
}

func TestIdentifyRestoresPosition(t *testing.T) {
	archive, err := CreateZip([]WriteEntry{{Name: "a", Data: []byte("b")}})
	require.NoError(t, err)
	stream := bytes.NewReader(archive)
	_, err = stream.Seek(7, io.SeekStart)
	require.NoError(t, err)

	_, err = Identify("", stream)
	require.NoError(t, err)
	pos, err := stream.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(7), pos)
}

func TestIdentifyNoMatch(t *testing.T) {
	_, err := Identify("notes.txt", bytes.NewReader([]byte("plain text, no magic")))
	require.ErrorIs(t, err, ErrNoMatch)
}

func TestCompressedArchive(t *testing.T) {
	entries := []WriteEntry{
		{Name: "evidence/variances.jsonl", Data: []byte(`{"key":"t1"}` + "\n")},
		{Name: "engine_output.json", Data: []byte(`{"schema_version":"1.0.0"}`)},
	}

	for _, comp := range []Compression{Gz{}, Zstd{}, Xz{}, Bz2{}, Lz4{}} {
		t.Run(comp.Name(), func(t *testing.T) {
			ctx := context.Background()
			caf := CompressedArchive{Compression: comp, Archival: Zip{}}
			assert.Equal(t, ".zip"+comp.Name(), caf.Name())

			var buf bytes.Buffer
			require.NoError(t, caf.Archive(ctx, &buf, entries))

			format, err := Identify("bundle.zip"+comp.Name(), bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)
			identified, ok := format.(CompressedArchive)
			require.True(t, ok, "got %T", format)
			assert.Equal(t, comp.Name(), identified.Compression.Name())

			data, err := identified.Extract(ctx, bytes.NewReader(buf.Bytes()), "engine_output.json")
			require.NoError(t, err)
			assert.Equal(t, entries[1].Data, data)

			// the stream alone is enough to see both layers
			format, err = Identify("", bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)
			_, ok = format.(CompressedArchive)
			assert.True(t, ok, "got %T", format)
		})
	}
}

func TestCompressedArchiveMissingFormat(t *testing.T) {
	_, err := CompressedArchive{Compression: Gz{}}.Extract(context.Background(), bytes.NewReader(nil), "x")
	require.Error(t, err)
	err = CompressedArchive{Compression: Gz{}}.Archive(context.Background(), io.Discard, nil)
	require.Error(t, err)
}

func TestReadAtMost(t *testing.T) {
	buf, err := readAtMost(nil, 4)
	require.NoError(t, err)
	assert.Empty(t, buf)

	buf, err = readAtMost(bytes.NewReader([]byte("PK")), 4)
	require.NoError(t, err)
	assert.Equal(t, []byte("PK"), buf)

	buf, err = readAtMost(bytes.NewReader([]byte("PK\x03\x04rest")), 4)
	require.NoError(t, err)
	assert.Equal(t, []byte("PK\x03\x04"), buf)
}

func TestLz4CompressionLevelRange(t *testing.T) {
	_, err := Lz4{CompressionLevel: len(lz4Levels)}.OpenWriter(io.Discard)
	require.Error(t, err)
	_, err = Lz4{CompressionLevel: -1}.OpenWriter(io.Discard)
	require.Error(t, err)
}

func TestIdentifyByNameOnly(t *testing.T) {
	format, err := Identify("run-pack.zip.zst", nil)
	require.NoError(t, err)
	caf, ok := format.(CompressedArchive)
	require.True(t, ok, "got %T", format)
	assert.Equal(t, ".zip.zst", caf.Name())

	format, err = Identify("variances.jsonl.lz4", nil)
	require.NoError(t, err)
	assert.Equal(t, ".lz4", format.Name())
}

func TestIdentifyIgnoresExtensionsInsideName(t *testing.T) {
	archive, err := CreateZip([]WriteEntry{{Name: "evidence/variances.jsonl", Data: []byte("{}\n")}})
	require.NoError(t, err)

	for _, filename := range []string{
		"q3.breakdown.zip",
		"evidence.s2.zip",
		"a.lz4data.zip",
		"export.gz.zip",
		"bundle.zip.br", // not actually compressed
		"bundle.zip.lz4",
	} {
		t.Run(filename, func(t *testing.T) {
			format, err := Identify(filename, bytes.NewReader(archive))
			require.NoError(t, err)
			z, ok := format.(Zip)
			require.True(t, ok, "got %T (%s)", format, format.Name())

			data, err := z.Extract(context.Background(), bytes.NewReader(archive), "evidence/variances.jsonl")
			require.NoError(t, err)
			assert.Equal(t, []byte("{}\n"), data)
		})
	}
}

func TestIdentifyCompressedByNameOnly(t *testing.T) {
	var buf bytes.Buffer
	caf := CompressedArchive{Compression: Brotli{}, Archival: Zip{}}
	require.NoError(t, caf.Archive(context.Background(), &buf, []WriteEntry{{Name: "a", Data: []byte("b")}}))

	format, err := Identify("bundle.zip.br", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, ".zip.br", format.Name())

	// brotli data without a zip inside stays a plain compressed file
	format, err = Identify("notes.txt.br", bytes.NewReader(buf.Bytes()[:0]))
	require.NoError(t, err)
	assert.Equal(t, ".br", format.Name())
}

func TestExtensions(t *testing.T) {
	for _, tc := range []struct {
		filename string
		want     []string
	}{
		{"run.ZIP.gz", []string{".gz", ".zip"}},
		{"dir.v2/bundle", nil},
		{"q3.breakdown.zip", []string{".zip", ".breakdown"}},
		{".gz", nil},
		{"", nil},
	} {
		assert.Equal(t, tc.want, extensions(tc.filename), tc.filename)
	}
	assert.True(t, hasOuterExt("pack.tar.lz", ".lz"))
	assert.False(t, hasOuterExt("pack.lz4", ".lz"))
}
