package archiver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// RegisterFormat registers a format. It should be called during init.
// Duplicate formats by name are not allowed and will panic.
func RegisterFormat(format Format) {
	name := strings.Trim(strings.ToLower(format.Name()), ".")
	if _, ok := formats[name]; ok {
		panic("format " + name + " is already registered")
	}
	formats[name] = format
}

// Identify returns the format of an uploaded file, judged by its name
// and/or its leading bytes. It recognizes plain zip archives, stream
// compressed files (.gz, .zst, ...), and zip archives wrapped in a stream
// compressor (.zip.gz, .zip.zst, ...), which are returned as a
// CompressedArchive. The returned Format can be type-asserted to an
// Extractor or Decompressor.
//
// The stream position is restored before returning. If no registered
// format matches, ErrNoMatch is returned.
func Identify(filename string, stream io.ReadSeeker) (Format, error) {
	var compression Compression
	var compressionMatch MatchResult

	// compression is the outer layer, so try it first
	for name, format := range formats {
		cf, isCompression := format.(Compression)
		if !isCompression {
			continue
		}

		matchResult, err := identifyOne(format, filename, stream, nil)
		if err != nil {
			return nil, fmt.Errorf("matching %s: %w", name, err)
		}
		if matchResult.Matched() {
			compression = cf
			compressionMatch = matchResult
			break
		}
	}

	// then look for an archive, inside the compression if there is one
	archival, archiveMatch, err := identifyArchive(filename, stream, compression)

	// a compression extension the stream does not back up may be a
	// mislabelled upload (a plain zip named bundle.zip.br), so give the
	// bare archive a chance
	if compression != nil && !compressionMatch.ByStream && !archiveMatch.ByStream {
		plain, plainMatch, plainErr := identifyArchive(filename, stream, nil)
		if plainErr == nil && plainMatch.ByStream {
			compression, archival, err = nil, plain, nil
		}
	}
	if err != nil {
		return nil, err
	}

	switch {
	case compression != nil && archival == nil:
		return compression, nil
	case compression == nil && archival != nil:
		return archival, nil
	case compression != nil && archival != nil:
		return CompressedArchive{compression, archival}, nil
	default:
		return nil, ErrNoMatch
	}
}

// identifyArchive returns the first archive format matching the stream,
// read through comp when it is not nil.
func identifyArchive(filename string, stream io.ReadSeeker, comp Compression) (Archival, MatchResult, error) {
	for name, format := range formats {
		af, isArchive := format.(Archival)
		if !isArchive {
			continue
		}

		matchResult, err := identifyOne(format, filename, stream, comp)
		if err != nil {
			return nil, MatchResult{}, fmt.Errorf("matching %s: %w", name, err)
		}
		if matchResult.Matched() {
			return af, matchResult, nil
		}
	}
	return nil, MatchResult{}, nil
}

func identifyOne(format Format, filename string, stream io.ReadSeeker, comp Compression) (MatchResult, error) {
	if stream == nil {
		// an empty stream is easier on every Match implementation than nil
		stream = strings.NewReader("")
	}

	// rewind for the match, then put the stream back where it was
	previousOffset, err := stream.Seek(0, io.SeekCurrent)
	if err != nil {
		return MatchResult{}, err
	}
	_, err = stream.Seek(0, io.SeekStart)
	if err != nil {
		return MatchResult{}, err
	}
	defer stream.Seek(previousOffset, io.SeekStart)

	// to match the inner format, read through a fresh decompressor; it
	// cannot be reused across matches since every match rewinds the stream
	if comp != nil {
		size, err := stream.Seek(0, io.SeekEnd)
		if err != nil {
			return MatchResult{}, err
		}
		if _, err := stream.Seek(0, io.SeekStart); err != nil {
			return MatchResult{}, err
		}
		// with nothing to decompress (e.g. naming a file yet to be
		// written), only the name can match
		if size == 0 {
			return format.Match(filename, strings.NewReader(""))
		}
		decompressedStream, err := comp.OpenReader(stream)
		if err != nil {
			return format.Match(filename, strings.NewReader(""))
		}
		defer decompressedStream.Close()
		stream = struct {
			io.Reader
			io.Seeker
		}{
			Reader: decompressedStream,
			Seeker: stream,
		}
	}

	return format.Match(filename, stream)
}

// readAtMost reads at most n bytes from the stream. A nil, empty, or short
// stream is not an error. The returned slice of bytes may have length < n
// without an error.
func readAtMost(stream io.Reader, n int) ([]byte, error) {
	if stream == nil || n <= 0 {
		return []byte{}, nil
	}

	buf := make([]byte, n)
	nr, err := io.ReadFull(stream, buf)

	// EOF and UnexpectedEOF only mean the stream is shorter than n
	if err == nil ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return buf[:nr], nil
	}

	return nil, err
}

// CompressedArchive combines a compression format on top of an archive
// format (e.g. "zip.gz") and provides both functionalities in a single
// type: archives are compressed as they are written, and decompressed
// before an entry is extracted.
//
// Both the compression and archive formats must be specified in order
// for this value to be valid, or its methods will return errors.
type CompressedArchive struct {
	Compression
	Archival
}

// Name returns a concatenation of the archive format name
// and the compression format name.
func (caf CompressedArchive) Name() string {
	if caf.Compression == nil && caf.Archival == nil {
		panic("missing both compression and archive formats")
	}
	var name string
	if caf.Archival != nil {
		name += caf.Archival.Name()
	}
	if caf.Compression != nil {
		name += caf.Compression.Name()
	}
	return name
}

// Match matches if the input matches both the compression and archive format.
func (caf CompressedArchive) Match(filename string, stream io.Reader) (MatchResult, error) {
	var conglomerate MatchResult

	if caf.Compression != nil {
		matchResult, err := caf.Compression.Match(filename, stream)
		if err != nil {
			return MatchResult{}, err
		}
		if !matchResult.Matched() {
			return matchResult, nil
		}

		// wrap the reader with the decompressor so we can
		// attempt to match the archive by reading the stream
		rc, err := caf.Compression.OpenReader(stream)
		if err != nil {
			return matchResult, err
		}
		defer rc.Close()
		stream = rc

		conglomerate = matchResult
	}

	if caf.Archival != nil {
		matchResult, err := caf.Archival.Match(filename, stream)
		if err != nil {
			return MatchResult{}, err
		}
		if !matchResult.Matched() {
			return matchResult, nil
		}
		conglomerate.ByName = conglomerate.ByName || matchResult.ByName
		conglomerate.ByStream = conglomerate.ByStream || matchResult.ByStream
	}

	return conglomerate, nil
}

// Archive writes the archive through the compressor.
func (caf CompressedArchive) Archive(ctx context.Context, output io.Writer, entries []WriteEntry) error {
	if caf.Archival == nil {
		return fmt.Errorf("no archive format specified")
	}
	if caf.Compression != nil {
		wc, err := caf.Compression.OpenWriter(output)
		if err != nil {
			return err
		}
		if err := caf.Archival.Archive(ctx, wc, entries); err != nil {
			wc.Close()
			return err
		}
		return wc.Close()
	}
	return caf.Archival.Archive(ctx, output, entries)
}

// Extract decompresses sourceArchive and extracts one entry from the result.
func (caf CompressedArchive) Extract(ctx context.Context, sourceArchive io.Reader, nameInArchive string) ([]byte, error) {
	if caf.Archival == nil {
		return nil, fmt.Errorf("no archive format specified")
	}
	if caf.Compression != nil {
		rc, err := caf.Compression.OpenReader(sourceArchive)
		if err != nil {
			return nil, fmt.Errorf("opening %s decompressor: %w", caf.Compression.Name(), err)
		}
		defer rc.Close()
		sourceArchive = rc
	}
	return caf.Archival.Extract(ctx, sourceArchive, nameInArchive)
}

// MatchResult returns true if the format was matched either
// by name, stream, or both. Name usually refers to matching
// by file extension, and stream usually refers to reading
// the first few bytes of the stream (its header). A stream
// match is generally stronger, as filenames are not always
// indicative of their contents if they even exist at all.
type MatchResult struct {
	ByName, ByStream bool
}

// Matched returns true if a match was made by either name or stream.
func (mr MatchResult) Matched() bool { return mr.ByName || mr.ByStream }

// ErrNoMatch is returned if there are no matching formats.
var ErrNoMatch = fmt.Errorf("no formats matched")

// Registered formats.
var formats = make(map[string]Format)

// Interface guards
var (
	_ Format    = (*CompressedArchive)(nil)
	_ Archiver  = (*CompressedArchive)(nil)
	_ Extractor = (*CompressedArchive)(nil)
)

// extensions returns the extensions of a file name in lower case,
// outermost first: "Run.ZIP.gz" gives [".gz", ".zip"].
func extensions(filename string) []string {
	var exts []string
	name := strings.ToLower(filepath.Base(filename))
	for {
		ext := filepath.Ext(name)
		if ext == "" || ext == name {
			return exts
		}
		exts = append(exts, ext)
		name = strings.TrimSuffix(name, ext)
	}
}

// hasOuterExt reports whether ext is the last extension of filename,
// where a stream compressor's extension sits.
func hasOuterExt(filename, ext string) bool {
	exts := extensions(filename)
	return len(exts) > 0 && exts[0] == ext
}

// matchMagic is the Match logic shared by compression formats that have
// a conventional extension and a fixed magic number. The extension only
// counts as the outermost one. A nil magic matches by name only.
func matchMagic(filename, ext string, stream io.Reader, magic []byte) (MatchResult, error) {
	mr := MatchResult{ByName: hasOuterExt(filename, ext)}
	if magic == nil {
		return mr, nil
	}
	buf, err := readAtMost(stream, len(magic))
	if err != nil {
		return mr, err
	}
	mr.ByStream = bytes.Equal(buf, magic)
	return mr, nil
}
