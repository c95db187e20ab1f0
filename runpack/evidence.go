package runpack

import (
	"bytes"
	"context"
	_ "crypto/sha256" // registers digest.SHA256
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/opencontainers/go-digest"
	"go.uber.org/zap"

	"github.com/settler/archiver"
)

// Paths inside an evidence bundle.
const (
	VariancesPath = "evidence/variances.jsonl"
	ManifestPath  = "evidence/manifest.json"
)

// requiredOutputFields are the top-level keys every engine_output.json has.
var requiredOutputFields = []string{
	"schema_version",
	"tool_version",
	"normalization_summary",
	"variance_summary",
	"variance_items_path",
	"evidence_manifest",
	"deterministic_statement",
}

// MissingFieldsError reports the required fields absent from an
// engine_output.json.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// ErrUnreadableBundle is returned for an upload that is neither a zip
// archive (possibly compressed) nor a variances file.
var ErrUnreadableBundle = errors.New("unable to read evidence bundle; upload variances.jsonl instead")

// ParseEngineOutput decodes engine_output.json. All missing required
// fields are reported together in a *MissingFieldsError.
func ParseEngineOutput(data []byte) (*EngineOutput, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("parsing engine output: %w", err)
	}
	var missing []string
	for _, name := range requiredOutputFields {
		if _, ok := fields[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingFieldsError{Fields: missing}
	}

	var out EngineOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parsing engine output: %w", err)
	}
	return &out, nil
}

// ParseVariances decodes newline-delimited variance items. Lines may end
// in "\n" or "\r\n"; empty lines are skipped.
func ParseVariances(data []byte) ([]VarianceItem, error) {
	var items []VarianceItem
	for i, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSuffix(line, []byte("\r"))
		if len(line) == 0 {
			continue
		}
		var item VarianceItem
		if err := json.Unmarshal(line, &item); err != nil {
			return nil, fmt.Errorf("variances line %d: %w", i+1, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// Importer reads evidence bundles uploaded after a local engine run.
type Importer struct {
	// Zip extracts members from the bundle. Its Decompressors decide
	// which entry methods can be read.
	Zip archiver.Zip

	// Logger receives diagnostics; nil discards them.
	Logger *zap.Logger
}

// Variances returns the variance items of an uploaded file. A bundle is
// a zip archive, optionally wrapped in a stream compressor, holding
// VariancesPath. A file named *.jsonl (or *.jsonl.gz and the like) is
// taken to be the variances file itself.
func (imp Importer) Variances(ctx context.Context, filename string, upload io.ReadSeeker) ([]VarianceItem, error) {
	data, err := imp.member(ctx, filename, upload, VariancesPath)
	if err != nil {
		return nil, err
	}
	items, err := ParseVariances(data)
	if err != nil {
		return nil, err
	}
	imp.logger().Info("imported variances",
		zap.String("upload", filename),
		zap.Int("items", len(items)))
	return items, nil
}

// Manifest returns the evidence manifest stored in the bundle itself.
func (imp Importer) Manifest(ctx context.Context, filename string, bundle io.ReadSeeker) (*EvidenceManifest, error) {
	archive, err := imp.OpenArchive(ctx, filename, bundle)
	if err != nil {
		return nil, err
	}
	data, err := imp.Zip.ExtractEntry(archive, ManifestPath)
	if err != nil {
		return nil, err
	}
	var m EvidenceManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ManifestPath, err)
	}
	return &m, nil
}

// VerificationResult is the outcome of checking a bundle against its
// manifest. Errors has one message per file that failed.
type VerificationResult struct {
	OK     bool
	Errors []string
}

// Verify extracts every file listed in manifest from the bundle and
// checks its size and SHA-256. A file that fails is reported in the
// result; the error is reserved for a bundle that cannot be read at all.
func (imp Importer) Verify(ctx context.Context, filename string, bundle io.ReadSeeker, manifest EvidenceManifest) (VerificationResult, error) {
	archive, err := imp.OpenArchive(ctx, filename, bundle)
	if err != nil {
		return VerificationResult{}, err
	}

	var result VerificationResult
	for _, f := range manifest.Files {
		if err := ctx.Err(); err != nil {
			return VerificationResult{}, err
		}
		if msg := imp.verifyFile(archive, f); msg != "" {
			imp.logger().Warn("evidence file failed verification",
				zap.String("path", f.Path),
				zap.String("reason", msg))
			result.Errors = append(result.Errors, msg)
		}
	}
	result.OK = len(result.Errors) == 0
	return result, nil
}

func (imp Importer) verifyFile(archive []byte, f ManifestFile) string {
	want := digest.NewDigestFromEncoded(digest.SHA256, strings.ToLower(f.SHA256))
	if err := want.Validate(); err != nil {
		return fmt.Sprintf("%s: bad manifest digest: %v", f.Path, err)
	}
	// manifests written on Windows use backslashes
	name := strings.ReplaceAll(f.Path, `\`, "/")
	data, err := imp.Zip.ExtractEntry(archive, name)
	if err != nil {
		return fmt.Sprintf("%s: %v", f.Path, err)
	}
	if int64(len(data)) != f.Bytes {
		return fmt.Sprintf("%s: %d bytes, manifest records %d", f.Path, len(data), f.Bytes)
	}
	if got := digest.FromBytes(data); got != want {
		return fmt.Sprintf("%s: digest %s, manifest records %s", f.Path, got, want)
	}
	return ""
}

// member returns the contents of name from an upload, or the whole
// (decompressed) upload when it is a bare variances file. An upload named
// like a variances file that turns out to be a zip archive is read as one.
func (imp Importer) member(ctx context.Context, filename string, upload io.ReadSeeker, name string) ([]byte, error) {
	lower := strings.ToLower(filename)
	if strings.Contains(lower, ".jsonl") && !strings.Contains(lower, ".zip") {
		data, err := imp.readBare(filename, upload)
		if !errors.Is(err, errArchiveUpload) {
			return data, err
		}
	}
	archive, err := imp.OpenArchive(ctx, filename, upload)
	if err != nil {
		return nil, err
	}
	return imp.Zip.ExtractEntry(archive, name)
}

// errArchiveUpload is returned by readBare when the upload is a zip archive.
var errArchiveUpload = errors.New("upload is an archive")

// readBare reads a file uploaded outside of any archive, decompressing
// it if a compression format is recognized.
func (imp Importer) readBare(filename string, upload io.ReadSeeker) ([]byte, error) {
	format, err := archiver.Identify(filename, upload)
	if errors.Is(err, archiver.ErrNoMatch) {
		return io.ReadAll(upload)
	}
	if err != nil {
		return nil, err
	}
	switch format.(type) {
	case archiver.Zip, archiver.CompressedArchive:
		return nil, errArchiveUpload
	}
	dec, ok := format.(archiver.Decompressor)
	if !ok {
		return nil, fmt.Errorf("%s: %w", filename, ErrUnreadableBundle)
	}
	rc, err := dec.OpenReader(upload)
	if err != nil {
		return nil, fmt.Errorf("opening %s decompressor: %w", format.Name(), err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// OpenArchive identifies the bundle format and returns the bytes of the zip
// archive inside it.
func (imp Importer) OpenArchive(ctx context.Context, filename string, bundle io.ReadSeeker) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	format, err := archiver.Identify(filename, bundle)
	if errors.Is(err, archiver.ErrNoMatch) {
		return nil, fmt.Errorf("%s: %w", filename, ErrUnreadableBundle)
	}
	if err != nil {
		return nil, fmt.Errorf("identifying %s: %w", filename, err)
	}

	var r io.Reader = bundle
	switch f := format.(type) {
	case archiver.Zip:
	case archiver.CompressedArchive:
		if _, ok := f.Archival.(archiver.Zip); !ok {
			return nil, fmt.Errorf("%s: %w", filename, ErrUnreadableBundle)
		}
		rc, err := f.Compression.OpenReader(bundle)
		if err != nil {
			return nil, fmt.Errorf("opening %s decompressor: %w", f.Compression.Name(), err)
		}
		defer rc.Close()
		r = rc
	default:
		return nil, fmt.Errorf("%s: %s file is not an archive: %w", filename, format.Name(), ErrUnreadableBundle)
	}

	imp.logger().Debug("reading evidence bundle",
		zap.String("upload", filename),
		zap.String("format", format.Name()))

	archive, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	return archive, nil
}

func (imp Importer) logger() *zap.Logger {
	if imp.Logger == nil {
		return zap.NewNop()
	}
	return imp.Logger
}
