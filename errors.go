package archiver

import "errors"

// Errors returned while reading or writing zip archives. Returned errors
// wrap one of these with details (entry name, offending value), so test
// for them with errors.Is.
var (
	// ErrMalformedArchive is returned when no end of central directory
	// record is found within the scan window, or a recorded offset does
	// not lead to a local file header.
	ErrMalformedArchive = errors.New("zip: not a valid zip archive")

	// ErrTruncatedCentralDirectory is returned when the central directory
	// ends (bad signature or short buffer) before the requested entry was seen.
	ErrTruncatedCentralDirectory = errors.New("zip: truncated central directory")

	// ErrEntryNotFound is returned when no entry has the requested name.
	ErrEntryNotFound = errors.New("zip: entry not found")

	// ErrUnsupportedMethod is returned for a compression method that has
	// no decoder.
	ErrUnsupportedMethod = errors.New("zip: unsupported compression method")

	// ErrDecompressionUnavailable is returned when an entry is deflated
	// but no deflate decoder is installed.
	ErrDecompressionUnavailable = errors.New("zip: decompression not available")

	// ErrDecompression is returned when the decoder rejects an entry's data.
	ErrDecompression = errors.New("zip: decompression failed")

	// ErrSizeMismatch is returned when the decoded length differs from the
	// uncompressed size recorded in the central directory.
	ErrSizeMismatch = errors.New("zip: entry size mismatch")

	// ErrChecksum is returned when checksum verification is enabled and
	// the decoded data does not match the recorded CRC-32.
	ErrChecksum = errors.New("zip: checksum error")

	// ErrFieldOverflow is returned when a name, size, count or offset does
	// not fit the width of its header field.
	ErrFieldOverflow = errors.New("zip: value exceeds header field width")
)
