package archiver

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// EntryHeader describes one entry as recorded in the central directory.
type EntryHeader struct {
	Name              string
	Method            ZipMethod
	CRC32             uint32
	CompressedSize    uint32
	UncompressedSize  uint32
	LocalHeaderOffset uint32
}

// List returns the central directory of archive in stored order. If the
// directory ends before the count recorded in the end record, the entries
// read so far are returned along with ErrTruncatedCentralDirectory.
func (z Zip) List(archive []byte) ([]EntryHeader, error) {
	end, err := findEndOfCentralDir(archive)
	if err != nil {
		return nil, err
	}
	var headers []EntryHeader
	complete := z.walkCentralDirectory(archive, end, func(h EntryHeader) bool {
		headers = append(headers, h)
		return true
	})
	if !complete {
		return headers, fmt.Errorf("%w: read %d of %d entries",
			ErrTruncatedCentralDirectory, len(headers), end.Entries)
	}
	return headers, nil
}

// ExtractEntry returns the decoded contents of the entry in archive whose
// name equals name byte-for-byte. If several entries share the name, the
// first one in the central directory wins.
func (z Zip) ExtractEntry(archive []byte, name string) ([]byte, error) {
	end, err := findEndOfCentralDir(archive)
	if err != nil {
		return nil, err
	}

	var (
		entry EntryHeader
		found bool
	)
	complete := z.walkCentralDirectory(archive, end, func(h EntryHeader) bool {
		if h.Name == name {
			entry, found = h, true
			return false
		}
		return true
	})
	if !found {
		if !complete {
			return nil, fmt.Errorf("%w: %s not seen before directory ended",
				ErrTruncatedCentralDirectory, name)
		}
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}

	payload, err := entryPayload(archive, entry)
	if err != nil {
		return nil, err
	}

	data, err := z.decode(entry, payload)
	if err != nil {
		return nil, err
	}

	if uint64(len(data)) != uint64(entry.UncompressedSize) {
		return nil, fmt.Errorf("%w: %s: decoded %d bytes, header records %d",
			ErrSizeMismatch, name, len(data), entry.UncompressedSize)
	}
	if z.VerifyChecksum {
		if sum := Checksum(data); sum != entry.CRC32 {
			return nil, fmt.Errorf("%w: %s: computed %08x, header records %08x",
				ErrChecksum, name, sum, entry.CRC32)
		}
	}

	return data, nil
}

// findEndOfCentralDir scans backwards from the last position the end
// record could start at, down to the earliest position a maximal comment
// allows.
func findEndOfCentralDir(archive []byte) (endOfCentralDir, error) {
	var sig [4]byte
	binary.LittleEndian.PutUint32(sig[:], endOfCentralDirSignature)

	lowest := max(len(archive)-maxEndOfCentralDirSearch, 0)
	for i := len(archive) - endOfCentralDirLen; i >= lowest; i-- {
		if bytes.Equal(archive[i:i+4], sig[:]) {
			end := readEndOfCentralDir(archive[i:])
			return end, nil
		}
	}
	return endOfCentralDir{}, fmt.Errorf("%w: end of central directory record not found", ErrMalformedArchive)
}

// walkCentralDirectory calls fn for each central directory record until
// fn returns false or all recorded entries are read. It reports whether
// the walk ended normally, i.e. it was not cut short by a bad signature
// or a record running past the end of the archive.
func (z Zip) walkCentralDirectory(archive []byte, end endOfCentralDir, fn func(EntryHeader) bool) bool {
	pos := uint64(end.DirOffset)
	for i := 0; i < int(end.Entries); i++ {
		if pos+4 > uint64(len(archive)) ||
			binary.LittleEndian.Uint32(archive[pos:]) != centralDirectorySignature {
			z.logger().Warn("central directory ended early",
				zap.Int("entries_read", i),
				zap.Uint16("entries_recorded", end.Entries),
				zap.Uint64("offset", pos))
			return false
		}
		h, ok := readCentralDirectoryHeader(archive[pos:])
		if !ok {
			z.logger().Warn("central directory record runs past end of archive",
				zap.Int("entry", i),
				zap.Uint64("offset", pos))
			return false
		}
		if !fn(EntryHeader{
			Name:              string(h.Name),
			Method:            h.Method,
			CRC32:             h.CRC32,
			CompressedSize:    h.CompressedSize,
			UncompressedSize:  h.UncompressedSize,
			LocalHeaderOffset: h.LocalHeaderOffset,
		}) {
			return true
		}
		pos += uint64(h.recordLen())
	}
	return true
}

// entryPayload returns the raw (possibly compressed) bytes of entry. The
// local header's name and extra lengths are used to find the data, since
// they may differ from the central directory's copy. A payload running
// past the end of the archive is cut short; the size check catches it.
func entryPayload(archive []byte, entry EntryHeader) ([]byte, error) {
	off := uint64(entry.LocalHeaderOffset)
	if off+localFileHeaderLen > uint64(len(archive)) {
		return nil, fmt.Errorf("%w: %s: local header offset %d is past end of archive",
			ErrMalformedArchive, entry.Name, off)
	}
	local := archive[off:]
	if binary.LittleEndian.Uint32(local) != localFileHeaderSignature {
		return nil, fmt.Errorf("%w: %s: no local file header at offset %d",
			ErrMalformedArchive, entry.Name, off)
	}
	nameLen := uint64(binary.LittleEndian.Uint16(local[26:28]))
	extraLen := uint64(binary.LittleEndian.Uint16(local[28:30]))

	start := min(off+localFileHeaderLen+nameLen+extraLen, uint64(len(archive)))
	stop := min(start+uint64(entry.CompressedSize), uint64(len(archive)))
	return archive[start:stop], nil
}

// decode turns the raw payload of entry into its contents.
func (z Zip) decode(entry EntryHeader, payload []byte) ([]byte, error) {
	if entry.Method == MethodStore {
		return payload, nil
	}

	dec, ok := z.decompressors()[entry.Method]
	if !ok || dec == nil {
		if entry.Method == MethodDeflate {
			return nil, fmt.Errorf("%w: %s is deflated but no deflate decoder is installed",
				ErrDecompressionUnavailable, entry.Name)
		}
		return nil, fmt.Errorf("%w: %s uses %s", ErrUnsupportedMethod, entry.Name, entry.Method)
	}

	rc, err := dec.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: opening %s decoder: %v",
			ErrDecompression, entry.Name, entry.Method, err)
	}
	defer rc.Close()

	// never read more than one byte past the recorded size, so a bogus
	// stream cannot balloon memory before the size check rejects it
	limit := int64(entry.UncompressedSize) + 1
	data, err := io.ReadAll(io.LimitReader(rc, limit))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecompression, entry.Name, err)
	}
	return data, nil
}
