package archiver

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// WriteEntry is one named file to be stored in a new archive. Name is
// written as its raw UTF-8 bytes and must be at most 65535 bytes long;
// Data must be at most 4 GiB - 1 bytes.
type WriteEntry struct {
	Name string
	Data []byte
}

// encodedEntry holds the two records written for one entry. The central
// record's local header offset is left zero until the entries are laid
// out one after another.
type encodedEntry struct {
	local   []byte // header, name and data
	central []byte
}

// Create returns a complete zip archive holding entries in the given
// order, every entry stored uncompressed. An empty list yields an archive
// consisting of only the end of central directory record.
//
// Entries are encoded independently, in parallel, and then laid out in a
// single serial pass that assigns each its offset.
func (z Zip) Create(ctx context.Context, entries []WriteEntry) ([]byte, error) {
	if len(entries) > math.MaxUint16 {
		return nil, fmt.Errorf("%w: %d entries, at most %d fit the entry count",
			ErrFieldOverflow, len(entries), math.MaxUint16)
	}
	for i, e := range entries {
		if err := checkEntrySize(e.Name, uint64(len(e.Data))); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}

	encoded := make([]encodedEntry, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(z.concurrency())
	for i := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err // honor context cancellation
			}
			encoded[i] = encodeEntry(entries[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	archive, err := layout(encoded)
	if err != nil {
		return nil, err
	}

	z.logger().Debug("created zip archive",
		zap.Int("entries", len(entries)),
		zap.Int("bytes", len(archive)))

	return archive, nil
}

// checkEntrySize reports whether a name of that length and data of size
// bytes fit their header fields.
func checkEntrySize(name string, size uint64) error {
	if len(name) > math.MaxUint16 {
		return fmt.Errorf("%w: name is %d bytes, at most %d allowed",
			ErrFieldOverflow, len(name), math.MaxUint16)
	}
	if size > math.MaxUint32 {
		return fmt.Errorf("%w: %s: data is %d bytes, at most %d allowed",
			ErrFieldOverflow, name, size, uint64(math.MaxUint32))
	}
	return nil
}

// encodeEntry builds the local and central records for e. Sizes have
// already been checked.
func encodeEntry(e WriteEntry) encodedEntry {
	name := []byte(e.Name)
	crc := Checksum(e.Data)
	size := uint32(len(e.Data))

	local := make([]byte, 0, localFileHeaderLen+len(name)+len(e.Data))
	local = localFileHeader{
		Method:           MethodStore,
		CRC32:            crc,
		CompressedSize:   size,
		UncompressedSize: size,
		Name:             name,
	}.appendTo(local)
	local = append(local, e.Data...)

	central := make([]byte, 0, centralDirectoryLen+len(name))
	central = centralDirectoryHeader{
		Method:           MethodStore,
		CRC32:            crc,
		CompressedSize:   size,
		UncompressedSize: size,
		Name:             name,
	}.appendTo(central)

	return encodedEntry{local: local, central: central}
}

// layout folds the encoded entries into the final archive: every local
// record, then every central record, then the end record. Each central
// record gets the offset its local record ends up at.
func layout(encoded []encodedEntry) ([]byte, error) {
	var localSize, dirSize uint64
	for _, e := range encoded {
		localSize += uint64(len(e.local))
		dirSize += uint64(len(e.central))
	}
	if localSize > math.MaxUint32 {
		return nil, fmt.Errorf("%w: central directory would start at byte %d",
			ErrFieldOverflow, localSize)
	}
	if dirSize > math.MaxUint32 {
		return nil, fmt.Errorf("%w: central directory would be %d bytes",
			ErrFieldOverflow, dirSize)
	}

	archive := make([]byte, 0, localSize+dirSize+endOfCentralDirLen)
	var offset uint32
	for _, e := range encoded {
		binary.LittleEndian.PutUint32(e.central[centralOffsetField:], offset)
		archive = append(archive, e.local...)
		offset += uint32(len(e.local))
	}
	for _, e := range encoded {
		archive = append(archive, e.central...)
	}
	archive = endOfCentralDir{
		Entries:   uint16(len(encoded)),
		DirSize:   uint32(dirSize),
		DirOffset: offset,
	}.appendTo(archive)

	return archive, nil
}
