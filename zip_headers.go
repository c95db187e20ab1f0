package archiver

import (
	"encoding/binary"
	"math"
)

// Record signatures, little-endian "PK" followed by the record type.
const (
	localFileHeaderSignature  uint32 = 0x04034b50
	centralDirectorySignature uint32 = 0x02014b50
	endOfCentralDirSignature  uint32 = 0x06054b50
)

// Fixed record sizes, excluding variable-length trailers.
const (
	localFileHeaderLen  = 30 // + name + extra
	centralDirectoryLen = 46 // + name + extra + comment
	endOfCentralDirLen  = 22 // + comment

	// the EOCD comment length is a 16-bit field, so the record starts
	// within this many bytes of the end of the archive (one byte of slack
	// is kept past the largest comment)
	maxEndOfCentralDirSearch = endOfCentralDirLen + math.MaxUint16 + 1
)

// zipVersion is written as both "version made by" and "version needed to
// extract": 2.0, the minimum for stored and deflated entries.
const zipVersion = 20

// localFileHeader is the record preceding each entry's data.
type localFileHeader struct {
	Method           ZipMethod
	CRC32            uint32
	CompressedSize   uint32
	UncompressedSize uint32
	Name             []byte
}

// appendTo appends the encoded header (fixed part and name) to buf.
// No extra field is written.
func (h localFileHeader) appendTo(buf []byte) []byte {
	var b [localFileHeaderLen]byte
	binary.LittleEndian.PutUint32(b[0:4], localFileHeaderSignature)
	binary.LittleEndian.PutUint16(b[4:6], zipVersion)
	binary.LittleEndian.PutUint16(b[6:8], 0) // flags
	binary.LittleEndian.PutUint16(b[8:10], uint16(h.Method))
	binary.LittleEndian.PutUint16(b[10:12], 0) // mod time
	binary.LittleEndian.PutUint16(b[12:14], 0) // mod date
	binary.LittleEndian.PutUint32(b[14:18], h.CRC32)
	binary.LittleEndian.PutUint32(b[18:22], h.CompressedSize)
	binary.LittleEndian.PutUint32(b[22:26], h.UncompressedSize)
	binary.LittleEndian.PutUint16(b[26:28], uint16(len(h.Name)))
	binary.LittleEndian.PutUint16(b[28:30], 0) // extra length
	buf = append(buf, b[:]...)
	return append(buf, h.Name...)
}

// centralDirectoryHeader is one record of the central directory.
type centralDirectoryHeader struct {
	Method            ZipMethod
	CRC32             uint32
	CompressedSize    uint32
	UncompressedSize  uint32
	Name              []byte
	ExtraLength       uint16
	CommentLength     uint16
	LocalHeaderOffset uint32
}

// offset of the local header offset field within an encoded central record
const centralOffsetField = 42

func (h centralDirectoryHeader) appendTo(buf []byte) []byte {
	var b [centralDirectoryLen]byte
	binary.LittleEndian.PutUint32(b[0:4], centralDirectorySignature)
	binary.LittleEndian.PutUint16(b[4:6], zipVersion) // made by
	binary.LittleEndian.PutUint16(b[6:8], zipVersion) // needed
	binary.LittleEndian.PutUint16(b[8:10], 0)         // flags
	binary.LittleEndian.PutUint16(b[10:12], uint16(h.Method))
	binary.LittleEndian.PutUint16(b[12:14], 0) // mod time
	binary.LittleEndian.PutUint16(b[14:16], 0) // mod date
	binary.LittleEndian.PutUint32(b[16:20], h.CRC32)
	binary.LittleEndian.PutUint32(b[20:24], h.CompressedSize)
	binary.LittleEndian.PutUint32(b[24:28], h.UncompressedSize)
	binary.LittleEndian.PutUint16(b[28:30], uint16(len(h.Name)))
	binary.LittleEndian.PutUint16(b[30:32], 0) // extra length
	binary.LittleEndian.PutUint16(b[32:34], 0) // comment length
	binary.LittleEndian.PutUint16(b[34:36], 0) // disk number start
	binary.LittleEndian.PutUint16(b[36:38], 0) // internal attrs
	binary.LittleEndian.PutUint32(b[38:42], 0) // external attrs
	binary.LittleEndian.PutUint32(b[centralOffsetField:46], h.LocalHeaderOffset)
	buf = append(buf, b[:]...)
	return append(buf, h.Name...)
}

// readCentralDirectoryHeader decodes the record at buf[0:]. The caller
// has already checked the signature. ok is false if buf is too short
// to hold the fixed part and its name.
func readCentralDirectoryHeader(buf []byte) (h centralDirectoryHeader, ok bool) {
	if len(buf) < centralDirectoryLen {
		return h, false
	}
	h = centralDirectoryHeader{
		Method:            ZipMethod(binary.LittleEndian.Uint16(buf[10:12])),
		CRC32:             binary.LittleEndian.Uint32(buf[16:20]),
		CompressedSize:    binary.LittleEndian.Uint32(buf[20:24]),
		UncompressedSize:  binary.LittleEndian.Uint32(buf[24:28]),
		ExtraLength:       binary.LittleEndian.Uint16(buf[30:32]),
		CommentLength:     binary.LittleEndian.Uint16(buf[32:34]),
		LocalHeaderOffset: binary.LittleEndian.Uint32(buf[centralOffsetField:46]),
	}
	nameLen := int(binary.LittleEndian.Uint16(buf[28:30]))
	if len(buf) < centralDirectoryLen+nameLen {
		return h, false
	}
	h.Name = buf[centralDirectoryLen : centralDirectoryLen+nameLen]
	return h, true
}

// recordLen is the full size of the record including its three trailers.
func (h centralDirectoryHeader) recordLen() int {
	return centralDirectoryLen + len(h.Name) + int(h.ExtraLength) + int(h.CommentLength)
}

// endOfCentralDir is the record that closes every archive. Disk numbers
// are always zero: multi-disk archives are not supported.
type endOfCentralDir struct {
	Entries   uint16
	DirSize   uint32
	DirOffset uint32
}

func (e endOfCentralDir) appendTo(buf []byte) []byte {
	var b [endOfCentralDirLen]byte
	binary.LittleEndian.PutUint32(b[0:4], endOfCentralDirSignature)
	binary.LittleEndian.PutUint16(b[4:6], 0)          // this disk
	binary.LittleEndian.PutUint16(b[6:8], 0)          // disk with central directory
	binary.LittleEndian.PutUint16(b[8:10], e.Entries) // entries on this disk
	binary.LittleEndian.PutUint16(b[10:12], e.Entries)
	binary.LittleEndian.PutUint32(b[12:16], e.DirSize)
	binary.LittleEndian.PutUint32(b[16:20], e.DirOffset)
	binary.LittleEndian.PutUint16(b[20:22], 0) // comment length
	return append(buf, b[:]...)
}

// readEndOfCentralDir decodes the record at buf[0:]; buf must hold at
// least endOfCentralDirLen bytes.
func readEndOfCentralDir(buf []byte) endOfCentralDir {
	return endOfCentralDir{
		Entries:   binary.LittleEndian.Uint16(buf[10:12]),
		DirSize:   binary.LittleEndian.Uint32(buf[12:16]),
		DirOffset: binary.LittleEndian.Uint32(buf[16:20]),
	}
}
