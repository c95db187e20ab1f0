// Package archiver writes and reads the zip archives exchanged between
// the reconciliation console and a locally run engine.
//
// Writing produces a complete archive in memory with every entry stored
// uncompressed; entries are encoded in parallel and laid out in the order
// given. Reading locates the central directory from the end of the
// archive and extracts a single named entry, decoding it with the
// Decompressor installed for its compression method.
//
// Archives wrapped in a stream compressor (bundle.zip.gz, bundle.zip.zst
// and so on) are recognized with Identify and handled as a
// CompressedArchive.
package archiver
