package archiver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
)

// The simplest use of this package: build an archive in memory
// and read one member back out of it.
func ExampleCreateZip() {
	archive, err := CreateZip([]WriteEntry{
		{Name: "a.txt", Data: []byte("hello")},
		{Name: "dir/b.json", Data: []byte(`{"x":1}`)},
	})
	if err != nil {
		log.Fatal(err)
	}

	data, err := ExtractZipEntry(archive, "dir/b.json")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(len(archive), string(data))
	// Output: 216 {"x":1}
}

// Listing the central directory shows every entry in the order it was
// written, with the offset of its local header.
func ExampleZip_List() {
	archive, err := CreateZip([]WriteEntry{
		{Name: "inputs/bank.csv", Data: []byte("id,amount\n")},
		{Name: "README.txt", Data: []byte("run me")},
	})
	if err != nil {
		log.Fatal(err)
	}

	headers, err := Zip{}.List(archive)
	if err != nil {
		log.Fatal(err)
	}
	for _, h := range headers {
		fmt.Println(h.Method, h.UncompressedSize, h.LocalHeaderOffset, h.Name)
	}
	// Output:
	// store 10 0 inputs/bank.csv
	// store 6 55 README.txt
}

// Errors wrap sentinel values, so callers can tell a missing member
// from a damaged archive.
func ExampleZip_ExtractEntry() {
	archive, err := CreateZip([]WriteEntry{{Name: "engine_input.json", Data: []byte("{}")}})
	if err != nil {
		log.Fatal(err)
	}

	_, err = ExtractZipEntry(archive, "mapping.json")
	fmt.Println(errors.Is(err, ErrEntryNotFound))

	_, err = ExtractZipEntry(archive[:len(archive)-1], "engine_input.json")
	fmt.Println(errors.Is(err, ErrMalformedArchive))
	// Output:
	// true
	// true
}

// An archive can be compressed as a whole by pairing Zip with a
// stream compressor.
func ExampleCompressedArchive() {
	ctx := context.Background()
	bundle := CompressedArchive{Compression: Gz{}, Archival: Zip{}}

	var buf bytes.Buffer
	err := bundle.Archive(ctx, &buf, []WriteEntry{
		{Name: "evidence/variances.jsonl", Data: []byte(`{"key":"t1"}` + "\n")},
	})
	if err != nil {
		log.Fatal(err)
	}

	format, err := Identify("evidence.zip.gz", bytes.NewReader(buf.Bytes()))
	if err != nil {
		log.Fatal(err)
	}
	data, err := format.(Extractor).Extract(ctx, bytes.NewReader(buf.Bytes()), "evidence/variances.jsonl")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Print(format.Name(), " ", string(data))
	// Output: .zip.gz {"key":"t1"}
}
