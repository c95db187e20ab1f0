package archiver

import (
	"bytes"
	"testing"
)

func FuzzExtractEntry(f *testing.F) {
	seed, err := CreateZip([]WriteEntry{
		{Name: "a.txt", Data: []byte("alpha")},
		{Name: "evidence/variances.jsonl", Data: []byte(`{"key":"t1"}` + "\n")},
	})
	if err != nil {
		f.Fatal(err)
	}
	empty, err := CreateZip(nil)
	if err != nil {
		f.Fatal(err)
	}
	f.Add(seed, "a.txt")
	f.Add(seed, "evidence/variances.jsonl")
	f.Add(empty, "a.txt")
	f.Add([]byte("PK\x05\x06"), "")

	z := Zip{Decompressors: ExtendedDecompressors()}
	f.Fuzz(func(t *testing.T, archive []byte, name string) {
		data, err := z.ExtractEntry(archive, name)
		if err != nil {
			if data != nil {
				t.Fatalf("partial result returned with error %v", err)
			}
			return
		}

		// whatever was extracted must survive a round trip
		again, err := CreateZip([]WriteEntry{{Name: name, Data: data}})
		if err != nil {
			return // name too long for a header field
		}
		got, err := ExtractZipEntry(again, name)
		if err != nil {
			t.Fatalf("re-extracting %q: %v", name, err)
		}
		if !bytes.Equal(got, data) {
			t.Fatalf("re-extracted %d bytes, want %d", len(got), len(data))
		}
	})
}
