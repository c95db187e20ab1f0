package common

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWithin(t *testing.T) {
	for i, tc := range []struct {
		path1, path2 string
		expect       bool
	}{
		{
			path1:  "/foo",
			path2:  "/foo/bar",
			expect: true,
		},
		{
			path1:  "/foo",
			path2:  "/foobar/asdf",
			expect: false,
		},
		{
			path1:  "/foobar/",
			path2:  "/foobar/asdf",
			expect: true,
		},
		{
			path1:  "/foobar/asdf",
			path2:  "/foobar",
			expect: false,
		},
		{
			path1:  "/foobar/asdf",
			path2:  "/foobar/",
			expect: false,
		},
		{
			path1:  "/",
			path2:  "/asdf",
			expect: true,
		},
		{
			path1:  "/asdf",
			path2:  "/asdf",
			expect: true,
		},
		{
			path1:  "/",
			path2:  "/",
			expect: true,
		},
		{
			path1:  "/foo/bar/daa",
			path2:  "/foo",
			expect: false,
		},
		{
			path1:  "/foo/",
			path2:  "/foo/bar/daa",
			expect: true,
		},
	} {
		actual := Within(tc.path1, tc.path2)
		if actual != tc.expect {
			t.Errorf("Test %d: [%s %s] Expected %t but got %t", i, tc.path1, tc.path2, tc.expect, actual)
		}
	}
}

func TestWithinRejectsDotDotPrefix(t *testing.T) {
	// a sibling whose name merely starts with ".." is still inside
	if !Within("/out", "/out/..data") {
		t.Error("expected /out/..data to be within /out")
	}
	if Within("/out", "/out/../etc") {
		t.Error("expected /out/../etc to be outside /out")
	}
}

func TestExtractPath(t *testing.T) {
	for i, tc := range []struct {
		destination, name string
		expect            string
		illegal           bool
	}{
		{destination: "/out", name: "engine_input.json", expect: "/out/engine_input.json"},
		{destination: "/out", name: "inputs/bank.csv", expect: "/out/inputs/bank.csv"},
		{destination: "/out/", name: "a/./b.txt", expect: "/out/a/b.txt"},
		{destination: "/out", name: "a/../b.txt", expect: "/out/b.txt"},
		{destination: "/out", name: "../evil.txt", illegal: true},
		{destination: "/out", name: "a/../../evil.txt", illegal: true},
		{destination: "out", name: "../../evil.txt", illegal: true},
	} {
		actual, err := ExtractPath(tc.destination, tc.name)
		if tc.illegal {
			if !IsIllegalPathError(err) {
				t.Errorf("Test %d: [%s %s] Expected illegal path error, got %v", i, tc.destination, tc.name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Test %d: Got error: %v", i, err)
		}
		if actual != tc.expect {
			t.Errorf("Test %d: [%s %s] Expected %s but got %s", i, tc.destination, tc.name, tc.expect, actual)
		}
	}
}

func TestNameInArchive(t *testing.T) {
	for i, tc := range []struct {
		dir, fpath string
		expect     string
	}{
		{dir: "inputs", fpath: "bank.csv", expect: "inputs/bank.csv"},
		{dir: "inputs", fpath: "/home/me/exports/bank.csv", expect: "inputs/bank.csv"},
		{dir: "inputs/", fpath: "exports/ledger.json", expect: "inputs/ledger.json"},
		{dir: "", fpath: "exports/ledger.json", expect: "ledger.json"},
	} {
		actual := NameInArchive(tc.dir, tc.fpath)
		if actual != tc.expect {
			t.Errorf("Test %d: [%s %s] Expected %s but got %s", i, tc.dir, tc.fpath, tc.expect, actual)
		}
	}
}

func TestFolderNameFromFileName(t *testing.T) {
	for i, tc := range []struct {
		filename, expect string
	}{
		{filename: "bundle.zip", expect: "bundle"},
		{filename: "/tmp/evidence.zip.gz", expect: "evidence"},
		{filename: "runpack", expect: "runpack"},
	} {
		actual := FolderNameFromFileName(tc.filename)
		if actual != tc.expect {
			t.Errorf("Test %d: Expected %s but got %s", i, tc.expect, actual)
		}
	}
}

func TestWriteNewFile(t *testing.T) {
	dir := t.TempDir()
	fpath := filepath.Join(dir, "nested", "deeper", "file.txt")
	if err := WriteNewFile(fpath, strings.NewReader("contents"), 0644); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(fpath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "contents" {
		t.Errorf("Expected %q but got %q", "contents", data)
	}
	if !FileExists(fpath) {
		t.Errorf("Expected %s to exist", fpath)
	}
	if FileExists(filepath.Join(dir, "missing")) {
		t.Error("Expected missing file to not exist")
	}
}
