// Package common holds the filesystem helpers shared by the run pack
// tooling: naming files inside an archive and writing extracted entries
// to disk without escaping the destination directory.
package common

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
)

func FileExists(name string) bool {
	_, err := os.Stat(name)
	return !os.IsNotExist(err)
}

// WriteNewFile creates fpath, along with any missing parent directories,
// and copies in into it.
func WriteNewFile(fpath string, in io.Reader, fm os.FileMode) error {
	err := os.MkdirAll(filepath.Dir(fpath), 0755)
	if err != nil {
		return fmt.Errorf("%s: making directory for file: %v", fpath, err)
	}

	out, err := os.Create(fpath)
	if err != nil {
		return fmt.Errorf("%s: creating new file: %v", fpath, err)
	}
	defer out.Close()

	err = out.Chmod(fm)
	if err != nil && runtime.GOOS != "windows" {
		return fmt.Errorf("%s: changing file mode: %v", fpath, err)
	}

	_, err = io.Copy(out, in)
	if err != nil {
		return fmt.Errorf("%s: writing file: %v", fpath, err)
	}
	return nil
}

// Within returns true if sub is within or equal to parent.
func Within(parent, sub string) bool {
	rel, err := filepath.Rel(parent, sub)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// ExtractPath returns where the entry nameInArchive lands when extracted
// under destination. Names that would resolve outside destination
// ("../x", "/etc/x" on some systems, "a/../../x") yield an
// *IllegalPathError.
func ExtractPath(destination, nameInArchive string) (string, error) {
	target := filepath.Join(destination, filepath.FromSlash(nameInArchive))
	if !Within(filepath.Clean(destination), target) {
		abs, _ := filepath.Abs(target)
		return "", &IllegalPathError{AbsolutePath: abs, Filename: nameInArchive}
	}
	return target, nil
}

// NameInArchive returns the name for the file at fpath when it is stored
// in the archive folder dir: the file's base name under dir, with forward
// slashes. An empty dir places it at the top level.
func NameInArchive(dir, fpath string) string {
	name := filepath.Base(filepath.FromSlash(fpath))
	if dir == "" {
		return name
	}
	return path.Join(dir, name)
}

// FolderNameFromFileName returns a name for a folder
// that is suitable based on the filename, which will
// be stripped of its extensions.
func FolderNameFromFileName(filename string) string {
	base := filepath.Base(filename)
	firstDot := strings.Index(base, ".")
	if firstDot > -1 {
		return base[:firstDot]
	}
	return base
}
