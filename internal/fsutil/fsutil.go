// Package fsutil holds the file operations shared by the build stages:
// atomic writes, idempotent copies and the output-root sandbox check.
package fsutil

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// Within reports whether path is root itself or lies below it.
func Within(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil || filepath.IsAbs(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// WriteFileAtomic writes data to path through a temporary sibling file, so
// readers never observe a partially written file. Parent directories are
// created as needed.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	return writeAtomic(path, perm, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// CopyFileIfMissing copies src to dst unless dst already exists. The copy
// goes through a temporary file, so concurrent copies of the same asset are
// safe. copied is false when dst was already present.
func CopyFileIfMissing(src, dst string) (copied bool, err error) {
	if _, err := os.Stat(dst); err == nil {
		return false, nil
	}
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return false, errors.WrapError(err, errors.CategoryFileSystem, "failed to open source file").
			WithContext("source", src).Build()
	}
	defer func() {
		_ = in.Close()
	}()

	info, err := in.Stat()
	if err != nil {
		return false, errors.WrapError(err, errors.CategoryFileSystem, "failed to stat source file").
			WithContext("source", src).Build()
	}
	err = writeAtomic(dst, info.Mode().Perm(), func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func writeAtomic(path string, perm os.FileMode, fill func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create directory").
			WithContext("dir", dir).Build()
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create temporary file").
			WithContext("path", path).Build()
	}
	tmpPath := tmp.Name()
	defer func() {
		// No-op after a successful rename.
		_ = os.Remove(tmpPath)
	}()

	if err := fill(tmp); err != nil {
		_ = tmp.Close()
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write file").
			WithContext("path", path).Build()
	}
	if err := tmp.Close(); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to close file").
			WithContext("path", path).Build()
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to set file mode").
			WithContext("path", path).Build()
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to replace file").
			WithContext("path", path).Build()
	}
	return nil
}
