// Package fs writes output files atomically.
package fs

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/fwojciec/prgi"
)

// File is an output file that appears at its final path only on Commit.
// Content is written to a temporary file in the same directory.
type File struct {
	path string
	tmp  *os.File
}

// Create opens a temporary file next to path. Parent directories are
// created as needed.
func Create(path string) (*File, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, prgi.Errorf(prgi.EINVALID, "cannot create %s: %v", path, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, prgi.Errorf(prgi.EINVALID, "cannot create %s: %v", path, err)
	}
	return &File{path: path, tmp: tmp}, nil
}

// Path returns the final path of the file.
func (f *File) Path() string {
	return f.path
}

// Write implements io.Writer.
func (f *File) Write(p []byte) (int, error) {
	return f.tmp.Write(p)
}

// Commit moves the written content to the final path, replacing any
// existing file.
func (f *File) Commit() error {
	if err := f.tmp.Close(); err != nil {
		_ = os.Remove(f.tmp.Name())
		return err
	}
	if err := os.Chmod(f.tmp.Name(), 0644); err != nil {
		_ = os.Remove(f.tmp.Name())
		return err
	}
	if err := os.Rename(f.tmp.Name(), f.path); err != nil {
		_ = os.Remove(f.tmp.Name())
		return err
	}
	return nil
}

// Abort discards the written content. The final path is left untouched.
func (f *File) Abort() error {
	closeErr := f.tmp.Close()
	if err := os.Remove(f.tmp.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if errors.Is(closeErr, os.ErrClosed) {
		return nil
	}
	return closeErr
}

// WriteFile writes path atomically with the content produced by fn. If fn
// fails, the existing file at path is kept.
func WriteFile(path string, fn func(w io.Writer) error) error {
	f, err := Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		_ = f.Abort()
		return err
	}
	return f.Commit()
}
