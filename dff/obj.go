package dff

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrNotFound    = errors.New("file not found")
	ErrUnreadable  = errors.New("file is unreadable")
	ErrInvalidRoot = errors.New("invalid root directory")
)

// FileError reports the file reference that made a run fail.
type FileError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s `%s`: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// Kind returns ErrNotFound or ErrUnreadable.
func (e *FileError) Kind() error {
	if errors.Is(e.Err, ErrNotFound) {
		return ErrNotFound
	}
	return ErrUnreadable
}

// Is matches the error kind so callers can test with errors.Is.
func (e *FileError) Is(target error) bool {
	return target == e.Kind()
}

// Sizer resolves a file reference to its byte size.
type Sizer interface {
	Size(path string) (int64, error)
}

// Comparer reports whether two files have identical contents.
type Comparer interface {
	Equal(a, b string) (bool, error)
}

// Lister enumerates the files below a root directory.
type Lister interface {
	List(root string) ([]string, error)
}

// candidate is a file that has not been classified yet.
type candidate struct {
	path  string
	size  int64
	index int
}

// Group is a set of files with identical contents. Files[0] is the
// representative, the rest are its copies.
type Group struct {
	Files []string
	Size  int64
}

func (g Group) Representative() string {
	return g.Files[0]
}

func (g Group) Copies() []string {
	return g.Files[1:]
}

func (g Group) Count() int {
	return len(g.Files)
}

// TotalSize is the size of all members, representative included.
func (g Group) TotalSize() int64 {
	return g.Size * int64(len(g.Files))
}

// Stats describes the work done by the last Grouper run.
type Stats struct {
	Files       int
	Candidates  int
	Buckets     int
	Comparisons int64
	Groups      int
}
