package dff

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/facette/natsort"
	"github.com/minio/highwayhash"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const compareBlockSize = 32 * 1024

// FileLister walks a directory tree for regular files.
type FileLister struct {
	fs          afero.Fs
	minFileSize int64
}

var _ Lister = (*FileLister)(nil)

func NewFileLister(fs afero.Fs, minFileSize int64) *FileLister {
	return &FileLister{fs: fs, minFileSize: minFileSize}
}

// List returns the regular files below root in natural order.
func (l *FileLister) List(root string) ([]string, error) {
	if err := isValidDir(l.fs, root); err != nil {
		return nil, err
	}

	log.Infof("searching files in [%s]", root)
	var files []string
	err := afero.Walk(l.fs, root, func(path string, f os.FileInfo, err error) error {
		if err != nil {
			log.Warnf("skipping [%s]: %v", path, err)
			if f != nil && f.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if f.Mode().IsRegular() && f.Size() >= l.minFileSize {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	natsort.Sort(files)
	log.Debugf("finished searching files in [%s]: %d files", root, len(files))
	return files, nil
}

// FileSizer looks up sizes with Stat.
type FileSizer struct {
	fs afero.Fs
}

var _ Sizer = (*FileSizer)(nil)

func NewFileSizer(fs afero.Fs) *FileSizer {
	return &FileSizer{fs: fs}
}

func (s *FileSizer) Size(path string) (int64, error) {
	fi, err := s.fs.Stat(path)
	if err != nil {
		return 0, newFileError("size", path, err)
	}
	return fi.Size(), nil
}

// ByteComparer compares two files block by block.
type ByteComparer struct {
	fs afero.Fs
}

var _ Comparer = (*ByteComparer)(nil)

func NewByteComparer(fs afero.Fs) *ByteComparer {
	return &ByteComparer{fs: fs}
}

func (c *ByteComparer) Equal(a, b string) (bool, error) {
	fa, err := c.open(a)
	if err != nil {
		return false, err
	}
	defer fa.Close()

	fb, err := c.open(b)
	if err != nil {
		return false, err
	}
	defer fb.Close()

	sa, err := fa.Stat()
	if err != nil {
		return false, newFileError("compare", a, err)
	}
	sb, err := fb.Stat()
	if err != nil {
		return false, newFileError("compare", b, err)
	}
	if sa.Size() != sb.Size() {
		return false, nil
	}

	bufA := make([]byte, compareBlockSize)
	bufB := make([]byte, compareBlockSize)
	for {
		na, errA := io.ReadFull(fa, bufA)
		if errA != nil && errA != io.EOF && errA != io.ErrUnexpectedEOF {
			return false, newFileError("compare", a, errA)
		}
		nb, errB := io.ReadFull(fb, bufB)
		if errB != nil && errB != io.EOF && errB != io.ErrUnexpectedEOF {
			return false, newFileError("compare", b, errB)
		}
		if na != nb || !bytes.Equal(bufA[:na], bufB[:nb]) {
			return false, nil
		}
		if na < compareBlockSize {
			return true, nil
		}
	}
}

func (c *ByteComparer) open(path string) (afero.File, error) {
	f, err := c.fs.Open(path)
	if err != nil {
		return nil, newFileError("compare", path, err)
	}
	return f, nil
}

// DigestComparer remembers a HighwayHash digest per file and only reads both
// files in full when the digests agree.
type DigestComparer struct {
	fs    afero.Fs
	bytes *ByteComparer

	mu      sync.Mutex
	digests map[string][highwayhash.Size]byte
}

var _ Comparer = (*DigestComparer)(nil)

func NewDigestComparer(fs afero.Fs) *DigestComparer {
	return &DigestComparer{
		fs:      fs,
		bytes:   NewByteComparer(fs),
		digests: make(map[string][highwayhash.Size]byte),
	}
}

func (c *DigestComparer) Equal(a, b string) (bool, error) {
	da, err := c.digest(a)
	if err != nil {
		return false, err
	}
	db, err := c.digest(b)
	if err != nil {
		return false, err
	}
	if da != db {
		return false, nil
	}
	return c.bytes.Equal(a, b)
}

func (c *DigestComparer) digest(path string) ([highwayhash.Size]byte, error) {
	c.mu.Lock()
	d, ok := c.digests[path]
	c.mu.Unlock()
	if ok {
		return d, nil
	}

	d, err := getHighwayHash(c.fs, path)
	if err != nil {
		return d, newFileError("digest", path, err)
	}

	c.mu.Lock()
	c.digests[path] = d
	c.mu.Unlock()
	return d, nil
}
