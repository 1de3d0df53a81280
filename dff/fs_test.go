package dff

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, fs afero.Fs, files map[string][]byte) {
	t.Helper()
	for path, data := range files {
		require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, afero.WriteFile(fs, path, data, 0644))
	}
}

func TestFileLister_List(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string][]byte{
		"/data/img10.jpg": []byte("ten"),
		"/data/img2.jpg":  []byte("two"),
		"/data/sub/x.txt": []byte("x"),
		"/data/empty":     nil,
	})

	files, err := NewFileLister(fs, 0).List("/data")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/data/empty",
		"/data/img2.jpg",
		"/data/img10.jpg",
		"/data/sub/x.txt",
	}, files)

	t.Run("min_size", func(t *testing.T) {
		files, err := NewFileLister(fs, 2).List("/data")
		require.NoError(t, err)
		assert.Equal(t, []string{"/data/img2.jpg", "/data/img10.jpg"}, files)
	})

	t.Run("missing_root", func(t *testing.T) {
		_, err := NewFileLister(fs, 0).List("/nope")
		assert.ErrorIs(t, err, ErrInvalidRoot)
	})

	t.Run("file_root", func(t *testing.T) {
		_, err := NewFileLister(fs, 0).List("/data/img2.jpg")
		assert.ErrorIs(t, err, ErrInvalidRoot)
	})
}

// lockedDirFs refuses to open one directory.
type lockedDirFs struct {
	afero.Fs
	dir string
}

func (l lockedDirFs) Open(name string) (afero.File, error) {
	if name == l.dir {
		return nil, &os.PathError{Op: "open", Path: name, Err: errors.New("permission denied")}
	}
	return l.Fs.Open(name)
}

func TestFileLister_UnreadableDir(t *testing.T) {
	mem := afero.NewMemMapFs()
	writeFiles(t, mem, map[string][]byte{
		"/data/a.txt":        []byte("a"),
		"/data/locked/b.txt": []byte("b"),
		"/data/open/c.txt":   []byte("c"),
	})

	files, err := NewFileLister(lockedDirFs{Fs: mem, dir: "/data/locked"}, 0).List("/data")
	require.NoError(t, err)
	assert.Equal(t, []string{"/data/a.txt", "/data/open/c.txt"}, files)
}

func TestFileSizer_Size(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string][]byte{"/a": []byte("12345")})
	sizer := NewFileSizer(fs)

	size, err := sizer.Size("/a")
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)

	_, err = sizer.Size("/b")
	assert.ErrorIs(t, err, ErrNotFound)
	var fe *FileError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "/b", fe.Path)
}

func comparerFiles(t *testing.T) afero.Fs {
	big := bytes.Repeat([]byte("0123456789abcdef"), 5000)
	bigOther := append([]byte(nil), big...)
	bigOther[len(bigOther)-1] = 'X'

	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string][]byte{
		"/big1":  big,
		"/big2":  big,
		"/big3":  bigOther,
		"/small": []byte("small"),
		"/e1":    nil,
		"/e2":    nil,
	})
	return fs
}

func testComparer(t *testing.T, cmp Comparer) {
	tests := []struct {
		a, b  string
		equal bool
	}{
		{"/big1", "/big2", true},
		{"/big1", "/big3", false},
		{"/big1", "/small", false},
		{"/e1", "/e2", true},
		{"/e1", "/small", false},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			equal, err := cmp.Equal(tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.equal, equal)
		})
	}

	t.Run("missing", func(t *testing.T) {
		_, err := cmp.Equal("/big1", "/gone")
		assert.ErrorIs(t, err, ErrNotFound)
		var fe *FileError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "/gone", fe.Path)
	})
}

func TestByteComparer_Equal(t *testing.T) {
	testComparer(t, NewByteComparer(comparerFiles(t)))
}

func TestDigestComparer_Equal(t *testing.T) {
	testComparer(t, NewDigestComparer(comparerFiles(t)))
}

func TestDigestComparer_Cache(t *testing.T) {
	fs := comparerFiles(t)
	cmp := NewDigestComparer(fs)

	equal, err := cmp.Equal("/big1", "/big3")
	require.NoError(t, err)
	assert.False(t, equal)

	// Both digests are cached, so the removed file is not read again.
	require.NoError(t, fs.Remove("/big3"))
	equal, err = cmp.Equal("/big1", "/big3")
	require.NoError(t, err)
	assert.False(t, equal)
}

func TestGrouper_FileSystem(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFiles(t, fs, map[string][]byte{
		"/root/photos/a.jpg":      []byte("xxxxxxxxxx"),
		"/root/backup/a copy.jpg": []byte("xxxxxxxxxx"),
		"/root/notes.txt":         []byte("yyyyyyyyyyyyyyyyyyyy"),
		"/root/other.bin":         []byte("zzzzzzzzzz"),
	})

	files, err := NewFileLister(fs, 0).List("/root")
	require.NoError(t, err)

	for _, cmp := range []Comparer{NewByteComparer(fs), NewDigestComparer(fs)} {
		groups, err := NewGrouper(NewFileSizer(fs), cmp, 1).Group(files)
		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.Equal(t, []string{"/root/backup/a copy.jpg", "/root/photos/a.jpg"}, groups[0].Files)
	}
}
