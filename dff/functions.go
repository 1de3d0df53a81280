package dff

import (
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	"github.com/minio/highwayhash"
	"github.com/spf13/afero"
)

var highwayHashKey []byte

func init() {
	key, err := hex.DecodeString("000102030405060708090A0B0C0D0E0FF0E0D0C0B0A090807060504030201000")
	if err != nil {
		panic(err)
	}
	highwayHashKey = key
}

func newHighwayHash() hash.Hash {
	h, err := highwayhash.New(highwayHashKey)
	if err != nil {
		panic(err)
	}
	return h
}

func isValidDir(fs afero.Fs, dir string) error {
	fi, err := fs.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRoot, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("%w: `%s` is not a directory", ErrInvalidRoot, dir)
	}
	return nil
}

func getHighwayHash(fs afero.Fs, path string) (checksum [highwayhash.Size]byte, err error) {
	file, err := fs.Open(path)
	if err != nil {
		return checksum, err
	}
	defer file.Close()

	h := newHighwayHash()
	if _, err = io.Copy(h, file); err != nil {
		return checksum, err
	}
	copy(checksum[:], h.Sum(nil))
	return checksum, nil
}
