// Package archive loads a cartridge image from disk, transparently
// unwrapping the common ROM-distribution archive formats, grounded on
// the teacher repository's pkg/utils.LoadFile. This sits in front of
// cartridge.Load (spec §6.1): archive extraction is a concern of "how
// the bytes got onto disk", not of cartridge header parsing.
package archive

import (
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bodgit/sevenzip"
)

// Load reads path and returns the raw cartridge image bytes, transparently
// decompressing .zip, .7z and .gz containers (the first entry of an
// archive is assumed to be the ROM image, matching common ROM-archive
// conventions). Plain .gb/.gbc/.bin files are returned as-is.
func Load(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}

	switch filepath.Ext(path) {
	case ".zip":
		return loadZip(f, info.Size())
	case ".7z":
		return loadSevenZip(f, info.Size())
	case ".gz":
		return loadGzip(f)
	default:
		return io.ReadAll(f)
	}
}

func loadZip(f *os.File, size int64) ([]byte, error) {
	r, err := zip.NewReader(f, size)
	if err != nil {
		return nil, fmt.Errorf("archive: zip: %w", err)
	}
	if len(r.File) == 0 {
		return nil, fmt.Errorf("archive: zip: empty archive")
	}
	rc, err := r.File[0].Open()
	if err != nil {
		return nil, fmt.Errorf("archive: zip: %w", err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func loadSevenZip(f *os.File, size int64) ([]byte, error) {
	r, err := sevenzip.NewReader(f, size)
	if err != nil {
		return nil, fmt.Errorf("archive: 7z: %w", err)
	}
	if len(r.File) == 0 {
		return nil, fmt.Errorf("archive: 7z: empty archive")
	}
	rc, err := r.File[0].Open()
	if err != nil {
		return nil, fmt.Errorf("archive: 7z: %w", err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func loadGzip(f *os.File) ([]byte, error) {
	r, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("archive: gzip: %w", err)
	}
	defer r.Close()
	return io.ReadAll(r)
}
