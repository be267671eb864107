package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"
	"github.com/sirupsen/logrus"
)

const maxArchiveFiles = 10000 // zip-bomb protection

// IsArchive by extension. O(1) map lookup
var archiveExt = map[string]struct{}{
	".zip": {}, ".tar": {}, ".gz": {}, ".bz2": {}, ".xz": {},
	".rar": {}, ".br": {}, ".lz4": {}, ".lz": {}, ".mz": {},
	".sz": {}, ".s2": {}, ".zz": {}, ".zst": {}, ".7z": {},
}

// DirLister lists the immediate children of one directory. The traversal
// core only needs names and kinds, so tests can drive it from an in-memory
// implementation without any real I/O.
type DirLister interface {
	ReadDir(path string) ([]iofs.DirEntry, error)
}

type osLister struct{}

func (osLister) ReadDir(path string) ([]iofs.DirEntry, error) {
	return os.ReadDir(path)
}

// IsArchive checks if the file is an archive by extension.
func IsArchive(path string) bool {
	_, ok := archiveExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// WalkArchive lists files inside an archive and emits the inner paths that
// pass the extension filter. Errors opening or walking the archive are
// recoverable: the caller skips the archive and continues.
func WalkArchive(ctx context.Context, path string, opts *ScanOptions, emit func(inner string)) error {
	fsys, err := archives.FileSystem(ctx, path, nil)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", path, err)
	}
	if closer, ok := fsys.(io.Closer); ok {
		defer closer.Close()
	}

	count := 0
	return iofs.WalkDir(fsys, ".", func(inner string, d iofs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil || d.IsDir() {
			return nil
		}
		if count >= maxArchiveFiles {
			logrus.Warnf("Archive %s truncated: too many files (>= %d)", path, maxArchiveFiles)
			return errors.New("archive file limit reached")
		}
		if !opts.allowedExt(inner) {
			return nil
		}
		emit(inner)
		count++
		return nil
	})
}
