package check

import (
	"os"
	"path/filepath"
)

// FileReader provides post-diff file contents by repo-relative path. The
// checker never walks the filesystem itself; everything it reads goes through
// this seam, which keeps tests hermetic and leaves room for readers backed by
// something other than a working tree.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

// DirFileReader reads files from a working tree rooted at a directory.
type DirFileReader struct {
	dir string
}

func NewDirFileReader(dir string) *DirFileReader {
	return &DirFileReader{dir: dir}
}

func (r *DirFileReader) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(filepath.Join(r.dir, path))
}
