// Package artifact provides the freshness predicate and transactional write
// scope shared by every file-producing step of the coverage pipeline.
// An artifact is only ever read after UpToDate confirms it is not older than
// its inputs, and only ever written through a Tx so a failed producer leaves
// nothing at the final path.
package artifact

import (
	"io"
	"os"
	"path/filepath"

	"github.com/vertgenlab/gonomics/exception"
)

// Exists reports whether path names an existing file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// UpToDate reports whether path exists and has a modification time at least
// as recent as every named dependency. Empty dependency strings are ignored.
// A dependency that does not exist forces regeneration.
func UpToDate(path string, deps ...string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	for i := range deps {
		if deps[i] == "" {
			continue
		}
		depInfo, err := os.Stat(deps[i])
		if err != nil {
			return false
		}
		if info.ModTime().Before(depInfo.ModTime()) {
			return false
		}
	}
	return true
}

// SafeMkdir creates dir and any missing parents, returning dir.
func SafeMkdir(dir string) string {
	err := os.MkdirAll(dir, 0755)
	exception.PanicOnErr(err)
	return dir
}

// Tx stages output files in a temporary directory next to their final
// location and renames them into place only on Commit. If the producer fails
// before Commit, Discard removes the staging directory and the final paths
// are untouched.
type Tx struct {
	dir    string
	staged []string
	finals []string
}

// Begin creates a staging directory under workDir. The staging directory
// must share a filesystem with the final paths so Commit can rename.
func Begin(workDir string) *Tx {
	dir, err := os.MkdirTemp(SafeMkdir(workDir), "tx")
	exception.PanicOnErr(err)
	return &Tx{dir: dir}
}

// Dir returns the staging directory.
func (t *Tx) Dir() string {
	return t.dir
}

// Stage registers final as an output of this transaction and returns the
// staging path to write instead. The staged file keeps the final basename so
// external tools given a staging prefix produce correctly named outputs.
func (t *Tx) Stage(final string) string {
	staged := filepath.Join(t.dir, filepath.Base(final))
	t.staged = append(t.staged, staged)
	t.finals = append(t.finals, final)
	return staged
}

// Commit renames every staged file to its final path and removes the staging
// directory. Must only be called after the producer finished successfully.
func (t *Tx) Commit() {
	var err error
	for i := range t.staged {
		err = os.Rename(t.staged[i], t.finals[i])
		exception.PanicOnErr(err)
	}
	err = os.RemoveAll(t.dir)
	exception.PanicOnErr(err)
}

// Discard removes the staging directory and any files written to it.
// Discard after Commit is a no-op, so it is safe to defer.
func (t *Tx) Discard() {
	os.RemoveAll(t.dir)
}

// Copy duplicates src to dst, replacing dst if present.
func Copy(src, dst string) {
	in, err := os.Open(src)
	exception.PanicOnErr(err)
	out, err := os.Create(dst)
	exception.PanicOnErr(err)
	_, err = io.Copy(out, in)
	exception.PanicOnErr(err)
	err = in.Close()
	exception.PanicOnErr(err)
	err = out.Close()
	exception.PanicOnErr(err)
}
