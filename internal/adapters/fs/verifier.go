package fs

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/travetto/travetto-sub016/internal/core/domain"
	"github.com/travetto/travetto-sub016/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.OutputStore = (*Outputs)(nil)

// Outputs writes compiled files into a flat output directory and verifies
// them through their trailing hash comment.
type Outputs struct {
	dir string
}

// NewOutputs creates an output store rooted at dir.
func NewOutputs(dir string) *Outputs {
	return &Outputs{dir: dir}
}

// PathFor returns the output file path of a module id.
func (o *Outputs) PathFor(moduleID string) string {
	return filepath.Join(o.dir, domain.OutputFileName(moduleID))
}

// Write stores code followed by the hash trailer. The file is replaced atomically.
func (o *Outputs) Write(path string, code []byte, hash string) error {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrOutputWriteFailed.Error()), "path", path)
	}

	var buf bytes.Buffer
	buf.Grow(len(code) + len(domain.HashTrailerPrefix) + len(hash) + 2)
	buf.Write(code)
	if len(code) > 0 && code[len(code)-1] != '\n' {
		buf.WriteByte('\n')
	}
	buf.WriteString(domain.HashTrailer(hash))

	return WriteFileAtomic(path, buf.Bytes())
}

// Verify reports whether the output at path exists and its trailer carries hash.
func (o *Outputs) Verify(path, hash string) (bool, error) {
	got, err := ReadTrailer(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return got == hash, nil
}

// Remove deletes the output at path. A missing file is not an error.
func (o *Outputs) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return zerr.With(zerr.Wrap(err, "failed to remove output"), "path", path)
	}
	return nil
}

// ReadTrailer returns the hash recorded in the trailing comment of an output file.
// A file without a trailer yields an empty hash.
func ReadTrailer(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Output paths are derived from the cache directory
	if err != nil {
		if os.IsNotExist(err) {
			return "", err
		}
		return "", zerr.With(zerr.Wrap(err, "failed to read output"), "path", path)
	}

	data = bytes.TrimRight(data, "\n")
	lastLine := data
	if i := bytes.LastIndexByte(data, '\n'); i >= 0 {
		lastLine = data[i+1:]
	}
	hash, ok := strings.CutPrefix(string(lastLine), domain.HashTrailerPrefix)
	if !ok {
		return "", nil
	}
	return strings.TrimSpace(hash), nil
}

// WriteFileAtomic writes data to a temporary file next to path and renames it into place.
func WriteFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrOutputWriteFailed.Error()), "path", path)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return zerr.With(zerr.Wrap(err, domain.ErrOutputWriteFailed.Error()), "path", path)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return zerr.With(zerr.Wrap(err, domain.ErrOutputWriteFailed.Error()), "path", path)
	}
	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		_ = os.Remove(tmpName)
		return zerr.With(zerr.Wrap(err, domain.ErrOutputWriteFailed.Error()), "path", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return zerr.With(zerr.Wrap(err, domain.ErrOutputWriteFailed.Error()), "path", path)
	}
	return nil
}
