package fs

import (
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/travetto/travetto-sub016/internal/core/domain"
	"github.com/travetto/travetto-sub016/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Hasher = (*Hasher)(nil)

// Hasher computes xxhash based content hashes.
type Hasher struct{}

// NewHasher creates a new Hasher.
func NewHasher() *Hasher {
	return &Hasher{}
}

// ComputeFileHash computes the XXHash of a file's content.
func (h *Hasher) ComputeFileHash(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrFileHashFailed.Error()), "path", path)
	}

	return hasher.Sum64(), nil
}

// HashFile returns the hex content hash of the file at path.
func (h *Hasher) HashFile(path string) (string, error) {
	sum, err := h.ComputeFileHash(path)
	if err != nil {
		return "", err
	}
	return format(sum), nil
}

// HashBytes returns the hex content hash of data.
func (h *Hasher) HashBytes(data []byte) string {
	return format(xxhash.Sum64(data))
}

// Key combines parts into one hash. Each part is NUL terminated so that
// ("ab", "c") and ("a", "bc") differ.
func (h *Hasher) Key(parts ...string) string {
	hasher := xxhash.New()
	for _, part := range parts {
		_, _ = hasher.WriteString(part)
		_, _ = hasher.Write([]byte{0})
	}
	return format(hasher.Sum64())
}

func format(sum uint64) string {
	return fmt.Sprintf("%016x", sum)
}
