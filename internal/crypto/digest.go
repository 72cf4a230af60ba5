package crypto

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"golang.org/x/crypto/blake2b"
)

// Digest returns the BLAKE2b-256 sum of data.
func Digest(data []byte) []byte {
	sum := blake2b.Sum256(data)
	return sum[:]
}

// HexDigest is Digest encoded for log output.
func HexDigest(data []byte) string {
	return hex.EncodeToString(Digest(data))
}

// FileDigest streams the file at path through BLAKE2b-256. The result
// equals Digest of the file's content.
func FileDigest(fsys afero.Fs, path string) ([]byte, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return h.Sum(nil), nil
}
