// Package checksum computes the short digest used to detect that a stored
// entry changed since a link to it was written or since it was cached.
package checksum

import (
	"bufio"
	"errors"
	"fmt"
	"hash/adler32"
	"io"
	"io/fs"
	"os"
)

// Sum returns the Adler-32 checksum of data. The digest covers the exact
// encoded bytes, never the decoded value.
func Sum(data []byte) uint32 {
	return adler32.Checksum(data)
}

// File returns the checksum of the file at path. ok is false when the file
// does not exist.
func File(path string) (sum uint32, ok bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := adler32.New()
	if _, err := io.Copy(h, bufio.NewReader(f)); err != nil {
		return 0, false, fmt.Errorf("reading %s: %w", path, err)
	}
	return h.Sum32(), true, nil
}
