package psconfig

import (
	"fmt"
	"io"
	"os"
)

// LoadBitstream reads the whole image at path into memory. The buffer is
// sized from the file size; images larger than limit (when limit > 0) are
// refused with ErrAllocation.
//
// A read that ends before the buffer is full is not fatal: the buffer is
// returned at full size, zero filled past the data, together with an error
// wrapping ErrShortRead.
func LoadBitstream(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileNotFound, err)
	}
	defer f.Close()

	stats, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileNotFound, err)
	}
	if stats.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrFileNotFound, path)
	}

	size := stats.Size()
	if size < 0 || (limit > 0 && size > limit) || int64(int(size)) != size {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrAllocation, path, size)
	}

	data := make([]byte, size)
	if n, err := io.ReadFull(f, data); err != nil {
		return data, fmt.Errorf("%w: %s: read %d of %d bytes: %w", ErrShortRead, path, n, size, err)
	}
	return data, nil
}
