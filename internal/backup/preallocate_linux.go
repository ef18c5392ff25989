//go:build linux

package backup

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/shmvault/shmvault/pkg/errors"
)

// preallocate reserves size bytes for f without writing them, the
// posix_fallocate equivalent spec.md §4.E calls for ahead of an
// uncompressed write.
func preallocate(f *os.File, size int64) error {
	if size == 0 {
		return nil
	}
	if err := unix.Fallocate(int(f.Fd()), 0, 0, size); err != nil {
		return errors.NewIoError(err, errors.ErrorCodeDiskFull, "failed to pre-allocate segment file").
			WithPath(f.Name())
	}
	return nil
}
