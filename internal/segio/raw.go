package segio

import (
	"hash/crc32"
	"io"
	"os"

	"github.com/shmvault/shmvault/pkg/errors"
)

// WriteRaw writes data to f starting at offset 0, looping over partial
// writes until every byte lands. A write returning 0 before the buffer is
// exhausted is treated as a short transfer and fails with an IoError
// rather than retried indefinitely — this implementation does not
// reproduce the source's "treat 0 as continue" behavior (spec §9 Open
// Questions). It returns the running CRC32 (IEEE/zlib polynomial) over
// the bytes written.
func WriteRaw(f *os.File, data []byte, path, fileName string) (uint32, error) {
	crc := crc32.NewIEEE()
	written := 0

	for written < len(data) {
		n, err := f.WriteAt(data[written:], int64(written))
		if err != nil {
			return 0, errors.NewIoError(err, errors.ErrorCodeIO, "short write to segment file").
				WithPath(path).WithFileName(fileName).WithOffset(int64(written))
		}
		if n == 0 {
			return 0, errors.NewIoError(nil, errors.ErrorCodeShortTransfer, "write returned zero bytes before completion").
				WithPath(path).WithFileName(fileName).WithOffset(int64(written))
		}

		crc.Write(data[written : written+n])
		written += n
	}

	return crc.Sum32(), nil
}

// ReadRaw reads len(dst) bytes from f starting at offset 0 into dst,
// looping over partial reads. A read returning 0 before dst is filled is
// treated as a short transfer (IoError), not a retryable condition — the
// true EOF-at-zero behavior from the source is explicitly not
// reproduced. It returns the running CRC32 over the bytes read.
func ReadRaw(f *os.File, dst []byte, path, fileName string) (uint32, error) {
	crc := crc32.NewIEEE()
	read := 0

	for read < len(dst) {
		n, err := f.ReadAt(dst[read:], int64(read))
		if err != nil && err != io.EOF {
			return 0, errors.NewIoError(err, errors.ErrorCodeIO, "short read from segment file").
				WithPath(path).WithFileName(fileName).WithOffset(int64(read))
		}
		if n == 0 {
			return 0, errors.NewIoError(nil, errors.ErrorCodeShortTransfer, "read returned zero bytes before completion").
				WithPath(path).WithFileName(fileName).WithOffset(int64(read))
		}

		crc.Write(dst[read : read+n])
		read += n
	}

	return crc.Sum32(), nil
}
