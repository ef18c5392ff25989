package segio

import (
	"hash/crc32"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"

	"github.com/shmvault/shmvault/pkg/errors"
)

// chunkSize is the recommended output-slice size for streaming the
// deflate/inflate pass.
const chunkSize = 1 << 20 // 1 MiB

// WriteGzip writes a placeholder header, gzip-compresses data at
// BestSpeed, then seeks back and rewrites the header with the final
// CRC32. It returns the CRC32 over the uncompressed bytes.
func WriteGzip(f *os.File, data []byte, path, fileName string) (uint32, error) {
	placeholder := Header{Magic: MagicCurrent, Version: HeaderVersion, Segsz: uint64(len(data))}
	if _, err := f.WriteAt(placeholder.Marshal(), 0); err != nil {
		return 0, errors.NewIoError(err, errors.ErrorCodeIO, "failed to write compressed-header placeholder").
			WithPath(path).WithFileName(fileName)
	}

	if err := f.Truncate(HeaderSize); err != nil {
		return 0, errors.NewIoError(err, errors.ErrorCodeIO, "failed to truncate compressed file to header size").
			WithPath(path).WithFileName(fileName)
	}
	if _, err := f.Seek(HeaderSize, io.SeekStart); err != nil {
		return 0, errors.NewIoError(err, errors.ErrorCodeIO, "failed to seek past compressed header").
			WithPath(path).WithFileName(fileName)
	}

	zw, err := gzip.NewWriterLevel(f, gzip.BestSpeed)
	if err != nil {
		return 0, errors.NewIoError(err, errors.ErrorCodeIO, "failed to initialize deflate stream").
			WithPath(path).WithFileName(fileName)
	}

	crc := crc32.NewIEEE()
	for off := 0; off < len(data); off += chunkSize {
		end := off + chunkSize
		if end > len(data) {
			end = len(data)
		}
		chunk := data[off:end]
		if _, err := zw.Write(chunk); err != nil {
			return 0, errors.NewIoError(err, errors.ErrorCodeIO, "failed writing deflate chunk").
				WithPath(path).WithFileName(fileName).WithOffset(int64(off))
		}
		crc.Write(chunk)
	}

	if err := zw.Close(); err != nil {
		return 0, errors.NewIoError(err, errors.ErrorCodeIO, "failed closing deflate stream").
			WithPath(path).WithFileName(fileName)
	}

	final := crc.Sum32()
	hdr := Header{Magic: MagicCurrent, Version: HeaderVersion, Segsz: uint64(len(data)), Crc32: final}
	if _, err := f.WriteAt(hdr.Marshal(), 0); err != nil {
		return 0, errors.NewIoError(err, errors.ErrorCodeIO, "failed to finalize compressed header").
			WithPath(path).WithFileName(fileName)
	}

	return final, nil
}

// ReadGzip reads and validates the header, then inflates the body
// directly into dst, which must be exactly the header's logical segment
// size. It returns the CRC32 computed over the inflated bytes.
func ReadGzip(f *os.File, dst []byte, path, fileName string) (uint32, error) {
	hdrBuf := make([]byte, HeaderSize)
	if _, err := f.ReadAt(hdrBuf, 0); err != nil {
		return 0, errors.NewIoError(err, errors.ErrorCodeIO, "failed to read compressed header").
			WithPath(path).WithFileName(fileName)
	}

	hdr, err := UnmarshalHeader(hdrBuf)
	if err != nil {
		return 0, err
	}
	if hdr.Segsz != uint64(len(dst)) {
		return 0, errors.NewFormatError(nil, errors.ErrorCodeInvalidHeader, "compressed header segsz disagrees with expected segment size").
			WithPath(path).WithField("segsz").WithProvided(hdr.Segsz).WithExpected(len(dst))
	}

	body := io.NewSectionReader(f, HeaderSize, fileSize(f)-HeaderSize)
	zr, err := gzip.NewReader(body)
	if err != nil {
		return 0, errors.NewFormatError(err, errors.ErrorCodeInvalidHeader, "failed to open deflate stream").
			WithPath(path).WithDetail("fileName", fileName)
	}
	defer zr.Close()

	crc := crc32.NewIEEE()
	written := 0
	for written < len(dst) {
		end := written + chunkSize
		if end > len(dst) {
			end = len(dst)
		}
		n, err := io.ReadFull(zr, dst[written:end])
		if n > 0 {
			crc.Write(dst[written : written+n])
			written += n
		}
		if err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				if written < len(dst) {
					return 0, errors.NewIoError(err, errors.ErrorCodeShortTransfer, "inflate stream ended before segsz bytes were produced").
						WithPath(path).WithFileName(fileName).WithOffset(int64(written))
				}
				break
			}
			return 0, errors.NewIoError(err, errors.ErrorCodeIO, "failed reading inflate stream").
				WithPath(path).WithFileName(fileName).WithOffset(int64(written))
		}
	}

	// dst is sized to exactly segsz bytes, so the fill loop above stops the
	// instant it's full and never issues the read that would observe the
	// gzip trailer: the reader only validates its CRC32/ISIZE footer on the
	// read call that returns io.EOF, which happens strictly after the last
	// payload byte. Force that read here so a corrupted trailer surfaces.
	var trailer [1]byte
	if n, terr := zr.Read(trailer[:]); terr != io.EOF {
		if terr == nil && n > 0 {
			return 0, errors.NewFormatError(nil, errors.ErrorCodeInvalidHeader, "inflate stream produced more data than segsz").
				WithPath(path).WithDetail("fileName", fileName)
		}
		return 0, errors.NewIntegrityError("gzip trailer checksum verification failed").
			WithPath(path).WithDetail("fileName", fileName)
	}

	return crc.Sum32(), nil
}

func fileSize(f *os.File) int64 {
	fi, err := f.Stat()
	if err != nil {
		return HeaderSize
	}
	return fi.Size()
}
