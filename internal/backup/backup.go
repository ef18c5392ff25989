// Package backup implements the five-step segment-to-file backup
// pipeline: attach each segment read-only and create its destination
// file exclusively, pre-allocate uncompressed targets, run the transfer
// through internal/iopool, check CRC32 agreement when requested, and
// unconditionally clean up — unlinking created files if the unit failed.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/shmvault/shmvault/internal/iopool"
	"github.com/shmvault/shmvault/internal/segio"
	"github.com/shmvault/shmvault/internal/segkey"
	"github.com/shmvault/shmvault/internal/segscan"
	"github.com/shmvault/shmvault/internal/unit"
	"github.com/shmvault/shmvault/pkg/errors"
)

// Options controls one unit's backup run.
type Options struct {
	Compress   bool
	ComputeCRC bool
	Threads    int
	Verbose    bool
	Log        *zap.SugaredLogger
}

// Result reports per-segment outcomes for a backed-up unit.
type Result struct {
	FilesWritten     int
	BytesTransferred int64
}

// Run backs up every segment in u to dir, per Options.
func Run(ctx context.Context, u unit.Unit[segscan.Record], dir string, opts Options) (Result, error) {
	return run(ctx, newUnixAttacher(), u, dir, opts)
}

func run(ctx context.Context, backend attacher, u unit.Unit[segscan.Record], dir string, opts Options) (Result, error) {
	items, err := openAll(ctx, backend, u, dir, opts.Compress)
	cleanupFailure := err != nil
	defer cleanup(ctx, backend, items, &cleanupFailure)
	if err != nil {
		return Result{}, err
	}

	for _, it := range items {
		if it.compressed {
			continue
		}
		if err := preallocate(it.file, int64(len(it.data))); err != nil {
			cleanupFailure = true
			return Result{}, err
		}
	}

	requests := make([]iopool.Request, len(items))
	for i, it := range items {
		requests[i] = iopool.Request{
			Key:       it.rec.Key,
			Direction: iopool.Write,
			Size:      int64(len(it.data)),
			Exec:      func(ctx context.Context) (uint32, error) { return writeOne(it) },
		}
	}

	pool := iopool.New(opts.Threads, opts.Log, opts.Verbose)
	res, err := pool.Run(ctx, requests)
	if err != nil {
		cleanupFailure = true
		return Result{}, err
	}

	if opts.ComputeCRC {
		for i, it := range items {
			if it.rec.HasCRC32 && it.rec.CRC32 != res.Outcomes[i].CRC32 {
				cleanupFailure = true
				return Result{}, errors.NewIntegrityError("written file's CRC32 disagrees with the enumerated segment's CRC32").
					WithKey(it.rec.Key).WithPath(it.path).
					WithChecksums(it.rec.CRC32, res.Outcomes[i].CRC32)
			}
		}
	}

	return Result{FilesWritten: len(items), BytesTransferred: res.BytesTransferred}, nil
}

// item is one segment in flight through the pipeline: its decoded
// record, attached memory, and created destination file.
type item struct {
	rec        segscan.Record
	path       string
	fileName   string
	compressed bool
	data       []byte
	file       *os.File
}

// openAll performs step 1: attach every segment read-only and create its
// destination file exclusively. On any failure it returns the items
// opened so far so the caller's cleanup can unwind them.
func openAll(ctx context.Context, backend attacher, u unit.Unit[segscan.Record], dir string, compress bool) ([]*item, error) {
	records := orderedRecords(u)
	items := make([]*item, 0, len(records))

	for _, rec := range records {
		compressed := compress && rec.Kind != segkey.KindBase && rec.Kind != segkey.KindMeta
		fileName := fmt.Sprintf("%08x.dat", rec.Key)
		if compressed {
			fileName += ".gz"
		}
		path := filepath.Join(dir, fileName)

		data, err := backend.AttachReadOnly(ctx, rec.ShmID)
		if err != nil {
			return items, err
		}

		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
		if err != nil {
			_ = backend.Detach(ctx, data)
			return items, errors.ClassifyFileOpenError(err, path, fileName)
		}

		items = append(items, &item{
			rec: rec, path: path, fileName: fileName, compressed: compressed, data: data, file: f,
		})
	}

	return items, nil
}

// orderedRecords concatenates a unit's segments in the order a backup
// should write them: Base, Treex, PriStages, Meta, SecStages, DataStages.
func orderedRecords(u unit.Unit[segscan.Record]) []segscan.Record {
	var out []segscan.Record
	if u.Base != nil {
		out = append(out, *u.Base)
	}
	if u.Treex != nil {
		out = append(out, *u.Treex)
	}
	out = append(out, u.PriStages...)
	if u.Meta != nil {
		out = append(out, *u.Meta)
	}
	out = append(out, u.SecStages...)
	out = append(out, u.DataStages...)
	return out
}

func writeOne(it *item) (uint32, error) {
	var (
		crc uint32
		err error
	)
	if it.compressed {
		crc, err = segio.WriteGzip(it.file, it.data, it.path, it.fileName)
	} else {
		crc, err = segio.WriteRaw(it.file, it.data, it.path, it.fileName)
	}
	if err != nil {
		return 0, err
	}

	if err := it.file.Chown(int(it.rec.Uid), int(it.rec.Gid)); err != nil {
		return 0, errors.NewIoError(err, errors.ErrorCodeIO, "failed to chown destination file").
			WithPath(it.path).WithFileName(it.fileName)
	}
	if err := it.file.Chmod(os.FileMode(it.rec.Mode & 0o777)); err != nil {
		return 0, errors.NewIoError(err, errors.ErrorCodeIO, "failed to chmod destination file").
			WithPath(it.path).WithFileName(it.fileName)
	}

	return crc, nil
}

// cleanup unconditionally detaches every attached segment and closes
// every open file; when failed is true it additionally unlinks every
// created file, per spec.md §4.E step 5.
func cleanup(ctx context.Context, backend attacher, items []*item, failed *bool) {
	for _, it := range items {
		_ = backend.Detach(ctx, it.data)
		_ = it.file.Close()
		if *failed {
			_ = os.Remove(it.path)
		}
	}
}
