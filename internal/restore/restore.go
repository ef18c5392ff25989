// Package restore implements the six-step file-to-segment restore
// pipeline: create each destination segment exclusively, attach it
// read-write and open its source file read-only, run the transfer
// through internal/iopool, apply recorded ownership via the equivalent
// of shmctl(IPC_SET), optionally re-verify CRC32 independently, and
// unconditionally clean up — destroying created segments if the unit
// failed.
package restore

import (
	"context"
	"hash/crc32"
	"os"

	"go.uber.org/zap"

	"github.com/shmvault/shmvault/internal/filescan"
	"github.com/shmvault/shmvault/internal/iopool"
	"github.com/shmvault/shmvault/internal/segio"
	"github.com/shmvault/shmvault/internal/unit"
	"github.com/shmvault/shmvault/pkg/errors"
)

// Options controls one unit's restore run.
type Options struct {
	ComputeCRC bool
	Threads    int
	Verbose    bool
	Log        *zap.SugaredLogger
}

// Result reports per-segment outcomes for a restored unit.
type Result struct {
	SegmentsRestored int
	BytesTransferred int64
}

// Run restores every file in u to live shared-memory segments, per Options.
func Run(ctx context.Context, u unit.Unit[filescan.Record], opts Options) (Result, error) {
	return run(ctx, newUnixBackend(), u, opts)
}

func run(ctx context.Context, be backend, u unit.Unit[filescan.Record], opts Options) (Result, error) {
	items, err := createAll(ctx, be, u)
	cleanupFailure := err != nil
	defer cleanup(ctx, be, items, &cleanupFailure)
	if err != nil {
		return Result{}, err
	}

	requests := make([]iopool.Request, len(items))
	for i, it := range items {
		requests[i] = iopool.Request{
			Key:       it.rec.Key,
			Direction: iopool.Read,
			Size:      it.rec.Segsz,
			Exec:      func(ctx context.Context) (uint32, error) { return readOne(it) },
		}
	}

	pool := iopool.New(opts.Threads, opts.Log, opts.Verbose)
	res, err := pool.Run(ctx, requests)
	if err != nil {
		cleanupFailure = true
		return Result{}, err
	}

	for _, it := range items {
		if err := be.SetOwnership(ctx, it.shmid, it.rec.Uid, it.rec.Gid, it.rec.Mode); err != nil {
			cleanupFailure = true
			return Result{}, err
		}
	}

	if opts.ComputeCRC {
		for i, it := range items {
			actual, err := reverifyCRC(ctx, be, it.shmid)
			if err != nil {
				cleanupFailure = true
				return Result{}, err
			}
			if actual != res.Outcomes[i].CRC32 {
				cleanupFailure = true
				return Result{}, errors.NewIntegrityError("restored segment's CRC32 disagrees with the transfer's reported CRC32").
					WithKey(it.rec.Key).WithPath(it.rec.Path).
					WithChecksums(res.Outcomes[i].CRC32, actual)
			}
		}
	}

	return Result{SegmentsRestored: len(items), BytesTransferred: res.BytesTransferred}, nil
}

// item is one file in flight through the pipeline: its decoded record,
// the segment created for it, and its opened source file.
type item struct {
	rec   filescan.Record
	shmid int
	data  []byte
	file  *os.File
}

// createAll performs steps 1-2: create every destination segment
// exclusively, attach it read-write, and open its source file read-only.
// On any failure it returns the items created so far so the caller's
// cleanup can unwind them.
func createAll(ctx context.Context, be backend, u unit.Unit[filescan.Record]) ([]*item, error) {
	records := orderedRecords(u)
	items := make([]*item, 0, len(records))

	for _, rec := range records {
		shmid, err := be.CreateExclusive(ctx, rec.Key, rec.Segsz)
		if err != nil {
			return items, err
		}

		data, err := be.AttachReadWrite(ctx, shmid)
		if err != nil {
			_ = be.Destroy(ctx, shmid)
			return items, err
		}

		f, err := os.Open(rec.Path)
		if err != nil {
			_ = be.Detach(ctx, data)
			_ = be.Destroy(ctx, shmid)
			return items, errors.ClassifyFileOpenError(err, rec.Path, rec.FileName)
		}

		items = append(items, &item{rec: rec, shmid: shmid, data: data, file: f})
	}

	return items, nil
}

// orderedRecords concatenates a unit's files in the order a restore
// should apply them: Base, Treex, PriStages, Meta, SecStages, DataStages.
func orderedRecords(u unit.Unit[filescan.Record]) []filescan.Record {
	var out []filescan.Record
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

func readOne(it *item) (uint32, error) {
	if it.rec.Compressed {
		return segio.ReadGzip(it.file, it.data, it.rec.Path, it.rec.FileName)
	}
	return segio.ReadRaw(it.file, it.data, it.rec.Path, it.rec.FileName)
}

// reverifyCRC re-attaches shmid independently of the in-flight transfer's
// own mapping, so the CRC32 it computes reflects what the kernel actually
// holds rather than the process's write buffer.
func reverifyCRC(ctx context.Context, be backend, shmid int) (uint32, error) {
	data, err := be.AttachReadWrite(ctx, shmid)
	if err != nil {
		return 0, err
	}
	defer be.Detach(ctx, data)
	return crc32.ChecksumIEEE(data), nil
}

// cleanup unconditionally closes every opened file and detaches every
// attached segment; when failed is true it additionally destroys every
// created segment, per spec.md §4.F step 6.
func cleanup(ctx context.Context, be backend, items []*item, failed *bool) {
	for _, it := range items {
		if it.file != nil {
			_ = it.file.Close()
		}
		if it.data != nil {
			_ = be.Detach(ctx, it.data)
		}
		if *failed {
			_ = be.Destroy(ctx, it.shmid)
		}
	}
}
