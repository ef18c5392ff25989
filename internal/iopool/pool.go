// Package iopool runs a bounded worker pool over an indexed queue of I/O
// requests with first-failure cooperative cancellation, aggregated
// progress, and decile reporting. It knows nothing about shared memory or
// file formats — each Request carries its own Exec closure — so it is
// reused unchanged by both the backup and restore pipelines.
package iopool

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"go.uber.org/zap"

	"github.com/shmvault/shmvault/pkg/errors"
	"github.com/shmvault/shmvault/pkg/options"
	"github.com/shmvault/shmvault/pkg/report"
)

// Direction records whether a Request moves bytes into or out of shared
// memory.
type Direction int

const (
	// Read transfers bytes from a file into a segment.
	Read Direction = iota
	// Write transfers bytes from a segment into a file.
	Write
)

// Request is one unit of work: transfer Size bytes for Key in Direction,
// by calling Exec. Exec returns the CRC32 computed over the transferred
// bytes, or an error — the typed errors an I/O transfer can produce
// (IoError, IpcError, FormatError, IntegrityError) are valid returns.
type Request struct {
	Key       uint32
	Direction Direction
	Size      int64
	Exec      func(ctx context.Context) (crc32 uint32, err error)
}

// Outcome is the per-request result of a completed Run, indexed the same
// as the input Request slice.
type Outcome struct {
	CRC32 uint32
	Err   error
}

// Result is the aggregate output of Run.
type Result struct {
	// Outcomes is indexed identically to the Request slice passed to Run.
	// A Request that never started (because the pool had already failed)
	// has a zero Outcome (CRC32 0, Err nil).
	Outcomes []Outcome
	// BytesTransferred is the total bytes moved by successfully completed
	// requests.
	BytesTransferred int64
	// Ok is false if any request failed.
	Ok bool
}

// Pool runs bounded, cooperatively-cancellable I/O fan-out.
type Pool struct {
	threads int
	log     *zap.SugaredLogger
	verbose bool
}

// New builds a Pool. threads is clamped to [options.MinThreads,
// options.MaxThreads]. On the CLI path options.WithThreads already clamps
// and options.Validate rejects out-of-range counts; New clamps again
// because Pool may be constructed outside that path.
func New(threads int, log *zap.SugaredLogger, verbose bool) *Pool {
	if threads < options.MinThreads {
		threads = options.MinThreads
	}
	if threads > options.MaxThreads {
		threads = options.MaxThreads
	}
	return &Pool{threads: threads, log: log, verbose: verbose}
}

// Run dispatches requests across min(p.threads, len(requests)) workers.
// On the first request failure, ok is cleared under the pool's mutex;
// workers already past that check finish their in-flight request but
// start no new one. Run returns the first error encountered, or nil if
// every request succeeded.
func (p *Pool) Run(ctx context.Context, requests []Request) (Result, error) {
	res := Result{Outcomes: make([]Outcome, len(requests)), Ok: true}
	if len(requests) == 0 {
		return res, nil
	}

	workers := p.threads
	if workers > len(requests) {
		workers = len(requests)
	}

	var (
		mu        sync.Mutex
		ok        = true
		firstErr  error
		bytesDone int64
		progress  = report.NewProgress(totalBytes(requests))
	)

	var next atomic.Int64
	g, gctx := errgroup.WithContext(ctx)

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				idx := int(next.Add(1)) - 1
				if idx >= len(requests) {
					return nil
				}

				mu.Lock()
				stillOk := ok
				mu.Unlock()
				if !stillOk {
					return nil
				}

				select {
				case <-gctx.Done():
					return nil
				default:
				}

				req := requests[idx]
				crc, err := req.Exec(gctx)

				mu.Lock()
				if err != nil {
					res.Outcomes[idx] = Outcome{Err: err}
					if ok {
						ok = false
						firstErr = err
					}
					mu.Unlock()
					continue
				}

				res.Outcomes[idx] = Outcome{CRC32: crc}
				bytesDone += req.Size
				done := bytesDone
				if line, crossed := progress.CrossedDecile(done); crossed && p.verbose && p.log != nil {
					p.log.Infow(line, "key", req.Key)
				}
				mu.Unlock()
			}
		})
	}

	if err := g.Wait(); err != nil && firstErr == nil {
		firstErr = err
	}

	res.BytesTransferred = bytesDone
	res.Ok = ok && firstErr == nil
	if firstErr != nil {
		return res, wrapFirstError(firstErr)
	}
	return res, nil
}

func totalBytes(requests []Request) int64 {
	var total int64
	for _, r := range requests {
		total += r.Size
	}
	return total
}

// wrapFirstError passes through already-typed errors from pkg/errors
// unchanged; anything else is wrapped as an IoError. Worker goroutine
// panics are not recovered.
func wrapFirstError(err error) error {
	switch {
	case errors.IsIoError(err), errors.IsIpcError(err), errors.IsFormatError(err),
		errors.IsIntegrityError(err), errors.IsConflictError(err), errors.IsArgError(err):
		return err
	default:
		return errors.NewIoError(err, errors.ErrorCodeIO, "worker pool request failed")
	}
}
