// Package driver is shmvault's top-level coordinator: it turns a validated
// options.Options into a sequence of per-namespace backup or restore runs,
// dispatching to internal/segscan, internal/filescan, internal/unit, and
// internal/backup/internal/restore, and aggregating failures so one bad
// namespace doesn't abort the rest of the list.
package driver

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/shmvault/shmvault/internal/backup"
	"github.com/shmvault/shmvault/internal/filescan"
	"github.com/shmvault/shmvault/internal/restore"
	"github.com/shmvault/shmvault/internal/segscan"
	"github.com/shmvault/shmvault/internal/unit"
	"github.com/shmvault/shmvault/pkg/errors"
	"github.com/shmvault/shmvault/pkg/filesys"
	"github.com/shmvault/shmvault/pkg/logger"
	"github.com/shmvault/shmvault/pkg/options"
	"github.com/shmvault/shmvault/pkg/report"
)

// Config holds everything one driver.Run invocation needs beyond the
// validated CLI options: where to log, where analyze-mode tables go, and
// (for tests) a segment scanner backed by something other than the host's
// real IPC table.
type Config struct {
	Options options.Options
	Log     *zap.SugaredLogger
	Out     io.Writer // analyze-mode table destination; nil defaults to os.Stdout
	Scanner *segscan.Scanner // nil defaults to a production segscan.Scanner
}

func (c Config) log() *zap.SugaredLogger {
	if c.Log != nil {
		return c.Log
	}
	return logger.Discard()
}

func (c Config) out() io.Writer {
	if c.Out != nil {
		return c.Out
	}
	return os.Stdout
}

func (c Config) scanner() *segscan.Scanner {
	if c.Scanner != nil {
		return c.Scanner
	}
	return segscan.New()
}

// Run validates cfg.Options' namespace list and dispatches each name to a
// backup or restore run in order, collecting every namespace's error
// (rather than stopping at the first) via multierr so the overall process
// exit status reflects any failure without masking the others.
func Run(ctx context.Context, cfg Config) error {
	if len(cfg.Options.Names) == 0 {
		return errors.NewMissingFlagError("-n")
	}

	log := cfg.log()
	if cfg.Options.Restore && cfg.Options.Gzip {
		log.Warn("-z has no effect on restore: compression is detected per-file from its extension")
	}

	var errs error
	for _, name := range cfg.Options.Names {
		var err error
		if cfg.Options.Backup {
			err = runBackup(ctx, cfg, name)
		} else {
			err = runRestore(ctx, cfg, name)
		}
		if err != nil {
			log.Errorw("namespace failed", "namespace", name, "error", err)
			errs = multierr.Append(errs, fmt.Errorf("namespace %q: %w", name, err))
		}
	}
	return errs
}

// runBackup finds the live unit for name, checks the backup directory for
// a destination conflict, and either backs it up or, in analyze mode,
// prints its summary row.
func runBackup(ctx context.Context, cfg Config, name string) error {
	opts := cfg.Options
	log := cfg.log()

	segRecords, err := cfg.scanner().Scan(ctx, segscan.Options{Instance: opts.Instance, ComputeCRC: opts.Compare})
	if err != nil {
		return err
	}
	segUnits, err := unit.Group(segRecords)
	if err != nil {
		return err
	}
	u, ok := findUnit(segUnits, name)
	if !ok {
		return noUnitErr(name)
	}

	if !opts.Analyze {
		if err := filesys.CreateDir(opts.Directory, 0755, true); err != nil {
			return err
		}
	}

	fileRecords, err := filescan.Scan(opts.Directory)
	if err != nil {
		return err
	}
	if err := unit.CheckConflicts([]unit.Unit[segscan.Record]{u}, errors.ErrorCodeFileExists,
		"backup directory already has a file for this namespace", presenceCheck(fileRecords)); err != nil {
		return err
	}

	if opts.Analyze {
		report.WriteUnitTable(cfg.out(), []report.UnitRow{summarize(u, "backup")})
		return nil
	}

	res, err := backup.Run(ctx, u, opts.Directory, backup.Options{
		Compress:   opts.Gzip,
		ComputeCRC: opts.Compare,
		Threads:    opts.Threads,
		Verbose:    opts.Verbose,
		Log:        log,
	})
	if err != nil {
		return err
	}
	log.Infow("namespace backed up", "namespace", name, "filesWritten", res.FilesWritten, "bytesTransferred", res.BytesTransferred)
	return nil
}

// runRestore finds the on-disk unit for name, checks the host's live
// segment table for a destination conflict, and either restores it or, in
// analyze mode, prints its summary row.
func runRestore(ctx context.Context, cfg Config, name string) error {
	opts := cfg.Options
	log := cfg.log()

	fileRecords, err := filescan.Scan(opts.Directory)
	if err != nil {
		return err
	}
	fileUnits, err := unit.Group(fileRecords)
	if err != nil {
		return err
	}
	u, ok := findUnit(fileUnits, name)
	if !ok {
		return noUnitErr(name)
	}

	segRecords, err := cfg.scanner().Scan(ctx, segscan.Options{Instance: opts.Instance})
	if err != nil {
		return err
	}
	if err := unit.CheckConflicts([]unit.Unit[filescan.Record]{u}, errors.ErrorCodeSegmentExists,
		"a live segment already exists for this namespace", presenceCheck(segRecords)); err != nil {
		return err
	}

	if opts.Analyze {
		report.WriteUnitTable(cfg.out(), []report.UnitRow{summarize(u, "restore")})
		return nil
	}

	res, err := restore.Run(ctx, u, restore.Options{
		ComputeCRC: opts.Compare,
		Threads:    opts.Threads,
		Verbose:    opts.Verbose,
		Log:        log,
	})
	if err != nil {
		return err
	}
	log.Infow("namespace restored", "namespace", name, "segmentsRestored", res.SegmentsRestored, "bytesTransferred", res.BytesTransferred)
	return nil
}

// findUnit returns the first unit whose Name equals name.
func findUnit[T unit.Keyed](units []unit.Unit[T], name string) (unit.Unit[T], bool) {
	for _, u := range units {
		if u.Name == name {
			return u, true
		}
	}
	return unit.Unit[T]{}, false
}

// presenceCheck builds a unit.CheckConflicts exists func from an
// enumeration: a (instance, nsid) pair is "present" if any record in
// records decodes to it, regardless of segment kind.
func presenceCheck[T unit.Keyed](records []T) func(instance, nsid uint8) (bool, error) {
	present := map[[2]uint8]bool{}
	for _, r := range records {
		_, instance, nsid, _, _ := r.Ident()
		present[[2]uint8{instance, nsid}] = true
	}
	return func(instance, nsid uint8) (bool, error) {
		return present[[2]uint8{instance, nsid}], nil
	}
}

func noUnitErr(name string) error {
	return errors.NewFormatError(nil, errors.ErrorCodeIncompleteUnit, "no matching namespace unit found").
		WithDetail("namespace", name)
}

func summarize[T unit.Keyed](u unit.Unit[T], action string) report.UnitRow {
	var segments int
	var bytes int64
	addOne := func(rec *T) {
		if rec == nil {
			return
		}
		segments++
		bytes += (*rec).BodySize()
	}
	addMany := func(recs []T) {
		for i := range recs {
			segments++
			bytes += recs[i].BodySize()
		}
	}

	addOne(u.Base)
	addOne(u.Treex)
	addOne(u.Meta)
	addMany(u.PriStages)
	addMany(u.SecStages)
	addMany(u.DataStages)

	return report.UnitRow{
		Instance:  u.Instance,
		Namespace: u.Name,
		Kind:      u.Kind.String(),
		Segments:  segments,
		Bytes:     bytes,
		Action:    action,
	}
}
