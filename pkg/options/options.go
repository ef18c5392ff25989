// Package options defines the run configuration for shmvault: which
// operation to perform, which namespaces and instance to target, where the
// backup directory lives, and how much concurrency and verification to use.
// It mirrors the functional-options pattern used across the rest of the
// project so callers (the CLI, and tests) can build an Options value
// incrementally and validate it once, in one place.
package options

import (
	"runtime"
	"strings"

	"github.com/shmvault/shmvault/pkg/errors"
)

// Options defines the configuration parameters for one shmvault invocation.
type Options struct {
	// Analyze, when true, runs the requested operation's discovery and
	// validation steps but performs no mutation — no files written, no
	// segments created or destroyed.
	Analyze bool

	// Backup backs up shared-memory segments to files. Exactly one of
	// Backup or Restore must be set.
	Backup bool

	// Restore restores shared-memory segments from files.
	Restore bool

	// Compare enables CRC32 verification between the segment image and the
	// file image at each transfer.
	Compare bool

	// Gzip compresses segment files on backup. It has no effect on restore
	// (compression is detected per-file from the on-disk extension) and a
	// warning is printed when combined with Restore.
	Gzip bool

	// Verbose enables decile progress reporting and additional logging.
	Verbose bool

	// Instance selects which database instance's segments to operate on.
	//
	//   - Default: 0
	//   - Range: [0, 15]
	Instance uint8

	// Names is the ordered list of namespace names to process. Mandatory;
	// an empty list is a fatal configuration error.
	Names []string

	// Directory is the backup directory. For backup, it is created if
	// missing; for analyze, it must already exist; for restore, it must
	// exist and be readable.
	Directory string

	// Threads caps the number of concurrent I/O workers used by the
	// backup/restore pipeline.
	//
	//   - Default: runtime.NumCPU()
	//   - Range: [1, 1024]
	Threads int
}

// OptionFunc is a function type that modifies an Options value.
type OptionFunc func(*Options)

// New builds an Options value from the baseline defaults overridden by opts,
// applied in order.
func New(opts ...OptionFunc) Options {
	o := NewDefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithAnalyze toggles analyze-only mode.
func WithAnalyze(analyze bool) OptionFunc {
	return func(o *Options) { o.Analyze = analyze }
}

// WithBackup selects the backup operation.
func WithBackup() OptionFunc {
	return func(o *Options) { o.Backup, o.Restore = true, false }
}

// WithRestore selects the restore operation.
func WithRestore() OptionFunc {
	return func(o *Options) { o.Restore, o.Backup = true, false }
}

// WithCompare toggles CRC32 verification.
func WithCompare(compare bool) OptionFunc {
	return func(o *Options) { o.Compare = compare }
}

// WithGzip toggles gzip compression on backup.
func WithGzip(gzip bool) OptionFunc {
	return func(o *Options) { o.Gzip = gzip }
}

// WithVerbose toggles verbose progress reporting.
func WithVerbose(verbose bool) OptionFunc {
	return func(o *Options) { o.Verbose = verbose }
}

// WithInstance sets the target database instance.
func WithInstance(instance uint8) OptionFunc {
	return func(o *Options) { o.Instance = instance }
}

// WithNames sets the ordered list of namespace names to process, discarding
// blank entries.
func WithNames(names []string) OptionFunc {
	return func(o *Options) {
		cleaned := make([]string, 0, len(names))
		for _, n := range names {
			n = strings.TrimSpace(n)
			if n != "" {
				cleaned = append(cleaned, n)
			}
		}
		o.Names = cleaned
	}
}

// WithDirectory sets the backup directory.
func WithDirectory(dir string) OptionFunc {
	return func(o *Options) {
		dir = strings.TrimSpace(dir)
		if dir != "" {
			o.Directory = dir
		}
	}
}

// WithThreads sets the maximum I/O worker count, clamped to [MinThreads, MaxThreads].
func WithThreads(threads int) OptionFunc {
	return func(o *Options) {
		if threads < MinThreads {
			threads = MinThreads
		}
		if threads > MaxThreads {
			threads = MaxThreads
		}
		o.Threads = threads
	}
}

// Validate enforces the CLI contract: exactly one of Backup/Restore, a
// non-empty namespace list, a non-empty directory, and an instance/thread
// count within range.
func (o *Options) Validate() error {
	if o.Backup == o.Restore {
		return errors.NewConflictingFlagsError("-b", "-r").
			WithMessage("exactly one of -b or -r must be given")
	}
	if len(o.Names) == 0 {
		return errors.NewMissingFlagError("-n")
	}
	if strings.TrimSpace(o.Directory) == "" {
		return errors.NewMissingFlagError("-p")
	}
	if o.Instance > MaxInstance {
		return errors.NewFlagRangeError("-i", o.Instance, MinInstance, MaxInstance)
	}
	if o.Threads < MinThreads || o.Threads > MaxThreads {
		return errors.NewFlagRangeError("-t", o.Threads, MinThreads, MaxThreads)
	}
	return nil
}

// DefaultThreadCount returns the host's default worker count, the number of
// logical CPUs as reported by the runtime. No ecosystem library in the
// retrieved corpus wraps this single call more idiomatically than
// runtime.NumCPU itself, so it stays on the standard library.
func DefaultThreadCount() int {
	return runtime.NumCPU()
}
