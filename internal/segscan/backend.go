package segscan

import "context"

// descriptor is the subset of a System V shared-memory segment's kernel
// bookkeeping that the enumerator needs: its key, owner/permission bits,
// attach count, and size.
type descriptor struct {
	ShmID  int
	Key    uint32
	Uid    uint32
	Gid    uint32
	Mode   uint32
	Nattch uint64
	Size   int64
}

// ipcBackend abstracts the System V IPC syscalls segscan needs, so
// production code can satisfy it with golang.org/x/sys/unix while tests
// satisfy it with an in-memory fake — real kernel IPC access is often
// unavailable or unprivileged in CI. Mirrors the teacher's dependency-
// injection style of taking a swappable backing store.
type ipcBackend interface {
	// MaxIndex returns the highest occupied slot in the kernel's internal
	// shared-memory segment table (the SHM_INFO idiom), so the caller can
	// iterate [0, MaxIndex] with Stat.
	MaxIndex(ctx context.Context) (int, error)

	// Stat returns the descriptor occupying the given kernel table index,
	// or ok=false if that slot is currently unused (a gap left by a
	// destroyed segment).
	Stat(ctx context.Context, index int) (desc descriptor, ok bool, err error)

	// AttachReadOnly attaches the given segment read-only and returns its
	// backing bytes.
	AttachReadOnly(ctx context.Context, shmid int) ([]byte, error)

	// Detach releases memory returned by AttachReadOnly.
	Detach(ctx context.Context, data []byte) error
}
